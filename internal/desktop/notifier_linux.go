//go:build linux

package desktop

import (
	"path/filepath"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v3/pkg/services/notifications"

	domainevents "github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/notify"
	"github.com/theezgbp/ezgbp-desktop/internal/sync"
)

const (
	fdoNotifications     = "org.freedesktop.Notifications"
	fdoNotificationsPath = "/org/freedesktop/Notifications"
	fdoDefaultAction     = "default"
)

type sentNotification struct {
	id   string
	data map[string]string
}

// dbusIconSender posts notifications with an icon straight to the
// freedesktop notification daemon and reports clicks on them.
type dbusIconSender struct {
	appName string
	publish func(domainevents.Event)

	once sync.Once
	conn *dbus.Conn

	mu   sync.Mutex
	sent map[uint32]sentNotification
}

func newIconSender(appName string, publish func(domainevents.Event)) iconSender {
	return &dbusIconSender{
		appName: appName,
		publish: publish,
		sent:    make(map[uint32]sentNotification),
	}
}

func (s *dbusIconSender) connect() *dbus.Conn {
	s.once.Do(func() {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			log.Debug().Err(err).Msg("no session bus for notification icons")
			return
		}
		for _, member := range []string{"ActionInvoked", "NotificationClosed"} {
			if err := conn.AddMatchSignal(
				dbus.WithMatchInterface(fdoNotifications),
				dbus.WithMatchMember(member),
			); err != nil {
				log.Debug().Err(err).Str("signal", member).Msg("notification signal not watched")
			}
		}
		signals := make(chan *dbus.Signal, 16)
		conn.Signal(signals)
		go s.watch(signals)
		s.conn = conn
	})
	return s.conn
}

// Send reports false when the notification should go through the Wails
// service instead.
func (s *dbusIconSender) Send(msg notify.Notification) bool {
	icon, ok := iconArg(msg.Icon)
	if !ok {
		return false
	}
	conn := s.connect()
	if conn == nil {
		return false
	}

	call := conn.Object(fdoNotifications, fdoNotificationsPath).Call(
		fdoNotifications+".Notify", 0,
		s.appName,
		uint32(0),
		icon,
		msg.Title,
		msg.Body,
		[]string{fdoDefaultAction, "Open"},
		notifyHints(msg.ID, icon),
		int32(-1),
	)
	if call.Err != nil {
		log.Warn().Err(call.Err).Msg("notification with icon failed")
		return false
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		log.Warn().Err(err).Msg("notification id unreadable")
		return false
	}

	s.mu.Lock()
	s.sent[id] = sentNotification{id: msg.ID, data: msg.Data}
	s.mu.Unlock()
	return true
}

func notifyHints(id, icon string) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"x-notification-id": dbus.MakeVariant(id),
	}
	if filepath.IsAbs(icon) {
		hints["image-path"] = dbus.MakeVariant(icon)
	}
	return hints
}

func (s *dbusIconSender) watch(signals <-chan *dbus.Signal) {
	for sig := range signals {
		if e := s.handle(sig); e != nil && s.publish != nil {
			s.publish(e)
		}
	}
}

// handle forgets a notification once the daemon reports on it and returns
// the click event for an invoked action.
func (s *dbusIconSender) handle(sig *dbus.Signal) domainevents.Event {
	if sig == nil || len(sig.Body) == 0 {
		return nil
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return nil
	}

	s.mu.Lock()
	n, known := s.sent[id]
	delete(s.sent, id)
	s.mu.Unlock()

	if !known || sig.Name != fdoNotifications+".ActionInvoked" || len(sig.Body) < 2 {
		return nil
	}
	action, _ := sig.Body[1].(string)
	if action == fdoDefaultAction {
		action = notifications.DefaultActionIdentifier
	}
	return domainevents.NewNotificationClickedEvent(n.id, action, n.data)
}

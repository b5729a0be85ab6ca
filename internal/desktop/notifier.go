package desktop

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v3/pkg/services/notifications"

	domainevents "github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/notify"
	"github.com/theezgbp/ezgbp-desktop/internal/sync"
)

// iconSender shows notifications that carry their own icon. The Wails
// service always shows the application icon.
type iconSender interface {
	Send(msg notify.Notification) bool
}

// notifier is the notify.Backend on top of the Wails notifications service.
// Clicks come back as notification_clicked events.
type notifier struct {
	svc   *notifications.NotificationService
	icons iconSender

	authOnce   sync.Once
	authorized bool
}

func newNotifier(svc *notifications.NotificationService, appName string, publish func(domainevents.Event)) *notifier {
	svc.OnNotificationResponse(func(result notifications.NotificationResult) {
		if result.Error != nil {
			log.Warn().Err(result.Error).Msg("notification response error")
			return
		}
		r := result.Response
		publish(domainevents.NewNotificationClickedEvent(r.ID, r.ActionIdentifier, stringData(r.UserInfo)))
	})
	return &notifier{svc: svc, icons: newIconSender(appName, publish)}
}

// Supported asks for permission once on macOS; other platforms need none.
func (n *notifier) Supported() bool {
	n.authOnce.Do(func() {
		if runtime.GOOS != "darwin" {
			n.authorized = true
			return
		}
		ok, err := n.svc.RequestNotificationAuthorization()
		if err != nil {
			log.Warn().Err(err).Msg("notification authorization failed")
		}
		n.authorized = ok
	})
	return n.authorized
}

func (n *notifier) Send(msg notify.Notification) error {
	if n.icons != nil && n.icons.Send(msg) {
		return nil
	}
	return n.svc.SendNotification(notifications.NotificationOptions{
		ID:    msg.ID,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  anyData(msg.Data),
	})
}

var _ notify.Backend = (*notifier)(nil)

// iconArg converts a notification icon into the form the desktop
// notification daemon accepts: a local path, a file URI or a theme icon
// name. Remote icons are not supported.
func iconArg(icon string) (string, bool) {
	icon = strings.TrimSpace(icon)
	switch {
	case icon == "":
		return "", false
	case strings.HasPrefix(icon, "file://"):
		return icon, true
	case strings.Contains(icon, "://"), strings.HasPrefix(icon, "data:"):
		return "", false
	}
	return icon, true
}

func anyData(in map[string]string) map[string]interface{} {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func stringData(in map[string]interface{}) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

//go:build linux

package desktop

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainevents "github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/notify"
)

func TestIconSender_SkipsWithoutIcon(t *testing.T) {
	s := newIconSender("EzGBP", nil)
	assert.False(t, s.Send(notify.Notification{ID: "n1", Title: "Paid"}))
	assert.False(t, s.Send(notify.Notification{ID: "n2", Title: "Paid", Icon: "https://cdn.test/i.png"}))
}

func TestNotifyHints(t *testing.T) {
	h := notifyHints("n1", "/opt/ezgbp/icon.png")
	assert.Equal(t, dbus.MakeVariant("n1"), h["x-notification-id"])
	assert.Equal(t, dbus.MakeVariant("/opt/ezgbp/icon.png"), h["image-path"])

	h = notifyHints("n2", "dialog-information")
	_, ok := h["image-path"]
	assert.False(t, ok, "theme icon names are not image paths")
}

func TestIconSender_Click(t *testing.T) {
	s := newIconSender("EzGBP", nil).(*dbusIconSender)
	s.sent[7] = sentNotification{id: "n1", data: map[string]string{"action": "install"}}
	s.sent[8] = sentNotification{id: "n2"}

	e := s.handle(&dbus.Signal{Name: fdoNotifications + ".ActionInvoked", Body: []interface{}{uint32(7), "default"}})
	require.NotNil(t, e)
	assert.Equal(t, domainevents.EventTypeNotificationClicked, e.Type())
	p := e.(*domainevents.BaseEvent).Payload.(domainevents.NotificationClickedPayload)
	assert.Equal(t, "n1", p.ID)
	assert.Equal(t, "DEFAULT_ACTION", p.Action)
	assert.Equal(t, "install", p.Data["action"])

	// Reported once.
	assert.Nil(t, s.handle(&dbus.Signal{Name: fdoNotifications + ".ActionInvoked", Body: []interface{}{uint32(7), "default"}}))

	// Closing without a click forgets the notification.
	assert.Nil(t, s.handle(&dbus.Signal{Name: fdoNotifications + ".NotificationClosed", Body: []interface{}{uint32(8), uint32(2)}}))
	assert.Empty(t, s.sent)

	// Notifications sent by someone else are ignored.
	assert.Nil(t, s.handle(&dbus.Signal{Name: fdoNotifications + ".ActionInvoked", Body: []interface{}{uint32(99), "default"}}))
}

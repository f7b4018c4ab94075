package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest = "org.freedesktop.Notifications"
	notificationsPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod      = notificationsDest + ".Notify"
)

// DBus sends desktop notifications over the freedesktop session bus.
type DBus struct {
	appName string
	summary string
}

// NewDBus returns a DBus notifier that labels notifications with appName.
func NewDBus(appName string) *DBus {
	return &DBus{appName: appName, summary: "Pomodoro"}
}

// Notify implements Notifier. A connection is opened per message.
func (n *DBus) Notify(ctx context.Context, message string) error {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()

	obj := conn.Object(notificationsDest, notificationsPath)
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		n.appName,
		uint32(0),
		"",
		n.summary,
		message,
		[]string{},
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(1))},
		int32(-1),
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}

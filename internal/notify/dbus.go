//go:build linux

package notify

import (
	"github.com/godbus/dbus/v5"
)

const (
	notifyDest      = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
	notifyInterface = "org.freedesktop.Notifications"
)

type dbusNotifier struct {
	app string
	obj dbus.BusObject
}

// New returns a Notifier posting as app on the session bus, or Noop when
// there is no session bus.
func New(app string) Notifier {
	conn, err := dbus.SessionBus()
	if err != nil {
		return Noop{}
	}
	return &dbusNotifier{app: app, obj: conn.Object(notifyDest, notifyPath)}
}

// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout) -> id
func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(notif.Urgency)),
		"desktop-entry": dbus.MakeVariant(n.app),
	}
	call := n.obj.Call(notifyInterface+".Notify", 0,
		n.app,
		notif.ReplacesID,
		notif.Icon,
		notif.Title,
		notif.Body,
		[]string{},
		hints,
		notif.Timeout,
	)
	if call.Err != nil {
		return 0, call.Err
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (n *dbusNotifier) Close(id uint32) error {
	return n.obj.Call(notifyInterface+".CloseNotification", 0, id).Err
}

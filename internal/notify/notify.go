// Package notify posts desktop notifications over D-Bus.
package notify

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification is one desktop notification.
type Notification struct {
	Title      string
	Body       string
	Icon       string // image path or icon name
	Timeout    int32  // ms, -1 = server default, 0 = never expire
	ReplacesID uint32 // 0 posts a new notification
	Urgency    Urgency
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify posts n and returns its id. A disabled notifier returns 0, nil.
	Notify(n Notification) (uint32, error)
	// Close withdraws a notification.
	Close(id uint32) error
}

// Noop discards every notification.
type Noop struct{}

func (Noop) Notify(Notification) (uint32, error) { return 0, nil }

func (Noop) Close(uint32) error { return nil }

//go:build !linux

package notify

// New returns Noop; desktop notifications need D-Bus.
func New(_ string) Notifier {
	return Noop{}
}

//go:build !unix

package stderr

import "github.com/charmbracelet/log"

// Capture is a no-op: only unix audio backends write to fd 2 directly.
func Capture(_ *log.Logger) (restore func(), err error) {
	return func() {}, nil
}

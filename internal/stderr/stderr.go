//go:build unix

// Package stderr captures output that C audio libraries write straight to
// file descriptor 2, so it lands in the log instead of over the terminal
// view.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"

	"github.com/llehouerou/openspot/internal/logging"
)

// Capture redirects file descriptor 2 into logger until restore is called.
// If the redirect cannot be set up, stderr is left untouched.
func Capture(logger *log.Logger) (restore func(), err error) {
	logger = logging.OrDiscard(logger)

	r, w, err := os.Pipe()
	if err != nil {
		return func() {}, err
	}
	orig, err := unix.Dup(unix.Stderr)
	if err != nil {
		r.Close()
		w.Close()
		return func() {}, err
	}
	if err := unix.Dup2(int(w.Fd()), unix.Stderr); err != nil {
		unix.Close(orig)
		r.Close()
		w.Close()
		return func() {}, err
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				logger.Warn(line, "source", "stderr")
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = unix.Dup2(orig, unix.Stderr)
			_ = unix.Close(orig)
			w.Close()
			<-drained
			r.Close()
		})
	}, nil
}

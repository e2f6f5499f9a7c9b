package downloads

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressFunc receives the bytes written so far and the expected total.
// expected is 0 when the server did not announce a length.
type ProgressFunc func(written, expected int64)

// Transferer copies a remote resource to a local file.
type Transferer interface {
	Transfer(ctx context.Context, url, dest string, progress ProgressFunc) error
}

// HTTPTransfer downloads over HTTP. It has no timeout of its own; cancel
// the context to abort.
type HTTPTransfer struct {
	Client *http.Client
}

// Verify HTTPTransfer implements Transferer at compile time.
var _ Transferer = (*HTTPTransfer)(nil)

// Transfer writes url to dest, truncating an existing file. A failed
// transfer leaves the partial file in place.
func (h *HTTPTransfer) Transfer(ctx context.Context, url, dest string, progress ProgressFunc) error {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}

	expected := max(resp.ContentLength, 0)
	pw := &progressWriter{expected: expected, report: progress}
	if _, err := io.Copy(io.MultiWriter(f, pw), resp.Body); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// progressWriter counts bytes and reports them.
type progressWriter struct {
	written  int64
	expected int64
	report   ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.report != nil {
		w.report(w.written, w.expected)
	}
	return len(p), nil
}

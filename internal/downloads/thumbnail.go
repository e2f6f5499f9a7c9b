package downloads

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder for cover art
	"net/http"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
)

// DefaultThumbnailWidth is the width offline cover art is scaled to.
const DefaultThumbnailWidth = 300

// Thumbnailer saves cover art for an offline track.
type Thumbnailer interface {
	Save(ctx context.Context, url, dest string) error
}

// HTTPThumbnailer fetches an image and stores it as a JPEG scaled to Width
// pixels wide. Smaller images are stored at their own size.
type HTTPThumbnailer struct {
	Client *http.Client
	Width  uint
}

// Verify HTTPThumbnailer implements Thumbnailer at compile time.
var _ Thumbnailer = (*HTTPThumbnailer)(nil)

func (h *HTTPThumbnailer) Save(ctx context.Context, url, dest string) error {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	width := h.Width
	if width == 0 {
		width = DefaultThumbnailWidth
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
		return fmt.Errorf("fetch cover: %s", resp.Status)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return fmt.Errorf("decode cover: %w", err)
	}
	if uint(img.Bounds().Dx()) > width {
		img = resize.Resize(width, 0, img, resize.Lanczos3)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return err
	}
	return f.Close()
}

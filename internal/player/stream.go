package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
)

// source is an opened, seekable audio file. Remote streams are buffered to a
// temp file that is removed on close.
type source struct {
	file *os.File
	temp bool
}

func (s *source) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	err := s.file.Close()
	if s.temp {
		_ = os.Remove(s.file.Name())
	}
	s.file = nil
	return err
}

// openSource opens a local path, a file:// URL or an http(s):// URL.
func openSource(ctx context.Context, client *http.Client, rawURL string) (*source, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		f, err := os.Open(rawURL)
		if err != nil {
			return nil, err
		}
		return &source{file: f}, nil
	}

	switch u.Scheme {
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, err
		}
		return &source{file: f}, nil
	case "http", "https":
		return fetchToTemp(ctx, client, rawURL)
	default:
		return nil, fmt.Errorf("unsupported url scheme: %s", u.Scheme)
	}
}

func fetchToTemp(ctx context.Context, client *http.Client, rawURL string) (*source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch stream: %s", resp.Status)
	}

	f, err := os.CreateTemp("", "openspot-stream-*")
	if err != nil {
		return nil, err
	}
	src := &source{file: f, temp: true}
	if _, err := io.Copy(f, resp.Body); err != nil {
		src.Close()
		return nil, fmt.Errorf("buffer stream: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		src.Close()
		return nil, err
	}
	return src, nil
}

// decode sniffs the container and decodes MP3 or FLAC. A leading ID3v2
// tag is skipped for FLAC, which the FLAC decoder doesn't handle; MP3 is
// decoded from the start since its decoder ignores the tag.
func decode(f io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	tagEnd, err := skipID3v2(f)
	if err != nil {
		return nil, beep.Format{}, err
	}
	magic := make([]byte, 4)
	n, _ := io.ReadFull(f, magic)

	if bytes.Equal(magic[:n], []byte("fLaC")) {
		if _, err := f.Seek(tagEnd, io.SeekStart); err != nil {
			return nil, beep.Format{}, err
		}
		return flac.Decode(f)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, beep.Format{}, err
	}
	return mp3.Decode(f)
}

// skipID3v2 positions r after an ID3v2 tag if present, or at the start
// otherwise, and returns that offset.
func skipID3v2(r io.ReadSeeker) (int64, error) {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if n == 0 {
		return 0, fmt.Errorf("empty audio stream: %w", err)
	}
	if n < 10 || !strings.HasPrefix(string(header), "ID3") {
		_, err = r.Seek(0, io.SeekStart)
		return 0, err
	}

	// ID3v2 size is stored as a syncsafe integer in bytes 6-9
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])

	return r.Seek(10+size, io.SeekStart)
}

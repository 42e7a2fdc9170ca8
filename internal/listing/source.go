package listing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultDownloadTimeout bounds a single image download.
const DefaultDownloadTimeout = 30 * time.Second

type pathFile struct {
	path string
	size int64
}

// FileFromPath returns a local photo.
func FileFromPath(p string) (ImageFile, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p)
	}
	return &pathFile{path: p, size: info.Size()}, nil
}

func (f *pathFile) Name() string { return filepath.Base(f.path) }
func (f *pathFile) Size() int64  { return f.size }

func (f *pathFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

type bytesFile struct {
	name string
	data []byte
}

// NewBytesFile wraps photo data that is already in memory.
func NewBytesFile(name string, data []byte) ImageFile {
	return &bytesFile{name: name, data: data}
}

func (f *bytesFile) Name() string { return f.name }
func (f *bytesFile) Size() int64  { return int64(len(f.data)) }

func (f *bytesFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type urlFile struct {
	client *resty.Client
	url    string
}

// NewDownloadClient returns the HTTP client used for remote photos.
func NewDownloadClient() *resty.Client {
	return resty.New().SetTimeout(DefaultDownloadTimeout)
}

// FileFromURL returns a remote photo. Its size is unknown until it is read;
// the intake limit is enforced while downloading.
func FileFromURL(client *resty.Client, rawURL string) (ImageFile, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid image url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported image url scheme %q", u.Scheme)
	}
	if client == nil {
		client = NewDownloadClient()
	}
	return &urlFile{client: client, url: rawURL}, nil
}

// IsURL reports whether s looks like a remote photo rather than a path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (f *urlFile) Name() string {
	if u, err := url.Parse(f.url); err == nil && u.Path != "" && u.Path != "/" {
		return path.Base(u.Path)
	}
	return f.url
}

func (f *urlFile) Size() int64 { return -1 }

func (f *urlFile) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(f.url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}

	body := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		body.Close()
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode())
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		body.Close()
		return nil, fmt.Errorf("invalid content type: expected image/*, got %s", contentType)
	}

	return body, nil
}

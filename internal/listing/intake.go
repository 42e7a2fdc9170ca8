package listing

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxImages is the most photos one listing can have.
	DefaultMaxImages = 5
	// DefaultMaxImageSize is the largest accepted photo (10MB).
	DefaultMaxImageSize = 10 * 1024 * 1024
)

var (
	ErrTooManyImages = errors.New("too many images")
	ErrDraftBusy     = errors.New("draft is being generated")
)

// SkipReason tells why a selected file was left out.
type SkipReason string

const (
	SkipTooLarge SkipReason = "too large"
	SkipNotImage SkipReason = "not an image"
)

// ImageFile is a photo selected by the user, read lazily.
type ImageFile interface {
	Name() string
	// Size returns the size in bytes, or -1 when it is not known before
	// reading.
	Size() int64
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ImageAsset is an accepted photo, kept in memory for one draft only.
type ImageAsset struct {
	Name     string
	MIMEType string
	Data     []byte
	Position int
	// Preview is a data URL that can be rendered directly.
	Preview string
}

// Base64 returns the transport encoding of the image data.
func (a ImageAsset) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

// SkippedFile is a file that was silently excluded from an addition.
type SkippedFile struct {
	Name   string
	Reason SkipReason
}

// AddResult describes what AddImages did.
type AddResult struct {
	Added   int
	Skipped []SkippedFile
}

// IntakeOptions configures the draft limits. Zero values select defaults.
type IntakeOptions struct {
	MaxImages    int
	MaxImageSize int64
}

func (o IntakeOptions) withDefaults() IntakeOptions {
	if o.MaxImages <= 0 {
		o.MaxImages = DefaultMaxImages
	}
	if o.MaxImageSize <= 0 {
		o.MaxImageSize = DefaultMaxImageSize
	}
	return o
}

// BusyChecker reports whether a generation is in flight.
type BusyChecker interface {
	Busy() bool
}

// Draft holds the photos of the listing being prepared.
type Draft struct {
	opts  IntakeOptions
	guard BusyChecker

	mu     sync.Mutex
	id     string
	assets []ImageAsset
}

// NewDraft creates an empty draft. guard may be nil; when set, Reset is
// refused while it reports busy.
func NewDraft(opts IntakeOptions, guard BusyChecker) *Draft {
	return &Draft{
		id:    uuid.NewString(),
		opts:  opts.withDefaults(),
		guard: guard,
	}
}

// AddImages reads files and appends them in selection order. Files over the
// size limit or that are not images are skipped and reported. When the
// remaining files would exceed the image limit, nothing is added and
// ErrTooManyImages is returned. A read failure also leaves the draft
// unchanged.
func (d *Draft) AddImages(ctx context.Context, files []ImageFile) (AddResult, error) {
	var result AddResult

	type slot struct {
		asset   *ImageAsset
		skipped *SkippedFile
	}
	slots := make([]slot, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.MaxImages)
	for i, f := range files {
		if f.Size() > d.opts.MaxImageSize {
			slots[i].skipped = &SkippedFile{Name: f.Name(), Reason: SkipTooLarge}
			continue
		}
		g.Go(func() error {
			asset, reason, err := readImage(gctx, f, d.opts.MaxImageSize)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", f.Name(), err)
			}
			if reason != "" {
				slots[i].skipped = &SkippedFile{Name: f.Name(), Reason: reason}
				return nil
			}
			slots[i].asset = asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AddResult{}, err
	}

	var accepted []ImageAsset
	for _, s := range slots {
		switch {
		case s.skipped != nil:
			result.Skipped = append(result.Skipped, *s.skipped)
		case s.asset != nil:
			accepted = append(accepted, *s.asset)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.assets)+len(accepted) > d.opts.MaxImages {
		return result, fmt.Errorf("%w: %d selected, %d already added, limit is %d",
			ErrTooManyImages, len(accepted), len(d.assets), d.opts.MaxImages)
	}

	for _, a := range accepted {
		a.Position = len(d.assets)
		d.assets = append(d.assets, a)
	}
	result.Added = len(accepted)
	return result, nil
}

func readImage(ctx context.Context, f ImageFile, maxSize int64) (*ImageAsset, SkipReason, error) {
	rc, err := f.Open(ctx)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxSize+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxSize {
		return nil, SkipTooLarge, nil
	}

	mime := mimetype.Detect(data).String()
	if !strings.HasPrefix(mime, "image/") {
		return nil, SkipNotImage, nil
	}

	return &ImageAsset{
		Name:     f.Name(),
		MIMEType: mime,
		Data:     data,
		Preview:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, "", nil
}

// RemoveImage removes the asset and its preview at index. An index out of
// range does nothing.
func (d *Draft) RemoveImage(index int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.assets) {
		return
	}
	d.assets = append(d.assets[:index:index], d.assets[index+1:]...)
	for i := range d.assets {
		d.assets[i].Position = i
	}
}

// Reset discards all assets and starts a new draft id. It is refused while
// a generation is in flight.
func (d *Draft) Reset() error {
	if d.guard != nil && d.guard.Busy() {
		return ErrDraftBusy
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.assets = nil
	d.id = uuid.NewString()
	return nil
}

// ID identifies the draft in transcripts. It changes on Reset.
func (d *Draft) ID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// Assets returns a snapshot of the accepted photos in order.
func (d *Draft) Assets() []ImageAsset {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ImageAsset, len(d.assets))
	copy(out, d.assets)
	return out
}

// Previews returns the preview handles, aligned with Assets.
func (d *Draft) Previews() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.assets))
	for i, a := range d.assets {
		out[i] = a.Preview
	}
	return out
}

// Len returns the number of accepted photos.
func (d *Draft) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.assets)
}

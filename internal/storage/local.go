package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/crypto/sha3"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
)

const (
	DefaultMaxSide = 256
	avatarDir      = "avatars"
)

type Stored struct {
	Name        string
	Location    string
	Size        int64
	ContentType string
}

// Local keeps uploaded images on disk under Root. Locations are slash separated and
// relative to Root, which is also what the static file handler serves.
type Local struct {
	Root    string
	MaxSide int
	now     func() time.Time
}

func NewLocal(root string) *Local {
	return &Local{Root: root, MaxSide: DefaultMaxSide, now: time.Now}
}

// HashFileName derives a short, collision resistant file stem from the upload name and time.
func HashFileName(name string, at time.Time) string {
	out := make([]byte, 8)
	sha3.ShakeSum256(out, []byte(name+strconv.FormatInt(at.UnixNano(), 10)))
	return hex.EncodeToString(out)
}

func (l *Local) Save(ctx context.Context, name string, r io.Reader) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}

	format, err := imaging.FormatFromFilename(name)
	if err != nil || (format != imaging.JPEG && format != imaging.PNG) {
		return Stored{}, apperr.Validation("Only jpeg and png images are allowed")
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return Stored{}, apperr.Wrap(apperr.KindValidation, "File is not a valid image", err)
	}
	if b := img.Bounds(); b.Dx() > l.MaxSide || b.Dy() > l.MaxSide {
		img = imaging.Fit(img, l.MaxSide, l.MaxSide, imaging.Lanczos)
	}

	ext := strings.ToLower(filepath.Ext(name))
	location := avatarDir + "/" + HashFileName(name, l.now()) + ext
	full := l.path(location)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Stored{}, fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return Stored{}, fmt.Errorf("storage: create: %w", err)
	}
	if err := imaging.Encode(f, img, format); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return Stored{}, fmt.Errorf("storage: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		return Stored{}, fmt.Errorf("storage: close: %w", err)
	}

	size, err := l.Size(location)
	if err != nil {
		return Stored{}, err
	}
	return Stored{
		Name:        filepath.Base(name),
		Location:    location,
		Size:        size,
		ContentType: contentType(format),
	}, nil
}

func (l *Local) Size(location string) (int64, error) {
	info, err := os.Stat(l.path(location))
	if err != nil {
		return 0, fmt.Errorf("storage: stat: %w", err)
	}
	return info.Size(), nil
}

func (l *Local) Remove(location string) error {
	err := os.Remove(l.path(location))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}

func (l *Local) path(location string) string {
	return filepath.Join(l.Root, filepath.FromSlash(location))
}

func contentType(f imaging.Format) string {
	if f == imaging.PNG {
		return "image/png"
	}
	return "image/jpeg"
}

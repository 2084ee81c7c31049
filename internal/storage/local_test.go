package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestHashFileName(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := HashFileName("me.png", at)
	assert.Len(t, a, 16)
	assert.Equal(t, a, HashFileName("me.png", at))
	assert.NotEqual(t, a, HashFileName("me.png", at.Add(time.Nanosecond)))
	assert.NotEqual(t, a, HashFileName("you.png", at))
}

func TestLocal_SaveResizes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	l := NewLocal(root)

	stored, err := l.Save(context.Background(), "Avatar.PNG", bytes.NewReader(pngBytes(t, 800, 400)))
	require.NoError(t, err)
	assert.Equal(t, "Avatar.PNG", stored.Name)
	assert.Equal(t, "image/png", stored.ContentType)
	assert.Regexp(t, `^avatars/[0-9a-f]{16}\.png$`, stored.Location)
	assert.Positive(t, stored.Size)

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(stored.Location)))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Width)
	assert.Equal(t, 128, cfg.Height)

	require.NoError(t, l.Remove(stored.Location))
	require.NoError(t, l.Remove(stored.Location))
	_, err = l.Size(stored.Location)
	assert.Error(t, err)
}

func TestLocal_SaveRejects(t *testing.T) {
	t.Parallel()

	l := NewLocal(t.TempDir())

	_, err := l.Save(context.Background(), "doc.gif", bytes.NewReader(pngBytes(t, 10, 10)))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = l.Save(context.Background(), "fake.png", bytes.NewReader([]byte("not an image")))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Save(ctx, "ok.png", bytes.NewReader(pngBytes(t, 10, 10)))
	assert.ErrorIs(t, err, context.Canceled)
}

package assets

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/whoameye/biocard"
)

func newMemStore() *FsStore {
	return &FsStore{Fs: afero.NewMemMapFs(), Dir: "/assets", BaseUrl: "https://whoameye.bio/assets"}
}

func TestUploadAndOpen(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := newMemStore()
	key := "u1_1700000000000_abc123.png"
	if !assert.NoError(s.Upload(ctx, key, "image/png", strings.NewReader("png"))) {
		return
	}

	f, contentType, err := s.Open(key)
	if !assert.NoError(err) {
		return
	}
	defer f.Close()
	body, _ := io.ReadAll(f)
	assert.Equal("png", string(body))
	assert.Equal("image/png", contentType)

	assert.Equal("https://whoameye.bio/assets/"+key, s.PublicUrl(key))
	assert.Equal(key, biocard.AssetKeyFromUrl(s.PublicUrl(key)))
}

func TestUploadNeverOverwrites(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := newMemStore()
	assert.NoError(s.Upload(ctx, "a.png", "image/png", strings.NewReader("first")))
	assert.ErrorIs(s.Upload(ctx, "a.png", "image/png", strings.NewReader("second")), biocard.ErrAssetExists)

	f, _, err := s.Open("a.png")
	if assert.NoError(err) {
		body, _ := io.ReadAll(f)
		assert.Equal("first", string(body))
		f.Close()
	}
}

func TestInvalidKeys(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := newMemStore()
	for _, key := range []string{"", ".", "..", "../etc/passwd", "a/b.png", `a\b.png`} {
		assert.ErrorIs(s.Upload(ctx, key, "image/png", strings.NewReader("x")), ErrInvalidKey, "key: %q", key)
		_, _, err := s.Open(key)
		assert.ErrorIs(err, ErrInvalidKey, "key: %q", key)
	}
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestUploadFailureLeavesNoFile(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := newMemStore()
	assert.Error(s.Upload(ctx, "a.png", "image/png", failingReader{}))
	_, err := s.Fs.Stat("/assets/a.png")
	assert.True(os.IsNotExist(err))

	// the key is free again
	assert.NoError(s.Upload(ctx, "a.png", "image/png", strings.NewReader("ok")))
}

func TestRemove(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := newMemStore()
	assert.NoError(s.Upload(ctx, "a.png", "image/png", strings.NewReader("a")))
	assert.NoError(s.Upload(ctx, "b.png", "image/png", strings.NewReader("b")))

	assert.NoError(s.Remove(ctx, "a.png", "missing.png"))
	_, _, err := s.Open("a.png")
	assert.Error(err)
	_, _, err = s.Open("b.png")
	assert.NoError(err)

	assert.ErrorIs(s.Remove(ctx, "../b.png"), ErrInvalidKey)
}

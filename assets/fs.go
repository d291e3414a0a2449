// Package assets stores uploaded images on an afero filesystem.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/whoameye/biocard"
)

var ErrInvalidKey = errors.New("invalid asset key")

// MaxAssetSize limits a single uploaded file.
const MaxAssetSize = 10 << 20

type FsStore struct {
	Fs afero.Fs
	// Directory holding the assets.
	Dir string
	// Public url of the directory, without trailing slash.
	BaseUrl string
}

var _ biocard.AssetStore = (*FsStore)(nil)

func NewOsStore(dir string, baseUrl string) *FsStore {
	return &FsStore{Fs: afero.NewOsFs(), Dir: dir, BaseUrl: baseUrl}
}

func validKey(key string) bool {
	return key != "" && key != "." && key != ".." &&
		!strings.ContainsAny(key, `/\`) && path.Base(key) == key
}

func (s *FsStore) path(key string) string {
	return filepath.Join(s.Dir, key)
}

func (s *FsStore) Upload(ctx context.Context, key string, contentType string, body io.Reader) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	if err := s.Fs.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	f, err := s.Fs.OpenFile(s.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return biocard.ErrAssetExists
		}
		return fmt.Errorf("create asset: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(body, MaxAssetSize+1))
	closeErr := f.Close()
	if err == nil && n > MaxAssetSize {
		err = fmt.Errorf("asset larger than %d bytes", MaxAssetSize)
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		s.Fs.Remove(s.path(key))
		return fmt.Errorf("write asset: %w", err)
	}
	return nil
}

func (s *FsStore) PublicUrl(key string) string {
	return s.BaseUrl + "/" + url.PathEscape(key)
}

// Remove deletes every key, missing keys are skipped.
func (s *FsStore) Remove(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if !validKey(key) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidKey, key))
			continue
		}
		err := s.Fs.Remove(s.path(key))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Open returns the asset body and its content type guessed from the key.
func (s *FsStore) Open(key string) (afero.File, string, error) {
	if !validKey(key) {
		return nil, "", ErrInvalidKey
	}
	f, err := s.Fs.Open(s.path(key))
	if err != nil {
		return nil, "", fmt.Errorf("open asset: %w", err)
	}
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, nil
}

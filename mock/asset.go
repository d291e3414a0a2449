package mock

import (
	"context"
	"io"

	"github.com/whoameye/biocard"
)

type AssetStore struct {
	UploadFn func(ctx context.Context, key string, contentType string, body io.Reader) error

	PublicUrlFn func(key string) string

	RemoveFn func(ctx context.Context, keys ...string) error
}

var _ biocard.AssetStore = AssetStore{}

func (s AssetStore) Upload(ctx context.Context, key string, contentType string, body io.Reader) error {
	return s.UploadFn(ctx, key, contentType, body)
}

func (s AssetStore) PublicUrl(key string) string {
	return s.PublicUrlFn(key)
}

func (s AssetStore) Remove(ctx context.Context, keys ...string) error {
	return s.RemoveFn(ctx, keys...)
}

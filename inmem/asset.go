package inmem

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/whoameye/biocard"
)

type Asset struct {
	ContentType string
	Body        []byte
}

type AssetStore struct {
	BaseUrl string
	assets  map[string]Asset
	mutex   sync.RWMutex
}

func NewAssetStore(baseUrl string) *AssetStore {
	return &AssetStore{
		BaseUrl: baseUrl,
		assets:  make(map[string]Asset),
	}
}

var _ biocard.AssetStore = (*AssetStore)(nil)

func (s *AssetStore) Upload(ctx context.Context, key string, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.assets[key]; ok {
		return biocard.ErrAssetExists
	}
	s.assets[key] = Asset{ContentType: contentType, Body: data}
	return nil
}

func (s *AssetStore) PublicUrl(key string) string {
	return s.BaseUrl + "/" + key
}

func (s *AssetStore) Remove(ctx context.Context, keys ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, k := range keys {
		delete(s.assets, k)
	}
	return nil
}

func (s *AssetStore) Get(key string) (Asset, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	a, ok := s.assets[key]
	return a, ok
}

func (s *AssetStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.assets)
}

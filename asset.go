package biocard

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/url"
	"path"
	"strings"
	"time"
)

var ErrAssetExists = errors.New("asset already exists")

// AssetStore keeps uploaded images under public urls.
type AssetStore interface {
	// Upload stores body under key. Existing keys are never overwritten,
	// ErrAssetExists is returned instead.
	Upload(ctx context.Context, key string, contentType string, body io.Reader) error

	PublicUrl(key string) string

	Remove(ctx context.Context, keys ...string) error
}

const assetSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const assetSuffixLen = 6

// GalleryKey builds "{userId}_{epochMillis}_{suffix}.{ext}" from the uploaded file name.
func GalleryKey(userId UserId, now time.Time, suffix string, fileName string) string {
	ext := fileName
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		ext = fileName[i+1:]
	}
	return fmt.Sprintf("%s_%d_%s.%s", userId, now.UnixMilli(), suffix, ext)
}

// RandomAssetSuffix returns a short random [a-z0-9] string.
func RandomAssetSuffix() (string, error) {
	var sb strings.Builder
	alphabetLen := big.NewInt(int64(len(assetSuffixAlphabet)))
	for i := 0; i < assetSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("rand int: %w", err)
		}
		sb.WriteByte(assetSuffixAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// AssetKeyFromUrl returns the storage key of a public asset url:
// its last path segment without query.
func AssetKeyFromUrl(assetUrl string) string {
	p := assetUrl
	if u, err := url.Parse(assetUrl); err == nil && u.Path != "" {
		p = u.Path
	} else if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	key := path.Base(p)
	if key == "/" || key == "." {
		return ""
	}
	return key
}

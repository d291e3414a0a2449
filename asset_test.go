package biocard

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGalleryKey(t *testing.T) {
	assert := assert.New(t)

	now := time.UnixMilli(1700000000123)
	assert.Equal("u1_1700000000123_abc123.png", GalleryKey("u1", now, "abc123", "holiday.photo.png"))
	assert.Equal("u1_1700000000123_abc123.jpeg", GalleryKey("u1", now, "abc123", "cat.jpeg"))
	assert.Equal("u1_1700000000123_abc123.blob", GalleryKey("u1", now, "abc123", "blob"))
}

func TestRandomAssetSuffix(t *testing.T) {
	assert := assert.New(t)

	pattern := regexp.MustCompile(`^[a-z0-9]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		suffix, err := RandomAssetSuffix()
		if !assert.NoError(err) {
			return
		}
		assert.Regexp(pattern, suffix)
		seen[suffix] = true
	}
	assert.True(len(seen) > 1)
}

func TestAssetKeyFromUrl(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("u1_1_abc.png", AssetKeyFromUrl("https://cdn.example.com/assets/u1_1_abc.png"))
	assert.Equal("u1_1_abc.png", AssetKeyFromUrl("https://cdn.example.com/assets/u1_1_abc.png?v=2"))
	assert.Equal("u1_1_abc.png", AssetKeyFromUrl("/assets/u1_1_abc.png"))
	assert.Equal("u1_1_abc.png", AssetKeyFromUrl("u1_1_abc.png"))
	assert.Equal("", AssetKeyFromUrl(""))
	assert.Equal("", AssetKeyFromUrl("https://cdn.example.com/"))
}

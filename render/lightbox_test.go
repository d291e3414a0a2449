package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/whoameye/biocard/gallery"
)

func TestApplyLightboxQuery(t *testing.T) {
	assert := assert.New(t)

	images := []string{"https://a/1.png", "https://a/2.png", "https://a/3.png"}

	l := gallery.NewLightbox(images)
	ApplyLightboxQuery(l, LightboxQuery{})
	_, open := l.Current()
	assert.False(open)

	ApplyLightboxQuery(l, LightboxQuery{Photo: "nope"})
	_, open = l.Current()
	assert.False(open)

	ApplyLightboxQuery(l, LightboxQuery{Photo: "0", Key: "ArrowLeft"})
	i, open := l.Current()
	assert.True(open)
	assert.Equal(0, i)

	ApplyLightboxQuery(l, LightboxQuery{Photo: "1", Swipe: "-80"})
	i, _ = l.Current()
	assert.Equal(2, i)

	ApplyLightboxQuery(l, LightboxQuery{Photo: "1", Swipe: "20"})
	i, _ = l.Current()
	assert.Equal(1, i)

	ApplyLightboxQuery(l, LightboxQuery{Photo: "2", Key: "Escape"})
	_, open = l.Current()
	assert.False(open)
}

func TestNewLightboxView(t *testing.T) {
	assert := assert.New(t)

	l := gallery.NewLightbox([]string{"https://a/1.png", "https://a/2.png"})
	view := NewLightboxView("/u/kay", l)
	assert.False(view.Open)

	l.Open(0)
	view = NewLightboxView("/u/kay", l)
	assert.True(view.Open)
	assert.Equal("1 / 2", view.Badge)
	assert.Equal("", view.PrevHref)
	assert.Equal("/u/kay?photo=0&key=ArrowRight", view.NextHref)
	assert.Equal("/u/kay", view.CloseHref)
	assert.Equal("/u/kay?photo=0&key=", view.KeyHref)
	assert.Equal("/u/kay?photo=0&swipe=", view.SwipeHref)

	// Following the generated hrefs drives the same lightbox transitions.
	next := gallery.NewLightbox([]string{"https://a/1.png", "https://a/2.png"})
	ApplyLightboxQuery(next, LightboxQuery{Photo: "0", Swipe: "-60"})
	i, _ := next.Current()
	assert.Equal(1, i)
}

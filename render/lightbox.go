package render

import (
	"fmt"
	"html/template"
	"strconv"

	"github.com/whoameye/biocard/gallery"
)

// LightboxView is the lightbox state rendered into the page. Navigation is
// done with links carrying the photo index and a key or swipe distance.
type LightboxView struct {
	Open      bool
	Image     template.URL
	Badge     string
	PrevHref  string
	NextHref  string
	CloseHref string
	// Prefixes completed by the page script with a key name or a swipe distance.
	KeyHref   string
	SwipeHref string
}

// LightboxQuery holds the lightbox query parameters of a page request.
type LightboxQuery struct {
	Photo string
	Key   string
	Swipe string
}

// ApplyLightboxQuery opens and navigates the lightbox as requested.
// Unparsable values leave the lightbox closed or in place.
func ApplyLightboxQuery(l *gallery.Lightbox, q LightboxQuery) {
	if q.Photo == "" {
		return
	}
	index, err := strconv.Atoi(q.Photo)
	if err != nil {
		return
	}
	l.Open(index)
	if q.Key != "" {
		l.HandleKey(gallery.Key(q.Key))
	}
	if q.Swipe != "" {
		if dx, err := strconv.ParseFloat(q.Swipe, 64); err == nil {
			l.HandleSwipe(dx)
		}
	}
}

func NewLightboxView(pagePath string, l *gallery.Lightbox) LightboxView {
	img, open := l.CurrentImage()
	if !open {
		return LightboxView{CloseHref: pagePath}
	}
	index, _ := l.Current()
	view := LightboxView{
		Open:      true,
		Image:     imageUrl(img),
		Badge:     l.Badge(),
		CloseHref: pagePath,
		KeyHref:   fmt.Sprintf("%s?photo=%d&key=", pagePath, index),
		SwipeHref: fmt.Sprintf("%s?photo=%d&swipe=", pagePath, index),
	}
	if l.HasPrev() {
		view.PrevHref = fmt.Sprintf("%s?photo=%d&key=%s", pagePath, index, gallery.KeyArrowLeft)
	}
	if l.HasNext() {
		view.NextHref = fmt.Sprintf("%s?photo=%d&key=%s", pagePath, index, gallery.KeyArrowRight)
	}
	return view
}

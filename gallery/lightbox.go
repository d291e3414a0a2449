// Package gallery implements the lightbox shown over a profile gallery.
package gallery

import (
	"fmt"
)

// SwipeThreshold is the minimal horizontal drag distance turning a swipe
// into navigation.
const SwipeThreshold = 50

type Key string

const (
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyEscape     Key = "Escape"
)

// Lightbox is a grid of images with at most one image enlarged.
type Lightbox struct {
	images []string
	open   bool
	index  int
}

func NewLightbox(images []string) *Lightbox {
	return &Lightbox{images: append([]string(nil), images...)}
}

func (l *Lightbox) Images() []string {
	return l.images
}

func (l *Lightbox) Len() int {
	return len(l.images)
}

// Open enlarges the image at index. Out of range indexes are clamped.
func (l *Lightbox) Open(index int) {
	if len(l.images) == 0 {
		return
	}
	l.open = true
	l.index = l.clamp(index)
}

func (l *Lightbox) Close() {
	l.open = false
	l.index = 0
}

// Current returns the enlarged index or false when the lightbox is closed.
func (l *Lightbox) Current() (int, bool) {
	return l.index, l.open
}

func (l *Lightbox) CurrentImage() (string, bool) {
	if !l.open {
		return "", false
	}
	return l.images[l.index], true
}

func (l *Lightbox) Prev() {
	if l.open && l.index > 0 {
		l.index--
	}
}

func (l *Lightbox) Next() {
	if l.open && l.index < len(l.images)-1 {
		l.index++
	}
}

func (l *Lightbox) HandleKey(key Key) {
	switch key {
	case KeyArrowLeft:
		l.Prev()
	case KeyArrowRight:
		l.Next()
	case KeyEscape:
		l.Close()
	}
}

// HandleSwipe navigates by a finished drag of dx units.
// Dragging right shows the previous image.
func (l *Lightbox) HandleSwipe(dx float64) {
	switch {
	case dx > SwipeThreshold:
		l.Prev()
	case dx < -SwipeThreshold:
		l.Next()
	}
}

// Badge returns the 1-based position as "i / N", empty when closed.
func (l *Lightbox) Badge() string {
	if !l.open {
		return ""
	}
	return fmt.Sprintf("%d / %d", l.index+1, len(l.images))
}

func (l *Lightbox) HasPrev() bool {
	return l.open && l.index > 0
}

func (l *Lightbox) HasNext() bool {
	return l.open && l.index < len(l.images)-1
}

func (l *Lightbox) clamp(index int) int {
	switch {
	case index < 0:
		return 0
	case index >= len(l.images):
		return len(l.images) - 1
	default:
		return index
	}
}

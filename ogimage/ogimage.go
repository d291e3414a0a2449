// Package ogimage draws the social preview image of a profile.
package ogimage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/whoameye/biocard"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

const (
	Width  = 1200
	Height = 630

	ContentType = "image/png"

	FallbackDisplayName = "WhoAmEye User"
	Domain              = "whoameye.bio"
	Brand               = "WhoAmEye"
)

const (
	avatarSize   = 180
	avatarBorder = 6
	columnGap    = 32
	sideMargin   = 80
	textMaxWidth = Width - 2*sideMargin - avatarSize - columnGap
)

var (
	colorWhite       = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorGray200     = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	colorGray100     = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorAvatarRing  = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorName        = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorTagline     = color.RGBA{0x44, 0x44, 0x44, 0xff}
	colorDomain      = color.RGBA{0x88, 0x88, 0x88, 0xff}
	colorWatermark   = color.NRGBA{0x22, 0x22, 0x22, 0x26}
	colorPlaceholder = color.RGBA{0x9c, 0xa3, 0xaf, 0xff}
)

// Card holds the values printed on the preview.
type Card struct {
	DisplayName string
	Tagline     string
	Avatar      string
}

// CardFromProfile applies the preview fallbacks. found is false when the
// username has no profile.
func CardFromProfile(p biocard.Profile, found bool) Card {
	if !found {
		return Card{DisplayName: FallbackDisplayName, Avatar: biocard.DefaultAvatar}
	}
	card := Card{DisplayName: p.DisplayName, Tagline: p.Tagline, Avatar: p.Avatar}
	if card.DisplayName == "" {
		card.DisplayName = p.Username
	}
	if card.DisplayName == "" {
		card.DisplayName = FallbackDisplayName
	}
	if card.Avatar == "" {
		card.Avatar = biocard.DefaultAvatar
	}
	return card
}

type Generator struct {
	// Optional. Remote avatars are drawn as a placeholder without it.
	Fetcher Fetcher

	regular *opentype.Font
	bold    *opentype.Font
	mono    *opentype.Font
}

func NewGenerator(fetcher Fetcher) (*Generator, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	mono, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse mono font: %w", err)
	}
	return &Generator{Fetcher: fetcher, regular: regular, bold: bold, mono: mono}, nil
}

// faces are created per image, opentype faces are not safe for concurrent use.
type faces struct {
	name      font.Face
	tagline   font.Face
	domain    font.Face
	watermark font.Face
	initial   font.Face
}

func (g *Generator) newFaces() (faces, error) {
	var f faces
	var err error
	newFace := func(ot *opentype.Font, size float64) font.Face {
		if err != nil {
			return nil
		}
		var face font.Face
		face, err = opentype.NewFace(ot, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
		return face
	}
	f.name = newFace(g.bold, 48)
	f.tagline = newFace(g.regular, 28)
	f.domain = newFace(g.mono, 22)
	f.watermark = newFace(g.bold, 24)
	f.initial = newFace(g.bold, 72)
	if err != nil {
		return faces{}, fmt.Errorf("new font face: %w", err)
	}
	return f, nil
}

func (f faces) Close() {
	for _, face := range []font.Face{f.name, f.tagline, f.domain, f.watermark, f.initial} {
		face.Close()
	}
}

// Render draws the preview of card.
func (g *Generator) Render(ctx context.Context, card Card) (*image.RGBA, error) {
	f, err := g.newFaces()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dst := image.NewRGBA(image.Rect(0, 0, Width, Height))
	drawBackground(dst)

	name := fitText(f.name, card.DisplayName, textMaxWidth)
	tagline := fitText(f.tagline, card.Tagline, textMaxWidth)

	textWidth := maxInt(
		font.MeasureString(f.name, name).Ceil(),
		font.MeasureString(f.tagline, tagline).Ceil(),
		font.MeasureString(f.domain, Domain).Ceil(),
	)
	left := (Width - (avatarSize + columnGap + textWidth)) / 2
	avatarRect := image.Rect(left, (Height-avatarSize)/2, left+avatarSize, (Height+avatarSize)/2)

	g.drawAvatar(ctx, dst, avatarRect, card, f.initial)

	// name, tagline and domain lines, vertically centered next to the avatar
	nameHeight := lineHeight(f.name, 1)
	taglineHeight := 0
	if tagline != "" {
		taglineHeight = 8 + lineHeight(f.tagline, 1.2)
	}
	domainHeight := 16 + lineHeight(f.domain, 1.2)
	top := (Height - (nameHeight + taglineHeight + domainHeight)) / 2
	x := avatarRect.Max.X + columnGap

	y := top + ascent(f.name)
	drawString(dst, f.name, colorName, x, y, name)
	y = top + nameHeight
	if tagline != "" {
		drawString(dst, f.tagline, colorTagline, x, y+8+ascent(f.tagline), tagline)
		y += taglineHeight
	}
	drawString(dst, f.domain, colorDomain, x, y+16+ascent(f.domain), Domain)

	brandWidth := font.MeasureString(f.watermark, Brand).Ceil()
	drawString(dst, f.watermark, colorWatermark, Width-48-brandWidth, Height-32-descent(f.watermark), Brand)

	return dst, nil
}

// WritePNG renders the card and encodes it as PNG.
func (g *Generator) WritePNG(ctx context.Context, w io.Writer, card Card) error {
	img, err := g.Render(ctx, card)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func drawBackground(dst *image.RGBA) {
	// 135deg gradient, white until 60% then fading to gray-200
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			t := float64(x+y) / float64(Width+Height-2)
			c := colorWhite
			if t > 0.6 {
				c = lerp(colorWhite, colorGray200, (t-0.6)/0.4)
			}
			dst.SetRGBA(x, y, c)
		}
	}
	b := dst.Bounds()
	for x := 0; x < Width; x++ {
		dst.SetRGBA(x, b.Min.Y, colorGray200)
		dst.SetRGBA(x, b.Max.Y-1, colorGray200)
	}
	for y := 0; y < Height; y++ {
		dst.SetRGBA(b.Min.X, y, colorGray200)
		dst.SetRGBA(b.Max.X-1, y, colorGray200)
	}
}

func (g *Generator) drawAvatar(ctx context.Context, dst *image.RGBA, r image.Rectangle, card Card, initialFace font.Face) {
	draw.DrawMask(dst, r, image.NewUniform(colorAvatarRing), image.Point{}, newCircle(r), r.Min, draw.Over)
	inner := r.Inset(avatarBorder)
	innerMask := newCircle(inner)
	draw.DrawMask(dst, inner, image.NewUniform(colorGray100), image.Point{}, innerMask, inner.Min, draw.Over)

	src, err := g.loadAvatar(ctx, card.Avatar)
	if err != nil {
		logrus.WithError(err).Debugln("Avatar drawn as placeholder.")
		initial, _ := utf8.DecodeRuneInString(strings.ToUpper(card.DisplayName))
		if initial == utf8.RuneError {
			return
		}
		s := string(initial)
		w := font.MeasureString(initialFace, s).Ceil()
		drawString(dst, initialFace, colorPlaceholder,
			inner.Min.X+(inner.Dx()-w)/2, inner.Min.Y+(inner.Dy()+ascent(initialFace)-descent(initialFace))/2, s)
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, inner.Dx(), inner.Dy()))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, coverRect(src.Bounds()), draw.Src, nil)
	draw.DrawMask(dst, inner, scaled, image.Point{}, innerMask, inner.Min, draw.Over)
}

func (g *Generator) loadAvatar(ctx context.Context, avatarUrl string) (image.Image, error) {
	var data []byte
	var err error
	switch {
	case strings.HasPrefix(avatarUrl, "data:"):
		data, err = decodeDataUrl(avatarUrl)
	case g.Fetcher != nil:
		data, err = g.Fetcher.Fetch(ctx, avatarUrl)
	default:
		return nil, ErrUnsupportedUrl
	}
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode avatar: %w", err)
	}
	return img, nil
}

// coverRect returns the centered square of r.
func coverRect(r image.Rectangle) image.Rectangle {
	side := minInt(r.Dx(), r.Dy())
	x := r.Min.X + (r.Dx()-side)/2
	y := r.Min.Y + (r.Dy()-side)/2
	return image.Rect(x, y, x+side, y+side)
}

// fitText cuts s with an ellipsis until it fits into maxWidth pixels.
func fitText(face font.Face, s string, maxWidth int) string {
	if font.MeasureString(face, s).Ceil() <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		cut := strings.TrimSpace(string(runes)) + "…"
		if font.MeasureString(face, cut).Ceil() <= maxWidth {
			return cut
		}
	}
	return ""
}

func drawString(dst draw.Image, face font.Face, c color.Color, x int, baseline int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

func ascent(face font.Face) int {
	return face.Metrics().Ascent.Ceil()
}

func descent(face font.Face) int {
	return face.Metrics().Descent.Ceil()
}

func lineHeight(face font.Face, factor float64) int {
	m := face.Metrics()
	return int(float64((m.Ascent + m.Descent).Ceil()) * factor)
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}

func maxInt(values ...int) int {
	m := 0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

type circle struct {
	r image.Rectangle
}

func newCircle(r image.Rectangle) *circle {
	return &circle{r: r}
}

func (c *circle) ColorModel() color.Model {
	return color.AlphaModel
}

func (c *circle) Bounds() image.Rectangle {
	return c.r
}

func (c *circle) At(x, y int) color.Color {
	radius := float64(c.r.Dx()) / 2
	dx := float64(x-c.r.Min.X) + 0.5 - radius
	dy := float64(y-c.r.Min.Y) + 0.5 - radius
	if dx*dx+dy*dy <= radius*radius {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{}
}

package rest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/whoameye/biocard"
	"github.com/whoameye/biocard/gallery"
	"github.com/whoameye/biocard/ogimage"
	"github.com/whoameye/biocard/render"
)

// PageController serves the public profile page and its social preview.
// The app must be created with render.Views().
type PageController struct {
	Profiles  biocard.ProfileStore
	Previews  *ogimage.Generator
	PublicUrl string
}

func (c *PageController) InstallTo(app *fiber.App) {
	app.Get("/u/:username", c.servePage)
	app.Get("/u/:username/opengraph-image", c.servePreviewImage)
}

func (c *PageController) servePage(ctx *fiber.Ctx) error {
	username := ctx.Params("username")
	renderer := render.Renderer{Profiles: c.Profiles}
	card, err := renderer.Card(ctx.Context(), username)
	if err != nil {
		return err
	}

	pagePath := "/u/" + strings.ToLower(username)
	images := make([]string, len(card.Gallery))
	for i, img := range card.Gallery {
		images[i] = string(img)
	}
	lightbox := gallery.NewLightbox(images)
	render.ApplyLightboxQuery(lightbox, render.LightboxQuery{
		Photo: ctx.Query("photo"),
		Key:   ctx.Query("key"),
		Swipe: ctx.Query("swipe"),
	})

	if !card.Found {
		ctx.Status(fiber.StatusNotFound)
	}
	return ctx.Render("profile", render.Page{
		Card:         card,
		Lightbox:     render.NewLightboxView(pagePath, lightbox),
		PreviewImage: c.PublicUrl + pagePath + "/opengraph-image",
	})
}

func (c *PageController) servePreviewImage(ctx *fiber.Ctx) error {
	profile, err := c.Profiles.ByUsername(ctx.Context(), strings.ToLower(ctx.Params("username")))
	found := true
	if err != nil {
		if !errors.Is(err, biocard.ErrProfileNotFound) {
			return fmt.Errorf("profile by username: %w", err)
		}
		found = false
	}

	var buf bytes.Buffer
	if err := c.Previews.WritePNG(ctx.Context(), &buf, ogimage.CardFromProfile(profile, found)); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	ctx.Set(fiber.HeaderContentType, ogimage.ContentType)
	ctx.Set(fiber.HeaderCacheControl, "public, max-age=300")
	return ctx.Send(buf.Bytes())
}

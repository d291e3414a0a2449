package render

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed views/*.html
var viewFiles embed.FS

// Views returns the engine rendering the public profile pages.
func Views() fiber.Views {
	sub, err := fs.Sub(viewFiles, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

// Page is the data of the profile page template.
type Page struct {
	Card     Card
	Lightbox LightboxView
	// Absolute url of the social preview image.
	PreviewImage string
}

package rest

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/whoameye/biocard/assets"
)

type AssetController struct {
	Store *assets.FsStore
}

func (c *AssetController) InstallTo(app *fiber.App) {
	app.Get("/assets/:key", c.serveAsset)
}

func (c *AssetController) serveAsset(ctx *fiber.Ctx) error {
	file, contentType, err := c.Store.Open(ctx.Params("key"))
	if err != nil {
		if errors.Is(err, assets.ErrInvalidKey) || errors.Is(err, os.ErrNotExist) {
			return fiber.NewError(fiber.StatusNotFound, "asset not found")
		}
		return fmt.Errorf("open asset: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("stat asset: %w", err)
	}
	ctx.Set(fiber.HeaderContentType, contentType)
	ctx.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return ctx.SendStream(file, int(stat.Size()))
}

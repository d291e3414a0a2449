package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/whoameye/biocard"
)

func requirePermissions(permission biocard.PermissionName) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user, err := userOf(ctx)
		if err != nil {
			return err
		}
		if user.Roles.Access(permission) != biocard.AccessAllowed {
			return fiber.ErrForbidden
		}
		return nil
	}
}

// InstallAdminTo mounts the server monitor for users allowed to see the dashboard.
func InstallAdminTo(requestAuthorizer fiber.Handler, app *fiber.App) {
	app.Get("/api/status", combineHandlers(
		requestAuthorizer,
		requirePermissions(biocard.PermissionAdminDashboard),
		monitor.New(monitor.Config{Title: "WhoAmEye status"}),
	))
}

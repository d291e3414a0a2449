package rest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/whoameye/biocard"
	"github.com/whoameye/biocard/render"
)

type ProfileController struct {
	Profiles   biocard.ProfileStore
	Assets     biocard.AssetStore
	Activities biocard.ActivityStore
	Events     biocard.AuthEvents
}

func (c *ProfileController) InstallTo(requestAuthorizer fiber.Handler, app *fiber.App) {
	app.Get("/api/profiles/:username", c.serveCard)
	app.Delete("/api/profile", combineHandlers(requestAuthorizer, c.serveDeleteOwnProfile))
	app.Delete("/api/profiles/:username", combineHandlers(requestAuthorizer,
		requirePermissions(biocard.PermissionModerateProfiles), c.serveModerateProfile))
}

func (c *ProfileController) serveCard(ctx *fiber.Ctx) error {
	renderer := render.Renderer{Profiles: c.Profiles}
	card, err := renderer.Card(ctx.Context(), ctx.Params("username"))
	if err != nil {
		return err
	}
	if !card.Found {
		ctx.Status(fiber.StatusNotFound)
	}
	return ctx.JSON(card)
}

func (c *ProfileController) serveDeleteOwnProfile(ctx *fiber.Ctx) error {
	user, err := userOf(ctx)
	if err != nil {
		return err
	}
	if err := c.deleteProfile(ctx.Context(), user.Id); err != nil {
		requestLog(ctx).WithError(err).WithField("user_id", user.Id).Errorln("Could not delete profile.")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete profile")
	}
	c.logDeleted(ctx.Context(), user.Id, user.Id)
	return ctx.JSON(map[string]bool{"success": true})
}

func (c *ProfileController) serveModerateProfile(ctx *fiber.Ctx) error {
	moderator, err := userOf(ctx)
	if err != nil {
		return err
	}
	profile, err := c.Profiles.ByUsername(ctx.Context(), strings.ToLower(ctx.Params("username")))
	if err != nil {
		if errors.Is(err, biocard.ErrProfileNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "profile not found")
		}
		return fmt.Errorf("profile by username: %w", err)
	}
	if err := c.deleteProfile(ctx.Context(), profile.UserId); err != nil {
		requestLog(ctx).WithError(err).WithField("user_id", profile.UserId).Errorln("Could not delete profile.")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete profile")
	}
	c.logDeleted(ctx.Context(), profile.UserId, moderator.Id)
	return ctx.JSON(map[string]bool{"success": true})
}

// deleteProfile removes the profile row, then its gallery assets on a
// best-effort basis, and drops every open draft of the user.
func (c *ProfileController) deleteProfile(ctx context.Context, userId biocard.UserId) error {
	profile, err := c.Profiles.ByUserId(ctx, userId)
	if err != nil && !errors.Is(err, biocard.ErrProfileNotFound) {
		return fmt.Errorf("profile by user id: %w", err)
	}
	if err := c.Profiles.DeleteByUserId(ctx, userId); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	if c.Assets != nil && len(profile.Gallery) > 0 {
		keys := make([]string, 0, len(profile.Gallery))
		for _, url := range profile.Gallery {
			if key := biocard.AssetKeyFromUrl(url); key != "" {
				keys = append(keys, key)
			}
		}
		if err := c.Assets.Remove(ctx, keys...); err != nil {
			logrus.WithError(err).WithField("user_id", userId).Warnln("Could not remove gallery assets.")
		}
	}

	if c.Events != nil {
		c.Events.Publish(biocard.AuthEvent{Kind: biocard.AuthAccountDeleted, UserId: userId})
	}
	return nil
}

func (c *ProfileController) logDeleted(ctx context.Context, userId biocard.UserId, by biocard.UserId) {
	if c.Activities == nil {
		return
	}
	err := c.Activities.AddLog(ctx, userId, biocard.Activity{
		Name: biocard.ActivityProfileDeleted,
		Data: map[string]interface{}{"by": string(by)},
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userId).Errorln("Could not add profile deleted log.")
	}
}

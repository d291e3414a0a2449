package rest

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/whoameye/biocard"
	"github.com/whoameye/biocard/discord"
	"github.com/whoameye/biocard/passwordreset"
)

// AuthMode selects the email form being submitted.
type AuthMode int

const (
	AuthModeSignIn AuthMode = iota + 1
	AuthModeSignUp
	AuthModeReset
)

func (m AuthMode) String() string {
	switch m {
	case AuthModeSignIn:
		return "sign-in"
	case AuthModeSignUp:
		return "sign-up"
	case AuthModeReset:
		return "reset"
	default:
		return "unknown"
	}
}

func ParseAuthMode(s string) (AuthMode, bool) {
	for _, m := range []AuthMode{AuthModeSignIn, AuthModeSignUp, AuthModeReset} {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}

type DiscordOAuth interface {
	AuthorizeUrl() string
	ExchangeCode(code string) (discord.AccessTokenResponse, error)
	UserMe(token discord.Token) (discord.User, error)
}

type AuthController struct {
	UserStore    biocard.UserStore
	SessionStore biocard.SessionStore
	Events       biocard.AuthEvents
	Reset        *passwordreset.Service
	// Social login is not offered when nil.
	Discord DiscordOAuth
}

func (c *AuthController) InstallTo(app *fiber.App) {
	app.Post("/api/auth/password/check", c.servePasswordCheck)
	app.Post("/api/auth/reset/confirm", c.serveResetConfirm)
	app.Post("/api/auth/logout", c.logoutHandler())
	if c.Discord != nil {
		app.Get("/api/auth/discord", c.serveDiscordUrl)
		app.Post("/api/auth/discord", c.serveAuthenticateDiscord)
	}
	app.Post("/api/auth/:mode", c.serveEmailAuth)
}

// authError rewrites known auth failures into the message shown to the user.
func authError(code int, err error) error {
	return fiber.NewError(code, biocard.FriendlyAuthMessage(err.Error()))
}

type credentialsBody struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type resetRequestBody struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

func (c *AuthController) serveEmailAuth(ctx *fiber.Ctx) error {
	mode, ok := ParseAuthMode(ctx.Params("mode"))
	if !ok {
		return fiber.ErrNotFound
	}
	switch mode {
	case AuthModeSignIn:
		return c.serveSignIn(ctx)
	case AuthModeSignUp:
		return c.serveSignUp(ctx)
	case AuthModeReset:
		return c.serveResetRequest(ctx)
	default:
		return fiber.ErrNotFound
	}
}

func (c *AuthController) serveSignUp(ctx *fiber.Ctx) error {
	var body credentialsBody
	if err := parseBody(ctx, &body); err != nil {
		return err
	}
	if err := biocard.ValidatePassword(body.Password); err != nil {
		return authError(fiber.StatusBadRequest, err)
	}
	hash, err := biocard.HashPassword(body.Password)
	if err != nil {
		return err
	}
	user, err := c.UserStore.RegisterEmailUser(ctx.Context(), biocard.Email(body.Email), hash)
	if err != nil {
		if errors.Is(err, biocard.ErrUserAlreadyRegistered) {
			return authError(fiber.StatusConflict, err)
		}
		return fmt.Errorf("register email user: %w", err)
	}
	return c.signIn(ctx, user)
}

func (c *AuthController) serveSignIn(ctx *fiber.Ctx) error {
	var body credentialsBody
	if err := parseBody(ctx, &body); err != nil {
		return err
	}
	user, err := c.UserStore.ByEmail(ctx.Context(), biocard.Email(body.Email))
	if err != nil {
		if errors.Is(err, biocard.ErrUserNotFound) {
			return authError(fiber.StatusUnauthorized, biocard.ErrInvalidCredentials)
		}
		return fmt.Errorf("user by email: %w", err)
	}
	if err := biocard.ComparePassword(user.PasswordHash, body.Password); err != nil {
		if errors.Is(err, biocard.ErrInvalidCredentials) {
			return authError(fiber.StatusUnauthorized, err)
		}
		return err
	}
	return c.signIn(ctx, user)
}

func (c *AuthController) serveResetRequest(ctx *fiber.Ctx) error {
	var body resetRequestBody
	if err := parseBody(ctx, &body); err != nil {
		return err
	}
	if err := c.Reset.Request(ctx.Context(), biocard.Email(body.Email)); err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	return ctx.JSON(map[string]string{
		"message": biocard.FriendlyAuthMessage(biocard.ErrResetPasswordSent.Error()),
	})
}

func (c *AuthController) serveResetConfirm(ctx *fiber.Ctx) error {
	var body struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,max=72"`
	}
	if err := parseBody(ctx, &body); err != nil {
		return err
	}
	_, err := c.Reset.Confirm(ctx.Context(), body.Token, body.Password)
	if err != nil {
		if errors.Is(err, biocard.ErrWeakPassword) {
			return authError(fiber.StatusBadRequest, err)
		}
		if errors.Is(err, passwordreset.ErrInvalidToken) {
			return fiber.NewError(fiber.StatusBadRequest, passwordreset.ErrInvalidToken.Error())
		}
		return fmt.Errorf("confirm password reset: %w", err)
	}
	return ctx.JSON(map[string]bool{"success": true})
}

func (c *AuthController) servePasswordCheck(ctx *fiber.Ctx) error {
	var body struct {
		Password string `json:"password" validate:"max=72"`
	}
	if err := parseBody(ctx, &body); err != nil {
		return err
	}
	return ctx.JSON(biocard.CheckPasswordRequirements(body.Password))
}

func (c *AuthController) serveDiscordUrl(ctx *fiber.Ctx) error {
	return ctx.JSON(map[string]string{
		"url": c.Discord.AuthorizeUrl(),
	})
}

// Social login does not apply the password policy, the provider owns the credentials.
func (c *AuthController) serveAuthenticateDiscord(ctx *fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		requestLog(ctx).WithError(err).Infoln("Invalid body.")
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if body.Code == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid code")
	}

	exchange, err := c.Discord.ExchangeCode(body.Code)
	if err != nil {
		if errors.Is(err, discord.ErrOAuthInvalidCode) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid code")
		}
		return fmt.Errorf("access token exchange: %w", err)
	}

	dcUser, err := c.Discord.UserMe(exchange.Token())
	if err != nil {
		return fmt.Errorf("discord user me: %w", err)
	}
	if dcUser.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing email")
	}
	if !dcUser.Verified {
		return fiber.NewError(fiber.StatusBadRequest, "unverified email")
	}

	user, err := c.UserStore.RegisterDiscordUser(ctx.Context(), dcUser.Id, biocard.Email(dcUser.Email))
	if err != nil {
		return fmt.Errorf("user register: %w", err)
	}
	return c.signIn(ctx, user)
}

func (c *AuthController) signIn(ctx *fiber.Ctx, user biocard.User) error {
	session, err := c.SessionStore.RegisterNew(ctx.Context(), user.Id, ctx.IP(),
		string(ctx.Request().Header.UserAgent()))
	if err != nil {
		return fmt.Errorf("session register new: %w", err)
	}
	if c.Events != nil {
		c.Events.Publish(biocard.AuthEvent{Kind: biocard.AuthSignedIn, UserId: user.Id, SessionId: session.Id})
	}

	return ctx.Status(fiber.StatusCreated).JSON(map[string]interface{}{
		"id":          session.Id,
		"userId":      session.UserId,
		"accessToken": session.Token,
		"expiresAt":   session.ExpiresAt.Unix(),
	})
}

func (c *AuthController) logoutHandler() fiber.Handler {
	return combineHandlers(RequestAuthorizer(c.SessionStore, c.UserStore), func(ctx *fiber.Ctx) error {
		session, err := sessionOf(ctx)
		if err != nil {
			return err
		}
		if _, err := c.SessionStore.InvalidateByAuthToken(session.Token); err != nil {
			return fmt.Errorf("invalidate session: %w", err)
		}
		if c.Events != nil {
			c.Events.Publish(biocard.AuthEvent{Kind: biocard.AuthSignedOut, UserId: session.UserId, SessionId: session.Id})
		}
		return nil
	})
}

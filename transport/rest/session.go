package rest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/whoameye/biocard"
)

const (
	sessionLocalsKey = "session"
	userLocalsKey    = "user"
)

func sessionOf(ctx *fiber.Ctx) (biocard.Session, error) {
	session, ok := ctx.Locals(sessionLocalsKey).(biocard.Session)
	if !ok {
		return biocard.Session{}, fiber.ErrUnauthorized
	}
	return session, nil
}

func userOf(ctx *fiber.Ctx) (biocard.User, error) {
	user, ok := ctx.Locals(userLocalsKey).(biocard.User)
	if !ok {
		return biocard.User{}, fiber.ErrUnauthorized
	}
	return user, nil
}

type SessionController struct {
	Store  biocard.SessionStore
	Events biocard.AuthEvents
}

func (c *SessionController) InstallTo(requestAuthorizer fiber.Handler, app *fiber.App) {
	app.Get("/api/session", combineHandlers(requestAuthorizer, c.serveCurrentSession))
	app.Delete("/api/session/:session_id", combineHandlers(requestAuthorizer, c.serveDeleteSession))
	app.Get("/api/sessions", combineHandlers(requestAuthorizer, c.serveSessions))
	app.Delete("/api/sessions/other", combineHandlers(requestAuthorizer, c.serveDeleteOtherSessions))
}

// SessionMeta describes a session without giving access to its token.
type SessionMeta struct {
	Id             string `json:"id"`
	Ip             string `json:"ip"`
	UserAgent      string `json:"userAgent"`
	LastAccessedAt int64  `json:"lastAccessedAt"`
	Current        bool   `json:"current"`
}

func (c *SessionController) serveCurrentSession(ctx *fiber.Ctx) error {
	session, err := sessionOf(ctx)
	if err != nil {
		return err
	}
	user, err := userOf(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(map[string]interface{}{
		"id":        session.Id,
		"userId":    session.UserId,
		"email":     user.Email,
		"expiresAt": session.ExpiresAt.Unix(),
	})
}

func (c *SessionController) serveSessions(ctx *fiber.Ctx) error {
	session, err := sessionOf(ctx)
	if err != nil {
		return err
	}

	activeSessions, err := c.Store.ActiveSessions(session.Token)
	if err != nil {
		if errors.Is(err, biocard.ErrSessionNotFound) {
			return fiber.ErrForbidden
		}
		return fmt.Errorf("active sessions: %w", err)
	}

	metas := make([]SessionMeta, len(activeSessions))
	for i, s := range activeSessions {
		metas[i] = SessionMeta{
			Id:             s.Id,
			Ip:             s.Ip,
			UserAgent:      s.UserAgent,
			LastAccessedAt: s.LastAccessedAt.Unix(),
			Current:        s.Id == session.Id,
		}
	}
	return ctx.JSON(metas)
}

func (c *SessionController) serveDeleteSession(ctx *fiber.Ctx) error {
	encodedSessionId := ctx.Params("session_id")
	if encodedSessionId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "no session id")
	}
	session, err := sessionOf(ctx)
	if err != nil {
		return err
	}

	sessionId, err := url.PathUnescape(encodedSessionId)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	var invalidated biocard.Session
	if session.Id == sessionId {
		invalidated, err = c.Store.InvalidateByAuthToken(session.Token)
	} else {
		invalidated, err = c.Store.InvalidateById(session.UserId, sessionId)
	}
	if err != nil {
		if errors.Is(err, biocard.ErrSessionNotFound) {
			return fiber.ErrForbidden
		}
		return fmt.Errorf("session invalidate: %w", err)
	}
	c.publishSignedOut(invalidated)
	return nil
}

func (c *SessionController) serveDeleteOtherSessions(ctx *fiber.Ctx) error {
	session, err := sessionOf(ctx)
	if err != nil {
		return err
	}
	invalidated, err := c.Store.InvalidateAllExcept(session.Token)
	if err != nil {
		if errors.Is(err, biocard.ErrSessionNotFound) {
			return fiber.ErrForbidden
		}
		return fmt.Errorf("invalidate other sessions: %w", err)
	}
	for _, s := range invalidated {
		c.publishSignedOut(s)
	}
	return nil
}

func (c *SessionController) publishSignedOut(session biocard.Session) {
	if c.Events == nil {
		return
	}
	c.Events.Publish(biocard.AuthEvent{
		Kind:      biocard.AuthSignedOut,
		UserId:    session.UserId,
		SessionId: session.Id,
	})
}

// RequestAuthorizer resolves the bearer token into the session and its user.
func RequestAuthorizer(sessionStore biocard.SessionStore, userStore biocard.UserStore) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		auth := ctx.Get(fiber.HeaderAuthorization)
		if auth == "" {
			return fiber.ErrUnauthorized
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			return fiber.NewError(fiber.StatusBadRequest, "invalid auth type")
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		session, err := sessionStore.AcquireAndRefresh(ctx.Context(), token, ctx.IP(),
			string(ctx.Request().Header.UserAgent()))
		if err != nil {
			if errors.Is(err, biocard.ErrSessionNotFound) {
				return fiber.ErrUnauthorized
			}
			return fmt.Errorf("acquire and refresh session: %w", err)
		}
		user, err := userStore.ById(ctx.Context(), session.UserId)
		if err != nil {
			if errors.Is(err, biocard.ErrUserNotFound) {
				return fiber.ErrUnauthorized
			}
			return fmt.Errorf("retrieve user by id: %w", err)
		}

		requestLog(ctx).
			WithField("user_id", user.Id).
			Debugln("Authorized access.")

		ctx.Locals(sessionLocalsKey, session)
		ctx.Locals(userLocalsKey, user)
		return nil
	}
}

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/buntdb"
	"github.com/whoameye/biocard"
	"github.com/whoameye/biocard/discord"
	"github.com/whoameye/biocard/inmem"
	"github.com/whoameye/biocard/mock"
	"github.com/whoameye/biocard/persistent"
)

func TestParseAuthMode(t *testing.T) {
	assert := assert.New(t)

	for _, m := range []AuthMode{AuthModeSignIn, AuthModeSignUp, AuthModeReset} {
		parsed, ok := ParseAuthMode(m.String())
		assert.True(ok)
		assert.Equal(m, parsed)
	}
	_, ok := ParseAuthMode("sign-out")
	assert.False(ok)
}

func TestEmailAuthFlow(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, testEnvOptions{})

	events := []biocard.AuthEvent{}
	sub := env.events.Subscribe(func(e biocard.AuthEvent) { events = append(events, e) })
	defer sub.Close()

	cases := []struct {
		mode     string
		email    string
		password string
		status   int
		message  string
	}{
		{"sign-up", "kay@example.com", "weakpass", 400, "Password must be at least 8 characters and include lowercase, uppercase, digit, and symbol."},
		{"sign-up", "not-an-email", testPassword, 400, "Please enter a valid email address."},
		{"sign-up", "", testPassword, 400, "email is required"},
		{"sign-in", "kay@example.com", testPassword, 401, "Incorrect email or password."},
		{"sign-out", "kay@example.com", testPassword, 404, "Not Found"},
	}
	for _, tc := range cases {
		resp, body := env.do(t, "POST", "/api/auth/"+tc.mode, "", map[string]string{
			"email":    tc.email,
			"password": tc.password,
		})
		assert.Equal(tc.status, resp.StatusCode, "%s %s", tc.mode, tc.email)
		assert.Equal(JsonErrorMessageResponse(tc.message), body, "%s %s", tc.mode, tc.email)
	}

	first := env.signUp(t, "kay@example.com")
	assert.NotEmpty(first.AccessToken)

	resp, body := env.do(t, "POST", "/api/auth/sign-up", "", map[string]string{
		"email":    "KAY@example.com",
		"password": testPassword,
	})
	assert.Equal(fiber.StatusConflict, resp.StatusCode)
	assert.Equal(JsonErrorMessageResponse("This email is already registered."), body)

	resp, body = env.do(t, "POST", "/api/auth/sign-in", "", map[string]string{
		"email":    "kay@example.com",
		"password": "Wr0ng-password",
	})
	assert.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(JsonErrorMessageResponse("Incorrect email or password."), body)

	second := env.authenticate(t, AuthModeSignIn, "kay@example.com")
	assert.Equal(first.UserId, second.UserId)
	assert.NotEqual(first.AccessToken, second.AccessToken)

	resp, _ = env.do(t, "POST", "/api/auth/logout", second.AccessToken, nil)
	assert.Equal(fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, "GET", "/api/session", second.AccessToken, nil)
	assert.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	resp, body = env.do(t, "GET", "/api/session", first.AccessToken, nil)
	assert.Equal(fiber.StatusOK, resp.StatusCode)
	assert.Contains(body, `"email":"kay@example.com"`)

	if assert.Len(events, 3) {
		assert.Equal(biocard.AuthSignedIn, events[0].Kind)
		assert.Equal(biocard.AuthSignedIn, events[1].Kind)
		assert.Equal(biocard.AuthEvent{
			Kind:      biocard.AuthSignedOut,
			UserId:    biocard.UserId(second.UserId),
			SessionId: second.Id,
		}, events[2])
	}

	logs, err := env.activities.ByUserId(context.Background(), biocard.UserId(first.UserId))
	if assert.NoError(err) && assert.Len(logs, 2) {
		assert.Equal(biocard.ActivitySessionCreated, logs[0].Name)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, testEnvOptions{})
	env.signUp(t, "kay@example.com")

	for _, email := range []string{"kay@example.com", "nobody@example.com"} {
		resp, body := env.do(t, "POST", "/api/auth/reset", "", map[string]string{"email": email})
		assert.Equal(fiber.StatusOK, resp.StatusCode)
		assert.Equal(`{"message":"Check your email for a password reset link."}`, body)
	}
	if !assert.Len(env.resetLinks, 1) {
		return
	}
	link, err := url.Parse(env.resetLinks[0])
	if !assert.NoError(err) {
		return
	}
	assert.Equal("/reset-password", link.Path)
	token := link.Query().Get("token")

	resp, body := env.do(t, "POST", "/api/auth/reset/confirm", "", map[string]string{
		"token":    token,
		"password": "short",
	})
	assert.Equal(fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(JsonErrorMessageResponse("Password must be at least 8 characters and include lowercase, uppercase, digit, and symbol."), body)

	resp, body = env.do(t, "POST", "/api/auth/reset/confirm", "", map[string]string{
		"token":    token,
		"password": "N3w-password",
	})
	assert.Equal(fiber.StatusOK, resp.StatusCode)
	assert.Equal(`{"success":true}`, body)

	resp, body = env.do(t, "POST", "/api/auth/reset/confirm", "", map[string]string{
		"token":    token,
		"password": "An0ther-password",
	})
	assert.Equal(fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(JsonErrorMessageResponse("reset link is invalid or expired"), body)

	resp, _ = env.do(t, "POST", "/api/auth/sign-in", "", map[string]string{
		"email":    "kay@example.com",
		"password": "N3w-password",
	})
	assert.Equal(fiber.StatusCreated, resp.StatusCode)
}

func TestPasswordCheck(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, testEnvOptions{})

	resp, body := env.do(t, "POST", "/api/auth/password/check", "", map[string]string{"password": "abcD"})
	assert.Equal(fiber.StatusOK, resp.StatusCode)
	assert.Equal(`{"length":false,"lowercase":true,"uppercase":true,"digit":false,"symbol":false}`, body)
}

func TestDiscordAuth(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	bunt, err := buntdb.Open(":memory:")
	if !assert.NoError(err) {
		return
	}
	defer func() {
		_ = bunt.Close()
	}()

	userStore := inmem.NewUserStore()
	activityStore := inmem.NewActivityStore()

	type Case struct {
		ExchangeErr error
		User        discord.User
		UserMeErr   error
		StatusCode  int
		Body        string
	}

	properUser := discord.User{Id: "928592940128", Username: "kay", Email: "kay@example.com", Verified: true}
	internalError := JsonErrorMessageResponse(fiber.ErrInternalServerError.Message)

	var current Case
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	(&AuthController{
		UserStore:    userStore,
		SessionStore: &persistent.SessionStore{Buntdb: bunt, ActivityStore: activityStore},
		Discord: mock.DiscordOAuth{
			AuthorizeUrlFn: func() string {
				return "https://discord.com/api/oauth2/authorize?client_id=1"
			},
			ExchangeCodeFn: func(code string) (discord.AccessTokenResponse, error) {
				if current.ExchangeErr != nil {
					return discord.AccessTokenResponse{}, current.ExchangeErr
				}
				return discord.AccessTokenResponse{AccessToken: "at", TokenType: "Bearer"}, nil
			},
			UserMeFn: func(token discord.Token) (discord.User, error) {
				if token.String() != "Bearer at" {
					return discord.User{}, discord.ErrUnauthorized
				}
				return current.User, current.UserMeErr
			},
		},
	}).InstallTo(app)

	cases := []Case{
		{ExchangeErr: discord.ErrOAuthInvalidCode, StatusCode: 401, Body: JsonErrorMessageResponse("invalid code")},
		{ExchangeErr: errors.New("unexpected error"), StatusCode: 500, Body: internalError},
		{UserMeErr: errors.New("unexpected error"), StatusCode: 500, Body: internalError},
		{User: discord.User{Id: "2222", Username: "no email access"}, StatusCode: 400, Body: JsonErrorMessageResponse("missing email")},
		{User: discord.User{Id: "2222", Email: "x@example.com"}, StatusCode: 400, Body: JsonErrorMessageResponse("unverified email")},
		{User: properUser, StatusCode: 201},
	}

	for i, tc := range cases {
		current = tc
		req := httptest.NewRequest("POST", "/api/auth/discord", bytes.NewBufferString(`{"code": "21"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if !assert.NoError(err) {
			return
		}
		bodyBytes, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if !assert.NoError(err) {
			return
		}
		assert.Equal(tc.StatusCode, resp.StatusCode, "case %d", i)
		if tc.Body != "" {
			assert.Equal(tc.Body, string(bodyBytes), "case %d", i)
		}
		if resp.StatusCode != fiber.StatusCreated {
			continue
		}

		var session sessionResponse
		if assert.NoError(json.Unmarshal(bodyBytes, &session)) {
			assert.NotEmpty(session.AccessToken)
		}
		user, err := userStore.ByEmail(ctx, "kay@example.com")
		if assert.NoError(err) {
			assert.Equal(properUser.Id, user.DiscordId)
			assert.Empty(user.PasswordHash)
			assert.Equal(biocard.UserId(session.UserId), user.Id)
		}
	}

	req := httptest.NewRequest("POST", "/api/auth/discord", bytes.NewBufferString(`{}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if assert.NoError(err) {
		assert.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/auth/discord", nil))
	if assert.NoError(err) {
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(`{"url":"https://discord.com/api/oauth2/authorize?client_id=1"}`, string(body))
	}
}

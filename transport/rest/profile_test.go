package rest

import (
	"context"
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/whoameye/biocard"
	"github.com/whoameye/biocard/inmem"
	"github.com/whoameye/biocard/mock"
)

func (env *testEnv) saveProfile(t *testing.T, token string, username string) {
	resp, body := env.do(t, "PUT", "/api/editor/username", token, map[string]string{"username": username})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("set username: %d %s", resp.StatusCode, body)
	}
	resp, body = env.do(t, "POST", "/api/editor/save", token, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("save: %d %s", resp.StatusCode, body)
	}
}

func TestDeleteOwnProfile(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	env := newTestEnv(t, testEnvOptions{})
	assets := env.assets.(*inmem.AssetStore)

	resp, body := env.do(t, "DELETE", "/api/profile", "", nil)
	assert.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(JsonErrorMessageResponse("Unauthorized"), body)

	session := env.signUp(t, "kay@example.com")
	status, _ := env.upload(t, "POST", "/api/editor/gallery", session.AccessToken, upload{"files", "a.png", pngHeader})
	assert.Equal(fiber.StatusOK, status)
	env.saveProfile(t, session.AccessToken, "kay")
	assert.Equal(1, assets.Len())
	assert.Equal(1, env.registry.Len())

	deleted := []biocard.AuthEvent{}
	sub := env.events.Subscribe(func(e biocard.AuthEvent) {
		if e.Kind == biocard.AuthAccountDeleted {
			deleted = append(deleted, e)
		}
	})
	defer sub.Close()

	resp, body = env.do(t, "DELETE", "/api/profile", session.AccessToken, nil)
	assert.Equal(fiber.StatusOK, resp.StatusCode)
	assert.Equal(`{"success":true}`, body)

	_, err := env.profiles.ByUsername(ctx, "kay")
	assert.ErrorIs(err, biocard.ErrProfileNotFound)
	assert.Equal(0, assets.Len())
	assert.Equal(0, env.registry.Len())
	assert.Equal([]biocard.AuthEvent{{Kind: biocard.AuthAccountDeleted, UserId: biocard.UserId(session.UserId)}}, deleted)

	logs, err := env.activities.ByUserId(ctx, biocard.UserId(session.UserId))
	if assert.NoError(err) && assert.NotEmpty(logs) {
		assert.Equal(biocard.ActivityProfileDeleted, logs[0].Name)
	}

	// deleting a missing profile still succeeds
	resp, body = env.do(t, "DELETE", "/api/profile", session.AccessToken, nil)
	assert.Equal(fiber.StatusOK, resp.StatusCode)
	assert.Equal(`{"success":true}`, body)

	resp, body = env.do(t, "GET", "/api/editor", session.AccessToken, nil)
	if assert.Equal(fiber.StatusOK, resp.StatusCode) {
		state := parseState(t, body)
		assert.Equal("", state.Profile.Username)
		assert.False(state.UsernameLocked)
	}
}

func TestDeleteProfileStoreFailure(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, testEnvOptions{
		Profiles: mock.ProfileStore{
			ByUserIdFn: func(ctx context.Context, userId biocard.UserId) (biocard.Profile, error) {
				return biocard.Profile{}, biocard.ErrProfileNotFound
			},
			DeleteByUserIdFn: func(ctx context.Context, userId biocard.UserId) error {
				return errors.New("connection reset")
			},
		},
	})
	session := env.signUp(t, "kay@example.com")

	resp, body := env.do(t, "DELETE", "/api/profile", session.AccessToken, nil)
	assert.Equal(fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(JsonErrorMessageResponse("Failed to delete profile"), body)
}

func TestModerateProfile(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	env := newTestEnv(t, testEnvOptions{})

	owner := env.signUp(t, "kay@example.com")
	env.saveProfile(t, owner.AccessToken, "kay")
	moderator := env.signUp(t, "mod@example.com")

	resp, _ := env.do(t, "DELETE", "/api/profiles/kay", moderator.AccessToken, nil)
	assert.Equal(fiber.StatusForbidden, resp.StatusCode)

	user, err := env.users.ById(ctx, biocard.UserId(moderator.UserId))
	if !assert.NoError(err) {
		return
	}
	user.Roles = biocard.RolesByIds([]biocard.RoleId{biocard.RoleIdModerator})
	assert.NoError(env.users.Update(ctx, user))

	resp, _ = env.do(t, "DELETE", "/api/profiles/ghost", moderator.AccessToken, nil)
	assert.Equal(fiber.StatusNotFound, resp.StatusCode)

	resp, body := env.do(t, "DELETE", "/api/profiles/KAY", moderator.AccessToken, nil)
	assert.Equal(fiber.StatusOK, resp.StatusCode)
	assert.Equal(`{"success":true}`, body)
	_, err = env.profiles.ByUserId(ctx, biocard.UserId(owner.UserId))
	assert.ErrorIs(err, biocard.ErrProfileNotFound)

	logs, err := env.activities.ByUserId(ctx, biocard.UserId(owner.UserId))
	if assert.NoError(err) && assert.NotEmpty(logs) {
		assert.Equal(biocard.ActivityProfileDeleted, logs[0].Name)
		assert.Equal(moderator.UserId, logs[0].Data["by"])
	}
}

func TestProfileCardJson(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, testEnvOptions{})

	resp, body := env.do(t, "GET", "/api/profiles/ghost", "", nil)
	assert.Equal(fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(body, `"found":false`)
	assert.Contains(body, `"title":"Profile Not Found"`)
	assert.Contains(body, `"message":"This card does not exist or is private."`)
}

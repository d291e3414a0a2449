package persistent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/whoameye/biocard"
)

func TestProfileStore(t *testing.T) {
	forEachDB(t, func(t *testing.T, db *bun.DB) {
		assert := assert.New(t)
		ctx := context.Background()
		store := &ProfileStore{DB: db}

		_, err := store.ByUserId(ctx, "u1")
		assert.ErrorIs(err, biocard.ErrProfileNotFound)
		_, err = store.ByUsername(ctx, "kay")
		assert.ErrorIs(err, biocard.ErrProfileNotFound)

		p := biocard.NewDraftProfile("u1")
		p.Username = "kay"
		p.DisplayName = "Kay"
		p.Links = []biocard.Link{{Label: "Site", Url: "https://x.test"}, {}}
		p.Gallery = []string{"https://cdn.test/a.png"}
		p.Socials[biocard.PlatformGithub] = "https://github.com/kay"
		p.UpdatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		if !assert.NoError(store.Upsert(ctx, p)) {
			return
		}

		found, err := store.ByUsername(ctx, "KAY")
		if !assert.NoError(err) {
			return
		}
		assert.Equal(p.UserId, found.UserId)
		assert.Equal("Kay", found.DisplayName)
		assert.Equal(p.Links, found.Links)
		assert.Equal(p.Gallery, found.Gallery)
		assert.Equal(p.Socials, found.Socials)
		assert.Equal(biocard.DefaultFont, found.Font)
		assert.True(p.UpdatedAt.Equal(found.UpdatedAt))

		// replace on matching user id
		p.Tagline = "changed"
		p.Gallery = []string{}
		if assert.NoError(store.Upsert(ctx, p)) {
			found, err = store.ByUserId(ctx, "u1")
			if assert.NoError(err) {
				assert.Equal("changed", found.Tagline)
				assert.Equal(0, len(found.Gallery))
			}
		}

		other := biocard.NewDraftProfile("u2")
		other.Username = "kay"
		assert.ErrorIs(store.Upsert(ctx, other), biocard.ErrUsernameTaken)

		assert.NoError(store.DeleteByUserId(ctx, "u1"))
		_, err = store.ByUserId(ctx, "u1")
		assert.ErrorIs(err, biocard.ErrProfileNotFound)
		assert.NoError(store.DeleteByUserId(ctx, "u1"))

		assert.NoError(store.Upsert(ctx, other))
	})
}

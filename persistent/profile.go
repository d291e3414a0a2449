package persistent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/whoameye/biocard"
)

type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	UserId      string            `bun:",pk"`
	Username    string            `bun:",notnull,unique"`
	DisplayName string            `bun:",notnull"`
	Pronouns    string            `bun:",notnull"`
	Tagline     string            `bun:",notnull"`
	Bio         string            `bun:",notnull"`
	Avatar      string            `bun:",notnull"`
	Banner      string            `bun:",notnull"`
	BannerImage string            `bun:",notnull"`
	Links       []biocard.Link    `bun:",notnull"`
	Font        string            `bun:",notnull"`
	Gallery     []string          `bun:",notnull"`
	Socials     map[string]string `bun:",notnull"`
	UpdatedAt   time.Time         `bun:",notnull"`
}

func newProfile(p biocard.Profile) *Profile {
	socials := make(map[string]string, len(p.Socials))
	for platform, url := range p.Socials {
		socials[string(platform)] = url
	}
	links := p.Links
	if links == nil {
		links = []biocard.Link{}
	}
	gallery := p.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	return &Profile{
		UserId:      string(p.UserId),
		Username:    strings.ToLower(p.Username),
		DisplayName: p.DisplayName,
		Pronouns:    p.Pronouns,
		Tagline:     p.Tagline,
		Bio:         p.Bio,
		Avatar:      p.Avatar,
		Banner:      p.Banner,
		BannerImage: p.BannerImage,
		Links:       links,
		Font:        string(p.Font),
		Gallery:     gallery,
		Socials:     socials,
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func (p Profile) ToDomain() biocard.Profile {
	socials := make(biocard.Socials, len(p.Socials))
	for platform, url := range p.Socials {
		socials[biocard.Platform(platform)] = url
	}
	return biocard.Profile{
		UserId:      biocard.UserId(p.UserId),
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Pronouns:    p.Pronouns,
		Tagline:     p.Tagline,
		Bio:         p.Bio,
		Avatar:      p.Avatar,
		Banner:      p.Banner,
		BannerImage: p.BannerImage,
		Links:       p.Links,
		Gallery:     p.Gallery,
		Socials:     socials,
		Font:        biocard.Font(p.Font),
		UpdatedAt:   p.UpdatedAt,
	}
}

type ProfileStore struct {
	DB *bun.DB
}

var _ biocard.ProfileStore = (*ProfileStore)(nil)

func (s *ProfileStore) ByUserId(ctx context.Context, userId biocard.UserId) (biocard.Profile, error) {
	profile := new(Profile)
	err := s.DB.NewSelect().
		Model(profile).
		Where(`user_id = ?`, string(userId)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return biocard.Profile{}, biocard.ErrProfileNotFound
		}
		return biocard.Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return profile.ToDomain(), nil
}

func (s *ProfileStore) ByUsername(ctx context.Context, username string) (biocard.Profile, error) {
	if username == "" {
		return biocard.Profile{}, biocard.ErrProfileNotFound
	}
	profile := new(Profile)
	err := s.DB.NewSelect().
		Model(profile).
		Where(`username = ?`, strings.ToLower(username)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return biocard.Profile{}, biocard.ErrProfileNotFound
		}
		return biocard.Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return profile.ToDomain(), nil
}

// Upsert replaces every column of the row with matching user id.
func (s *ProfileStore) Upsert(ctx context.Context, p biocard.Profile) error {
	profile := newProfile(p)
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}
	_, err := s.DB.NewInsert().
		Model(profile).
		On(`CONFLICT (user_id) DO UPDATE`).
		Set(`username = EXCLUDED.username`).
		Set(`display_name = EXCLUDED.display_name`).
		Set(`pronouns = EXCLUDED.pronouns`).
		Set(`tagline = EXCLUDED.tagline`).
		Set(`bio = EXCLUDED.bio`).
		Set(`avatar = EXCLUDED.avatar`).
		Set(`banner = EXCLUDED.banner`).
		Set(`banner_image = EXCLUDED.banner_image`).
		Set(`links = EXCLUDED.links`).
		Set(`font = EXCLUDED.font`).
		Set(`gallery = EXCLUDED.gallery`).
		Set(`socials = EXCLUDED.socials`).
		Set(`updated_at = EXCLUDED.updated_at`).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return biocard.ErrUsernameTaken
		}
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) DeleteByUserId(ctx context.Context, userId biocard.UserId) error {
	_, err := s.DB.NewDelete().
		Model((*Profile)(nil)).
		Where(`user_id = ?`, string(userId)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

package biocard

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUsernameTaken   = errors.New("username already taken")
)

const (
	DefaultAvatar  = "https://api.dicebear.com/7.x/shapes/svg?seed=profile"
	DefaultBanner  = "gradient"
	DefaultTagline = "Express yourself!"
	DefaultBio     = "Welcome to my profile. I love building cool things and meeting new people!"

	// Maximum number of images kept in a profile gallery.
	GalleryCapacity = 9
)

// Field length limits enforced where user input enters the system.
const (
	MaxDisplayNameLen = 32
	MaxPronounsLen    = 32
	MaxTaglineLen     = 64
	MaxBioLen         = 300
	MaxLinkLabelLen   = 24
)

type Link struct {
	Label string `json:"label"`
	Url   string `json:"url"`
}

// Visible reports whether the link is shown on the public card.
func (l Link) Visible() bool {
	return l.Label != "" && l.Url != ""
}

type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformGithub    Platform = "github"
	PlatformLinkedin  Platform = "linkedin"
	PlatformFacebook  Platform = "facebook"
	PlatformYoutube   Platform = "youtube"
	PlatformTiktok    Platform = "tiktok"
	PlatformTwitch    Platform = "twitch"
)

// Platforms in display order.
var Platforms = []Platform{
	PlatformTwitter,
	PlatformInstagram,
	PlatformGithub,
	PlatformLinkedin,
	PlatformFacebook,
	PlatformYoutube,
	PlatformTiktok,
	PlatformTwitch,
}

func (p Platform) Known() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// Socials maps a platform to the owner's profile url on it.
type Socials map[Platform]string

// EmptySocials returns socials holding every known platform with no url.
func EmptySocials() Socials {
	socials := make(Socials, len(Platforms))
	for _, p := range Platforms {
		socials[p] = ""
	}
	return socials
}

type Profile struct {
	UserId      UserId
	Username    string
	DisplayName string
	Pronouns    string
	Tagline     string
	Bio         string
	Avatar      string
	Banner      string
	BannerImage string
	Links       []Link
	Gallery     []string
	Socials     Socials
	Font        Font
	UpdatedAt   time.Time
}

// NewDraftProfile returns the profile a user starts editing before the first save.
func NewDraftProfile(userId UserId) Profile {
	return Profile{
		UserId:  userId,
		Tagline: DefaultTagline,
		Bio:     DefaultBio,
		Avatar:  DefaultAvatar,
		Banner:  DefaultBanner,
		Links:   []Link{{Label: "My Portfolio", Url: ""}},
		Gallery: []string{},
		Socials: EmptySocials(),
		Font:    DefaultFont,
	}
}

// Clone returns a deep copy so callers can mutate collections freely.
func (p Profile) Clone() Profile {
	c := p
	c.Links = append([]Link(nil), p.Links...)
	c.Gallery = append([]string(nil), p.Gallery...)
	if p.Socials != nil {
		c.Socials = make(Socials, len(p.Socials))
		for k, v := range p.Socials {
			c.Socials[k] = v
		}
	}
	return c
}

// VisibleLinks returns links having both label and url, keeping their order.
func (p Profile) VisibleLinks() []Link {
	links := make([]Link, 0, len(p.Links))
	for _, l := range p.Links {
		if l.Visible() {
			links = append(links, l)
		}
	}
	return links
}

type ProfileStore interface {
	ByUserId(ctx context.Context, userId UserId) (Profile, error)

	// Case-insensitive lookup.
	ByUsername(ctx context.Context, username string) (Profile, error)

	// Insert or replace the profile owned by profile.UserId.
	Upsert(ctx context.Context, profile Profile) error

	DeleteByUserId(ctx context.Context, userId UserId) error
}

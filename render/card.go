// Package render builds the read-only public card of a profile.
package render

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/whoameye/biocard"
)

const (
	NotFoundTitle   = "Profile Not Found"
	NotFoundMessage = "This card does not exist or is private."
)

var platformNames = map[biocard.Platform]string{
	biocard.PlatformTwitter:   "Twitter",
	biocard.PlatformInstagram: "Instagram",
	biocard.PlatformGithub:    "GitHub",
	biocard.PlatformLinkedin:  "LinkedIn",
	biocard.PlatformFacebook:  "Facebook",
	biocard.PlatformYoutube:   "YouTube",
	biocard.PlatformTiktok:    "TikTok",
	biocard.PlatformTwitch:    "Twitch",
}

type LinkView struct {
	Label string `json:"label"`
	Url   string `json:"url"`
	// Url without scheme and trailing slash.
	Display string `json:"display"`
}

type SocialView struct {
	Platform biocard.Platform `json:"platform"`
	Name     string           `json:"name"`
	Url      string           `json:"url"`
}

type Card struct {
	Found bool `json:"found"`

	Username    string             `json:"username,omitempty"`
	DisplayName string             `json:"display_name,omitempty"`
	Pronouns    string             `json:"pronouns,omitempty"`
	Tagline     string             `json:"tagline,omitempty"`
	Bio         string             `json:"bio,omitempty"`
	Avatar      template.URL       `json:"avatar,omitempty"`
	BannerImage template.URL       `json:"banner_image,omitempty"`
	Theme       biocard.Theme      `json:"theme"`
	Font        biocard.FontOption `json:"font"`
	Links       []LinkView         `json:"links"`
	Socials     []SocialView       `json:"socials"`
	Gallery     []template.URL     `json:"gallery"`

	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

func NotFoundCard() Card {
	return Card{
		Found:   false,
		Theme:   biocard.Themes[0],
		Font:    biocard.Fonts[0],
		Links:   []LinkView{},
		Socials: []SocialView{},
		Gallery: []template.URL{},
		Title:   NotFoundTitle,
		Message: NotFoundMessage,
	}
}

// NewCard derives the public card of a stored profile.
func NewCard(p biocard.Profile) Card {
	card := Card{
		Found:       true,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Pronouns:    p.Pronouns,
		Tagline:     p.Tagline,
		Bio:         p.Bio,
		Avatar:      imageUrl(p.Avatar),
		BannerImage: imageUrl(p.BannerImage),
		Theme:       biocard.ThemeByName(p.Banner),
		Font:        biocard.FontByClass(p.Font),
		Links:       []LinkView{},
		Socials:     []SocialView{},
		Gallery:     []template.URL{},
		Title:       p.DisplayName,
	}
	if card.DisplayName == "" {
		card.DisplayName = p.Username
		card.Title = p.Username
	}
	if card.Avatar == "" {
		card.Avatar = template.URL(biocard.DefaultAvatar)
	}

	for _, l := range p.VisibleLinks() {
		card.Links = append(card.Links, LinkView{Label: l.Label, Url: l.Url, Display: displayUrl(l.Url)})
	}
	for _, platform := range biocard.Platforms {
		url := p.Socials[platform]
		if url == "" {
			continue
		}
		card.Socials = append(card.Socials, SocialView{
			Platform: platform,
			Name:     platformNames[platform],
			Url:      url,
		})
	}
	for _, img := range p.Gallery {
		if u := imageUrl(img); u != "" {
			card.Gallery = append(card.Gallery, u)
		}
	}
	return card
}

func (c Card) Path() string {
	return "/u/" + c.Username
}

func displayUrl(url string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(strings.ToLower(url), scheme) {
			url = url[len(scheme):]
			break
		}
	}
	return strings.TrimSuffix(url, "/")
}

// imageUrl marks http(s) and inline image urls as safe for img sources.
// Anything else is dropped.
func imageUrl(url string) template.URL {
	lower := strings.ToLower(url)
	switch {
	case strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "data:image/"):
		return template.URL(url)
	default:
		return ""
	}
}

type Renderer struct {
	Profiles biocard.ProfileStore
}

// Card looks the profile up by username, ignoring case.
// A missing profile yields the not found card.
func (r *Renderer) Card(ctx context.Context, username string) (Card, error) {
	profile, err := r.Profiles.ByUsername(ctx, strings.ToLower(username))
	if err != nil {
		if errors.Is(err, biocard.ErrProfileNotFound) {
			return NotFoundCard(), nil
		}
		return Card{}, fmt.Errorf("profile by username: %w", err)
	}
	return NewCard(profile), nil
}

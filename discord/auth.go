// Package discord signs users in through Discord OAuth2.
package discord

import (
	"errors"
	"time"
)

var ErrUnauthorized = errors.New("discord: unauthorized")

const DefaultApiUrl = "https://discord.com/api"

const defaultTimeout = 10 * time.Second

type Token struct {
	Type  string
	Value string
}

func (t Token) String() string {
	return t.Type + " " + t.Value
}

// Client talks to the Discord REST api on behalf of a registered application.
type Client struct {
	ClientId     string
	ClientSecret string
	RedirectUri  string
	// Defaults to DefaultApiUrl.
	ApiUrl  string
	Timeout time.Duration
}

func NewClient(clientId string, clientSecret string, redirectUri string) *Client {
	return &Client{
		ClientId:     clientId,
		ClientSecret: clientSecret,
		RedirectUri:  redirectUri,
		ApiUrl:       DefaultApiUrl,
		Timeout:      defaultTimeout,
	}
}

func (c *Client) apiUrl(path string) string {
	base := c.ApiUrl
	if base == "" {
		base = DefaultApiUrl
	}
	return base + path
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

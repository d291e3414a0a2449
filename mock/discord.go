package mock

import "github.com/whoameye/biocard/discord"

type DiscordOAuth struct {
	AuthorizeUrlFn func() string
	ExchangeCodeFn func(code string) (discord.AccessTokenResponse, error)
	UserMeFn       func(token discord.Token) (discord.User, error)
}

func (m DiscordOAuth) AuthorizeUrl() string {
	return m.AuthorizeUrlFn()
}

func (m DiscordOAuth) ExchangeCode(code string) (discord.AccessTokenResponse, error) {
	return m.ExchangeCodeFn(code)
}

func (m DiscordOAuth) UserMe(token discord.Token) (discord.User, error) {
	return m.UserMeFn(token)
}

package discord

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizeUrl(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		clientId    string
		redirectUri string
		result      string
	}{
		{"2115", "https://whoameye.bio/auth/discord", "https://discord.com/api/oauth2/authorize?client_id=2115&" +
			"redirect_uri=https%3A%2F%2Fwhoameye.bio%2Fauth%2Fdiscord&response_type=code&scope=email+identify"},
		{"3721", "http://localhost:3000/login", "https://discord.com/api/oauth2/authorize?client_id=3721&" +
			"redirect_uri=http%3A%2F%2Flocalhost%3A3000%2Flogin&response_type=code&scope=email+identify"},
	}

	for i, tc := range cases {
		c := NewClient(tc.clientId, "secret", tc.redirectUri)
		assert.Equal(tc.result, c.AuthorizeUrl(), "index: %d", i)
	}
}

func newTestApi(t *testing.T) *Client {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("code") != "good" || r.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Invalid \"code\" in request."}`)
			return
		}
		fmt.Fprint(w, `{"access_token":"at","expires_in":604800,"refresh_token":"rt","token_type":"Bearer"}`)
	})
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"80351110224678912","username":"kay","email":"kay@example.com","verified":true}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient("2115", "secret", "http://localhost/auth/discord")
	c.ApiUrl = srv.URL
	return c
}

func TestExchangeAndUserMe(t *testing.T) {
	assert := assert.New(t)
	c := newTestApi(t)

	_, err := c.ExchangeCode("bad")
	assert.ErrorIs(err, ErrOAuthInvalidCode)

	resp, err := c.ExchangeCode("good")
	if !assert.NoError(err) {
		return
	}
	assert.Equal(Token{Type: "Bearer", Value: "at"}, resp.Token())
	assert.Equal("rt", resp.RefreshToken)

	user, err := c.UserMe(resp.Token())
	if assert.NoError(err) {
		assert.Equal(User{Id: "80351110224678912", Username: "kay", Email: "kay@example.com", Verified: true}, user)
	}

	_, err = c.UserMe(Token{Type: "Bearer", Value: "stale"})
	assert.ErrorIs(err, ErrUnauthorized)
}

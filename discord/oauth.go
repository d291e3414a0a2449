package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
)

var ErrOAuthInvalidCode = errors.New("discord: oauth invalid code")

const authorizeUrl = "https://discord.com/api/oauth2/authorize"

type AccessTokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (r AccessTokenResponse) Token() Token {
	return Token{Type: r.TokenType, Value: r.AccessToken}
}

// AuthorizeUrl is the consent page the browser is sent to. Only the
// scopes needed to identify the user and read the email are requested.
func (c *Client) AuthorizeUrl() string {
	query := url.Values{}
	query.Set("client_id", c.ClientId)
	query.Set("redirect_uri", c.RedirectUri)
	query.Set("response_type", "code")
	query.Set("scope", "email identify")
	return authorizeUrl + "?" + query.Encode()
}

func (c *Client) ExchangeCode(code string) (AccessTokenResponse, error) {
	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	req.Header.SetMethod(fiber.MethodPost)
	req.SetRequestURI(c.apiUrl("/oauth2/token"))
	agent.Timeout(c.timeout())

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)

	args.Add("grant_type", "authorization_code")
	args.Add("client_id", c.ClientId)
	args.Add("client_secret", c.ClientSecret)
	args.Add("code", code)
	args.Add("redirect_uri", c.RedirectUri)

	err := agent.Form(args).Parse()
	if err != nil {
		return AccessTokenResponse{}, fmt.Errorf("agent parse: %w", err)
	}

	statusCode, bodyBytes, errs := agent.Bytes()
	if len(errs) != 0 {
		return AccessTokenResponse{}, fmt.Errorf("agent bytes: %w", errors.Join(errs...))
	}
	if statusCode != fiber.StatusOK {
		return AccessTokenResponse{}, accessTokenExchangeError(statusCode, bodyBytes)
	}

	var response AccessTokenResponse
	if err = json.Unmarshal(bodyBytes, &response); err != nil {
		return AccessTokenResponse{}, fmt.Errorf("response unmarshal: %w", err)
	}
	return response, nil
}

func accessTokenExchangeError(statusCode int, bodyBytes []byte) error {
	var response struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		return fmt.Errorf("unmarshal error: %w: %s", err, string(bodyBytes))
	}
	if response.Error == "invalid_grant" || response.Description == `Invalid "code" in request.` {
		return ErrOAuthInvalidCode
	}
	return fmt.Errorf("invalid status code '%d': %s", statusCode, string(bodyBytes))
}

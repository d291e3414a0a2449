package discord

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type User struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// UserMe reads /users/@me of the token owner.
func (c *Client) UserMe(token Token) (User, error) {
	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	req.Header.SetMethod(fiber.MethodGet)
	req.SetRequestURI(c.apiUrl("/users/@me"))
	req.Header.Set(fiber.HeaderAuthorization, token.String())
	agent.Timeout(c.timeout())

	err := agent.Parse()
	if err != nil {
		return User{}, fmt.Errorf("agent parse: %w", err)
	}

	statusCode, body, errs := agent.Bytes()
	if len(errs) != 0 {
		return User{}, fmt.Errorf("agent bytes: %w", errors.Join(errs...))
	}
	switch statusCode {
	case fiber.StatusOK:
	case fiber.StatusUnauthorized:
		return User{}, ErrUnauthorized
	default:
		return User{}, fmt.Errorf("invalid status code %d: %s", statusCode, string(body))
	}

	var response User
	if err = json.Unmarshal(body, &response); err != nil {
		return User{}, fmt.Errorf("unmarshal body: %w", err)
	}
	return response, nil
}

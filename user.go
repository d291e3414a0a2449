package biocard

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserAlreadyRegistered = errors.New("user already registered")
	ErrInvalidCredentials    = errors.New("invalid login credentials")
)

// UserId is the opaque identity issued by the user store.
type UserId string

type Email string

type User struct {
	Id           UserId
	CreatedAt    time.Time
	Roles        Roles
	Email        Email
	PasswordHash string
	// Discord account id when the user signed in with Discord.
	DiscordId string
}

type UserStore interface {
	// Register a user signing up with email and password hash.
	// Returns ErrUserAlreadyRegistered when email is in use.
	RegisterEmailUser(ctx context.Context, email Email, passwordHash string) (User, error)

	// Register or refresh a user signing in with Discord.
	RegisterDiscordUser(ctx context.Context, discordId string, email Email) (User, error)

	ById(ctx context.Context, userId UserId) (User, error)

	ByEmail(ctx context.Context, email Email) (User, error)

	Update(ctx context.Context, user User) error
}

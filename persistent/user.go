package persistent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/whoameye/biocard"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	Id           string           `bun:",pk"`
	CreatedAt    time.Time        `bun:",nullzero,notnull,default:current_timestamp"`
	RolesNames   []biocard.RoleId `bun:",notnull"`
	Email        string           `bun:",notnull,unique"`
	PasswordHash string           `bun:",notnull"`
	DiscordId    sql.NullString   `bun:",unique"`

	// Mapped (in AfterScanRow hook) roles from RolesNames.
	Roles biocard.Roles `bun:"-"`
}

func (u User) ToDomain() biocard.User {
	return biocard.User{
		Id:           biocard.UserId(u.Id),
		CreatedAt:    u.CreatedAt,
		Roles:        u.Roles,
		Email:        biocard.Email(u.Email),
		PasswordHash: u.PasswordHash,
		DiscordId:    u.DiscordId.String,
	}
}

var _ bun.AfterScanRowHook = (*User)(nil)

func (u *User) AfterScanRow(ctx context.Context) error {
	u.Roles = biocard.RolesByIds(u.RolesNames)
	return nil
}

type UserStore struct {
	DB *bun.DB
}

var _ biocard.UserStore = (*UserStore)(nil)

func normalizeEmail(email biocard.Email) string {
	return strings.ToLower(strings.TrimSpace(string(email)))
}

func (s *UserStore) RegisterEmailUser(ctx context.Context, email biocard.Email, passwordHash string) (biocard.User, error) {
	user := &User{
		Id:           uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
		RolesNames:   []biocard.RoleId{},
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
	}
	_, err := s.DB.NewInsert().
		Model(user).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return biocard.User{}, biocard.ErrUserAlreadyRegistered
		}
		return biocard.User{}, fmt.Errorf("insert user: %w", err)
	}
	user.Roles = biocard.Roles{}
	return user.ToDomain(), nil
}

func (s *UserStore) RegisterDiscordUser(ctx context.Context, discordId string, email biocard.Email) (biocard.User, error) {
	user := &User{
		Id:         uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		RolesNames: []biocard.RoleId{},
		Email:      normalizeEmail(email),
		DiscordId:  sql.NullString{String: discordId, Valid: true},
	}
	_, err := s.DB.NewInsert().
		Model(user).
		On(`CONFLICT (discord_id) DO UPDATE`).
		Set(`email = EXCLUDED.email`).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return biocard.User{}, biocard.ErrUserAlreadyRegistered
		}
		return biocard.User{}, fmt.Errorf("upsert discord user: %w", err)
	}

	// the id of an existing row is kept on conflict
	stored := new(User)
	err = s.DB.NewSelect().
		Model(stored).
		Where(`discord_id = ?`, discordId).
		Scan(ctx)
	if err != nil {
		return biocard.User{}, fmt.Errorf("select discord user: %w", err)
	}
	return stored.ToDomain(), nil
}

func (s *UserStore) ById(ctx context.Context, userId biocard.UserId) (biocard.User, error) {
	user := new(User)
	err := s.DB.NewSelect().
		Model(user).
		Where(`id = ?`, string(userId)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return biocard.User{}, biocard.ErrUserNotFound
		}
		return biocard.User{}, fmt.Errorf("select user: %w", err)
	}
	return user.ToDomain(), nil
}

func (s *UserStore) ByEmail(ctx context.Context, email biocard.Email) (biocard.User, error) {
	user := new(User)
	err := s.DB.NewSelect().
		Model(user).
		Where(`email = ?`, normalizeEmail(email)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return biocard.User{}, biocard.ErrUserNotFound
		}
		return biocard.User{}, fmt.Errorf("select user: %w", err)
	}
	return user.ToDomain(), nil
}

func (s *UserStore) Update(ctx context.Context, user biocard.User) error {
	model := &User{
		Id:           string(user.Id),
		RolesNames:   user.Roles.Ids(),
		Email:        normalizeEmail(user.Email),
		PasswordHash: user.PasswordHash,
		DiscordId:    sql.NullString{String: user.DiscordId, Valid: user.DiscordId != ""},
	}
	res, err := s.DB.NewUpdate().
		Model(model).
		Column("roles_names", "email", "password_hash", "discord_id").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update query: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return biocard.ErrUserNotFound
	}
	return nil
}

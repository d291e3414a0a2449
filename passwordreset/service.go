package passwordreset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/whoameye/biocard"
)

type Service struct {
	Users      biocard.UserStore
	Tokens     *Tokens
	Mailer     Mailer
	Activities biocard.ActivityStore
	// Page the emailed link points to, the token is appended as ?token=.
	ResetUrl string
}

// Request mails a reset link to the owner of email. Unknown addresses are
// not reported to the caller.
func (s *Service) Request(ctx context.Context, email biocard.Email) error {
	email = biocard.Email(strings.TrimSpace(string(email)))
	user, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, biocard.ErrUserNotFound) {
			logrus.WithField("email", email).Debugln("Password reset for unknown email.")
			return nil
		}
		return fmt.Errorf("user by email: %w", err)
	}
	if user.PasswordHash == "" {
		logrus.WithField("userId", user.Id).Debugln("Password reset for social login user.")
		return nil
	}

	token, err := s.Tokens.Issue(user)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	link, err := s.link(token)
	if err != nil {
		return err
	}
	if err := s.Mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

func (s *Service) link(token string) (string, error) {
	u, err := url.Parse(s.ResetUrl)
	if err != nil {
		return "", fmt.Errorf("parse reset url: %w", err)
	}
	query := u.Query()
	query.Set("token", token)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Confirm sets newPassword for the user the token was issued to.
func (s *Service) Confirm(ctx context.Context, token string, newPassword string) (biocard.User, error) {
	if err := biocard.ValidatePassword(newPassword); err != nil {
		return biocard.User{}, err
	}
	userId, fp, err := s.Tokens.Verify(token)
	if err != nil {
		return biocard.User{}, err
	}
	user, err := s.Users.ById(ctx, userId)
	if err != nil {
		if errors.Is(err, biocard.ErrUserNotFound) {
			return biocard.User{}, ErrInvalidToken
		}
		return biocard.User{}, fmt.Errorf("user by id: %w", err)
	}
	if fingerprint(user.PasswordHash) != fp {
		return biocard.User{}, ErrInvalidToken
	}

	hash, err := biocard.HashPassword(newPassword)
	if err != nil {
		return biocard.User{}, err
	}
	user.PasswordHash = hash
	if err := s.Users.Update(ctx, user); err != nil {
		return biocard.User{}, fmt.Errorf("update user: %w", err)
	}

	if s.Activities != nil {
		err := s.Activities.AddLog(ctx, user.Id, biocard.Activity{Name: biocard.ActivityPasswordReset})
		if err != nil {
			logrus.WithError(err).WithField("userId", user.Id).Errorln("Could not add password reset log.")
		}
	}
	return user, nil
}

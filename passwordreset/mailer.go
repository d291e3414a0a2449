package passwordreset

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/whoameye/biocard"
)

type Mailer interface {
	SendPasswordReset(ctx context.Context, to biocard.Email, link string) error
}

// LogMailer writes reset links to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, to biocard.Email, link string) error {
	logrus.WithField("to", to).WithField("link", link).Infoln("Password reset requested.")
	return nil
}

type MailerFunc func(ctx context.Context, to biocard.Email, link string) error

func (f MailerFunc) SendPasswordReset(ctx context.Context, to biocard.Email, link string) error {
	return f(ctx, to, link)
}

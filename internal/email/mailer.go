package email

import (
	"context"
	"fmt"
	"net/url"
)

// Mailer builds the account-lifecycle emails on top of a Sender. Links embed
// both the email address and the raw token, matching the verify/reset routes.
type Mailer struct {
	sender   Sender
	linkBase string
}

func NewMailer(sender Sender, linkBase string) *Mailer {
	return &Mailer{sender: sender, linkBase: linkBase}
}

func (m *Mailer) link(path, email, token string) string {
	return fmt.Sprintf("%s/%s/%s/%s", m.linkBase, path, url.PathEscape(email), token)
}

func (m *Mailer) SendVerification(ctx context.Context, to, firstName, token string) error {
	link := m.link("verify-email", to, token)
	body := fmt.Sprintf(
		"Hello %s,\n\nPlease verify your account by clicking the link:\n\n%s\n\nThe link expires in 24 hours.\n",
		firstName, link,
	)
	return m.sender.Send(ctx, to, "Verify your account", body)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, firstName, token string) error {
	link := m.link("reset-password", to, token)
	body := fmt.Sprintf(
		"Hello %s,\n\nYou requested a password reset. Click the link to choose a new password:\n\n%s\n\nThe link expires in 24 hours. If you did not request this, you can ignore this email.\n",
		firstName, link,
	)
	return m.sender.Send(ctx, to, "Reset your password", body)
}

func (m *Mailer) SendResetConfirmation(ctx context.Context, to, firstName string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour password has been changed. If this wasn't you, please reset your password immediately.\n",
		firstName,
	)
	return m.sender.Send(ctx, to, "Your password was changed", body)
}

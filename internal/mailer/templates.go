package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var magicLinkHTML = template.Must(template.New("magic-link").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #111;">
  <h2>Sign in to AIMarketSpace</h2>
  <p>Click the button below to sign in. The link expires in {{.ValidFor}} and can be used once.</p>
  <p><a href="{{.Link}}" style="display:inline-block;padding:12px 20px;background:#7c3aed;color:#fff;text-decoration:none;border-radius:6px;">Sign in</a></p>
  <p style="font-size:12px;color:#666;">If you did not request this email you can ignore it.</p>
</body>
</html>`))

// MagicLinkEmail renders the sign-in email for link
func MagicLinkEmail(to, link string, validFor time.Duration) (Email, error) {
	var buf bytes.Buffer
	data := struct {
		Link     string
		ValidFor string
	}{Link: link, ValidFor: humanDuration(validFor)}

	if err := magicLinkHTML.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("failed to render magic link email: %w", err)
	}

	return Email{
		To:       []string{to},
		Subject:  "Your AIMarketSpace sign-in link",
		HTMLBody: buf.String(),
		Body:     fmt.Sprintf("Sign in to AIMarketSpace: %s\n\nThe link expires in %s and can be used once.", link, data.ValidFor),
	}, nil
}

// SupportEmail forwards a contact form message to the support inbox
func SupportEmail(supportAddress, fromName, fromEmail, subject, message string) Email {
	return Email{
		To:      []string{supportAddress},
		ReplyTo: fromEmail,
		Subject: "[Support] " + subject,
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s", fromName, fromEmail, message),
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}

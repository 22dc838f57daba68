package mail

import (
	"fmt"
	"html"
	"net/url"
	"strings"
)

// VerificationSubject is the subject of account verification emails.
const VerificationSubject = "Confirm your MapHub account"

// VerificationBody renders the verification email for userName with a link
// to siteURL carrying token.
func VerificationBody(siteURL, userName, token string) string {
	link := strings.TrimRight(siteURL, "/") + "/verify?token=" + url.QueryEscape(token)
	return fmt.Sprintf(`<p>Hello %s,</p>
<p>Confirm your account by opening the link below. It is valid for 24 hours.</p>
<p><a href="%s">%s</a></p>`, html.EscapeString(userName), link, link)
}

// ResetPasswordSubject is the subject of password reset emails.
const ResetPasswordSubject = "Reset your MapHub password"

// ResetPasswordBody renders the password reset email.
func ResetPasswordBody(siteURL, userName, token string) string {
	link := strings.TrimRight(siteURL, "/") + "/resetPassword?token=" + url.QueryEscape(token)
	return fmt.Sprintf(`<p>Hello %s,</p>
<p>Someone asked to reset the password of your account. Open the link below to choose a new one.</p>
<p><a href="%s">%s</a></p>
<p>If it was not you, ignore this email.</p>`, html.EscapeString(userName), link, link)
}

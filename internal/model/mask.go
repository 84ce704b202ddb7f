package model

import (
	"strconv"
	"strings"
)

// Masking helpers for credential-bearing values.
// Leaked credentials must never appear in clear text on any outward
// surface (logs, notification emails, the HTTP listing). The masks keep
// just enough of the value for the operator to recognize it.

// MaskEmail masks the local part of an email address, keeping at most the
// first two characters, and the first character of the domain.
// "jdoe@acme.com" becomes "jd***@a***".
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at < 0 {
		return MaskText(email)
	}
	user, domain := email[:at], email[at+1:]

	var userMask string
	if len(user) > 2 {
		userMask = user[:2] + "***"
	} else {
		userMask = "***"
	}

	domainMask := "***"
	if domain != "" {
		domainMask = domain[:1] + "***"
	}
	return userMask + "@" + domainMask
}

// MaskPhone masks a phone number, keeping only the last four digits.
// Non-digit characters are removed before masking.
func MaskPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}
	if len(d) <= 4 {
		return "***"
	}
	return "***" + d[len(d)-4:]
}

// MaskText masks a generic sensitive string, keeping the first and last
// characters. Strings of two characters or fewer are fully masked.
func MaskText(s string) string {
	if len(s) <= 2 {
		return "***"
	}
	return s[:1] + "***" + s[len(s)-1:]
}

// MaskPassword masks a password, keeping the first and last characters and
// appending the original length so the operator can match it against
// password-manager records without ever seeing the clear text.
func MaskPassword(password string) string {
	if password == "" {
		return ""
	}
	if len(password) <= 2 {
		return "*** (len=" + strconv.Itoa(len(password)) + ")"
	}
	return password[:1] + "***" + password[len(password)-1:] + " (len=" + strconv.Itoa(len(password)) + ")"
}

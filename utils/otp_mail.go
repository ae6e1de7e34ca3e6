package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/smtp"
)

// GenerateOTP generates a numeric OTP of n digits (cryptographically random)
func GenerateOTP(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	otp := make([]byte, n)
	for i := 0; i < n; i++ {
		otp[i] = '0' + (bytes[i] % 10)
	}
	return string(otp), nil
}

// ErrMailNotConfigured is returned by SendMail when no SMTP host is set.
var ErrMailNotConfigured = errors.New("smtp not configured")

// Mailer sends plain-text mail through an SMTP relay with PLAIN auth.
type Mailer struct {
	Host string
	Port string
	User string
	Pass string
}

// Configured reports whether every SMTP setting is present.
func (m Mailer) Configured() bool {
	return m.Host != "" && m.Port != "" && m.User != "" && m.Pass != ""
}

// SendMail sends a plain-text email from the configured account.
func (m Mailer) SendMail(to, subject, body string) error {
	if !m.Configured() {
		return ErrMailNotConfigured
	}

	addr := m.Host + ":" + m.Port
	from := m.User

	msg := "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body + "\r\n"

	auth := smtp.PlainAuth("", m.User, m.Pass, m.Host)
	return smtp.SendMail(addr, auth, from, []string{to}, []byte(msg))
}

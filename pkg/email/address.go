package email

import (
	"fmt"
	"net/mail"
)

// envelopeAddress strips the display name, SMTP MAIL/RCPT want the bare address.
func envelopeAddress(address string) (string, error) {
	addr, err := mail.ParseAddress(address)
	if err != nil {
		return "", fmt.Errorf("invalid email format: %w", err)
	}
	return addr.Address, nil
}

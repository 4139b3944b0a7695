package booking

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

type ContactKind string

const (
	ContactUnknown ContactKind = "unknown"
	ContactPhone   ContactKind = "phone"
	ContactEmail   ContactKind = "email"
)

// MinPhoneDigits is the shortest digit run treated as a textable number.
const MinPhoneDigits = 10

type Contact struct {
	Raw    string      `json:"raw"`
	Kind   ContactKind `json:"kind"`
	Digits string      `json:"digits,omitempty"`
}

var validate = validator.New()

// ParseContact classifies free-text contact input as an email, a phone number
// or neither.
func ParseContact(raw string) Contact {
	raw = strings.TrimSpace(raw)
	c := Contact{Raw: raw, Kind: ContactUnknown}
	if raw == "" {
		return c
	}

	if strings.Contains(raw, "@") {
		if validate.Var(raw, "email") == nil {
			c.Kind = ContactEmail
		}
		return c
	}

	digits := NormalizePhoneNumber(raw)
	if len(digits) >= MinPhoneDigits {
		c.Kind = ContactPhone
		c.Digits = digits
	}
	return c
}

// NormalizePhoneNumber strips everything but ASCII digits and drops the US country
// code from 11-digit numbers.
func NormalizePhoneNumber(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if strings.HasPrefix(cleaned, "1") && len(cleaned) == 11 {
		return cleaned[1:]
	}
	return cleaned
}

// FormatPhoneNumber renders 10-digit US numbers as (XXX) XXX-XXXX.
func FormatPhoneNumber(phone string) string {
	digits := NormalizePhoneNumber(phone)
	if len(digits) != 10 {
		return phone
	}
	return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
}

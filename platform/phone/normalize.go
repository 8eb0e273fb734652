// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "AR"

// Normalize reduces a channel identifier to the digits used as the local
// customer key: non-digits dropped, then the Argentine country prefix
// (54, or 549 for mobiles) stripped. The CRM stores numbers without it.
func Normalize(input string) string {
	digits := digitsOnly(input)
	switch {
	case strings.HasPrefix(digits, "549"):
		return digits[3:]
	case strings.HasPrefix(digits, "54"):
		return digits[2:]
	default:
		return digits
	}
}

// E164 formats a phone number to E.164. If parsing fails, it returns the
// trimmed input so the caller can still attempt delivery.
func E164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Wire returns the number formatted for the WhatsApp Cloud API: E.164
// without the leading plus.
func Wire(input string) string {
	return strings.TrimPrefix(E164(input), "+")
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package discovery

import (
	"fmt"
	"strings"
)

func digitsOf(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePhoneNumber reports whether phone holds a North American number: 10 digits, or 11 with a leading 1.
func ValidatePhoneNumber(phone string) bool {
	d := digitsOf(phone)
	return len(d) == 10 || (len(d) == 11 && d[0] == '1')
}

// FormatPhoneNumber renders a valid number as "+1 (NXX) NXX-XXXX" and returns anything else unchanged.
func FormatPhoneNumber(phone string) string {
	d := digitsOf(phone)
	switch {
	case len(d) == 10:
	case len(d) == 11 && d[0] == '1':
		d = d[1:]
	default:
		return phone
	}
	return fmt.Sprintf("+1 (%s) %s-%s", d[:3], d[3:6], d[6:])
}

// E164 returns the dialable form of a valid number, for example "+15551112222".
func E164(phone string) (string, bool) {
	d := digitsOf(phone)
	switch {
	case len(d) == 10:
		return "+1" + d, true
	case len(d) == 11 && d[0] == '1':
		return "+" + d, true
	default:
		return "", false
	}
}

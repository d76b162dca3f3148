package valueobject

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPhoneNumber is returned when a number cannot be normalized to a
// Kenyan mobile MSISDN.
var ErrInvalidPhoneNumber = errors.New("invalid phone number")

var msisdnRe = regexp.MustCompile(`^254[71]\d{8}$`)

// PhoneNumber is a mobile number in 2547XXXXXXXX / 2541XXXXXXXX form.
type PhoneNumber struct {
	value string
}

// NewPhoneNumber normalizes local and international spellings:
// 0712345678, 712345678, +254 712 345 678 and 254712345678 all map to 254712345678.
func NewPhoneNumber(raw string) (PhoneNumber, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case strings.HasPrefix(digits, "254"):
	case strings.HasPrefix(digits, "0"):
		digits = "254" + digits[1:]
	case strings.HasPrefix(digits, "7"), strings.HasPrefix(digits, "1"):
		digits = "254" + digits
	}

	if !msisdnRe.MatchString(digits) {
		return PhoneNumber{}, fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, raw)
	}
	return PhoneNumber{value: digits}, nil
}

func (p PhoneNumber) String() string { return p.value }
func (p PhoneNumber) IsZero() bool   { return p.value == "" }

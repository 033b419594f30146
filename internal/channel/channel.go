package channel

import (
	"context"
	"strings"
	"time"

	"gitlab.com/timkado/api/wa-automations/internal/model"
)

// Message is one outbound text for a single destination
type Message struct {
	Credentials   model.ChannelCredentials
	Destination   string // normalized, digits only
	PresenceDelay time.Duration
	Body          string
}

// Result is what the provider answered. Body is opaque.
type Result struct {
	StatusCode int
	Body       []byte
}

// Sender delivers messages through a messaging provider.
// A non-nil error means the message was not accepted; Result may still carry
// the provider body for diagnostics.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) (*Result, error)
}

// NormalizePhone strips everything but digits and prefixes countryCode when
// the remainder is a national number (11 digits or fewer).
func NormalizePhone(raw, countryCode string) string {
	var b strings.Builder
	b.Grow(len(raw) + len(countryCode))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if len(digits) <= 11 {
		return countryCode + digits
	}
	return digits
}

// DigitsOnly strips every non-digit from raw
func DigitsOnly(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

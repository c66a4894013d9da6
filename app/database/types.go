package database

import (
	"time"
)

// Subscriber is a mailing-list record keyed by normalized email.
// subscribed=true implies is_verified=true: subscription is only
// activated by completing verification. Unsubscribing clears
// Subscribed but keeps the row, so the verification status survives.
type Subscriber struct {
	Email            string
	IsVerified       bool
	Subscribed       bool
	UnsubscribeToken string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Eligible reports whether the subscriber should receive job alerts.
func (s Subscriber) Eligible() bool {
	return s.IsVerified && s.Subscribed
}

// Watermark marks the boundary between already-processed and
// not-yet-processed videos for one pipeline.
type Watermark struct {
	ID              string
	LastProcessedAt time.Time
	UpdatedAt       time.Time
}

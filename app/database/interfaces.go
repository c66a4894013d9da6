package database

import (
	"time"
)

type SubscriberRepository interface {
	GetSubscriber(email string) (*Subscriber, error)
	ExistsByEmail(email string) (bool, error)
	ListSubscribers() ([]Subscriber, error)
	GetSubscriberCount() (int, error)
	GetEligibleCount() (int, error)

	InsertSubscriber(sub Subscriber) error
	MarkVerified(email string) (bool, error)
	SetSubscribed(email string, subscribed bool) (bool, error)
}

type WatermarkRepository interface {
	GetWatermark(id string) (*Watermark, error)
	AdvanceWatermark(id string, lastProcessedAt time.Time) error
}

package video

import (
	"time"
)

// Video is one discovered channel upload. Transient: nothing in this
// package is persisted.
type Video struct {
	ID          string
	PublishedAt time.Time
	Title       string
	Description string
}

type Metadata struct {
	Title       string
	Description string
}

package pipeline

import (
	"context"
	"time"

	"jobcast/app/extractor"
	"jobcast/app/video"
)

// WatermarkID keys the job-alert pipeline's progress record.
const WatermarkID = "job-alert"

type VideoSource interface {
	ListRecent(ctx context.Context, channelID string, limit int, since *time.Time) ([]video.Video, error)
	GetMetadata(ctx context.Context, videoID string) (*video.Metadata, error)
	GetTranscript(ctx context.Context, videoID string) (string, error)
}

type JobExtractor interface {
	Extract(ctx context.Context, title string, description string, transcript string) (*extractor.Result, error)
}

type AlertSender interface {
	SendJobAlert(ctx context.Context, email string, openings []extractor.Opening, unsubscribeLink string) error
}

// Stats summarizes one pipeline cycle.
type Stats struct {
	VideosProcessed int `json:"videos_processed"`
	VideosWithJobs  int `json:"videos_with_jobs"`
	JobsExtracted   int `json:"jobs_extracted"`
	EmailsSent      int `json:"emails_sent"`
	EmailsFailed    int `json:"emails_failed"`
}

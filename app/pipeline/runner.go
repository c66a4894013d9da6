package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobcast/app/database"
	"jobcast/app/extractor"
)

// ErrCycleInFlight is returned when a cycle is requested while another
// one is still running. Cycles never overlap.
var ErrCycleInFlight = errors.New("pipeline cycle already in flight")

// Runner executes the discover-extract-notify cycle. A cycle walks the
// channel feed past the stored watermark, extracts openings per video,
// fans the aggregate out to eligible subscribers, and advances the
// watermark over every discovered video regardless of per-video
// failures, so a permanently broken video cannot wedge the pipeline.
type Runner struct {
	source      VideoSource
	extractor   JobExtractor
	sender      AlertSender
	subscribers database.SubscriberRepository
	watermarks  database.WatermarkRepository
	channelID   string
	maxVideos   int
	baseURL     string

	mu sync.Mutex
}

func NewRunner(source VideoSource, jobExtractor JobExtractor, sender AlertSender,
	subscribers database.SubscriberRepository, watermarks database.WatermarkRepository,
	channelID string, maxVideos int, baseURL string) *Runner {
	return &Runner{
		source:      source,
		extractor:   jobExtractor,
		sender:      sender,
		subscribers: subscribers,
		watermarks:  watermarks,
		channelID:   channelID,
		maxVideos:   maxVideos,
		baseURL:     baseURL,
	}
}

func (r *Runner) RunCycle(ctx context.Context) (*Stats, error) {
	if !r.mu.TryLock() {
		return nil, ErrCycleInFlight
	}
	defer r.mu.Unlock()

	runID := uuid.NewString()
	logger := slog.With("run_id", runID)

	var since *time.Time
	watermark, err := r.watermarks.GetWatermark(WatermarkID)
	if err != nil {
		return nil, fmt.Errorf("failed to read watermark: %w", err)
	}
	if watermark != nil {
		since = &watermark.LastProcessedAt
	}

	videos, err := r.source.ListRecent(ctx, r.channelID, r.maxVideos, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel videos: %w", err)
	}

	if len(videos) == 0 {
		logger.Info("No new videos since watermark")
		return &Stats{}, nil
	}

	logger.Info("Starting pipeline cycle", "videos", len(videos))

	stats := &Stats{}
	var openings []extractor.Opening
	var latest time.Time

	for _, v := range videos {
		if v.PublishedAt.After(latest) {
			latest = v.PublishedAt
		}
		stats.VideosProcessed++

		result, err := r.processVideo(ctx, v.ID)
		if err != nil {
			logger.Warn("Skipping video", "video_id", v.ID, "error", err.Error())
			continue
		}

		if result.IsJobVideo && len(result.Openings) > 0 {
			stats.VideosWithJobs++
			stats.JobsExtracted += len(result.Openings)
			openings = append(openings, result.Openings...)
		}
	}

	if len(openings) > 0 {
		sent, failed, err := r.fanOut(ctx, logger, openings)
		if err != nil {
			return stats, err
		}
		stats.EmailsSent = sent
		stats.EmailsFailed = failed
	} else {
		logger.Info("No job openings found in this cycle")
	}

	// The watermark covers every discovered video, including the ones
	// that failed extraction. Failed videos are not retried.
	if err := r.watermarks.AdvanceWatermark(WatermarkID, latest); err != nil {
		return stats, fmt.Errorf("failed to advance watermark: %w", err)
	}

	logger.Info("Pipeline cycle finished",
		"videos_processed", stats.VideosProcessed,
		"videos_with_jobs", stats.VideosWithJobs,
		"jobs_extracted", stats.JobsExtracted,
		"emails_sent", stats.EmailsSent,
		"emails_failed", stats.EmailsFailed)

	return stats, nil
}

func (r *Runner) processVideo(ctx context.Context, videoID string) (*extractor.Result, error) {
	metadata, err := r.source.GetMetadata(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	transcript, err := r.source.GetTranscript(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}

	result, err := r.extractor.Extract(ctx, metadata.Title, metadata.Description, transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to extract openings: %w", err)
	}

	return result, nil
}

func (r *Runner) fanOut(ctx context.Context, logger *slog.Logger, openings []extractor.Opening) (sent int, failed int, err error) {
	subscribers, err := r.subscribers.ListSubscribers()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list subscribers: %w", err)
	}

	for _, sub := range subscribers {
		if !sub.Eligible() {
			continue
		}
		if sub.Email == "" || sub.UnsubscribeToken == "" {
			logger.Warn("Skipping malformed subscriber record", "email", sub.Email)
			continue
		}

		link := r.baseURL + "/unsubscribe/" + sub.UnsubscribeToken
		if err := r.sender.SendJobAlert(ctx, sub.Email, openings, link); err != nil {
			logger.Warn("Failed to deliver job alert", "email", sub.Email, "error", err.Error())
			failed++
			continue
		}
		sent++
	}

	logger.Info("Job alert fan-out finished", "sent", sent, "failed", failed)

	return sent, failed, nil
}

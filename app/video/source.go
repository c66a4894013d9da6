package video

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	defaultFeedBaseURL       = "https://www.youtube.com/feeds/videos.xml"
	defaultTranscriptBaseURL = "https://video.google.com/timedtext"
	transcriptLanguage       = "en"
)

// Source lists a channel's recent uploads via the channel's Atom feed
// and fetches caption transcripts from the timedtext endpoint. The
// feed carries title, description, and publish time for every entry,
// so no API quota is spent on discovery.
type Source struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	userAgent  string

	feedBaseURL       string
	transcriptBaseURL string

	// metadata captured from the most recent feed fetch, keyed by video ID
	mu      sync.RWMutex
	entries map[string]Metadata
}

func NewSource(httpClient *http.Client, userAgent string) *Source {
	return &Source{
		httpClient:        httpClient,
		parser:            gofeed.NewParser(),
		userAgent:         userAgent,
		feedBaseURL:       defaultFeedBaseURL,
		transcriptBaseURL: defaultTranscriptBaseURL,
		entries:           make(map[string]Metadata),
	}
}

// ListRecent returns up to limit videos published strictly after since,
// newest first. A nil since means unbounded look-back.
func (s *Source) ListRecent(ctx context.Context, channelID string, limit int, since *time.Time) ([]Video, error) {
	feedURL := fmt.Sprintf("%s?channel_id=%s", s.feedBaseURL, channelID)

	data, err := s.fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel feed: %w", err)
	}

	feed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse channel feed: %w", err)
	}

	videos := make([]Video, 0, len(feed.Items))
	for _, item := range feed.Items {
		v, ok := s.normalizeItem(item)
		if !ok {
			continue
		}

		s.mu.Lock()
		s.entries[v.ID] = Metadata{Title: v.Title, Description: v.Description}
		s.mu.Unlock()

		if since != nil && !v.PublishedAt.After(*since) {
			continue
		}
		if len(videos) < limit {
			videos = append(videos, v)
		}
	}

	slog.Debug("Channel feed fetched", "channel", channelID, "entries", len(feed.Items), "new", len(videos))

	return videos, nil
}

// GetMetadata serves title and description captured from the last feed
// fetch. Entries age out only when the process restarts; discovery in
// the same cycle always precedes metadata lookups.
func (s *Source) GetMetadata(_ context.Context, videoID string) (*Metadata, error) {
	s.mu.RLock()
	meta, ok := s.entries[videoID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no metadata for video %s", videoID)
	}

	return &meta, nil
}

// GetTranscript fetches the video's caption track and flattens it to
// plain text. Videos without captions return an error and are skipped
// by the caller.
func (s *Source) GetTranscript(ctx context.Context, videoID string) (string, error) {
	transcriptURL := fmt.Sprintf("%s?lang=%s&v=%s", s.transcriptBaseURL, transcriptLanguage, videoID)

	data, err := s.fetch(ctx, transcriptURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch transcript: %w", err)
	}

	text, err := parseTranscript(data)
	if err != nil {
		return "", fmt.Errorf("failed to parse transcript for video %s: %w", videoID, err)
	}

	return text, nil
}

func (s *Source) normalizeItem(item *gofeed.Item) (Video, bool) {
	// Channel feed GUIDs have the form "yt:video:<id>".
	var id string
	if strings.HasPrefix(item.GUID, "yt:video:") {
		id = strings.TrimPrefix(item.GUID, "yt:video:")
	} else {
		id = videoIDFromLink(item.Link)
	}
	if id == "" || item.PublishedParsed == nil {
		return Video{}, false
	}

	return Video{
		ID:          id,
		PublishedAt: item.PublishedParsed.UTC(),
		Title:       item.Title,
		Description: extractDescription(item),
	}, true
}

// extractDescription reads the media:group description extension the
// channel feed uses, falling back to the entry description.
func extractDescription(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, group := range media["group"] {
			for _, desc := range group.Children["description"] {
				if desc.Value != "" {
					return desc.Value
				}
			}
		}
	}
	return item.Description
}

func videoIDFromLink(link string) string {
	const marker = "v="
	idx := strings.Index(link, marker)
	if idx < 0 {
		return ""
	}
	id := link[idx+len(marker):]
	if amp := strings.Index(id, "&"); amp >= 0 {
		id = id[:amp]
	}
	return id
}

func (s *Source) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

package video

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const channelFeedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <title>Test Channel</title>
 <entry>
  <id>yt:video:newer01</id>
  <yt:videoId>newer01</yt:videoId>
  <title>Hiring: Backend Engineers</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=newer01"/>
  <published>2025-06-10T12:00:00+00:00</published>
  <media:group>
   <media:title>Hiring: Backend Engineers</media:title>
   <media:description>Three companies are hiring this week.</media:description>
  </media:group>
 </entry>
 <entry>
  <id>yt:video:older01</id>
  <yt:videoId>older01</yt:videoId>
  <title>Interview Tips</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=older01"/>
  <published>2025-06-01T09:30:00+00:00</published>
  <media:group>
   <media:title>Interview Tips</media:title>
   <media:description>General advice, no openings.</media:description>
  </media:group>
 </entry>
</feed>`

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	source := NewSource(server.Client(), "Jobcast-Test/1.0")
	source.feedBaseURL = server.URL
	source.transcriptBaseURL = server.URL

	return source
}

func TestSource_ListRecent(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("channel_id"); got != "UCtest" {
			t.Errorf("Expected channel_id 'UCtest', got '%s'", got)
		}
		w.Write([]byte(channelFeedFixture))
	})

	videos, err := source.ListRecent(context.Background(), "UCtest", 10, nil)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}

	if len(videos) != 2 {
		t.Fatalf("Expected 2 videos, got %d", len(videos))
	}

	if videos[0].ID != "newer01" {
		t.Errorf("Expected first video 'newer01', got '%s'", videos[0].ID)
	}
	if videos[0].Title != "Hiring: Backend Engineers" {
		t.Errorf("Unexpected title: %s", videos[0].Title)
	}
	if videos[0].Description != "Three companies are hiring this week." {
		t.Errorf("Expected media:group description, got '%s'", videos[0].Description)
	}

	want := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	if !videos[0].PublishedAt.Equal(want) {
		t.Errorf("Expected published %v, got %v", want, videos[0].PublishedAt)
	}
}

func TestSource_ListRecent_SinceFilterIsStrict(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(channelFeedFixture))
	})

	// Equal to the older entry's publish time: only strictly newer passes.
	since := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	videos, err := source.ListRecent(context.Background(), "UCtest", 10, &since)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}

	if len(videos) != 1 {
		t.Fatalf("Expected 1 video after watermark, got %d", len(videos))
	}
	if videos[0].ID != "newer01" {
		t.Errorf("Expected 'newer01', got '%s'", videos[0].ID)
	}
}

func TestSource_ListRecent_LimitCap(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(channelFeedFixture))
	})

	videos, err := source.ListRecent(context.Background(), "UCtest", 1, nil)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(videos) != 1 {
		t.Errorf("Expected limit to cap result at 1, got %d", len(videos))
	}
}

func TestSource_ListRecent_HTTPError(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := source.ListRecent(context.Background(), "UCtest", 10, nil); err == nil {
		t.Error("Expected error for non-200 feed response")
	}
}

func TestSource_GetMetadata(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(channelFeedFixture))
	})

	if _, err := source.ListRecent(context.Background(), "UCtest", 10, nil); err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}

	meta, err := source.GetMetadata(context.Background(), "older01")
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if meta.Title != "Interview Tips" {
		t.Errorf("Expected title 'Interview Tips', got '%s'", meta.Title)
	}
	if meta.Description != "General advice, no openings." {
		t.Errorf("Unexpected description: %s", meta.Description)
	}

	if _, err := source.GetMetadata(context.Background(), "unknown99"); err == nil {
		t.Error("Expected error for video never seen in the feed")
	}
}

func TestSource_GetTranscript(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("v"); got != "newer01" {
			t.Errorf("Expected video id 'newer01', got '%s'", got)
		}
		w.Write([]byte(`<transcript><text start="0" dur="2.5">we are hiring</text><text start="2.5" dur="3">backend engineers &amp; designers</text></transcript>`))
	})

	text, err := source.GetTranscript(context.Background(), "newer01")
	if err != nil {
		t.Fatalf("GetTranscript failed: %v", err)
	}

	want := "we are hiring backend engineers & designers"
	if text != want {
		t.Errorf("Expected transcript %q, got %q", want, text)
	}
}

func TestSource_GetTranscript_NoCaptions(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		// timedtext answers 200 with an empty body when no track exists
		w.WriteHeader(http.StatusOK)
	})

	if _, err := source.GetTranscript(context.Background(), "newer01"); err == nil {
		t.Error("Expected error for missing caption track")
	}
}

func TestParseTranscript_EmptyTrack(t *testing.T) {
	if _, err := parseTranscript([]byte(`<transcript></transcript>`)); err == nil {
		t.Error("Expected error for caption document with no text nodes")
	}
}

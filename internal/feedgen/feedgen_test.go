package feedgen

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"podfilter/internal/model"
)

func TestGenerateRSSMinimalItem(t *testing.T) {
	meta := model.FeedMeta{Title: "Show", Description: "About things", Link: "https://example.com"}
	episodes := []model.Episode{
		{Title: "Only Title", GUID: "guid-1"},
	}

	got, err := GenerateRSS(meta, episodes, "http://localhost:8000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<rss version="2.0"><channel><title>Show</title><description>About things</description><link>https://example.com</link>` +
		`<item><title>Only Title</title><guid>guid-1</guid></item></channel></rss>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rss mismatch (-want +got):\n%s", diff)
	}

	// The omission contract: no empty elements for absent fields.
	for _, tag := range []string{"<description></description>", "<link></link>", "<enclosure", "<pubDate"} {
		if idx := strings.Index(got, "<item>"); idx >= 0 && strings.Contains(got[idx:], tag) {
			t.Errorf("item unexpectedly contains %s", tag)
		}
	}
}

func TestGenerateRSSFullItem(t *testing.T) {
	published := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)
	meta := model.FeedMeta{Title: "Show", Description: "", Link: "https://example.com"}
	episodes := []model.Episode{
		{
			Title:         "Spring Planting Guide",
			Description:   "Everything to sow in April",
			GUID:          "ep-101",
			Link:          "https://example.com/ep/101",
			EnclosureURL:  "https://cdn.example.com/ep101.mp3",
			EnclosureType: "audio/mpeg",
			PublishedAt:   &published,
		},
	}

	got, err := GenerateRSS(meta, episodes, "http://localhost:8000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, fragment := range []string{
		"<title>Spring Planting Guide</title>",
		"<description>Everything to sow in April</description>",
		"<link>https://example.com/ep/101</link>",
		"<guid>ep-101</guid>",
		`<enclosure url="https://cdn.example.com/ep101.mp3" type="audio/mpeg"></enclosure>`,
		"<pubDate>Tue, 01 Apr 2025 09:30:00 +0000</pubDate>",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("output missing %s\ngot: %s", fragment, got)
		}
	}
}

func TestGenerateRSSDefaults(t *testing.T) {
	tests := []struct {
		name    string
		meta    model.FeedMeta
		episode model.Episode
		want    string
	}{
		{
			name:    "channel link falls back to base url",
			meta:    model.FeedMeta{Title: "Show"},
			episode: model.Episode{Title: "Ep", GUID: "g"},
			want:    "<link>http://localhost:8000</link>",
		},
		{
			name:    "empty title becomes untitled",
			meta:    model.FeedMeta{Title: "Show", Link: "https://example.com"},
			episode: model.Episode{GUID: "g"},
			want:    "<title>Untitled Episode</title>",
		},
		{
			name:    "enclosure type defaults to audio/mpeg",
			meta:    model.FeedMeta{Title: "Show", Link: "https://example.com"},
			episode: model.Episode{Title: "Ep", GUID: "g", EnclosureURL: "https://cdn.example.com/a.mp3"},
			want:    `<enclosure url="https://cdn.example.com/a.mp3" type="audio/mpeg"></enclosure>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateRSS(tt.meta, []model.Episode{tt.episode}, "http://localhost:8000")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("output missing %s\ngot: %s", tt.want, got)
			}
		})
	}
}

func TestGenerateRSSPubDateAlwaysUTC(t *testing.T) {
	loc := time.FixedZone("EEST", 3*60*60)
	published := time.Date(2025, 4, 15, 14, 0, 0, 0, loc)
	meta := model.FeedMeta{Title: "Show", Link: "https://example.com"}
	episodes := []model.Episode{{Title: "Ep", GUID: "g", PublishedAt: &published}}

	got, err := GenerateRSS(meta, episodes, "http://localhost:8000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "<pubDate>Tue, 15 Apr 2025 11:00:00 +0000</pubDate>"
	if !strings.Contains(got, want) {
		t.Errorf("output missing %s\ngot: %s", want, got)
	}
}

func TestGenerateRSSEscaping(t *testing.T) {
	meta := model.FeedMeta{Title: "Tools & Tips", Link: "https://example.com"}
	episodes := []model.Episode{
		{Title: `Composting <Q&A>`, GUID: "g"},
	}

	got, err := GenerateRSS(meta, episodes, "http://localhost:8000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, fragment := range []string{
		"<title>Tools &amp; Tips</title>",
		"<title>Composting &lt;Q&amp;A&gt;</title>",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("output missing %s\ngot: %s", fragment, got)
		}
	}
}

func TestGenerateRSSNoEpisodes(t *testing.T) {
	got, err := GenerateRSS(model.FeedMeta{Title: "Show", Link: "https://example.com"}, nil, "http://localhost:8000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "<item>") {
		t.Errorf("expected no items, got: %s", got)
	}
}

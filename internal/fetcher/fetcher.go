// Package fetcher downloads remote feeds and normalizes them into
// domain records.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"podfilter/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 5 * 1024 * 1024

	untitledEpisode = "Untitled Episode"
	unknownFeed     = "Unknown Feed"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchError reports a network, timeout, or HTTP status failure while
// downloading a feed. StatusCode is zero when the request never got a
// response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MalformedFeedError reports a document that downloaded fine but could
// not be parsed as RSS/Atom. It carries the underlying parser failure.
type MalformedFeedError struct {
	URL string
	Err error
}

func (e *MalformedFeedError) Error() string {
	return fmt.Sprintf("malformed feed %s: %v", e.URL, e.Err)
}

func (e *MalformedFeedError) Unwrap() error {
	return e.Err
}

// Fetcher downloads and parses RSS/Atom feeds.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: defaultTimeout,
	}
}

// Fetch downloads the document at url and normalizes it. It returns a
// *FetchError for transport or HTTP status failures and a
// *MalformedFeedError when the body is not a parseable feed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*model.ParsedFeed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", "PodFilter/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, &MalformedFeedError{URL: url, Err: err}
	}

	return normalize(feed), nil
}

func normalize(feed *gofeed.Feed) *model.ParsedFeed {
	parsed := &model.ParsedFeed{
		Title:       feed.Title,
		Description: feed.Description,
		Link:        feed.Link,
	}
	if parsed.Title == "" {
		parsed.Title = unknownFeed
	}

	for _, item := range feed.Items {
		parsed.Episodes = append(parsed.Episodes, normalizeItem(item))
	}
	return parsed
}

func normalizeItem(item *gofeed.Item) model.Episode {
	ep := model.Episode{
		Title:       item.Title,
		Description: item.Description,
		GUID:        item.GUID,
		Link:        item.Link,
	}
	if ep.Title == "" {
		ep.Title = untitledEpisode
	}
	if ep.GUID == "" {
		ep.GUID = item.Link
	}

	// First enclosure only; additional enclosures are dropped. Known
	// limitation carried over from the original extraction policy.
	if len(item.Enclosures) > 0 {
		ep.EnclosureURL = item.Enclosures[0].URL
		ep.EnclosureType = item.Enclosures[0].Type
	}

	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		ep.PublishedAt = &t
	}
	return ep
}

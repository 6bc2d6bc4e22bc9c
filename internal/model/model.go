// Package model defines the domain types used across the application.
package model

import "time"

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// Feed represents an RSS feed subscription owned by a user.
type Feed struct {
	ID          int64
	UserID      int64
	Title       string
	OriginalURL string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Episode represents one podcast entry within a feed. Optional text
// fields use the empty string to mean absent; PublishedAt is nil when
// the source feed carried no parseable date.
type Episode struct {
	ID            int64
	FeedID        int64
	Title         string
	Description   string
	GUID          string
	Link          string
	EnclosureURL  string
	EnclosureType string
	PublishedAt   *time.Time
	CreatedAt     time.Time
}

// RuleType defines what part of an episode a filter rule matches.
type RuleType string

// Supported rule types.
const (
	RuleTitleContains       RuleType = "title_contains"
	RuleTitleRegex          RuleType = "title_regex"
	RuleDescriptionContains RuleType = "description_contains"
)

// RuleAction defines what a matching rule does to an episode.
type RuleAction string

// Supported rule actions.
const (
	ActionExclude RuleAction = "exclude"
	ActionInclude RuleAction = "include"
)

// FilterRule represents a single filtering rule. FeedID is nil when the
// rule applies to all feeds of its owner. Rules are evaluated in list
// order; ordering is part of their meaning.
type FilterRule struct {
	ID        int64
	UserID    int64
	FeedID    *int64
	RuleType  RuleType
	Pattern   string
	Action    RuleAction
	IsActive  bool
	CreatedAt time.Time
}

// FeedMeta is the channel-level metadata used when generating RSS.
type FeedMeta struct {
	Title       string
	Description string
	Link        string
}

// Subscription is one entry in a user's feed list as exchanged via OPML.
type Subscription struct {
	Title       string
	URL         string
	Description string
}

// ParsedFeed is the normalized result of fetching and parsing a remote feed.
type ParsedFeed struct {
	Title       string
	Description string
	Link        string
	Episodes    []Episode
}

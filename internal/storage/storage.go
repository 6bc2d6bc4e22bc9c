// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"podfilter/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	CreateFeed(ctx context.Context, feed *model.Feed) error
	GetFeed(ctx context.Context, id, userID int64) (*model.Feed, error)
	ListFeeds(ctx context.Context, userID int64) ([]model.Feed, error)
	DeleteFeed(ctx context.Context, id, userID int64) error

	CreateEpisodes(ctx context.Context, episodes []model.Episode) error
	ListEpisodes(ctx context.Context, feedID int64) ([]model.Episode, error)

	CreateRule(ctx context.Context, rule *model.FilterRule) error
	GetRule(ctx context.Context, id, userID int64) (*model.FilterRule, error)
	ListRules(ctx context.Context, userID int64) ([]model.FilterRule, error)
	ListRulesForFeed(ctx context.Context, userID, feedID int64) ([]model.FilterRule, error)
	DeleteRule(ctx context.Context, id, userID int64) error

	Close() error
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"podfilter/internal/model"
	"podfilter/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user and populates its ID and CreatedAt.
func (s *SQLite) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, boolToInt(user.IsActive), now,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetUserByUsername returns a user by username, or ErrNotFound.
func (s *SQLite) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, is_active, created_at
		 FROM users WHERE username = ?`, username,
	)
	var u model.User
	var isActive int
	var created string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &isActive, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.IsActive = isActive == 1
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return &u, nil
}

// CreateFeed inserts a new feed and populates its ID and timestamps.
func (s *SQLite) CreateFeed(ctx context.Context, feed *model.Feed) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feeds (user_id, title, original_url, description, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		feed.UserID, feed.Title, feed.OriginalURL, feed.Description, boolToInt(feed.IsActive), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert feed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	feed.ID = id
	feed.CreatedAt, _ = time.Parse(timeLayout, now)
	feed.UpdatedAt = feed.CreatedAt
	return nil
}

// GetFeed returns a single feed owned by the given user, or ErrNotFound.
func (s *SQLite) GetFeed(ctx context.Context, id, userID int64) (*model.Feed, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, original_url, description, is_active, created_at, updated_at
		 FROM feeds WHERE id = ? AND user_id = ?`, id, userID,
	)
	f, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

// ListFeeds returns all active feeds belonging to the given user.
func (s *SQLite) ListFeeds(ctx context.Context, userID int64) ([]model.Feed, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, original_url, description, is_active, created_at, updated_at
		 FROM feeds WHERE user_id = ? AND is_active = 1 ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query feeds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var feeds []model.Feed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, *f)
	}
	return feeds, rows.Err()
}

// DeleteFeed removes a feed owned by the user along with its episodes
// and feed-scoped rules.
func (s *SQLite) DeleteFeed(ctx context.Context, id, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM feeds WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM episodes WHERE feed_id = ?`, id); err != nil {
		return fmt.Errorf("delete episodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM filter_rules WHERE feed_id = ?`, id); err != nil {
		return fmt.Errorf("delete filter_rules: %w", err)
	}
	return tx.Commit()
}

// CreateEpisodes inserts episodes in one transaction.
func (s *SQLite) CreateEpisodes(ctx context.Context, episodes []model.Episode) error {
	if len(episodes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeLayout)
	for i := range episodes {
		ep := &episodes[i]
		var published *string
		if ep.PublishedAt != nil {
			v := ep.PublishedAt.UTC().Format(timeLayout)
			published = &v
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO episodes (feed_id, title, description, guid, link, enclosure_url, enclosure_type, published_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ep.FeedID, ep.Title, ep.Description, ep.GUID, ep.Link, ep.EnclosureURL, ep.EnclosureType, published, now,
		)
		if err != nil {
			return fmt.Errorf("insert episode: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		ep.ID = id
		ep.CreatedAt, _ = time.Parse(timeLayout, now)
	}
	return tx.Commit()
}

// ListEpisodes returns all episodes of a feed in insertion order.
func (s *SQLite) ListEpisodes(ctx context.Context, feedID int64) ([]model.Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, feed_id, title, description, guid, link, enclosure_url, enclosure_type, published_at, created_at
		 FROM episodes WHERE feed_id = ? ORDER BY id`, feedID,
	)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var episodes []model.Episode
	for rows.Next() {
		var ep model.Episode
		var published sql.NullString
		var created string
		err := rows.Scan(&ep.ID, &ep.FeedID, &ep.Title, &ep.Description, &ep.GUID, &ep.Link,
			&ep.EnclosureURL, &ep.EnclosureType, &published, &created)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		if published.Valid {
			t, _ := time.Parse(timeLayout, published.String)
			ep.PublishedAt = &t
		}
		ep.CreatedAt, _ = time.Parse(timeLayout, created)
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// CreateRule inserts a new filter rule and populates its ID and CreatedAt.
func (s *SQLite) CreateRule(ctx context.Context, rule *model.FilterRule) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO filter_rules (user_id, feed_id, rule_type, pattern, action, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rule.UserID, rule.FeedID, string(rule.RuleType), rule.Pattern, string(rule.Action), boolToInt(rule.IsActive), now,
	)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rule.ID = id
	rule.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetRule returns a single rule owned by the given user, or ErrNotFound.
func (s *SQLite) GetRule(ctx context.Context, id, userID int64) (*model.FilterRule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, feed_id, rule_type, pattern, action, is_active, created_at
		 FROM filter_rules WHERE id = ? AND user_id = ?`, id, userID,
	)
	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRules returns all rules owned by the given user, ordered by id.
func (s *SQLite) ListRules(ctx context.Context, userID int64) ([]model.FilterRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, feed_id, rule_type, pattern, action, is_active, created_at
		 FROM filter_rules WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRules(rows)
}

// ListRulesForFeed returns the user's active rules that apply to the
// given feed: feed-scoped rules plus global ones, ordered by id. This
// ordering is what the filter engine evaluates in.
func (s *SQLite) ListRulesForFeed(ctx context.Context, userID, feedID int64) ([]model.FilterRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, feed_id, rule_type, pattern, action, is_active, created_at
		 FROM filter_rules
		 WHERE user_id = ? AND (feed_id = ? OR feed_id IS NULL) AND is_active = 1
		 ORDER BY id`, userID, feedID,
	)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRules(rows)
}

// DeleteRule removes a rule owned by the given user.
func (s *SQLite) DeleteRule(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM filter_rules WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFeed(row scannable) (*model.Feed, error) {
	var f model.Feed
	var isActive int
	var created, updated string
	err := row.Scan(&f.ID, &f.UserID, &f.Title, &f.OriginalURL, &f.Description, &isActive, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	f.IsActive = isActive == 1
	f.CreatedAt, _ = time.Parse(timeLayout, created)
	f.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &f, nil
}

func scanRule(row scannable) (model.FilterRule, error) {
	var r model.FilterRule
	var feedID sql.NullInt64
	var ruleType, action, created string
	var isActive int
	err := row.Scan(&r.ID, &r.UserID, &feedID, &ruleType, &r.Pattern, &action, &isActive, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan rule: %w", err)
	}
	if feedID.Valid {
		r.FeedID = &feedID.Int64
	}
	r.RuleType = model.RuleType(ruleType)
	r.Action = model.RuleAction(action)
	r.IsActive = isActive == 1
	r.CreatedAt, _ = time.Parse(timeLayout, created)
	return r, nil
}

func scanRules(rows *sql.Rows) ([]model.FilterRule, error) {
	var rules []model.FilterRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

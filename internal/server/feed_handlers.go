package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"podfilter/internal/model"
	"podfilter/internal/opml"
	"podfilter/internal/storage"
)

const maxOPMLUpload = 10 * 1024 * 1024

type addFeedRequest struct {
	URL string `json:"url"`
}

type feedResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	OriginalURL string `json:"original_url"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type importResponse struct {
	Imported int    `json:"imported"`
	Total    int    `json:"total"`
	Message  string `json:"message"`
}

func toFeedResponse(f model.Feed) feedResponse {
	return feedResponse{
		ID:          f.ID,
		Title:       f.Title,
		OriginalURL: f.OriginalURL,
		Description: f.Description,
		IsActive:    f.IsActive,
	}
}

func (s *Server) handleAddFeed(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req addFeedRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		s.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	feed, err := s.subscribe(r, user.ID, req.URL)
	if err != nil {
		s.log.Warn("add feed", "url", req.URL, "error", err)
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse feed: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, toFeedResponse(*feed))
}

// subscribe fetches a feed, stores it for the user, and stores its
// episodes.
func (s *Server) subscribe(r *http.Request, userID int64, url string) (*model.Feed, error) {
	parsed, err := s.fetcher.Fetch(r.Context(), url)
	if err != nil {
		return nil, err
	}

	feed := &model.Feed{
		UserID:      userID,
		Title:       parsed.Title,
		OriginalURL: url,
		Description: parsed.Description,
		IsActive:    true,
	}
	if err := s.store.CreateFeed(r.Context(), feed); err != nil {
		return nil, fmt.Errorf("store feed: %w", err)
	}

	episodes := make([]model.Episode, len(parsed.Episodes))
	copy(episodes, parsed.Episodes)
	for i := range episodes {
		episodes[i].FeedID = feed.ID
	}
	if err := s.store.CreateEpisodes(r.Context(), episodes); err != nil {
		return nil, fmt.Errorf("store episodes: %w", err)
	}
	return feed, nil
}

func (s *Server) handleListFeeds(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	feeds, err := s.store.ListFeeds(r.Context(), user.ID)
	if err != nil {
		s.log.Error("list feeds", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]feedResponse, 0, len(feeds))
	for _, f := range feeds {
		resp = append(resp, toFeedResponse(f))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteFeed(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	feedID, err := strconv.ParseInt(chi.URLParam(r, "feedID"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid feed id")
		return
	}

	if err := s.store.DeleteFeed(r.Context(), feedID, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "feed not found")
			return
		}
		s.log.Error("delete feed", "feed_id", feedID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleImportOPML imports every feed listed in an uploaded OPML file.
// A feed that fails to fetch or parse is skipped rather than aborting
// the batch; the response reports how many made it in.
func (s *Server) handleImportOPML(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := r.ParseMultipartForm(maxOPMLUpload); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("opml_file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "no OPML file provided")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxOPMLUpload))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read OPML file")
		return
	}

	subscriptions, err := opml.Parse(string(content))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse OPML: %v", err))
		return
	}

	imported := 0
	for _, sub := range subscriptions {
		if _, err := s.subscribe(r, user.ID, sub.URL); err != nil {
			s.log.Warn("skip feed during import", "url", sub.URL, "error", err)
			continue
		}
		imported++
	}

	s.respondJSON(w, http.StatusOK, importResponse{
		Imported: imported,
		Total:    len(subscriptions),
		Message:  fmt.Sprintf("Imported %d of %d feeds", imported, len(subscriptions)),
	})
}

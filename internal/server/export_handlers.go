package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"podfilter/internal/feedgen"
	"podfilter/internal/filter"
	"podfilter/internal/model"
	"podfilter/internal/opml"
	"podfilter/internal/storage"
)

// handleExportRSS re-publishes a feed with the user's filter rules
// applied: episodes -> filter engine -> RSS document.
func (s *Server) handleExportRSS(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	feedID, err := strconv.ParseInt(chi.URLParam(r, "feedID"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid feed id")
		return
	}

	feed, err := s.store.GetFeed(r.Context(), feedID, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "feed not found")
			return
		}
		s.log.Error("get feed", "feed_id", feedID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	episodes, err := s.store.ListEpisodes(r.Context(), feedID)
	if err != nil {
		s.log.Error("list episodes", "feed_id", feedID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rules, err := s.store.ListRulesForFeed(r.Context(), user.ID, feedID)
	if err != nil {
		s.log.Error("list rules", "feed_id", feedID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	kept, err := filter.Apply(episodes, rules)
	if err != nil {
		var patternErr *filter.RulePatternError
		if errors.As(err, &patternErr) {
			s.respondError(w, http.StatusUnprocessableEntity, patternErr.Error())
			return
		}
		s.log.Error("apply rules", "feed_id", feedID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	meta := model.FeedMeta{
		Title:       feed.Title,
		Description: feed.Description,
		Link:        feed.OriginalURL,
	}
	doc, err := feedgen.GenerateRSS(meta, kept, s.baseURL)
	if err != nil {
		s.log.Error("generate rss", "feed_id", feedID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", feed.Title+".xml"))
	_, _ = w.Write([]byte(doc))
}

// handleExportOPML exports the user's active feeds as OPML, with each
// outline pointing at the filtered RSS export rather than the original
// upstream URL.
func (s *Server) handleExportOPML(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	feeds, err := s.store.ListFeeds(r.Context(), user.ID)
	if err != nil {
		s.log.Error("list feeds", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	subscriptions := make([]model.Subscription, 0, len(feeds))
	for _, f := range feeds {
		subscriptions = append(subscriptions, model.Subscription{
			Title:       f.Title,
			URL:         fmt.Sprintf("%s/export/rss/%d", s.baseURL, f.ID),
			Description: f.Description,
		})
	}

	doc, err := opml.Generate(subscriptions, fmt.Sprintf("%s's PodFilter Feeds", user.Username))
	if err != nil {
		s.log.Error("generate opml", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", user.Username+"_feeds.opml"))
	_, _ = w.Write([]byte(doc))
}

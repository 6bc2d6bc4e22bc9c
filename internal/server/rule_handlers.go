package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"podfilter/internal/filter"
	"podfilter/internal/model"
	"podfilter/internal/storage"
)

type addRuleRequest struct {
	FeedID   *int64 `json:"feed_id"`
	RuleType string `json:"rule_type"`
	Pattern  string `json:"pattern"`
	Action   string `json:"action"`
}

type ruleResponse struct {
	ID       int64  `json:"id"`
	FeedID   *int64 `json:"feed_id"`
	RuleType string `json:"rule_type"`
	Pattern  string `json:"pattern"`
	Action   string `json:"action"`
	IsActive bool   `json:"is_active"`
}

func toRuleResponse(r model.FilterRule) ruleResponse {
	return ruleResponse{
		ID:       r.ID,
		FeedID:   r.FeedID,
		RuleType: string(r.RuleType),
		Pattern:  r.Pattern,
		Action:   string(r.Action),
		IsActive: r.IsActive,
	}
}

func validRuleType(rt model.RuleType) bool {
	switch rt {
	case model.RuleTitleContains, model.RuleTitleRegex, model.RuleDescriptionContains:
		return true
	}
	return false
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req addRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Pattern == "" {
		s.respondError(w, http.StatusBadRequest, "pattern is required")
		return
	}
	if !validRuleType(model.RuleType(req.RuleType)) {
		s.respondError(w, http.StatusBadRequest, "unknown rule type")
		return
	}
	if req.Action == "" {
		req.Action = string(model.ActionExclude)
	}
	if action := model.RuleAction(req.Action); action != model.ActionExclude && action != model.ActionInclude {
		s.respondError(w, http.StatusBadRequest, "action must be exclude or include")
		return
	}
	if model.RuleType(req.RuleType) == model.RuleTitleRegex {
		if err := filter.ValidateRegex(req.Pattern); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	// Feed-scoped rules must point at a feed the user owns.
	if req.FeedID != nil {
		if _, err := s.store.GetFeed(r.Context(), *req.FeedID, user.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.respondError(w, http.StatusNotFound, "feed not found")
				return
			}
			s.log.Error("check feed", "feed_id", *req.FeedID, "error", err)
			s.respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	rule := &model.FilterRule{
		UserID:   user.ID,
		FeedID:   req.FeedID,
		RuleType: model.RuleType(req.RuleType),
		Pattern:  req.Pattern,
		Action:   model.RuleAction(req.Action),
		IsActive: true,
	}
	if err := s.store.CreateRule(r.Context(), rule); err != nil {
		s.log.Error("create rule", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.respondJSON(w, http.StatusOK, toRuleResponse(*rule))
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	rules, err := s.store.ListRules(r.Context(), user.ID)
	if err != nil {
		s.log.Error("list rules", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, toRuleResponse(rule))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	ruleID, err := strconv.ParseInt(chi.URLParam(r, "ruleID"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	if err := s.store.DeleteRule(r.Context(), ruleID, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "filter rule not found")
			return
		}
		s.log.Error("delete rule", "rule_id", ruleID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

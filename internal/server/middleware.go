package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"podfilter/internal/model"
	"podfilter/internal/storage"
)

type ctxKey int

const userKey ctxKey = iota

// requireAuth validates the Bearer token and loads the account it was
// issued for into the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		username, err := s.tokens.Verify(token)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := s.store.GetUserByUsername(r.Context(), username)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.respondError(w, http.StatusUnauthorized, "user not found")
				return
			}
			s.log.Error("load user", "username", username, "error", err)
			s.respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !user.IsActive {
			s.respondError(w, http.StatusUnauthorized, "account disabled")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(userKey).(*model.User)
	return user
}

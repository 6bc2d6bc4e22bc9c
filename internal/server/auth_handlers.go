package server

import (
	"errors"
	"net/http"

	"podfilter/internal/auth"
	"podfilter/internal/model"
	"podfilter/internal/storage"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		s.respondError(w, http.StatusBadRequest, "username, email, and password are required")
		return
	}

	if _, err := s.store.GetUserByUsername(r.Context(), req.Username); err == nil {
		s.respondError(w, http.StatusConflict, "username already taken")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.log.Error("check username", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error("hash password", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.log.Error("create user", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.log.Info("user registered", "username", user.Username)
	s.issueToken(w, user.Username)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.log.Error("load user", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !user.IsActive || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.issueToken(w, user.Username)
}

// handleLogout exists for API symmetry; tokens are stateless and simply
// expire, the client drops its copy.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) issueToken(w http.ResponseWriter, username string) {
	token, err := s.tokens.Issue(username)
	if err != nil {
		s.log.Error("issue token", "username", username, "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.respondJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

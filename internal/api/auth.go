package api

import (
	"net/http"

	"github.com/Kerhoff/familyalbum/internal/service"
)

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	profile, err := s.svc.Me(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}

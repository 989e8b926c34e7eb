package api

import (
	"net/http"

	"github.com/Kerhoff/familyalbum/internal/models"
)

// ---------------------------------------------------------------------------
// Album photos
// ---------------------------------------------------------------------------

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}
	if !s.parseForm(w, r) {
		return
	}
	photo, closePhoto, ok := s.formPhoto(w, r)
	if !ok {
		return
	}
	defer closePhoto()

	created, err := s.svc.UploadPhoto(r.Context(), userID, r.PostForm.Get("category"), photo)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	photos, err := s.svc.ListPhotos(r.Context(), userID, r.URL.Query().Get("category"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	s.respondJSON(w, http.StatusOK, photos)
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeletePhoto(r.Context(), userID, r.PathValue("id")); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

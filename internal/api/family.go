package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Kerhoff/familyalbum/internal/familytree"
	"github.com/Kerhoff/familyalbum/internal/service"
)

// ---------------------------------------------------------------------------
// Family members
// ---------------------------------------------------------------------------

// memberFields reads a member write from the parsed form. Address parts
// arrive as address_<part>.
func memberFields(r *http.Request) (service.MemberFields, error) {
	fields := service.MemberFields{
		Name:       formString(r, "name"),
		Relation:   formString(r, "relation"),
		Gender:     formString(r, "gender"),
		Occupation: formString(r, "occupation"),
		ParentID:   formString(r, "parentId"),
		Address: service.AddressFields{
			HouseNo: formString(r, "address_houseNo"),
			Place:   formString(r, "address_place"),
			City:    formString(r, "address_city"),
			State:   formString(r, "address_state"),
			Country: formString(r, "address_country"),
		},
	}

	// An empty dob clears the stored date.
	if raw := formString(r, "dob"); raw != nil {
		dob := time.Time{}
		if strings.TrimSpace(*raw) != "" {
			parsed, err := parseDate(*raw)
			if err != nil {
				return fields, err
			}
			dob = parsed
		}
		fields.DOB = &dob
	}
	return fields, nil
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}
	if !s.parseForm(w, r) {
		return
	}
	fields, err := memberFields(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "dob must be a date")
		return
	}
	photo, closePhoto, ok := s.formPhoto(w, r)
	if !ok {
		return
	}
	defer closePhoto()

	member, err := s.svc.CreateMember(r.Context(), userID, fields, photo)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, member)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	member, err := s.svc.GetMember(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, member)
}

func (s *Server) handleGetFamilyTree(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	roots, err := s.svc.FamilyTree(r.Context(), userID, r.PathValue("userId"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if roots == nil {
		roots = []*familytree.TreeNode{}
	}
	s.respondJSON(w, http.StatusOK, roots)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}
	if !s.parseForm(w, r) {
		return
	}
	fields, err := memberFields(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "dob must be a date")
		return
	}
	photo, closePhoto, ok := s.formPhoto(w, r)
	if !ok {
		return
	}
	defer closePhoto()

	member, err := s.svc.UpdateMember(r.Context(), userID, r.PathValue("id"), fields, photo)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, member)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	count, err := s.svc.DeleteMember(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Deleted",
		"count":   count,
	})
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/familyalbum/internal/middleware"
	"github.com/Kerhoff/familyalbum/internal/service"
)

const (
	// maxUploadSize caps a single uploaded image.
	maxUploadSize = 10 << 20
	// maxFormOverhead leaves room for the text fields of a multipart form.
	maxFormOverhead = 1 << 20
	// maxJSONBody caps JSON request bodies.
	maxJSONBody = 10 << 20
)

// Server provides the HTTP API of the family album.
type Server struct {
	svc    *service.Service
	authn  *middleware.Authenticator
	logger *logrus.Logger
	mux    *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, authn *middleware.Authenticator, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, authn: authn, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// API – Auth
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.Handle("GET /api/auth/me", s.authed(s.handleMe))

	// API – Album photos
	s.mux.Handle("POST /api/photos/upload", s.authed(s.handleUploadPhoto))
	s.mux.Handle("GET /api/photos", s.authed(s.handleListPhotos))
	s.mux.Handle("DELETE /api/photos/{id}", s.authed(s.handleDeletePhoto))

	// API – Family members (paid)
	s.mux.Handle("POST /api/family", s.paid(s.handleCreateMember))
	s.mux.Handle("GET /api/family/member/{id}", s.paid(s.handleGetMember))
	s.mux.Handle("GET /api/family/{userId}", s.paid(s.handleGetFamilyTree))
	s.mux.Handle("PUT /api/family/{id}", s.paid(s.handleUpdateMember))
	s.mux.Handle("DELETE /api/family/{id}", s.paid(s.handleDeleteMember))

	// API – Family tree canvas
	s.mux.Handle("GET /api/family-tree", s.authed(s.handleGetCanvas))
	s.mux.Handle("POST /api/family-tree/node", s.authed(s.handleUpsertNode))
	s.mux.Handle("DELETE /api/family-tree/node/{nodeId}", s.authed(s.handleDeleteNode))
	s.mux.Handle("POST /api/family-tree/connection", s.authed(s.handleCreateConnection))
	s.mux.Handle("DELETE /api/family-tree/connection/{connectionId}", s.authed(s.handleDeleteConnection))
	s.mux.Handle("PUT /api/family-tree/save", s.authed(s.handleSaveCanvas))
	s.mux.Handle("DELETE /api/family-tree/debug-delete/{name}", s.authed(s.handleDeleteNodeByName))
	s.mux.Handle("DELETE /api/family-tree/clear-all", s.authed(s.handleClearCanvas))
	s.mux.Handle("POST /api/family-tree/nuclear-delete", s.authed(s.handleClearCanvas))

	// API – Billing
	s.mux.HandleFunc("GET /api/billing/public-key", s.handlePublicKey)
	s.mux.Handle("POST /api/billing/create-payment-intent", s.authed(s.handleCreatePaymentIntent))
	s.mux.Handle("POST /api/billing/verify-intent", s.authed(s.handleVerifyPaymentIntent))
	s.mux.Handle("POST /api/billing/create-checkout-session", s.authed(s.handleCreateCheckoutSession))
	s.mux.Handle("GET /api/billing/confirm", s.authed(s.handleConfirmCheckoutQuery))
	s.mux.Handle("POST /api/billing/confirm-checkout", s.authed(s.handleConfirmCheckout))
	s.mux.Handle("POST /api/billing/free-upgrade", s.authed(s.handleFreeUpgrade))

	// API – Payment ledger
	s.mux.Handle("POST /api/payment/create-intent", s.authed(s.handleCreateLedgerIntent))
	s.mux.Handle("POST /api/payment/verify-intent", s.authed(s.handleVerifyLedgerIntent))
	s.mux.Handle("GET /api/payment/my", s.authed(s.handleMyPayments))
}

func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return s.authn.Authenticate(h)
}

func (s *Server) paid(h http.HandlerFunc) http.Handler {
	return s.authn.Authenticate(middleware.RequirePaid(s.svc, s.logger)(h))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"message": message})
}

// respondServiceError maps a service error to its status code. Internal
// details are logged and never sent to the caller.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.KindOf(err)
	status := statusFor(kind)

	entry := s.logger.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"kind":   kind.String(),
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	s.respondError(w, status, service.MessageOf(err))
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindPaymentRequired:
		return http.StatusPaymentRequired
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.  An empty
// body leaves dst untouched.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return true, ""
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// callerID returns the authenticated user. Routes registered through
// authed or paid always carry one.
func (s *Server) callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserID(r)
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return id, true
}

// ---------------------------------------------------------------------------
// Form helpers
// ---------------------------------------------------------------------------

// parseForm reads a multipart or urlencoded body. It writes an error
// response and returns false when the body cannot be read.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+maxFormOverhead)

	err := r.ParseMultipartForm(maxFormOverhead)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return false
		}
		s.respondError(w, http.StatusBadRequest, "invalid form data")
		return false
	}
	return true
}

// formPhoto returns the uploaded "photo" file, or nil when the request
// carries none. The returned close function is always safe to call.
func (s *Server) formPhoto(w http.ResponseWriter, r *http.Request) (*service.Upload, func(), bool) {
	noop := func() {}
	if r.MultipartForm == nil {
		return nil, noop, true
	}

	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, true
	}
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid photo upload")
		return nil, noop, false
	}
	if header.Size > maxUploadSize {
		file.Close()
		s.respondError(w, http.StatusRequestEntityTooLarge, "file too large")
		return nil, noop, false
	}
	return &service.Upload{Content: file}, closeFile(file, s.logger), true
}

func closeFile(f multipart.File, logger *logrus.Logger) func() {
	return func() {
		if err := f.Close(); err != nil {
			logger.WithError(err).Warn("failed to close uploaded file")
		}
	}
}

// formString returns a pointer to the value of key when the form carries
// it, or nil when the key is absent.
func formString(r *http.Request, key string) *string {
	if _, ok := r.PostForm[key]; !ok {
		return nil
	}
	v := r.PostForm.Get(key)
	return &v
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// formDate returns nil for an absent or empty value.
func formDate(r *http.Request, key string) (*time.Time, error) {
	raw := formString(r, key)
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formFloat(r *http.Request, key string) (float64, bool) {
	raw := strings.TrimSpace(r.PostForm.Get(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

package api

import (
	"net/http"

	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/service"
)

// ---------------------------------------------------------------------------
// Billing
// ---------------------------------------------------------------------------

type priceRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type verifyIntentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type confirmCheckoutRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	var key *string
	if k := s.svc.PublishableKey(); k != "" {
		key = &k
	}
	s.respondJSON(w, http.StatusOK, map[string]*string{"publishableKey": key})
}

func (s *Server) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	var req priceRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.svc.CreatePaymentIntent(r.Context(), userID, req.Amount, req.Currency)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleVerifyPaymentIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	var req verifyIntentRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	profile, err := s.svc.VerifyPaymentIntent(r.Context(), userID, req.PaymentIntentID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	var req priceRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	url, err := s.svc.CreateCheckoutSession(r.Context(), userID, req.Amount, req.Currency)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleConfirmCheckoutQuery(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	s.confirmCheckout(w, r, userID, r.URL.Query().Get("session_id"))
}

func (s *Server) handleConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	var req confirmCheckoutRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	s.confirmCheckout(w, r, userID, req.SessionID)
}

func (s *Server) confirmCheckout(w http.ResponseWriter, r *http.Request, userID, sessionID string) {
	profile, err := s.svc.ConfirmCheckout(r.Context(), userID, sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}

type freeUpgradeResponse struct {
	*models.Profile
	Message string `json:"message"`
}

func (s *Server) handleFreeUpgrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	profile, err := s.svc.FreeUpgrade(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, freeUpgradeResponse{Profile: profile, Message: "Free upgrade successful!"})
}

// ---------------------------------------------------------------------------
// Payment ledger
// ---------------------------------------------------------------------------

type ledgerIntentRequest struct {
	Amount   int64                `json:"amount"`
	Method   models.PaymentMethod `json:"method"`
	Currency string               `json:"currency"`
	Coupon   string               `json:"coupon"`
}

func (s *Server) handleCreateLedgerIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	var req ledgerIntentRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.svc.CreateLedgerIntent(r.Context(), userID, service.LedgerIntentInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Method:   req.Method,
		Coupon:   req.Coupon,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleVerifyLedgerIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	var req verifyIntentRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.svc.VerifyLedgerIntent(r.Context(), userID, req.PaymentIntentID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleMyPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	payments, err := s.svc.MyPayments(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	s.respondJSON(w, http.StatusOK, payments)
}

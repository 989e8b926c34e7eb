// Package middleware holds the HTTP gates in front of the API handlers.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/sirupsen/logrus"
)

// TokenConfig must match the settings the tokens were issued with.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// Authenticator validates bearer tokens and exposes the caller's user id
// to downstream handlers.
type Authenticator struct {
	jwt    *jwtmiddleware.JWTMiddleware
	logger *logrus.Logger
}

// NewAuthenticator builds the bearer token gate. Missing or invalid tokens
// are answered with 401.
func NewAuthenticator(cfg TokenConfig, logger *logrus.Logger) (*Authenticator, error) {
	keyFunc := func(context.Context) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}

	v, err := validator.New(keyFunc, validator.HS256, cfg.Issuer, []string{cfg.Audience})
	if err != nil {
		return nil, fmt.Errorf("failed to set up token validator: %w", err)
	}

	a := &Authenticator{logger: logger}
	a.jwt = jwtmiddleware.New(v.ValidateToken, jwtmiddleware.WithErrorHandler(a.onError))
	return a, nil
}

func (a *Authenticator) onError(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.WithError(err).WithField("path", r.URL.Path).Debug("rejected request token")
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

// Authenticate rejects requests without a valid bearer token.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return a.jwt.CheckJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserID(r); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// UserID returns the authenticated caller's user id.
func UserID(r *http.Request) (string, bool) {
	claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok || claims.RegisteredClaims.Subject == "" {
		return "", false
	}
	return claims.RegisteredClaims.Subject, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

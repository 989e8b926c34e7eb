package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/familyalbum/internal/service"
)

// EntitlementChecker decides whether a user may use paid features. It
// returns a service error of kind unauthorized or payment required when
// not.
type EntitlementChecker interface {
	CheckEntitlement(ctx context.Context, userID string) error
}

// RequirePaid rejects callers without the paid entitlement with 402. It
// must run after Authenticate.
func RequirePaid(checker EntitlementChecker, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserID(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if err := checker.CheckEntitlement(r.Context(), userID); err != nil {
				switch service.KindOf(err) {
				case service.KindUnauthorized:
					writeError(w, http.StatusUnauthorized, "unauthorized")
				case service.KindPaymentRequired:
					writeError(w, http.StatusPaymentRequired, "payment required")
				default:
					logger.WithError(err).Error("failed to check entitlement")
					writeError(w, http.StatusInternalServerError, "server error")
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

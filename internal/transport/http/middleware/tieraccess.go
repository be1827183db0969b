package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/eloity/tiergate/internal/application/tier"
)

// Denial codes surfaced to clients so they can route the user to the
// right flow (upgrade screen vs KYC screen vs login).
const (
	codeUnauthenticated     = "UNAUTHENTICATED"
	codeTierUpgradeRequired = "TIER_UPGRADE_REQUIRED"
	codeKYCRequired         = "KYC_REQUIRED"
)

func writeDenial(w http.ResponseWriter, status int, code, reason string, requiresKYC bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":        reason,
		"code":         code,
		"requires_kyc": requiresKYC,
	})
}

// RequireTierAccess guards a route behind a named feature gate. The
// authenticated user's tier is evaluated on every request. A KYC denial
// is 403 with KYC_REQUIRED and records the feature as the user's KYC
// trigger; a plain tier denial is 402 with TIER_UPGRADE_REQUIRED.
func RequireTierAccess(svc tier.Service, featureName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeDenial(w, http.StatusUnauthorized, codeUnauthenticated, "unauthorized", false)
				return
			}
			decision, err := svc.CanAccessFeature(r.Context(), claims.UserID, featureName)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "could not evaluate feature access")
				return
			}
			if !decision.Allowed {
				if decision.RequiresKYC {
					svc.RecordKYCTrigger(r.Context(), claims.UserID, featureName)
					writeDenial(w, http.StatusForbidden, codeKYCRequired, decision.Reason, true)
					return
				}
				writeDenial(w, http.StatusPaymentRequired, codeTierUpgradeRequired, decision.Reason, false)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

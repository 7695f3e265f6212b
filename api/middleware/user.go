package middleware

import (
	"context"
	"net/http"

	"github.com/basketwise/basketwise-backend/api/validators"
	"github.com/basketwise/basketwise-backend/pkg/logger"
)

const (
	userIDHeader   = "X-User-Id"
	maxUserIDChars = 128
)

type shopperKey struct{}

// UserIDFromContext returns the shopper that owns lists, alerts and
// preferred stores for this request, or "" outside UserContext.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userID, _ := ctx.Value(shopperKey{}).(string)
	return userID
}

func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, shopperKey{}, userID)
}

// UserContext resolves the caller for list, alert and preferred-store routes.
// Identity is asserted by the session layer in front of the API; requests
// without the header act as the configured demo user.
func UserContext(demoUserID string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := validators.SanitizeString(r.Header.Get(userIDHeader), maxUserIDChars)
			if userID == "" {
				userID = demoUserID
			}
			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

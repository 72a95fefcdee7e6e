package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type claimsKey struct{}

// AuthRequired rejects requests without a verified access token and stores
// the session claims for handlers. It expects jwtauth.Verifier to run first.
func AuthRequired(next http.Handler) http.Handler {
	hfn := func(w http.ResponseWriter, r *http.Request) {
		token, m, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			response.Unauthorized(w, r)
			return
		}

		claims, err := jwt.ClaimsFromMap(m)
		if err != nil {
			slog.DebugContext(r.Context(), "rejected access token", slog.Any("error", err))
			response.Unauthorized(w, r)
			return
		}

		ctx := WithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(hfn)
}

// ClaimsFromContext returns the claims stored by AuthRequired.
func ClaimsFromContext(ctx context.Context) (jwt.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(jwt.Claims)
	return c, ok
}

// WithClaims stores claims the way AuthRequired does.
func WithClaims(ctx context.Context, c jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

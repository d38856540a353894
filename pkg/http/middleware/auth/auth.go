package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/storefront-labs/order-svc/internal/service/models/actor"
)

// Claims are the JWT claims issued by the upstream authentication service.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthMiddleware resolves the caller's identity from a bearer token and
// stores it on the request context. Requests without a token pass through as
// guests; authorization decisions belong to the service layer.
func NewAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)

			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			http.Error(w, "malformed authorization header", http.StatusUnauthorized)

			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}

			return []byte(viper.GetString("auth.jwt_secret")), nil
		})
		if err != nil || !parsed.Valid {
			slog.Warn("Rejected invalid token", "error", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)

			return
		}

		role := actor.RoleCustomer
		if claims.Role == string(actor.RoleAdmin) {
			role = actor.RoleAdmin
		}

		ctx := actor.WithContext(r.Context(), actor.Actor{
			UserID: claims.Subject,
			Role:   role,
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/pkg/response"
)

type contextKey string

const actorKey contextKey = "actor"

// Claims is the JWT payload this service trusts. Token issuance happens
// elsewhere; we only verify.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies bearer tokens and puts the caller's identity on the
// request context.
type Auth struct {
	secret []byte
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// Require rejects requests without a valid bearer token.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header required")
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			response.Unauthorized(w, "Invalid token")
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			response.Unauthorized(w, "Invalid token subject")
			return
		}

		actor := domain.Actor{
			UserID:   userID,
			Username: claims.Username,
			Role:     claims.Role,
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// WithActor attaches the caller identity to a context.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom extracts the caller identity set by Require.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"castforge/internal/models"
)

type contextKey string

// UserContextKey is the key for the authenticated user in the request
// context.
const UserContextKey = contextKey("user")

// UserUpserter persists a user from verified token claims.
type UserUpserter interface {
	Upsert(ctx context.Context, id, email, displayName string) (*models.User, error)
}

// Auth validates the bearer token and upserts the user it names. Tokens
// are HS256-signed by the identity frontend; the subject claim is the
// stable user id.
type Auth struct {
	log    *zap.SugaredLogger
	secret []byte
	users  UserUpserter
}

func NewAuth(log *zap.SugaredLogger, secret string, users UserUpserter) *Auth {
	return &Auth{log: log, secret: []byte(secret), users: users}
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Authorization header format must be 'Bearer <token>'", http.StatusUnauthorized)
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			return a.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			a.log.Debugw("rejected token", "error", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		email, _ := claims["email"].(string)
		name, _ := claims["name"].(string)

		user, err := a.users.Upsert(r.Context(), sub, email, name)
		if err != nil {
			a.log.Errorw("failed to upsert user", "user_id", sub, "error", err)
			http.Error(w, "Failed to authenticate user", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFrom returns the authenticated user stored by Auth, or nil.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserContextKey).(*models.User)
	return user
}

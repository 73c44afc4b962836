package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	authtoken "github.com/NordCoder/Hookery/internal/auth"
)

type ctxKey int

const userIDKey ctxKey = 1

// DevUserHeader names the header trusted for the caller id when token
// verification is disabled.
const DevUserHeader = "X-User-Id"

func UserIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

type Config struct {
	Enable    bool
	JWTSecret []byte
	Now       func() time.Time
}

// Middleware resolves the caller and stores its id in the request context.
// It never rejects a request; handlers that need a caller check
// UserIDFromCtx.
func Middleware(cfg Config, log *zap.Logger) func(http.Handler) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.L()
	}
	log = log.With(zap.String("component", "auth.middleware"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := resolve(cfg, r, log); ok {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolve(cfg Config, r *http.Request, log *zap.Logger) (uuid.UUID, bool) {
	if !cfg.Enable {
		id, err := uuid.Parse(strings.TrimSpace(r.Header.Get(DevUserHeader)))
		return id, err == nil
	}

	token := bearer(r.Header.Get("Authorization"))
	if token == "" {
		return uuid.Nil, false
	}
	claims, err := authtoken.ParseAndValidate(token, cfg.JWTSecret, cfg.Now())
	if err != nil {
		log.Debug("access token rejected", zap.Error(err))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.Sub)
	if err != nil {
		log.Debug("access token subject is not a user id", zap.String("sub", claims.Sub))
		return uuid.Nil, false
	}
	return id, true
}

func bearer(h string) string {
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/NordCoder/Hookery/internal/domain/events"
	"github.com/NordCoder/Hookery/internal/domain/favorite"
	hook "github.com/NordCoder/Hookery/internal/domain/webhook"
	"github.com/NordCoder/Hookery/internal/obs"
	pg "github.com/NordCoder/Hookery/internal/repository/postgres"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)

var (
	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_operations_total",
		Help: "Web hook service operations by result.",
	}, []string{"op", "result"})
	opDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_operation_duration_seconds",
		Help:    "Web hook service operation latency, transaction included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	notifyErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_notify_errors_total",
		Help: "initialize_web_hook events that could not be sent.",
	})
)

// Transactor is satisfied by postgres.TransactorImpl.
type Transactor interface {
	WithTx(ctx context.Context, function func(ctx context.Context) error) error
}

// RevivedFavorite is a favorite of a subscriber, keyed by the token the
// subscriber registered with the hook. The owning user id is not exposed.
type RevivedFavorite struct {
	ID         uuid.UUID `json:"id"`
	BangumiID  uuid.UUID `json:"bangumi_id"`
	Status     int       `json:"status"`
	UpdateTime time.Time `json:"update_time"`
	CheckTime  time.Time `json:"check_time"`
	TokenID    string    `json:"token_id,omitempty"`
}

type Usecase struct {
	tx     Transactor
	hooks  hook.Repo
	tokens hook.TokenRepo
	favs   favorite.Repo
	events events.Sender
	log    *zap.Logger
}

func NewUsecase(
	tx Transactor,
	hooks hook.Repo,
	tokens hook.TokenRepo,
	favs favorite.Repo,
	ev events.Sender,
	log *zap.Logger,
) *Usecase {
	if log == nil {
		log = zap.L()
	}
	return &Usecase{
		tx:     tx,
		hooks:  hooks,
		tokens: tokens,
		favs:   favs,
		events: ev,
		log:    log.With(zap.String("component", "webhook.usecase")),
	}
}

// start opens a span for op and returns the function that records its outcome.
func (u *Usecase) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	ctx, span := otel.Tracer("webhook.uc").Start(ctx, "webhook."+op, trace.WithAttributes(attrs...))
	t0 := time.Now()
	return ctx, func(errp *error) {
		result := "ok"
		if err := *errp; err != nil {
			result = "error"
			switch {
			case errors.Is(err, ErrNotFound):
				result = "not_found"
			case errors.Is(err, ErrValidation):
				result = "invalid"
			default:
				span.RecordError(err)
				obs.WithTrace(ctx, u.log).Error(op+" failed", zap.Error(err))
			}
		}
		opsTotal.WithLabelValues(op, result).Inc()
		opDuration.WithLabelValues(op).Observe(time.Since(t0).Seconds())
		span.End()
	}
}

// ListWebHook returns every web hook, newest registration first, with the
// creator's public profile attached.
func (u *Usecase) ListWebHook(ctx context.Context) (list []*hook.WithCreator, total int, err error) {
	ctx, done := u.start(ctx, "list")
	defer done(&err)

	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		var lerr error
		list, lerr = u.hooks.ListWithCreator(ctx)
		return lerr
	})
	if err != nil {
		return nil, 0, err
	}
	return list, len(list), nil
}

// RegisterWebHook stores a new hook and then announces it to the hook runner.
// The announcement is best effort: a failed send is logged, never returned.
func (u *Usecase) RegisterWebHook(ctx context.Context, f hook.Fields, creatorID uuid.UUID) (id uuid.UUID, err error) {
	ctx, done := u.start(ctx, "register", attribute.String("web_hook.url", f.URL))
	defer done(&err)

	if err := validateRegistration(f); err != nil {
		return uuid.Nil, err
	}

	var created *hook.WebHook
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		var cerr error
		created, cerr = u.hooks.Create(ctx, f, creatorID)
		if errors.Is(cerr, pg.ErrConstraint) {
			return fmt.Errorf("%w: creator does not exist", ErrValidation)
		}
		return cerr
	})
	if err != nil {
		return uuid.Nil, err
	}

	u.notifyRegistered(ctx, created)
	return created.ID, nil
}

func (u *Usecase) notifyRegistered(ctx context.Context, w *hook.WebHook) {
	if u.events == nil {
		return
	}
	err := u.events.Send(ctx, events.InitializeWebHook, map[string]any{
		"web_hook_id":  w.ID.String(),
		"web_hook_url": w.URL,
	})
	if err != nil {
		notifyErrors.Inc()
		obs.WithTrace(ctx, u.log).Warn("initialize_web_hook not sent",
			zap.String("web_hook_id", w.ID.String()), zap.Error(err))
	}
}

// UpdateWebHook overwrites every writable field with the values in f. Fields
// left out of f are written as their zero value.
func (u *Usecase) UpdateWebHook(ctx context.Context, id uuid.UUID, f hook.Fields) (err error) {
	ctx, done := u.start(ctx, "update", attribute.String("web_hook.id", id.String()))
	defer done(&err)

	return u.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := u.hooks.GetForUpdate(ctx, id); err != nil {
			return mapNotFound(err, "web hook")
		}
		return mapNotFound(u.hooks.Update(ctx, id, f), "web hook")
	})
}

// DeleteWebHook removes the hook together with all of its tokens.
func (u *Usecase) DeleteWebHook(ctx context.Context, id uuid.UUID) (err error) {
	ctx, done := u.start(ctx, "delete", attribute.String("web_hook.id", id.String()))
	defer done(&err)

	return u.tx.WithTx(ctx, func(ctx context.Context) error {
		n, err := u.tokens.DeleteByWebHook(ctx, id)
		if err != nil {
			return err
		}
		if err := u.hooks.Delete(ctx, id); err != nil {
			return mapNotFound(err, "web hook")
		}
		u.log.Debug("web hook deleted", zap.String("web_hook_id", id.String()), zap.Int64("tokens", n))
		return nil
	})
}

// Revive marks the hook alive again and reports the favorites of the
// subscribers owning tokenIDs. The report is built before the status write.
func (u *Usecase) Revive(ctx context.Context, id uuid.UUID, tokenIDs []string) (out []RevivedFavorite, err error) {
	ctx, done := u.start(ctx, "revive",
		attribute.String("web_hook.id", id.String()),
		attribute.Int("tokens.requested", len(tokenIDs)),
	)
	defer done(&err)

	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		favs, err := u.subscriberFavorites(ctx, id, tokenIDs)
		if err != nil {
			return err
		}

		if _, err := u.hooks.GetForUpdate(ctx, id); err != nil {
			return mapNotFound(err, "web hook")
		}
		out = favs
		return mapNotFound(u.hooks.SetStatus(ctx, id, hook.StatusAlive), "web hook")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) subscriberFavorites(ctx context.Context, id uuid.UUID, tokenIDs []string) ([]RevivedFavorite, error) {
	out := make([]RevivedFavorite, 0)
	if len(tokenIDs) == 0 {
		return out, nil
	}

	tokens, err := u.tokens.ListByWebHook(ctx, id, tokenIDs)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return out, nil
	}

	tokenByUser := make(map[uuid.UUID]string, len(tokens))
	userIDs := make([]uuid.UUID, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := tokenByUser[t.UserID]; ok {
			continue
		}
		tokenByUser[t.UserID] = t.TokenID
		userIDs = append(userIDs, t.UserID)
	}

	favs, err := u.favs.ListByUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	type key struct{ user, fav uuid.UUID }
	seen := make(map[key]struct{}, len(favs))
	for _, f := range favs {
		k := key{f.UserID, f.ID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, RevivedFavorite{
			ID:         f.ID,
			BangumiID:  f.BangumiID,
			Status:     f.Status,
			UpdateTime: f.UpdateTime,
			CheckTime:  f.CheckTime,
			TokenID:    tokenByUser[f.UserID],
		})
	}
	return out, nil
}

// ListWebHookByUser returns the hooks the user is subscribed to, one per token.
func (u *Usecase) ListWebHookByUser(ctx context.Context, userID uuid.UUID) (list []*hook.WebHook, total int, err error) {
	ctx, done := u.start(ctx, "list_by_user", attribute.String("user.id", userID.String()))
	defer done(&err)

	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		var lerr error
		list, lerr = u.tokens.ListWebHooksByUser(ctx, userID)
		return lerr
	})
	if err != nil {
		return nil, 0, err
	}
	return list, len(list), nil
}

// AddWebHookToken subscribes the user to the hook. Subscribing again replaces
// the previous token id.
func (u *Usecase) AddWebHookToken(ctx context.Context, tokenID string, webHookID, userID uuid.UUID) (err error) {
	ctx, done := u.start(ctx, "add_token",
		attribute.String("web_hook.id", webHookID.String()),
		attribute.String("user.id", userID.String()),
	)
	defer done(&err)

	if strings.TrimSpace(tokenID) == "" {
		return fmt.Errorf("%w: token_id is required", ErrValidation)
	}

	return u.tx.WithTx(ctx, func(ctx context.Context) error {
		ok, err := u.hooks.Exists(ctx, webHookID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: web hook not existed", ErrValidation)
		}
		err = u.tokens.Upsert(ctx, &hook.Token{WebHookID: webHookID, UserID: userID, TokenID: tokenID})
		if errors.Is(err, pg.ErrConstraint) {
			return fmt.Errorf("%w: web hook or user not existed", ErrValidation)
		}
		return err
	})
}

// DeleteWebHookToken unsubscribes the user from the hook.
func (u *Usecase) DeleteWebHookToken(ctx context.Context, webHookID, userID uuid.UUID) (err error) {
	ctx, done := u.start(ctx, "delete_token",
		attribute.String("web_hook.id", webHookID.String()),
		attribute.String("user.id", userID.String()),
	)
	defer done(&err)

	return u.tx.WithTx(ctx, func(ctx context.Context) error {
		return mapNotFound(u.tokens.Delete(ctx, webHookID, userID), "web hook token")
	})
}

func mapNotFound(err error, what string) error {
	if errors.Is(err, pg.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func validateRegistration(f hook.Fields) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(f.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}
	parsed, err := url.Parse(f.URL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: url must be an absolute http(s) url", ErrValidation)
	}
	return nil
}

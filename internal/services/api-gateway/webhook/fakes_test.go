package webhook

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NordCoder/Hookery/internal/domain/favorite"
	"github.com/NordCoder/Hookery/internal/domain/user"
	hook "github.com/NordCoder/Hookery/internal/domain/webhook"
	pg "github.com/NordCoder/Hookery/internal/repository/postgres"
)

type tokenKey struct{ hook, user uuid.UUID }

// store is an in-memory database. Its Transactor snapshots the state on
// begin and restores it when the callback fails.
type store struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*user.User
	hooks   map[uuid.UUID]*hook.WebHook
	tokens  map[tokenKey]*hook.Token
	favs    []*favorite.Favorite
	clock   time.Time
	commits int
	txs     int
	locked  []uuid.UUID

	failList error
}

func newStore() *store {
	return &store{
		users:  map[uuid.UUID]*user.User{},
		hooks:  map[uuid.UUID]*hook.WebHook{},
		tokens: map[tokenKey]*hook.Token{},
		clock:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (s *store) addUser(name string) *user.User {
	u := &user.User{ID: uuid.New(), Name: name, Password: "secret", Level: 1, RegisterTime: s.clock}
	s.users[u.ID] = u
	return u
}

func (s *store) addHook(name, url string, by *uuid.UUID) *hook.WebHook {
	s.clock = s.clock.Add(time.Minute)
	h := &hook.WebHook{
		ID: uuid.New(), Name: name, URL: url, Status: hook.StatusAlive,
		RegisterTime: s.clock, CreatedByUID: by,
	}
	s.hooks[h.ID] = h
	return h
}

func (s *store) addToken(hookID, userID uuid.UUID, tokenID string) {
	s.tokens[tokenKey{hookID, userID}] = &hook.Token{WebHookID: hookID, UserID: userID, TokenID: tokenID}
}

func (s *store) addFavorite(userID uuid.UUID) *favorite.Favorite {
	f := &favorite.Favorite{ID: uuid.New(), UserID: userID, BangumiID: uuid.New(), Status: 1, UpdateTime: s.clock, CheckTime: s.clock}
	s.favs = append(s.favs, f)
	return f
}

type snapshot struct {
	hooks  map[uuid.UUID]hook.WebHook
	tokens map[tokenKey]hook.Token
}

func (s *store) snapshot() snapshot {
	sn := snapshot{hooks: map[uuid.UUID]hook.WebHook{}, tokens: map[tokenKey]hook.Token{}}
	for k, v := range s.hooks {
		sn.hooks[k] = *v
	}
	for k, v := range s.tokens {
		sn.tokens[k] = *v
	}
	return sn
}

func (s *store) restore(sn snapshot) {
	s.hooks = map[uuid.UUID]*hook.WebHook{}
	for k, v := range sn.hooks {
		v := v
		s.hooks[k] = &v
	}
	s.tokens = map[tokenKey]*hook.Token{}
	for k, v := range sn.tokens {
		v := v
		s.tokens[k] = &v
	}
}

func (s *store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.txs++
	sn := s.snapshot()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.restore(sn)
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

type hookRepo struct{ s *store }

func (r hookRepo) ListWithCreator(context.Context) ([]*hook.WithCreator, error) {
	if r.s.failList != nil {
		return nil, r.s.failList
	}
	out := make([]*hook.WithCreator, 0, len(r.s.hooks))
	for _, h := range r.s.hooks {
		w := &hook.WithCreator{WebHook: *h}
		if h.CreatedByUID != nil {
			w.Creator = r.s.users[*h.CreatedByUID].Profile()
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisterTime.After(out[j].RegisterTime) })
	return out, nil
}

func (r hookRepo) Create(_ context.Context, f hook.Fields, by uuid.UUID) (*hook.WebHook, error) {
	if _, ok := r.s.users[by]; !ok {
		return nil, pg.ErrConstraint
	}
	h := r.s.addHook(f.Name, f.URL, &by)
	h.Description = f.Description
	cp := *h
	return &cp, nil
}

func (r hookRepo) GetForUpdate(_ context.Context, id uuid.UUID) (*hook.WebHook, error) {
	h, ok := r.s.hooks[id]
	if !ok {
		return nil, pg.ErrNotFound
	}
	r.s.locked = append(r.s.locked, id)
	cp := *h
	return &cp, nil
}

func (r hookRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.s.hooks[id]
	return ok, nil
}

func (r hookRepo) Update(_ context.Context, id uuid.UUID, f hook.Fields) error {
	h, ok := r.s.hooks[id]
	if !ok {
		return pg.ErrNotFound
	}
	h.Name, h.Description, h.URL = f.Name, f.Description, f.URL
	h.Status, h.ConsecutiveFailureCount = f.Status, f.ConsecutiveFailureCount
	return nil
}

func (r hookRepo) SetStatus(_ context.Context, id uuid.UUID, st hook.Status) error {
	h, ok := r.s.hooks[id]
	if !ok {
		return pg.ErrNotFound
	}
	h.Status = st
	return nil
}

func (r hookRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.hooks[id]; !ok {
		return pg.ErrNotFound
	}
	delete(r.s.hooks, id)
	return nil
}

type tokenRepo struct{ s *store }

func (r tokenRepo) ListByWebHook(_ context.Context, hookID uuid.UUID, tokenIDs []string) ([]*hook.Token, error) {
	want := map[string]bool{}
	for _, t := range tokenIDs {
		want[t] = true
	}
	var out []*hook.Token
	for k, t := range r.s.tokens {
		if k.hook == hookID && want[t.TokenID] {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out, nil
}

func (r tokenRepo) ListWebHooksByUser(_ context.Context, userID uuid.UUID) ([]*hook.WebHook, error) {
	out := []*hook.WebHook{}
	for k := range r.s.tokens {
		if k.user != userID {
			continue
		}
		if h, ok := r.s.hooks[k.hook]; ok {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisterTime.After(out[j].RegisterTime) })
	return out, nil
}

func (r tokenRepo) Upsert(_ context.Context, t *hook.Token) error {
	if _, ok := r.s.users[t.UserID]; !ok {
		return pg.ErrConstraint
	}
	r.s.addToken(t.WebHookID, t.UserID, t.TokenID)
	return nil
}

func (r tokenRepo) Delete(_ context.Context, hookID, userID uuid.UUID) error {
	k := tokenKey{hookID, userID}
	if _, ok := r.s.tokens[k]; !ok {
		return pg.ErrNotFound
	}
	delete(r.s.tokens, k)
	return nil
}

func (r tokenRepo) DeleteByWebHook(_ context.Context, hookID uuid.UUID) (int64, error) {
	var n int64
	for k := range r.s.tokens {
		if k.hook == hookID {
			delete(r.s.tokens, k)
			n++
		}
	}
	return n, nil
}

type favRepo struct{ s *store }

func (r favRepo) ListByUsers(_ context.Context, userIDs []uuid.UUID) ([]*favorite.Favorite, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*favorite.Favorite
	for _, f := range r.s.favs {
		if want[f.UserID] {
			out = append(out, f)
		}
	}
	return out, nil
}

type sentEvent struct {
	name    string
	payload map[string]any
}

type fakeSender struct {
	sent []sentEvent
	err  error
}

func (f *fakeSender) Send(_ context.Context, event string, payload map[string]any) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEvent{name: event, payload: payload})
	return nil
}

var errBoom = errors.New("boom")

func newTestUsecase(s *store, ev *fakeSender) *Usecase {
	return NewUsecase(s, hookRepo{s}, tokenRepo{s}, favRepo{s}, ev, nil)
}

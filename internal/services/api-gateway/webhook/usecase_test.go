package webhook

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Hookery/internal/domain/events"
	hook "github.com/NordCoder/Hookery/internal/domain/webhook"
)

func TestListWebHook_NewestFirstWithCreator(t *testing.T) {
	s := newStore()
	admin := s.addUser("admin")
	older := s.addHook("older", "https://a.example/hook", &admin.ID)
	newer := s.addHook("newer", "https://b.example/hook", nil)
	uc := newTestUsecase(s, &fakeSender{})

	list, total, err := uc.ListWebHook(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, list, 2)

	assert.Equal(t, newer.ID, list[0].ID)
	assert.Nil(t, list[0].Creator)
	assert.Equal(t, older.ID, list[1].ID)
	require.NotNil(t, list[1].Creator)
	assert.Equal(t, "admin", list[1].Creator.Name)
	assert.Equal(t, 1, s.txs)
}

func TestListWebHook_Empty(t *testing.T) {
	uc := newTestUsecase(newStore(), &fakeSender{})

	list, total, err := uc.ListWebHook(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestListWebHook_StoreError(t *testing.T) {
	s := newStore()
	s.failList = errBoom
	uc := newTestUsecase(s, &fakeSender{})

	_, _, err := uc.ListWebHook(context.Background())
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, s.commits)
}

func TestRegisterWebHook_SendsEventAfterCommit(t *testing.T) {
	s := newStore()
	admin := s.addUser("admin")
	ev := &fakeSender{}
	uc := newTestUsecase(s, ev)

	id, err := uc.RegisterWebHook(context.Background(), hook.Fields{
		Name: "bgm", Description: "tracker", URL: "https://hooks.example/bgm",
	}, admin.ID)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, 1, s.commits)

	stored := s.hooks[id]
	require.NotNil(t, stored)
	assert.Equal(t, hook.StatusAlive, stored.Status)
	assert.Equal(t, admin.ID, *stored.CreatedByUID)

	require.Len(t, ev.sent, 1)
	assert.Equal(t, events.InitializeWebHook, ev.sent[0].name)
	assert.Equal(t, map[string]any{
		"web_hook_id":  id.String(),
		"web_hook_url": "https://hooks.example/bgm",
	}, ev.sent[0].payload)
}

func TestRegisterWebHook_SendFailureDoesNotFail(t *testing.T) {
	s := newStore()
	admin := s.addUser("admin")
	uc := newTestUsecase(s, &fakeSender{err: errBoom})

	id, err := uc.RegisterWebHook(context.Background(), hook.Fields{Name: "x", URL: "http://x.example"}, admin.ID)
	require.NoError(t, err)
	assert.Contains(t, s.hooks, id)
}

func TestRegisterWebHook_Validation(t *testing.T) {
	s := newStore()
	admin := s.addUser("admin")
	ev := &fakeSender{}
	uc := newTestUsecase(s, ev)

	cases := map[string]hook.Fields{
		"no name":        {URL: "https://x.example"},
		"no url":         {Name: "x"},
		"relative url":   {Name: "x", URL: "/hook"},
		"bad scheme":     {Name: "x", URL: "ftp://x.example"},
		"blank name":     {Name: "   ", URL: "https://x.example"},
		"unparseable":    {Name: "x", URL: "http://[::1"},
		"missing host":   {Name: "x", URL: "https://"},
		"scheme only":    {Name: "x", URL: "http:"},
		"whitespace url": {Name: "x", URL: "  "},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.RegisterWebHook(context.Background(), f, admin.ID)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, s.hooks)
	assert.Empty(t, ev.sent)
}

func TestRegisterWebHook_UnknownCreator(t *testing.T) {
	s := newStore()
	ev := &fakeSender{}
	uc := newTestUsecase(s, ev)

	_, err := uc.RegisterWebHook(context.Background(), hook.Fields{Name: "x", URL: "https://x.example"}, uuid.New())
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, ev.sent)
}

func TestUpdateWebHook_OverwritesEveryField(t *testing.T) {
	s := newStore()
	h := s.addHook("name", "https://x.example", nil)
	h.Description = "desc"
	h.Status = hook.StatusDead
	h.ConsecutiveFailureCount = 7
	uc := newTestUsecase(s, &fakeSender{})

	err := uc.UpdateWebHook(context.Background(), h.ID, hook.Fields{Name: "renamed"})
	require.NoError(t, err)

	got := s.hooks[h.ID]
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, "", got.URL)
	assert.Equal(t, hook.Status(0), got.Status)
	assert.Equal(t, 0, got.ConsecutiveFailureCount)
	assert.Equal(t, []uuid.UUID{h.ID}, s.locked)
}

func TestUpdateWebHook_NotFound(t *testing.T) {
	s := newStore()
	uc := newTestUsecase(s, &fakeSender{})

	err := uc.UpdateWebHook(context.Background(), uuid.New(), hook.Fields{Name: "x"})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.commits)
}

func TestDeleteWebHook_RemovesTokens(t *testing.T) {
	s := newStore()
	u1, u2 := s.addUser("a"), s.addUser("b")
	h := s.addHook("h", "https://x.example", nil)
	other := s.addHook("other", "https://y.example", nil)
	s.addToken(h.ID, u1.ID, "t1")
	s.addToken(h.ID, u2.ID, "t2")
	s.addToken(other.ID, u1.ID, "t3")
	uc := newTestUsecase(s, &fakeSender{})

	require.NoError(t, uc.DeleteWebHook(context.Background(), h.ID))

	assert.NotContains(t, s.hooks, h.ID)
	assert.Len(t, s.tokens, 1)
	assert.Contains(t, s.tokens, tokenKey{other.ID, u1.ID})
}

func TestDeleteWebHook_NotFoundRollsBack(t *testing.T) {
	s := newStore()
	u := s.addUser("a")
	orphan := uuid.New()
	s.addToken(orphan, u.ID, "t1")
	uc := newTestUsecase(s, &fakeSender{})

	err := uc.DeleteWebHook(context.Background(), orphan)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, s.tokens, tokenKey{orphan, u.ID})
	assert.Equal(t, 0, s.commits)
}

func TestRevive_ReturnsSubscriberFavorites(t *testing.T) {
	s := newStore()
	u1, u2, u3 := s.addUser("a"), s.addUser("b"), s.addUser("c")
	h := s.addHook("h", "https://x.example", nil)
	h.Status = hook.StatusDead
	s.addToken(h.ID, u1.ID, "tok-1")
	s.addToken(h.ID, u2.ID, "tok-2")
	s.addToken(h.ID, u3.ID, "tok-3")
	f1 := s.addFavorite(u1.ID)
	s.favs = append(s.favs, f1)
	f2 := s.addFavorite(u2.ID)
	s.addFavorite(u3.ID)
	uc := newTestUsecase(s, &fakeSender{})

	out, err := uc.Revive(context.Background(), h.ID, []string{"tok-1", "tok-2", "unknown"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	byID := map[uuid.UUID]RevivedFavorite{}
	for _, f := range out {
		byID[f.ID] = f
	}
	assert.Equal(t, "tok-1", byID[f1.ID].TokenID)
	assert.Equal(t, f1.BangumiID, byID[f1.ID].BangumiID)
	assert.Equal(t, "tok-2", byID[f2.ID].TokenID)
	assert.Equal(t, hook.StatusAlive, s.hooks[h.ID].Status)
	assert.Equal(t, 1, s.commits)
}

func TestRevive_NoTokensStillRevives(t *testing.T) {
	s := newStore()
	h := s.addHook("h", "https://x.example", nil)
	h.Status = hook.StatusHasError
	uc := newTestUsecase(s, &fakeSender{})

	out, err := uc.Revive(context.Background(), h.ID, nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Equal(t, hook.StatusAlive, s.hooks[h.ID].Status)
}

func TestRevive_NotFound(t *testing.T) {
	s := newStore()
	uc := newTestUsecase(s, &fakeSender{})

	out, err := uc.Revive(context.Background(), uuid.New(), []string{"tok"})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, out)
	assert.Equal(t, 0, s.commits)
}

func TestListWebHookByUser(t *testing.T) {
	s := newStore()
	u, other := s.addUser("a"), s.addUser("b")
	h1 := s.addHook("h1", "https://x.example", nil)
	h2 := s.addHook("h2", "https://y.example", nil)
	s.addHook("h3", "https://z.example", nil)
	s.addToken(h1.ID, u.ID, "t1")
	s.addToken(h2.ID, u.ID, "t2")
	s.addToken(h2.ID, other.ID, "t3")
	uc := newTestUsecase(s, &fakeSender{})

	list, total, err := uc.ListWebHookByUser(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	assert.Equal(t, h2.ID, list[0].ID)
	assert.Equal(t, h1.ID, list[1].ID)
}

func TestAddWebHookToken(t *testing.T) {
	s := newStore()
	u := s.addUser("a")
	h := s.addHook("h", "https://x.example", nil)
	uc := newTestUsecase(s, &fakeSender{})
	ctx := context.Background()

	require.NoError(t, uc.AddWebHookToken(ctx, "first", h.ID, u.ID))
	require.NoError(t, uc.AddWebHookToken(ctx, "second", h.ID, u.ID))

	require.Len(t, s.tokens, 1)
	assert.Equal(t, "second", s.tokens[tokenKey{h.ID, u.ID}].TokenID)
}

func TestAddWebHookToken_HookMissing(t *testing.T) {
	s := newStore()
	u := s.addUser("a")
	uc := newTestUsecase(s, &fakeSender{})

	err := uc.AddWebHookToken(context.Background(), "tok", uuid.New(), u.ID)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "web hook not existed")
	assert.Empty(t, s.tokens)
}

func TestAddWebHookToken_Invalid(t *testing.T) {
	s := newStore()
	h := s.addHook("h", "https://x.example", nil)
	uc := newTestUsecase(s, &fakeSender{})

	err := uc.AddWebHookToken(context.Background(), " ", h.ID, uuid.New())
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, s.txs)

	err = uc.AddWebHookToken(context.Background(), "tok", h.ID, uuid.New())
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteWebHookToken(t *testing.T) {
	s := newStore()
	u := s.addUser("a")
	h := s.addHook("h", "https://x.example", nil)
	s.addToken(h.ID, u.ID, "tok")
	uc := newTestUsecase(s, &fakeSender{})

	require.NoError(t, uc.DeleteWebHookToken(context.Background(), h.ID, u.ID))
	assert.Empty(t, s.tokens)

	err := uc.DeleteWebHookToken(context.Background(), h.ID, u.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/NordCoder/Hookery/internal/domain/webhook"
)

var _ webhook.TokenRepo = (*WebHookTokenRepoImpl)(nil)

type WebHookTokenRepoImpl struct{ db *DB }

func NewWebHookTokenRepo(db *DB) *WebHookTokenRepoImpl { return &WebHookTokenRepoImpl{db: db} }

const (
	qTokenByWebHook = `
SELECT web_hook_id, user_id, token_id
FROM web_hook_token
WHERE web_hook_id = $1 AND token_id = ANY($2);
`

	qWebHooksByUser = `
SELECT w.id, w.name, w.description, w.url, w.status, w.consecutive_failure_count, w.register_time, w.created_by_uid
FROM web_hook_token t
JOIN web_hook w ON w.id = t.web_hook_id
WHERE t.user_id = $1
ORDER BY w.register_time DESC;
`

	qTokenUpsert = `
INSERT INTO web_hook_token (web_hook_id, user_id, token_id)
VALUES ($1, $2, $3)
ON CONFLICT (web_hook_id, user_id) DO UPDATE SET token_id = EXCLUDED.token_id;
`

	qTokenDelete = `DELETE FROM web_hook_token WHERE web_hook_id = $1 AND user_id = $2;`

	qTokenDeleteByWebHook = `DELETE FROM web_hook_token WHERE web_hook_id = $1;`
)

func (r *WebHookTokenRepoImpl) ListByWebHook(ctx context.Context, webHookID uuid.UUID, tokenIDs []string) ([]*webhook.Token, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qTokenByWebHook, webHookID, tokenIDs)
	if err != nil {
		return nil, fmt.Errorf("query web hook tokens: %w", err)
	}
	defer rows.Close()

	var out []*webhook.Token
	for rows.Next() {
		var t webhook.Token
		if err := rows.Scan(&t.WebHookID, &t.UserID, &t.TokenID); err != nil {
			return nil, fmt.Errorf("scan web hook token: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *WebHookTokenRepoImpl) ListWebHooksByUser(ctx context.Context, userID uuid.UUID) ([]*webhook.WebHook, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qWebHooksByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("query web hooks by user: %w", err)
	}
	defer rows.Close()

	out := make([]*webhook.WebHook, 0)
	for rows.Next() {
		var w webhook.WebHook
		if err := scanWebHook(rows, &w); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *WebHookTokenRepoImpl) Upsert(ctx context.Context, t *webhook.Token) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qTokenUpsert, t.WebHookID, t.UserID, t.TokenID); err != nil {
		if mapped := mapPgErr(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("upsert web hook token: %w", err)
	}
	return nil
}

func (r *WebHookTokenRepoImpl) Delete(ctx context.Context, webHookID, userID uuid.UUID) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qTokenDelete, webHookID, userID)
	if err != nil {
		return fmt.Errorf("delete web hook token: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WebHookTokenRepoImpl) DeleteByWebHook(ctx context.Context, webHookID uuid.UUID) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qTokenDeleteByWebHook, webHookID)
	if err != nil {
		return 0, fmt.Errorf("delete web hook tokens: %w", err)
	}
	return cmd.RowsAffected(), nil
}

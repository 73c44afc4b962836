package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/Hookery/internal/domain/user"
	"github.com/NordCoder/Hookery/internal/domain/webhook"
)

var _ webhook.Repo = (*WebHookRepoImpl)(nil)

type WebHookRepoImpl struct {
	db *DB
}

func NewWebHookRepo(db *DB) *WebHookRepoImpl { return &WebHookRepoImpl{db: db} }

const webHookColumns = `id, name, description, url, status, consecutive_failure_count, register_time, created_by_uid`

const (
	qWebHookListWithCreator = `
SELECT w.id, w.name, w.description, w.url, w.status, w.consecutive_failure_count, w.register_time, w.created_by_uid,
       u.id, u.name, u.level, u.email, u.email_confirmed, u.register_time, u.update_time
FROM web_hook w
LEFT JOIN users u ON u.id = w.created_by_uid
ORDER BY w.register_time DESC;
`

	qWebHookInsert = `
INSERT INTO web_hook (name, description, url, created_by_uid)
VALUES ($1, $2, $3, $4)
RETURNING ` + webHookColumns + `;
`

	qWebHookGetForUpdate = `
SELECT ` + webHookColumns + `
FROM web_hook
WHERE id = $1
FOR UPDATE;
`

	qWebHookExists = `SELECT EXISTS (SELECT 1 FROM web_hook WHERE id = $1);`

	qWebHookUpdate = `
UPDATE web_hook
SET name                      = $2,
    description               = $3,
    url                       = $4,
    status                    = $5,
    consecutive_failure_count = $6
WHERE id = $1;
`

	qWebHookSetStatus = `UPDATE web_hook SET status = $2 WHERE id = $1;`

	qWebHookDelete = `DELETE FROM web_hook WHERE id = $1;`
)

func scanWebHook(row pgx.Row, w *webhook.WebHook) error {
	if err := row.Scan(
		&w.ID,
		&w.Name,
		&w.Description,
		&w.URL,
		&w.Status,
		&w.ConsecutiveFailureCount,
		&w.RegisterTime,
		&w.CreatedByUID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan web hook: %w", err)
	}
	return nil
}

func (r *WebHookRepoImpl) ListWithCreator(ctx context.Context) ([]*webhook.WithCreator, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qWebHookListWithCreator)
	if err != nil {
		return nil, fmt.Errorf("query web hooks: %w", err)
	}
	defer rows.Close()

	out := make([]*webhook.WithCreator, 0)
	for rows.Next() {
		var (
			w       webhook.WithCreator
			uid     *uuid.UUID
			name    *string
			level   *int
			email   *string
			emailOK *bool
			regTime *time.Time
			updTime *time.Time
		)
		if err := rows.Scan(
			&w.ID, &w.Name, &w.Description, &w.URL, &w.Status, &w.ConsecutiveFailureCount, &w.RegisterTime, &w.CreatedByUID,
			&uid, &name, &level, &email, &emailOK, &regTime, &updTime,
		); err != nil {
			return nil, fmt.Errorf("scan web hook: %w", err)
		}
		if uid != nil {
			u := user.User{ID: *uid, Email: email}
			if name != nil {
				u.Name = *name
			}
			if level != nil {
				u.Level = *level
			}
			if emailOK != nil {
				u.EmailConfirmed = *emailOK
			}
			if regTime != nil {
				u.RegisterTime = *regTime
			}
			if updTime != nil {
				u.UpdateTime = *updTime
			}
			w.Creator = u.Profile()
		}
		out = append(out, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *WebHookRepoImpl) Create(ctx context.Context, f webhook.Fields, createdBy uuid.UUID) (*webhook.WebHook, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var creator *uuid.UUID
	if createdBy != uuid.Nil {
		creator = &createdBy
	}

	var w webhook.WebHook
	row := r.db.execQueryer(ctx).QueryRow(ctx, qWebHookInsert, f.Name, f.Description, f.URL, creator)
	if err := scanWebHook(row, &w); err != nil {
		return nil, mapPgErr(err)
	}
	return &w, nil
}

func (r *WebHookRepoImpl) GetForUpdate(ctx context.Context, id uuid.UUID) (*webhook.WebHook, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var w webhook.WebHook
	if err := scanWebHook(r.db.execQueryer(ctx).QueryRow(ctx, qWebHookGetForUpdate, id), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WebHookRepoImpl) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var ok bool
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qWebHookExists, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("web hook exists: %w", err)
	}
	return ok, nil
}

func (r *WebHookRepoImpl) Update(ctx context.Context, id uuid.UUID, f webhook.Fields) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qWebHookUpdate,
		id, f.Name, f.Description, f.URL, f.Status, f.ConsecutiveFailureCount)
	if err != nil {
		return fmt.Errorf("update web hook: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WebHookRepoImpl) SetStatus(ctx context.Context, id uuid.UUID, s webhook.Status) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qWebHookSetStatus, id, s)
	if err != nil {
		return fmt.Errorf("set web hook status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WebHookRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qWebHookDelete, id)
	if err != nil {
		return fmt.Errorf("delete web hook: %w", mapPgErr(err))
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/NordCoder/Hookery/internal/domain/favorite"
)

var _ favorite.Repo = (*FavoriteRepoImpl)(nil)

type FavoriteRepoImpl struct{ db *DB }

func NewFavoriteRepo(db *DB) *FavoriteRepoImpl { return &FavoriteRepoImpl{db: db} }

const qFavoritesByUsers = `
SELECT DISTINCT ON (user_id, id) id, user_id, bangumi_id, status, update_time, check_time
FROM favorites
WHERE user_id = ANY($1)
ORDER BY user_id, id;
`

func (r *FavoriteRepoImpl) ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]*favorite.Favorite, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qFavoritesByUsers, userIDs)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var out []*favorite.Favorite
	for rows.Next() {
		var f favorite.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.BangumiID, &f.Status, &f.UpdateTime, &f.CheckTime); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

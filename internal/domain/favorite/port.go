package favorite

import (
	"context"

	"github.com/google/uuid"
)

type Repo interface {
	// ListByUsers returns the favorites of the given users, one row per
	// (user_id, id) pair.
	ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]*Favorite, error)
}

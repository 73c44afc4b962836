package webhook

import (
	"context"

	"github.com/google/uuid"
)

type Repo interface {
	ListWithCreator(ctx context.Context) ([]*WithCreator, error)
	Create(ctx context.Context, f Fields, createdBy uuid.UUID) (*WebHook, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*WebHook, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, f Fields) error
	SetStatus(ctx context.Context, id uuid.UUID, s Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type TokenRepo interface {
	ListByWebHook(ctx context.Context, webHookID uuid.UUID, tokenIDs []string) ([]*Token, error)
	ListWebHooksByUser(ctx context.Context, userID uuid.UUID) ([]*WebHook, error)
	Upsert(ctx context.Context, t *Token) error
	Delete(ctx context.Context, webHookID, userID uuid.UUID) error
	DeleteByWebHook(ctx context.Context, webHookID uuid.UUID) (int64, error)
}

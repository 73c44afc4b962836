package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/NordCoder/Hookery/internal/domain/user"
)

type Status int

const (
	StatusAlive    Status = 1
	StatusHasError Status = 2
	StatusDead     Status = 3
)

type WebHook struct {
	ID                      uuid.UUID  `json:"id"`
	Name                    string     `json:"name"`
	Description             string     `json:"description"`
	URL                     string     `json:"url"`
	Status                  Status     `json:"status"`
	ConsecutiveFailureCount int        `json:"consecutive_failure_count"`
	RegisterTime            time.Time  `json:"register_time"`
	CreatedByUID            *uuid.UUID `json:"created_by_uid"`
}

// WithCreator is a web hook joined with the public profile of the user who
// registered it. Creator is nil when that user no longer exists.
type WithCreator struct {
	WebHook
	Creator *user.Profile
}

// Fields is the writable part of a web hook.
type Fields struct {
	Name                    string `json:"name"`
	Description             string `json:"description"`
	URL                     string `json:"url"`
	Status                  Status `json:"status"`
	ConsecutiveFailureCount int    `json:"consecutive_failure_count"`
}

type Token struct {
	WebHookID uuid.UUID `json:"web_hook_id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenID   string    `json:"token_id"`
}

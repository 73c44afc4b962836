package favorite

import (
	"time"

	"github.com/google/uuid"
)

type Favorite struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	BangumiID  uuid.UUID `json:"bangumi_id"`
	Status     int       `json:"status"`
	UpdateTime time.Time `json:"update_time"`
	CheckTime  time.Time `json:"check_time"`
}

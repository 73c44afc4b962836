package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Password       string    `json:"-"`
	Level          int       `json:"level"`
	Email          *string   `json:"email"`
	EmailConfirmed bool      `json:"email_confirmed"`
	RegisterTime   time.Time `json:"register_time"`
	UpdateTime     time.Time `json:"update_time"`
}

// Profile is the part of a user that may be shown to other users.
type Profile struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Level          int       `json:"level"`
	Email          *string   `json:"email"`
	EmailConfirmed bool      `json:"email_confirmed"`
	RegisterTime   time.Time `json:"register_time"`
	UpdateTime     time.Time `json:"update_time"`
}

func (u *User) Profile() *Profile {
	if u == nil {
		return nil
	}
	return &Profile{
		ID:             u.ID,
		Name:           u.Name,
		Level:          u.Level,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmed,
		RegisterTime:   u.RegisterTime,
		UpdateTime:     u.UpdateTime,
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an account in the service. Email is stored lowercase so the
// unique index doubles as a case-insensitive uniqueness check.
type User struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name               string
	Email              string `gorm:"uniqueIndex"`
	PasswordHash       string
	RecoveryQuestion   string
	RecoveryAnswerHash string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PublicUser is the credential-free projection returned by user search.
type PublicUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Public strips everything other users may not see.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

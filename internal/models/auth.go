package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential holds the password of a locally managed account.
type Credential struct {
	UserID       uuid.UUID  `json:"-" gorm:"type:uuid;primaryKey"`
	PasswordHash string     `json:"-" gorm:"type:text;not null"`
	ConfirmedAt  *time.Time `json:"confirmedAt,omitempty"`
	CreatedAt    time.Time  `json:"-" gorm:"not null"`
	UpdatedAt    time.Time  `json:"-" gorm:"not null"`
	User         *User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Credential) TableName() string {
	return "credentials"
}

type ConfirmationKind string

const (
	ConfirmationSignup ConfirmationKind = "signup"
)

// ConfirmationCode is a one-time code mailed to a user. Only the hash is
// stored; the same code is accepted as a PKCE-style auth code or a token hash.
type ConfirmationCode struct {
	BaseModel
	UserID    uuid.UUID        `json:"-" gorm:"type:uuid;not null;index"`
	Kind      ConfirmationKind `json:"kind" gorm:"type:varchar(20);not null"`
	CodeHash  string           `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiresAt time.Time        `json:"expiresAt" gorm:"not null"`
	UsedAt    *time.Time       `json:"usedAt,omitempty"`
}

func (ConfirmationCode) TableName() string {
	return "confirmation_codes"
}

type Session struct {
	BaseModel
	UserID           uuid.UUID  `json:"userID" gorm:"type:uuid;not null;index"`
	RefreshTokenHash string     `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiresAt        time.Time  `json:"expiresAt" gorm:"not null"`
	RevokedAt        *time.Time `json:"revokedAt,omitempty"`
}

func (Session) TableName() string {
	return "sessions"
}

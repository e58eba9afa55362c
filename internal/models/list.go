package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListCategory string

const (
	ListCategoryMovies ListCategory = "movies"
	ListCategoryTV     ListCategory = "tv"
	ListCategoryBoth   ListCategory = "both"
)

type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Allows reports whether p grants at least the required permission.
func (p Permission) Allows(required Permission) bool {
	switch required {
	case PermissionRead:
		return p == PermissionRead || p == PermissionWrite
	case PermissionWrite:
		return p == PermissionWrite
	default:
		return false
	}
}

// List is the stored aggregate: the row plus every item and every share.
// Viewers never see it directly, see ListView.
type List struct {
	BaseModel
	UserID      uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index"`
	Name        string       `json:"name" gorm:"type:varchar(200);not null"`
	Description *string      `json:"description,omitempty" gorm:"type:text"`
	Category    ListCategory `json:"category" gorm:"type:varchar(10);not null;default:'both'"`
	Items       []ListItem   `json:"items" gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE"`
	Shares      []ListShare  `json:"shares,omitempty" gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE"`
	Owner       *User        `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

func (List) TableName() string {
	return "lists"
}

type ListItem struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ListID       uuid.UUID `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_list_items_list_tmdb"`
	TMDBID       int64     `json:"tmdbId" gorm:"column:tmdb_id;not null;uniqueIndex:idx_list_items_list_tmdb"`
	MediaType    MediaType `json:"type" gorm:"type:varchar(10);not null"`
	Title        string    `json:"title" gorm:"type:varchar(500);not null"`
	PosterPath   *string   `json:"posterPath,omitempty" gorm:"type:text"`
	BackdropPath *string   `json:"backdropPath,omitempty" gorm:"type:text"`
	ReleaseDate  *string   `json:"releaseDate,omitempty" gorm:"type:varchar(10)"`
	Rating       *float64  `json:"rating,omitempty"`
	Genre        []string  `json:"genre,omitempty" gorm:"type:text;serializer:json"`
	AddedAt      time.Time `json:"addedAt" gorm:"not null;index"`
}

func (i *ListItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.AddedAt.IsZero() {
		i.AddedAt = time.Now().UTC()
	}
	return nil
}

func (ListItem) TableName() string {
	return "list_items"
}

type ListShare struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	ListID           uuid.UUID  `json:"list_id" gorm:"type:uuid;not null;uniqueIndex:idx_list_shares_list_user"`
	SharedWithUserID uuid.UUID  `json:"shared_with_user_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_list_shares_list_user"`
	SharedByUserID   uuid.UUID  `json:"shared_by_user_id" gorm:"type:uuid;not null"`
	Permission       Permission `json:"permission" gorm:"type:varchar(10);not null;default:'write'"`
	CreatedAt        time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time  `json:"-" gorm:"not null"`
	SharedWithUser   *User      `json:"user_profile,omitempty" gorm:"foreignKey:SharedWithUserID;references:ID;constraint:OnDelete:CASCADE"`
}

func (s *ListShare) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (ListShare) TableName() string {
	return "list_shares"
}

// ListView is a List as seen by one principal. IsOwner and Permission are
// always computed; Shares is only filled in for the owner.
type ListView struct {
	List
	IsOwner    bool        `json:"isOwner"`
	Permission Permission  `json:"permission"`
	Shares     []ListShare `json:"shares,omitempty"`
}

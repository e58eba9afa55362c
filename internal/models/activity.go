package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity is one line in a user's feed. Rows are derived from audit
// entries and survive deletion of the list they mention.
type Activity struct {
	BaseModel
	UserID    uuid.UUID  `json:"userID" gorm:"type:uuid;not null;index:idx_activities_user_read"`
	ActorID   uuid.UUID  `json:"actorID" gorm:"type:uuid;not null"`
	Action    string     `json:"action" gorm:"type:varchar(50);not null"`
	ListID    *uuid.UUID `json:"listID,omitempty" gorm:"type:uuid;index"`
	ListName  string     `json:"listName" gorm:"type:varchar(200);not null"`
	ItemTitle string     `json:"itemTitle,omitempty" gorm:"type:varchar(500)"`
	Message   string     `json:"message" gorm:"type:text;not null"`
	IsRead    bool       `json:"isRead" gorm:"not null;default:false;index:idx_activities_user_read"`
	ReadAt    *time.Time `json:"readAt,omitempty"`

	Actor User `json:"actor,omitempty" gorm:"foreignKey:ActorID;references:ID"`
}

func (Activity) TableName() string {
	return "activities"
}

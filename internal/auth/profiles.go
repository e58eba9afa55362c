package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reelshare/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NormalizeEmail is the stored form of every profile email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SyncProfile upserts the profile projection of an externally managed account.
func SyncProfile(ctx context.Context, db *gorm.DB, id uuid.UUID, email string) error {
	now := time.Now().UTC()
	profile := models.User{ID: id, Email: NormalizeEmail(email), CreatedAt: now, UpdatedAt: now}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
	}).Create(&profile).Error
}

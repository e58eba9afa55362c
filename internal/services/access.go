package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/reelshare/backend/internal/models"
	"gorm.io/gorm"
)

// ListAccess is one principal's standing on one list.
type ListAccess struct {
	List       models.List
	IsOwner    bool
	Permission models.Permission
}

type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

// Resolve reads the list row and the caller's share straight from the
// database, never from the cache, and is the read gate for every list
// operation. Inaccessible and missing lists both yield ErrNotFound.
func (a *AccessService) Resolve(ctx context.Context, userID, listID uuid.UUID) (*ListAccess, error) {
	var list models.List
	if err := a.DB.WithContext(ctx).First(&list, "id = ?", listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("load list", err)
	}

	if list.UserID == userID {
		return &ListAccess{List: list, IsOwner: true, Permission: models.PermissionWrite}, nil
	}

	var share models.ListShare
	err := a.DB.WithContext(ctx).
		Where("list_id = ? AND shared_with_user_id = ?", listID, userID).
		First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("load share", err)
	}
	return &ListAccess{List: list, Permission: share.Permission}, nil
}

// SharedPermissions returns the caller's grant on each of listIDs that is
// shared with them. Lists without a grant are absent from the map.
func (a *AccessService) SharedPermissions(ctx context.Context, userID uuid.UUID, listIDs []uuid.UUID) (map[uuid.UUID]models.Permission, error) {
	perms := make(map[uuid.UUID]models.Permission, len(listIDs))
	if len(listIDs) == 0 {
		return perms, nil
	}
	var shares []models.ListShare
	if err := a.DB.WithContext(ctx).Select("list_id", "permission").
		Where("shared_with_user_id = ? AND list_id IN ?", userID, listIDs).
		Find(&shares).Error; err != nil {
		return nil, storageError("load shares", err)
	}
	for _, s := range shares {
		perms[s.ListID] = s.Permission
	}
	return perms, nil
}

// RequireWrite admits the owner and write-share holders. Read-share holders
// get ErrPermissionDenied since they can already see the list.
func (a *AccessService) RequireWrite(ctx context.Context, userID, listID uuid.UUID) (*ListAccess, error) {
	acc, err := a.Resolve(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if !acc.Permission.Allows(models.PermissionWrite) {
		return nil, ErrPermissionDenied
	}
	return acc, nil
}

func (a *AccessService) RequireOwner(ctx context.Context, userID, listID uuid.UUID) (*ListAccess, error) {
	acc, err := a.Resolve(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if !acc.IsOwner {
		return nil, ErrPermissionDenied
	}
	return acc, nil
}

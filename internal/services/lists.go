package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reelshare/backend/internal/auth"
	"github.com/reelshare/backend/internal/cache"
	"github.com/reelshare/backend/internal/models"
	"github.com/reelshare/backend/internal/validate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultUserSearchLimit = 10
	maxUserSearchLimit     = 50
)

type CreateListInput struct {
	Name        string              `json:"name" validate:"required,max=200"`
	Description *string             `json:"description" validate:"omitempty,max=1000"`
	Category    models.ListCategory `json:"category" validate:"omitempty,oneof=movies tv both"`
}

// UpdateListInput is a partial update. Nil fields are left alone; an empty
// description clears it.
type UpdateListInput struct {
	Name        *string              `json:"name" validate:"omitempty,max=200"`
	Description *string              `json:"description" validate:"omitempty,max=1000"`
	Category    *models.ListCategory `json:"category" validate:"omitempty,oneof=movies tv both"`
}

type ItemInput struct {
	TMDBID       int64            `json:"tmdbId" validate:"gt=0"`
	MediaType    models.MediaType `json:"type" validate:"required,oneof=movie tv"`
	Title        string           `json:"title" validate:"required,max=500"`
	PosterPath   *string          `json:"posterPath"`
	BackdropPath *string          `json:"backdropPath"`
	ReleaseDate  *string          `json:"releaseDate" validate:"omitempty,datetime=2006-01-02"`
	Rating       *float64         `json:"rating" validate:"omitempty,gte=0,lte=10"`
	Genre        []string         `json:"genre"`
}

// ListRepository is the only path to list, item and share rows. Every
// operation takes the caller explicitly; nil means unauthenticated.
type ListRepository struct {
	DB     *gorm.DB
	Access *AccessService
	Cache  *cache.Cache
	Audit  *AuditService
	now    func() time.Time
}

func NewListRepository(db *gorm.DB, c *cache.Cache, audit *AuditService) *ListRepository {
	if c == nil {
		c = cache.New(nil, 0)
	}
	return &ListRepository{
		DB:     db,
		Access: NewAccessService(db),
		Cache:  c,
		Audit:  audit,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *ListRepository) GetLists(ctx context.Context, p *auth.Principal) ([]models.ListView, error) {
	if p == nil {
		return []models.ListView{}, nil
	}

	ids, err := r.visibleListIDs(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	lists, err := r.loadAggregates(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Cached ids and aggregates may trail a revoke, so grants are checked
	// against the database. Ownership never changes.
	var sharedIDs []uuid.UUID
	for _, id := range ids {
		if list, ok := lists[id]; ok && list.UserID != p.ID {
			sharedIDs = append(sharedIDs, id)
		}
	}
	perms, err := r.Access.SharedPermissions(ctx, p.ID, sharedIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.ListView, 0, len(ids))
	for _, id := range ids {
		list, ok := lists[id]
		if !ok {
			continue
		}
		acc := ListAccess{IsOwner: list.UserID == p.ID, Permission: models.PermissionWrite}
		if !acc.IsOwner {
			if acc.Permission, ok = perms[id]; !ok {
				continue
			}
		}
		views = append(views, *project(list, acc))
	}
	return views, nil
}

func (r *ListRepository) GetList(ctx context.Context, p *auth.Principal, listID uuid.UUID) (*models.ListView, error) {
	if p == nil {
		return nil, ErrNotFound
	}
	acc, err := r.Access.Resolve(ctx, p.ID, listID)
	if err != nil {
		return nil, err
	}
	list, err := r.getAggregate(ctx, listID)
	if err != nil {
		return nil, err
	}
	return project(list, *acc), nil
}

func (r *ListRepository) AddList(ctx context.Context, p *auth.Principal, input CreateListInput) (*models.ListView, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Description = trimmedOrNil(input.Description)
	if errs := validate.Map(input); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}
	if input.Category == "" {
		input.Category = models.ListCategoryBoth
	}

	list := models.List{
		UserID:      p.ID,
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
	}
	if err := r.DB.WithContext(ctx).Omit("Items", "Shares", "Owner").Create(&list).Error; err != nil {
		return nil, storageError("create list", err)
	}

	r.Cache.Invalidate(ctx, cache.ListInvalidation(list.ID, p.ID)...)
	r.record(ctx, p, ActionListCreate, list.ID, map[string]interface{}{
		"list_name": list.Name,
		"category":  string(list.Category),
	})

	list.Items = []models.ListItem{}
	return &models.ListView{List: list, IsOwner: true, Permission: models.PermissionWrite}, nil
}

func (r *ListRepository) UpdateList(ctx context.Context, p *auth.Principal, listID uuid.UUID, input UpdateListInput) (*models.ListView, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	acc, err := r.Access.RequireWrite(ctx, p.ID, listID)
	if err != nil {
		return nil, err
	}

	if errs := validate.Map(input); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, invalid("name", "is required")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		// Explicit empty clears the column.
		updates["description"] = trimmedOrNil(input.Description)
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}

	if len(updates) > 0 {
		updates["updated_at"] = r.now()
		if err := r.DB.WithContext(ctx).Model(&models.List{}).Where("id = ?", listID).Updates(updates).Error; err != nil {
			return nil, storageError("update list", err)
		}

		audience, err := r.audience(ctx, &acc.List)
		if err != nil {
			return nil, err
		}
		r.Cache.Invalidate(ctx, cache.ListInvalidation(listID, audience...)...)

		fields := make([]string, 0, len(updates))
		for k := range updates {
			if k != "updated_at" {
				fields = append(fields, k)
			}
		}
		sort.Strings(fields)
		name := acc.List.Name
		if n, ok := updates["name"].(string); ok {
			name = n
		}
		r.record(ctx, p, ActionListUpdate, listID, map[string]interface{}{
			"list_name":       name,
			"fields":          fields,
			"notify_user_ids": idStrings(audience),
		})
	}

	return r.GetList(ctx, p, listID)
}

func (r *ListRepository) DeleteList(ctx context.Context, p *auth.Principal, listID uuid.UUID) error {
	if p == nil {
		return ErrUnauthenticated
	}
	acc, err := r.Access.RequireOwner(ctx, p.ID, listID)
	if err != nil {
		return err
	}
	audience, err := r.audience(ctx, &acc.List)
	if err != nil {
		return err
	}

	// Not every driver enforces the cascade.
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", listID).Delete(&models.ListItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("list_id = ?", listID).Delete(&models.ListShare{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", listID).Delete(&models.List{}).Error
	})
	if err != nil {
		return storageError("delete list", err)
	}

	r.Cache.Invalidate(ctx, cache.ListInvalidation(listID, audience...)...)
	r.record(ctx, p, ActionListDelete, listID, map[string]interface{}{
		"list_name":       acc.List.Name,
		"notify_user_ids": idStrings(audience),
	})
	return nil
}

// AddItemToList upserts by (list, tmdbId). A repeat add refreshes display
// fields and keeps the original id and addedAt.
func (r *ListRepository) AddItemToList(ctx context.Context, p *auth.Principal, listID uuid.UUID, input ItemInput) (*models.ListItem, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	acc, err := r.Access.RequireWrite(ctx, p.ID, listID)
	if err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	if errs := validate.Map(input); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	now := r.now()
	row := models.ListItem{
		ListID:       listID,
		TMDBID:       input.TMDBID,
		MediaType:    input.MediaType,
		Title:        input.Title,
		PosterPath:   input.PosterPath,
		BackdropPath: input.BackdropPath,
		ReleaseDate:  input.ReleaseDate,
		Rating:       input.Rating,
		Genre:        input.Genre,
		AddedAt:      now,
	}

	var saved models.ListItem
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "list_id"}, {Name: "tmdb_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"media_type", "title", "poster_path", "backdrop_path", "release_date", "rating", "genre",
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		if err := tx.Model(&models.List{}).Where("id = ?", listID).Update("updated_at", now).Error; err != nil {
			return err
		}
		return tx.Where("list_id = ? AND tmdb_id = ?", listID, input.TMDBID).First(&saved).Error
	})
	if err != nil {
		return nil, storageError("add item", err)
	}

	audience, err := r.audience(ctx, &acc.List)
	if err != nil {
		return nil, err
	}
	r.Cache.Invalidate(ctx, cache.ListInvalidation(listID, audience...)...)
	r.record(ctx, p, ActionItemAdd, listID, map[string]interface{}{
		"list_name":       acc.List.Name,
		"title":           saved.Title,
		"tmdb_id":         saved.TMDBID,
		"notify_user_ids": idStrings(audience),
	})
	return &saved, nil
}

// RemoveItemFromList deletes every item of the list carrying tmdbID.
// Removing an absent title succeeds.
func (r *ListRepository) RemoveItemFromList(ctx context.Context, p *auth.Principal, listID uuid.UUID, tmdbID int64) error {
	if p == nil {
		return ErrUnauthenticated
	}
	acc, err := r.Access.RequireWrite(ctx, p.ID, listID)
	if err != nil {
		return err
	}

	var titles []string
	var removed int64
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ListItem{}).
			Where("list_id = ? AND tmdb_id = ?", listID, tmdbID).
			Pluck("title", &titles).Error; err != nil {
			return err
		}
		res := tx.Where("list_id = ? AND tmdb_id = ?", listID, tmdbID).Delete(&models.ListItem{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		if removed == 0 {
			return nil
		}
		return tx.Model(&models.List{}).Where("id = ?", listID).Update("updated_at", r.now()).Error
	})
	if err != nil {
		return storageError("remove item", err)
	}
	if removed == 0 {
		return nil
	}

	audience, err := r.audience(ctx, &acc.List)
	if err != nil {
		return err
	}
	r.Cache.Invalidate(ctx, cache.ListInvalidation(listID, audience...)...)

	title := ""
	if len(titles) > 0 {
		title = titles[0]
	}
	r.record(ctx, p, ActionItemRemove, listID, map[string]interface{}{
		"list_name":       acc.List.Name,
		"title":           title,
		"tmdb_id":         tmdbID,
		"notify_user_ids": idStrings(audience),
	})
	return nil
}

// ShareList grants email's account access to the list. An existing grant
// for the same account is updated in place.
func (r *ListRepository) ShareList(ctx context.Context, p *auth.Principal, listID uuid.UUID, email string, permission models.Permission) (*models.ListShare, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	acc, err := r.Access.RequireOwner(ctx, p.ID, listID)
	if err != nil {
		return nil, err
	}

	email = auth.NormalizeEmail(email)
	if msg := validate.Var(email, "required,email"); msg != "" {
		return nil, invalid("email", msg)
	}
	if permission == "" {
		permission = models.PermissionWrite
	}
	if permission != models.PermissionRead && permission != models.PermissionWrite {
		return nil, invalid("permission", "must be one of read write")
	}
	if r.isOwnEmail(ctx, p, email) {
		return nil, invalid("email", "cannot share a list with yourself")
	}

	candidates, err := r.SearchUsers(ctx, p, email, maxUserSearchLimit)
	if err != nil {
		return nil, err
	}
	var target *models.User
	for i := range candidates {
		if strings.EqualFold(candidates[i].Email, email) {
			target = &candidates[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}

	now := r.now()
	existed := false
	var saved models.ListShare
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ListShare{}).
			Where("list_id = ? AND shared_with_user_id = ?", listID, target.ID).
			Count(&count).Error; err != nil {
			return err
		}
		existed = count > 0

		row := models.ListShare{
			ListID:           listID,
			SharedWithUserID: target.ID,
			SharedByUserID:   p.ID,
			Permission:       permission,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		err := tx.Omit("SharedWithUser").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "list_id"}, {Name: "shared_with_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"permission", "shared_by_user_id", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		return tx.Preload("SharedWithUser").
			Where("list_id = ? AND shared_with_user_id = ?", listID, target.ID).
			First(&saved).Error
	})
	if err != nil {
		return nil, storageError("share list", err)
	}

	audience, err := r.audience(ctx, &acc.List)
	if err != nil {
		return nil, err
	}
	r.Cache.Invalidate(ctx, cache.ListInvalidation(listID, append(audience, target.ID)...)...)

	action := ActionShareCreate
	if existed {
		action = ActionShareUpdate
	}
	r.record(ctx, p, action, listID, map[string]interface{}{
		"list_name":           acc.List.Name,
		"email":               target.Email,
		"shared_with_user_id": target.ID.String(),
		"permission":          string(permission),
	})
	return &saved, nil
}

// UnshareList revokes userID's grant. A missing grant is not an error.
func (r *ListRepository) UnshareList(ctx context.Context, p *auth.Principal, listID, userID uuid.UUID) error {
	if p == nil {
		return ErrUnauthenticated
	}
	acc, err := r.Access.RequireOwner(ctx, p.ID, listID)
	if err != nil {
		return err
	}

	res := r.DB.WithContext(ctx).
		Where("list_id = ? AND shared_with_user_id = ?", listID, userID).
		Delete(&models.ListShare{})
	if res.Error != nil {
		return storageError("unshare list", res.Error)
	}

	audience, err := r.audience(ctx, &acc.List)
	if err != nil {
		return err
	}
	r.Cache.Invalidate(ctx, cache.ListInvalidation(listID, append(audience, userID)...)...)

	if res.RowsAffected > 0 {
		r.record(ctx, p, ActionShareDelete, listID, map[string]interface{}{
			"list_name":           acc.List.Name,
			"shared_with_user_id": userID.String(),
		})
	}
	return nil
}

// SearchUsers matches profiles whose email contains query, shortest first,
// so an exact address always leads the result. The caller is excluded.
func (r *ListRepository) SearchUsers(ctx context.Context, p *auth.Principal, query string, limit int) ([]models.User, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []models.User{}, nil
	}
	if limit <= 0 {
		limit = defaultUserSearchLimit
	}
	if limit > maxUserSearchLimit {
		limit = maxUserSearchLimit
	}

	users := []models.User{}
	err := r.DB.WithContext(ctx).
		Where("LOWER(email) LIKE ? ESCAPE '\\'", "%"+escapeLike(query)+"%").
		Where("id <> ?", p.ID).
		Order("LENGTH(email) ASC, email ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, storageError("search users", err)
	}
	return users, nil
}

func (r *ListRepository) visibleListIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	key := cache.UserListsKey(userID)
	var ids []uuid.UUID
	if r.Cache.GetJSON(ctx, key, &ids) {
		return ids, nil
	}
	gen := r.Cache.Generation()

	shared := r.DB.Model(&models.ListShare{}).Select("list_id").Where("shared_with_user_id = ?", userID)
	ids = []uuid.UUID{}
	err := r.DB.WithContext(ctx).Model(&models.List{}).
		Where("user_id = ? OR id IN (?)", userID, shared).
		Order("created_at DESC, id DESC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, storageError("list visible lists", err)
	}

	r.Cache.Fill(ctx, key, ids, gen)
	return ids, nil
}

func (r *ListRepository) aggregateQuery(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC, id ASC")
		}).
		Preload("Shares", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Shares.SharedWithUser")
}

// loadAggregates serves what it can from the cache and batch-loads the rest.
func (r *ListRepository) loadAggregates(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.List, error) {
	out := make(map[uuid.UUID]*models.List, len(ids))
	var missing []uuid.UUID
	for _, id := range ids {
		var list models.List
		if r.Cache.GetJSON(ctx, cache.ListKey(id), &list) {
			out[id] = &list
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	gen := r.Cache.Generation()
	var lists []models.List
	if err := r.aggregateQuery(ctx).Where("id IN ?", missing).Find(&lists).Error; err != nil {
		return nil, storageError("load lists", err)
	}
	for i := range lists {
		r.Cache.Fill(ctx, cache.ListKey(lists[i].ID), &lists[i], gen)
		out[lists[i].ID] = &lists[i]
	}
	return out, nil
}

func (r *ListRepository) getAggregate(ctx context.Context, listID uuid.UUID) (*models.List, error) {
	var list models.List
	key := cache.ListKey(listID)
	if r.Cache.GetJSON(ctx, key, &list) {
		return &list, nil
	}
	gen := r.Cache.Generation()
	if err := r.aggregateQuery(ctx).First(&list, "id = ?", listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("load list", err)
	}
	r.Cache.Fill(ctx, key, &list, gen)
	return &list, nil
}

// audience is the owner plus every current share target.
func (r *ListRepository) audience(ctx context.Context, list *models.List) ([]uuid.UUID, error) {
	var targets []uuid.UUID
	if err := r.DB.WithContext(ctx).Model(&models.ListShare{}).
		Where("list_id = ?", list.ID).
		Pluck("shared_with_user_id", &targets).Error; err != nil {
		return nil, storageError("load share targets", err)
	}
	return append([]uuid.UUID{list.UserID}, targets...), nil
}

func (r *ListRepository) isOwnEmail(ctx context.Context, p *auth.Principal, email string) bool {
	if p.Email != "" {
		return strings.EqualFold(p.Email, email)
	}
	var self models.User
	if err := r.DB.WithContext(ctx).Select("email").First(&self, "id = ?", p.ID).Error; err != nil {
		return false
	}
	return strings.EqualFold(self.Email, email)
}

func (r *ListRepository) record(ctx context.Context, p *auth.Principal, action string, listID uuid.UUID, details map[string]interface{}) {
	if r.Audit == nil {
		return
	}
	actor := p.ID
	r.Audit.Record(ctx, AuditEntry{
		UserID:  &actor,
		Action:  action,
		ListID:  &listID,
		Details: details,
	})
}

// project renders the aggregate for a viewer whose access was already
// checked. Only the owner sees shares.
func project(list *models.List, acc ListAccess) *models.ListView {
	view := &models.ListView{List: *list, IsOwner: acc.IsOwner, Permission: acc.Permission}
	if view.Items == nil {
		view.Items = []models.ListItem{}
	}
	view.List.Shares = nil
	if acc.IsOwner {
		view.Shares = list.Shares
	}
	return view
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reelshare/backend/internal/models"
	"github.com/reelshare/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	ActionListCreate  = "list.create"
	ActionListUpdate  = "list.update"
	ActionListDelete  = "list.delete"
	ActionItemAdd     = "item.add"
	ActionItemRemove  = "item.remove"
	ActionShareCreate = "share.create"
	ActionShareUpdate = "share.update"
	ActionShareDelete = "share.delete"
)

type AuditEntry struct {
	UserID    *uuid.UUID
	Action    string
	ListID    *uuid.UUID
	Details   map[string]interface{}
	IPAddress string
	RequestID string
}

type requestMetaKey struct{}

type RequestMeta struct {
	IPAddress string
	RequestID string
}

// WithRequestMeta attaches the caller's address and request id so audit
// rows written deeper in the stack can carry them.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func requestMeta(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// AuditService persists audit rows off the request path and derives the
// activity feed from them.
type AuditService struct {
	DB    *gorm.DB
	queue chan models.AuditLog
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAuditService(db *gorm.DB) *AuditService {
	s := &AuditService{
		DB:    db,
		queue: make(chan models.AuditLog, 1000),
		done:  make(chan struct{}),
	}
	go s.processQueue()
	return s
}

// Record queues an entry, filling request metadata from ctx.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	meta := requestMeta(ctx)
	if entry.IPAddress == "" {
		entry.IPAddress = meta.IPAddress
	}
	if entry.RequestID == "" {
		entry.RequestID = meta.RequestID
	}
	s.LogAsync(entry)
}

func (s *AuditService) LogAsync(entry AuditEntry) {
	row := models.AuditLog{
		UserID:    entry.UserID,
		Action:    entry.Action,
		ListID:    entry.ListID,
		ListName:  detailString(entry.Details, "list_name"),
		Details:   entry.Details,
		IPAddress: entry.IPAddress,
		RequestID: entry.RequestID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logger.Warn("audit_queue_closed", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
		return
	}

	select {
	case s.queue <- row:
	default:
		logger.Warn("audit_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

// Close stops accepting entries and waits for queued ones to be written.
func (s *AuditService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		if err := s.DB.Create(&row).Error; err != nil {
			logger.Error("audit_log_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
			continue
		}
		s.generateActivities(row)
	}
}

func (s *AuditService) generateActivities(log models.AuditLog) {
	if log.UserID == nil {
		return
	}

	var otherActivities []models.Activity

	switch log.Action {
	case ActionShareCreate, ActionShareUpdate, ActionShareDelete:
		otherActivities = s.activitiesForShareTarget(log)
	case ActionItemAdd, ActionItemRemove, ActionListUpdate, ActionListDelete:
		otherActivities = s.activitiesForAudience(log)
	}

	for i := range otherActivities {
		if otherActivities[i].UserID == *log.UserID {
			continue
		}
		if err := s.DB.Create(&otherActivities[i]).Error; err != nil {
			logger.Error("activity_insert_failed", err, map[string]interface{}{
				"action":  log.Action,
				"user_id": otherActivities[i].UserID.String(),
			})
		}
	}

	selfActivity := s.selfActivityForAction(log)
	if selfActivity != nil {
		if err := s.DB.Create(selfActivity).Error; err != nil {
			logger.Error("self_activity_insert_failed", err, map[string]interface{}{
				"action": log.Action,
			})
		}
	}
}

func (s *AuditService) selfActivityForAction(log models.AuditLog) *models.Activity {
	listName := log.ListName
	itemTitle := detailString(log.Details, "title")

	var message string
	switch log.Action {
	case ActionListCreate:
		message = fmt.Sprintf("You created \"%s\"", listName)
	case ActionListUpdate:
		message = fmt.Sprintf("You updated \"%s\"", listName)
	case ActionListDelete:
		message = fmt.Sprintf("You deleted \"%s\"", listName)
	case ActionItemAdd:
		message = fmt.Sprintf("You added \"%s\" to \"%s\"", itemTitle, listName)
	case ActionItemRemove:
		message = fmt.Sprintf("You removed \"%s\" from \"%s\"", itemTitle, listName)
	case ActionShareCreate:
		message = fmt.Sprintf("You shared \"%s\" with %s", listName, detailString(log.Details, "email"))
	case ActionShareUpdate:
		message = fmt.Sprintf("You changed sharing on \"%s\"", listName)
	case ActionShareDelete:
		message = fmt.Sprintf("You stopped sharing \"%s\"", listName)
	default:
		return nil
	}

	return &models.Activity{
		UserID:    *log.UserID,
		ActorID:   *log.UserID,
		Action:    log.Action,
		ListID:    log.ListID,
		ListName:  listName,
		ItemTitle: itemTitle,
		Message:   message,
	}
}

func (s *AuditService) activitiesForShareTarget(log models.AuditLog) []models.Activity {
	target, err := uuid.Parse(detailString(log.Details, "shared_with_user_id"))
	if err != nil {
		return nil
	}

	listName := log.ListName
	actorName := s.getActorName(*log.UserID)

	var message string
	switch log.Action {
	case ActionShareCreate:
		message = fmt.Sprintf("%s shared \"%s\" with you", actorName, listName)
	case ActionShareUpdate:
		message = fmt.Sprintf("%s gave you %s access to \"%s\"", actorName, detailString(log.Details, "permission"), listName)
	case ActionShareDelete:
		message = fmt.Sprintf("%s removed your access to \"%s\"", actorName, listName)
	}

	return []models.Activity{{
		UserID:   target,
		ActorID:  *log.UserID,
		Action:   log.Action,
		ListID:   log.ListID,
		ListName: listName,
		Message:  message,
	}}
}

func (s *AuditService) activitiesForAudience(log models.AuditLog) []models.Activity {
	rawIDs, ok := log.Details["notify_user_ids"]
	if !ok || rawIDs == nil {
		return nil
	}
	idSlice, ok := rawIDs.([]string)
	if !ok {
		return nil
	}

	listName := log.ListName
	itemTitle := detailString(log.Details, "title")
	actorName := s.getActorName(*log.UserID)

	var message string
	switch log.Action {
	case ActionItemAdd:
		message = fmt.Sprintf("%s added \"%s\" to \"%s\"", actorName, itemTitle, listName)
	case ActionItemRemove:
		message = fmt.Sprintf("%s removed \"%s\" from \"%s\"", actorName, itemTitle, listName)
	case ActionListUpdate:
		message = fmt.Sprintf("%s updated \"%s\"", actorName, listName)
	case ActionListDelete:
		message = fmt.Sprintf("%s deleted \"%s\"", actorName, listName)
	}

	result := make([]models.Activity, 0, len(idSlice))
	for _, idStr := range idSlice {
		uid, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		result = append(result, models.Activity{
			UserID:    uid,
			ActorID:   *log.UserID,
			Action:    log.Action,
			ListID:    log.ListID,
			ListName:  listName,
			ItemTitle: itemTitle,
			Message:   message,
		})
	}
	return result
}

func (s *AuditService) getActorName(userID uuid.UUID) string {
	var user models.User
	if err := s.DB.Select("email").First(&user, "id = ?", userID).Error; err != nil {
		return "Someone"
	}
	return user.Email
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func detailString(details map[string]interface{}, key string) string {
	if details == nil {
		return ""
	}
	v, ok := details[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return s
}

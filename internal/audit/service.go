package audit

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/audioshelf/internal/database/audit"
	"github.com/mrlokans/audioshelf/internal/entities"
)

type requestIDKey struct{}

// WithRequestID returns a context carrying a request id for audit events.
// An empty id is replaced by a fresh UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every event queued with LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogCatalog records an administrative change to a book, chapter, category or tag.
func (s *Service) LogCatalog(ctx context.Context, userID uint, action, entityType string, entityID uint, description string) {
	event := &entities.AuditEvent{
		UserID:      userID,
		RequestID:   RequestIDFrom(ctx),
		EventType:   entities.AuditEventCatalog,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogDelete records a deletion along with how many dependent rows went with it.
func (s *Service) LogDelete(ctx context.Context, userID uint, entityType string, entityID uint, entityName string, removed map[string]int64) {
	event := &entities.AuditEvent{
		UserID:      userID,
		RequestID:   RequestIDFrom(ctx),
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: truncate("Deleted "+entityType+": "+entityName, 500),
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	}

	if len(removed) > 0 {
		if mdBytes, err := json.Marshal(removed); err == nil {
			event.Metadata = string(mdBytes)
		}
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogReview records a new review.
func (s *Service) LogReview(ctx context.Context, userID, bookID uint, rating int) {
	metadata, _ := json.Marshal(map[string]int{"rating": rating})
	event := &entities.AuditEvent{
		UserID:     userID,
		RequestID:  RequestIDFrom(ctx),
		EventType:  entities.AuditEventReview,
		Action:     "review_create",
		EntityType: "book",
		EntityID:   &bookID,
		Metadata:   string(metadata),
		Status:     entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogCleanup records a retention run. It writes synchronously because it
// runs on a background worker already.
func (s *Service) LogCleanup(deleted int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSchedule,
		Action:      "audit_cleanup",
		Description: "Removed expired audit events",
		Status:      entities.AuditStatusSuccess,
	}
	if mdBytes, e := json.Marshal(map[string]int64{"deleted": deleted}); e == nil {
		event.Metadata = string(mdBytes)
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	if logErr := s.repo.LogEvent(event); logErr != nil {
		log.Printf("Failed to log audit cleanup: %v", logErr)
	}
}

// ListEvents retrieves paginated audit events.
func (s *Service) ListEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.ListEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

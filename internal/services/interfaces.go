package services

import "context"

// AuditRecorder receives a record of every successful mutation.
// *audit.Service implements it.
type AuditRecorder interface {
	LogCatalog(ctx context.Context, userID uint, action, entityType string, entityID uint, description string)
	LogDelete(ctx context.Context, userID uint, entityType string, entityID uint, entityName string, removed map[string]int64)
	LogReview(ctx context.Context, userID, bookID uint, rating int)
}

type noopAuditor struct{}

func (noopAuditor) LogCatalog(context.Context, uint, string, string, uint, string) {}

func (noopAuditor) LogDelete(context.Context, uint, string, uint, string, map[string]int64) {}

func (noopAuditor) LogReview(context.Context, uint, uint, int) {}

func auditorOrNoop(a AuditRecorder) AuditRecorder {
	if a == nil {
		return noopAuditor{}
	}
	return a
}

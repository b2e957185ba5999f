package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/domainerr"
)

// storeError converts a repository error into a domain error. A missing
// row becomes NotFound described by the format arguments, a unique index
// violation becomes Conflict and anything else is Internal.
func storeError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var domainErr *domainerr.Error
	if errors.As(err, &domainErr) {
		return err
	}
	what := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainerr.NotFoundf("%s not found", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domainerr.Conflictf("%s already exists", what)
	default:
		return domainerr.Internal(err, "failed to access "+what)
	}
}

// dedupe drops repeated ids while keeping the first occurrence order.
func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

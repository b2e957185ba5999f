package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/database"
	"github.com/mrlokans/audioshelf/internal/entities"
	"github.com/mrlokans/audioshelf/internal/validation"
)

type auditCall struct {
	Action     string
	EntityType string
	EntityID   uint
	Removed    map[string]int64
}

// recordingAuditor keeps every audit call for assertions.
type recordingAuditor struct {
	mu    sync.Mutex
	calls []auditCall
}

func (r *recordingAuditor) LogCatalog(_ context.Context, _ uint, action, entityType string, entityID uint, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, auditCall{Action: action, EntityType: entityType, EntityID: entityID})
}

func (r *recordingAuditor) LogDelete(_ context.Context, _ uint, entityType string, entityID uint, _ string, removed map[string]int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, auditCall{Action: entityType + "_delete", EntityType: entityType, EntityID: entityID, Removed: removed})
}

func (r *recordingAuditor) LogReview(_ context.Context, _ uint, bookID uint, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, auditCall{Action: "review_create", EntityType: "book", EntityID: bookID})
}

func (r *recordingAuditor) Calls() []auditCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auditCall(nil), r.calls...)
}

type testEnv struct {
	db       *gorm.DB
	catalog  *CatalogService
	progress *ProgressTracker
	reviews  *ReviewLedger
	audit    *recordingAuditor
	admin    Actor
	alice    Actor
	bob      Actor
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewDatabase(database.Options{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	auditor := &recordingAuditor{}
	v := validation.New()
	env := &testEnv{
		db:       db.DB,
		catalog:  NewCatalogService(db.DB, v, auditor),
		progress: NewProgressTracker(db.DB),
		reviews:  NewReviewLedger(db.DB, v, auditor),
		audit:    auditor,
	}
	env.admin = env.createUser(t, "admin", true)
	env.alice = env.createUser(t, "alice", false)
	env.bob = env.createUser(t, "bob", false)
	return env
}

func (e *testEnv) createUser(t *testing.T, username string, admin bool) Actor {
	t.Helper()
	user := &entities.User{Username: username, PasswordHash: "x", IsAdmin: admin}
	require.NoError(t, e.db.Create(user).Error)
	return Actor{UserID: user.ID, Username: username, Admin: admin}
}

func (e *testEnv) createBook(t *testing.T, title string) *entities.Book {
	t.Helper()
	book, err := e.catalog.CreateBook(context.Background(), e.admin, BookInput{Title: title})
	require.NoError(t, err)
	return book
}

func (e *testEnv) addChapter(t *testing.T, bookID uint, title string, position *int) *entities.Chapter {
	t.Helper()
	chapter, err := e.catalog.AddChapter(context.Background(), e.admin, bookID, ChapterInput{
		Title:    title,
		Position: position,
		AudioURL: "https://example.com/" + title + ".mp3",
	})
	require.NoError(t, err)
	return chapter
}

func (e *testEnv) count(t *testing.T, table, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Table(table).Where(where, args...).Count(&n).Error)
	return n
}

func intPtr(v int) *int { return &v }
func uintPtr(v uint) *uint { return &v }

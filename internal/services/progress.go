package services

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/database/books"
	"github.com/mrlokans/audioshelf/internal/database/progress"
	"github.com/mrlokans/audioshelf/internal/database/users"
	"github.com/mrlokans/audioshelf/internal/domainerr"
	"github.com/mrlokans/audioshelf/internal/entities"
)

// FinishOutcome reports what Finish did.
type FinishOutcome int

const (
	// FinishUpdated means the user's record is now finished.
	FinishUpdated FinishOutcome = iota
	// FinishNoRecord means the user never saved or started the book; nothing changed.
	FinishNoRecord
)

func (o FinishOutcome) String() string {
	if o == FinishNoRecord {
		return "no_record"
	}
	return "finished"
}

// Shelf partitions a user's records by status.
type Shelf struct {
	Saved            []entities.UserBook `json:"saved"`
	CurrentlyReading []entities.UserBook `json:"currently_reading"`
	Finished         []entities.UserBook `json:"finished"`
}

// DashboardEntry is one book on the dashboard with the chapter playback
// would resume from.
type DashboardEntry struct {
	entities.UserBook
	ResumeChapterID *uint `json:"resume_chapter_id,omitempty"`
}

type Dashboard struct {
	Saved            []DashboardEntry `json:"saved"`
	CurrentlyReading []DashboardEntry `json:"currently_reading"`
	Finished         []DashboardEntry `json:"finished"`
}

// ProgressTracker maintains each user's per-book listening state. At most
// one record per user is currently_reading.
type ProgressTracker struct {
	db *gorm.DB
}

func NewProgressTracker(db *gorm.DB) *ProgressTracker {
	return &ProgressTracker{db: db}
}

// Activate makes bookID the user's only currently_reading book, creating the
// record if needed and pointing it at chapterID when one is given.
func (t *ProgressTracker) Activate(ctx context.Context, actor Actor, bookID uint, chapterID *uint) (*entities.UserBook, error) {
	return t.transition(ctx, actor, bookID, chapterID, entities.StatusCurrentlyReading)
}

// Defer marks the book saved for later. Other records are untouched.
func (t *ProgressTracker) Defer(ctx context.Context, actor Actor, bookID uint, chapterID *uint) (*entities.UserBook, error) {
	return t.transition(ctx, actor, bookID, chapterID, entities.StatusSaved)
}

func (t *ProgressTracker) transition(ctx context.Context, actor Actor, bookID uint, chapterID *uint, status entities.ListeningStatus) (*entities.UserBook, error) {
	if err := actor.requireUser(); err != nil {
		return nil, err
	}

	var record *entities.UserBook
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := users.NewRepository(tx).LockUser(actor.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerr.Unauthorized("unknown user")
			}
			return storeError(err, "user %d", actor.UserID)
		}
		if err := checkBookAndChapter(books.NewRepository(tx), bookID, chapterID); err != nil {
			return err
		}

		repo := progress.NewRepository(tx)
		if status == entities.StatusCurrentlyReading {
			if err := repo.DemoteReading(actor.UserID, bookID); err != nil {
				return storeError(err, "listening progress")
			}
		}

		var err error
		record, err = upsertRecord(repo, actor.UserID, bookID, status, chapterID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func checkBookAndChapter(repo *books.Repository, bookID uint, chapterID *uint) error {
	exists, err := repo.BookExists(bookID)
	if err != nil {
		return storeError(err, "book %d", bookID)
	}
	if !exists {
		return domainerr.NotFoundf("book %d not found", bookID)
	}
	if chapterID == nil {
		return nil
	}
	chapter, err := repo.GetChapterByID(*chapterID)
	if err != nil {
		return storeError(err, "chapter %d", *chapterID)
	}
	if chapter.BookID != bookID {
		return domainerr.InvalidInputf("chapter %d does not belong to book %d", *chapterID, bookID)
	}
	return nil
}

func upsertRecord(repo *progress.Repository, userID, bookID uint, status entities.ListeningStatus, chapterID *uint) (*entities.UserBook, error) {
	record, err := repo.Get(userID, bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = &entities.UserBook{
			UserID:           userID,
			BookID:           bookID,
			Status:           status,
			CurrentChapterID: chapterID,
		}
		if err := repo.Create(record); err != nil {
			return nil, storeError(err, "listening progress")
		}
		return record, nil
	}
	if err != nil {
		return nil, storeError(err, "listening progress")
	}

	record.Status = status
	if chapterID != nil {
		record.CurrentChapterID = chapterID
	}
	if err := repo.UpdateState(record); err != nil {
		return nil, storeError(err, "listening progress")
	}
	return record, nil
}

// Finish marks the book finished. A user without a record for the book gets
// FinishNoRecord and no error.
func (t *ProgressTracker) Finish(ctx context.Context, actor Actor, bookID uint) (FinishOutcome, error) {
	if err := actor.requireUser(); err != nil {
		return FinishNoRecord, err
	}
	affected, err := progress.NewRepository(t.db.WithContext(ctx)).UpdateStatus(actor.UserID, bookID, entities.StatusFinished)
	if err != nil {
		return FinishNoRecord, storeError(err, "listening progress")
	}
	if affected == 0 {
		return FinishNoRecord, nil
	}
	return FinishUpdated, nil
}

// UpdatePosition stores a playback position in seconds. The position must
// be finite and non-negative, and the user must have a record for the book.
func (t *ProgressTracker) UpdatePosition(ctx context.Context, actor Actor, bookID uint, position float64) (float64, error) {
	if err := actor.requireUser(); err != nil {
		return 0, err
	}
	if math.IsNaN(position) || math.IsInf(position, 0) || position < 0 {
		return 0, domainerr.InvalidInputf("position must be a finite, non-negative number")
	}

	affected, err := progress.NewRepository(t.db.WithContext(ctx)).UpdatePosition(actor.UserID, bookID, position)
	if err != nil {
		return 0, storeError(err, "listening progress")
	}
	if affected == 0 {
		return 0, domainerr.NotFoundf("no listening progress for book %d", bookID)
	}
	return position, nil
}

// ResumePointer returns the chapter playback should resume from: the stored
// pointer when set, otherwise the book's first chapter. It returns nil when
// the book has no chapters.
func (t *ProgressTracker) ResumePointer(ctx context.Context, actor Actor, bookID uint) (*entities.Chapter, error) {
	if err := actor.requireUser(); err != nil {
		return nil, err
	}
	db := t.db.WithContext(ctx)
	bookRepo := books.NewRepository(db)

	exists, err := bookRepo.BookExists(bookID)
	if err != nil {
		return nil, storeError(err, "book %d", bookID)
	}
	if !exists {
		return nil, domainerr.NotFoundf("book %d not found", bookID)
	}

	record, err := progress.NewRepository(db).Get(actor.UserID, bookID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError(err, "listening progress")
	}
	return resumeChapter(bookRepo, record, bookID)
}

func resumeChapter(repo *books.Repository, record *entities.UserBook, bookID uint) (*entities.Chapter, error) {
	if record != nil && record.CurrentChapterID != nil {
		chapter, err := repo.GetChapterByID(*record.CurrentChapterID)
		if err == nil && chapter.BookID == bookID {
			return chapter, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeError(err, "chapter %d", *record.CurrentChapterID)
		}
	}
	chapter, err := repo.FirstChapter(bookID)
	if err != nil {
		return nil, storeError(err, "chapters of book %d", bookID)
	}
	return chapter, nil
}

// ListByStatus partitions all of the user's records into status buckets.
func (t *ProgressTracker) ListByStatus(ctx context.Context, actor Actor) (*Shelf, error) {
	if err := actor.requireUser(); err != nil {
		return nil, err
	}
	records, err := progress.NewRepository(t.db.WithContext(ctx)).ListForUser(actor.UserID)
	if err != nil {
		return nil, storeError(err, "listening progress")
	}

	shelf := &Shelf{
		Saved:            []entities.UserBook{},
		CurrentlyReading: []entities.UserBook{},
		Finished:         []entities.UserBook{},
	}
	for _, record := range records {
		switch record.Status {
		case entities.StatusSaved:
			shelf.Saved = append(shelf.Saved, record)
		case entities.StatusCurrentlyReading:
			shelf.CurrentlyReading = append(shelf.CurrentlyReading, record)
		case entities.StatusFinished:
			shelf.Finished = append(shelf.Finished, record)
		}
	}
	return shelf, nil
}

// Dashboard is ListByStatus with the resume chapter of every entry.
func (t *ProgressTracker) Dashboard(ctx context.Context, actor Actor) (*Dashboard, error) {
	shelf, err := t.ListByStatus(ctx, actor)
	if err != nil {
		return nil, err
	}
	bookRepo := books.NewRepository(t.db.WithContext(ctx))

	entries := func(records []entities.UserBook) ([]DashboardEntry, error) {
		out := make([]DashboardEntry, 0, len(records))
		for i := range records {
			entry := DashboardEntry{UserBook: records[i]}
			chapter, err := resumeChapter(bookRepo, &records[i], records[i].BookID)
			if err != nil {
				return nil, err
			}
			if chapter != nil {
				entry.ResumeChapterID = &chapter.ID
			}
			out = append(out, entry)
		}
		return out, nil
	}

	dashboard := &Dashboard{}
	if dashboard.Saved, err = entries(shelf.Saved); err != nil {
		return nil, err
	}
	if dashboard.CurrentlyReading, err = entries(shelf.CurrentlyReading); err != nil {
		return nil, err
	}
	if dashboard.Finished, err = entries(shelf.Finished); err != nil {
		return nil, err
	}
	return dashboard, nil
}

// GetUserBook returns the user's record for a book.
func (t *ProgressTracker) GetUserBook(ctx context.Context, actor Actor, bookID uint) (*entities.UserBook, error) {
	if err := actor.requireUser(); err != nil {
		return nil, err
	}
	record, err := progress.NewRepository(t.db.WithContext(ctx)).Get(actor.UserID, bookID)
	if err != nil {
		return nil, storeError(err, "listening progress for book %d", bookID)
	}
	return record, nil
}

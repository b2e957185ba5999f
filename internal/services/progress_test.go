package services

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/audioshelf/internal/domainerr"
	"github.com/mrlokans/audioshelf/internal/entities"
)

func TestActivate_SingleCurrentlyReading(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	first := env.createBook(t, "First")
	second := env.createBook(t, "Second")

	_, err := env.progress.Activate(ctx, env.alice, first.ID, nil)
	require.NoError(t, err)
	record, err := env.progress.Activate(ctx, env.alice, second.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCurrentlyReading, record.Status)

	shelf, err := env.progress.ListByStatus(ctx, env.alice)
	require.NoError(t, err)
	require.Len(t, shelf.CurrentlyReading, 1)
	assert.Equal(t, second.ID, shelf.CurrentlyReading[0].BookID)
	require.Len(t, shelf.Saved, 1)
	assert.Equal(t, first.ID, shelf.Saved[0].BookID)
}

func TestActivate_OtherUsersUntouched(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	book := env.createBook(t, "Shared")
	other := env.createBook(t, "Other")

	_, err := env.progress.Activate(ctx, env.bob, book.ID, nil)
	require.NoError(t, err)
	_, err = env.progress.Activate(ctx, env.alice, other.ID, nil)
	require.NoError(t, err)

	record, err := env.progress.GetUserBook(ctx, env.bob, book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCurrentlyReading, record.Status)
}

func TestActivate_Concurrent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	var bookIDs []uint
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		bookIDs = append(bookIDs, env.createBook(t, title).ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(bookIDs))
	for _, id := range bookIDs {
		wg.Add(1)
		go func(bookID uint) {
			defer wg.Done()
			_, err := env.progress.Activate(ctx, env.alice, bookID, nil)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), env.count(t, "user_books", "user_id = ? AND status = ?", env.alice.UserID, entities.StatusCurrentlyReading))
	assert.Equal(t, int64(len(bookIDs)), env.count(t, "user_books", "user_id = ?", env.alice.UserID))
}

func TestActivate_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	book := env.createBook(t, "Book")
	otherBook := env.createBook(t, "Other")
	foreign := env.addChapter(t, otherBook.ID, "foreign", intPtr(1))

	_, err := env.progress.Activate(ctx, env.alice, 999, nil)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)

	_, err = env.progress.Activate(ctx, env.alice, book.ID, uintPtr(999))
	assert.ErrorIs(t, err, domainerr.ErrNotFound)

	_, err = env.progress.Activate(ctx, env.alice, book.ID, &foreign.ID)
	assert.ErrorIs(t, err, domainerr.ErrInvalidInput)

	_, err = env.progress.Activate(ctx, Anonymous, book.ID, nil)
	assert.ErrorIs(t, err, domainerr.ErrUnauthorized)

	assert.Equal(t, int64(0), env.count(t, "user_books", "1 = 1"))
}

func TestActivate_SetsChapterPointer(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	book := env.createBook(t, "Book")
	chapter := env.addChapter(t, book.ID, "two", intPtr(2))

	record, err := env.progress.Activate(ctx, env.alice, book.ID, &chapter.ID)
	require.NoError(t, err)
	require.NotNil(t, record.CurrentChapterID)
	assert.Equal(t, chapter.ID, *record.CurrentChapterID)

	// Re-activating without a chapter keeps the pointer.
	record, err = env.progress.Activate(ctx, env.alice, book.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, record.CurrentChapterID)
	assert.Equal(t, chapter.ID, *record.CurrentChapterID)
}

func TestDefer(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reading := env.createBook(t, "Reading")
	later := env.createBook(t, "Later")

	_, err := env.progress.Activate(ctx, env.alice, reading.ID, nil)
	require.NoError(t, err)
	record, err := env.progress.Defer(ctx, env.alice, later.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusSaved, record.Status)

	current, err := env.progress.GetUserBook(ctx, env.alice, reading.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCurrentlyReading, current.Status)
}

func TestFinish(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	book := env.createBook(t, "Book")

	outcome, err := env.progress.Finish(ctx, env.alice, book.ID)
	require.NoError(t, err)
	assert.Equal(t, FinishNoRecord, outcome)
	assert.Equal(t, int64(0), env.count(t, "user_books", "1 = 1"))

	_, err = env.progress.Activate(ctx, env.alice, book.ID, nil)
	require.NoError(t, err)
	outcome, err = env.progress.Finish(ctx, env.alice, book.ID)
	require.NoError(t, err)
	assert.Equal(t, FinishUpdated, outcome)
	assert.Equal(t, "finished", outcome.String())

	record, err := env.progress.GetUserBook(ctx, env.alice, book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusFinished, record.Status)
}

func TestUpdatePosition(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	book := env.createBook(t, "Book")

	_, err := env.progress.UpdatePosition(ctx, env.alice, book.ID, 10)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)

	_, err = env.progress.Defer(ctx, env.alice, book.ID, nil)
	require.NoError(t, err)

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := env.progress.UpdatePosition(ctx, env.alice, book.ID, bad)
		assert.ErrorIs(t, err, domainerr.ErrInvalidInput, "position %v", bad)
	}

	for _, good := range []float64{0, 123.45} {
		stored, err := env.progress.UpdatePosition(ctx, env.alice, book.ID, good)
		require.NoError(t, err)
		assert.Equal(t, good, stored)

		record, err := env.progress.GetUserBook(ctx, env.alice, book.ID)
		require.NoError(t, err)
		assert.Equal(t, good, record.Position)
	}
}

func TestResumePointer(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	t.Run("book without chapters", func(t *testing.T) {
		book := env.createBook(t, "Empty")
		chapter, err := env.progress.ResumePointer(ctx, env.alice, book.ID)
		require.NoError(t, err)
		assert.Nil(t, chapter)
	})

	t.Run("missing book", func(t *testing.T) {
		_, err := env.progress.ResumePointer(ctx, env.alice, 999)
		assert.ErrorIs(t, err, domainerr.ErrNotFound)
	})

	t.Run("lowest position wins over lower id", func(t *testing.T) {
		book := env.createBook(t, "Ordered")
		second := env.addChapter(t, book.ID, "second", intPtr(2))
		first := env.addChapter(t, book.ID, "first", intPtr(1))
		require.Less(t, second.ID, first.ID)

		chapter, err := env.progress.ResumePointer(ctx, env.alice, book.ID)
		require.NoError(t, err)
		require.NotNil(t, chapter)
		assert.Equal(t, first.ID, chapter.ID)

		// Deterministic across calls.
		again, err := env.progress.ResumePointer(ctx, env.alice, book.ID)
		require.NoError(t, err)
		assert.Equal(t, chapter.ID, again.ID)
	})

	t.Run("unnumbered chapters sort before numbered ones", func(t *testing.T) {
		book := env.createBook(t, "Mixed")
		intro := env.addChapter(t, book.ID, "intro", nil)
		env.addChapter(t, book.ID, "numbered", intPtr(1))

		chapter, err := env.progress.ResumePointer(ctx, env.alice, book.ID)
		require.NoError(t, err)
		require.NotNil(t, chapter)
		assert.Equal(t, intro.ID, chapter.ID)
	})

	t.Run("shared position resolved by lowest id", func(t *testing.T) {
		book := env.createBook(t, "Tied")
		env.addChapter(t, book.ID, "later", intPtr(2))
		a := env.addChapter(t, book.ID, "a", intPtr(1))
		b := env.addChapter(t, book.ID, "b", intPtr(1))
		require.Less(t, a.ID, b.ID)

		chapter, err := env.progress.ResumePointer(ctx, env.alice, book.ID)
		require.NoError(t, err)
		require.NotNil(t, chapter)
		assert.Equal(t, a.ID, chapter.ID)
	})

	t.Run("stored pointer wins", func(t *testing.T) {
		book := env.createBook(t, "Pointer")
		env.addChapter(t, book.ID, "one", intPtr(1))
		three := env.addChapter(t, book.ID, "three", intPtr(3))

		_, err := env.progress.Activate(ctx, env.alice, book.ID, &three.ID)
		require.NoError(t, err)
		chapter, err := env.progress.ResumePointer(ctx, env.alice, book.ID)
		require.NoError(t, err)
		assert.Equal(t, three.ID, chapter.ID)
	})
}

func TestDashboard(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reading := env.createBook(t, "Reading")
	chapter := env.addChapter(t, reading.ID, "one", intPtr(1))
	finished := env.createBook(t, "Finished")

	_, err := env.progress.Activate(ctx, env.alice, reading.ID, nil)
	require.NoError(t, err)
	_, err = env.progress.Defer(ctx, env.alice, finished.ID, nil)
	require.NoError(t, err)
	_, err = env.progress.Finish(ctx, env.alice, finished.ID)
	require.NoError(t, err)

	dashboard, err := env.progress.Dashboard(ctx, env.alice)
	require.NoError(t, err)
	assert.Empty(t, dashboard.Saved)
	require.Len(t, dashboard.CurrentlyReading, 1)
	require.NotNil(t, dashboard.CurrentlyReading[0].ResumeChapterID)
	assert.Equal(t, chapter.ID, *dashboard.CurrentlyReading[0].ResumeChapterID)
	require.Len(t, dashboard.Finished, 1)
	assert.Nil(t, dashboard.Finished[0].ResumeChapterID)
}

func TestProgress_RequiresUser(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.progress.ListByStatus(ctx, Anonymous)
	assert.ErrorIs(t, err, domainerr.ErrUnauthorized)
	_, err = env.progress.Finish(ctx, Anonymous, 1)
	assert.ErrorIs(t, err, domainerr.ErrUnauthorized)
	_, err = env.progress.UpdatePosition(ctx, Anonymous, 1, 1)
	assert.ErrorIs(t, err, domainerr.ErrUnauthorized)
}

package tags

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/database"
	"github.com/mrlokans/audioshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := database.NewDatabase(database.Options{
		Path:     filepath.Join(t.TempDir(), "tags.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB), db.DB
}

func createBook(t *testing.T, db *gorm.DB, title string) *entities.Book {
	t.Helper()
	book := &entities.Book{Title: title}
	require.NoError(t, db.Omit("Chapters", "Categories", "Tags").Create(book).Error)
	return book
}

func TestRepository_CreateTag(t *testing.T) {
	repo, _ := setupTestDB(t)

	tag, err := repo.CreateTag("fiction")

	require.NoError(t, err)
	assert.NotZero(t, tag.ID)
	assert.Equal(t, "fiction", tag.Name)

	_, err = repo.CreateTag("fiction")
	assert.Error(t, err)
}

func TestRepository_ReplaceTagBooks(t *testing.T) {
	repo, db := setupTestDB(t)
	a := createBook(t, db, "A")
	b := createBook(t, db, "B")
	c := createBook(t, db, "C")
	tag, _ := repo.CreateTag("classic")

	require.NoError(t, repo.ReplaceTagBooks(tag.ID, []uint{a.ID, b.ID}))
	require.NoError(t, repo.ReplaceTagBooks(tag.ID, []uint{b.ID, c.ID}))

	ids, err := repo.BookIDsWithTag(tag.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID, c.ID}, ids)
}

func TestRepository_ReplaceBookTags(t *testing.T) {
	repo, db := setupTestDB(t)
	book := createBook(t, db, "Dune")
	x, _ := repo.CreateTag("x")
	y, _ := repo.CreateTag("y")

	require.NoError(t, repo.ReplaceBookTags(book.ID, []uint{x.ID}))
	require.NoError(t, repo.ReplaceBookTags(book.ID, []uint{y.ID}))

	got, err := repo.TagsForBook(book.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "y", got[0].Name)
}

func TestRepository_DeleteTag(t *testing.T) {
	repo, db := setupTestDB(t)
	book := createBook(t, db, "Dune")
	tag, _ := repo.CreateTag("gone")
	require.NoError(t, repo.ReplaceTagBooks(tag.ID, []uint{book.ID}))

	affected, err := repo.DeleteTag(tag.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	ids, err := repo.BookIDsWithTag(tag.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = repo.GetTagByID(tag.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_BooksWithTag(t *testing.T) {
	repo, db := setupTestDB(t)
	b := createBook(t, db, "Beta")
	a := createBook(t, db, "Alpha")
	tag, _ := repo.CreateTag("t")
	require.NoError(t, repo.ReplaceTagBooks(tag.ID, []uint{a.ID, b.ID}))

	books, err := repo.BooksWithTag(tag.ID)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Alpha", books[0].Title)
}

func TestRepository_ListTags(t *testing.T) {
	repo, _ := setupTestDB(t)
	_, _ = repo.CreateTag("zebra")
	_, _ = repo.CreateTag("apple")

	tags, err := repo.ListTags()
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "apple", tags[0].Name)
}

package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/audioshelf/internal/entities"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(Options{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase_MigratesTables(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{
		"users", "books", "chapters", "categories", "tags",
		"book_categories", "book_tags", "user_books", "reviews", "audit_events",
	} {
		assert.True(t, db.DB.Migrator().HasTable(table), "missing table %s", table)
	}
	assert.Equal(t, DriverSQLite, db.Driver)
}

func TestNewDatabase_ForeignKeysEnabled(t *testing.T) {
	db := setupTestDB(t)

	var enabled int
	require.NoError(t, db.DB.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
}

func TestNewDatabase_UniqueUserBook(t *testing.T) {
	db := setupTestDB(t)

	user := &entities.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(user).Error)
	book := &entities.Book{Title: "Dune"}
	require.NoError(t, db.DB.Create(book).Error)

	first := &entities.UserBook{UserID: user.ID, BookID: book.ID, Status: entities.StatusSaved}
	require.NoError(t, db.DB.Create(first).Error)

	dup := &entities.UserBook{UserID: user.ID, BookID: book.ID, Status: entities.StatusFinished}
	assert.Error(t, db.DB.Create(dup).Error)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(Options{Driver: "oracle"})
	assert.Error(t, err)
}

func TestNewDatabase_RequiresPath(t *testing.T) {
	_, err := NewDatabase(Options{Driver: DriverSQLite})
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?"+sqliteParams, SQLiteDSN("a.db"))
	assert.Equal(t, "file:a.db?cache=shared&"+sqliteParams, SQLiteDSN("file:a.db?cache=shared"))
}

// Package progress provides database operations for per-user listening
// state (the user_books table).
//
// # Usage
//
//	repo := progress.NewRepository(tx)
//	err := repo.DemoteReading(userID, bookID)
//	record, err := repo.Get(userID, bookID)
package progress

import (
	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/entities"
)

// Repository handles all user_books database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the user's record for a book or gorm.ErrRecordNotFound.
func (r *Repository) Get(userID, bookID uint) (*entities.UserBook, error) {
	var record entities.UserBook
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Repository) Create(record *entities.UserBook) error {
	return r.db.Omit("User", "Book").Create(record).Error
}

// UpdateState writes status, position and current chapter of an existing record.
func (r *Repository) UpdateState(record *entities.UserBook) error {
	return r.db.Model(&entities.UserBook{ID: record.ID}).
		Select("status", "position", "current_chapter_id", "updated_at").
		Updates(record).Error
}

// UpdateStatus changes only the status column of the (user, book) record.
func (r *Repository) UpdateStatus(userID, bookID uint, status entities.ListeningStatus) (int64, error) {
	result := r.db.Model(&entities.UserBook{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Update("status", status)
	return result.RowsAffected, result.Error
}

// UpdatePosition changes only the position of the (user, book) record.
func (r *Repository) UpdatePosition(userID, bookID uint, position float64) (int64, error) {
	result := r.db.Model(&entities.UserBook{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Update("position", position)
	return result.RowsAffected, result.Error
}

// DemoteReading moves every currently_reading record of the user except
// the one for exceptBookID back to saved.
func (r *Repository) DemoteReading(userID, exceptBookID uint) error {
	return r.db.Model(&entities.UserBook{}).
		Where("user_id = ? AND status = ? AND book_id <> ?", userID, entities.StatusCurrentlyReading, exceptBookID).
		Update("status", entities.StatusSaved).Error
}

// ListForUser returns all of a user's records with their books, most
// recently touched first.
func (r *Repository) ListForUser(userID uint) ([]entities.UserBook, error) {
	var records []entities.UserBook
	err := r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Find(&records).Error
	return records, err
}

func (r *Repository) DeleteForBook(bookID uint) error {
	return r.db.Where("book_id = ?", bookID).Delete(&entities.UserBook{}).Error
}

// ClearChapterPointer unsets current_chapter_id wherever it names chapterID.
func (r *Repository) ClearChapterPointer(chapterID uint) error {
	return r.db.Model(&entities.UserBook{}).
		Where("current_chapter_id = ?", chapterID).
		Update("current_chapter_id", nil).Error
}

func (r *Repository) CountForBook(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.UserBook{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

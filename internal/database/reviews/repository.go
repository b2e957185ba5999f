// Package reviews provides database operations for book reviews.
package reviews

import (
	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/entities"
)

// Summary aggregates the ratings of one book.
type Summary struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(review *entities.Review) error {
	return r.db.Omit("User", "Book").Create(review).Error
}

// Exists reports whether the user has already reviewed the book.
func (r *Repository) Exists(userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Review{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}

// ListForBook returns a book's reviews with their authors, newest first.
func (r *Repository) ListForBook(bookID uint) ([]entities.Review, error) {
	var reviews []entities.Review
	err := r.db.Preload("User").
		Where("book_id = ?", bookID).
		Order("created_at DESC, id DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r *Repository) SummaryForBook(bookID uint) (Summary, error) {
	var summary Summary
	err := r.db.Model(&entities.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("book_id = ?", bookID).
		Scan(&summary).Error
	return summary, err
}

func (r *Repository) DeleteForBook(bookID uint) error {
	return r.db.Where("book_id = ?", bookID).Delete(&entities.Review{}).Error
}

func (r *Repository) CountForBook(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Review{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

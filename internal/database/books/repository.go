// Package books provides database operations for books and their chapters.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookWithDetails(123)
//	first, err := repo.FirstChapter(123)
package books

import (
	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/entities"
)

// ChapterOrder sorts unnumbered chapters first, then by position, breaking
// ties by id. The NULL term keeps SQLite and Postgres in the same order.
const ChapterOrder = "position IS NOT NULL ASC, position ASC, id ASC"

// Repository handles all book and chapter database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateBook(book *entities.Book) error {
	return r.db.Omit("Chapters", "Categories", "Tags").Create(book).Error
}

// UpdateBookFields writes the editable columns of a book, including empty values.
func (r *Repository) UpdateBookFields(book *entities.Book) error {
	return r.db.Model(&entities.Book{ID: book.ID}).
		Select("title", "author", "description", "cover_url", "updated_at").
		Updates(book).Error
}

// GetBookByID retrieves a book row without associations.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBookWithDetails retrieves a book with ordered chapters, categories and tags.
func (r *Repository) GetBookWithDetails(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Chapters", func(db *gorm.DB) *gorm.DB {
		return db.Order(ChapterOrder)
	}).Preload("Categories", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns all books ordered by title with their categories and tags.
func (r *Repository) ListBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Categories").Preload("Tags").Order("title ASC, id ASC").Find(&books).Error
	return books, err
}

// BookExists reports whether a book row with the id exists.
func (r *Repository) BookExists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ExistingBookIDs filters ids down to those naming stored books, in ascending order.
func (r *Repository) ExistingBookIDs(ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return []uint{}, nil
	}
	var existing []uint
	err := r.db.Model(&entities.Book{}).Where("id IN ?", ids).Order("id ASC").Pluck("id", &existing).Error
	return existing, err
}

// DeleteBookRow deletes only the books row and reports how many rows went away.
func (r *Repository) DeleteBookRow(id uint) (int64, error) {
	result := r.db.Delete(&entities.Book{}, id)
	return result.RowsAffected, result.Error
}

func (r *Repository) CreateChapter(chapter *entities.Chapter) error {
	return r.db.Create(chapter).Error
}

func (r *Repository) GetChapterByID(id uint) (*entities.Chapter, error) {
	var chapter entities.Chapter
	if err := r.db.First(&chapter, id).Error; err != nil {
		return nil, err
	}
	return &chapter, nil
}

// ListChapters returns a book's chapters in listening order.
func (r *Repository) ListChapters(bookID uint) ([]entities.Chapter, error) {
	var chapters []entities.Chapter
	err := r.db.Where("book_id = ?", bookID).Order(ChapterOrder).Find(&chapters).Error
	return chapters, err
}

// FirstChapter returns the chapter a listener starts from, or nil when the
// book has no chapters.
func (r *Repository) FirstChapter(bookID uint) (*entities.Chapter, error) {
	var chapters []entities.Chapter
	err := r.db.Where("book_id = ?", bookID).Order(ChapterOrder).Limit(1).Find(&chapters).Error
	if err != nil {
		return nil, err
	}
	if len(chapters) == 0 {
		return nil, nil
	}
	return &chapters[0], nil
}

func (r *Repository) DeleteChapter(id uint) (int64, error) {
	result := r.db.Delete(&entities.Chapter{}, id)
	return result.RowsAffected, result.Error
}

func (r *Repository) DeleteChaptersForBook(bookID uint) error {
	return r.db.Where("book_id = ?", bookID).Delete(&entities.Chapter{}).Error
}

func (r *Repository) CountChapters(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Chapter{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

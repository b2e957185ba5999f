// Package categories provides database operations for categories and the
// book_categories association.
//
// # Usage
//
//	repo := categories.NewRepository(db)
//	category, err := repo.CreateCategory("Fantasy")
//	err = repo.ReplaceBookCategories(bookID, []uint{category.ID})
package categories

import (
	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/entities"
)

type bookCategory struct {
	BookID     uint
	CategoryID uint
}

func (bookCategory) TableName() string {
	return entities.BookCategoriesTable
}

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateCategory(name string) (*entities.Category, error) {
	category := &entities.Category{Name: name}
	if err := r.db.Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *Repository) GetCategoryByID(id uint) (*entities.Category, error) {
	var category entities.Category
	if err := r.db.First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryByName matches the name exactly.
func (r *Repository) GetCategoryByName(name string) (*entities.Category, error) {
	var category entities.Category
	if err := r.db.Where("name = ?", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) ListCategories() ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *Repository) RenameCategory(id uint, name string) error {
	return r.db.Model(&entities.Category{}).Where("id = ?", id).Update("name", name).Error
}

// DeleteCategory removes the category's associations and then the category.
// Books are untouched.
func (r *Repository) DeleteCategory(id uint) (int64, error) {
	if err := r.db.Where("category_id = ?", id).Delete(&bookCategory{}).Error; err != nil {
		return 0, err
	}
	result := r.db.Delete(&entities.Category{}, id)
	return result.RowsAffected, result.Error
}

// ExistingCategoryIDs filters ids down to stored categories, in ascending order.
func (r *Repository) ExistingCategoryIDs(ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return []uint{}, nil
	}
	var existing []uint
	err := r.db.Model(&entities.Category{}).Where("id IN ?", ids).Order("id ASC").Pluck("id", &existing).Error
	return existing, err
}

// ReplaceBookCategories makes ids the complete category set of a book.
// The ids must already be filtered to existing categories.
func (r *Repository) ReplaceBookCategories(bookID uint, ids []uint) error {
	if err := r.DeleteForBook(bookID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	rows := make([]bookCategory, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, bookCategory{BookID: bookID, CategoryID: id})
	}
	return r.db.Create(&rows).Error
}

func (r *Repository) DeleteForBook(bookID uint) error {
	return r.db.Where("book_id = ?", bookID).Delete(&bookCategory{}).Error
}

// CategoriesForBook returns the categories attached to a book, by name.
func (r *Repository) CategoriesForBook(bookID uint) ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.Joins("JOIN book_categories ON book_categories.category_id = categories.id").
		Where("book_categories.book_id = ?", bookID).
		Order("categories.name ASC").
		Find(&categories).Error
	return categories, err
}

// BooksInCategory returns the books filed under a category, by title.
func (r *Repository) BooksInCategory(categoryID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Joins("JOIN book_categories ON book_categories.book_id = books.id").
		Where("book_categories.category_id = ?", categoryID).
		Order("books.title ASC, books.id ASC").
		Find(&books).Error
	return books, err
}

// CountAssociations returns the number of book_categories rows for a category.
func (r *Repository) CountAssociations(categoryID uint) (int64, error) {
	var count int64
	err := r.db.Model(&bookCategory{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

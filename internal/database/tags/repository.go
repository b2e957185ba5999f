// Package tags provides database operations for tags and the book_tags
// association.
//
// # Usage
//
//	repo := tags.NewRepository(db)
//	tag, err := repo.CreateTag("award-winner")
//	err = repo.ReplaceTagBooks(tag.ID, []uint{1, 2})
package tags

import (
	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/entities"
)

type bookTag struct {
	BookID uint
	TagID  uint
}

func (bookTag) TableName() string {
	return entities.BookTagsTable
}

// Repository handles all tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTag creates a new tag.
func (r *Repository) CreateTag(name string) (*entities.Tag, error) {
	tag := &entities.Tag{Name: name}
	if err := r.db.Create(tag).Error; err != nil {
		return nil, err
	}
	return tag, nil
}

// GetTagByID retrieves a tag by ID.
func (r *Repository) GetTagByID(id uint) (*entities.Tag, error) {
	var tag entities.Tag
	if err := r.db.First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetTagByName matches the name exactly.
func (r *Repository) GetTagByName(name string) (*entities.Tag, error) {
	var tag entities.Tag
	if err := r.db.Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListTags retrieves all tags by name.
func (r *Repository) ListTags() ([]entities.Tag, error) {
	var tags []entities.Tag
	err := r.db.Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *Repository) RenameTag(id uint, name string) error {
	return r.db.Model(&entities.Tag{}).Where("id = ?", id).Update("name", name).Error
}

// DeleteTag removes the tag's associations and then the tag.
func (r *Repository) DeleteTag(id uint) (int64, error) {
	if err := r.db.Where("tag_id = ?", id).Delete(&bookTag{}).Error; err != nil {
		return 0, err
	}
	result := r.db.Delete(&entities.Tag{}, id)
	return result.RowsAffected, result.Error
}

// ExistingTagIDs filters ids down to stored tags, in ascending order.
func (r *Repository) ExistingTagIDs(ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return []uint{}, nil
	}
	var existing []uint
	err := r.db.Model(&entities.Tag{}).Where("id IN ?", ids).Order("id ASC").Pluck("id", &existing).Error
	return existing, err
}

// ReplaceBookTags makes tagIDs the complete tag set of a book.
func (r *Repository) ReplaceBookTags(bookID uint, tagIDs []uint) error {
	if err := r.DeleteForBook(bookID); err != nil {
		return err
	}
	rows := make([]bookTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, bookTag{BookID: bookID, TagID: id})
	}
	return r.insert(rows)
}

// ReplaceTagBooks makes bookIDs the complete book set of a tag.
func (r *Repository) ReplaceTagBooks(tagID uint, bookIDs []uint) error {
	if err := r.db.Where("tag_id = ?", tagID).Delete(&bookTag{}).Error; err != nil {
		return err
	}
	rows := make([]bookTag, 0, len(bookIDs))
	for _, id := range bookIDs {
		rows = append(rows, bookTag{BookID: id, TagID: tagID})
	}
	return r.insert(rows)
}

func (r *Repository) insert(rows []bookTag) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Create(&rows).Error
}

func (r *Repository) DeleteForBook(bookID uint) error {
	return r.db.Where("book_id = ?", bookID).Delete(&bookTag{}).Error
}

// TagsForBook returns the tags attached to a book, by name.
func (r *Repository) TagsForBook(bookID uint) ([]entities.Tag, error) {
	var tags []entities.Tag
	err := r.db.Joins("JOIN book_tags ON book_tags.tag_id = tags.id").
		Where("book_tags.book_id = ?", bookID).
		Order("tags.name ASC").
		Find(&tags).Error
	return tags, err
}

// BooksWithTag returns the books carrying a tag, by title.
func (r *Repository) BooksWithTag(tagID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Joins("JOIN book_tags ON book_tags.book_id = books.id").
		Where("book_tags.tag_id = ?", tagID).
		Order("books.title ASC, books.id ASC").
		Find(&books).Error
	return books, err
}

// BookIDsWithTag returns the ids of books carrying a tag, ascending.
func (r *Repository) BookIDsWithTag(tagID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&bookTag{}).Where("tag_id = ?", tagID).Order("book_id ASC").Pluck("book_id", &ids).Error
	return ids, err
}

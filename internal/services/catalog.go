package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/database/books"
	"github.com/mrlokans/audioshelf/internal/database/categories"
	"github.com/mrlokans/audioshelf/internal/database/progress"
	"github.com/mrlokans/audioshelf/internal/database/reviews"
	"github.com/mrlokans/audioshelf/internal/database/tags"
	"github.com/mrlokans/audioshelf/internal/domainerr"
	"github.com/mrlokans/audioshelf/internal/entities"
	"github.com/mrlokans/audioshelf/internal/validation"
)

// BookInput carries the editable fields of a book. On update, nil
// CategoryIDs or TagIDs leave the current associations alone; an empty
// slice clears them.
type BookInput struct {
	Title       string `json:"title" validate:"required,max=150"`
	Author      string `json:"author" validate:"max=150"`
	Description string `json:"description" validate:"max=5000"`
	CoverURL    string `json:"cover_url" validate:"max=250"`
	CategoryIDs []uint `json:"category_ids,omitempty"`
	TagIDs      []uint `json:"tag_ids,omitempty"`
}

func (in *BookInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Description = strings.TrimSpace(in.Description)
	in.CoverURL = strings.TrimSpace(in.CoverURL)
}

type ChapterInput struct {
	Title    string `json:"title" validate:"required,max=150"`
	Position *int   `json:"position,omitempty" validate:"omitempty,gte=0"`
	AudioURL string `json:"audio_url" validate:"required,max=250"`
}

type nameInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CatalogService performs administrative changes to books, chapters,
// categories and tags. Every mutation requires an admin actor and runs in
// a single transaction.
type CatalogService struct {
	db        *gorm.DB
	validator *validation.Validator
	audit     AuditRecorder
}

func NewCatalogService(db *gorm.DB, v *validation.Validator, auditor AuditRecorder) *CatalogService {
	return &CatalogService{db: db, validator: v, audit: auditorOrNoop(auditor)}
}

func (s *CatalogService) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func requireBook(repo *books.Repository, bookID uint) (*entities.Book, error) {
	book, err := repo.GetBookByID(bookID)
	if err != nil {
		return nil, storeError(err, "book %d", bookID)
	}
	return book, nil
}

// CreateBook stores a new book and, when given, its category and tag sets.
func (s *CatalogService) CreateBook(ctx context.Context, actor Actor, in BookInput) (*entities.Book, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	in.normalize()
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	var book *entities.Book
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		created := &entities.Book{
			Title:       in.Title,
			Author:      in.Author,
			Description: in.Description,
			CoverURL:    in.CoverURL,
		}
		if err := repo.CreateBook(created); err != nil {
			return storeError(err, "book")
		}
		if err := replaceBookAssociations(tx, created.ID, in.CategoryIDs, in.TagIDs); err != nil {
			return err
		}
		var err error
		book, err = repo.GetBookWithDetails(created.ID)
		return storeError(err, "book %d", created.ID)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCatalog(ctx, actor.UserID, "book_create", "book", book.ID, "Created book: "+book.Title)
	return book, nil
}

// UpdateBook overwrites the book's fields and optionally its associations.
func (s *CatalogService) UpdateBook(ctx context.Context, actor Actor, bookID uint, in BookInput) (*entities.Book, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	in.normalize()
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	var book *entities.Book
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		existing, err := requireBook(repo, bookID)
		if err != nil {
			return err
		}
		existing.Title = in.Title
		existing.Author = in.Author
		existing.Description = in.Description
		existing.CoverURL = in.CoverURL
		if err := repo.UpdateBookFields(existing); err != nil {
			return storeError(err, "book %d", bookID)
		}
		if err := replaceBookAssociations(tx, bookID, in.CategoryIDs, in.TagIDs); err != nil {
			return err
		}
		book, err = repo.GetBookWithDetails(bookID)
		return storeError(err, "book %d", bookID)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCatalog(ctx, actor.UserID, "book_update", "book", bookID, "Updated book: "+book.Title)
	return book, nil
}

func replaceBookAssociations(tx *gorm.DB, bookID uint, categoryIDs, tagIDs []uint) error {
	if categoryIDs != nil {
		if _, err := replaceCategories(categories.NewRepository(tx), bookID, categoryIDs); err != nil {
			return err
		}
	}
	if tagIDs != nil {
		if _, err := replaceTags(tags.NewRepository(tx), bookID, tagIDs); err != nil {
			return err
		}
	}
	return nil
}

// GetBook returns a book with its chapters in listening order, categories and tags.
func (s *CatalogService) GetBook(ctx context.Context, bookID uint) (*entities.Book, error) {
	book, err := books.NewRepository(s.db.WithContext(ctx)).GetBookWithDetails(bookID)
	if err != nil {
		return nil, storeError(err, "book %d", bookID)
	}
	return book, nil
}

func (s *CatalogService) ListBooks(ctx context.Context) ([]entities.Book, error) {
	list, err := books.NewRepository(s.db.WithContext(ctx)).ListBooks()
	if err != nil {
		return nil, storeError(err, "books")
	}
	return list, nil
}

// DeleteBook removes a book together with every row that references it:
// listening progress, reviews, chapters and category/tag associations.
// Either all of them go or none do.
func (s *CatalogService) DeleteBook(ctx context.Context, actor Actor, bookID uint) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}

	var title string
	removed := map[string]int64{}
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		bookRepo := books.NewRepository(tx)
		progressRepo := progress.NewRepository(tx)
		reviewRepo := reviews.NewRepository(tx)

		book, err := requireBook(bookRepo, bookID)
		if err != nil {
			return err
		}
		title = book.Title

		if removed["user_books"], err = progressRepo.CountForBook(bookID); err != nil {
			return storeError(err, "listening progress")
		}
		if removed["reviews"], err = reviewRepo.CountForBook(bookID); err != nil {
			return storeError(err, "reviews")
		}
		if removed["chapters"], err = bookRepo.CountChapters(bookID); err != nil {
			return storeError(err, "chapters")
		}

		steps := []struct {
			what string
			run  func(uint) error
		}{
			{"listening progress", progressRepo.DeleteForBook},
			{"reviews", reviewRepo.DeleteForBook},
			{"chapters", bookRepo.DeleteChaptersForBook},
			{"category associations", categories.NewRepository(tx).DeleteForBook},
			{"tag associations", tags.NewRepository(tx).DeleteForBook},
		}
		for _, step := range steps {
			if err := step.run(bookID); err != nil {
				return domainerr.Internal(err, fmt.Sprintf("failed to delete %s of book %d", step.what, bookID))
			}
		}

		affected, err := bookRepo.DeleteBookRow(bookID)
		if err != nil {
			return domainerr.Internal(err, fmt.Sprintf("failed to delete book %d", bookID))
		}
		if affected == 0 {
			return domainerr.NotFoundf("book %d not found", bookID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.LogDelete(ctx, actor.UserID, "book", bookID, title, removed)
	return nil
}

// SetCategories replaces the book's categories with ids. Ids that name no
// category are ignored. It returns the resulting set.
func (s *CatalogService) SetCategories(ctx context.Context, actor Actor, bookID uint, ids []uint) ([]entities.Category, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}

	var result []entities.Category
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := requireBook(books.NewRepository(tx), bookID); err != nil {
			return err
		}
		var err error
		result, err = replaceCategories(categories.NewRepository(tx), bookID, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCatalog(ctx, actor.UserID, "book_set_categories", "book", bookID,
		fmt.Sprintf("Set %d categories on book %d", len(result), bookID))
	return result, nil
}

func replaceCategories(repo *categories.Repository, bookID uint, ids []uint) ([]entities.Category, error) {
	existing, err := repo.ExistingCategoryIDs(dedupe(ids))
	if err != nil {
		return nil, storeError(err, "categories")
	}
	if err := repo.ReplaceBookCategories(bookID, existing); err != nil {
		return nil, storeError(err, "categories of book %d", bookID)
	}
	result, err := repo.CategoriesForBook(bookID)
	if err != nil {
		return nil, storeError(err, "categories of book %d", bookID)
	}
	return result, nil
}

// SetTags replaces the book's tags with ids. Ids that name no tag are ignored.
func (s *CatalogService) SetTags(ctx context.Context, actor Actor, bookID uint, ids []uint) ([]entities.Tag, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}

	var result []entities.Tag
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := requireBook(books.NewRepository(tx), bookID); err != nil {
			return err
		}
		var err error
		result, err = replaceTags(tags.NewRepository(tx), bookID, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCatalog(ctx, actor.UserID, "book_set_tags", "book", bookID,
		fmt.Sprintf("Set %d tags on book %d", len(result), bookID))
	return result, nil
}

func replaceTags(repo *tags.Repository, bookID uint, ids []uint) ([]entities.Tag, error) {
	existing, err := repo.ExistingTagIDs(dedupe(ids))
	if err != nil {
		return nil, storeError(err, "tags")
	}
	if err := repo.ReplaceBookTags(bookID, existing); err != nil {
		return nil, storeError(err, "tags of book %d", bookID)
	}
	result, err := repo.TagsForBook(bookID)
	if err != nil {
		return nil, storeError(err, "tags of book %d", bookID)
	}
	return result, nil
}

// AssignTagBooks replaces the set of books carrying the tag. Ids that name
// no book are ignored. It returns the tagged books.
func (s *CatalogService) AssignTagBooks(ctx context.Context, actor Actor, tagID uint, bookIDs []uint) ([]entities.Book, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}

	var result []entities.Book
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		tagRepo := tags.NewRepository(tx)
		if _, err := tagRepo.GetTagByID(tagID); err != nil {
			return storeError(err, "tag %d", tagID)
		}
		existing, err := books.NewRepository(tx).ExistingBookIDs(dedupe(bookIDs))
		if err != nil {
			return storeError(err, "books")
		}
		if err := tagRepo.ReplaceTagBooks(tagID, existing); err != nil {
			return storeError(err, "books of tag %d", tagID)
		}
		result, err = tagRepo.BooksWithTag(tagID)
		return storeError(err, "books of tag %d", tagID)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCatalog(ctx, actor.UserID, "tag_assign_books", "tag", tagID,
		fmt.Sprintf("Assigned tag %d to %d books", tagID, len(result)))
	return result, nil
}

// AddChapter appends a chapter to a book.
func (s *CatalogService) AddChapter(ctx context.Context, actor Actor, bookID uint, in ChapterInput) (*entities.Chapter, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.AudioURL = strings.TrimSpace(in.AudioURL)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	chapter := &entities.Chapter{
		BookID:   bookID,
		Title:    in.Title,
		Position: in.Position,
		AudioURL: in.AudioURL,
	}
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		if _, err := requireBook(repo, bookID); err != nil {
			return err
		}
		return storeError(repo.CreateChapter(chapter), "chapter")
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCatalog(ctx, actor.UserID, "chapter_create", "chapter", chapter.ID, "Added chapter: "+chapter.Title)
	return chapter, nil
}

// ListChapters returns a book's chapters in listening order.
func (s *CatalogService) ListChapters(ctx context.Context, bookID uint) ([]entities.Chapter, error) {
	repo := books.NewRepository(s.db.WithContext(ctx))
	exists, err := repo.BookExists(bookID)
	if err != nil {
		return nil, storeError(err, "book %d", bookID)
	}
	if !exists {
		return nil, domainerr.NotFoundf("book %d not found", bookID)
	}
	chapters, err := repo.ListChapters(bookID)
	if err != nil {
		return nil, storeError(err, "chapters of book %d", bookID)
	}
	return chapters, nil
}

// DeleteChapter removes a chapter and clears any listening progress that
// pointed at it.
func (s *CatalogService) DeleteChapter(ctx context.Context, actor Actor, chapterID uint) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}

	var title string
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		chapter, err := repo.GetChapterByID(chapterID)
		if err != nil {
			return storeError(err, "chapter %d", chapterID)
		}
		title = chapter.Title
		if err := progress.NewRepository(tx).ClearChapterPointer(chapterID); err != nil {
			return storeError(err, "listening progress")
		}
		_, err = repo.DeleteChapter(chapterID)
		return storeError(err, "chapter %d", chapterID)
	})
	if err != nil {
		return err
	}

	s.audit.LogDelete(ctx, actor.UserID, "chapter", chapterID, title, nil)
	return nil
}

func (s *CatalogService) validateName(name string) (string, error) {
	in := nameInput{Name: strings.TrimSpace(name)}
	if err := s.validator.Validate(in); err != nil {
		return "", err
	}
	return in.Name, nil
}

// CreateCategory adds a category. Names are unique and case-sensitive.
func (s *CatalogService) CreateCategory(ctx context.Context, actor Actor, name string) (*entities.Category, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	name, err := s.validateName(name)
	if err != nil {
		return nil, err
	}

	var category *entities.Category
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		repo := categories.NewRepository(tx)
		if err := ensureNameFree(repo.GetCategoryByName, name, 0, "category"); err != nil {
			return err
		}
		var err error
		category, err = repo.CreateCategory(name)
		return storeError(err, "category %q", name)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCatalog(ctx, actor.UserID, "category_create", "category", category.ID, "Created category: "+name)
	return category, nil
}

// RenameCategory changes a category's name.
func (s *CatalogService) RenameCategory(ctx context.Context, actor Actor, categoryID uint, name string) (*entities.Category, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	name, err := s.validateName(name)
	if err != nil {
		return nil, err
	}

	var category *entities.Category
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		repo := categories.NewRepository(tx)
		var err error
		if category, err = repo.GetCategoryByID(categoryID); err != nil {
			return storeError(err, "category %d", categoryID)
		}
		if err := ensureNameFree(repo.GetCategoryByName, name, categoryID, "category"); err != nil {
			return err
		}
		if err := repo.RenameCategory(categoryID, name); err != nil {
			return storeError(err, "category %q", name)
		}
		category.Name = name
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCatalog(ctx, actor.UserID, "category_rename", "category", categoryID, "Renamed category to: "+name)
	return category, nil
}

// DeleteCategory removes a category and its associations. Books stay.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor Actor, categoryID uint) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}

	var name string
	removed := map[string]int64{}
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		repo := categories.NewRepository(tx)
		category, err := repo.GetCategoryByID(categoryID)
		if err != nil {
			return storeError(err, "category %d", categoryID)
		}
		name = category.Name
		if removed[entities.BookCategoriesTable], err = repo.CountAssociations(categoryID); err != nil {
			return storeError(err, "books of category %d", categoryID)
		}
		_, err = repo.DeleteCategory(categoryID)
		return storeError(err, "category %d", categoryID)
	})
	if err != nil {
		return err
	}

	s.audit.LogDelete(ctx, actor.UserID, "category", categoryID, name, removed)
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]entities.Category, error) {
	list, err := categories.NewRepository(s.db.WithContext(ctx)).ListCategories()
	if err != nil {
		return nil, storeError(err, "categories")
	}
	return list, nil
}

// BooksInCategory returns the category and the books filed under it.
func (s *CatalogService) BooksInCategory(ctx context.Context, categoryID uint) (*entities.Category, []entities.Book, error) {
	repo := categories.NewRepository(s.db.WithContext(ctx))
	category, err := repo.GetCategoryByID(categoryID)
	if err != nil {
		return nil, nil, storeError(err, "category %d", categoryID)
	}
	list, err := repo.BooksInCategory(categoryID)
	if err != nil {
		return nil, nil, storeError(err, "books of category %d", categoryID)
	}
	return category, list, nil
}

// CreateTag adds a tag. Names are unique and case-sensitive.
func (s *CatalogService) CreateTag(ctx context.Context, actor Actor, name string) (*entities.Tag, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	name, err := s.validateName(name)
	if err != nil {
		return nil, err
	}

	var tag *entities.Tag
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		repo := tags.NewRepository(tx)
		if err := ensureNameFree(repo.GetTagByName, name, 0, "tag"); err != nil {
			return err
		}
		var err error
		tag, err = repo.CreateTag(name)
		return storeError(err, "tag %q", name)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCatalog(ctx, actor.UserID, "tag_create", "tag", tag.ID, "Created tag: "+name)
	return tag, nil
}

func (s *CatalogService) RenameTag(ctx context.Context, actor Actor, tagID uint, name string) (*entities.Tag, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	name, err := s.validateName(name)
	if err != nil {
		return nil, err
	}

	var tag *entities.Tag
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		repo := tags.NewRepository(tx)
		var err error
		if tag, err = repo.GetTagByID(tagID); err != nil {
			return storeError(err, "tag %d", tagID)
		}
		if err := ensureNameFree(repo.GetTagByName, name, tagID, "tag"); err != nil {
			return err
		}
		if err := repo.RenameTag(tagID, name); err != nil {
			return storeError(err, "tag %q", name)
		}
		tag.Name = name
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCatalog(ctx, actor.UserID, "tag_rename", "tag", tagID, "Renamed tag to: "+name)
	return tag, nil
}

// DeleteTag removes a tag and its associations. Books stay.
func (s *CatalogService) DeleteTag(ctx context.Context, actor Actor, tagID uint) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}

	var name string
	removed := map[string]int64{}
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		repo := tags.NewRepository(tx)
		tag, err := repo.GetTagByID(tagID)
		if err != nil {
			return storeError(err, "tag %d", tagID)
		}
		name = tag.Name
		bookIDs, err := repo.BookIDsWithTag(tagID)
		if err != nil {
			return storeError(err, "books of tag %d", tagID)
		}
		removed[entities.BookTagsTable] = int64(len(bookIDs))
		_, err = repo.DeleteTag(tagID)
		return storeError(err, "tag %d", tagID)
	})
	if err != nil {
		return err
	}

	s.audit.LogDelete(ctx, actor.UserID, "tag", tagID, name, removed)
	return nil
}

func (s *CatalogService) ListTags(ctx context.Context) ([]entities.Tag, error) {
	list, err := tags.NewRepository(s.db.WithContext(ctx)).ListTags()
	if err != nil {
		return nil, storeError(err, "tags")
	}
	return list, nil
}

// BooksWithTag returns the tag and the books carrying it.
func (s *CatalogService) BooksWithTag(ctx context.Context, tagID uint) (*entities.Tag, []entities.Book, error) {
	repo := tags.NewRepository(s.db.WithContext(ctx))
	tag, err := repo.GetTagByID(tagID)
	if err != nil {
		return nil, nil, storeError(err, "tag %d", tagID)
	}
	list, err := repo.BooksWithTag(tagID)
	if err != nil {
		return nil, nil, storeError(err, "books of tag %d", tagID)
	}
	return tag, list, nil
}

// ensureNameFree fails with Conflict when another row (not selfID) already
// uses name.
func ensureNameFree[T interface{ *entities.Category | *entities.Tag }](lookup func(string) (T, error), name string, selfID uint, kind string) error {
	found, err := lookup(name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return storeError(err, "%s %q", kind, name)
	}
	if idOf(found) == selfID {
		return nil
	}
	return domainerr.Conflictf("%s %q already exists", kind, name)
}

func idOf[T interface{ *entities.Category | *entities.Tag }](v T) uint {
	switch e := any(v).(type) {
	case *entities.Category:
		return e.ID
	case *entities.Tag:
		return e.ID
	}
	return 0
}

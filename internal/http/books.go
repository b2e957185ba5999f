package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/audioshelf/internal/database/reviews"
	"github.com/mrlokans/audioshelf/internal/domainerr"
	"github.com/mrlokans/audioshelf/internal/entities"
	"github.com/mrlokans/audioshelf/internal/services"
)

// BookDetail is the book page: the book with its chapters, categories and
// tags, its rating summary and the caller's own progress.
type BookDetail struct {
	Book     *entities.Book     `json:"book"`
	Rating   reviews.Summary    `json:"rating"`
	UserBook *entities.UserBook `json:"user_book,omitempty"`
}

type idsRequest struct {
	IDs []uint `json:"ids"`
}

type BooksController struct {
	catalog  *services.CatalogService
	progress *services.ProgressTracker
	reviews  *services.ReviewLedger
}

func NewBooksController(catalog *services.CatalogService, progress *services.ProgressTracker, reviews *services.ReviewLedger) *BooksController {
	return &BooksController{catalog: catalog, progress: progress, reviews: reviews}
}

// ListBooks returns the whole catalog
// GET /api/books
func (bc *BooksController) ListBooks(c *gin.Context) {
	books, err := bc.catalog.ListBooks(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBook returns the book page
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	book, err := bc.catalog.GetBook(ctx, id)
	if err != nil {
		respondDomainError(c, err, "get book")
		return
	}
	detail := BookDetail{Book: book}

	if detail.Rating, err = bc.reviews.RatingSummary(ctx, id); err != nil {
		respondDomainError(c, err, "rating summary")
		return
	}

	if actor := actorFrom(c); actor.Authenticated() {
		record, err := bc.progress.GetUserBook(ctx, actor, id)
		switch {
		case err == nil:
			detail.UserBook = record
		case !errors.Is(err, domainerr.ErrNotFound):
			respondDomainError(c, err, "get listening progress")
			return
		}
	}

	c.JSON(http.StatusOK, detail)
}

// CreateBook adds a book to the catalog
// POST /api/admin/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var in services.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := bc.catalog.CreateBook(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		respondDomainError(c, err, "create book")
		return
	}
	c.JSON(http.StatusCreated, book)
}

// UpdateBook overwrites a book's fields
// PUT /api/admin/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := bc.catalog.UpdateBook(c.Request.Context(), actorFrom(c), id, in)
	if err != nil {
		respondDomainError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook removes a book and everything that references it
// DELETE /api/admin/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.catalog.DeleteBook(c.Request.Context(), actorFrom(c), id); err != nil {
		respondDomainError(c, err, "delete book")
		return
	}
	c.Status(http.StatusNoContent)
}

// SetCategories replaces the book's categories
// PUT /api/admin/books/:id/categories
func (bc *BooksController) SetCategories(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	categories, err := bc.catalog.SetCategories(c.Request.Context(), actorFrom(c), id, req.IDs)
	if err != nil {
		respondDomainError(c, err, "set categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// SetTags replaces the book's tags
// PUT /api/admin/books/:id/tags
func (bc *BooksController) SetTags(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	tags, err := bc.catalog.SetTags(c.Request.Context(), actorFrom(c), id, req.IDs)
	if err != nil {
		respondDomainError(c, err, "set tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// ListChapters returns chapters in listening order
// GET /api/books/:id/chapters
func (bc *BooksController) ListChapters(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	chapters, err := bc.catalog.ListChapters(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "list chapters")
		return
	}
	c.JSON(http.StatusOK, gin.H{"chapters": chapters})
}

// AddChapter appends a chapter
// POST /api/admin/books/:id/chapters
func (bc *BooksController) AddChapter(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.ChapterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	chapter, err := bc.catalog.AddChapter(c.Request.Context(), actorFrom(c), id, in)
	if err != nil {
		respondDomainError(c, err, "add chapter")
		return
	}
	c.JSON(http.StatusCreated, chapter)
}

// DeleteChapter removes a chapter
// DELETE /api/admin/chapters/:id
func (bc *BooksController) DeleteChapter(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.catalog.DeleteChapter(c.Request.Context(), actorFrom(c), id); err != nil {
		respondDomainError(c, err, "delete chapter")
		return
	}
	c.Status(http.StatusNoContent)
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/audioshelf/internal/services"
)

type TagsController struct {
	catalog *services.CatalogService
}

func NewTagsController(catalog *services.CatalogService) *TagsController {
	return &TagsController{catalog: catalog}
}

// ListTags returns all tags
// GET /api/tags
func (tc *TagsController) ListTags(c *gin.Context) {
	tags, err := tc.catalog.ListTags(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "list tags")
		return
	}
	c.JSON(http.StatusOK, tags)
}

// BooksWithTag returns the tag and the books carrying it
// GET /api/tags/:id/books
func (tc *TagsController) BooksWithTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tag, books, err := tc.catalog.BooksWithTag(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "books with tag")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag, "books": books})
}

// CreateTag creates a new tag
// POST /api/admin/tags
func (tc *TagsController) CreateTag(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	tag, err := tc.catalog.CreateTag(c.Request.Context(), actorFrom(c), req.Name)
	if err != nil {
		respondDomainError(c, err, "create tag")
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// RenameTag renames a tag
// PUT /api/admin/tags/:id
func (tc *TagsController) RenameTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	tag, err := tc.catalog.RenameTag(c.Request.Context(), actorFrom(c), id, req.Name)
	if err != nil {
		respondDomainError(c, err, "rename tag")
		return
	}
	c.JSON(http.StatusOK, tag)
}

// DeleteTag removes a tag; its books stay
// DELETE /api/admin/tags/:id
func (tc *TagsController) DeleteTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := tc.catalog.DeleteTag(c.Request.Context(), actorFrom(c), id); err != nil {
		respondDomainError(c, err, "delete tag")
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignBooks replaces the set of books carrying the tag
// PUT /api/admin/tags/:id/books
func (tc *TagsController) AssignBooks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	books, err := tc.catalog.AssignTagBooks(c.Request.Context(), actorFrom(c), id, req.IDs)
	if err != nil {
		respondDomainError(c, err, "assign tag books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

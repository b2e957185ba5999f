package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/audioshelf/internal/services"
)

type nameRequest struct {
	Name string `json:"name"`
}

type CategoriesController struct {
	catalog *services.CatalogService
}

func NewCategoriesController(catalog *services.CatalogService) *CategoriesController {
	return &CategoriesController{catalog: catalog}
}

// GET /api/categories
func (cc *CategoriesController) ListCategories(c *gin.Context) {
	categories, err := cc.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// GET /api/categories/:id/books
func (cc *CategoriesController) BooksInCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, books, err := cc.catalog.BooksInCategory(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "books in category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "books": books})
}

// POST /api/admin/categories
func (cc *CategoriesController) CreateCategory(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	category, err := cc.catalog.CreateCategory(c.Request.Context(), actorFrom(c), req.Name)
	if err != nil {
		respondDomainError(c, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// PUT /api/admin/categories/:id
func (cc *CategoriesController) RenameCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	category, err := cc.catalog.RenameCategory(c.Request.Context(), actorFrom(c), id, req.Name)
	if err != nil {
		respondDomainError(c, err, "rename category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DELETE /api/admin/categories/:id
func (cc *CategoriesController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.catalog.DeleteCategory(c.Request.Context(), actorFrom(c), id); err != nil {
		respondDomainError(c, err, "delete category")
		return
	}
	c.Status(http.StatusNoContent)
}

package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/audioshelf/internal/auth"
	"github.com/mrlokans/audioshelf/internal/demo"
)

// NewRouter creates the JSON API router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	demoMode := demo.NewMiddleware(cfg.DemoMode)
	router.Use(demoMode.InjectContext(), demoMode.Handler())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	if cfg.SessionManager != nil && cfg.AuthService != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
		router.Use(auth.NewMiddleware(cfg.AuthService, cfg.SessionManager).Handler())
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)

	api := router.Group("/api")

	if cfg.SessionManager != nil && cfg.AuthService != nil {
		var auditor auth.AuthAuditor
		if cfg.AuditService != nil {
			auditor = cfg.AuditService
		}
		auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.LoginLimiter, auditor).RegisterRoutes(api)
	}

	books := NewBooksController(cfg.Catalog, cfg.Progress, cfg.Reviews)
	categories := NewCategoriesController(cfg.Catalog)
	tags := NewTagsController(cfg.Catalog)
	progress := NewProgressController(cfg.Progress)
	reviews := NewReviewsController(cfg.Reviews)

	// Public catalog
	api.GET("/books", books.ListBooks)
	api.GET("/books/:id", books.GetBook)
	api.GET("/books/:id/chapters", books.ListChapters)
	api.GET("/books/:id/reviews", reviews.ListReviews)
	api.GET("/categories", categories.ListCategories)
	api.GET("/categories/:id/books", categories.BooksInCategory)
	api.GET("/tags", tags.ListTags)
	api.GET("/tags/:id/books", tags.BooksWithTag)

	// Listener endpoints
	listener := api.Group("", auth.RequireAuth())
	listener.POST("/books/:id/start", progress.Start)
	listener.POST("/books/:id/save", progress.Save)
	listener.POST("/books/:id/finish", progress.Finish)
	listener.PUT("/books/:id/position", progress.Position)
	listener.GET("/books/:id/resume", progress.Resume)
	listener.POST("/books/:id/reviews", reviews.AddReview)
	listener.GET("/me/shelf", progress.Shelf)
	listener.GET("/me/dashboard", progress.Dashboard)

	// Catalog administration
	admin := api.Group("/admin", auth.RequireAdmin())
	admin.POST("/books", books.CreateBook)
	admin.PUT("/books/:id", books.UpdateBook)
	admin.DELETE("/books/:id", books.DeleteBook)
	admin.PUT("/books/:id/categories", books.SetCategories)
	admin.PUT("/books/:id/tags", books.SetTags)
	admin.POST("/books/:id/chapters", books.AddChapter)
	admin.DELETE("/chapters/:id", books.DeleteChapter)
	admin.POST("/categories", categories.CreateCategory)
	admin.PUT("/categories/:id", categories.RenameCategory)
	admin.DELETE("/categories/:id", categories.DeleteCategory)
	admin.POST("/tags", tags.CreateTag)
	admin.PUT("/tags/:id", tags.RenameTag)
	admin.DELETE("/tags/:id", tags.DeleteTag)
	admin.PUT("/tags/:id/books", tags.AssignBooks)

	if cfg.AuditService != nil {
		admin.GET("/audit", NewAuditController(cfg.AuditService).GetAuditEvents)
	}

	return router
}

package http

import (
	"github.com/mrlokans/audioshelf/internal/audit"
	"github.com/mrlokans/audioshelf/internal/auth"
	"github.com/mrlokans/audioshelf/internal/database"
	"github.com/mrlokans/audioshelf/internal/services"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	// Core services
	Catalog  *services.CatalogService
	Progress *services.ProgressTracker
	Reviews  *services.ReviewLedger
	Database *database.Database

	// Authentication. Without AuthService and SessionManager every request
	// is anonymous and only catalog reads work.
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	LoginLimiter   *auth.KeyedRateLimiter

	// CSRF protection is enabled when a secret is set.
	CSRFSecret    []byte
	SecureCookies bool

	// DemoMode rejects every write except login and logout.
	DemoMode bool

	// Audit log (optional)
	AuditService *audit.Service

	// Application info
	Version string
}

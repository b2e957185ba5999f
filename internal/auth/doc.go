// Package auth provides accounts, login sessions and request guards.
//
// Accounts live in the users table with bcrypt password hashes. A successful
// login stores the user id in an scs session; SQLite deployments persist
// sessions in the catalog database, others keep them in memory.
//
// # Configuration
//
//	AUTH_SESSION_LIFETIME=24h          # Session duration
//	AUTH_BCRYPT_COST=12                # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true           # HTTPS-only cookies
//	AUTH_CSRF_ENABLED=true             # X-CSRF-Token required on mutations
//	AUTH_SESSION_SECRET=<32+ chars>    # CSRF key, generated if empty
//	AUTH_LOGIN_RATE_PER_MINUTE=10      # Per-IP login/signup budget
//
// # Usage
//
//	authService := auth.NewService(db, validator, cfg.Auth)
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Database.Driver, cfg.Auth)
//	router.Use(sessions.SessionLoadSave(), auth.NewMiddleware(authService, sessions).Handler())
//	admin := router.Group("/api/admin", auth.RequireAdmin())
package auth

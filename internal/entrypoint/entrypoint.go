package entrypoint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/audioshelf/internal/audit"
	"github.com/mrlokans/audioshelf/internal/auth"
	"github.com/mrlokans/audioshelf/internal/config"
	"github.com/mrlokans/audioshelf/internal/database"
	auditrepo "github.com/mrlokans/audioshelf/internal/database/audit"
	http_controllers "github.com/mrlokans/audioshelf/internal/http"
	"github.com/mrlokans/audioshelf/internal/scheduler"
	"github.com/mrlokans/audioshelf/internal/services"
	"github.com/mrlokans/audioshelf/internal/tasks"
	"github.com/mrlokans/audioshelf/internal/validation"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests first so no new work reaches the queue
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// csrfKey turns the configured secret into the 32-byte key gorilla/csrf
// needs. A hex secret of the right size is used as is; anything else is
// hashed. An empty secret yields a random per-process key.
func csrfKey(secret string) ([]byte, error) {
	if secret == "" {
		generated, err := auth.GenerateSessionSecret()
		if err != nil {
			return nil, err
		}
		log.Printf("Generated CSRF secret (set AUTH_SESSION_SECRET to persist)")
		secret = generated
	}
	if key, err := hex.DecodeString(secret); err == nil && len(key) == 32 {
		return key, nil
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:], nil
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Audioshelf v%s", version)
	if cfg.Global.DemoMode {
		log.Printf("Demo mode enabled: the API is read-only")
	}
	gin.SetMode(cfg.Global.GinMode)

	db, err := database.NewDatabase(database.Options{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		DSN:      cfg.Database.DSN,
		LogLevel: cfg.Database.LogLevel,
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	validator := validation.New()
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))

	catalog := services.NewCatalogService(db.DB, validator, auditService)
	progress := services.NewProgressTracker(db.DB)
	reviewLedger := services.NewReviewLedger(db.DB, validator, auditService)

	authService := auth.NewService(db.DB, validator, cfg.Auth)
	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		user, created, err := authService.EnsureAdmin(context.Background(), cfg.Admin.Username, cfg.Admin.Password)
		if err != nil {
			log.Fatalf("Failed to seed administrator: %v", err)
		}
		if created {
			log.Printf("Created administrator %q", user.Username)
		}
	} else if hasUsers, _ := authService.HasUsers(context.Background()); !hasUsers {
		log.Printf("No users found. Run '%s create-admin' or set ADMIN_PASSWORD to create an administrator.", os.Args[0])
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, db.Driver, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	var csrfSecret []byte
	if cfg.Auth.CSRFEnabled {
		if csrfSecret, err = csrfKey(cfg.Auth.SessionSecret); err != nil {
			log.Fatalf("Failed to prepare CSRF secret: %v", err)
		}
	}

	var loginLimiter *auth.KeyedRateLimiter
	if cfg.Auth.LoginRatePerMinute > 0 {
		loginLimiter = auth.NewKeyedRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst)
	}

	// Background audit retention
	var taskClient *tasks.Client
	var cleanupScheduler *scheduler.AuditCleanupScheduler
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewCleanupAuditEventsQueue(auditService))
		taskClient.Start(bgCtx)

		cleanupScheduler = scheduler.NewAuditCleanupScheduler(taskClient, cfg.Tasks.AuditCleanupSchedule, cfg.Audit.RetentionDays)
		if err := cleanupScheduler.Start(bgCtx); err != nil {
			log.Printf("WARNING: audit cleanup scheduler disabled: %v", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Catalog:        catalog,
		Progress:       progress,
		Reviews:        reviewLedger,
		Database:       db,
		AuthService:    authService,
		SessionManager: sessionManager,
		LoginLimiter:   loginLimiter,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		DemoMode:       cfg.Global.DemoMode,
		AuditService:   auditService,
		Version:        version,
	})

	Serve(router, cfg, func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		bgCancel()
		auditService.Wait()
	})
}

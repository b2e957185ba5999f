package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/audioshelf/internal/entities"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqliteParams make writers serialise on BEGIN IMMEDIATE and enforce
// foreign keys on every pooled connection.
const sqliteParams = "_foreign_keys=on&_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL"

type Options struct {
	Driver   string // "sqlite" (default) or "postgres"
	Path     string // SQLite file path
	DSN      string // Postgres connection string
	LogLevel string // silent, error, warn, info
}

type Database struct {
	DB     *gorm.DB
	Driver string
}

func NewDatabase(opts Options) (*Database, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var dialector gorm.Dialector
	var location string
	switch driver {
	case DriverSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite database path is required")
		}
		dialector = sqlite.Open(SQLiteDSN(opts.Path))
		location = opts.Path
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres DSN is required")
		}
		dialector = postgres.Open(opts.DSN)
		location = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(parseLogLevel(opts.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s (%s)", location, driver)

	return &Database{DB: db, Driver: driver}, nil
}

// Migrate creates or updates every table the application uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.User{},
		&entities.Category{},
		&entities.Tag{},
		&entities.Book{},
		&entities.Chapter{},
		&entities.UserBook{},
		&entities.Review{},
		&entities.AuditEvent{},
	)
}

// SQLiteDSN appends the connection parameters the store relies on.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqliteParams
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

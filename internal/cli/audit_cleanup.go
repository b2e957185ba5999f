package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/audioshelf/internal/audit"
	"github.com/mrlokans/audioshelf/internal/config"
	"github.com/mrlokans/audioshelf/internal/database"
	auditrepo "github.com/mrlokans/audioshelf/internal/database/audit"
)

// AuditCleanupCommand deletes expired audit events right away instead of
// waiting for the scheduled run.
type AuditCleanupCommand struct {
	RetentionDays int
	DryRun        bool

	cfg *config.Config
}

func NewAuditCleanupCommand(cfg *config.Config) *AuditCleanupCommand {
	return &AuditCleanupCommand{cfg: cfg}
}

// ParseFlags parses command line flags
func (cmd *AuditCleanupCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("audit-cleanup", flag.ContinueOnError)

	fs.IntVar(&cmd.RetentionDays, "days", cmd.cfg.Audit.RetentionDays, "Keep events newer than this many days")
	fs.StringVar(&cmd.cfg.Database.Path, "db", cmd.cfg.Database.Path, "Path to the SQLite database")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Count matching events without deleting them")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s audit-cleanup [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.RetentionDays < 1 {
		return fmt.Errorf("-days must be at least 1")
	}
	return nil
}

// Run executes the command.
func (cmd *AuditCleanupCommand) Run() error {
	db, err := database.NewDatabase(database.Options{
		Driver:   cmd.cfg.Database.Driver,
		Path:     cmd.cfg.Database.Path,
		DSN:      cmd.cfg.Database.DSN,
		LogLevel: cmd.cfg.Database.LogLevel,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	retention := time.Duration(cmd.RetentionDays) * 24 * time.Hour
	repo := auditrepo.NewRepository(db.DB)

	if cmd.DryRun {
		count, err := repo.CountOlderThan(time.Now().Add(-retention))
		if err != nil {
			return err
		}
		fmt.Printf("Would delete %d audit events older than %d days\n", count, cmd.RetentionDays)
		return nil
	}

	svc := audit.NewService(repo)
	deleted, err := svc.DeleteOldEvents(retention)
	svc.LogCleanup(deleted, err)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d audit events older than %d days\n", deleted, cmd.RetentionDays)
	return nil
}

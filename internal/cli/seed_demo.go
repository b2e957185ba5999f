package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/audit"
	"github.com/mrlokans/audioshelf/internal/config"
	"github.com/mrlokans/audioshelf/internal/database"
	auditrepo "github.com/mrlokans/audioshelf/internal/database/audit"
	"github.com/mrlokans/audioshelf/internal/database/users"
	"github.com/mrlokans/audioshelf/internal/demo"
	"github.com/mrlokans/audioshelf/internal/services"
	"github.com/mrlokans/audioshelf/internal/validation"
)

// SeedDemoCommand fills an empty catalog with sample books on behalf of an
// existing administrator.
type SeedDemoCommand struct {
	Username string

	cfg *config.Config
}

func NewSeedDemoCommand(cfg *config.Config) *SeedDemoCommand {
	return &SeedDemoCommand{cfg: cfg}
}

// ParseFlags parses command line flags
func (cmd *SeedDemoCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed-demo", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "admin", cmd.cfg.Admin.Username, "Administrator the changes are recorded for")
	fs.StringVar(&cmd.cfg.Database.Path, "db", cmd.cfg.Database.Path, "Path to the SQLite database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed-demo [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Add sample books, chapters, categories and tags to an empty catalog.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Username == "" {
		return errors.New("-admin is required")
	}
	return nil
}

// Run executes the command.
func (cmd *SeedDemoCommand) Run() error {
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

	user, err := users.NewRepository(db.DB).GetUserByUsername(cmd.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("user %q not found, run create-admin first", cmd.Username)
	}
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return fmt.Errorf("user %q is not an administrator", cmd.Username)
	}

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	defer auditService.Wait()

	catalog := services.NewCatalogService(db.DB, validation.New(), auditService)
	actor := services.Actor{UserID: user.ID, Username: user.Username, Admin: true}

	result, err := demo.Seed(context.Background(), catalog, actor)
	if err != nil {
		return err
	}
	if result.Skipped {
		fmt.Println("Catalog is not empty, nothing seeded")
		return nil
	}
	fmt.Printf("Seeded %d books, %d chapters, %d categories, %d tags\n",
		result.Books, result.Chapters, result.Categories, result.Tags)
	return nil
}

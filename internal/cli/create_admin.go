package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/audioshelf/internal/auth"
	"github.com/mrlokans/audioshelf/internal/config"
	"github.com/mrlokans/audioshelf/internal/database"
	"github.com/mrlokans/audioshelf/internal/validation"
)

// CreateAdminCommand creates an administrator account or promotes an
// existing user.
type CreateAdminCommand struct {
	Username string
	Password string

	cfg *config.Config
}

// NewCreateAdminCommand creates a command whose defaults come from cfg.
func NewCreateAdminCommand(cfg *config.Config) *CreateAdminCommand {
	return &CreateAdminCommand{cfg: cfg}
}

// ParseFlags parses command line flags
func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "username", cmd.cfg.Admin.Username, "Administrator username")
	fs.StringVar(&cmd.Password, "password", cmd.cfg.Admin.Password, "Password for a new account (default $ADMIN_PASSWORD)")
	fs.StringVar(&cmd.cfg.Database.Path, "db", cmd.cfg.Database.Path, "Path to the SQLite database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account. An existing user with the same\n")
		fmt.Fprintf(os.Stderr, "name is promoted and keeps their password.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Username == "" {
		return errors.New("-username is required")
	}
	return nil
}

// Run executes the command.
func (cmd *CreateAdminCommand) Run() error {
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

	svc := auth.NewService(db.DB, validation.New(), cmd.cfg.Auth)
	user, created, err := svc.EnsureAdmin(context.Background(), cmd.Username, cmd.Password)
	if err != nil {
		return err
	}

	if created {
		fmt.Printf("Created administrator %q (id %d)\n", user.Username, user.ID)
	} else {
		fmt.Printf("User %q (id %d) is an administrator\n", user.Username, user.ID)
	}
	return nil
}

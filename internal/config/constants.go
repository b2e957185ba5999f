package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./audioshelf.db"

	// DefaultEnvFile is loaded before reading the environment when present.
	DefaultEnvFile = ".env"
)

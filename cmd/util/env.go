package util

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntWithDefault returns the value of an environment variable as int or a default value if not set
func GetEnvIntWithDefault(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ResolveDatabaseURLFromEnv fills *flagValue from the standard libpq PG*
// environment variables (PGHOST, PGPORT, PGDATABASE, PGUSER, PGPASSWORD,
// PGSSLMODE) when --flagName was not given explicitly, the same fallback
// psql itself applies. It leaves *flagValue untouched, and so the command's
// own MarkFlagRequired("database")-driven error still fires, when neither
// the flag nor PGDATABASE is set.
func ResolveDatabaseURLFromEnv(cmd *cobra.Command, flagName string, flagValue *string) func(*cobra.Command, []string) error {
	return func(*cobra.Command, []string) error {
		if cmd.Flags().Changed(flagName) || *flagValue != "" {
			return nil
		}
		database := GetEnvWithDefault("PGDATABASE", "")
		if database == "" {
			return nil
		}
		cfg := &ConnectionConfig{
			Host:            GetEnvWithDefault("PGHOST", "localhost"),
			Port:            GetEnvIntWithDefault("PGPORT", 5432),
			Database:        database,
			User:            GetEnvWithDefault("PGUSER", ""),
			Password:        GetEnvWithDefault("PGPASSWORD", ""),
			SSLMode:         GetEnvWithDefault("PGSSLMODE", ""),
			ApplicationName: GetEnvWithDefault("PGAPPNAME", ""),
		}
		return cmd.Flags().Set(flagName, cfg.DSN())
	}
}
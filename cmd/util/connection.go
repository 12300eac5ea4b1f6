package util

import (
	"fmt"
	"net/url"

	"github.com/pgmold/pgmold/internal/logger"
)

// ConnectionConfig holds database connection parameters assembled from the
// standard libpq PG* environment variables, for commands invoked without an
// explicit --database URL.
type ConnectionConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	ApplicationName string
}

// DSN renders config as a "postgres://" connection URL, the same shape a
// user would pass to --database directly, so it survives pq.ParseURL's
// validation in internal/source unchanged.
func (c *ConnectionConfig) DSN() string {
	log := logger.Get()
	log.Debug("building database connection string from PG* environment variables",
		"host", c.Host,
		"port", c.Port,
		"database", c.Database,
		"user", c.User,
		"sslmode", c.SSLMode,
	)

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}

	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ApplicationName != "" {
		q.Set("application_name", c.ApplicationName)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// WithApplicationName returns rawURL with its application_name query
// parameter set to name, preserving every other parameter. An empty name
// leaves rawURL untouched.
func WithApplicationName(rawURL, name string) (string, error) {
	if name == "" {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing connection URL: %w", err)
	}
	q := u.Query()
	q.Set("application_name", name)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

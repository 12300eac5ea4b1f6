// Package source resolves the schema source grammar used by the CLI and by
// the Terraform adapter: a list of "<kind>:<path>" strings into a single CIR
// (spec.md §6).
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cloudflare/backoff"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/pgmold/pgmold/internal/introspect"
	"github.com/pgmold/pgmold/ir"
)

// connectMaxWait/connectBaseWait bound the retry-with-backoff window for
// the initial introspection connection only: spec.md §7 permits retries on
// the read-only catalog connection attempt, never on apply's DDL
// transaction, where a retry could double-execute a statement.
const (
	connectMaxWait  = 30 * time.Second
	connectBaseWait = 500 * time.Millisecond
)

// InputError reports a malformed source spec (spec.md §7).
type InputError struct {
	Spec   string
	Detail string
}

func (e *InputError) Error() string { return fmt.Sprintf("invalid source %q: %s", e.Spec, e.Detail) }

// Load resolves one or more "sql:" and "db:" source specs into a single
// Schema. Multiple "sql:" sources merge through one ir.Parser, as spec.md
// §4.1 requires. A "db:" source is introspected directly; mixing a "db:"
// source with any other source is rejected, since a live catalog is
// already a complete schema-set and folding file-based DDL on top of it
// would make "which side wins" ambiguous.
func Load(ctx context.Context, specs []string) (*ir.Schema, error) {
	var sqlSpecs, dbSpecs []string
	for _, spec := range specs {
		kind, path, err := splitSpec(spec)
		if err != nil {
			return nil, err
		}
		switch kind {
		case "sql":
			sqlSpecs = append(sqlSpecs, path)
		case "db":
			dbSpecs = append(dbSpecs, path)
		default:
			return nil, &InputError{Spec: spec, Detail: fmt.Sprintf("unknown source kind %q", kind)}
		}
	}

	if len(dbSpecs) > 0 {
		if len(dbSpecs) > 1 || len(sqlSpecs) > 0 {
			return nil, &InputError{Spec: strings.Join(specs, ","), Detail: "a db: source must be the only source"}
		}
		return loadFromDatabase(ctx, dbSpecs[0])
	}

	return loadFromSQL(sqlSpecs)
}

func splitSpec(spec string) (kind, path string, err error) {
	idx := strings.IndexByte(spec, ':')
	if idx < 0 {
		return "", "", &InputError{Spec: spec, Detail: "missing \"<kind>:\" prefix"}
	}
	return spec[:idx], spec[idx+1:], nil
}

func loadFromDatabase(ctx context.Context, connURL string) (*ir.Schema, error) {
	if _, err := pq.ParseURL(connURL); err != nil {
		return nil, &introspect.ConnectionError{Err: fmt.Errorf("malformed connection URL: %w", err)}
	}

	conn, err := connectWithRetry(ctx, connURL)
	if err != nil {
		return nil, &introspect.ConnectionError{Err: err}
	}
	defer conn.Close(ctx)

	return introspect.Build(ctx, conn, ir.DefaultNamespace)
}

// connectWithRetry retries the initial connection with exponential backoff
// (the database may still be starting, e.g. right after a container or
// instance boot); it never retries anything past the connection itself.
func connectWithRetry(ctx context.Context, connURL string) (*pgx.Conn, error) {
	b := backoff.New(connectMaxWait, connectBaseWait)
	deadline := time.Now().Add(connectMaxWait)

	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := pgx.Connect(ctx, connURL)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
	return nil, fmt.Errorf("connecting after retries: %w", lastErr)
}

func loadFromSQL(specs []string) (*ir.Schema, error) {
	var files []string
	for _, spec := range specs {
		expanded, err := expandSQLPath(spec)
		if err != nil {
			return nil, err
		}
		files = append(files, expanded...)
	}

	var sources []ir.Source
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, &InputError{Spec: f, Detail: err.Error()}
		}
		sources = append(sources, ir.Source{Name: f, SQL: string(data)})
	}

	return ir.NewParser().ParseAll(sources)
}

// expandSQLPath resolves one sql: path into a sorted list of .sql files: a
// bare file is returned as-is, a directory is recursively expanded to
// **/*.sql, and a glob pattern is expanded with filepath.Glob.
func expandSQLPath(path string) ([]string, error) {
	if strings.ContainsAny(path, "*?[") {
		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, &InputError{Spec: path, Detail: err.Error()}
		}
		sort.Strings(matches)
		return matches, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &InputError{Spec: path, Detail: err.Error()}
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".sql") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, &InputError{Spec: path, Detail: err.Error()}
	}
	sort.Strings(files)
	return files, nil
}

// Package introspect builds a Schema from a live PostgreSQL catalog
// (spec.md §4.2). Every read happens inside one REPEATABLE READ transaction
// so the returned Schema is a consistent snapshot.
package introspect

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pgmold/pgmold/ir"
)

// ConnectionError wraps a failure to open or begin a transaction on the
// target database (spec.md §4.2 Connection).
type ConnectionError struct{ Err error }

func (e *ConnectionError) Error() string { return fmt.Sprintf("introspector connection: %v", e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }

// CatalogReadError wraps a failed catalog query (spec.md §4.2 CatalogRead).
type CatalogReadError struct {
	Query string
	Err   error
}

func (e *CatalogReadError) Error() string {
	return fmt.Sprintf("catalog read (%s): %v", e.Query, e.Err)
}
func (e *CatalogReadError) Unwrap() error { return e.Err }

// NormalizationError marks a catalog value the CIR cannot represent
// faithfully (spec.md §4.2 Normalization).
type NormalizationError struct {
	Object string
	Detail string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize %s: %s", e.Object, e.Detail)
}

// Inspector reads one namespace's worth of catalog state into a Schema.
type Inspector struct {
	tx        pgx.Tx
	namespace string
}

// Build opens a REPEATABLE READ, read-only transaction on conn, introspects
// namespace, and returns the resulting Schema. The transaction is always
// rolled back (it never writes), which also releases any snapshot held.
func Build(ctx context.Context, conn *pgx.Conn, namespace string) (*ir.Schema, error) {
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	defer tx.Rollback(ctx)

	insp := &Inspector{tx: tx, namespace: namespace}
	return insp.build(ctx)
}

func (i *Inspector) build(ctx context.Context) (*ir.Schema, error) {
	schema := ir.New()

	if err := i.buildExtensions(ctx, schema); err != nil {
		return nil, err
	}
	if err := i.buildEnums(ctx, schema); err != nil {
		return nil, err
	}
	if err := i.buildDomains(ctx, schema); err != nil {
		return nil, err
	}
	if err := i.buildTables(ctx, schema); err != nil {
		return nil, err
	}

	// These reads are independent of one another (none mutate shared state
	// outside their own destination map), but they all run over the same
	// pgx.Tx, and pgx documents a Tx as unsafe for concurrent use by
	// multiple goroutines: fanning them out would corrupt the connection's
	// wire protocol rather than genuinely parallelize the work. They stay
	// sequential, inside the one REPEATABLE READ transaction the whole
	// build runs under, so the result is a single consistent snapshot.
	if err := i.buildColumns(ctx, schema); err != nil {
		return nil, err
	}
	if err := i.buildIndexes(ctx, schema); err != nil {
		return nil, err
	}
	if err := i.buildForeignKeys(ctx, schema); err != nil {
		return nil, err
	}
	if err := i.buildChecks(ctx, schema); err != nil {
		return nil, err
	}
	if err := i.buildPolicies(ctx, schema); err != nil {
		return nil, err
	}
	if err := i.buildSequences(ctx, schema); err != nil {
		return nil, err
	}
	if err := i.buildFunctions(ctx, schema); err != nil {
		return nil, err
	}
	if err := i.buildViews(ctx, schema); err != nil {
		return nil, err
	}

	// Triggers and partitions reference functions/tables built above.
	if err := i.buildTriggers(ctx, schema); err != nil {
		return nil, err
	}
	if err := i.buildPartitions(ctx, schema); err != nil {
		return nil, err
	}

	return schema, nil
}

func (i *Inspector) query(ctx context.Context, label, sql string, args ...any) (pgx.Rows, error) {
	rows, err := i.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, &CatalogReadError{Query: label, Err: err}
	}
	return rows, nil
}

// Package pgmold provides a programmatic API for PostgreSQL schema
// management: parse or introspect a schema into the CIR, diff two CIRs,
// order the result into an executable plan, and render it to DDL.
package pgmold

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pgmold/pgmold/internal/differ"
	"github.com/pgmold/pgmold/internal/expandcontract"
	"github.com/pgmold/pgmold/internal/filter"
	"github.com/pgmold/pgmold/internal/linter"
	"github.com/pgmold/pgmold/internal/planner"
	"github.com/pgmold/pgmold/internal/source"
	"github.com/pgmold/pgmold/internal/sqlgen"
	"github.com/pgmold/pgmold/ir"
)

// Load resolves one or more "sql:"/"db:" source specs into a single CIR
// (spec.md §6).
func Load(ctx context.Context, specs ...string) (*ir.Schema, error) {
	return source.Load(ctx, specs)
}

// Plan is the result of diffing and ordering two schemas: the ops in
// execution order, and the rendered DDL. ID is a random identifier minted
// by each Diff call; "pgmold plan" prints it as a header comment, and no
// command reads it back.
type Plan struct {
	ID  uuid.UUID
	Ops []ir.MigrationOp
	DDL []string
}

// DiffOptions configures a Diff call.
type DiffOptions struct {
	Filter *filter.Filter
}

// Diff computes an ordered, renderable migration plan from "from" to "to".
// When opts.Filter is set, it is applied to both sides first (spec.md
// §4.3's "applied to both sides of a diff" rule).
func Diff(from, to *ir.Schema, opts DiffOptions) Plan {
	if opts.Filter != nil {
		from = filter.Apply(from, opts.Filter)
		to = filter.Apply(to, opts.Filter)
	}

	ops := differ.Diff(from, to)
	ordered := planner.Plan(ops, to)
	return Plan{ID: uuid.New(), Ops: ordered, DDL: sqlgen.Generate(ordered)}
}

// ZeroDowntimePlan is the three-phase decomposition of a Plan for online
// application (spec.md §4.8).
type ZeroDowntimePlan struct {
	Expand   []string
	Backfill []ir.MigrationOp
	Contract []string
}

// ZeroDowntime rewrites p into Expand/Backfill/Contract phases.
func ZeroDowntime(p Plan) ZeroDowntimePlan {
	phases := expandcontract.Transform(p.Ops)
	return ZeroDowntimePlan{
		Expand:   sqlgen.Generate(phases.Expand),
		Backfill: phases.Backfill,
		Contract: sqlgen.Generate(phases.Contract),
	}
}

// Lint evaluates a plan's ops against the fixed rule table (spec.md §4.7).
func Lint(p Plan, opts linter.Options) linter.Result {
	return linter.Lint(p.Ops, opts)
}

// Fingerprint is the SHA-256 hex digest of a schema's canonical
// serialization (spec.md §3, §6).
func Fingerprint(s *ir.Schema) (string, error) {
	return ir.Fingerprint(s)
}

// DriftReport is the JSON shape described in spec.md §6.
type DriftReport struct {
	HasDrift            bool     `json:"has_drift"`
	ExpectedFingerprint string   `json:"expected_fingerprint"`
	ActualFingerprint   string   `json:"actual_fingerprint"`
	Differences         []string `json:"differences"`
}

// Drift compares expected (the declared desired state) against actual (a
// freshly introspected live database) and reports whether they diverge.
func Drift(expected, actual *ir.Schema) (DriftReport, error) {
	expectedFP, err := ir.Fingerprint(expected)
	if err != nil {
		return DriftReport{}, fmt.Errorf("fingerprint expected schema: %w", err)
	}
	actualFP, err := ir.Fingerprint(actual)
	if err != nil {
		return DriftReport{}, fmt.Errorf("fingerprint actual schema: %w", err)
	}

	report := DriftReport{
		ExpectedFingerprint: expectedFP,
		ActualFingerprint:   actualFP,
		HasDrift:            expectedFP != actualFP,
	}
	if report.HasDrift {
		ops := differ.Diff(actual, expected)
		for _, op := range planner.Plan(ops, expected) {
			report.Differences = append(report.Differences, string(op.Kind)+" "+op.Table.String())
		}
	}
	return report, nil
}

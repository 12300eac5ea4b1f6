// Package expandcontract optionally rewrites a planner-ordered op list into
// a three-phase zero-downtime plan (spec.md §4.8).
package expandcontract

import "github.com/pgmold/pgmold/ir"

// Plan is the three-phase decomposition of an ordered op list.
type Plan struct {
	Expand   []ir.MigrationOp
	Backfill []ir.MigrationOp
	Contract []ir.MigrationOp
}

// SinglePhase returns ops unchanged, for callers that skip the transformer
// (spec.md §4.8: "this transformer is optional").
func SinglePhase(ops []ir.MigrationOp) []ir.MigrationOp { return ops }

// Transform splits a planner-ordered op list into Expand, Backfill and
// Contract phases.
//
//   - Expand: every create/alter, with index creates rewritten to run
//     CONCURRENTLY and foreign-key creates rewritten NOT VALID. A NOT NULL
//     column add is expanded as a nullable add.
//   - Backfill: a BackfillHint per NOT NULL column add, marking the data
//     work the caller must perform before Contract runs.
//   - Contract: the deferred SetColumnNotNull and ValidateConstraint ops,
//     followed by every drop.
func Transform(ops []ir.MigrationOp) Plan {
	var plan Plan

	for _, op := range ops {
		if op.Kind.IsDrop() {
			plan.Contract = append(plan.Contract, op)
			continue
		}

		switch op.Kind {
		case ir.OpAddIndex:
			cp := op
			cp.Concurrent = true
			plan.Expand = append(plan.Expand, cp)

		case ir.OpAddForeignKey:
			fk := *op.ForeignKey()
			fk.NotValid = true
			cp := op
			cp.After = &fk
			plan.Expand = append(plan.Expand, cp)
			plan.Contract = append(plan.Contract, ir.MigrationOp{
				Kind:      ir.OpValidateConstraint,
				Table:     op.Table,
				After:     op.ForeignKey(),
				Rationale: "validate foreign key added as NOT VALID during expand",
			})

		case ir.OpAddColumn:
			col := op.Column()
			if col.Nullable {
				plan.Expand = append(plan.Expand, op)
				continue
			}
			nullableCol := *col
			nullableCol.Nullable = true
			cp := op
			cp.After = &nullableCol
			plan.Expand = append(plan.Expand, cp)
			plan.Backfill = append(plan.Backfill, ir.MigrationOp{
				Kind:      ir.OpBackfillHint,
				Table:     op.Table,
				After:     col,
				Rationale: "backfill " + col.Name + " before SET NOT NULL",
			})
			plan.Contract = append(plan.Contract, ir.MigrationOp{
				Kind:      ir.OpSetColumnNotNull,
				Table:     op.Table,
				After:     col,
				Rationale: "column was added nullable during expand and must be tightened once backfilled",
			})

		default:
			plan.Expand = append(plan.Expand, op)
		}
	}

	return plan
}

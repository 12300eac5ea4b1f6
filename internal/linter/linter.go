// Package linter evaluates an ordered op list against a fixed rule table
// and reports which ops are safe to apply (spec.md §4.7).
package linter

import (
	"fmt"

	"github.com/pgmold/pgmold/ir"
)

// Severity is a LintIssue's level.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one rule violation against one op in the plan.
type Issue struct {
	Severity Severity
	RuleID   string
	OpIndex  int
	Message  string
}

// Options are the user-provided flags the rule table is evaluated against.
type Options struct {
	AllowDestructive bool
	ProductionMode   bool
}

// Result is the linter's output: every issue raised, plus whether the plan
// is blocked.
type Result struct {
	Issues     []Issue
	BlocksPlan bool
}

// Lint evaluates ops against the rule table in spec.md §4.7.
func Lint(ops []ir.MigrationOp, opts Options) Result {
	var issues []Issue
	for i, op := range ops {
		issues = append(issues, evalOp(i, op, opts)...)
	}

	blocks := false
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			blocks = true
			break
		}
	}
	return Result{Issues: issues, BlocksPlan: blocks}
}

func evalOp(i int, op ir.MigrationOp, opts Options) []Issue {
	var issues []Issue

	switch op.Kind {
	case ir.OpDropTable:
		issues = append(issues, Issue{SeverityWarning, "warn_data_loss_drop_table", i, "dropping table " + op.Before.(*ir.Table).QName().String() + " discards its data"})
		if !opts.AllowDestructive {
			issues = append(issues, Issue{SeverityError, "deny_drop_table", i, "DropTable requires --allow-destructive"})
		}
		if opts.ProductionMode {
			issues = append(issues, Issue{SeverityError, "deny_drop_in_prod", i, "DropTable is blocked in production mode"})
		}

	case ir.OpDropColumn:
		issues = append(issues, Issue{SeverityWarning, "warn_data_loss_drop_column", i, "dropping column " + op.Before.(*ir.Column).Name + " discards its data"})
		if !opts.AllowDestructive {
			issues = append(issues, Issue{SeverityError, "deny_drop_column", i, "DropColumn requires --allow-destructive"})
		}
		if opts.ProductionMode {
			issues = append(issues, Issue{SeverityError, "deny_drop_in_prod", i, "DropColumn is blocked in production mode"})
		}

	case ir.OpDropEnum:
		if !opts.AllowDestructive {
			issues = append(issues, Issue{SeverityError, "deny_drop_enum", i, "DropEnum requires --allow-destructive"})
		}
		if opts.ProductionMode {
			issues = append(issues, Issue{SeverityError, "deny_drop_in_prod", i, "DropEnum is blocked in production mode"})
		}

	case ir.OpAddColumn:
		col := op.Column()
		if !col.Nullable {
			issues = append(issues, Issue{SeverityWarning, "warn_set_not_null", i, "column " + col.Name + " is added NOT NULL"})
		}

	case ir.OpAlterColumn:
		from, to := op.Before.(*ir.Column), op.After.(*ir.Column)
		if typeNarrows(from.Type, to.Type) {
			issues = append(issues, Issue{SeverityWarning, "warn_type_narrowing", i, fmt.Sprintf("column %s narrows from %s to %s", to.Name, from.Type.Render(), to.Type.Render())})
		}
		if from.Nullable && !to.Nullable {
			issues = append(issues, Issue{SeverityWarning, "warn_set_not_null", i, "column " + to.Name + " transitions nullable to NOT NULL"})
		}

	case ir.OpAddForeignKey:
		fk := op.ForeignKey()
		if !fk.NotValid {
			issues = append(issues, Issue{SeverityInfo, "lock_hazard_add_foreign_key", i, "AddForeignKey without NOT VALID acquires ACCESS EXCLUSIVE while validating existing rows"})
		}

	case ir.OpAddIndex:
		issues = append(issues, Issue{SeverityInfo, "lock_hazard_create_index", i, "non-concurrent CREATE INDEX acquires a write-blocking lock on " + op.Index().Name})
	}

	return issues
}

// typeNarrows reports whether converting from `from` to `to` can lose data
// (spec.md §4.7 warn_type_narrowing): bigint->integer/smallint,
// integer->smallint, numeric precision/scale shrink, varchar length shrink,
// or text->varchar.
func typeNarrows(from, to ir.Type) bool {
	rank := map[ir.TypeTag]int{ir.TypeSmallInt: 1, ir.TypeInteger: 2, ir.TypeBigInt: 3}
	if fr, ok1 := rank[from.Tag]; ok1 {
		if tr, ok2 := rank[to.Tag]; ok2 {
			return tr < fr
		}
	}
	if from.Tag == ir.TypeVarchar && to.Tag == ir.TypeVarchar {
		if from.Length == nil || to.Length == nil {
			return false
		}
		return *to.Length < *from.Length
	}
	if from.Tag == ir.TypeText && to.Tag == ir.TypeVarchar {
		return true
	}
	if from.Tag == ir.TypeNumeric && to.Tag == ir.TypeNumeric {
		if from.Precision != nil && to.Precision != nil && *to.Precision < *from.Precision {
			return true
		}
		if from.Scale != nil && to.Scale != nil && *to.Scale < *from.Scale {
			return true
		}
	}
	return false
}

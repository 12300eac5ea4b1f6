package differ

import "github.com/pgmold/pgmold/ir"

// diffFunctions implements spec.md §4.4 item 6: a signature change (the
// argument type list or return type) cannot be CREATE OR REPLACE'd, so it
// becomes a drop-then-create; any other change becomes ReplaceFunction; a
// body-only change under NormalizeBody equivalence is a no-op.
func diffFunctions(from, to *ir.Schema) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to.Functions) {
		toFn := to.Functions[key]
		fromFn, ok := from.Functions[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateFunction, After: toFn, Rationale: "function " + key + " present in target but not source"})
			continue
		}
		if fromFn.Signature() != toFn.Signature() || !fromFn.ReturnType.Equal(toFn.ReturnType) {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropFunction, Before: fromFn, Rationale: "function " + key + " signature changed"})
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateFunction, After: toFn, Rationale: "function " + key + " signature changed"})
			continue
		}
		if !functionEqual(fromFn, toFn) {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpReplaceFunction, Before: fromFn, After: toFn, Rationale: "function " + key + " definition changed"})
		} else if fromFn.Owner != toFn.Owner {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpSetFunctionOwner, Before: fromFn, After: toFn, Rationale: "function " + key + " owner changed"})
		}
	}
	for _, key := range sortedKeys(from.Functions) {
		if _, ok := to.Functions[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropFunction, Before: from.Functions[key], Rationale: "function " + key + " absent from target"})
		}
	}
	return ops
}

// functionEqual compares everything CREATE OR REPLACE can change in place:
// body (under normalization), volatility, security, and config params.
// Owner is intentionally excluded — it changes via a separate
// SetFunctionOwner op, not a replace (spec.md §4.6 renders it as a distinct
// ALTER FUNCTION ... OWNER TO statement).
func functionEqual(a, b *ir.Function) bool {
	if !ir.BodiesEqual(a.Body, b.Body) || a.Language != b.Language || a.Volatility != b.Volatility || a.SecurityDefiner != b.SecurityDefiner {
		return false
	}
	if len(a.ConfigParams) != len(b.ConfigParams) {
		return false
	}
	for i := range a.ConfigParams {
		if a.ConfigParams[i] != b.ConfigParams[i] {
			return false
		}
	}
	return true
}

func diffViews(from, to *ir.Schema) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to.Views) {
		toView := to.Views[key]
		fromView, ok := from.Views[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateView, After: toView, Rationale: "view " + key + " present in target but not source"})
			continue
		}
		if !ir.BodiesEqual(fromView.Definition, toView.Definition) {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpReplaceView, Before: fromView, After: toView, Rationale: "view " + key + " definition changed"})
		}
	}
	for _, key := range sortedKeys(from.Views) {
		if _, ok := to.Views[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropView, Before: from.Views[key], Rationale: "view " + key + " absent from target"})
		}
	}
	return ops
}

func diffTriggers(from, to *ir.Schema) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to.Triggers) {
		toTrig := to.Triggers[key]
		fromTrig, ok := from.Triggers[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateTrigger, After: toTrig, Rationale: "trigger " + key + " present in target but not source"})
			continue
		}
		if !triggerEqual(fromTrig, toTrig) {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropTrigger, Before: fromTrig, Rationale: "trigger " + key + " definition changed"})
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateTrigger, After: toTrig, Rationale: "trigger " + key + " definition changed"})
		}
	}
	for _, key := range sortedKeys(from.Triggers) {
		if _, ok := to.Triggers[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropTrigger, Before: from.Triggers[key], Rationale: "trigger " + key + " absent from target"})
		}
	}
	return ops
}

func triggerEqual(a, b *ir.Trigger) bool {
	return a.Table == b.Table && a.Timing == b.Timing && a.Level == b.Level && a.Function == b.Function &&
		ir.NormalizeBody(a.Condition) == ir.NormalizeBody(b.Condition) && stringsEqual(a.Events, b.Events)
}

// diffPartitions implements spec.md §4.4 item 5: a change of FOR VALUES or
// of parent table is a detach+attach pair; an unchanged attachment is a
// no-op.
func diffPartitions(from, to *ir.Schema) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to.Partitions) {
		toPart := to.Partitions[key]
		fromPart, ok := from.Partitions[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAttachPartition, After: toPart, Rationale: "partition " + key + " present in target but not source"})
			continue
		}
		if fromPart.ParentNamespace != toPart.ParentNamespace || fromPart.ParentTable != toPart.ParentTable || fromPart.ForValuesClause != toPart.ForValuesClause {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDetachPartition, Before: fromPart, Rationale: "partition " + key + " bound or parent changed"})
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAttachPartition, After: toPart, Rationale: "partition " + key + " bound or parent changed"})
		}
	}
	for _, key := range sortedKeys(from.Partitions) {
		if _, ok := to.Partitions[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDetachPartition, Before: from.Partitions[key], Rationale: "partition " + key + " absent from target"})
		}
	}
	return ops
}

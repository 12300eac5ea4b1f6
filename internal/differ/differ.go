// Package differ computes the unordered set of MigrationOps that would
// transform one schema into another (spec.md §4.4). It never orders its
// output — internal/planner does that — and it never produces SQL text —
// internal/sqlgen does that.
package differ

import (
	"sort"

	"github.com/pgmold/pgmold/ir"
)

// Diff compares from (the live/current schema) against to (the desired
// schema) and returns every op needed to transform from into to.
func Diff(from, to *ir.Schema) []ir.MigrationOp {
	var ops []ir.MigrationOp
	ops = append(ops, diffExtensions(from, to)...)
	ops = append(ops, diffEnums(from, to)...)
	ops = append(ops, diffDomains(from, to)...)
	ops = append(ops, diffSequences(from, to)...)
	ops = append(ops, diffTables(from, to)...)
	ops = append(ops, diffPartitions(from, to)...)
	ops = append(ops, diffFunctions(from, to)...)
	ops = append(ops, diffViews(from, to)...)
	ops = append(ops, diffTriggers(from, to)...)
	return ops
}

// sortedKeys returns the keys of a qualified-name-keyed map in lexical
// order, the ordering every CIR map is serialized in (spec.md §3).
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func diffExtensions(from, to *ir.Schema) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to.Extensions) {
		toObj := to.Extensions[key]
		if fromObj, ok := from.Extensions[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateExtension, After: toObj, Rationale: "extension " + key + " present in target but not source"})
		} else if fromObj.Version != toObj.Version {
			// no in-place ALTER EXTENSION UPDATE is modeled; version bump is
			// a drop-then-create, same as any field change with no mutation path.
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropExtension, Before: fromObj, Rationale: "extension " + key + " version changed"})
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateExtension, After: toObj, Rationale: "extension " + key + " version changed"})
		}
	}
	for _, key := range sortedKeys(from.Extensions) {
		if _, ok := to.Extensions[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropExtension, Before: from.Extensions[key], Rationale: "extension " + key + " absent from target"})
		}
	}
	return ops
}

func diffEnums(from, to *ir.Schema) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to.Enums) {
		toObj := to.Enums[key]
		fromObj, ok := from.Enums[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateEnum, After: toObj, Rationale: "enum " + key + " present in target but not source"})
			continue
		}
		if change, isTailAdd := enumChange(fromObj, toObj); change {
			if isTailAdd {
				for _, v := range toObj.Values[len(fromObj.Values):] {
					ops = append(ops, ir.MigrationOp{Kind: ir.OpAddEnumValue, Table: toObj.QName(), After: v, Rationale: "enum value appended to " + key})
				}
			} else {
				ops = append(ops, ir.MigrationOp{Kind: ir.OpDropEnum, Before: fromObj, Rationale: "enum " + key + " values reordered, removed, or inserted mid-list"})
				ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateEnum, After: toObj, Rationale: "enum " + key + " values reordered, removed, or inserted mid-list"})
			}
		}
	}
	for _, key := range sortedKeys(from.Enums) {
		if _, ok := to.Enums[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropEnum, Before: from.Enums[key], Rationale: "enum " + key + " absent from target"})
		}
	}
	return ops
}

// enumChange reports whether two enum value lists differ, and if so whether
// the difference is purely a tail append (spec.md §4.4 item 4).
func enumChange(from, to *ir.Enum) (changed, isTailAppend bool) {
	if len(to.Values) >= len(from.Values) {
		prefixMatches := true
		for i, v := range from.Values {
			if to.Values[i] != v {
				prefixMatches = false
				break
			}
		}
		if prefixMatches {
			return len(to.Values) != len(from.Values), len(to.Values) != len(from.Values)
		}
	}
	return !stringsEqual(from.Values, to.Values), false
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func diffDomains(from, to *ir.Schema) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to.Domains) {
		toObj := to.Domains[key]
		fromObj, ok := from.Domains[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateDomain, After: toObj, Rationale: "domain " + key + " present in target but not source"})
			continue
		}
		if !domainEqual(fromObj, toObj) {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAlterDomain, Before: fromObj, After: toObj, Rationale: "domain " + key + " definition changed"})
		}
	}
	for _, key := range sortedKeys(from.Domains) {
		if _, ok := to.Domains[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropDomain, Before: from.Domains[key], Rationale: "domain " + key + " absent from target"})
		}
	}
	return ops
}

func domainEqual(a, b *ir.Domain) bool {
	if !a.BaseType.Equal(b.BaseType) || a.Nullable != b.Nullable || a.Default != b.Default {
		return false
	}
	return stringsEqual(a.Constraints, b.Constraints)
}

func diffSequences(from, to *ir.Schema) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to.Sequences) {
		toObj := to.Sequences[key]
		fromObj, ok := from.Sequences[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateSequence, After: toObj, Rationale: "sequence " + key + " present in target but not source"})
			continue
		}
		if !sequenceEqual(fromObj, toObj) {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAlterSequence, Before: fromObj, After: toObj, Rationale: "sequence " + key + " parameters changed"})
		}
	}
	for _, key := range sortedKeys(from.Sequences) {
		if _, ok := to.Sequences[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropSequence, Before: from.Sequences[key], Rationale: "sequence " + key + " absent from target"})
		}
	}
	return ops
}

func sequenceEqual(a, b *ir.Sequence) bool {
	return a.DataType == b.DataType && a.Increment == b.Increment && a.StartValue == b.StartValue &&
		a.Cycle == b.Cycle && int64PtrEqual(a.MinValue, b.MinValue) && int64PtrEqual(a.MaxValue, b.MaxValue)
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

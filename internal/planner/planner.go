// Package planner orders an unordered op set into a sequence whose
// execution is correct (spec.md §4.5). The planner is pure: identical
// inputs produce byte-identical ordered output.
package planner

import (
	"sort"

	"github.com/pgmold/pgmold/ir"
)

// Plan orders ops for a migration from the current schema to target. target
// is consulted only to resolve FK dependency edges when topologically
// sorting the CreateTable subgroup.
func Plan(ops []ir.MigrationOp, target *ir.Schema) []ir.MigrationOp {
	var creates, drops []ir.MigrationOp
	for _, op := range ops {
		if op.Kind.IsDrop() {
			drops = append(drops, op)
		} else {
			creates = append(creates, op)
		}
	}

	creates = orderCreates(creates, target)
	drops = orderDrops(drops)

	out := make([]ir.MigrationOp, 0, len(creates)+len(drops))
	out = append(out, creates...)
	out = append(out, drops...)
	return out
}

// opKey is the lexical tie-breaker within a kind bucket: owning table first
// (for nested ops), then the op's own object identity.
func opKey(op ir.MigrationOp) string {
	key := op.Table.String()
	switch {
	case op.Extension() != nil:
		key += "\x00" + op.Extension().QName().String()
	case op.Enum() != nil:
		key += "\x00" + op.Enum().QName().String()
	case op.Kind == ir.OpAddEnumValue:
		key += "\x00" + op.EnumValueAdded()
	case op.Domain() != nil:
		key += "\x00" + op.Domain().QName().String()
	case op.Sequence() != nil:
		key += "\x00" + op.Sequence().QName().String()
	case op.TableObj() != nil:
		key += "\x00" + op.TableObj().QName().String()
	case op.Partition() != nil:
		key += "\x00" + op.Partition().QName().String()
	case op.Column() != nil:
		key += "\x00" + op.Column().Name
	case op.PrimaryKey() != nil:
		key += "\x00" + op.PrimaryKey().Name
	case op.Index() != nil:
		key += "\x00" + op.Index().Name
	case op.ForeignKey() != nil:
		key += "\x00" + op.ForeignKey().Name
	case op.Check() != nil:
		key += "\x00" + op.Check().Name
	case op.Policy() != nil:
		key += "\x00" + op.Policy().Name
	case op.Function() != nil:
		key += "\x00" + op.Function().QName().String() + "(" + op.Function().Signature() + ")"
	case op.View() != nil:
		key += "\x00" + op.View().QName().String()
	case op.Trigger() != nil:
		key += "\x00" + op.Trigger().QName().String()
	}
	return key
}

func orderCreates(ops []ir.MigrationOp, target *ir.Schema) []ir.MigrationOp {
	sort.SliceStable(ops, func(i, j int) bool {
		ki, kj := ops[i].Kind.CreateOrder(), ops[j].Kind.CreateOrder()
		if ki != kj {
			return ki < kj
		}
		return opKey(ops[i]) < opKey(ops[j])
	})

	// Topologically sort the CreateTable subgroup by FK dependency (spec.md
	// §4.5 item 3); every other kind bucket already has a stable lexical
	// order from the sort above.
	start := -1
	end := -1
	for i, op := range ops {
		if op.Kind == ir.OpCreateTable {
			if start == -1 {
				start = i
			}
			end = i + 1
		}
	}
	if start != -1 {
		sorted := topoSortTables(ops[start:end], target)
		copy(ops[start:end], sorted)
	}
	return ops
}

func orderDrops(ops []ir.MigrationOp) []ir.MigrationOp {
	sort.SliceStable(ops, func(i, j int) bool {
		ki, kj := ops[i].Kind.DropOrder(), ops[j].Kind.DropOrder()
		if ki != kj {
			return ki < kj
		}
		return opKey(ops[i]) < opKey(ops[j])
	})
	return ops
}

// topoSortTables runs Kahn's algorithm over the CreateTable subgroup, with
// edges table_A -> table_B whenever A has an FK referencing B in target,
// lexical tie-breaking among ready nodes, and cycle handling: a table
// genuinely stuck in a cycle is emitted (without its FKs, which the
// already-later foreign-key subgroup creates once every table exists) as
// soon as it is the lexically-first remaining node, rather than blocking
// forever (spec.md §4.5 item 3).
func topoSortTables(ops []ir.MigrationOp, target *ir.Schema) []ir.MigrationOp {
	if len(ops) <= 1 {
		return ops
	}

	byName := map[string]ir.MigrationOp{}
	var names []string
	for _, op := range ops {
		name := op.TableObj().QName().String()
		byName[name] = op
		names = append(names, name)
	}
	sort.Strings(names)

	inDegree := map[string]int{}
	adj := map[string][]string{}
	for _, name := range names {
		inDegree[name] = 0
	}
	for _, name := range names {
		table := byName[name].TableObj()
		for _, fkKey := range sortedFKTargets(table) {
			if fkKey == name {
				continue // self-reference never blocks table creation order
			}
			if _, ok := inDegree[fkKey]; !ok {
				continue // references a table outside this create batch (already exists)
			}
			adj[fkKey] = append(adj[fkKey], name)
			inDegree[name]++
		}
	}

	var queue []string
	for _, name := range names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	processed := map[string]bool{}
	var order []string
	for len(order) < len(names) {
		if len(queue) == 0 {
			// cycle: release the lexically-first unprocessed table
			for _, name := range names {
				if !processed[name] {
					queue = append(queue, name)
					break
				}
			}
		}
		sort.Strings(queue)
		next := queue[0]
		queue = queue[1:]
		if processed[next] {
			continue
		}
		processed[next] = true
		order = append(order, next)
		var freed []string
		for _, dep := range adj[next] {
			inDegree[dep]--
			if inDegree[dep] <= 0 && !processed[dep] {
				freed = append(freed, dep)
			}
		}
		sort.Strings(freed)
		queue = append(queue, freed...)
	}

	out := make([]ir.MigrationOp, len(order))
	for i, name := range order {
		out[i] = byName[name]
	}
	return out
}

func sortedFKTargets(table *ir.Table) []string {
	var targets []string
	for _, key := range fkKeys(table) {
		fk := table.ForeignKeys[key]
		targets = append(targets, ir.NewQualifiedName(fk.ReferencedSchema, fk.ReferencedTable).String())
	}
	sort.Strings(targets)
	return targets
}

func fkKeys(table *ir.Table) []string {
	keys := make([]string, 0, len(table.ForeignKeys))
	for k := range table.ForeignKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

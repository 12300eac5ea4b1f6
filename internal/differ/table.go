package differ

import "github.com/pgmold/pgmold/ir"

func diffTables(from, to *ir.Schema) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to.Tables) {
		toTable := to.Tables[key]
		fromTable, ok := from.Tables[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreateTable, After: toTable, Rationale: "table " + key + " present in target but not source"})
			// CREATE TABLE carries the columns only; the primary key, indexes,
			// foreign keys, checks and policies follow as their own ops.
			bare := &ir.Table{Namespace: toTable.Namespace, Name: toTable.Name, Columns: toTable.Columns}
			ops = append(ops, diffTableBody(bare, toTable)...)
			continue
		}
		ops = append(ops, diffTableBody(fromTable, toTable)...)
	}
	for _, key := range sortedKeys(from.Tables) {
		if _, ok := to.Tables[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropTable, Before: from.Tables[key], Rationale: "table " + key + " absent from target"})
		}
	}
	return ops
}

// diffTableBody diffs two versions of one table (for a new table, a bare
// copy holding only its columns against the target table): columns,
// primary key, indexes, foreign keys, checks, policies and RLS flags are
// each diffed independently (spec.md §4.4 item 3).
func diffTableBody(from, to *ir.Table) []ir.MigrationOp {
	qn := to.QName()
	var ops []ir.MigrationOp

	ops = append(ops, diffColumns(qn, from, to)...)
	ops = append(ops, diffPrimaryKey(qn, from.PrimaryKey, to.PrimaryKey)...)
	ops = append(ops, diffIndexes(qn, from.Indexes, to.Indexes)...)
	ops = append(ops, diffForeignKeys(qn, from.ForeignKeys, to.ForeignKeys)...)
	ops = append(ops, diffChecks(qn, from.Checks, to.Checks)...)
	ops = append(ops, diffRLS(qn, from, to)...)
	ops = append(ops, diffPolicies(qn, from.Policies, to.Policies)...)

	return ops
}

func diffColumns(table ir.QualifiedName, from, to *ir.Table) []ir.MigrationOp {
	var ops []ir.MigrationOp
	fromByName := map[string]*ir.Column{}
	for _, c := range from.Columns {
		fromByName[c.Name] = c
	}
	toByName := map[string]*ir.Column{}
	for _, c := range to.Columns {
		toByName[c.Name] = c
	}

	for _, toCol := range to.Columns {
		fromCol, ok := fromByName[toCol.Name]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAddColumn, Table: table, After: toCol, Rationale: "column " + toCol.Name + " present in target but not source"})
			continue
		}
		if !columnEqual(fromCol, toCol) {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAlterColumn, Table: table, Before: fromCol, After: toCol, Rationale: "column " + toCol.Name + " definition changed"})
		}
	}
	for _, fromCol := range from.Columns {
		if _, ok := toByName[fromCol.Name]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropColumn, Table: table, Before: fromCol, Rationale: "column " + fromCol.Name + " absent from target"})
		}
	}
	return ops
}

func columnEqual(a, b *ir.Column) bool {
	return a.Type.Equal(b.Type) && a.Nullable == b.Nullable && a.Default == b.Default && a.SequenceName == b.SequenceName
}

func diffPrimaryKey(table ir.QualifiedName, from, to *ir.PrimaryKey) []ir.MigrationOp {
	switch {
	case from == nil && to == nil:
		return nil
	case from == nil:
		return []ir.MigrationOp{{Kind: ir.OpAddPrimaryKey, Table: table, After: to, Rationale: "primary key added"}}
	case to == nil:
		return []ir.MigrationOp{{Kind: ir.OpDropPrimaryKey, Table: table, Before: from, Rationale: "primary key removed"}}
	case from.Name == to.Name && stringsEqual(from.Columns, to.Columns):
		return nil
	default:
		return []ir.MigrationOp{
			{Kind: ir.OpDropPrimaryKey, Table: table, Before: from, Rationale: "primary key definition changed"},
			{Kind: ir.OpAddPrimaryKey, Table: table, After: to, Rationale: "primary key definition changed"},
		}
	}
}

func diffIndexes(table ir.QualifiedName, from, to map[string]*ir.Index) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to) {
		toIdx := to[key]
		fromIdx, ok := from[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAddIndex, Table: table, After: toIdx, Rationale: "index " + key + " present in target but not source"})
			continue
		}
		if !indexEqual(fromIdx, toIdx) {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropIndex, Table: table, Before: fromIdx, Rationale: "index " + key + " definition changed"})
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAddIndex, Table: table, After: toIdx, Rationale: "index " + key + " definition changed"})
		}
	}
	for _, key := range sortedKeys(from) {
		if _, ok := to[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropIndex, Table: table, Before: from[key], Rationale: "index " + key + " absent from target"})
		}
	}
	return ops
}

func indexEqual(a, b *ir.Index) bool {
	if a.Method != b.Method || a.Unique != b.Unique || a.Predicate != b.Predicate || len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	return true
}

func diffForeignKeys(table ir.QualifiedName, from, to map[string]*ir.ForeignKey) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to) {
		toFK := to[key]
		fromFK, ok := from[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAddForeignKey, Table: table, After: toFK, Rationale: "foreign key " + key + " present in target but not source"})
			continue
		}
		if !foreignKeyEqual(fromFK, toFK) {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropForeignKey, Table: table, Before: fromFK, Rationale: "foreign key " + key + " definition changed"})
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAddForeignKey, Table: table, After: toFK, Rationale: "foreign key " + key + " definition changed"})
		}
	}
	for _, key := range sortedKeys(from) {
		if _, ok := to[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropForeignKey, Table: table, Before: from[key], Rationale: "foreign key " + key + " absent from target"})
		}
	}
	return ops
}

func foreignKeyEqual(a, b *ir.ForeignKey) bool {
	return stringsEqual(a.Columns, b.Columns) && a.ReferencedSchema == b.ReferencedSchema &&
		a.ReferencedTable == b.ReferencedTable && stringsEqual(a.ReferencedColumns, b.ReferencedColumns) &&
		a.OnDelete == b.OnDelete && a.OnUpdate == b.OnUpdate && a.NotValid == b.NotValid
}

func diffChecks(table ir.QualifiedName, from, to map[string]*ir.Check) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to) {
		toCk := to[key]
		fromCk, ok := from[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAddCheck, Table: table, After: toCk, Rationale: "check constraint " + key + " present in target but not source"})
			continue
		}
		if ir.NormalizeBody(fromCk.Clause) != ir.NormalizeBody(toCk.Clause) {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropCheck, Table: table, Before: fromCk, Rationale: "check constraint " + key + " clause changed"})
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAddCheck, Table: table, After: toCk, Rationale: "check constraint " + key + " clause changed"})
		}
	}
	for _, key := range sortedKeys(from) {
		if _, ok := to[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropCheck, Table: table, Before: from[key], Rationale: "check constraint " + key + " absent from target"})
		}
	}
	return ops
}

func diffRLS(table ir.QualifiedName, from, to *ir.Table) []ir.MigrationOp {
	var ops []ir.MigrationOp
	if from.RLSEnabled != to.RLSEnabled {
		if to.RLSEnabled {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpEnableRLS, Table: table, Rationale: "row level security enabled on " + table.String()})
		} else {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDisableRLS, Table: table, Rationale: "row level security disabled on " + table.String()})
		}
	}
	if from.RLSForced != to.RLSForced {
		if to.RLSForced {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpForceRLS, Table: table, Rationale: "row level security forced on " + table.String()})
		} else {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpNoForceRLS, Table: table, Rationale: "row level security no longer forced on " + table.String()})
		}
	}
	return ops
}

func diffPolicies(table ir.QualifiedName, from, to map[string]*ir.Policy) []ir.MigrationOp {
	var ops []ir.MigrationOp
	for _, key := range sortedKeys(to) {
		toPol := to[key]
		fromPol, ok := from[key]
		if !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpCreatePolicy, Table: table, After: toPol, Rationale: "policy " + key + " present in target but not source"})
			continue
		}
		if !policyEqual(fromPol, toPol) {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpAlterPolicy, Table: table, Before: fromPol, After: toPol, Rationale: "policy " + key + " definition changed"})
		}
	}
	for _, key := range sortedKeys(from) {
		if _, ok := to[key]; !ok {
			ops = append(ops, ir.MigrationOp{Kind: ir.OpDropPolicy, Table: table, Before: from[key], Rationale: "policy " + key + " absent from target"})
		}
	}
	return ops
}

func policyEqual(a, b *ir.Policy) bool {
	return a.Command == b.Command && stringsEqual(a.Roles, b.Roles) &&
		ir.NormalizeBody(a.Using) == ir.NormalizeBody(b.Using) && ir.NormalizeBody(a.WithCheck) == ir.NormalizeBody(b.WithCheck)
}

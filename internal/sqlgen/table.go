package sqlgen

import (
	"fmt"
	"strings"

	"github.com/pgmold/pgmold/ir"
)

// renderCreateTable emits the table body only — primary key, indexes,
// foreign keys, checks, and policies each arrive as their own ops later in
// the plan (spec.md §4.5 item 2), so CREATE TABLE here carries only columns
// plus the partition-parent clause.
func renderCreateTable(t *ir.Table) string {
	var lines []string
	for _, col := range t.Columns {
		lines = append(lines, "    "+renderColumnDef(col))
	}

	var stmt strings.Builder
	fmt.Fprintf(&stmt, "CREATE TABLE %s (\n%s\n)", ir.QuoteQName(t.QName()), strings.Join(lines, ",\n"))
	if t.IsPartitioned {
		fmt.Fprintf(&stmt, " PARTITION BY %s (%s)", t.PartitionStrategy, t.PartitionKey)
	}
	stmt.WriteString(";")
	return stmt.String()
}

func renderColumnDef(col *ir.Column) string {
	def := fmt.Sprintf("%s %s", ir.QuoteIdentifier(col.Name), col.Type.Render())
	if !col.Nullable {
		def += " NOT NULL"
	}
	if col.Default != "" {
		def += " DEFAULT " + col.Default
	}
	return def
}

func renderAddColumn(table ir.QualifiedName, col *ir.Column) string {
	return fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s;`, ir.QuoteQName(table), renderColumnDef(col))
}

// renderAlterColumn emits one ALTER TABLE statement per changed facet
// (type, nullability, default); the linter — not the generator — decides
// whether the change is safe (spec.md §4.4 item 7).
func renderAlterColumn(table ir.QualifiedName, from, to *ir.Column) []string {
	var stmts []string
	qn := ir.QuoteQName(table)
	col := ir.QuoteIdentifier(to.Name)
	if !from.Type.Equal(to.Type) {
		stmts = append(stmts, fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s;`, qn, col, to.Type.Render(), col, to.Type.Render()))
	}
	if from.Nullable != to.Nullable {
		if to.Nullable {
			stmts = append(stmts, fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;`, qn, col))
		} else {
			stmts = append(stmts, fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;`, qn, col))
		}
	}
	if from.Default != to.Default {
		if to.Default == "" {
			stmts = append(stmts, fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;`, qn, col))
		} else {
			stmts = append(stmts, fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;`, qn, col, to.Default))
		}
	}
	return stmts
}

func renderAddPrimaryKey(table ir.QualifiedName, pk *ir.PrimaryKey) string {
	return fmt.Sprintf(`ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s);`,
		ir.QuoteQName(table), ir.QuoteIdentifier(pk.Name), quoteIdentList(pk.Columns))
}

func renderCreateIndex(table ir.QualifiedName, idx *ir.Index, concurrent bool) string {
	var cols []string
	for _, c := range idx.Columns {
		col := c.Expression
		if isBareIdentifier(col) {
			col = ir.QuoteIdentifier(col)
		}
		if c.Desc {
			col += " DESC"
		} else {
			col += " ASC"
		}
		if c.NullsFirst {
			col += " NULLS FIRST"
		} else {
			col += " NULLS LAST"
		}
		cols = append(cols, col)
	}
	stmt := "CREATE "
	if idx.Unique {
		stmt += "UNIQUE "
	}
	stmt += "INDEX "
	if concurrent {
		stmt += "CONCURRENTLY "
	}
	stmt += fmt.Sprintf(`%s ON %s USING %s (%s)`, ir.QuoteIdentifier(idx.Name), ir.QuoteQName(table), idx.Method, strings.Join(cols, ", "))
	if idx.Predicate != "" {
		stmt += " WHERE " + idx.Predicate
	}
	return stmt + ";"
}

// isBareIdentifier reports whether s is a plain column name rather than an
// expression, so expression-index columns are emitted verbatim instead of
// being (incorrectly) identifier-quoted as a whole.
func isBareIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}

func renderAddForeignKey(table ir.QualifiedName, fk *ir.ForeignKey) string {
	stmt := fmt.Sprintf(`ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)`,
		ir.QuoteQName(table), ir.QuoteIdentifier(fk.Name), quoteIdentList(fk.Columns),
		ir.QuoteQualified(fk.ReferencedSchema, fk.ReferencedTable), quoteIdentList(fk.ReferencedColumns))
	if fk.OnDelete != "" && fk.OnDelete != "NO ACTION" {
		stmt += " ON DELETE " + fk.OnDelete
	}
	if fk.OnUpdate != "" && fk.OnUpdate != "NO ACTION" {
		stmt += " ON UPDATE " + fk.OnUpdate
	}
	if fk.NotValid {
		stmt += " NOT VALID"
	}
	return stmt + ";"
}

func renderAddCheck(table ir.QualifiedName, c *ir.Check) string {
	return fmt.Sprintf(`ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);`, ir.QuoteQName(table), ir.QuoteIdentifier(c.Name), c.Clause)
}

func renderPolicy(verb string, table ir.QualifiedName, p *ir.Policy) string {
	stmt := fmt.Sprintf(`%s POLICY %s ON %s`, verb, ir.QuoteIdentifier(p.Name), ir.QuoteQName(table))
	if p.Command != "" && p.Command != "ALL" {
		stmt += " FOR " + p.Command
	}
	if len(p.Roles) > 0 {
		stmt += " TO " + strings.Join(p.Roles, ", ")
	}
	if p.Using != "" {
		stmt += fmt.Sprintf(" USING (%s)", p.Using)
	}
	if p.WithCheck != "" {
		stmt += fmt.Sprintf(" WITH CHECK (%s)", p.WithCheck)
	}
	return stmt + ";"
}

// renderAlterPolicy renders ALTER POLICY, which (unlike CREATE) never
// repeats FOR <command> — a policy's command is fixed at creation.
func renderAlterPolicy(table ir.QualifiedName, p *ir.Policy) string {
	stmt := fmt.Sprintf(`ALTER POLICY %s ON %s`, ir.QuoteIdentifier(p.Name), ir.QuoteQName(table))
	if len(p.Roles) > 0 {
		stmt += " TO " + strings.Join(p.Roles, ", ")
	}
	if p.Using != "" {
		stmt += fmt.Sprintf(" USING (%s)", p.Using)
	}
	if p.WithCheck != "" {
		stmt += fmt.Sprintf(" WITH CHECK (%s)", p.WithCheck)
	}
	return stmt + ";"
}

func renderAttachPartition(p *ir.Partition) string {
	parent := ir.QuoteQualified(p.ParentNamespace, p.ParentTable)
	child := ir.QuoteQualified(p.Namespace, p.Name)
	return fmt.Sprintf(`ALTER TABLE %s ATTACH PARTITION %s %s;`, parent, child, p.ForValuesClause)
}

func renderDetachPartition(p *ir.Partition) string {
	parent := ir.QuoteQualified(p.ParentNamespace, p.ParentTable)
	child := ir.QuoteQualified(p.Namespace, p.Name)
	return fmt.Sprintf(`ALTER TABLE %s DETACH PARTITION %s;`, parent, child)
}

func quoteIdentList(names []string) string {
	var quoted []string
	for _, n := range names {
		quoted = append(quoted, ir.QuoteIdentifier(n))
	}
	return strings.Join(quoted, ", ")
}

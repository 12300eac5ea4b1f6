package introspect

import (
	"context"

	"github.com/pgmold/pgmold/ir"
)

// buildTables reads every ordinary and partitioned table (relkind 'r' or
// 'p') in the target namespace, partition children included: each child is
// a Table here, and buildPartitions later adds its Partition attachment
// record (spec.md §3) alongside it.
func (i *Inspector) buildTables(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "tables", `
		SELECT n.nspname, c.relname, c.relkind,
		       c.relrowsecurity, c.relforcerowsecurity,
		       obj_description(c.oid, 'pg_class')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p') AND n.nspname = $1
		ORDER BY n.nspname, c.relname`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ns, name, relkind string
		var rls, forced bool
		var comment *string
		if err := rows.Scan(&ns, &name, &relkind, &rls, &forced, &comment); err != nil {
			return &CatalogReadError{Query: "tables", Err: err}
		}
		t := &ir.Table{
			Namespace: ns, Name: name,
			Indexes: map[string]*ir.Index{}, ForeignKeys: map[string]*ir.ForeignKey{},
			Checks: map[string]*ir.Check{}, Policies: map[string]*ir.Policy{},
		}
		t.RLSEnabled = rls
		t.RLSForced = forced
		if comment != nil {
			t.Comment = *comment
		}
		if relkind == "p" {
			t.IsPartitioned = true
			strategy, key, err := i.partitionKey(ctx, ns, name)
			if err != nil {
				return err
			}
			t.PartitionStrategy = strategy
			t.PartitionKey = key
		}
		if err := schema.AddTable(t, ""); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (i *Inspector) partitionKey(ctx context.Context, ns, name string) (strategy, key string, err error) {
	rows, qerr := i.query(ctx, "partition key", `
		SELECT CASE p.partstrat WHEN 'r' THEN 'RANGE' WHEN 'l' THEN 'LIST' WHEN 'h' THEN 'HASH' END,
		       pg_get_partkeydef(c.oid)
		FROM pg_partitioned_table p
		JOIN pg_class c ON c.oid = p.partrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2`, ns, name)
	if qerr != nil {
		return "", "", qerr
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&strategy, &key); err != nil {
			return "", "", &CatalogReadError{Query: "partition key", Err: err}
		}
	}
	return strategy, key, rows.Err()
}

// buildColumns reads every column of every table in the target namespace.
// Identity columns are not detected: only the auto-dependency ownership
// link that SERIAL creates is attached (see attachOwnedSequences), so an
// IDENTITY column carries no sequence name.
func (i *Inspector) buildColumns(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "columns", `
		SELECT n.nspname, c.relname, a.attname, a.attnum,
		       format_type(a.atttypid, a.atttypmod),
		       NOT a.attnotnull,
		       pg_get_expr(ad.adbin, ad.adrelid),
		       col_description(c.oid, a.attnum)
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_attrdef ad ON ad.adrelid = c.oid AND ad.adnum = a.attnum
		WHERE c.relkind IN ('r', 'p') AND n.nspname = $1
		  AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY n.nspname, c.relname, a.attnum`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ns, tableName, colName, formatted string
		var attnum int
		var nullable bool
		var def, comment *string
		if err := rows.Scan(&ns, &tableName, &colName, &attnum, &formatted, &nullable, &def, &comment); err != nil {
			return &CatalogReadError{Query: "columns", Err: err}
		}
		table := schema.LookupTable(ns, tableName)
		if table == nil {
			continue
		}
		col := &ir.Column{Name: colName, Position: attnum, Type: formatTypeToType(formatted), Nullable: nullable}
		if def != nil {
			col.Default = *def
		}
		if comment != nil {
			col.Comment = *comment
		}
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return i.attachOwnedSequences(ctx, schema)
}

// attachOwnedSequences records, on every column that owns a sequence of
// this namespace through a pg_depend auto dependency (as SERIAL creates),
// the qualified name of that sequence (spec.md §4.1 SERIAL expansion is symmetric on read: the
// introspector never re-collapses an owned sequence back into a bare SERIAL
// column type, it just records the ownership link; the planner/SQL
// generator decide how to render it).
func (i *Inspector) attachOwnedSequences(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "sequence ownership", `
		SELECT sn.nspname, s.relname, tn.nspname, t.relname, a.attname
		FROM pg_depend d
		JOIN pg_class s ON s.oid = d.objid AND s.relkind = 'S'
		JOIN pg_namespace sn ON sn.oid = s.relnamespace
		JOIN pg_class t ON t.oid = d.refobjid
		JOIN pg_namespace tn ON tn.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = d.refobjsubid
		WHERE d.deptype = 'a' AND sn.nspname = $1`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var seqNS, seqName, tableNS, tableName, colName string
		if err := rows.Scan(&seqNS, &seqName, &tableNS, &tableName, &colName); err != nil {
			return &CatalogReadError{Query: "sequence ownership", Err: err}
		}
		table := schema.LookupTable(tableNS, tableName)
		if table == nil {
			continue
		}
		for _, col := range table.Columns {
			if col.Name == colName {
				col.SequenceName = ir.NewQualifiedName(seqNS, seqName).String()
			}
		}
	}
	return rows.Err()
}

// buildIndexes reads every index on every table in the target namespace,
// excluding the index backing a primary key or unique constraint only in
// presentation (spec.md §3 models PrimaryKey separately; a unique index
// that merely backs a UNIQUE constraint is still read here since PostgreSQL
// always materializes one, same as the teacher's inspector does).
func (i *Inspector) buildIndexes(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "indexes", `
		SELECT n.nspname, t.relname, ic.relname, am.amname, ix.indisunique,
		       ix.indisprimary,
		       pg_get_expr(ix.indpred, ix.indrelid),
		       obj_description(ic.oid, 'pg_class')
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_am am ON am.oid = ic.relam
		WHERE n.nspname = $1
		ORDER BY n.nspname, t.relname, ic.relname`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	var idxRows []indexRow
	for rows.Next() {
		var r indexRow
		if err := rows.Scan(&r.ns, &r.table, &r.index, &r.method, &r.unique, &r.primary, &r.predicate, &r.comment); err != nil {
			return &CatalogReadError{Query: "indexes", Err: err}
		}
		idxRows = append(idxRows, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range idxRows {
		if r.primary {
			continue // primary keys are modeled on Table.PrimaryKey, built separately
		}
		table := schema.LookupTable(r.ns, r.table)
		if table == nil {
			continue
		}
		cols, err := i.indexColumns(ctx, r.ns, r.table, r.index)
		if err != nil {
			return err
		}
		idx := &ir.Index{Name: r.index, Method: r.method, Unique: r.unique, Columns: cols}
		if r.predicate != nil {
			idx.Predicate = ir.NormalizeBody(*r.predicate)
		}
		if r.comment != nil {
			idx.Comment = *r.comment
		}
		table.Indexes[r.index] = idx
	}
	return i.buildPrimaryKeys(ctx, idxRows, schema)
}

// indexRow is one scanned row from the indexes query, shared between
// buildIndexes (which populates Table.Indexes) and buildPrimaryKeys (which
// reads the same rows a second time to populate Table.PrimaryKey, since a
// primary key's backing index is the only index pg_index marks indisprimary).
type indexRow struct {
	ns, table, index, method string
	unique, primary          bool
	predicate, comment       *string
}

func (i *Inspector) buildPrimaryKeys(ctx context.Context, idxRows []indexRow, schema *ir.Schema) error {
	for _, r := range idxRows {
		if !r.primary {
			continue
		}
		table := schema.LookupTable(r.ns, r.table)
		if table == nil {
			continue
		}
		cols, err := i.indexColumns(ctx, r.ns, r.table, r.index)
		if err != nil {
			return err
		}
		var names []string
		for _, c := range cols {
			names = append(names, c.Expression)
		}
		table.PrimaryKey = &ir.PrimaryKey{Name: r.index, Columns: names}
	}
	return nil
}

func (i *Inspector) indexColumns(ctx context.Context, ns, table, index string) ([]ir.IndexColumn, error) {
	rows, err := i.query(ctx, "index columns", `
		SELECT COALESCE(a.attname, pg_get_indexexpr(ix.indexrelid, k.n, true)),
		       (ix.indoption[k.n-1] & 1) != 0,
		       (ix.indoption[k.n-1] & 2) != 0
		FROM pg_index ix
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		CROSS JOIN LATERAL generate_series(1, ix.indnkeyatts) AS k(n)
		LEFT JOIN pg_attribute a ON a.attrelid = ix.indrelid AND a.attnum = ix.indkey[k.n-1]
		WHERE n.nspname = $1 AND t.relname = $2 AND ic.relname = $3
		ORDER BY k.n`, ns, table, index)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ir.IndexColumn
	for rows.Next() {
		var c ir.IndexColumn
		if err := rows.Scan(&c.Expression, &c.Desc, &c.NullsFirst); err != nil {
			return nil, &CatalogReadError{Query: "index columns", Err: err}
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// buildForeignKeys reads every foreign key constraint in the target
// namespace.
func (i *Inspector) buildForeignKeys(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "foreign keys", `
		SELECT n.nspname, t.relname, con.conname,
		       ARRAY(SELECT a.attname FROM unnest(con.conkey) WITH ORDINALITY AS u(attnum, ord)
		             JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = u.attnum
		             ORDER BY u.ord),
		       rn.nspname, rt.relname,
		       ARRAY(SELECT a.attname FROM unnest(con.confkey) WITH ORDINALITY AS u(attnum, ord)
		             JOIN pg_attribute a ON a.attrelid = con.confrelid AND a.attnum = u.attnum
		             ORDER BY u.ord),
		       con.confdeltype, con.confupdtype, NOT con.convalidated
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class rt ON rt.oid = con.confrelid
		JOIN pg_namespace rn ON rn.oid = rt.relnamespace
		WHERE con.contype = 'f' AND n.nspname = $1
		ORDER BY n.nspname, t.relname, con.conname`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ns, tableName, name, refNS, refTable, deltype, updtype string
		var notValid bool
		var cols, refCols []string
		if err := rows.Scan(&ns, &tableName, &name, &cols, &refNS, &refTable, &refCols, &deltype, &updtype, &notValid); err != nil {
			return &CatalogReadError{Query: "foreign keys", Err: err}
		}
		table := schema.LookupTable(ns, tableName)
		if table == nil {
			continue
		}
		table.ForeignKeys[name] = &ir.ForeignKey{
			Name: name, Columns: cols,
			ReferencedSchema: refNS, ReferencedTable: refTable, ReferencedColumns: refCols,
			OnDelete: referentialActionFromChar(deltype), OnUpdate: referentialActionFromChar(updtype),
			NotValid: notValid,
		}
	}
	return rows.Err()
}

func referentialActionFromChar(c string) string {
	switch c {
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default:
		return "NO ACTION"
	}
}

// buildChecks reads every CHECK constraint that is not a domain constraint
// and not the implicit NOT NULL check PostgreSQL derives from attnotnull.
func (i *Inspector) buildChecks(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "check constraints", `
		SELECT n.nspname, t.relname, con.conname, pg_get_constraintdef(con.oid),
		       ARRAY(SELECT a.attname FROM unnest(con.conkey) AS attnum
		             JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = attnum)
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE con.contype = 'c' AND n.nspname = $1
		ORDER BY n.nspname, t.relname, con.conname`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ns, tableName, name, def string
		var cols []string
		if err := rows.Scan(&ns, &tableName, &name, &def, &cols); err != nil {
			return &CatalogReadError{Query: "check constraints", Err: err}
		}
		table := schema.LookupTable(ns, tableName)
		if table == nil {
			continue
		}
		clause := def
		if idx := indexOfCheckClause(def); idx >= 0 {
			clause = def[idx : len(def)-1]
		}
		table.Checks[name] = &ir.Check{Name: name, Columns: cols, Clause: ir.NormalizeBody(clause)}
	}
	return rows.Err()
}

// indexOfCheckClause strips the "CHECK (" prefix pg_get_constraintdef adds,
// returning the index of the inner expression, or -1 if not the expected
// shape (defensive: pg_get_constraintdef always emits this form for
// contype='c', but the index avoids assuming a fixed prefix length).
func indexOfCheckClause(def string) int {
	const prefix = "CHECK ("
	if len(def) <= len(prefix) || def[:len(prefix)] != prefix || def[len(def)-1] != ')' {
		return -1
	}
	return len(prefix)
}

// buildPolicies reads every row-level security policy in the target
// namespace.
func (i *Inspector) buildPolicies(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "policies", `
		SELECT n.nspname, c.relname, p.polname,
		       CASE p.polcmd WHEN 'r' THEN 'SELECT' WHEN 'a' THEN 'INSERT'
		            WHEN 'w' THEN 'UPDATE' WHEN 'd' THEN 'DELETE' ELSE 'ALL' END,
		       ARRAY(SELECT rolname FROM pg_roles WHERE oid = ANY(p.polroles)),
		       pg_get_expr(p.polqual, p.polrelid),
		       pg_get_expr(p.polwithcheck, p.polrelid)
		FROM pg_policy p
		JOIN pg_class c ON c.oid = p.polrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
		ORDER BY n.nspname, c.relname, p.polname`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ns, tableName, name, command string
		var roles []string
		var using, withCheck *string
		if err := rows.Scan(&ns, &tableName, &name, &command, &roles, &using, &withCheck); err != nil {
			return &CatalogReadError{Query: "policies", Err: err}
		}
		table := schema.LookupTable(ns, tableName)
		if table == nil {
			continue
		}
		if len(roles) == 0 {
			roles = []string{"PUBLIC"}
		}
		pol := &ir.Policy{Name: name, Command: command, Roles: roles}
		if using != nil {
			pol.Using = ir.NormalizeBody(*using)
		}
		if withCheck != nil {
			pol.WithCheck = ir.NormalizeBody(*withCheck)
		}
		table.Policies[name] = pol
	}
	return rows.Err()
}

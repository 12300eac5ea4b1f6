package introspect

import (
	"context"

	"github.com/pgmold/pgmold/ir"
)

// buildPartitions reads every partition child attachment in the target
// namespace. The child relation itself was already added as a Table by
// buildTables (PostgreSQL materializes it as an ordinary relation); this
// pass only records the parent/bound link (spec.md §3 Partition).
func (i *Inspector) buildPartitions(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "partitions", `
		SELECT cn.nspname, c.relname, pn.nspname, p.relname,
		       pg_get_expr(c.relpartbound, c.oid)
		FROM pg_inherits inh
		JOIN pg_class c ON c.oid = inh.inhrelid
		JOIN pg_namespace cn ON cn.oid = c.relnamespace
		JOIN pg_class p ON p.oid = inh.inhparent
		JOIN pg_namespace pn ON pn.oid = p.relnamespace
		WHERE p.relkind = 'p' AND cn.nspname = $1
		ORDER BY cn.nspname, c.relname`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ns, name, parentNS, parentTable, bound string
		if err := rows.Scan(&ns, &name, &parentNS, &parentTable, &bound); err != nil {
			return &CatalogReadError{Query: "partitions", Err: err}
		}
		part := &ir.Partition{
			Namespace: ns, Name: name,
			ParentNamespace: parentNS, ParentTable: parentTable,
			ForValuesClause: bound,
		}
		if err := schema.AddPartition(part, ""); err != nil {
			return err
		}
	}
	return rows.Err()
}

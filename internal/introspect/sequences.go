package introspect

import (
	"context"

	"github.com/pgmold/pgmold/ir"
)

// buildSequences reads every sequence in the target namespace, including
// ones not owned by a column (a standalone sequence a function calls
// directly, distinct from a SERIAL-owned one; ownership is attached
// separately in attachSequenceOwnership once the owning column is known).
func (i *Inspector) buildSequences(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "sequences", `
		SELECT n.nspname, s.relname, seq.seqtypid::regtype::text,
		       seq.seqincrement, seq.seqmin, seq.seqmax, seq.seqstart, seq.seqcycle,
		       obj_description(s.oid, 'pg_class')
		FROM pg_sequence seq
		JOIN pg_class s ON s.oid = seq.seqrelid
		JOIN pg_namespace n ON n.oid = s.relnamespace
		WHERE n.nspname = $1
		ORDER BY n.nspname, s.relname`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ns, name, dataType string
		var increment, min, max, start int64
		var cycle bool
		var comment *string
		if err := rows.Scan(&ns, &name, &dataType, &increment, &min, &max, &start, &cycle, &comment); err != nil {
			return &CatalogReadError{Query: "sequences", Err: err}
		}
		seq := &ir.Sequence{
			Namespace: ns, Name: name, DataType: dataType,
			Increment: increment, MinValue: &min, MaxValue: &max,
			StartValue: start, Cycle: cycle,
		}
		if comment != nil {
			seq.Comment = *comment
		}
		if err := schema.AddSequence(seq, ""); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return i.attachSequenceOwnership(ctx, schema)
}

// attachSequenceOwnership fills in each owned sequence's OwnedByTable and
// OwnedByColumn (spec.md §4.1), independent of attachOwnedSequences which
// annotates the Column side of the same relationship; the two must agree,
// which is exercised by the differ treating a schema's own introspected
// output as structurally equal to itself (idempotence, spec.md §8).
func (i *Inspector) attachSequenceOwnership(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "sequence owners", `
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
			return &CatalogReadError{Query: "sequence owners", Err: err}
		}
		seq, ok := schema.Sequences[ir.NewQualifiedName(seqNS, seqName).String()]
		if !ok {
			continue
		}
		seq.OwnedByTable = ir.NewQualifiedName(tableNS, tableName).String()
		seq.OwnedByColumn = colName
	}
	return rows.Err()
}

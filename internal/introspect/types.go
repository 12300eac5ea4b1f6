package introspect

import (
	"context"

	"github.com/pgmold/pgmold/ir"
)

// buildExtensions reads every installed extension, in any namespace.
// Objects an extension owns are not filtered out of the other per-kind
// reads: they are introspected like any other object in the namespace.
func (i *Inspector) buildExtensions(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "extensions", `
		SELECT e.extname, n.nspname, e.extversion,
		       obj_description(e.oid, 'pg_extension')
		FROM pg_extension e
		JOIN pg_namespace n ON n.oid = e.extnamespace
		ORDER BY e.extname`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ext ir.Extension
		var comment *string
		if err := rows.Scan(&ext.Name, &ext.Namespace, &ext.Version, &comment); err != nil {
			return &CatalogReadError{Query: "extensions", Err: err}
		}
		if comment != nil {
			ext.Comment = *comment
		}
		if err := schema.AddExtension(&ext, ""); err != nil {
			return err
		}
	}
	return rows.Err()
}

// buildEnums reads every enum type in the target namespace, in declaration
// (enumsortorder) order for its values (spec.md §4.1: enum value order is
// significant).
func (i *Inspector) buildEnums(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "enums", `
		SELECT n.nspname, t.typname, e.enumlabel,
		       obj_description(t.oid, 'pg_type')
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		JOIN pg_enum e ON e.enumtypid = t.oid
		WHERE t.typtype = 'e' AND n.nspname = $1
		ORDER BY n.nspname, t.typname, e.enumsortorder`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	enums := map[string]*ir.Enum{}
	var order []string
	for rows.Next() {
		var ns, name, label string
		var comment *string
		if err := rows.Scan(&ns, &name, &label, &comment); err != nil {
			return &CatalogReadError{Query: "enums", Err: err}
		}
		key := ir.NewQualifiedName(ns, name).String()
		e, ok := enums[key]
		if !ok {
			e = &ir.Enum{Namespace: ns, Name: name}
			if comment != nil {
				e.Comment = *comment
			}
			enums[key] = e
			order = append(order, key)
		}
		e.Values = append(e.Values, label)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, key := range order {
		if err := schema.AddEnum(enums[key], ""); err != nil {
			return err
		}
	}
	return nil
}

// buildDomains reads every domain type in the target namespace.
func (i *Inspector) buildDomains(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "domains", `
		SELECT n.nspname, t.typname,
		       format_type(t.typbasetype, t.typtypmod),
		       NOT t.typnotnull, t.typdefault,
		       obj_description(t.oid, 'pg_type')
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE t.typtype = 'd' AND n.nspname = $1
		ORDER BY n.nspname, t.typname`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ns, name, baseTypeStr string
		var nullable bool
		var def, comment *string
		if err := rows.Scan(&ns, &name, &baseTypeStr, &nullable, &def, &comment); err != nil {
			return &CatalogReadError{Query: "domains", Err: err}
		}
		d := &ir.Domain{
			Namespace: ns, Name: name,
			BaseType: formatTypeToType(baseTypeStr),
			Nullable: nullable,
		}
		if def != nil {
			d.Default = *def
		}
		if comment != nil {
			d.Comment = *comment
		}

		checkRows, err := i.query(ctx, "domain constraints", `
			SELECT pg_get_constraintdef(oid)
			FROM pg_constraint
			WHERE contypid = (
				SELECT t.oid FROM pg_type t
				JOIN pg_namespace n ON n.oid = t.typnamespace
				WHERE n.nspname = $1 AND t.typname = $2
			)
			ORDER BY conname`, ns, name)
		if err != nil {
			return err
		}
		for checkRows.Next() {
			var def string
			if err := checkRows.Scan(&def); err != nil {
				checkRows.Close()
				return &CatalogReadError{Query: "domain constraints", Err: err}
			}
			if idx := indexOfCheckClause(def); idx >= 0 {
				def = def[idx : len(def)-1]
			}
			d.Constraints = append(d.Constraints, ir.NormalizeBody(def))
		}
		if err := checkRows.Err(); err != nil {
			checkRows.Close()
			return err
		}
		checkRows.Close()

		if err := schema.AddDomain(d, ""); err != nil {
			return err
		}
	}
	return rows.Err()
}

package introspect

import (
	"context"
	"strings"

	"github.com/pgmold/pgmold/ir"
)

// buildFunctions reads every non-aggregate, non-window function in the
// target namespace (procedures, aggregates and window functions are not a
// CIR object kind, spec.md §3).
func (i *Inspector) buildFunctions(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "functions", `
		SELECT n.nspname, p.proname,
		       pg_get_function_arguments(p.oid),
		       format_type(p.prorettype, NULL),
		       l.lanname, p.prosrc,
		       CASE p.provolatile WHEN 'i' THEN 'IMMUTABLE' WHEN 's' THEN 'STABLE' ELSE 'VOLATILE' END,
		       p.prosecdef,
		       COALESCE(p.proconfig, '{}'),
		       r.rolname,
		       obj_description(p.oid, 'pg_proc')
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		JOIN pg_language l ON l.oid = p.prolang
		JOIN pg_roles r ON r.oid = p.proowner
		WHERE n.nspname = $1 AND p.prokind = 'f'
		ORDER BY n.nspname, p.proname`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ns, name, argList, retTypeStr, lang, body, volatility, owner string
		var secdef bool
		var configRaw []string
		var comment *string
		if err := rows.Scan(&ns, &name, &argList, &retTypeStr, &lang, &body, &volatility, &secdef, &configRaw, &owner, &comment); err != nil {
			return &CatalogReadError{Query: "functions", Err: err}
		}
		fn := &ir.Function{
			Namespace: ns, Name: name,
			ReturnType: formatTypeToType(retTypeStr),
			Language:   lang, Body: body, Volatility: volatility,
			SecurityDefiner: secdef, Owner: owner,
			Arguments: parseArgList(argList),
		}
		for _, entry := range configRaw {
			if k, v, ok := strings.Cut(entry, "="); ok {
				fn.ConfigParams = append(fn.ConfigParams, ir.ConfigParam{Key: k, Value: v})
			}
		}
		if comment != nil {
			fn.Comment = *comment
		}
		if err := schema.AddFunction(fn, ""); err != nil {
			return err
		}
	}
	return rows.Err()
}

// parseArgList splits the comma-separated argument list
// pg_get_function_arguments returns (e.g. "a integer, b text
// DEFAULT 'x'") into FunctionArgs, respecting parens and quotes in default
// expressions so a DEFAULT ARRAY[1,2] doesn't split mid-expression
// (spec.md §4.2: argument strings are split on top-level commas only).
func parseArgList(argList string) []ir.FunctionArg {
	parts := splitTopLevel(argList)
	var args []ir.FunctionArg
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		args = append(args, parseArgEntry(part))
	}
	return args
}

func parseArgEntry(entry string) ir.FunctionArg {
	mode := "IN"
	for _, m := range []string{"IN OUT ", "VARIADIC ", "OUT ", "IN "} {
		if strings.HasPrefix(entry, m) {
			mode = strings.TrimSpace(m)
			if mode == "IN OUT" {
				mode = "INOUT"
			}
			entry = strings.TrimSpace(entry[len(m):])
			break
		}
	}

	def := ""
	if idx := strings.Index(strings.ToUpper(entry), " DEFAULT "); idx >= 0 {
		def = strings.TrimSpace(entry[idx+len(" DEFAULT "):])
		entry = strings.TrimSpace(entry[:idx])
	}

	// pg_get_function_arguments renders "name type" for a named
	// argument and bare "type" otherwise; distinguish them by checking
	// whether the entry already starts with one of the (small, fixed) set
	// of keywords a type name itself can start with.
	name := ""
	typeStr := entry
	if sp := strings.IndexByte(entry, ' '); sp >= 0 && !startsWithTypeKeyword(entry) {
		name = entry[:sp]
		typeStr = strings.TrimSpace(entry[sp+1:])
	}

	return ir.FunctionArg{Mode: mode, Name: name, Type: formatTypeToType(typeStr), Default: def}
}

var multiWordTypeStarts = []string{
	"timestamp", "time", "character", "double", "bit", "interval",
}

func startsWithTypeKeyword(entry string) bool {
	first, _, _ := strings.Cut(entry, " ")
	for _, kw := range multiWordTypeStarts {
		if strings.EqualFold(first, kw) {
			return true
		}
	}
	return false
}

func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	inSingle := false
	start := 0
	for idx := 0; idx < len(s); idx++ {
		switch s[idx] {
		case '\'':
			inSingle = !inSingle
		case '(', '[':
			if !inSingle {
				depth++
			}
		case ')', ']':
			if !inSingle {
				depth--
			}
		case ',':
			if !inSingle && depth == 0 {
				parts = append(parts, s[start:idx])
				start = idx + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// buildViews reads every ordinary view (not a materialized view — spec.md
// §3 does not list materialized views as a CIR object kind).
func (i *Inspector) buildViews(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "views", `
		SELECT n.nspname, c.relname, pg_get_viewdef(c.oid, true),
		       obj_description(c.oid, 'pg_class')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = 'v' AND n.nspname = $1
		ORDER BY n.nspname, c.relname`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ns, name, def string
		var comment *string
		if err := rows.Scan(&ns, &name, &def, &comment); err != nil {
			return &CatalogReadError{Query: "views", Err: err}
		}
		v := &ir.View{Namespace: ns, Name: name, Definition: ir.NormalizeBody(def)}
		if comment != nil {
			v.Comment = *comment
		}
		if err := schema.AddView(v, ""); err != nil {
			return err
		}
	}
	return rows.Err()
}

// buildTriggers reads every user-defined trigger (tgisinternal excludes the
// constraint-support triggers PostgreSQL generates for its own foreign key
// enforcement) in the target namespace.
func (i *Inspector) buildTriggers(ctx context.Context, schema *ir.Schema) error {
	rows, err := i.query(ctx, "triggers", `
		SELECT n.nspname, t.relname, tg.tgname,
		       (tg.tgtype::int & 2) != 0, (tg.tgtype::int & 64) != 0,
		       (tg.tgtype::int & 4) != 0, (tg.tgtype::int & 16) != 0,
		       (tg.tgtype::int & 8) != 0, (tg.tgtype::int & 32) != 0,
		       (tg.tgtype::int & 1) != 0,
		       fn.nspname, f.proname,
		       pg_get_triggerdef(tg.oid),
		       obj_description(tg.oid, 'pg_trigger')
		FROM pg_trigger tg
		JOIN pg_class t ON t.oid = tg.tgrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_proc f ON f.oid = tg.tgfoid
		JOIN pg_namespace fn ON fn.oid = f.pronamespace
		WHERE NOT tg.tgisinternal AND n.nspname = $1
		ORDER BY n.nspname, t.relname, tg.tgname`, i.namespace)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ns, tableName, name string
		var before, instead, onInsert, onUpdate, onDelete, onTruncate, row bool
		var funcNS, funcName, def string
		var comment *string
		if err := rows.Scan(&ns, &tableName, &name, &before, &instead, &onInsert, &onUpdate, &onDelete, &onTruncate, &row, &funcNS, &funcName, &def, &comment); err != nil {
			return &CatalogReadError{Query: "triggers", Err: err}
		}

		timing := "AFTER"
		switch {
		case instead:
			timing = "INSTEAD OF"
		case before:
			timing = "BEFORE"
		}
		var events []string
		if onInsert {
			events = append(events, "INSERT")
		}
		if onUpdate {
			events = append(events, "UPDATE")
		}
		if onDelete {
			events = append(events, "DELETE")
		}
		if onTruncate {
			events = append(events, "TRUNCATE")
		}
		level := "STATEMENT"
		if row {
			level = "ROW"
		}

		trig := &ir.Trigger{
			Namespace: ns, Name: name, Table: tableName,
			Timing: timing, Events: events, Level: level,
			Function:  ir.NewQualifiedName(funcNS, funcName).String(),
			Condition: whenClauseFromTriggerDef(def),
		}
		if comment != nil {
			trig.Comment = *comment
		}
		if err := schema.AddTrigger(trig, ""); err != nil {
			return err
		}
	}
	return rows.Err()
}

// whenClauseFromTriggerDef extracts the WHEN (...) condition pg_get_triggerdef
// renders inline, since pg_trigger exposes the compiled qual tree (tgqual)
// rather than reusable source text for it.
func whenClauseFromTriggerDef(def string) string {
	const marker = " WHEN ("
	idx := strings.Index(def, marker)
	if idx < 0 {
		return ""
	}
	rest := def[idx+len(marker)-1:]
	depth := 0
	for pos, r := range rest {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return ir.NormalizeBody(rest[1:pos])
			}
		}
	}
	return ""
}

package ir

import (
	"fmt"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// deparseExpr renders an arbitrary expression node back to SQL text by
// wrapping it in a synthetic statement and invoking the deparser. Used for
// every free-text expression the CIR stores verbatim (check clauses,
// partial-index predicates, policy expressions, trigger WHEN clauses).
func deparseExpr(expr *pg_query.Node) string {
	if expr == nil {
		return ""
	}
	res := &pg_query.ParseResult{Stmts: []*pg_query.RawStmt{{Stmt: expr}}}
	out, err := pg_query.Deparse(res)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// deparseStmt renders a whole top-level statement node back to SQL text.
// Used for constructs the CIR has no structured field for (partition bound
// clauses) by regenerating the full DDL and slicing out the piece needed.
func deparseStmt(stmt *pg_query.Node) string {
	res := &pg_query.ParseResult{Stmts: []*pg_query.RawStmt{{Stmt: stmt}}}
	out, err := pg_query.Deparse(res)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func extractStringValue(node *pg_query.Node) string {
	if node == nil {
		return ""
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_String_:
		return n.String_.Sval
	case *pg_query.Node_AConst:
		if n.AConst.Isnull {
			return ""
		}
		switch v := n.AConst.Val.(type) {
		case *pg_query.A_Const_Sval:
			return v.Sval.Sval
		case *pg_query.A_Const_Ival:
			return strconv.FormatInt(int64(v.Ival.Ival), 10)
		}
	case *pg_query.Node_Boolean:
		if n.Boolean.Boolval {
			return "true"
		}
		return "false"
	}
	return ""
}

func extractIntValue(node *pg_query.Node) (int64, bool) {
	if node == nil {
		return 0, false
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_Integer:
		return int64(n.Integer.Ival), true
	case *pg_query.Node_AConst:
		if v := n.AConst.GetIval(); v != nil {
			return int64(v.Ival), true
		}
	}
	return 0, false
}

// namesToQualified splits a pg_query Names list (schema-qualifiable
// identifier, as used by CreateEnumStmt.TypeName, CreateDomainStmt.Domainname,
// DefineStmt.Defnames, ...) into a namespace and local name, defaulting the
// namespace to defaultNS when only one part is present.
func namesToQualified(names []*pg_query.Node, defaultNS string) (namespace, name string) {
	namespace = defaultNS
	var parts []string
	for _, n := range names {
		if str := n.GetString_(); str != nil {
			parts = append(parts, str.Sval)
		}
	}
	switch len(parts) {
	case 0:
		return defaultNS, ""
	case 1:
		return defaultNS, parts[0]
	default:
		return parts[len(parts)-2], parts[len(parts)-1]
	}
}

// extractRangeVar splits a RangeVar into (namespace, name), defaulting the
// namespace to the parser's current default schema.
func (p *Parser) extractRangeVar(rv *pg_query.RangeVar) (namespace, name string) {
	if rv == nil {
		return p.namespace, ""
	}
	namespace = rv.Schemaname
	if namespace == "" {
		namespace = p.namespace
	}
	return namespace, rv.Relname
}

// pgTypeAliases maps the internal catalog spelling pg_query reports for
// certain built-in types to the spelling CREATE TABLE source text normally
// uses; only entries actually produced by the grammar are listed.
var pgTypeAliases = map[string]string{
	"pg_catalog.int2":        "smallint",
	"pg_catalog.int4":        "integer",
	"pg_catalog.int8":        "bigint",
	"pg_catalog.bool":        "boolean",
	"pg_catalog.varchar":     "character varying",
	"pg_catalog.bpchar":      "character",
	"pg_catalog.text":        "text",
	"pg_catalog.float4":      "real",
	"pg_catalog.float8":      "double precision",
	"pg_catalog.numeric":     "numeric",
	"pg_catalog.timestamp":   "timestamp",
	"pg_catalog.timestamptz": "timestamptz",
	"pg_catalog.date":        "date",
	"pg_catalog.uuid":        "uuid",
	"pg_catalog.json":        "json",
	"pg_catalog.jsonb":       "jsonb",
}

// resolveTypeName turns a pg_query TypeName into an ir.Type, recognising the
// CIR's native type set and falling back to TypeRaw for anything else
// (including enum/domain references the caller resolves afterward via
// resolveTypeRefs).
func (p *Parser) resolveTypeName(tn *pg_query.TypeName) Type {
	if tn == nil {
		return RawType("")
	}

	var parts []string
	for _, n := range tn.Names {
		if str := n.GetString_(); str != nil {
			parts = append(parts, str.Sval)
		}
	}
	raw := strings.Join(parts, ".")
	if alias, ok := pgTypeAliases[raw]; ok {
		raw = alias
	} else if len(parts) == 1 {
		raw = parts[0]
	}

	base := p.baseTypeFromName(raw, tn)

	if len(tn.ArrayBounds) > 0 {
		return ArrayType(base)
	}
	return base
}

func (p *Parser) baseTypeFromName(name string, tn *pg_query.TypeName) Type {
	mods := typmodInts(tn.Typmods)

	switch name {
	case "smallint", "int2":
		return Type{Tag: TypeSmallInt}
	case "integer", "int", "int4":
		return Type{Tag: TypeInteger}
	case "bigint", "int8":
		return Type{Tag: TypeBigInt}
	case "text":
		return Type{Tag: TypeText}
	case "character varying", "varchar":
		t := Type{Tag: TypeVarchar}
		if len(mods) > 0 {
			t.Length = &mods[0]
		}
		return t
	case "boolean", "bool":
		return Type{Tag: TypeBoolean}
	case "uuid":
		return Type{Tag: TypeUUID}
	case "json":
		return Type{Tag: TypeJSON}
	case "jsonb":
		return Type{Tag: TypeJSONB}
	case "timestamp":
		return Type{Tag: TypeTimestamp}
	case "timestamptz", "timestamp with time zone":
		return Type{Tag: TypeTimestampTZ}
	case "date":
		return Type{Tag: TypeDate}
	case "numeric", "decimal":
		t := Type{Tag: TypeNumeric}
		if len(mods) > 0 {
			t.Precision = &mods[0]
		}
		if len(mods) > 1 {
			t.Scale = &mods[1]
		}
		return t
	default:
		// Enum/domain references are resolved by the caller once the whole
		// source set has been parsed (a type can be defined after its use).
		ns, local := "", name
		if idx := strings.LastIndex(name, "."); idx >= 0 {
			ns, local = name[:idx], name[idx+1:]
		}
		return Type{Tag: TypeRaw, Raw: name, RefNamespace: ns, RefName: local}
	}
}

func typmodInts(typmods []*pg_query.Node) []int {
	var out []int
	for _, m := range typmods {
		if v, ok := extractIntValue(m); ok {
			out = append(out, int(v))
		}
	}
	return out
}

// extractDefaultValue renders a column or domain DEFAULT expression to its
// canonical SQL text.
func (p *Parser) extractDefaultValue(expr *pg_query.Node) string {
	if expr == nil {
		return ""
	}
	switch e := expr.Node.(type) {
	case *pg_query.Node_AConst:
		if e.AConst.Isnull {
			return "NULL"
		}
		switch v := e.AConst.Val.(type) {
		case *pg_query.A_Const_Sval:
			return "'" + strings.ReplaceAll(v.Sval.Sval, "'", "''") + "'"
		case *pg_query.A_Const_Ival:
			return strconv.FormatInt(int64(v.Ival.Ival), 10)
		case *pg_query.A_Const_Fval:
			return v.Fval.Fval
		case *pg_query.A_Const_Boolval:
			if v.Boolval.Boolval {
				return "true"
			}
			return "false"
		}
		return deparseExpr(expr)
	case *pg_query.Node_FuncCall:
		if len(e.FuncCall.Funcname) > 0 {
			var parts []string
			for _, n := range e.FuncCall.Funcname {
				if str := n.GetString_(); str != nil {
					parts = append(parts, str.Sval)
				}
			}
			name := strings.Join(parts, ".")
			if len(e.FuncCall.Args) > 0 {
				if s := extractStringValue(e.FuncCall.Args[0]); s != "" {
					return fmt.Sprintf("%s('%s'::regclass)", name, s)
				}
			}
			return name + "()"
		}
	case *pg_query.Node_TypeCast:
		if e.TypeCast.Arg != nil {
			return p.extractDefaultValue(e.TypeCast.Arg)
		}
	case *pg_query.Node_ColumnRef:
		if len(e.ColumnRef.Fields) > 0 {
			if str := e.ColumnRef.Fields[0].GetString_(); str != nil {
				return str.Sval
			}
		}
	case *pg_query.Node_SqlvalueFunction:
		return deparseExpr(expr)
	}
	return deparseExpr(expr)
}

func referentialAction(action string) string {
	switch action {
	case "a", "":
		return "NO ACTION"
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

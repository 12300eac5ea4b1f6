package introspect

import (
	"strconv"
	"strings"

	"github.com/pgmold/pgmold/ir"
)

// formatTypeToType turns a format_type() result (e.g. "character varying(255)",
// "numeric(10,2)", "timestamp with time zone") into an ir.Type, falling back
// to ir.RawType for anything the CIR's native type set does not cover. This
// mirrors the parser's baseTypeFromName but reads catalog spellings rather
// than grammar TypeName nodes.
func formatTypeToType(formatted string) ir.Type {
	s := strings.TrimSpace(formatted)
	isArray := strings.HasSuffix(s, "[]")
	if isArray {
		s = strings.TrimSuffix(s, "[]")
	}

	name, args := splitTypeArgs(s)
	var t ir.Type
	switch name {
	case "smallint":
		t = ir.Type{Tag: ir.TypeSmallInt}
	case "integer":
		t = ir.Type{Tag: ir.TypeInteger}
	case "bigint":
		t = ir.Type{Tag: ir.TypeBigInt}
	case "text":
		t = ir.Type{Tag: ir.TypeText}
	case "character varying":
		t = ir.Type{Tag: ir.TypeVarchar}
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				t.Length = &n
			}
		}
	case "boolean":
		t = ir.Type{Tag: ir.TypeBoolean}
	case "uuid":
		t = ir.Type{Tag: ir.TypeUUID}
	case "json":
		t = ir.Type{Tag: ir.TypeJSON}
	case "jsonb":
		t = ir.Type{Tag: ir.TypeJSONB}
	case "timestamp without time zone":
		t = ir.Type{Tag: ir.TypeTimestamp}
	case "timestamp with time zone":
		t = ir.Type{Tag: ir.TypeTimestampTZ}
	case "date":
		t = ir.Type{Tag: ir.TypeDate}
	case "numeric":
		t = ir.Type{Tag: ir.TypeNumeric}
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				t.Precision = &n
			}
		}
		if len(args) > 1 {
			if n, err := strconv.Atoi(args[1]); err == nil {
				t.Scale = &n
			}
		}
	default:
		t = ir.RawType(s)
	}

	if isArray {
		return ir.ArrayType(t)
	}
	return t
}

// splitTypeArgs splits "numeric(10,2)" into ("numeric", ["10","2"]).
func splitTypeArgs(s string) (name string, args []string) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return s, nil
	}
	name = strings.TrimSpace(s[:open])
	inner := s[open+1 : len(s)-1]
	for _, part := range strings.Split(inner, ",") {
		args = append(args, strings.TrimSpace(part))
	}
	return name, args
}

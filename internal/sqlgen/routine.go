package sqlgen

import (
	"fmt"
	"strings"

	"github.com/pgmold/pgmold/ir"
)

// renderFunction implements spec.md §4.6's exact two-statement template:
// CREATE [OR REPLACE] FUNCTION ... then, separately, ALTER FUNCTION ...
// OWNER TO when an owner is set.
func renderFunction(replace bool, f *ir.Function) []string {
	var args []string
	for _, a := range f.Arguments {
		arg := ""
		if a.Mode != "" && a.Mode != "IN" {
			arg += a.Mode + " "
		}
		if a.Name != "" {
			arg += ir.QuoteIdentifier(a.Name) + " "
		}
		arg += a.Type.Render()
		if a.Default != "" {
			arg += " DEFAULT " + a.Default
		}
		args = append(args, arg)
	}

	verb := "CREATE FUNCTION"
	if replace {
		verb = "CREATE OR REPLACE FUNCTION"
	}

	var stmt strings.Builder
	fmt.Fprintf(&stmt, "%s %s(%s) RETURNS %s LANGUAGE %s", verb, ir.QuoteQName(f.QName()), strings.Join(args, ", "), f.ReturnType.Render(), f.Language)
	if f.Volatility != "" && f.Volatility != "VOLATILE" {
		stmt.WriteString(" " + f.Volatility)
	}
	if f.SecurityDefiner {
		stmt.WriteString(" SECURITY DEFINER")
	}
	for _, cp := range f.ConfigParams {
		fmt.Fprintf(&stmt, " SET %s = %s", cp.Key, cp.Value)
	}
	fmt.Fprintf(&stmt, " AS $$%s$$;", f.Body)

	stmts := []string{stmt.String()}
	if f.Owner != "" {
		stmts = append(stmts, renderSetFunctionOwner(f))
	}
	return stmts
}

func renderSetFunctionOwner(f *ir.Function) string {
	return fmt.Sprintf(`ALTER FUNCTION %s(%s) OWNER TO %s;`, ir.QuoteQName(f.QName()), argTypeList(f), ir.QuoteIdentifier(f.Owner))
}

func argTypeList(f *ir.Function) string {
	var types []string
	for _, a := range f.Arguments {
		types = append(types, a.Type.Render())
	}
	return strings.Join(types, ", ")
}

func renderCreateView(replace bool, v *ir.View) string {
	verb := "CREATE VIEW"
	if replace {
		verb = "CREATE OR REPLACE VIEW"
	}
	return fmt.Sprintf(`%s %s AS %s;`, verb, ir.QuoteQName(v.QName()), v.Definition)
}

func renderCreateTrigger(t *ir.Trigger) string {
	events := strings.Join(t.Events, " OR ")
	fn, _ := ir.ParseQualifiedName(t.Function)
	stmt := fmt.Sprintf(`CREATE TRIGGER %s %s %s ON %s FOR EACH %s`,
		ir.QuoteIdentifier(t.Name), t.Timing, events, ir.QuoteQualified(t.Namespace, t.Table), t.Level)
	if t.Condition != "" {
		stmt += fmt.Sprintf(" WHEN (%s)", t.Condition)
	}
	stmt += fmt.Sprintf(" EXECUTE FUNCTION %s();", ir.QuoteQName(fn))
	return stmt
}

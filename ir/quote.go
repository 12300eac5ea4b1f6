package ir

import "strings"

// QuoteIdentifier double-quotes a single identifier, doubling any internal
// double quote, unconditionally (spec.md §4.6 — the SQL generator quotes
// every identifier, it does not decide case by case whether quoting is
// "needed").
func QuoteIdentifier(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// QuoteQualified renders "ns"."name".
func QuoteQualified(namespace, name string) string {
	return QuoteIdentifier(namespace) + "." + QuoteIdentifier(name)
}

// QuoteQName renders a QualifiedName as "ns"."name".
func QuoteQName(q QualifiedName) string {
	return QuoteQualified(q.Namespace, q.Name)
}

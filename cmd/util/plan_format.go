package util

import (
	"strings"

	"github.com/pgmold/pgmold/internal/color"
)

// ActionSymbol classifies a DDL statement as add/change/destroy the way the
// teacher's plan renderer classifies Terraform-style resource actions, so
// FormatStatement can colorize it consistently.
func ActionSymbol(stmt string) string {
	trimmed := strings.TrimSpace(stmt)
	switch {
	case strings.HasPrefix(trimmed, "DROP "):
		return "destroy"
	case strings.HasPrefix(trimmed, "CREATE "):
		return "add"
	default:
		return "change"
	}
}

// FormatStatement prefixes stmt with a colored plan symbol (+ / ~ / -)
// matching its action, or returns it unmodified when c is disabled.
func FormatStatement(c *color.Color, stmt string) string {
	return c.PlanSymbol(ActionSymbol(stmt)) + " " + stmt
}

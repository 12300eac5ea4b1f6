// Package filter masks a CIR by qualified-name glob patterns and object-kind
// selectors before diffing (spec.md §4.3).
package filter

import (
	"path/filepath"
	"strings"

	"github.com/pgmold/pgmold/ir"
)

// Kind tags every filterable object kind, including the nested kinds that
// live inside a table.
type Kind string

const (
	KindExtension    Kind = "extensions"
	KindEnum         Kind = "enums"
	KindDomain       Kind = "domains"
	KindSequence     Kind = "sequences"
	KindTable        Kind = "tables"
	KindPartition    Kind = "partitions"
	KindFunction     Kind = "functions"
	KindView         Kind = "views"
	KindTrigger      Kind = "triggers"
	KindPolicy       Kind = "policies"
	KindIndex        Kind = "indexes"
	KindForeignKey   Kind = "foreign_keys"
	KindCheck        Kind = "check_constraints"
)

// nestedKinds participate only in the exclude set (spec.md §4.3): they are
// default-included and excluding one strips the collection from every
// retained table without removing the table.
var nestedKinds = map[Kind]bool{
	KindPolicy:     true,
	KindIndex:      true,
	KindForeignKey: true,
	KindCheck:      true,
}

// Config parameterises a Filter: glob patterns over qualified names, and
// kind whitelists/blacklists.
type Config struct {
	IncludeNames []string
	ExcludeNames []string
	IncludeKinds []Kind
	ExcludeKinds []Kind
}

// Filter is a compiled Config, ready to test objects against.
type Filter struct {
	includeNames []string
	excludeNames []string
	includeKinds map[Kind]bool
	excludeKinds map[Kind]bool
}

// New compiles a Config into a Filter.
func New(cfg Config) *Filter {
	f := &Filter{
		includeNames: cfg.IncludeNames,
		excludeNames: cfg.ExcludeNames,
		includeKinds: map[Kind]bool{},
		excludeKinds: map[Kind]bool{},
	}
	for _, k := range cfg.IncludeKinds {
		f.includeKinds[k] = true
	}
	for _, k := range cfg.ExcludeKinds {
		f.excludeKinds[k] = true
	}
	return f
}

// allows reports whether an object of the given kind and qualified name
// survives the filter. Exclude wins over include (spec.md §4.3).
func (f *Filter) allows(kind Kind, qname string) bool {
	if f.excludeKinds[kind] {
		return false
	}
	if len(f.includeKinds) > 0 && !f.includeKinds[kind] {
		return false
	}
	if matchesAny(f.excludeNames, qname) {
		return false
	}
	if len(f.includeNames) > 0 && !matchesAny(f.includeNames, qname) {
		return false
	}
	return true
}

// AllowsNested reports whether a nested collection kind survives on table
// tableQName; nested kinds are default-included (spec.md §4.3) so only the
// exclude set, never the include set or name patterns, governs them.
func (f *Filter) AllowsNested(kind Kind, tableQName string) bool {
	return !f.excludeKinds[kind]
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
		// A pattern containing '*' is also matched against the unqualified
		// name (the text after the last '.'), so "users*" selects matching
		// objects in every namespace.
		if strings.Contains(p, "*") {
			if ok, _ := filepath.Match(p, lastSegment(name)); ok {
				return true
			}
		}
	}
	return false
}

func lastSegment(qname string) string {
	if i := strings.LastIndexByte(qname, '.'); i >= 0 {
		return qname[i+1:]
	}
	return qname
}

// Apply returns a new Schema containing only the objects this filter
// retains, including stripping excluded nested collections from every
// retained table (spec.md §4.3's closure property).
func Apply(schema *ir.Schema, f *Filter) *ir.Schema {
	out := ir.New()

	for key, e := range schema.Extensions {
		if f.allows(KindExtension, e.QName().String()) {
			out.Extensions[key] = e
		}
	}
	for key, e := range schema.Enums {
		if f.allows(KindEnum, e.QName().String()) {
			out.Enums[key] = e
		}
	}
	for key, d := range schema.Domains {
		if f.allows(KindDomain, d.QName().String()) {
			out.Domains[key] = d
		}
	}
	for key, s := range schema.Sequences {
		if f.allows(KindSequence, s.QName().String()) {
			out.Sequences[key] = s
		}
	}
	for key, fn := range schema.Functions {
		if f.allows(KindFunction, fn.QName().String()) {
			out.Functions[key] = fn
		}
	}
	for key, v := range schema.Views {
		if f.allows(KindView, v.QName().String()) {
			out.Views[key] = v
		}
	}
	for key, t := range schema.Triggers {
		if f.allows(KindTrigger, t.QName().String()) {
			out.Triggers[key] = t
		}
	}
	for key, t := range schema.Tables {
		if !f.allows(KindTable, t.QName().String()) {
			continue
		}
		out.Tables[key] = filterTable(t, f)
	}
	for key, p := range schema.Partitions {
		if f.allows(KindPartition, p.QName().String()) {
			out.Partitions[key] = p
		}
	}
	return out
}

// filterTable copies t, stripping any nested collection the filter excludes
// (spec.md §4.3: the table itself is never removed by a nested exclusion).
func filterTable(t *ir.Table, f *Filter) *ir.Table {
	cp := *t
	qname := t.QName().String()

	if !f.AllowsNested(KindIndex, qname) {
		cp.Indexes = map[string]*ir.Index{}
	}
	if !f.AllowsNested(KindForeignKey, qname) {
		cp.ForeignKeys = map[string]*ir.ForeignKey{}
	}
	if !f.AllowsNested(KindCheck, qname) {
		cp.Checks = map[string]*ir.Check{}
	}
	if !f.AllowsNested(KindPolicy, qname) {
		cp.Policies = map[string]*ir.Policy{}
	}
	return &cp
}

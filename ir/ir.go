// Package ir defines the canonical intermediate representation (CIR) of a
// PostgreSQL schema: a uniform, deterministically-ordered in-memory value
// that the parser and the introspector both produce, and that the differ,
// the SQL generator and the linter all consume without ever mutating it.
package ir

import (
	"fmt"
	"strings"
)

// Kind tags a top-level object collection in the schema-set.
type Kind string

const (
	KindExtension Kind = "extensions"
	KindEnum      Kind = "enums"
	KindDomain    Kind = "domains"
	KindSequence  Kind = "sequences"
	KindTable     Kind = "tables"
	KindPartition Kind = "partitions"
	KindFunction  Kind = "functions"
	KindView      Kind = "views"
	KindTrigger   Kind = "triggers"
)

// AllKinds lists every top-level object kind in the fixed order used
// throughout the pipeline whenever a stable kind ordering is needed outside
// of the planner's own dependency-aware ordering (e.g. iterating a Schema
// for serialization).
var AllKinds = []Kind{
	KindExtension, KindEnum, KindDomain, KindSequence,
	KindTable, KindPartition, KindFunction, KindView, KindTrigger,
}

// NestedKind tags a collection that lives inside a Table and is identified
// by (table qualified name, local name) rather than by its own qualified
// name.
type NestedKind string

const (
	NestedKindColumn     NestedKind = "columns"
	NestedKindIndex      NestedKind = "indexes"
	NestedKindForeignKey NestedKind = "foreign_keys"
	NestedKindCheck      NestedKind = "check_constraints"
	NestedKindPolicy     NestedKind = "policies"
)

// DefaultNamespace is substituted for any unqualified identifier.
const DefaultNamespace = "public"

// QualifiedName is "namespace.local_name", the primary key of every
// top-level CIR object. It is never constructed with more or fewer than two
// dot-separated parts.
type QualifiedName struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// NewQualifiedName builds a QualifiedName, defaulting the namespace to
// DefaultNamespace when empty.
func NewQualifiedName(namespace, name string) QualifiedName {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return QualifiedName{Namespace: namespace, Name: name}
}

// String renders "namespace.name".
func (q QualifiedName) String() string {
	return q.Namespace + "." + q.Name
}

// Less gives the lexical ordering used for every sorted sequence and map
// key in the CIR.
func (q QualifiedName) Less(o QualifiedName) bool {
	if q.Namespace != o.Namespace {
		return q.Namespace < o.Namespace
	}
	return q.Name < o.Name
}

// ParseQualifiedName splits a possibly-qualified identifier into a
// QualifiedName, defaulting the namespace to "public" for a one-part
// identifier. Three or more parts is an error.
func ParseQualifiedName(ident string) (QualifiedName, error) {
	parts := strings.Split(ident, ".")
	switch len(parts) {
	case 1:
		return NewQualifiedName(DefaultNamespace, parts[0]), nil
	case 2:
		return NewQualifiedName(parts[0], parts[1]), nil
	default:
		return QualifiedName{}, fmt.Errorf("qualified name %q has %d parts, want 1 or 2", ident, len(parts))
	}
}

// Schema is the full schema-set: a mapping from object kind to a sorted
// mapping from qualified name to object. Every map is kept in lexical key
// order at the serialization boundary (see Canonicalize)
// so that two structurally equal schemas produce byte-identical output.
type Schema struct {
	Extensions map[string]*Extension `json:"extensions"`
	Enums      map[string]*Enum      `json:"enums"`
	Domains    map[string]*Domain    `json:"domains"`
	Sequences  map[string]*Sequence  `json:"sequences"`
	Tables     map[string]*Table     `json:"tables"`
	Partitions map[string]*Partition `json:"partitions"`
	Functions  map[string]*Function  `json:"functions"`
	Views      map[string]*View      `json:"views"`
	Triggers   map[string]*Trigger   `json:"triggers"`

	// sources records, per kind and qualified name, the source the object
	// was first added from, so a later DuplicateError can report both
	// locations (spec.md §4.1/§7). Unexported: not part of the CIR's JSON
	// shape or its equality/fingerprint semantics.
	sources map[string]string
}

// New returns an empty, fully-initialized Schema.
func New() *Schema {
	return &Schema{
		Extensions: map[string]*Extension{},
		Enums:      map[string]*Enum{},
		Domains:    map[string]*Domain{},
		Sequences:  map[string]*Sequence{},
		Tables:     map[string]*Table{},
		Partitions: map[string]*Partition{},
		Functions:  map[string]*Function{},
		Views:      map[string]*View{},
		Triggers:   map[string]*Trigger{},
		sources:    map[string]string{},
	}
}

// Extension represents a PostgreSQL extension.
type Extension struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Version   string `json:"version,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

func (e *Extension) QName() QualifiedName { return NewQualifiedName(e.Namespace, e.Name) }

// Enum represents a PostgreSQL enum type with an ordered value list.
type Enum struct {
	Namespace string   `json:"namespace"`
	Name      string   `json:"name"`
	Values    []string `json:"values"`
	Comment   string   `json:"comment,omitempty"`
}

func (e *Enum) QName() QualifiedName { return NewQualifiedName(e.Namespace, e.Name) }

// Domain represents a PostgreSQL domain type.
type Domain struct {
	Namespace   string   `json:"namespace"`
	Name        string   `json:"name"`
	BaseType    Type     `json:"base_type"`
	Nullable    bool     `json:"nullable"`
	Default     string   `json:"default,omitempty"`
	Constraints []string `json:"constraints,omitempty"` // normalized CHECK clauses, sorted
	Comment     string   `json:"comment,omitempty"`
}

func (d *Domain) QName() QualifiedName { return NewQualifiedName(d.Namespace, d.Name) }

// Sequence represents a PostgreSQL sequence, optionally owned by a column
// (SERIAL expansion, spec.md §4.1).
type Sequence struct {
	Namespace     string `json:"namespace"`
	Name          string `json:"name"`
	DataType      string `json:"data_type"`
	Increment     int64  `json:"increment"`
	MinValue      *int64 `json:"min_value,omitempty"`
	MaxValue      *int64 `json:"max_value,omitempty"`
	StartValue    int64  `json:"start_value"`
	Cycle         bool   `json:"cycle"`
	OwnedByTable  string `json:"owned_by_table,omitempty"`  // qualified name, empty if unowned
	OwnedByColumn string `json:"owned_by_column,omitempty"` // local column name
	Comment       string `json:"comment,omitempty"`
}

func (s *Sequence) QName() QualifiedName { return NewQualifiedName(s.Namespace, s.Name) }

// Partition represents a declarative partition child table attachment.
type Partition struct {
	Namespace        string `json:"namespace"`
	Name             string `json:"name"` // child table local name
	ParentNamespace  string `json:"parent_namespace"`
	ParentTable      string `json:"parent_table"`
	ForValuesClause  string `json:"for_values_clause"` // verbatim "FOR VALUES ..." bound expression
}

func (p *Partition) QName() QualifiedName { return NewQualifiedName(p.Namespace, p.Name) }

// Function represents a database function.
type Function struct {
	Namespace         string            `json:"namespace"`
	Name              string            `json:"name"`
	Arguments         []FunctionArg     `json:"arguments"`
	ReturnType        Type              `json:"return_type"`
	Language          string            `json:"language"`
	Body              string            `json:"body"` // verbatim dollar-quoted body
	Volatility        string            `json:"volatility,omitempty"` // IMMUTABLE, STABLE, VOLATILE
	SecurityDefiner   bool              `json:"security_definer,omitempty"`
	ConfigParams      []ConfigParam     `json:"config_params,omitempty"` // ordered (key, value)
	Owner             string            `json:"owner,omitempty"`
	Comment           string            `json:"comment,omitempty"`
}

func (f *Function) QName() QualifiedName { return NewQualifiedName(f.Namespace, f.Name) }

// Signature is the qualified-name-independent part of function identity:
// the argument type list. Two functions with the same qualified name but
// different Signature cannot be CREATE OR REPLACE'd into each other
// (spec.md §4.4 item 6).
func (f *Function) Signature() string {
	var parts []string
	for _, a := range f.Arguments {
		parts = append(parts, a.Type.Render())
	}
	return strings.Join(parts, ",")
}

// FunctionArg is one argument of a Function or a trigger-less procedure.
type FunctionArg struct {
	Mode    string `json:"mode"` // IN, OUT, INOUT, VARIADIC
	Name    string `json:"name,omitempty"`
	Type    Type   `json:"type"`
	Default string `json:"default,omitempty"`
}

// ConfigParam is one `SET key = value[, value]*` function configuration
// parameter, stored as an ordered (key, comma-joined-value) pair.
type ConfigParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// View represents a database view.
type View struct {
	Namespace  string `json:"namespace"`
	Name       string `json:"name"`
	Definition string `json:"definition"` // verbatim SELECT body
	Comment    string `json:"comment,omitempty"`
}

func (v *View) QName() QualifiedName { return NewQualifiedName(v.Namespace, v.Name) }

// Trigger represents a standalone trigger record. Triggers are also
// addressable as top-level objects (spec.md §3 lists `triggers` as a
// top-level kind) even though they always target a table.
type Trigger struct {
	Namespace string   `json:"namespace"`
	Name      string   `json:"name"`
	Table     string   `json:"table"` // local table name, same namespace
	Timing    string   `json:"timing"` // BEFORE, AFTER, INSTEAD OF
	Events    []string `json:"events"` // INSERT, UPDATE, DELETE, TRUNCATE
	Level     string   `json:"level"`  // ROW, STATEMENT
	Function  string   `json:"function"` // qualified name of the function fired
	Condition string   `json:"condition,omitempty"` // WHEN clause, normalized
	Comment   string   `json:"comment,omitempty"`
}

func (t *Trigger) QName() QualifiedName { return NewQualifiedName(t.Namespace, t.Name) }

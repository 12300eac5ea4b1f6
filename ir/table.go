package ir

// Table carries its inner collections because those are identified by
// (parent-table, local-name) and are diffed per-table (spec.md §3).
type Table struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`

	Columns     []*Column              `json:"columns"` // ordinal order
	PrimaryKey  *PrimaryKey            `json:"primary_key,omitempty"`
	Indexes     map[string]*Index      `json:"indexes"`
	ForeignKeys map[string]*ForeignKey `json:"foreign_keys"`
	Checks      map[string]*Check      `json:"checks"`
	Policies    map[string]*Policy     `json:"policies"`

	RLSEnabled bool `json:"rls_enabled"`
	RLSForced  bool `json:"rls_forced"`

	IsPartitioned     bool   `json:"is_partitioned"`
	PartitionStrategy string `json:"partition_strategy,omitempty"` // RANGE, LIST, HASH
	PartitionKey      string `json:"partition_key,omitempty"`      // verbatim column/expression list

	Comment string `json:"comment,omitempty"`
}

func (t *Table) QName() QualifiedName { return NewQualifiedName(t.Namespace, t.Name) }

func newTable(namespace, name string) *Table {
	return &Table{
		Namespace:   namespace,
		Name:        name,
		Indexes:     map[string]*Index{},
		ForeignKeys: map[string]*ForeignKey{},
		Checks:      map[string]*Check{},
		Policies:    map[string]*Policy{},
	}
}

// Column represents a table column.
type Column struct {
	Name         string  `json:"name"`
	Position     int     `json:"position"` // 1-based ordinal position
	Type         Type    `json:"type"`
	Nullable     bool    `json:"nullable"`
	Default      string  `json:"default,omitempty"` // verbatim expression
	SequenceName string  `json:"sequence_name,omitempty"` // set for SERIAL-expanded columns
	Comment      string  `json:"comment,omitempty"`
}

// PrimaryKey represents a table's primary key constraint.
type PrimaryKey struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Index represents a database index.
type Index struct {
	Name      string        `json:"name"`
	Method    string        `json:"method"` // btree, hash, gin, gist, brin
	Columns   []IndexColumn `json:"columns"`
	Unique    bool          `json:"unique"`
	Predicate string        `json:"predicate,omitempty"` // normalized partial-index WHERE clause
	Comment   string        `json:"comment,omitempty"`
}

// IndexColumn is one column or expression within an index, with its own
// ordering and nulls-ordering.
type IndexColumn struct {
	Expression string `json:"expression"` // column name, or a raw expression for expression indexes
	Desc       bool   `json:"desc"`
	NullsFirst bool   `json:"nulls_first"`
}

// ForeignKey represents a foreign key constraint.
type ForeignKey struct {
	Name              string   `json:"name"`
	Columns           []string `json:"columns"`
	ReferencedSchema  string   `json:"referenced_schema"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
	OnDelete          string   `json:"on_delete,omitempty"` // NO ACTION, RESTRICT, CASCADE, SET NULL, SET DEFAULT
	OnUpdate          string   `json:"on_update,omitempty"`
	NotValid          bool     `json:"not_valid,omitempty"`
}

// Check represents a CHECK constraint.
type Check struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns,omitempty"`
	Clause  string   `json:"clause"` // normalized boolean expression
}

// Policy represents a Row Level Security policy.
type Policy struct {
	Name      string   `json:"name"`
	Command   string   `json:"command"` // ALL, SELECT, INSERT, UPDATE, DELETE
	Roles     []string `json:"roles,omitempty"`
	Using     string   `json:"using,omitempty"`     // normalized USING expression
	WithCheck string   `json:"with_check,omitempty"` // normalized WITH CHECK expression
}

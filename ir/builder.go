package ir

import "fmt"

// DuplicateError reports two definitions of the same qualified name within
// one kind (spec.md §3 invariant 2). It names both source locations when
// the caller has them (the parser does; the introspector never can, since
// a live catalog cannot contain two objects of the same kind under one
// qualified name).
type DuplicateError struct {
	Kind         Kind
	Name         QualifiedName
	FirstSource  string
	SecondSource string
}

func (e *DuplicateError) Error() string {
	if e.FirstSource == "" && e.SecondSource == "" {
		return fmt.Sprintf("duplicate %s %q", e.Kind, e.Name)
	}
	return fmt.Sprintf("duplicate %s %q defined in %s and %s", e.Kind, e.Name, e.FirstSource, e.SecondSource)
}

// AddExtension inserts e, or returns a *DuplicateError if its qualified
// name is already present.
func (s *Schema) AddExtension(e *Extension, source string) error {
	return addObj(s, s.Extensions, e.QName(), e, KindExtension, source)
}

func (s *Schema) AddEnum(e *Enum, source string) error {
	return addObj(s, s.Enums, e.QName(), e, KindEnum, source)
}

func (s *Schema) AddDomain(d *Domain, source string) error {
	return addObj(s, s.Domains, d.QName(), d, KindDomain, source)
}

func (s *Schema) AddSequence(sq *Sequence, source string) error {
	return addObj(s, s.Sequences, sq.QName(), sq, KindSequence, source)
}

func (s *Schema) AddTable(t *Table, source string) error {
	return addObj(s, s.Tables, t.QName(), t, KindTable, source)
}

func (s *Schema) AddPartition(p *Partition, source string) error {
	return addObj(s, s.Partitions, p.QName(), p, KindPartition, source)
}

func (s *Schema) AddFunction(f *Function, source string) error {
	return addObj(s, s.Functions, f.QName(), f, KindFunction, source)
}

func (s *Schema) AddView(v *View, source string) error {
	return addObj(s, s.Views, v.QName(), v, KindView, source)
}

func (s *Schema) AddTrigger(t *Trigger, source string) error {
	return addObj(s, s.Triggers, t.QName(), t, KindTrigger, source)
}

// addObj inserts obj under name, recording source as the first-seen source
// for (kind, name) the first time that key appears. A later collision
// returns a *DuplicateError naming both the recorded first source and the
// colliding second source.
func addObj[T any](s *Schema, m map[string]*T, name QualifiedName, obj *T, kind Kind, source string) error {
	key := name.String()
	sourceKey := string(kind) + ":" + key
	if _, exists := m[key]; exists {
		return &DuplicateError{Kind: kind, Name: name, FirstSource: s.sources[sourceKey], SecondSource: source}
	}
	m[key] = obj
	if s.sources == nil {
		s.sources = map[string]string{}
	}
	s.sources[sourceKey] = source
	return nil
}

// GetOrCreateTable returns the table with the given qualified name,
// creating an empty one if absent. Unlike AddTable it never reports a
// duplicate.
func (s *Schema) GetOrCreateTable(namespace, name string) *Table {
	key := NewQualifiedName(namespace, name).String()
	if t, ok := s.Tables[key]; ok {
		return t
	}
	t := newTable(namespace, name)
	s.Tables[key] = t
	return t
}

// LookupTable returns the table with the given qualified name, or nil.
func (s *Schema) LookupTable(namespace, name string) *Table {
	return s.Tables[NewQualifiedName(namespace, name).String()]
}

// LookupFunction returns the function with the given qualified name, or
// nil.
func (s *Schema) LookupFunction(namespace, name string) *Function {
	return s.Functions[NewQualifiedName(namespace, name).String()]
}

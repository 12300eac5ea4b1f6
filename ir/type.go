package ir

import "fmt"

// TypeTag discriminates the Type tagged union (spec.md §3).
type TypeTag string

const (
	TypeSmallInt         TypeTag = "smallint"
	TypeInteger          TypeTag = "integer"
	TypeBigInt           TypeTag = "bigint"
	TypeText             TypeTag = "text"
	TypeVarchar          TypeTag = "varchar"
	TypeBoolean          TypeTag = "boolean"
	TypeUUID             TypeTag = "uuid"
	TypeJSON             TypeTag = "json"
	TypeJSONB            TypeTag = "jsonb"
	TypeTimestamp        TypeTag = "timestamp"         // without time zone
	TypeTimestampTZ      TypeTag = "timestamptz"       // with time zone
	TypeDate             TypeTag = "date"
	TypeNumeric          TypeTag = "numeric"
	TypeEnumRef          TypeTag = "enum_ref"
	TypeDomainRef        TypeTag = "domain_ref"
	TypeArray            TypeTag = "array"
	TypeRaw              TypeTag = "raw"
)

// Type is a tagged union over the PostgreSQL types the CIR understands
// natively, with a raw(string) fallback that preserves the original source
// text for any unrecognised type so that no DDL construct is silently
// dropped (spec.md §3).
type Type struct {
	Tag TypeTag `json:"tag"`

	// Varchar, numeric
	Length    *int `json:"length,omitempty"`    // varchar(n)
	Precision *int `json:"precision,omitempty"` // numeric(p, s)
	Scale     *int `json:"scale,omitempty"`

	// EnumRef, DomainRef: addressed by qualified name only (spec.md §3
	// invariant 3 — no pointer to the referenced Enum/Domain object).
	RefNamespace string `json:"ref_namespace,omitempty"`
	RefName      string `json:"ref_name,omitempty"`

	// Array: the element type.
	Elem *Type `json:"elem,omitempty"`

	// Raw: the verbatim, unrecognised source text.
	Raw string `json:"raw,omitempty"`
}

// Render produces the canonical PostgreSQL spelling of the type, used both
// by the SQL generator and by Function.Signature.
func (t Type) Render() string {
	switch t.Tag {
	case TypeSmallInt:
		return "smallint"
	case TypeInteger:
		return "integer"
	case TypeBigInt:
		return "bigint"
	case TypeText:
		return "text"
	case TypeVarchar:
		if t.Length != nil {
			return fmt.Sprintf("character varying(%d)", *t.Length)
		}
		return "character varying"
	case TypeBoolean:
		return "boolean"
	case TypeUUID:
		return "uuid"
	case TypeJSON:
		return "json"
	case TypeJSONB:
		return "jsonb"
	case TypeTimestamp:
		return "timestamp without time zone"
	case TypeTimestampTZ:
		return "timestamp with time zone"
	case TypeDate:
		return "date"
	case TypeNumeric:
		if t.Precision != nil && t.Scale != nil {
			return fmt.Sprintf("numeric(%d,%d)", *t.Precision, *t.Scale)
		}
		if t.Precision != nil {
			return fmt.Sprintf("numeric(%d)", *t.Precision)
		}
		return "numeric"
	case TypeEnumRef, TypeDomainRef:
		return QuoteQualified(t.RefNamespace, t.RefName)
	case TypeArray:
		if t.Elem != nil {
			return t.Elem.Render() + "[]"
		}
		return "unknown[]"
	case TypeRaw:
		return t.Raw
	default:
		return t.Raw
	}
}

// Equal reports semantic type equality (used by the differ, not textual
// comparison).
func (t Type) Equal(o Type) bool {
	if t.Tag != o.Tag {
		return false
	}
	switch t.Tag {
	case TypeVarchar:
		return intPtrEqual(t.Length, o.Length)
	case TypeNumeric:
		return intPtrEqual(t.Precision, o.Precision) && intPtrEqual(t.Scale, o.Scale)
	case TypeEnumRef, TypeDomainRef:
		return t.RefNamespace == o.RefNamespace && t.RefName == o.RefName
	case TypeArray:
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	case TypeRaw:
		return t.Raw == o.Raw
	default:
		return true
	}
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// RawType wraps unrecognised source text.
func RawType(src string) Type { return Type{Tag: TypeRaw, Raw: src} }

// EnumRefType addresses an enum by qualified name.
func EnumRefType(ns, name string) Type { return Type{Tag: TypeEnumRef, RefNamespace: ns, RefName: name} }

// DomainRefType addresses a domain by qualified name.
func DomainRefType(ns, name string) Type {
	return Type{Tag: TypeDomainRef, RefNamespace: ns, RefName: name}
}

// ArrayType wraps an element type.
func ArrayType(elem Type) Type { return Type{Tag: TypeArray, Elem: &elem} }

package types

import "errors"

// Kind is the symbol category reported by the documentation generator
type Kind string

const (
	KindNamespace   Kind = "namespace"
	KindClass       Kind = "class"
	KindStruct      Kind = "struct"
	KindUnion       Kind = "union"
	KindFile        Kind = "file"
	KindDefine      Kind = "define"
	KindGroup       Kind = "group"
	KindPage        Kind = "page"
	KindFunction    Kind = "function"
	KindVariable    Kind = "variable"
	KindTypedef     Kind = "typedef"
	KindEnumeration Kind = "enumeration"
	KindEnumValue   Kind = "enumvalue"
	KindFriend      Kind = "friend"
	KindSignal      Kind = "signal"
	KindSlot        Kind = "slot"
	KindProperty    Kind = "property"

	// KindFunctionList marks a name that maps to a set of overloads
	KindFunctionList Kind = "function_list"
)

// IsCompound reports whether compounds of this kind are registered in a symbol map.
// Everything else at the top level of a tag file (pages, dirs, unions...) is ignored.
func (k Kind) IsCompound() bool {
	switch k {
	case KindNamespace, KindClass, KindStruct, KindFile, KindDefine, KindGroup:
		return true
	default:
		return false
	}
}

// CarriesOverloads reports whether a member of this kind with a non-empty
// argument list is treated as a function overload. Variables, typedefs and
// enumerations may carry vacuous arglist text.
func (k Kind) CarriesOverloads() bool {
	switch k {
	case KindVariable, KindTypedef, KindEnumeration:
		return false
	default:
		return true
	}
}

// Entry is a resolved destination: the symbol category and the page it lives on,
// optionally suffixed with "#anchor"
type Entry struct {
	Kind Kind
	File string
}

// Validate checks that the entry can be turned into a link
func (e Entry) Validate() error {
	if e.Kind == "" {
		return errors.New("entry kind is required")
	}
	if e.File == "" {
		return errors.New("entry file is required")
	}
	return nil
}

// TargetKind implements Target
func (e Entry) TargetKind() Kind {
	return e.Kind
}

// Select implements Target. A plain entry has no overloads, so the argument
// list is ignored.
func (e Entry) Select(arglist string) (Entry, error) {
	return e, nil
}

// Target is what a qualified name maps to: either a single Entry or an
// OverloadSet. A name is never both.
type Target interface {
	TargetKind() Kind
	Select(arglist string) (Entry, error)
}

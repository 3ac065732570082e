package plot

import (
	"sort"

	"github.com/soma-tiles/tfserver/pkg/serial"
)

// Type tags of the predicate variants in serialized documents.
const (
	TypeLess              = "PlotPredicateLess"
	TypeEqual             = "PlotPredicateEqual"
	TypeGreater           = "PlotPredicateGreater"
	TypeBetween           = "PlotPredicateBetween"
	TypeNotBetween        = "PlotPredicateNotBetween"
	TypeBetweenOrEqual    = "PlotPredicateBetweenOrEqual"
	TypeNotBetweenOrEqual = "PlotPredicateNotBetweenOrEqual"
	TypeIsSubstring       = "PlotPredicateIsSubStr"
	TypeAlphaNumeric      = "PlotPredicateAlphaNumeric"
	TypeNotAlphaNumeric   = "PlotPredicateNotAlphaNumeric"
	TypeEmpty             = "PlotPredicateEmpty"
	TypeNotEmpty          = "PlotPredicateNotEmpty"
)

// TypeName returns the type tag of p, or "" for nil.
func TypeName(p Predicate) string {
	switch p.(type) {
	case *Less:
		return TypeLess
	case *Equal:
		return TypeEqual
	case *Greater:
		return TypeGreater
	case *Between:
		return TypeBetween
	case *NotBetween:
		return TypeNotBetween
	case *BetweenOrEqual:
		return TypeBetweenOrEqual
	case *NotBetweenOrEqual:
		return TypeNotBetweenOrEqual
	case *IsSubstring:
		return TypeIsSubstring
	case *AlphaNumeric:
		return TypeAlphaNumeric
	case *NotAlphaNumeric:
		return TypeNotAlphaNumeric
	case *Empty:
		return TypeEmpty
	case *NotEmpty:
		return TypeNotEmpty
	}
	return ""
}

// Registry maps type tags to predicate constructors. It implements
// serial.Factory for documents holding predicates.
type Registry struct {
	ctors map[string]func() Predicate
}

// NewRegistry returns a registry knowing every predicate variant.
func NewRegistry() *Registry {
	return &Registry{ctors: map[string]func() Predicate{
		TypeLess:              func() Predicate { return NewLess(Null()) },
		TypeEqual:             func() Predicate { return NewEqual(Null()) },
		TypeGreater:           func() Predicate { return NewGreater(Null()) },
		TypeBetween:           func() Predicate { return NewBetween(Null(), Null()) },
		TypeNotBetween:        func() Predicate { return NewNotBetween(Null(), Null()) },
		TypeBetweenOrEqual:    func() Predicate { return NewBetweenOrEqual(Null(), Null()) },
		TypeNotBetweenOrEqual: func() Predicate { return NewNotBetweenOrEqual(Null(), Null()) },
		TypeIsSubstring:       func() Predicate { return NewIsSubstring("") },
		TypeAlphaNumeric:      func() Predicate { return NewAlphaNumeric() },
		TypeNotAlphaNumeric:   func() Predicate { return NewNotAlphaNumeric() },
		TypeEmpty:             func() Predicate { return NewEmpty() },
		TypeNotEmpty:          func() Predicate { return NewNotEmpty() },
	}}
}

// TypeString implements serial.Factory.
func (r *Registry) TypeString(v any) string {
	p, ok := v.(Predicate)
	if !ok {
		return ""
	}
	name := TypeName(p)
	if _, known := r.ctors[name]; !known {
		return ""
	}
	return name
}

// Create implements serial.Factory. Unknown names yield (nil, false).
func (r *Registry) Create(name string) (serial.Serializable, bool) {
	p, ok := r.New(name)
	if !ok {
		return nil, false
	}
	return p, true
}

// New returns a fresh predicate for the type tag.
func (r *Registry) New(name string) (Predicate, bool) {
	ctor, ok := r.ctors[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Names lists the registered type tags in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

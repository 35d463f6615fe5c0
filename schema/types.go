package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/janelia-flyem/agstore/attribute"
)

// VertexType describes a kind of vertex, e.g., "Person" or "Country".
type VertexType struct {
	Name           string
	Description    string
	Color          attribute.Color
	ForegroundIcon string
	BackgroundIcon string

	// DetectionRegex recognizes identifiers of this type when completing a graph.
	DetectionRegex *regexp.Regexp

	// ValidationRegex, if set, must match every identifier of this type.
	ValidationRegex *regexp.Regexp

	SuperType  *VertexType
	Properties map[string]interface{}
	Incomplete bool
}

func (t *VertexType) String() string { return t.Hierarchy() }

// Hierarchy returns the dotted path from the root supertype, e.g., "Location.Country".
func (t *VertexType) Hierarchy() string {
	var names []string
	for cur := t; cur != nil; cur = cur.SuperType {
		names = append([]string{cur.Name}, names...)
	}
	return strings.Join(names, ".")
}

// IsSubtypeOf returns true if t is other or descends from it.
func (t *VertexType) IsSubtypeOf(other *VertexType) bool {
	for cur := t; cur != nil; cur = cur.SuperType {
		if cur == other {
			return true
		}
	}
	return false
}

// Detects returns true if the type's detection regex matches the whole identifier.
func (t *VertexType) Detects(identifier string) bool {
	return t.DetectionRegex != nil && fullMatch(t.DetectionRegex, identifier)
}

// Validate returns an error if identifier fails the type's validation regex.
func (t *VertexType) Validate(identifier string) error {
	if t.ValidationRegex == nil || fullMatch(t.ValidationRegex, identifier) {
		return nil
	}
	return fmt.Errorf("identifier %q is not a valid %s", identifier, t.Name)
}

func fullMatch(re *regexp.Regexp, s string) bool {
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// VertexTypeBuilder builds a VertexType.
type VertexTypeBuilder struct {
	t   VertexType
	err error
}

// NewVertexTypeBuilder starts a type with no supertype.
func NewVertexTypeBuilder(name string) *VertexTypeBuilder {
	return &VertexTypeBuilder{t: VertexType{Name: name}}
}

// DeriveVertexType starts a subtype of parent.  Properties, Incomplete and the
// detection and validation regexes are not carried over from parent.
func DeriveVertexType(parent *VertexType, name string) *VertexTypeBuilder {
	return &VertexTypeBuilder{t: VertexType{
		Name:           name,
		Description:    parent.Description,
		Color:          parent.Color,
		ForegroundIcon: parent.ForegroundIcon,
		BackgroundIcon: parent.BackgroundIcon,
		SuperType:      parent,
	}}
}

func (b *VertexTypeBuilder) Description(s string) *VertexTypeBuilder {
	b.t.Description = s
	return b
}

func (b *VertexTypeBuilder) Color(c attribute.Color) *VertexTypeBuilder {
	b.t.Color = c
	return b
}

func (b *VertexTypeBuilder) Icons(foreground, background string) *VertexTypeBuilder {
	b.t.ForegroundIcon, b.t.BackgroundIcon = foreground, background
	return b
}

func (b *VertexTypeBuilder) compile(what, pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("bad %s regex for vertex type %q: %w", what, b.t.Name, err)
	}
	return re
}

// DetectionRegex sets the identifier detection pattern.  An empty pattern clears it.
func (b *VertexTypeBuilder) DetectionRegex(pattern string) *VertexTypeBuilder {
	b.t.DetectionRegex = b.compile("detection", pattern)
	return b
}

// ValidationRegex sets the identifier validation pattern.  An empty pattern clears it.
func (b *VertexTypeBuilder) ValidationRegex(pattern string) *VertexTypeBuilder {
	b.t.ValidationRegex = b.compile("validation", pattern)
	return b
}

func (b *VertexTypeBuilder) Property(key string, value interface{}) *VertexTypeBuilder {
	if b.t.Properties == nil {
		b.t.Properties = make(map[string]interface{})
	}
	b.t.Properties[key] = value
	return b
}

func (b *VertexTypeBuilder) Incomplete(incomplete bool) *VertexTypeBuilder {
	b.t.Incomplete = incomplete
	return b
}

// Build returns the type or the first error met while building it.
func (b *VertexTypeBuilder) Build() (*VertexType, error) {
	if b.err != nil {
		return nil, b.err
	}
	if strings.TrimSpace(b.t.Name) == "" {
		return nil, fmt.Errorf("vertex type needs a name")
	}
	t := b.t
	if b.t.Properties != nil {
		t.Properties = make(map[string]interface{}, len(b.t.Properties))
		for k, v := range b.t.Properties {
			t.Properties[k] = v
		}
	}
	return &t, nil
}

// LineStyle is how a transaction type is drawn.
type LineStyle uint8

const (
	Solid LineStyle = iota
	Dotted
	Dashed
	Diamond
)

func (s LineStyle) String() string {
	switch s {
	case Solid:
		return "solid"
	case Dotted:
		return "dotted"
	case Dashed:
		return "dashed"
	case Diamond:
		return "diamond"
	default:
		return "unknown"
	}
}

// TransactionType describes a kind of transaction, e.g., "Communication".
type TransactionType struct {
	Name        string
	Description string
	Color       attribute.Color
	Style       LineStyle
	Directed    bool
	SuperType   *TransactionType
	Properties  map[string]interface{}
	Incomplete  bool
}

func (t *TransactionType) String() string { return t.Hierarchy() }

// Hierarchy returns the dotted path from the root supertype.
func (t *TransactionType) Hierarchy() string {
	var names []string
	for cur := t; cur != nil; cur = cur.SuperType {
		names = append([]string{cur.Name}, names...)
	}
	return strings.Join(names, ".")
}

// IsSubtypeOf returns true if t is other or descends from it.
func (t *TransactionType) IsSubtypeOf(other *TransactionType) bool {
	for cur := t; cur != nil; cur = cur.SuperType {
		if cur == other {
			return true
		}
	}
	return false
}

// TransactionTypeBuilder builds a TransactionType.
type TransactionTypeBuilder struct {
	t TransactionType
}

func NewTransactionTypeBuilder(name string) *TransactionTypeBuilder {
	return &TransactionTypeBuilder{t: TransactionType{Name: name}}
}

// DeriveTransactionType starts a subtype of parent.  Properties and Incomplete
// are not carried over from parent.
func DeriveTransactionType(parent *TransactionType, name string) *TransactionTypeBuilder {
	return &TransactionTypeBuilder{t: TransactionType{
		Name:        name,
		Description: parent.Description,
		Color:       parent.Color,
		Style:       parent.Style,
		Directed:    parent.Directed,
		SuperType:   parent,
	}}
}

func (b *TransactionTypeBuilder) Description(s string) *TransactionTypeBuilder {
	b.t.Description = s
	return b
}

func (b *TransactionTypeBuilder) Color(c attribute.Color) *TransactionTypeBuilder {
	b.t.Color = c
	return b
}

func (b *TransactionTypeBuilder) Style(s LineStyle) *TransactionTypeBuilder {
	b.t.Style = s
	return b
}

func (b *TransactionTypeBuilder) Directed(directed bool) *TransactionTypeBuilder {
	b.t.Directed = directed
	return b
}

func (b *TransactionTypeBuilder) Property(key string, value interface{}) *TransactionTypeBuilder {
	if b.t.Properties == nil {
		b.t.Properties = make(map[string]interface{})
	}
	b.t.Properties[key] = value
	return b
}

func (b *TransactionTypeBuilder) Incomplete(incomplete bool) *TransactionTypeBuilder {
	b.t.Incomplete = incomplete
	return b
}

func (b *TransactionTypeBuilder) Build() (*TransactionType, error) {
	if strings.TrimSpace(b.t.Name) == "" {
		return nil, fmt.Errorf("transaction type needs a name")
	}
	t := b.t
	if b.t.Properties != nil {
		t.Properties = make(map[string]interface{}, len(b.t.Properties))
		for k, v := range b.t.Properties {
			t.Properties[k] = v
		}
	}
	return &t, nil
}

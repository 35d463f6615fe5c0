package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/janelia-flyem/agstore/graph"
)

// Names of the attributes a schema maintains.
const (
	SchemaAttribute     = "schema"
	TypeAttribute       = "Type"
	IdentifierAttribute = "Identifier"
	ColorAttribute      = "Color"
)

// Unknown types are assigned to elements nothing else matches.
var (
	UnknownVertexType = &VertexType{
		Name:        "Unknown",
		Description: "A vertex of unknown type",
		Color:       attribute.Color{R: 0.5, G: 0.5, B: 0.5, A: 1},
	}
	UnknownTransactionType = &TransactionType{
		Name:        "Unknown",
		Description: "A transaction of unknown type",
		Color:       attribute.Color{R: 0.5, G: 0.5, B: 0.5, A: 1},
	}
)

// Schema is a named set of vertex and transaction types.
type Schema struct {
	Name string

	mu               sync.RWMutex
	vertexTypes      map[string]*VertexType
	transactionTypes map[string]*TransactionType
	detectOrder      []*VertexType
}

// New returns a schema holding only the Unknown types.
func New(name string) *Schema {
	return &Schema{
		Name:             name,
		vertexTypes:      map[string]*VertexType{UnknownVertexType.Name: UnknownVertexType},
		transactionTypes: map[string]*TransactionType{UnknownTransactionType.Name: UnknownTransactionType},
	}
}

// AddVertexType registers t.  Its supertype, if any, must already be registered.
func (s *Schema) AddVertexType(t *VertexType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.vertexTypes[t.Name]; found {
		return fmt.Errorf("schema %q already has vertex type %q", s.Name, t.Name)
	}
	if t.SuperType != nil && s.vertexTypes[t.SuperType.Name] != t.SuperType {
		return fmt.Errorf("supertype %q of vertex type %q is not in schema %q", t.SuperType.Name, t.Name, s.Name)
	}
	s.vertexTypes[t.Name] = t
	if t.DetectionRegex != nil {
		s.detectOrder = append(s.detectOrder, t)
	}
	return nil
}

// AddTransactionType registers t.  Its supertype, if any, must already be registered.
func (s *Schema) AddTransactionType(t *TransactionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.transactionTypes[t.Name]; found {
		return fmt.Errorf("schema %q already has transaction type %q", s.Name, t.Name)
	}
	if t.SuperType != nil && s.transactionTypes[t.SuperType.Name] != t.SuperType {
		return fmt.Errorf("supertype %q of transaction type %q is not in schema %q", t.SuperType.Name, t.Name, s.Name)
	}
	s.transactionTypes[t.Name] = t
	return nil
}

func (s *Schema) VertexType(name string) (*VertexType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, found := s.vertexTypes[name]
	return t, found
}

func (s *Schema) TransactionType(name string) (*TransactionType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, found := s.transactionTypes[name]
	return t, found
}

// VertexTypes returns the registered vertex types sorted by hierarchy.
func (s *Schema) VertexTypes() []*VertexType {
	s.mu.RLock()
	types := make([]*VertexType, 0, len(s.vertexTypes))
	for _, t := range s.vertexTypes {
		types = append(types, t)
	}
	s.mu.RUnlock()
	sort.Slice(types, func(i, j int) bool { return types[i].Hierarchy() < types[j].Hierarchy() })
	return types
}

// TransactionTypes returns the registered transaction types sorted by hierarchy.
func (s *Schema) TransactionTypes() []*TransactionType {
	s.mu.RLock()
	types := make([]*TransactionType, 0, len(s.transactionTypes))
	for _, t := range s.transactionTypes {
		types = append(types, t)
	}
	s.mu.RUnlock()
	sort.Slice(types, func(i, j int) bool { return types[i].Hierarchy() < types[j].Hierarchy() })
	return types
}

// ResolveVertexType returns the first registered type, in registration order,
// whose detection regex matches identifier, or UnknownVertexType.
func (s *Schema) ResolveVertexType(identifier string) *VertexType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.detectOrder {
		if t.Detects(identifier) {
			return t
		}
	}
	return UnknownVertexType
}

// Chart returns a table of the schema's types.
func (s *Schema) Chart() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nSchema %s\n\n", s.Name)
	writeLine := func(kind, name, desc string) {
		fmt.Fprintf(&b, "%-12s %-30s %s\n", kind, name, desc)
	}
	writeLine("Kind", "Type", "Description")
	for _, t := range s.VertexTypes() {
		writeLine("vertex", t.Hierarchy(), t.Description)
	}
	for _, t := range s.TransactionTypes() {
		writeLine("transaction", t.Hierarchy(), t.Description)
	}
	return b.String() + "\n"
}

// Attributes holds the attribute ids a schema maintains in one graph.
type Attributes struct {
	Schema           attribute.ID
	VertexType       attribute.ID
	Identifier       attribute.ID
	VertexColor      attribute.ID
	TransactionType  attribute.ID
	TransactionColor attribute.ID
}

// Apply ensures the schema's attributes exist in the graph and records the
// schema name as a graph attribute.
func (s *Schema) Apply(w *graph.WritableGraph) (Attributes, error) {
	var attrs Attributes
	specs := []struct {
		id   *attribute.ID
		et   agstore.ElementType
		tag  string
		name string
		desc string
		def  interface{}
	}{
		{&attrs.Schema, agstore.GraphElement, attribute.StringTag, SchemaAttribute, "name of the graph's schema", nil},
		{&attrs.VertexType, agstore.Vertex, attribute.StringTag, TypeAttribute, "vertex type", UnknownVertexType.Name},
		{&attrs.Identifier, agstore.Vertex, attribute.StringTag, IdentifierAttribute, "vertex identifier", nil},
		{&attrs.VertexColor, agstore.Vertex, attribute.ColorTag, ColorAttribute, "vertex color", nil},
		{&attrs.TransactionType, agstore.Transaction, attribute.StringTag, TypeAttribute, "transaction type", UnknownTransactionType.Name},
		{&attrs.TransactionColor, agstore.Transaction, attribute.ColorTag, ColorAttribute, "transaction color", nil},
	}
	for _, spec := range specs {
		id, err := w.EnsureAttribute(spec.et, spec.tag, spec.name, spec.desc, spec.def)
		if err != nil {
			return attrs, fmt.Errorf("applying schema %q: %w", s.Name, err)
		}
		*spec.id = id
	}
	if err := w.SetString(attrs.Schema, agstore.GraphElementID, s.Name); err != nil {
		return attrs, err
	}
	return attrs, nil
}

// Complete assigns a type to every vertex that has none, detecting it from the
// vertex identifier, and fills clear colors from the element types.  It returns
// the number of vertices whose type was set.
func (s *Schema) Complete(w *graph.WritableGraph, attrs Attributes) (int, error) {
	var typed int
	for p := 0; p < w.VertexCount(); p++ {
		v := w.Vertex(p)
		vt, changed, err := s.completeVertex(w, attrs, v)
		if err != nil {
			return typed, err
		}
		if changed {
			typed++
		}
		if err := fillColor(w, attrs.VertexColor, v, vt.Color); err != nil {
			return typed, err
		}
	}
	for p := 0; p < w.TransactionCount(); p++ {
		tx := w.Transaction(p)
		name, err := w.GetString(attrs.TransactionType, tx)
		if err != nil {
			return typed, err
		}
		tt, found := s.TransactionType(name)
		if !found {
			tt = UnknownTransactionType
		}
		if err := fillColor(w, attrs.TransactionColor, tx, tt.Color); err != nil {
			return typed, err
		}
	}
	return typed, nil
}

func (s *Schema) completeVertex(w *graph.WritableGraph, attrs Attributes, v int) (*VertexType, bool, error) {
	name, err := w.GetString(attrs.VertexType, v)
	if err != nil {
		return nil, false, err
	}
	identifier, err := w.GetString(attrs.Identifier, v)
	if err != nil {
		return nil, false, err
	}
	if t, found := s.VertexType(name); found && t != UnknownVertexType {
		if err := t.Validate(identifier); err != nil {
			w.Log().Element(agstore.Vertex, v).Warningf("%v\n", err)
		}
		return t, false, nil
	}
	t := s.ResolveVertexType(identifier)
	if t == UnknownVertexType {
		return t, false, nil
	}
	if err := w.SetString(attrs.VertexType, v, t.Name); err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func fillColor(w *graph.WritableGraph, attr attribute.ID, id int, c attribute.Color) error {
	isClear, err := w.IsClear(attr, id)
	if err != nil || !isClear {
		return err
	}
	return w.SetObject(attr, id, c)
}

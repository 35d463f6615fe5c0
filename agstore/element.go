package agstore

import (
	"fmt"
	"strings"
)

const (
	Kilo = 1 << 10
	Mega = 1 << 20
	Giga = 1 << 30
)

// NotFound is returned by lookups of element ids, positions and attribute ids
// that do not exist.
const NotFound = -1

// GraphElementID is the id of the single element carrying graph-level attributes.
const GraphElementID = 0

// ElementType identifies the kind of graph element an id or attribute refers to.
type ElementType uint8

const (
	// GraphElement is the graph itself; it has exactly one element with id 0.
	GraphElement ElementType = iota

	// Vertex is a graph node.
	Vertex

	// Transaction is a directed or undirected multi-edge between two vertices.
	Transaction

	// Edge is the set of transactions sharing a vertex pair and direction.
	Edge

	// Link is the set of transactions sharing a vertex pair regardless of direction.
	Link
)

// ElementTypes lists every element type in declaration order.
var ElementTypes = []ElementType{GraphElement, Vertex, Transaction, Edge, Link}

var elementNames = map[ElementType]string{
	GraphElement: "graph",
	Vertex:       "vertex",
	Transaction:  "transaction",
	Edge:         "edge",
	Link:         "link",
}

func (t ElementType) String() string {
	if name, found := elementNames[t]; found {
		return name
	}
	return fmt.Sprintf("element type %d", uint8(t))
}

// Stored returns true if elements of this type own attribute storage.  Edges and
// links are derived from transactions and never persisted.
func (t ElementType) Stored() bool {
	return t == GraphElement || t == Vertex || t == Transaction
}

// ParseElementType returns the element type for its name, e.g., "vertex".
func ParseElementType(s string) (ElementType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range elementNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown element type %q", s)
}

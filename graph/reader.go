package graph

import (
	"fmt"
	"sync/atomic"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/janelia-flyem/agstore/topology"
)

// reader implements the read operations shared by readable and writable handles.
type reader struct {
	g      *Graph
	v      *version
	done   atomic.Bool
	cached bool // v is committed so derived views may be cached
}

// ver returns the version the handle reads, panicking if the handle is finished.
func (r *reader) ver() *version {
	if r.done.Load() {
		panic(&agstore.IllegalStateError{Op: "read", Reason: "graph handle already released"})
	}
	return r.v
}

// Graph returns the graph this handle belongs to.
func (r *reader) Graph() *Graph { return r.g }

// Version returns the modification counter value of the version being read.  For a
// writable handle it is the version the session started from.
func (r *reader) Version() Version { return r.ver().number }

func (r *reader) VertexCount() int         { return r.ver().topo.VertexCount() }
func (r *reader) VertexCapacity() int      { return r.ver().topo.VertexCapacity() }
func (r *reader) VertexExists(id int) bool { return r.ver().topo.VertexExists(id) }

// Vertex returns the id of the vertex at a position or agstore.NotFound.
func (r *reader) Vertex(position int) int { return r.ver().topo.Vertex(position) }

// VertexPosition returns the position of a vertex or agstore.NotFound.
func (r *reader) VertexPosition(id int) int { return r.ver().topo.VertexPosition(id) }

func (r *reader) VertexTransactionCount(v int) int { return r.ver().topo.VertexTransactionCount(v) }

func (r *reader) VertexTransaction(v, position int) int {
	return r.ver().topo.VertexTransaction(v, position)
}

func (r *reader) VertexNeighbourCount(v int) int      { return r.ver().topo.VertexNeighbourCount(v) }
func (r *reader) VertexNeighbour(v, position int) int { return r.ver().topo.VertexNeighbour(v, position) }

func (r *reader) TransactionCount() int             { return r.ver().topo.TransactionCount() }
func (r *reader) TransactionCapacity() int          { return r.ver().topo.TransactionCapacity() }
func (r *reader) TransactionExists(id int) bool     { return r.ver().topo.TransactionExists(id) }
func (r *reader) Transaction(position int) int      { return r.ver().topo.Transaction(position) }
func (r *reader) TransactionPosition(id int) int    { return r.ver().topo.TransactionPosition(id) }
func (r *reader) TransactionSource(id int) int      { return r.ver().topo.TransactionSource(id) }
func (r *reader) TransactionDestination(id int) int { return r.ver().topo.TransactionDestination(id) }
func (r *reader) TransactionDirected(id int) bool   { return r.ver().topo.TransactionDirected(id) }

// Views returns the edge and link groupings of the version's transactions.
func (r *reader) Views() *topology.Views {
	v := r.ver()
	if r.cached {
		return r.g.cachedViews(v)
	}
	return v.topo.Views()
}

func (r *reader) Edges() []topology.Edge { return r.Views().Edges }
func (r *reader) Links() []topology.Link { return r.Views().Links }

// Attribute returns the id of the named attribute or agstore.NotFound.
func (r *reader) Attribute(et agstore.ElementType, name string) attribute.ID {
	return r.ver().attrs.Lookup(et, name)
}

// Attributes returns the attributes of an element type in registration order.
func (r *reader) Attributes(et agstore.ElementType) []attribute.Attribute {
	return r.ver().attrs.Attributes(et)
}

// AttributeInfo describes an attribute.
func (r *reader) AttributeInfo(attr attribute.ID) (attribute.Attribute, error) {
	return r.ver().attrs.Attribute(attr)
}

func (r *reader) descriptor(attr attribute.ID) (attribute.Descriptor, error) {
	d := r.ver().attrs.Descriptor(attr)
	if d == nil {
		return nil, &agstore.UnknownAttributeError{Name: fmt.Sprintf("id %d", attr)}
	}
	return d, nil
}

// Default returns the value read from elements whose attribute value is clear.
func (r *reader) Default(attr attribute.ID) (interface{}, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return nil, err
	}
	return d.Default(), nil
}

// AcceptsString returns nil if s is a valid value for the attribute.  Nothing is changed.
func (r *reader) AcceptsString(attr attribute.ID, s string) error {
	d, err := r.descriptor(attr)
	if err != nil {
		return err
	}
	return d.AcceptsString(s)
}

// ConvertFromString returns the value s represents for the attribute.
func (r *reader) ConvertFromString(attr attribute.ID, s string) (interface{}, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return nil, err
	}
	return d.ConvertFromString(s)
}

func (r *reader) IsClear(attr attribute.ID, id int) (bool, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return false, err
	}
	return d.IsClear(id), nil
}

func (r *reader) GetBool(attr attribute.ID, id int) (bool, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return false, err
	}
	return d.GetBool(id)
}

func (r *reader) GetByte(attr attribute.ID, id int) (int8, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return 0, err
	}
	return d.GetByte(id)
}

func (r *reader) GetShort(attr attribute.ID, id int) (int16, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return 0, err
	}
	return d.GetShort(id)
}

func (r *reader) GetInt(attr attribute.ID, id int) (int32, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return 0, err
	}
	return d.GetInt(id)
}

func (r *reader) GetLong(attr attribute.ID, id int) (int64, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return 0, err
	}
	return d.GetLong(id)
}

func (r *reader) GetFloat(attr attribute.ID, id int) (float32, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return 0, err
	}
	return d.GetFloat(id)
}

func (r *reader) GetDouble(attr attribute.ID, id int) (float64, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return 0, err
	}
	return d.GetDouble(id)
}

func (r *reader) GetChar(attr attribute.ID, id int) (rune, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return 0, err
	}
	return d.GetChar(id)
}

func (r *reader) GetString(attr attribute.ID, id int) (string, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return "", err
	}
	return d.GetString(id), nil
}

func (r *reader) GetObject(attr attribute.ID, id int) (interface{}, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return nil, err
	}
	return d.GetObject(id), nil
}

// Equal returns true if two elements have equal values of an attribute.
func (r *reader) Equal(attr attribute.ID, a, b int) (bool, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return false, err
	}
	return d.Equal(a, b), nil
}

// Hash returns a hash of an element's value of an attribute.
func (r *reader) Hash(attr attribute.ID, id int) (uint64, error) {
	d, err := r.descriptor(attr)
	if err != nil {
		return 0, err
	}
	return d.Hash(id), nil
}

// ReadableGraph is a snapshot of a committed version.  It must be released exactly once.
type ReadableGraph struct {
	*reader
}

// Release finishes the handle.  Reads after Release panic.
func (r *ReadableGraph) Release() error {
	if r == nil || r.reader == nil || r.g == nil {
		return &agstore.IllegalStateError{Op: "release", Reason: "handle was not issued by a graph"}
	}
	if !r.done.CompareAndSwap(false, true) {
		return &agstore.IllegalStateError{Op: "release", Reason: "readable graph already released"}
	}
	r.g.metrics.readers.Dec()
	return nil
}

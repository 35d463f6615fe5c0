package graph

import (
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/janelia-flyem/agstore/topology"
)

// Version is the value of the global modification counter when a graph version
// was committed.
type Version = uint64

// version is one state of the graph.  Once committed it is never modified.
type version struct {
	number Version
	topo   *topology.Store
	attrs  *attribute.Set
}

func emptyVersion(cfg Config) *version {
	topo := topology.New(cfg.ChunkSize, cfg.InitialCapacity)
	return &version{
		topo:  topo,
		attrs: attribute.NewSet(cfg.ChunkSize, topo.Spaces()),
	}
}

func (v *version) fork(epoch uint64) *version {
	topo := v.topo.Fork(epoch)
	return &version{
		number: v.number,
		topo:   topo,
		attrs:  v.attrs.Fork(epoch, topo.Spaces()),
	}
}

// live returns true if id is a live element of a type that stores attributes.
func (v *version) live(et agstore.ElementType, id int) bool {
	switch et {
	case agstore.GraphElement:
		return id == agstore.GraphElementID
	case agstore.Vertex:
		return v.topo.VertexExists(id)
	case agstore.Transaction:
		return v.topo.TransactionExists(id)
	}
	return false
}

// elements returns the live ids of an element type in position order.
func (v *version) elements(et agstore.ElementType) []int {
	switch et {
	case agstore.GraphElement:
		return []int{agstore.GraphElementID}
	case agstore.Vertex:
		ids := make([]int, v.topo.VertexCount())
		for p := range ids {
			ids[p] = v.topo.Vertex(p)
		}
		return ids
	case agstore.Transaction:
		ids := make([]int, v.topo.TransactionCount())
		for p := range ids {
			ids[p] = v.topo.Transaction(p)
		}
		return ids
	}
	return nil
}

package graph

import (
	"fmt"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"
	"github.com/janelia-flyem/agstore/agstore"
)

// Stats summarizes the last committed version of a graph.
type Stats struct {
	ID           string `json:"id"`
	Version      uint64 `json:"version"`
	Vertices     int    `json:"vertices"`
	Transactions int    `json:"transactions"`
	Edges        int    `json:"edges"`
	Links        int    `json:"links"`
	Attributes   int    `json:"attributes"`
	Chunks       int    `json:"chunks"`
	Bytes        uint64 `json:"bytes"`
	UndoDepth    int    `json:"undo_depth"`
	RedoDepth    int    `json:"redo_depth"`
}

func (s Stats) String() string {
	return fmt.Sprintf("graph %s @ version %d: %d vertices, %d transactions (%d edges, %d links), "+
		"%d attributes in %d chunks, ~%s, undo %d / redo %d",
		s.ID, s.Version, s.Vertices, s.Transactions, s.Edges, s.Links,
		s.Attributes, s.Chunks, humanize.Bytes(s.Bytes), s.UndoDepth, s.RedoDepth)
}

// Stats returns counts and the approximate memory held by the last committed version.
func (g *Graph) Stats() Stats {
	r := g.ReadableGraph()
	defer r.Release()

	v := r.ver()
	views := r.Views()
	chunks := v.topo.Chunks()
	for _, et := range agstore.ElementTypes {
		for _, a := range v.attrs.Attributes(et) {
			chunks += v.attrs.Descriptor(a.ID).Chunks()
		}
	}
	undoDepth, redoDepth := g.log.Len()
	return Stats{
		ID:           g.id,
		Version:      v.number,
		Vertices:     v.topo.VertexCount(),
		Transactions: v.topo.TransactionCount(),
		Edges:        len(views.Edges),
		Links:        len(views.Links),
		Attributes:   v.attrs.Len(),
		Chunks:       chunks,
		Bytes:        uint64(size.Of(v)),
		UndoDepth:    undoDepth,
		RedoDepth:    redoDepth,
	}
}

package topology

import "github.com/janelia-flyem/agstore/agstore"

// Edge is the set of transactions sharing a source, destination and direction.
// Undirected transactions between two vertices form one edge whichever way they
// were added; Source is then the lower vertex id.
type Edge struct {
	ID           int
	Source       int
	Destination  int
	Directed     bool
	Transactions []int
}

// Link is the set of transactions between two vertices regardless of direction.
type Link struct {
	ID           int
	Low, High    int
	Edges        []int
	Transactions []int
}

// Views groups the transactions of one version into edges and links.  Edge and link
// ids are positions in Edges and Links and are only stable for that version.
type Views struct {
	Edges []Edge
	Links []Link

	edgeOf map[int]int // transaction -> edge
	linkOf map[int]int // transaction -> link
}

type edgeKey struct {
	src, dst int
	directed bool
}

type linkKey struct {
	low, high int
}

// Views computes the edge and link groupings of every transaction, in transaction
// position order.
func (s *Store) Views() *Views {
	n := s.TransactionCount()
	v := &Views{
		edgeOf: make(map[int]int, n),
		linkOf: make(map[int]int, n),
	}
	edges := make(map[edgeKey]int)
	links := make(map[linkKey]int)
	for p := 0; p < n; p++ {
		tx := s.Transaction(p)
		src, dst, directed := s.src.Get(tx), s.dst.Get(tx), s.directed.Get(tx)
		low, high := src, dst
		if low > high {
			low, high = high, low
		}

		ek := edgeKey{src, dst, directed}
		if !directed {
			ek = edgeKey{low, high, false}
		}
		e, found := edges[ek]
		if !found {
			e = len(v.Edges)
			edges[ek] = e
			v.Edges = append(v.Edges, Edge{ID: e, Source: ek.src, Destination: ek.dst, Directed: directed})
		}
		v.Edges[e].Transactions = append(v.Edges[e].Transactions, tx)
		v.edgeOf[tx] = e

		lk := linkKey{low, high}
		l, found := links[lk]
		if !found {
			l = len(v.Links)
			links[lk] = l
			v.Links = append(v.Links, Link{ID: l, Low: low, High: high})
		}
		if !contains(v.Links[l].Edges, e) {
			v.Links[l].Edges = append(v.Links[l].Edges, e)
		}
		v.Links[l].Transactions = append(v.Links[l].Transactions, tx)
		v.linkOf[tx] = l
	}
	return v
}

func contains(list []int, x int) bool {
	for _, v := range list {
		if v == x {
			return true
		}
	}
	return false
}

// EdgeOf returns the edge containing a transaction or agstore.NotFound.
func (v *Views) EdgeOf(tx int) int {
	if e, found := v.edgeOf[tx]; found {
		return e
	}
	return agstore.NotFound
}

// LinkOf returns the link containing a transaction or agstore.NotFound.
func (v *Views) LinkOf(tx int) int {
	if l, found := v.linkOf[tx]; found {
		return l
	}
	return agstore.NotFound
}

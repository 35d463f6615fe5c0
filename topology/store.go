package topology

import (
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/column"
)

// ids tracks allocation of one element type: live ids by position, reusable ids
// and ids waiting for commit before they can be reused.
type ids struct {
	live    []int
	own     bool // live is owned by this epoch
	pos     *column.Column[int]
	free    []int
	pending []int
	high    int // every id below high has been allocated at some point
}

func newIDs(chunkSize int) *ids {
	return &ids{pos: column.New[int](chunkSize, agstore.NotFound), own: true}
}

func (x *ids) fork(epoch uint64) *ids {
	return &ids{
		live:    x.live,
		pos:     x.pos.Fork(epoch),
		free:    append([]int(nil), x.free...),
		pending: append([]int(nil), x.pending...),
		high:    x.high,
	}
}

func (x *ids) exists(id int) bool {
	return x.pos.Get(id) != agstore.NotFound
}

func (x *ids) writableLive() {
	if !x.own {
		x.live = append(make([]int, 0, len(x.live)+1), x.live...)
		x.own = true
	}
}

// alloc returns a free id or a new one.
func (x *ids) alloc() int {
	var id int
	if n := len(x.free); n > 0 {
		id = x.free[n-1]
		x.free = x.free[:n-1]
	} else {
		id = x.high
		x.high++
	}
	x.activate(id)
	return id
}

// claim makes a specific free or pending id live.  It returns false if the id is live.
func (x *ids) claim(id int) bool {
	if id < 0 || x.exists(id) {
		return false
	}
	if id >= x.high {
		for i := id - 1; i >= x.high; i-- {
			x.free = append(x.free, i)
		}
		x.high = id + 1
	} else if !remove(&x.free, id) && !remove(&x.pending, id) {
		return false
	}
	x.activate(id)
	return true
}

func (x *ids) activate(id int) {
	x.writableLive()
	x.pos.Set(id, len(x.live))
	x.live = append(x.live, id)
}

// retire removes a live id, moving the last live id into its position.
func (x *ids) retire(id int) {
	x.writableLive()
	p := x.pos.Get(id)
	last := len(x.live) - 1
	if p != last {
		moved := x.live[last]
		x.live[p] = moved
		x.pos.Set(moved, p)
	}
	x.live = x.live[:last]
	x.pos.Clear(id)
	x.pending = append(x.pending, id)
}

func (x *ids) release() []int {
	released := x.pending
	x.free = append(x.free, released...)
	x.pending = nil
	return released
}

func remove(list *[]int, id int) bool {
	for i, v := range *list {
		if v == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

// Store is the topology of one graph version.
type Store struct {
	epoch  uint64
	spaces map[agstore.ElementType]*column.Space

	vertices     *ids
	transactions *ids

	adjacency *column.Column[[]int] // vertex -> incident transactions
	ownedAdj  map[int]struct{}      // adjacency lists copied in this epoch

	src      *column.Column[int]
	dst      *column.Column[int]
	directed *column.Column[bool]
}

// New returns an empty store.  Capacity of each element type starts at
// initialCapacity and columns use chunks of chunkSize.
func New(chunkSize, initialCapacity int) *Store {
	if chunkSize <= 0 {
		chunkSize = column.DefaultChunkSize
	}
	return &Store{
		spaces: map[agstore.ElementType]*column.Space{
			agstore.GraphElement: column.NewSpace(1),
			agstore.Vertex:       column.NewSpace(initialCapacity),
			agstore.Transaction:  column.NewSpace(initialCapacity),
		},
		vertices:     newIDs(chunkSize),
		transactions: newIDs(chunkSize),
		adjacency:    column.New[[]int](chunkSize, nil),
		ownedAdj:     make(map[int]struct{}),
		src:          column.New[int](chunkSize, agstore.NotFound),
		dst:          column.New[int](chunkSize, agstore.NotFound),
		directed:     column.New[bool](chunkSize, false),
	}
}

// Fork returns a copy-on-write store for a write session with the given epoch.
func (s *Store) Fork(epoch uint64) *Store {
	spaces := make(map[agstore.ElementType]*column.Space, len(s.spaces))
	for et, sp := range s.spaces {
		spaces[et] = sp.Fork()
	}
	return &Store{
		epoch:        epoch,
		spaces:       spaces,
		vertices:     s.vertices.fork(epoch),
		transactions: s.transactions.fork(epoch),
		adjacency:    s.adjacency.Fork(epoch),
		ownedAdj:     make(map[int]struct{}),
		src:          s.src.Fork(epoch),
		dst:          s.dst.Fork(epoch),
		directed:     s.directed.Fork(epoch),
	}
}

// Epoch returns the write epoch that owns this store.
func (s *Store) Epoch() uint64 {
	return s.epoch
}

// Spaces returns the capacity space of each element type that stores attributes.
func (s *Store) Spaces() map[agstore.ElementType]*column.Space {
	return s.spaces
}

// Release makes the ids removed in this session reusable.  It is called when the
// session commits and returns the number of ids released.
func (s *Store) Release() int {
	return len(s.vertices.release()) + len(s.transactions.release())
}

// Pending returns the number of removed ids waiting for Release.
func (s *Store) Pending() int {
	return len(s.vertices.pending) + len(s.transactions.pending)
}

// --- vertices ---

// AddVertex creates a vertex and returns its id.
func (s *Store) AddVertex() int {
	id := s.vertices.alloc()
	s.spaces[agstore.Vertex].Ensure(id + 1)
	return id
}

// RestoreVertex re-creates a vertex with a specific id, e.g., when undoing its removal.
func (s *Store) RestoreVertex(id int) error {
	if !s.vertices.claim(id) {
		return &agstore.InvalidReferenceError{Type: agstore.Vertex, ID: id, Op: "restore vertex"}
	}
	s.spaces[agstore.Vertex].Ensure(id + 1)
	return nil
}

// RemoveVertex removes a vertex and every transaction incident to it.  It returns
// the ids of the removed transactions.
func (s *Store) RemoveVertex(id int) ([]int, error) {
	if !s.vertices.exists(id) {
		return nil, &agstore.InvalidReferenceError{Type: agstore.Vertex, ID: id, Op: "remove vertex"}
	}
	incident := append([]int(nil), s.adjacency.Get(id)...)
	for _, tx := range incident {
		s.removeTransaction(tx)
	}
	s.adjacency.Clear(id)
	delete(s.ownedAdj, id)
	s.vertices.retire(id)
	return incident, nil
}

func (s *Store) VertexCount() int         { return len(s.vertices.live) }
func (s *Store) VertexCapacity() int      { return s.spaces[agstore.Vertex].Capacity() }
func (s *Store) VertexExists(id int) bool { return s.vertices.exists(id) }

// Vertex returns the id of the vertex at a position in [0, VertexCount()).
func (s *Store) Vertex(position int) int {
	if position < 0 || position >= len(s.vertices.live) {
		return agstore.NotFound
	}
	return s.vertices.live[position]
}

// VertexPosition returns the position of a vertex or agstore.NotFound.
func (s *Store) VertexPosition(id int) int {
	return s.vertices.pos.Get(id)
}

// VertexTransactionCount returns the number of transactions incident to a vertex.
// A loop is counted once.
func (s *Store) VertexTransactionCount(v int) int {
	return len(s.adjacency.Get(v))
}

// VertexTransaction returns the incident transaction at a position of a vertex.
func (s *Store) VertexTransaction(v, position int) int {
	adj := s.adjacency.Get(v)
	if position < 0 || position >= len(adj) {
		return agstore.NotFound
	}
	return adj[position]
}

// VertexNeighbours returns the distinct vertices sharing a transaction with v, in
// order of first appearance.
func (s *Store) VertexNeighbours(v int) []int {
	adj := s.adjacency.Get(v)
	seen := make(map[int]struct{}, len(adj))
	var out []int
	for _, tx := range adj {
		n := s.src.Get(tx)
		if n == v {
			n = s.dst.Get(tx)
		}
		if _, dup := seen[n]; !dup {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// VertexNeighbourCount returns the number of distinct neighbours of v.
func (s *Store) VertexNeighbourCount(v int) int {
	return len(s.VertexNeighbours(v))
}

// VertexNeighbour returns the neighbour at a position or agstore.NotFound.
func (s *Store) VertexNeighbour(v, position int) int {
	ns := s.VertexNeighbours(v)
	if position < 0 || position >= len(ns) {
		return agstore.NotFound
	}
	return ns[position]
}

// --- transactions ---

// AddTransaction creates a transaction between two live vertices.
func (s *Store) AddTransaction(src, dst int, directed bool) (int, error) {
	if err := s.checkEndpoints("add transaction", src, dst); err != nil {
		return agstore.NotFound, err
	}
	id := s.transactions.alloc()
	s.attach(id, src, dst, directed)
	return id, nil
}

// RestoreTransaction re-creates a transaction with a specific id.
func (s *Store) RestoreTransaction(id, src, dst int, directed bool) error {
	if err := s.checkEndpoints("restore transaction", src, dst); err != nil {
		return err
	}
	if !s.transactions.claim(id) {
		return &agstore.InvalidReferenceError{Type: agstore.Transaction, ID: id, Op: "restore transaction"}
	}
	s.attach(id, src, dst, directed)
	return nil
}

func (s *Store) checkEndpoints(op string, src, dst int) error {
	if !s.vertices.exists(src) {
		return &agstore.InvalidReferenceError{Type: agstore.Vertex, ID: src, Op: op}
	}
	if !s.vertices.exists(dst) {
		return &agstore.InvalidReferenceError{Type: agstore.Vertex, ID: dst, Op: op}
	}
	return nil
}

func (s *Store) attach(id, src, dst int, directed bool) {
	s.spaces[agstore.Transaction].Ensure(id + 1)
	s.src.Set(id, src)
	s.dst.Set(id, dst)
	s.directed.Set(id, directed)
	s.appendAdjacency(src, id)
	if dst != src {
		s.appendAdjacency(dst, id)
	}
}

// RemoveTransaction removes a transaction and detaches it from its endpoints.
func (s *Store) RemoveTransaction(id int) error {
	if !s.transactions.exists(id) {
		return &agstore.InvalidReferenceError{Type: agstore.Transaction, ID: id, Op: "remove transaction"}
	}
	s.removeTransaction(id)
	return nil
}

func (s *Store) removeTransaction(id int) {
	src, dst := s.src.Get(id), s.dst.Get(id)
	s.dropAdjacency(src, id)
	if dst != src {
		s.dropAdjacency(dst, id)
	}
	s.src.Clear(id)
	s.dst.Clear(id)
	s.directed.Clear(id)
	s.transactions.retire(id)
}

func (s *Store) TransactionCount() int             { return len(s.transactions.live) }
func (s *Store) TransactionCapacity() int          { return s.spaces[agstore.Transaction].Capacity() }
func (s *Store) TransactionExists(id int) bool     { return s.transactions.exists(id) }
func (s *Store) TransactionSource(id int) int      { return s.src.Get(id) }
func (s *Store) TransactionDestination(id int) int { return s.dst.Get(id) }
func (s *Store) TransactionDirected(id int) bool   { return s.directed.Get(id) }

// Transaction returns the id of the transaction at a position.
func (s *Store) Transaction(position int) int {
	if position < 0 || position >= len(s.transactions.live) {
		return agstore.NotFound
	}
	return s.transactions.live[position]
}

// TransactionPosition returns the position of a transaction or agstore.NotFound.
func (s *Store) TransactionPosition(id int) int {
	return s.transactions.pos.Get(id)
}

// --- adjacency ---

// writableAdjacency returns the adjacency list of v, copied once per epoch.
func (s *Store) writableAdjacency(v int) []int {
	adj := s.adjacency.Get(v)
	if _, owned := s.ownedAdj[v]; owned {
		return adj
	}
	s.ownedAdj[v] = struct{}{}
	return append(make([]int, 0, len(adj)+1), adj...)
}

func (s *Store) appendAdjacency(v, tx int) {
	s.adjacency.Set(v, append(s.writableAdjacency(v), tx))
}

func (s *Store) dropAdjacency(v, tx int) {
	adj := s.writableAdjacency(v)
	for i, t := range adj {
		if t == tx {
			adj = append(adj[:i], adj[i+1:]...)
			break
		}
	}
	s.adjacency.Set(v, adj)
}

// Chunks returns the number of allocated chunks in the topology columns.
func (s *Store) Chunks() int {
	return s.vertices.pos.Chunks() + s.transactions.pos.Chunks() + s.adjacency.Chunks() +
		s.src.Chunks() + s.dst.Chunks() + s.directed.Chunks()
}

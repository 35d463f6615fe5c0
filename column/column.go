package column

// DefaultChunkSize is the number of values held by one chunk.
const DefaultChunkSize = 256

type chunk[T any] struct {
	owner uint64
	set   []uint64
	vals  []T
	count int
}

func newChunk[T any](size int, owner uint64) *chunk[T] {
	return &chunk[T]{
		owner: owner,
		set:   make([]uint64, (size+63)/64),
		vals:  make([]T, size),
	}
}

func (ch *chunk[T]) clone(owner uint64) *chunk[T] {
	dup := &chunk[T]{
		owner: owner,
		set:   make([]uint64, len(ch.set)),
		vals:  make([]T, len(ch.vals)),
		count: ch.count,
	}
	copy(dup.set, ch.set)
	copy(dup.vals, ch.vals)
	return dup
}

func (ch *chunk[T]) isSet(i int) bool {
	return ch.set[i>>6]&(1<<(uint(i)&63)) != 0
}

// Column is a sparse, chunked array of values indexed by element id.
type Column[T any] struct {
	chunkSize int
	def       T
	chunks    []*chunk[T]
	capacity  int
	epoch     uint64
}

// New returns an empty column whose unset slots read as def.
func New[T any](chunkSize int, def T) *Column[T] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Column[T]{chunkSize: chunkSize, def: def}
}

// Len returns the number of addressable ids.
func (c *Column[T]) Len() int {
	return c.capacity
}

// Epoch returns the write epoch that owns this column.
func (c *Column[T]) Epoch() uint64 {
	return c.epoch
}

// SetCapacity grows the chunk index so ids below n are addressable.  Chunks are not
// allocated and capacity never shrinks.
func (c *Column[T]) SetCapacity(n int) {
	if n <= c.capacity {
		return
	}
	c.capacity = n
	numChunks := (n + c.chunkSize - 1) / c.chunkSize
	if numChunks > len(c.chunks) {
		chunks := make([]*chunk[T], numChunks)
		copy(chunks, c.chunks)
		c.chunks = chunks
	}
}

// Default returns the value read from unset slots.
func (c *Column[T]) Default() T {
	return c.def
}

// SetDefault changes the value read from unset slots.  Slots that were explicitly
// set keep their values.
func (c *Column[T]) SetDefault(def T) {
	c.def = def
}

// Get returns the value at id or the default if it was never set.
func (c *Column[T]) Get(id int) T {
	if id < 0 || id >= c.capacity {
		return c.def
	}
	ch := c.chunks[id/c.chunkSize]
	i := id % c.chunkSize
	if ch == nil || !ch.isSet(i) {
		return c.def
	}
	return ch.vals[i]
}

// IsSet returns true if a value was explicitly written at id and not cleared.
func (c *Column[T]) IsSet(id int) bool {
	if id < 0 || id >= c.capacity {
		return false
	}
	ch := c.chunks[id/c.chunkSize]
	if ch == nil {
		return false
	}
	return ch.isSet(id % c.chunkSize)
}

// writable returns chunk i owned by this column's epoch, copying or allocating it.
func (c *Column[T]) writable(i int) *chunk[T] {
	ch := c.chunks[i]
	switch {
	case ch == nil:
		ch = newChunk[T](c.chunkSize, c.epoch)
		c.chunks[i] = ch
	case ch.owner != c.epoch:
		ch = ch.clone(c.epoch)
		c.chunks[i] = ch
	}
	return ch
}

// Set writes v at id, growing the column if id is beyond its capacity.
func (c *Column[T]) Set(id int, v T) {
	if id < 0 {
		return
	}
	if id >= c.capacity {
		c.SetCapacity(id + 1)
	}
	ch := c.writable(id / c.chunkSize)
	i := id % c.chunkSize
	if !ch.isSet(i) {
		ch.set[i>>6] |= 1 << (uint(i) & 63)
		ch.count++
	}
	ch.vals[i] = v
}

// Clear restores the unset state at id so it reads the default again.
func (c *Column[T]) Clear(id int) {
	if !c.IsSet(id) {
		return
	}
	ch := c.writable(id / c.chunkSize)
	i := id % c.chunkSize
	ch.set[i>>6] &^= 1 << (uint(i) & 63)
	ch.count--
	var zero T
	ch.vals[i] = zero
}

// Fork returns a column that shares every chunk with c and copies a chunk the first
// time it is written under the new epoch.
func (c *Column[T]) Fork(epoch uint64) *Column[T] {
	chunks := make([]*chunk[T], len(c.chunks))
	copy(chunks, c.chunks)
	return &Column[T]{
		chunkSize: c.chunkSize,
		def:       c.def,
		chunks:    chunks,
		capacity:  c.capacity,
		epoch:     epoch,
	}
}

// Clone returns a fully independent copy of c.
func (c *Column[T]) Clone() *Column[T] {
	dup := &Column[T]{
		chunkSize: c.chunkSize,
		def:       c.def,
		chunks:    make([]*chunk[T], len(c.chunks)),
		capacity:  c.capacity,
		epoch:     c.epoch,
	}
	for i, ch := range c.chunks {
		if ch != nil {
			dup.chunks[i] = ch.clone(c.epoch)
		}
	}
	return dup
}

// Chunks returns the number of allocated chunks.
func (c *Column[T]) Chunks() int {
	var n int
	for _, ch := range c.chunks {
		if ch != nil {
			n++
		}
	}
	return n
}

// ChunkSize returns the number of values per chunk.
func (c *Column[T]) ChunkSize() int {
	return c.chunkSize
}

// ForEachSet calls fn for every explicitly set id in increasing order.
func (c *Column[T]) ForEachSet(fn func(id int, v T)) {
	for i, ch := range c.chunks {
		if ch == nil || ch.count == 0 {
			continue
		}
		base := i * c.chunkSize
		for j := range ch.vals {
			if ch.isSet(j) {
				fn(base+j, ch.vals[j])
			}
		}
	}
}

package column

// DefaultInitialCapacity is the capacity of a new Space if none is configured.
const DefaultInitialCapacity = 64

// Resizer is notified when the capacity of its element type grows.
type Resizer interface {
	SetCapacity(n int)
}

// Space holds the capacity shared by all columns of one element type.
type Space struct {
	capacity  int
	initial   int
	listeners []Resizer
}

// NewSpace returns a Space with the given initial capacity.
func NewSpace(initial int) *Space {
	if initial <= 0 {
		initial = DefaultInitialCapacity
	}
	return &Space{capacity: initial, initial: initial}
}

// Capacity returns the number of element ids every column of this type can hold.
func (s *Space) Capacity() int {
	return s.capacity
}

// Register adds a column to the notification list and sizes it to the current capacity.
func (s *Space) Register(r Resizer) {
	s.listeners = append(s.listeners, r)
	r.SetCapacity(s.capacity)
}

// Unregister removes a column from the notification list.
func (s *Space) Unregister(r Resizer) {
	for i, l := range s.listeners {
		if l == r {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Ensure grows capacity geometrically until it can hold n ids and notifies every
// registered column.  It returns true if capacity changed.
func (s *Space) Ensure(n int) bool {
	if n <= s.capacity {
		return false
	}
	newCap := s.capacity
	if newCap < s.initial {
		newCap = s.initial
	}
	for newCap < n {
		newCap *= 2
	}
	s.capacity = newCap
	for _, l := range s.listeners {
		l.SetCapacity(newCap)
	}
	return true
}

// Fork returns a Space with the same capacity and no listeners.  The caller
// registers the forked columns that belong to it.
func (s *Space) Fork() *Space {
	return &Space{capacity: s.capacity, initial: s.initial}
}

package attribute

import (
	"fmt"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/column"
)

// ID identifies an attribute within a graph.  Ids are never reused.
type ID int

// Attribute describes one registered attribute.
type Attribute struct {
	ID          ID
	ElementType agstore.ElementType
	Name        string
	Tag         string
	Description string
}

func (a Attribute) String() string {
	return fmt.Sprintf("%s attribute %q (%s)", a.ElementType, a.Name, a.Tag)
}

// Set holds the attributes of one graph version and their descriptors.  A forked
// Set shares descriptors with its parent until Writable is called for them.
type Set struct {
	chunkSize int
	epoch     uint64
	attrs     []Attribute
	descs     []Descriptor
	byName    map[agstore.ElementType]map[string]ID
	spaces    map[agstore.ElementType]*column.Space
}

// NewSet returns an empty attribute set whose columns are sized by spaces.
func NewSet(chunkSize int, spaces map[agstore.ElementType]*column.Space) *Set {
	return &Set{
		chunkSize: chunkSize,
		byName:    make(map[agstore.ElementType]map[string]ID),
		spaces:    spaces,
	}
}

// Epoch returns the write epoch this set belongs to.
func (s *Set) Epoch() uint64 {
	return s.epoch
}

// Len returns the number of registered attributes of all element types.
func (s *Set) Len() int {
	return len(s.attrs)
}

// Ensure returns the id of the named attribute, registering it with the given
// type tag and default if it does not exist.  The returned bool is true if the
// attribute was created.
func (s *Set) Ensure(et agstore.ElementType, tag, name, description string, def interface{}) (ID, bool, error) {
	if !et.Stored() {
		return agstore.NotFound, false, fmt.Errorf("cannot add attribute %q: %s elements are derived and carry no attributes", name, et)
	}
	if id, found := s.byName[et][name]; found {
		existing := s.attrs[id]
		if existing.Tag != tag {
			return agstore.NotFound, false, &agstore.AttributeTypeError{
				Type: et, Name: name, Existing: existing.Tag, Wanted: tag,
			}
		}
		return id, false, nil
	}
	d, err := New(tag, s.chunkSize)
	if err != nil {
		return agstore.NotFound, false, err
	}
	d = d.Fork(s.epoch)
	if def != nil {
		if err := d.SetDefault(def); err != nil {
			return agstore.NotFound, false, err
		}
	}
	if space, found := s.spaces[et]; found {
		space.Register(d)
	}
	id := ID(len(s.attrs))
	s.attrs = append(s.attrs, Attribute{ID: id, ElementType: et, Name: name, Tag: tag, Description: description})
	s.descs = append(s.descs, d)
	names, found := s.byName[et]
	if !found {
		names = make(map[string]ID)
		s.byName[et] = names
	}
	names[name] = id
	return id, true, nil
}

// Lookup returns the id of the named attribute or agstore.NotFound.
func (s *Set) Lookup(et agstore.ElementType, name string) ID {
	if id, found := s.byName[et][name]; found {
		return id
	}
	return agstore.NotFound
}

// Attribute returns the description of an attribute.
func (s *Set) Attribute(id ID) (Attribute, error) {
	if id < 0 || int(id) >= len(s.attrs) {
		return Attribute{}, &agstore.UnknownAttributeError{Name: fmt.Sprintf("id %d", id)}
	}
	return s.attrs[id], nil
}

// Attributes returns the attributes of an element type in registration order.
func (s *Set) Attributes(et agstore.ElementType) []Attribute {
	var out []Attribute
	for _, a := range s.attrs {
		if a.ElementType == et {
			out = append(out, a)
		}
	}
	return out
}

// Descriptor returns the descriptor of an attribute for reading, or nil if the id
// is unknown.  It must not be modified; use Writable for that.  A descriptor
// still shared with an earlier version reports the capacity of this set's space.
func (s *Set) Descriptor(id ID) Descriptor {
	if id < 0 || int(id) >= len(s.descs) {
		return nil
	}
	d := s.descs[id]
	if d.Epoch() != s.epoch {
		if space, found := s.spaces[s.attrs[id].ElementType]; found && space.Capacity() > d.Capacity() {
			return sized{Descriptor: d, space: space}
		}
	}
	return d
}

// sized presents a shared descriptor at the capacity of a later version.  Slots
// past the shared column read as the default.
type sized struct {
	Descriptor
	space *column.Space
}

func (d sized) Capacity() int   { return d.space.Capacity() }
func (d sized) SetCapacity(int) {}

// Writable returns a descriptor owned by this set's epoch, forking the shared one
// on first use.
func (s *Set) Writable(id ID) (Descriptor, error) {
	if id < 0 || int(id) >= len(s.descs) {
		return nil, &agstore.UnknownAttributeError{Name: fmt.Sprintf("id %d", id)}
	}
	d := s.descs[id]
	if d.Epoch() == s.epoch {
		return d, nil
	}
	d = d.Fork(s.epoch)
	if space, found := s.spaces[s.attrs[id].ElementType]; found {
		space.Register(d)
	}
	s.descs[id] = d
	return d, nil
}

// Fork returns a Set for a new write session.  Descriptors stay shared until
// Writable is called; spaces are the forked spaces of the new session.
func (s *Set) Fork(epoch uint64, spaces map[agstore.ElementType]*column.Space) *Set {
	dup := &Set{
		chunkSize: s.chunkSize,
		epoch:     epoch,
		attrs:     make([]Attribute, len(s.attrs), len(s.attrs)+4),
		descs:     make([]Descriptor, len(s.descs), len(s.descs)+4),
		byName:    make(map[agstore.ElementType]map[string]ID, len(s.byName)),
		spaces:    spaces,
	}
	copy(dup.attrs, s.attrs)
	copy(dup.descs, s.descs)
	for et, names := range s.byName {
		m := make(map[string]ID, len(names))
		for name, id := range names {
			m[name] = id
		}
		dup.byName[et] = m
	}
	return dup
}

// Copy returns a fully independent Set, e.g., for a duplicated graph.
func (s *Set) Copy(spaces map[agstore.ElementType]*column.Space) *Set {
	dup := s.Fork(s.epoch, spaces)
	for i, d := range dup.descs {
		d = d.Copy()
		if space, found := spaces[dup.attrs[i].ElementType]; found {
			space.Register(d)
		}
		dup.descs[i] = d
	}
	return dup
}

// ClearElement clears every attribute value of an element.
func (s *Set) ClearElement(et agstore.ElementType, id int) {
	for i, a := range s.attrs {
		if a.ElementType != et || s.descs[i].IsClear(id) {
			continue
		}
		d, _ := s.Writable(ID(i))
		d.Clear(id)
	}
}

// SaveElement encodes every attribute value of an element, in attribute order.
func (s *Set) SaveElement(et agstore.ElementType, id int) []byte {
	w := NewValueWriter()
	for i, a := range s.attrs {
		if a.ElementType == et {
			s.descs[i].Save(id, w)
		}
	}
	return w.Bytes()
}

// RestoreElement restores values written by SaveElement.  Attributes added after
// the save are cleared.
func (s *Set) RestoreElement(et agstore.ElementType, id int, b []byte) error {
	r := NewValueReader(b)
	for i, a := range s.attrs {
		if a.ElementType != et {
			continue
		}
		if r.Remaining() == 0 {
			if !s.descs[i].IsClear(id) {
				d, _ := s.Writable(ID(i))
				d.Clear(id)
			}
			continue
		}
		d, err := s.Writable(ID(i))
		if err != nil {
			return err
		}
		if err := d.Restore(id, r); err != nil {
			return fmt.Errorf("restoring %s %d: %w", et, id, err)
		}
	}
	return nil
}

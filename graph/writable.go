package graph

import (
	"time"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/janelia-flyem/agstore/undo"
)

// WritableGraph is the single writable handle of a graph.  Its changes are
// invisible to readers until Commit.  It must be finished exactly once with Commit
// or RollBack.
type WritableGraph struct {
	*reader

	description string
	significant bool
	tag         agstore.EditTag
	rec         *undo.Recorder
	onCommit    func()
}

// Description returns the description the handle was acquired with.
func (w *WritableGraph) Description() string { return w.description }

// Log returns the logging scope of the graph being written.
func (w *WritableGraph) Log() agstore.Scope { return w.g.scope }

// active returns an error if the handle can no longer be used for changes.
func (w *WritableGraph) active(op string) error {
	if w.done.Load() {
		return &agstore.IllegalStateError{Op: op, Reason: "writable graph already committed or rolled back"}
	}
	return nil
}

// finish ends the session if the handle is the active writer.
func (w *WritableGraph) finish(op string) error {
	if w == nil || w.reader == nil || w.g == nil {
		return &agstore.IllegalStateError{Op: op, Reason: "handle was not issued by a graph"}
	}
	if w.done.Load() {
		return &agstore.IllegalStateError{Op: op, Reason: "writable graph already committed or rolled back"}
	}
	if w.g.writer.Load() != w {
		return &agstore.IllegalStateError{Op: op, Reason: "handle is not the active writer"}
	}
	if !w.done.CompareAndSwap(false, true) {
		return &agstore.IllegalStateError{Op: op, Reason: "writable graph already committed or rolled back"}
	}
	return nil
}

// Commit publishes the session's changes as a new version, advancing the global
// modification counter by one.
func (w *WritableGraph) Commit() error {
	if err := w.finish("commit"); err != nil {
		return err
	}
	g := w.g
	defer g.endWrite()

	released := w.v.topo.Release()
	number := g.counter.Add(1)
	w.v.number = number
	g.current.Store(w.v)

	if w.tag == agstore.Fresh && w.rec.Len() > 0 {
		if w.significant {
			g.log.Push(w.rec.Edit(w.description))
		} else if !g.log.Amend(w.rec.Ops()) {
			g.scope.Debugf("no edit to extend with %q\n", w.description)
		}
	}
	if w.onCommit != nil {
		w.onCommit()
	}
	g.metrics.commits.Inc()
	g.metrics.version.Set(float64(number))
	g.scope.Debugf("committed %q as version %d (%d operations, %d ids released)\n",
		w.description, number, w.rec.Len(), released)

	g.notify(agstore.CommitEvent{
		GraphID:     g.id,
		Version:     number,
		Description: w.description,
		Significant: w.significant,
		Tag:         w.tag,
		TagName:     w.tag.String(),
		Time:        time.Now(),
	})
	return nil
}

// RollBack discards every change made in the session.  The counter is unchanged
// and nothing is added to the undo history.
func (w *WritableGraph) RollBack() error {
	if err := w.finish("rollback"); err != nil {
		return err
	}
	w.g.metrics.rollbacks.Inc()
	w.g.scope.Debugf("rolled back %q (%d operations)\n", w.description, w.rec.Len())
	w.g.endWrite()
	return nil
}

// --- topology ---

// AddVertex creates a vertex and returns its id.
func (w *WritableGraph) AddVertex() (int, error) {
	if err := w.active("add vertex"); err != nil {
		return agstore.NotFound, err
	}
	id := w.v.topo.AddVertex()
	w.rec.Add(undo.AddVertex{ID: id})
	return id, nil
}

// RestoreVertex re-creates a removed vertex with its old id.
func (w *WritableGraph) RestoreVertex(id int) error {
	if err := w.active("restore vertex"); err != nil {
		return err
	}
	if err := w.v.topo.RestoreVertex(id); err != nil {
		return err
	}
	w.rec.Add(undo.AddVertex{ID: id})
	return nil
}

// RemoveVertex removes a vertex and its incident transactions.
func (w *WritableGraph) RemoveVertex(id int) error {
	if err := w.active("remove vertex"); err != nil {
		return err
	}
	topo := w.v.topo
	if !topo.VertexExists(id) {
		return &agstore.InvalidReferenceError{Type: agstore.Vertex, ID: id, Op: "remove vertex"}
	}
	for topo.VertexTransactionCount(id) > 0 {
		if err := w.RemoveTransaction(topo.VertexTransaction(id, 0)); err != nil {
			return err
		}
	}
	values := w.v.attrs.SaveElement(agstore.Vertex, id)
	w.v.attrs.ClearElement(agstore.Vertex, id)
	if _, err := topo.RemoveVertex(id); err != nil {
		return err
	}
	w.rec.Add(undo.RemoveVertex{ID: id, Values: values})
	return nil
}

// AddTransaction creates a transaction between two live vertices.
func (w *WritableGraph) AddTransaction(src, dst int, directed bool) (int, error) {
	if err := w.active("add transaction"); err != nil {
		return agstore.NotFound, err
	}
	id, err := w.v.topo.AddTransaction(src, dst, directed)
	if err != nil {
		return agstore.NotFound, err
	}
	w.rec.Add(undo.AddTransaction{ID: id, Source: src, Dest: dst, Directed: directed})
	return id, nil
}

// RestoreTransaction re-creates a removed transaction with its old id.
func (w *WritableGraph) RestoreTransaction(id, src, dst int, directed bool) error {
	if err := w.active("restore transaction"); err != nil {
		return err
	}
	if err := w.v.topo.RestoreTransaction(id, src, dst, directed); err != nil {
		return err
	}
	w.rec.Add(undo.AddTransaction{ID: id, Source: src, Dest: dst, Directed: directed})
	return nil
}

// RemoveTransaction removes a transaction.
func (w *WritableGraph) RemoveTransaction(id int) error {
	if err := w.active("remove transaction"); err != nil {
		return err
	}
	topo := w.v.topo
	if !topo.TransactionExists(id) {
		return &agstore.InvalidReferenceError{Type: agstore.Transaction, ID: id, Op: "remove transaction"}
	}
	op := undo.RemoveTransaction{
		ID:       id,
		Source:   topo.TransactionSource(id),
		Dest:     topo.TransactionDestination(id),
		Directed: topo.TransactionDirected(id),
		Values:   w.v.attrs.SaveElement(agstore.Transaction, id),
	}
	w.v.attrs.ClearElement(agstore.Transaction, id)
	if err := topo.RemoveTransaction(id); err != nil {
		return err
	}
	w.rec.Add(op)
	return nil
}

// --- attributes ---

// EnsureAttribute returns the id of the named attribute of an element type,
// registering it with the given type tag and default value if it does not exist.
// Registering an existing name with a different tag fails with an
// *agstore.AttributeTypeError.
func (w *WritableGraph) EnsureAttribute(et agstore.ElementType, tag, name, description string, def interface{}) (attribute.ID, error) {
	if err := w.active("ensure attribute"); err != nil {
		return agstore.NotFound, err
	}
	id, created, err := w.v.attrs.Ensure(et, tag, name, description, def)
	if err != nil {
		return agstore.NotFound, err
	}
	if created {
		w.g.scope.Debugf("added %s %s attribute %q\n", tag, et, name)
	}
	return id, nil
}

// SetDefault changes the value read from elements whose value is clear.
func (w *WritableGraph) SetDefault(attr attribute.ID, v interface{}) error {
	if err := w.active("set default"); err != nil {
		return err
	}
	d, err := w.v.attrs.Writable(attr)
	if err != nil {
		return err
	}
	old := d.Default()
	if err := d.SetDefault(v); err != nil {
		return err
	}
	w.rec.SetDefault(attr, old, d.Default())
	return nil
}

// update applies set to a live element's value of an attribute and records the
// change.  Nothing changes if set fails.
func (w *WritableGraph) update(op string, attr attribute.ID, id int, set func(d attribute.Descriptor) error) error {
	if err := w.active(op); err != nil {
		return err
	}
	info, err := w.v.attrs.Attribute(attr)
	if err != nil {
		return err
	}
	if !w.v.live(info.ElementType, id) {
		return &agstore.InvalidReferenceError{Type: info.ElementType, ID: id, Op: op}
	}
	d, err := w.v.attrs.Writable(attr)
	if err != nil {
		return err
	}
	old := attribute.SaveValue(d, id)
	if err := set(d); err != nil {
		return err
	}
	w.rec.SetValue(attr, id, old, attribute.SaveValue(d, id))
	return nil
}

func (w *WritableGraph) SetBool(attr attribute.ID, id int, v bool) error {
	return w.update("set bool", attr, id, func(d attribute.Descriptor) error { return d.SetBool(id, v) })
}

func (w *WritableGraph) SetByte(attr attribute.ID, id int, v int8) error {
	return w.update("set byte", attr, id, func(d attribute.Descriptor) error { return d.SetByte(id, v) })
}

func (w *WritableGraph) SetShort(attr attribute.ID, id int, v int16) error {
	return w.update("set short", attr, id, func(d attribute.Descriptor) error { return d.SetShort(id, v) })
}

func (w *WritableGraph) SetInt(attr attribute.ID, id int, v int32) error {
	return w.update("set int", attr, id, func(d attribute.Descriptor) error { return d.SetInt(id, v) })
}

func (w *WritableGraph) SetLong(attr attribute.ID, id int, v int64) error {
	return w.update("set long", attr, id, func(d attribute.Descriptor) error { return d.SetLong(id, v) })
}

func (w *WritableGraph) SetFloat(attr attribute.ID, id int, v float32) error {
	return w.update("set float", attr, id, func(d attribute.Descriptor) error { return d.SetFloat(id, v) })
}

func (w *WritableGraph) SetDouble(attr attribute.ID, id int, v float64) error {
	return w.update("set double", attr, id, func(d attribute.Descriptor) error { return d.SetDouble(id, v) })
}

func (w *WritableGraph) SetChar(attr attribute.ID, id int, v rune) error {
	return w.update("set char", attr, id, func(d attribute.Descriptor) error { return d.SetChar(id, v) })
}

// SetString converts s to the attribute's type.  A blank string clears values of
// non-string attributes.
func (w *WritableGraph) SetString(attr attribute.ID, id int, s string) error {
	return w.update("set string", attr, id, func(d attribute.Descriptor) error { return d.SetString(id, s) })
}

// SetObject stores v, converting it if it is not the attribute's native type.  A
// nil v clears the value.
func (w *WritableGraph) SetObject(attr attribute.ID, id int, v interface{}) error {
	return w.update("set object", attr, id, func(d attribute.Descriptor) error { return d.SetObject(id, v) })
}

// Clear restores the "no value" state of an element's attribute value.
func (w *WritableGraph) Clear(attr attribute.ID, id int) error {
	return w.update("clear", attr, id, func(d attribute.Descriptor) error {
		d.Clear(id)
		return nil
	})
}

// CopyValue copies the value of one element to another of the same type.
func (w *WritableGraph) CopyValue(attr attribute.ID, src, dst int) error {
	if err := w.active("copy value"); err != nil {
		return err
	}
	info, err := w.v.attrs.Attribute(attr)
	if err != nil {
		return err
	}
	if !w.v.live(info.ElementType, src) {
		return &agstore.InvalidReferenceError{Type: info.ElementType, ID: src, Op: "copy value"}
	}
	return w.update("copy value", attr, dst, func(d attribute.Descriptor) error {
		d.CopyValue(src, dst)
		return nil
	})
}

// RestoreValue restores one value from an attribute.SaveValue encoding.
func (w *WritableGraph) RestoreValue(attr attribute.ID, id int, value []byte) error {
	return w.update("restore value", attr, id, func(d attribute.Descriptor) error {
		return attribute.RestoreValue(d, id, value)
	})
}

// RestoreElement restores every attribute value of a live element.
func (w *WritableGraph) RestoreElement(et agstore.ElementType, id int, values []byte) error {
	if err := w.active("restore element"); err != nil {
		return err
	}
	if !w.v.live(et, id) {
		return &agstore.InvalidReferenceError{Type: et, ID: id, Op: "restore element"}
	}
	return w.v.attrs.RestoreElement(et, id, values)
}

package undo

import (
	"fmt"

	"github.com/janelia-flyem/agstore/attribute"
)

// Edit is the compound record of one committed write session.
type Edit struct {
	Name string
	Ops  []Op
}

// Undo applies the inverse of every operation in reverse order.
func (e *Edit) Undo(t Target) error {
	for i := len(e.Ops) - 1; i >= 0; i-- {
		if err := e.Ops[i].Undo(t); err != nil {
			return fmt.Errorf("undoing %q at %s: %w", e.Name, e.Ops[i], err)
		}
	}
	return nil
}

// Redo applies every operation again in order.
func (e *Edit) Redo(t Target) error {
	for _, op := range e.Ops {
		if err := op.Redo(t); err != nil {
			return fmt.Errorf("redoing %q at %s: %w", e.Name, op, err)
		}
	}
	return nil
}

type valueKey struct {
	attr attribute.ID
	id   int
}

// Recorder collects the operations of a write session.  Repeated changes of the
// same value collapse into one operation until the next topology operation.
type Recorder struct {
	ops      []Op
	barrier  int
	values   map[valueKey]int
	defaults map[attribute.ID]int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		values:   make(map[valueKey]int),
		defaults: make(map[attribute.ID]int),
	}
}

// Add appends a topology operation.
func (r *Recorder) Add(op Op) {
	r.ops = append(r.ops, op)
	r.barrier = len(r.ops)
}

// SetValue records a value change as the encodings before and after it.
func (r *Recorder) SetValue(attr attribute.ID, id int, old, new []byte) {
	key := valueKey{attr, id}
	if i, found := r.values[key]; found && i >= r.barrier {
		r.ops[i].(*SetValue).New = new
		return
	}
	r.values[key] = len(r.ops)
	r.ops = append(r.ops, &SetValue{Attr: attr, ID: id, Old: old, New: new})
}

// SetDefault records a change of an attribute's default value.
func (r *Recorder) SetDefault(attr attribute.ID, old, new interface{}) {
	if i, found := r.defaults[attr]; found && i >= r.barrier {
		r.ops[i].(*SetDefault).New = new
		return
	}
	r.defaults[attr] = len(r.ops)
	r.ops = append(r.ops, &SetDefault{Attr: attr, Old: old, New: new})
}

// Ops returns the recorded operations.
func (r *Recorder) Ops() []Op {
	return r.ops
}

// Len returns the number of recorded operations.
func (r *Recorder) Len() int {
	return len(r.ops)
}

// Edit returns the recorded operations as a named edit.
func (r *Recorder) Edit(name string) *Edit {
	return &Edit{Name: name, Ops: r.ops}
}

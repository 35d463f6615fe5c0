package undo

import (
	"fmt"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
)

// Target is what operations are applied to when an edit is undone or redone.
type Target interface {
	RestoreVertex(id int) error
	RemoveVertex(id int) error
	RestoreTransaction(id, src, dst int, directed bool) error
	RemoveTransaction(id int) error

	// RestoreElement restores every attribute value of an element from an
	// attribute.Set SaveElement encoding.
	RestoreElement(et agstore.ElementType, id int, values []byte) error

	// RestoreValue restores one attribute value from an attribute.SaveValue encoding.
	RestoreValue(attr attribute.ID, id int, value []byte) error

	SetDefault(attr attribute.ID, v interface{}) error
}

// Op is one reversible primitive operation.
type Op interface {
	Undo(t Target) error
	Redo(t Target) error
	String() string
}

// AddVertex records the creation of a vertex.
type AddVertex struct {
	ID int
}

func (op AddVertex) Undo(t Target) error { return t.RemoveVertex(op.ID) }
func (op AddVertex) Redo(t Target) error { return t.RestoreVertex(op.ID) }
func (op AddVertex) String() string      { return fmt.Sprintf("add vertex %d", op.ID) }

// RemoveVertex records the removal of a vertex with the values it had.  Incident
// transactions are recorded separately, before it.
type RemoveVertex struct {
	ID     int
	Values []byte
}

func (op RemoveVertex) Undo(t Target) error {
	if err := t.RestoreVertex(op.ID); err != nil {
		return err
	}
	return t.RestoreElement(agstore.Vertex, op.ID, op.Values)
}

func (op RemoveVertex) Redo(t Target) error { return t.RemoveVertex(op.ID) }
func (op RemoveVertex) String() string      { return fmt.Sprintf("remove vertex %d", op.ID) }

// AddTransaction records the creation of a transaction.
type AddTransaction struct {
	ID       int
	Source   int
	Dest     int
	Directed bool
}

func (op AddTransaction) Undo(t Target) error { return t.RemoveTransaction(op.ID) }

func (op AddTransaction) Redo(t Target) error {
	return t.RestoreTransaction(op.ID, op.Source, op.Dest, op.Directed)
}

func (op AddTransaction) String() string {
	return fmt.Sprintf("add transaction %d (%d -> %d)", op.ID, op.Source, op.Dest)
}

// RemoveTransaction records the removal of a transaction with its endpoints and values.
type RemoveTransaction struct {
	ID       int
	Source   int
	Dest     int
	Directed bool
	Values   []byte
}

func (op RemoveTransaction) Undo(t Target) error {
	if err := t.RestoreTransaction(op.ID, op.Source, op.Dest, op.Directed); err != nil {
		return err
	}
	return t.RestoreElement(agstore.Transaction, op.ID, op.Values)
}

func (op RemoveTransaction) Redo(t Target) error { return t.RemoveTransaction(op.ID) }

func (op RemoveTransaction) String() string {
	return fmt.Sprintf("remove transaction %d (%d -> %d)", op.ID, op.Source, op.Dest)
}

// SetValue records a change of one attribute value as encoded before and after values.
type SetValue struct {
	Attr     attribute.ID
	ID       int
	Old, New []byte
}

func (op *SetValue) Undo(t Target) error { return t.RestoreValue(op.Attr, op.ID, op.Old) }
func (op *SetValue) Redo(t Target) error { return t.RestoreValue(op.Attr, op.ID, op.New) }
func (op *SetValue) String() string      { return fmt.Sprintf("set attribute %d of %d", op.Attr, op.ID) }

// SetDefault records a change of an attribute's default value.
type SetDefault struct {
	Attr     attribute.ID
	Old, New interface{}
}

func (op *SetDefault) Undo(t Target) error { return t.SetDefault(op.Attr, op.Old) }
func (op *SetDefault) Redo(t Target) error { return t.SetDefault(op.Attr, op.New) }
func (op *SetDefault) String() string      { return fmt.Sprintf("set default of attribute %d", op.Attr) }

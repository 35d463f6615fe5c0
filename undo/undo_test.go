package undo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTarget struct {
	calls []string
	fail  string
}

func (r *recordingTarget) call(s string) error {
	r.calls = append(r.calls, s)
	if s == r.fail {
		return errors.New("boom")
	}
	return nil
}

func (r *recordingTarget) RestoreVertex(id int) error {
	return r.call(fmt.Sprintf("restore vertex %d", id))
}

func (r *recordingTarget) RemoveVertex(id int) error {
	return r.call(fmt.Sprintf("remove vertex %d", id))
}

func (r *recordingTarget) RestoreTransaction(id, src, dst int, directed bool) error {
	return r.call(fmt.Sprintf("restore transaction %d %d-%d %t", id, src, dst, directed))
}

func (r *recordingTarget) RemoveTransaction(id int) error {
	return r.call(fmt.Sprintf("remove transaction %d", id))
}

func (r *recordingTarget) RestoreElement(et agstore.ElementType, id int, values []byte) error {
	return r.call(fmt.Sprintf("restore %s %d %s", et, id, values))
}

func (r *recordingTarget) RestoreValue(attr attribute.ID, id int, value []byte) error {
	return r.call(fmt.Sprintf("value %d %d %s", attr, id, value))
}

func (r *recordingTarget) SetDefault(attr attribute.ID, v interface{}) error {
	return r.call(fmt.Sprintf("default %d %v", attr, v))
}

func TestEditUndoRedoOrder(t *testing.T) {
	rec := NewRecorder()
	rec.Add(AddVertex{ID: 0})
	rec.SetValue(1, 0, []byte("a"), []byte("b"))
	rec.SetValue(1, 0, []byte("b"), []byte("c"))
	rec.Add(RemoveTransaction{ID: 4, Source: 0, Dest: 2, Directed: true, Values: []byte("v")})
	rec.SetValue(1, 0, []byte("c"), []byte("d"))
	rec.SetDefault(2, 1, 2)
	rec.SetDefault(2, 2, 3)
	require.Equal(t, 5, rec.Len(), "value changes collapse until a topology operation")

	e := rec.Edit("build")
	target := &recordingTarget{}
	require.NoError(t, e.Undo(target))
	assert.Equal(t, []string{
		"default 2 1",
		"value 1 0 c",
		"restore transaction 4 0-2 true",
		"restore transaction 4 v",
		"value 1 0 a",
		"remove vertex 0",
	}, target.calls)

	target = &recordingTarget{}
	require.NoError(t, e.Redo(target))
	assert.Equal(t, []string{
		"restore vertex 0",
		"value 1 0 c",
		"remove transaction 4",
		"value 1 0 d",
		"default 2 3",
	}, target.calls)
}

func TestEditErrorNamesOperation(t *testing.T) {
	e := &Edit{Name: "prune", Ops: []Op{RemoveVertex{ID: 3, Values: []byte("x")}}}
	err := e.Undo(&recordingTarget{fail: "restore vertex 3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prune")
	assert.Contains(t, err.Error(), "remove vertex 3")
}

func TestLog(t *testing.T) {
	l := NewLog(2)
	assert.False(t, l.CanUndo())
	assert.Nil(t, l.PeekUndo())

	l.Push(&Edit{Name: "one"})
	l.Push(&Edit{Name: "two"})
	l.Push(&Edit{Name: "three"})
	u, r := l.Len()
	assert.Equal(t, 2, u, "oldest edit dropped at the limit")
	assert.Equal(t, 0, r)
	assert.Equal(t, "three", l.UndoName())

	top := l.PeekUndo()
	assert.False(t, l.Undone(&Edit{Name: "three"}), "only the top edit moves")
	require.True(t, l.Undone(top))
	assert.Equal(t, "two", l.UndoName())
	assert.Equal(t, "three", l.RedoName())
	assert.True(t, l.CanRedo())

	require.True(t, l.Redone(l.PeekRedo()))
	assert.Equal(t, "three", l.UndoName())
	assert.Equal(t, "", l.RedoName())
	assert.False(t, l.Redone(top))

	l.Undone(l.PeekUndo())
	l.Push(&Edit{Name: "four"})
	assert.False(t, l.CanRedo(), "fresh edit clears redo")

	l.Clear()
	u, r = l.Len()
	assert.Equal(t, 0, u+r)
}

func TestLogAmend(t *testing.T) {
	l := NewLog(4)
	assert.False(t, l.Amend([]Op{AddVertex{ID: 0}}), "nothing to extend")

	first := []Op{AddVertex{ID: 0}}
	l.Push(&Edit{Name: "add", Ops: first})
	l.Push(&Edit{Name: "add more", Ops: []Op{AddVertex{ID: 1}}})
	l.Undone(l.PeekUndo())
	require.True(t, l.CanRedo())

	assert.False(t, l.Amend(nil))
	assert.True(t, l.CanRedo(), "an empty session changes nothing")

	require.True(t, l.Amend([]Op{RemoveVertex{ID: 0}, AddVertex{ID: 0}}))
	assert.False(t, l.CanRedo(), "amending discards redo")
	u, _ := l.Len()
	assert.Equal(t, 1, u)

	e := l.PeekUndo()
	assert.Equal(t, "add", e.Name)
	require.Len(t, e.Ops, 3)
	assert.Equal(t, "add vertex 0", e.Ops[0].String())
	assert.Equal(t, "remove vertex 0", e.Ops[1].String())
	assert.Len(t, first, 1, "the pushed operations are not modified")
}

package undo

import (
	"sync"
)

// DefaultLimit is the number of edits kept on the undo stack if none is configured.
const DefaultLimit = 100

// Log holds the undo and redo stacks of a graph.
type Log struct {
	mu    sync.Mutex
	limit int
	undo  []*Edit
	redo  []*Edit
}

// NewLog returns an empty log keeping at most limit undoable edits.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{limit: limit}
}

// Push records a fresh edit, discarding the redo stack and the oldest edit if the
// log is full.
func (l *Log) Push(e *Edit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.undo = append(l.undo, e)
	if over := len(l.undo) - l.limit; over > 0 {
		l.undo = append(l.undo[:0:0], l.undo[over:]...)
	}
	l.redo = nil
}

// Amend appends the operations of an insignificant session to the most recent
// edit, which is then undone and redone as one step.  The redo stack is
// discarded.  Amend returns false, recording nothing, if there is no edit to
// extend.
func (l *Log) Amend(ops []Op) bool {
	if len(ops) == 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.redo = nil
	n := len(l.undo)
	if n == 0 {
		return false
	}
	top := l.undo[n-1]
	l.undo[n-1] = &Edit{Name: top.Name, Ops: append(top.Ops[:len(top.Ops):len(top.Ops)], ops...)}
	return true
}

// PeekUndo returns the edit Undo would apply or nil.
func (l *Log) PeekUndo() *Edit {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.undo); n > 0 {
		return l.undo[n-1]
	}
	return nil
}

// PeekRedo returns the edit Redo would apply or nil.
func (l *Log) PeekRedo() *Edit {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.redo); n > 0 {
		return l.redo[n-1]
	}
	return nil
}

// Undone moves e from the top of the undo stack to the redo stack.  It returns
// false if e is no longer on top.
func (l *Log) Undone(e *Edit) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.undo)
	if n == 0 || l.undo[n-1] != e {
		return false
	}
	l.undo = l.undo[:n-1]
	l.redo = append(l.redo, e)
	return true
}

// Redone moves e from the top of the redo stack back to the undo stack.
func (l *Log) Redone(e *Edit) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.redo)
	if n == 0 || l.redo[n-1] != e {
		return false
	}
	l.redo = l.redo[:n-1]
	l.undo = append(l.undo, e)
	return true
}

// Clear empties both stacks.
func (l *Log) Clear() {
	l.mu.Lock()
	l.undo, l.redo = nil, nil
	l.mu.Unlock()
}

func (l *Log) CanUndo() bool { return l.PeekUndo() != nil }
func (l *Log) CanRedo() bool { return l.PeekRedo() != nil }

// UndoName returns the name of the edit Undo would apply, or "".
func (l *Log) UndoName() string {
	if e := l.PeekUndo(); e != nil {
		return e.Name
	}
	return ""
}

// RedoName returns the name of the edit Redo would apply, or "".
func (l *Log) RedoName() string {
	if e := l.PeekRedo(); e != nil {
		return e.Name
	}
	return ""
}

// Len returns the sizes of the undo and redo stacks.
func (l *Log) Len() (undo, redo int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.undo), len(l.redo)
}

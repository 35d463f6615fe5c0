package agstore

import "time"

// EditTag labels a committed write session so reporting layers can tell a fresh
// user edit from one replayed by undo or redo.
type EditTag uint8

const (
	Fresh EditTag = iota
	Undone
	Redone
)

func (t EditTag) String() string {
	switch t {
	case Fresh:
		return "fresh"
	case Undone:
		return "undone"
	case Redone:
		return "redone"
	default:
		return "unknown"
	}
}

// CommitEvent describes one successful commit.
type CommitEvent struct {
	GraphID     string    `json:"graph"`
	Version     uint64    `json:"version"`
	Description string    `json:"description"`
	Significant bool      `json:"significant"`
	Tag         EditTag   `json:"-"`
	TagName     string    `json:"tag"`
	Time        time.Time `json:"time"`
}

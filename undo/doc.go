/*
	Package undo records each significant write session as a compound Edit of
	reversible primitive operations and keeps bounded undo and redo stacks of them.

	Operations are applied to a Target, usually a writable graph handle, so undoing
	and redoing always happen inside an ordinary write session.
*/
package undo

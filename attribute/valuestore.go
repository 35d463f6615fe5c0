package attribute

import (
	"github.com/tinylib/msgp/msgp"
)

// ValueWriter accumulates values saved by descriptors as msgpack.  The encoding is
// opaque to callers; only the descriptor that wrote a value can read it back.
type ValueWriter struct {
	buf []byte
}

// NewValueWriter returns an empty writer.
func NewValueWriter() *ValueWriter {
	return &ValueWriter{}
}

func (w *ValueWriter) appendSet(set bool) {
	w.buf = msgp.AppendBool(w.buf, set)
}

// Bytes returns the encoded values written so far.
func (w *ValueWriter) Bytes() []byte {
	return w.buf
}

// Len returns the number of encoded bytes.
func (w *ValueWriter) Len() int {
	return len(w.buf)
}

// Reset empties the writer, keeping its buffer.
func (w *ValueWriter) Reset() {
	w.buf = w.buf[:0]
}

// ValueReader reads values in the order a ValueWriter saved them.
type ValueReader struct {
	buf []byte
}

// NewValueReader returns a reader over encoded values.
func NewValueReader(b []byte) *ValueReader {
	return &ValueReader{buf: b}
}

func (r *ValueReader) readSet() (bool, error) {
	set, rest, err := msgp.ReadBoolBytes(r.buf)
	if err != nil {
		return false, err
	}
	r.buf = rest
	return set, nil
}

// Remaining returns the number of unread bytes.
func (r *ValueReader) Remaining() int {
	return len(r.buf)
}

// SaveValue returns the encoding of a single element's value.
func SaveValue(d Descriptor, id int) []byte {
	w := NewValueWriter()
	d.Save(id, w)
	return w.Bytes()
}

// RestoreValue restores a single element's value from SaveValue output.
func RestoreValue(d Descriptor, id int, b []byte) error {
	return d.Restore(id, NewValueReader(b))
}

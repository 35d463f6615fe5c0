package attribute

import (
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/column"
)

// NativeType is the Go type a descriptor stores its values as.
type NativeType uint8

const (
	NativeBool NativeType = iota
	NativeInt8
	NativeInt16
	NativeInt32
	NativeInt64
	NativeFloat32
	NativeFloat64
	NativeString
	NativeObject
)

var nativeNames = [...]string{"bool", "int8", "int16", "int32", "int64", "float32", "float64", "string", "object"}

func (n NativeType) String() string {
	if int(n) < len(nativeNames) {
		return nativeNames[n]
	}
	return "unknown"
}

// Descriptor is the typed accessor shared by all elements of one attribute.
type Descriptor interface {
	// Tag returns the type tag this descriptor was registered under, e.g., "long".
	Tag() string
	NativeType() NativeType

	// Capacity and SetCapacity let the element type's column space resize the column.
	Capacity() int
	SetCapacity(n int)

	// Default returns the value read from clear elements.
	Default() interface{}
	SetDefault(v interface{}) error

	GetBool(id int) (bool, error)
	SetBool(id int, v bool) error
	GetByte(id int) (int8, error)
	SetByte(id int, v int8) error
	GetShort(id int) (int16, error)
	SetShort(id int, v int16) error
	GetInt(id int) (int32, error)
	SetInt(id int, v int32) error
	GetLong(id int) (int64, error)
	SetLong(id int, v int64) error
	GetFloat(id int) (float32, error)
	SetFloat(id int, v float32) error
	GetDouble(id int) (float64, error)
	SetDouble(id int, v float64) error
	GetChar(id int) (rune, error)
	SetChar(id int, v rune) error
	GetString(id int) string
	SetString(id int, v string) error
	GetObject(id int) interface{}
	SetObject(id int, v interface{}) error

	// AcceptsString validates s without changing anything.
	AcceptsString(s string) error

	// ConvertFromString returns the native value s represents.  Blank strings
	// convert to the default value.
	ConvertFromString(s string) (interface{}, error)

	IsClear(id int) bool
	Clear(id int)

	// Save appends the value of id, including whether it is clear, to w.
	Save(id int, w *ValueWriter)

	// Restore reads a value written by Save into id.
	Restore(id int, r *ValueReader) error

	// CopyValue copies the value of src, or its clear state, to dst.
	CopyValue(src, dst int)

	Hash(id int) uint64
	Equal(a, b int) bool

	// Copy returns an independent descriptor with the same capacity, default and values.
	Copy() Descriptor

	// Fork returns a copy-on-write descriptor for a write session with the given epoch.
	Fork(epoch uint64) Descriptor

	// Epoch returns the write epoch that owns this descriptor's column.
	Epoch() uint64

	// Chunks returns the number of allocated column chunks.
	Chunks() int
}

// codec is the per-tag part of a descriptor: conversions to and from the
// representations plus the msgpack encoding of one value.
type codec[T any] interface {
	tag() string
	native() NativeType
	zero() T
	equal(a, b T) bool

	fromBool(v bool) (T, error)
	fromInt(v int64) (T, error)
	fromFloat(v float64) (T, error)
	fromChar(v rune) (T, error)
	fromString(s string) (T, error)
	// fromOther converts object values that are not one of the representations.
	fromOther(v interface{}) (T, bool, error)

	toBool(v T) (bool, error)
	toInt(v T) (int64, error)
	toFloat(v T) (float64, error)
	toChar(v T) (rune, error)
	toString(v T) string
	toObject(v T) interface{}

	appendValue(b []byte, v T) []byte
	readValue(b []byte) (T, []byte, error)
}

// cloner is implemented by codecs whose native values are pointers.  Values
// from callers are cloned before they are stored so committed chunks never share
// memory with the outside.
type cloner[T any] interface {
	clone(v T) T
}

// canonicalizer is implemented by codecs whose equal values can have different
// encodings.  Hash encodes the canonical value.
type canonicalizer[T any] interface {
	canonical(v T) T
}

func convErr(from, to string, v interface{}) error {
	return &agstore.ConversionError{From: from, To: to, Value: v}
}

func wrapConvErr(from, to string, v interface{}, err error) error {
	return &agstore.ConversionError{From: from, To: to, Value: v, Err: err}
}

// typed is the generic descriptor shared by every variant.
type typed[T any] struct {
	c   codec[T]
	col *column.Column[T]
}

func newTyped[T any](c codec[T], chunkSize int) *typed[T] {
	return &typed[T]{c: c, col: column.New[T](chunkSize, c.zero())}
}

func (d *typed[T]) Tag() string            { return d.c.tag() }
func (d *typed[T]) NativeType() NativeType { return d.c.native() }
func (d *typed[T]) Capacity() int          { return d.col.Len() }
func (d *typed[T]) SetCapacity(n int)      { d.col.SetCapacity(n) }
func (d *typed[T]) Epoch() uint64          { return d.col.Epoch() }
func (d *typed[T]) Chunks() int            { return d.col.Chunks() }

func (d *typed[T]) Default() interface{} {
	return d.c.toObject(d.col.Default())
}

func (d *typed[T]) SetDefault(v interface{}) error {
	if v == nil {
		d.col.SetDefault(d.c.zero())
		return nil
	}
	nv, err := d.fromObject(v)
	if err != nil {
		return err
	}
	d.col.SetDefault(nv)
	return nil
}

func (d *typed[T]) set(id int, v T, err error) error {
	if err != nil {
		return err
	}
	d.col.Set(id, v)
	return nil
}

func (d *typed[T]) GetBool(id int) (bool, error) {
	return d.c.toBool(d.col.Get(id))
}

func (d *typed[T]) SetBool(id int, v bool) error {
	nv, err := d.c.fromBool(v)
	return d.set(id, nv, err)
}

func (d *typed[T]) narrowInt(id int, to string, min, max int64) (int64, error) {
	v := d.col.Get(id)
	i, err := d.c.toInt(v)
	if err != nil {
		return 0, err
	}
	if i < min || i > max {
		return 0, convErr(d.c.tag(), to, d.c.toString(v))
	}
	return i, nil
}

func (d *typed[T]) GetByte(id int) (int8, error) {
	i, err := d.narrowInt(id, "byte", math.MinInt8, math.MaxInt8)
	return int8(i), err
}

func (d *typed[T]) SetByte(id int, v int8) error {
	nv, err := d.c.fromInt(int64(v))
	return d.set(id, nv, err)
}

func (d *typed[T]) GetShort(id int) (int16, error) {
	i, err := d.narrowInt(id, "short", math.MinInt16, math.MaxInt16)
	return int16(i), err
}

func (d *typed[T]) SetShort(id int, v int16) error {
	nv, err := d.c.fromInt(int64(v))
	return d.set(id, nv, err)
}

func (d *typed[T]) GetInt(id int) (int32, error) {
	i, err := d.narrowInt(id, "int", math.MinInt32, math.MaxInt32)
	return int32(i), err
}

func (d *typed[T]) SetInt(id int, v int32) error {
	nv, err := d.c.fromInt(int64(v))
	return d.set(id, nv, err)
}

func (d *typed[T]) GetLong(id int) (int64, error) {
	return d.c.toInt(d.col.Get(id))
}

func (d *typed[T]) SetLong(id int, v int64) error {
	nv, err := d.c.fromInt(v)
	return d.set(id, nv, err)
}

func (d *typed[T]) GetFloat(id int) (float32, error) {
	v := d.col.Get(id)
	f, err := d.c.toFloat(v)
	if err != nil {
		return 0, err
	}
	if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return 0, convErr(d.c.tag(), "float", d.c.toString(v))
	}
	return float32(f), nil
}

func (d *typed[T]) SetFloat(id int, v float32) error {
	nv, err := d.c.fromFloat(float64(v))
	return d.set(id, nv, err)
}

func (d *typed[T]) GetDouble(id int) (float64, error) {
	return d.c.toFloat(d.col.Get(id))
}

func (d *typed[T]) SetDouble(id int, v float64) error {
	nv, err := d.c.fromFloat(v)
	return d.set(id, nv, err)
}

func (d *typed[T]) GetChar(id int) (rune, error) {
	return d.c.toChar(d.col.Get(id))
}

func (d *typed[T]) SetChar(id int, v rune) error {
	nv, err := d.c.fromChar(v)
	return d.set(id, nv, err)
}

func (d *typed[T]) GetString(id int) string {
	return d.c.toString(d.col.Get(id))
}

func (d *typed[T]) blank(s string) bool {
	return d.c.native() != NativeString && strings.TrimSpace(s) == ""
}

func (d *typed[T]) SetString(id int, s string) error {
	if d.blank(s) {
		d.col.Clear(id)
		return nil
	}
	nv, err := d.c.fromString(s)
	return d.set(id, nv, err)
}

func (d *typed[T]) GetObject(id int) interface{} {
	return d.c.toObject(d.col.Get(id))
}

func (d *typed[T]) SetObject(id int, v interface{}) error {
	if v == nil {
		d.col.Clear(id)
		return nil
	}
	nv, err := d.fromObject(v)
	return d.set(id, nv, err)
}

// fromObject converts v through the native type first, then the representations,
// then any variant-specific object types.
func (d *typed[T]) fromObject(v interface{}) (T, error) {
	if nv, ok := v.(T); ok {
		if cl, ok := d.c.(cloner[T]); ok {
			return cl.clone(nv), nil
		}
		return nv, nil
	}
	if nv, ok, err := d.c.fromOther(v); ok {
		return nv, err
	}
	switch x := v.(type) {
	case bool:
		return d.c.fromBool(x)
	case int8:
		return d.c.fromInt(int64(x))
	case int16:
		return d.c.fromInt(int64(x))
	case int32:
		return d.c.fromInt(int64(x))
	case int64:
		return d.c.fromInt(x)
	case int:
		return d.c.fromInt(int64(x))
	case uint8:
		return d.c.fromInt(int64(x))
	case uint16:
		return d.c.fromInt(int64(x))
	case uint32:
		return d.c.fromInt(int64(x))
	case float32:
		return d.c.fromFloat(float64(x))
	case float64:
		return d.c.fromFloat(x)
	case string:
		if d.blank(x) {
			return d.col.Default(), nil
		}
		return d.c.fromString(x)
	}
	var zero T
	return zero, convErr(fmt.Sprintf("%T", v), d.c.tag(), v)
}

func (d *typed[T]) AcceptsString(s string) error {
	_, err := d.ConvertFromString(s)
	return err
}

func (d *typed[T]) ConvertFromString(s string) (interface{}, error) {
	if d.blank(s) {
		return d.c.toObject(d.col.Default()), nil
	}
	nv, err := d.c.fromString(s)
	if err != nil {
		return nil, err
	}
	return d.c.toObject(nv), nil
}

func (d *typed[T]) IsClear(id int) bool {
	return !d.col.IsSet(id)
}

func (d *typed[T]) Clear(id int) {
	d.col.Clear(id)
}

func (d *typed[T]) Save(id int, w *ValueWriter) {
	set := d.col.IsSet(id)
	w.appendSet(set)
	if set {
		w.buf = d.c.appendValue(w.buf, d.col.Get(id))
	}
}

func (d *typed[T]) Restore(id int, r *ValueReader) error {
	set, err := r.readSet()
	if err != nil {
		return err
	}
	if !set {
		d.col.Clear(id)
		return nil
	}
	v, rest, err := d.c.readValue(r.buf)
	if err != nil {
		return fmt.Errorf("restoring %s value for element %d: %w", d.c.tag(), id, err)
	}
	r.buf = rest
	d.col.Set(id, v)
	return nil
}

func (d *typed[T]) CopyValue(src, dst int) {
	if d.col.IsSet(src) {
		d.col.Set(dst, d.col.Get(src))
	} else {
		d.col.Clear(dst)
	}
}

func (d *typed[T]) Hash(id int) uint64 {
	v := d.col.Get(id)
	if cn, ok := d.c.(canonicalizer[T]); ok {
		v = cn.canonical(v)
	}
	return xxhash.Sum64(d.c.appendValue(nil, v))
}

func (d *typed[T]) Equal(a, b int) bool {
	return d.c.equal(d.col.Get(a), d.col.Get(b))
}

func (d *typed[T]) Copy() Descriptor {
	return &typed[T]{c: d.c, col: d.col.Clone()}
}

func (d *typed[T]) Fork(epoch uint64) Descriptor {
	return &typed[T]{c: d.c, col: d.col.Fork(epoch)}
}

package attribute

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/tinylib/msgp/msgp"
)

// --- boolean ---

type boolCodec struct{}

func (boolCodec) tag() string          { return BooleanTag }
func (boolCodec) native() NativeType   { return NativeBool }
func (boolCodec) zero() bool           { return false }
func (boolCodec) equal(a, b bool) bool { return a == b }

func (boolCodec) fromBool(v bool) (bool, error) { return v, nil }

func (boolCodec) fromInt(v int64) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, convErr("long", BooleanTag, v)
}

func (boolCodec) fromFloat(v float64) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, convErr("double", BooleanTag, v)
}

func (boolCodec) fromChar(v rune) (bool, error) {
	switch v {
	case 't', 'T', '1':
		return true, nil
	case 'f', 'F', '0':
		return false, nil
	}
	return false, convErr("char", BooleanTag, string(v))
}

func (boolCodec) fromString(s string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, wrapConvErr("string", BooleanTag, s, err)
	}
	return b, nil
}

func (boolCodec) fromOther(v interface{}) (bool, bool, error) { return false, false, nil }

func (boolCodec) toBool(v bool) (bool, error) { return v, nil }

func (boolCodec) toInt(v bool) (int64, error) {
	if v {
		return 1, nil
	}
	return 0, nil
}

func (boolCodec) toFloat(v bool) (float64, error) {
	if v {
		return 1, nil
	}
	return 0, nil
}

func (boolCodec) toChar(v bool) (rune, error) {
	if v {
		return 't', nil
	}
	return 'f', nil
}

func (boolCodec) toString(v bool) string                   { return strconv.FormatBool(v) }
func (boolCodec) toObject(v bool) interface{}              { return v }
func (boolCodec) appendValue(b []byte, v bool) []byte      { return msgp.AppendBool(b, v) }
func (boolCodec) readValue(b []byte) (bool, []byte, error) { return msgp.ReadBoolBytes(b) }

// --- byte, short, integer, long ---

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type intCodec[T integer] struct {
	name string
	bits int
	nat  NativeType
}

func (c intCodec[T]) tag() string        { return c.name }
func (c intCodec[T]) native() NativeType { return c.nat }
func (c intCodec[T]) zero() T            { return 0 }
func (c intCodec[T]) equal(a, b T) bool  { return a == b }
func (c intCodec[T]) min() int64         { return int64(-1) << (c.bits - 1) }
func (c intCodec[T]) max() int64         { return int64(1)<<(c.bits-1) - 1 }

func (c intCodec[T]) fromBool(v bool) (T, error) {
	if v {
		return 1, nil
	}
	return 0, nil
}

func (c intCodec[T]) fromInt(v int64) (T, error) {
	if v < c.min() || v > c.max() {
		return 0, convErr("long", c.name, v)
	}
	return T(v), nil
}

func (c intCodec[T]) fromFloat(v float64) (T, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, convErr("double", c.name, v)
	}
	if v < float64(c.min()) || v >= -float64(c.min()) {
		return 0, convErr("double", c.name, v)
	}
	return T(v), nil
}

func (c intCodec[T]) fromChar(v rune) (T, error) {
	if int64(v) > c.max() {
		return 0, convErr("char", c.name, string(v))
	}
	return T(v), nil
}

func (c intCodec[T]) fromString(s string) (T, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, c.bits)
	if err != nil {
		return 0, wrapConvErr("string", c.name, s, err)
	}
	return T(i), nil
}

func (c intCodec[T]) fromOther(v interface{}) (T, bool, error) { return 0, false, nil }

func (c intCodec[T]) toBool(v T) (bool, error)     { return v != 0, nil }
func (c intCodec[T]) toInt(v T) (int64, error)     { return int64(v), nil }
func (c intCodec[T]) toFloat(v T) (float64, error) { return float64(v), nil }

func (c intCodec[T]) toChar(v T) (rune, error) {
	if v < 0 || int64(v) > unicode.MaxRune {
		return 0, convErr(c.name, "char", int64(v))
	}
	return rune(v), nil
}

func (c intCodec[T]) toString(v T) string      { return strconv.FormatInt(int64(v), 10) }
func (c intCodec[T]) toObject(v T) interface{} { return v }

func (c intCodec[T]) appendValue(b []byte, v T) []byte { return msgp.AppendInt64(b, int64(v)) }

func (c intCodec[T]) readValue(b []byte) (T, []byte, error) {
	i, rest, err := msgp.ReadInt64Bytes(b)
	return T(i), rest, err
}

// --- float, double ---

type float interface {
	~float32 | ~float64
}

type floatCodec[T float] struct {
	name string
	bits int
	nat  NativeType
}

func (c floatCodec[T]) tag() string        { return c.name }
func (c floatCodec[T]) native() NativeType { return c.nat }
func (c floatCodec[T]) zero() T            { return 0 }

func (c floatCodec[T]) equal(a, b T) bool {
	return a == b || (a != a && b != b)
}

// canonical folds -0 to +0 and every NaN to a single NaN, matching equal.
func (c floatCodec[T]) canonical(v T) T {
	switch {
	case v != v:
		return T(math.NaN())
	case v == 0:
		return 0
	}
	return v
}

func (c floatCodec[T]) fromBool(v bool) (T, error) {
	if v {
		return 1, nil
	}
	return 0, nil
}

func (c floatCodec[T]) fromInt(v int64) (T, error) { return T(v), nil }

func (c floatCodec[T]) fromFloat(v float64) (T, error) {
	if c.bits == 32 && !math.IsInf(v, 0) && !math.IsNaN(v) && math.Abs(v) > math.MaxFloat32 {
		return 0, convErr("double", c.name, v)
	}
	return T(v), nil
}

func (c floatCodec[T]) fromChar(v rune) (T, error) { return T(v), nil }

func (c floatCodec[T]) fromString(s string) (T, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), c.bits)
	if err != nil {
		return 0, wrapConvErr("string", c.name, s, err)
	}
	return T(f), nil
}

func (c floatCodec[T]) fromOther(v interface{}) (T, bool, error) { return 0, false, nil }

func (c floatCodec[T]) toBool(v T) (bool, error) { return v != 0, nil }

func (c floatCodec[T]) toInt(v T) (int64, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, convErr(c.name, "long", c.toString(v))
	}
	return int64(f), nil
}

func (c floatCodec[T]) toFloat(v T) (float64, error) { return float64(v), nil }

func (c floatCodec[T]) toChar(v T) (rune, error) {
	i, err := c.toInt(v)
	if err != nil || i < 0 || i > unicode.MaxRune {
		return 0, convErr(c.name, "char", c.toString(v))
	}
	return rune(i), nil
}

func (c floatCodec[T]) toString(v T) string {
	return strconv.FormatFloat(float64(v), 'g', -1, c.bits)
}

func (c floatCodec[T]) toObject(v T) interface{} { return v }

func (c floatCodec[T]) appendValue(b []byte, v T) []byte { return msgp.AppendFloat64(b, float64(v)) }

func (c floatCodec[T]) readValue(b []byte) (T, []byte, error) {
	f, rest, err := msgp.ReadFloat64Bytes(b)
	return T(f), rest, err
}

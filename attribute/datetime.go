package attribute

import (
	"strings"
	"time"

	"github.com/tinylib/msgp/msgp"
)

// datetimeCodec stores instants in UTC.  Integer representations are unix milliseconds.
type datetimeCodec struct{}

func (datetimeCodec) tag() string               { return DatetimeTag }
func (datetimeCodec) native() NativeType        { return NativeObject }
func (datetimeCodec) zero() time.Time           { return time.Time{} }
func (datetimeCodec) equal(a, b time.Time) bool { return a.Equal(b) }

func (datetimeCodec) clone(v time.Time) time.Time { return v.UTC() }

func (datetimeCodec) fromBool(v bool) (time.Time, error) {
	return time.Time{}, convErr("bool", DatetimeTag, v)
}

func (datetimeCodec) fromInt(v int64) (time.Time, error) {
	return time.UnixMilli(v).UTC(), nil
}

func (datetimeCodec) fromFloat(v float64) (time.Time, error) {
	return time.Time{}, convErr("double", DatetimeTag, v)
}

func (datetimeCodec) fromChar(v rune) (time.Time, error) {
	return time.Time{}, convErr("char", DatetimeTag, string(v))
}

var datetimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func (datetimeCodec) fromString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range datetimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, wrapConvErr("string", DatetimeTag, s, err)
}

func (datetimeCodec) fromOther(v interface{}) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (datetimeCodec) toBool(v time.Time) (bool, error) {
	return false, convErr(DatetimeTag, "boolean", v.Format(time.RFC3339Nano))
}

func (datetimeCodec) toInt(v time.Time) (int64, error) { return v.UnixMilli(), nil }

func (datetimeCodec) toFloat(v time.Time) (float64, error) {
	return 0, convErr(DatetimeTag, "double", v.Format(time.RFC3339Nano))
}

func (datetimeCodec) toChar(v time.Time) (rune, error) {
	return 0, convErr(DatetimeTag, "char", v.Format(time.RFC3339Nano))
}

func (datetimeCodec) toString(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339Nano)
}

func (datetimeCodec) toObject(v time.Time) interface{} { return v }

func (datetimeCodec) appendValue(b []byte, v time.Time) []byte { return msgp.AppendTime(b, v) }

func (datetimeCodec) readValue(b []byte) (time.Time, []byte, error) {
	t, rest, err := msgp.ReadTimeBytes(b)
	return t.UTC(), rest, err
}

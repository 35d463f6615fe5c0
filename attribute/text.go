package attribute

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tinylib/msgp/msgp"
)

// --- string ---

type stringCodec struct{}

func (stringCodec) tag() string            { return StringTag }
func (stringCodec) native() NativeType     { return NativeString }
func (stringCodec) zero() string           { return "" }
func (stringCodec) equal(a, b string) bool { return a == b }

func (stringCodec) fromBool(v bool) (string, error) { return strconv.FormatBool(v), nil }
func (stringCodec) fromInt(v int64) (string, error) { return strconv.FormatInt(v, 10), nil }

func (stringCodec) fromFloat(v float64) (string, error) {
	return strconv.FormatFloat(v, 'g', -1, 64), nil
}

func (stringCodec) fromChar(v rune) (string, error)     { return string(v), nil }
func (stringCodec) fromString(s string) (string, error) { return s, nil }
func (stringCodec) fromOther(v interface{}) (string, bool, error) {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), true, nil
	}
	return "", false, nil
}

func (stringCodec) toBool(v string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, wrapConvErr(StringTag, "boolean", v, err)
	}
	return b, nil
}

func (stringCodec) toInt(v string) (int64, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, wrapConvErr(StringTag, "long", v, err)
	}
	return i, nil
}

func (stringCodec) toFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, wrapConvErr(StringTag, "double", v, err)
	}
	return f, nil
}

func (stringCodec) toChar(v string) (rune, error) {
	if utf8.RuneCountInString(v) != 1 {
		return 0, convErr(StringTag, "char", v)
	}
	r, _ := utf8.DecodeRuneInString(v)
	return r, nil
}

func (stringCodec) toString(v string) string                   { return v }
func (stringCodec) toObject(v string) interface{}              { return v }
func (stringCodec) appendValue(b []byte, v string) []byte      { return msgp.AppendString(b, v) }
func (stringCodec) readValue(b []byte) (string, []byte, error) { return msgp.ReadStringBytes(b) }

// --- hyperlink ---

// hyperlinkCodec stores absolute URLs.  The zero value is a nil URL.
type hyperlinkCodec struct{}

func (hyperlinkCodec) tag() string        { return HyperlinkTag }
func (hyperlinkCodec) native() NativeType { return NativeObject }
func (hyperlinkCodec) zero() *url.URL     { return nil }

func (hyperlinkCodec) equal(a, b *url.URL) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

func (hyperlinkCodec) fromBool(v bool) (*url.URL, error) {
	return nil, convErr("bool", HyperlinkTag, v)
}

func (hyperlinkCodec) fromInt(v int64) (*url.URL, error) {
	return nil, convErr("long", HyperlinkTag, v)
}

func (hyperlinkCodec) fromFloat(v float64) (*url.URL, error) {
	return nil, convErr("double", HyperlinkTag, v)
}

func (hyperlinkCodec) fromChar(v rune) (*url.URL, error) {
	return nil, convErr("char", HyperlinkTag, string(v))
}

func (hyperlinkCodec) fromString(s string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, wrapConvErr("string", HyperlinkTag, s, err)
	}
	if u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
		return nil, wrapConvErr("string", HyperlinkTag, s, fmt.Errorf("not an absolute URL"))
	}
	return u, nil
}

func (hyperlinkCodec) clone(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	dup := *u
	return &dup
}

func (c hyperlinkCodec) fromOther(v interface{}) (*url.URL, bool, error) {
	if u, ok := v.(url.URL); ok {
		return c.clone(&u), true, nil
	}
	return nil, false, nil
}

func (hyperlinkCodec) toBool(v *url.URL) (bool, error) {
	return false, convErr(HyperlinkTag, "boolean", v)
}

func (hyperlinkCodec) toInt(v *url.URL) (int64, error) {
	return 0, convErr(HyperlinkTag, "long", v)
}

func (hyperlinkCodec) toFloat(v *url.URL) (float64, error) {
	return 0, convErr(HyperlinkTag, "double", v)
}

func (hyperlinkCodec) toChar(v *url.URL) (rune, error) {
	return 0, convErr(HyperlinkTag, "char", v)
}

func (hyperlinkCodec) toString(v *url.URL) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// toObject returns a copy; the stored URL may be shared by committed versions.
func (c hyperlinkCodec) toObject(v *url.URL) interface{} {
	if v == nil {
		return nil
	}
	return c.clone(v)
}

func (c hyperlinkCodec) appendValue(b []byte, v *url.URL) []byte {
	return msgp.AppendString(b, c.toString(v))
}

func (c hyperlinkCodec) readValue(b []byte) (*url.URL, []byte, error) {
	s, rest, err := msgp.ReadStringBytes(b)
	if err != nil || s == "" {
		return nil, rest, err
	}
	u, err := url.Parse(s)
	return u, rest, err
}

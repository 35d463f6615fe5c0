package attribute

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/tinylib/msgp/msgp"
	"golang.org/x/image/colornames"
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// RGBA implements image/color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	a = uint32(clamp01(c.A)*0xffff + 0.5)
	r = uint32(clamp01(c.R)*clamp01(c.A)*0xffff + 0.5)
	g = uint32(clamp01(c.G)*clamp01(c.A)*0xffff + 0.5)
	b = uint32(clamp01(c.B)*clamp01(c.A)*0xffff + 0.5)
	return
}

// String returns "#RRGGBB" for opaque colors and "#RRGGBBAA" otherwise.
func (c Color) String() string {
	s := fmt.Sprintf("#%02X%02X%02X", to8(c.R), to8(c.G), to8(c.B))
	if c.A < 1 {
		s += fmt.Sprintf("%02X", to8(c.A))
	}
	return s
}

func clamp01(f float32) float32 {
	return float32(math.Max(0, math.Min(1, float64(f))))
}

func to8(f float32) uint8 {
	return uint8(math.Round(float64(clamp01(f)) * 255))
}

// ColorFromImage converts any image/color.Color, undoing alpha premultiplication.
func ColorFromImage(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{
		R: float32(n.R) / 255,
		G: float32(n.G) / 255,
		B: float32(n.B) / 255,
		A: float32(n.A) / 255,
	}
}

// ParseColor accepts "#RRGGBB", "#RRGGBBAA", an SVG color name or "r,g,b[,a]" with
// components either all in [0, 1] or all integers in [0, 255].
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s)
	}
	if strings.Contains(s, ",") {
		return parseComponents(s)
	}
	if rgba, found := colornames.Map[strings.ToLower(s)]; found {
		return ColorFromImage(rgba), nil
	}
	return Color{}, fmt.Errorf("unknown color %q", s)
}

func parseHexColor(s string) (Color, error) {
	hex := s[1:]
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, fmt.Errorf("color %q must have 6 or 8 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, err
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return Color{
		R: float32(v>>24&0xff) / 255,
		G: float32(v>>16&0xff) / 255,
		B: float32(v>>8&0xff) / 255,
		A: float32(v&0xff) / 255,
	}, nil
}

func parseComponents(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("color %q must have 3 or 4 components", s)
	}
	comps := []float64{0, 0, 0, 1}
	scale := 1.0
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Color{}, err
		}
		comps[i] = f
		if f > 1 {
			scale = 255
		}
	}
	for i := range parts {
		comps[i] /= scale
		if comps[i] < 0 || comps[i] > 1 {
			return Color{}, fmt.Errorf("color component %q out of range", parts[i])
		}
	}
	return Color{float32(comps[0]), float32(comps[1]), float32(comps[2]), float32(comps[3])}, nil
}

type colorCodec struct{}

func (colorCodec) tag() string           { return ColorTag }
func (colorCodec) native() NativeType    { return NativeObject }
func (colorCodec) zero() Color           { return Color{} }
func (colorCodec) equal(a, b Color) bool { return a == b }

// canonical folds negative zero components, which compare equal to zero.
func (colorCodec) canonical(v Color) Color {
	for _, f := range []*float32{&v.R, &v.G, &v.B, &v.A} {
		if *f == 0 {
			*f = 0
		}
	}
	return v
}

func (colorCodec) fromBool(v bool) (Color, error) {
	return Color{}, convErr("bool", ColorTag, v)
}

func (colorCodec) fromInt(v int64) (Color, error) {
	return Color{}, convErr("long", ColorTag, v)
}

func (colorCodec) fromFloat(v float64) (Color, error) {
	return Color{}, convErr("double", ColorTag, v)
}

func (colorCodec) fromChar(v rune) (Color, error) {
	return Color{}, convErr("char", ColorTag, string(v))
}

func (colorCodec) fromString(s string) (Color, error) {
	c, err := ParseColor(s)
	if err != nil {
		return Color{}, wrapConvErr("string", ColorTag, s, err)
	}
	return c, nil
}

func (colorCodec) fromOther(v interface{}) (Color, bool, error) {
	switch c := v.(type) {
	case *Color:
		if c == nil {
			return Color{}, true, nil
		}
		return *c, true, nil
	case color.Color:
		return ColorFromImage(c), true, nil
	}
	return Color{}, false, nil
}

func (colorCodec) toBool(v Color) (bool, error) {
	return false, convErr(ColorTag, "boolean", v.String())
}

func (colorCodec) toInt(v Color) (int64, error) {
	return 0, convErr(ColorTag, "long", v.String())
}

func (colorCodec) toFloat(v Color) (float64, error) {
	return 0, convErr(ColorTag, "double", v.String())
}

func (colorCodec) toChar(v Color) (rune, error) {
	return 0, convErr(ColorTag, "char", v.String())
}

func (colorCodec) toString(v Color) string      { return v.String() }
func (colorCodec) toObject(v Color) interface{} { return v }

func (colorCodec) appendValue(b []byte, v Color) []byte {
	b = msgp.AppendArrayHeader(b, 4)
	for _, f := range [4]float32{v.R, v.G, v.B, v.A} {
		b = msgp.AppendFloat32(b, f)
	}
	return b
}

func (colorCodec) readValue(b []byte) (Color, []byte, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return Color{}, b, err
	}
	if n != 4 {
		return Color{}, b, fmt.Errorf("color has %d components, expected 4", n)
	}
	var f [4]float32
	for i := range f {
		if f[i], b, err = msgp.ReadFloat32Bytes(b); err != nil {
			return Color{}, b, err
		}
	}
	return Color{f[0], f[1], f[2], f[3]}, b, nil
}

package attribute

import (
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/janelia-flyem/agstore/agstore"
)

// Type tags of the built-in attribute variants.
const (
	BooleanTag   = "boolean"
	ByteTag      = "byte"
	ShortTag     = "short"
	IntegerTag   = "integer"
	LongTag      = "long"
	FloatTag     = "float"
	DoubleTag    = "double"
	StringTag    = "string"
	ColorTag     = "color"
	HyperlinkTag = "hyperlink"
	DatetimeTag  = "datetime"
)

// Factory returns a new empty descriptor whose column uses the given chunk size.
type Factory func(chunkSize int) Descriptor

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes an attribute variant available under tag.  Registering a tag twice
// replaces the earlier factory.
func Register(tag string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f == nil {
		delete(factories, tag)
		return
	}
	factories[tag] = f
}

// New returns an empty descriptor for the variant registered under tag.
func New(tag string, chunkSize int) (Descriptor, error) {
	registryMu.RLock()
	f, found := factories[tag]
	registryMu.RUnlock()
	if !found {
		return nil, &agstore.UnknownAttributeError{Name: "type " + tag}
	}
	return f(chunkSize), nil
}

// Registered returns true if a variant is registered under tag.
func Registered(tag string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, found := factories[tag]
	return found
}

// Tags returns the registered type tags in sorted order.
func Tags() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	tags := make([]string, 0, len(factories))
	for tag := range factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func init() {
	Register(BooleanTag, func(n int) Descriptor { return newTyped[bool](boolCodec{}, n) })
	Register(ByteTag, func(n int) Descriptor {
		return newTyped[int8](intCodec[int8]{name: ByteTag, bits: 8, nat: NativeInt8}, n)
	})
	Register(ShortTag, func(n int) Descriptor {
		return newTyped[int16](intCodec[int16]{name: ShortTag, bits: 16, nat: NativeInt16}, n)
	})
	Register(IntegerTag, func(n int) Descriptor {
		return newTyped[int32](intCodec[int32]{name: IntegerTag, bits: 32, nat: NativeInt32}, n)
	})
	Register(LongTag, func(n int) Descriptor {
		return newTyped[int64](intCodec[int64]{name: LongTag, bits: 64, nat: NativeInt64}, n)
	})
	Register(FloatTag, func(n int) Descriptor {
		return newTyped[float32](floatCodec[float32]{name: FloatTag, bits: 32, nat: NativeFloat32}, n)
	})
	Register(DoubleTag, func(n int) Descriptor {
		return newTyped[float64](floatCodec[float64]{name: DoubleTag, bits: 64, nat: NativeFloat64}, n)
	})
	Register(StringTag, func(n int) Descriptor { return newTyped[string](stringCodec{}, n) })
	Register(ColorTag, func(n int) Descriptor { return newTyped[Color](colorCodec{}, n) })
	Register(HyperlinkTag, func(n int) Descriptor { return newTyped[*url.URL](hyperlinkCodec{}, n) })
	Register(DatetimeTag, func(n int) Descriptor { return newTyped[time.Time](datetimeCodec{}, n) })
}

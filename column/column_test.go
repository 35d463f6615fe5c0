package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnDefaultsAndLazyChunks(t *testing.T) {
	c := New[int64](16, 7)
	space := NewSpace(4)
	space.Register(c)

	require.Equal(t, 4, c.Len())
	assert.Equal(t, int64(7), c.Get(2), "untouched slot reads default")
	assert.Equal(t, int64(7), c.Get(1000), "out of range slot reads default")
	assert.Equal(t, 0, c.Chunks(), "no chunk allocated before first write")

	c.Set(3, 42)
	assert.Equal(t, int64(42), c.Get(3))
	assert.True(t, c.IsSet(3))
	assert.False(t, c.IsSet(2))
	assert.Equal(t, 1, c.Chunks())

	c.SetDefault(9)
	assert.Equal(t, int64(9), c.Get(2), "unset slot follows new default")
	assert.Equal(t, int64(42), c.Get(3), "set slot keeps its value")

	c.Clear(3)
	assert.False(t, c.IsSet(3))
	assert.Equal(t, int64(9), c.Get(3))
}

func TestSpaceGrowsGeometricallyAndNotifies(t *testing.T) {
	space := NewSpace(4)
	a := New[bool](8, false)
	b := New[string](8, "")
	space.Register(a)
	space.Register(b)

	assert.False(t, space.Ensure(3))
	assert.True(t, space.Ensure(5))
	assert.Equal(t, 8, space.Capacity())
	assert.True(t, space.Ensure(33))
	assert.Equal(t, 64, space.Capacity())

	for _, n := range []int{a.Len(), b.Len()} {
		assert.Equal(t, 64, n, "every column of the type is resized")
	}
	assert.Equal(t, 0, a.Chunks()+b.Chunks(), "resizing allocates no chunks")

	space.Unregister(b)
	space.Ensure(100)
	assert.Equal(t, 128, a.Len())
	assert.Equal(t, 64, b.Len())
}

func TestForkIsolatesWrites(t *testing.T) {
	base := New[int32](4, 0)
	base.SetCapacity(16)
	for id := 0; id < 16; id++ {
		base.Set(id, int32(id))
	}

	fork := base.Fork(2)
	fork.Set(5, 500)
	fork.Clear(9)
	fork.SetCapacity(40)
	fork.Set(33, 33)
	fork.SetDefault(-1)

	assert.Equal(t, int32(5), base.Get(5), "base unchanged by fork write")
	assert.True(t, base.IsSet(9), "base unchanged by fork clear")
	assert.Equal(t, 16, base.Len())
	assert.Equal(t, int32(0), base.Default())

	assert.Equal(t, int32(500), fork.Get(5))
	assert.Equal(t, int32(-1), fork.Get(9))
	assert.Equal(t, int32(33), fork.Get(33))
	assert.Equal(t, int32(6), fork.Get(6), "fork shares untouched values")

	// A second write to the same chunk under the same epoch must not copy again.
	fork.Set(4, 400)
	assert.Equal(t, int32(4), base.Get(4))
}

func TestCloneIsIndependent(t *testing.T) {
	base := New[string](4, "none")
	base.Set(1, "one")
	dup := base.Clone()
	dup.Set(1, "uno")
	dup.Set(2, "dos")

	assert.Equal(t, "one", base.Get(1))
	assert.Equal(t, "none", base.Get(2))
	assert.Equal(t, "uno", dup.Get(1))

	var ids []int
	dup.ForEachSet(func(id int, v string) { ids = append(ids, id) })
	assert.Equal(t, []int{1, 2}, ids)
}

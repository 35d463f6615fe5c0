// Package storetest checks that a storage.Store behaves as the graph package expects.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/janelia-flyem/agstore/graph"
	"github.com/janelia-flyem/agstore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises the snapshot operations of an empty store.
func Run(t *testing.T, s storage.Store) {
	ctx := context.Background()

	_, err := s.GetSnapshot(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, agstore.ErrNotFound), "missing snapshot error %v", err)

	require.NoError(t, s.PutSnapshot(ctx, "b", []byte("second")))
	require.NoError(t, s.PutSnapshot(ctx, "a", []byte("first")))
	require.NoError(t, s.PutSnapshot(ctx, "a", []byte("first, again")))

	data, err := s.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "first, again", string(data))

	ids, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, s.DeleteSnapshot(ctx, "b"))
	require.NoError(t, s.DeleteSnapshot(ctx, "b"))
	ids, err = s.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	RunGraph(t, s)
}

// RunGraph saves a small graph through the store and loads it back.
func RunGraph(t *testing.T, s storage.Store) {
	ctx := context.Background()
	g := graph.New(graph.WithID("storetest"), graph.WithPersister(s),
		graph.WithConfig(graph.Config{ChunkSize: 8, Compression: "snappy"}))

	w, err := g.WritableGraph(ctx, "populate", true)
	require.NoError(t, err)
	label, err := w.EnsureAttribute(agstore.Vertex, attribute.StringTag, "label", "", nil)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		v, err := w.AddVertex()
		require.NoError(t, err)
		require.NoError(t, w.SetString(label, v, string(rune('a'+i))))
		if i > 0 {
			_, err = w.AddTransaction(v-1, v, i%2 == 0)
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Commit())

	version, err := g.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, g.GlobalModificationCounter(), version)

	loaded, err := graph.Load(ctx, s, "storetest")
	require.NoError(t, err)
	r := loaded.ReadableGraph()
	defer r.Release()
	assert.Equal(t, 20, r.VertexCount())
	assert.Equal(t, 19, r.TransactionCount())
	assert.Equal(t, version, r.Version())
	got, err := r.GetString(r.Attribute(agstore.Vertex, "label"), 7)
	require.NoError(t, err)
	assert.Equal(t, "h", got)
}

package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPersister struct {
	mu    sync.Mutex
	snaps map[string][]byte
}

func (p *memPersister) PutSnapshot(ctx context.Context, graphID string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snaps == nil {
		p.snaps = make(map[string][]byte)
	}
	p.snaps[graphID] = append([]byte(nil), data...)
	return nil
}

func (p *memPersister) GetSnapshot(ctx context.Context, graphID string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, found := p.snaps[graphID]
	if !found {
		return nil, agstore.ErrNotFound
	}
	return data, nil
}

func TestSaveAndLoad(t *testing.T) {
	for _, compression := range []string{"none", "snappy", "zstd"} {
		p := &memPersister{}
		cfg := Config{ChunkSize: 8, InitialCapacity: 4, Compression: compression}
		g := New(WithConfig(cfg), WithPersister(p))
		weight := buildScenario(t, g)

		w := mustWrite(t, g, "decorate", true)
		link, err := w.EnsureAttribute(agstore.Transaction, attribute.HyperlinkTag, "source", "", nil)
		require.NoError(t, err)
		require.NoError(t, w.SetString(link, 3, "https://example.com/tx/3"))
		color, err := w.EnsureAttribute(agstore.Vertex, attribute.ColorTag, "color", "", "#00FF00")
		require.NoError(t, err)
		require.NoError(t, w.SetString(color, 4, "#11223344"))
		require.NoError(t, w.RemoveVertex(0))
		require.NoError(t, w.Commit())

		saved, err := g.Save(context.Background())
		require.NoError(t, err, compression)
		assert.Equal(t, g.GlobalModificationCounter(), saved)

		loaded, err := Load(context.Background(), p, g.ID(), WithConfig(cfg))
		require.NoError(t, err, compression)
		assert.Equal(t, g.ID(), loaded.ID())
		assert.Equal(t, saved, loaded.GlobalModificationCounter())
		assert.False(t, loaded.CanUndo(), "loaded graphs start with an empty history")

		r := loaded.ReadableGraph()
		assert.Equal(t, 4, r.VertexCount())
		assert.Equal(t, 4, r.TransactionCount())
		assert.False(t, r.VertexExists(0))
		v3, _ := r.GetLong(weight, 3)
		assert.Equal(t, int64(30), v3)
		s, _ := r.GetString(link, 3)
		assert.Equal(t, "https://example.com/tx/3", s)
		u, _ := r.GetObject(link, 4)
		assert.Nil(t, u)
		c, _ := r.GetString(color, 4)
		assert.Equal(t, "#11223344", c)
		c, _ = r.GetString(color, 2)
		assert.Equal(t, "#00FF00", c, "default survives the round trip")
		require.NoError(t, r.Release())

		// The loaded graph keeps working and persisting.
		w = mustWrite(t, loaded, "more", true)
		_, err = w.AddTransaction(1, 4, true)
		require.NoError(t, err)
		require.NoError(t, w.Commit())
		_, err = loaded.Save(context.Background())
		require.NoError(t, err)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(context.Background(), &memPersister{}, "missing")
	assert.True(t, errors.Is(err, agstore.ErrNotFound))

	_, err = FromSnapshot([]byte("garbage"))
	assert.Error(t, err)

	_, err = New().Save(context.Background())
	assert.Error(t, err, "no persister")
}

func TestSnapshotCached(t *testing.T) {
	g := newTestGraph()
	buildScenario(t, g)
	n1, a, err := g.Snapshot()
	require.NoError(t, err)
	n2, b, err := g.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, n1, n2)
	assert.Equal(t, a, b)
}

func TestStats(t *testing.T) {
	g := newTestGraph()
	buildScenario(t, g)
	w := mustWrite(t, g, "parallel", true)
	_, err := w.AddTransaction(1, 0, false)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	s := g.Stats()
	assert.Equal(t, g.ID(), s.ID)
	assert.Equal(t, 5, s.Vertices)
	assert.Equal(t, 6, s.Transactions)
	assert.Equal(t, 5, s.Edges, "undirected 0-1 and 1-0 share an edge")
	assert.Equal(t, 5, s.Links)
	assert.Equal(t, 1, s.Attributes)
	assert.Equal(t, 2, s.UndoDepth)
	assert.Greater(t, s.Chunks, 0)
	assert.Greater(t, s.Bytes, uint64(0))
	assert.Contains(t, s.String(), "5 vertices")
}

func TestArrowRecord(t *testing.T) {
	g := newTestGraph()
	weight := buildScenario(t, g)
	w := mustWrite(t, g, "labels", true)
	label, err := w.EnsureAttribute(agstore.Vertex, attribute.StringTag, "label", "", nil)
	require.NoError(t, err)
	require.NoError(t, w.SetString(label, 2, "two"))
	require.NoError(t, w.Clear(weight, 3))
	require.NoError(t, w.Commit())

	r := g.ReadableGraph()
	defer r.Release()
	rec, err := r.ArrowRecord(agstore.Vertex)
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, int64(5), rec.NumRows())
	require.Equal(t, int64(3), rec.NumCols())
	assert.Equal(t, "weight", rec.ColumnName(1))
	assert.Equal(t, arrow.INT64, rec.Column(1).DataType().ID())
	weights := rec.Column(1).(*array.Int64)
	assert.Equal(t, int64(20), weights.Value(2))
	assert.True(t, weights.IsNull(3), "clear values export as null")
	labels := rec.Column(2).(*array.String)
	assert.Equal(t, "two", labels.Value(2))
	assert.True(t, labels.IsNull(0))

	_, err = r.ArrowRecord(agstore.Edge)
	assert.Error(t, err)
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := newTestGraph(WithRegisterer(reg), WithID("metrics"))
	buildScenario(t, g)
	families, err := reg.Gather()
	require.NoError(t, err)
	found := make(map[string]bool)
	for _, f := range families {
		found[f.GetName()] = true
	}
	assert.True(t, found["agstore_graph_commits_total"])
	assert.True(t, found["agstore_graph_version"])
}

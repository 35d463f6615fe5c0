package graph

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func init() {
	agstore.SetLogMode(agstore.WarningMode)
}

func newTestGraph(opts ...Option) *Graph {
	opts = append([]Option{WithConfig(Config{ChunkSize: 8, InitialCapacity: 4})}, opts...)
	return New(opts...)
}

func mustWrite(t *testing.T, g *Graph, desc string, significant bool) *WritableGraph {
	w, err := g.WritableGraph(context.Background(), desc, significant)
	require.NoError(t, err)
	return w
}

// buildScenario adds the five vertex graph 0-1, 1-2, 1-3, 2-3, 3-4 with a long
// "weight" attribute on vertices.
func buildScenario(t *testing.T, g *Graph) attribute.ID {
	w := mustWrite(t, g, "build", true)
	weight, err := w.EnsureAttribute(agstore.Vertex, attribute.LongTag, "weight", "vertex weight", 0)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		v, err := w.AddVertex()
		require.NoError(t, err)
		require.NoError(t, w.SetLong(weight, v, int64(10*v)))
	}
	for _, p := range [][2]int{{0, 1}, {1, 2}, {1, 3}, {2, 3}, {3, 4}} {
		_, err := w.AddTransaction(p[0], p[1], false)
		require.NoError(t, err)
	}
	require.NoError(t, w.Commit())
	return weight
}

func TestSnapshotIsolation(t *testing.T) {
	g := newTestGraph()
	weight := buildScenario(t, g)

	before := g.ReadableGraph()
	w := mustWrite(t, g, "edit", true)
	v, err := w.AddVertex()
	require.NoError(t, err)
	require.NoError(t, w.SetLong(weight, 0, 99))

	during := g.ReadableGraph()
	assert.Equal(t, 5, during.VertexCount(), "uncommitted vertex invisible")
	assert.Equal(t, 6, w.VertexCount(), "writer sees its own changes")
	require.NoError(t, w.Commit())

	assert.Equal(t, 5, before.VertexCount())
	assert.False(t, before.VertexExists(v))
	old, err := before.GetLong(weight, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), old)

	after := g.ReadableGraph()
	assert.Equal(t, 6, after.VertexCount())
	val, err := after.GetLong(weight, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(99), val)
	assert.Equal(t, g.GlobalModificationCounter(), after.Version())

	for _, r := range []*ReadableGraph{before, during, after} {
		require.NoError(t, r.Release())
	}
}

func TestRollbackRestoresState(t *testing.T) {
	g := newTestGraph()
	weight := buildScenario(t, g)
	before, err := encodeVersion(g.current.Load(), agstore.Uncompressed)
	require.NoError(t, err)
	counter := g.GlobalModificationCounter()

	w := mustWrite(t, g, "doomed", true)
	require.NoError(t, w.RemoveVertex(1))
	v, _ := w.AddVertex()
	require.NoError(t, w.SetLong(weight, v, 7))
	_, err = w.EnsureAttribute(agstore.Transaction, attribute.StringTag, "label", "", nil)
	require.NoError(t, err)
	require.NoError(t, w.SetDefault(weight, int64(-1)))
	require.NoError(t, w.RollBack())

	after, err := encodeVersion(g.current.Load(), agstore.Uncompressed)
	require.NoError(t, err)
	assert.Equal(t, before, after, "rollback leaves the committed state byte for byte")
	assert.Equal(t, counter, g.GlobalModificationCounter(), "rollback does not advance the counter")
	assert.False(t, g.CanRedo())
	assert.Equal(t, "build", g.UndoName(), "rollback adds no undo record")

	// The ids removed in the rolled back session were never released.
	w = mustWrite(t, g, "next", false)
	v, _ = w.AddVertex()
	assert.Equal(t, 5, v)
	require.NoError(t, w.RollBack())
}

func TestCounterAdvancesOncePerCommit(t *testing.T) {
	g := newTestGraph()
	assert.Equal(t, uint64(0), g.GlobalModificationCounter())
	for i := 1; i <= 3; i++ {
		w := mustWrite(t, g, "commit", false)
		require.NoError(t, w.Commit())
		assert.Equal(t, uint64(i), g.GlobalModificationCounter())
	}
	w := mustWrite(t, g, "rollback", false)
	_, _ = w.AddVertex()
	require.NoError(t, w.RollBack())
	assert.Equal(t, uint64(3), g.GlobalModificationCounter())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := New(WithID("metrics"), WithRegisterer(reg))
	assert.Equal(t, agstore.ForGraph("metrics"), g.Log(), "messages are scoped to the graph")
	for i := 0; i < 2; i++ {
		w := mustWrite(t, g, "commit", true)
		_, err := w.AddVertex()
		require.NoError(t, err)
		require.NoError(t, w.Commit())
	}
	w := mustWrite(t, g, "rollback", false)
	require.NoError(t, w.RollBack())
	r := g.ReadableGraph()

	assert.Equal(t, 2.0, testutil.ToFloat64(g.metrics.commits))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.rollbacks))
	assert.Equal(t, 2.0, testutil.ToFloat64(g.metrics.version))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.readers))
	require.NoError(t, r.Release())
	assert.Equal(t, 0.0, testutil.ToFloat64(g.metrics.readers))

	_, err := g.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.replays.WithLabelValues("undo", "ok")))
}

func TestHandlesFinishExactlyOnce(t *testing.T) {
	g := newTestGraph()

	r := g.ReadableGraph()
	require.NoError(t, r.Release())
	err := r.Release()
	require.True(t, agstore.IsIllegalState(err), "second release: %v", err)
	assert.Panics(t, func() { r.VertexCount() }, "reads after release")

	w := mustWrite(t, g, "once", false)
	require.NoError(t, w.RollBack())
	assert.True(t, agstore.IsIllegalState(w.RollBack()))
	assert.True(t, agstore.IsIllegalState(w.Commit()))
	_, err = w.AddVertex()
	assert.True(t, agstore.IsIllegalState(err))

	w = mustWrite(t, g, "once", false)
	require.NoError(t, w.Commit())
	assert.True(t, agstore.IsIllegalState(w.Commit()))
	assert.True(t, agstore.IsIllegalState(w.RollBack()))

	assert.True(t, agstore.IsIllegalState((&WritableGraph{}).Commit()))
	assert.True(t, agstore.IsIllegalState((&ReadableGraph{}).Release()))

	// The lock is still usable after misuse.
	w = mustWrite(t, g, "after", false)
	require.NoError(t, w.Commit())
}

func TestInvalidReferenceLeavesGraphUnchanged(t *testing.T) {
	g := newTestGraph()
	w := mustWrite(t, g, "bad edge", true)
	v, _ := w.AddVertex()
	_, err := w.AddTransaction(v, v+1, true)
	var ire *agstore.InvalidReferenceError
	require.True(t, errors.As(err, &ire), "got %v", err)
	assert.Equal(t, v+1, ire.ID)
	assert.Equal(t, 0, w.TransactionCount())
	assert.Equal(t, 1, w.VertexCount())

	attr, err := w.EnsureAttribute(agstore.Vertex, attribute.LongTag, "x", "", nil)
	require.NoError(t, err)
	assert.True(t, agstore.IsInvalidReference(w.SetLong(attr, v+1, 3)))
	require.NoError(t, w.RollBack())
}

func TestLongStringConversion(t *testing.T) {
	g := newTestGraph()
	w := mustWrite(t, g, "convert", true)
	attr, err := w.EnsureAttribute(agstore.Vertex, attribute.LongTag, "count", "", nil)
	require.NoError(t, err)
	v, _ := w.AddVertex()
	require.NoError(t, w.SetString(attr, v, "42"))
	err = w.SetString(attr, v, "not a long")
	assert.True(t, agstore.IsConversion(err))
	require.NoError(t, w.Commit())

	r := g.ReadableGraph()
	defer r.Release()
	n, err := r.GetLong(attr, v)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Error(t, r.AcceptsString(attr, "4.2"))
	assert.NoError(t, r.AcceptsString(attr, "-4"))
}

func TestEnsureAttribute(t *testing.T) {
	g := newTestGraph()
	w := mustWrite(t, g, "attrs", true)
	a, err := w.EnsureAttribute(agstore.Vertex, attribute.StringTag, "name", "", nil)
	require.NoError(t, err)
	b, err := w.EnsureAttribute(agstore.Vertex, attribute.StringTag, "name", "", nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = w.EnsureAttribute(agstore.Vertex, attribute.DoubleTag, "name", "", nil)
	var ate *agstore.AttributeTypeError
	assert.True(t, errors.As(err, &ate))
	_, err = w.EnsureAttribute(agstore.Link, attribute.DoubleTag, "name", "", nil)
	assert.Error(t, err)

	title, err := w.EnsureAttribute(agstore.GraphElement, attribute.StringTag, "title", "", "untitled")
	require.NoError(t, err)
	require.NoError(t, w.SetString(title, agstore.GraphElementID, "my graph"))
	assert.True(t, agstore.IsInvalidReference(w.SetString(title, 1, "x")))
	require.NoError(t, w.Commit())

	r := g.ReadableGraph()
	defer r.Release()
	s, err := r.GetString(title, agstore.GraphElementID)
	require.NoError(t, err)
	assert.Equal(t, "my graph", s)
	assert.Equal(t, a, r.Attribute(agstore.Vertex, "name"))
	assert.Equal(t, attribute.ID(agstore.NotFound), r.Attribute(agstore.Transaction, "name"))
	info, err := r.AttributeInfo(title)
	require.NoError(t, err)
	assert.Equal(t, agstore.GraphElement, info.ElementType)
}

func TestInterruptedWhileWaiting(t *testing.T) {
	g := newTestGraph()
	holder := mustWrite(t, g, "holder", false)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.WritableGraph(ctx, "waiter", false)
	var ie *agstore.InterruptedError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, "waiter", ie.Description)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	require.NoError(t, holder.Commit())
	w := mustWrite(t, g, "after interrupt", false)
	require.NoError(t, w.Commit())
	assert.Equal(t, uint64(2), g.GlobalModificationCounter())
}

func TestWritersAreSerialized(t *testing.T) {
	g := newTestGraph()
	holder := mustWrite(t, g, "first", false)
	acquired := make(chan struct{})
	go func() {
		w, err := g.WritableGraph(context.Background(), "second", false)
		if err == nil {
			close(acquired)
			w.Commit()
		}
	}()
	select {
	case <-acquired:
		t.Fatalf("second writer acquired the handle while the first was active")
	case <-time.After(20 * time.Millisecond):
	}
	require.NoError(t, holder.Commit())
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatalf("second writer never acquired the handle")
	}
}

func TestConcurrentReadersSeeCommittedState(t *testing.T) {
	g := newTestGraph()
	w := mustWrite(t, g, "setup", false)
	count, err := w.EnsureAttribute(agstore.GraphElement, attribute.IntegerTag, "vertex_count", "", 0)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	ctx, cancel := context.WithCancel(context.Background())
	var eg errgroup.Group
	for i := 0; i < 4; i++ {
		eg.Go(func() error {
			for ctx.Err() == nil {
				r := g.ReadableGraph()
				n, err := r.GetInt(count, agstore.GraphElementID)
				if err != nil {
					return err
				}
				if int(n) != r.VertexCount() {
					return errors.New("reader saw a partially applied write")
				}
				if err := r.Release(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	for i := 0; i < 50; i++ {
		w := mustWrite(t, g, "grow", false)
		_, err := w.AddVertex()
		require.NoError(t, err)
		require.NoError(t, w.SetInt(count, agstore.GraphElementID, int32(w.VertexCount())))
		if i%5 == 4 {
			require.NoError(t, w.RollBack())
			continue
		}
		require.NoError(t, w.Commit())
	}
	cancel()
	require.NoError(t, eg.Wait())
	assert.Equal(t, uint64(41), g.GlobalModificationCounter())
}

func TestUndoRedo(t *testing.T) {
	var mu sync.Mutex
	var events []agstore.CommitEvent
	g := newTestGraph(WithListener(ListenerFunc(func(e agstore.CommitEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})))
	weight := buildScenario(t, g)

	w := mustWrite(t, g, "prune", true)
	require.NoError(t, w.SetLong(weight, 2, 5))
	require.NoError(t, w.RemoveVertex(1))
	require.NoError(t, w.Commit())

	w = mustWrite(t, g, "cosmetic", false)
	require.NoError(t, w.SetLong(weight, 0, 1))
	require.NoError(t, w.Commit())
	assert.Equal(t, "prune", g.UndoName(), "insignificant edits join the previous edit")

	ok, err := g.Undo(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	r := g.ReadableGraph()
	assert.Equal(t, 5, r.VertexCount())
	assert.Equal(t, 5, r.TransactionCount())
	assert.Equal(t, 3, r.VertexTransactionCount(1))
	w1, _ := r.GetLong(weight, 1)
	w2, _ := r.GetLong(weight, 2)
	w0, _ := r.GetLong(weight, 0)
	assert.Equal(t, int64(10), w1, "removed vertex values restored")
	assert.Equal(t, int64(20), w2)
	assert.Equal(t, int64(0), w0, "insignificant change undone with prune")
	require.NoError(t, r.Release())
	assert.Equal(t, "prune", g.RedoName())

	ok, err = g.Redo(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	r = g.ReadableGraph()
	assert.Equal(t, 4, r.VertexCount())
	assert.False(t, r.VertexExists(1))
	w2, _ = r.GetLong(weight, 2)
	w0, _ = r.GetLong(weight, 0)
	assert.Equal(t, int64(5), w2)
	assert.Equal(t, int64(1), w0)
	require.NoError(t, r.Release())

	ok, err = g.Undo(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = g.Undo(context.Background())
	require.NoError(t, err)
	assert.True(t, ok, "build is undoable too")
	r = g.ReadableGraph()
	assert.Equal(t, 0, r.VertexCount())
	require.NoError(t, r.Release())
	ok, err = g.Undo(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "nothing left to undo")

	mu.Lock()
	defer mu.Unlock()
	var tags []agstore.EditTag
	for _, e := range events {
		tags = append(tags, e.Tag)
	}
	assert.Equal(t, []agstore.EditTag{
		agstore.Fresh, agstore.Fresh, agstore.Fresh,
		agstore.Undone, agstore.Redone, agstore.Undone, agstore.Undone,
	}, tags)
	assert.Equal(t, "prune", events[3].Description)
	for i := 1; i < len(events); i++ {
		assert.Equal(t, events[i-1].Version+1, events[i].Version)
	}
}

func TestUndoAfterInsignificantIdReuse(t *testing.T) {
	g := newTestGraph()
	ctx := context.Background()

	w := mustWrite(t, g, "add A", true)
	name, err := w.EnsureAttribute(agstore.Vertex, attribute.StringTag, "name", "", nil)
	require.NoError(t, err)
	a, err := w.AddVertex()
	require.NoError(t, err)
	require.NoError(t, w.SetString(name, a, "A"))
	require.NoError(t, w.Commit())

	w = mustWrite(t, g, "remove A", false)
	require.NoError(t, w.RemoveVertex(a))
	require.NoError(t, w.Commit())

	w = mustWrite(t, g, "add B", false)
	b, err := w.AddVertex()
	require.NoError(t, err)
	require.NoError(t, w.SetString(name, b, "B"))
	require.NoError(t, w.Commit())
	require.Equal(t, a, b, "the freed id is reused")
	assert.Equal(t, "add A", g.UndoName())

	ok, err := g.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	r := g.ReadableGraph()
	assert.Equal(t, 0, r.VertexCount())
	require.NoError(t, r.Release())
	assert.False(t, g.CanUndo())

	ok, err = g.Redo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	r = g.ReadableGraph()
	defer r.Release()
	require.Equal(t, 1, r.VertexCount())
	require.True(t, r.VertexExists(b))
	got, err := r.GetString(name, b)
	require.NoError(t, err)
	assert.Equal(t, "B", got, "redo replays the insignificant sessions too")
}

func TestInsignificantEditDiscardsRedo(t *testing.T) {
	g := newTestGraph()
	ctx := context.Background()
	w := mustWrite(t, g, "add", true)
	_, err := w.AddVertex()
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	ok, err := g.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, g.CanRedo())

	w = mustWrite(t, g, "reuse", false)
	_, err = w.AddVertex()
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	assert.False(t, g.CanRedo())
	assert.False(t, g.CanUndo())
}

func TestReset(t *testing.T) {
	g := newTestGraph()
	buildScenario(t, g)
	require.True(t, g.CanUndo())
	require.NoError(t, g.Reset(context.Background()))
	assert.False(t, g.CanUndo())
	assert.Equal(t, uint64(2), g.GlobalModificationCounter())
	r := g.ReadableGraph()
	defer r.Release()
	assert.Equal(t, 0, r.VertexCount())
	assert.Empty(t, r.Attributes(agstore.Vertex))
}

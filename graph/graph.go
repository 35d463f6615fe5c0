package graph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coocood/freecache"
	"github.com/golang/groupcache/lru"
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/topology"
	"github.com/janelia-flyem/agstore/undo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/twinj/uuid"
	"golang.org/x/sync/semaphore"
)

// CommitListener is notified after every successful commit, in commit order.
// It is called while the writable handle is still held and must not acquire one.
type CommitListener interface {
	GraphCommitted(e agstore.CommitEvent)
}

// ListenerFunc adapts a function to a CommitListener.
type ListenerFunc func(e agstore.CommitEvent)

func (f ListenerFunc) GraphCommitted(e agstore.CommitEvent) { f(e) }

// Option configures a Graph.
type Option func(*Graph)

// WithConfig sets the tunables of the graph.
func WithConfig(cfg Config) Option {
	return func(g *Graph) { g.cfg = cfg }
}

// WithID sets the graph id instead of generating one.
func WithID(id string) Option {
	return func(g *Graph) { g.id = id }
}

// WithRegisterer registers the graph's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Graph) { g.reg = reg }
}

// WithPersister sets where Save writes snapshots.
func WithPersister(p Persister) Option {
	return func(g *Graph) { g.persister = p }
}

// WithListener adds a commit listener.
func WithListener(l CommitListener) Option {
	return func(g *Graph) { g.listeners = append(g.listeners, l) }
}

// Graph is an attributed multigraph with single-writer, multiple-reader access.
type Graph struct {
	id        string
	scope     agstore.Scope
	cfg       Config
	reg       prometheus.Registerer
	persister Persister
	metrics   *Metrics

	sem     *semaphore.Weighted
	writer  atomic.Pointer[WritableGraph]
	current atomic.Pointer[version]
	counter atomic.Uint64
	epochs  atomic.Uint64

	log *undo.Log

	listenersMu sync.RWMutex
	listeners   []CommitListener

	viewsMu   sync.Mutex
	views     *lru.Cache
	snapshots *freecache.Cache
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{sem: semaphore.NewWeighted(1)}
	for _, opt := range opts {
		opt(g)
	}
	if g.id == "" {
		g.id = uuid.NewV4().String()
	}
	g.scope = agstore.ForGraph(g.id)
	g.cfg = g.cfg.withDefaults()
	g.metrics = newMetrics(g.id, g.reg)
	g.log = undo.NewLog(g.cfg.UndoLimit)
	g.views = lru.New(g.cfg.ViewCacheSize)
	g.snapshots = freecache.NewCache(g.cfg.SnapshotCacheBytes)
	g.current.Store(emptyVersion(g.cfg))
	return g
}

// ID returns the unique id of the graph.
func (g *Graph) ID() string {
	return g.id
}

// Log returns the logging scope for messages about this graph.
func (g *Graph) Log() agstore.Scope {
	return g.scope
}

// Config returns the tunables of the graph with defaults applied.
func (g *Graph) Config() Config {
	return g.cfg
}

// GlobalModificationCounter returns the number of commits made to the graph.  It
// only increases and is the version readers acquired after the last commit see.
func (g *Graph) GlobalModificationCounter() uint64 {
	return g.counter.Load()
}

// AddListener adds a commit listener.
func (g *Graph) AddListener(l CommitListener) {
	g.listenersMu.Lock()
	g.listeners = append(g.listeners, l)
	g.listenersMu.Unlock()
}

func (g *Graph) notify(e agstore.CommitEvent) {
	g.listenersMu.RLock()
	defer g.listenersMu.RUnlock()
	for _, l := range g.listeners {
		l.GraphCommitted(e)
	}
}

// ReadableGraph returns a handle on the last committed version.  It never blocks.
func (g *Graph) ReadableGraph() *ReadableGraph {
	g.metrics.readers.Inc()
	return &ReadableGraph{reader: &reader{g: g, v: g.current.Load(), cached: true}}
}

// WritableGraph waits for the writable handle and returns it.  The description
// names the edit in the undo history; only significant edits are recorded there.
// If ctx is done first, an *agstore.InterruptedError is returned.
func (g *Graph) WritableGraph(ctx context.Context, description string, significant bool) (*WritableGraph, error) {
	return g.write(ctx, description, significant, agstore.Fresh)
}

func (g *Graph) write(ctx context.Context, description string, significant bool, tag agstore.EditTag) (*WritableGraph, error) {
	start := time.Now()
	if err := g.sem.Acquire(ctx, 1); err != nil {
		g.scope.Debugf("gave up waiting to write %q: %v\n", description, err)
		return nil, &agstore.InterruptedError{Description: description, Err: err}
	}
	g.metrics.observeWait(start)
	committed := g.current.Load()
	w := &WritableGraph{
		reader:      &reader{g: g, v: committed.fork(g.epochs.Add(1))},
		description: description,
		significant: significant,
		tag:         tag,
		rec:         undo.NewRecorder(),
	}
	g.writer.Store(w)
	return w, nil
}

// endWrite gives up the writable handle.
func (g *Graph) endWrite() {
	g.writer.Store(nil)
	g.sem.Release(1)
}

// CanUndo returns true if there is a significant edit to undo.
func (g *Graph) CanUndo() bool { return g.log.CanUndo() }

// CanRedo returns true if there is an undone edit to redo.
func (g *Graph) CanRedo() bool { return g.log.CanRedo() }

// UndoName returns the description of the edit Undo would revert.
func (g *Graph) UndoName() string { return g.log.UndoName() }

// RedoName returns the description of the edit Redo would apply again.
func (g *Graph) RedoName() string { return g.log.RedoName() }

// Undo reverts the most recent significant edit in a new write session tagged
// agstore.Undone.  It returns false if there was nothing to undo.  If reverting
// fails the session is rolled back and the history is unchanged.
func (g *Graph) Undo(ctx context.Context) (bool, error) {
	return g.replay(ctx, "undo")
}

// Redo applies the most recently undone edit again in a session tagged agstore.Redone.
func (g *Graph) Redo(ctx context.Context) (bool, error) {
	return g.replay(ctx, "redo")
}

func (g *Graph) replay(ctx context.Context, op string) (bool, error) {
	tag := agstore.Undone
	if op == "redo" {
		tag = agstore.Redone
	}
	w, err := g.write(ctx, op, true, tag)
	if err != nil {
		return false, err
	}
	var e *undo.Edit
	if tag == agstore.Undone {
		e = g.log.PeekUndo()
	} else {
		e = g.log.PeekRedo()
	}
	if e == nil {
		return false, w.RollBack()
	}
	w.description = e.Name
	if tag == agstore.Undone {
		err = e.Undo(w)
		w.onCommit = func() { g.log.Undone(e) }
	} else {
		err = e.Redo(w)
		w.onCommit = func() { g.log.Redone(e) }
	}
	if err != nil {
		if rbErr := w.RollBack(); rbErr != nil {
			g.scope.Errorf("unable to roll back failed %s of %q: %v\n", op, e.Name, rbErr)
		}
		g.metrics.replay(op, err)
		return true, fmt.Errorf("%s of %q in graph %s: %w", op, e.Name, g.id, err)
	}
	err = w.Commit()
	g.metrics.replay(op, err)
	return true, err
}

// Reset replaces the graph with an empty one in a single commit and clears the
// undo history.
func (g *Graph) Reset(ctx context.Context) error {
	w, err := g.WritableGraph(ctx, "reset", false)
	if err != nil {
		return err
	}
	fresh := emptyVersion(g.cfg).fork(w.v.topo.Epoch())
	fresh.number = w.v.number
	w.v = fresh
	w.onCommit = g.log.Clear
	return w.Commit()
}

// cachedViews returns the edges and links of a committed version, cached by version.
func (g *Graph) cachedViews(v *version) *topology.Views {
	g.viewsMu.Lock()
	defer g.viewsMu.Unlock()
	if views, found := g.views.Get(v.number); found {
		return views.(*topology.Views)
	}
	views := v.topo.Views()
	g.views.Add(v.number, views)
	return views
}

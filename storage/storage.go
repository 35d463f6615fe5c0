/*
	Package storage provides named persistence engines for graph snapshots and a
	kafka publisher for commit events.

	Each engine registers itself in an init() function, so a program links in the
	engines it wants with blank imports:

		import _ "github.com/janelia-flyem/agstore/storage/badger"

	and opens a store by name:

		store, created, err := storage.Open(storage.Config{Engine: "badger", Path: dir})

	Every Store satisfies graph.Persister.  Values are the opaque snapshot bytes
	produced by the graph package; engines never look inside them.
*/
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blang/semver"
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/graph"
)

// Config describes the store to open.  Engine-specific tuning goes in Settings.
type Config struct {
	Engine   string                 `toml:"engine" json:"engine"`
	Path     string                 `toml:"path" json:"path,omitempty"`
	URL      string                 `toml:"url" json:"url,omitempty"`
	Prefix   string                 `toml:"prefix" json:"prefix,omitempty"`
	InMemory bool                   `toml:"in_memory" json:"in_memory,omitempty"`
	Settings map[string]interface{} `toml:"settings" json:"settings,omitempty"`
}

// GetBool returns a boolean setting and whether it was present.
func (c Config) GetBool(key string) (setting bool, found bool, err error) {
	v, found := c.Settings[key]
	if !found {
		return false, false, nil
	}
	setting, ok := v.(bool)
	if !ok {
		return false, true, fmt.Errorf("setting %q must be a bool, got %v", key, v)
	}
	return setting, true, nil
}

// GetInt returns an integer setting and whether it was present.  TOML and JSON
// numbers are both accepted.
func (c Config) GetInt(key string) (setting int64, found bool, err error) {
	v, found := c.Settings[key]
	if !found {
		return 0, false, nil
	}
	switch x := v.(type) {
	case int:
		return int64(x), true, nil
	case int64:
		return x, true, nil
	case float64:
		if x == float64(int64(x)) {
			return int64(x), true, nil
		}
	}
	return 0, true, fmt.Errorf("setting %q must be an integer, got %v", key, v)
}

// Store persists graph snapshots keyed by graph id.
type Store interface {
	graph.Persister

	// ListSnapshots returns the ids of stored graphs in sorted order.
	ListSnapshots(ctx context.Context) ([]string, error)

	// DeleteSnapshot removes a graph's snapshot.  Deleting a missing snapshot is not an error.
	DeleteSnapshot(ctx context.Context, graphID string) error

	Close() error
	String() string
}

// Engine opens stores of one kind.
type Engine interface {
	GetName() string
	GetDescription() string
	GetSemVer() semver.Version

	// NewStore opens the configured store, returning true if it was newly created.
	NewStore(config Config) (Store, bool, error)
}

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]Engine)
)

// RegisterEngine makes an engine available by name.  Registering a name twice
// replaces the earlier engine.
func RegisterEngine(e Engine) {
	enginesMu.Lock()
	engines[e.GetName()] = e
	enginesMu.Unlock()
}

// GetEngine returns a registered engine or an error listing the available ones.
func GetEngine(name string) (Engine, error) {
	enginesMu.RLock()
	e, found := engines[name]
	enginesMu.RUnlock()
	if !found {
		return nil, fmt.Errorf("storage engine %q is unavailable; engines compiled in: %s", name, EnginesAvailable())
	}
	return e, nil
}

// EnginesAvailable returns a description of the registered engines.
func EnginesAvailable() string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	var descs []string
	for _, e := range engines {
		descs = append(descs, fmt.Sprintf("%s [%s]", e.GetName(), e.GetSemVer()))
	}
	sort.Strings(descs)
	if len(descs) == 0 {
		return "none"
	}
	return strings.Join(descs, ", ")
}

// Open returns a store from the engine named in config.
func Open(config Config) (Store, bool, error) {
	e, err := GetEngine(config.Engine)
	if err != nil {
		return nil, false, err
	}
	s, created, err := e.NewStore(config)
	if err != nil {
		return nil, false, fmt.Errorf("opening %s store: %w", config.Engine, err)
	}
	agstore.Infof("Opened %s (created %t)\n", s, created)
	return s, created, nil
}

const snapshotDir = "snapshots/"

// SnapshotKey returns the key under which a graph's snapshot is stored.
func SnapshotKey(prefix, graphID string) string {
	return prefix + snapshotDir + graphID
}

// GraphIDFromKey is the inverse of SnapshotKey.  It returns false if key is not a
// snapshot key for prefix.
func GraphIDFromKey(prefix, key string) (string, bool) {
	p := prefix + snapshotDir
	if !strings.HasPrefix(key, p) || len(key) == len(p) {
		return "", false
	}
	return key[len(p):], true
}

// SnapshotPrefix returns the key prefix shared by all snapshots.
func SnapshotPrefix(prefix string) string {
	return prefix + snapshotDir
}

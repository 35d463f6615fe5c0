// Package badger registers a storage engine keeping graph snapshots in BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/blang/semver"
	"github.com/dgraph-io/badger/v3"
	"github.com/dustin/go-humanize"
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/storage"
)

const (
	// DefaultVersionsToKeep is the number of versions to keep per key.  Graph
	// versions live inside the snapshot, so badger's own versions are not needed.
	DefaultVersionsToKeep = 1

	// DefaultSyncWrites is true if all writes are synced to disk, thereby making db resilient
	// at cost of speed.
	DefaultSyncWrites = false

	syncInterval = 30 * time.Second
)

func init() {
	storage.RegisterEngine(Engine{"badger", "BadgerDB", semver.MustParse("0.2.0")})
}

// --- Engine Implementation ------

type Engine struct {
	name   string
	desc   string
	semver semver.Version
}

func (e Engine) GetName() string {
	return e.name
}

func (e Engine) GetDescription() string {
	return e.desc
}

func (e Engine) GetSemVer() semver.Version {
	return e.semver
}

func (e Engine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// NewStore returns a badger store.  The config must have a path unless it is in memory.
func (e Engine) NewStore(config storage.Config) (storage.Store, bool, error) {
	return e.newDB(config)
}

// newDB returns a Badger backend, creating one at path if it doesn't exist.
func (e Engine) newDB(config storage.Config) (*BadgerDB, bool, error) {
	path := config.Path
	if path == "" && !config.InMemory {
		return nil, false, fmt.Errorf("%q must be specified for BadgerDB configuration", "path")
	}

	var created bool
	if !config.InMemory {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			agstore.Infof("Database not already at path (%s). Creating directory...\n", path)
			created = true
			if err := os.MkdirAll(path, 0744); err != nil {
				return nil, true, fmt.Errorf("can't make directory at %s: %v", path, err)
			}
		}
	} else {
		created = true
	}

	opts, err := getOptions(path, config)
	if err != nil {
		return nil, false, err
	}

	timedLog := agstore.Timed()
	bdp, err := badger.Open(opts)
	if err != nil {
		return nil, false, err
	}
	db := &BadgerDB{
		directory:  path,
		prefix:     config.Prefix,
		inMemory:   config.InMemory,
		bdp:        bdp,
		stopSyncCh: make(chan struct{}),
	}
	if !config.InMemory && !opts.ReadOnly {
		go db.syncPeriodically()
	}
	timedLog.Infof("Opened badger @ %q\n", db)
	return db, created, nil
}

// BadgerDB is a storage.Store.
type BadgerDB struct {
	directory string
	prefix    string
	inMemory  bool

	bdp        *badger.DB
	stopSyncCh chan struct{}
}

func (db *BadgerDB) String() string {
	if db.inMemory {
		return "badger in memory"
	}
	return "badger @ " + db.directory
}

// Periodically sync to prevent too many writes from being buffered
// if server crashes.
func (db *BadgerDB) syncPeriodically() {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-db.stopSyncCh:
			agstore.Debugf("Stopping sync goroutine for %s\n", db)
			return
		case <-ticker.C:
			if err := db.bdp.Sync(); err != nil {
				agstore.Errorf("Sync of %s failed: %v\n", db, err)
			}
		}
	}
}

// Close stops syncing and closes the database.  Closing twice is a no-op.
func (db *BadgerDB) Close() error {
	if db == nil || db.bdp == nil {
		return nil
	}
	close(db.stopSyncCh)
	err := db.bdp.Close()
	db.bdp = nil
	agstore.Infof("Closed %s\n", db)
	return err
}

func (db *BadgerDB) open() error {
	if db == nil || db.bdp == nil {
		return fmt.Errorf("badger store is closed")
	}
	return nil
}

func (db *BadgerDB) PutSnapshot(ctx context.Context, graphID string, data []byte) error {
	if err := db.open(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	key := []byte(storage.SnapshotKey(db.prefix, graphID))
	err := db.bdp.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("putting snapshot of graph %s: %w", graphID, err)
	}
	agstore.Debugf("Put %s snapshot of graph %s in %s\n", humanize.Bytes(uint64(len(data))), graphID, db)
	return nil
}

func (db *BadgerDB) GetSnapshot(ctx context.Context, graphID string) ([]byte, error) {
	if err := db.open(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := []byte(storage.SnapshotKey(db.prefix, graphID))
	var value []byte
	err := db.bdp.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("graph %s in %s: %w", graphID, db, agstore.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (db *BadgerDB) ListSnapshots(ctx context.Context) ([]string, error) {
	if err := db.open(); err != nil {
		return nil, err
	}
	prefix := []byte(storage.SnapshotPrefix(db.prefix))
	var ids []string
	err := db.bdp.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // key only
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if id, ok := storage.GraphIDFromKey(db.prefix, string(it.Item().Key())); ok {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

func (db *BadgerDB) DeleteSnapshot(ctx context.Context, graphID string) error {
	if err := db.open(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	key := []byte(storage.SnapshotKey(db.prefix, graphID))
	return db.bdp.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

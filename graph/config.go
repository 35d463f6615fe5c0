package graph

import (
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/column"
	"github.com/janelia-flyem/agstore/undo"
)

const (
	DefaultViewCacheSize      = 16
	DefaultSnapshotCacheBytes = 32 * agstore.Mega
)

// Config holds the tunables of a graph.  Zero fields take their defaults.
type Config struct {
	ChunkSize          int    `toml:"chunk_size" json:"chunk_size,omitempty"`
	InitialCapacity    int    `toml:"initial_capacity" json:"initial_capacity,omitempty"`
	UndoLimit          int    `toml:"undo_limit" json:"undo_limit,omitempty"`
	ViewCacheSize      int    `toml:"view_cache_size" json:"view_cache_size,omitempty"`
	SnapshotCacheBytes int    `toml:"snapshot_cache_bytes" json:"snapshot_cache_bytes,omitempty"`
	Compression        string `toml:"compression" json:"compression,omitempty"`
}

// withDefaults returns a copy of c with zero fields set to their defaults.
func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = column.DefaultChunkSize
	}
	if c.InitialCapacity <= 0 {
		c.InitialCapacity = column.DefaultInitialCapacity
	}
	if c.UndoLimit <= 0 {
		c.UndoLimit = undo.DefaultLimit
	}
	if c.ViewCacheSize <= 0 {
		c.ViewCacheSize = DefaultViewCacheSize
	}
	if c.SnapshotCacheBytes <= 0 {
		c.SnapshotCacheBytes = DefaultSnapshotCacheBytes
	}
	return c
}

package badger

import (
	"testing"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/storage"
	"github.com/janelia-flyem/agstore/storage/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	agstore.SetLogMode(agstore.WarningMode)
}

func TestInMemory(t *testing.T) {
	s, created, err := storage.Open(storage.Config{Engine: "badger", InMemory: true})
	require.NoError(t, err)
	defer s.Close()
	assert.True(t, created)
	storetest.Run(t, s)
}

func TestOnDiskReopen(t *testing.T) {
	dir := t.TempDir() + "/db"
	config := storage.Config{Engine: "badger", Path: dir, Prefix: "test/"}

	s, created, err := storage.Open(config)
	require.NoError(t, err)
	assert.True(t, created)
	storetest.RunGraph(t, s)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	s, created, err = storage.Open(config)
	require.NoError(t, err)
	defer s.Close()
	assert.False(t, created)
	storetest.RunGraph(t, s)
}

func TestMissingPath(t *testing.T) {
	_, _, err := storage.Open(storage.Config{Engine: "badger"})
	assert.Error(t, err)
}

func TestBadSetting(t *testing.T) {
	_, _, err := storage.Open(storage.Config{
		Engine:   "badger",
		InMemory: true,
		Settings: map[string]interface{}{"ValueThreshold": "big"},
	})
	assert.Error(t, err)
}

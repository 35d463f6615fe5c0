package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/agstore/agstore"
	_ "github.com/janelia-flyem/agstore/storage/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	agstore.SetLogMode(agstore.WarningMode)
}

const sample = `
[graph]
chunk_size = 64
initial_capacity = 32
undo_limit = 10
compression = "zstd"

[logging]
logfile = "logs/agstore.log"
max_log_size = 20
max_log_age = 7

[store]
engine = "blob"
path = "snapshots"
prefix = "test/"

[store.settings]
ValueThreshold = 1024

[kafka]
servers = ["localhost:9092"]
topic = "commits"
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "agstore.toml")
	require.NoError(t, os.WriteFile(filename, []byte(sample), 0644))

	c, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, filename, c.Location())

	assert.Equal(t, 64, c.Graph.ChunkSize)
	assert.Equal(t, 32, c.Graph.InitialCapacity)
	assert.Equal(t, 10, c.Graph.UndoLimit)
	assert.Equal(t, "zstd", c.Graph.Compression)

	assert.Equal(t, filepath.Join(dir, "logs", "agstore.log"), c.Logging.Logfile)
	assert.Equal(t, 20, c.Logging.MaxSize)
	assert.Equal(t, 7, c.Logging.MaxAge)

	assert.Equal(t, "blob", c.Store.Engine)
	assert.Equal(t, filepath.Join(dir, "snapshots"), c.Store.Path)
	assert.Equal(t, "test/", c.Store.Prefix)
	threshold, found, err := c.Store.GetInt("ValueThreshold")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1024), threshold)

	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Servers)
	assert.Equal(t, "commits", c.Kafka.Topic)
	assert.Len(t, c.GraphOptions(nil), 1)
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	c, err := Parse("[store]\nengine = \"blob\"\npath = \"data\"\n", dir)
	require.NoError(t, err)
	s, err := c.OpenStore()
	require.NoError(t, err)
	require.NotNil(t, s)
	defer s.Close()
	assert.Len(t, c.GraphOptions(s), 2)

	empty, err := Parse("", dir)
	require.NoError(t, err)
	s, err = empty.OpenStore()
	require.NoError(t, err)
	assert.Nil(t, s)
	p, err := empty.Publisher("g")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRelativeFileURL(t *testing.T) {
	c, err := Parse("[store]\nengine = \"blob\"\nurl = \"file://snap\"\n", "/base")
	require.NoError(t, err)
	assert.Equal(t, "file:///base/snap", c.Store.URL)

	c, err = Parse("[store]\nengine = \"blob\"\nurl = \"mem://\"\n", "/base")
	require.NoError(t, err)
	assert.Equal(t, "mem://", c.Store.URL)
}

func TestValidation(t *testing.T) {
	bad := []string{
		"[graph]\nchunk_size = 0\n",
		"[graph]\ncompression = \"lz4\"\n",
		"[graph]\nchunk_sizes = 8\n",
		"[store]\npath = \"x\"\n",
		"[kafka]\nservers = \"localhost\"\n",
		"[server]\nhost = \"x\"\n",
		"not toml ===",
	}
	for _, content := range bad {
		_, err := Parse(content, "/tmp")
		assert.Error(t, err, "content %q", content)
	}
	assert.NoError(t, Validate("[graph]\ncompression = \"snappy\"\n"))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

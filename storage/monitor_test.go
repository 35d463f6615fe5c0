package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	nullStore
	data map[string][]byte
}

func (s *mapStore) PutSnapshot(ctx context.Context, graphID string, data []byte) error {
	s.data[graphID] = data
	return nil
}

func (s *mapStore) GetSnapshot(ctx context.Context, graphID string) ([]byte, error) {
	data, found := s.data[graphID]
	if !found {
		return nil, agstore.ErrNotFound
	}
	return data, nil
}

func TestMonitor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Monitor(&mapStore{data: map[string][]byte{}}, reg)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.PutSnapshot(ctx, "a", make([]byte, 100)))
	require.NoError(t, m.PutSnapshot(ctx, "b", make([]byte, 50)))
	data, err := m.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, data, 100)
	_, err = m.GetSnapshot(ctx, "missing")
	assert.True(t, errors.Is(err, agstore.ErrNotFound))

	assert.Equal(t, 150.0, testutil.ToFloat64(m.bytesWritten))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.bytesRead))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ops.WithLabelValues("put", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("get", "error")))

	m.tick()
	rates := m.Rates()
	assert.Equal(t, 150, rates.BytesWrittenPerSec)
	assert.Equal(t, 2, rates.PutsPerSec)
	assert.Equal(t, 100, rates.BytesReadPerSec)
	assert.Equal(t, 1, rates.GetsPerSec)

	m.tick()
	assert.Equal(t, Rates{}, m.Rates())

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	require.NoError(t, m.Close())
}

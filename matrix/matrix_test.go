package matrix

import (
	"context"
	"testing"

	"github.com/janelia-flyem/agstore/graph"
	"github.com/janelia-flyem/agstore/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const tolerance = 1e-3

func scenario(t *testing.T) *topology.Store {
	s := topology.New(8, 4)
	for i := 0; i < 5; i++ {
		s.AddVertex()
	}
	for _, p := range [][2]int{{0, 1}, {1, 2}, {1, 3}, {2, 3}, {3, 4}} {
		_, err := s.AddTransaction(p[0], p[1], false)
		require.NoError(t, err)
	}
	return s
}

func requireMatrix(t *testing.T, expected [][]float64, got mat.Matrix) {
	t.Helper()
	r, c := got.Dims()
	require.Equal(t, len(expected), r, "rows")
	for i, row := range expected {
		require.Equal(t, len(row), c, "columns")
		for j, v := range row {
			if !assert.InDelta(t, v, got.At(i, j), tolerance, "entry (%d,%d)", i, j) {
				t.Fatalf("matrix mismatch, got\n%v", mat.Formatted(got))
			}
		}
	}
}

func TestScenarioMatrices(t *testing.T) {
	s := scenario(t)

	requireMatrix(t, [][]float64{
		{1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	}, Identity(s))

	requireMatrix(t, [][]float64{
		{0, 1, 0, 0, 0},
		{1, 0, 1, 1, 0},
		{0, 1, 0, 1, 0},
		{0, 1, 1, 0, 1},
		{0, 0, 0, 1, 0},
	}, Adjacency(s))

	requireMatrix(t, [][]float64{
		{1, 0, 0, 0, 0},
		{1, 1, 1, 0, 0},
		{0, 1, 0, 1, 0},
		{0, 0, 1, 1, 1},
		{0, 0, 0, 0, 1},
	}, Incidence(s))

	requireMatrix(t, [][]float64{
		{1, 0, 0, 0, 0},
		{0, 3, 0, 0, 0},
		{0, 0, 2, 0, 0},
		{0, 0, 0, 3, 0},
		{0, 0, 0, 0, 1},
	}, Degree(s))

	laplacian := Laplacian(s)
	requireMatrix(t, [][]float64{
		{1, -1, 0, 0, 0},
		{-1, 3, -1, -1, 0},
		{0, -1, 2, -1, 0},
		{0, -1, -1, 3, -1},
		{0, 0, 0, -1, 1},
	}, laplacian)

	pinv, err := PseudoInverse(laplacian)
	require.NoError(t, err)
	requireMatrix(t, [][]float64{
		{13.0 / 15, 1.0 / 15, -1.0 / 5, -4.0 / 15, -7.0 / 15},
		{1.0 / 15, 4.0 / 15, 0, -1.0 / 15, -4.0 / 15},
		{-1.0 / 5, 0, 2.0 / 5, 0, -1.0 / 5},
		{-4.0 / 15, -1.0 / 15, 0, 4.0 / 15, 1.0 / 15},
		{-7.0 / 15, -4.0 / 15, -1.0 / 5, 1.0 / 15, 13.0 / 15},
	}, pinv)

	// L·L⁺·L = L
	var back mat.Dense
	back.Product(laplacian, pinv, laplacian)
	requireMatrix(t, Rows(laplacian), &back)
}

func TestDirectedAndLoops(t *testing.T) {
	s := topology.New(8, 4)
	a, b := s.AddVertex(), s.AddVertex()
	_, err := s.AddTransaction(a, b, true)
	require.NoError(t, err)
	_, err = s.AddTransaction(a, b, true)
	require.NoError(t, err)
	_, err = s.AddTransaction(b, b, false)
	require.NoError(t, err)

	requireMatrix(t, [][]float64{
		{0, 2},
		{0, 1},
	}, Adjacency(s))
	requireMatrix(t, [][]float64{
		{0, 2},
		{2, 1},
	}, UndirectedAdjacency(s))
	requireMatrix(t, [][]float64{
		{-1, -1, 0},
		{1, 1, 1},
	}, Incidence(s))

	l := Laplacian(s)
	for i, row := range Rows(l) {
		var sum float64
		for _, v := range row {
			sum += v
		}
		assert.InDelta(t, 0, sum, tolerance, "row %d", i)
	}
}

func TestPositionsFollowRemoval(t *testing.T) {
	s := scenario(t)
	_, err := s.RemoveVertex(0)
	require.NoError(t, err)
	require.Equal(t, 4, s.VertexCount())
	d := Degree(s)
	r, c := d.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)
	var total float64
	for i := 0; i < r; i++ {
		total += d.At(i, i)
	}
	assert.Equal(t, float64(2*s.TransactionCount()), total)
}

func TestEmptyGraph(t *testing.T) {
	s := topology.New(8, 4)
	assert.True(t, Identity(s).IsEmpty())
	assert.True(t, Incidence(s).IsEmpty())
	assert.True(t, Laplacian(s).IsEmpty())
	p, err := PseudoInverse(&mat.Dense{})
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestFromGraphHandle(t *testing.T) {
	g := graph.New(graph.WithConfig(graph.Config{ChunkSize: 8}))
	w, err := g.WritableGraph(context.Background(), "triangle", true)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := w.AddVertex()
		require.NoError(t, err)
	}
	for _, p := range [][2]int{{0, 1}, {1, 2}, {2, 0}} {
		_, err := w.AddTransaction(p[0], p[1], false)
		require.NoError(t, err)
	}
	require.NoError(t, w.Commit())

	r := g.ReadableGraph()
	defer r.Release()
	requireMatrix(t, [][]float64{
		{2, -1, -1},
		{-1, 2, -1},
		{-1, -1, 2},
	}, Laplacian(r))
}

package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Topology is the part of a readable or writable graph handle the matrices need.
// *graph.ReadableGraph, *graph.WritableGraph and *topology.Store all satisfy it.
type Topology interface {
	VertexCount() int
	Vertex(position int) int
	VertexPosition(id int) int
	VertexTransactionCount(v int) int
	TransactionCount() int
	Transaction(position int) int
	TransactionSource(id int) int
	TransactionDestination(id int) int
	TransactionDirected(id int) bool
}

// Incidence marks.
const (
	sourceMark      = -1.0
	destinationMark = 1.0
	undirectedMark  = 1.0
)

func square(n int) *mat.Dense {
	if n == 0 {
		return &mat.Dense{}
	}
	return mat.NewDense(n, n, nil)
}

// endpoints returns the vertex positions of the transaction at position p.
func endpoints(g Topology, p int) (src, dst int, directed bool) {
	tx := g.Transaction(p)
	src = g.VertexPosition(g.TransactionSource(tx))
	dst = g.VertexPosition(g.TransactionDestination(tx))
	return src, dst, g.TransactionDirected(tx)
}

// Identity returns the n×n identity where n is the vertex count.
func Identity(g Topology) *mat.Dense {
	m := square(g.VertexCount())
	for i := 0; i < g.VertexCount(); i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Adjacency returns the matrix whose (i,j) entry counts transactions from vertex
// position i to j.  Undirected transactions count in both directions; a loop
// counts once.
func Adjacency(g Topology) *mat.Dense {
	return adjacency(g, false)
}

// UndirectedAdjacency is Adjacency with every transaction treated as undirected.
func UndirectedAdjacency(g Topology) *mat.Dense {
	return adjacency(g, true)
}

func adjacency(g Topology, ignoreDirection bool) *mat.Dense {
	m := square(g.VertexCount())
	for p := 0; p < g.TransactionCount(); p++ {
		src, dst, directed := endpoints(g, p)
		m.Set(src, dst, m.At(src, dst)+1)
		if src != dst && (!directed || ignoreDirection) {
			m.Set(dst, src, m.At(dst, src)+1)
		}
	}
	return m
}

// Incidence returns the vertex by transaction incidence matrix.  A directed
// transaction is -1 at its source and +1 at its destination; an undirected one is
// +1 at both.  Loops are +1.
func Incidence(g Topology) *mat.Dense {
	nv, nt := g.VertexCount(), g.TransactionCount()
	if nv == 0 || nt == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(nv, nt, nil)
	for p := 0; p < nt; p++ {
		src, dst, directed := endpoints(g, p)
		switch {
		case src == dst:
			m.Set(src, p, undirectedMark)
		case directed:
			m.Set(src, p, sourceMark)
			m.Set(dst, p, destinationMark)
		default:
			m.Set(src, p, undirectedMark)
			m.Set(dst, p, undirectedMark)
		}
	}
	return m
}

// Degree returns the diagonal matrix of incident transaction counts.
func Degree(g Topology) *mat.Dense {
	m := square(g.VertexCount())
	for i := 0; i < g.VertexCount(); i++ {
		m.Set(i, i, float64(g.VertexTransactionCount(g.Vertex(i))))
	}
	return m
}

// Laplacian returns Degree - UndirectedAdjacency.  Loops add to both terms and
// cancel, so every row sums to zero.
func Laplacian(g Topology) *mat.Dense {
	m := Degree(g)
	if m.IsEmpty() {
		return m
	}
	m.Sub(m, UndirectedAdjacency(g))
	return m
}

// PseudoInverse returns the Moore-Penrose pseudo-inverse of a computed through a
// singular value decomposition.  Singular values below max(r,c)·ε·σmax are
// treated as zero.
func PseudoInverse(a mat.Matrix) (*mat.Dense, error) {
	r, c := a.Dims()
	if r == 0 || c == 0 {
		return &mat.Dense{}, nil
	}
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("singular value decomposition of %d×%d matrix failed to converge", r, c)
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var tol float64
	if len(values) > 0 {
		tol = float64(max(r, c)) * values[0] * epsilon
	}
	inv := make([]float64, len(values))
	for i, s := range values {
		if s > tol {
			inv[i] = 1 / s
		}
	}

	var scaled mat.Dense
	scaled.Mul(&v, mat.NewDiagDense(len(inv), inv))
	var pinv mat.Dense
	pinv.Mul(&scaled, u.T())
	return &pinv, nil
}

// epsilon is the float64 machine epsilon.
var epsilon = math.Nextafter(1, 2) - 1

// Rows copies m into a slice of rows.
func Rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := range rows[i] {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}

/*
	The tests package provides fixtures shared by tests across agstore packages and
	end-to-end tests that exercise several packages together.
*/
package tests

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/janelia-flyem/agstore/graph"
)

func init() {
	agstore.SetLogMode(agstore.WarningMode)
}

// ScenarioEdges are the transactions of the five vertex scenario graph.
var ScenarioEdges = [][2]int{{0, 1}, {1, 2}, {1, 3}, {2, 3}, {3, 4}}

// NewGraph returns a graph with small chunks so tests cross chunk boundaries.
func NewGraph(opts ...graph.Option) *graph.Graph {
	opts = append([]graph.Option{graph.WithConfig(graph.Config{ChunkSize: 4, InitialCapacity: 2})}, opts...)
	return graph.New(opts...)
}

func mustWrite(g *graph.Graph, description string) *graph.WritableGraph {
	w, err := g.WritableGraph(context.Background(), description, true)
	if err != nil {
		log.Fatalf("Unable to get writable graph: %v\n", err)
	}
	return w
}

// Scenario adds vertices 0..4 and the undirected ScenarioEdges to g and returns a
// long vertex attribute "count" that is clear on every vertex.
func Scenario(g *graph.Graph) attribute.ID {
	w := mustWrite(g, "scenario")
	count, err := w.EnsureAttribute(agstore.Vertex, attribute.LongTag, "count", "a counter", nil)
	if err != nil {
		log.Fatalf("Unable to add attribute: %v\n", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := w.AddVertex(); err != nil {
			log.Fatalf("Unable to add vertex: %v\n", err)
		}
	}
	for _, e := range ScenarioEdges {
		if _, err := w.AddTransaction(e[0], e[1], false); err != nil {
			log.Fatalf("Unable to add transaction %v: %v\n", e, err)
		}
	}
	if err := w.Commit(); err != nil {
		log.Fatalf("Unable to commit scenario: %v\n", err)
	}
	return count
}

// RandomGraph adds vertices and transactions chosen by a seeded source, with a
// double "weight" on transactions and a string "name" on vertices.
func RandomGraph(g *graph.Graph, vertices, transactions int, seed int64) {
	src := rand.New(rand.NewSource(seed))
	w := mustWrite(g, "random graph")
	name, err := w.EnsureAttribute(agstore.Vertex, attribute.StringTag, "name", "", nil)
	if err != nil {
		log.Fatalf("Unable to add attribute: %v\n", err)
	}
	weight, err := w.EnsureAttribute(agstore.Transaction, attribute.DoubleTag, "weight", "", 1.0)
	if err != nil {
		log.Fatalf("Unable to add attribute: %v\n", err)
	}
	ids := make([]int, vertices)
	for i := range ids {
		ids[i], _ = w.AddVertex()
		if src.Intn(3) > 0 {
			if err := w.SetString(name, ids[i], fmt.Sprintf("v%d", ids[i])); err != nil {
				log.Fatalf("Unable to set name: %v\n", err)
			}
		}
	}
	for i := 0; i < transactions && vertices > 0; i++ {
		a, b := ids[src.Intn(vertices)], ids[src.Intn(vertices)]
		tx, err := w.AddTransaction(a, b, src.Intn(2) == 0)
		if err != nil {
			log.Fatalf("Unable to add transaction: %v\n", err)
		}
		if src.Intn(2) == 0 {
			if err := w.SetDouble(weight, tx, src.Float64()); err != nil {
				log.Fatalf("Unable to set weight: %v\n", err)
			}
		}
	}
	if err := w.Commit(); err != nil {
		log.Fatalf("Unable to commit random graph: %v\n", err)
	}
}

// RandomBytes returns a slice of random bytes.
func RandomBytes(numBytes int32, seed int64) []byte {
	buf := make([]byte, numBytes)
	src := rand.NewSource(seed)
	var offset int32
	for {
		val := int64(src.Int63())
		for i := 0; i < 8; i++ {
			if offset >= numBytes {
				return buf
			}
			buf[offset] = byte(val)
			offset++
			val >>= 8
		}
	}
}

package schema

import (
	"context"
	"testing"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/janelia-flyem/agstore/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	agstore.SetLogMode(agstore.WarningMode)
}

var red = attribute.Color{R: 1, A: 1}

func TestDeriveDoesNotInheritPropertiesIncompleteOrRegexes(t *testing.T) {
	parent, err := NewVertexTypeBuilder("Location").
		Description("a place").
		Color(red).
		Icons("pin", "circle").
		DetectionRegex(`loc:.*`).
		ValidationRegex(`[a-z:]+`).
		Property("geo", true).
		Incomplete(true).
		Build()
	require.NoError(t, err)

	child, err := DeriveVertexType(parent, "Country").Build()
	require.NoError(t, err)

	assert.Equal(t, "Country", child.Name)
	assert.Equal(t, parent.Description, child.Description)
	assert.Equal(t, parent.Color, child.Color)
	assert.Equal(t, "pin", child.ForegroundIcon)
	assert.Equal(t, "circle", child.BackgroundIcon)
	assert.Same(t, parent, child.SuperType)

	assert.Nil(t, child.Properties)
	assert.False(t, child.Incomplete)
	assert.Nil(t, child.DetectionRegex)
	assert.Nil(t, child.ValidationRegex)

	assert.Equal(t, "Location.Country", child.Hierarchy())
	assert.True(t, child.IsSubtypeOf(parent))
	assert.False(t, parent.IsSubtypeOf(child))
}

func TestDeriveTransactionType(t *testing.T) {
	parent, err := NewTransactionTypeBuilder("Communication").
		Style(Dashed).
		Directed(true).
		Property("weight", 2).
		Incomplete(true).
		Build()
	require.NoError(t, err)

	child, err := DeriveTransactionType(parent, "Email").Build()
	require.NoError(t, err)
	assert.Equal(t, Dashed, child.Style)
	assert.True(t, child.Directed)
	assert.Nil(t, child.Properties)
	assert.False(t, child.Incomplete)
	assert.Equal(t, "Communication.Email", child.String())
}

func TestBuildErrors(t *testing.T) {
	_, err := NewVertexTypeBuilder("").Build()
	assert.Error(t, err)
	_, err = NewVertexTypeBuilder("Bad").DetectionRegex(`(`).Build()
	assert.Error(t, err)
	_, err = NewTransactionTypeBuilder(" ").Build()
	assert.Error(t, err)
}

func TestBuiltTypesDoNotShareProperties(t *testing.T) {
	b := NewVertexTypeBuilder("Person").Property("a", 1)
	first, err := b.Build()
	require.NoError(t, err)
	b.Property("b", 2)
	assert.Len(t, first.Properties, 1)
}

func TestSchemaRegistry(t *testing.T) {
	s := New("test")
	location, err := NewVertexTypeBuilder("Location").Build()
	require.NoError(t, err)
	country, err := DeriveVertexType(location, "Country").Build()
	require.NoError(t, err)

	assert.Error(t, s.AddVertexType(country), "supertype not registered")
	require.NoError(t, s.AddVertexType(location))
	require.NoError(t, s.AddVertexType(country))
	assert.Error(t, s.AddVertexType(location), "duplicate")

	got, found := s.VertexType("Country")
	require.True(t, found)
	assert.Same(t, country, got)

	var names []string
	for _, vt := range s.VertexTypes() {
		names = append(names, vt.Hierarchy())
	}
	assert.Equal(t, []string{"Location", "Location.Country", "Unknown"}, names)
	assert.Contains(t, s.Chart(), "Location.Country")
}

func TestResolveVertexType(t *testing.T) {
	s := New("test")
	email, err := NewVertexTypeBuilder("Email").DetectionRegex(`[^@\s]+@[^@\s]+`).Build()
	require.NoError(t, err)
	ip, err := NewVertexTypeBuilder("IP").DetectionRegex(`\d+\.\d+\.\d+\.\d+`).Build()
	require.NoError(t, err)
	require.NoError(t, s.AddVertexType(email))
	require.NoError(t, s.AddVertexType(ip))

	assert.Same(t, email, s.ResolveVertexType("someone@example.com"))
	assert.Same(t, ip, s.ResolveVertexType("10.0.0.1"))
	assert.Same(t, UnknownVertexType, s.ResolveVertexType("mail someone@example.com"))
}

func TestApplyAndComplete(t *testing.T) {
	s := New("network")
	ip, err := NewVertexTypeBuilder("IP").Color(red).DetectionRegex(`\d+\.\d+\.\d+\.\d+`).Build()
	require.NoError(t, err)
	require.NoError(t, s.AddVertexType(ip))

	g := graph.New(graph.WithConfig(graph.Config{ChunkSize: 8}))
	w, err := g.WritableGraph(context.Background(), "complete", true)
	require.NoError(t, err)
	attrs, err := s.Apply(w)
	require.NoError(t, err)

	a, _ := w.AddVertex()
	b, _ := w.AddVertex()
	require.NoError(t, w.SetString(attrs.Identifier, a, "192.168.0.1"))
	require.NoError(t, w.SetString(attrs.Identifier, b, "printer"))
	tx, err := w.AddTransaction(a, b, true)
	require.NoError(t, err)

	n, err := s.Complete(w, attrs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, w.Commit())

	r := g.ReadableGraph()
	defer r.Release()
	name, err := r.GetString(attrs.Schema, agstore.GraphElementID)
	require.NoError(t, err)
	assert.Equal(t, "network", name)

	ta, err := r.GetString(attrs.VertexType, a)
	require.NoError(t, err)
	assert.Equal(t, "IP", ta)
	tb, err := r.GetString(attrs.VertexType, b)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", tb)

	ca, err := r.GetObject(attrs.VertexColor, a)
	require.NoError(t, err)
	assert.Equal(t, red, ca)
	ct, err := r.GetObject(attrs.TransactionColor, tx)
	require.NoError(t, err)
	assert.Equal(t, UnknownTransactionType.Color, ct)
}

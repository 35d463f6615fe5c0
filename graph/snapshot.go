package graph

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/blang/semver"
	"github.com/dustin/go-humanize"
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/tinylib/msgp/msgp"
	"golang.org/x/sync/errgroup"
)

const snapshotMagic = "agstore-graph"

// SnapshotVersion is the version of the snapshot encoding.  Snapshots with a
// different major version cannot be decoded.
var SnapshotVersion = semver.MustParse("1.0.0")

// Persister stores encoded graph snapshots by graph id.
type Persister interface {
	PutSnapshot(ctx context.Context, graphID string, data []byte) error

	// GetSnapshot returns agstore.ErrNotFound if there is no snapshot for the graph.
	GetSnapshot(ctx context.Context, graphID string) ([]byte, error)
}

// Snapshot returns the encoding of the last committed version.
func (g *Graph) Snapshot() (Version, []byte, error) {
	v := g.current.Load()
	data, err := g.snapshot(v)
	return v.number, data, err
}

// snapshot encodes a committed version, reusing an earlier encoding if cached.
func (g *Graph) snapshot(v *version) ([]byte, error) {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], v.number)
	if data, err := g.snapshots.Get(key[:]); err == nil {
		return data, nil
	}
	compress, err := agstore.ParseCompression(g.cfg.Compression)
	if err != nil {
		return nil, err
	}
	data, err := encodeVersion(v, compress)
	if err != nil {
		return nil, err
	}
	if err := g.snapshots.Set(key[:], data, 0); err != nil {
		g.scope.Debugf("not caching %s snapshot of version %d: %v\n",
			humanize.Bytes(uint64(len(data))), v.number, err)
	}
	g.metrics.snapshotLen.Observe(float64(len(data)))
	return data, nil
}

// Save writes the last committed version with the graph's persister.
func (g *Graph) Save(ctx context.Context) (Version, error) {
	if g.persister == nil {
		return 0, fmt.Errorf("graph %s has no persister", g.id)
	}
	timedLog := g.scope.Timed()
	number, data, err := g.Snapshot()
	if err != nil {
		return 0, err
	}
	if err := g.persister.PutSnapshot(ctx, g.id, data); err != nil {
		return 0, fmt.Errorf("saving graph %s version %d: %w", g.id, number, err)
	}
	timedLog.Infof("saved version %d (%s)\n", number, humanize.Bytes(uint64(len(data))))
	return number, nil
}

// Load reads the snapshot of a graph from p and returns a new graph with that
// state, an empty undo history and p as its persister.
func Load(ctx context.Context, p Persister, graphID string, opts ...Option) (*Graph, error) {
	data, err := p.GetSnapshot(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("loading graph %s: %w", graphID, err)
	}
	opts = append(opts, WithID(graphID), WithPersister(p))
	return FromSnapshot(data, opts...)
}

// FromSnapshot returns a new graph decoded from a Snapshot encoding.
func FromSnapshot(data []byte, opts ...Option) (*Graph, error) {
	g := New(opts...)
	v, err := decodeVersion(data, g.cfg)
	if err != nil {
		return nil, err
	}
	g.current.Store(v)
	g.counter.Store(v.number)
	g.metrics.version.Set(float64(v.number))
	g.scope.Infof("loaded version %d: %d vertices, %d transactions\n",
		v.number, v.topo.VertexCount(), v.topo.TransactionCount())
	return g, nil
}

func encodeVersion(v *version, compress agstore.Compression) ([]byte, error) {
	var b []byte
	b = msgp.AppendArrayHeader(b, 4)
	b = msgp.AppendUint64(b, v.number)

	vertices := v.elements(agstore.Vertex)
	b = msgp.AppendArrayHeader(b, uint32(len(vertices)))
	for _, id := range vertices {
		b = msgp.AppendInt(b, id)
	}

	transactions := v.elements(agstore.Transaction)
	b = msgp.AppendArrayHeader(b, uint32(len(transactions)))
	for _, id := range transactions {
		b = msgp.AppendArrayHeader(b, 4)
		b = msgp.AppendInt(b, id)
		b = msgp.AppendInt(b, v.topo.TransactionSource(id))
		b = msgp.AppendInt(b, v.topo.TransactionDestination(id))
		b = msgp.AppendBool(b, v.topo.TransactionDirected(id))
	}

	// Attribute values are encoded concurrently; committed versions are immutable.
	n := v.attrs.Len()
	defaults := make([][]byte, n)
	values := make([][]byte, n)
	var eg errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			a, err := v.attrs.Attribute(attribute.ID(i))
			if err != nil {
				return err
			}
			d := v.attrs.Descriptor(a.ID)
			if defaults[i], err = encodeDefault(d); err != nil {
				return fmt.Errorf("encoding default of %s: %w", a, err)
			}
			w := attribute.NewValueWriter()
			for _, id := range v.elements(a.ElementType) {
				d.Save(id, w)
			}
			values[i] = w.Bytes()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	b = msgp.AppendArrayHeader(b, uint32(n))
	for i := 0; i < n; i++ {
		a, _ := v.attrs.Attribute(attribute.ID(i))
		b = msgp.AppendArrayHeader(b, 6)
		b = msgp.AppendUint8(b, uint8(a.ElementType))
		b = msgp.AppendString(b, a.Name)
		b = msgp.AppendString(b, a.Tag)
		b = msgp.AppendString(b, a.Description)
		b = msgp.AppendBytes(b, defaults[i])
		b = msgp.AppendBytes(b, values[i])
	}

	payload, err := agstore.SerializeData(b, compress, agstore.CRC32)
	if err != nil {
		return nil, err
	}
	var out []byte
	out = msgp.AppendArrayHeader(out, 3)
	out = msgp.AppendString(out, snapshotMagic)
	out = msgp.AppendString(out, SnapshotVersion.String())
	out = msgp.AppendBytes(out, payload)
	return out, nil
}

func decodeVersion(data []byte, cfg Config) (*version, error) {
	sz, b, err := msgp.ReadArrayHeaderBytes(data)
	if err != nil || sz != 3 {
		return nil, fmt.Errorf("not a graph snapshot")
	}
	magic, b, err := msgp.ReadStringBytes(b)
	if err != nil || magic != snapshotMagic {
		return nil, fmt.Errorf("not a graph snapshot")
	}
	vstr, b, err := msgp.ReadStringBytes(b)
	if err != nil {
		return nil, err
	}
	ver, err := semver.Parse(vstr)
	if err != nil {
		return nil, fmt.Errorf("bad snapshot version %q: %w", vstr, err)
	}
	if ver.Major != SnapshotVersion.Major {
		return nil, fmt.Errorf("snapshot version %s is incompatible with %s", ver, SnapshotVersion)
	}
	payload, _, err := msgp.ReadBytesZC(b)
	if err != nil {
		return nil, err
	}
	if b, _, err = agstore.DeserializeData(payload, true); err != nil {
		return nil, err
	}

	v := emptyVersion(cfg)
	if sz, b, err = msgp.ReadArrayHeaderBytes(b); err != nil || sz != 4 {
		return nil, fmt.Errorf("corrupt snapshot header: %v", err)
	}
	if v.number, b, err = msgp.ReadUint64Bytes(b); err != nil {
		return nil, err
	}

	if sz, b, err = msgp.ReadArrayHeaderBytes(b); err != nil {
		return nil, err
	}
	for i := uint32(0); i < sz; i++ {
		var id int
		if id, b, err = msgp.ReadIntBytes(b); err != nil {
			return nil, err
		}
		if err := v.topo.RestoreVertex(id); err != nil {
			return nil, err
		}
	}

	if sz, b, err = msgp.ReadArrayHeaderBytes(b); err != nil {
		return nil, err
	}
	for i := uint32(0); i < sz; i++ {
		var fields [3]int
		var directed bool
		if _, b, err = msgp.ReadArrayHeaderBytes(b); err != nil {
			return nil, err
		}
		for f := range fields {
			if fields[f], b, err = msgp.ReadIntBytes(b); err != nil {
				return nil, err
			}
		}
		if directed, b, err = msgp.ReadBoolBytes(b); err != nil {
			return nil, err
		}
		if err := v.topo.RestoreTransaction(fields[0], fields[1], fields[2], directed); err != nil {
			return nil, err
		}
	}

	if sz, b, err = msgp.ReadArrayHeaderBytes(b); err != nil {
		return nil, err
	}
	for i := uint32(0); i < sz; i++ {
		var et uint8
		var name, tag, desc string
		var def, values []byte
		if _, b, err = msgp.ReadArrayHeaderBytes(b); err != nil {
			return nil, err
		}
		if et, b, err = msgp.ReadUint8Bytes(b); err != nil {
			return nil, err
		}
		if name, b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, err
		}
		if tag, b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, err
		}
		if desc, b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, err
		}
		if def, b, err = msgp.ReadBytesZC(b); err != nil {
			return nil, err
		}
		if values, b, err = msgp.ReadBytesZC(b); err != nil {
			return nil, err
		}
		elementType := agstore.ElementType(et)
		id, _, err := v.attrs.Ensure(elementType, tag, name, desc, nil)
		if err != nil {
			return nil, err
		}
		d, err := v.attrs.Writable(id)
		if err != nil {
			return nil, err
		}
		if err := decodeDefault(d, def); err != nil {
			return nil, fmt.Errorf("decoding default of %s attribute %q: %w", elementType, name, err)
		}
		r := attribute.NewValueReader(values)
		for _, elem := range v.elements(elementType) {
			if err := d.Restore(elem, r); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

// encodeDefault encodes a descriptor's default through a scratch descriptor of
// the same type.
func encodeDefault(d attribute.Descriptor) ([]byte, error) {
	scratch, err := attribute.New(d.Tag(), 1)
	if err != nil {
		return nil, err
	}
	if err := scratch.SetObject(0, d.Default()); err != nil {
		return nil, err
	}
	return attribute.SaveValue(scratch, 0), nil
}

func decodeDefault(d attribute.Descriptor, b []byte) error {
	scratch, err := attribute.New(d.Tag(), 1)
	if err != nil {
		return err
	}
	if err := attribute.RestoreValue(scratch, 0, b); err != nil {
		return err
	}
	return d.SetDefault(scratch.GetObject(0))
}

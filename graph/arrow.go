package graph

import (
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
)

func arrowType(n attribute.NativeType) arrow.DataType {
	switch n {
	case attribute.NativeBool:
		return arrow.FixedWidthTypes.Boolean
	case attribute.NativeInt8:
		return arrow.PrimitiveTypes.Int8
	case attribute.NativeInt16:
		return arrow.PrimitiveTypes.Int16
	case attribute.NativeInt32:
		return arrow.PrimitiveTypes.Int32
	case attribute.NativeInt64:
		return arrow.PrimitiveTypes.Int64
	case attribute.NativeFloat32:
		return arrow.PrimitiveTypes.Float32
	case attribute.NativeFloat64:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema returns the schema of ArrowRecord for an element type: an "id" column
// followed by one nullable column per attribute.
func (r *reader) ArrowSchema(et agstore.ElementType) *arrow.Schema {
	v := r.ver()
	attrs := v.attrs.Attributes(et)
	fields := make([]arrow.Field, 0, len(attrs)+1)
	fields = append(fields, arrow.Field{Name: "id", Type: arrow.PrimitiveTypes.Int64})
	for _, a := range attrs {
		d := v.attrs.Descriptor(a.ID)
		fields = append(fields, arrow.Field{
			Name:     a.Name,
			Type:     arrowType(d.NativeType()),
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{"tag"}, []string{a.Tag}),
		})
	}
	return arrow.NewSchema(fields, nil)
}

// ArrowRecord exports the attribute values of every live element of a type, in
// position order.  Clear values are null.  The caller must Release the record.
func (r *reader) ArrowRecord(et agstore.ElementType) (arrow.Record, error) {
	if !et.Stored() {
		return nil, fmt.Errorf("%s elements carry no attributes to export", et)
	}
	v := r.ver()
	schema := r.ArrowSchema(et)
	ids := v.elements(et)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()

	idBuilder := b.Field(0).(*array.Int64Builder)
	for _, id := range ids {
		idBuilder.Append(int64(id))
	}
	for i, a := range v.attrs.Attributes(et) {
		d := v.attrs.Descriptor(a.ID)
		if err := appendColumn(b.Field(i+1), d, ids); err != nil {
			return nil, fmt.Errorf("exporting %s: %w", a, err)
		}
	}
	return b.NewRecord(), nil
}

func appendColumn(fb array.Builder, d attribute.Descriptor, ids []int) error {
	for _, id := range ids {
		if d.IsClear(id) {
			fb.AppendNull()
			continue
		}
		var err error
		switch col := fb.(type) {
		case *array.BooleanBuilder:
			var v bool
			if v, err = d.GetBool(id); err == nil {
				col.Append(v)
			}
		case *array.Int8Builder:
			var v int8
			if v, err = d.GetByte(id); err == nil {
				col.Append(v)
			}
		case *array.Int16Builder:
			var v int16
			if v, err = d.GetShort(id); err == nil {
				col.Append(v)
			}
		case *array.Int32Builder:
			var v int32
			if v, err = d.GetInt(id); err == nil {
				col.Append(v)
			}
		case *array.Int64Builder:
			var v int64
			if v, err = d.GetLong(id); err == nil {
				col.Append(v)
			}
		case *array.Float32Builder:
			var v float32
			if v, err = d.GetFloat(id); err == nil {
				col.Append(v)
			}
		case *array.Float64Builder:
			var v float64
			if v, err = d.GetDouble(id); err == nil {
				col.Append(v)
			}
		case *array.StringBuilder:
			col.Append(d.GetString(id))
		default:
			err = fmt.Errorf("unsupported arrow builder %T", fb)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

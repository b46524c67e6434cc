package types

import (
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
)

// UnionType reads every member independently from the same starting
// offset and advances the cursor by the union's static size (the
// largest member); writing emits the bytes of whichever member was
// last assigned, zero-padded to that size.
type UnionType struct {
	name   string
	fields []Field
	size   int
	align  int
}

func NewUnionType(name string, fields []Field) *UnionType {
	size, align := 0, 1
	for _, f := range fields {
		if f.Type.Size() > size {
			size = f.Type.Size()
		}
		if f.Type.Alignment() > align {
			align = f.Type.Alignment()
		}
	}
	return &UnionType{name: name, fields: fields, size: size, align: align}
}

func (t *UnionType) Name() string    { return t.name }
func (t *UnionType) Fields() []Field { return t.fields }
func (t *UnionType) Size() int       { return t.size }
func (t *UnionType) Alignment() int  { return t.align }
func (t *UnionType) IsDynamic() bool { return false }

func (t *UnionType) Default() Value {
	rec := NewRecord()
	t.fillDefaults(rec)
	return StructValue(t, rec)
}

func (t *UnionType) fillDefaults(rec *Record) {
	for _, f := range t.fields {
		def := f.Type.Default()
		if f.Anonymous && def.Kind() == KindStruct {
			rec.Merge(def.Record())
			continue
		}
		rec.Set(f.Name, def)
	}
}

func (t *UnionType) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	raw, err := cur.ReadExact(t.size)
	if err != nil {
		return Value{}, err
	}
	rec := NewRecord()
	for _, f := range t.fields {
		sub := cursor.NewReaderBytes(raw)
		v, err := f.Type.Read(sub, scope, ctx)
		if err != nil {
			return Value{}, err
		}
		if f.Anonymous && v.Kind() == KindStruct {
			if dup, has := rec.Merge(v.Record()); has {
				return Value{}, cerrors.New(cerrors.DuplicateField, "field %q collides with a promoted anonymous field", dup).AtField(t.name)
			}
		} else {
			rec.Set(f.Name, v)
		}
	}
	rec.lastSet = "" // a freshly-read union has no "last assigned" member
	return StructValue(t, rec), nil
}

func (t *UnionType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	rec := v.Record()
	name := rec.LastSet()
	if name == "" && len(t.fields) > 0 {
		name = t.fields[0].Name
	}
	var fieldType Type
	for _, f := range t.fields {
		if f.Name == name {
			fieldType = f.Type
			break
		}
	}
	buf, sink := cursor.NewWriterBuffer()
	if fieldType != nil {
		fv, ok := rec.Get(name)
		if !ok {
			fv = fieldType.Default()
		}
		if err := fieldType.Write(buf, fv, ctx); err != nil {
			return err
		}
	}
	out := make([]byte, t.size)
	copy(out, sink.Bytes())
	_, err := cur.Write(out)
	return err
}

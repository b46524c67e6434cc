package types

import (
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
)

// Field is one member of a Structure or Union: a name, its type, and
// an optional bit width marking it as a bitfield member. Anonymous
// marks a nested struct/union declared without its own declarator
// name, whose fields are promoted directly onto the enclosing
// Record.
type Field struct {
	Name      string
	Type      Type
	BitWidth  *int
	Anonymous bool
}

// bitStorage reports the field type's storage width (in bits) and
// endianness for bitfield packing, and whether it is eligible at all
// (only integer-based types -- plain integers and integer-backed
// enums/flags -- may be bitfields).
func bitStorage(t Type) (bits int, endian Endianness, ok bool) {
	switch v := t.(type) {
	case *IntegerType:
		return v.Bits(), v.Endian(), true
	case *EnumType:
		return v.Base().Bits(), v.Base().Endian(), true
	case *FlagType:
		return v.Base().Bits(), v.Base().Endian(), true
	default:
		return 0, 0, false
	}
}

func bitSigned(t Type) bool {
	if it, ok := t.(*IntegerType); ok {
		return it.Signed()
	}
	return false
}

// bitRun tracks the in-progress storage unit for a run of consecutive
// bitfields sharing a storage type: all subsequent extraction happens
// against the in-memory unit value, not the cursor, until the run is
// flushed.
type bitRun struct {
	storageBits int
	endian      Endianness
	unit        uint64
	bitpos      int
}

func maskBits(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(n)) - 1
}

// extract pulls the next n bits out of the run's unit, per the
// endianness rule: little-endian storage packs fields from the LSB
// upward, big-endian from the MSB downward.
func (r *bitRun) extract(n int) uint64 {
	var v uint64
	if r.endian == BigEndian {
		shift := r.storageBits - r.bitpos - n
		v = (r.unit >> uint(shift)) & maskBits(n)
	} else {
		v = (r.unit >> uint(r.bitpos)) & maskBits(n)
	}
	r.bitpos += n
	return v
}

// deposit is extract's write-side counterpart: ORs an n-bit value into
// the run's unit at the current bit position.
func (r *bitRun) deposit(n int, val uint64) {
	val &= maskBits(n)
	if r.endian == BigEndian {
		shift := r.storageBits - r.bitpos - n
		r.unit |= val << uint(shift)
	} else {
		r.unit |= val << uint(r.bitpos)
	}
	r.bitpos += n
}

// StructType is an ordered sequence of Fields with C-style packed
// layout (no implicit alignment padding -- the source library this
// generalizes from packs fields back-to-back, relying on explicit
// bitfields and padding fields for anything else).
type StructType struct {
	name    string
	fields  []Field
	size    int
	align   int
	dynamic bool
}

// NewStructType computes the static layout once at construction by
// simulating the same bitfield-run grouping Read performs, so Size()
// never needs to touch a cursor.
func NewStructType(name string, fields []Field) *StructType {
	size, align, dynamic := simulateLayout(fields)
	return &StructType{name: name, fields: fields, size: size, align: align, dynamic: dynamic}
}

func simulateLayout(fields []Field) (size, align int, dynamic bool) {
	var run *bitRun
	flush := func() {
		if run != nil {
			size += run.storageBits / 8
			run = nil
		}
	}
	for _, f := range fields {
		if f.BitWidth != nil {
			bits, endian, ok := bitStorage(f.Type)
			if !ok {
				dynamic = true
				continue
			}
			if align < bits/8 {
				align = bits / 8
			}
			if run == nil || run.storageBits != bits || run.endian != endian || run.bitpos+*f.BitWidth > run.storageBits {
				flush()
				run = &bitRun{storageBits: bits, endian: endian}
			}
			run.bitpos += *f.BitWidth
			continue
		}
		flush()
		if f.Type.IsDynamic() {
			dynamic = true
			continue
		}
		size += f.Type.Size()
		if f.Type.Alignment() > align {
			align = f.Type.Alignment()
		}
	}
	flush()
	if align == 0 {
		align = 1
	}
	if dynamic {
		return Dynamic, align, true
	}
	return size, align, false
}

func (t *StructType) Name() string     { return t.name }
func (t *StructType) Fields() []Field  { return t.fields }
func (t *StructType) Size() int        { return t.size }
func (t *StructType) Alignment() int   { return t.align }
func (t *StructType) IsDynamic() bool  { return t.dynamic }

func (t *StructType) Default() Value {
	rec := NewRecord()
	t.fillDefaults(rec)
	return StructValue(t, rec)
}

func (t *StructType) fillDefaults(rec *Record) {
	for _, f := range t.fields {
		def := f.Type.Default()
		if f.Anonymous {
			if st, ok := f.Type.(*StructType); ok {
				inner := NewRecord()
				st.fillDefaults(inner)
				rec.Merge(inner)
				continue
			}
			if ut, ok := f.Type.(*UnionType); ok {
				inner := NewRecord()
				ut.fillDefaults(inner)
				rec.Merge(inner)
				continue
			}
		}
		rec.Set(f.Name, def)
	}
}

func (t *StructType) Read(cur *cursor.Cursor, outerScope *Scope, ctx Context) (Value, error) {
	rec := NewRecord()
	scope := NewScope(ctx)
	if outerScope != nil {
		for k, v := range outerScope.Fields {
			scope.Fields[k] = v
		}
	}

	var run *bitRun
	flush := func() {
		run = nil
	}
	startRun := func(bits int, endian Endianness) error {
		raw, err := cur.ReadExact(bits / 8)
		if err != nil {
			return err
		}
		run = &bitRun{storageBits: bits, endian: endian, unit: decodeUint(raw, endian)}
		return nil
	}

	for _, f := range t.fields {
		if f.BitWidth != nil {
			bits, endian, ok := bitStorage(f.Type)
			if !ok {
				return Value{}, cerrors.New(cerrors.InvalidBitfield, "field %q has a non-integer bitfield storage type", f.Name).AtField(t.name)
			}
			if *f.BitWidth > bits {
				return Value{}, cerrors.New(cerrors.InvalidBitfield, "field %q bit width %d exceeds storage width %d", f.Name, *f.BitWidth, bits).AtField(t.name)
			}
			if run == nil || run.storageBits != bits || run.endian != endian || run.bitpos+*f.BitWidth > run.storageBits {
				flush()
				if err := startRun(bits, endian); err != nil {
					return Value{}, err
				}
			}
			raw := run.extract(*f.BitWidth)
			iv := signExtend(raw, *f.BitWidth, bitSigned(f.Type))
			v := IntValue(f.Type, iv)
			rec.Set(f.Name, v)
			scope.Fields[f.Name] = iv
			continue
		}

		flush()
		v, err := f.Type.Read(cur, scope, ctx)
		if err != nil {
			return Value{}, cerrors.Wrap(cerrors.Truncated, err, "reading field %q", f.Name).AtField(t.name)
		}
		if f.Anonymous && v.Kind() == KindStruct {
			if dup, has := rec.Merge(v.Record()); has {
				return Value{}, cerrors.New(cerrors.DuplicateField, "field %q collides with a promoted anonymous field", dup).AtField(t.name)
			}
		} else {
			rec.Set(f.Name, v)
		}
		if v.Kind() == KindInt {
			scope.Fields[f.Name] = v.Int()
		}
	}
	flush()
	return StructValue(t, rec), nil
}

func (t *StructType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	rec := v.Record()
	var run *bitRun
	flushWrite := func() error {
		if run == nil {
			return nil
		}
		raw := encodeUint(run.unit, run.storageBits/8, run.endian)
		_, err := cur.Write(raw)
		run = nil
		return err
	}

	for _, f := range t.fields {
		if f.BitWidth != nil {
			bits, endian, ok := bitStorage(f.Type)
			if !ok {
				return cerrors.New(cerrors.InvalidBitfield, "field %q has a non-integer bitfield storage type", f.Name).AtField(t.name)
			}
			if run == nil || run.storageBits != bits || run.endian != endian || run.bitpos+*f.BitWidth > run.storageBits {
				if err := flushWrite(); err != nil {
					return err
				}
				run = &bitRun{storageBits: bits, endian: endian}
			}
			fv, ok := rec.Get(f.Name)
			if !ok {
				fv = f.Type.Default()
			}
			run.deposit(*f.BitWidth, uint64(fv.Int()))
			continue
		}

		if err := flushWrite(); err != nil {
			return err
		}
		if f.Anonymous {
			inner := buildAnonymousValue(f.Type, rec)
			if err := f.Type.Write(cur, inner, ctx); err != nil {
				return err
			}
			continue
		}
		fv, ok := rec.Get(f.Name)
		if !ok {
			fv = f.Type.Default()
		}
		if err := f.Type.Write(cur, fv, ctx); err != nil {
			return cerrors.Wrap(cerrors.ValueOutOfRange, err, "writing field %q", f.Name).AtField(t.name)
		}
	}
	return flushWrite()
}

// buildAnonymousValue reconstructs the inner struct/union Value for
// an anonymous field from the outer Record's promoted entries, the
// write-side inverse of the read-side Merge.
func buildAnonymousValue(t Type, outer *Record) Value {
	switch it := t.(type) {
	case *StructType:
		inner := NewRecord()
		for _, f := range it.fields {
			if f.Anonymous {
				continue
			}
			if v, ok := outer.Get(f.Name); ok {
				inner.Set(f.Name, v)
			}
		}
		return StructValue(t, inner)
	case *UnionType:
		inner := NewRecord()
		for _, f := range it.fields {
			if v, ok := outer.Get(f.Name); ok {
				inner.Set(f.Name, v)
			}
		}
		return StructValue(t, inner)
	default:
		return t.Default()
	}
}

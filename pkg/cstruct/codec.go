package cstruct

import (
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/types"
)

// Decode parses data against t, the byte-level entry point behind a
// "T(bytes)" style invocation.
func (r *Registry) Decode(t types.Type, data []byte) (types.Value, error) {
	cur := cursor.NewReaderBytes(data)
	return t.Read(cur, types.NewScope(r), r)
}

// Encode emits v's bytes per its Type's Write.
func (r *Registry) Encode(t types.Type, v types.Value) ([]byte, error) {
	cur, buf := cursor.NewWriterBuffer()
	if err := t.Write(cur, v, r); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// Dump renders v per the value model's rendering rules: integers in
// decimal, enums/flags by member name, character arrays as quoted
// byte strings.
func Dump(v types.Value) string { return v.String() }

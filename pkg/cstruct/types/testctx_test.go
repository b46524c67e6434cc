package types_test

import "github.com/fox-it/dissect.cstruct/pkg/cstruct/types"

// testCtx is a minimal types.Context for exercising codecs in
// isolation, without pulling in the registry facade.
type testCtx struct {
	endian  types.Endianness
	ptrSize int
	consts  map[string]int64
	named   map[string]types.Type
}

func newTestCtx() *testCtx {
	return &testCtx{endian: types.LittleEndian, ptrSize: 8, consts: map[string]int64{}, named: map[string]types.Type{}}
}

func (c *testCtx) Endianness() types.Endianness { return c.endian }
func (c *testCtx) PointerSize() int              { return c.ptrSize }
func (c *testCtx) LookupConst(name string) (int64, bool) { v, ok := c.consts[name]; return v, ok }
func (c *testCtx) SizeOf(name string) (int, bool) {
	t, ok := c.named[name]
	if !ok || t.IsDynamic() {
		return 0, false
	}
	return t.Size(), true
}
func (c *testCtx) Resolve(name string) (types.Type, bool) { t, ok := c.named[name]; return t, ok }

var _ types.Context = (*testCtx)(nil)

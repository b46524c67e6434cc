package cstruct

import (
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/parser"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/types"
)

// stagingEnv buffers the types and constants declared during one
// Load call, reading through to the base Registry for anything not
// yet declared in this call, so later declarations in the same
// source can reference earlier ones. Registry.Load only merges the
// buffer into the real registry once parsing succeeds end to end,
// giving Load its transactional, all-or-nothing semantics without
// any rollback logic.
type stagingEnv struct {
	base   *Registry
	types  map[string]types.Type
	consts map[string]int64
}

func newStagingEnv(base *Registry) *stagingEnv {
	return &stagingEnv{base: base, types: make(map[string]types.Type), consts: make(map[string]int64)}
}

var _ parser.TypeEnv = (*stagingEnv)(nil)

func (s *stagingEnv) Endianness() types.Endianness { return s.base.Endianness() }
func (s *stagingEnv) PointerSize() int              { return s.base.PointerSize() }

func (s *stagingEnv) Resolve(name string) (types.Type, bool) {
	if t, ok := s.types[name]; ok {
		return t, true
	}
	return s.base.Resolve(name)
}

func (s *stagingEnv) Define(name string, t types.Type) error {
	if existing, ok := s.types[name]; ok {
		if !isForwardDecl(existing) {
			return cerrors.New(cerrors.Redefinition, "type %q is already defined", name)
		}
		s.types[name] = t
		return nil
	}
	if existing, ok := s.base.Resolve(name); ok && !isForwardDecl(existing) {
		return cerrors.New(cerrors.Redefinition, "type %q is already defined", name)
	}
	s.types[name] = t
	return nil
}

func (s *stagingEnv) LookupConst(name string) (int64, bool) {
	if v, ok := s.consts[name]; ok {
		return v, true
	}
	return s.base.LookupConst(name)
}

func (s *stagingEnv) DefineConst(name string, v int64) error {
	if existing, ok := s.consts[name]; ok && existing != v {
		return cerrors.New(cerrors.Redefinition, "constant %q is already defined as %d", name, existing)
	}
	s.consts[name] = v
	return nil
}

func (s *stagingEnv) SizeOf(name string) (int, bool) {
	t, ok := s.Resolve(name)
	if !ok || t.IsDynamic() {
		return 0, false
	}
	return t.Size(), true
}

// Package cstruct is the facade: a Registry bundling endianness/
// pointer-size configuration, the declared-name type map, and
// preprocessor constants behind a single entry point for loading
// definitions and decoding/encoding values against them.
package cstruct

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/parser"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/token"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/types"
)

// Registry owns the name->Type map, preprocessor constants, and
// endianness/pointer-size defaults for one independent type universe.
// A zero-value Registry is not usable; construct with New.
type Registry struct {
	mu      sync.Mutex
	types   map[string]types.Type
	consts  map[string]int64
	endian  types.Endianness
	ptrSize int
	logger  *zap.Logger
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithEndianness sets the registry's default endianness. Types
// declared without an explicit override inherit this.
func WithEndianness(e types.Endianness) Option {
	return func(r *Registry) { r.endian = e }
}

// WithPointerSize sets the width, in bytes, of pointer-typed fields.
func WithPointerSize(n int) Option {
	return func(r *Registry) { r.ptrSize = n }
}

// WithLogger attaches a zap logger for non-fatal parse notices (an
// ignored #include or other unsupported directive). The default is a
// no-op logger: a library must not log unless asked to.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New creates a Registry with little-endian, 8-byte-pointer defaults
// unless overridden, pre-populated with every primitive base type.
func New(opts ...Option) *Registry {
	r := &Registry{
		types:   make(map[string]types.Type),
		consts:  make(map[string]int64),
		endian:  types.LittleEndian,
		ptrSize: 8,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registerPrimitives()
	return r
}

var _ parser.TypeEnv = (*Registry)(nil)
var _ types.Context = (*Registry)(nil)

func (r *Registry) Endianness() types.Endianness { return r.endian }
func (r *Registry) PointerSize() int              { return r.ptrSize }

// Resolve looks up a named type. It is safe to call concurrently with
// other reads; types are immutable once published.
func (r *Registry) Resolve(name string) (types.Type, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.types[name]
	return t, ok
}

// Lookup is the public spelling of Resolve.
func (r *Registry) Lookup(name string) (types.Type, bool) { return r.Resolve(name) }

// Names returns every registered type name, sorted, including
// primitives, declared structs/unions/enums/typedefs, and custom
// types added via AddCustomType.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupConst looks up a registered preprocessor constant.
func (r *Registry) LookupConst(name string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.consts[name]
	return v, ok
}

// SizeOf returns a named type's static size, for sizeof() expressions.
// It reports false for dynamically-sized types.
func (r *Registry) SizeOf(name string) (int, bool) {
	t, ok := r.Resolve(name)
	if !ok || t.IsDynamic() {
		return 0, false
	}
	return t.Size(), true
}

// Define registers a new named type, failing with Redefinition if the
// name already maps to a complete type. The new type is not compared
// with the existing one, so redefining a name with an identical layout
// fails too. A prior forward declaration (an incomplete struct/union
// with no fields yet) may always be completed.
func (r *Registry) Define(name string, t types.Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.types[name]; ok {
		if !isForwardDecl(existing) {
			return cerrors.New(cerrors.Redefinition, "type %q is already defined", name)
		}
	}
	r.types[name] = t
	return nil
}

func isForwardDecl(t types.Type) bool {
	switch v := t.(type) {
	case *types.StructType:
		return len(v.Fields()) == 0
	case *types.UnionType:
		return len(v.Fields()) == 0
	default:
		return false
	}
}

// DefineConst registers a preprocessor constant, failing with
// Redefinition if the name already holds a different value.
func (r *Registry) DefineConst(name string, v int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.consts[name]; ok && existing != v {
		return cerrors.New(cerrors.Redefinition, "constant %q is already defined as %d", name, existing)
	}
	r.consts[name] = v
	return nil
}

// AddCustomType registers a user-provided codec directly, bypassing
// the parser: any types.Type implementation with a name, size/
// alignment, and a read/write pair qualifies.
func (r *Registry) AddCustomType(name string, t types.Type) error {
	return r.Define(name, t)
}

// Typedef registers alias as a transparent name for the already
// registered type target.
func (r *Registry) Typedef(alias, target string) error {
	t, ok := r.Resolve(target)
	if !ok {
		return cerrors.New(cerrors.UnknownType, "typedef target %q is not registered", target)
	}
	return r.Define(alias, types.NewTypedefType(alias, t))
}

// Load parses text and merges its declarations into the registry.
// Load is transactional: if any declaration fails, nothing from this
// call is committed, implemented by parsing against a staging
// environment and merging only on success.
func (r *Registry) Load(text string) error {
	staging := newStagingEnv(r)
	warn := func(format string, args ...any) {
		r.logger.Sugar().Warnf(format, args...)
	}
	if err := parser.Parse(text, staging, token.WarnFunc(warn)); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, t := range staging.types {
		r.types[name] = t
	}
	for name, v := range staging.consts {
		r.consts[name] = v
	}
	return nil
}

// MustLoad is Load, panicking on error. Intended for tests and
// init-time template-style loading, not for library consumers parsing
// untrusted input.
func (r *Registry) MustLoad(text string) {
	if err := r.Load(text); err != nil {
		panic(err)
	}
}

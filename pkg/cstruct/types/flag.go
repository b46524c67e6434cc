package types

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
)

// FlagType is like EnumType but its values are conventionally
// OR-combined bitmasks; rendering decomposes the raw value into
// member names joined by "|", with any leftover bits shown as a
// trailing hex literal.
type FlagType struct {
	name    string
	base    *IntegerType
	members []EnumMember
	byName  map[string]int64
}

func NewFlagType(name string, base *IntegerType, members []EnumMember) *FlagType {
	f := &FlagType{name: name, base: base, members: members, byName: make(map[string]int64, len(members))}
	for _, m := range members {
		f.byName[m.Name] = m.Value
	}
	return f
}

func (t *FlagType) Name() string      { return t.name }
func (t *FlagType) Size() int         { return t.base.Size() }
func (t *FlagType) Alignment() int    { return t.base.Alignment() }
func (t *FlagType) IsDynamic() bool   { return false }
func (t *FlagType) Base() *IntegerType { return t.base }
func (t *FlagType) Members() []EnumMember { return t.members }
func (t *FlagType) Default() Value    { return IntValue(t, 0) }

func (t *FlagType) ByName(name string) (int64, bool) {
	v, ok := t.byName[name]
	return v, ok
}

func (t *FlagType) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	v, err := t.base.Read(cur, scope, ctx)
	if err != nil {
		return Value{}, err
	}
	return IntValue(t, v.Int()).WithRaw(v.Raw()), nil
}

func (t *FlagType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	return t.base.Write(cur, IntValue(t.base, v.Int()), ctx)
}

// Render decomposes the raw value into member names: single-bit
// members first, listed in declaration order, then multi-bit members,
// and shows any residual bits that matched no member as a trailing hex
// literal.
func (t *FlagType) Render(v Value) string {
	remaining := uint64(v.Int())
	var parts []string

	single := make([]EnumMember, 0, len(t.members))
	for _, m := range t.members {
		if m.Value != 0 && m.Value&(m.Value-1) == 0 {
			single = append(single, m)
		}
	}
	for _, m := range single {
		if remaining&uint64(m.Value) == uint64(m.Value) {
			parts = append(parts, m.Name)
			remaining &^= uint64(m.Value)
		}
	}
	// Multi-bit named combinations that exactly cover remaining bits
	// are also recognized, matched longest (most bits) first.
	byWidth := append([]EnumMember(nil), t.members...)
	sort.SliceStable(byWidth, func(i, j int) bool {
		return bits.OnesCount64(uint64(byWidth[i].Value)) > bits.OnesCount64(uint64(byWidth[j].Value))
	})
	for {
		matched := false
		for _, m := range byWidth {
			if m.Value == 0 {
				continue
			}
			mv := uint64(m.Value)
			if mv&(mv-1) == 0 {
				continue // single-bit, already handled above
			}
			if remaining&mv == mv {
				parts = append(parts, m.Name)
				remaining &^= mv
				matched = true
			}
		}
		if !matched {
			break
		}
	}
	if remaining != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", remaining))
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}

// Package symtab implements the assembler's symbol table: a dotted-name to
// value map with explicit tracking of symbols accessed before they were
// defined, so that the pass driver knows when another pass is needed.
package symtab

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/badass-asm/badass/value"
)

// Symbol is a single entry: a value plus whether it may only be set once.
type Symbol struct {
	Value value.Value
	Final bool
}

// Table tracks symbol values across assembly passes, distinguishing
// final (pass-invariant) bindings from ones that may still change.
type Table struct {
	syms      map[string]*Symbol
	undefined map[string]bool
	accessed  map[string]bool
	// AllowUndefined controls whether Get may synthesize a forward
	// reference. It is false only during the final pass.
	AllowUndefined bool
}

// New creates an empty symbol table with AllowUndefined set, as is
// appropriate for every pass but the last.
func New() *Table {
	return &Table{
		syms:           make(map[string]*Symbol),
		undefined:      make(map[string]bool),
		accessed:       make(map[string]bool),
		AllowUndefined: true,
	}
}

// ErrFinal is returned by Set when writing to a final symbol that is
// already defined.
var ErrFinal = errors.New("cannot reassign a final symbol")

// ErrUndefined is returned by Get when the name is absent and
// AllowUndefined is false.
var ErrUndefined = errors.New("undefined symbol")

// Set writes a value under name. If name is in the accessed set and the new
// value differs from what is already stored, name is reinserted into the
// undefined set: a reader already consumed a stale value, so another pass
// must re-converge. Assigning a Map value unfolds into dotted
// sub-assignments, one per map entry.
func (t *Table) Set(name string, v value.Value) error {
	if v.Kind() == value.Map {
		for k, sub := range v.MapView() {
			if err := t.Set(name+"."+k, sub); err != nil {
				return err
			}
		}
		return nil
	}
	if s, ok := t.syms[name]; ok {
		if s.Final && !t.undefined[name] {
			return errors.Wrapf(ErrFinal, "symbol %q", name)
		}
		changed := !value.Equal(s.Value, v)
		s.Value = v
		delete(t.undefined, name)
		if changed && t.accessed[name] {
			t.undefined[name] = true
		}
		return nil
	}
	t.syms[name] = &Symbol{Value: v}
	delete(t.undefined, name)
	return nil
}

// SetFinal is like Set but marks the symbol final once written.
func (t *Table) SetFinal(name string, v value.Value) error {
	if err := t.Set(name, v); err != nil {
		return err
	}
	t.syms[name].Final = true
	return nil
}

// Get reads a value under name, recording the read in the accessed set. If
// the name is absent: when AllowUndefined is true, the name is inserted
// into undefined and Value.Zero is returned so that a first pass can make
// progress through forward references; when false, ErrUndefined is
// returned.
func (t *Table) Get(name string) (value.Value, error) {
	t.accessed[name] = true
	if s, ok := t.syms[name]; ok {
		return s.Value, nil
	}
	if !t.AllowUndefined {
		return value.Value{}, errors.Wrapf(ErrUndefined, "symbol %q", name)
	}
	t.undefined[name] = true
	t.syms[name] = &Symbol{Value: value.Zero}
	return value.Zero, nil
}

// Defined reports whether name is present and not pending resolution.
func (t *Table) Defined(name string) bool {
	_, ok := t.syms[name]
	return ok && !t.undefined[name]
}

// Collect returns a map of every "prefix.*" entry with the prefix and its
// separating dot stripped.
func (t *Table) Collect(prefix string) value.Value {
	out := make(map[string]value.Value)
	pfx := prefix + "."
	for k, s := range t.syms {
		if strings.HasPrefix(k, pfx) {
			out[k[len(pfx):]] = s.Value
		}
	}
	return value.MapOf(out)
}

// Resolve removes from the undefined set every name whose stored value is
// no longer the numeric zero a forward reference is seeded with.
func (t *Table) Resolve() {
	for name := range t.undefined {
		if s, ok := t.syms[name]; ok && !value.Equal(s.Value, value.Zero) {
			delete(t.undefined, name)
		}
	}
}

// OK reports whether no undefined name remains.
func (t *Table) OK() bool {
	return len(t.undefined) == 0
}

// UndefinedNames returns the current undefined set, for diagnostics
// (--show-undefined).
func (t *Table) UndefinedNames() []string {
	out := make([]string, 0, len(t.undefined))
	for n := range t.undefined {
		out = append(out, n)
	}
	return out
}

// Reset clears the undefined and accessed sets at the start of a new pass,
// while keeping the map of values so later passes see forward progress.
func (t *Table) Reset() {
	t.undefined = make(map[string]bool)
	t.accessed = make(map[string]bool)
}

// All returns every symbol's current value, keyed by its full dotted name,
// for tooling that wants to dump the whole table (the CLI's `-S` symbol
// file) rather than a single prefix subtree.
func (t *Table) All() map[string]value.Value {
	out := make(map[string]value.Value, len(t.syms))
	for name, s := range t.syms {
		out[name] = s.Value
	}
	return out
}

// Snapshot returns a deep-enough copy of every entry under prefix (used to
// publish register/RAM state into tests.<name> so that later passes treat
// it as plain data).
func (t *Table) Snapshot(prefix string) map[string]value.Value {
	m := t.Collect(prefix).MapView()
	out := make(map[string]value.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

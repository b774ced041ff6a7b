// Package section implements a hierarchical memory-layout engine: named
// regions with fixed or floating start and size, parent/child nesting,
// overlap detection, and serialization to raw/PRG/cartridge output.
package section

import (
	"sort"

	"github.com/pkg/errors"
)

// Flag bits carried by a Section.
type Flag uint8

const (
	NoStorage Flag = 1 << iota
	WriteToDisk
	ReadOnly
	KeepFirst
	KeepLast
	FixedStart
	FixedSize
)

// Has reports whether all bits in want are set.
func (f Flag) Has(want Flag) bool { return f&want == want }

// Section is one named memory region, possibly nested under a parent.
type Section struct {
	Name     string
	Parent   string
	Children []*Section

	Start int // -1 == floating
	PC    int // current write position, absolute address
	Size  int // -1 == floating
	Flags Flag
	Data  []byte
	Valid bool // true once actually populated in the current pass

	OutFile string // set when WriteToDisk and distinct from the main output
}

// IsLeaf reports whether the section has no children.
func (s *Section) IsLeaf() bool { return len(s.Children) == 0 }

// Spec describes the arguments to AddSection (a `!section` directive).
type Spec struct {
	Name       string
	Start      int // -1 == floating / unspecified
	Size       int // -1 == floating / unspecified
	Parent     string
	PC         int  // -1 == unspecified
	HasPC      bool
	Flags      Flag
}

// Layout owns the full set of root sections and the name index used to
// upsert by name.
type Layout struct {
	roots []*Section
	byName map[string]*Section
	// prevStart records each section's start as of the previous layout()
	// call, used to detect when a pass leaves every start unchanged.
	prevStart map[string]int
}

// New creates an empty Layout.
func New() *Layout {
	return &Layout{byName: make(map[string]*Section), prevStart: make(map[string]int)}
}

// ErrDataOnNonLeaf / ErrChildOnLeaf guard the invariant that a non-leaf
// may not carry data and a leaf may not have children.
var (
	ErrDataOnNonLeaf  = errors.New("section: cannot write data to a non-leaf section")
	ErrChildOnLeaf    = errors.New("section: cannot add a child to a section that already has data")
	ErrStartBackward  = errors.New("section: start moved backward")
	ErrSizeExceeded   = errors.New("section: data exceeds fixed size")
	ErrUnknownParent  = errors.New("section: unknown parent")
)

// AddSection upserts a section by name.
func (l *Layout) AddSection(spec Spec) (*Section, error) {
	s, existing := l.byName[spec.Name]
	if !existing {
		s = &Section{Name: spec.Name, Start: -1, Size: -1}
		l.byName[spec.Name] = s
	}
	if spec.Parent != "" {
		s.Parent = spec.Parent
		parent, ok := l.byName[spec.Parent]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownParent, "%q", spec.Parent)
		}
		if len(parent.Data) > 0 {
			return nil, ErrChildOnLeaf
		}
		if !containsSection(parent.Children, s) {
			parent.Children = append(parent.Children, s)
		}
		if s.Start == -1 && !spec.HasPC {
			// child's start defaults to parent's current PC at the
			// moment it is introduced.
			s.Start = parent.PC
		}
	} else if !existing {
		l.roots = append(l.roots, s)
	}
	if spec.Start != -1 {
		s.Start = spec.Start
		s.Flags |= FixedStart
	}
	if spec.Size != -1 {
		s.Size = spec.Size
		s.Flags |= FixedSize
	}
	if spec.HasPC {
		s.PC = spec.PC
		if s.Start == -1 {
			s.Start = spec.PC
		}
	}
	if !existing && !spec.HasPC && s.Start != -1 {
		// a new section's write cursor begins at its start address
		s.PC = s.Start
	}
	s.Flags |= spec.Flags
	if parent, ok := l.byName[s.Parent]; ok && parent.Flags.Has(ReadOnly) {
		s.Flags |= ReadOnly
	}
	return s, nil
}

func containsSection(list []*Section, s *Section) bool {
	for _, c := range list {
		if c == s {
			return true
		}
	}
	return false
}

// Reset prepares the layout for a new evaluation pass: each section's
// write cursor is rewound to its last known start (0 if it has never been
// laid out) and its accumulated data is cleared, but the section tree
// itself -- names, parent/child links, and the start each floating
// section resolved to as of the previous layoutOne() walk -- is kept.
// Label values bound during the upcoming walk are therefore the best
// address estimate available from the previous pass, which is what lets
// the multi-pass loop in package assembler converge instead of resetting
// every forward reference to zero on every iteration.
func (l *Layout) Reset() {
	for _, s := range l.byName {
		if s.Start == -1 {
			s.PC = 0
		} else {
			s.PC = s.Start
		}
		s.Data = nil
		s.Valid = false
	}
}

// Get returns a section by name.
func (l *Layout) Get(name string) (*Section, bool) {
	s, ok := l.byName[name]
	return s, ok
}

// Emit appends data to the named (leaf) section at its current PC, and
// advances the PC. Fails if the section has children (non-leaf) or if a
// fixed size would be exceeded.
func (l *Layout) Emit(name string, data []byte) error {
	s, ok := l.byName[name]
	if !ok {
		return errors.Errorf("section: write to unknown section %q", name)
	}
	if !s.IsLeaf() {
		return ErrDataOnNonLeaf
	}
	if s.Flags.Has(FixedSize) && len(s.Data)+len(data) > s.Size {
		return errors.Wrapf(ErrSizeExceeded, "section %q", name)
	}
	s.Data = append(s.Data, data...)
	s.Valid = true
	s.PC += len(data)
	return nil
}

// Roots returns the top-level sections in insertion order.
func (l *Layout) Roots() []*Section { return l.roots }

// All returns every section, leaves and non-leaves, by name.
func (l *Layout) All() map[string]*Section { return l.byName }

// Do performs a post-order walk: for each
// section, if start is floating it is set to the running cursor, otherwise
// the cursor must not be past the section's start; leaves advance the
// cursor by len(data); non-leaves lay out each child in turn and, if size
// is floating, become the sum of their children's sizes. It reports
// whether the layout is "stable" -- no floating start changed relative to
// the previous invocation.
func (l *Layout) Do() (stable bool, err error) {
	stable = true
	cursor := 0
	for _, r := range l.roots {
		var e error
		cursor, e = l.layoutOne(r, cursor, &stable)
		if e != nil {
			return false, e
		}
	}
	return stable, nil
}

func (l *Layout) layoutOne(s *Section, cursor int, stable *bool) (int, error) {
	wasFloating := !s.Flags.Has(FixedStart)
	if wasFloating {
		if s.Start != cursor {
			*stable = false
		}
		s.Start = cursor
	} else if cursor > s.Start {
		return 0, errors.Wrapf(ErrStartBackward, "section %q: cursor %d > fixed start %d", s.Name, cursor, s.Start)
	} else {
		cursor = s.Start
	}
	if prev, ok := l.prevStart[s.Name]; ok && prev != s.Start {
		*stable = false
	}
	l.prevStart[s.Name] = s.Start

	if s.IsLeaf() {
		if !s.Flags.Has(FixedSize) {
			s.Size = len(s.Data)
		}
		return cursor + max(len(s.Data), s.Size), nil
	}

	childCursor := s.Start
	for _, c := range s.Children {
		var e error
		childCursor, e = l.layoutOne(c, childCursor, stable)
		if e != nil {
			return 0, e
		}
	}
	if !s.Flags.Has(FixedSize) {
		s.Size = childCursor - s.Start
	}
	return s.Start + max(s.Size, childCursor-s.Start), nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Overlap describes two sections whose byte ranges intersect.
type Overlap struct {
	A, B *Section
}

// CheckOverlap reports every pair of non-empty, storage-carrying sections
// whose [Start, Start+len(Data)) ranges intersect. O(sections^2).
func (l *Layout) CheckOverlap() []Overlap {
	var storage []*Section
	for _, s := range l.byName {
		if s.IsLeaf() && !s.Flags.Has(NoStorage) && len(s.Data) > 0 {
			storage = append(storage, s)
		}
	}
	sort.Slice(storage, func(i, j int) bool { return storage[i].Start < storage[j].Start })
	var out []Overlap
	for i := 0; i < len(storage); i++ {
		for j := i + 1; j < len(storage); j++ {
			a, b := storage[i], storage[j]
			aEnd := a.Start + len(a.Data)
			bEnd := b.Start + len(b.Data)
			if a.Start < bEnd && b.Start < aEnd {
				out = append(out, Overlap{A: a, B: b})
			}
		}
	}
	return out
}

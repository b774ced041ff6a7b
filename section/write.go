package section

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// Format selects one of the three output encodings Write supports.
type Format int

const (
	FormatRaw Format = iota
	FormatPRG
	FormatCartridge
)

// storageLeaves returns every leaf section carrying real storage (not
// NoStorage, not empty), sorted by resolved start address -- the order
// every output format serializes in.
func storageLeaves(roots []*Section) []*Section {
	var out []*Section
	var walk func(*Section)
	walk = func(s *Section) {
		if s.IsLeaf() {
			if !s.Flags.Has(NoStorage) && len(s.Data) > 0 {
				out = append(out, s)
			}
			return
		}
		for _, c := range s.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// writeRaw concatenates every leaf's bytes in address order, zero-filling
// the gaps between them.
func writeRaw(w io.Writer, roots []*Section) error {
	leaves := storageLeaves(roots)
	if len(leaves) == 0 {
		return nil
	}
	cursor := leaves[0].Start
	for _, s := range leaves {
		if s.Start < cursor {
			return errors.Errorf("section: output overlap at %q (start %d < cursor %d)", s.Name, s.Start, cursor)
		}
		if pad := s.Start - cursor; pad > 0 {
			if _, err := w.Write(make([]byte, pad)); err != nil {
				return err
			}
		}
		if _, err := w.Write(s.Data); err != nil {
			return err
		}
		cursor = s.Start + len(s.Data)
	}
	return nil
}

// writePRG prepends the 2-byte little-endian load address C64 PRG files
// carry, then writes the same bytes writeRaw would.
func writePRG(w io.Writer, roots []*Section) error {
	leaves := storageLeaves(roots)
	load := uint16(0)
	if len(leaves) > 0 {
		load = uint16(leaves[0].Start)
	}
	if err := binary.Write(w, binary.LittleEndian, load); err != nil {
		return err
	}
	return writeRaw(w, roots)
}

// CartConfig carries the cartridge-header fields left up to the caller:
// the 32-byte label and the hardware type (0 generic, 32 banked/EasyFlash-
// style).
type CartConfig struct {
	Label    string
	HWType   uint16
	EXROM    byte
	GAME     byte
	BankOf   func(s *Section) uint16 // bank number for a leaf section, 0 if nil
}

var cartMagic = [16]byte{'C', '6', '4', ' ', 'C', 'A', 'R', 'T', 'R', 'I', 'D', 'G', 'E', ' ', ' ', ' '}

// writeCartridge emits a C64 CRT container: a fixed 0x40-byte header
// followed by one CHIP record per storage-carrying leaf section, each
// chip type 0 (ROM).
func writeCartridge(w io.Writer, roots []*Section, cfg CartConfig) error {
	if _, err := w.Write(cartMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(0x40)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint16(0x0100)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, cfg.HWType); err != nil {
		return err
	}
	if _, err := w.Write([]byte{cfg.EXROM, cfg.GAME}); err != nil {
		return err
	}
	if _, err := w.Write(make([]byte, 6)); err != nil { // reserved
		return err
	}
	var label [32]byte
	copy(label[:], cfg.Label)
	if _, err := w.Write(label[:]); err != nil {
		return err
	}

	for _, s := range storageLeaves(roots) {
		var bank uint16
		if cfg.BankOf != nil {
			bank = cfg.BankOf(s)
		}
		size := uint32(16 + len(s.Data))
		if _, err := w.Write([]byte{'C', 'H', 'I', 'P'}); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, size); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint16(0)); err != nil { // chip type: ROM
			return err
		}
		if err := binary.Write(w, binary.BigEndian, bank); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint16(s.Start)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint16(len(s.Data))); err != nil {
			return err
		}
		if _, err := w.Write(s.Data); err != nil {
			return err
		}
	}
	return nil
}

// Write serializes roots to w in the given format. Cartridge output uses
// cfg (ignored for Raw/PRG, may be the zero value there).
func Write(w io.Writer, format Format, roots []*Section, cfg CartConfig) error {
	switch format {
	case FormatRaw:
		return writeRaw(w, roots)
	case FormatPRG:
		return writePRG(w, roots)
	case FormatCartridge:
		return writeCartridge(w, roots, cfg)
	default:
		return errors.Errorf("section: unknown output format %d", format)
	}
}

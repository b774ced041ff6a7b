package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/badass-asm/badass/assembler"
	"github.com/badass-asm/badass/ast"
	"github.com/badass-asm/badass/cpu"
	"github.com/badass-asm/badass/section"
	"github.com/badass-asm/badass/value"
)

// defineFlag collects repeated `-D name[=value]` occurrences.
type defineFlag map[string]value.Value

func (d defineFlag) String() string { return "" }
func (d defineFlag) Set(s string) error {
	name, val, hasVal := strings.Cut(s, "=")
	if name == "" {
		return errors.Errorf("-D: empty symbol name in %q", s)
	}
	if !hasVal {
		d[name] = value.Int(1)
		return nil
	}
	if n, err := strconv.ParseFloat(val, 64); err == nil {
		d[name] = value.Num(n)
		return nil
	}
	d[name] = value.Str(val)
	return nil
}
func (d defineFlag) Get() interface{} { return d }

// pathList collects repeated `-i`/include-dir-shaped flags.
type pathList []string

func (p *pathList) String() string     { return "" }
func (p *pathList) Set(s string) error { *p = append(*p, s); return nil }
func (p *pathList) Get() interface{}   { return *p }

var (
	format        = flag.String("format", "raw", "output format: raw, prg, or crt")
	trace         = flag.Bool("trace", false, "enable verbose pass/macro tracing")
	run           = flag.Bool("run", false, "run the assembled program against the emulator and text device")
	maxPasses     = flag.Int("max-passes", 10, "maximum convergence passes before giving up")
	showUndefined = flag.Bool("show-undefined", false, "list every symbol still undefined after the final pass")
	quiet         = flag.Bool("q", false, "suppress warnings")
	symFile       = flag.String("S", "", "write a symbol table dump to `file`")
	cpu65c02      = flag.Bool("65c02", false, "target the 65C02 instead of the base 6502")
	outFile       = flag.String("o", "a.out", "output `file`")
)

var (
	defines     = make(defineFlag)
	includeDirs pathList
	scripts     pathList
)

func init() {
	flag.Var(defines, "D", "predefine `name[=value]` (can be specified multiple times)")
	flag.Var(&includeDirs, "i", "add `dir` to the include search path (can be specified multiple times)")
	flag.Var(&scripts, "x", "run `script` before assembling the main source (can be specified multiple times)")
}

func atExit(diags assembler.Diagnostics, err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, d := range diags {
		if d.Kind == assembler.KindWarning && *quiet {
			continue
		}
		fmt.Fprintln(os.Stderr, d.String())
	}
	if diags.HasErrors() {
		os.Exit(1)
	}
}

func outputFormat(s string) (section.Format, error) {
	switch s {
	case "raw":
		return section.FormatRaw, nil
	case "prg":
		return section.FormatPRG, nil
	case "crt":
		return section.FormatCartridge, nil
	default:
		return 0, errors.Errorf("unknown --format %q (want raw, prg, or crt)", s)
	}
}

// bankConfig derives a CartConfig's BankOf function and HWType from the
// laid-out sections: each leaf's bank is the high 16 bits of its resolved
// start address, and the header advertises the banked (EasyFlash-style)
// hardware type as soon as more than one distinct bank is present.
func bankConfig(label string, roots []*section.Section) section.CartConfig {
	banks := make(map[uint16]bool)
	var walk func(*section.Section)
	walk = func(s *section.Section) {
		if s.IsLeaf() {
			if !s.Flags.Has(section.NoStorage) && len(s.Data) > 0 {
				banks[uint16(s.Start>>16)] = true
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
	cfg := section.CartConfig{
		Label:  label,
		BankOf: func(s *section.Section) uint16 { return uint16(s.Start >> 16) },
	}
	if len(banks) > 1 {
		cfg.HWType = 32
	}
	return cfg
}

func readSource(paths []string, scriptPaths []string) (string, error) {
	var sb strings.Builder
	for _, p := range scriptPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", errors.Wrapf(err, "reading script %q", p)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	if len(paths) == 0 {
		data, err := readAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "reading stdin")
		}
		sb.Write(data)
		return sb.String(), nil
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", errors.Wrapf(err, "reading %q", p)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func readAll(r *os.File) ([]byte, error) {
	br := bufio.NewReader(r)
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := br.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			break
		}
	}
	return out, nil
}

func writeSymbols(path string, names map[string]value.Value) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating symbol file %q", path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	for name, v := range names {
		fmt.Fprintf(w, "%s = %s\n", name, v.String())
	}
	return nil
}

func assembleOnce(src string, opts assembler.Options) (*assembler.Assembler, *assembler.Result, assembler.Diagnostics, error) {
	cache, err := ast.NewCache()
	if err != nil {
		glog.V(1).Infof("AST cache unavailable, parsing uncached: %v", err)
		cache = nil
	}
	root, errs := ast.ParseCached(cache, "<source>", src)
	if !errs.Empty() {
		return nil, nil, nil, errors.New(errs.Error())
	}

	a := assembler.New(opts)
	for name, v := range defines {
		if err := a.Define(name, v); err != nil {
			return nil, nil, nil, errors.Wrapf(err, "predefining %q", name)
		}
	}
	result, diags := a.Assemble(root)
	return a, result, diags, nil
}

func main() {
	flag.Parse()
	if *trace {
		flag.Set("v", "2")
	}

	outFmt, err := outputFormat(*format)
	if err != nil {
		atExit(nil, err)
	}

	cpuKind := cpu.MOS6502
	if *cpu65c02 {
		cpuKind = cpu.WDC65C02
	}

	opts := assembler.Options{
		MaxPasses:     *maxPasses,
		CPU:           cpuKind,
		ShowUndefined: *showUndefined,
		IncludeDirs:   includeDirs,
	}

	src, err := readSource(flag.Args(), scripts)
	if err != nil {
		atExit(nil, err)
	}

	a, result, diags, err := assembleOnce(src, opts)
	if err != nil {
		atExit(nil, err)
	}
	if diags.HasErrors() {
		atExit(diags, nil)
	}

	f, err := os.Create(*outFile)
	if err != nil {
		atExit(diags, errors.Wrapf(err, "creating output %q", *outFile))
	}
	cfg := bankConfig(filepath.Base(*outFile), result.Layout.Roots())
	if err := section.Write(f, outFmt, result.Layout.Roots(), cfg); err != nil {
		f.Close()
		atExit(diags, errors.Wrap(err, "writing output"))
	}
	if err := f.Close(); err != nil {
		atExit(diags, errors.Wrap(err, "closing output"))
	}

	if *symFile != "" {
		if err := writeSymbols(*symFile, a.Symbols()); err != nil {
			atExit(diags, err)
		}
	}

	if *run {
		runProgram(result, cpuKind)
	}

	atExit(diags, nil)
}

package assembler

import (
	"os"
	"path/filepath"

	"github.com/beevik/prefixtree/v2"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/badass-asm/badass/ast"
	"github.com/badass-asm/badass/cpu"
	"github.com/badass-asm/badass/section"
	"github.com/badass-asm/badass/value"
)

// Intercept is a `!rts`-style per-PC emulator hook: when execution reaches
// PC, the test/check harness stops stepping instead of executing further.
type Intercept struct {
	PC   int
	Halt bool
	Line int
}

// Test is one registered `!test` record: a pre-state to prime the
// emulator with and, once bound, the address execution starts at.
type Test struct {
	Name    string
	PC      int
	boundPC bool
	Regs    map[string]int64
	Line    int
}

// Check is a delayed boolean expression evaluated every time the test
// harness's PC reaches the address the `!check` directive occupied.
type Check struct {
	PC   int
	Body *ast.Node
	Line int
}

// LogPoint prints its argument expressions, with registers published as
// symbols, every time execution reaches PC.
type LogPoint struct {
	PC   int
	Args []*ast.Node
	Line int
}

// RunPoint is a bare trace marker left by `!run`, reached the same way a
// Check or LogPoint is.
type RunPoint struct {
	PC   int
	Line int
}

// metaHandler implements one meta-command's effect on the Assembler.
type metaHandler func(a *Assembler, n *ast.Node)

// metaRegistry dispatches `!name args` to a handler, resolving an
// unambiguous abbreviation of a registered name through a prefix tree --
// the same use case the library's own documentation demonstrates.
type metaRegistry struct {
	handlers map[string]metaHandler
	names    *prefixtree.Tree[string]
}

func newMetaRegistry(a *Assembler) *metaRegistry {
	r := &metaRegistry{
		handlers: make(map[string]metaHandler),
		names:    prefixtree.New[string](),
	}
	r.register("section", (*Assembler).metaSection)
	r.register("byte", (*Assembler).metaByte)
	r.register("word", (*Assembler).metaWord)
	r.register("byte3", (*Assembler).metaByte3)
	r.register("text", (*Assembler).metaText)
	r.register("fill", (*Assembler).metaFill)
	r.register("rept", (*Assembler).metaRept)
	r.register("test", (*Assembler).metaTest)
	r.register("check", (*Assembler).metaCheck)
	r.register("log", (*Assembler).metaLog)
	r.register("run", (*Assembler).metaRun)
	r.register("rts", (*Assembler).metaRts)
	r.register("assert", (*Assembler).metaAssert)
	r.register("include", (*Assembler).metaInclude)
	r.register("incbin", (*Assembler).metaIncbin)
	r.register("script", (*Assembler).metaScript)
	r.register("org", (*Assembler).metaOrg)
	r.register("pc", (*Assembler).metaPc)
	r.register("align", (*Assembler).metaAlign)
	r.register("ds", (*Assembler).metaDs)
	r.register("cpu", (*Assembler).metaCPU)
	r.register("encoding", (*Assembler).metaEncoding)
	r.register("chartrans", (*Assembler).metaChartrans)
	return r
}

func (r *metaRegistry) register(name string, h metaHandler) {
	r.handlers[name] = h
	r.names.Add(name, name)
}

// resolve maps a directive name -- exact or an unambiguous abbreviation
// of exactly one registered name -- to its canonical form.
func (r *metaRegistry) resolve(name string) (string, error) {
	if _, ok := r.handlers[name]; ok {
		return name, nil
	}
	full, err := r.names.Find(name)
	if err != nil {
		return "", errors.Wrapf(err, "meta-command %q", name)
	}
	return full, nil
}

func (a *Assembler) dispatchMeta(n *ast.Node) {
	full, err := a.meta.resolve(n.Str)
	if err != nil {
		a.addf(KindError, n.Line, "%s", err)
		return
	}
	a.meta.handlers[full](a, n)
}

// splitMetaArgs separates a meta node's children into positional
// arguments, `name=expr` named arguments, and a trailing `{ ... }` block,
// e.g. the `name, start, in=parent, size=n, NoStore` shape a `!section`
// directive takes.
func splitMetaArgs(n *ast.Node) (pos []*ast.Node, named map[string]*ast.Node, body *ast.Node) {
	named = make(map[string]*ast.Node)
	children := n.Children
	if len(children) > 0 && children[len(children)-1].Kind == ast.KindBlock {
		body = children[len(children)-1]
		children = children[:len(children)-1]
	}
	for _, c := range children {
		if c.Kind == ast.KindAssign {
			named[c.Str] = c.Children[0]
			continue
		}
		pos = append(pos, c)
	}
	return pos, named, body
}

var flagWords = map[string]section.Flag{
	"NoStore":   section.NoStorage,
	"ToFile":    section.WriteToDisk,
	"ReadOnly":  section.ReadOnly,
	"KeepFirst": section.KeepFirst,
	"KeepLast":  section.KeepLast,
}

func flagWordOf(n *ast.Node) (section.Flag, bool) {
	if n.Kind != ast.KindIdent {
		return 0, false
	}
	f, ok := flagWords[n.Str]
	return f, ok
}

// metaSection implements `!section name|spec { body }`: positional args
// are name, then start, then any mix of flag keywords or an explicit pc;
// named args cover in=parent, size=n, pc=n, start=n.
func (a *Assembler) metaSection(n *ast.Node) {
	pos, named, body := splitMetaArgs(n)
	spec := section.Spec{Start: -1, Size: -1, PC: -1}

	idx := 0
	if idx < len(pos) {
		spec.Name = a.eval(pos[idx]).StringView()
		idx++
	}
	if idx < len(pos) {
		if _, isFlag := flagWordOf(pos[idx]); !isFlag {
			spec.Start = int(a.eval(pos[idx]).Int64())
			idx++
		}
	}
	for ; idx < len(pos); idx++ {
		if f, ok := flagWordOf(pos[idx]); ok {
			spec.Flags |= f
			continue
		}
		spec.PC = int(a.eval(pos[idx]).Int64())
		spec.HasPC = true
	}

	if v, ok := named["in"]; ok {
		spec.Parent = a.eval(v).StringView()
	}
	if v, ok := named["size"]; ok {
		spec.Size = int(a.eval(v).Int64())
	}
	if v, ok := named["start"]; ok {
		spec.Start = int(a.eval(v).Int64())
	}
	if v, ok := named["pc"]; ok {
		spec.PC = int(a.eval(v).Int64())
		spec.HasPC = true
	}

	s, err := a.layout.AddSection(spec)
	if err != nil {
		a.addf(KindError, n.Line, "%s", err)
		return
	}
	a.pushSection(s.Name)
	if body != nil {
		a.walk(body)
		a.popSection()
	}
}

func leBytes(v int64, width int) []byte {
	b := make([]byte, width)
	for i := 0; i < width; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}

func (a *Assembler) emitValueWidth(v value.Value, width int) {
	switch v.Kind() {
	case value.Bytes:
		for _, b := range v.RawBytes() {
			a.emit(leBytes(int64(b), width))
		}
	case value.Numbers:
		for _, f := range v.Nums() {
			a.emit(leBytes(int64(f), width))
		}
	default:
		a.emit(leBytes(v.Int64(), width))
	}
}

func (a *Assembler) emitWidth(n *ast.Node, width int) {
	pos, _, _ := splitMetaArgs(n)
	for _, p := range pos {
		a.emitValueWidth(a.eval(p), width)
	}
}

func (a *Assembler) metaByte(n *ast.Node)  { a.emitWidth(n, 1) }
func (a *Assembler) metaWord(n *ast.Node)  { a.emitWidth(n, 2) }
func (a *Assembler) metaByte3(n *ast.Node) { a.emitWidth(n, 3) }

// metaText emits each string argument's bytes translated through the
// current !encoding table; non-string arguments are emitted as raw bytes.
func (a *Assembler) metaText(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	table := charsets[a.encoding]
	for _, p := range pos {
		v := a.eval(p)
		if v.Kind() != value.String {
			a.emit(leBytes(v.Int64(), 1))
			continue
		}
		s := v.StringView()
		out := make([]byte, 0, len(s))
		for _, r := range s {
			if r > 0xff {
				r = '?'
			}
			out = append(out, table[byte(r)])
		}
		a.emit(out)
	}
}

func (a *Assembler) metaFill(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	if len(pos) == 0 {
		a.addf(KindError, n.Line, "!fill requires a count")
		return
	}
	count := int(a.eval(pos[0]).Int64())
	if count < 0 {
		a.addf(KindError, n.Line, "!fill count must be non-negative")
		return
	}
	var v byte
	if len(pos) > 1 {
		v = byte(a.eval(pos[1]).Int64())
	}
	buf := make([]byte, count)
	for i := range buf {
		buf[i] = v
	}
	a.emit(buf)
}

func (a *Assembler) metaAlign(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	if len(pos) == 0 {
		a.addf(KindError, n.Line, "!align requires a boundary")
		return
	}
	boundary := int(a.eval(pos[0]).Int64())
	if boundary <= 0 {
		a.addf(KindError, n.Line, "!align boundary must be positive")
		return
	}
	rem := a.pc() % boundary
	if rem == 0 {
		return
	}
	a.emit(make([]byte, boundary-rem))
}

func (a *Assembler) metaDs(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	if len(pos) == 0 {
		a.addf(KindError, n.Line, "!ds requires a size")
		return
	}
	count := int(a.eval(pos[0]).Int64())
	if count < 0 {
		a.addf(KindError, n.Line, "!ds size must be non-negative")
		return
	}
	a.emit(make([]byte, count))
}

// metaOrg/metaPc both set the current section's write cursor, padding
// forward with zero bytes; moving backward is a hard error.
func (a *Assembler) metaOrg(n *ast.Node) { a.setPC(n) }
func (a *Assembler) metaPc(n *ast.Node)  { a.setPC(n) }

func (a *Assembler) setPC(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	if len(pos) == 0 {
		a.addf(KindError, n.Line, "!org/!pc requires an address")
		return
	}
	target := int(a.eval(pos[0]).Int64())
	cur := a.pc()
	switch {
	case target == cur:
	case target > cur:
		a.emit(make([]byte, target-cur))
	default:
		a.addf(KindError, n.Line, "!org/!pc cannot move backward (at $%04x, requested $%04x)", cur, target)
	}
}

func (a *Assembler) metaCPU(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	if len(pos) == 0 {
		a.addf(KindError, n.Line, "!cpu requires a name")
		return
	}
	switch a.eval(pos[0]).StringView() {
	case "6502":
		a.opts.CPU = cpu.MOS6502
	case "65C02":
		a.opts.CPU = cpu.WDC65C02
	default:
		a.addf(KindError, n.Line, "unknown !cpu %q", a.eval(pos[0]).StringView())
		return
	}
	a.table = cpu.TableFor(a.opts.CPU)
}

func (a *Assembler) metaEncoding(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	if len(pos) == 0 {
		a.addf(KindError, n.Line, "!encoding requires a charset name")
		return
	}
	name := a.eval(pos[0]).StringView()
	if _, ok := charsets[name]; !ok {
		a.addf(KindError, n.Line, "unknown !encoding %q", name)
		return
	}
	a.encoding = name
}

// metaChartrans overrides individual byte mappings of the current
// encoding table: `!chartrans "chars", b0, b1, ...` maps each codepoint
// in chars to the corresponding output byte.
func (a *Assembler) metaChartrans(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	if len(pos) < 2 {
		a.addf(KindError, n.Line, "!chartrans requires a character string and output bytes")
		return
	}
	chars := a.eval(pos[0]).StringView()
	table := charsets[a.encoding]
	runes := []rune(chars)
	for i, r := range runes {
		if i+1 >= len(pos) || r > 0xff {
			continue
		}
		table[byte(r)] = byte(a.eval(pos[i+1]).Int64())
	}
	charsets[a.encoding] = table
}

// metaRept implements `!rept (count | name=count | vec) { body }`: the
// body is walked count times (or once per element of vec), with the
// index -- and, for a vector, the element value -- bound as symbols.
func (a *Assembler) metaRept(n *ast.Node) {
	pos, named, body := splitMetaArgs(n)
	if body == nil {
		a.addf(KindError, n.Line, "!rept requires a { body }")
		return
	}
	indexName := "i"
	var count int
	var vec []float64
	switch {
	case len(named) > 0:
		for k, v := range named {
			indexName = k
			count = int(a.eval(v).Int64())
			break
		}
	case len(pos) > 0:
		v := a.eval(pos[0])
		if v.Kind() == value.Numbers {
			vec = v.Nums()
			count = len(vec)
		} else {
			count = int(v.Int64())
		}
	default:
		a.addf(KindError, n.Line, "!rept requires a count, name=count, or vector argument")
		return
	}
	for i := 0; i < count; i++ {
		if err := a.syms.Set(indexName, value.Int(int64(i))); err != nil {
			a.addf(KindError, n.Line, "%s", err)
		}
		if vec != nil {
			if err := a.syms.Set("v", value.Num(vec[i])); err != nil {
				a.addf(KindError, n.Line, "%s", err)
			}
		}
		a.walk(body)
	}
}

func nameOf(n *ast.Node) string { return n.Str }

// metaTest implements `!test [name] [addr] [reg=val,...]`. When no
// address is given, the next label bound after this directive supplies
// the test's start PC and, when no name was given either, its name (see
// Assembler.bindLabel).
func (a *Assembler) metaTest(n *ast.Node) {
	pos, named, _ := splitMetaArgs(n)
	t := &Test{Line: n.Line, Regs: make(map[string]int64)}
	switch len(pos) {
	case 0:
	case 1:
		if pos[0].Kind == ast.KindString {
			t.Name = pos[0].Str
		} else {
			t.PC = int(a.eval(pos[0]).Int64())
			t.boundPC = true
		}
	default:
		t.Name = nameOf(pos[0])
		t.PC = int(a.eval(pos[1]).Int64())
		t.boundPC = true
	}
	for k, v := range named {
		t.Regs[k] = a.eval(v).Int64()
	}
	a.tests = append(a.tests, t)
	if !t.boundPC {
		a.awaitingTestLabel = true
	}
}

// metaCheck registers the expression parsed directly between !check's
// braces (see ast.Parser.parseMeta's "check" special case) as a delayed
// assertion at the current PC.
func (a *Assembler) metaCheck(n *ast.Node) {
	if len(n.Children) == 0 {
		a.addf(KindError, n.Line, "!check requires a { expr } body")
		return
	}
	a.checks = append(a.checks, &Check{PC: a.pc(), Body: n.Children[0], Line: n.Line})
}

func (a *Assembler) metaLog(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	a.logs = append(a.logs, &LogPoint{PC: a.pc(), Args: pos, Line: n.Line})
}

func (a *Assembler) metaRun(n *ast.Node) {
	a.runs = append(a.runs, &RunPoint{PC: a.pc(), Line: n.Line})
}

func (a *Assembler) metaRts(n *ast.Node) {
	a.intercepts = append(a.intercepts, &Intercept{PC: a.pc(), Halt: true, Line: n.Line})
}

func (a *Assembler) metaAssert(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	if len(pos) == 0 {
		a.addf(KindError, n.Line, "!assert requires an expression")
		return
	}
	if a.eval(pos[0]).Bool() {
		return
	}
	msg := "assertion failed"
	if len(pos) > 1 {
		msg = a.eval(pos[1]).StringView()
	}
	a.addf(KindAssert, n.Line, "%s", msg)
}

func (a *Assembler) resolveIncludePath(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if a.curFile != "" {
		p := filepath.Join(filepath.Dir(a.curFile), path)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	for _, dir := range a.opts.IncludeDirs {
		p := dir + string(os.PathSeparator) + path
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.Errorf("%q not found in any include directory", path)
}

// metaInclude parses another source file and walks it in place, sharing
// this Assembler's symbol table, section layout, and macro/define
// registries -- the same as if its text had been pasted in directly.
func (a *Assembler) metaInclude(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	if len(pos) == 0 {
		a.addf(KindError, n.Line, "!include requires a path")
		return
	}
	path := a.eval(pos[0]).StringView()
	full, err := a.resolveIncludePath(path)
	if err != nil {
		a.addf(KindError, n.Line, "!include %q: %s", path, err)
		return
	}
	src, err := os.ReadFile(full)
	if err != nil {
		a.addf(KindError, n.Line, "!include %q: %s", path, err)
		return
	}
	root, errs := ast.Parse(full, string(src))
	if !errs.Empty() {
		a.addf(KindError, n.Line, "!include %q: %s", path, errs.Error())
		return
	}
	prevFile := a.curFile
	a.curFile = root.File
	a.walk(root)
	a.curFile = prevFile
}

func (a *Assembler) metaIncbin(n *ast.Node) {
	pos, _, _ := splitMetaArgs(n)
	if len(pos) == 0 {
		a.addf(KindError, n.Line, "!incbin requires a path")
		return
	}
	path := a.eval(pos[0]).StringView()
	full, err := a.resolveIncludePath(path)
	if err != nil {
		a.addf(KindError, n.Line, "!incbin %q: %s", path, err)
		return
	}
	data, err := os.ReadFile(full)
	if err != nil {
		a.addf(KindError, n.Line, "!incbin %q: %s", path, err)
		return
	}
	a.emit(data)
}

// metaScript loads and walks another badass source file, the same as
// !include: no separate embedded scripting language is implemented, since
// nothing in this module's scope needs computed behavior beyond what
// macros/defines already provide.
func (a *Assembler) metaScript(n *ast.Node) {
	glog.V(2).Infof("!script at line %d: treated as !include", n.Line)
	a.metaInclude(n)
}

// Package assembler drives the multi-pass evaluation of a parsed program:
// label binding, expression evaluation, macro/define expansion, meta-
// command dispatch, instruction encoding into sections, and the !test/
// !check/!log/!run harness that binds the result to package emu.
package assembler

import (
	"strings"

	"github.com/golang/glog"

	"github.com/badass-asm/badass/ast"
	"github.com/badass-asm/badass/cpu"
	"github.com/badass-asm/badass/section"
	"github.com/badass-asm/badass/symtab"
	"github.com/badass-asm/badass/value"
)

// Options configures one assembly run, mirroring the cmd/badass flag
// surface.
type Options struct {
	MaxPasses     int
	CPU           cpu.CPU
	ShowUndefined bool
	IncludeDirs   []string
}

// DefaultOptions returns the option set used when a caller (or the CLI)
// supplies none explicitly.
func DefaultOptions() Options {
	return Options{MaxPasses: 10, CPU: cpu.MOS6502}
}

// Macro is a registered `!macro name(args) { body }` definition.
type Macro struct {
	Name       string
	ParamNames []string
	Body       *ast.Node
}

// Params implements value.Callee.
func (m *Macro) Params() []string { return m.ParamNames }

// Define is a registered `!define name(args) expr` definition: unlike a
// macro it evaluates to a value usable inside an expression.
type Define struct {
	Name       string
	ParamNames []string
	Body       *ast.Node
}

// Params implements value.Callee.
func (d *Define) Params() []string { return d.ParamNames }

// Assembler holds all state threaded through one multi-pass run. A fresh
// Assembler is created per top-level Assemble call; passes reuse the same
// instance so that symbol values and macro/define registrations persist
// across iterations.
type Assembler struct {
	opts   Options
	table  *cpu.Table
	syms   *symtab.Table
	layout *section.Layout

	macros  map[string]*Macro
	defines map[string]*Define
	meta    *metaRegistry

	sectionStack []string
	lastLabel    string // last non-local label bound, for dotted local scoping
	labelCounter int     // for synthetic macro-local names

	anonSeenCount int // number of "+"/"-" anonymous labels bound so far this pass

	// awaitingTestLabel is set by a !test with no explicit address: the
	// test's start PC (and its name, when the directive gave none) are
	// filled in by the next label bound after the directive.
	awaitingTestLabel bool
	tests             []*Test
	checks            []*Check
	logs              []*LogPoint
	runs              []*RunPoint
	intercepts        []*Intercept

	encoding string // current !encoding charset name, default "ascii"

	curFile string // filename of the AST root currently being walked

	pass      int
	finalPass bool
	diags     Diagnostics
}

// addf records a diagnostic tagged with the file currently being walked
// (the top-level source, or an !include'd file while it's being walked).
func (a *Assembler) addf(kind Kind, line int, format string, args ...interface{}) {
	a.diags.addf(kind, a.curFile, line, format, args...)
}

// New creates an Assembler ready to run Assemble one or more times; symbol
// values persist in it from one Assemble call to the next.
func New(opts Options) *Assembler {
	a := &Assembler{
		opts:    opts,
		table:   cpu.TableFor(opts.CPU),
		syms:    symtab.New(),
		macros:  make(map[string]*Macro),
		defines: make(map[string]*Define),
		encoding: "ascii",
	}
	a.meta = newMetaRegistry(a)
	return a
}

// Result is everything Assemble produces besides diagnostics: the laid-
// out sections and the registered test/check/log/run harness points,
// ready to be driven by package emu.
type Result struct {
	Layout *section.Layout
	Tests  []*Test
	Checks []*Check
	Logs   []*LogPoint
	Runs   []*RunPoint
}

// Assemble runs the multi-pass convergence loop:
// repeatedly re-walk the AST and re-lay-out sections until both are
// stable, then run one final pass with undefined references disallowed so
// that any symbol still unresolved is reported as a hard error.
func (a *Assembler) Assemble(root *ast.Node) (*Result, Diagnostics) {
	a.curFile = root.File
	maxPasses := a.opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = 10
	}

	var stable bool
	for a.pass = 0; a.pass < maxPasses-1; a.pass++ {
		a.resetPass(false)
		a.walk(root)
		var err error
		stable, err = a.layout.Do()
		if err != nil {
			a.addf(KindError, 0, "%s", err)
			return a.result(), a.diags
		}
		glog.V(1).Infof("pass %d: stable=%v undefined=%v", a.pass, stable, a.syms.UndefinedNames())
		if stable && a.syms.OK() {
			break
		}
	}

	a.finalPass = true
	a.resetPass(true)
	a.walk(root)
	if _, err := a.layout.Do(); err != nil {
		a.addf(KindError, 0, "%s", err)
	}
	if !a.syms.OK() {
		names := a.syms.UndefinedNames()
		if a.opts.ShowUndefined {
			for _, n := range names {
				a.addf(KindError, 0, "undefined symbol %q", n)
			}
		} else if len(names) > 0 {
			a.addf(KindError, 0, "%d undefined symbol(s), rerun with --show-undefined to list them", len(names))
		}
	}
	if overlaps := a.layout.CheckOverlap(); len(overlaps) > 0 {
		for _, o := range overlaps {
			a.addf(KindOverlap, 0, "sections %q and %q overlap", o.A.Name, o.B.Name)
		}
	}
	if !a.diags.HasErrors() {
		a.runHarness()
	}
	return a.result(), a.diags
}

func (a *Assembler) result() *Result {
	return &Result{Layout: a.layout, Tests: a.tests, Checks: a.checks, Logs: a.logs, Runs: a.runs}
}

// resetPass clears per-pass mutable state. The symbol table's values
// persist (only its undefined/accessed tracking resets); the section
// layout keeps its tree and each section's previously resolved start
// (see Layout.Reset) so that labels bound early in the next walk use the
// address the previous pass converged toward, rather than zero.
func (a *Assembler) resetPass(final bool) {
	a.syms.Reset()
	a.syms.AllowUndefined = !final
	if a.layout == nil {
		a.layout = section.New()
	} else {
		a.layout.Reset()
	}
	a.sectionStack = nil
	a.lastLabel = ""
	a.labelCounter = 0
	a.awaitingTestLabel = false
	a.anonSeenCount = 0
	a.tests = nil
	a.checks = nil
	a.logs = nil
	a.runs = nil
	a.intercepts = nil
	a.encoding = "ascii"
	a.diags = nil
	a.layout.AddSection(section.Spec{Name: "default", Start: -1, Size: -1})
	a.sectionStack = append(a.sectionStack, "default")
}

// Symbols returns every symbol's final value, for the CLI's `-S` symbol
// file dump.
func (a *Assembler) Symbols() map[string]value.Value {
	return a.syms.All()
}

// Define preassigns a symbol before the first pass, for the CLI's
// `-D name[=value]` flag. A bare name with no `=value` defines it as 1,
// matching a C preprocessor `-D` flag's usual meaning.
func (a *Assembler) Define(name string, v value.Value) error {
	return a.syms.Set(name, v)
}

func (a *Assembler) currentSection() string {
	return a.sectionStack[len(a.sectionStack)-1]
}

func (a *Assembler) pushSection(name string) { a.sectionStack = append(a.sectionStack, name) }

func (a *Assembler) popSection() {
	if len(a.sectionStack) > 1 {
		a.sectionStack = a.sectionStack[:len(a.sectionStack)-1]
	}
}

func (a *Assembler) pc() int {
	s, ok := a.layout.Get(a.currentSection())
	if !ok {
		return 0
	}
	return s.PC
}

func (a *Assembler) emit(data []byte) {
	if err := a.layout.Emit(a.currentSection(), data); err != nil {
		a.addf(KindError, 0, "%s", err)
	}
}

// walk executes one statement node and its side effects (label binding,
// instruction encoding, meta dispatch). It mirrors ast.Node.Walk's
// pre/post shape but is written directly against the Kind switch since
// each statement needs bespoke handling rather than a generic visitor.
func (a *Assembler) walk(n *ast.Node) {
	switch n.Kind {
	case ast.KindProgram, ast.KindBlock, ast.KindScript:
		for _, c := range n.Children {
			a.walk(c)
		}
	case ast.KindLabel:
		a.bindLabel(n.Str, n.Line)
	case ast.KindLocalLabel:
		a.bindLocalLabel(n.Str, n.Line)
	case ast.KindIndexedLabel:
		a.bindIndexedLabel(n)
	case ast.KindInstruction:
		a.assembleInstruction(n)
	case ast.KindMeta:
		a.dispatchMeta(n)
	case ast.KindMacroDef:
		a.registerMacro(n)
	case ast.KindDefineDef:
		a.registerDefine(n)
	case ast.KindMacroCall:
		a.callStatement(n)
	case ast.KindAssign:
		v := a.eval(n.Children[0])
		if err := a.syms.Set(n.Str, v); err != nil {
			a.addf(KindError, n.Line, "%s", err)
		}
	case ast.KindIf:
		a.walkIf(n)
	case ast.KindEnum:
		a.walkEnum(n)
	default:
		glog.V(2).Infof("assembler: no statement handling for node kind %v at line %d", n.Kind, n.Line)
	}
}

func (a *Assembler) bindLabel(name string, line int) {
	if name == "+" || name == "-" {
		a.bindAnonLabel(line)
		return
	}
	// labels are reassigned every pass as addresses converge, so a plain
	// Set is used rather than SetFinal: the latter would reject the very
	// re-binding this loop depends on.
	if err := a.syms.Set(name, value.Int(int64(a.pc()))); err != nil {
		a.addf(KindError, line, "%s", err)
	}
	a.lastLabel = name
	if a.awaitingTestLabel {
		a.awaitingTestLabel = false
		if len(a.tests) > 0 {
			last := a.tests[len(a.tests)-1]
			if last.boundPC && last.PC != a.pc() {
				a.addf(KindError, line, "!test binding mismatch: recorded pc $%04x, label %q at $%04x", last.PC, name, a.pc())
			}
			if last.Name == "" {
				last.Name = name
			}
			last.PC = a.pc()
			last.boundPC = true
		}
	}
}

// anonName returns the symbol name used for the n-th (0-indexed)
// anonymous "+"/"-" label bound in source order.
func anonName(n int) string { return "__special_" + itoa(n) }

func (a *Assembler) bindAnonLabel(line int) {
	name := anonName(a.anonSeenCount)
	if err := a.syms.Set(name, value.Int(int64(a.pc()))); err != nil {
		a.addf(KindError, line, "%s", err)
	}
	a.anonSeenCount++
}

func (a *Assembler) bindLocalLabel(name string, line int) {
	full := a.localName(name)
	if err := a.syms.Set(full, value.Int(int64(a.pc()))); err != nil {
		a.addf(KindError, line, "%s", err)
	}
}

// localName resolves a dotted local label against the last non-local
// label bound (inside a macro expansion, the expansion's synthetic
// label), rather than the enclosing section.
func (a *Assembler) localName(dotted string) string {
	if a.lastLabel == "" {
		return dotted
	}
	return a.lastLabel + dotted
}

func (a *Assembler) bindIndexedLabel(n *ast.Node) {
	idx := a.eval(n.Children[0]).Int64()
	var v value.Value
	if len(n.Children) > 1 {
		v = a.eval(n.Children[1])
	}
	cur, _ := a.syms.Get(n.Str)
	updated := value.WithIndexSet(cur, int(idx), v.Float64())
	if err := a.syms.Set(n.Str, updated); err != nil {
		a.addf(KindError, n.Line, "%s", err)
	}
}

func (a *Assembler) walkIf(n *ast.Node) {
	// children alternate [condExpr, block, condExpr, block, ..., elseBlock?]
	for i := 0; i+1 < len(n.Children); i += 2 {
		if a.eval(n.Children[i]).Bool() {
			a.walk(n.Children[i+1])
			return
		}
	}
	if len(n.Children)%2 == 1 {
		a.walk(n.Children[len(n.Children)-1])
	}
}

func (a *Assembler) walkEnum(n *ast.Node) {
	next := 0.0
	for _, entry := range n.Children {
		name := entry.Str
		if len(entry.Children) > 0 {
			next = a.eval(entry.Children[0]).Float64()
		}
		full := name
		if n.Str != "" {
			full = n.Str + "." + name
		}
		if err := a.syms.Set(full, value.Num(next)); err != nil {
			a.addf(KindError, entry.Line, "%s", err)
		}
		next++
	}
}

func (a *Assembler) registerMacro(n *ast.Node) {
	params := paramNames(n)
	body := n.Children[len(n.Children)-1]
	a.macros[n.Str] = &Macro{Name: n.Str, ParamNames: params, Body: body}
}

func (a *Assembler) registerDefine(n *ast.Node) {
	params := paramNames(n)
	body := n.Children[len(n.Children)-1]
	d := &Define{Name: n.Str, ParamNames: params, Body: body}
	a.defines[n.Str] = d
	if err := a.syms.Set(n.Str, value.Func(d)); err != nil {
		a.addf(KindError, n.Line, "%s", err)
	}
}

// paramNames extracts the parameter names that parseMacroDef/
// parseDefineDef store, each followed by a comma, in a KindBlock child's
// Str.
func paramNames(n *ast.Node) []string {
	for _, c := range n.Children {
		if c.Kind == ast.KindBlock && c.Str != "" {
			return strings.Split(strings.TrimSuffix(c.Str, ","), ",")
		}
	}
	return nil
}

func (a *Assembler) callStatement(n *ast.Node) {
	if m, ok := a.macros[n.Str]; ok {
		a.expandMacro(m, n)
		return
	}
	if d, ok := a.defines[n.Str]; ok {
		a.evalCallable(d, n.Children, n.Line)
		return
	}
	a.addf(KindError, n.Line, "undefined macro or instruction %q", n.Str)
}

// expandMacro binds parameters by shadowing any existing symbol of the
// same name (restoring it on exit, with a warning if a shadow actually
// occurred) and gives the expansion a synthetic last-label so that local
// labels declared inside the macro body are unique per call site.
func (a *Assembler) expandMacro(m *Macro, call *ast.Node) {
	type saved struct {
		v       value.Value
		existed bool
	}
	shadowed := make(map[string]saved)
	for i, p := range m.ParamNames {
		var v value.Value
		if i < len(call.Children) {
			v = a.eval(call.Children[i])
		}
		if a.syms.Defined(p) {
			prev, _ := a.syms.Get(p)
			shadowed[p] = saved{v: prev, existed: true}
			a.addf(KindWarning, call.Line, "macro %q parameter %q shadows an existing symbol", m.Name, p)
		} else {
			shadowed[p] = saved{existed: false}
		}
		a.syms.Set(p, v)
	}
	savedLabel := a.lastLabel
	a.labelCounter++
	a.lastLabel = syntheticMacroLabel(a.labelCounter)
	a.walk(m.Body)
	a.lastLabel = savedLabel
	for name, s := range shadowed {
		if s.existed {
			a.syms.Set(name, s.v)
		}
	}
}

func syntheticMacroLabel(n int) string {
	return "__macro_" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// evalCallable evaluates a Define invocation: bind parameters, then
// evaluate the body expression. Unlike macro parameters, the parameter
// bindings stay in the symbol table afterwards and a symbol they shadowed
// is not restored.
func (a *Assembler) evalCallable(d *Define, args []*ast.Node, line int) value.Value {
	for i, p := range d.ParamNames {
		var v value.Value
		if i < len(args) {
			v = a.eval(args[i])
		}
		a.syms.Set(p, v)
	}
	return a.eval(d.Body)
}

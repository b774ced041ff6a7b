package assembler

import (
	"github.com/golang/glog"

	"github.com/badass-asm/badass/emu"
	"github.com/badass-asm/badass/section"
	"github.com/badass-asm/badass/value"
)

// maxTestSteps bounds how many instructions a single !test is allowed to
// execute before the harness gives up, guarding against a test with no
// terminating rts.
const maxTestSteps = 1 << 20

// runHarness drives every registered !test through the emulator once the
// assembly pass has converged. Each test gets a fresh memory image seeded
// from the laid-out sections; !check/!log/!run points and !rts intercepts
// fire as the test's PC passes over them.
func (a *Assembler) runHarness() {
	for _, t := range a.tests {
		a.runTest(t)
	}
}

func seedMemory(mem *emu.Direct, s *section.Section) {
	if s.IsLeaf() {
		if len(s.Data) > 0 {
			mem.Load(uint16(s.Start), s.Data)
		}
		return
	}
	for _, c := range s.Children {
		seedMemory(mem, c)
	}
}

func (a *Assembler) runTest(t *Test) {
	mem := emu.NewDirect()
	for _, s := range a.layout.Roots() {
		seedMemory(mem, s)
	}

	c := emu.New(mem, a.opts.CPU)
	// start at the outermost stack frame so the body's final rts halts the
	// core; an SP pre-state below overrides this.
	c.SP = 0xff
	c.PC = uint16(t.PC)
	if v, ok := t.Regs["A"]; ok {
		c.A = byte(v)
	}
	if v, ok := t.Regs["X"]; ok {
		c.X = byte(v)
	}
	if v, ok := t.Regs["Y"]; ok {
		c.Y = byte(v)
	}
	if v, ok := t.Regs["SP"]; ok {
		c.SP = byte(v)
	}
	if v, ok := t.Regs["SR"]; ok {
		c.Status = byte(v)
	}
	if v, ok := t.Regs["PC"]; ok {
		c.PC = uint16(v)
	}

	steps := 0
	for ; steps < maxTestSteps && !c.Halted(); steps++ {
		pc := int(c.PC)
		a.runLogsAt(c, pc)
		a.runChecksAt(c, pc)
		a.runRunsAt(pc)
		if a.interceptHalts(pc) {
			break
		}
		if _, err := c.Step(); err != nil {
			a.addf(KindError, t.Line, "test %q: %s", t.Name, err)
			return
		}
	}
	if steps >= maxTestSteps {
		a.addf(KindWarning, t.Line, "test %q exceeded %d steps without returning", t.Name, maxTestSteps)
	}

	name := t.Name
	if name == "" {
		name = "unnamed"
	}
	result := map[string]value.Value{
		"A":   value.Int(int64(c.A)),
		"X":   value.Int(int64(c.X)),
		"Y":   value.Int(int64(c.Y)),
		"SP":  value.Int(int64(c.SP)),
		"SR":  value.Int(int64(c.Status)),
		"PC":  value.Int(int64(c.PC)),
		"RAM": value.ByteSlice(append([]byte(nil), mem.RAM[:]...)),
	}
	if err := a.syms.Set("tests."+name, value.MapOf(result)); err != nil {
		a.addf(KindError, t.Line, "%s", err)
	}
}

func (a *Assembler) interceptHalts(pc int) bool {
	for _, ic := range a.intercepts {
		if ic.PC == pc && ic.Halt {
			return true
		}
	}
	return false
}

// publishRegs exposes the running core's register file to the symbol
// table under plain names (A, X, Y, SR, SP, PC, RAM), so a !check/!log
// expression can read them like any other symbol.
func (a *Assembler) publishRegs(c *emu.CPU) {
	// these names are never final, so Set cannot fail here.
	a.syms.Set("A", value.Int(int64(c.A)))
	a.syms.Set("X", value.Int(int64(c.X)))
	a.syms.Set("Y", value.Int(int64(c.Y)))
	a.syms.Set("SR", value.Int(int64(c.Status)))
	a.syms.Set("SP", value.Int(int64(c.SP)))
	a.syms.Set("PC", value.Int(int64(c.PC)))
	if d, ok := c.Mem.(*emu.Direct); ok {
		a.syms.Set("RAM", value.ByteSlice(append([]byte(nil), d.RAM[:]...)))
	}
}

func (a *Assembler) runChecksAt(c *emu.CPU, pc int) {
	for _, chk := range a.checks {
		if chk.PC != pc {
			continue
		}
		a.publishRegs(c)
		if !a.eval(chk.Body).Bool() {
			a.addf(KindAssert, chk.Line, "check failed at $%04x", pc)
		}
	}
}

func (a *Assembler) runLogsAt(c *emu.CPU, pc int) {
	for _, lp := range a.logs {
		if lp.PC != pc {
			continue
		}
		a.publishRegs(c)
		args := make([]interface{}, 0, len(lp.Args))
		for _, arg := range lp.Args {
			args = append(args, a.eval(arg).String())
		}
		glog.Infof("log @ $%04x: %v", pc, args)
	}
}

func (a *Assembler) runRunsAt(pc int) {
	for _, rp := range a.runs {
		if rp.PC != pc {
			continue
		}
		glog.V(1).Infof("run marker reached at $%04x", pc)
	}
}

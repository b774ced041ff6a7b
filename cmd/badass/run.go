package main

import (
	"fmt"
	"os"
	"time"

	"github.com/badass-asm/badass/assembler"
	"github.com/badass-asm/badass/cpu"
	"github.com/badass-asm/badass/emu"
	"github.com/badass-asm/badass/section"
	"github.com/badass-asm/badass/textdevice"
)

// runMaxSteps bounds a --run session the same way the !test harness bounds
// one test: a program that never sets the text device's exit bit cannot
// hang the CLI forever.
const runMaxSteps = 1 << 28

func seedRunMemory(mem *emu.Direct, s *section.Section) {
	if s.IsLeaf() {
		if len(s.Data) > 0 {
			mem.Load(uint16(s.Start), s.Data)
		}
		return
	}
	for _, c := range s.Children {
		seedRunMemory(mem, c)
	}
}

// entryPoint picks the start of the lowest-addressed leaf section holding
// data as the run entry point, matching the convention a raw/PRG image's load
// address already implies.
func entryPoint(roots []*section.Section) uint16 {
	best := -1
	var walk func(*section.Section)
	walk = func(s *section.Section) {
		if s.IsLeaf() {
			if len(s.Data) > 0 && (best == -1 || s.Start < best) {
				best = s.Start
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
	if best == -1 {
		return 0
	}
	return uint16(best)
}

// runProgram drives the assembled program against the emulator and an
// attached text display device until the device's control register
// requests exit or the step cap is hit.
func runProgram(result *assembler.Result, kind cpu.CPU) {
	direct := emu.NewDirect()
	for _, r := range result.Layout.Roots() {
		seedRunMemory(direct, r)
	}
	cb := emu.NewCallback(direct)

	dev := textdevice.New(80, 25, 40, 25)
	dev.Attach(cb, 0xd700)

	rawtty, tearDown := setupIO()
	if tearDown != nil {
		defer tearDown()
	}

	c := emu.New(cb, kind)
	c.PC = entryPoint(result.Layout.Roots())

	start := time.Now()
	for steps := 0; steps < runMaxSteps && !c.Halted(); steps++ {
		if rawtty {
			if k := pollKey(); k != 0 {
				dev.PushKey(k)
			}
		}
		dev.Tick(time.Since(start).Milliseconds())
		if dev.ExitRequested() {
			break
		}
		if _, err := c.Step(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

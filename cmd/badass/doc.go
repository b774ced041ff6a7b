// Badass is a cross-assembler for the 6502 and 65C02, producing a raw
// binary, a C64 PRG, or a C64 cartridge (.crt) image from one or more
// source files.
//
// Usage:
//
//	badass [flags] [file ...]
//
// With no file arguments, source is read from stdin. Multiple files are
// concatenated in the order given, after any -x scripts.
//
//	-65c02
//		target the 65C02 instead of the base 6502
//	-D name[=value]
//		predefine name (can be specified multiple times); a bare name with
//		no =value defines it as 1, a numeric value is parsed as a number,
//		anything else is kept as a string
//	-format string
//		output format: raw, prg, or crt (default "raw")
//	-i dir
//		add dir to the include search path (can be specified multiple
//		times)
//	-max-passes int
//		maximum convergence passes before giving up (default 10)
//	-o file
//		output file (default "a.out")
//	-q
//		suppress warnings
//	-run
//		run the assembled program against the emulator and text device
//	-S file
//		write a symbol table dump to file
//	-show-undefined
//		list every symbol still undefined after the final pass
//	-trace
//		enable verbose pass/macro tracing
//	-x script
//		run script before assembling the main source (can be specified
//		multiple times)
//
// -format: raw concatenates every section's storage in address order,
// zero-padding any gaps. prg prepends raw with a little-endian two-byte
// load address, as the C64 KERNAL expects. crt wraps the image in the C64
// cartridge container: a fixed header naming the label and hardware type,
// followed by one CHIP record per storage-carrying section.
//
// -run: after assembly, badass seeds a plain memory image from the
// resulting layout, attaches a text display device at $D700, switches the
// terminal to raw mode, and single-steps the chosen CPU starting at the
// lowest address carrying assembled data. The run ends when the text
// device's control register requests exit, the CPU halts on an
// unimplemented or illegal opcode, or an internal step cap is reached.
//
// -S: the dump lists every symbol, including ones the source never wrote
// under a package prefix, as "name = value" lines. It does not distinguish
// a symbol set by !test from one set by the source itself.
package main

package ast

import (
	"fmt"
	"strings"

	"github.com/badass-asm/badass/cpu"
)

// Parser builds a Node tree from a token stream using ordered-choice
// recursive descent: at each decision point the rules below are tried in
// the order written, PEG-style (no backtracking once a production has
// committed past its first token).
type Parser struct {
	lex      *Lexer
	tok      Token
	ahead    *Token
	filename string
	errs     *ErrorList
}

// Parse lexes and parses src, returning the program's root Node. Errors are
// accumulated (up to the lexer/parser's internal limits) and returned
// alongside a best-effort tree.
func Parse(filename, src string) (*Node, *ErrorList) {
	p := &Parser{lex: NewLexer(filename, src), filename: filename, errs: &ErrorList{}}
	p.next()
	root := NewNode(KindProgram, 0, Span{0, len(src)})
	root.File = filename
	for p.tok.Kind != TokEOF && len(p.errs.Items) < 50 {
		n := p.parseStatement()
		if n != nil {
			root.Add(n)
		} else {
			p.next()
		}
	}
	all := &ErrorList{}
	all.Items = append(all.Items, p.lex.Errors().Items...)
	all.Items = append(all.Items, p.errs.Items...)
	return root, all
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errs.Add(p.filename, p.tok.Line, fmt.Sprintf(format, args...))
}

func (p *Parser) next() Token {
	cur := p.tok
	if p.ahead != nil {
		p.tok = *p.ahead
		p.ahead = nil
	} else {
		p.tok = p.lex.Next()
	}
	return cur
}

func (p *Parser) peekAhead() Token {
	if p.ahead == nil {
		t := p.lex.Next()
		p.ahead = &t
	}
	return *p.ahead
}

func (p *Parser) isPunct(s string) bool {
	return p.tok.Kind == TokPunct && p.tok.Text == s
}

func (p *Parser) expectPunct(s string) bool {
	if p.isPunct(s) {
		p.next()
		return true
	}
	p.errorf("expected %q, got %q", s, p.tok.Text)
	return false
}

// parseStatement implements the top-level `statement` rule: ordered choice
// over label definitions, meta blocks, macro calls, and opcode lines.
func (p *Parser) parseStatement() *Node {
	switch p.tok.Kind {
	case TokLabelDef:
		return p.parseLabelDef()
	case TokLocalIdent:
		return p.parseLocalLabelOrRef()
	case TokMeta:
		return p.parseMeta()
	case TokIdent:
		return p.parseIdentStatement()
	case TokPunct:
		if p.tok.Text == "{" {
			return p.parseBlock()
		}
	}
	p.errorf("unexpected token %q", p.tok.Text)
	return nil
}

func (p *Parser) parseBlock() *Node {
	line := p.tok.Line
	start := p.tok.Span.Offset
	p.expectPunct("{")
	n := NewNode(KindBlock, line, Span{start, 0})
	for !p.isPunct("}") && p.tok.Kind != TokEOF && len(p.errs.Items) < 50 {
		s := p.parseStatement()
		if s != nil {
			n.Add(s)
		} else {
			p.next()
		}
	}
	p.expectPunct("}")
	return n
}

func (p *Parser) parseLabelDef() *Node {
	line := p.tok.Line
	name := p.tok.Text
	span := p.tok.Span
	p.next()
	// indexed label foo[k] = value
	if p.isPunct("[") {
		p.next()
		idx := p.parseExpr()
		p.expectPunct("]")
		n := NewNode(KindIndexedLabel, line, span)
		n.Str = name
		n.Add(idx)
		if p.isPunct("=") {
			p.next()
			n.Add(p.parseExpr())
		}
		return n
	}
	kind := KindLabel
	if strings.HasPrefix(name, ".") {
		kind = KindLocalLabel
	}
	n := NewNode(kind, line, span)
	n.Str = name
	return n
}

// parseLocalLabelOrRef handles a bare TokLocalIdent at statement position.
// A local label definition (".foo:") is folded into TokLabelDef by the
// lexer and routed to parseLabelDef instead, so a bare TokLocalIdent here
// is handed to parseIdentStatement exactly like a plain identifier.
func (p *Parser) parseLocalLabelOrRef() *Node {
	return p.parseIdentStatement()
}

func (p *Parser) parseIdentStatement() *Node {
	name := p.tok.Text
	line := p.tok.Line
	// assignment: ident = expr
	if p.peekAhead().Kind == TokPunct && p.peekAhead().Text == "=" {
		return p.finishAssign(name, line)
	}
	// indexed label: ident[k] = expr
	if p.peekAhead().Kind == TokPunct && p.peekAhead().Text == "[" {
		return p.parseLabelDef()
	}
	// macro call or opcode line: ident [operand]
	return p.parseInstructionOrCall(name, line)
}

func (p *Parser) finishAssign(name string, line int) *Node {
	span := p.tok.Span
	p.next() // ident
	p.expectPunct("=")
	rhs := p.parseExpr()
	n := NewNode(KindAssign, line, span)
	n.Str = name
	n.Add(rhs)
	return n
}

// parseInstructionOrCall handles both `mnemonic operand` lines and macro
// invocations `name(args)`. Mode detection is left to package cpu/assembler
// since it depends on the operand's resolved width; here we only capture
// the mnemonic text (optionally suffixed `.b`), the addressing-mode
// syntax actually written, and the operand expression.
func (p *Parser) parseInstructionOrCall(name string, line int) *Node {
	span := p.tok.Span
	p.next() // consume ident

	// call form: name(args)
	if p.isPunct("(") && isCallLike(name) {
		p.next()
		n := NewNode(KindMacroCall, line, span)
		n.Str = name
		for !p.isPunct(")") && p.tok.Kind != TokEOF {
			n.Add(p.parseExpr())
			if p.isPunct(",") {
				p.next()
			}
		}
		p.expectPunct(")")
		return n
	}

	n := NewNode(KindInstruction, line, span)
	n.Str = strings.ToLower(name)

	if p.isPunct(";") || p.isPunct("}") || p.tok.Kind == TokEOF || p.tok.Kind == TokLabelDef || p.tok.Kind == TokMeta {
		n.Op = "implicit"
		return n
	}

	switch {
	case p.isPunct("#"):
		p.next()
		n.Op = "immediate"
		n.Add(p.parseExpr())
	case p.isPunct("("):
		p.next()
		operand := p.parseExpr()
		if p.isPunct(",") {
			// (zp,x)
			p.next()
			p.next() // x
			p.expectPunct(")")
			n.Op = "indirect-x"
		} else {
			p.expectPunct(")")
			if p.isPunct(",") {
				p.next()
				p.next() // y
				n.Op = "indirect-y"
			} else {
				n.Op = "indirect"
			}
		}
		n.Add(operand)
	case p.tok.Kind == TokIdent && strings.EqualFold(p.tok.Text, "a") && !isOperandStart(p.peekAhead()):
		p.next()
		n.Op = "accumulator"
	default:
		operand := p.parseExpr()
		if p.isPunct(",") && isBitTestMnemonic(n.Str) {
			// bbr/bbs/rmb/smb take a (zero-page, branch-target) pair
			// rather than an indexed operand.
			p.next()
			n.Op = "absolute"
			n.Add(operand, p.parseExpr())
			break
		}
		if p.isPunct(",") {
			p.next()
			idx := p.tok.Text
			p.next()
			if strings.EqualFold(idx, "x") {
				n.Op = "indexed-x"
			} else {
				n.Op = "indexed-y"
			}
		} else {
			n.Op = "absolute" // width resolved later (zp vs abs vs relative)
		}
		n.Add(operand)
	}
	return n
}

// isBitTestMnemonic reports whether name is one of the 65C02 bit-test
// instructions (rmb0..rmb7, smb0..smb7, bbr0..bbr7, bbs0..bbs7), which take
// a (zero-page, branch-target) operand pair instead of the usual single
// indexed operand.
func isBitTestMnemonic(name string) bool {
	if len(name) != 4 {
		return false
	}
	switch name[:3] {
	case "rmb", "smb", "bbr", "bbs":
		return name[3] >= '0' && name[3] <= '7'
	}
	return false
}

// isCallLike reports whether `name(` starts a macro/define call rather
// than an instruction with a parenthesized (indirect) operand. A name that
// is a 6502/65C02 mnemonic always parses as an instruction, so a macro
// sharing a mnemonic's name is not reached through call syntax.
func isCallLike(name string) bool {
	return !cpu.TableFor(cpu.WDC65C02).HasMnemonic(strings.ToLower(name))
}

func isOperandStart(t Token) bool {
	return t.Kind == TokPunct && (t.Text == "," )
}

// parseMeta parses `!name args... { body }` or `!name args...`.
func (p *Parser) parseMeta() *Node {
	line := p.tok.Line
	span := p.tok.Span
	name := p.tok.Text
	p.next()

	switch name {
	case "macro":
		return p.parseMacroDef(line, span)
	case "define":
		return p.parseDefineDef(line, span)
	case "enum":
		return p.parseEnum(line, span)
	case "if", "ifdef", "ifndef":
		return p.parseIf(name, line, span)
	case "check":
		// !check { expr } holds a single delayed boolean expression, not a
		// statement block, so its braces are parsed directly here rather
		// than through the generic parseBlock used by !section/!rept/etc.
		n := NewNode(KindMeta, line, span)
		n.Str = name
		p.expectPunct("{")
		n.Add(p.parseExpr())
		p.expectPunct("}")
		return n
	}

	n := NewNode(KindMeta, line, span)
	n.Str = name
	for !p.isPunct("{") && p.tok.Kind != TokEOF && p.tok.Kind != TokLabelDef &&
		!(p.tok.Kind == TokMeta) && !p.isPunct(";") && !p.atStatementBoundary() {
		n.Add(p.parseMetaArg())
		if p.isPunct(",") {
			p.next()
			continue
		}
		break
	}
	if p.isPunct("{") {
		n.Add(p.parseBlock())
	}
	return n
}

// parseMetaArg parses one meta-directive argument, recognizing the
// `name=expr` named-argument form (e.g. `!section "code", in=parent,
// size=n`) ahead of the general expression grammar, since bare "=" is not
// an expression operator anywhere else in the language.
func (p *Parser) parseMetaArg() *Node {
	if p.tok.Kind == TokIdent {
		name := p.tok.Text
		if ahead := p.peekAhead(); ahead.Kind == TokPunct && ahead.Text == "=" {
			line := p.tok.Line
			start := p.tok.Span.Offset
			p.next()
			p.next()
			n := NewNode(KindAssign, line, Span{start, 0})
			n.Str = name
			n.Add(p.parseExpr())
			return n
		}
	}
	return p.parseExpr()
}

// atStatementBoundary is a conservative check used only to stop the meta
// argument list at newline-like boundaries; since the lexer does not emit
// newline tokens (whitespace is insignificant in this grammar, matching
// the source language's free-form layout), arguments are instead delimited
// by commas and the argument list simply ends at the first token that is
// not a comma-separated expression start.
func (p *Parser) atStatementBoundary() bool {
	return false
}

func (p *Parser) parseMacroDef(line int, span Span) *Node {
	n := NewNode(KindMacroDef, line, span)
	n.Str = p.tok.Text
	p.next()
	p.expectPunct("(")
	params := NewNode(KindBlock, line, span)
	for !p.isPunct(")") && p.tok.Kind != TokEOF {
		params.Str += p.tok.Text + ","
		p.next()
		if p.isPunct(",") {
			p.next()
		}
	}
	p.expectPunct(")")
	n.Add(params)
	n.Add(p.parseBlock())
	return n
}

func (p *Parser) parseDefineDef(line int, span Span) *Node {
	n := NewNode(KindDefineDef, line, span)
	n.Str = p.tok.Text
	p.next()
	p.expectPunct("(")
	params := NewNode(KindBlock, line, span)
	for !p.isPunct(")") && p.tok.Kind != TokEOF {
		params.Str += p.tok.Text + ","
		p.next()
		if p.isPunct(",") {
			p.next()
		}
	}
	p.expectPunct(")")
	n.Add(params)
	p.expectPunct("=")
	n.Add(p.parseExpr())
	return n
}

func (p *Parser) parseEnum(line int, span Span) *Node {
	n := NewNode(KindEnum, line, span)
	if p.tok.Kind == TokIdent {
		n.Str = p.tok.Text
		p.next()
	}
	p.expectPunct("{")
	for !p.isPunct("}") && p.tok.Kind != TokEOF {
		if p.tok.Kind != TokIdent {
			p.errorf("expected enum entry name, got %q", p.tok.Text)
			p.next()
			continue
		}
		entry := NewNode(KindEnumEntry, p.tok.Line, p.tok.Span)
		entry.Str = p.tok.Text
		p.next()
		if p.isPunct("=") {
			p.next()
			entry.Add(p.parseExpr())
		}
		n.Add(entry)
		if p.isPunct(",") {
			p.next()
		}
	}
	p.expectPunct("}")
	return n
}

func (p *Parser) parseIf(kind string, line int, span Span) *Node {
	n := NewNode(KindIf, line, span)
	n.Str = kind
	switch kind {
	case "if":
		n.Add(p.parseExpr())
	case "ifdef", "ifndef":
		n.Op = p.tok.Text
		p.next()
	}
	n.Add(p.parseBlock())
	for p.tok.Kind == TokMeta && p.tok.Text == "elseif" {
		p.next()
		branch := NewNode(KindIf, p.tok.Line, p.tok.Span)
		branch.Str = "elseif"
		branch.Add(p.parseExpr())
		branch.Add(p.parseBlock())
		n.Add(branch)
	}
	if p.tok.Kind == TokMeta && p.tok.Text == "else" {
		p.next()
		n.Add(p.parseBlock())
	}
	return n
}

// ---- expressions ----
// Precedence climbing, low to high:
//   0: ||
//   1: &&
//   2: == !=
//   3: < <= > >=
//   4: | ^
//   5: &
//   6: << >>
//   7: + -
//   8: * / %
//   9: ** (right-assoc)
// then unary, then postfix (call/index/slice/dotted), then atoms.

var precedence = map[string]int{
	"||": 0, "&&": 1,
	"==": 2, "!=": 2,
	"<": 3, "<=": 3, ">": 3, ">=": 3,
	"|": 4, "^": 4,
	"&": 5,
	"<<": 6, ">>": 6,
	"+": 7, "-": 7,
	"*": 8, "/": 8, "%": 8,
	"**": 9,
}

func (p *Parser) parseExpr() *Node {
	return p.parseBinary(0)
}

func (p *Parser) parseBinary(minPrec int) *Node {
	lhs := p.parseUnary()
	for {
		if p.tok.Kind != TokPunct {
			return lhs
		}
		prec, ok := precedence[p.tok.Text]
		if !ok || prec < minPrec {
			return lhs
		}
		op := p.tok.Text
		line := p.tok.Line
		p.next()
		nextMin := prec + 1
		if op == "**" {
			nextMin = prec // right-associative
		}
		rhs := p.parseBinary(nextMin)
		n := NewNode(KindBinary, line, lhs.Span)
		n.Op = op
		n.Add(lhs, rhs)
		lhs = n
	}
}

func (p *Parser) parseUnary() *Node {
	if p.tok.Kind == TokPunct && (p.tok.Text == "-" || p.tok.Text == "!" || p.tok.Text == "~" || p.tok.Text == "<" || p.tok.Text == ">") {
		op := p.tok.Text
		line := p.tok.Line
		span := p.tok.Span
		p.next()
		operand := p.parseUnary()
		n := NewNode(KindUnary, line, span)
		n.Op = op
		n.Add(operand)
		return n
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() *Node {
	n := p.parseAtom()
	for {
		switch {
		case p.isPunct("["):
			p.next()
			lo := p.parseExpr()
			if p.isPunct(":") {
				p.next()
				var hi *Node
				if !p.isPunct("]") {
					hi = p.parseExpr()
				}
				p.expectPunct("]")
				idx := NewNode(KindSlice, n.Line, n.Span)
				idx.Add(n, lo)
				if hi != nil {
					idx.Add(hi)
				}
				n = idx
				continue
			}
			p.expectPunct("]")
			idx := NewNode(KindIndex, n.Line, n.Span)
			idx.Add(n, lo)
			n = idx
		case p.isPunct("("):
			p.next()
			call := NewNode(KindCall, n.Line, n.Span)
			call.Add(n)
			for !p.isPunct(")") && p.tok.Kind != TokEOF {
				call.Add(p.parseExpr())
				if p.isPunct(",") {
					p.next()
				}
			}
			p.expectPunct(")")
			n = call
		default:
			return n
		}
	}
}

func (p *Parser) parseAtom() *Node {
	t := p.tok
	switch t.Kind {
	case TokNumber, TokChar:
		p.next()
		n := NewNode(KindNumber, t.Line, t.Span)
		n.Num = t.Num
		return n
	case TokString:
		p.next()
		n := NewNode(KindString, t.Line, t.Span)
		n.Str = t.Text
		return n
	case TokIdent:
		p.next()
		n := NewNode(KindIdent, t.Line, t.Span)
		if strings.Contains(t.Text, ".") {
			n.Kind = KindDottedIdent
		}
		n.Str = t.Text
		return n
	case TokLocalIdent:
		p.next()
		n := NewNode(KindIdent, t.Line, t.Span)
		n.Str = t.Text
		return n
	case TokPunct:
		switch t.Text {
		case "(":
			p.next()
			e := p.parseExpr()
			p.expectPunct(")")
			return e
		case "[":
			p.next()
			n := NewNode(KindArray, t.Line, t.Span)
			for !p.isPunct("]") && p.tok.Kind != TokEOF {
				n.Add(p.parseExpr())
				if p.isPunct(",") {
					p.next()
				}
			}
			p.expectPunct("]")
			return n
		case "+", "-":
			// bare '+'/'-' tokens denote the special monotonic labels
			// ("+" = next such label, "-" = previous); the evaluator
			// resolves these via synthetic __special_<N> names assigned
			// in source order.
			p.next()
			n := NewNode(KindIdent, t.Line, t.Span)
			n.Str = t.Text
			return n
		}
	}
	p.errorf("unexpected token %q in expression", t.Text)
	p.next()
	return NewNode(KindNumber, t.Line, t.Span)
}

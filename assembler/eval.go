package assembler

import (
	"strconv"
	"strings"

	"github.com/badass-asm/badass/ast"
	"github.com/badass-asm/badass/value"
)

// eval evaluates an expression node to a Value. Errors are recorded as
// diagnostics and Unit is returned so that evaluation of the surrounding
// expression can continue (matching the accumulate-all-errors behavior of
// the rest of the pipeline).
func (a *Assembler) eval(n *ast.Node) value.Value {
	switch n.Kind {
	case ast.KindNumber:
		return value.Num(n.Num)
	case ast.KindString:
		return value.Str(n.Str)
	case ast.KindArray:
		return a.evalArray(n)
	case ast.KindIdent, ast.KindDottedIdent:
		return a.evalIdent(n)
	case ast.KindIndex:
		base := a.eval(n.Children[0])
		idx := a.eval(n.Children[1])
		v, err := value.Index(base, int(idx.Int64()))
		if err != nil {
			a.addf(KindError, n.Line, "%s", err)
			return value.Zero
		}
		return v
	case ast.KindSlice:
		base := a.eval(n.Children[0])
		lo := a.eval(n.Children[1])
		hi := value.Num(float64(value.Len(base)))
		if len(n.Children) > 2 {
			hi = a.eval(n.Children[2])
		}
		v, err := value.Slice(base, int(lo.Int64()), int(hi.Int64()))
		if err != nil {
			a.addf(KindError, n.Line, "%s", err)
			return value.Zero
		}
		return v
	case ast.KindUnary:
		return a.evalUnary(n)
	case ast.KindBinary:
		return a.evalBinary(n)
	case ast.KindCall:
		return a.evalCall(n)
	default:
		a.addf(KindError, n.Line, "cannot evaluate node kind %v as an expression", n.Kind)
		return value.Zero
	}
}

func (a *Assembler) evalArray(n *ast.Node) value.Value {
	nums := make([]float64, 0, len(n.Children))
	allNumeric := true
	for _, c := range n.Children {
		v := a.eval(c)
		if v.Kind() != value.Number {
			allNumeric = false
			break
		}
		nums = append(nums, v.Float64())
	}
	if allNumeric {
		return value.NumberSlice(nums)
	}
	// mixed-kind array literals are rare (e.g. string list for !text
	// args); fall back to a byte-oriented view, truncating each element's
	// integer value to a byte (a non-number element counts as 0).
	bytes := make([]byte, 0, len(n.Children))
	for _, c := range n.Children {
		v := a.eval(c)
		bytes = append(bytes, byte(v.Int64()))
	}
	return value.ByteSlice(bytes)
}

func (a *Assembler) evalIdent(n *ast.Node) value.Value {
	name := n.Str
	switch name {
	case "+":
		return a.lookupAnon(n.Line, true)
	case "-":
		return a.lookupAnon(n.Line, false)
	}
	if strings.HasPrefix(name, ".") {
		name = a.localName(name)
	}
	v, err := a.syms.Get(name)
	if err != nil {
		a.addf(KindError, n.Line, "%s", err)
		return value.Zero
	}
	return v
}

// lookupAnon resolves a "+"/"-" reference to the appropriate synthetic
// anonymous-label symbol (see bindAnonLabel).
func (a *Assembler) lookupAnon(line int, forward bool) value.Value {
	idx := a.anonSeenCount
	if !forward {
		idx--
		if idx < 0 {
			a.addf(KindError, line, "'-' refers to a previous anonymous label, but none has been seen yet")
			return value.Zero
		}
	}
	v, err := a.syms.Get(anonName(idx))
	if err != nil {
		a.addf(KindError, line, "%s", err)
		return value.Zero
	}
	return v
}

func (a *Assembler) evalUnary(n *ast.Node) value.Value {
	v := a.eval(n.Children[0])
	switch n.Op {
	case "-":
		return value.Num(-v.Float64())
	case "!":
		if v.Bool() {
			return value.Num(0)
		}
		return value.Num(1)
	case "~":
		return value.Num(float64(^v.Int64()))
	case "<":
		return value.Num(float64(v.Uint32() & 0xff))
	case ">":
		return value.Num(float64((v.Uint32() >> 8) & 0xff))
	default:
		a.addf(KindError, n.Line, "unknown unary operator %q", n.Op)
		return value.Zero
	}
}

func (a *Assembler) evalBinary(n *ast.Node) value.Value {
	lhs := a.eval(n.Children[0])
	rhs := a.eval(n.Children[1])
	switch n.Op {
	case "==":
		return boolValue(value.Equal(lhs, rhs))
	case "!=":
		return boolValue(!value.Equal(lhs, rhs))
	case "<":
		return boolValue(lhs.Float64() < rhs.Float64())
	case "<=":
		return boolValue(lhs.Float64() <= rhs.Float64())
	case ">":
		return boolValue(lhs.Float64() > rhs.Float64())
	case ">=":
		return boolValue(lhs.Float64() >= rhs.Float64())
	case "&&":
		return boolValue(lhs.Bool() && rhs.Bool())
	case "||":
		return boolValue(lhs.Bool() || rhs.Bool())
	default:
		v, err := value.Arith(n.Op, lhs, rhs)
		if err != nil {
			a.addf(KindError, n.Line, "%s", err)
			return value.Zero
		}
		return v
	}
}

func boolValue(b bool) value.Value {
	if b {
		return value.Num(1)
	}
	return value.Num(0)
}

func (a *Assembler) evalCall(n *ast.Node) value.Value {
	callee := n.Children[0]
	if callee.Kind != ast.KindIdent && callee.Kind != ast.KindDottedIdent {
		a.addf(KindError, n.Line, "call target must be an identifier")
		return value.Zero
	}
	d, ok := a.defines[callee.Str]
	if !ok {
		a.addf(KindError, n.Line, "undefined define/function %q", callee.Str)
		return value.Zero
	}
	return a.evalCallable(d, n.Children[1:], n.Line)
}

// parseNumberLiteral parses a bare numeric literal outside of full
// expression syntax. Nothing in this package calls it: meta-command
// arguments such as `!align 4` go through eval.
func parseNumberLiteral(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

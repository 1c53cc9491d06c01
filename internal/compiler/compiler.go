// Package compiler implements Lumen's single-pass Pratt compiler: it
// consumes a token stream directly (no intermediate AST) and emits
// bytecode for an ObjFn (spec.md §4.5).
//
// This is a deliberate divergence from the teacher's own compiler
// (internal/compiler/compiler.go), which walks a pre-built AST
// (parser.Expr.Accept(visitor)) emitted by a separate parser stage.
// spec.md §1 calls for lowering a token stream directly; kept from the
// teacher is the imperative emission style itself — WriteOp/WriteByte
// calls, manual jump-offset patching by indexing into the code slice —
// generalized from chunk-local byte slices to per-compile-unit ones
// (internal/compiler/compiler.go's VisitIfExpr jump patching is the
// direct model for emitJump/patchJump below).
package compiler

import (
	"fmt"

	"lumen/internal/bytecode"
	"lumen/internal/lumenerr"
	"lumen/internal/object"
	"lumen/internal/token"
	"lumen/internal/vm"
)

// Compiler holds the state needed to compile one module's token stream
// to bytecode.
type Compiler struct {
	vm     *vm.VM
	module *object.Module
	file   string

	tokens []token.Token
	pos    int

	cur *unit
}

// Compile compiles tokens (as produced by the lexer for file) into an
// ObjFn for module, per spec.md §4.5's "Output" contract.
func Compile(v *vm.VM, module *object.Module, file string, tokens []token.Token) (*object.Fn, error) {
	c := &Compiler{vm: v, module: module, file: file, tokens: tokens}
	fn := v.NewFn(module, "<module>")
	fn.ArgCount = 0
	c.cur = newUnit(fn, nil, -1)
	v.CompilingUnit = c.cur

	defer func() { v.CompilingUnit = nil }()

	for !c.check(token.EOF) {
		if err := c.declaration(); err != nil {
			return nil, err
		}
	}
	c.emitOp(bytecode.OpPushNull)
	c.emitOp(bytecode.OpReturn)
	c.cur.fn.MaxStackSlots = c.cur.peakSlots
	return c.cur.fn, c.checkUnresolvedForwardRefs()
}

func (c *Compiler) checkUnresolvedForwardRefs() error {
	for i := 0; i < c.module.Variables.Len(); i++ {
		if c.module.VariableAt(i).IsNumber() {
			name := c.module.Variables.Name(i)
			line := int(c.module.VariableAt(i).AsNumber())
			return c.errAt(line, "Compile", "variable '%s' referenced at line %d but never defined", name, line)
		}
	}
	return nil
}

// --- token stream helpers ---

func (c *Compiler) peek() token.Token     { return c.tokens[c.pos] }
func (c *Compiler) previous() token.Token { return c.tokens[c.pos-1] }

func (c *Compiler) check(t token.Type) bool { return c.peek().Type == t }

func (c *Compiler) advance() token.Token {
	if !c.check(token.EOF) {
		c.pos++
	}
	return c.previous()
}

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, msg string) (token.Token, error) {
	if c.check(t) {
		return c.advance(), nil
	}
	return token.Token{}, c.errAt(c.peek().Line, "Compile", "%s (got %s)", msg, c.peek().Type)
}

func (c *Compiler) errAt(line int, cat lumenerr.Category, format string, args ...interface{}) error {
	return lumenerr.NewAt(cat, c.file, line, "%s", fmt.Sprintf(format, args...))
}

func (c *Compiler) errHere(format string, args ...interface{}) error {
	return c.errAt(c.peek().Line, "Compile", format, args...)
}

// --- emission helpers ---

func (c *Compiler) emitByte(b byte) int {
	c.cur.fn.Code = append(c.cur.fn.Code, b)
	c.cur.fn.Lines = append(c.cur.fn.Lines, c.previous().Line)
	return len(c.cur.fn.Code) - 1
}

func (c *Compiler) emitOp(op bytecode.Op) int { return c.emitByte(byte(op)) }

func (c *Compiler) emitShort(op bytecode.Op, operand int) int {
	pos := c.emitOp(op)
	c.emitByte(byte(operand >> 8))
	c.emitByte(byte(operand))
	return pos
}

func (c *Compiler) emitByteOperand(op bytecode.Op, operand int) int {
	pos := c.emitOp(op)
	c.emitByte(byte(operand))
	return pos
}

func (c *Compiler) addConstant(v object.Value) int {
	c.cur.fn.Constants = append(c.cur.fn.Constants, v)
	return len(c.cur.fn.Constants) - 1
}

// emitConstant loads v via LOAD_CONSTANT (spec.md §4.5.2, "Literals").
func (c *Compiler) emitConstant(v object.Value) {
	idx := c.addConstant(v)
	c.emitShort(bytecode.OpConstant, idx)
	c.cur.growStack(1)
}

// emitJump writes op followed by a two-byte 0xFFFF placeholder and
// returns the offset of the first placeholder byte, for a later
// patchJump (spec.md §4.5.6's backpatching contract).
func (c *Compiler) emitJump(op bytecode.Op) int {
	c.emitOp(op)
	pos := len(c.cur.fn.Code)
	c.emitByte(0xFF)
	c.emitByte(0xFF)
	return pos
}

func (c *Compiler) patchJump(placeholder int) {
	dist := len(c.cur.fn.Code) - (placeholder + 2)
	c.cur.fn.Code[placeholder] = byte(dist >> 8)
	c.cur.fn.Code[placeholder+1] = byte(dist)
}

// emitLoop emits a backward LOOP to start (spec.md §4.5.4).
func (c *Compiler) emitLoop(start int) {
	c.emitOp(bytecode.OpLoop)
	dist := len(c.cur.fn.Code) - start + 2
	c.emitByte(byte(dist >> 8))
	c.emitByte(byte(dist))
}

// --- scope management ---

func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

// endScope pops (or closes, if captured) every local declared in the
// scope being exited (spec.md §4.5.4, "Block").
func (c *Compiler) endScope() {
	c.cur.scopeDepth--
	for len(c.cur.locals) > 0 && c.cur.locals[len(c.cur.locals)-1].Depth > c.cur.scopeDepth {
		last := c.cur.locals[len(c.cur.locals)-1]
		if last.IsUpvalue {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
		c.cur.locals = c.cur.locals[:len(c.cur.locals)-1]
		c.cur.growStack(-1)
	}
}

// declareLocal adds name as a new local in the current scope, spec.md
// §4.5's "fixed-size array of local variables with scope depths". It
// is pure bookkeeping: the stack slot the local occupies is whatever
// value the caller already arranged to be on top of the stack (an
// emitted push, or an incoming call argument) — callers that didn't
// already emit a push (parameter declarations) must growStack(1)
// themselves.
func (c *Compiler) declareLocal(name string) (int, error) {
	if len(c.cur.locals) >= maxLocals {
		return 0, c.errHere("too many local variables in one function")
	}
	for i := len(c.cur.locals) - 1; i >= 0; i-- {
		l := c.cur.locals[i]
		if l.Depth < c.cur.scopeDepth {
			break
		}
		if l.Name == name {
			return 0, c.errHere("variable '%s' already declared in this scope", name)
		}
	}
	c.cur.locals = append(c.cur.locals, Local{Name: name, Depth: c.cur.scopeDepth, IsMutable: true})
	return len(c.cur.locals) - 1, nil
}

// resolveLocal implements spec.md §4.5.1 point 1.
func resolveLocal(u *unit, name string) int {
	for i := len(u.locals) - 1; i >= 0; i-- {
		if u.locals[i].Name == name {
			return i
		}
	}
	return -1
}

// resolveUpvalue implements spec.md §4.5.1 point 2.
func resolveUpvalue(u *unit, name string) int {
	if u.parent == nil {
		return -1
	}
	if slot := resolveLocal(u.parent, name); slot >= 0 {
		u.parent.locals[slot].IsUpvalue = true
		return addUpvalue(u, true, slot)
	}
	if idx := resolveUpvalue(u.parent, name); idx >= 0 {
		return addUpvalue(u, false, idx)
	}
	return -1
}

func addUpvalue(u *unit, isEnclosingLocal bool, index int) int {
	for i, uv := range u.upvalues {
		if uv.IsEnclosingLocal == isEnclosingLocal && uv.Index == index {
			return i
		}
	}
	u.upvalues = append(u.upvalues, object.UpvalueDesc{IsEnclosingLocal: isEnclosingLocal, Index: index})
	u.fn.UpvalueCount = len(u.upvalues)
	u.fn.Upvalues = u.upvalues
	return len(u.upvalues) - 1
}

// ensureMethodSymbol interns sig's canonical string in the VM's
// global method-name table (spec.md §4.5.3).
func (c *Compiler) ensureMethodSymbol(sig Signature) int {
	return c.vm.MethodNames.Ensure(sig.String())
}

package compiler

import (
	"lumen/internal/bytecode"
	"lumen/internal/object"
	"lumen/internal/token"
)

// declaration dispatches top-level and block-level declarations
// (spec.md §4.5.4).
func (c *Compiler) declaration() error {
	switch {
	case c.match(token.Var):
		return c.varDeclaration()
	case c.match(token.Fun):
		return c.funDeclaration()
	case c.match(token.Class):
		return c.classDeclaration()
	case c.match(token.Import):
		return c.importDeclaration()
	default:
		return c.statement()
	}
}

func (c *Compiler) varDeclaration() error {
	nameTok, err := c.consume(token.Ident, "expected variable name")
	if err != nil {
		return err
	}
	name := nameTok.Lexeme

	// Module scope (depth < 0): the value lives in the module's
	// variable table, not on the stack.
	if c.cur.scopeDepth < 0 {
		idx := c.module.Declare(name)
		c.module.SetVariableAt(idx, object.Null)
		if c.match(token.Equal) {
			if err := c.expression(PrecAssign); err != nil {
				return err
			}
		} else {
			c.emitOp(bytecode.OpPushNull)
			c.cur.growStack(1)
		}
		c.emitShort(bytecode.OpStoreModuleVar, idx)
		c.emitOp(bytecode.OpPop)
		c.cur.growStack(-1)
		_, err = c.consume(token.Semicolon, "expected ';' after variable declaration")
		return err
	}

	// Block scope: the initializer's pushed value becomes the local's
	// stack slot directly, so declareLocal must run after it.
	if c.match(token.Equal) {
		if err := c.expression(PrecAssign); err != nil {
			return err
		}
	} else {
		c.emitOp(bytecode.OpPushNull)
		c.cur.growStack(1)
	}
	if _, err := c.declareLocal(name); err != nil {
		return err
	}
	_, err = c.consume(token.Semicolon, "expected ';' after variable declaration")
	return err
}

// importDeclaration compiles `import "path";` to a call on the System
// class (already a module variable in every user module, copied in by
// NewUserModule): System.import_("path"), so the receiver a CALL1
// expects is on the stack before the path argument (spec.md §4.5.1's
// "no bare top-level statement runs without a receiver" convention
// every other call-emitting production follows).
func (c *Compiler) importDeclaration() error {
	pathTok, err := c.consume(token.String, "expected module path string after 'import'")
	if err != nil {
		return err
	}
	systemIdx := c.module.Declare("System")
	c.emitShort(bytecode.OpLoadModuleVar, systemIdx)
	c.cur.growStack(1)
	c.emitConstant(object.Obj(c.vm.NewString(pathTok.Value.(string))))
	c.emitCallSignature(Signature{Type: SigMethod, Name: "import_", ArgCount: 1})
	c.emitOp(bytecode.OpPop)
	c.cur.growStack(-1)
	_, err = c.consume(token.Semicolon, "expected ';' after import")
	return err
}

func (c *Compiler) statement() error {
	switch {
	case c.match(token.If):
		return c.ifStatement()
	case c.match(token.While):
		return c.whileStatement()
	case c.match(token.For):
		return c.forStatement()
	case c.match(token.Return):
		return c.returnStatement()
	case c.match(token.Break):
		return c.breakStatement()
	case c.match(token.Continue):
		return c.continueStatement()
	case c.match(token.LBrace):
		c.beginScope()
		if err := c.block(); err != nil {
			return err
		}
		c.endScope()
		return nil
	default:
		return c.expressionStatement()
	}
}

func (c *Compiler) expressionStatement() error {
	if err := c.expression(PrecLowest); err != nil {
		return err
	}
	c.emitOp(bytecode.OpPop)
	c.cur.growStack(-1)
	_, err := c.consume(token.Semicolon, "expected ';' after expression")
	return err
}

// block compiles `{ … }` until the matching '}' (the opening '{' has
// already been consumed).
func (c *Compiler) block() error {
	for !c.check(token.RBrace) && !c.check(token.EOF) {
		if err := c.declaration(); err != nil {
			return err
		}
	}
	_, err := c.consume(token.RBrace, "expected '}' after block")
	return err
}

// ifStatement implements spec.md §4.5.4's if/else jump layout.
func (c *Compiler) ifStatement() error {
	if _, err := c.consume(token.LParen, "expected '(' after 'if'"); err != nil {
		return err
	}
	if err := c.expression(PrecLowest); err != nil {
		return err
	}
	if _, err := c.consume(token.RParen, "expected ')' after condition"); err != nil {
		return err
	}
	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.cur.growStack(-1)
	if err := c.statement(); err != nil {
		return err
	}
	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	if c.match(token.Else) {
		if err := c.statement(); err != nil {
			return err
		}
	}
	c.patchJump(elseJump)
	return nil
}

// whileStatement implements spec.md §4.5.4's while/break/continue
// layout.
func (c *Compiler) whileStatement() error {
	loopStart := len(c.cur.fn.Code)
	lp := &loop{start: loopStart, scopeDepth: c.cur.scopeDepth, enclosing: c.cur.loop}
	c.cur.loop = lp

	if _, err := c.consume(token.LParen, "expected '(' after 'while'"); err != nil {
		return err
	}
	if err := c.expression(PrecLowest); err != nil {
		return err
	}
	if _, err := c.consume(token.RParen, "expected ')' after condition"); err != nil {
		return err
	}
	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.cur.growStack(-1)
	if err := c.statement(); err != nil {
		return err
	}
	c.emitLoop(loopStart)
	c.patchJump(exitJump)

	for _, b := range lp.breaks {
		c.rewriteBreak(b)
	}
	c.cur.loop = lp.enclosing
	return nil
}

// rewriteBreak converts an END placeholder at offset into a forward
// JUMP that lands just past the loop (spec.md §4.5.4, "break").
func (c *Compiler) rewriteBreak(offset int) {
	c.cur.fn.Code[offset] = byte(bytecode.OpJump)
	dist := len(c.cur.fn.Code) - (offset + 3)
	c.cur.fn.Code[offset+1] = byte(dist >> 8)
	c.cur.fn.Code[offset+2] = byte(dist)
}

// discardLoopLocals pops (or closes) locals down to depth+1, for
// break/continue (spec.md §4.5.4).
func (c *Compiler) discardLoopLocals(depth int) {
	for i := len(c.cur.locals) - 1; i >= 0; i-- {
		if c.cur.locals[i].Depth <= depth {
			break
		}
		if c.cur.locals[i].IsUpvalue {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
	}
}

func (c *Compiler) breakStatement() error {
	if c.cur.loop == nil {
		return c.errHere("'break' outside a loop")
	}
	c.discardLoopLocals(c.cur.loop.scopeDepth)
	placeholder := c.emitOp(bytecode.OpClose)
	c.emitByte(0xFF)
	c.emitByte(0xFF)
	c.cur.loop.breaks = append(c.cur.loop.breaks, placeholder)
	_, err := c.consume(token.Semicolon, "expected ';' after 'break'")
	return err
}

func (c *Compiler) continueStatement() error {
	if c.cur.loop == nil {
		return c.errHere("'continue' outside a loop")
	}
	c.discardLoopLocals(c.cur.loop.scopeDepth)
	c.emitLoop(c.cur.loop.start)
	_, err := c.consume(token.Semicolon, "expected ';' after 'continue'")
	return err
}

// forStatement lowers `for id (seq) body` to the iterator protocol
// (spec.md §4.5.4).
func (c *Compiler) forStatement() error {
	idTok, err := c.consume(token.Ident, "expected loop variable name")
	if err != nil {
		return err
	}

	c.beginScope()
	if _, err := c.consume(token.LParen, "expected '(' before sequence expression"); err != nil {
		return err
	}
	if err := c.expression(PrecLowest); err != nil {
		return err
	}
	if _, err := c.consume(token.RParen, "expected ')' after sequence expression"); err != nil {
		return err
	}
	if _, err := c.declareLocal("_seq"); err != nil {
		return err
	}

	c.emitOp(bytecode.OpPushNull)
	c.cur.growStack(1)
	iterSlot, err := c.declareLocal("_iter")
	if err != nil {
		return err
	}
	seqSlot := iterSlot - 1

	loopStart := len(c.cur.fn.Code)
	lp := &loop{start: loopStart, scopeDepth: c.cur.scopeDepth, enclosing: c.cur.loop}
	c.cur.loop = lp

	c.emitByteOperand(bytecode.OpLoadLocal, seqSlot)
	c.cur.growStack(1)
	c.emitByteOperand(bytecode.OpLoadLocal, iterSlot)
	c.cur.growStack(1)
	c.emitCallSignature(Signature{Type: SigMethod, Name: "iterate", ArgCount: 1})
	c.emitByteOperand(bytecode.OpStoreLocal, iterSlot)

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.cur.growStack(-1)

	c.beginScope()
	c.emitByteOperand(bytecode.OpLoadLocal, seqSlot)
	c.cur.growStack(1)
	c.emitByteOperand(bytecode.OpLoadLocal, iterSlot)
	c.cur.growStack(1)
	c.emitCallSignature(Signature{Type: SigMethod, Name: "iteratorValue", ArgCount: 1})
	if _, err := c.declareLocal(idTok.Lexeme); err != nil {
		return err
	}

	if err := c.statement(); err != nil {
		return err
	}
	c.endScope()

	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	for _, b := range lp.breaks {
		c.rewriteBreak(b)
	}
	c.cur.loop = lp.enclosing
	c.endScope()
	return nil
}

func (c *Compiler) returnStatement() error {
	if c.check(token.Semicolon) {
		c.emitOp(bytecode.OpPushNull)
		c.cur.growStack(1)
	} else {
		if err := c.expression(PrecLowest); err != nil {
			return err
		}
	}
	c.emitOp(bytecode.OpReturn)
	c.cur.growStack(-1)
	_, err := c.consume(token.Semicolon, "expected ';' after 'return'")
	return err
}

// funDeclaration compiles `fun name(params) { body }` as a module
// variable `"Fn " + name` (spec.md §4.5.1 point 6).
func (c *Compiler) funDeclaration() error {
	nameTok, err := c.consume(token.Ident, "expected function name")
	if err != nil {
		return err
	}
	idx := c.module.Declare("Fn " + nameTok.Lexeme)
	c.module.SetVariableAt(idx, object.Null)
	if err := c.compileFunctionBody(nameTok.Lexeme); err != nil {
		return err
	}
	c.emitShort(bytecode.OpStoreModuleVar, idx)
	c.emitOp(bytecode.OpPop)
	c.cur.growStack(-1)
	return nil
}

// compileFunctionBody parses `(params) { body }`, starting a new
// compile unit, and leaves the created closure on the enclosing
// unit's stack (spec.md §4.5.5).
func (c *Compiler) compileFunctionBody(name string) error {
	fn := c.vm.NewFn(c.module, name)
	inner := newUnit(fn, c.cur, 0)

	if _, err := c.consume(token.LParen, "expected '(' after function name"); err != nil {
		return err
	}
	parent := c.cur
	c.cur = inner
	if inner.class != nil {
		// method parameter slot 0 is implicit `this`.
		inner.locals = append(inner.locals, Local{Name: "this", Depth: 0})
		inner.growStack(1)
	}
	if !c.check(token.RParen) {
		for {
			pTok, err := c.consume(token.Ident, "expected parameter name")
			if err != nil {
				c.cur = parent
				return err
			}
			if _, err := c.declareLocal(pTok.Lexeme); err != nil {
				c.cur = parent
				return err
			}
			c.cur.growStack(1) // incoming argument, no push emitted for it
			fn.ArgCount++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	if _, err := c.consume(token.RParen, "expected ')' after parameters"); err != nil {
		c.cur = parent
		return err
	}
	if _, err := c.consume(token.LBrace, "expected '{' before function body"); err != nil {
		c.cur = parent
		return err
	}
	if err := c.block(); err != nil {
		c.cur = parent
		return err
	}
	c.emitOp(bytecode.OpPushNull)
	c.emitOp(bytecode.OpReturn)
	fn.MaxStackSlots = c.cur.peakSlots

	c.cur = parent
	constIdx := c.addConstant(object.Obj(fn))
	c.emitShort(bytecode.OpCreateClosure, constIdx)
	for _, uv := range inner.upvalues {
		if uv.IsEnclosingLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(byte(uv.Index))
	}
	c.cur.growStack(1)
	return nil
}

// classFieldDeclaration compiles `[static] var name [= expr];`
// written directly in a class body (spec.md §4.5.1 points 3-4). A
// static field backs onto a module variable shared by every method;
// an instance field only reserves a slot in the class's field table —
// initialization happens per-instance at construction, not here.
func (c *Compiler) classFieldDeclaration(bk *classBookkeeping) error {
	isStatic := c.match(token.Static)
	nameTok, err := c.consume(token.Ident, "expected field name")
	if err != nil {
		return err
	}
	name := nameTok.Lexeme

	if isStatic {
		if bk.staticFields[name] {
			return c.errHere("static field '%s' already declared", name)
		}
		bk.staticFields[name] = true
		idx := c.module.Declare(staticFieldModuleName(bk.name, name))
		c.module.SetVariableAt(idx, object.Null)
		if c.match(token.Equal) {
			if err := c.expression(PrecLowest); err != nil {
				return err
			}
			c.emitShort(bytecode.OpStoreModuleVar, idx)
			c.emitOp(bytecode.OpPop)
			c.cur.growStack(-1)
		}
	} else {
		if bk.fields.IndexOf(name) >= 0 {
			return c.errHere("instance field '%s' already declared", name)
		}
		bk.fields.Add(name)
		if c.check(token.Equal) {
			return c.errHere("instance fields cannot have an initializer")
		}
	}
	_, err = c.consume(token.Semicolon, "expected ';' after field declaration")
	return err
}

// classDeclaration compiles `class Name [: Super] { members }`
// (spec.md §4.5.4, "Class definition").
func (c *Compiler) classDeclaration() error {
	nameTok, err := c.consume(token.Ident, "expected class name")
	if err != nil {
		return err
	}
	className := nameTok.Lexeme
	idx := c.module.Declare(className)
	c.module.SetVariableAt(idx, object.Null)

	c.emitConstant(object.Obj(c.vm.NewString(className)))

	hasSuper := c.match(token.Colon)
	if hasSuper {
		if err := c.expression(PrecCall); err != nil {
			return err
		}
	} else {
		if err := c.emitLoadCoreClass("Object"); err != nil {
			return err
		}
	}

	bk := &classBookkeeping{name: className, fields: object.NewSymbolTable(), staticFields: make(map[string]bool), enclosing: c.cur.class}
	c.cur.class = bk

	if _, err := c.consume(token.LBrace, "expected '{' before class body"); err != nil {
		return err
	}

	type pendingMethod struct {
		isStatic bool
		sig      Signature
	}
	var methodNames []pendingMethod

	for !c.check(token.RBrace) && !c.check(token.EOF) {
		if c.match(token.Var) {
			if err := c.classFieldDeclaration(bk); err != nil {
				return err
			}
			continue
		}

		isStatic := c.match(token.Static)
		bk.inStatic = isStatic

		sig, err := c.parseMethodSignature(bk)
		if err != nil {
			return err
		}

		if _, err := c.consume(token.LBrace, "expected '{' before method body"); err != nil {
			return err
		}
		bk.signature = &sig
		if err := c.compileMethodBody(sig, bk); err != nil {
			return err
		}
		bk.signature = nil
		// A constructor's receiver at the call site is the class value
		// itself (`ClassName.new(...)`), so it must bind onto the
		// metaclass regardless of whether `static` was written.
		bindStatic := isStatic || sig.Type == SigConstruct
		methodNames = append(methodNames, pendingMethod{isStatic: bindStatic, sig: sig})
		bk.inStatic = false
	}
	_, err = c.consume(token.RBrace, "expected '}' after class body")
	if err != nil {
		return err
	}

	fieldCount := bk.fields.Len()
	c.emitByteOperand(bytecode.OpCreateClass, fieldCount)
	c.cur.growStack(-1) // super popped, class pushed: net 0, but the 2 inputs -> 1 output

	for _, m := range methodNames {
		symbol := c.vm.MethodNames.Ensure(m.sig.String())
		if m.isStatic {
			c.emitShort(bytecode.OpStaticMethod, symbol)
		} else {
			c.emitShort(bytecode.OpInstanceMethod, symbol)
		}
		c.cur.growStack(-1) // the method's closure is consumed; the class stays on the stack
	}

	c.cur.class = bk.enclosing
	c.emitShort(bytecode.OpStoreModuleVar, idx)
	c.emitOp(bytecode.OpPop)
	c.cur.growStack(-1)
	return nil
}

// parseMethodSignature consumes a method header and returns its
// Signature (spec.md §4.5.3).
func (c *Compiler) parseMethodSignature(bk *classBookkeeping) (Signature, error) {
	if c.check(token.LBracket) {
		c.advance()
		argc := 0
		if !c.check(token.RBracket) {
			for {
				paramTok, err := c.consume(token.Ident, "expected parameter name")
				if err != nil {
					return Signature{}, err
				}
				// Parameter locals are declared by compileMethodBody once
				// the inner compile unit is active; stash names on bk.
				bk.pendingParams = append(bk.pendingParams, paramTok.Lexeme)
				argc++
				if !c.match(token.Comma) {
					break
				}
			}
		}
		if _, err := c.consume(token.RBracket, "expected ']'"); err != nil {
			return Signature{}, err
		}
		if c.match(token.Equal) {
			if _, err := c.consume(token.LParen, "expected '(' after '='"); err != nil {
				return Signature{}, err
			}
			paramTok, err := c.consume(token.Ident, "expected setter parameter")
			if err != nil {
				return Signature{}, err
			}
			if _, err := c.consume(token.RParen, "expected ')'"); err != nil {
				return Signature{}, err
			}
			// Parameter local declared by compileMethodBody once the
			// inner compile unit is active, after the subscript indices.
			bk.pendingParams = append(bk.pendingParams, paramTok.Lexeme)
			return Signature{Type: SigSubscriptSetter, ArgCount: argc}, nil
		}
		return Signature{Type: SigSubscript, ArgCount: argc}, nil
	}

	nameTok, err := c.consume(token.Ident, "expected method name")
	if err != nil {
		return Signature{}, err
	}
	name := nameTok.Lexeme
	isConstruct := name == "new"

	if c.match(token.Equal) {
		if _, err := c.consume(token.LParen, "expected '(' after '='"); err != nil {
			return Signature{}, err
		}
		paramTok, err := c.consume(token.Ident, "expected setter parameter")
		if err != nil {
			return Signature{}, err
		}
		if _, err := c.consume(token.RParen, "expected ')'"); err != nil {
			return Signature{}, err
		}
		// Parameter local declared by compileMethodBody once the inner
		// compile unit is active, not here in the enclosing scope.
		bk.pendingParams = append(bk.pendingParams, paramTok.Lexeme)
		return Signature{Type: SigSetter, Name: name}, nil
	}

	if c.check(token.LParen) {
		c.advance()
		argc := 0
		if !c.check(token.RParen) {
			for {
				paramTok, err := c.consume(token.Ident, "expected parameter name")
				if err != nil {
					return Signature{}, err
				}
				// Parameter locals are declared by compileMethodBody once
				// the inner compile unit is active; stash names on bk.
				bk.pendingParams = append(bk.pendingParams, paramTok.Lexeme)
				argc++
				if !c.match(token.Comma) {
					break
				}
			}
		}
		if _, err := c.consume(token.RParen, "expected ')'"); err != nil {
			return Signature{}, err
		}
		if isConstruct {
			return Signature{Type: SigConstruct, Name: name, ArgCount: argc}, nil
		}
		return Signature{Type: SigMethod, Name: name, ArgCount: argc}, nil
	}

	return Signature{Type: SigGetter, Name: name}, nil
}

// compileMethodBody compiles a method's `{ … }` body, starting a new
// compile unit with `this` bound at local slot 0 (spec.md §4.5.1,
// §4.5.4).
func (c *Compiler) compileMethodBody(sig Signature, bk *classBookkeeping) error {
	fn := c.vm.NewFn(c.module, bk.name+"."+sig.String())
	fn.ArgCount = sig.stackArgCount()
	inner := newUnit(fn, c.cur, 0)
	inner.isMethod = true
	inner.class = bk
	inner.locals = append(inner.locals, Local{Name: "this", Depth: 0})
	inner.growStack(1)

	parent := c.cur
	c.cur = inner

	if sig.Type == SigConstruct {
		c.emitOp(bytecode.OpConstruct)
	}

	for _, p := range bk.pendingParams {
		if _, err := c.declareLocal(p); err != nil {
			c.cur = parent
			return err
		}
	}
	bk.pendingParams = nil

	if err := c.block(); err != nil {
		c.cur = parent
		return err
	}
	c.emitOp(bytecode.OpPushNull)
	c.emitOp(bytecode.OpReturn)
	fn.MaxStackSlots = c.cur.peakSlots

	c.cur = parent
	constIdx := c.addConstant(object.Obj(fn))
	c.emitShort(bytecode.OpCreateClosure, constIdx)
	for _, uv := range inner.upvalues {
		if uv.IsEnclosingLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(byte(uv.Index))
	}
	c.cur.growStack(1)
	return nil
}

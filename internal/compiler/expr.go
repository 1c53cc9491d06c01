package compiler

import (
	"lumen/internal/bytecode"
	"lumen/internal/object"
	"lumen/internal/token"
)

// expression implements the Pratt driver (spec.md §4.5.2): call the
// current token's nud, then while the next token's lbp > rbp, consume
// it and call its led.
func (c *Compiler) expression(rbp Precedence) error {
	tok := c.advance()
	r := ruleFor(tok.Type)
	if r.prefix == nil {
		return c.errAt(tok.Line, "Compile", "unexpected token %s in expression", tok.Type)
	}
	canAssign := rbp < PrecAssign
	if err := r.prefix(c, canAssign); err != nil {
		return err
	}
	for {
		next := ruleFor(c.peek().Type)
		if next.prec <= rbp || next.infix == nil {
			break
		}
		c.advance()
		if err := next.infix(c, canAssign); err != nil {
			return err
		}
	}
	if canAssign && c.check(token.Equal) {
		return c.errHere("invalid assignment target")
	}
	return nil
}

// --- literals ---

func numberLiteral(c *Compiler, _ bool) error {
	c.emitConstant(object.Number(c.previous().Value.(float64)))
	return nil
}

func boolLiteral(c *Compiler, _ bool) error {
	if c.previous().Type == token.True {
		c.emitOp(bytecode.OpPushTrue)
	} else {
		c.emitOp(bytecode.OpPushFalse)
	}
	c.cur.growStack(1)
	return nil
}

func nullLiteral(c *Compiler, _ bool) error {
	c.emitOp(bytecode.OpPushNull)
	c.cur.growStack(1)
	return nil
}

// stringLiteral handles both a plain String token and the head of an
// Interpolation chain (spec.md §4.5.2, "String interpolation").
// "a %(e1) b %(e2) c" desugars to [ "a", e1, " b ", e2, " c" ].join().
func stringLiteral(c *Compiler, _ bool) error {
	first := c.previous()
	if first.Type == token.String {
		c.emitConstant(object.Obj(c.vm.NewString(first.Value.(string))))
		return nil
	}
	// Interpolation: build a List and addCore_ each literal/expression
	// segment, ending in .join().
	if err := c.emitLoadCoreClass("List"); err != nil {
		return err
	}
	c.emitCallSignature(Signature{Type: SigConstruct, Name: "new", ArgCount: 0})

	addLiteral := func(lit string) {
		c.emitConstant(object.Obj(c.vm.NewString(lit)))
		c.emitCallSignature(Signature{Type: SigMethod, Name: "addCore_", ArgCount: 1})
	}
	addLiteral(first.Value.(string))
	for {
		if err := c.expression(PrecLowest); err != nil {
			return err
		}
		c.emitCallSignature(Signature{Type: SigMethod, Name: "addCore_", ArgCount: 1})
		seg, err := c.consume(token.String, "unterminated string interpolation")
		if err == nil {
			addLiteral(seg.Value.(string))
			break
		}
		seg, err = c.consume(token.Interpolation, "expected string interpolation continuation")
		if err != nil {
			return err
		}
		addLiteral(seg.Value.(string))
	}
	c.emitCallSignature(Signature{Type: SigMethod, Name: "join", ArgCount: 0})
	return nil
}

func grouping(c *Compiler, _ bool) error {
	if err := c.expression(PrecLowest); err != nil {
		return err
	}
	_, err := c.consume(token.RParen, "expected ')' after expression")
	return err
}

// --- identifiers, fields, this/super ---

func identifier(c *Compiler, canAssign bool) error {
	name := c.previous().Lexeme

	if slot := resolveLocal(c.cur, name); slot >= 0 {
		return c.finishVariable(canAssign, func() { c.emitByteOperand(bytecode.OpLoadLocal, slot); c.cur.growStack(1) },
			func() { c.emitByteOperand(bytecode.OpStoreLocal, slot) })
	}
	if slot := resolveUpvalue(c.cur, name); slot >= 0 {
		return c.finishVariable(canAssign, func() { c.emitByteOperand(bytecode.OpLoadUpvalue, slot); c.cur.growStack(1) },
			func() { c.emitByteOperand(bytecode.OpStoreUpvalue, slot) })
	}
	if c.cur.class != nil && !c.cur.class.inStatic {
		if idx := c.cur.class.fields.IndexOf(name); idx >= 0 {
			return c.finishVariable(canAssign, func() { c.emitByteOperand(bytecode.OpLoadThisField, idx); c.cur.growStack(1) },
				func() { c.emitByteOperand(bytecode.OpStoreThisField, idx) })
		}
	}
	if c.cur.class != nil && c.cur.class.staticFields[name] {
		idx := c.module.Declare(staticFieldModuleName(c.cur.class.name, name))
		return c.finishVariable(canAssign, func() { c.emitShort(bytecode.OpLoadModuleVar, idx); c.cur.growStack(1) },
			func() { c.emitShort(bytecode.OpStoreModuleVar, idx) })
	}

	// Bare call with no prior resolution: spec.md §4.5.1 point 6 — a
	// name already tracked as an ordinary module variable (e.g. `var
	// counter = makeCounter();`) has prior resolution and must not be
	// shadowed by the "Fn "-prefixed function slot.
	if c.check(token.LParen) && c.module.Variables.IndexOf(name) < 0 {
		idx := c.module.Declare("Fn " + name)
		c.emitShort(bytecode.OpLoadModuleVar, idx)
		c.cur.growStack(1)
		return nil
	}

	// A bare name that is not a call but matches an already declared
	// `fun name` loads that function's "Fn "-prefixed slot.
	if fi := c.module.Variables.IndexOf("Fn " + name); fi >= 0 && c.module.Variables.IndexOf(name) < 0 {
		c.emitShort(bytecode.OpLoadModuleVar, fi)
		c.cur.growStack(1)
		return nil
	}

	before := c.module.Variables.Len()
	idx := c.module.Declare(name)
	if c.module.Variables.Len() > before {
		// First-ever reference to this name: forward-declare with this
		// token's line, per the number-value sentinel trick (spec.md
		// §3, §9). A later `var name = …` declaration overwrites this
		// slot with Null before compiling its initializer.
		c.module.SetVariableAt(idx, object.Number(float64(c.previous().Line)))
	}
	return c.finishVariable(canAssign, func() { c.emitShort(bytecode.OpLoadModuleVar, idx); c.cur.growStack(1) },
		func() { c.emitShort(bytecode.OpStoreModuleVar, idx) })
}

func (c *Compiler) finishVariable(canAssign bool, load, store func()) error {
	if canAssign && c.match(token.Equal) {
		if err := c.expression(PrecAssign); err != nil {
			return err
		}
		store()
		return nil
	}
	load()
	return nil
}

// field compiles `.name`, `.name = value`, and `.name(args…)` (spec.md
// §4.5.1 point 3/4 via LOAD_FIELD on an explicit receiver already on
// the stack, and §4.5.3's getter/setter/method signatures).
func field(c *Compiler, canAssign bool) error {
	nameTok, err := c.consume(token.Ident, "expected property name after '.'")
	if err != nil {
		return err
	}
	name := nameTok.Lexeme

	if c.check(token.LParen) {
		argc, err := c.argumentList()
		if err != nil {
			return err
		}
		c.emitCallSignature(Signature{Type: SigMethod, Name: name, ArgCount: argc})
		return nil
	}
	if canAssign && c.match(token.Equal) {
		if err := c.expression(PrecAssign); err != nil {
			return err
		}
		c.emitCallSignature(Signature{Type: SigSetter, Name: name})
		return nil
	}
	c.emitCallSignature(Signature{Type: SigGetter, Name: name})
	return nil
}

// argumentList compiles a parenthesized, comma-separated argument
// list (the '(' has not yet been consumed) and returns the count.
func (c *Compiler) argumentList() (int, error) {
	if _, err := c.consume(token.LParen, "expected '('"); err != nil {
		return 0, err
	}
	return c.argumentListAfterOpen()
}

// argumentListAfterOpen compiles the same grammar as argumentList but
// assumes the '(' was already consumed by the Pratt driver (the call()
// infix handler's case).
func (c *Compiler) argumentListAfterOpen() (int, error) {
	count := 0
	if !c.check(token.RParen) {
		for {
			if err := c.expression(PrecAssign); err != nil {
				return 0, err
			}
			count++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	_, err := c.consume(token.RParen, "expected ')' after arguments")
	return count, err
}

// emitCallSignature emits the CALL<N> for sig, assuming the receiver
// and sig's stack arguments are already on the stack. A setter's
// implicit RHS value is one more stack argument than sig.ArgCount
// counts for its "name=(_)" / "[_,...]=(_)" string form.
func (c *Compiler) emitCallSignature(sig Signature) {
	symbol := c.ensureMethodSymbol(sig)
	n := sig.stackArgCount()
	c.emitShort(bytecode.CallOp(n), symbol)
	c.cur.growStack(-n) // receiver + args collapse to one result
}

func thisExpr(c *Compiler, _ bool) error {
	if c.cur.class == nil {
		return c.errHere("'this' outside a method")
	}
	c.emitByteOperand(bytecode.OpLoadLocal, 0)
	c.cur.growStack(1)
	return nil
}

// superExpr compiles `super.method(args…)` and bare `super(args…)`
// (spec.md §4.5.2, "Super"): always loads `this`, then emits a
// SUPER<N> whose super-class constant slot is patched at class-bind
// time (spec.md §4.5.7).
func superExpr(c *Compiler, _ bool) error {
	if c.cur.class == nil {
		return c.errHere("'super' outside a method")
	}
	c.emitByteOperand(bytecode.OpLoadLocal, 0) // this
	c.cur.growStack(1)

	var sig Signature
	if c.match(token.Dot) {
		nameTok, err := c.consume(token.Ident, "expected method name after 'super.'")
		if err != nil {
			return err
		}
		if c.check(token.LParen) {
			argc, err := c.argumentList()
			if err != nil {
				return err
			}
			sig = Signature{Type: SigMethod, Name: nameTok.Lexeme, ArgCount: argc}
		} else {
			sig = Signature{Type: SigGetter, Name: nameTok.Lexeme}
		}
	} else {
		if c.cur.class.signature == nil {
			return c.errHere("bare 'super(...)' outside a method body")
		}
		argc, err := c.argumentList()
		if err != nil {
			return err
		}
		sig = *c.cur.class.signature
		sig.ArgCount = argc
	}

	symbol := c.ensureMethodSymbol(sig)
	c.emitOp(bytecode.SuperOp(sig.ArgCount))
	c.emitByte(byte(symbol >> 8))
	c.emitByte(byte(symbol))
	// Reserve the super-class constant slot; patched at class-bind
	// time by scanning the compiled method body (spec.md §4.5.7).
	c.emitByte(0xFF)
	c.emitByte(0xFF)
	c.cur.growStack(-sig.ArgCount)
	return nil
}

// emitLoadCoreClass loads a built-in class's module variable (List,
// Map, Range, …), forward-declaring it if this module hasn't
// referenced it yet.
func (c *Compiler) emitLoadCoreClass(name string) error {
	idx := c.module.Declare(name)
	c.emitShort(bytecode.OpLoadModuleVar, idx)
	c.cur.growStack(1)
	return nil
}

// --- operators ---

func unary(c *Compiler, _ bool) error {
	op := c.previous()
	if err := c.expression(PrecUnary); err != nil {
		return err
	}
	c.emitCallSignature(Signature{Type: SigGetter, Name: op.Lexeme})
	return nil
}

func binary(c *Compiler, _ bool) error {
	op := c.previous()
	r := ruleFor(op.Type)
	if err := c.expression(r.prec); err != nil {
		return err
	}
	c.emitCallSignature(Signature{Type: SigMethod, Name: op.Lexeme, ArgCount: 1})
	return nil
}

func isExpr(c *Compiler, _ bool) error {
	if err := c.expression(PrecIs); err != nil {
		return err
	}
	c.emitCallSignature(Signature{Type: SigMethod, Name: "is", ArgCount: 1})
	return nil
}

func rangeExpr(c *Compiler, _ bool) error {
	if err := c.expression(PrecRange); err != nil {
		return err
	}
	c.emitCallSignature(Signature{Type: SigMethod, Name: "..", ArgCount: 1})
	return nil
}

// andExpr / orExpr implement short-circuit evaluation with a
// placeholder forward jump, patched once the RHS is compiled (spec.md
// §4.5.2, "Logical || / &&").
func andExpr(c *Compiler, _ bool) error {
	jump := c.emitJump(bytecode.OpAnd)
	if err := c.expression(PrecAnd); err != nil {
		return err
	}
	c.patchJump(jump)
	return nil
}

func orExpr(c *Compiler, _ bool) error {
	jump := c.emitJump(bytecode.OpOr)
	if err := c.expression(PrecOr); err != nil {
		return err
	}
	c.patchJump(jump)
	return nil
}

// ternary implements `a ? b : c` (spec.md §4.5.2).
func ternary(c *Compiler, _ bool) error {
	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.cur.growStack(-1) // condition consumed
	if err := c.expression(PrecAssign); err != nil {
		return err
	}
	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	if _, err := c.consume(token.Colon, "expected ':' in ternary expression"); err != nil {
		return err
	}
	c.cur.growStack(-1) // the then-branch's value, since only one branch survives
	if err := c.expression(PrecConditional); err != nil {
		return err
	}
	c.patchJump(elseJump)
	return nil
}

// --- list / map literals ---

// listLiteral compiles `[e1, e2, …]` (spec.md §4.5.2): List.new()
// then addCore_(_) per element.
func listLiteral(c *Compiler, _ bool) error {
	if err := c.emitLoadCoreClass("List"); err != nil {
		return err
	}
	c.emitCallSignature(Signature{Type: SigConstruct, Name: "new", ArgCount: 0})
	if !c.check(token.RBracket) {
		for {
			if err := c.expression(PrecAssign); err != nil {
				return err
			}
			c.emitCallSignature(Signature{Type: SigMethod, Name: "addCore_", ArgCount: 1})
			if !c.match(token.Comma) {
				break
			}
		}
	}
	_, err := c.consume(token.RBracket, "expected ']' after list elements")
	return err
}

// mapLiteral compiles `{k1: v1, k2: v2, …}`: Map.new() then
// addCore_(_,_) per pair.
func mapLiteral(c *Compiler, _ bool) error {
	if err := c.emitLoadCoreClass("Map"); err != nil {
		return err
	}
	c.emitCallSignature(Signature{Type: SigConstruct, Name: "new", ArgCount: 0})
	if !c.check(token.RBrace) {
		for {
			if err := c.expression(PrecAssign); err != nil {
				return err
			}
			if _, err := c.consume(token.Colon, "expected ':' after map key"); err != nil {
				return err
			}
			if err := c.expression(PrecAssign); err != nil {
				return err
			}
			c.emitCallSignature(Signature{Type: SigMethod, Name: "addCore_", ArgCount: 2})
			if !c.match(token.Comma) {
				break
			}
		}
	}
	_, err := c.consume(token.RBrace, "expected '}' after map entries")
	return err
}

// subscript compiles `e[args…]` and `e[args…] = rhs` as method calls
// (spec.md §4.5.2, "Subscript").
func subscript(c *Compiler, canAssign bool) error {
	argc := 0
	if !c.check(token.RBracket) {
		for {
			if err := c.expression(PrecAssign); err != nil {
				return err
			}
			argc++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	if _, err := c.consume(token.RBracket, "expected ']' after subscript"); err != nil {
		return err
	}
	if canAssign && c.match(token.Equal) {
		if err := c.expression(PrecAssign); err != nil {
			return err
		}
		c.emitCallSignature(Signature{Type: SigSubscriptSetter, ArgCount: argc})
		return nil
	}
	c.emitCallSignature(Signature{Type: SigSubscript, ArgCount: argc})
	return nil
}

// call compiles `callee(args…)` as the closure-call bridge (spec.md
// §9, "Fn call as overloaded method").
func call(c *Compiler, _ bool) error {
	argc, err := c.argumentListAfterOpen()
	if err != nil {
		return err
	}
	c.emitCallSignature(callSignature(argc))
	return nil
}

// funLiteral compiles an anonymous `fun (params) { body }` expression,
// leaving the created closure on the stack.
func funLiteral(c *Compiler, _ bool) error {
	return c.compileFunctionBody("<fn>")
}

package compiler

import "lumen/internal/token"

type prefixFn func(c *Compiler, canAssign bool) error
type infixFn func(c *Compiler, canAssign bool) error

type rule struct {
	prec   Precedence
	prefix prefixFn
	infix  infixFn
}

var rules map[token.Type]rule

func init() {
	rules = map[token.Type]rule{
		token.Num:           {prec: PrecNone, prefix: numberLiteral},
		token.String:        {prec: PrecNone, prefix: stringLiteral},
		token.Interpolation: {prec: PrecNone, prefix: stringLiteral},
		token.Ident:         {prec: PrecNone, prefix: identifier},
		token.True:          {prec: PrecNone, prefix: boolLiteral},
		token.False:         {prec: PrecNone, prefix: boolLiteral},
		token.Null:          {prec: PrecNone, prefix: nullLiteral},
		token.This:          {prec: PrecNone, prefix: thisExpr},
		token.Super:         {prec: PrecNone, prefix: superExpr},
		token.LParen:        {prec: PrecCall, prefix: grouping, infix: call},
		token.LBracket:      {prec: PrecCall, prefix: listLiteral, infix: subscript},
		token.LBrace:        {prec: PrecNone, prefix: mapLiteral},
		token.Dot:           {prec: PrecCall, infix: field},
		token.Minus:         {prec: PrecAdditive, prefix: unary, infix: binary},
		token.Bang:          {prec: PrecNone, prefix: unary},
		token.Tilde:         {prec: PrecNone, prefix: unary},
		token.Plus:          {prec: PrecAdditive, infix: binary},
		token.Star:          {prec: PrecMultiplicative, infix: binary},
		token.Slash:         {prec: PrecMultiplicative, infix: binary},
		token.Percent:       {prec: PrecMultiplicative, infix: binary},
		token.Amp:           {prec: PrecBitAnd, infix: binary},
		token.Pipe:          {prec: PrecBitOr, infix: binary},
		token.ShiftLeft:     {prec: PrecShift, infix: binary},
		token.ShiftRight:    {prec: PrecShift, infix: binary},
		token.DotDot:        {prec: PrecRange, infix: rangeExpr},
		token.EqualEqual:    {prec: PrecEquality, infix: binary},
		token.BangEqual:     {prec: PrecEquality, infix: binary},
		token.Is:            {prec: PrecIs, infix: isExpr},
		token.Greater:       {prec: PrecComparison, infix: binary},
		token.GreaterEqual:  {prec: PrecComparison, infix: binary},
		token.Less:          {prec: PrecComparison, infix: binary},
		token.LessEqual:     {prec: PrecComparison, infix: binary},
		token.AmpAmp:        {prec: PrecAnd, infix: andExpr},
		token.PipePipe:      {prec: PrecOr, infix: orExpr},
		token.Question:      {prec: PrecConditional, infix: ternary},
		token.Fun:           {prec: PrecNone, prefix: funLiteral},
	}
}

func ruleFor(t token.Type) rule { return rules[t] }

// Package token defines the token stream interface between the lexer
// and the compiler (spec.md §6, "External Interfaces").
package token

// Type identifies the lexical category of a Token.
type Type int

const (
	EOF Type = iota
	Error

	// Literals
	Num
	String
	Interpolation // a %( piece of an interpolated string literal
	Ident

	// Keywords
	Var
	Fun
	If
	Else
	True
	False
	Null
	Class
	Static
	This
	Is
	Super
	Import
	While
	For
	Break
	Continue
	Return

	// Punctuators
	Comma
	Dot
	DotDot
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Equal
	Colon
	Semicolon
	Question
	Pipe

	// Operators
	Plus
	Minus
	Star
	Slash
	Percent
	Amp
	PipePipe
	Tilde
	ShiftLeft
	ShiftRight
	AmpAmp
	Bang
	EqualEqual
	BangEqual
	Greater
	GreaterEqual
	Less
	LessEqual
)

var names = map[Type]string{
	EOF: "EOF", Error: "ERROR",
	Num: "NUM", String: "STRING", Interpolation: "INTERPOLATION", Ident: "ID",
	Var: "VAR", Fun: "FUN", If: "IF", Else: "ELSE", True: "TRUE", False: "FALSE",
	Null: "NULL", Class: "CLASS", Static: "STATIC", This: "THIS", Is: "IS",
	Super: "SUPER", Import: "IMPORT", While: "WHILE", For: "FOR", Break: "BREAK",
	Continue: "CONTINUE", Return: "RETURN",
	Comma: ",", Dot: ".", DotDot: "..", LParen: "(", RParen: ")",
	LBracket: "[", RBracket: "]", LBrace: "{", RBrace: "}", Equal: "=",
	Colon: ":", Semicolon: ";", Question: "?", Pipe: "|",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%", Amp: "&",
	PipePipe: "||", Tilde: "~", ShiftLeft: "<<", ShiftRight: ">>", AmpAmp: "&&",
	Bang: "!", EqualEqual: "==", BangEqual: "!=", Greater: ">", GreaterEqual: ">=",
	Less: "<", LessEqual: "<=",
}

func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return "UNKNOWN"
}

// Keywords maps reserved identifiers to their token type.
var Keywords = map[string]Type{
	"var": Var, "fun": Fun, "if": If, "else": Else, "true": True, "false": False,
	"null": Null, "class": Class, "static": Static, "this": This, "is": Is,
	"super": Super, "import": Import, "while": While, "for": For, "break": Break,
	"continue": Continue, "return": Return,
}

// Token is one lexeme. Value carries the pre-lexed literal for Num and
// String tokens (a float64 or a string of raw bytes respectively);
// nil otherwise.
type Token struct {
	Type   Type
	Lexeme string
	Value  interface{}
	Line   int
}

func (t Token) String() string {
	return t.Type.String() + " " + t.Lexeme
}

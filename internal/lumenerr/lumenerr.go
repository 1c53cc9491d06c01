// Package lumenerr defines the error taxonomy shared by the lexer,
// compiler and VM.
package lumenerr

import (
	"fmt"
)

// Category is one of the five error channels from the spec.
type Category string

const (
	IO      Category = "IOError"
	Memory  Category = "MemoryError"
	Lex     Category = "LexError"
	Compile Category = "CompileError"
	Runtime Category = "RuntimeError"
)

// LumenError is the single error type produced anywhere in the core.
// IO/Memory/Lex/Compile errors are fatal and bubble up to cmd/lumen;
// Runtime errors are instead stashed on the current fiber (see
// internal/object.Fiber.Error) and never returned as a Go error.
type LumenError struct {
	Category Category
	Message  string
	File     string
	Line     int
}

func New(cat Category, format string, args ...interface{}) *LumenError {
	return &LumenError{Category: cat, Message: fmt.Sprintf(format, args...)}
}

func NewAt(cat Category, file string, line int, format string, args ...interface{}) *LumenError {
	return &LumenError{Category: cat, Message: fmt.Sprintf(format, args...), File: file, Line: line}
}

func (e *LumenError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
	return fmt.Sprintf("%s: %s [%s:%d]", e.Category, e.Message, e.File, e.Line)
}

// Fatal reports whether this category exits the process (everything
// except Runtime, which is recoverable via the fiber's error field).
func (e *LumenError) Fatal() bool {
	return e.Category != Runtime
}

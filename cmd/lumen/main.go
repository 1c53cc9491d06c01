// cmd/lumen/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"lumen/internal/compiler"
	"lumen/internal/corelib"
	"lumen/internal/lexer"
	"lumen/internal/lumenerr"
	"lumen/internal/vm"
)

// CLI surface is deliberately minimal (spec.md §6): `lumen <script-path>`,
// exit 0 with no argument, exit 1 on any I/O/Memory/Lex/Compile/Runtime
// error reported on the error channel. Grounded on the teacher's
// cmd/sentra/main.go "run" path (read source, scan, parse/compile, run,
// report a *errors.SentraError to stderr and os.Exit(1)) — stripped of
// the teacher's subcommands, flags and bytecode-file shortcuts, none of
// which this spec calls for.
func main() {
	if len(os.Args) < 2 {
		os.Exit(0)
	}
	path := os.Args[1]

	source, err := os.ReadFile(path)
	if err != nil {
		reportFatal(lumenerr.New(lumenerr.IO, "could not read '%s': %v", path, err))
	}

	v := vm.New()
	v.RootDir = rootDir(path)
	corelib.Bootstrap(v)

	tokens, err := lexer.Scan(path, string(source))
	if err != nil {
		reportFatal(err)
	}

	module := v.NewUserModule(nil)
	v.Modules[path] = module

	fn, err := compiler.Compile(v, module, path, tokens)
	if err != nil {
		reportFatal(err)
	}

	if err := v.Interpret(fn); err != nil {
		reportFatal(err)
	}
}

// rootDir implements spec.md §4's "Root lookup": the substring up to
// and including the last '/' in the entry script path, kept so
// System.import_(_) can resolve a relative module path against the
// script's own directory instead of the process's working directory.
func rootDir(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i+1]
	}
	return ""
}

// reportFatal writes err to stderr and exits 1. Every error this
// binary can see here is one of the four fatal categories (spec.md §6);
// a Runtime error only reaches this point via vm.Interpret's own
// "root fiber finished with its error field set" check, since every
// other Runtime error stays recoverable inside the fiber chain.
func reportFatal(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

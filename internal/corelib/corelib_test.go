package corelib

import (
	"bytes"
	"strings"
	"testing"

	"lumen/internal/compiler"
	"lumen/internal/lexer"
	"lumen/internal/vm"
)

// run compiles and interprets source on a fresh VM, returning whatever
// System.print/writeString wrote and the error vm.Interpret produced (a
// recoverable Runtime error that escaped the root fiber, or a Lex/Compile
// error), mirroring cmd/lumen's own pipeline end to end.
func run(t *testing.T, source string) (string, error) {
	t.Helper()
	v := vm.New()
	var out bytes.Buffer
	v.Stdout = &out
	Bootstrap(v)

	tokens, err := lexer.Scan("test", source)
	if err != nil {
		return out.String(), err
	}
	module := v.NewUserModule(nil)
	v.Modules["test"] = module

	fn, err := compiler.Compile(v, module, "test", tokens)
	if err != nil {
		return out.String(), err
	}
	err = v.Interpret(fn)
	return out.String(), err
}

func mustRun(t *testing.T, source string) string {
	t.Helper()
	out, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected error: %v\noutput so far: %s", err, out)
	}
	return out
}

func TestArithmetic(t *testing.T) {
	out := mustRun(t, `System.print(1 + 2 * 3);`)
	if strings.TrimSpace(out) != "7" {
		t.Errorf("got %q, want 7", out)
	}
}

func TestComparisonAndBoolean(t *testing.T) {
	out := mustRun(t, `System.print(3 < 5 && 5 <= 5);`)
	if strings.TrimSpace(out) != "true" {
		t.Errorf("got %q, want true", out)
	}
}

func TestStringConcat(t *testing.T) {
	out := mustRun(t, `System.print("foo" + "bar");`)
	if strings.TrimSpace(out) != "foobar" {
		t.Errorf("got %q, want foobar", out)
	}
}

func TestStringInterpolation(t *testing.T) {
	out := mustRun(t, `
		var name = "world";
		System.print("hello %(name)!");
	`)
	if strings.TrimSpace(out) != "hello world!" {
		t.Errorf("got %q, want %q", out, "hello world!")
	}
}

func TestListLiteralAndForLoop(t *testing.T) {
	out := mustRun(t, `
		var xs = [1, 2, 3];
		for x (xs) {
			System.print(x);
		}
	`)
	want := "1\n2\n3\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestAscendingRange(t *testing.T) {
	out := mustRun(t, `
		for x (1..3) {
			System.print(x);
		}
	`)
	want := "1\n2\n3\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestDescendingRange(t *testing.T) {
	out := mustRun(t, `
		for x (5..3) {
			System.print(x);
		}
	`)
	want := "5\n4\n3\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestMapSetGetEach(t *testing.T) {
	out := mustRun(t, `
		var m = {};
		m["a"] = 1;
		m["b"] = 2;
		System.print(m["a"] + m["b"]);
	`)
	if strings.TrimSpace(out) != "3" {
		t.Errorf("got %q, want 3", out)
	}
}

func TestClassAndInheritance(t *testing.T) {
	out := mustRun(t, `
		class Animal {
			var name;
			new(n) {
				name = n;
			}
			speak() {
				System.print(name + " makes a sound");
			}
		}

		class Dog : Animal {
			speak() {
				System.print("Woof!");
			}
		}

		var a = Animal.new("Generic");
		a.speak();
		var d = Dog.new("Rex");
		d.speak();
	`)
	want := "Generic makes a sound\nWoof!\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestClosure(t *testing.T) {
	out := mustRun(t, `
		fun makeCounter() {
			var count = 0;
			fun inc() {
				count = count + 1;
				return count;
			}
			return inc;
		}

		var counter = makeCounter();
		System.print(counter());
		System.print(counter());
		System.print(counter());
	`)
	want := "1\n2\n3\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestFiberCallAndYield(t *testing.T) {
	out := mustRun(t, `
		var f = Fiber.new(fun () {
			var x = Thread.yield(1);
			System.print(x);
		});
		System.print(f.call());
		f.call(42);
	`)
	want := "1\n42\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRuntimeErrorReportedOnRootFiber(t *testing.T) {
	_, err := run(t, `
		var n = Null;
		n.speak();
	`)
	if err == nil {
		t.Fatalf("expected a runtime error calling a method on Null, got none")
	}
}

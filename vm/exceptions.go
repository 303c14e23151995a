package vm

import (
	"github.com/lumen-lang/lumen/object"
)

// bootstrapExceptions builds the built-in exception hierarchy (spec.md
// §4.4) as live Classes, mirroring CPython's BaseException/Exception tree
// closely enough for `except ValueError:` style matching to work via
// Class.IsSubclassOf. Grounded on the teacher's EnsureClass bootstrap idiom
// (vm/class_manager.go) but driven by a literal table instead of a
// PHP-source class declaration.
func bootstrapExceptions() map[string]*object.Class {
	classes := make(map[string]*object.Class)

	must := func(name string, bases ...*object.Class) *object.Class {
		c, err := object.NewClass(name, bases, nil, nil)
		if err != nil {
			panic("bootstrapExceptions: " + name + ": " + err.Error())
		}
		classes[name] = c
		return c
	}

	base := must("BaseException")
	exc := must("Exception", base)
	must("StopIteration", exc)
	must("StopAsyncIteration", exc)
	must("GeneratorExit", base)
	must("KeyboardInterrupt", base)
	must("SystemExit", base)

	arithErr := must("ArithmeticError", exc)
	must("ZeroDivisionError", arithErr)
	must("OverflowError", arithErr)
	must("FloatingPointError", arithErr)

	lookupErr := must("LookupError", exc)
	must("IndexError", lookupErr)
	must("KeyError", lookupErr)

	nameErr := must("NameError", exc)
	must("UnboundLocalError", nameErr)

	must("TypeError", exc)
	must("ValueError", exc)
	must("AttributeError", exc)
	must("RuntimeError", exc)
	must("NotImplementedError", classes["RuntimeError"])
	must("RecursionError", classes["RuntimeError"])
	must("AssertionError", exc)
	must("ImportError", exc)
	must("ModuleNotFoundError", classes["ImportError"])

	osErr := must("OSError", exc)
	must("FileNotFoundError", osErr)
	must("PermissionError", osErr)

	return classes
}

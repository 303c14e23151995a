package runtime

import (
	"bufio"
	"os"
	"strings"

	"github.com/lumen-lang/lumen/values"
)

// stdinReader is shared across input() calls the way the teacher's runtime
// keeps one buffered reader per request rather than reopening stdin.
var stdinReader = bufio.NewReader(os.Stdin)

func ioSpecs() []builtinSpec {
	return []builtinSpec{
		{name: "print", minArgs: 0, maxArgs: -1, fn: builtinPrint},
		{name: "input", minArgs: 0, maxArgs: 1, fn: builtinInput},
		{name: "open", minArgs: 1, maxArgs: 2, fn: builtinOpen},
	}
}

// builtinPrint joins args with a single space and a trailing newline,
// matching Python's default print() — no `sep=`/`end=`/`file=` keyword
// support, since keyword arguments never reach a NativeFunc.Fn (spec.md §6
// host-callable contract passes only the positional window).
func builtinPrint(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Str()
	}
	_, err := ctx.Write(strings.Join(parts, " ") + "\n")
	if err != nil {
		return nil, ctx.Raise("OSError", err.Error())
	}
	return values.None(), nil
}

func builtinInput(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	if len(args) > 0 {
		if _, err := ctx.Write(args[0].Str()); err != nil {
			return nil, ctx.Raise("OSError", err.Error())
		}
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return nil, ctx.Raise("EOFError", "EOF when reading a line")
	}
	return values.NewStr(strings.TrimRight(line, "\r\n")), nil
}

func builtinOpen(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	mode := "r"
	if len(args) > 1 {
		mode = args[1].Str()
	}
	f, err := values.NewFile(args[0].Str(), mode)
	if err != nil {
		return nil, ctx.Raise("OSError", err.Error())
	}
	return f, nil
}

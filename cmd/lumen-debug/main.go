// Command lumen-debug runs a program's JSON syntax tree through the
// interactive readline stepper in the debugger package.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lumen-lang/lumen/compiler"
	"github.com/lumen-lang/lumen/debugger"
	"github.com/lumen-lang/lumen/internal/astjson"
	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/runtime"
	"github.com/lumen-lang/lumen/vm"
)

func main() {
	cmd := &cli.Command{
		Name:  "lumen-debug",
		Usage: "step through a compiled Lumen program instruction by instruction",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "source", UsageText: "path to a JSON syntax tree file"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "lumen-debug:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("source")
	if path == "" {
		return fmt.Errorf("usage: lumen-debug <source.json>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	mod, err := astjson.DecodeModule(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	code, err := compiler.Compile(mod, path, "")
	if err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}

	machine := vm.NewVirtualMachine(runtime.Builtins())
	console, err := debugger.NewConsole(machine)
	if err != nil {
		return err
	}
	defer console.Close()

	mainModule := object.NewModule("__main__", path)
	return console.Run(code, mainModule)
}

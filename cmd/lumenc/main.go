// Command lumenc compiles a JSON-encoded syntax tree (see the internal/astjson
// package for the wire format) and runs it against the vm package.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lumen-lang/lumen/compiler"
	"github.com/lumen-lang/lumen/internal/astjson"
	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/runtime"
	"github.com/lumen-lang/lumen/vm"
)

func main() {
	cmd := &cli.Command{
		Name:  "lumenc",
		Usage: "compile and run a Lumen program from its JSON syntax tree",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "profile", Usage: "print the top N hottest instructions after running (0 disables)"},
			&cli.BoolFlag{Name: "trace", Usage: "print each breakpoint/debug event while running"},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "source", UsageText: "path to a JSON syntax tree file"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "lumenc:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("source")
	if path == "" {
		return fmt.Errorf("usage: lumenc <source.json>")
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
	if cmd.Bool("trace") {
		machine.SetDebugLevel(vm.DebugLevelBasic)
	}
	mainModule := object.NewModule("__main__", path)
	_, err = machine.Execute(code, mainModule)

	if n := int(cmd.Int("profile")); n > 0 {
		vm.NewProfiler(machine).Report(os.Stdout, n)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

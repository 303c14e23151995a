// Package debugger is an interactive, readline-driven stepper over a
// running vm.VirtualMachine, grounded on the teacher's debug-level/
// breakpoint machinery (vm/vm.go's DebugLevel/SetBreakpoint) plus the new
// vm.VirtualMachine.StepHook this package needed added to get a genuine
// pause point between instructions rather than just a printed line.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/vm"
)

// Console drives one run of a CodeObject, pausing before every instruction
// (once stepping is enabled) for a readline command.
type Console struct {
	VM       *vm.VirtualMachine
	rl       *readline.Instance
	stepping bool
	quit     bool
}

func NewConsole(machine *vm.VirtualMachine) (*Console, error) {
	rl, err := readline.New("(lumen-debug) ")
	if err != nil {
		return nil, err
	}
	c := &Console{VM: machine, rl: rl, stepping: true}
	machine.StepHook = c.onStep
	machine.SetDebugLevel(vm.DebugLevelDetailed)
	return c, nil
}

func (c *Console) Close() error { return c.rl.Close() }

// Run executes code as a module's top level, driven by the console's
// stepping loop until the program returns, raises uncaught, or the user
// quits (which aborts the run by panicking — recovered here — rather than
// needing the VM's dispatch loop to expose a cancellation path).
func (c *Console) Run(code *registry.CodeObject, module *object.Module) (result error) {
	defer func() {
		if r := recover(); r != nil {
			if r == quitSentinel {
				result = fmt.Errorf("debugger: quit")
				return
			}
			panic(r)
		}
	}()
	_, err := c.VM.Execute(code, module)
	return err
}

type quitMarker struct{}

var quitSentinel = quitMarker{}

// onStep is vm.VirtualMachine.StepHook: it blocks on readline input before
// every instruction while stepping is active, and still fires (without
// blocking) while only breakpoints are armed, so a `continue` can still
// print the "breakpoint at ip=" line vm.go already emits.
func (c *Console) onStep(frame *vm.CallFrame, inst *opcodes.Instruction) {
	if !c.stepping {
		return
	}
	for {
		fmt.Fprintf(c.VM.Out, "ip=%d %s\n", frame.IP, inst.Opcode)
		line, err := c.rl.Readline()
		if err != nil {
			c.quit = true
			panic(quitSentinel)
		}
		switch cmd, arg := splitCommand(line); cmd {
		case "", "s", "step":
			return
		case "c", "continue":
			c.stepping = false
			c.VM.SetDebugLevel(vm.DebugLevelBasic)
			return
		case "b", "break":
			ip, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintf(c.VM.Out, "usage: break <ip>\n")
				continue
			}
			c.VM.SetBreakpoint(ip)
			fmt.Fprintf(c.VM.Out, "breakpoint set at ip=%d\n", ip)
			continue
		case "hot", "hotspots":
			vm.NewProfiler(c.VM).Report(c.VM.Out, 10)
			continue
		case "locals":
			for i, v := range frame.Registers {
				if v == nil {
					continue
				}
				fmt.Fprintf(c.VM.Out, "  r%d = %s\n", i, v.Repr())
			}
			continue
		case "q", "quit":
			panic(quitSentinel)
		default:
			fmt.Fprintf(c.VM.Out, "commands: step (s), continue (c), break <ip> (b), locals, hotspots, quit (q)\n")
			continue
		}
	}
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

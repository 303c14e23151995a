package vm

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// Profiler renders a VirtualMachine's hot-instruction counters as a
// human-readable report, grounded on the teacher's profiler output style
// (vm/vm.go's GetHotSpots) but formatted through go-humanize so counts
// read as "12.3k" rather than a bare integer once a program runs long
// enough to matter.
type Profiler struct {
	vm *VirtualMachine
}

func NewProfiler(vm *VirtualMachine) *Profiler {
	return &Profiler{vm: vm}
}

// Report writes the top n hot spots (by instruction execution count) to w,
// one line per spot, most-executed first.
func (p *Profiler) Report(w io.Writer, n int) error {
	spots := p.vm.GetHotSpots(n)
	if len(spots) == 0 {
		_, err := fmt.Fprintln(w, "no instructions executed")
		return err
	}
	total := 0
	for _, s := range spots {
		total += s.Count
	}
	for _, s := range spots {
		_, err := fmt.Fprintf(w, "ip=%-6d %8s executions\n", s.IP, humanize.Comma(int64(s.Count)))
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "total (top %d): %s\n", len(spots), humanize.Comma(int64(total)))
	return err
}

// Package printer writes colored, human-facing output for the headless
// commands. NO_COLOR disables color.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/DawPlus/healing-server-sub000/internal/bridge"
	"github.com/DawPlus/healing-server-sub000/internal/module"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Printer writes to a fixed output stream.
type Printer struct {
	out io.Writer
	err io.Writer
}

// New returns a printer over out and errOut.
func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{out: out, err: errOut}
}

// Success prints a green line with a checkmark prefix.
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Warning prints a yellow line.
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.out, "⚠  %s\n", fmt.Sprintf(format, a...))
}

// Step prints an emphasized progress line.
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Error prints a titled error with suggestions to stderr and returns a plain
// error for cobra, which is configured not to print it again.
func (p *Printer) Error(title, explanation string, suggestions ...string) error {
	red.Fprintf(p.err, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(p.err, "\n%s\n", explanation)
	}
	if len(suggestions) == 1 {
		fmt.Fprintf(p.err, "\n%s\n", suggestions[0])
	} else if len(suggestions) > 1 {
		fmt.Fprintf(p.err, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(p.err, "  %d. %s\n", i+1, s)
		}
	}
	return fmt.Errorf("%s", title)
}

// Summary prints one line per module followed by totals.
func (p *Printer) Summary(s bridge.Summary, order []module.ID) {
	p.Step("fingerprint %s", s.Fingerprint)
	failed := map[module.ID]string{}
	for _, f := range s.Failed {
		failed[f.ModuleID] = f.Reason
	}
	for _, id := range order {
		switch {
		case contains(s.Succeeded, id):
			green.Fprintf(p.out, "  %-10s synced\n", id)
		case contains(s.Unsupported, id):
			yellow.Fprintf(p.out, "  %-10s unsupported\n", id)
		case contains(s.Deferred, id):
			faint.Fprintf(p.out, "  %-10s bus only\n", id)
		default:
			if reason, ok := failed[id]; ok {
				red.Fprintf(p.out, "  %-10s failed: %s\n", id, reason)
			}
		}
	}
	line := fmt.Sprintf("%d synced, %d unsupported, %d failed, %d bus deliveries",
		len(s.Succeeded), len(s.Unsupported), len(s.Failed), s.Deliveries)
	if s.OK() {
		p.Success("%s", line)
	} else {
		p.Warning("%s", line)
	}
}

func contains(ids []module.ID, id module.ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

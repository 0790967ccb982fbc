package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

// BarRenderer draws a two-line progress display (status + bar) on a TTY,
// or prints timestamped single lines on a non-TTY.
type BarRenderer struct {
	out       io.Writer
	start     time.Time
	isTTY     bool
	width     int
	lastEvent Event
	lines     int // lines currently written, for TTY overwrite
}

// NewBarRenderer creates a renderer that writes to out. It auto-detects
// TTY mode and terminal width.
func NewBarRenderer(out *os.File) *BarRenderer {
	tty := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())

	width := 80
	if tty {
		if w, _, err := term.GetSize(out.Fd()); err == nil && w > 0 {
			width = w
		}
	}

	return &BarRenderer{
		out:   out,
		start: time.Now(),
		isTTY: tty,
		width: width,
	}
}

// Handle processes a progress event. It satisfies the Callback type.
func (r *BarRenderer) Handle(e Event) {
	e.Elapsed = time.Since(r.start)
	if e.Stage == StageComplete {
		e.Percent = 1.0
	}
	r.lastEvent = e

	if r.isTTY {
		r.renderTTY(e)
	} else {
		r.renderPlain(e)
	}
}

// Finish clears the progress display and prints a final summary.
func (r *BarRenderer) Finish() {
	e := r.lastEvent
	if r.isTTY && r.lines > 0 {
		r.clearLines()
	}

	if e.Error != nil {
		fmt.Fprintf(r.out, "\n  Error: %v\n", e.Error)
		return
	}
	if e.Stage == StageComplete {
		if e.OutputFile != "" {
			fmt.Fprintf(r.out, "\n  Saved to %s (%s)\n", e.OutputFile, formatElapsed(e.Elapsed))
		} else {
			fmt.Fprintf(r.out, "\n  %s (%s)\n", e.Message, formatElapsed(e.Elapsed))
		}
	}
}

func (r *BarRenderer) renderTTY(e Event) {
	if r.lines > 0 {
		r.clearLines()
	}

	status := fmt.Sprintf("  [%s] %s  %s", e.Stage, e.Message, formatElapsed(e.Elapsed))
	if len(status) > r.width {
		status = status[:r.width]
	}

	barWidth := r.width - 12
	if barWidth < 10 {
		barWidth = 10
	}
	filled := int(e.Percent * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	bar := fmt.Sprintf("  [%s%s] %3.0f%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", barWidth-filled),
		e.Percent*100)

	fmt.Fprintf(r.out, "%s\n%s\n", status, bar)
	r.lines = 2
}

func (r *BarRenderer) renderPlain(e Event) {
	fmt.Fprintf(r.out, "[%s] %s: %s (%3.0f%%)\n",
		time.Now().Format("15:04:05"), e.Stage, e.Message, e.Percent*100)
}

func (r *BarRenderer) clearLines() {
	for i := 0; i < r.lines; i++ {
		fmt.Fprint(r.out, "\033[1A\033[2K")
	}
	r.lines = 0
}

func formatElapsed(d time.Duration) string {
	secs := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Package statuslog renders the terminal status line spec.md §4.3's
// periodic diagnostics describe: the current best-by-ratio and
// best-by-cycles records plus a sparkline of the latest batch. Colour
// and width are both terminal-aware, following the retrieval pack's
// mattn/go-isatty + mattn/go-colorable + golang.org/x/term pattern for
// CLIs that render richer output only when attached to a real TTY.
package statuslog

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"asmtune/internal/analyse"
	"asmtune/internal/optimizer"
)

const defaultWidth = 80

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Writer implements optimizer.StatusSink, writing one line per call.
type Writer struct {
	out   io.Writer
	color bool
	width int
}

// New builds a Writer targeting dest. Colour escapes and the sparkline
// width are only used when dest is a real terminal.
func New(dest *os.File) *Writer {
	fd := dest.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)

	var out io.Writer = dest
	if tty {
		out = colorable.NewColorable(dest)
	}

	width := defaultWidth
	if w, _, err := term.GetSize(int(fd)); err == nil && w > 0 {
		width = w
	}

	return &Writer{out: out, color: tty, width: width}
}

// EmitStatus implements optimizer.StatusSink.
func (w *Writer) EmitStatus(evaluation int, st *analyse.Stats, bestRatio, bestCycles optimizer.BestRecord) {
	spark := ""
	if st != nil && len(st.Chunks) > 0 {
		spark = " " + sparkline(st.Chunks[0], w.width-40)
	}

	if w.color {
		fmt.Fprintf(w.out, "\x1b[2Keval=%d \x1b[32mbest_ratio=%.4f\x1b[0m (epoch %d) \x1b[36mbest_cycles=%.2f\x1b[0m (epoch %d)%s\n",
			evaluation, bestRatio.Ratio, bestRatio.Epoch, bestCycles.Cycles, bestCycles.Epoch, spark)
		return
	}
	fmt.Fprintf(w.out, "eval=%d best_ratio=%.4f (epoch %d) best_cycles=%.2f (epoch %d)%s\n",
		evaluation, bestRatio.Ratio, bestRatio.Epoch, bestCycles.Cycles, bestCycles.Epoch, spark)
}

// sparkline compresses xs into at most width unicode block characters,
// scaled between its own min and max.
func sparkline(xs []float64, width int) string {
	if len(xs) == 0 || width <= 0 {
		return ""
	}
	if width > len(xs) {
		width = len(xs)
	}
	bucketed := make([]float64, width)
	per := float64(len(xs)) / float64(width)
	for b := 0; b < width; b++ {
		lo := int(float64(b) * per)
		hi := int(float64(b+1) * per)
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(xs) {
			hi = len(xs)
		}
		sum := 0.0
		for _, v := range xs[lo:hi] {
			sum += v
		}
		bucketed[b] = sum / float64(hi-lo)
	}

	min, max := bucketed[0], bucketed[0]
	for _, v := range bucketed[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make([]rune, width)
	span := max - min
	for i, v := range bucketed {
		if span <= 0 {
			out[i] = sparkLevels[0]
			continue
		}
		level := int((v - min) / span * float64(len(sparkLevels)-1))
		if level < 0 {
			level = 0
		}
		if level >= len(sparkLevels) {
			level = len(sparkLevels) - 1
		}
		out[i] = sparkLevels[level]
	}
	return string(out)
}

// ConvergenceLog is the append-only ratio-string sequence spec.md §3
// names, kept separately from the terminal line so it can be persisted
// for later plotting regardless of verbosity.
type ConvergenceLog struct {
	lines []string
}

// Append records one formatted ratio value.
func (c *ConvergenceLog) Append(ratio string) {
	c.lines = append(c.lines, ratio)
}

// Lines returns the recorded sequence in order.
func (c *ConvergenceLog) Lines() []string {
	return c.lines
}

// WriteFile dumps the log as one ratio per line.
func (c *ConvergenceLog) WriteFile(path string) error {
	data := []byte{}
	for _, l := range c.lines {
		data = append(data, []byte(l)...)
		data = append(data, '\n')
	}
	return os.WriteFile(path, data, 0o644)
}

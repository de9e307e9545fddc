package statuslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"asmtune/internal/analyse"
	"asmtune/internal/optimizer"
)

func openTempFile(t *testing.T) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "status.log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create() error: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestNewOnNonTTYDisablesColor(t *testing.T) {
	f := openTempFile(t)
	w := New(f)
	if w.color {
		t.Fatalf("New() on a regular file should not enable color")
	}
	if w.width != defaultWidth {
		t.Fatalf("New() on a regular file should fall back to defaultWidth, got %d", w.width)
	}
}

func TestEmitStatusWritesPlainLine(t *testing.T) {
	f := openTempFile(t)
	path := f.Name()
	w := New(f)

	st := &analyse.Stats{Chunks: [][]float64{{1, 2, 3, 4, 5, 6, 7, 8}}}
	best := optimizer.BestRecord{Ratio: 1.5, Epoch: 3}
	bestCyc := optimizer.BestRecord{Cycles: 120.5, Epoch: 2}
	w.EmitStatus(7, st, best, bestCyc)
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "eval=7") {
		t.Fatalf("line missing eval: %q", line)
	}
	if !strings.Contains(line, "best_ratio=1.5000") {
		t.Fatalf("line missing best_ratio: %q", line)
	}
	if !strings.Contains(line, "best_cycles=120.50") {
		t.Fatalf("line missing best_cycles: %q", line)
	}
}

func TestEmitStatusHandlesNilStats(t *testing.T) {
	f := openTempFile(t)
	w := New(f)
	w.EmitStatus(1, nil, optimizer.BestRecord{}, optimizer.BestRecord{})
}

func TestSparklineConstantSeriesUsesLowestLevel(t *testing.T) {
	s := sparkline([]float64{5, 5, 5, 5}, 4)
	for _, r := range s {
		if r != sparkLevels[0] {
			t.Fatalf("constant series should render at the lowest level, got %q", s)
		}
	}
}

func TestSparklineEmptyInputIsEmptyString(t *testing.T) {
	if s := sparkline(nil, 10); s != "" {
		t.Fatalf("sparkline(nil) = %q, want empty", s)
	}
	if s := sparkline([]float64{1, 2, 3}, 0); s != "" {
		t.Fatalf("sparkline with zero width = %q, want empty", s)
	}
}

func TestConvergenceLogWriteFile(t *testing.T) {
	var c ConvergenceLog
	c.Append("1.0")
	c.Append("1.25")

	path := filepath.Join(t.TempDir(), "convergence.log")
	if err := c.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(data) != "1.0\n1.25\n" {
		t.Fatalf("unexpected convergence file contents: %q", string(data))
	}
}

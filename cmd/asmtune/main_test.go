package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to locate test file path")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

// TestCLISingleRunEndToEnd grounds on spec.md §8 scenario 1: a single,
// no-proof run produces one asm file and a mutation-log CSV with
// exactly evals data rows, with "Final ratio:" as stdout's last line.
func TestCLISingleRunEndToEnd(t *testing.T) {
	root := repoRoot(t)
	resultDir := filepath.Join(t.TempDir(), "results")

	cmd := exec.Command("go", "run", "./cmd/asmtune",
		"--curve", "curve25519", "--method", "square",
		"--optimizer", "rls", "--evals", "100", "--seed", "42",
		"--single", "--proof=false", "--resultDir", resultDir)
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}

	output := strings.TrimRight(string(out), "\n")
	lines := strings.Split(output, "\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "Final ratio: ") {
		t.Fatalf("last stdout line = %q, want a Final ratio line. full output:\n%s", last, output)
	}

	entries, err := os.ReadDir(resultDir)
	if err != nil {
		t.Fatalf("ReadDir(resultDir) error: %v", err)
	}
	var csvPath string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".csv") {
			csvPath = filepath.Join(resultDir, e.Name())
		}
	}
	if csvPath == "" {
		t.Fatalf("no mutation-log CSV found in %s", resultDir)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("ReadFile(csv) error: %v", err)
	}
	rows := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(rows)-1 != 100 {
		t.Fatalf("mutation log has %d data rows, want 100", len(rows)-1)
	}
}

func TestCLIBadConfigExitsParameterParseFail(t *testing.T) {
	root := repoRoot(t)

	cmd := exec.Command("go", "run", "./cmd/asmtune", "--evals", "0")
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected a nonzero exit, got err=%v, output:\n%s", err, out)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("exit code = %d, want 1 (parameterParseFail). output:\n%s", exitErr.ExitCode(), out)
	}
}

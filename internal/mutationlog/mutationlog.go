// Package mutationlog writes the per-evaluation CSV spec.md §3 names:
// one row per evaluation recording which mutation kind was tried and
// whether it survived the optimizer's accept/reject decision. There is
// no third-party CSV library in the retrieval pack to reach for, so
// this stays on encoding/csv — see DESIGN.md.
package mutationlog

import (
	"encoding/csv"
	"os"
	"strconv"

	"asmtune/internal/errs"
)

var header = []string{"evaluation", "choice", "kept", "permutation_details", "decision_details"}

// Writer implements optimizer.MutationLogSink, appending one CSV row
// per LogEvaluation call.
type Writer struct {
	f *os.File
	w *csv.Writer
}

// New creates (truncating) the CSV file at path and writes its header.
func New(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.Wrap(errs.BadConfig, "mutationlog: failed to create "+path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, errs.Wrap(errs.BadConfig, "mutationlog: failed to write header", err)
	}
	return &Writer{f: f, w: w}, nil
}

// LogEvaluation appends one row. Write errors are not returned here (a
// diagnostic sink must never abort the search it is observing); the
// csv.Writer retains the error and Close reports it.
func (w *Writer) LogEvaluation(evaluation int, choice string, kept bool, permutationDetails, decisionDetails string) {
	row := []string{
		strconv.Itoa(evaluation),
		choice,
		strconv.FormatBool(kept),
		permutationDetails,
		decisionDetails,
	}
	_ = w.w.Write(row)
	w.w.Flush()
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		w.f.Close()
		return errs.Wrap(errs.BadConfig, "mutationlog: flush failed", err)
	}
	return w.f.Close()
}

// Package orchestrator implements the run lifecycle spec.md §4.7
// names: sourcing a baseline, running the bet controller, writing the
// result artefacts, optionally proving the result, and tearing down.
// It is the one package that wires every other asmtune package
// together, matching the teacher's cmd/twice main.go role of gluing
// lexer/parser/evaluator together, generalized to a full CLI run
// instead of a fixed demo list.
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"asmtune/internal/asmgen"
	"asmtune/internal/bet"
	"asmtune/internal/bridge"
	"asmtune/internal/config"
	"asmtune/internal/errs"
	"asmtune/internal/measure"
	"asmtune/internal/model"
	"asmtune/internal/mutationlog"
	"asmtune/internal/optimizer"
	"asmtune/internal/prove"
	"asmtune/internal/rng"
	"asmtune/internal/runlog"
	"asmtune/internal/statuslog"
)

// Deps lets callers (the real CLI, and tests) substitute the external
// collaborators: the Measurer, the Prover, and the file status lines and
// the final summary are written to. Zero-valued fields fall back to the
// production implementations (os.Stdout for Stdout).
type Deps struct {
	Measurer measure.Measurer
	Prover   prove.Prover
	Stdout   *os.File
}

// Result is what a completed run reports back to cmd/asmtune.
type Result struct {
	Ratio     float64
	AsmPath   string
	CSVPath   string
	ResultDir string
}

// Run executes the full lifecycle for a validated Config and returns
// the final best-by-ratio result, or an *errs.Error identifying which
// exit code the caller should use.
func Run(cfg *config.Config, deps Deps) (*Result, error) {
	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	// (a) initialize Rng from seed.
	r := rng.New(cfg.Seed)

	// (b) create temp cache dir <tmpdir>/CryptOpt.cache/<hash>.
	cacheRoot := filepath.Join(os.TempDir(), "CryptOpt.cache")
	cacheDir := filepath.Join(cacheRoot, r.ShortID())
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, errs.Wrap(errs.BadConfig, "orchestrator: failed to create cache dir", err)
	}

	// (c) obtain baseline assembly.
	m, err := loadBaseline(cfg)
	if err != nil {
		return nil, err
	}

	opts := asmgen.Options{
		Xmm:               cfg.Xmm,
		PreferXmm:         cfg.PreferXmm,
		Redzone:           cfg.Redzone,
		FramePointer:      asmgen.FramePointer(cfg.FramePointer),
		MemoryConstraints: asmgen.MemoryConstraints(cfg.MemoryConstraints),
		Symbol:            symbolFor(cfg),
	}
	assembler := asmgen.NasmAssembler{}

	// (d) sanity-check the baseline contains no undefined markers.
	baselineAsm, _, err := assembler.Render(m, opts)
	if err != nil {
		return nil, err
	}
	if asmgen.ContainsUndefinedMarker(baselineAsm) {
		return nil, errs.New(errs.AssembleUndefined, "orchestrator: baseline assembly contains an undefined node kind")
	}

	if err := os.MkdirAll(cfg.ResultDir, 0o755); err != nil {
		return nil, errs.Wrap(errs.BadConfig, "orchestrator: failed to create result dir", err)
	}

	var rl *runlog.Logger
	if cfg.LogFile != "" {
		rl, err = runlog.New(cfg.LogFile, time.Duration(cfg.LogFlushIntervalMs)*time.Millisecond, cfg.LogComment)
		if err != nil {
			return nil, err
		}
		defer rl.Close()
		rl.Info("run starting",
			zap.Uint64("seed", cfg.Seed), zap.String("curve", cfg.Curve),
			zap.String("method", cfg.Method), zap.String("optimizer", cfg.Optimizer))
	}

	mutPath := filepath.Join(cfg.ResultDir, opts.Symbol+".csv")
	mutWriter, err := mutationlog.New(mutPath)
	if err != nil {
		return nil, err
	}
	defer mutWriter.Close()

	measurer := deps.Measurer
	if measurer == nil {
		measurer = measure.NewReferenceMeasurer(r.Derive(measurerSubseed))
	}

	fails := &failureSink{dir: cacheDir}

	sess := optimizer.NewSession(r, m, assembler, opts, measurer)
	sess.Cyclegoal = cfg.Cyclegoal
	sess.Status = statuslog.New(stdout)
	sess.Mutations = mutWriter
	sess.Failures = fails

	// (e) run the bet controller.
	runner := runnerFor(cfg)
	betCfg := bet.Config{Bets: cfg.Bets, BetRatio: cfg.BetRatio, TotalEvals: cfg.Evals}
	if cfg.Single {
		betCfg.Bets, betCfg.BetRatio = 1, 1
	}
	if _, err := bet.Run(sess, runner, betCfg); err != nil {
		measurer.Close()
		return nil, err
	}

	ratioStr := formatRatio(sess.BestByRatio.Ratio)

	// seed<16-digit>.dat: a state dump whose name the outer
	// bayesian-opt-sa.py driver regex-matches from stdout.
	datPath := filepath.Join(cfg.ResultDir, "seed"+r.ShortID()+".dat")
	if data, err := sess.Model.ExportJSON(); err == nil {
		_ = os.WriteFile(datPath, data, 0o644)
	}

	// (f) write the result assembly with stats comments.
	asmPath := filepath.Join(cfg.ResultDir, fmt.Sprintf("%s_ratio%s.asm", opts.Symbol, ratioStr))
	statsBlock := fmt.Sprintf("\n; evals=%d\n; ratio=%s\n; seed=%d\n; epoch=%d\n; statePath=%s\n",
		cfg.Evals, ratioStr, cfg.Seed, sess.BestByRatio.Epoch, datPath)

	// (h) optionally invoke the external prover before the stats block
	// is finalized, so a successful proof's duration can be appended.
	if cfg.Proof {
		prover := deps.Prover
		if prover == nil {
			prover = prove.SubprocessProver{}
		}
		if err := os.WriteFile(asmPath, []byte(sess.BestByRatio.Assembly+statsBlock), 0o644); err != nil {
			measurer.Close()
			return nil, errs.Wrap(errs.BadConfig, "orchestrator: failed to write result assembly", err)
		}
		elapsed, err := prover.Validate(asmPath)
		if err != nil {
			measurer.Close()
			return nil, err
		}
		statsBlock += fmt.Sprintf("; validated in %dns\n", elapsed.Nanoseconds())
	}
	if err := os.WriteFile(asmPath, []byte(sess.BestByRatio.Assembly+statsBlock), 0o644); err != nil {
		measurer.Close()
		return nil, errs.Wrap(errs.BadConfig, "orchestrator: failed to write result assembly", err)
	}

	fmt.Fprintf(stdout, "Wrote state to %s\n", datPath)

	if rl != nil {
		rl.Info("run complete",
			zap.Float64("ratio", sess.BestByRatio.Ratio), zap.Float64("cycles", sess.BestByCycles.Cycles))
	}

	// (i) destroy the Measurer and clean the cache dir unless verbose.
	closeErr := measurer.Close()
	if !cfg.Verbose {
		os.RemoveAll(cacheDir)
	}
	if closeErr != nil {
		return nil, errs.Wrap(errs.MeasureGeneric, "orchestrator: failed to close measurer", closeErr)
	}

	fmt.Fprintf(stdout, "Final ratio: %s\n", ratioStr)

	return &Result{
		Ratio:     sess.BestByRatio.Ratio,
		AsmPath:   asmPath,
		CSVPath:   mutPath,
		ResultDir: cfg.ResultDir,
	}, nil
}

// measurerSubseed distinguishes the Measurer's internal noise source
// from the optimizer's mutation/acceptance Rng, so the two concerns
// never draw from the same stream.
const measurerSubseed = 0xA5A5A5A5A5A5A5A5

func runnerFor(cfg *config.Config) bet.Runner {
	switch cfg.Optimizer {
	case config.OptimizerSA:
		return bet.SARunner{Cfg: optimizer.SAConfig{
			NumBatches:         optimizer.DefaultNumBatches,
			NumNeighbors:       cfg.SANumNeighbors,
			InitialTemperature: cfg.SAInitialTemperature,
			VisitParam:         cfg.SAVisitParam,
			AcceptParam:        cfg.SAAcceptParam,
			StepSizeParam:      cfg.SAStepSizeParam,
			MaxMutStepSize:     cfg.SAMaxMutStepSize,
			CoolingSchedule:    cfg.SACoolingSchedule,
			NeighborStrategy:   cfg.SANeighborStrategy,
		}}
	default:
		return bet.RLSRunner{Cfg: optimizer.RLSConfig{NumBatches: optimizer.DefaultNumBatches}}
	}
}

// loadBaseline implements spec.md §4.7.c's three sources: readState and
// startFromBestJson bypass the bridge entirely; otherwise the
// configured Bridge synthesizes or reads one.
func loadBaseline(cfg *config.Config) (*model.Model, error) {
	switch {
	case cfg.ReadState != "":
		data, err := os.ReadFile(cfg.ReadState)
		if err != nil {
			return nil, errs.Wrap(errs.BadConfig, "orchestrator: failed to read --readState", err)
		}
		return model.ImportJSON(data)
	case cfg.StartFromBestJson:
		path, err := bestPriorState(cfg.ResultDir)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.BadConfig, "orchestrator: failed to read best-prior state", err)
		}
		return model.ImportJSON(data)
	default:
		br, err := bridge.For(cfg.Bridge)
		if err != nil {
			return nil, err
		}
		state, err := br.Baseline(cfg)
		if err != nil {
			return nil, err
		}
		return model.Import(state)
	}
}

// bestPriorState scans resultDir for *_ratio*.asm files, picks the one
// with the highest embedded ratio, and returns the state-dump path its
// "; statePath=" stats comment names, per spec.md §4.7.c's "best prior
// run in results dir if so configured".
func bestPriorState(resultDir string) (string, error) {
	entries, err := os.ReadDir(resultDir)
	if err != nil {
		return "", errs.Wrap(errs.BadConfig, "orchestrator: failed to read resultDir for startFromBestJson", err)
	}
	bestRatio := -1.0
	bestName := ""
	for _, e := range entries {
		name := e.Name()
		ratio, ok := parseRatioFromFilename(name)
		if !ok {
			continue
		}
		if ratio > bestRatio {
			bestRatio = ratio
			bestName = name
		}
	}
	if bestName == "" {
		return "", errs.New(errs.BadConfig, "orchestrator: no prior result found in resultDir")
	}
	data, err := os.ReadFile(filepath.Join(resultDir, bestName))
	if err != nil {
		return "", errs.Wrap(errs.BadConfig, "orchestrator: failed to read best-prior asm", err)
	}
	path, ok := parseStatePathComment(string(data))
	if !ok {
		return "", errs.New(errs.BadConfig, "orchestrator: best-prior asm has no statePath comment")
	}
	return path, nil
}

// parseRatioFromFilename extracts R from a "..._ratioR.asm" filename.
func parseRatioFromFilename(name string) (float64, bool) {
	if !strings.HasSuffix(name, ".asm") {
		return 0, false
	}
	i := strings.LastIndex(name, "_ratio")
	if i < 0 {
		return 0, false
	}
	ratioStr := strings.TrimSuffix(name[i+len("_ratio"):], ".asm")
	v, err := strconv.ParseFloat(ratioStr, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseStatePathComment finds the "; statePath=<path>" line this
// package's own stats block writes into every result assembly file.
func parseStatePathComment(asm string) (string, bool) {
	const marker = "; statePath="
	for _, line := range strings.Split(asm, "\n") {
		if strings.HasPrefix(line, marker) {
			return strings.TrimPrefix(line, marker), true
		}
	}
	return "", false
}

func symbolFor(cfg *config.Config) string {
	return cfg.Curve + "_" + cfg.Method
}

func formatRatio(v float64) string {
	return fmt.Sprintf("%.6f", v)
}

// failureSink implements optimizer.FailureSink, persisting the
// diagnostic artefacts spec.md §6's "Persisted outputs / On failure"
// paragraph names into the run's cache dir.
type failureSink struct {
	dir   string
	count int
}

func (f *failureSink) PersistFailure(kind errs.Kind, slots []optimizer.CandidateSlot, m *model.Model) {
	f.count++
	incorrect := kind == errs.MeasureIncorrect || kind == errs.MeasureInvalid
	prefix := fmt.Sprintf("generic_error_%d", f.count)
	if incorrect {
		prefix = "tested_incorrect"
	}
	if len(slots) > 0 {
		_ = os.WriteFile(filepath.Join(f.dir, prefix+"_A.asm"), []byte(slots[0].Assembly), 0o644)
	}
	if len(slots) > 1 {
		_ = os.WriteFile(filepath.Join(f.dir, prefix+"_B.asm"), []byte(slots[1].Assembly), 0o644)
	}
	if incorrect {
		if data, err := m.ExportJSON(); err == nil {
			_ = os.WriteFile(filepath.Join(f.dir, "tested_incorrect.json"), data, 0o644)
		}
	}
}

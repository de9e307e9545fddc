// Package config defines the asmtune CLI's flag surface: parsing (via
// github.com/peterbourgon/ff/v3, so every flag also has an
// ASMTUNE_-prefixed environment variable fallback), validation, and the
// inverse Render used by the argv round-trip test.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/peterbourgon/ff/v3"

	"asmtune/internal/errs"
)

// Enumerated option values spec.md §6 names.
const (
	BridgeFiat        = "fiat"
	BridgeManual      = "manual"
	BridgeBitcoinCore = "bitcoin-core"
	BridgeJasmin      = "jasmin"

	OptimizerRLS = "rls"
	OptimizerSA  = "sa"

	FramePointerOmit     = "omit"
	FramePointerSave     = "save"
	FramePointerConstant = "constant"

	MemoryConstraintsNone     = "none"
	MemoryConstraintsAll      = "all"
	MemoryConstraintsOut1Arg1 = "out1-arg1"
)

// FIAT_CURVES / FIAT_METHODS / BITCOIN_CORE_METHODS: the whitelists
// spec.md §6 validation references without enumerating. Populated from
// the curve family spec.md §1 names by example (curve25519, p256,
// secp256k1) and the field-arithmetic primitives CryptOpt-style tools
// target; see DESIGN.md for this Open Question's resolution.
var (
	FiatCurves         = []string{"curve25519", "p256", "secp256k1"}
	FiatMethods        = []string{"mul", "square", "add", "sub"}
	BitcoinCoreMethods = []string{"mul", "square"}
)

// Config is the fully parsed and validated CLI configuration.
type Config struct {
	Curve  string
	Method string
	Bridge string

	JSONFile string
	CFile    string

	Optimizer string
	Seed      uint64
	Evals     int

	Bets     int
	BetRatio float64
	Single   bool

	Cyclegoal int

	Xmm               bool
	PreferXmm         bool
	Redzone           bool
	FramePointer      string
	MemoryConstraints string

	Proof             bool
	ResultDir         string
	ReadState         string
	StartFromBestJson bool

	LogFile            string
	LogComment         string
	Verbose            bool
	LogFlushIntervalMs int

	SAInitialTemperature float64
	SAVisitParam         float64
	SAAcceptParam        float64
	SANeighborStrategy   string
	SANumNeighbors       int
	SAStepSizeParam      float64
	SAMaxMutStepSize     int
	SACoolingSchedule    string
}

// nowMs is overridable in tests so the "current ms" default seed is
// deterministic; production callers leave it as initialised and get
// time.Now().
var nowMs = func() uint64 { return uint64(time.Now().UnixMilli()) }

// Parse builds a Config from argv (excluding the program name),
// applying spec.md §6's defaults and validation. A validation failure
// is an errs.BadConfig, which cmd/asmtune reports as parameterParseFail.
func Parse(argv []string) (*Config, error) {
	fs := flag.NewFlagSet("asmtune", flag.ContinueOnError)
	cfg := &Config{}

	var evalsStr string
	var seed uint64

	fs.StringVar(&cfg.Curve, "curve", "curve25519", "curve id")
	fs.StringVar(&cfg.Curve, "c", "curve25519", "curve id (short)")
	fs.StringVar(&cfg.Method, "method", "square", "primitive within curve")
	fs.StringVar(&cfg.Method, "m", "square", "primitive within curve (short)")
	fs.StringVar(&cfg.Bridge, "bridge", BridgeFiat, "source of baseline: fiat, manual, bitcoin-core, jasmin")
	fs.StringVar(&cfg.JSONFile, "jsonFile", "", "path to a model.ExportedState JSON file")
	fs.StringVar(&cfg.CFile, "cFile", "", "path to the C source the jsonFile was extracted from")
	fs.StringVar(&cfg.Optimizer, "optimizer", OptimizerRLS, "search strategy: rls, sa")
	fs.StringVar(&cfg.Optimizer, "o", OptimizerRLS, "search strategy (short)")
	fs.Uint64Var(&seed, "seed", 0, "master seed (default: current time in ms)")
	fs.Uint64Var(&seed, "s", 0, "master seed (short)")
	fs.StringVar(&evalsStr, "evals", "10k", "total evaluations, accepts k/M/T suffixes")
	fs.StringVar(&evalsStr, "e", "10k", "total evaluations (short)")
	fs.IntVar(&cfg.Bets, "bets", 10, "number of bet children")
	fs.Float64Var(&cfg.BetRatio, "betRatio", 0.2, "fraction of budget spent on bets")
	fs.BoolVar(&cfg.Single, "single", false, "shortcut for bets=1, betRatio=1")
	fs.IntVar(&cfg.Cyclegoal, "cyclegoal", 10000, "target cycles per batch measurement")
	fs.BoolVar(&cfg.Xmm, "xmm", false, "vector-register spill policy")
	fs.BoolVar(&cfg.PreferXmm, "preferXmm", false, "prefer xmm over gpr spills")
	fs.BoolVar(&cfg.Redzone, "redzone", true, "use the System V red zone")
	fs.StringVar(&cfg.FramePointer, "framePointer", FramePointerOmit, "use of RBP: omit, save, constant")
	fs.StringVar(&cfg.MemoryConstraints, "memoryConstraints", MemoryConstraintsNone, "read/write aliasing policy")
	fs.BoolVar(&cfg.Proof, "proof", true, "invoke external prover after optimization")
	fs.StringVar(&cfg.ResultDir, "resultDir", "", "output directory (default ./results-<seed>)")
	fs.StringVar(&cfg.ReadState, "readState", "", "resume Model from exported JSON")
	fs.BoolVar(&cfg.StartFromBestJson, "startFromBestJson", false, "resume from best prior result in resultDir")
	fs.StringVar(&cfg.LogFile, "logFile", "", "diagnostic log file path")
	fs.StringVar(&cfg.LogComment, "logComment", "", "free-form comment recorded in the log file")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "keep the cache dir and emit extra diagnostics")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose (short)")
	fs.IntVar(&cfg.LogFlushIntervalMs, "logFlushIntervalMs", 500, "log file flush interval in milliseconds")
	fs.Float64Var(&cfg.SAInitialTemperature, "saInitialTemperature", 18351, "SA initial temperature")
	fs.Float64Var(&cfg.SAVisitParam, "saVisitParam", 1.62, "SA visit (cooling shape) parameter")
	fs.Float64Var(&cfg.SAAcceptParam, "saAcceptParam", 1.0/5.515, "SA acceptance scale")
	fs.StringVar(&cfg.SANeighborStrategy, "saNeighborStrategy", "greedy", "SA neighbour selection: uniform, greedy, weighted")
	fs.IntVar(&cfg.SANumNeighbors, "saNumNeighbors", 1, "SA neighbours per epoch")
	fs.Float64Var(&cfg.SAStepSizeParam, "saStepSizeParam", 0.005, "SA Cauchy-scale divisor")
	fs.IntVar(&cfg.SAMaxMutStepSize, "saMaxMutStepSize", -1, "SA upper clamp on step count, -1 for unlimited")
	fs.StringVar(&cfg.SACoolingSchedule, "saCoolingSchedule", "exp", "SA cooling curve: exp, lin, log")

	if err := ff.Parse(fs, argv, ff.WithEnvVarPrefix("ASMTUNE")); err != nil {
		return nil, errs.Wrap(errs.BadConfig, "config: failed to parse arguments", err)
	}

	evals, err := ParseEvals(evalsStr)
	if err != nil {
		return nil, err
	}
	cfg.Evals = evals

	if seed == 0 {
		seed = nowMs()
	}
	cfg.Seed = seed

	if cfg.Single {
		cfg.Bets = 1
		cfg.BetRatio = 1
	}

	if cfg.ResultDir == "" {
		cfg.ResultDir = "./results-" + strconv.FormatUint(cfg.Seed, 10)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Evals <= 0 {
		return errs.New(errs.BadConfig, "config: evals must be > 0")
	}
	switch c.Bridge {
	case BridgeManual:
		if c.JSONFile == "" || c.CFile == "" {
			return errs.New(errs.BadConfig, "config: bridge=manual requires jsonFile and cFile")
		}
		if !fileReadable(c.JSONFile) || !fileReadable(c.CFile) {
			return errs.New(errs.BadConfig, "config: jsonFile and cFile must be readable")
		}
	case BridgeFiat:
		if !contains(FiatMethods, c.Method) {
			return errs.New(errs.BadConfig, "config: method "+c.Method+" is not a fiat method")
		}
		if !contains(FiatCurves, c.Curve) {
			return errs.New(errs.BadConfig, "config: curve "+c.Curve+" is not a fiat curve")
		}
	case BridgeBitcoinCore:
		if !contains(BitcoinCoreMethods, c.Method) {
			return errs.New(errs.BadConfig, "config: method "+c.Method+" is not a bitcoin-core method")
		}
	case BridgeJasmin:
		if c.JSONFile == "" {
			return errs.New(errs.BadConfig, "config: bridge=jasmin requires jsonFile")
		}
	default:
		return errs.New(errs.BadConfig, "config: unknown bridge "+c.Bridge)
	}
	if c.Optimizer != OptimizerRLS && c.Optimizer != OptimizerSA {
		return errs.New(errs.BadConfig, "config: unknown optimizer "+c.Optimizer)
	}
	if c.Bets < 1 {
		return errs.New(errs.BadConfig, "config: bets must be >= 1")
	}
	if c.BetRatio <= 0 || c.BetRatio > 1 {
		return errs.New(errs.BadConfig, "config: betRatio must be in (0, 1]")
	}
	switch c.FramePointer {
	case FramePointerOmit, FramePointerSave, FramePointerConstant:
	default:
		return errs.New(errs.BadConfig, "config: unknown framePointer "+c.FramePointer)
	}
	switch c.MemoryConstraints {
	case MemoryConstraintsNone, MemoryConstraintsAll, MemoryConstraintsOut1Arg1:
	default:
		return errs.New(errs.BadConfig, "config: unknown memoryConstraints "+c.MemoryConstraints)
	}
	switch c.SACoolingSchedule {
	case "exp", "lin", "log":
	default:
		return errs.New(errs.BadConfig, "config: unknown saCoolingSchedule "+c.SACoolingSchedule)
	}
	switch c.SANeighborStrategy {
	case "uniform", "greedy", "weighted":
	default:
		return errs.New(errs.BadConfig, "config: unknown saNeighborStrategy "+c.SANeighborStrategy)
	}
	if c.SANumNeighbors < 1 {
		return errs.New(errs.BadConfig, "config: saNumNeighbors must be >= 1")
	}
	return nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func fileReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

package config

import (
	"fmt"
	"strconv"
)

// Render reproduces an argv equivalent to cfg, explicitly stating every
// documented option so that Parse(Render(cfg)) reconstructs the same
// Config even though Parse applies defaulting logic (single's bets/
// betRatio override, seed's current-time fallback) that would otherwise
// make a partial argv ambiguous.
func Render(cfg *Config) []string {
	return []string{
		"--curve=" + cfg.Curve,
		"--method=" + cfg.Method,
		"--bridge=" + cfg.Bridge,
		"--jsonFile=" + cfg.JSONFile,
		"--cFile=" + cfg.CFile,
		"--optimizer=" + cfg.Optimizer,
		"--seed=" + strconv.FormatUint(cfg.Seed, 10),
		"--evals=" + RenderEvals(cfg.Evals),
		"--bets=" + strconv.Itoa(cfg.Bets),
		"--betRatio=" + formatFloat(cfg.BetRatio),
		"--single=" + strconv.FormatBool(cfg.Single),
		"--cyclegoal=" + strconv.Itoa(cfg.Cyclegoal),
		"--xmm=" + strconv.FormatBool(cfg.Xmm),
		"--preferXmm=" + strconv.FormatBool(cfg.PreferXmm),
		"--redzone=" + strconv.FormatBool(cfg.Redzone),
		"--framePointer=" + cfg.FramePointer,
		"--memoryConstraints=" + cfg.MemoryConstraints,
		"--proof=" + strconv.FormatBool(cfg.Proof),
		"--resultDir=" + cfg.ResultDir,
		"--readState=" + cfg.ReadState,
		"--startFromBestJson=" + strconv.FormatBool(cfg.StartFromBestJson),
		"--logFile=" + cfg.LogFile,
		"--logComment=" + cfg.LogComment,
		"--verbose=" + strconv.FormatBool(cfg.Verbose),
		"--logFlushIntervalMs=" + strconv.Itoa(cfg.LogFlushIntervalMs),
		"--saInitialTemperature=" + formatFloat(cfg.SAInitialTemperature),
		"--saVisitParam=" + formatFloat(cfg.SAVisitParam),
		"--saAcceptParam=" + formatFloat(cfg.SAAcceptParam),
		"--saNeighborStrategy=" + cfg.SANeighborStrategy,
		"--saNumNeighbors=" + strconv.Itoa(cfg.SANumNeighbors),
		"--saStepSizeParam=" + formatFloat(cfg.SAStepSizeParam),
		"--saMaxMutStepSize=" + strconv.Itoa(cfg.SAMaxMutStepSize),
		"--saCoolingSchedule=" + cfg.SACoolingSchedule,
	}
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

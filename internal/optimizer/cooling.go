package optimizer

import (
	"math"

	"asmtune/internal/errs"
)

// Cooling schedule names accepted by Cooling.
const (
	ScheduleExp = "exp"
	ScheduleLin = "lin"
	ScheduleLog = "log"
)

// Cooling implements spec.md §4.5's three temperature schedules. t is
// the current evaluation index, q the schedule-shape parameter, T0 the
// initial temperature, and nEvals the total evaluation budget (used by
// the linear schedule to normalize progress).
func Cooling(schedule string, t, q, t0, nEvals float64) (float64, error) {
	switch schedule {
	case ScheduleExp:
		denom := math.Pow(t+2, q-1) - 1
		if denom == 0 {
			return 0, nil
		}
		return t0 * (math.Pow(2, q-1) - 1) / denom, nil
	case ScheduleLin:
		progress := 0.0
		if nEvals > 0 {
			progress = t / nEvals
		}
		progress = clampFloat(progress, 0, 1)
		return t0 * (1 - progress) * q, nil
	case ScheduleLog:
		arg := (2.62 - q) * (t + 1)
		if arg <= 1 {
			return 0, nil
		}
		v := t0 / math.Log(arg)
		if v < 0 {
			return 0, nil
		}
		return v, nil
	default:
		return 0, errs.New(errs.BadConfig, "optimizer: unknown cooling schedule "+schedule)
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

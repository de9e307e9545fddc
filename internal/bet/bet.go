// Package bet implements the multi-seed tournament controller spec.md
// §4.6 describes: run B cheap sub-searches from independently derived
// seeds, then spend the remaining budget continuing the best one.
package bet

import (
	"math"

	"asmtune/internal/errs"
	"asmtune/internal/model"
	"asmtune/internal/optimizer"
)

// Runner runs one optimizer (RLS or SA) on a Session for a fixed number
// of evaluations. RLSRunner and SARunner adapt the two optimizer.RunRLS
// / optimizer.RunSA entry points to this shape.
type Runner interface {
	Run(sess *optimizer.Session, evals int) (optimizer.CandidateSlot, error)
}

// RLSRunner runs RLS, overriding Cfg.Evals with the evals passed to Run.
type RLSRunner struct {
	Cfg optimizer.RLSConfig
}

func (r RLSRunner) Run(sess *optimizer.Session, evals int) (optimizer.CandidateSlot, error) {
	cfg := r.Cfg
	cfg.Evals = evals
	return optimizer.RunRLS(sess, cfg)
}

// SARunner runs SA, overriding Cfg.Evals with the evals passed to Run.
type SARunner struct {
	Cfg optimizer.SAConfig
}

func (r SARunner) Run(sess *optimizer.Session, evals int) (optimizer.CandidateSlot, error) {
	cfg := r.Cfg
	cfg.Evals = evals
	return optimizer.RunSA(sess, cfg)
}

// Config holds the bet controller's three spec.md §4.6 parameters.
type Config struct {
	// Bets is B, the number of child sub-searches.
	Bets int
	// BetRatio is r, the fraction of the total budget spent exploring
	// children before committing to the winner.
	BetRatio float64
	// TotalEvals is E, the overall evaluation budget.
	TotalEvals int
}

// Single reports whether this Config is the B=1, r=1 shortcut spec.md
// §4.6 calls out as observationally equivalent to one continuous run
// with the master seed.
func (c Config) Single() bool {
	return c.Bets == 1 && c.BetRatio == 1
}

func (c Config) validate() error {
	if c.Bets <= 0 {
		return errs.New(errs.BadConfig, "bet: bets must be > 0")
	}
	if c.BetRatio <= 0 || c.BetRatio > 1 {
		return errs.New(errs.BadConfig, "bet: betRatio must be in (0, 1]")
	}
	if c.TotalEvals <= 0 {
		return errs.New(errs.BadConfig, "bet: total evals must be > 0")
	}
	return nil
}

// Run implements spec.md §4.6's three-step algorithm. sess is mutated
// in place to hold the winning child's Model, Rng, and accumulated
// best-ever / convergence records by the time Run returns.
func Run(sess *optimizer.Session, runner Runner, cfg Config) (optimizer.CandidateSlot, error) {
	if err := cfg.validate(); err != nil {
		return optimizer.CandidateSlot{}, err
	}

	if cfg.Single() {
		return runner.Run(sess, cfg.TotalEvals)
	}

	betEvals := int(math.Floor(float64(cfg.TotalEvals) * cfg.BetRatio / float64(cfg.Bets)))
	if betEvals <= 0 {
		betEvals = 1
	}

	type child struct {
		sess *optimizer.Session
		best optimizer.CandidateSlot
	}
	children := make([]child, cfg.Bets)

	baseline := sess.Model.Export()
	for i := 0; i < cfg.Bets; i++ {
		childModel, err := model.Import(baseline)
		if err != nil {
			return optimizer.CandidateSlot{}, err
		}
		childRng := sess.Rng.Derive(uint64(i))
		childSess := optimizer.NewSession(childRng, childModel, sess.Assembler, sess.Options, sess.Measurer)
		childSess.Cyclegoal = sess.Cyclegoal
		childSess.Status = sess.Status
		childSess.Mutations = sess.Mutations
		childSess.Failures = sess.Failures
		childSess.PrintEvery = sess.PrintEvery

		result, err := runner.Run(childSess, betEvals)
		if err != nil {
			return optimizer.CandidateSlot{}, err
		}
		children[i] = child{sess: childSess, best: result}
	}

	winner := 0
	for i := 1; i < cfg.Bets; i++ {
		if children[i].sess.BestByRatio.Ratio > children[winner].sess.BestByRatio.Ratio {
			winner = i
		}
	}

	winnerSess := children[winner].sess
	sess.Model = winnerSess.Model
	sess.Rng = winnerSess.Rng
	sess.BestByRatio = winnerSess.BestByRatio
	sess.BestByCycles = winnerSess.BestByCycles
	sess.Convergence = append(sess.Convergence, winnerSess.Convergence...)
	sess.Epoch = winnerSess.Epoch

	spent := betEvals * cfg.Bets
	remaining := cfg.TotalEvals - spent
	if remaining <= 0 {
		return children[winner].best, nil
	}
	return runner.Run(sess, remaining)
}

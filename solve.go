package plsbb

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Config collects the tunables a Solve call needs: the spec.md §6
// inputs (Epsilon, TimeLimit) plus the ambient additions SPEC_FULL.md
// §3 calls for (branching heuristic override, logging, instrumentation
// hook).
type Config struct {
	Epsilon   float64
	TimeLimit time.Duration

	BranchHeuristic BranchHeuristic

	// Workers is retained for API parity with the teacher's
	// Problem.workers field (the LP collaborator may itself be
	// multi-threaded, spec.md §5) but the sBB loop itself is strictly
	// single-threaded (spec.md §1's explicit non-goal on
	// parallel/distributed search): withDefaults overwrites any value
	// with 1.
	Workers int

	Logger     *slog.Logger
	Middleware BnbMiddleware
}

func (c Config) withDefaults() Config {
	if c.Epsilon <= 0 {
		c.Epsilon = 1e-4
	}
	if c.TimeLimit <= 0 {
		c.TimeLimit = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = defaultLogger()
	}
	if c.Middleware == nil {
		c.Middleware = dummyMiddleware{}
	}
	c.Workers = 1
	return c
}

// SolveStats is the accounting tuple spec.md §4.7 step 4 describes.
type SolveStats struct {
	Elapsed      time.Duration
	EnvelopeTime time.Duration
	LPModelTime  time.Duration
	LPSolveTime  time.Duration
	EvalTime     time.Duration

	NodeCount int
	GlobalUB  float64
	BestLB    float64
	RootLB    float64
	Incumbent []float64

	Terminated TerminationReason
}

// solve is the sBB driver (spec.md §4.7), generalized from the
// teacher's milpProblem.solve (ilp.go): build the root relaxation,
// loop popping the frontier's best node, branch (C4), refine envelopes
// and warm-start resolve both children (C5), update global bounds,
// fathom by bound (C6), and terminate on optimality gap, timeout, or
// watchdog abort (C8).
func solve(ctx context.Context, fns []*PLFunction, variant Variant, rhs []float64, cfg Config) (*Solution, *SolveStats, error) {
	cfg = cfg.withDefaults()
	log := cfg.Logger
	mw := cfg.Middleware
	rec := newTimingRecorder()
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, cfg.TimeLimit)
	defer cancel()

	pre := presolveFixedVariables(fns, variant, rhs)
	constContribution := pre.fixedContribution(fns)

	if len(pre.freeFns) == 0 {
		// every variable was fixed by presolve: there is no relaxation
		// to search, the instance's value is the constant contribution.
		return &Solution{Objective: constContribution, X: pre.expand(nil)},
			&SolveStats{
				GlobalUB:   constContribution,
				BestLB:     constContribution,
				RootLB:     constContribution,
				Incumbent:  pre.expand(nil),
				Elapsed:    time.Since(started),
				Terminated: TerminationOptimal,
			}, nil
	}

	// spec.md §4.7 step 1: build per-variable full-range envelopes and
	// the root LP.
	envelopes := make([]*Envelope, len(pre.freeFns))
	for i, f := range pre.freeFns {
		envelopes[i] = buildEnvelope(f, f.Lower(), f.Upper(), rec)
	}

	modelStart := time.Now()
	model, handles, err := buildRootModel(pre.freeFns, variant, pre.rhs, envelopes)
	rec.record(phaseLPModel, modelStart)
	if err != nil {
		return nil, nil, err
	}

	root := &node{
		id:        0,
		parent:    0,
		model:     model,
		xIdx:      handles.xIdx,
		eIdx:      handles.eIdx,
		envelopes: envelopes,
	}
	mw.NewNode(root.id, root.parent)

	solveStart := time.Now()
	status, err := root.model.Solve(MethodPrimal)
	rec.record(phaseLPSolve, solveStart)
	if err != nil {
		model.Delete()
		return nil, nil, err
	}
	if status != StatusOptimal {
		mw.Decide(root.id, 0, nil, DecisionRootInfeasible)
		model.Delete()
		return nil, nil, ErrInfeasibleRoot
	}

	root.extractSolution()
	root.computePStar(pre.freeFns, rec)
	rootLB := root.lb

	globalUB, incumbentFree := root.upperBoundPoint()
	mw.Decide(root.id, root.lb, root.relaxedX, DecisionRootLegal)
	log.Debug("root relaxation solved", "root_lb", rootLB, "global_ub", globalUB)

	fr := newFrontier()
	fr.insert(root)

	var nextID int64 = 1
	nodeCount := 1
	terminated := TerminationOptimal

	var wd *watchdog
	if watchdogAppliesTo(variant, fns[0].K()) {
		wctx, wcancel := context.WithCancel(ctx)
		defer wcancel()
		wd = startWatchdog(wctx, systemMemoryPercent)
	}

loop:
	for !fr.empty() {
		switch {
		case ctx.Err() != nil:
			terminated = TerminationTimeout
			break loop
		case wd != nil && wd.aborted():
			terminated = TerminationResourceExhaustion
			break loop
		}

		front := fr.front()
		if relativeGap(globalUB, front.lb) <= cfg.Epsilon {
			terminated = TerminationOptimal
			break loop
		}

		parent := fr.popFront()
		log.Debug("node popped", "id", parent.id, "lb", parent.lb, "depth", parent.depth)
		decision := selectBranch(cfg.BranchHeuristic, parent.envelopes, parent.relaxedX, parent.pStar, parent.relaxedE)

		leftID, rightID := nextID, nextID+1
		nextID += 2
		nodeCount += 2
		mw.NewNode(leftID, parent.id)
		mw.NewNode(rightID, parent.id)

		left, leftOK := splitChild(parent, decision, sideLeft, pre.freeFns, leftID, rec)
		right, rightOK := splitChild(parent, decision, sideRight, pre.freeFns, rightID, rec)
		parent.model.Delete()

		for _, c := range [...]struct {
			n  *node
			ok bool
			id int64
		}{{left, leftOK, leftID}, {right, rightOK, rightID}} {
			if !c.ok {
				mw.Decide(c.id, 0, nil, DecisionChildFathomed)
				log.Debug("child fathomed", "id", c.id, "reason", "resolve not optimal")
				continue
			}

			isNewIncumbent := false
			if ub, x := c.n.upperBoundPoint(); ub < globalUB {
				globalUB, incumbentFree = ub, x
				mw.Decide(c.id, c.n.lb, c.n.relaxedX, DecisionNewIncumbent)
				isNewIncumbent = true
				log.Debug("new incumbent", "id", c.id, "global_ub", globalUB)
			}

			// the incumbent update above may itself have tightened
			// globalUB enough to fathom this very node, so the fate is
			// always resolved against the final, post-update globalUB.
			if c.n.lb < globalUB {
				fr.insert(c.n)
				if !isNewIncumbent {
					mw.Decide(c.id, c.n.lb, c.n.relaxedX, DecisionBranched)
				}
			} else {
				if !isNewIncumbent {
					mw.Decide(c.id, c.n.lb, c.n.relaxedX, DecisionFathomedByBound)
				}
				log.Debug("child fathomed", "id", c.id, "lb", c.n.lb, "reason", "bound")
				c.n.model.Delete()
			}
		}

		before := fr.len()
		fr.truncate(globalUB)
		if dropped := before - fr.len(); dropped > 0 {
			log.Debug("frontier truncated", "dropped", dropped, "global_ub", globalUB)
		}
	}

	bestLB := globalUB
	if !fr.empty() {
		bestLB = fr.front().lb
	}
	fr.drain()

	stats := &SolveStats{
		Elapsed:      time.Since(started),
		EnvelopeTime: rec.get(phaseEnvelope),
		LPModelTime:  rec.get(phaseLPModel),
		LPSolveTime:  rec.get(phaseLPSolve),
		EvalTime:     rec.get(phaseEval),
		NodeCount:    nodeCount,
		GlobalUB:     globalUB + constContribution,
		BestLB:       bestLB + constContribution,
		RootLB:       rootLB + constContribution,
		Incumbent:    pre.expand(incumbentFree),
		Terminated:   terminated,
	}

	sol := &Solution{Objective: stats.GlobalUB, X: stats.Incumbent}

	log.Info("sbb solve finished",
		"terminated", stats.Terminated.String(),
		"nodes", stats.NodeCount,
		"global_ub", stats.GlobalUB,
		"best_lb", stats.BestLB,
		"constraint_residual", residualNorm(len(fns), variant, rhs, stats.Incumbent),
	)

	if terminated == TerminationResourceExhaustion {
		// spec.md §7: reported with a fixed sentinel elapsed time so it
		// is statistically indistinguishable from a timeout downstream.
		stats.Elapsed = 1801 * time.Second
		return sol, stats, ErrResourceExhaustion
	}

	return sol, stats, nil
}

// relativeGap computes (ub - lb) / |ub|, guarding against division by
// a near-zero upper bound.
func relativeGap(ub, lb float64) float64 {
	denom := math.Abs(ub)
	if denom < 1e-12 {
		denom = 1e-12
	}
	return (ub - lb) / denom
}

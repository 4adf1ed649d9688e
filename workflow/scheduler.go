package workflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aram/genflow/gaerr"
	"github.com/aram/genflow/internal/datastore"
)

// Branch is the per-goroutine handle a running step receives (spec §4.7):
// its ordinal among the group's branches, the branch count, and access to
// both the workflow-wide and branch-group-local data stores.
type Branch struct {
	id       int
	total    int
	store    *datastore.Store
	stopFlag *atomic.Bool
}

// ID returns the branch's ordinal in [0, Total).
func (b *Branch) ID() int { return b.id }

// Total returns the branch group's size.
func (b *Branch) Total() int { return b.total }

// Store returns the shared data store backing both scopes (spec §4.1).
func (b *Branch) Store() *datastore.Store { return b.store }

// Stopped reports whether the scheduler has observed a cancellation
// request. Long-running operator bodies may poll this to exit early.
func (b *Branch) Stopped() bool { return b.stopFlag.Load() }

// SplitWork divides total items across the branch group, giving each branch
// a contiguous, non-overlapping [start, start+count) range. Any remainder
// is distributed one-by-one to the lowest-id branches (spec §4.7).
func SplitWork(total, branchID, branchCount int) (start, count int) {
	if branchCount <= 0 {
		return 0, 0
	}
	base := total / branchCount
	rem := total % branchCount
	if branchID < rem {
		return branchID * (base + 1), base + 1
	}
	return rem*(base+1) + (branchID-rem)*base, base
}

// BranchGroup runs a Graph across a fixed number of concurrent branches,
// barrier-synchronizing at every Sequential, Decision, and Nop node so that
// exactly one branch executes the step while the rest wait, and running
// every Operation node's body once per branch concurrently (spec §4.6,
// §4.7). A BranchGroup is built once and Run repeatedly, once per
// generation.
type BranchGroup struct {
	id         uuid.UUID
	graph      *Graph
	branchCnt  int
	store      *datastore.Store
	entryBar   *barrier
	exitBar    *barrier
	decisionMu sync.Mutex
	decisionV  bool
	stopFlag   atomic.Bool
	errMu      sync.Mutex
	runErr     error
	logger     *zap.Logger
	metrics    *metrics
}

// Option configures optional BranchGroup collaborators (spec §3: logging
// and metrics are injected, never a global singleton), mirroring the
// teacher's functional-options style.
type Option func(*BranchGroup)

// WithLogger attaches a structured logger; branch-level step execution logs
// at Debug, generation boundaries at Info, cancellation at
// Warn, and operation failures at Error. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(bg *BranchGroup) {
		if logger != nil {
			bg.logger = logger
		}
	}
}

// WithMetrics registers a barrier-wait-time histogram and a
// cancelled-generations counter against reg. A nil reg (the default)
// disables metrics collection entirely.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(bg *BranchGroup) {
		bg.metrics = newMetrics(reg)
	}
}

// NewBranchGroup builds a scheduler for graph with branchCount concurrent
// branches, sharing store for both workflow-wide and branch-group-local
// data.
func NewBranchGroup(graph *Graph, branchCount int, store *datastore.Store, opts ...Option) (*BranchGroup, error) {
	if graph == nil || store == nil {
		return nil, fmt.Errorf("workflow: new branch group: %w", gaerr.ErrNullArgument)
	}
	if branchCount <= 0 {
		return nil, fmt.Errorf("workflow: new branch group: branch count %d: %w", branchCount, gaerr.ErrArgumentOutOfRange)
	}
	bg := &BranchGroup{
		id:        uuid.New(),
		graph:     graph,
		branchCnt: branchCount,
		store:     store,
		entryBar:  newBarrier(branchCount),
		exitBar:   newBarrier(branchCount),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(bg)
	}
	return bg, nil
}

// ID returns the branch group's instance identifier, stable for its
// lifetime and included in every log line it emits.
func (bg *BranchGroup) ID() uuid.UUID { return bg.id }

// Stop requests cooperative cancellation: every branch will observe it the
// next time it reaches a barrier and Run will return gaerr.ErrCancelled.
// The group is left fully synchronized and may be Run again afterward.
func (bg *BranchGroup) Stop() {
	bg.logger.Warn("branch group stop requested", zap.String("branch_group", bg.id.String()))
	bg.stopFlag.Store(true)
	bg.entryBar.abort()
	bg.exitBar.abort()
}

// Run walks the graph from its start node to completion once, running each
// branch concurrently via an errgroup (spec §4.7). The first branch error
// (including a cancellation observed at a barrier) aborts the walk for
// every branch and is returned.
func (bg *BranchGroup) Run(ctx context.Context) error {
	bg.stopFlag.Store(false)
	bg.runErr = nil
	bg.entryBar.reset()
	bg.exitBar.reset()

	bg.logger.Info("generation start",
		zap.String("branch_group", bg.id.String()),
		zap.Int("branches", bg.branchCnt))

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < bg.branchCnt; i++ {
		i := i
		eg.Go(func() error {
			br := &Branch{id: i, total: bg.branchCnt, store: bg.store, stopFlag: &bg.stopFlag}
			return bg.runBranch(ctx, br)
		})
	}
	err := eg.Wait()
	if err != nil {
		bg.metrics.incCancelled()
		bg.logger.Warn("generation cancelled",
			zap.String("branch_group", bg.id.String()), zap.Error(err))
	} else {
		bg.logger.Info("generation complete", zap.String("branch_group", bg.id.String()))
	}
	return err
}

func (bg *BranchGroup) setErr(err error) {
	bg.errMu.Lock()
	if bg.runErr == nil {
		bg.runErr = err
	}
	bg.errMu.Unlock()
	bg.logger.Error("operation failed",
		zap.String("branch_group", bg.id.String()), zap.Error(err))
	bg.stopFlag.Store(true)
	bg.entryBar.abort()
	bg.exitBar.abort()
}

// checkErr reports the first error recorded by any branch (if the
// cancellation flag is set but no branch recorded an error, the group was
// stopped externally via Stop, so gaerr.ErrCancelled is returned).
func (bg *BranchGroup) checkErr() error {
	if !bg.stopFlag.Load() {
		return nil
	}
	bg.errMu.Lock()
	defer bg.errMu.Unlock()
	if bg.runErr != nil {
		return bg.runErr
	}
	return gaerr.ErrCancelled
}

func (bg *BranchGroup) runBranch(ctx context.Context, br *Branch) error {
	current := bg.graph.start
	for current != noTarget {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := bg.graph.nodeAt(current)
		if n == nil {
			return fmt.Errorf("workflow: run: dangling node %d: %w", current, gaerr.ErrInvalidOperation)
		}

		switch n.kind {
		case KindOperation:
			waitStart := time.Now()
			bg.entryBar.wait()
			bg.metrics.observeBarrierWait(time.Since(waitStart).Seconds())
			bg.logger.Debug("operation execute",
				zap.String("branch_group", bg.id.String()),
				zap.Int("node", current), zap.Int("branch", br.id))
			if err := n.run(br); err != nil {
				bg.setErr(err)
			}
			waitStart = time.Now()
			bg.exitBar.wait()
			bg.metrics.observeBarrierWait(time.Since(waitStart).Seconds())
			if err := bg.checkErr(); err != nil {
				return err
			}
			current = bg.graph.edgeTarget(current, false)

		case KindSequential, KindNop:
			waitStart := time.Now()
			bg.entryBar.wait()
			bg.metrics.observeBarrierWait(time.Since(waitStart).Seconds())
			if br.id == 0 {
				bg.logger.Debug("step execute",
					zap.String("branch_group", bg.id.String()), zap.Int("node", current))
				if err := n.run(br); err != nil {
					bg.setErr(err)
				}
			}
			waitStart = time.Now()
			bg.exitBar.wait()
			bg.metrics.observeBarrierWait(time.Since(waitStart).Seconds())
			if err := bg.checkErr(); err != nil {
				return err
			}
			current = bg.graph.edgeTarget(current, false)

		case KindDecision:
			waitStart := time.Now()
			bg.entryBar.wait()
			bg.metrics.observeBarrierWait(time.Since(waitStart).Seconds())
			if br.id == 0 {
				bg.logger.Debug("decision evaluate",
					zap.String("branch_group", bg.id.String()), zap.Int("node", current))
				v, err := n.predicate(br)
				if err != nil {
					bg.setErr(err)
				}
				bg.decisionMu.Lock()
				bg.decisionV = v
				bg.decisionMu.Unlock()
			}
			waitStart = time.Now()
			bg.exitBar.wait()
			bg.metrics.observeBarrierWait(time.Since(waitStart).Seconds())
			if err := bg.checkErr(); err != nil {
				return err
			}
			bg.decisionMu.Lock()
			v := bg.decisionV
			bg.decisionMu.Unlock()
			current = bg.graph.edgeTarget(current, !v)

		default:
			return fmt.Errorf("workflow: run: unknown node kind %d: %w", n.kind, gaerr.ErrInvalidOperation)
		}
	}
	return nil
}

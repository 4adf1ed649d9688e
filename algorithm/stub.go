// Package algorithm implements the algorithm stub mechanism (spec §4.9): a
// declarative assembly that wires the stage operators into a runnable
// branch-group flow for a particular GA family, and patches the wiring
// in place when operators are swapped at run time.
package algorithm

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/aram/genflow/gaerr"
	"github.com/aram/genflow/internal/datastore"
	"github.com/aram/genflow/internal/rng"
	"github.com/aram/genflow/workflow"
)

// Reserved branch-group-scope data ids for builtin stubs (spec §4.9,
// mirroring the teacher's GaBranchGroupDataIDs enum).
const (
	// DataSelectionOutput holds the chromosome group selection produced,
	// consumed by the coupling step when coupling is in use.
	DataSelectionOutput = 0x8001
	// DataCouplingOutput holds the offspring coupling produced, consumed by
	// replacement.
	DataCouplingOutput = 0x8002
)

// statsTrackerID is the population tracker id a stub registers its own
// generation-boundary log tracker under, reserved so caller-registered
// trackers never collide with it (spec §4.9, grounded on SimpleStub.cpp's
// SetStatsTrackers: a stub installs its own trackers on Connect and removes
// them on Disconnect).
const statsTrackerID = -1

// sizeTrackerID is the tracker id a stub registers its population.
// PopulationSizeTracker under, alongside its log tracker (spec §4.9,
// grounded on SPEAStub.cpp's _sizeTracker member, registered under
// GaPopulationSizeTracker::TRACKER_ID on Connect and removed on Disconnect).
const sizeTrackerID = -2

// basicStub carries the connection bookkeeping every stub shares: the
// branch group it owns once connected, its branch count, and the
// branch-group-scope data store (spec §4.9 p.1: "creates the branch group,
// sets its branch count, populates branch-group-scope data"). The C++
// original splits this into an abstract GaAlgorithmStub base and a
// GaBasicStub layer; composing it as an embedded struct instead keeps the
// same shared bookkeeping without a virtual dispatch hierarchy that, with a
// single concrete stub, buys nothing.
type basicStub struct {
	mu sync.Mutex

	branchCount int
	store       *datastore.Store
	graph       *workflow.Graph
	branchGroup *workflow.BranchGroup
	rng         *rng.Generator
	connected   bool

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// Connected reports whether the stub is currently attached to a workflow.
func (b *basicStub) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// BranchCount returns the number of branches the stub's branch group runs.
func (b *basicStub) BranchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.branchCount
}

// SetBranchCount records the stub's branch count, as reported by
// BranchCount. It is rejected while connected (spec §4.9: a stub's own
// mutators are not thread-safe and re-wiring requires the scheduler to be
// stopped first). Connect overwrites the value with its own branchCount
// argument, so the branch group is always sized by Connect.
func (b *basicStub) SetBranchCount(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connected {
		return fmt.Errorf("algorithm: set branch count: %w", gaerr.ErrInvalidOperation)
	}
	if n <= 0 {
		return fmt.Errorf("algorithm: set branch count: %d: %w", n, gaerr.ErrArgumentOutOfRange)
	}
	b.branchCount = n
	return nil
}

// Run executes exactly one generation through the stub's connected branch
// group. It fails with gaerr.ErrInvalidOperation if the stub isn't
// connected.
func (b *basicStub) Run(ctx context.Context) error {
	b.mu.Lock()
	bg := b.branchGroup
	connected := b.connected
	b.mu.Unlock()
	if !connected {
		return fmt.Errorf("algorithm: run: %w", gaerr.ErrInvalidOperation)
	}
	return bg.Run(ctx)
}

// Stop requests cooperative cancellation of the Run call in progress. A Stop
// made while no Run is in progress has no effect, since Run clears the
// request when it starts.
func (b *basicStub) Stop() {
	b.mu.Lock()
	bg := b.branchGroup
	connected := b.connected
	b.mu.Unlock()
	if connected {
		bg.Stop()
	}
}

package algorithm

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/aram/genflow/gaerr"
	"github.com/aram/genflow/internal/datastore"
	"github.com/aram/genflow/internal/rng"
	"github.com/aram/genflow/population"
	"github.com/aram/genflow/stage"
	"github.com/aram/genflow/workflow"
)

// SimpleGAStub assembles the classic generational GA flow: initialize once,
// then repeat select → [couple] → replace → [re-evaluate fitness] →
// [scale] → [sort] → advance generation, one pass per Run call (spec §4.9,
// grounded on the original's GaSimpleGAStub: "select, couple, replace").
//
// Set* methods update an operator's current value at any time, connected or
// not (spec §4.9: "hot-swappable operator wiring"). When a Set* call flips
// whether an optional stage (coupling, the fitness re-evaluation step,
// scaling, sort) is on the active path, and the stub is connected, it
// atomically repoints the one flow edge that stage's presence controls —
// no Disconnect/Connect cycle required (spec §4.9 item 2, grounded on
// SimpleStub.cpp's SetSelection/SetScaling/SetPopulationSort: "update ...
// operation setup stored in flow step if stub is connected ... connect or
// disconnect step"). This does not extend to a topology change landing
// mid-generation: which path a given branch takes through a node whose
// edge is repointed while a Run is in flight is unspecified, matching
// spec.md §1's "no dynamic flow recompilation while a generation runs".
type SimpleGAStub struct {
	basicStub

	opMu sync.Mutex

	pop       *population.Population
	generator population.Generator

	fitness           stage.FitnessOperation
	selection         stage.Selector
	selectionParams   stage.SelectionParams
	coupling          stage.CouplingOperation
	replacement       stage.ReplacementOperation
	replacementParams stage.ReplacementParams
	scaling           stage.ScalingOperation
	sortCriteria      population.Criteria

	// kept continuously in sync by the Set* methods below, not just at
	// Connect time, so they always reflect the live (or pending, while
	// disconnected) flow topology.
	couplingUsed    bool
	fitnessStepUsed bool
	scalingUsed     bool
	sortUsed        bool

	// flow holds the node ids Connect wired, used by the Set* methods to
	// repoint an anchor's edge in place while connected. Zero value while
	// disconnected.
	flow flowNodes

	sizeTracker *population.PopulationSizeTracker
}

// flowNodes are the node ids of a connected stub's flow graph. anchor1,
// anchor2, and anchor3 are permanent Nop steps — the original's
// _nopStep1..3 — that stay in the flow regardless of which optional stages
// are active, so toggling a stage only ever repoints the one anchor edge
// that controls it.
type flowNodes struct {
	checkNode, initNode workflow.NodeID
	selectionNode       workflow.NodeID
	couplingNode        workflow.NodeID
	replacementNode     workflow.NodeID
	anchor1             workflow.NodeID
	fitnessNode         workflow.NodeID
	anchor2             workflow.NodeID
	scalingNode         workflow.NodeID
	anchor3             workflow.NodeID
	sortNode            workflow.NodeID
	nextGenNode         workflow.NodeID
}

// Option configures a SimpleGAStub's optional collaborators, mirroring the
// functional-options style used throughout the workflow and ga packages.
type Option func(*SimpleGAStub)

// WithLogger attaches a structured logger, forwarded to the stub's branch
// group on every Connect. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *SimpleGAStub) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics registers the stub's branch group barrier-wait histogram and
// cancelled-generations counter against reg on every Connect. A nil reg
// (the default) disables metrics collection.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *SimpleGAStub) {
		s.metricsReg = reg
	}
}

// NewSimpleGAStub creates a disconnected stub over pop, generating new
// chromosomes for Initialize via gen.
func NewSimpleGAStub(pop *population.Population, gen population.Generator, opts ...Option) *SimpleGAStub {
	s := &SimpleGAStub{pop: pop, generator: gen, sizeTracker: population.NewPopulationSizeTracker()}
	s.rng = rng.New()
	s.logger = zap.NewNop()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PopulationSize returns the main group's size as of the last completed
// generation, and the highest size observed across the stub's lifetime
// (spec §8 scenario 1, backed by a population.PopulationSizeTracker
// registered on Connect).
func (s *SimpleGAStub) PopulationSize() (current, peak int) {
	return s.sizeTracker.Current(), s.sizeTracker.Peak()
}

// SetSeed fixes the stub's random generator to a deterministic seed,
// primarily for reproducible tests and runs.
func (s *SimpleGAStub) SetSeed(seed uint64) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.rng = rng.NewSeeded(seed)
}

// SetFitness sets the fitness operation. If the stub is connected and this
// flips whether the fitness step is on the flow (op.AllowsIndividualEvaluation
// changing), the anchor1→fitnessNode/anchor2 edge is atomically repointed.
func (s *SimpleGAStub) SetFitness(op stage.FitnessOperation) error {
	s.basicStub.mu.Lock()
	defer s.basicStub.mu.Unlock()

	s.opMu.Lock()
	s.fitness = op
	used := op != nil && !op.AllowsIndividualEvaluation()
	changed := s.basicStub.connected && used != s.fitnessStepUsed
	s.fitnessStepUsed = used
	s.opMu.Unlock()

	if !changed {
		return nil
	}
	return s.rewireAnchor(s.flow.anchor1, s.flow.fitnessNode, s.flow.anchor2, used)
}

// SetSelection sets the selection operator and its parameters. If the stub
// is connected and this flips whether coupling is used
// (params.CrossoverBuffersTagID's sign), selectionNode's outgoing edge is
// atomically repointed between couplingNode and replacementNode.
func (s *SimpleGAStub) SetSelection(sel stage.Selector, params stage.SelectionParams) error {
	s.basicStub.mu.Lock()
	defer s.basicStub.mu.Unlock()

	s.opMu.Lock()
	s.selection = sel
	s.selectionParams = params
	used := params.CrossoverBuffersTagID < 0
	changed := s.basicStub.connected && used != s.couplingUsed
	s.couplingUsed = used
	s.opMu.Unlock()

	if !changed {
		return nil
	}
	return s.rewireAnchor(s.flow.selectionNode, s.flow.couplingNode, s.flow.replacementNode, used)
}

// SetCoupling sets the coupling operator. Whether coupling is on the flow
// at all is controlled by selection's parameters (see SetSelection), not
// by this call, so no topology change can result from it.
func (s *SimpleGAStub) SetCoupling(c stage.CouplingOperation) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.coupling = c
}

// SetReplacement sets the replacement operator and its parameters.
// Replacement is always on the flow, so this never changes topology.
func (s *SimpleGAStub) SetReplacement(r stage.ReplacementOperation, params stage.ReplacementParams) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.replacement = r
	s.replacementParams = params
}

// SetScaling sets the scaling operator; pass nil for no scaling step. If
// the stub is connected and this flips whether scaling is used, the
// anchor2→scalingNode/anchor3 edge is atomically repointed.
func (s *SimpleGAStub) SetScaling(sc stage.ScalingOperation) error {
	s.basicStub.mu.Lock()
	defer s.basicStub.mu.Unlock()

	s.opMu.Lock()
	s.scaling = sc
	used := sc != nil
	changed := s.basicStub.connected && used != s.scalingUsed
	s.scalingUsed = used
	s.opMu.Unlock()

	if !changed {
		return nil
	}
	return s.rewireAnchor(s.flow.anchor2, s.flow.scalingNode, s.flow.anchor3, used)
}

// SetSort sets the main group's post-generation sort criteria; pass nil for
// no sort step. If the stub is connected and this flips whether sort is
// used, the anchor3→sortNode/nextGenNode edge is atomically repointed.
func (s *SimpleGAStub) SetSort(c population.Criteria) error {
	s.basicStub.mu.Lock()
	defer s.basicStub.mu.Unlock()

	s.opMu.Lock()
	s.sortCriteria = c
	used := c != nil
	changed := s.basicStub.connected && used != s.sortUsed
	s.sortUsed = used
	s.opMu.Unlock()

	if !changed {
		return nil
	}
	return s.rewireAnchor(s.flow.anchor3, s.flow.sortNode, s.flow.nextGenNode, used)
}

// rewireAnchor atomically repoints anchor's sole outgoing edge between
// useTarget (when used is true) and bypassTarget (when false). Called only
// while basicStub.mu is held and the stub is connected (spec §4.9 item 2:
// "atomically removes and recreates the affected connection").
func (s *SimpleGAStub) rewireAnchor(anchor, useTarget, bypassTarget workflow.NodeID, used bool) error {
	target := bypassTarget
	if used {
		target = useTarget
	}
	g := s.basicStub.graph
	if err := g.Disconnect(anchor); err != nil {
		return fmt.Errorf("algorithm: rewire: %w", err)
	}
	if err := g.Connect(anchor, target, nil); err != nil {
		return fmt.Errorf("algorithm: rewire: %w", err)
	}
	return nil
}

// Connect builds the stub's flow graph from its currently configured
// operators and starts a branch group of branchCount branches (spec §4.9:
// "connecting a stub creates the branch group, wires the flow, and
// populates branch-group-scope data"). It fails with
// gaerr.ErrInvalidOperation if already connected, or gaerr.ErrNullArgument
// if a required operator (selection, replacement) is missing.
func (s *SimpleGAStub) Connect(branchCount int) error {
	s.basicStub.mu.Lock()
	defer s.basicStub.mu.Unlock()
	if s.basicStub.connected {
		return fmt.Errorf("algorithm: connect: %w", gaerr.ErrInvalidOperation)
	}
	if branchCount <= 0 {
		return fmt.Errorf("algorithm: connect: %d: %w", branchCount, gaerr.ErrArgumentOutOfRange)
	}

	s.opMu.Lock()
	if s.pop == nil || s.generator == nil || s.selection == nil || s.replacement == nil {
		s.opMu.Unlock()
		return fmt.Errorf("algorithm: connect: %w", gaerr.ErrNullArgument)
	}
	couplingUsed, fitnessStepUsed, scalingUsed, sortUsed := s.couplingUsed, s.fitnessStepUsed, s.scalingUsed, s.sortUsed
	s.opMu.Unlock()

	g := workflow.NewGraph()
	store := datastore.New()

	// Every optional stage's step node is created unconditionally, exactly
	// like the original's steps that persist across the stub's lifetime;
	// only whether an anchor's edge currently points at it changes (spec
	// §4.9 item 2, grounded on SimpleStub.cpp's permanent _nopStep1..3).
	var fn flowNodes
	fn.checkNode = g.AddDecision(s.checkInitialized)
	fn.initNode = g.AddSequential(s.runInit)
	fn.selectionNode = g.AddSequential(s.runSelection)
	fn.couplingNode = g.AddSequential(s.runCoupling)
	fn.replacementNode = g.AddSequential(s.runReplacement)
	fn.anchor1 = g.AddNop()
	fn.fitnessNode = g.AddOperation(s.runFitnessStep)
	fn.anchor2 = g.AddNop()
	fn.scalingNode = g.AddOperation(s.runScalingStep)
	fn.anchor3 = g.AddNop()
	fn.sortNode = g.AddSequential(s.runSort)
	fn.nextGenNode = g.AddSequential(s.runNextGeneration)

	selectionTarget := fn.replacementNode
	if couplingUsed {
		selectionTarget = fn.couplingNode
	}
	anchor1Target := fn.anchor2
	if fitnessStepUsed {
		anchor1Target = fn.fitnessNode
	}
	anchor2Target := fn.anchor3
	if scalingUsed {
		anchor2Target = fn.scalingNode
	}
	anchor3Target := fn.nextGenNode
	if sortUsed {
		anchor3Target = fn.sortNode
	}

	edges := []struct{ from, to workflow.NodeID }{
		{fn.selectionNode, selectionTarget},
		{fn.couplingNode, fn.replacementNode},
		{fn.replacementNode, fn.anchor1},
		{fn.anchor1, anchor1Target},
		{fn.fitnessNode, fn.anchor2},
		{fn.anchor2, anchor2Target},
		{fn.scalingNode, fn.anchor3},
		{fn.anchor3, anchor3Target},
		{fn.sortNode, fn.nextGenNode},
		{fn.initNode, fn.selectionNode},
	}
	for _, e := range edges {
		if err := g.Connect(e.from, e.to, nil); err != nil {
			return err
		}
	}
	if err := g.ConnectDecision(fn.checkNode, fn.selectionNode, fn.initNode, nil, nil); err != nil {
		return err
	}
	g.SetStart(fn.checkNode)

	bg, err := workflow.NewBranchGroup(g, branchCount, store,
		workflow.WithLogger(s.logger), workflow.WithMetrics(s.metricsReg))
	if err != nil {
		return err
	}

	s.basicStub.graph = g
	s.basicStub.store = store
	s.basicStub.branchGroup = bg
	s.basicStub.branchCount = branchCount
	s.basicStub.connected = true
	s.flow = fn

	s.pop.RegisterTracker(sizeTrackerID, s.sizeTracker)

	logger := s.logger
	s.pop.RegisterTracker(statsTrackerID, population.TrackerFunc(func(p *population.Population, generation int) {
		logger.Info("generation stats",
			zap.Int("generation", generation),
			zap.Int("main_count", p.Main().Count()),
			zap.Int64("selections", p.Stats().Counter(population.StatSelections)),
			zap.Int64("matings", p.Stats().Counter(population.StatMatings)))
	}))

	s.logger.Info("stub connected",
		zap.String("branch_group", bg.ID().String()),
		zap.Int("branches", branchCount),
		zap.Bool("coupling_used", s.couplingUsed),
		zap.Bool("fitness_step_used", s.fitnessStepUsed),
		zap.Bool("scaling_used", s.scalingUsed),
		zap.Bool("sort_used", s.sortUsed))
	return nil
}

// Disconnect tears down the stub's branch group and branch-group-scope
// data, returning it to the unconnected state Connect requires.
func (s *SimpleGAStub) Disconnect() error {
	s.basicStub.mu.Lock()
	defer s.basicStub.mu.Unlock()
	if !s.basicStub.connected {
		return fmt.Errorf("algorithm: disconnect: %w", gaerr.ErrInvalidOperation)
	}
	s.basicStub.branchGroup.Stop()
	s.basicStub.store.RemoveScope(datastore.ScopeBranchGroup)
	s.pop.UnregisterTracker(statsTrackerID)
	s.pop.UnregisterTracker(sizeTrackerID)
	s.basicStub.graph = nil
	s.basicStub.store = nil
	s.basicStub.branchGroup = nil
	s.basicStub.connected = false
	s.flow = flowNodes{}
	s.logger.Info("stub disconnected")
	return nil
}

// Describe renders the flow this stub currently has wired, for
// operator inspection; it fails with gaerr.ErrInvalidOperation if the stub
// isn't connected.
func (s *SimpleGAStub) Describe() (string, error) {
	s.basicStub.mu.Lock()
	defer s.basicStub.mu.Unlock()
	if !s.basicStub.connected {
		return "", fmt.Errorf("algorithm: describe: %w", gaerr.ErrInvalidOperation)
	}

	steps := []string{"check-initialized", "select"}
	if s.couplingUsed {
		steps = append(steps, "couple")
	}
	steps = append(steps, "replace")
	if s.fitnessStepUsed {
		steps = append(steps, "evaluate-fitness")
	}
	if s.scalingUsed {
		steps = append(steps, "scale")
	}
	if s.sortUsed {
		steps = append(steps, "sort")
	}
	steps = append(steps, "advance-generation")

	return fmt.Sprintf("branch group %s, %d branches, flow: %s",
		s.basicStub.branchGroup.ID(), s.basicStub.branchCount, joinSteps(steps)), nil
}

func joinSteps(steps []string) string {
	out := steps[0]
	for _, s := range steps[1:] {
		out += " -> " + s
	}
	return out
}

func (s *SimpleGAStub) checkInitialized(br *workflow.Branch) (bool, error) {
	return s.pop.State() == population.StateInitialized, nil
}

func (s *SimpleGAStub) runInit(br *workflow.Branch) error {
	s.opMu.Lock()
	f := s.fitness
	s.opMu.Unlock()

	var eval population.FitnessEvaluator
	if f != nil && f.AllowsIndividualEvaluation() {
		eval = population.FitnessEvaluatorFunc(f.EvaluateOne)
	}
	if err := s.pop.Initialize(s.generator, eval); err != nil {
		return fmt.Errorf("algorithm: init: %w", err)
	}
	return nil
}

func (s *SimpleGAStub) runSelection(br *workflow.Branch) error {
	s.opMu.Lock()
	sel := s.selection
	params := s.selectionParams
	s.opMu.Unlock()

	chosen, err := sel.Select(s.pop, params, s.rng)
	if err != nil {
		return fmt.Errorf("algorithm: selection: %w", err)
	}
	if err := br.Store().Add(datastore.ScopeBranchGroup, DataSelectionOutput, &chosen, nil); err != nil {
		return fmt.Errorf("algorithm: selection: %w", err)
	}
	return nil
}

func (s *SimpleGAStub) runCoupling(br *workflow.Branch) error {
	parents, err := datastore.Get[[]*population.Storage](br.Store(), datastore.ScopeBranchGroup, DataSelectionOutput)
	if err != nil {
		return fmt.Errorf("algorithm: coupling: %w", err)
	}
	if err := br.Store().Remove(datastore.ScopeBranchGroup, DataSelectionOutput); err != nil {
		return fmt.Errorf("algorithm: coupling: %w", err)
	}

	s.opMu.Lock()
	coupling := s.coupling
	f := s.fitness
	s.opMu.Unlock()

	offspring := coupling.Couple(s.pop, *parents, s.rng)

	// offspring are freshly minted chromosomes with no raw fitness yet. When
	// the fitness operation can evaluate a chromosome in isolation, do it
	// here, right as each offspring is produced; a population-mode fitness
	// operation waits for its own flow step over the whole main group once
	// replacement has placed the offspring there.
	if f != nil && f.AllowsIndividualEvaluation() {
		for _, child := range offspring {
			child.SetRawFitness(f.EvaluateOne(child.Chromosome()))
		}
	}

	if err := br.Store().Add(datastore.ScopeBranchGroup, DataCouplingOutput, &offspring, nil); err != nil {
		return fmt.Errorf("algorithm: coupling: %w", err)
	}
	return nil
}

func (s *SimpleGAStub) runReplacement(br *workflow.Branch) error {
	s.opMu.Lock()
	couplingUsed := s.couplingUsed
	s.opMu.Unlock()

	var offspring []*population.Storage
	if couplingUsed {
		v, err := datastore.Get[[]*population.Storage](br.Store(), datastore.ScopeBranchGroup, DataCouplingOutput)
		if err != nil {
			return fmt.Errorf("algorithm: replacement: %w", err)
		}
		offspring = *v
		if err := br.Store().Remove(datastore.ScopeBranchGroup, DataCouplingOutput); err != nil {
			return fmt.Errorf("algorithm: replacement: %w", err)
		}
	} else {
		v, err := datastore.Get[[]*population.Storage](br.Store(), datastore.ScopeBranchGroup, DataSelectionOutput)
		if err != nil {
			return fmt.Errorf("algorithm: replacement: %w", err)
		}
		offspring = *v
		if err := br.Store().Remove(datastore.ScopeBranchGroup, DataSelectionOutput); err != nil {
			return fmt.Errorf("algorithm: replacement: %w", err)
		}
	}

	s.opMu.Lock()
	repl := s.replacement
	params := s.replacementParams
	s.opMu.Unlock()

	if err := repl.Replace(s.pop, offspring, params, s.rng); err != nil {
		return fmt.Errorf("algorithm: replacement: %w", err)
	}
	return nil
}

func (s *SimpleGAStub) runFitnessStep(br *workflow.Branch) error {
	items := s.pop.Main().Items()
	start, count := workflow.SplitWork(len(items), br.ID(), br.Total())

	s.opMu.Lock()
	f := s.fitness
	s.opMu.Unlock()

	f.EvaluatePopulation(items[start : start+count])
	return nil
}

func (s *SimpleGAStub) runScalingStep(br *workflow.Branch) error {
	items := s.pop.Main().Items()
	start, count := workflow.SplitWork(len(items), br.ID(), br.Total())

	s.opMu.Lock()
	sc := s.scaling
	s.opMu.Unlock()

	for _, item := range items[start : start+count] {
		sc.Scale(item)
	}
	return nil
}

func (s *SimpleGAStub) runSort(br *workflow.Branch) error {
	s.opMu.Lock()
	criteria := s.sortCriteria
	s.opMu.Unlock()
	s.pop.Main().Sort(criteria)
	return nil
}

func (s *SimpleGAStub) runNextGeneration(br *workflow.Branch) error {
	s.pop.NextGeneration()
	return nil
}

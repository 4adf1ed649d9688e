// Package stage implements the operator pipeline (spec §4.8): fitness,
// selection, coupling, replacement, scaling and mating. Every operator is a
// stateless value that the algorithm stub holds and calls directly; no
// operator implements operation.Lifecycle's prepare/update/clear hooks.
package stage

import (
	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/population"
)

// FitnessOperation evaluates a chromosome's raw fitness (spec §4.8). An
// operation that can evaluate a single chromosome in isolation (pure,
// stateless) reports AllowsIndividualEvaluation() true so Population's
// Initialize and the next-generation flow can call EvaluateOne directly, at
// any time, on any chromosome; otherwise the pipeline must run
// EvaluatePopulation as its own branch-group step between replacement and
// scaling.
type FitnessOperation interface {
	// AllowsIndividualEvaluation reports whether EvaluateOne is safe to call
	// outside a population-wide pass.
	AllowsIndividualEvaluation() bool

	// EvaluateOne computes and returns the raw fitness vector for a single
	// chromosome. Only called when AllowsIndividualEvaluation is true.
	EvaluateOne(c chromosome.Chromosome) []float64

	// EvaluatePopulation computes and writes raw fitness for every storage
	// in the given slice (typically a branch's split of the main group).
	// Valid in either evaluation mode; the algorithm stub calls it only for
	// an operation whose AllowsIndividualEvaluation is false.
	EvaluatePopulation(storages []*population.Storage)
}

// IndividualFitness adapts a pure per-chromosome function into a
// FitnessOperation whose individual mode is always available.
type IndividualFitness struct {
	Fn func(c chromosome.Chromosome) []float64
}

// AllowsIndividualEvaluation always returns true for IndividualFitness.
func (f IndividualFitness) AllowsIndividualEvaluation() bool { return true }

// EvaluateOne calls Fn directly.
func (f IndividualFitness) EvaluateOne(c chromosome.Chromosome) []float64 { return f.Fn(c) }

// EvaluatePopulation evaluates every storage via Fn, one at a time; a
// purely individual fitness function has no population-wide state to
// exploit for batching.
func (f IndividualFitness) EvaluatePopulation(storages []*population.Storage) {
	for _, s := range storages {
		s.SetRawFitness(f.Fn(s.Chromosome()))
	}
}

// PopulationFitness adapts a batch-only evaluator (one that needs the whole
// branch's slice at once, e.g. to normalize against the group) into a
// FitnessOperation whose individual mode is unavailable (spec §4.8:
// "allows_individual_evaluation() reports whether the individual mode is
// viable").
type PopulationFitness struct {
	Fn func(storages []*population.Storage)
}

// AllowsIndividualEvaluation always returns false for PopulationFitness.
func (f PopulationFitness) AllowsIndividualEvaluation() bool { return false }

// EvaluateOne panics; callers must check AllowsIndividualEvaluation first.
func (f PopulationFitness) EvaluateOne(c chromosome.Chromosome) []float64 {
	panic("stage: EvaluateOne called on a population-mode fitness operation")
}

// EvaluatePopulation calls Fn with the full slice.
func (f PopulationFitness) EvaluatePopulation(storages []*population.Storage) {
	f.Fn(storages)
}

package stage

import "github.com/aram/genflow/population"

// ScalingOperation transforms raw fitness into scaled fitness (spec §4.8).
// It is pure across branches: given a storage's raw fitness it computes and
// writes the storage's scaled fitness, with no dependency on other
// storages' state beyond what the concrete variant captures in its own
// configuration (e.g. a population-wide normalization constant prepared
// once per generation).
type ScalingOperation interface {
	// Arity returns the scaled fitness length the operation is configured
	// for. Nothing in this module reads it: Scale writes into the storage's
	// scaled slot, whose length is the population's fitness arity.
	Arity() int

	// Scale computes and writes s's scaled fitness from its raw fitness.
	Scale(s *population.Storage)
}

// IdentityScaling copies raw fitness into scaled fitness unchanged; it is
// the default when a GA family needs no scaling (e.g. simple GA with
// proportional selection already reading raw fitness, or Top-N selection
// which doesn't need scaled values at all).
type IdentityScaling struct {
	FitnessArity int
}

// Arity returns the configured arity.
func (s IdentityScaling) Arity() int { return s.FitnessArity }

// Scale copies raw into scaled, leaving the scaled slot unchanged if raw
// fitness is not yet defined.
func (s IdentityScaling) Scale(storage *population.Storage) {
	raw, ok := storage.RawFitness()
	if !ok {
		return
	}
	storage.SetScaledFitness(raw)
}

// LinearScaling applies `scaled = offset + factor*raw` component-wise, the
// classic linear fitness-scaling transform used to control selection
// pressure.
type LinearScaling struct {
	FitnessArity int
	Factor       float64
	Offset       float64
}

// Arity returns the configured arity.
func (s LinearScaling) Arity() int { return s.FitnessArity }

// Scale writes factor*raw+offset into storage's scaled fitness.
func (s LinearScaling) Scale(storage *population.Storage) {
	raw, ok := storage.RawFitness()
	if !ok {
		return
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = s.Offset + s.Factor*v
	}
	storage.SetScaledFitness(out)
}

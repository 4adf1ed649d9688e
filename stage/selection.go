package stage

import (
	"fmt"
	"sort"

	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/gaerr"
	"github.com/aram/genflow/internal/rng"
	"github.com/aram/genflow/population"
)

// SelectionParams configures a selection operation (spec §4.8).
// When CrossoverBuffersTagID >= 0, the algorithm stub skips the coupling
// stage and hands the selected storages straight to replacement. No selector
// in this package reads the tag or fills a crossover buffer.
type SelectionParams struct {
	SelectionSize         int
	CrossoverBuffersTagID int
	Dedup                 bool
	TournamentRounds      int
	Comparator            chromosome.Comparator[*population.Storage]
}

// Clone returns an independent copy (operation.Parameters).
func (p SelectionParams) Clone() SelectionParams { return p }

// Selector selects SelectionSize parents from pop's main group (spec §4.8).
type Selector interface {
	Select(pop *population.Population, params SelectionParams, gen *rng.Generator) ([]*population.Storage, error)
}

// ordered returns a copy of storages sorted best first under cmp (a stable
// sort), or in their incoming slice order when cmp is nil.
func ordered(storages []*population.Storage, cmp chromosome.Comparator[*population.Storage]) []*population.Storage {
	out := make([]*population.Storage, len(storages))
	copy(out, storages)
	if cmp == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return cmp.Compare(out[i], out[j]) > 0 })
	return out
}

func validateSize(n, size int) error {
	if size < 0 || size > n {
		return fmt.Errorf("stage: selection size %d over %d candidates: %w", size, n, gaerr.ErrArgumentOutOfRange)
	}
	return nil
}

// TopNSelector picks the best SelectionSize storages in current order.
type TopNSelector struct{}

func (TopNSelector) Select(pop *population.Population, params SelectionParams, gen *rng.Generator) ([]*population.Storage, error) {
	main := pop.Main().Items()
	if err := validateSize(len(main), params.SelectionSize); err != nil {
		return nil, err
	}
	sorted := ordered(main, params.Comparator)
	return sorted[:params.SelectionSize], nil
}

// BottomNSelector picks the worst SelectionSize storages in current order.
type BottomNSelector struct{}

func (BottomNSelector) Select(pop *population.Population, params SelectionParams, gen *rng.Generator) ([]*population.Storage, error) {
	main := pop.Main().Items()
	if err := validateSize(len(main), params.SelectionSize); err != nil {
		return nil, err
	}
	sorted := ordered(main, params.Comparator)
	return sorted[len(sorted)-params.SelectionSize:], nil
}

// RandomSelector picks SelectionSize storages uniformly, without
// replacement when params.Dedup is set, with replacement otherwise.
type RandomSelector struct{}

func (RandomSelector) Select(pop *population.Population, params SelectionParams, gen *rng.Generator) ([]*population.Storage, error) {
	main := pop.Main().Items()
	if err := validateSize(len(main), params.SelectionSize); err != nil {
		return nil, err
	}
	out := make([]*population.Storage, params.SelectionSize)
	if params.Dedup {
		perm := gen.Perm(len(main))
		for i := 0; i < params.SelectionSize; i++ {
			out[i] = main[perm[i]]
		}
		return out, nil
	}
	for i := range out {
		out[i] = main[gen.Intn(len(main))]
	}
	return out, nil
}

// RouletteWheelSelector picks storages with probability proportional to
// scaled fitness (falling back to raw fitness if unscaled), with or
// without replacement per params.Dedup.
type RouletteWheelSelector struct{}

func weightOf(s *population.Storage) float64 {
	if v, ok := s.ScaledFitness(); ok && len(v) > 0 {
		return sumPositive(v)
	}
	if v, ok := s.RawFitness(); ok && len(v) > 0 {
		return sumPositive(v)
	}
	return 0
}

func sumPositive(v []float64) float64 {
	var sum float64
	for _, f := range v {
		if f > 0 {
			sum += f
		}
	}
	return sum
}

func (RouletteWheelSelector) Select(pop *population.Population, params SelectionParams, gen *rng.Generator) ([]*population.Storage, error) {
	main := pop.Main().Items()
	if err := validateSize(len(main), params.SelectionSize); err != nil {
		return nil, err
	}
	candidates := main
	out := make([]*population.Storage, 0, params.SelectionSize)
	for len(out) < params.SelectionSize {
		var total float64
		for _, s := range candidates {
			total += weightOf(s)
		}
		idx := spinWheel(candidates, total, gen)
		out = append(out, candidates[idx])
		if params.Dedup {
			candidates = append(candidates[:idx:idx], candidates[idx+1:]...)
			if len(candidates) == 0 {
				candidates = main
			}
		}
	}
	return out, nil
}

func spinWheel(candidates []*population.Storage, total float64, gen *rng.Generator) int {
	if total <= 0 {
		return gen.Intn(len(candidates))
	}
	target := gen.Float64() * total
	var acc float64
	for i, s := range candidates {
		acc += weightOf(s)
		if acc >= target {
			return i
		}
	}
	return len(candidates) - 1
}

// TournamentSelector fills each slot by drawing TournamentRounds candidates
// via Base and keeping the best under params.Comparator, tie-broken by
// slice position for determinism (spec §4.8: "tie-break by stable id").
type TournamentSelector struct {
	Base Selector
}

func (t TournamentSelector) Select(pop *population.Population, params SelectionParams, gen *rng.Generator) ([]*population.Storage, error) {
	base := t.Base
	if base == nil {
		base = RandomSelector{}
	}
	rounds := params.TournamentRounds
	if rounds < 2 {
		rounds = 2
	}
	out := make([]*population.Storage, params.SelectionSize)
	roundParams := params
	roundParams.SelectionSize = rounds
	for i := 0; i < params.SelectionSize; i++ {
		pool, err := base.Select(pop, roundParams, gen)
		if err != nil {
			return nil, err
		}
		best := pool[0]
		for _, c := range pool[1:] {
			if params.Comparator != nil && params.Comparator.Compare(c, best) > 0 {
				best = c
			}
		}
		out[i] = best
	}
	return out, nil
}

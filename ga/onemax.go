package ga

import (
	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/internal/rng"
)

// OneMaxConfig is the shared config block for OneMaxChromosome: every
// chromosome built against it has the same bit-string length.
type OneMaxConfig struct {
	Length int
}

// RepresentationName implements chromosome.ConfigBlock.
func (OneMaxConfig) RepresentationName() string { return "onemax" }

// OneMaxChromosome is a fixed-length bit string; its fitness is simply the
// number of set bits, the classic GA warm-up problem.
type OneMaxChromosome struct {
	Genes  []bool
	config *OneMaxConfig
}

// NewOneMaxChromosome creates a chromosome of cfg.Length random bits.
func NewOneMaxChromosome(cfg *OneMaxConfig, gen *rng.Generator) *OneMaxChromosome {
	genes := make([]bool, cfg.Length)
	for i := range genes {
		genes[i] = gen.Float64() < 0.5
	}
	return &OneMaxChromosome{Genes: genes, config: cfg}
}

// Clone implements chromosome.Chromosome.
func (c *OneMaxChromosome) Clone() chromosome.Chromosome {
	genes := make([]bool, len(c.Genes))
	copy(genes, c.Genes)
	return &OneMaxChromosome{Genes: genes, config: c.config}
}

// ConfigBlock implements chromosome.Chromosome.
func (c *OneMaxChromosome) ConfigBlock() chromosome.ConfigBlock { return c.config }

// MutationEvent implements chromosome.Chromosome; OneMax has no improving-only
// rollback state to track.
func (c *OneMaxChromosome) MutationEvent(chromosome.MutationEvent) {}

// OneMaxFitness counts set bits. It allows individual evaluation since each
// chromosome's fitness depends on nothing but itself.
func OneMaxFitness(c chromosome.Chromosome) []float64 {
	genes := c.(*OneMaxChromosome).Genes
	score := 0
	for _, g := range genes {
		if g {
			score++
		}
	}
	return []float64{float64(score)}
}

// OneMaxCrossover implements stage.CrossoverOperation with single-point
// crossover, producing two complementary offspring.
type OneMaxCrossover struct{}

// Cross splits both parents at a random point and swaps the tails.
func (OneMaxCrossover) Cross(a, b chromosome.Chromosome, gen *rng.Generator) []chromosome.Chromosome {
	pa := a.(*OneMaxChromosome)
	pb := b.(*OneMaxChromosome)
	n := len(pa.Genes)
	if n == 0 || len(pb.Genes) != n {
		return []chromosome.Chromosome{a.Clone(), b.Clone()}
	}

	point := gen.Intn(n)
	child1 := make([]bool, n)
	child2 := make([]bool, n)
	copy(child1[:point], pa.Genes[:point])
	copy(child1[point:], pb.Genes[point:])
	copy(child2[:point], pb.Genes[:point])
	copy(child2[point:], pa.Genes[point:])

	return []chromosome.Chromosome{
		&OneMaxChromosome{Genes: child1, config: pa.config},
		&OneMaxChromosome{Genes: child2, config: pa.config},
	}
}

// OneMaxMutation implements stage.MutationOperation by flipping one random
// bit in place.
type OneMaxMutation struct{}

// Mutate flips a single random gene.
func (OneMaxMutation) Mutate(c chromosome.Chromosome, gen *rng.Generator) {
	oc := c.(*OneMaxChromosome)
	if len(oc.Genes) == 0 {
		return
	}
	i := gen.Intn(len(oc.Genes))
	oc.Genes[i] = !oc.Genes[i]
}

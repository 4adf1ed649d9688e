package ga

import (
	"math"

	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/internal/rng"
)

// City represents a city in the TSP problem.
type City struct {
	Name string
	X    float64
	Y    float64
}

// TSPConfig is the shared config block for TSPChromosome: every route built
// against it visits the same fixed set of cities.
type TSPConfig struct {
	Cities []City
}

// RepresentationName implements chromosome.ConfigBlock.
func (TSPConfig) RepresentationName() string { return "tsp" }

// TSPChromosome is a permutation of cfg.Cities; its fitness rewards a short
// round trip.
type TSPChromosome struct {
	Route  []City
	config *TSPConfig
}

// NewTSPChromosome creates a chromosome visiting cfg.Cities in a random order.
func NewTSPChromosome(cfg *TSPConfig, gen *rng.Generator) *TSPChromosome {
	route := make([]City, len(cfg.Cities))
	copy(route, cfg.Cities)
	gen.Shuffle(len(route), func(i, j int) { route[i], route[j] = route[j], route[i] })
	return &TSPChromosome{Route: route, config: cfg}
}

// Clone implements chromosome.Chromosome.
func (c *TSPChromosome) Clone() chromosome.Chromosome {
	route := make([]City, len(c.Route))
	copy(route, c.Route)
	return &TSPChromosome{Route: route, config: c.config}
}

// ConfigBlock implements chromosome.Chromosome.
func (c *TSPChromosome) ConfigBlock() chromosome.ConfigBlock { return c.config }

// MutationEvent implements chromosome.Chromosome; TSP has no improving-only
// rollback state to track.
func (c *TSPChromosome) MutationEvent(chromosome.MutationEvent) {}

// TotalDistance returns the length of the round trip the route describes.
func (c *TSPChromosome) TotalDistance() float64 {
	if len(c.Route) < 2 {
		return 0
	}
	var total float64
	for i := 0; i < len(c.Route); i++ {
		total += distance(c.Route[i], c.Route[(i+1)%len(c.Route)])
	}
	return total
}

// TSPFitness rewards shorter routes: 1/distance, or 0 for a degenerate
// route. It allows individual evaluation since a route's fitness depends on
// nothing but itself.
func TSPFitness(c chromosome.Chromosome) []float64 {
	total := c.(*TSPChromosome).TotalDistance()
	if total == 0 {
		return []float64{0}
	}
	return []float64{1 / total}
}

func distance(a, b City) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// TSPCrossover implements stage.CrossoverOperation with Order Crossover
// (OX1), producing two offspring by swapping which parent donates the fixed
// segment.
type TSPCrossover struct{}

// Cross produces two OX1 offspring from a and b.
func (TSPCrossover) Cross(a, b chromosome.Chromosome, gen *rng.Generator) []chromosome.Chromosome {
	pa := a.(*TSPChromosome)
	pb := b.(*TSPChromosome)
	if len(pa.Route) != len(pb.Route) || len(pa.Route) < 2 {
		return []chromosome.Chromosome{a.Clone(), b.Clone()}
	}

	start := gen.Intn(len(pa.Route))
	end := gen.Intn(len(pa.Route))
	if start > end {
		start, end = end, start
	}

	child1 := orderCrossover(pa.Route, pb.Route, start, end)
	child2 := orderCrossover(pb.Route, pa.Route, start, end)

	return []chromosome.Chromosome{
		&TSPChromosome{Route: child1, config: pa.config},
		&TSPChromosome{Route: child2, config: pa.config},
	}
}

// orderCrossover copies donor's [start, end] segment verbatim, then fills
// the remaining positions with filler's cities in order, skipping any
// already copied.
func orderCrossover(donor, filler []City, start, end int) []City {
	n := len(donor)
	child := make([]City, n)
	inChild := make(map[string]bool, n)
	for i := start; i <= end; i++ {
		child[i] = donor[i]
		inChild[donor[i].Name] = true
	}

	childIndex := (end + 1) % n
	for i := 0; i < n; i++ {
		city := filler[(end+1+i)%n]
		if !inChild[city.Name] {
			child[childIndex] = city
			childIndex = (childIndex + 1) % n
		}
	}
	return child
}

// TSPMutation implements stage.MutationOperation by swapping two random
// cities in the route.
type TSPMutation struct{}

// Mutate swaps two distinct, randomly chosen cities in place.
func (TSPMutation) Mutate(c chromosome.Chromosome, gen *rng.Generator) {
	tc := c.(*TSPChromosome)
	if len(tc.Route) < 2 {
		return
	}
	i := gen.Intn(len(tc.Route))
	j := gen.Intn(len(tc.Route))
	for i == j {
		j = gen.Intn(len(tc.Route))
	}
	tc.Route[i], tc.Route[j] = tc.Route[j], tc.Route[i]
}

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aram/genflow/algorithm"
	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/ga"
	"github.com/aram/genflow/internal/rng"
	"github.com/aram/genflow/population"
	"github.com/aram/genflow/stage"
)

func newTSPCmd() *cobra.Command {
	var citiesPath, outPath string
	var mutationRate, crossoverRate float64
	var branches int

	cmd := &cobra.Command{
		Use:   "tsp",
		Short: "Evolve a short round trip over a set of cities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTSP(citiesPath, outPath, mutationRate, crossoverRate, branches)
		},
	}
	cmd.Flags().StringVar(&citiesPath, "cities", "examples/tsp.csv", "CSV file of name,x,y rows")
	cmd.Flags().StringVar(&outPath, "out", "tsp_route.svg", "SVG output path for the best route")
	cmd.Flags().Float64Var(&mutationRate, "mutation-rate", 0.05, "per-offspring mutation probability")
	cmd.Flags().Float64Var(&crossoverRate, "crossover-rate", 0.85, "crossover probability")
	cmd.Flags().IntVar(&branches, "branches", 4, "branch group concurrency")
	return cmd
}

func loadCities(path string) ([]ga.City, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv must contain a header and at least one city")
	}

	cities := make([]ga.City, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 3 {
			return nil, fmt.Errorf("row %d: expected name,x,y", i+2)
		}
		x, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad x: %w", i+2, err)
		}
		y, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad y: %w", i+2, err)
		}
		cities = append(cities, ga.City{Name: record[0], X: x, Y: y})
	}
	return cities, nil
}

func runTSP(citiesPath, outPath string, mutationRate, crossoverRate float64, branches int) error {
	cities, err := loadCities(citiesPath)
	if err != nil {
		return fmt.Errorf("tsp: %w", err)
	}
	if len(cities) < 2 {
		return fmt.Errorf("tsp: need at least 2 cities, got %d", len(cities))
	}

	gen := rng.NewSeeded(flagSeed)
	cfg := &ga.TSPConfig{Cities: cities}
	logger := newLogger()

	pop := population.New(population.Config{
		MainCapacity: flagPopulation,
		FitnessArity: 1,
		PoolMaxSize:  flagPopulation * 2,
		ConfigBlock:  cfg,
		Logger:       logger,
	})

	generator := population.GeneratorFunc(func() chromosome.Chromosome {
		return ga.NewTSPChromosome(cfg, gen)
	})

	stub := algorithm.NewSimpleGAStub(pop, generator, algorithm.WithLogger(logger))
	stub.SetSeed(flagSeed)
	stub.SetFitness(stage.IndividualFitness{Fn: ga.TSPFitness})
	stub.SetSelection(stage.TopNSelector{}, stage.SelectionParams{
		SelectionSize:         flagPopulation / 2,
		CrossoverBuffersTagID: -1,
		Comparator:            byRawFitnessDesc{},
	})
	stub.SetCoupling(stage.CouplingOperation{
		Indexer: stage.SimplePairIndexer{},
		Mating: stage.MatingConfiguration{
			Crossover:            ga.TSPCrossover{},
			CrossoverProbability: crossoverRate,
			Mutation:             ga.TSPMutation{},
			MutationProbability:  mutationRate,
		},
	})
	stub.SetReplacement(stage.WorstReplacement{}, stage.ReplacementParams{Comparator: byRawFitnessDesc{}})
	stub.SetSort(byRawFitnessDesc{})

	if err := stub.Connect(branches); err != nil {
		return fmt.Errorf("tsp: connect: %w", err)
	}
	defer stub.Disconnect()

	fmt.Printf("loaded %d cities, running genetic algorithm...\n", len(cities))

	ctx := context.Background()
	for i := 0; i < flagGenerations; i++ {
		if err := stub.Run(ctx); err != nil {
			return fmt.Errorf("tsp: generation %d: %w", i, err)
		}
		if i%20 == 0 || i == flagGenerations-1 {
			best := pop.Main().Items()[0].Chromosome().(*ga.TSPChromosome)
			fmt.Printf("generation %d: best distance = %.2f\n", pop.Generation(), best.TotalDistance())
		}
	}

	best := pop.Main().Items()[0].Chromosome().(*ga.TSPChromosome)
	if err := ga.VisualizeTSP(best.Route, outPath); err != nil {
		return fmt.Errorf("tsp: visualize: %w", err)
	}
	fmt.Printf("best route (distance %.2f) saved to %s\n", best.TotalDistance(), outPath)
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aram/genflow/algorithm"
	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/ga"
	"github.com/aram/genflow/internal/rng"
	"github.com/aram/genflow/population"
	"github.com/aram/genflow/stage"
)

func newOneMaxCmd() *cobra.Command {
	var length int
	var mutationRate, crossoverRate float64
	var branches int

	cmd := &cobra.Command{
		Use:   "onemax",
		Short: "Evolve a bit string toward all ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneMax(length, mutationRate, crossoverRate, branches)
		},
	}
	cmd.Flags().IntVar(&length, "length", 32, "bit string length")
	cmd.Flags().Float64Var(&mutationRate, "mutation-rate", 0.02, "per-offspring mutation probability")
	cmd.Flags().Float64Var(&crossoverRate, "crossover-rate", 0.8, "crossover probability")
	cmd.Flags().IntVar(&branches, "branches", 4, "branch group concurrency")
	return cmd
}

func runOneMax(length int, mutationRate, crossoverRate float64, branches int) error {
	gen := rng.NewSeeded(flagSeed)
	cfg := &ga.OneMaxConfig{Length: length}
	logger := newLogger()

	pop := population.New(population.Config{
		MainCapacity: flagPopulation,
		FitnessArity: 1,
		PoolMaxSize:  flagPopulation * 2,
		ConfigBlock:  cfg,
		Logger:       logger,
	})

	generator := population.GeneratorFunc(func() chromosome.Chromosome {
		return ga.NewOneMaxChromosome(cfg, gen)
	})

	stub := algorithm.NewSimpleGAStub(pop, generator, algorithm.WithLogger(logger))
	stub.SetSeed(flagSeed)
	stub.SetFitness(stage.IndividualFitness{Fn: ga.OneMaxFitness})
	stub.SetSelection(stage.TopNSelector{}, stage.SelectionParams{
		SelectionSize:         flagPopulation / 2,
		CrossoverBuffersTagID: -1,
		Comparator:            byRawFitnessDesc{},
	})
	stub.SetCoupling(stage.CouplingOperation{
		Indexer: stage.SimplePairIndexer{},
		Mating: stage.MatingConfiguration{
			Crossover:            ga.OneMaxCrossover{},
			CrossoverProbability: crossoverRate,
			Mutation:             ga.OneMaxMutation{},
			MutationProbability:  mutationRate,
		},
	})
	stub.SetReplacement(stage.WorstReplacement{}, stage.ReplacementParams{Comparator: byRawFitnessDesc{}})
	stub.SetSort(byRawFitnessDesc{})

	if err := stub.Connect(branches); err != nil {
		return fmt.Errorf("onemax: connect: %w", err)
	}
	defer stub.Disconnect()

	ctx := context.Background()
	for i := 0; i < flagGenerations; i++ {
		if err := stub.Run(ctx); err != nil {
			return fmt.Errorf("onemax: generation %d: %w", i, err)
		}
		if i%20 == 0 || i == flagGenerations-1 {
			best := pop.Main().Items()[0]
			fitness, _ := best.RawFitness()
			fmt.Printf("generation %d: best fitness = %v\n", pop.Generation(), fitness)
		}
	}
	return nil
}

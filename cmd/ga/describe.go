package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aram/genflow/algorithm"
	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/ga"
	"github.com/aram/genflow/internal/rng"
	"github.com/aram/genflow/population"
	"github.com/aram/genflow/stage"
)

func newDescribeCmd() *cobra.Command {
	var problem string
	var branches int
	var withCoupling bool

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the flow a stub wires for a given configuration, without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(problem, branches, withCoupling)
		},
	}
	cmd.Flags().StringVar(&problem, "problem", "onemax", "onemax or tsp")
	cmd.Flags().IntVar(&branches, "branches", 4, "branch group concurrency")
	cmd.Flags().BoolVar(&withCoupling, "coupling", true, "wire a coupling stage between selection and replacement")
	return cmd
}

func runDescribe(problem string, branches int, withCoupling bool) error {
	var pop *population.Population
	var generator population.Generator
	var fitness stage.FitnessOperation
	var crossover stage.CrossoverOperation
	var mutation stage.MutationOperation

	gen := rng.NewSeeded(1)

	switch problem {
	case "onemax":
		cfg := &ga.OneMaxConfig{Length: 16}
		pop = population.New(population.Config{MainCapacity: 10, FitnessArity: 1, ConfigBlock: cfg})
		generator = population.GeneratorFunc(func() chromosome.Chromosome { return ga.NewOneMaxChromosome(cfg, gen) })
		fitness = stage.IndividualFitness{Fn: ga.OneMaxFitness}
		crossover = ga.OneMaxCrossover{}
		mutation = ga.OneMaxMutation{}
	case "tsp":
		cfg := &ga.TSPConfig{Cities: []ga.City{{Name: "A"}, {Name: "B"}, {Name: "C"}}}
		pop = population.New(population.Config{MainCapacity: 10, FitnessArity: 1, ConfigBlock: cfg})
		generator = population.GeneratorFunc(func() chromosome.Chromosome { return ga.NewTSPChromosome(cfg, gen) })
		fitness = stage.IndividualFitness{Fn: ga.TSPFitness}
		crossover = ga.TSPCrossover{}
		mutation = ga.TSPMutation{}
	default:
		return fmt.Errorf("describe: unknown problem %q, want onemax or tsp", problem)
	}

	stub := algorithm.NewSimpleGAStub(pop, generator)
	stub.SetFitness(fitness)

	crossTagID := -1
	if !withCoupling {
		crossTagID = 0
	}
	stub.SetSelection(stage.TopNSelector{}, stage.SelectionParams{
		SelectionSize:         pop.Main().Capacity() / 2,
		CrossoverBuffersTagID: crossTagID,
		Comparator:            byRawFitnessDesc{},
	})
	if withCoupling {
		stub.SetCoupling(stage.CouplingOperation{
			Indexer: stage.SimplePairIndexer{},
			Mating:  stage.MatingConfiguration{Crossover: crossover, CrossoverProbability: 0.8, Mutation: mutation, MutationProbability: 0.05},
		})
		stub.SetReplacement(stage.WorstReplacement{}, stage.ReplacementParams{Comparator: byRawFitnessDesc{}})
	} else {
		stub.SetReplacement(stage.CrowdingReplacement{}, stage.ReplacementParams{})
	}
	stub.SetSort(byRawFitnessDesc{})

	if err := stub.Connect(branches); err != nil {
		return fmt.Errorf("describe: connect: %w", err)
	}
	defer stub.Disconnect()

	desc, err := stub.Describe()
	if err != nil {
		return fmt.Errorf("describe: %w", err)
	}
	fmt.Println(desc)
	return nil
}

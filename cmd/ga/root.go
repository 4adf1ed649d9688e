// Command ga runs worked genetic-algorithm examples (OneMax, TSP) through
// the engine's workflow scheduler and algorithm stub, and can print the flow
// a stub wires for a given configuration.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/population"
)

var (
	flagSeed        uint64
	flagGenerations int
	flagPopulation  int
	flagVerbose     bool
)

func newLogger() *zap.Logger {
	if !flagVerbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// byRawFitnessDesc orders storages by raw fitness[0] descending (best
// first), the comparator every example command shares for selection,
// replacement, and the post-generation sort.
type byRawFitnessDesc struct{}

func (byRawFitnessDesc) Compare(a, b *population.Storage) int {
	av, aOK := a.RawFitness()
	bv, bOK := b.RawFitness()
	switch {
	case !aOK && !bOK:
		return 0
	case !aOK:
		return -1
	case !bOK:
		return 1
	case av[0] > bv[0]:
		return 1
	case av[0] < bv[0]:
		return -1
	default:
		return 0
	}
}

func (byRawFitnessDesc) Clone() population.Criteria { return byRawFitnessDesc{} }

var _ chromosome.Comparator[*population.Storage] = byRawFitnessDesc{}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ga",
		Short: "Run genetic-algorithm example problems",
	}
	root.PersistentFlags().Uint64Var(&flagSeed, "seed", 1, "random seed")
	root.PersistentFlags().IntVar(&flagGenerations, "generations", 100, "number of generations to run")
	root.PersistentFlags().IntVar(&flagPopulation, "population", 100, "main group size")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "emit structured run logs")

	root.AddCommand(newOneMaxCmd())
	root.AddCommand(newTSPCmd())
	root.AddCommand(newDescribeCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

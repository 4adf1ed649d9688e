// Package ga provides concrete chromosome encodings, crossover and mutation
// operators for two illustrative problems — OneMax and the travelling
// salesman problem — wired through the core engine's chromosome.Chromosome,
// stage.CrossoverOperation, and stage.MutationOperation contracts. It exists
// to give cmd/ga something runnable to drive the engine with; it is not
// itself part of the engine.
package ga

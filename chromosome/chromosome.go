// Package chromosome declares the external contracts genflow's core depends
// on but never implements: the chromosome value itself, its config block,
// allele sets, fitness comparators and sort criteria (spec §3, §6). Concrete
// encodings (arrays, lists, trees, alleles) are explicitly out of scope for
// the core (spec §1) and live in consumer packages such as ga/.
package chromosome

// MutationEvent marks the phase of a mutation attempt so a Chromosome can
// implement improving-only mutation (spec §4.8, Mating).
type MutationEvent int

const (
	// MutationPrepare is sent before a mutation is applied.
	MutationPrepare MutationEvent = iota
	// MutationAccept is sent when the mutated chromosome is kept.
	MutationAccept
	// MutationReject is sent when the mutation is rolled back.
	MutationReject
)

// ConfigBlock carries representation-family invariants shared by every
// chromosome built from it (spec §3, CCB). It is reference-counted and
// shared; genflow never copies it, only holds a reference.
type ConfigBlock interface {
	// RepresentationName identifies the encoding family the block configures.
	RepresentationName() string
}

// Chromosome is an opaque candidate solution. Implementations own their
// representation entirely; genflow's core only ever clones, mutates, and
// reads the shared config block reference.
type Chromosome interface {
	// Clone creates an independent copy of the chromosome.
	Clone() Chromosome

	// ConfigBlock returns the shared, reference-counted configuration block
	// for this chromosome's representation family.
	ConfigBlock() ConfigBlock

	// MutationEvent is invoked by the mating operation around a mutation
	// attempt; see MutationEvent's constants.
	MutationEvent(event MutationEvent)
}

// AlleleSet is the contract for a set of admissible gene values of type V
// (spec §6). Concrete allele sets (range, enumerated, permutation, ...) are
// out of scope for the core.
type AlleleSet[V any] interface {
	// Generate produces a random admissible value.
	Generate() V

	// Inverse computes the "opposite" value in place and reports whether
	// the set supports inversion.
	Inverse(value *V) bool

	// Belongs reports whether value is admissible under this set.
	Belongs(value V) bool

	// Closest adjusts value in place to the nearest admissible value.
	Closest(value *V)

	// Count returns the number of admissible values, or a negative number
	// if the set is continuous/unbounded.
	Count() int64
}

// Comparator is a deterministic, reflexive fitness comparator (spec §6).
// Negative means a is worse than b, zero means equal under the relation,
// positive means a is better.
type Comparator[T any] interface {
	Compare(a, b T) int
}

// ComparatorFunc adapts a function to Comparator.
type ComparatorFunc[T any] func(a, b T) int

// Compare implements Comparator.
func (f ComparatorFunc[T]) Compare(a, b T) int { return f(a, b) }

// SortCriteria is a total pre-order over T (spec §4.6/§6), used to sort
// chromosome groups and populations. It is the dynamic (object, cloneable)
// flavor spec.md describes as an alternative to a static/template criteria.
type SortCriteria[T any] interface {
	Comparator[T]

	// Clone returns an independent copy of the criteria, preserving any
	// internal configuration (e.g. ascending/descending direction).
	Clone() SortCriteria[T]
}

// reverseCriteria flips the sign of an inner criteria, a common building
// block for "worst first" selection/replacement variants.
type reverseCriteria[T any] struct {
	inner SortCriteria[T]
}

// Reverse returns a SortCriteria that orders T the opposite way c does.
func Reverse[T any](c SortCriteria[T]) SortCriteria[T] {
	return &reverseCriteria[T]{inner: c}
}

func (r *reverseCriteria[T]) Compare(a, b T) int { return -r.inner.Compare(a, b) }

func (r *reverseCriteria[T]) Clone() SortCriteria[T] {
	return &reverseCriteria[T]{inner: r.inner.Clone()}
}

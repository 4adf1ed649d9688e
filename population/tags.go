package population

import (
	"fmt"

	"github.com/aram/genflow/gaerr"
)

// TagEvent names the structural events that trigger a tag's updater
// (spec §4.2).
type TagEvent int

const (
	// TagInserted fires each time a group's Add or AddSorted makes a storage
	// a member of that group.
	TagInserted TagEvent = iota
	// TagRemoved fires each time a storage is removed from a group.
	TagRemoved
	// TagRefitnessed fires after a storage's raw fitness is set.
	TagRefitnessed
)

// TagUpdater is invoked by the population on structural events for every
// tag in its schema.
type TagUpdater func(storage *Storage, event TagEvent)

type tagSpec struct {
	id      int
	def     any
	updater TagUpdater
}

// TagSchema maps tag ids to their default value and updater, applied to
// every storage a population creates (spec §4.4). Registration is
// idempotent for an identical (id, default type) pair and rejected with
// gaerr.ErrDuplicate otherwise.
type TagSchema struct {
	order []tagSpec
	index map[int]int
}

// NewTagSchema creates an empty tag schema.
func NewTagSchema() *TagSchema {
	return &TagSchema{index: make(map[int]int)}
}

// Register adds a tag to the schema. It must be called before the first
// storage is allocated through the owning population. Re-registering an id
// with a default of the same type replaces its default and updater (spec
// §4.4).
func (s *TagSchema) Register(id int, def any, updater TagUpdater) error {
	if i, ok := s.index[id]; ok {
		existing := s.order[i]
		if fmt.Sprintf("%T", existing.def) == fmt.Sprintf("%T", def) {
			s.order[i].def = def
			s.order[i].updater = updater
			return nil
		}
		return fmt.Errorf("population: register tag %d: %w", id, gaerr.ErrDuplicate)
	}
	s.index[id] = len(s.order)
	s.order = append(s.order, tagSpec{id: id, def: def, updater: updater})
	return nil
}

func (s *TagSchema) newTagValues() []any {
	vals := make([]any, len(s.order))
	for i, spec := range s.order {
		vals[i] = spec.def
	}
	return vals
}

func (s *TagSchema) notify(storage *Storage, event TagEvent) {
	for _, spec := range s.order {
		if spec.updater != nil {
			spec.updater(storage, event)
		}
	}
}

func (s *TagSchema) indexOf(id int) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

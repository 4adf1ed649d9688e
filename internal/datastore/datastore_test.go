package datastore

import (
	"errors"
	"testing"

	"github.com/aram/genflow/gaerr"
)

type counter struct{ n int }

func TestAddGetRemove(t *testing.T) {
	s := New()
	if err := s.Add(ScopeWorkflow, 1, &counter{n: 5}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	c, err := Get[counter](s, ScopeWorkflow, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.n != 5 {
		t.Fatalf("expected n=5, got %d", c.n)
	}

	if err := s.Remove(ScopeWorkflow, 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := Get[counter](s, ScopeWorkflow, 1); !errors.Is(err, gaerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestAddDuplicateFails(t *testing.T) {
	s := New()
	_ = s.Add(ScopeWorkflow, 1, &counter{}, nil)
	if err := s.Add(ScopeWorkflow, 1, &counter{}, nil); !errors.Is(err, gaerr.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetTypeMismatch(t *testing.T) {
	s := New()
	_ = s.Add(ScopeWorkflow, 1, &counter{}, nil)

	type other struct{ x int }
	if _, err := Get[other](s, ScopeWorkflow, 1); !errors.Is(err, gaerr.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestRemoveDeleterRuns(t *testing.T) {
	s := New()
	ran := false
	_ = s.Add(ScopeWorkflow, 1, &counter{}, func() { ran = true })
	_ = s.Remove(ScopeWorkflow, 1)
	if !ran {
		t.Fatalf("expected deleter to run")
	}
}

func TestCachedHandleInvalidatedByRemove(t *testing.T) {
	s := New()
	_ = s.Add(ScopeBranchGroup, 42, &counter{n: 1}, nil)

	h := NewCachedHandle[counter](s, ScopeBranchGroup, 42)
	c, err := h.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	c.n = 2

	_ = s.Remove(ScopeBranchGroup, 42)

	if _, err := h.Get(); !errors.Is(err, gaerr.ErrNotFound) {
		t.Fatalf("expected handle to re-resolve and fail with ErrNotFound, got %v", err)
	}
}

func TestCachedHandleReusesPointer(t *testing.T) {
	s := New()
	_ = s.Add(ScopeWorkflow, 7, &counter{n: 1}, nil)
	h := NewCachedHandle[counter](s, ScopeWorkflow, 7)

	first, _ := h.Get()
	second, _ := h.Get()
	if first != second {
		t.Fatalf("expected same pointer across cached Get calls")
	}
}

package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aram/genflow/gaerr"
	"github.com/aram/genflow/internal/datastore"
)

func TestSplitWorkDistributesRemainderToLowestIDs(t *testing.T) {
	total, branches := 10, 3
	var sum int
	for id := 0; id < branches; id++ {
		start, count := SplitWork(total, id, branches)
		sum += count
		if id == 0 {
			assert.Equal(t, 0, start)
		}
	}
	assert.Equal(t, total, sum)

	// 10 / 3 = 3 remainder 1: branch 0 gets 4, branches 1 and 2 get 3.
	_, c0 := SplitWork(total, 0, branches)
	_, c1 := SplitWork(total, 1, branches)
	_, c2 := SplitWork(total, 2, branches)
	assert.Equal(t, 4, c0)
	assert.Equal(t, 3, c1)
	assert.Equal(t, 3, c2)
}

func TestSplitWorkContiguousNonOverlapping(t *testing.T) {
	total, branches := 17, 4
	seen := make([]bool, total)
	for id := 0; id < branches; id++ {
		start, count := SplitWork(total, id, branches)
		for i := start; i < start+count; i++ {
			require.False(t, seen[i], "index %d double-assigned", i)
			seen[i] = true
		}
	}
	for i, s := range seen {
		assert.True(t, s, "index %d never assigned", i)
	}
}

func newGroup(t *testing.T, g *Graph, n int) *BranchGroup {
	t.Helper()
	bg, err := NewBranchGroup(g, n, datastore.New())
	require.NoError(t, err)
	return bg
}

func TestBranchGroupOperationNodeRunsOncePerBranch(t *testing.T) {
	g := NewGraph()
	var seen sync.Map
	op := g.AddOperation(func(br *Branch) error {
		seen.Store(br.ID(), true)
		return nil
	})
	g.SetStart(op)

	bg := newGroup(t, g, 4)
	require.NoError(t, bg.Run(context.Background()))

	for i := 0; i < 4; i++ {
		_, ok := seen.Load(i)
		assert.True(t, ok, "branch %d never ran", i)
	}
}

func TestBranchGroupSequentialNodeRunsExactlyOnce(t *testing.T) {
	g := NewGraph()
	var count atomic.Int32
	seq := g.AddSequential(func(*Branch) error { count.Add(1); return nil })
	g.SetStart(seq)

	bg := newGroup(t, g, 8)
	require.NoError(t, bg.Run(context.Background()))

	assert.Equal(t, int32(1), count.Load())
}

func TestBranchGroupDecisionRoutesAllBranchesTogether(t *testing.T) {
	g := NewGraph()
	dec := g.AddDecision(func(*Branch) (bool, error) { return true, nil })
	var trueCount, falseCount atomic.Int32
	trueNode := g.AddOperation(func(*Branch) error { trueCount.Add(1); return nil })
	falseNode := g.AddOperation(func(*Branch) error { falseCount.Add(1); return nil })
	require.NoError(t, g.ConnectDecision(dec, trueNode, falseNode, nil, nil))
	g.SetStart(dec)

	bg := newGroup(t, g, 5)
	require.NoError(t, bg.Run(context.Background()))

	assert.Equal(t, int32(5), trueCount.Load())
	assert.Equal(t, int32(0), falseCount.Load())
}

func TestBranchGroupOperationErrorAbortsWithoutDeadlock(t *testing.T) {
	g := NewGraph()
	wantErr := errors.New("boom")
	op := g.AddOperation(func(br *Branch) error {
		if br.ID() == 2 {
			return wantErr
		}
		return nil
	})
	nop := g.AddNop()
	require.NoError(t, g.Connect(op, nop, nil))
	g.SetStart(op)

	bg := newGroup(t, g, 6)

	done := make(chan error, 1)
	go func() { done <- bg.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, wantErr)
	case <-time.After(5 * time.Second):
		t.Fatal("Run deadlocked after an Operation node error")
	}
}

func TestBranchGroupSequentialErrorPropagatesToAllBranches(t *testing.T) {
	g := NewGraph()
	wantErr := errors.New("sequential failure")
	seq := g.AddSequential(func(*Branch) error { return wantErr })
	nop := g.AddNop()
	require.NoError(t, g.Connect(seq, nop, nil))
	g.SetStart(seq)

	bg := newGroup(t, g, 4)
	err := bg.Run(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestBranchGroupStopCancelsRunningBranches(t *testing.T) {
	g := NewGraph()
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	op := g.AddOperation(func(br *Branch) error {
		started <- struct{}{}
		<-release
		return nil
	})
	nop := g.AddNop()
	require.NoError(t, g.Connect(op, nop, nil))
	g.SetStart(op)

	bg := newGroup(t, g, 4)
	done := make(chan error, 1)
	go func() { done <- bg.Run(context.Background()) }()

	for i := 0; i < 4; i++ {
		<-started
	}
	bg.Stop()
	close(release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, gaerr.ErrCancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not observe Stop")
	}
}

func TestBranchGroupReusableAcrossGenerations(t *testing.T) {
	g := NewGraph()
	var generations atomic.Int32
	seq := g.AddSequential(func(*Branch) error { generations.Add(1); return nil })
	g.SetStart(seq)

	bg := newGroup(t, g, 3)
	for i := 0; i < 5; i++ {
		require.NoError(t, bg.Run(context.Background()))
	}
	assert.Equal(t, int32(5), generations.Load())
}

func TestBranchGroupChainedOperationNodesSynchronizeAtBarrier(t *testing.T) {
	const n = 6
	g := NewGraph()
	written := make([]int, n)
	write := g.AddOperation(func(br *Branch) error {
		written[br.ID()] = br.ID() + 1
		return nil
	})
	var sum atomic.Int64
	read := g.AddOperation(func(br *Branch) error {
		// Every write above must happen-before every read here (spec §4.7's
		// step-to-step ordering guarantee), including writes made by other
		// branches, so every slot is populated by the time any branch reads.
		sum.Add(int64(written[(br.ID()+1)%n]))
		return nil
	})
	require.NoError(t, g.Connect(write, read, nil))
	g.SetStart(write)

	bg := newGroup(t, g, n)
	require.NoError(t, bg.Run(context.Background()))

	want := int64(0)
	for i := 1; i <= n; i++ {
		want += int64(i)
	}
	assert.Equal(t, want, sum.Load())
}

func TestNewBranchGroupRejectsInvalidArgs(t *testing.T) {
	g := NewGraph()
	_, err := NewBranchGroup(g, 0, datastore.New())
	assert.ErrorIs(t, err, gaerr.ErrArgumentOutOfRange)

	_, err = NewBranchGroup(nil, 2, datastore.New())
	assert.ErrorIs(t, err, gaerr.ErrNullArgument)
}

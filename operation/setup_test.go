package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intParams struct{ n int }

func (p *intParams) Clone() Parameters { return &intParams{n: p.n} }

type strConfig struct{ s string }

func (c *strConfig) Clone() Configuration { return &strConfig{s: c.s} }

type recordingOp struct {
	log *[]string
}

func (o recordingOp) Prepare(branchCount int, params Parameters, config Configuration) {
	*o.log = append(*o.log, "prepare")
}
func (o recordingOp) Clear(params Parameters, config Configuration) {
	*o.log = append(*o.log, "clear")
}
func (o recordingOp) Update(params Parameters, config Configuration) {
	*o.log = append(*o.log, "update")
}

func TestSetupCloneDeepCopiesParamsAndConfigSharesOp(t *testing.T) {
	op := func() int { return 42 }
	s := New(op, &intParams{n: 1}, &strConfig{s: "a"})

	clone := s.Clone()

	// mutate the original's params/config in place; the clone must be
	// unaffected since Clone deep-copies them.
	s.Params.(*intParams).n = 99
	assert.Equal(t, 1, clone.Params.(*intParams).n)

	s.Config.(*strConfig).s = "mutated"
	assert.Equal(t, "a", clone.Config.(*strConfig).s)

	assert.NotNil(t, clone.Op)
}

func TestSetupLifecycleDispatchIsNoOpWithoutImplementation(t *testing.T) {
	s := New(func() int { return 1 }, nil, nil)
	require.NotPanics(t, func() {
		s.Prepare(4)
		s.ClearOp()
		s.UpdateOp()
	})
}

func TestSetupLifecycleDispatchCallsOperationHooks(t *testing.T) {
	var log []string
	s := New(recordingOp{log: &log}, &intParams{n: 1}, &strConfig{s: "a"})

	s.Prepare(3)
	s.UpdateOp()
	s.ClearOp()

	assert.Equal(t, []string{"prepare", "update", "clear"}, log)
}

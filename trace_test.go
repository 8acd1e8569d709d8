package fusion

import (
	"bytes"
	"flag"
	"testing"

	"github.com/gomlx/fusion/axes"
	"github.com/gomlx/fusion/ir"
	"github.com/gomlx/fusion/pattern"
	"github.com/gomlx/fusion/shapeanalysis"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

// captureTraces runs fn with klog verbosity set to v and returns what was logged.
func captureTraces(t *testing.T, v string, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, flag.Set("logtostderr", "false"))
	require.NoError(t, flag.Set("alsologtostderr", "false"))
	require.NoError(t, flag.Set("v", v))
	klog.SetOutput(&buf)
	defer func() {
		klog.Flush()
		require.NoError(t, flag.Set("v", "0"))
		require.NoError(t, flag.Set("logtostderr", "true"))
	}()
	fn()
	klog.Flush()
	return buf.String()
}

func TestDimensionTraces(t *testing.T) {
	fn := ir.NewFunction("main")
	x := fn.NamedInput("x", dyn("N", 8))
	r := must.M1(ir.ReduceSum(x, 1))
	require.NoError(t, fn.Return(r))
	analysis := shapeanalysis.New()
	sig := axes.Signature{
		Inputs:  []axes.Info{axes.MakeInfo("i", "j")},
		Outputs: []axes.Info{axes.MakeInfo("i")},
	}
	run := func() {
		reduceDims, nonReduceDims, err := SplitReduceDims(sig, r.Producer())
		require.NoError(t, err)
		SplitFirstIfRelatedBySecond(analysis, GetValueUsage(x, 0), nonReduceDims)
		ElementwiseEqual(analysis, reduceDims, reduceDims)
	}

	traces := captureTraces(t, "4", run)
	assert.Contains(t, traces, "SplitReduceDims(ReduceSum): reduce dims [%x[1]@0], non-reduce dims [%x[0]@0]")
	assert.Contains(t, traces, "SplitFirstIfRelatedBySecond: related dims [%x[0]@0=N], non-related dims [%x[1]@0=8]")
	assert.Contains(t, traces, "ElementwiseEqual: dim %x[1]@0 has size 8")

	assert.Empty(t, captureTraces(t, "0", run))
}

func TestPolicyTraceLevel(t *testing.T) {
	fn := ir.NewFunction("main")
	x := fn.NamedInput("x", dyn("M", "N"))
	r := must.M1(ir.ReduceSum(x, 1))
	e := must.M1(ir.Exp(r))
	require.NoError(t, fn.Return(e))
	policy, _ := newPolicy(t, fn)
	upstream := pattern.NewNode(reduceTree(r))
	downstream := trivial(e)

	// The policy level also governs the dimension helpers it calls.
	traces := captureTraces(t, "0", func() {
		_, err := policy.WithTraceLevel(0).CanFuse(upstream, downstream)
		require.NoError(t, err)
	})
	assert.Contains(t, traces, "SplitReduceDims(ReduceSum)")
	assert.Contains(t, traces, "SplitFirstIfRelatedBySecond:")
	assert.Contains(t, traces, "ReducePlusTrivialCanMerge: true")

	traces = captureTraces(t, "0", func() {
		_, err := policy.WithTraceLevel(DefaultTraceLevel).CanFuse(upstream, downstream)
		require.NoError(t, err)
	})
	assert.Empty(t, traces)
}

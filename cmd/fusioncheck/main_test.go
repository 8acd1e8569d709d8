package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testdata = filepath.Join("..", "..", "internal", "scenario", "testdata")

func TestRun(t *testing.T) {
	for _, memoize := range []bool{false, true} {
		var sb strings.Builder
		failures, err := run(filepath.Join(testdata, "tree_growth.yaml"), memoize, &sb)
		require.NoError(t, err)
		assert.Zero(t, failures)
		assert.Equal(t, "up -> same_axis: false\nup -> other_axis: true\n", sb.String())
	}
}

func TestRun_Failures(t *testing.T) {
	var sb strings.Builder
	failures, err := run(filepath.Join(testdata, "invariant.yaml"), false, &sb)
	require.NoError(t, err)
	assert.Equal(t, 1, failures)
	assert.Contains(t, sb.String(), "fusion invariant violation")

	_, err = run(filepath.Join(testdata, "missing.yaml"), false, &sb)
	require.Error(t, err)
}

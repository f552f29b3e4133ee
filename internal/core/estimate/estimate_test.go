package estimate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkloom/loom/internal/core/model"
)

func TestForRequest_LayerArithmetic(t *testing.T) {
	table := model.DepthTable{
		1: {MaxNodesPerLayer: 10, BatchSize: 5, ResultLimit: 100},
		2: {MaxNodesPerLayer: 4, BatchSize: 2, ResultLimit: 100},
		3: {MaxNodesPerLayer: 4, BatchSize: 2, ResultLimit: 100},
	}

	est := ForRequest(model.GraphRequest{IDs: []string{"Q1", "Q2"}, Depth: 2}, table, 500*time.Millisecond)

	require.Len(t, est.PerDepth, 2)

	// Layer 1: 2 seeds, one batch of 5.
	assert.Equal(t, 2, est.PerDepth[0].Nodes)
	assert.Equal(t, 1, est.PerDepth[0].Batches)

	// Layer 2: 2*8 candidates capped at 4, two batches of 2.
	assert.Equal(t, 4, est.PerDepth[1].Nodes)
	assert.Equal(t, 2, est.PerDepth[1].Batches)

	assert.InDelta(t, 2.2+4.2, est.TotalSeconds, 0.001)
	assert.NotEmpty(t, est.Note)
}

func TestForRequest_DeeperCostsMore(t *testing.T) {
	table := model.DefaultDepthTable()

	shallow := ForRequest(model.GraphRequest{IDs: []string{"Q1"}, Depth: 1}, table, 500*time.Millisecond)
	deep := ForRequest(model.GraphRequest{IDs: []string{"Q1"}, Depth: 4}, table, 500*time.Millisecond)

	assert.Greater(t, deep.TotalSeconds, shallow.TotalSeconds)
}

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{5, "5s"},
		{59, "59s"},
		{60, "1m 0s"},
		{125, "2m 5s"},
		{3599, "59m 59s"},
		{3600, "1h 0m"},
		{7265, "2h 1m"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatSeconds(tc.in), "input %v", tc.in)
	}
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepthTable_CoversAllLevels(t *testing.T) {
	table := DefaultDepthTable()
	for d := 1; d <= 10; d++ {
		lvl := table.Level(d)
		assert.Positive(t, lvl.MaxNodesPerLayer, "depth %d", d)
		assert.Positive(t, lvl.BatchSize, "depth %d", d)
		assert.Positive(t, lvl.ResultLimit, "depth %d", d)
	}
}

func TestDepthTable_LimitsShrinkWithDepth(t *testing.T) {
	table := DefaultDepthTable()
	for d := 2; d <= 10; d++ {
		assert.LessOrEqual(t, table.Level(d).MaxNodesPerLayer, table.Level(d-1).MaxNodesPerLayer)
	}
}

func TestDepthTable_FallbackBeyondTable(t *testing.T) {
	table := DefaultDepthTable()
	assert.Equal(t, table.Level(3), table.Level(42))
}

func TestDepthTable_PartialEntryFillsFromFallback(t *testing.T) {
	table := DefaultDepthTable()
	table[2] = DepthLevel{MaxNodesPerLayer: 5}

	lvl := table.Level(2)
	assert.Equal(t, 5, lvl.MaxNodesPerLayer)
	assert.Equal(t, table.Level(3).BatchSize, lvl.BatchSize)
	assert.Equal(t, table.Level(3).ResultLimit, lvl.ResultLimit)
}

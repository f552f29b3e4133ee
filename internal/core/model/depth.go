package model

// DepthLevel bounds one layer of expansion. Limits shrink with distance
// from the seeds to keep the frontier from blowing up exponentially.
type DepthLevel struct {
	MaxNodesPerLayer int `json:"max_nodes_per_layer" toml:"max_nodes_per_layer"`
	BatchSize        int `json:"batch_size" toml:"batch_size"`
	ResultLimit      int `json:"result_limit" toml:"result_limit"`
}

// fallbackLevel is used when a requested depth exceeds the table.
const fallbackLevel = 3

// DepthTable is the per-level crawl configuration, indexed by depth
// level 1..10.
type DepthTable map[int]DepthLevel

// DefaultDepthTable returns the built-in per-depth limits.
func DefaultDepthTable() DepthTable {
	return DepthTable{
		1:  {MaxNodesPerLayer: 100, BatchSize: 25, ResultLimit: 500},
		2:  {MaxNodesPerLayer: 60, BatchSize: 20, ResultLimit: 400},
		3:  {MaxNodesPerLayer: 40, BatchSize: 15, ResultLimit: 300},
		4:  {MaxNodesPerLayer: 25, BatchSize: 12, ResultLimit: 250},
		5:  {MaxNodesPerLayer: 20, BatchSize: 10, ResultLimit: 200},
		6:  {MaxNodesPerLayer: 15, BatchSize: 10, ResultLimit: 150},
		7:  {MaxNodesPerLayer: 12, BatchSize: 8, ResultLimit: 120},
		8:  {MaxNodesPerLayer: 10, BatchSize: 8, ResultLimit: 100},
		9:  {MaxNodesPerLayer: 8, BatchSize: 6, ResultLimit: 80},
		10: {MaxNodesPerLayer: 6, BatchSize: 6, ResultLimit: 60},
	}
}

// Level returns the configuration for depth d, falling back to level 3
// when d has no entry. Unset fields of a partial entry also take the
// fallback level's values, so a configured override can never zero out
// a limit.
func (t DepthTable) Level(d int) DepthLevel {
	fb := t[fallbackLevel]
	lvl, ok := t[d]
	if !ok {
		return fb
	}
	if lvl.MaxNodesPerLayer <= 0 {
		lvl.MaxNodesPerLayer = fb.MaxNodesPerLayer
	}
	if lvl.BatchSize <= 0 {
		lvl.BatchSize = fb.BatchSize
	}
	if lvl.ResultLimit <= 0 {
		lvl.ResultLimit = fb.ResultLimit
	}
	return lvl
}

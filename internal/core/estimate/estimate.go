// Package estimate predicts the wall-clock cost of a prospective crawl
// from the static depth configuration, without any network access. The
// numbers feed user feedback only.
package estimate

import (
	"fmt"
	"time"

	"github.com/linkloom/loom/internal/core/model"
)

const (
	// avgQueryTime is the assumed round-trip of one batched query.
	avgQueryTime = 1500 * time.Millisecond

	// avgProcessingTime is the assumed per-layer assembly overhead.
	avgProcessingTime = 200 * time.Millisecond

	// estimatedFanout is the assumed number of new candidates each
	// expanded node contributes to the next layer.
	estimatedFanout = 8
)

// PerDepth is the estimated cost of a single layer.
type PerDepth struct {
	Depth   int     `json:"depth"`
	Nodes   int     `json:"nodes"`
	Batches int     `json:"batches"`
	Seconds float64 `json:"seconds"`
}

// Estimate is the full prediction for a request.
type Estimate struct {
	TotalSeconds  float64    `json:"total_seconds"`
	FormattedTime string     `json:"formatted_time"`
	PerDepth      []PerDepth `json:"per_depth"`
	Note          string     `json:"note"`
}

// ForRequest simulates the builder's layer-size arithmetic for the
// request and sums a per-layer time estimate.
func ForRequest(req model.GraphRequest, table model.DepthTable, batchDelay time.Duration) Estimate {
	seeds := len(req.Names) + len(req.IDs)
	if seeds == 0 {
		seeds = 1
	}

	est := Estimate{
		Note: "estimate assumes an uncached crawl; cached layers complete much faster",
	}

	frontier := seeds
	for d := 1; d <= req.Depth; d++ {
		level := table.Level(d)

		nodes := frontier
		if nodes > level.MaxNodesPerLayer {
			nodes = level.MaxNodesPerLayer
		}
		batches := (nodes + level.BatchSize - 1) / level.BatchSize

		layer := time.Duration(batches)*(avgQueryTime+batchDelay) + avgProcessingTime
		est.PerDepth = append(est.PerDepth, PerDepth{
			Depth:   d,
			Nodes:   nodes,
			Batches: batches,
			Seconds: layer.Seconds(),
		})
		est.TotalSeconds += layer.Seconds()

		frontier = nodes * estimatedFanout
	}

	est.FormattedTime = FormatSeconds(est.TotalSeconds)
	return est
}

// FormatSeconds renders a duration as seconds, minutes+seconds, or
// hours+minutes depending on magnitude.
func FormatSeconds(total float64) string {
	secs := int(total + 0.5)
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm %ds", secs/60, secs%60)
	default:
		return fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60)
	}
}

// Package consolidate merges parallel edges between the same node pair
// into single display edges.
package consolidate

import (
	"strings"

	"github.com/linkloom/loom/internal/core/model"
)

// Edge is a display edge carrying the accumulated labels of every
// original edge between the same ordered node pair.
type Edge struct {
	ID       string             `json:"id"`
	From     string             `json:"from"`
	To       string             `json:"to"`
	Label    string             `json:"label"`
	Category model.EdgeCategory `json:"category"`
	Labels   []string           `json:"labels"`
	Count    int                `json:"count"`
}

// Consolidate groups edges by their ordered (from, to) pair. Direction
// matters: a reverse edge between the same two nodes is a separate
// group. Insertion order of labels is preserved; a group of one keeps
// the original edge's fields unchanged.
func Consolidate(edges []model.Edge) []Edge {
	index := make(map[string]int)
	var out []Edge

	for _, e := range edges {
		key := e.From + "\x00" + e.To
		if i, ok := index[key]; ok {
			out[i].Labels = append(out[i].Labels, e.Label)
			out[i].Count++
			out[i].Label = strings.Join(out[i].Labels, ", ")
			continue
		}
		index[key] = len(out)
		out = append(out, Edge{
			ID:       e.ID,
			From:     e.From,
			To:       e.To,
			Label:    e.Label,
			Category: e.Category,
			Labels:   []string{e.Label},
			Count:    1,
		})
	}

	return out
}

// ShouldHide reports whether an edge should be hidden: true iff either
// endpoint has an explicit false visibility entry. Absent entries
// default to visible.
func ShouldHide(e model.Edge, visibility map[string]bool) bool {
	if v, ok := visibility[e.From]; ok && !v {
		return true
	}
	if v, ok := visibility[e.To]; ok && !v {
		return true
	}
	return false
}

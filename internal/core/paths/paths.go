// Package paths computes shortest paths on the built graph, used to
// highlight connections between seed entities.
package paths

import (
	"github.com/linkloom/loom/internal/core/model"
)

// Path is an ordered walk from one node to another: the node ids visited
// and the edge ids traversed between them.
type Path struct {
	NodeIDs []string `json:"node_ids"`
	EdgeIDs []string `json:"edge_ids"`
}

type neighbor struct {
	node   string
	edgeID string
}

// parentLink records how a node was first reached during the search.
type parentLink struct {
	node   string
	edgeID string
}

// ShortestPath finds an unweighted shortest path between start and end,
// treating every edge as undirected. Returns nil if either endpoint is
// unknown to the edge list or no path exists.
func ShortestPath(edges []model.Edge, startID, endID string) *Path {
	if startID == endID {
		return &Path{NodeIDs: []string{startID}, EdgeIDs: []string{}}
	}

	adj := make(map[string][]neighbor)
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], neighbor{node: e.To, edgeID: e.ID})
		adj[e.To] = append(adj[e.To], neighbor{node: e.From, edgeID: e.ID})
	}

	if _, ok := adj[startID]; !ok {
		return nil
	}
	if _, ok := adj[endID]; !ok {
		return nil
	}

	parents := map[string]parentLink{startID: {}}
	queue := []string{startID}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, nb := range adj[u] {
			if _, visited := parents[nb.node]; visited {
				continue
			}
			parents[nb.node] = parentLink{node: u, edgeID: nb.edgeID}
			if nb.node == endID {
				return reconstruct(parents, startID, endID)
			}
			queue = append(queue, nb.node)
		}
	}

	return nil
}

func reconstruct(parents map[string]parentLink, startID, endID string) *Path {
	nodeIDs := []string{endID}
	edgeIDs := []string{}

	cur := endID
	for cur != startID {
		p := parents[cur]
		edgeIDs = append(edgeIDs, p.edgeID)
		nodeIDs = append(nodeIDs, p.node)
		cur = p.node
	}

	// Walked back-to-front; reverse in place.
	for i, j := 0, len(nodeIDs)-1; i < j; i, j = i+1, j-1 {
		nodeIDs[i], nodeIDs[j] = nodeIDs[j], nodeIDs[i]
	}
	for i, j := 0, len(edgeIDs)-1; i < j; i, j = i+1, j-1 {
		edgeIDs[i], edgeIDs[j] = edgeIDs[j], edgeIDs[i]
	}

	return &Path{NodeIDs: nodeIDs, EdgeIDs: edgeIDs}
}

// AllPairs runs ShortestPath over every unordered pair among ids and
// collects the connected results. Disconnected pairs produce no entry.
func AllPairs(edges []model.Edge, ids []string) []Path {
	var out []Path
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if p := ShortestPath(edges, ids[i], ids[j]); p != nil {
				out = append(out, *p)
			}
		}
	}
	return out
}

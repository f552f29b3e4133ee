// Package core contains the graph construction engine: layered
// breadth-first expansion from seed entities with per-depth limits,
// sequential rate-limited batches, and node/edge deduplication.
package core

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/linkloom/loom/internal/core/classify"
	"github.com/linkloom/loom/internal/core/model"
	"github.com/linkloom/loom/internal/sanitize"
)

// DefaultBatchDelay is the hard sequential wait between consecutive
// batch dispatches within a layer, respecting the source's fair-use
// rate limits. It is the sole rate-limiting control; batches are never
// concurrent.
const DefaultBatchDelay = 500 * time.Millisecond

// ConnectionSource resolves names and fetches relationship triples.
// Implementations absorb their own failures: FetchBatch returns fewer
// connections rather than an error.
type ConnectionSource interface {
	ResolveID(ctx context.Context, name string) (string, bool)
	FetchBatch(ctx context.Context, ids []string, resultLimit int) []model.Connection
}

// ProgressFunc receives human-readable phase descriptions. It is a UI
// side channel only; no control flow depends on it.
type ProgressFunc func(message string)

// BuilderConfig tunes the crawl. Zero values fall back to defaults.
type BuilderConfig struct {
	DepthTable model.DepthTable
	BatchDelay time.Duration
	Rand       *rand.Rand
}

// Builder performs the layered BFS crawl.
type Builder struct {
	source ConnectionSource
	depths model.DepthTable
	delay  time.Duration
	rng    *rand.Rand
	logger *zap.Logger
}

func NewBuilder(source ConnectionSource, cfg BuilderConfig, logger *zap.Logger) *Builder {
	if cfg.DepthTable == nil {
		cfg.DepthTable = model.DefaultDepthTable()
	}
	if cfg.BatchDelay == 0 {
		cfg.BatchDelay = DefaultBatchDelay
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Builder{
		source: source,
		depths: cfg.DepthTable,
		delay:  cfg.BatchDelay,
		rng:    cfg.Rand,
		logger: logger,
	}
}

// Build crawls outward from the request's seed entities and returns the
// assembled graph. Individual resolution and fetch failures degrade the
// result; only an unusable seed set is fatal.
func (b *Builder) Build(ctx context.Context, req model.GraphRequest, progress ProgressFunc) (*model.GraphResult, error) {
	if progress == nil {
		progress = func(string) {}
	}

	depth, err := sanitize.Depth(req.Depth)
	if err != nil {
		return nil, err
	}

	var names, ids []string
	if len(req.Names) > 0 {
		names, err = sanitize.EntityList(req.Names, sanitize.MaxEntities)
		if err != nil {
			return nil, err
		}
	}
	if len(req.IDs) > 0 {
		raw, err := sanitize.EntityList(req.IDs, sanitize.MaxEntities)
		if err != nil {
			return nil, err
		}
		for _, r := range raw {
			id, err := sanitize.ID(r)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	if len(names) == 0 && len(ids) == 0 {
		return nil, model.Validationf("at least one entity name or identifier is required")
	}

	g := newGraphState()

	// Identifiers become placeholder seed nodes immediately; the first
	// layer's fetch will not relabel them, so the id doubles as label.
	for _, id := range ids {
		g.addSeed(id, id)
	}

	for _, name := range names {
		progress(fmt.Sprintf("Resolving %q...", name))
		id, ok := b.source.ResolveID(ctx, name)
		if !ok {
			b.logger.Warn("skipping unresolvable seed", zap.String("name", name))
			continue
		}
		g.addSeed(id, name)
	}

	if len(g.order) == 0 {
		return nil, &model.ResolutionError{Msg: "none of the provided names resolved to an entity"}
	}

	currentLayer := append([]string(nil), g.order...)
	processed := make(map[string]bool)

	for d := 1; d <= depth && len(currentLayer) > 0; d++ {
		level := b.depths.Level(d)

		frontier := currentLayer[:0]
		for _, id := range currentLayer {
			if !processed[id] {
				frontier = append(frontier, id)
			}
		}
		if len(frontier) == 0 {
			break
		}

		// Oversized layers are truncated by random sample, not first-N,
		// so systematic truncation never always discards the same class
		// of nodes.
		if len(frontier) > level.MaxNodesPerLayer {
			b.rng.Shuffle(len(frontier), func(i, j int) {
				frontier[i], frontier[j] = frontier[j], frontier[i]
			})
			frontier = frontier[:level.MaxNodesPerLayer]
		}

		progress(fmt.Sprintf("Processing depth %d/%d — %d nodes", d, depth, len(frontier)))
		b.logger.Info("expanding layer",
			zap.Int("depth", d),
			zap.Int("frontier", len(frontier)),
			zap.Int("batch_size", level.BatchSize))

		var nextLayer []string
		for start := 0; start < len(frontier); start += level.BatchSize {
			if start > 0 {
				if !b.waitBetweenBatches(ctx) {
					b.logger.Warn("crawl cancelled mid-layer", zap.Int("depth", d))
					return g.result(), nil
				}
			}

			end := start + level.BatchSize
			if end > len(frontier) {
				end = len(frontier)
			}
			batch := frontier[start:end]

			for _, conn := range b.source.FetchBatch(ctx, batch, level.ResultLimit) {
				if created := g.addConnection(conn); created {
					nextLayer = append(nextLayer, conn.TargetID)
				}
			}
		}

		// Every selected identifier counts as processed whether or not
		// it yielded connections; a node reached via multiple paths is
		// expanded once.
		for _, id := range frontier {
			processed[id] = true
		}

		currentLayer = nextLayer
	}

	res := g.result()
	progress(fmt.Sprintf("Done — %d nodes, %d edges", len(res.Nodes), len(res.Edges)))
	return res, nil
}

// waitBetweenBatches sleeps for the inter-batch delay. Returns false if
// the context was cancelled while waiting.
func (b *Builder) waitBetweenBatches(ctx context.Context) bool {
	if b.delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(b.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// graphState accumulates nodes and edges during one Build invocation.
// Node identity is the id: later discoveries update display fields but
// never create a second node.
type graphState struct {
	nodes map[string]*model.Node
	order []string
	edges []model.Edge
	seen  map[string]bool
}

func newGraphState() *graphState {
	return &graphState{
		nodes: make(map[string]*model.Node),
		seen:  make(map[string]bool),
	}
}

func (g *graphState) addSeed(id, label string) {
	if n, ok := g.nodes[id]; ok {
		// Identifier-seeded placeholder gains the resolved name.
		n.Label = label
		n.IsSeed = true
		return
	}
	g.nodes[id] = &model.Node{
		ID:     id,
		Label:  label,
		Group:  model.GroupConcept,
		Size:   model.NodeSize(model.GroupConcept),
		IsSeed: true,
	}
	g.order = append(g.order, id)
}

// addConnection folds a raw connection into the graph. Returns true if
// the target node was newly created, making it a next-layer candidate.
func (g *graphState) addConnection(conn model.Connection) bool {
	created := false
	if _, ok := g.nodes[conn.TargetID]; !ok {
		group := conn.Group
		if group == "" {
			group = model.GroupConcept
		}
		g.nodes[conn.TargetID] = &model.Node{
			ID:    conn.TargetID,
			Label: conn.TargetLabel,
			Group: group,
			Size:  model.NodeSize(group),
			Image: conn.Image,
		}
		g.order = append(g.order, conn.TargetID)
		created = true
	}

	edgeID := model.EdgeID(conn.SourceID, conn.TargetID, conn.Label)
	if !g.seen[edgeID] {
		g.seen[edgeID] = true
		g.edges = append(g.edges, model.Edge{
			ID:       edgeID,
			From:     conn.SourceID,
			To:       conn.TargetID,
			Label:    conn.Label,
			Category: classify.Classify(conn.Label),
		})
	}

	return created
}

func (g *graphState) result() *model.GraphResult {
	nodes := make([]model.Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, *g.nodes[id])
	}
	edges := g.edges
	if edges == nil {
		edges = []model.Edge{}
	}
	return &model.GraphResult{Nodes: nodes, Edges: edges}
}

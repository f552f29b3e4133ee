// Package server exposes the graph construction engine over a JSON API.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linkloom/loom/internal/cache"
	"github.com/linkloom/loom/internal/core"
	"github.com/linkloom/loom/internal/core/consolidate"
	"github.com/linkloom/loom/internal/core/estimate"
	"github.com/linkloom/loom/internal/core/model"
	"github.com/linkloom/loom/internal/core/paths"
	"github.com/linkloom/loom/internal/fetch"
	"github.com/linkloom/loom/internal/sanitize"
)

type Server struct {
	builder    *core.Builder
	fetcher    *fetch.Fetcher
	responses  *cache.ResponseCache
	depths     model.DepthTable
	batchDelay time.Duration
	logger     *zap.Logger
}

// NewServer wires the handlers. batchDelay is the configured pause
// between crawl batches; estimates must use the same value the builder
// runs with.
func NewServer(builder *core.Builder, fetcher *fetch.Fetcher, responses *cache.ResponseCache, depths model.DepthTable, batchDelay time.Duration, logger *zap.Logger) *Server {
	if batchDelay == 0 {
		batchDelay = core.DefaultBatchDelay
	}
	return &Server{
		builder:    builder,
		fetcher:    fetcher,
		responses:  responses,
		depths:     depths,
		batchDelay: batchDelay,
		logger:     logger,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID())

	r.GET("/healthz", s.Health)
	r.POST("/graph", s.Graph)
	r.POST("/search", s.Search)
	r.POST("/paths", s.Paths)
	r.POST("/consolidate", s.Consolidate)
	r.POST("/estimate", s.Estimate)

	return r
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) requestLogger(c *gin.Context) *zap.Logger {
	if id, ok := c.Get("request_id"); ok {
		return s.logger.With(zap.String("request_id", id.(string)))
	}
	return s.logger
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type GraphRequest struct {
	Names     []string `json:"names"`
	IDs       []string `json:"ids"`
	Depth     int      `json:"depth"`
	SkipCache bool     `json:"skip_cache"`
}

type GraphStats struct {
	NodeCount int  `json:"node_count"`
	EdgeCount int  `json:"edge_count"`
	Cached    bool `json:"cached"`
}

type GraphResponse struct {
	Nodes []model.Node `json:"nodes"`
	Edges []model.Edge `json:"edges"`
	Stats GraphStats   `json:"stats"`
}

func (s *Server) Graph(c *gin.Context) {
	var req GraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	logger := s.requestLogger(c)
	crawl := model.GraphRequest{Names: req.Names, IDs: req.IDs, Depth: req.Depth}
	key := cache.RequestKey(crawl)

	result, cached, err := s.responses.Fetch(key, req.SkipCache, func() (*model.GraphResult, error) {
		return s.builder.Build(c.Request.Context(), crawl, func(msg string) {
			logger.Info("crawl progress", zap.String("phase", msg))
		})
	})
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		var rerr *model.ResolutionError
		if errors.As(err, &rerr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": rerr.Error()})
			return
		}
		logger.Error("graph generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate graph"})
		return
	}

	c.JSON(http.StatusOK, GraphResponse{
		Nodes: result.Nodes,
		Edges: result.Edges,
		Stats: GraphStats{
			NodeCount: len(result.Nodes),
			EdgeCount: len(result.Edges),
			Cached:    cached,
		},
	})
}

type SearchRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	// A cancelled interactive search resolves as "no result" rather
	// than an error; ResolveID absorbs the aborted request.
	id, ok := s.fetcher.ResolveID(c.Request.Context(), req.Name)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"id": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

type PathsRequest struct {
	Edges   []model.Edge `json:"edges"`
	SeedIDs []string     `json:"seed_ids" binding:"required"`
}

func (s *Server) Paths(c *gin.Context) {
	var req PathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	found := paths.AllPairs(req.Edges, req.SeedIDs)
	if found == nil {
		found = []paths.Path{}
	}
	c.JSON(http.StatusOK, gin.H{"paths": found})
}

type ConsolidateRequest struct {
	Edges []model.Edge `json:"edges"`
}

func (s *Server) Consolidate(c *gin.Context) {
	var req ConsolidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	merged := consolidate.Consolidate(req.Edges)
	if merged == nil {
		merged = []consolidate.Edge{}
	}
	c.JSON(http.StatusOK, gin.H{"edges": merged})
}

type EstimateRequest struct {
	Names []string `json:"names"`
	IDs   []string `json:"ids"`
	Depth int      `json:"depth"`
}

func (s *Server) Estimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	depth, err := sanitize.Depth(req.Depth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	est := estimate.ForRequest(
		model.GraphRequest{Names: req.Names, IDs: req.IDs, Depth: depth},
		s.depths,
		s.batchDelay,
	)
	c.JSON(http.StatusOK, est)
}

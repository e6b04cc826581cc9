package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
	"github.com/toyinlola/pkgrisk/pkg/pipeline"
	"github.com/toyinlola/pkgrisk/pkg/registry"
)

type assessRequest struct {
	Snapshot *interfaces.MetadataSnapshot `json:"snapshot" binding:"required"`
	Context  *interfaces.AnalysisContext  `json:"context"`
}

type recommendRequest struct {
	Snapshot *interfaces.MetadataSnapshot `json:"snapshot" binding:"required"`
}

type reportRequest struct {
	Names     []string                    `json:"names" binding:"required,min=1,dive,required"`
	Context   *interfaces.AnalysisContext `json:"context"`
	Recommend bool                        `json:"recommend"`
}

func (s *Server) assess(c *gin.Context) {
	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := req.Context.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid context: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.assessor.Assess(req.Snapshot, req.Context))
}

func (s *Server) recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if s.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no metadata provider configured"})
		return
	}

	ctx := c.Request.Context()
	rec, err := s.recommender.Recommend(ctx, req.Snapshot, s.provider)
	if err != nil {
		s.logger.ErrorContext(ctx, "recommendation failed", "package", req.Snapshot.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recommendation failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// packageRisk fetches a package through the provider and assesses it. The
// usage and criticality query parameters form the analysis context.
func (s *Server) packageRisk(c *gin.Context) {
	actx, err := interfaces.ParseAnalysisContext(c.Query("usage"), c.Query("criticality"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid context: " + err.Error()})
		return
	}
	if s.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no metadata provider configured"})
		return
	}

	ctx := c.Request.Context()
	name := c.Param("name")
	snap, err := s.provider.Fetch(ctx, name)
	switch {
	case errors.Is(err, registry.ErrNotFound) || (err == nil && snap == nil):
		c.JSON(http.StatusNotFound, gin.H{"error": "package not found: " + name})
		return
	case err != nil:
		s.logger.ErrorContext(ctx, "metadata fetch failed", "package", name, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "metadata fetch failed"})
		return
	}

	c.JSON(http.StatusOK, interfaces.PackageResult{
		Name:    snap.Name,
		Version: snap.Version,
		License: snap.License,
		Risk:    s.assessor.Assess(snap, actx),
	})
}

// batchReport runs the pipeline over the named packages and returns a report.
func (s *Server) batchReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if len(req.Names) > MaxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many packages"})
		return
	}
	if err := req.Context.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid context: " + err.Error()})
		return
	}
	if s.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no metadata provider configured"})
		return
	}

	opts := []pipeline.Option{
		pipeline.WithAnalysisContext(req.Context),
		pipeline.WithLogger(s.logger),
	}
	if req.Recommend {
		opts = append(opts, pipeline.WithRecommender(s.recommender))
	}

	ctx := c.Request.Context()
	batch, err := pipeline.New(s.provider, s.assessor, opts...).Run(ctx, req.Names)
	if err != nil {
		s.logger.WarnContext(ctx, "batch interrupted", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "batch interrupted"})
		return
	}
	c.JSON(http.StatusOK, s.generator.Generate(batch))
}

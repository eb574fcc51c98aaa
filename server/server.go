// Package server exposes the manual trigger surface over HTTP. Every
// endpoint is a thin wrapper over the same operations the engine modules
// run on their own schedules, so triggering one by hand is always safe.
package server

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/geomux/geomux/dedup"
	"github.com/geomux/geomux/enricher"
	"github.com/geomux/geomux/model"
	"github.com/geomux/geomux/pipeline"
	"github.com/geomux/geomux/utils"
)

type Handler struct {
	DB       *gorm.DB
	Pipeline *pipeline.Pipeline
	Enricher *enricher.Orchestrator
	Dedup    *dedup.Deduplicator
}

func NewHandler(db *gorm.DB, p *pipeline.Pipeline, e *enricher.Orchestrator, d *dedup.Deduplicator) *Handler {
	return &Handler{DB: db, Pipeline: p, Enricher: e, Dedup: d}
}

// NewRouter builds the gin router with the Logger and Recovery middleware
// already attached.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := router.Group("/api")
	{
		api.POST("/fetch", h.TriggerFetch)
		api.POST("/rescore", h.TriggerRescore)
		api.POST("/enrich", h.TriggerEnrich)
		api.POST("/cleanup/duplicates", h.TriggerCleanupDuplicates)
		api.POST("/cleanup/relevance", h.TriggerCleanupBelowRelevance)
		api.POST("/seed", h.TriggerSeed)
		api.GET("/sources", h.ListSources)
		api.GET("/articles", h.ListArticles)
	}

	return router
}

// TriggerFetch runs one fetch cycle over all active sources, optionally
// restricted to one source type via ?type=rss.
func (h *Handler) TriggerFetch(c *gin.Context) {
	sourceType := c.Query("type")
	if sourceType != "" && !validSourceType(sourceType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source type: " + sourceType})
		return
	}

	summary, err := h.Pipeline.RunCycle(c.Request.Context(), sourceType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func validSourceType(t string) bool {
	return utils.ContainsString([]string{
		model.SourceTypeRss, model.SourceTypeApi, model.SourceTypeGdelt, model.SourceTypeSocial,
	}, t)
}

// TriggerRescore recomputes scores for every stored article with the
// current keyword tables and weights.
func (h *Handler) TriggerRescore(c *gin.Context) {
	rescored, err := h.Pipeline.RescoreAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "rescored": rescored})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rescored": rescored})
}

// TriggerEnrich enriches pending articles. ?all=true ignores the relevance
// floor and processes the entire backlog batch.
func (h *Handler) TriggerEnrich(c *gin.Context) {
	all := c.Query("all") == "true"
	enriched, err := h.Enricher.EnrichPending(c.Request.Context(), all)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "enriched": enriched})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enriched": enriched})
}

// TriggerCleanupDuplicates sweeps the recent window for cross-source near
// duplicates that slipped past ingestion-time checks.
func (h *Handler) TriggerCleanupDuplicates(c *gin.Context) {
	removed, err := h.Dedup.CleanupDuplicates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "removed": removed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// TriggerCleanupBelowRelevance deletes articles whose composite score is
// below ?threshold= (default 0.2).
func (h *Handler) TriggerCleanupBelowRelevance(c *gin.Context) {
	threshold := 0.2
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number in [0,1]"})
			return
		}
		threshold = parsed
	}

	removed, err := h.Dedup.CleanupBelowRelevance(threshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "removed": removed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed, "threshold": threshold})
}

// TriggerSeed inserts the default source set.
func (h *Handler) TriggerSeed(c *gin.Context) {
	created, err := SeedDefaultSources(h.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "created": created})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (h *Handler) ListSources(c *gin.Context) {
	var sources []model.Source
	if err := h.DB.Order("name").Find(&sources).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sources)
}

// ListArticles returns recent articles, most relevant first. Supports
// ?level=critical and ?limit=N (default 50, capped at 200).
func (h *Handler) ListArticles(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if parsed > 200 {
			parsed = 200
		}
		limit = parsed
	}

	query := h.DB.Order("relevance_score DESC, published_at DESC").Limit(limit)
	if level := c.Query("level"); level != "" {
		query = query.Where("relevance_level = ?", level)
	}

	var articles []model.Article
	if err := query.Find(&articles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, articles)
}

package enricher

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/geomux/geomux/model"
	Logger "github.com/geomux/geomux/utils/log"
)

type Config struct {
	// Articles below this composite score are not enriched unless the
	// caller asks for a full reprocess.
	MinRelevance float64

	// Upper bound on simultaneous analyzer calls.
	Concurrency int

	// How many pending articles one pass picks up.
	BatchSize int

	// A failed article is retried at most this many times.
	MaxAttempts int

	// Base of the exponential backoff between retry passes: an article
	// with n failed attempts is not retried before its last update plus
	// BaseBackoff * 2^(n-1).
	BaseBackoff time.Duration

	// Per-article analyzer timeout.
	AnalyzeTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinRelevance:   0.4,
		Concurrency:    4,
		BatchSize:      10,
		MaxAttempts:    3,
		BaseBackoff:    10 * time.Minute,
		AnalyzeTimeout: 60 * time.Second,
	}
}

// Orchestrator drains the enrichment queue (scored articles with
// processed=0) in bounded-concurrency batches. Per-article failures are
// logged and leave the article pending; they never fail the batch.
type Orchestrator struct {
	db       *gorm.DB
	analyzer Analyzer
	config   Config
}

func NewOrchestrator(db *gorm.DB, analyzer Analyzer, config Config) *Orchestrator {
	return &Orchestrator{db: db, analyzer: analyzer, config: config}
}

// EnrichPending runs one enrichment pass. With all=true the relevance
// threshold is ignored (full reprocess). Returns the number of articles
// successfully enriched.
func (o *Orchestrator) EnrichPending(ctx context.Context, all bool) (int, error) {
	// The retry backoff is part of the query so that backed-off articles
	// do not occupy batch slots ahead of due ones. Attempts beyond
	// MaxAttempts have no bucket and are never selected.
	now := time.Now()
	due := o.db.Where("enrich_attempts = ?", 0)
	for n := 1; n < o.config.MaxAttempts; n++ {
		backoff := o.config.BaseBackoff << uint(n-1)
		due = due.Or(o.db.Where("enrich_attempts = ? AND updated_at <= ?", n, now.Add(-backoff)))
	}

	query := o.db.Where("processed = ?", model.ProcessedPending).
		Where(due).
		Order("relevance_score desc").
		Limit(o.config.BatchSize)
	if !all {
		query = query.Where("relevance_score >= ?", o.config.MinRelevance)
	}

	var articles []model.Article
	if err := query.Find(&articles).Error; err != nil {
		return 0, err
	}

	sem := make(chan struct{}, o.config.Concurrency)
	var wg sync.WaitGroup
	var m sync.Mutex
	enriched := 0

	for i := range articles {
		article := &articles[i]
		wg.Add(1)
		go func(article *model.Article) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if o.enrichOne(ctx, article) {
				m.Lock()
				enriched++
				m.Unlock()
			}
		}(article)
	}
	wg.Wait()

	Logger.Log.Infof("enrichment pass done: %d/%d articles enriched", enriched, len(articles))
	return enriched, nil
}

// EnrichArticle enriches a single article by id, used by the event-driven
// worker when a newly scored article arrives.
func (o *Orchestrator) EnrichArticle(ctx context.Context, articleId string) error {
	var article model.Article
	if err := o.db.Where("id = ?", articleId).First(&article).Error; err != nil {
		return err
	}
	if article.Processed == model.ProcessedDone {
		return nil
	}
	if article.RelevanceScore < o.config.MinRelevance {
		return nil
	}
	o.enrichOne(ctx, &article)
	return nil
}

func (o *Orchestrator) enrichOne(ctx context.Context, article *model.Article) bool {
	callCtx, cancel := context.WithTimeout(ctx, o.config.AnalyzeTimeout)
	defer cancel()

	analysis, err := o.analyzer.Analyze(callCtx, AnalysisRequest{
		Title: article.Title,
		Body:  article.Content,
		Tags:  []string{article.Region, article.Country, article.Theme, article.Domain},
	})
	if err != nil {
		Logger.Log.Errorf("fail to enrich article %s: %s", article.Id, err)
		o.recordFailure(article, err)
		return false
	}

	// The four fields and the processed flag land in one UPDATE, so a
	// partially-written enrichment is never observable.
	err = o.db.Model(article).Updates(map[string]interface{}{
		"summary_what_happened":       analysis.WhatHappened,
		"summary_why_matters":         analysis.WhyMatters,
		"summary_implications":        analysis.Implications,
		"summary_future_developments": analysis.FutureDevelopments,
		"processed":                   model.ProcessedDone,
		"processing_error":            "",
	}).Error
	if err != nil {
		Logger.Log.Errorf("fail to persist enrichment for article %s: %s", article.Id, err)
		return false
	}
	return true
}

func (o *Orchestrator) recordFailure(article *model.Article, cause error) {
	err := o.db.Model(article).Updates(map[string]interface{}{
		"enrich_attempts":  article.EnrichAttempts + 1,
		"processing_error": cause.Error(),
	}).Error
	if err != nil {
		Logger.Log.Errorf("fail to record enrichment failure for article %s: %s", article.Id, err)
	}
}

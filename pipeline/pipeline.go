// Package pipeline runs one fetch cycle end to end: coordinate adapters,
// normalize raw items, deduplicate, score, persist, then hand newly scored
// article ids to the async follow-on stages.
package pipeline

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/geomux/geomux/collector"
	"github.com/geomux/geomux/dedup"
	"github.com/geomux/geomux/model"
	"github.com/geomux/geomux/scorer"
	Logger "github.com/geomux/geomux/utils/log"
)

// SourceResult is the per-source line of a cycle summary.
type SourceResult struct {
	SourceId   string `json:"source_id"`
	SourceName string `json:"source_name"`
	Status     string `json:"status"`
	RawItems   int    `json:"raw_items"`
	Saved      int    `json:"saved"`
	Duplicates int    `json:"duplicates"`
	Rejected   int    `json:"rejected"`
	Error      string `json:"error,omitempty"`
}

// CycleSummary is what a fetch cycle reports back to its caller. Failures
// surface here as counts, never as raw errors crossing the pipeline
// boundary.
type CycleSummary struct {
	Attempted  int            `json:"attempted"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	RawItems   int            `json:"raw_items"`
	Saved      int            `json:"saved"`
	Duplicates int            `json:"duplicates"`
	Rejected   int            `json:"rejected"`
	PerSource  []SourceResult `json:"per_source"`
}

type Config struct {
	// Upper bound on simultaneous in-flight source fetches.
	FetchConcurrency int
	// Per-source fetch timeout.
	SourceTimeout time.Duration
	// Upper bound on articles processed concurrently after fetch.
	ArticleConcurrency int

	Dedup dedup.Config
}

func DefaultConfig() Config {
	return Config{
		FetchConcurrency:   4,
		SourceTimeout:      30 * time.Second,
		ArticleConcurrency: 8,
		Dedup:              dedup.DefaultConfig(),
	}
}

// ScoredHook is invoked once per newly persisted article, outside any
// transaction. The engine uses it to fan newly scored article ids out to
// the enrichment and alerting workers.
type ScoredHook func(articleId string)

type Pipeline struct {
	db          *gorm.DB
	coordinator *FetchCoordinator
	dedup       *dedup.Deduplicator
	scorer      *scorer.Scorer
	config      Config
	onScored    ScoredHook
}

func NewPipeline(db *gorm.DB, registry *collector.Registry, sc *scorer.Scorer, config Config, onScored ScoredHook) *Pipeline {
	return &Pipeline{
		db:          db,
		coordinator: NewFetchCoordinator(registry, config.FetchConcurrency, config.SourceTimeout),
		dedup:       dedup.NewDeduplicator(db, config.Dedup),
		scorer:      sc,
		config:      config,
		onScored:    onScored,
	}
}

// Deduplicator exposes the pipeline's deduplicator so callers can trigger
// cleanup sweeps over the same configuration the pipeline ingests with.
func (p *Pipeline) Deduplicator() *dedup.Deduplicator {
	return p.dedup
}

// RunCycle fetches every active source (optionally filtered to one source
// type), pushes all fetched items through normalize → dedupe → score →
// persist, and reports the summary.
func (p *Pipeline) RunCycle(ctx context.Context, sourceType string) (*CycleSummary, error) {
	query := p.db.Where("active = ?", true)
	if sourceType != "" {
		query = query.Where("type = ?", sourceType)
	}
	var sources []*model.Source
	if err := query.Find(&sources).Error; err != nil {
		return nil, err
	}

	return p.RunCycleForSources(ctx, sources), nil
}

// RunCycleForSources is RunCycle over an explicit source set.
func (p *Pipeline) RunCycleForSources(ctx context.Context, sources []*model.Source) *CycleSummary {
	summary := &CycleSummary{Attempted: len(sources)}

	fetches := p.coordinator.FetchAll(ctx, sources)
	for _, fetch := range fetches {
		result := p.processSourceFetch(ctx, fetch)
		summary.PerSource = append(summary.PerSource, result)
		summary.RawItems += result.RawItems
		summary.Saved += result.Saved
		summary.Duplicates += result.Duplicates
		summary.Rejected += result.Rejected
		if result.Status == model.FetchStatusFailed {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}

	Logger.Log.Infof(
		"fetch cycle done: %d/%d sources succeeded, %d raw items, %d saved, %d duplicates, %d rejected",
		summary.Succeeded, summary.Attempted, summary.RawItems, summary.Saved,
		summary.Duplicates, summary.Rejected)
	return summary
}

type processOutcome struct {
	saved      int
	duplicates int
	rejected   int
}

func (p *Pipeline) processSourceFetch(ctx context.Context, fetch SourceFetch) SourceResult {
	result := SourceResult{
		SourceId:   fetch.Source.Id,
		SourceName: fetch.Source.Name,
		RawItems:   len(fetch.Items),
	}

	if fetch.Err != nil {
		result.Status = model.FetchStatusFailed
		result.Error = fetch.Err.Error()
		p.updateSourceStatus(fetch.Source, model.FetchStatusFailed)
		return result
	}

	outcome := p.processItems(ctx, fetch.Source, fetch.Items)
	result.Saved = outcome.saved
	result.Duplicates = outcome.duplicates
	result.Rejected = outcome.rejected
	result.Status = model.FetchStatusSuccess
	if outcome.rejected > 0 {
		result.Status = model.FetchStatusPartial
	}
	p.updateSourceStatus(fetch.Source, result.Status)
	return result
}

// processItems runs the per-article flow for one source's raw items.
// Independent articles are processed in parallel with no ordering guarantee.
func (p *Pipeline) processItems(ctx context.Context, source *model.Source, items []collector.RawItem) processOutcome {
	var m sync.Mutex
	outcome := processOutcome{}

	sem := make(chan struct{}, p.config.ArticleConcurrency)
	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(item collector.RawItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			saved, duplicate, err := p.processOneItem(ctx, source, item)
			m.Lock()
			defer m.Unlock()
			switch {
			case err != nil:
				outcome.rejected++
			case duplicate:
				outcome.duplicates++
			case saved:
				outcome.saved++
			}
		}(item)
	}
	wg.Wait()
	return outcome
}

// processOneItem normalizes, dedupes, scores and persists a single raw
// item. A storage conflict on (source, url) is the expected re-fetch skip,
// not an error; any other storage failure drops only this article.
func (p *Pipeline) processOneItem(ctx context.Context, source *model.Source, item collector.RawItem) (saved bool, duplicate bool, err error) {
	article, err := NormalizeItem(item, source)
	if err != nil {
		Logger.Log.Infof("reject item from %s: %s", source.Name, err)
		return false, false, err
	}

	// Cheap exact check before scoring; the uniqueness constraint below is
	// the authoritative guard when cycles race.
	if exists, err := p.dedup.IsExactDuplicate(article.SourceID, article.Url); err == nil && exists {
		return false, true, nil
	}

	p.scoreArticle(article)

	// The near-duplicate rule needs the country tag, so it runs after the
	// (pure) scoring pass but still before the repository write.
	retained, err := p.dedup.FindNearDuplicate(article)
	if err != nil {
		Logger.Log.Errorf("near-duplicate lookup failed for %q: %s", article.Title, err)
	} else if retained != nil {
		if err := p.dedup.Absorb(retained, article); err != nil {
			Logger.Log.Errorf("fail to merge duplicate %q: %s", article.Title, err)
		}
		return false, true, nil
	}

	res := p.db.Clauses(clause.OnConflict{DoNothing: true}).Create(article)
	if res.Error != nil {
		Logger.Log.Errorf("fail to store article %q: %s", article.Title, res.Error)
		return false, false, nil
	}
	if res.RowsAffected == 0 {
		// Lost the insert race to a concurrent cycle: already exists, skip.
		return false, true, nil
	}

	if p.onScored != nil {
		p.onScored(article.Id)
	}
	return true, false, nil
}

func (p *Pipeline) scoreArticle(article *model.Article) {
	scores := p.scorer.Score(article.Title, article.Content)
	article.GeoScore = scores.Geo
	article.MilitaryScore = scores.Military
	article.DiplomaticScore = scores.Diplomatic
	article.EconomicScore = scores.Economic
	article.RelevanceScore = scores.Composite
	article.RelevanceLevel = scores.Level
	article.Region = scores.Region
	article.Country = scores.Country
	article.Theme = scores.Theme
	article.Domain = scores.Domain
	article.IsPriority = scores.IsPriority
	article.Entities = model.EncodeEntities(scores.Entities)
}

// updateSourceStatus records the cycle outcome against the source, exactly
// once per cycle.
func (p *Pipeline) updateSourceStatus(source *model.Source, status string) {
	now := time.Now()
	err := p.db.Model(source).Updates(map[string]interface{}{
		"last_fetched_at":   now,
		"last_fetch_status": status,
	}).Error
	if err != nil {
		Logger.Log.Errorf("fail to update fetch status for source %s: %s", source.Name, err)
	}
}

// RescoreAll re-runs the scoring pass over every stored article. Scoring is
// deterministic, so with unchanged content and configuration this is a
// no-op on the stored values; after a configuration change it brings every
// row up to date. Returns the number of articles rescored.
func (p *Pipeline) RescoreAll(ctx context.Context) (int, error) {
	var articles []model.Article
	if err := p.db.Find(&articles).Error; err != nil {
		return 0, err
	}

	count := 0
	for i := range articles {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}
		article := &articles[i]
		p.scoreArticle(article)
		if err := p.db.Save(article).Error; err != nil {
			Logger.Log.Errorf("fail to rescore article %s: %s", article.Id, err)
			continue
		}
		count++
	}
	return count, nil
}

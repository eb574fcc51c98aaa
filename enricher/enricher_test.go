package enricher

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/geomux/geomux/model"
	"github.com/geomux/geomux/utils"
)

type fakeAnalyzer struct {
	analysis *Analysis
	err      error
	calls    int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func fullAnalysis() *Analysis {
	return &Analysis{
		WhatHappened:       "Two armies clashed at the border.",
		WhyMatters:         "It risks wider escalation.",
		Implications:       "Regional balance shifts.",
		FutureDevelopments: "Talks are expected.",
	}
}

func createPendingArticle(t *testing.T, db *gorm.DB, relevance float64) *model.Article {
	source := &model.Source{Id: uuid.New().String(), Name: uuid.New().String(), Type: model.SourceTypeRss}
	assert.Nil(t, db.Create(source).Error)
	article := &model.Article{
		Id:             uuid.New().String(),
		Title:          "border clash",
		Url:            "https://example.com/" + uuid.New().String(),
		SourceID:       source.Id,
		RelevanceScore: relevance,
		Processed:      model.ProcessedPending,
	}
	assert.Nil(t, db.Create(article).Error)
	return article
}

func TestParseAnalysisText(t *testing.T) {
	raw := `{"what_happened": "a", "why_matters": "b", "strategic_implications": "c", "future_developments": "d"}`
	analysis, err := ParseAnalysisText(raw)
	assert.Nil(t, err)
	assert.Equal(t, "a", analysis.WhatHappened)
	assert.Equal(t, "b", analysis.WhyMatters)
	assert.Equal(t, "c", analysis.Implications)
	assert.Equal(t, "d", analysis.FutureDevelopments)
}

func TestParseAnalysisTextStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"what_happened\": \"a\"}\n```"
	analysis, err := ParseAnalysisText(raw)
	assert.Nil(t, err)
	assert.Equal(t, "a", analysis.WhatHappened)
}

func TestParseAnalysisTextRejectsMalformed(t *testing.T) {
	_, err := ParseAnalysisText("not json at all")
	assert.Equal(t, AnalysisErrorMalformed, analysisKindOf(err))

	// Valid JSON with none of the expected fields is still malformed.
	_, err = ParseAnalysisText(`{"unexpected": "shape"}`)
	assert.Equal(t, AnalysisErrorMalformed, analysisKindOf(err))
}

func analysisKindOf(err error) AnalysisErrorKind {
	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.Kind
	}
	return ""
}

func TestEnrichPendingWritesAllFieldsAtomically(t *testing.T) {
	db := utils.CreateTempDB(t)
	article := createPendingArticle(t, db, 0.6)
	analyzer := &fakeAnalyzer{analysis: fullAnalysis()}
	o := NewOrchestrator(db, analyzer, DefaultConfig())

	enriched, err := o.EnrichPending(context.Background(), false)
	assert.Nil(t, err)
	assert.Equal(t, 1, enriched)

	var stored model.Article
	assert.Nil(t, db.Where("id = ?", article.Id).First(&stored).Error)
	assert.Equal(t, model.ProcessedDone, stored.Processed)
	assert.Equal(t, "Two armies clashed at the border.", stored.SummaryWhatHappened)
	assert.Equal(t, "It risks wider escalation.", stored.SummaryWhyMatters)
	assert.Equal(t, "Regional balance shifts.", stored.SummaryImplications)
	assert.Equal(t, "Talks are expected.", stored.SummaryFutureDevelopments)
	assert.Empty(t, stored.ProcessingError)
}

func TestEnrichPendingSkipsLowRelevance(t *testing.T) {
	db := utils.CreateTempDB(t)
	createPendingArticle(t, db, 0.1)
	analyzer := &fakeAnalyzer{analysis: fullAnalysis()}
	o := NewOrchestrator(db, analyzer, DefaultConfig())

	enriched, err := o.EnrichPending(context.Background(), false)
	assert.Nil(t, err)
	assert.Equal(t, 0, enriched)
	assert.Equal(t, 0, analyzer.calls)

	// A full reprocess ignores the relevance floor.
	enriched, err = o.EnrichPending(context.Background(), true)
	assert.Nil(t, err)
	assert.Equal(t, 1, enriched)
}

func TestEnrichPendingRecordsFailureAndBacksOff(t *testing.T) {
	db := utils.CreateTempDB(t)
	article := createPendingArticle(t, db, 0.6)
	analyzer := &fakeAnalyzer{err: NewAnalysisError(AnalysisErrorQuota, errors.New("http 429"))}
	o := NewOrchestrator(db, analyzer, DefaultConfig())

	enriched, err := o.EnrichPending(context.Background(), false)
	assert.Nil(t, err)
	assert.Equal(t, 0, enriched)

	var stored model.Article
	assert.Nil(t, db.Where("id = ?", article.Id).First(&stored).Error)
	assert.Equal(t, model.ProcessedPending, stored.Processed)
	assert.Equal(t, 1, stored.EnrichAttempts)
	assert.Contains(t, stored.ProcessingError, "quota")

	// The article was just attempted, so the next pass skips it until the
	// backoff elapses.
	enriched, err = o.EnrichPending(context.Background(), false)
	assert.Nil(t, err)
	assert.Equal(t, 0, enriched)
	assert.Equal(t, 1, analyzer.calls)
}

func TestEnrichPendingBatchPrefersDueArticles(t *testing.T) {
	db := utils.CreateTempDB(t)
	backedOff := createPendingArticle(t, db, 0.9)
	assert.Nil(t, db.Model(backedOff).Update("enrich_attempts", 1).Error)
	due := createPendingArticle(t, db, 0.5)

	config := DefaultConfig()
	config.BatchSize = 1
	analyzer := &fakeAnalyzer{analysis: fullAnalysis()}
	o := NewOrchestrator(db, analyzer, config)

	// The backed-off article ranks higher but must not consume the only
	// batch slot while it is not yet due.
	enriched, err := o.EnrichPending(context.Background(), false)
	assert.Nil(t, err)
	assert.Equal(t, 1, enriched)
	assert.Equal(t, 1, analyzer.calls)

	var stored model.Article
	assert.Nil(t, db.Where("id = ?", due.Id).First(&stored).Error)
	assert.Equal(t, model.ProcessedDone, stored.Processed)
	var storedBackedOff model.Article
	assert.Nil(t, db.Where("id = ?", backedOff.Id).First(&storedBackedOff).Error)
	assert.Equal(t, model.ProcessedPending, storedBackedOff.Processed)
}

func TestEnrichPendingStopsAfterMaxAttempts(t *testing.T) {
	db := utils.CreateTempDB(t)
	article := createPendingArticle(t, db, 0.6)
	assert.Nil(t, db.Model(article).Update("enrich_attempts", 3).Error)

	analyzer := &fakeAnalyzer{analysis: fullAnalysis()}
	o := NewOrchestrator(db, analyzer, DefaultConfig())

	enriched, err := o.EnrichPending(context.Background(), false)
	assert.Nil(t, err)
	assert.Equal(t, 0, enriched)
	assert.Equal(t, 0, analyzer.calls)
}

func TestEnrichArticleSkipsAlreadyProcessed(t *testing.T) {
	db := utils.CreateTempDB(t)
	article := createPendingArticle(t, db, 0.6)
	assert.Nil(t, db.Model(article).Update("processed", model.ProcessedDone).Error)

	analyzer := &fakeAnalyzer{analysis: fullAnalysis()}
	o := NewOrchestrator(db, analyzer, DefaultConfig())

	assert.Nil(t, o.EnrichArticle(context.Background(), article.Id))
	assert.Equal(t, 0, analyzer.calls)
}

func TestEnrichAttemptsAreBoundedUnderRepeatedFailure(t *testing.T) {
	db := utils.CreateTempDB(t)
	article := createPendingArticle(t, db, 0.6)

	config := DefaultConfig()
	config.BaseBackoff = 0
	analyzer := &fakeAnalyzer{err: NewAnalysisError(AnalysisErrorTimeout, errors.New("deadline"))}
	o := NewOrchestrator(db, analyzer, config)

	for i := 0; i < 5; i++ {
		_, err := o.EnrichPending(context.Background(), false)
		assert.Nil(t, err)
		// Refresh attempts so the in-memory copy tracks the row.
		assert.Nil(t, db.Where("id = ?", article.Id).First(article).Error)
		time.Sleep(time.Millisecond)
	}

	assert.Equal(t, 3, article.EnrichAttempts)
	assert.Equal(t, 3, analyzer.calls)
}

package dedup

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/geomux/geomux/model"
	"github.com/geomux/geomux/utils"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t,
		"india china talks resume",
		NormalizeTitle("BREAKING: India-China Talks Resume!"))
	assert.Equal(t,
		"india china talks resume",
		NormalizeTitle("india   china talks,  resume"))
}

func TestTitleSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, TitleSimilarity(
		"BREAKING: India-China Talks Resume",
		"india china talks resume"))
	assert.Equal(t, 0.0, TitleSimilarity("one two three", "four five six"))
	assert.Equal(t, 0.0, TitleSimilarity("", ""))

	// 4 shared words out of a 5 word union.
	sim := TitleSimilarity("india china border talks stall", "india china border talks")
	assert.Equal(t, 0.8, sim)
}

func createTestSource(t *testing.T, db *gorm.DB, name string, reliability float64) *model.Source {
	source := &model.Source{
		Id:          uuid.New().String(),
		Name:        name,
		Type:        model.SourceTypeRss,
		Reliability: reliability,
		Active:      true,
	}
	assert.Nil(t, db.Create(source).Error)
	return source
}

func createTestArticle(t *testing.T, db *gorm.DB, source *model.Source, title, url, country string, publishedAt time.Time) *model.Article {
	article := &model.Article{
		Id:          uuid.New().String(),
		Title:       title,
		Url:         url,
		Country:     country,
		SourceID:    source.Id,
		PublishedAt: &publishedAt,
	}
	assert.Nil(t, db.Create(article).Error)
	return article
}

func TestIsExactDuplicate(t *testing.T) {
	db := utils.CreateTempDB(t)
	d := NewDeduplicator(db, DefaultConfig())
	source := createTestSource(t, db, "source_a", 0.8)
	createTestArticle(t, db, source, "some title", "https://example.com/a", "India", time.Now())

	dup, err := d.IsExactDuplicate(source.Id, "https://example.com/a")
	assert.Nil(t, err)
	assert.True(t, dup)

	dup, err = d.IsExactDuplicate(source.Id, "https://example.com/other")
	assert.Nil(t, err)
	assert.False(t, dup)
}

func TestFindNearDuplicateAcrossSources(t *testing.T) {
	db := utils.CreateTempDB(t)
	d := NewDeduplicator(db, DefaultConfig())
	sourceA := createTestSource(t, db, "source_a", 0.8)
	sourceB := createTestSource(t, db, "source_b", 0.7)

	now := time.Now()
	stored := createTestArticle(t, db, sourceA,
		"India and China agree to border disengagement",
		"https://a.example.com/1", "India", now)

	candidate := &model.Article{
		Id:          uuid.New().String(),
		Title:       "BREAKING: India and China agree to border disengagement",
		Url:         "https://b.example.com/1",
		Country:     "India",
		SourceID:    sourceB.Id,
		PublishedAt: &now,
	}

	found, err := d.FindNearDuplicate(candidate)
	assert.Nil(t, err)
	assert.NotNil(t, found)
	assert.Equal(t, stored.Id, found.Id)
}

func TestFindNearDuplicateIgnoresSameSourceAndOtherCountry(t *testing.T) {
	db := utils.CreateTempDB(t)
	d := NewDeduplicator(db, DefaultConfig())
	sourceA := createTestSource(t, db, "source_a", 0.8)
	sourceB := createTestSource(t, db, "source_b", 0.7)

	now := time.Now()
	createTestArticle(t, db, sourceA,
		"India and China agree to border disengagement",
		"https://a.example.com/1", "India", now)

	// Same source: the exact-duplicate tier owns this case.
	sameSource := &model.Article{
		Id: uuid.New().String(), Title: "India and China agree to border disengagement",
		Country: "India", SourceID: sourceA.Id, PublishedAt: &now,
	}
	found, err := d.FindNearDuplicate(sameSource)
	assert.Nil(t, err)
	assert.Nil(t, found)

	// Different country tag means a different story.
	otherCountry := &model.Article{
		Id: uuid.New().String(), Title: "India and China agree to border disengagement",
		Country: "China", SourceID: sourceB.Id, PublishedAt: &now,
	}
	found, err = d.FindNearDuplicate(otherCountry)
	assert.Nil(t, err)
	assert.Nil(t, found)
}

func TestFindNearDuplicateRespectsTimeWindow(t *testing.T) {
	db := utils.CreateTempDB(t)
	d := NewDeduplicator(db, DefaultConfig())
	sourceA := createTestSource(t, db, "source_a", 0.8)
	sourceB := createTestSource(t, db, "source_b", 0.7)

	old := time.Now().Add(-3 * time.Hour)
	createTestArticle(t, db, sourceA,
		"India and China agree to border disengagement",
		"https://a.example.com/1", "India", old)

	now := time.Now()
	candidate := &model.Article{
		Id: uuid.New().String(), Title: "India and China agree to border disengagement",
		Country: "India", SourceID: sourceB.Id, PublishedAt: &now,
	}
	found, err := d.FindNearDuplicate(candidate)
	assert.Nil(t, err)
	assert.Nil(t, found)
}

func TestAbsorbCreditsHigherReliabilitySource(t *testing.T) {
	db := utils.CreateTempDB(t)
	d := NewDeduplicator(db, DefaultConfig())
	lowRel := createTestSource(t, db, "low_rel", 0.6)
	highRel := createTestSource(t, db, "high_rel", 0.9)

	now := time.Now()
	retained := createTestArticle(t, db, lowRel,
		"India and China agree to border disengagement",
		"https://low.example.com/1", "India", now)
	retained.Source = *lowRel

	incoming := &model.Article{
		Id:          uuid.New().String(),
		Title:       "India and China agree to full border disengagement",
		Url:         "https://high.example.com/1",
		Country:     "India",
		SourceID:    highRel.Id,
		Source:      *highRel,
		Content:     "fuller report",
		PublishedAt: &now,
	}

	assert.Nil(t, d.Absorb(retained, incoming))

	var stored model.Article
	assert.Nil(t, db.Where("id = ?", retained.Id).First(&stored).Error)
	assert.Equal(t, highRel.Id, stored.SourceID)
	assert.Equal(t, "https://high.example.com/1", stored.Url)
	assert.Equal(t, "fuller report", stored.Content)
	assert.Equal(t, []string{lowRel.Id}, stored.ProvenanceList())
}

func TestAbsorbKeepsRetainedWhenMoreReliable(t *testing.T) {
	db := utils.CreateTempDB(t)
	d := NewDeduplicator(db, DefaultConfig())
	highRel := createTestSource(t, db, "high_rel", 0.9)
	lowRel := createTestSource(t, db, "low_rel", 0.6)

	now := time.Now()
	retained := createTestArticle(t, db, highRel,
		"India and China agree to border disengagement",
		"https://high.example.com/1", "India", now)
	retained.Source = *highRel

	incoming := &model.Article{
		Id:          uuid.New().String(),
		Title:       "India and China agree to border disengagement",
		Url:         "https://low.example.com/1",
		Country:     "India",
		SourceID:    lowRel.Id,
		Source:      *lowRel,
		PublishedAt: &now,
	}

	assert.Nil(t, d.Absorb(retained, incoming))

	var stored model.Article
	assert.Nil(t, db.Where("id = ?", retained.Id).First(&stored).Error)
	assert.Equal(t, highRel.Id, stored.SourceID)
	assert.Equal(t, "https://high.example.com/1", stored.Url)
	assert.Equal(t, []string{lowRel.Id}, stored.ProvenanceList())
}

func TestCleanupDuplicatesIsIdempotent(t *testing.T) {
	db := utils.CreateTempDB(t)
	d := NewDeduplicator(db, DefaultConfig())
	sourceA := createTestSource(t, db, "source_a", 0.8)
	sourceB := createTestSource(t, db, "source_b", 0.7)

	now := time.Now()
	createTestArticle(t, db, sourceA,
		"India and China agree to border disengagement",
		"https://a.example.com/1", "India", now)
	createTestArticle(t, db, sourceB,
		"BREAKING: India and China agree to border disengagement",
		"https://b.example.com/1", "India", now.Add(10*time.Minute))
	createTestArticle(t, db, sourceB,
		"Completely unrelated monsoon coverage update",
		"https://b.example.com/2", "India", now)

	removed, err := d.CleanupDuplicates()
	assert.Nil(t, err)
	assert.Equal(t, 1, removed)

	removed, err = d.CleanupDuplicates()
	assert.Nil(t, err)
	assert.Equal(t, 0, removed)

	var count int64
	assert.Nil(t, db.Model(&model.Article{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCleanupMergesWhenReliableSourceArrivesSecond(t *testing.T) {
	db := utils.CreateTempDB(t)
	d := NewDeduplicator(db, DefaultConfig())
	lowRel := createTestSource(t, db, "low_rel", 0.6)
	highRel := createTestSource(t, db, "high_rel", 0.9)

	now := time.Now()
	first := createTestArticle(t, db, lowRel,
		"India and China agree to border disengagement",
		"https://low.example.com/1", "India", now)
	second := createTestArticle(t, db, highRel,
		"India and China agree to full border disengagement",
		"https://high.example.com/1", "India", now.Add(5*time.Minute))

	// The stored low-reliability row must be re-keyed onto the later
	// high-reliability row's (source, url) without tripping the
	// uniqueness constraint.
	removed, err := d.CleanupDuplicates()
	assert.Nil(t, err)
	assert.Equal(t, 1, removed)

	var remaining []model.Article
	assert.Nil(t, db.Find(&remaining).Error)
	assert.Equal(t, 1, len(remaining))
	assert.Equal(t, first.Id, remaining[0].Id)
	assert.Equal(t, highRel.Id, remaining[0].SourceID)
	assert.Equal(t, second.Url, remaining[0].Url)
	assert.Equal(t, []string{lowRel.Id}, remaining[0].ProvenanceList())

	removed, err = d.CleanupDuplicates()
	assert.Nil(t, err)
	assert.Equal(t, 0, removed)
}

func TestCleanupBelowRelevance(t *testing.T) {
	db := utils.CreateTempDB(t)
	d := NewDeduplicator(db, DefaultConfig())
	source := createTestSource(t, db, "source_a", 0.8)

	now := time.Now()
	low := createTestArticle(t, db, source, "low relevance", "https://a.example.com/low", "India", now)
	high := createTestArticle(t, db, source, "high relevance", "https://a.example.com/high", "India", now)
	assert.Nil(t, db.Model(low).Update("relevance_score", 0.1).Error)
	assert.Nil(t, db.Model(high).Update("relevance_score", 0.6).Error)

	removed, err := d.CleanupBelowRelevance(0.2)
	assert.Nil(t, err)
	assert.Equal(t, 1, removed)

	var remaining []model.Article
	assert.Nil(t, db.Find(&remaining).Error)
	assert.Equal(t, 1, len(remaining))
	assert.Equal(t, high.Id, remaining[0].Id)
}

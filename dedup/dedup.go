// Package dedup implements the two-tier duplicate policy: exact (source,
// url) re-fetches are skipped via the storage uniqueness constraint, and
// near-duplicate reports of the same event from different sources are merged
// into a single canonical article.
package dedup

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/geomux/geomux/model"
	Logger "github.com/geomux/geomux/utils/log"
)

type Config struct {
	// Two titles are near-duplicates when their normalized word-overlap
	// ratio reaches this threshold.
	SimilarityThreshold float64

	// Near-duplicates must be published within this window of each other.
	TimeWindow time.Duration

	// How far back stored articles are considered when checking an
	// incoming item.
	Lookback time.Duration
}

func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.85,
		TimeWindow:          2 * time.Hour,
		Lookback:            72 * time.Hour,
	}
}

var (
	titlePrefixRe = regexp.MustCompile(`^(breaking|update|exclusive|just in|watch|video|live)[:|\-]?\s*`)
	nonWordRe     = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// NormalizeTitle lowercases, strips wire-style prefixes and punctuation, and
// collapses whitespace so cosmetic differences between outlets don't defeat
// the similarity check.
func NormalizeTitle(title string) string {
	title = strings.ToLower(title)
	title = titlePrefixRe.ReplaceAllString(title, "")
	title = nonWordRe.ReplaceAllString(title, " ")
	title = whitespaceRe.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// TitleSimilarity returns the word-overlap (Jaccard) ratio of two normalized
// titles, in [0,1].
func TitleSimilarity(title1, title2 string) float64 {
	norm1, norm2 := NormalizeTitle(title1), NormalizeTitle(title2)
	if norm1 == norm2 {
		if norm1 == "" {
			return 0
		}
		return 1
	}

	words1 := toSet(strings.Fields(norm1))
	words2 := toSet(strings.Fields(norm2))
	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}

	intersection := 0
	for w := range words1 {
		if words2[w] {
			intersection++
		}
	}
	union := len(words1) + len(words2) - intersection
	return float64(intersection) / float64(union)
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

type Deduplicator struct {
	db     *gorm.DB
	config Config
}

func NewDeduplicator(db *gorm.DB, config Config) *Deduplicator {
	return &Deduplicator{db: db, config: config}
}

// IsExactDuplicate reports whether (source, url) is already stored. The
// insert path additionally relies on the uniqueness constraint, so a lost
// race here is still harmless.
func (d *Deduplicator) IsExactDuplicate(sourceId, url string) (bool, error) {
	var count int64
	err := d.db.Model(&model.Article{}).
		Where("source_id = ? AND url = ?", sourceId, url).
		Count(&count).Error
	return count > 0, err
}

// FindNearDuplicate returns the stored article the candidate is a
// near-duplicate of, or nil. Criteria: title similarity above threshold,
// published within the time window, same country tag, different source.
func (d *Deduplicator) FindNearDuplicate(candidate *model.Article) (*model.Article, error) {
	cutoff := time.Now().Add(-d.config.Lookback)
	var recent []model.Article
	if err := d.db.Preload("Source").
		Where("created_at >= ?", cutoff).
		Find(&recent).Error; err != nil {
		return nil, errors.Wrap(err, "fail to load recent articles for dedup")
	}

	for i := range recent {
		stored := &recent[i]
		if stored.SourceID == candidate.SourceID {
			continue
		}
		if stored.Country != candidate.Country {
			continue
		}
		if !d.withinWindow(stored, candidate) {
			continue
		}
		if TitleSimilarity(stored.Title, candidate.Title) >= d.config.SimilarityThreshold {
			return stored, nil
		}
	}
	return nil, nil
}

// Absorb merges an incoming near-duplicate into the retained row. The
// canonical source is picked by reliability weight, then earliest publish
// time, then lowest source id; the loser's source joins the provenance set
// so no reporting source is lost.
func (d *Deduplicator) Absorb(retained *model.Article, incoming *model.Article) error {
	provenance := retained.ProvenanceList()

	if canonicalIsIncoming(retained, incoming) {
		provenance = appendUnique(provenance, retained.SourceID)
		retained.SourceID = incoming.SourceID
		retained.Source = incoming.Source
		retained.Url = incoming.Url
		retained.Title = incoming.Title
		if incoming.Content != "" {
			retained.Content = incoming.Content
		}
		if incoming.PublishedAt != nil {
			retained.PublishedAt = incoming.PublishedAt
		}
	} else {
		provenance = appendUnique(provenance, incoming.SourceID)
	}
	retained.Provenance = model.EncodeStringList(provenance)

	// When the incoming row is already stored it must be removed before the
	// retained row can take over its (source, url) key, or the save trips
	// the uniqueness constraint.
	return d.db.Transaction(func(tx *gorm.DB) error {
		if !incoming.CreatedAt.IsZero() {
			if err := tx.Unscoped().Delete(&model.Article{}, "id = ?", incoming.Id).Error; err != nil {
				return errors.Wrapf(err, "fail to delete absorbed article %s", incoming.Id)
			}
		}
		return tx.Save(retained).Error
	})
}

// CleanupDuplicates retroactively merges near-duplicates over the stored
// lookback window. Running it twice produces no further changes: the first
// pass leaves no pair above the similarity threshold from distinct sources.
func (d *Deduplicator) CleanupDuplicates() (int, error) {
	cutoff := time.Now().Add(-d.config.Lookback)
	var articles []model.Article
	if err := d.db.Preload("Source").
		Where("created_at >= ?", cutoff).
		Order("created_at asc").
		Find(&articles).Error; err != nil {
		return 0, errors.Wrap(err, "fail to load articles for cleanup")
	}

	deleted := 0
	removed := make(map[string]bool)
	for i := range articles {
		if removed[articles[i].Id] {
			continue
		}
		for j := i + 1; j < len(articles); j++ {
			a, b := &articles[i], &articles[j]
			if removed[b.Id] {
				continue
			}
			if a.SourceID == b.SourceID || a.Country != b.Country {
				continue
			}
			if !d.withinWindow(a, b) {
				continue
			}
			if TitleSimilarity(a.Title, b.Title) < d.config.SimilarityThreshold {
				continue
			}

			if err := d.Absorb(a, b); err != nil {
				return deleted, err
			}
			removed[b.Id] = true
			deleted++
			Logger.Log.Infof("merged duplicate article %q into %q", b.Title, a.Title)
		}
	}
	return deleted, nil
}

// CleanupBelowRelevance removes stored articles whose composite score is
// below the given threshold. Destructive and admin-triggered.
func (d *Deduplicator) CleanupBelowRelevance(threshold float64) (int, error) {
	res := d.db.Unscoped().
		Where("relevance_score < ?", threshold).
		Delete(&model.Article{})
	return int(res.RowsAffected), res.Error
}

func (d *Deduplicator) withinWindow(a, b *model.Article) bool {
	at, bt := publishOrCreateTime(a), publishOrCreateTime(b)
	diff := at.Sub(bt)
	if diff < 0 {
		diff = -diff
	}
	return diff <= d.config.TimeWindow
}

func publishOrCreateTime(a *model.Article) time.Time {
	if a.PublishedAt != nil {
		return *a.PublishedAt
	}
	if a.CreatedAt.IsZero() {
		// Not yet persisted; the fetch time stands in for the publish time.
		return time.Now()
	}
	return a.CreatedAt
}

func canonicalIsIncoming(retained, incoming *model.Article) bool {
	if incoming.Source.Reliability != retained.Source.Reliability {
		return incoming.Source.Reliability > retained.Source.Reliability
	}
	it, rt := publishOrCreateTime(incoming), publishOrCreateTime(retained)
	if !it.Equal(rt) {
		return it.Before(rt)
	}
	return incoming.SourceID < retained.SourceID
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

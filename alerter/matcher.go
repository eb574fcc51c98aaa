// Package alerter evaluates user-defined alert rules against newly scored
// articles and records triggers and notifications. Matching is idempotent:
// the (alert, article) trigger row is unique, so re-running over the same
// article set never double-increments a counter.
package alerter

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/geomux/geomux/model"
	"github.com/geomux/geomux/utils"
	Logger "github.com/geomux/geomux/utils/log"
)

type Matcher struct {
	db *gorm.DB
}

func NewMatcher(db *gorm.DB) *Matcher {
	return &Matcher{db: db}
}

// Matches reports whether one article satisfies one alert's criteria: the
// article's relevance must reach the alert's minimum, and every non-empty
// filter set must intersect the article's corresponding attribute. An empty
// set means "any".
func Matches(alert *model.Alert, article *model.Article) bool {
	if model.LevelRank(article.RelevanceLevel) < model.LevelRank(alert.MinRelevance) {
		return false
	}
	if !emptyOrContains(alert.RegionList(), article.Region) {
		return false
	}
	if !emptyOrContains(alert.CountryList(), article.Country) {
		return false
	}
	if !emptyOrContains(alert.ThemeList(), article.Theme) {
		return false
	}
	if !emptyOrContains(alert.DomainList(), article.Domain) {
		return false
	}
	return matchesKeywords(alert.KeywordList(), article)
}

func emptyOrContains(set []string, value string) bool {
	return len(set) == 0 || utils.ContainsStringIgnoreCase(set, value)
}

// Keyword match is case-insensitive substring match against title and body.
func matchesKeywords(keywords []string, article *model.Article) bool {
	if len(keywords) == 0 {
		return true
	}
	text := strings.ToLower(article.Title + " " + article.Content)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// MatchArticle evaluates every active alert against one article. Returns
// the number of newly recorded triggers.
func (m *Matcher) MatchArticle(article *model.Article) (int, error) {
	var alerts []model.Alert
	if err := m.db.Where("active = ?", true).Find(&alerts).Error; err != nil {
		return 0, err
	}

	triggered := 0
	for i := range alerts {
		alert := &alerts[i]
		if !Matches(alert, article) {
			continue
		}

		newTrigger, err := m.recordTrigger(alert, article)
		if err != nil {
			Logger.Log.Errorf("fail to record trigger for alert %s: %s", alert.Id, err)
			continue
		}
		if newTrigger {
			triggered++
		}
	}
	return triggered, nil
}

// MatchArticleById is MatchArticle keyed by id, for the event-driven worker.
func (m *Matcher) MatchArticleById(articleId string) (int, error) {
	var article model.Article
	if err := m.db.Where("id = ?", articleId).First(&article).Error; err != nil {
		return 0, err
	}
	return m.MatchArticle(&article)
}

// MatchSince evaluates alerts over every article created after the given
// time, the catch-up path when the event-driven worker was down.
func (m *Matcher) MatchSince(ctx context.Context, since time.Time) (int, error) {
	var articles []model.Article
	if err := m.db.Where("created_at > ?", since).Find(&articles).Error; err != nil {
		return 0, err
	}

	total := 0
	for i := range articles {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
		n, err := m.MatchArticle(&articles[i])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// recordTrigger inserts the (alert, article) trigger row. The uniqueness
// constraint makes a replayed match a no-op: only a newly inserted row
// increments the counter, updates the timestamp, and (for immediate alerts)
// emits a notification.
func (m *Matcher) recordTrigger(alert *model.Alert, article *model.Article) (bool, error) {
	trigger := &model.AlertTrigger{
		Id:        uuid.New().String(),
		AlertID:   alert.Id,
		ArticleID: article.Id,
	}
	res := m.db.Clauses(clause.OnConflict{DoNothing: true}).Create(trigger)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	now := time.Now()
	err := m.db.Model(alert).Updates(map[string]interface{}{
		"trigger_count":     gorm.Expr("trigger_count + 1"),
		"last_triggered_at": now,
	}).Error
	if err != nil {
		return true, err
	}

	if alert.Frequency == model.FrequencyImmediate {
		if err := m.emitImmediate(alert, trigger, article); err != nil {
			Logger.Log.Errorf("fail to emit immediate notification for alert %s: %s", alert.Id, err)
		}
	}
	return true, nil
}

func (m *Matcher) emitImmediate(alert *model.Alert, trigger *model.AlertTrigger, article *model.Article) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		notification := &model.Notification{
			Id:         uuid.New().String(),
			AlertID:    alert.Id,
			Kind:       "immediate",
			ArticleIds: model.EncodeStringList([]string{article.Id}),
		}
		if err := tx.Create(notification).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(trigger).Updates(map[string]interface{}{
			"notified":    true,
			"notified_at": now,
		}).Error
	})
}

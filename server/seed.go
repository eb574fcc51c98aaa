package server

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/geomux/geomux/model"
	Logger "github.com/geomux/geomux/utils/log"
)

// DefaultSources is the starter source set: wire agencies, regional outlets
// and defence think tanks, plus the GDELT doc API. Seeding is idempotent,
// the unique name index makes re-seeding a no-op.
var DefaultSources = []model.Source{
	{
		Name:        "Reuters World News",
		Url:         "https://www.reuters.com",
		FeedUrl:     "https://www.reutersagency.com/feed/?best-topics=political-general&post_type=best",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryNewsAgency,
		Country:     "International",
		Reliability: 0.9,
	},
	{
		Name:        "Al Jazeera",
		Url:         "https://www.aljazeera.com",
		FeedUrl:     "https://www.aljazeera.com/xml/rss/all.xml",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryNewsAgency,
		Country:     "Qatar",
		Reliability: 0.7,
	},
	{
		Name:        "The Diplomat",
		Url:         "https://thediplomat.com",
		FeedUrl:     "https://thediplomat.com/feed/",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryThinkTank,
		Country:     "USA",
		Reliability: 0.8,
	},
	{
		Name:        "Defense News",
		Url:         "https://www.defensenews.com",
		FeedUrl:     "https://www.defensenews.com/arc/outboundfeeds/rss/?outputType=xml",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryMilitary,
		Country:     "USA",
		Reliability: 0.8,
	},
	{
		Name:        "CSIS",
		Url:         "https://www.csis.org",
		FeedUrl:     "https://www.csis.org/analysis/feed",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryThinkTank,
		Country:     "USA",
		Reliability: 0.9,
	},
	{
		Name:        "The Hindu - International",
		Url:         "https://www.thehindu.com",
		FeedUrl:     "https://www.thehindu.com/news/international/feeder/default.rss",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryNewsAgency,
		Country:     "India",
		Reliability: 0.8,
	},
	{
		Name:        "Times of India - Defence",
		Url:         "https://timesofindia.indiatimes.com",
		FeedUrl:     "https://timesofindia.indiatimes.com/rssfeeds/4719161.cms",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryNewsAgency,
		Country:     "India",
		Reliability: 0.7,
	},
	{
		Name:        "South China Morning Post",
		Url:         "https://www.scmp.com",
		FeedUrl:     "https://www.scmp.com/rss/91/feed",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryNewsAgency,
		Country:     "Hong Kong",
		Reliability: 0.7,
	},
	{
		Name:        "IDSA - Institute for Defence Studies",
		Url:         "https://www.idsa.in",
		FeedUrl:     "https://www.idsa.in/rss/idsa-comments.xml",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryThinkTank,
		Country:     "India",
		Reliability: 0.9,
	},
	{
		Name:        "ORF - Observer Research Foundation",
		Url:         "https://www.orfonline.org",
		FeedUrl:     "https://www.orfonline.org/feed/",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryThinkTank,
		Country:     "India",
		Reliability: 0.8,
	},
	{
		Name:        "Hindustan Times - World",
		Url:         "https://www.hindustantimes.com",
		FeedUrl:     "https://www.hindustantimes.com/feeds/rss/world-news/rssfeed.xml",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryNewsAgency,
		Country:     "India",
		Reliability: 0.7,
	},
	{
		Name:        "War on the Rocks",
		Url:         "https://warontherocks.com",
		FeedUrl:     "https://warontherocks.com/feed/",
		Type:        model.SourceTypeRss,
		Category:    model.CategoryMilitary,
		Country:     "USA",
		Reliability: 0.8,
	},
	{
		Name:        "GDELT Strategic Monitor",
		Url:         "https://www.gdeltproject.org",
		Type:        model.SourceTypeGdelt,
		Category:    model.CategoryAcademic,
		Country:     "International",
		Reliability: 0.6,
	},
}

// SeedDefaultSources inserts any default source not already present.
// Returns the number of newly created sources.
func SeedDefaultSources(db *gorm.DB) (int, error) {
	created := 0
	for _, source := range DefaultSources {
		source.Id = uuid.New().String()
		source.Active = true
		source.FetchIntervalMinutes = 30
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&source)
		if res.Error != nil {
			return created, res.Error
		}
		created += int(res.RowsAffected)
	}
	Logger.Log.Infof("seeded %d default sources", created)
	return created, nil
}

package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/geomux/geomux/collector"
	"github.com/geomux/geomux/model"
)

func TestNormalizeItemRejectsMissingUrl(t *testing.T) {
	source := &model.Source{Id: "s1", Name: "test source"}

	_, err := NormalizeItem(collector.RawItem{Title: "a headline"}, source)
	assert.Equal(t, ErrMissingUrl, err)

	_, err = NormalizeItem(collector.RawItem{Title: "a headline", Url: "   "}, source)
	assert.Equal(t, ErrMissingUrl, err)
}

func TestNormalizeItemFallsBackToUrlTitle(t *testing.T) {
	source := &model.Source{Id: "s1"}

	article, err := NormalizeItem(collector.RawItem{Url: "https://example.com/story"}, source)
	assert.Nil(t, err)
	assert.Equal(t, "https://example.com/story", article.Title)
	assert.Equal(t, model.ProcessedPending, article.Processed)
	assert.NotEmpty(t, article.Id)
}

func TestNormalizeItemParsesPublishTime(t *testing.T) {
	source := &model.Source{Id: "s1"}

	published := time.Date(2024, 3, 1, 10, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	article, err := NormalizeItem(collector.RawItem{
		Url:       "https://example.com/a",
		Published: &published,
	}, source)
	assert.Nil(t, err)
	assert.Equal(t, published.UTC(), *article.PublishedAt)

	article, err = NormalizeItem(collector.RawItem{
		Url:          "https://example.com/b",
		PublishedRaw: "2024-03-01T10:30:00Z",
	}, source)
	assert.Nil(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), *article.PublishedAt)

	// Unparseable publish time is tolerated, not fatal.
	article, err = NormalizeItem(collector.RawItem{
		Url:          "https://example.com/c",
		PublishedRaw: "not a timestamp",
	}, source)
	assert.Nil(t, err)
	assert.Nil(t, article.PublishedAt)
}

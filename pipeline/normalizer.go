package pipeline

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/geomux/geomux/collector"
	"github.com/geomux/geomux/model"
)

// ErrMissingUrl marks an item whose canonical URL cannot be derived. Such
// items are rejected, counted, and never retried.
var ErrMissingUrl = errors.New("raw item has no canonical url")

// NormalizeItem maps one adapter raw item to the canonical Article shape.
// Pure and side-effect free: missing optional fields (author, image,
// publish time) are left unset rather than failing the item.
func NormalizeItem(item collector.RawItem, source *model.Source) (*model.Article, error) {
	url := strings.TrimSpace(item.Url)
	if url == "" {
		return nil, ErrMissingUrl
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		// Headline-only sources must still produce a title; fall back to
		// the URL so the article stays identifiable.
		title = url
	}

	article := &model.Article{
		Id:        uuid.New().String(),
		Title:     title,
		Content:   item.Content,
		Url:       url,
		Author:    item.Author,
		ImageUrl:  item.ImageUrl,
		SourceID:  source.Id,
		Source:    *source,
		Processed: model.ProcessedPending,
	}

	article.PublishedAt = parsePublishTime(item)
	return article, nil
}

func parsePublishTime(item collector.RawItem) *time.Time {
	if item.Published != nil {
		t := item.Published.UTC()
		return &t
	}
	if item.PublishedRaw == "" {
		return nil
	}
	t, err := dateparse.ParseAny(item.PublishedRaw)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

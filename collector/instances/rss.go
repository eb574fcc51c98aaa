package collector_instances

import (
	"context"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"

	Collector "github.com/geomux/geomux/collector"
	"github.com/geomux/geomux/model"
)

// Cap per fetch, a single cycle should never drain a whole archive feed.
const maxItemsPerFeed = 50

type RssAdapter struct {
	parser *gofeed.Parser
}

func NewRssAdapter() *RssAdapter {
	return &RssAdapter{parser: gofeed.NewParser()}
}

func (a *RssAdapter) Collect(ctx context.Context, source *model.Source) ([]Collector.RawItem, error) {
	if source.FeedUrl == "" {
		return nil, Collector.NewFetchError(Collector.FetchErrorParse,
			errors.Errorf("source %s has no feed url", source.Name))
	}

	feed, err := a.parser.ParseURLWithContext(source.FeedUrl, ctx)
	if err != nil {
		return nil, classifyFeedError(err)
	}

	items := []Collector.RawItem{}
	for i, entry := range feed.Items {
		if i >= maxItemsPerFeed {
			break
		}
		item := Collector.RawItem{
			Title:        entry.Title,
			Url:          entry.Link,
			Content:      Collector.CleanContent(entryContent(entry)),
			PublishedRaw: entry.Published,
		}
		if entry.PublishedParsed != nil {
			item.Published = entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.Published = entry.UpdatedParsed
		}
		if entry.Author != nil {
			item.Author = entry.Author.Name
		}
		if entry.Image != nil {
			item.ImageUrl = entry.Image.URL
		}
		items = append(items, item)
	}
	return items, nil
}

// Feeds populate different fields in the wild, prefer full content over the
// summary.
func entryContent(entry *gofeed.Item) string {
	if entry.Content != "" {
		return entry.Content
	}
	return entry.Description
}

func classifyFeedError(err error) error {
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == 401 || httpErr.StatusCode == 403:
			return Collector.NewFetchError(Collector.FetchErrorAuth, err)
		case httpErr.StatusCode == 429:
			return Collector.NewFetchError(Collector.FetchErrorRateLimited, err)
		}
		return Collector.NewFetchError(Collector.FetchErrorNetwork, err)
	}
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return Collector.NewFetchError(Collector.FetchErrorParse, err)
	}
	return Collector.NewFetchError(Collector.FetchErrorNetwork, err)
}

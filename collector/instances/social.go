package collector_instances

import (
	"context"
	"strings"

	twitterscraper "github.com/n0madic/twitter-scraper"
	"github.com/pkg/errors"

	Collector "github.com/geomux/geomux/collector"
	"github.com/geomux/geomux/model"
)

const maxTweetsPerAccount = 50

// SocialAdapter collects recent posts from a social account's timeline. The
// account handle is the source's FeedUrl (e.g. "DeptofDefense"). A post's
// text doubles as its title since timelines have no separate headline.
type SocialAdapter struct {
	scraper *twitterscraper.Scraper
}

func NewSocialAdapter() *SocialAdapter {
	return &SocialAdapter{scraper: twitterscraper.New()}
}

func (a *SocialAdapter) Collect(ctx context.Context, source *model.Source) ([]Collector.RawItem, error) {
	handle := strings.TrimPrefix(source.FeedUrl, "@")
	if handle == "" {
		return nil, Collector.NewFetchError(Collector.FetchErrorParse,
			errors.Errorf("source %s has no account handle", source.Name))
	}

	items := []Collector.RawItem{}
	for result := range a.scraper.GetTweets(ctx, handle, maxTweetsPerAccount) {
		if result.Error != nil {
			// A mid-stream failure still yields the items collected so far;
			// the coordinator records the source as partial.
			if len(items) > 0 {
				return items, nil
			}
			return nil, classifyScraperError(result.Error)
		}
		if result.IsRetweet {
			continue
		}
		published := result.TimeParsed
		item := Collector.RawItem{
			Title:     titleFromText(result.Text),
			Url:       result.PermanentURL,
			Content:   result.Text,
			Author:    result.Username,
			Published: &published,
		}
		if len(result.Photos) > 0 {
			item.ImageUrl = result.Photos[0]
		}
		items = append(items, item)
	}
	return items, nil
}

// titleFromText derives a headline from the first line of a post, capped so
// the title column stays scannable.
func titleFromText(text string) string {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		line = text[:idx]
	}
	if len(line) > 140 {
		line = line[:140]
	}
	return strings.TrimSpace(line)
}

func classifyScraperError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return Collector.NewFetchError(Collector.FetchErrorRateLimited, err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "403"):
		return Collector.NewFetchError(Collector.FetchErrorAuth, err)
	}
	return Collector.NewFetchError(Collector.FetchErrorNetwork, err)
}

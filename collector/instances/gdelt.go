package collector_instances

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"

	Collector "github.com/geomux/geomux/collector"
	"github.com/geomux/geomux/collector/clients"
	"github.com/geomux/geomux/model"
)

const (
	GdeltBaseUrl = "https://api.gdeltproject.org/api/v2/doc/doc"

	// GDELT seendate format, e.g. 20211207T120000Z.
	gdeltTimeLayout = "20060102T150405Z"

	// Default strategic query when the source doesn't configure one.
	gdeltDefaultQuery = "(theme:MILITARY OR theme:ARMEDCONFLICT OR theme:DIPLOMACY OR theme:WMD OR theme:TERROR)"
)

type GdeltArticle struct {
	Url           string `json:"url"`
	Title         string `json:"title"`
	SeenDate      string `json:"seendate"`
	SocialImage   string `json:"socialimage"`
	Domain        string `json:"domain"`
	Language      string `json:"language"`
	SourceCountry string `json:"sourcecountry"`
}

type GdeltApiResponse struct {
	Articles []GdeltArticle `json:"articles"`
}

// GdeltAdapter polls the GDELT 2.0 doc API, the global-events database. The
// API is keyless and returns headline-level items only; bodies stay empty
// and scoring runs on titles.
type GdeltAdapter struct {
	client *clients.HttpClient
}

func NewGdeltAdapter() *GdeltAdapter {
	return &GdeltAdapter{client: clients.NewDefaultHttpClient()}
}

func (a *GdeltAdapter) Collect(ctx context.Context, source *model.Source) ([]Collector.RawItem, error) {
	query := source.FeedUrl
	if query == "" {
		query = gdeltDefaultQuery
	}

	res, err := a.client.GetWithQueryParams(ctx, GdeltBaseUrl, map[string]string{
		"query":      query,
		"format":     "json",
		"mode":       "ArtList",
		"timespan":   "24h",
		"maxrecords": "50",
		"sort":       "DateDesc",
	})
	if err != nil {
		if res != nil && res.StatusCode == http.StatusTooManyRequests {
			return nil, Collector.NewFetchError(Collector.FetchErrorRateLimited, err)
		}
		return nil, Collector.NewFetchError(Collector.FetchErrorNetwork, err)
	}
	defer res.Body.Close()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, Collector.NewFetchError(Collector.FetchErrorNetwork, err)
	}

	resp := &GdeltApiResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, Collector.NewFetchError(Collector.FetchErrorParse,
			errors.Wrap(err, "fail to parse GDELT response"))
	}

	items := []Collector.RawItem{}
	for _, article := range resp.Articles {
		item := Collector.RawItem{
			Title:        article.Title,
			Url:          article.Url,
			ImageUrl:     article.SocialImage,
			PublishedRaw: article.SeenDate,
		}
		if t, err := time.Parse(gdeltTimeLayout, article.SeenDate); err == nil {
			item.Published = &t
		}
		items = append(items, item)
	}
	return items, nil
}

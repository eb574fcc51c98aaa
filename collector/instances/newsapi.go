package collector_instances

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"

	Collector "github.com/geomux/geomux/collector"
	"github.com/geomux/geomux/collector/clients"
	"github.com/geomux/geomux/model"
)

const (
	NewsApiBaseUrl = "https://newsapi.org/v2/everything"

	newsApiDefaultQuery = "geopolitics OR defence OR military"
	newsApiLookbackDays = 7
)

type NewsApiArticle struct {
	Title       string `json:"title"`
	Url         string `json:"url"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Author      string `json:"author"`
	UrlToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

type NewsApiResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []NewsApiArticle `json:"articles"`
}

// NewsApiAdapter fetches from the newsapi.org everything endpoint. The query
// string is configured per source via FeedUrl; the API key comes from env so
// it never lands in the sources table.
type NewsApiAdapter struct {
	client *clients.HttpClient
}

func NewNewsApiAdapter() *NewsApiAdapter {
	return &NewsApiAdapter{client: clients.NewDefaultHttpClient()}
}

func (a *NewsApiAdapter) Collect(ctx context.Context, source *model.Source) ([]Collector.RawItem, error) {
	apiKey := os.Getenv("NEWSAPI_KEY")
	if apiKey == "" {
		return nil, Collector.NewFetchError(Collector.FetchErrorAuth,
			errors.New("NEWSAPI_KEY is not configured"))
	}

	query := source.FeedUrl
	if query == "" {
		query = newsApiDefaultQuery
	}

	from := time.Now().AddDate(0, 0, -newsApiLookbackDays).Format("2006-01-02")
	res, err := a.client.GetWithQueryParams(ctx, NewsApiBaseUrl, map[string]string{
		"q":        query,
		"from":     from,
		"sortBy":   "relevancy",
		"pageSize": "50",
		"language": "en",
		"apiKey":   apiKey,
	})
	if err != nil {
		if res != nil {
			switch res.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, Collector.NewFetchError(Collector.FetchErrorAuth, err)
			case http.StatusTooManyRequests:
				return nil, Collector.NewFetchError(Collector.FetchErrorRateLimited, err)
			}
		}
		return nil, Collector.NewFetchError(Collector.FetchErrorNetwork, err)
	}
	defer res.Body.Close()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, Collector.NewFetchError(Collector.FetchErrorNetwork, err)
	}

	resp := &NewsApiResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, Collector.NewFetchError(Collector.FetchErrorParse,
			errors.Wrap(err, "fail to parse NewsAPI response"))
	}
	if resp.Status != "ok" {
		if resp.Code == "rateLimited" {
			return nil, Collector.NewFetchError(Collector.FetchErrorRateLimited, errors.New(resp.Message))
		}
		return nil, Collector.NewFetchError(Collector.FetchErrorParse, errors.New(resp.Message))
	}

	items := []Collector.RawItem{}
	for _, article := range resp.Articles {
		content := article.Content
		if content == "" {
			content = article.Description
		}
		item := Collector.RawItem{
			Title:        article.Title,
			Url:          article.Url,
			Content:      Collector.CleanContent(content),
			Author:       article.Author,
			ImageUrl:     article.UrlToImage,
			PublishedRaw: article.PublishedAt,
		}
		if t, err := time.Parse(time.RFC3339, article.PublishedAt); err == nil {
			item.Published = &t
		}
		items = append(items, item)
	}
	return items, nil
}

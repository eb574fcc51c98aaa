package collector_instances

import (
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	Collector "github.com/geomux/geomux/collector"
)

func TestTitleFromText(t *testing.T) {
	assert.Equal(t, "First line", titleFromText("First line\nsecond line"))
	assert.Equal(t, "no newline at all", titleFromText("no newline at all"))

	long := strings.Repeat("x", 200)
	assert.Equal(t, 140, len(titleFromText(long)))
}

func TestClassifyFeedError(t *testing.T) {
	assert.Equal(t, Collector.FetchErrorAuth,
		Collector.FetchErrorKindOf(classifyFeedError(gofeed.HTTPError{StatusCode: 403})))
	assert.Equal(t, Collector.FetchErrorRateLimited,
		Collector.FetchErrorKindOf(classifyFeedError(gofeed.HTTPError{StatusCode: 429})))
	assert.Equal(t, Collector.FetchErrorNetwork,
		Collector.FetchErrorKindOf(classifyFeedError(gofeed.HTTPError{StatusCode: 500})))
	assert.Equal(t, Collector.FetchErrorParse,
		Collector.FetchErrorKindOf(classifyFeedError(gofeed.ErrFeedTypeNotDetected)))
	assert.Equal(t, Collector.FetchErrorNetwork,
		Collector.FetchErrorKindOf(classifyFeedError(errors.New("dial tcp: timeout"))))
}

func TestClassifyScraperError(t *testing.T) {
	assert.Equal(t, Collector.FetchErrorRateLimited,
		Collector.FetchErrorKindOf(classifyScraperError(errors.New("response status 429"))))
	assert.Equal(t, Collector.FetchErrorAuth,
		Collector.FetchErrorKindOf(classifyScraperError(errors.New("response status 401 Unauthorized"))))
	assert.Equal(t, Collector.FetchErrorNetwork,
		Collector.FetchErrorKindOf(classifyScraperError(errors.New("connection reset"))))
}

func TestEntryContentPrefersFullContent(t *testing.T) {
	entry := &gofeed.Item{Content: "full body", Description: "summary"}
	assert.Equal(t, "full body", entryContent(entry))

	entry = &gofeed.Item{Description: "summary"}
	assert.Equal(t, "summary", entryContent(entry))
}

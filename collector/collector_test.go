package collector

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestHtmlToText(t *testing.T) {
	text, err := HtmlToText(`<p>India and <b>China</b> resume talks.<br>Commanders met today.</p>`)
	assert.Nil(t, err)
	assert.Equal(t, "India and China resume talks.\nCommanders met today.", text)
}

func TestCleanContentTruncates(t *testing.T) {
	long := strings.Repeat("a", MaxContentLength+100)
	assert.Equal(t, MaxContentLength, len(CleanContent(long)))
}

func TestFetchErrorKindOf(t *testing.T) {
	assert.Equal(t, FetchErrorAuth,
		FetchErrorKindOf(NewFetchError(FetchErrorAuth, errors.New("401"))))

	// Wrapped typed errors still report their kind.
	wrapped := errors.Wrap(NewFetchError(FetchErrorRateLimited, errors.New("429")), "fetch source")
	assert.Equal(t, FetchErrorRateLimited, FetchErrorKindOf(wrapped))

	// Untyped failures default to network.
	assert.Equal(t, FetchErrorNetwork, FetchErrorKindOf(errors.New("boom")))
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Get("rss")
	assert.NotNil(t, err)

	adapter := &stubAdapter{}
	registry.Register("rss", adapter)
	got, err := registry.Get("rss")
	assert.Nil(t, err)
	assert.Equal(t, adapter, got)
}

type stubAdapter struct {
	Adapter
}

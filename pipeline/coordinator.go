package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/geomux/geomux/collector"
	"github.com/geomux/geomux/model"
	Logger "github.com/geomux/geomux/utils/log"
)

// SourceFetch is the outcome of one adapter invocation: the raw items on
// success, or the typed failure recorded against the source.
type SourceFetch struct {
	Source *model.Source
	Items  []collector.RawItem
	Err    error
}

// FetchCoordinator invokes one adapter per source concurrently, bounded by a
// worker semaphore so the process stays under external rate limits. A single
// source's failure never aborts the cycle.
type FetchCoordinator struct {
	registry    *collector.Registry
	concurrency int
	timeout     time.Duration
}

func NewFetchCoordinator(registry *collector.Registry, concurrency int, timeout time.Duration) *FetchCoordinator {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &FetchCoordinator{registry: registry, concurrency: concurrency, timeout: timeout}
}

// FetchAll runs every source's adapter and collects all results. Each
// adapter call runs under its own timeout and is independently cancelled;
// results come back in no particular order.
func (c *FetchCoordinator) FetchAll(ctx context.Context, sources []*model.Source) []SourceFetch {
	results := make([]SourceFetch, len(sources))
	sem := make(chan struct{}, c.concurrency)

	var wg sync.WaitGroup
	for i := range sources {
		wg.Add(1)
		go func(idx int, source *model.Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = c.fetchOne(ctx, source)
		}(i, sources[i])
	}
	wg.Wait()

	return results
}

func (c *FetchCoordinator) fetchOne(ctx context.Context, source *model.Source) SourceFetch {
	adapter, err := c.registry.Get(source.Type)
	if err != nil {
		return SourceFetch{Source: source, Err: collector.NewFetchError(collector.FetchErrorParse, err)}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	items, err := adapter.Collect(fetchCtx, source)
	if err != nil {
		Logger.Log.Errorf("fail to fetch source %s (%s): %s",
			source.Name, collector.FetchErrorKindOf(err), err)
		return SourceFetch{Source: source, Err: err}
	}
	return SourceFetch{Source: source, Items: items}
}

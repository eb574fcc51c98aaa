package modules

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/geomux/geomux/engine"
	"github.com/geomux/geomux/enricher"
	Logger "github.com/geomux/geomux/utils/log"
)

type EnrichWorkerConfig struct {
	// Name of the enrichment worker.
	Name string

	// SweepInterval is the cadence of the catch-up pass that re-attempts
	// articles whose earlier enrichment failed.
	SweepInterval time.Duration
}

// EnrichWorker enriches articles as they are scored. It subscribes to the
// scored-article topic for the fast path and periodically sweeps the backlog
// for articles whose earlier attempts failed and whose retry backoff has
// elapsed.
type EnrichWorker struct {
	Config EnrichWorkerConfig

	Orchestrator *enricher.Orchestrator

	EventBus *gochannel.GoChannel
}

func NewEnrichWorker(config EnrichWorkerConfig, orchestrator *enricher.Orchestrator, e *gochannel.GoChannel) *EnrichWorker {
	if config.SweepInterval <= 0 {
		config.SweepInterval = 5 * time.Minute
	}
	return &EnrichWorker{
		Config:       config,
		Orchestrator: orchestrator,
		EventBus:     e,
	}
}

func (w *EnrichWorker) RunModule(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := w.EventBus.Subscribe(ctx, engine.TopicScoredArticle)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.Config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			msg.Ack()

			var event engine.ScoredArticleEvent
			if err := engine.DecodeEvent(msg, &event); err != nil {
				Logger.Log.Errorf("fail to decode scored article event: %s", err)
				continue
			}
			if err := w.Orchestrator.EnrichArticle(ctx, event.ArticleId); err != nil {
				Logger.Log.Errorf("fail to enrich article %s: %s", event.ArticleId, err)
			}
		case <-ticker.C:
			enriched, err := w.Orchestrator.EnrichPending(ctx, false)
			if err != nil {
				Logger.Log.Errorf("enrichment sweep failed: %s", err)
			} else if enriched > 0 {
				Logger.Log.Infof("enrichment sweep enriched %d articles", enriched)
			}
		}
	}
}

func (w *EnrichWorker) Name() string {
	return w.Config.Name
}

func (w *EnrichWorker) Shutdown() {
	Logger.Log.Infoln("Module ", w.Config.Name, " gracefully shutdown")
}

package modules

import (
	"context"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/geomux/geomux/engine"
	Logger "github.com/geomux/geomux/utils/log"
)

// Datadog metric names emitted by the reporter.
const (
	DdogCycleResultCounter   = "geomux.pipeline.source_cycle"
	DdogArticleSavedCounter  = "geomux.pipeline.article_saved"
	DdogArticleScoredCounter = "geomux.pipeline.article_scored"
)

type ReporterConfig struct {
	Name string
}

// Reporter's job is to listen to different channels and aggregate results,
// sending to Datadog (Or other service if there's any) for monitoring purpose.
type Reporter struct {
	Config ReporterConfig

	Statsd *statsd.Client

	EventBus *gochannel.GoChannel
}

func NewReporter(config ReporterConfig, statsd *statsd.Client, e *gochannel.GoChannel) *Reporter {
	return &Reporter{
		Config:   config,
		Statsd:   statsd,
		EventBus: e,
	}
}

// Report one source's fetch cycle outcome to datadog.
func ReportCycleResult(event *engine.CycleResultEvent, statsd *statsd.Client) {
	tags := []string{event.SourceName, event.Status}
	if err := statsd.Incr(DdogCycleResultCounter, tags, 1); err != nil {
		Logger.Log.Infoln("cannot report cycle result")
	}
	if event.Saved > 0 {
		if err := statsd.Count(DdogArticleSavedCounter, int64(event.Saved), tags, 1); err != nil {
			Logger.Log.Infoln("cannot report saved article count")
		}
	}
}

func (r *Reporter) processCycleResults(ctx context.Context) error {
	messages, err := r.EventBus.Subscribe(ctx, engine.TopicCycleResult)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		var event engine.CycleResultEvent
		if err := engine.DecodeEvent(msg, &event); err != nil {
			Logger.Log.Errorf("fail to decode cycle result: %s", err)
			continue
		}
		ReportCycleResult(&event, r.Statsd)
	}

	return nil
}

func (r *Reporter) processScoredArticles(ctx context.Context) error {
	messages, err := r.EventBus.Subscribe(ctx, engine.TopicScoredArticle)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		if err := r.Statsd.Incr(DdogArticleScoredCounter, nil, 1); err != nil {
			Logger.Log.Infoln("cannot report scored article")
		}
	}

	return nil
}

func (r *Reporter) RunModule(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := r.processScoredArticles(ctx); err != nil {
			Logger.Log.Errorf("fail to process scored articles: %s", err)
		}
	}()

	return r.processCycleResults(ctx)
}

func (r *Reporter) Name() string {
	return r.Config.Name
}

func (r *Reporter) Shutdown() {
	Logger.Log.Infoln("Module ", r.Config.Name, " gracefully shutdown")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"

	"github.com/geomux/geomux/alerter"
	"github.com/geomux/geomux/collector/builder"
	"github.com/geomux/geomux/engine"
	"github.com/geomux/geomux/engine/modules"
	"github.com/geomux/geomux/enricher"
	"github.com/geomux/geomux/pipeline"
	"github.com/geomux/geomux/scorer"
	"github.com/geomux/geomux/server"
	"github.com/geomux/geomux/utils"
	"github.com/geomux/geomux/utils/dotenv"
	Logger "github.com/geomux/geomux/utils/log"
)

func init() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
}

func NewDogStatsdClient() *statsd.Client {
	client, err := statsd.New("127.0.0.1:8125")
	if err != nil {
		panic(err)
	}
	return client
}

func main() {
	if utils.IsProdEnv() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		panic(err)
	}
	if err := utils.DatabaseSetupAndMigration(db); err != nil {
		panic(err)
	}

	eventbus := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            100,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)
	ctx, cancel := context.WithCancel(context.Background())

	// Newly persisted articles fan out to the enrichment and alert workers
	// through the event bus.
	onScored := func(articleId string) {
		msg, err := engine.NewEventMessage(engine.ScoredArticleEvent{ArticleId: articleId})
		if err != nil {
			Logger.Log.Errorf("fail to encode scored article event: %s", err)
			return
		}
		if err := eventbus.Publish(engine.TopicScoredArticle, msg); err != nil {
			Logger.Log.Errorf("fail to publish scored article %s: %s", articleId, err)
		}
	}

	p := pipeline.NewPipeline(db, builder.DefaultRegistry(), scorer.NewDefaultScorer(), pipeline.DefaultConfig(), onScored)
	orchestrator := enricher.NewOrchestrator(db, enricher.NewLlmAnalyzer(), enricher.DefaultConfig())
	matcher := alerter.NewMatcher(db)
	notifier := alerter.NewNotifier(db)

	// The Redis in-flight guard is optional: without it the worker falls back
	// to the storage uniqueness constraints alone.
	guard, err := utils.GetRedisStatusStore()
	if err != nil {
		Logger.Log.Infof("redis unavailable, running without fetch cycle guard: %s", err)
		guard = nil
	}

	ms := []engine.Module{
		modules.NewScheduler(modules.SchedulerConfig{Name: "scheduler"}, db, eventbus),
		modules.NewPipelineWorker(modules.PipelineWorkerConfig{Name: "pipeline_worker"}, db, p, guard, eventbus),
		modules.NewEnrichWorker(modules.EnrichWorkerConfig{Name: "enrich_worker"}, orchestrator, eventbus),
		modules.NewAlertWorker(modules.AlertWorkerConfig{Name: "alert_worker"}, matcher, notifier, eventbus),
		modules.NewReporter(modules.ReporterConfig{Name: "reporter"}, NewDogStatsdClient(), eventbus),
	}

	e := engine.NewEngine(ms, ctx, cancel, eventbus)

	go func() {
		router := server.NewRouter(server.NewHandler(db, p, orchestrator, p.Deduplicator()))
		Logger.Log.Info("api server starts up")
		if err := router.Run(":8080"); err != nil {
			Logger.Log.Errorf("api server exited: %s", err)
		}
	}()

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		e.Shutdown()
	}()

	// Blocking call.
	e.Run()

	Logger.Log.Infoln("engine stopped execution.")
}

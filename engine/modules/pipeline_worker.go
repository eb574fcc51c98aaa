package modules

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"

	"github.com/geomux/geomux/engine"
	"github.com/geomux/geomux/model"
	"github.com/geomux/geomux/pipeline"
	"github.com/geomux/geomux/utils"
	Logger "github.com/geomux/geomux/utils/log"
)

type PipelineWorkerConfig struct {
	// Name of the pipeline worker.
	Name string

	// InFlightTtl bounds how long a source stays marked in flight if the
	// worker dies mid-cycle.
	InFlightTtl time.Duration
}

// PipelineWorker consumes fetch jobs from the event bus and runs one fetch
// cycle per job. A Redis in-flight guard drops jobs for sources that are
// already being fetched, so overlapping schedules and manual triggers never
// run the same source concurrently.
type PipelineWorker struct {
	Config PipelineWorkerConfig

	DB *gorm.DB

	Pipeline *pipeline.Pipeline

	// Guard is optional. Without Redis the worker still runs, relying on the
	// storage uniqueness constraints alone for idempotency.
	Guard *utils.RedisStatusStore

	EventBus *gochannel.GoChannel
}

func NewPipelineWorker(config PipelineWorkerConfig, db *gorm.DB, p *pipeline.Pipeline, guard *utils.RedisStatusStore, e *gochannel.GoChannel) *PipelineWorker {
	if config.InFlightTtl <= 0 {
		config.InFlightTtl = 10 * time.Minute
	}
	return &PipelineWorker{
		Config:   config,
		DB:       db,
		Pipeline: p,
		Guard:    guard,
		EventBus: e,
	}
}

func (w *PipelineWorker) RunModule(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := w.EventBus.Subscribe(ctx, engine.TopicFetchJob)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		var job engine.FetchJobEvent
		if err := engine.DecodeEvent(msg, &job); err != nil {
			Logger.Log.Errorf("fail to decode fetch job: %s", err)
			continue
		}
		w.runJob(ctx, job)
	}

	return nil
}

func (w *PipelineWorker) runJob(ctx context.Context, job engine.FetchJobEvent) {
	var source model.Source
	if err := w.DB.Where("id = ?", job.SourceId).First(&source).Error; err != nil {
		Logger.Log.Errorf("fetch job for unknown source %s: %s", job.SourceId, err)
		return
	}

	if w.Guard != nil {
		acquired, err := w.Guard.TryMarkSourceInFlight(ctx, source.Id, w.Config.InFlightTtl)
		if err != nil {
			Logger.Log.Errorf("fail to mark source %s in flight: %s", source.Id, err)
		} else if !acquired {
			Logger.Log.Infof("source %s already in flight, skipping", source.Id)
			return
		}
		defer func() {
			if err := w.Guard.ClearSourceInFlight(ctx, source.Id); err != nil {
				Logger.Log.Errorf("fail to clear in flight mark for source %s: %s", source.Id, err)
			}
		}()
	}

	summary := w.Pipeline.RunCycleForSources(ctx, []*model.Source{&source})
	for _, result := range summary.PerSource {
		w.publishCycleResult(result)
	}
}

func (w *PipelineWorker) publishCycleResult(result pipeline.SourceResult) {
	msg, err := engine.NewEventMessage(engine.CycleResultEvent{
		SourceId:   result.SourceId,
		SourceName: result.SourceName,
		Status:     result.Status,
		Saved:      result.Saved,
		Duplicates: result.Duplicates,
		Rejected:   result.Rejected,
	})
	if err != nil {
		Logger.Log.Errorf("fail to encode cycle result for source %s: %s", result.SourceId, err)
		return
	}
	if err := w.EventBus.Publish(engine.TopicCycleResult, msg); err != nil {
		Logger.Log.Errorf("fail to publish cycle result for source %s: %s", result.SourceId, err)
	}
}

func (w *PipelineWorker) Name() string {
	return w.Config.Name
}

func (w *PipelineWorker) Shutdown() {
	Logger.Log.Infoln("Module ", w.Config.Name, " gracefully shutdown")
}

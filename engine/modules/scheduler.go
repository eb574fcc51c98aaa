package modules

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"

	"github.com/geomux/geomux/engine"
	"github.com/geomux/geomux/model"
	Logger "github.com/geomux/geomux/utils/log"
)

type SchedulerConfig struct {
	// Name of the scheduler.
	Name string

	// TickInterval is how often the scheduler checks for due sources.
	TickInterval time.Duration
}

// Scheduler walks the active sources on every tick and enqueues a fetch job
// for each source whose cadence has elapsed. The actual fetching happens in
// the pipeline worker, so a slow source never delays scheduling of others.
type Scheduler struct {
	Config SchedulerConfig

	DB *gorm.DB

	EventBus *gochannel.GoChannel
}

// Return a new instance of Scheduler.
func NewScheduler(config SchedulerConfig, db *gorm.DB, e *gochannel.GoChannel) *Scheduler {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Minute
	}
	return &Scheduler{
		Config:   config,
		DB:       db,
		EventBus: e,
	}
}

func (s *Scheduler) RunModule(ctx context.Context) error {
	ticker := time.NewTicker(s.Config.TickInterval)
	defer ticker.Stop()

	// Enqueue once at startup so a fresh deployment does not sit idle for a
	// full tick.
	s.enqueueDueSources(time.Now())

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.enqueueDueSources(now)
		}
	}
}

func (s *Scheduler) enqueueDueSources(now time.Time) {
	var sources []model.Source
	if err := s.DB.Where("active = ?", true).Find(&sources).Error; err != nil {
		Logger.Log.Errorf("scheduler fails to load sources: %s", err)
		return
	}

	for i := range sources {
		source := &sources[i]
		if !s.isDue(source, now) {
			continue
		}
		msg, err := engine.NewEventMessage(engine.FetchJobEvent{SourceId: source.Id})
		if err != nil {
			Logger.Log.Errorf("fail to encode fetch job for source %s: %s", source.Id, err)
			continue
		}
		if err := s.EventBus.Publish(engine.TopicFetchJob, msg); err != nil {
			Logger.Log.Errorf("fail to publish fetch job for source %s: %s", source.Id, err)
		}
	}
}

// A source is due when it has never been fetched, or its configured interval
// has elapsed since the last fetch. A zero interval means the source is only
// fetched on demand through the API.
func (s *Scheduler) isDue(source *model.Source, now time.Time) bool {
	if source.FetchIntervalMinutes <= 0 {
		return false
	}
	if source.LastFetchedAt == nil {
		return true
	}
	interval := time.Duration(source.FetchIntervalMinutes) * time.Minute
	return now.Sub(*source.LastFetchedAt) >= interval
}

func (s *Scheduler) Name() string {
	return s.Config.Name
}

func (s *Scheduler) Shutdown() {
	Logger.Log.Infoln("Module ", s.Config.Name, " gracefully shutdown")
}

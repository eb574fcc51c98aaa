package modules

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/geomux/geomux/engine"
	"github.com/geomux/geomux/model"
	"github.com/geomux/geomux/utils"
)

func newTestEventBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 10},
		watermill.NewStdLogger(false, false),
	)
}

func TestSchedulerIsDue(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Name: "scheduler"}, nil, nil)
	now := time.Now()

	// Never fetched.
	assert.True(t, s.isDue(&model.Source{FetchIntervalMinutes: 30}, now))

	// On-demand only.
	assert.False(t, s.isDue(&model.Source{FetchIntervalMinutes: 0}, now))

	recent := now.Add(-10 * time.Minute)
	assert.False(t, s.isDue(&model.Source{FetchIntervalMinutes: 30, LastFetchedAt: &recent}, now))

	stale := now.Add(-40 * time.Minute)
	assert.True(t, s.isDue(&model.Source{FetchIntervalMinutes: 30, LastFetchedAt: &stale}, now))
}

func TestSchedulerEnqueuesDueSources(t *testing.T) {
	db := utils.CreateTempDB(t)
	bus := newTestEventBus()

	due := &model.Source{
		Id:                   uuid.New().String(),
		Name:                 "due source",
		Type:                 model.SourceTypeRss,
		Active:               true,
		FetchIntervalMinutes: 30,
	}
	assert.Nil(t, db.Create(due).Error)

	inactive := &model.Source{
		Id:                   uuid.New().String(),
		Name:                 "inactive source",
		Type:                 model.SourceTypeRss,
		Active:               false,
		FetchIntervalMinutes: 30,
	}
	assert.Nil(t, db.Create(inactive).Error)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := bus.Subscribe(ctx, engine.TopicFetchJob)
	assert.Nil(t, err)

	s := NewScheduler(SchedulerConfig{Name: "scheduler"}, db, bus)
	s.enqueueDueSources(time.Now())

	select {
	case msg := <-messages:
		msg.Ack()
		var job engine.FetchJobEvent
		assert.Nil(t, engine.DecodeEvent(msg, &job))
		assert.Equal(t, due.Id, job.SourceId)
	case <-time.After(time.Second):
		t.Fatal("no fetch job published for the due source")
	}

	// The inactive source never produces a job.
	select {
	case msg := <-messages:
		var job engine.FetchJobEvent
		assert.Nil(t, engine.DecodeEvent(msg, &job))
		t.Fatalf("unexpected fetch job for source %s", job.SourceId)
	case <-time.After(100 * time.Millisecond):
	}
}

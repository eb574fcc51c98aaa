package modules

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/geomux/geomux/alerter"
	"github.com/geomux/geomux/engine"
	Logger "github.com/geomux/geomux/utils/log"
)

type AlertWorkerConfig struct {
	// Name of the alert worker.
	Name string

	// DigestInterval is how often accumulated digests are flushed and
	// undelivered notifications retried.
	DigestInterval time.Duration

	// CatchupLookback is how far back articles are re-matched when the
	// worker starts, covering scored events missed while it was down.
	// Replays are safe: the (alert, article) uniqueness constraint makes
	// an already recorded trigger a no-op.
	CatchupLookback time.Duration
}

// AlertWorker matches alerts against articles as they are scored, and on a
// timer flushes hourly/daily/weekly digests and delivers pending
// notifications.
type AlertWorker struct {
	Config AlertWorkerConfig

	Matcher *alerter.Matcher

	Notifier *alerter.Notifier

	EventBus *gochannel.GoChannel
}

func NewAlertWorker(config AlertWorkerConfig, matcher *alerter.Matcher, notifier *alerter.Notifier, e *gochannel.GoChannel) *AlertWorker {
	if config.DigestInterval <= 0 {
		config.DigestInterval = time.Minute
	}
	if config.CatchupLookback <= 0 {
		config.CatchupLookback = 24 * time.Hour
	}
	return &AlertWorker{
		Config:   config,
		Matcher:  matcher,
		Notifier: notifier,
		EventBus: e,
	}
}

func (w *AlertWorker) RunModule(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := w.EventBus.Subscribe(ctx, engine.TopicScoredArticle)
	if err != nil {
		return err
	}

	// Catch up on articles scored while the worker was down. Runs after
	// the subscription so nothing slips through the gap between the two.
	if n, err := w.Matcher.MatchSince(ctx, time.Now().Add(-w.Config.CatchupLookback)); err != nil {
		Logger.Log.Errorf("fail to catch up alert matching: %s", err)
	} else if n > 0 {
		Logger.Log.Infof("alert catch-up recorded %d new triggers", n)
	}

	ticker := time.NewTicker(w.Config.DigestInterval)
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
			if _, err := w.Matcher.MatchArticleById(event.ArticleId); err != nil {
				Logger.Log.Errorf("fail to match alerts for article %s: %s", event.ArticleId, err)
			}
		case <-ticker.C:
			if _, err := w.Notifier.FlushImmediate(ctx); err != nil {
				Logger.Log.Errorf("fail to flush immediate triggers: %s", err)
			}
			if _, err := w.Notifier.FlushDigests(ctx, time.Now()); err != nil {
				Logger.Log.Errorf("fail to flush digests: %s", err)
			}
			if _, err := w.Notifier.DeliverPending(ctx); err != nil {
				Logger.Log.Errorf("fail to deliver notifications: %s", err)
			}
		}
	}
}

func (w *AlertWorker) Name() string {
	return w.Config.Name
}

func (w *AlertWorker) Shutdown() {
	Logger.Log.Infoln("Module ", w.Config.Name, " gracefully shutdown")
}

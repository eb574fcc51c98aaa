package alerter

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"gorm.io/gorm"

	"github.com/geomux/geomux/model"
	Logger "github.com/geomux/geomux/utils/log"
)

// WebhookPoster posts a message to a Slack incoming webhook. Delivery is
// best-effort and failures never block trigger recording.
type WebhookPoster interface {
	Post(webhookUrl string, msg *slack.WebhookMessage) error
}

type slackPoster struct{}

func (slackPoster) Post(webhookUrl string, msg *slack.WebhookMessage) error {
	return slack.PostWebhook(webhookUrl, msg)
}

type Notifier struct {
	db         *gorm.DB
	poster     WebhookPoster
	webhookUrl string
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{
		db:         db,
		poster:     slackPoster{},
		webhookUrl: os.Getenv("SLACK_WEBHOOK_URL"),
	}
}

func NewNotifierWithPoster(db *gorm.DB, poster WebhookPoster, webhookUrl string) *Notifier {
	return &Notifier{db: db, poster: poster, webhookUrl: webhookUrl}
}

func digestWindow(frequency string) (time.Duration, bool) {
	switch frequency {
	case model.FrequencyHourly:
		return time.Hour, true
	case model.FrequencyDaily:
		return 24 * time.Hour, true
	case model.FrequencyWeekly:
		return 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// FlushImmediate emits notifications for immediate-alert triggers that are
// still unnotified, which happens when the notification write failed at
// match time. One notification per trigger, same shape the match path
// produces, so a prior partial failure is eventually repaired.
func (n *Notifier) FlushImmediate(ctx context.Context) (int, error) {
	var triggers []model.AlertTrigger
	err := n.db.
		Joins("JOIN alerts ON alerts.id = alert_triggers.alert_id").
		Where("alert_triggers.notified = ? AND alerts.frequency = ?",
			false, model.FrequencyImmediate).
		Order("alert_triggers.created_at ASC").
		Find(&triggers).Error
	if err != nil {
		return 0, err
	}

	emitted := 0
	for i := range triggers {
		select {
		case <-ctx.Done():
			return emitted, ctx.Err()
		default:
		}
		trigger := &triggers[i]
		err := n.db.Transaction(func(tx *gorm.DB) error {
			notification := &model.Notification{
				Id:         uuid.New().String(),
				AlertID:    trigger.AlertID,
				Kind:       "immediate",
				ArticleIds: model.EncodeStringList([]string{trigger.ArticleID}),
			}
			if err := tx.Create(notification).Error; err != nil {
				return err
			}
			now := time.Now()
			return tx.Model(trigger).Updates(map[string]interface{}{
				"notified":    true,
				"notified_at": now,
			}).Error
		})
		if err != nil {
			Logger.Log.Errorf("fail to flush immediate trigger %s: %s", trigger.Id, err)
			continue
		}
		emitted++
	}
	return emitted, nil
}

// FlushDigests emits one digest notification per hourly/daily/weekly alert
// whose window has elapsed since its last digest and that has accumulated
// triggers not yet notified. Flushing twice in a row is a no-op: the first
// flush marks the triggers notified and starts a fresh window.
func (n *Notifier) FlushDigests(ctx context.Context, now time.Time) (int, error) {
	var alerts []model.Alert
	err := n.db.
		Where("active = ? AND frequency IN ?", true,
			[]string{model.FrequencyHourly, model.FrequencyDaily, model.FrequencyWeekly}).
		Find(&alerts).Error
	if err != nil {
		return 0, err
	}

	emitted := 0
	for i := range alerts {
		select {
		case <-ctx.Done():
			return emitted, ctx.Err()
		default:
		}
		ok, err := n.flushAlert(&alerts[i], now)
		if err != nil {
			Logger.Log.Errorf("fail to flush digest for alert %s: %s", alerts[i].Id, err)
			continue
		}
		if ok {
			emitted++
		}
	}
	return emitted, nil
}

func (n *Notifier) flushAlert(alert *model.Alert, now time.Time) (bool, error) {
	window, ok := digestWindow(alert.Frequency)
	if !ok {
		return false, nil
	}

	var last model.Notification
	err := n.db.
		Where("alert_id = ? AND kind = ?", alert.Id, "digest").
		Order("created_at DESC").
		First(&last).Error
	if err == nil && now.Sub(last.CreatedAt) < window {
		return false, nil
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return false, err
	}

	var triggers []model.AlertTrigger
	err = n.db.
		Where("alert_id = ? AND notified = ?", alert.Id, false).
		Order("created_at ASC").
		Find(&triggers).Error
	if err != nil {
		return false, err
	}
	if len(triggers) == 0 {
		return false, nil
	}

	articleIds := make([]string, 0, len(triggers))
	triggerIds := make([]string, 0, len(triggers))
	for _, t := range triggers {
		articleIds = append(articleIds, t.ArticleID)
		triggerIds = append(triggerIds, t.Id)
	}

	err = n.db.Transaction(func(tx *gorm.DB) error {
		notification := &model.Notification{
			Id:         uuid.New().String(),
			AlertID:    alert.Id,
			Kind:       "digest",
			ArticleIds: model.EncodeStringList(articleIds),
		}
		if err := tx.Create(notification).Error; err != nil {
			return err
		}
		return tx.Model(&model.AlertTrigger{}).
			Where("id IN ?", triggerIds).
			Updates(map[string]interface{}{
				"notified":    true,
				"notified_at": now,
			}).Error
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeliverPending posts undelivered notifications to the configured Slack
// webhook. Without a webhook url the records stay undelivered, which is
// fine: they are still queryable through the API.
func (n *Notifier) DeliverPending(ctx context.Context) (int, error) {
	if n.webhookUrl == "" {
		return 0, nil
	}

	var notifications []model.Notification
	if err := n.db.Where("delivered = ?", false).Find(&notifications).Error; err != nil {
		return 0, err
	}

	delivered := 0
	for i := range notifications {
		select {
		case <-ctx.Done():
			return delivered, ctx.Err()
		default:
		}
		notification := &notifications[i]
		text, err := n.renderNotification(notification)
		if err != nil {
			Logger.Log.Errorf("fail to render notification %s: %s", notification.Id, err)
			continue
		}
		if err := n.poster.Post(n.webhookUrl, &slack.WebhookMessage{Text: text}); err != nil {
			Logger.Log.Errorf("fail to deliver notification %s: %s", notification.Id, err)
			continue
		}
		if err := n.db.Model(notification).Update("delivered", true).Error; err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

func (n *Notifier) renderNotification(notification *model.Notification) (string, error) {
	var alert model.Alert
	if err := n.db.Where("id = ?", notification.AlertID).First(&alert).Error; err != nil {
		return "", err
	}

	var articles []model.Article
	ids := notification.ArticleIdList()
	if len(ids) > 0 {
		if err := n.db.Where("id IN ?", ids).Find(&articles).Error; err != nil {
			return "", err
		}
	}

	var sb strings.Builder
	if notification.Kind == "digest" {
		fmt.Fprintf(&sb, "*%s* digest: %d new matching articles\n", alert.Name, len(articles))
	} else {
		fmt.Fprintf(&sb, "*%s* triggered\n", alert.Name)
	}
	for _, a := range articles {
		fmt.Fprintf(&sb, "• [%s/%s] %s\n%s\n", a.RelevanceLevel, a.Country, a.Title, a.Url)
	}
	return sb.String(), nil
}

package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification frequencies. Immediate alerts notify per trigger, the rest
// accumulate triggers and notify once per window.
const (
	FrequencyImmediate = "immediate"
	FrequencyHourly    = "hourly"
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
)

/*

Alert is a user-defined matching rule evaluated against newly scored articles

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

UserId: owner of the alert
Name: display name

Regions, Countries, Themes, Domains, Keywords: filter criteria, each a JSON
		array of strings. An empty set means "any". Keyword matching is
		case-insensitive substring match against title and body
MinRelevance: minimum relevance level an article must reach

Frequency: one of the Frequency constants
Active: inactive alerts are never evaluated
TriggerCount: incremented once per newly triggered (alert, article) pair
LastTriggeredAt: updated on each new trigger
*/
type Alert struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt
	UserId    string `gorm:"index"`
	Name      string

	Regions      datatypes.JSON
	Countries    datatypes.JSON
	Themes       datatypes.JSON
	Domains      datatypes.JSON
	Keywords     datatypes.JSON
	MinRelevance string

	Frequency       string
	Active          bool
	TriggerCount    int
	LastTriggeredAt *time.Time
}

func (a *Alert) RegionList() []string  { return decodeStringList(a.Regions) }
func (a *Alert) CountryList() []string { return decodeStringList(a.Countries) }
func (a *Alert) ThemeList() []string   { return decodeStringList(a.Themes) }
func (a *Alert) DomainList() []string  { return decodeStringList(a.Domains) }
func (a *Alert) KeywordList() []string { return decodeStringList(a.Keywords) }

/*

AlertTrigger records that one article matched one alert

The (AlertID, ArticleID) pair is unique, which is what makes alert matching
safe to re-run over the same article set: a second evaluation hits the
uniqueness constraint and does not increment the alert's counter again.

Notified is set once the trigger has been included in a notification
(immediately, or as part of an hourly/daily/weekly digest), so a digest
never re-includes triggers from a prior window.
*/
type AlertTrigger struct {
	Id         string `gorm:"primaryKey"`
	CreatedAt  time.Time
	AlertID    string `gorm:"uniqueIndex:idx_trigger_alert_article;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Alert      Alert  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ArticleID  string `gorm:"uniqueIndex:idx_trigger_alert_article"`
	Notified   bool   `gorm:"index"`
	NotifiedAt *time.Time
}

/*

Notification is an emitted notification record for an alert

Kind "immediate" carries a single article; kind "digest" carries every not
yet notified trigger of the alert's window. ArticleIds is a JSON array of
article ids included in this notification.
*/
type Notification struct {
	Id         string `gorm:"primaryKey"`
	CreatedAt  time.Time
	AlertID    string `gorm:"index;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Kind       string
	ArticleIds datatypes.JSON
	Delivered  bool
}

// ArticleIdList decodes the ArticleIds JSON column.
func (n *Notification) ArticleIdList() []string { return decodeStringList(n.ArticleIds) }

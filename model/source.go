package model

import (
	"time"

	"gorm.io/gorm"
)

// Source types. Each type maps to exactly one collector adapter.
const (
	SourceTypeRss    = "rss"
	SourceTypeApi    = "api"
	SourceTypeGdelt  = "gdelt"
	SourceTypeSocial = "social"
)

// Source categories, used for display and reliability auditing only.
const (
	CategoryNewsAgency = "news_agency"
	CategoryThinkTank  = "think_tank"
	CategoryGovernment = "government"
	CategoryMilitary   = "military"
	CategoryAcademic   = "academic"
)

// Fetch statuses recorded against a source after each cycle.
const (
	FetchStatusSuccess = "success"
	FetchStatusPartial = "partial"
	FetchStatusFailed  = "failed"
)

/*

Source is a data model for a configured news source

Example: a Reuters world-news RSS feed, the GDELT doc API, a defence
ministry Twitter account.

Id: primary key, use to identify a source
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Name: the display name of the source, for example "Reuters World"
Url: canonical website of the source
FeedUrl: feed endpoint to poll, empty for sources whose adapter builds its own URL
Type: one of the SourceType constants, selects the collector adapter
Category: one of the Category constants
Reliability: weight in [0,1] used to pick the canonical article when
		near-duplicates from different sources are merged
Active: inactive sources are skipped by the fetch coordinator
FetchIntervalMinutes: cadence at which the scheduler enqueues fetch cycles
LastFetchedAt, LastFetchStatus: updated exactly once per fetch cycle
*/
type Source struct {
	Id                   string `gorm:"primaryKey"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            gorm.DeletedAt
	Name                 string `gorm:"uniqueIndex"`
	Url                  string
	FeedUrl              string
	Type                 string
	Category             string
	Country              string
	Language             string
	Reliability          float64
	Active               bool
	FetchIntervalMinutes int
	LastFetchedAt        *time.Time
	LastFetchStatus      string
	Articles             []Article `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

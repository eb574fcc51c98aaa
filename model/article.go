package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Relevance levels, derived from the composite score and never edited
// independently of it.
const (
	LevelCritical = "critical"
	LevelPriority = "priority"
	LevelRoutine  = "routine"
)

// Processed flag values.
const (
	ProcessedPending = 0
	ProcessedDone    = 1
)

// LevelRank returns the ordering of a relevance level, higher is more
// relevant. Unknown levels rank lowest so a malformed alert never matches
// everything.
func LevelRank(level string) int {
	switch level {
	case LevelCritical:
		return 3
	case LevelPriority:
		return 2
	case LevelRoutine:
		return 1
	}
	return 0
}

// Entity is a named entity extracted from an article, serialized into the
// Entities JSON column.
type Entity struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

/*

Article is a piece of news fetched from one Source

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Title: article title in plain text
Content: article body in plain text, may be empty for headline-only feeds
Url: canonical external URL. (SourceID, Url) is unique and is the natural
		key for exact-duplicate detection across overlapping fetch cycles
PublishedAt, Author, ImageUrl: optional, left unset when the feed omits them
SourceID:
Source: source this article was fetched from, "belongs-to" relation

GeoScore, MilitaryScore, DiplomaticScore, EconomicScore: category
		sub-scores in [0,1]
RelevanceScore: composite score in [0,1], a fixed weighted combination of
		the four sub-scores. Stored together with the sub-scores in the same
		write, never inconsistently with them
RelevanceLevel: critical/priority/routine, a pure function of RelevanceScore
IsPriority: set when the article's country is one of the monitored theatres

Region, Country, Theme, Domain: classification tags from the scoring pass
Entities: extracted named entities, JSON array of {type, name}
Provenance: source ids of merged near-duplicates, JSON array of strings.
		The owning SourceID is always the highest-reliability reporter

SummaryWhatHappened ... SummaryFutureDevelopments: the four structured
		analysis fields written by the enrichment orchestrator
Processed: 0 = scored only, 1 = enrichment complete. Written atomically
		with the summary fields
ProcessingError: last enrichment failure, for operator debugging
EnrichAttempts: bounded retry counter for enrichment
*/
type Article struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	Title       string
	Content     string
	Url         string `gorm:"uniqueIndex:idx_articles_source_url"`
	PublishedAt *time.Time
	Author      string
	ImageUrl    string
	SourceID    string `gorm:"uniqueIndex:idx_articles_source_url;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Source      Source `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	GeoScore        float64
	MilitaryScore   float64
	DiplomaticScore float64
	EconomicScore   float64
	RelevanceScore  float64
	RelevanceLevel  string
	IsPriority      bool

	Region     string
	Country    string
	Theme      string
	Domain     string
	Entities   datatypes.JSON
	Provenance datatypes.JSON

	SummaryWhatHappened        string
	SummaryWhyMatters          string
	SummaryImplications        string
	SummaryFutureDevelopments  string
	Processed                  int `gorm:"index"`
	ProcessingError            string
	EnrichAttempts             int
}

// EntityList decodes the Entities JSON column, returning nil on empty or
// malformed data.
func (a *Article) EntityList() []Entity {
	var entities []Entity
	if len(a.Entities) == 0 {
		return nil
	}
	if err := json.Unmarshal(a.Entities, &entities); err != nil {
		return nil
	}
	return entities
}

// ProvenanceList decodes the Provenance JSON column.
func (a *Article) ProvenanceList() []string {
	return decodeStringList(a.Provenance)
}

func decodeStringList(j datatypes.JSON) []string {
	var list []string
	if len(j) == 0 {
		return nil
	}
	if err := json.Unmarshal(j, &list); err != nil {
		return nil
	}
	return list
}

// EncodeStringList marshals a string slice for a JSON column. Marshaling a
// string slice cannot fail.
func EncodeStringList(list []string) datatypes.JSON {
	data, _ := json.Marshal(list)
	return datatypes.JSON(data)
}

// EncodeEntities marshals extracted entities for the Entities column.
func EncodeEntities(entities []Entity) datatypes.JSON {
	data, _ := json.Marshal(entities)
	return datatypes.JSON(data)
}

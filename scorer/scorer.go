// Package scorer computes the deterministic relevance scores, classification
// tags and named entities for an article. It is a pure local computation
// over the article's text plus source metadata: no network, no storage, so
// re-running it with the same input and configuration reproduces identical
// output.
package scorer

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/geomux/geomux/model"
)

// Weights is the fixed combination of the four sub-scores into the
// composite. The four values must sum to 1.
type Weights struct {
	Geographic float64
	Military   float64
	Diplomatic float64
	Economic   float64
}

// DefaultWeights is the shipped baseline combination.
var DefaultWeights = Weights{Geographic: 0.3, Military: 0.3, Diplomatic: 0.2, Economic: 0.2}

// Level thresholds on the composite score. Strictly-greater comparisons:
// a composite of exactly 0.4 is still routine, exactly 0.7 still priority.
const (
	DefaultCriticalThreshold = 0.7
	DefaultPriorityThreshold = 0.4
)

// A category's raw keyword count is normalized against this divisor and
// capped at 1.
const rawScoreDivisor = 5.0

type Config struct {
	Weights           Weights
	CriticalThreshold float64
	PriorityThreshold float64

	GeoKeywords        KeywordSet
	MilitaryKeywords   KeywordSet
	DiplomaticKeywords KeywordSet
	EconomicKeywords   KeywordSet

	RegionTable   []tagEntry
	CountryTable  []tagEntry
	ThemeTable    []tagEntry
	DomainTable   []tagEntry
	Organizations []string

	MonitoredCountries []string
}

func DefaultConfig() Config {
	return Config{
		Weights:            DefaultWeights,
		CriticalThreshold:  DefaultCriticalThreshold,
		PriorityThreshold:  DefaultPriorityThreshold,
		GeoKeywords:        DefaultGeoKeywords,
		MilitaryKeywords:   DefaultMilitaryKeywords,
		DiplomaticKeywords: DefaultDiplomaticKeywords,
		EconomicKeywords:   DefaultEconomicKeywords,
		RegionTable:        DefaultRegionTable,
		CountryTable:       DefaultCountryTable,
		ThemeTable:         DefaultThemeTable,
		DomainTable:        DefaultDomainTable,
		Organizations:      DefaultOrganizations,
		MonitoredCountries: DefaultMonitoredCountries,
	}
}

// Scores is the full output of one scoring pass.
type Scores struct {
	Geo        float64
	Military   float64
	Diplomatic float64
	Economic   float64
	Composite  float64
	Level      string

	Region   string
	Country  string
	Theme    string
	Domain   string
	Entities []model.Entity

	IsPriority bool
}

type Scorer struct {
	config Config
}

func NewScorer(config Config) (*Scorer, error) {
	sum := config.Weights.Geographic + config.Weights.Military +
		config.Weights.Diplomatic + config.Weights.Economic
	if math.Abs(sum-1.0) > 1e-9 {
		return nil, errors.Errorf("sub-score weights must sum to 1, got %f", sum)
	}
	if config.CriticalThreshold <= config.PriorityThreshold {
		return nil, errors.New("level thresholds must be monotonic and non-overlapping")
	}
	return &Scorer{config: config}, nil
}

func NewDefaultScorer() *Scorer {
	s, err := NewScorer(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return s
}

// Score computes every sub-score, the composite, the level, the tags and
// entities for one article's title and body.
func (s *Scorer) Score(title, content string) Scores {
	text := strings.ToLower(title + " " + content)

	res := Scores{
		Geo:        categoryScore(text, s.config.GeoKeywords),
		Military:   categoryScore(text, s.config.MilitaryKeywords),
		Diplomatic: categoryScore(text, s.config.DiplomaticKeywords),
		Economic:   categoryScore(text, s.config.EconomicKeywords),
	}
	res.Composite = s.Composite(res.Geo, res.Military, res.Diplomatic, res.Economic)
	res.Level = s.Level(res.Composite)

	res.Region = firstTagMatch(text, s.config.RegionTable, "Global")
	res.Country = firstTagMatch(text, s.config.CountryTable, "")
	res.Theme = firstTagMatch(text, s.config.ThemeTable, "General Security")
	res.Domain = firstTagMatch(text, s.config.DomainTable, "multi-domain")
	res.Entities = s.extractEntities(text)
	res.IsPriority = containsFold(s.config.MonitoredCountries, res.Country)

	return res
}

// Composite combines the four sub-scores with the configured weights,
// rounded to 3 decimals. For sub-scores in [0,1] and weights summing to 1
// the result is in [0,1].
func (s *Scorer) Composite(geo, military, diplomatic, economic float64) float64 {
	w := s.config.Weights
	return round3(geo*w.Geographic + military*w.Military +
		diplomatic*w.Diplomatic + economic*w.Economic)
}

// Level maps a composite score to its relevance level.
func (s *Scorer) Level(composite float64) string {
	switch {
	case composite > s.config.CriticalThreshold:
		return model.LevelCritical
	case composite > s.config.PriorityThreshold:
		return model.LevelPriority
	}
	return model.LevelRoutine
}

// MinCompositeForLevel returns the exclusive lower bound a composite must
// exceed to earn the given level; -1 when every composite qualifies.
func (s *Scorer) MinCompositeForLevel(level string) float64 {
	switch level {
	case model.LevelCritical:
		return s.config.CriticalThreshold
	case model.LevelPriority:
		return s.config.PriorityThreshold
	}
	return -1
}

func categoryScore(text string, keywords KeywordSet) float64 {
	raw := float64(countMatches(text, keywords.High)) +
		0.5*float64(countMatches(text, keywords.Medium)) +
		0.2*float64(countMatches(text, keywords.Low))
	return round3(math.Min(raw/rawScoreDivisor, 1.0))
}

func countMatches(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

func firstTagMatch(text string, table []tagEntry, fallback string) string {
	for _, entry := range table {
		for _, kw := range entry.Keywords {
			if strings.Contains(text, kw) {
				return entry.Tag
			}
		}
	}
	return fallback
}

// extractEntities reports every matched country and organization, in the
// stable order of the configured tables.
func (s *Scorer) extractEntities(text string) []model.Entity {
	entities := []model.Entity{}
	for _, entry := range s.config.CountryTable {
		for _, kw := range entry.Keywords {
			if strings.Contains(text, kw) {
				entities = append(entities, model.Entity{Type: "country", Name: entry.Tag})
				break
			}
		}
	}
	for _, org := range s.config.Organizations {
		if strings.Contains(text, strings.ToLower(org)) {
			entities = append(entities, model.Entity{Type: "organization", Name: org})
		}
	}
	return entities
}

func containsFold(hay []string, needle string) bool {
	for _, h := range hay {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

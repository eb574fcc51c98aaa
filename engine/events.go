package engine

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Event bus topics. Fetch jobs flow from the scheduler to the pipeline
// worker; scored articles fan out to the enrichment and alert workers;
// cycle results feed the reporter.
const (
	TopicFetchJob      = "topic.fetch_job"
	TopicScoredArticle = "topic.scored_article"
	TopicCycleResult   = "topic.cycle_result"
)

// FetchJobEvent asks the pipeline worker to run one fetch cycle for a
// single source.
type FetchJobEvent struct {
	SourceId string `json:"source_id"`
}

// ScoredArticleEvent announces a newly persisted, scored article.
type ScoredArticleEvent struct {
	ArticleId string `json:"article_id"`
}

// CycleResultEvent summarizes one source's fetch cycle for monitoring.
type CycleResultEvent struct {
	SourceId   string `json:"source_id"`
	SourceName string `json:"source_name"`
	Status     string `json:"status"`
	Saved      int    `json:"saved"`
	Duplicates int    `json:"duplicates"`
	Rejected   int    `json:"rejected"`
}

// NewEventMessage wraps any event payload into a watermill message.
func NewEventMessage(event interface{}) (*message.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return message.NewMessage(watermill.NewUUID(), data), nil
}

// DecodeEvent unmarshals a message payload into the given event struct.
func DecodeEvent(msg *message.Message, event interface{}) error {
	return json.Unmarshal(msg.Payload, event)
}

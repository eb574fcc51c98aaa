// Package enricher attaches the structured AI analysis to high-relevance
// articles. The external summarization capability is consumed through the
// narrow Analyzer contract; everything else in the package is batch
// orchestration around it.
package enricher

import (
	"context"
	"fmt"
)

// AnalysisRequest is the input contract of the summarization capability.
type AnalysisRequest struct {
	Title string
	Body  string
	Tags  []string
}

// Analysis is the four-field structured output.
type Analysis struct {
	WhatHappened       string `json:"what_happened"`
	WhyMatters         string `json:"why_matters"`
	Implications       string `json:"strategic_implications"`
	FutureDevelopments string `json:"future_developments"`
}

type AnalysisErrorKind string

const (
	AnalysisErrorTimeout   AnalysisErrorKind = "timeout"
	AnalysisErrorQuota     AnalysisErrorKind = "quota"
	AnalysisErrorMalformed AnalysisErrorKind = "malformed"
)

// AnalysisError is the typed failure of the summarization capability.
type AnalysisError struct {
	Kind  AnalysisErrorKind
	Cause error
}

func (e *AnalysisError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("analysis error: %s", e.Kind)
	}
	return fmt.Sprintf("analysis error: %s: %s", e.Kind, e.Cause.Error())
}

func (e *AnalysisError) Unwrap() error { return e.Cause }

func NewAnalysisError(kind AnalysisErrorKind, cause error) *AnalysisError {
	return &AnalysisError{Kind: kind, Cause: cause}
}

// Analyzer is the external summarization capability.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error)
}

package enricher

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const (
	defaultLlmEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	defaultLlmModel    = "llama-3.3-70b-versatile"

	systemPrompt = "You are a strategic analyst specializing in geopolitical and defense affairs. " +
		"Analyze news articles and provide concise, professional summaries suitable for " +
		"defense analysts and policy researchers. Always respond in valid JSON format."

	userPromptTemplate = `Analyze this news article and provide a structured strategic summary.

Title: %TITLE%

Content: %BODY%

Tags: %TAGS%

Respond with a JSON object containing exactly these four keys:
"what_happened", "why_matters", "strategic_implications", "future_developments",
each a 2-3 sentence string.`
)

// LlmAnalyzer implements Analyzer against an OpenAI-compatible chat
// completions endpoint (Groq by default). Endpoint, model and key come from
// env: LLM_ENDPOINT, LLM_MODEL, LLM_API_KEY.
type LlmAnalyzer struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

func NewLlmAnalyzer() *LlmAnalyzer {
	endpoint := os.Getenv("LLM_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultLlmEndpoint
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = defaultLlmModel
	}
	return &LlmAnalyzer{
		endpoint: endpoint,
		model:    model,
		apiKey:   os.Getenv("LLM_API_KEY"),
		client:   &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *LlmAnalyzer) Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	body := req.Body
	if len(body) > 3000 {
		body = body[:3000]
	}
	prompt := strings.NewReplacer(
		"%TITLE%", req.Title,
		"%BODY%", body,
		"%TAGS%", strings.Join(req.Tags, ", "),
	).Replace(userPromptTemplate)

	payload, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, NewAnalysisError(AnalysisErrorMalformed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, NewAnalysisError(AnalysisErrorMalformed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	res, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewAnalysisError(AnalysisErrorTimeout, err)
		}
		return nil, NewAnalysisError(AnalysisErrorTimeout, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		return nil, NewAnalysisError(AnalysisErrorQuota, errors.Errorf("http %d", res.StatusCode))
	}
	if res.StatusCode >= 300 {
		return nil, NewAnalysisError(AnalysisErrorMalformed, errors.Errorf("http %d", res.StatusCode))
	}

	raw, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, NewAnalysisError(AnalysisErrorTimeout, err)
	}

	resp := &chatResponse{}
	if err := json.Unmarshal(raw, resp); err != nil || len(resp.Choices) == 0 {
		return nil, NewAnalysisError(AnalysisErrorMalformed,
			errors.New("unparseable chat completion response"))
	}

	return ParseAnalysisText(resp.Choices[0].Message.Content)
}

// ParseAnalysisText extracts the four-field JSON object from a model reply,
// tolerating fenced code blocks around it.
func ParseAnalysisText(text string) (*Analysis, error) {
	text = stripCodeFence(text)

	analysis := &Analysis{}
	if err := json.Unmarshal([]byte(text), analysis); err != nil {
		return nil, NewAnalysisError(AnalysisErrorMalformed,
			errors.Wrap(err, "response is not the expected JSON object"))
	}
	if analysis.WhatHappened == "" && analysis.WhyMatters == "" &&
		analysis.Implications == "" && analysis.FutureDevelopments == "" {
		return nil, NewAnalysisError(AnalysisErrorMalformed,
			errors.New("response JSON has none of the expected fields"))
	}
	return analysis, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

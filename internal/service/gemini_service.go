package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/interviewmate/server/internal/config"
	"github.com/interviewmate/server/internal/model"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ReportContext is everything the generator needs about a finished
// interview.
type ReportContext struct {
	InterviewType      model.InterviewType
	JobRole            string
	Difficulty         model.Difficulty
	Topics             []string
	CustomInstructions string
	ResumeText         string
	Transcript         []model.TranscriptTurn
}

// GeneratedReport is the structured payload extracted from the model's
// answer.
type GeneratedReport struct {
	OverallScore        int
	Strengths           []string
	AreasForImprovement []string
	DetailedFeedback    []model.FeedbackItem
}

type GeminiServiceInterface interface {
	GenerateReport(ctx context.Context, rc ReportContext) (*GeneratedReport, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type GeminiService struct {
	client            *genai.Client
	model             string
	log               *zap.Logger
	maxRetries        int
	baseDelay         time.Duration
	maxDelay          time.Duration
	requestTimeout    time.Duration
	consecutiveErrors int
	circuitBreakerMax int
}

func NewGeminiService(ctx context.Context, log *zap.Logger) (*GeminiService, error) {
	cfg := config.LoadGeminiConfig()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiService{
		client:            client,
		model:             cfg.Model,
		log:               log,
		maxRetries:        3,
		baseDelay:         time.Second,
		maxDelay:          90 * time.Second,
		requestTimeout:    90 * time.Second,
		circuitBreakerMax: 5,
	}, nil
}

// GenerateReport asks the model for a structured interview report. The
// model's answer is treated as untrusted text: if no valid JSON object
// can be extracted, a zero-score fallback report is returned instead of
// an error, so a misbehaving model never strands a completed interview.
func (s *GeminiService) GenerateReport(ctx context.Context, rc ReportContext) (*GeneratedReport, error) {
	result, err := s.generateContent(ctx, buildReportPrompt(rc))
	if err != nil {
		return nil, err
	}

	text := result.Text()
	report, ok := parseReportJSON(text)
	if !ok {
		s.log.Warn("report response could not be parsed as JSON",
			zap.Int("response_len", len(text)))
		return fallbackReport("The AI response could not be parsed. Please retry report generation."), nil
	}
	return report, nil
}

func buildReportPrompt(rc ReportContext) string {
	var history strings.Builder
	for _, turn := range rc.Transcript {
		history.WriteString(string(turn.Speaker))
		history.WriteString(": ")
		history.WriteString(turn.Text)
		history.WriteString("\n")
	}
	if history.Len() == 0 {
		history.WriteString("(no transcript captured)\n")
	}

	topics := strings.Join(rc.Topics, ", ")
	if topics == "" {
		topics = "N/A"
	}
	instructions := rc.CustomInstructions
	if instructions == "" {
		instructions = "None"
	}

	prompt := fmt.Sprintf(`You are an expert AI interviewer and career coach. Based on the following mock interview, generate a comprehensive interview report.

Interview Details:
- Type: %s
- Job Role: %s
- Difficulty: %s
- Topics: %s
- Custom Instructions: %s

Conversation History (interviewer: AI, candidate: user):
%s

Return your answer STRICTLY in JSON format with this schema:
{
  "overall_score": <integer 0-100>,
  "strengths": ["<strength>"],
  "areas_for_improvement": ["<area>"],
  "detailed_feedback": [
    {
      "question": "<question asked>",
      "user_answer": "<candidate answer>",
      "ai_feedback": "<specific feedback on that answer>",
      "score": <integer 0-100>
    }
  ]
}
Ensure all scores are integers between 0 and 100.`,
		rc.InterviewType, rc.JobRole, rc.Difficulty, topics, instructions, history.String())

	if rc.ResumeText != "" {
		prompt += fmt.Sprintf("\n\nCandidate resume (for context):\n%s", rc.ResumeText)
	}
	return prompt
}

// parseReportJSON extracts the report object from free-form model
// output. The model sometimes wraps the JSON in prose or code fences, so
// the candidate object is cut out between the first '{' and the last
// '}' before validation.
func parseReportJSON(text string) (*GeneratedReport, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return nil, false
	}

	parsed := gjson.Parse(candidate)
	scoreField := parsed.Get("overall_score")
	if !scoreField.Exists() {
		return nil, false
	}

	report := &GeneratedReport{
		OverallScore: clampScore(scoreField.Int()),
	}
	for _, s := range parsed.Get("strengths").Array() {
		report.Strengths = append(report.Strengths, s.String())
	}
	for _, a := range parsed.Get("areas_for_improvement").Array() {
		report.AreasForImprovement = append(report.AreasForImprovement, a.String())
	}
	for _, item := range parsed.Get("detailed_feedback").Array() {
		report.DetailedFeedback = append(report.DetailedFeedback, model.FeedbackItem{
			Question:   item.Get("question").String(),
			UserAnswer: item.Get("user_answer").String(),
			AIFeedback: item.Get("ai_feedback").String(),
			Score:      clampScore(item.Get("score").Int()),
		})
	}
	return report, true
}

func clampScore(score int64) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}

func fallbackReport(diagnostic string) *GeneratedReport {
	return &GeneratedReport{
		OverallScore:        0,
		Strengths:           []string{"Could not generate detailed strengths."},
		AreasForImprovement: []string{diagnostic},
		DetailedFeedback: []model.FeedbackItem{{
			Question:   "N/A",
			UserAnswer: "N/A",
			AIFeedback: "Failed to generate feedback due to a parsing error.",
			Score:      0,
		}},
	}
}

func (s *GeminiService) generateContent(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}
	if s.consecutiveErrors >= s.circuitBreakerMax {
		return nil, fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", s.consecutiveErrors)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			s.log.Info("retrying GenerateContent",
				zap.Int("attempt", attempt), zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := s.client.Models.GenerateContent(
			timeoutCtx,
			s.model,
			genai.Text(prompt),
			&genai.GenerateContentConfig{Temperature: genai.Ptr(float32(0.1))},
		)
		if err == nil {
			s.consecutiveErrors = 0
			if err := validateGenerateResponse(result); err != nil {
				return nil, fmt.Errorf("invalid response: %w", err)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			s.consecutiveErrors++
			return nil, fmt.Errorf("generate content failed: %w", err)
		}
		s.log.Warn("retryable error from Gemini", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	s.consecutiveErrors++
	return nil, fmt.Errorf("max retries (%d) exceeded for GenerateContent: %w", s.maxRetries, lastErr)
}

func (s *GeminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("text for embedding cannot be empty")
	}
	if len(trimmed) > 10000 {
		trimmed = trimmed[:10000]
	}
	if s.consecutiveErrors >= s.circuitBreakerMax {
		return nil, fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", s.consecutiveErrors)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	content := []*genai.Content{genai.NewContentFromText(trimmed, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := s.client.Models.EmbedContent(timeoutCtx, "gemini-embedding-001", content, nil)
		if err == nil {
			s.consecutiveErrors = 0
			return validateEmbeddingResponse(result)
		}

		lastErr = err
		if !isRetryableError(err) {
			s.consecutiveErrors++
			return nil, fmt.Errorf("generate embedding failed: %w", err)
		}
	}

	s.consecutiveErrors++
	return nil, fmt.Errorf("max retries (%d) exceeded for GenerateEmbedding: %w", s.maxRetries, lastErr)
}

func (s *GeminiService) calculateBackoff(attempt int) time.Duration {
	delay := s.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > s.maxDelay {
		delay = s.maxDelay
	}
	jitter := time.Duration(float64(delay) * 0.25)
	return delay - jitter/2 + time.Duration(float64(jitter)*0.5)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	if strings.Contains(errMsg, "context canceled") ||
		strings.Contains(errMsg, "context deadline exceeded") {
		return false
	}
	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		case 400, 401, 403, 404:
			return false
		}
	}
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF")
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("candidate content is empty")
	}
	return nil
}

func validateEmbeddingResponse(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil || len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}
	for i, v := range values {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d: %v", i, v)
		}
	}
	return values, nil
}

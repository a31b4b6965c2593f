package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/metrics"
	"github.com/callportrait/backend/pkg/circuitbreaker"
	"github.com/callportrait/backend/pkg/logger"
	"github.com/callportrait/backend/pkg/retry"
)

const sentimentPrompt = `分析以下外呼通话内容，评估客户的情绪和风险。

通话内容:
%s

请严格按照以下 JSON 格式返回分析结果，不要返回其他内容:
{
    "sentiment": "positive/neutral/negative",
    "sentiment_score": 0.0-1.0,
    "complaint_risk": "low/medium/high",
    "churn_risk": "low/medium/high",
    "reason": "简要分析原因(50字以内)"
}

分析要点:
- sentiment: 客户整体情绪倾向
- sentiment_score: 情绪得分，0=极度负面，1=极度正面
- complaint_risk: 投诉风险，检测"投诉"、"举报"、"工信部"等关键词
- churn_risk: 流失风险，检测"不用了"、"取消"、"换运营商"等关键词`

// Sentiment is the parsed model verdict for one dialogue.
type Sentiment struct {
	Sentiment      string  `json:"sentiment"`
	SentimentScore float64 `json:"sentiment_score"`
	ComplaintRisk  string  `json:"complaint_risk"`
	ChurnRisk      string  `json:"churn_risk"`
	Reason         string  `json:"reason"`
}

func defaultSentiment(reason string) *Sentiment {
	return &Sentiment{
		Sentiment:      "neutral",
		SentimentScore: 0.5,
		ComplaintRisk:  "low",
		ChurnRisk:      "low",
		Reason:         reason,
	}
}

// Client wraps an OpenAI-compatible chat endpoint for sentiment scoring.
// It degrades rather than cascades: a tripped breaker surfaces as an
// error per call, never a hang.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	policy      retry.Policy
}

func NewClient(apiKey, baseURL, model string, temperature float32, maxTokens int, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	policy := retry.Policy{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	if timeout == 0 {
		timeout = 30 * time.Second
	}

	logger.Info("LLM client initialized", zap.String("model", model), zap.String("base_url", baseURL))

	return &Client{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
		cb:          cb,
		policy:      policy,
	}
}

// AnalyzeSentiment scores one dialogue. An empty dialogue short-circuits
// to the neutral default without an API call.
func (c *Client) AnalyzeSentiment(ctx context.Context, dialogue string) (*Sentiment, error) {
	if strings.TrimSpace(dialogue) == "" {
		return defaultSentiment("empty_dialogue"), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var content string
	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.policy, func() error {
			resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model: c.model,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(sentimentPrompt, dialogue)},
				},
				Temperature: c.temperature,
				MaxTokens:   c.maxTokens,
			})
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("empty completion response")
			}
			content = resp.Choices[0].Message.Content
			metrics.LLMTokensUsed.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
			metrics.LLMTokensUsed.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))
			return nil
		})
	})
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("sentiment analysis failed: %w", err)
	}

	result, err := parseSentiment(content)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("parse_error").Inc()
		return nil, err
	}
	metrics.LLMRequestsTotal.WithLabelValues("success").Inc()
	return result, nil
}

// parseSentiment tolerates prose around the JSON object, normalizes the
// sentiment value and clamps the score into [0, 1].
func parseSentiment(response string) (*Sentiment, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in LLM response")
	}

	var s Sentiment
	if err := json.Unmarshal([]byte(response[start:end+1]), &s); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	s.Sentiment = normalizeSentiment(s.Sentiment)
	if s.SentimentScore < 0 {
		s.SentimentScore = 0
	}
	if s.SentimentScore > 1 {
		s.SentimentScore = 1
	}
	s.ComplaintRisk = normalizeRisk(s.ComplaintRisk)
	s.ChurnRisk = normalizeRisk(s.ChurnRisk)
	return &s, nil
}

func normalizeSentiment(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "positive", "negative":
		return strings.ToLower(strings.TrimSpace(v))
	default:
		return "neutral"
	}
}

func normalizeRisk(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "high", "medium":
		return strings.ToLower(strings.TrimSpace(v))
	default:
		return "low"
	}
}

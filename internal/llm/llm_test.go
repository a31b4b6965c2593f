package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callportrait/backend/internal/storage/models"
)

func TestParseSentiment(t *testing.T) {
	response := `分析结果如下:
{
    "sentiment": "Negative",
    "sentiment_score": 0.15,
    "complaint_risk": "high",
    "churn_risk": "medium",
    "reason": "客户明确表达不满"
}`
	s, err := parseSentiment(response)
	require.NoError(t, err)
	assert.Equal(t, "negative", s.Sentiment)
	assert.Equal(t, 0.15, s.SentimentScore)
	assert.Equal(t, "high", s.ComplaintRisk)
	assert.Equal(t, "medium", s.ChurnRisk)
}

func TestParseSentimentClampsAndNormalizes(t *testing.T) {
	s, err := parseSentiment(`{"sentiment": "angry", "sentiment_score": 1.7, "complaint_risk": "severe", "churn_risk": "low"}`)
	require.NoError(t, err)
	assert.Equal(t, "neutral", s.Sentiment)
	assert.Equal(t, 1.0, s.SentimentScore)
	assert.Equal(t, "low", s.ComplaintRisk)

	s, err = parseSentiment(`{"sentiment": "negative", "sentiment_score": -0.2}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.SentimentScore)
}

func TestParseSentimentRejectsNonJSON(t *testing.T) {
	_, err := parseSentiment("无法分析该对话")
	assert.Error(t, err)
}

type fakeSentimentClient struct {
	results map[string]*Sentiment
	err     error
}

func (f *fakeSentimentClient) AnalyzeSentiment(_ context.Context, dialogue string) (*Sentiment, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.results[dialogue]; ok {
		return s, nil
	}
	return defaultSentiment("fallback"), nil
}

type fakeRecordStore struct {
	mu      sync.Mutex
	pending []*models.CallRecord
	updated map[string]float64
}

func (f *fakeRecordStore) ListUnanalyzed(context.Context, int) ([]*models.CallRecord, error) {
	return f.pending, nil
}

func (f *fakeRecordStore) UpdateCallSentiment(_ context.Context, callID string, score float64, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = make(map[string]float64)
	}
	f.updated[callID] = score
	return nil
}

func TestAnalyzeBatch(t *testing.T) {
	store := &fakeRecordStore{
		pending: []*models.CallRecord{
			{CallID: "c1", Transcript: "客户: 很满意"},
			{CallID: "c2", Transcript: "客户: 我要投诉"},
		},
	}
	client := &fakeSentimentClient{results: map[string]*Sentiment{
		"客户: 很满意":  {Sentiment: "positive", SentimentScore: 0.9},
		"客户: 我要投诉": {Sentiment: "negative", SentimentScore: 0.1},
	}}

	res, err := NewAnalyzer(client, store, 2).AnalyzeBatch(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Analyzed)
	assert.Zero(t, res.Failed)
	assert.Equal(t, 0.9, store.updated["c1"])
	assert.Equal(t, 0.1, store.updated["c2"])
}

func TestAnalyzeBatchCountsFailures(t *testing.T) {
	store := &fakeRecordStore{
		pending: []*models.CallRecord{{CallID: "c1", Transcript: "客户: 嗯"}},
	}
	client := &fakeSentimentClient{err: errors.New("circuit breaker is open")}

	res, err := NewAnalyzer(client, store, 2).AnalyzeBatch(context.Background(), 100)
	require.NoError(t, err)
	assert.Zero(t, res.Analyzed)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, store.updated)
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	res, err := NewAnalyzer(&fakeSentimentClient{}, &fakeRecordStore{}, 2).AnalyzeBatch(context.Background(), 100)
	require.NoError(t, err)
	assert.Zero(t, res.Analyzed)
}

package llm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/storage/models"
	"github.com/callportrait/backend/pkg/logger"
)

// RecordStore is the slice of storage the analyzer needs.
type RecordStore interface {
	ListUnanalyzed(ctx context.Context, limit int) ([]*models.CallRecord, error)
	UpdateCallSentiment(ctx context.Context, callID string, score float64, emotion string, analyzedAt time.Time) error
}

// SentimentClient is implemented by Client; split out for tests.
type SentimentClient interface {
	AnalyzeSentiment(ctx context.Context, dialogue string) (*Sentiment, error)
}

// BatchResult summarizes one analysis run.
type BatchResult struct {
	Analyzed int `json:"analyzed"`
	Failed   int `json:"failed"`
}

// Analyzer scores unanalyzed transcripts with the LLM, a bounded number
// of calls in flight at once. Per-record failures are counted, never
// fatal: the record stays unanalyzed and a later run retries it.
type Analyzer struct {
	client        SentimentClient
	store         RecordStore
	maxConcurrent int
	logger        *zap.Logger
}

func NewAnalyzer(client SentimentClient, store RecordStore, maxConcurrent int) *Analyzer {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Analyzer{
		client:        client,
		store:         store,
		maxConcurrent: maxConcurrent,
		logger:        logger.GetLogger().With(zap.String("component", "llm_analyzer")),
	}
}

// AnalyzeBatch processes up to limit pending records.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, limit int) (*BatchResult, error) {
	records, err := a.store.ListUnanalyzed(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &BatchResult{}, nil
	}

	a.logger.Info("analyzing records", zap.Int("count", len(records)))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		analyzed int
		failed   int
	)
	sem := make(chan struct{}, a.maxConcurrent)

	for _, record := range records {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(r *models.CallRecord) {
			defer wg.Done()
			defer func() { <-sem }()

			err := a.analyzeOne(ctx, r)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				a.logger.Warn("record analysis failed",
					zap.String("call_id", r.CallID),
					zap.Error(err))
				return
			}
			analyzed++
		}(record)
	}
	wg.Wait()

	a.logger.Info("analysis batch finished",
		zap.Int("analyzed", analyzed),
		zap.Int("failed", failed))

	return &BatchResult{Analyzed: analyzed, Failed: failed}, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, r *models.CallRecord) error {
	sentiment, err := a.client.AnalyzeSentiment(ctx, r.Transcript)
	if err != nil {
		return err
	}
	return a.store.UpdateCallSentiment(ctx, r.CallID, sentiment.SentimentScore, sentiment.Sentiment, time.Now())
}

package etl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callportrait/backend/internal/rules"
	"github.com/callportrait/backend/internal/storage/models"
	"github.com/callportrait/backend/internal/storage/source"
)

type fakeSource struct {
	records     []*source.RawRecord
	transcripts map[string]string
	fetchErrs   int
}

func (f *fakeSource) FetchRecords(context.Context, time.Time) ([]*source.RawRecord, error) {
	if f.fetchErrs > 0 {
		f.fetchErrs--
		return nil, errors.New("connection reset")
	}
	return f.records, nil
}

func (f *fakeSource) FetchTranscript(_ context.Context, callID string, _ time.Time) (string, error) {
	t, ok := f.transcripts[callID]
	if !ok {
		return "", errors.New("shard missing")
	}
	return t, nil
}

type fakeSink struct {
	batches [][]*models.CallRecord
	err     error
}

func (f *fakeSink) UpsertCallRecords(_ context.Context, records []*models.CallRecord) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, records)
	return nil
}

func (f *fakeSink) all() []*models.CallRecord {
	var out []*models.CallRecord
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func day() time.Time {
	return time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC)
}

func rawCall(callID string, billMS, rounds int, levelName string) *source.RawRecord {
	return &source.RawRecord{
		SourceID:        1,
		CallID:          callID,
		TaskID:          "task-1",
		CustomerID:      "cust-1",
		Phone:           "13800000001",
		CallDate:        day().Add(9 * time.Hour),
		DurationMS:      billMS + 3000,
		BillMS:          billMS,
		Rounds:          rounds,
		LevelName:       levelName,
		IntentionResult: "B",
		HangupBy:        2,
		CallStatus:      "connected",
	}
}

func TestSyncDateSkippedWithoutSource(t *testing.T) {
	sink := &fakeSink{}
	syncer := NewSyncer(nil, sink, 100)

	res, err := syncer.SyncDate(context.Background(), day())
	require.NoError(t, err)
	assert.Equal(t, "skipped", res.Status)
	assert.Equal(t, "source_db_unavailable", res.Reason)
	assert.Empty(t, sink.batches)
}

func TestSyncDateClassifiesAndWrites(t *testing.T) {
	src := &fakeSource{
		records: []*source.RawRecord{
			rawCall("call-1", 75000, 6, "Q7-满分"),
			rawCall("call-2", 9000, 1, ""),
		},
		transcripts: map[string]string{
			"call-1": "客户: 挺好的，谢谢\n机器人: 感谢您的支持",
			"call-2": "客户: 太贵了，我要换运营商",
		},
	}
	sink := &fakeSink{}
	syncer := NewSyncer(src, sink, 100)

	res, err := syncer.SyncDate(context.Background(), day())
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 2, res.Synced)

	records := sink.all()
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "call-1", first.CallID)
	assert.Equal(t, rules.SatisfactionSatisfied, first.Satisfaction)
	assert.Equal(t, rules.SourceASRTag, first.SatisfactionSource)
	assert.Equal(t, rules.WillingnessDeep, first.Willingness)
	assert.Equal(t, []string{"Q7-满分"}, first.ASRLabels)
	assert.NotEmpty(t, first.Transcript)

	second := records[1]
	assert.Equal(t, rules.RiskHigh, second.ChurnRisk)
	assert.Equal(t, rules.RiskLevelChurn, second.RiskLevel)
	assert.Equal(t, rules.WillingnessLow, second.Willingness)
}

func TestSyncDateTranscriptFailureIsNotFatal(t *testing.T) {
	src := &fakeSource{
		records:     []*source.RawRecord{rawCall("call-1", 30000, 3, "")},
		transcripts: map[string]string{},
	}
	sink := &fakeSink{}
	syncer := NewSyncer(src, sink, 100)

	res, err := syncer.SyncDate(context.Background(), day())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)

	records := sink.all()
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Transcript)
	assert.Equal(t, rules.SatisfactionNone, records[0].Satisfaction)
	assert.Equal(t, rules.WillingnessNormal, records[0].Willingness)
}

func TestSyncDateRetriesFetch(t *testing.T) {
	src := &fakeSource{
		records:     []*source.RawRecord{rawCall("call-1", 30000, 3, "")},
		transcripts: map[string]string{"call-1": "客户: 知道了"},
		fetchErrs:   2,
	}
	sink := &fakeSink{}
	syncer := NewSyncer(src, sink, 100)
	syncer.policy.InitialDelay = time.Millisecond

	res, err := syncer.SyncDate(context.Background(), day())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
}

func TestSyncDateBatches(t *testing.T) {
	src := &fakeSource{transcripts: map[string]string{}}
	for i := 0; i < 5; i++ {
		r := rawCall("call", 30000, 3, "")
		r.CallID = r.CallID + string(rune('a'+i))
		src.records = append(src.records, r)
		src.transcripts[r.CallID] = "客户: 嗯"
	}
	sink := &fakeSink{}
	syncer := NewSyncer(src, sink, 2)

	res, err := syncer.SyncDate(context.Background(), day())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Synced)
	assert.Len(t, sink.batches, 3)
}

package scorer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfp-scorer/internal/model"
)

func batchRecords(n int) []model.OpportunityRecord {
	recs := make([]model.OpportunityRecord, n)
	for i := range recs {
		rec := malmoRecord()
		rec.Title = fmt.Sprintf("%s lot %d", rec.Title, i)
		if i%3 == 0 {
			rec.Description = "Supply of office chairs."
		}
		if i%4 == 0 {
			rec.Budget = &model.Budget{Amount: float64(i * 10000), Currency: "SEK"}
		}
		recs[i] = rec
	}
	return recs
}

func TestScoreAll_MatchesSequential(t *testing.T) {
	e := newDefaultEngine(t)
	recs := batchRecords(200)

	got, err := ScoreAll(context.Background(), e, recs, fixedAt, 16)
	require.NoError(t, err)
	require.Len(t, got, len(recs))

	for i, rec := range recs {
		assert.Equal(t, e.ScoreAt(rec, fixedAt), got[i], "record %d", i)
	}
}

func TestScoreAll_Empty(t *testing.T) {
	e := newDefaultEngine(t)
	got, err := ScoreAll(context.Background(), e, nil, fixedAt, 4)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestScoreAll_DefaultConcurrency(t *testing.T) {
	e := newDefaultEngine(t)
	got, err := ScoreAll(context.Background(), e, batchRecords(10), fixedAt, 0)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestScoreAll_Cancelled(t *testing.T) {
	e := newDefaultEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := ScoreAll(ctx, e, batchRecords(50), fixedAt, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

package runs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
)

func TestRun_Lifecycle(t *testing.T) {
	t.Parallel()

	first := NewRun("applications", "dev", true)
	second := NewRun("applications", "dev", true)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, first.DryRun)
	assert.NotNil(t, first.RowsWritten)
	assert.False(t, first.Success)

	first.StartedAt = time.Date(2024, 5, 17, 1, 0, 0, 0, time.UTC)
	first.Finish(nil)
	assert.True(t, first.Success)
	assert.Empty(t, first.Error)
	assert.Positive(t, first.Duration())

	second.Finish(errors.New("bad credentials"))
	assert.False(t, second.Success)
	assert.Equal(t, "bad credentials", second.Error)
}

type failingRecorder struct {
	calls int
}

func (f *failingRecorder) Record(context.Context, *Run) error {
	f.calls++
	return errors.New("relation \"report_runs\" does not exist")
}

func TestRecordQuietly(t *testing.T) {
	t.Parallel()

	run := NewRun("service_layers", "prod", false)
	run.RowsWritten[records.KindServiceLayer] = 12

	recorder := &failingRecorder{}
	assert.NotPanics(t, func() {
		RecordQuietly(context.Background(), recorder, run)
		RecordQuietly(context.Background(), nil, run)
		RecordQuietly(context.Background(), NopRecorder{}, run)
	})
	require.Equal(t, 1, recorder.calls)
}

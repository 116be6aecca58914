package metrics

import (
	"errors"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve_RecordsOutcomeLabel(t *testing.T) {
	before := testutil.ToFloat64(operationsTotal.WithLabelValues("unit_test_op", "ok"))
	Observe("unit_test_op", nil)
	after := testutil.ToFloat64(operationsTotal.WithLabelValues("unit_test_op", "ok"))
	assert.Equal(t, before+1, after)

	Observe("unit_test_op", errors.New("boom"))
	assert.Equal(t, float64(1), testutil.ToFloat64(operationsTotal.WithLabelValues("unit_test_op", "error")))
}

func TestTimer_ObservesNonZeroDuration(t *testing.T) {
	var before dto.Metric
	require.NoError(t, saveDuration.Write(&before))
	beforeCount := before.GetHistogram().GetSampleCount()

	stop := Timer()
	time.Sleep(time.Millisecond)
	stop()

	var after dto.Metric
	require.NoError(t, saveDuration.Write(&after))
	assert.Equal(t, beforeCount+1, after.GetHistogram().GetSampleCount())
}

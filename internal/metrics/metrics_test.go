package metrics

import (
	"testing"
	"time"

	"github.com/danielbgg/payment-batch/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStepListener(t *testing.T) {
	collector := NewCollector()
	listener := NewStepListener(collector)

	listener.BeforeStep(models.StepEvent{Phase: models.PhaseBefore})
	listener.BeforeStep(models.StepEvent{Phase: models.PhaseBefore})
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.ActiveSteps))

	listener.AfterStep(models.StepEvent{
		Phase: models.PhaseAfter, Status: models.StepCompleted,
		ReadCount: 10, WriteCount: 10, SkipCount: 1, Duration: time.Second,
	})
	listener.AfterStep(models.StepEvent{
		Phase: models.PhaseAfter, Status: models.StepFailed,
		ReadCount: 5, WriteCount: 5,
	})

	assert.Equal(t, float64(0), testutil.ToFloat64(collector.ActiveSteps))
	assert.Equal(t, float64(15), testutil.ToFloat64(collector.PaymentsRead))
	assert.Equal(t, float64(15), testutil.ToFloat64(collector.PaymentsWritten))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.PaymentsSkipped))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.Partitions.WithLabelValues("COMPLETED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.Partitions.WithLabelValues("FAILED")))
}

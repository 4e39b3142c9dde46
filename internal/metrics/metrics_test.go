package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsRegistered(t *testing.T) {
	before := testutil.ToFloat64(FramesProcessedTotal)
	FramesProcessedTotal.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(FramesProcessedTotal))

	HandsDetected.Set(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(HandsDetected))

	right := HandsByLabelTotal.WithLabelValues("Right")
	before = testutil.ToFloat64(right)
	right.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(right))
}

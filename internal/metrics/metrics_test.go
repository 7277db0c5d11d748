package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsOutcomesAndFindings(t *testing.T) {
	r := NewRecorder(prom.NewRegistry())

	r.ObserveBuild(120*time.Millisecond, true)
	r.ObserveBuild(80*time.Millisecond, false)
	r.CountFinding("unresolved-reference")
	r.CountFinding("unresolved-reference")
	r.ObserveStage("expand", 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.buildOutcome.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.buildOutcome.WithLabelValues("failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.findings.WithLabelValues("unresolved-reference")))
}

func TestNewRecorder_NilRegistryGetsPrivateOne(t *testing.T) {
	r := NewRecorder(nil)
	require.NotNil(t, r.Registry())
}

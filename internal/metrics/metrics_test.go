package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums the samples of family name whose labels include want.
func counterValue(t *testing.T, m *Metrics, name string, want map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			if matches(metric, want) {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func matches(metric *dto.Metric, want map[string]string) bool {
	for k, v := range want {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == k && lp.GetValue() == v {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestRecordLookup(t *testing.T) {
	m := New()
	m.RecordLookup(LookupHit)
	m.RecordLookup(LookupMiss)
	m.RecordLookup(LookupMiss)
	m.RecordLookup(LookupShared)

	assert.Equal(t, 1.0, counterValue(t, m, "fpstab_cache_lookups_total", map[string]string{"result": LookupHit}))
	assert.Equal(t, 2.0, counterValue(t, m, "fpstab_cache_lookups_total", map[string]string{"result": LookupMiss}))
	assert.Equal(t, 1.0, counterValue(t, m, "fpstab_cache_lookups_total", map[string]string{"result": LookupShared}))
}

func TestRecordSolverCall(t *testing.T) {
	m := New()
	m.RecordSolverCall("ok", 1500*time.Millisecond)
	m.RecordSolverCall("timeout", time.Minute)

	assert.Equal(t, 1.0, counterValue(t, m, "fpstab_solver_calls_total", map[string]string{"outcome": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, m, "fpstab_solver_calls_total", map[string]string{"outcome": "timeout"}))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "fpstab_solver_duration_seconds" {
			h := f.GetMetric()[0].GetHistogram()
			assert.Equal(t, uint64(2), h.GetSampleCount())
			assert.InDelta(t, 61.5, h.GetSampleSum(), 1e-9)
			return
		}
	}
	t.Fatal("latency histogram not registered")
}

func TestRecordDebugAndStabilization(t *testing.T) {
	m := New()
	m.RecordDebugInfo()
	m.RecordDebugInfo()
	m.RecordStabilization(StatusImproved)
	m.RecordStabilization(StatusUnknown)

	assert.Equal(t, 2.0, counterValue(t, m, "fpstab_cache_debug_records_total", nil))
	assert.Equal(t, 1.0, counterValue(t, m, "fpstab_stabilizations_total", map[string]string{"status": StatusImproved}))
	assert.Equal(t, 1.0, counterValue(t, m, "fpstab_stabilizations_total", map[string]string{"status": StatusUnknown}))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordLookup(LookupHit)
		m.RecordSolverCall("ok", time.Second)
		m.RecordDebugInfo()
		m.RecordStabilization(StatusUnchanged)
	})
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RecordLookup(LookupHit)

	path := filepath.Join(t.TempDir(), "fpstab.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `fpstab_cache_lookups_total{result="hit"} 1`)
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordLookup(LookupHit)

	assert.Equal(t, 1.0, counterValue(t, a, "fpstab_cache_lookups_total", nil))
	assert.Equal(t, 0.0, counterValue(t, b, "fpstab_cache_lookups_total", nil))
}

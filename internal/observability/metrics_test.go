package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums a gathered counter family across label sets matching
// labels.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.CourseGenerated("ok", 20*time.Millisecond, 2)
	m.CourseGenerated("empty", time.Millisecond, 1)
	m.CacheLookup("entries", "hit")
	m.BackgroundTask("persist_course", "failed")

	assert.Equal(t, 1.0, counterValue(t, reg, "rehab_course_course_generated_total", map[string]string{"outcome": "ok"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "rehab_course_course_generated_total", nil))
	assert.Equal(t, 3.0, counterValue(t, reg, "rehab_course_course_warnings_total", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "rehab_course_cache_lookups_total", map[string]string{"kind": "entries", "result": "hit"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "rehab_course_background_tasks_total", map[string]string{"result": "failed"}))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CourseGenerated("ok", time.Second, 0)
		m.CacheLookup("entries", "miss")
		m.BackgroundTask("x", "ok")
		m.QueueDepth(3)
		m.EventPublished("t", "ok")
		m.AnalysisFallback("logs")
		m.HTTPRequest("GET", "/ping", "200", time.Millisecond)
	})
}

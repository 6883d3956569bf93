package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value returns the sample of name whose labels include want.
func value(t *testing.T, m *Metrics, name string, want map[string]string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue next
				}
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			return float64(metric.GetHistogram().GetSampleCount())
		}
	}
	return 0
}

func TestDomainCounters(t *testing.T) {
	m := New()

	m.UploadSucceeded(100)
	m.UploadSucceeded(50)
	m.UploadRejectedByQuota()
	m.UploadFailed()
	m.DeleteDone(ResultSuccess)

	assert.Equal(t, 2.0, value(t, m, "zyboard_uploads_total", map[string]string{"result": ResultSuccess}))
	assert.Equal(t, 1.0, value(t, m, "zyboard_uploads_total", map[string]string{"result": ResultRejected}))
	assert.Equal(t, 1.0, value(t, m, "zyboard_uploads_total", map[string]string{"result": ResultFailed}))
	assert.Equal(t, 150.0, value(t, m, "zyboard_upload_bytes_total", nil))
	assert.Equal(t, 1.0, value(t, m, "zyboard_quota_rejections_total", nil))
	assert.Equal(t, 1.0, value(t, m, "zyboard_deletes_total", map[string]string{"result": ResultSuccess}))
}

func TestNewIsIsolated(t *testing.T) {
	a, b := New(), New()
	a.UploadFailed()
	assert.Equal(t, 0.0, value(t, b, "zyboard_uploads_total", map[string]string{"result": ResultFailed}))
}

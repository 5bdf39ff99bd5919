package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRender(StageTemplate, ResultSuccess, 15*time.Millisecond)
	pr.ObserveRender(StageTemplate, ResultDegraded, time.Millisecond)
	pr.SetInventoryImages(3)
	pr.SetPages(7)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	for _, want := range []string{"vellum_render_total", "vellum_render_duration_seconds", "vellum_inventory_images", "vellum_site_pages"} {
		assert.Contains(t, names, want)
	}
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveRender(StageTemplate, ResultSuccess, time.Second)
		pr.SetInventoryImages(1)
		pr.SetPages(1)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).SetPages(2)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vellum_site_pages 2")
}

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)

package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vellum"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	renders         *prom.CounterVec
	renderDuration  *prom.HistogramVec
	inventoryImages prom.Gauge
	pages           prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		renders: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "render_total",
			Help:      "Render operations by stage and outcome",
		}, []string{"stage", "result"}),
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of render operations",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		inventoryImages: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory_images",
			Help:      "Distinct image URLs found by the last inventory scan",
		}),
		pages: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "site_pages",
			Help:      "Pages in the current site snapshot",
		}),
	}
	reg.MustRegister(pr.renders, pr.renderDuration, pr.inventoryImages, pr.pages)
	return pr
}

func (p *PrometheusRecorder) ObserveRender(stage string, result ResultLabel, d time.Duration) {
	if p == nil || p.renders == nil {
		return
	}
	p.renders.WithLabelValues(stage, string(result)).Inc()
	p.renderDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetInventoryImages(n int) {
	if p == nil || p.inventoryImages == nil {
		return
	}
	p.inventoryImages.Set(float64(n))
}

func (p *PrometheusRecorder) SetPages(n int) {
	if p == nil || p.pages == nil {
		return
	}
	p.pages.Set(float64(n))
}

// HTTPHandler serves the metrics of reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

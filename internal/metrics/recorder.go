// Package metrics records render and site metrics. Components hold a
// Recorder and default to NoopRecorder, so metrics stay optional.
package metrics

import "time"

// ResultLabel enumerates render outcomes for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	// ResultDegraded marks a render that failed and produced diagnostic or
	// empty output instead.
	ResultDegraded ResultLabel = "degraded"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Render stages.
const (
	StageTemplate  = "template"
	StageInventory = "inventory"
	StageReload    = "reload"
	StageBuild     = "build"
)

// Recorder defines the render observability hooks.
type Recorder interface {
	ObserveRender(stage string, result ResultLabel, d time.Duration)
	SetInventoryImages(n int)
	SetPages(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRender(string, ResultLabel, time.Duration) {}
func (NoopRecorder) SetInventoryImages(int)                           {}
func (NoopRecorder) SetPages(int)                                     {}

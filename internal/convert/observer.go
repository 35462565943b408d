package convert

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/tailzen/internal/logfields"
	"git.home.luguber.info/inful/tailzen/internal/metrics"
)

// StageEvent describes a stage boundary.
type StageEvent struct {
	ConversionID string
	Repository   string
	Stage        State
	// Duration, Result and Err are only set on completion.
	Duration time.Duration
	Result   metrics.ResultLabel
	Err      error
}

// Observer is notified of stage boundaries. Calls happen on the goroutine
// running Convert.
type Observer interface {
	OnStageStart(ev StageEvent)
	OnStageComplete(ev StageEvent)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(StageEvent)    {}
func (NoopObserver) OnStageComplete(StageEvent) {}

// LogObserver writes stage boundaries to a slog logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o LogObserver) OnStageStart(ev StageEvent) {
	o.logger().Debug("Stage started",
		logfields.ConversionID(ev.ConversionID),
		logfields.Stage(string(ev.Stage)))
}

func (o LogObserver) OnStageComplete(ev StageEvent) {
	attrs := []any{
		logfields.ConversionID(ev.ConversionID),
		logfields.Stage(string(ev.Stage)),
		logfields.DurationMS(float64(ev.Duration.Microseconds()) / 1000),
		slog.String("result", string(ev.Result)),
	}
	if ev.Err != nil {
		o.logger().Warn("Stage failed", append(attrs, logfields.Error(ev.Err))...)
		return
	}
	o.logger().Info("Stage completed", attrs...)
}

// MultiObserver fans events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnStageStart(ev StageEvent) {
	for _, o := range m {
		o.OnStageStart(ev)
	}
}

func (m MultiObserver) OnStageComplete(ev StageEvent) {
	for _, o := range m {
		o.OnStageComplete(ev)
	}
}

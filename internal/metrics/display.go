// Package metrics provides Prometheus metrics for the display runner.
package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smazurov/lightnode/internal/command"
	"github.com/smazurov/lightnode/internal/display"
)

const namespace = "lightnode"

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "display",
		Name:      "frames_total",
		Help:      "Frames committed to the sinks",
	}, []string{"result"})

	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "display",
		Name:      "ticks_total",
		Help:      "Render ticks by outcome",
	}, []string{"outcome"})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "display",
		Name:      "tick_duration_seconds",
		Help:      "Time spent in one render tick",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
	})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "commands",
		Name:      "total",
		Help:      "Commands by kind and result",
	}, []string{"kind", "result"})

	brightnessGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "display",
		Name:      "brightness",
		Help:      "Current brightness (0-100), 0 while off",
	})

	powerGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "display",
		Name:      "power",
		Help:      "1 while the strip is on",
	})

	effectInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "display",
		Name:      "effect_info",
		Help:      "1 for the active effect",
	}, []string{"effect"})
)

// Command results.
const (
	ResultAccepted  = "accepted"
	ResultInvalid   = "invalid"
	ResultQueueFull = "queue_full"
	ResultError     = "error"
)

// CommandResult maps a Submit error to its metric label.
func CommandResult(err error) string {
	switch {
	case err == nil:
		return ResultAccepted
	case errors.Is(err, display.ErrQueueFull):
		return ResultQueueFull
	case errors.Is(err, command.ErrInvalidInput):
		return ResultInvalid
	default:
		return ResultError
	}
}

// Snapshot holds the values last recorded, for the JSON API.
type Snapshot struct {
	Frames      uint64            `json:"frames" doc:"Frames committed"`
	FrameErrors uint64            `json:"frame_errors" doc:"Frames the sinks failed to write"`
	Ticks       map[string]uint64 `json:"ticks" doc:"Render ticks by outcome"`
	Commands    map[string]uint64 `json:"commands" doc:"Commands by result"`
	LastTick    time.Duration     `json:"last_tick_ns" doc:"Duration of the last tick in nanoseconds"`
	On          bool              `json:"on" doc:"Whether the strip is lit"`
	Brightness  int               `json:"brightness" doc:"Current brightness"`
	Effect      string            `json:"effect" doc:"Active effect"`
}

// Recorder implements display.Recorder on top of the package collectors and
// keeps a local copy of the values for Snapshot.
type Recorder struct {
	mu   sync.RWMutex
	snap Snapshot
}

var _ display.Recorder = (*Recorder)(nil)

// NewRecorder creates a recorder.
func NewRecorder() *Recorder {
	return &Recorder{snap: Snapshot{
		Ticks:    make(map[string]uint64),
		Commands: make(map[string]uint64),
	}}
}

// RecordTick counts a tick and observes its duration.
func (r *Recorder) RecordTick(outcome string, d time.Duration) {
	ticksTotal.WithLabelValues(outcome).Inc()
	tickDuration.Observe(d.Seconds())

	r.mu.Lock()
	r.snap.Ticks[outcome]++
	r.snap.LastTick = d
	r.mu.Unlock()
}

// RecordCommand counts a command by kind and result.
func (r *Recorder) RecordCommand(kind string, err error) {
	result := CommandResult(err)
	commandsTotal.WithLabelValues(kind, result).Inc()

	r.mu.Lock()
	r.snap.Commands[result]++
	r.mu.Unlock()
}

// RecordFrame counts a committed frame.
func (r *Recorder) RecordFrame(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	framesTotal.WithLabelValues(result).Inc()

	r.mu.Lock()
	if err != nil {
		r.snap.FrameErrors++
	} else {
		r.snap.Frames++
	}
	r.mu.Unlock()
}

// RecordState updates the power, brightness and effect gauges.
func (r *Recorder) RecordState(on bool, brightness int, effect string) {
	power := 0.0
	if on {
		power = 1
	}
	powerGauge.Set(power)
	brightnessGauge.Set(float64(brightness))
	effectInfo.Reset()
	effectInfo.WithLabelValues(effect).Set(1)

	r.mu.Lock()
	r.snap.On = on
	r.snap.Brightness = brightness
	r.snap.Effect = effect
	r.mu.Unlock()
}

// Snapshot returns a copy of the recorded values.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.snap
	s.Ticks = make(map[string]uint64, len(r.snap.Ticks))
	for k, v := range r.snap.Ticks {
		s.Ticks[k] = v
	}
	s.Commands = make(map[string]uint64, len(r.snap.Commands))
	for k, v := range r.snap.Commands {
		s.Commands[k] = v
	}
	return s
}

// Handler returns the Prometheus metrics HTTP handler for every
// promauto-registered collector.
func Handler() http.Handler {
	return promhttp.Handler()
}

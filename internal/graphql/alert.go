package graphql

import (
	"log/slog"
	"sync"
)

// Alerter presents a one-shot message to the end user.
type Alerter interface {
	Alert(msg string)
}

// AlertFunc adapts an ordinary function to the Alerter interface.
type AlertFunc func(msg string)

// Alert calls f(msg).
func (f AlertFunc) Alert(msg string) { f(msg) }

// LogAlerter returns an Alerter that records every alert as a warning on
// logger. A nil logger uses slog.Default().
func LogAlerter(logger *slog.Logger) Alerter {
	if logger == nil {
		logger = slog.Default()
	}
	return AlertFunc(func(msg string) {
		logger.Warn("graphql alert", "message", msg)
	})
}

// Recorder is an Alerter that keeps every alert it receives. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	alerts []string
}

// Alert appends msg to the recorded alerts.
func (r *Recorder) Alert(msg string) {
	r.mu.Lock()
	r.alerts = append(r.alerts, msg)
	r.mu.Unlock()
}

// Alerts returns a copy of the recorded alerts in arrival order.
func (r *Recorder) Alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// Package metrics exports channel and link counters to prometheus
package metrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ZentaChain/aalink/pkg/channel"
	"github.com/ZentaChain/aalink/pkg/messenger"
)

const namespace = "aalink"

// Metrics implements channel.Observer and provides a messenger tap.
// One Metrics is shared by every session.
type Metrics struct {
	dispatched     *prometheus.CounterVec
	channelErrors  *prometheus.CounterVec
	linkMessages   *prometheus.CounterVec
	linkBytes      *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter
}

var _ channel.Observer = (*Metrics)(nil)

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "channel",
				Name:      "dispatched_total",
				Help:      "Inbound messages routed by channel dispatchers.",
			},
			[]string{"channel", "message_id", "outcome"},
		),
		channelErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "channel",
				Name:      "errors_total",
				Help:      "Errors surfaced to channel handlers.",
			},
			[]string{"channel", "code"},
		),
		linkMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "link",
				Name:      "messages_total",
				Help:      "Complete messages crossing the link.",
			},
			[]string{"direction", "channel"},
		),
		linkBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "link",
				Name:      "payload_bytes_total",
				Help:      "Plaintext payload bytes crossing the link.",
			},
			[]string{"direction", "channel"},
		),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently running.",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Sessions started since process start.",
		}),
	}

	reg.MustRegister(m.dispatched, m.channelErrors, m.linkMessages, m.linkBytes, m.sessionsActive, m.sessionsTotal)
	return m
}

// Dispatched counts one routed message
func (m *Metrics) Dispatched(ch messenger.ChannelID, id messenger.MessageID, outcome channel.Outcome) {
	m.dispatched.WithLabelValues(ch.String(), id.String(), string(outcome)).Inc()
}

// ChannelError counts one surfaced error by code
func (m *Metrics) ChannelError(ch messenger.ChannelID, err error) {
	m.channelErrors.WithLabelValues(ch.String(), errorLabel(err)).Inc()
}

// Tap returns a messenger tap counting traffic
func (m *Metrics) Tap() messenger.Tap {
	return func(dir messenger.Direction, msg *messenger.Message) {
		labels := []string{dir.String(), msg.ChannelID().String()}
		m.linkMessages.WithLabelValues(labels...).Inc()
		m.linkBytes.WithLabelValues(labels...).Add(float64(len(msg.Payload())))
	}
}

// SessionStarted and SessionEnded track live sessions
func (m *Metrics) SessionStarted() {
	m.sessionsActive.Inc()
	m.sessionsTotal.Inc()
}

func (m *Metrics) SessionEnded() {
	m.sessionsActive.Dec()
}

func errorLabel(err error) string {
	var coded *messenger.Error
	if errors.As(err, &coded) {
		return strings.ReplaceAll(coded.Code.String(), " ", "_")
	}
	return "other"
}

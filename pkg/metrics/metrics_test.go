package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"

	"github.com/ZentaChain/aalink/pkg/channel"
	"github.com/ZentaChain/aalink/pkg/channel/ids"
	"github.com/ZentaChain/aalink/pkg/messenger"
)

func value(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		return -1
	}
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	return -1
}

func TestDispatchedCounts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Dispatched(messenger.ChannelVideo, ids.AVMediaIndication, channel.OutcomeHandled)
	m.Dispatched(messenger.ChannelVideo, ids.AVMediaIndication, channel.OutcomeHandled)
	m.Dispatched(messenger.ChannelVideo, ids.AVVideoFocusRequest, channel.OutcomeUnhandled)

	assert.Equal(t, 2.0, value(m.dispatched.WithLabelValues("video", "0x0001", "handled")))
	assert.Equal(t, 1.0, value(m.dispatched.WithLabelValues("video", "0x8007", "unhandled")))
}

func TestChannelErrorLabels(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ChannelError(messenger.ChannelSensor, messenger.NewError(messenger.ErrorParsePayload, errors.New("short")))
	m.ChannelError(messenger.ChannelSensor, errors.New("boom"))

	assert.Equal(t, 1.0, value(m.channelErrors.WithLabelValues("sensor", "parse_payload")))
	assert.Equal(t, 1.0, value(m.channelErrors.WithLabelValues("sensor", "other")))
}

func TestTapCountsBytes(t *testing.T) {
	m := New(prometheus.NewRegistry())
	tap := m.Tap()

	msg := messenger.NewMessageWithPayload(messenger.ChannelMediaAudio, messenger.EncryptionEncrypted, messenger.MessageTypeSpecific, make([]byte, 100))
	tap(messenger.DirectionInbound, msg)
	tap(messenger.DirectionInbound, msg)

	assert.Equal(t, 2.0, value(m.linkMessages.WithLabelValues("in", "media_audio")))
	assert.Equal(t, 200.0, value(m.linkBytes.WithLabelValues("in", "media_audio")))
}

func TestSessions(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()

	assert.Equal(t, 1.0, value(m.sessionsActive))
	assert.Equal(t, 2.0, value(m.sessionsTotal))
}

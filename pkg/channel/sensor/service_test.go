package sensor

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/aalink/pkg/channel"
	"github.com/ZentaChain/aalink/pkg/channel/channeltest"
	"github.com/ZentaChain/aalink/pkg/channel/ids"
	"github.com/ZentaChain/aalink/pkg/messenger"
	"github.com/ZentaChain/aalink/pkg/proto"
)

type recorder struct {
	opens  []*proto.ChannelOpenRequest
	starts []*proto.SensorStartRequest
	errs   []error
}

func (r *recorder) OnChannelError(err error) { r.errs = append(r.errs, err) }

func (r *recorder) OnChannelOpenRequest(req *proto.ChannelOpenRequest) {
	r.opens = append(r.opens, req)
}

func (r *recorder) OnSensorStartRequest(req *proto.SensorStartRequest) {
	r.starts = append(r.starts, req)
}

func TestSensorStartRequest(t *testing.T) {
	s := messenger.NewStrand()
	defer s.Stop()
	m := channeltest.NewMessenger()
	svc := NewService(s, m, channel.WithLogger(zerolog.Nop()))
	r := &recorder{}

	svc.Receive(r)
	body := (&proto.SensorStartRequest{SensorType: proto.SensorTypeNightData, RefreshInterval: 0}).Marshal()
	require.True(t, m.Deliver(messenger.NewMessageWithPayload(messenger.ChannelSensor, messenger.EncryptionEncrypted, messenger.MessageTypeSpecific, append(ids.SensorStartRequest.Bytes(), body...))))
	require.True(t, channeltest.Flush(s))

	require.Len(t, r.starts, 1)
	assert.Equal(t, proto.SensorTypeNightData, r.starts[0].SensorType)
	assert.Empty(t, r.errs)

	// missing refresh interval
	svc.Receive(r)
	short := (&proto.SensorStartResponse{Status: proto.StatusOK}).Marshal()
	require.True(t, m.Deliver(messenger.NewMessageWithPayload(messenger.ChannelSensor, messenger.EncryptionEncrypted, messenger.MessageTypeSpecific, append(ids.SensorStartRequest.Bytes(), short...))))
	require.True(t, channeltest.Flush(s))

	assert.Len(t, r.starts, 1)
	require.Len(t, r.errs, 1)
	assert.ErrorIs(t, r.errs[0], messenger.ErrParsePayload)
}

func TestSendSensorEvent(t *testing.T) {
	s := messenger.NewStrand()
	defer s.Stop()
	m := channeltest.NewMessenger()
	svc := NewService(s, m)

	ind := &proto.SensorEventIndication{NightMode: []proto.NightMode{{IsNight: true}}}
	svc.SendSensorEventIndication(ind, messenger.NewSendPromise(s))

	require.Len(t, m.Sent(), 1)
	msg := m.Sent()[0]
	assert.Equal(t, messenger.ChannelSensor, msg.ChannelID())
	assert.Equal(t, ids.SensorEventIndication, messenger.ParseMessageID(msg.Payload()))

	out := &proto.SensorEventIndication{}
	require.NoError(t, out.Unmarshal(msg.Payload()[messenger.MessageIDSize:]))
	assert.Equal(t, ind, out)
}

func TestIDSpacesDisjoint(t *testing.T) {
	dup, ok := channel.Disjoint(controlIDs, specificIDs)
	assert.True(t, ok, "id %s used in both namespaces", dup)
	assert.Subset(t, append(append([]messenger.MessageID{}, controlIDs...), specificIDs...), table.IDs())
}

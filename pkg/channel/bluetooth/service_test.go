package bluetooth

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
	opens    []*proto.ChannelOpenRequest
	pairings []*proto.BluetoothPairingRequest
	errs     []error
}

func (r *recorder) OnChannelError(err error) { r.errs = append(r.errs, err) }

func (r *recorder) OnChannelOpenRequest(req *proto.ChannelOpenRequest) {
	r.opens = append(r.opens, req)
}

func (r *recorder) OnBluetoothPairingRequest(req *proto.BluetoothPairingRequest) {
	r.pairings = append(r.pairings, req)
}

func TestPairingFlow(t *testing.T) {
	s := messenger.NewStrand()
	defer s.Stop()
	m := channeltest.NewMessenger()
	svc := NewService(s, m, channel.WithLogger(zerolog.Nop()))
	r := &recorder{}

	svc.Receive(r)
	open := (&proto.ChannelOpenRequest{Priority: 0, ChannelID: int32(messenger.ChannelBluetooth)}).Marshal()
	require.True(t, m.Deliver(messenger.NewMessageWithPayload(messenger.ChannelBluetooth, messenger.EncryptionEncrypted, messenger.MessageTypeControl, append(ids.ChannelOpenRequest.Bytes(), open...))))
	require.True(t, channeltest.Flush(s))
	require.Len(t, r.opens, 1)

	svc.SendChannelOpenResponse(&proto.ChannelOpenResponse{Status: proto.StatusOK}, messenger.NewSendPromise(s))

	svc.Receive(r)
	req := &proto.BluetoothPairingRequest{PhoneAddress: "AA:BB:CC:DD:EE:FF", PairingMethod: proto.BluetoothPairingMethodNumeric}
	require.True(t, m.Deliver(messenger.NewMessageWithPayload(messenger.ChannelBluetooth, messenger.EncryptionEncrypted, messenger.MessageTypeSpecific, append(ids.BluetoothPairingRequest.Bytes(), req.Marshal()...))))
	require.True(t, channeltest.Flush(s))

	require.Len(t, r.pairings, 1)
	assert.Equal(t, req, r.pairings[0])
	assert.Empty(t, r.errs)

	svc.SendBluetoothPairingResponse(&proto.BluetoothPairingResponse{AlreadyPaired: true, Status: proto.StatusOK}, messenger.NewSendPromise(s))
	sent := m.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, messenger.MessageTypeControl, sent[0].Type())
	assert.Equal(t, ids.BluetoothPairingResponse, messenger.ParseMessageID(sent[1].Payload()))
}

func TestIDSpacesDisjoint(t *testing.T) {
	dup, ok := channel.Disjoint(controlIDs, specificIDs)
	assert.True(t, ok, "id %s used in both namespaces", dup)
}

package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/aalink/pkg/channel/ids"
	"github.com/ZentaChain/aalink/pkg/messenger"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), 0, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestTapRecordsMessages(t *testing.T) {
	j := openTemp(t)
	session := NewSessionID()
	tap := j.Tap(session)

	media := make([]byte, 200)
	copy(media, ids.AVMediaIndication.Bytes())
	tap(messenger.DirectionInbound, messenger.NewMessageWithPayload(messenger.ChannelVideo, messenger.EncryptionEncrypted, messenger.MessageTypeSpecific, media))
	tap(messenger.DirectionOutbound, messenger.NewMessageWithPayload(messenger.ChannelControl, messenger.EncryptionPlain, messenger.MessageTypeSpecific, ids.VersionRequest.Bytes()))
	j.Flush()

	entries, err := j.Recent("", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	newest := entries[0]
	assert.Equal(t, session, newest.SessionID)
	assert.Equal(t, "out", newest.Direction)
	assert.Equal(t, "control", newest.Channel)
	assert.Equal(t, "plain", newest.Encryption)
	assert.Equal(t, uint16(ids.VersionRequest), newest.MessageID)

	video := entries[1]
	assert.Equal(t, "in", video.Direction)
	assert.Equal(t, 200, video.Size)
}

func TestRecentFiltersByChannel(t *testing.T) {
	j := openTemp(t)
	tap := j.Tap(NewSessionID())
	for i := 0; i < 5; i++ {
		tap(messenger.DirectionInbound, messenger.NewMessageWithPayload(messenger.ChannelSensor, messenger.EncryptionEncrypted, messenger.MessageTypeSpecific, ids.SensorStartRequest.Bytes()))
	}
	tap(messenger.DirectionInbound, messenger.NewMessageWithPayload(messenger.ChannelInput, messenger.EncryptionEncrypted, messenger.MessageTypeSpecific, ids.InputBindingRequest.Bytes()))
	j.Flush()

	entries, err := j.Recent("sensor", 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, "sensor", e.Channel)
	}
}

func TestShortPayloadHasZeroID(t *testing.T) {
	j := openTemp(t)
	j.Tap("s")(messenger.DirectionInbound, messenger.NewMessageWithPayload(messenger.ChannelInput, messenger.EncryptionPlain, messenger.MessageTypeSpecific, []byte{0x01}))
	j.Flush()

	entries, err := j.Recent("", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Zero(t, entries[0].MessageID)
	assert.Equal(t, 1, entries[0].Size)
}

func TestStatsAndPrune(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), time.Nanosecond, zerolog.Nop())
	require.NoError(t, err)
	defer j.Close()

	j.Tap("a")(messenger.DirectionInbound, messenger.NewMessageWithPayload(messenger.ChannelControl, messenger.EncryptionPlain, messenger.MessageTypeSpecific, ids.PingRequest.Bytes()))
	j.Tap("b")(messenger.DirectionInbound, messenger.NewMessageWithPayload(messenger.ChannelControl, messenger.EncryptionPlain, messenger.MessageTypeSpecific, ids.PingRequest.Bytes()))
	j.Flush()

	stats, err := j.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Entries)
	assert.Equal(t, int64(2), stats.Sessions)

	time.Sleep(time.Millisecond)
	n, err := j.Prune()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCloseTwice(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), 0, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, j.Close())
	assert.ErrorIs(t, j.Close(), ErrClosed)

	// appends after close are ignored
	j.Tap("late")(messenger.DirectionInbound, messenger.NewMessageWithPayload(messenger.ChannelControl, messenger.EncryptionPlain, messenger.MessageTypeSpecific, ids.PingRequest.Bytes()))
}

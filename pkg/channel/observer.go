package channel

import "github.com/ZentaChain/aalink/pkg/messenger"

// Outcome classifies one dispatch
type Outcome string

const (
	OutcomeHandled   Outcome = "handled"
	OutcomeMalformed Outcome = "malformed"
	OutcomeUnhandled Outcome = "unhandled"
)

// Observer is told about every dispatch and every error a channel surfaces.
// Calls happen on the channel's strand and must not block.
type Observer interface {
	Dispatched(channel messenger.ChannelID, id messenger.MessageID, outcome Outcome)
	ChannelError(channel messenger.ChannelID, err error)
}

type nopObserver struct{}

func (nopObserver) Dispatched(messenger.ChannelID, messenger.MessageID, Outcome) {}

func (nopObserver) ChannelError(messenger.ChannelID, error) {}

package transport

import (
	"github.com/pion/webrtc/v4"

	"filedrop/internal/transfer"
)

// Channel adapts a pion data channel to the shape the transfer package
// consumes. The wrapper is thin: pion already provides ordered delivery,
// the buffered-amount accounting and the buffer-low event.
type Channel struct {
	dc *webrtc.DataChannel
}

func newChannel(dc *webrtc.DataChannel, lowThreshold uint64) *Channel {
	dc.SetBufferedAmountLowThreshold(lowThreshold)
	return &Channel{dc: dc}
}

// Label returns the channel's label.
func (c *Channel) Label() string {
	return c.dc.Label()
}

// OnOpen registers the handler invoked once the transport is established.
func (c *Channel) OnOpen(f func()) {
	c.dc.OnOpen(f)
}

// OnBufferedAmountLow registers the backpressure-release handler.
func (c *Channel) OnBufferedAmountLow(f func()) {
	c.dc.OnBufferedAmountLow(f)
}

// OnMessage registers the handler for incoming messages.
func (c *Channel) OnMessage(f func(msg transfer.ChannelMessage)) {
	c.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		f(transfer.ChannelMessage{Data: msg.Data, IsString: msg.IsString})
	})
}

// Send writes one binary payload message.
func (c *Channel) Send(data []byte) error {
	return c.dc.Send(data)
}

// SendText writes one text-encoded control message.
func (c *Channel) SendText(s string) error {
	return c.dc.SendText(s)
}

// BufferedAmount returns the number of bytes queued but not yet handed to
// the transport.
func (c *Channel) BufferedAmount() uint64 {
	return c.dc.BufferedAmount()
}

// BufferedAmountLowThreshold returns the configured backpressure threshold.
func (c *Channel) BufferedAmountLowThreshold() uint64 {
	return c.dc.BufferedAmountLowThreshold()
}

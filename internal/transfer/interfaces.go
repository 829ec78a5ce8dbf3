package transfer

import "io"

// ChannelMessage mirrors a single message delivered on a data channel.
// Control frames travel as strings, file payload as binary.
type ChannelMessage struct {
	Data     []byte
	IsString bool
}

// DataChannel is the ordered, message-oriented, bidirectional channel a
// ChunkedSender owns exclusively. The transport package adapts a pion
// *webrtc.DataChannel to this shape; tests substitute fakes.
type DataChannel interface {
	Label() string

	// OnOpen registers the handler invoked once the underlying transport is
	// established and writes become legal.
	OnOpen(f func())

	// OnBufferedAmountLow registers the backpressure-release handler. It may
	// fire any number of times, whenever the channel's outstanding buffered
	// bytes drop below the configured threshold.
	OnBufferedAmountLow(f func())

	// OnMessage registers the handler for incoming messages.
	OnMessage(f func(msg ChannelMessage))

	// Send writes one binary payload message to the channel.
	Send(data []byte) error

	// SendText writes one text-encoded control message to the channel.
	SendText(s string) error

	BufferedAmount() uint64
	BufferedAmountLowThreshold() uint64
}

// ChannelProvider is the peer collaborator: it creates one fresh data channel
// per label and relays peer lifecycle events.
type ChannelProvider interface {
	CreateDataChannel(label string) (DataChannel, error)

	OnRegistered(f func(id string))
	OnConnected(f func())
	OnDisconnected(f func())
}

// Source is a read-only, randomly addressable byte source of known total
// size, abstracting an in-memory buffer or an on-disk file handle.
type Source interface {
	io.ReaderAt
	Size() int64
}

// Sink is the writable destination a ChunkedReceiver reassembles a file into.
type Sink interface {
	io.Writer
	Close() error
}

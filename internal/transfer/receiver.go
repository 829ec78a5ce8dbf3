package transfer

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"filedrop/pkg/types"
)

// SinkFactory opens the writable destination for an announced file.
type SinkFactory func(desc types.FileDescriptor) (Sink, error)

// ChunkedReceiver reassembles one file from one channel's message stream:
// a fileinfo control message, binary payload in order, then done. It is the
// counterpart of ChunkedSender on the receiving peer.
type ChunkedReceiver struct {
	channel  DataChannel
	openSink SinkFactory

	mu       sync.Mutex
	desc     *types.FileDescriptor
	sink     Sink
	received int64

	doneOnce sync.Once
	doneCh   chan error

	log *logrus.Entry
}

// NewChunkedReceiver binds a receiver to an incoming data channel.
func NewChunkedReceiver(channel DataChannel, openSink SinkFactory) *ChunkedReceiver {
	r := &ChunkedReceiver{
		channel:  channel,
		openSink: openSink,
		doneCh:   make(chan error, 1),
		log:      logrus.WithField("channel", channel.Label()),
	}

	channel.OnMessage(r.handleMessage)

	return r
}

// Descriptor returns the announced descriptor, or nil before fileinfo arrived.
func (r *ChunkedReceiver) Descriptor() *types.FileDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.desc
}

// BytesReceived returns the number of payload bytes written so far.
func (r *ChunkedReceiver) BytesReceived() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received
}

// Done yields nil exactly once when the file has been fully received, or the
// first error that stopped reassembly.
func (r *ChunkedReceiver) Done() <-chan error {
	return r.doneCh
}

func (r *ChunkedReceiver) handleMessage(msg ChannelMessage) {
	var err error
	if msg.IsString {
		err = r.handleControl(msg.Data)
	} else {
		err = r.handlePayload(msg.Data)
	}
	if err != nil {
		r.fail(err)
	}
}

func (r *ChunkedReceiver) handleControl(data []byte) error {
	msg, err := decodeControl(data)
	if err != nil {
		return err
	}

	switch msg.Type {
	case msgTypeFileInfo:
		if msg.FileInfo == nil {
			return fmt.Errorf("fileinfo message carries no descriptor")
		}
		return r.handleFileInfo(*msg.FileInfo)
	case msgTypeDone:
		return r.handleDone()
	default:
		return fmt.Errorf("unknown control message type %q", msg.Type)
	}
}

func (r *ChunkedReceiver) handleFileInfo(desc types.FileDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.desc != nil {
		return fmt.Errorf("duplicate fileinfo for %q", desc.Name)
	}

	sink, err := r.openSink(desc)
	if err != nil {
		return fmt.Errorf("failed to open sink for %q: %w", desc.Name, err)
	}
	r.desc = &desc
	r.sink = sink

	r.log.WithFields(logrus.Fields{
		"file": desc.Name,
		"size": desc.Size,
	}).Info("receiving file")
	return nil
}

func (r *ChunkedReceiver) handlePayload(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sink == nil {
		return fmt.Errorf("payload before fileinfo")
	}
	if _, err := r.sink.Write(data); err != nil {
		return fmt.Errorf("failed to write chunk: %w", err)
	}
	r.received += int64(len(data))
	return nil
}

func (r *ChunkedReceiver) handleDone() error {
	r.mu.Lock()
	if r.desc == nil {
		r.mu.Unlock()
		return fmt.Errorf("done before fileinfo")
	}
	desc := *r.desc
	received := r.received
	sink := r.sink
	r.sink = nil
	r.mu.Unlock()

	if sink != nil {
		if err := sink.Close(); err != nil {
			return fmt.Errorf("failed to close sink for %q: %w", desc.Name, err)
		}
	}
	if received != desc.Size {
		return fmt.Errorf("received %d bytes for %q, expected %d", received, desc.Name, desc.Size)
	}

	r.log.WithFields(logrus.Fields{
		"file":  desc.Name,
		"bytes": received,
	}).Info("file received")

	r.doneOnce.Do(func() {
		r.doneCh <- nil
	})
	return nil
}

func (r *ChunkedReceiver) fail(err error) {
	r.log.WithError(err).Error("receiver stopped")
	r.doneOnce.Do(func() {
		r.doneCh <- err
	})
}

package transfer

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"filedrop/pkg/types"
)

// SenderState represents the current state of a ChunkedSender
type SenderState int

const (
	// StateAwaitingOpen waits for the channel's underlying transport.
	StateAwaitingOpen SenderState = iota
	// StateAnnouncingInfo is the transient state while the fileinfo control
	// message goes out.
	StateAnnouncingInfo
	// StateSending is the resting state between chunks: the next event
	// produces either a chunk or the done message.
	StateSending
	// StateAwaitingNextChunk marks a chunk production in flight. Events
	// arriving in this state are no-ops; starting a second read before the
	// first completes would hand payload to the channel out of order.
	StateAwaitingNextChunk
	// StateDone means offset == size and the done message has been sent.
	StateDone
)

// String returns the string representation of SenderState
func (s SenderState) String() string {
	switch s {
	case StateAwaitingOpen:
		return "AwaitingOpen"
	case StateAnnouncingInfo:
		return "AnnouncingInfo"
	case StateSending:
		return "Sending"
	case StateAwaitingNextChunk:
		return "AwaitingNextChunk"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// ChunkedSender drives one file's bytes across one exclusively owned data
// channel. It takes no action on its own: the channel's opened and
// buffer-low events are the only triggers, both funneled through dispatch.
//
// A failed read or send is logged and leaves the state machine where it is;
// the sender stalls and its completion wait is rejected. Recovery, if any,
// belongs to the owner of the whole batch.
type ChunkedSender struct {
	channel        DataChannel
	source         Source
	desc           types.FileDescriptor
	maxMessageSize int64

	mu     sync.Mutex
	state  SenderState
	offset int64

	doneOnce sync.Once
	doneCh   chan error

	log *logrus.Entry
}

// NewChunkedSender binds a sender to a freshly created channel and registers
// for its events. Nothing is sent until the channel signals readiness.
func NewChunkedSender(channel DataChannel, source Source, desc types.FileDescriptor, maxMessageSize int64) *ChunkedSender {
	s := &ChunkedSender{
		channel:        channel,
		source:         source,
		desc:           desc,
		maxMessageSize: maxMessageSize,
		state:          StateAwaitingOpen,
		doneCh:         make(chan error, 1),
		log: logrus.WithFields(logrus.Fields{
			"channel": channel.Label(),
			"file":    desc.Name,
		}),
	}

	channel.OnOpen(s.dispatch)
	channel.OnBufferedAmountLow(s.dispatch)

	return s
}

// Descriptor returns the immutable descriptor of the file being sent.
func (s *ChunkedSender) Descriptor() types.FileDescriptor {
	return s.desc
}

// Offset returns the number of bytes already handed to the channel for
// transmission. It is monotonically non-decreasing and never exceeds the
// file size; it says nothing about delivery to the remote peer.
func (s *ChunkedSender) Offset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// State returns the current state of the sender.
func (s *ChunkedSender) State() SenderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done returns the completion wait: it yields nil exactly once when the done
// message has been sent, or the first error that stalled the sender.
func (s *ChunkedSender) Done() <-chan error {
	return s.doneCh
}

// dispatch is the single entry point for both channel events. It loops so
// that a transition which leaves channel capacity available can drive the
// next one without waiting for another event.
func (s *ChunkedSender) dispatch() {
	for s.step() {
	}
}

// step performs at most one state transition and reports whether the machine
// can make further progress right away.
func (s *ChunkedSender) step() bool {
	s.mu.Lock()
	switch s.state {
	case StateAwaitingOpen:
		s.state = StateAnnouncingInfo
		s.mu.Unlock()
		return s.announceInfo()

	case StateSending:
		if s.offset >= s.desc.Size {
			// Same suppression as chunk production: a concurrent event must
			// not send a second done message.
			s.state = StateAwaitingNextChunk
			s.mu.Unlock()
			s.finish()
			return false
		}
		s.state = StateAwaitingNextChunk
		offset := s.offset
		s.mu.Unlock()
		go s.produceChunk(offset)
		return false

	default:
		// AnnouncingInfo, AwaitingNextChunk, Done: nothing to do here.
		s.mu.Unlock()
		return false
	}
}

// announceInfo sends the fileinfo control message. On success the sender
// rests in Sending and chunk production may begin immediately.
func (s *ChunkedSender) announceInfo() bool {
	payload, err := encodeFileInfo(s.desc)
	if err != nil {
		s.fail(err)
		return false
	}
	if err := s.channel.SendText(payload); err != nil {
		s.fail(fmt.Errorf("failed to send fileinfo: %w", err))
		return false
	}

	s.log.WithField("size", s.desc.Size).Debug("announced file info")

	s.mu.Lock()
	s.state = StateSending
	s.mu.Unlock()
	return true
}

// produceChunk reads the next slice from the source, advances the offset and
// hands the payload to the channel. It runs outside the event handler; the
// AwaitingNextChunk guard keeps it the only production in flight.
func (s *ChunkedSender) produceChunk(offset int64) {
	end := offset + s.maxMessageSize
	if end > s.desc.Size {
		end = s.desc.Size
	}

	buf := make([]byte, end-offset)
	if _, err := s.source.ReadAt(buf, offset); err != nil {
		s.fail(fmt.Errorf("failed to read chunk [%d, %d): %w", offset, end, err))
		return
	}

	s.mu.Lock()
	s.offset = end
	s.mu.Unlock()

	if err := s.channel.Send(buf); err != nil {
		s.fail(fmt.Errorf("failed to send chunk [%d, %d): %w", offset, end, err))
		return
	}

	s.mu.Lock()
	s.state = StateSending
	s.mu.Unlock()

	// The channel only fires buffer-low on a high-to-low transition. If the
	// buffer never rose above the threshold there is no event coming, so
	// keep driving while capacity is available.
	if s.channel.BufferedAmount() <= s.channel.BufferedAmountLowThreshold() {
		s.dispatch()
	}
}

// finish sends the done control message and resolves the completion wait.
func (s *ChunkedSender) finish() {
	payload, err := encodeDone()
	if err != nil {
		s.fail(err)
		return
	}
	if err := s.channel.SendText(payload); err != nil {
		s.fail(fmt.Errorf("failed to send done: %w", err))
		return
	}

	s.mu.Lock()
	s.state = StateDone
	s.mu.Unlock()

	s.log.WithField("bytes", s.desc.Size).Info("file transfer complete")

	s.doneOnce.Do(func() {
		s.doneCh <- nil
	})
}

// fail logs the error and rejects the completion wait. The state machine is
// left where it is; the sender stalls and ignores further events.
func (s *ChunkedSender) fail(err error) {
	s.log.WithError(err).Error("sender stalled")
	s.doneOnce.Do(func() {
		s.doneCh <- err
	})
}

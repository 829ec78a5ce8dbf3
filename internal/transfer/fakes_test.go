package transfer

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
)

// sentMessage is one recorded channel write.
type sentMessage struct {
	data     []byte
	isString bool
}

// fakeChannel records every message handed to it in order and lets tests
// fire the opened and buffer-low events by hand.
type fakeChannel struct {
	label     string
	threshold uint64

	mu        sync.Mutex
	onOpen    func()
	onBufLow  func()
	onMessage func(ChannelMessage)
	sent      []sentMessage
	sendErr   error
	onSend    func()
}

func newFakeChannel(label string) *fakeChannel {
	return &fakeChannel{label: label, threshold: 512 * 1024}
}

func (c *fakeChannel) Label() string { return c.label }

func (c *fakeChannel) OnOpen(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOpen = f
}

func (c *fakeChannel) OnBufferedAmountLow(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onBufLow = f
}

func (c *fakeChannel) OnMessage(f func(ChannelMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = f
}

func (c *fakeChannel) Send(data []byte) error {
	c.mu.Lock()
	if c.sendErr != nil {
		c.mu.Unlock()
		return c.sendErr
	}
	c.sent = append(c.sent, sentMessage{data: bytes.Clone(data)})
	hook := c.onSend
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (c *fakeChannel) SendText(s string) error {
	c.mu.Lock()
	if c.sendErr != nil {
		c.mu.Unlock()
		return c.sendErr
	}
	c.sent = append(c.sent, sentMessage{data: []byte(s), isString: true})
	c.mu.Unlock()
	return nil
}

func (c *fakeChannel) BufferedAmount() uint64             { return 0 }
func (c *fakeChannel) BufferedAmountLowThreshold() uint64 { return c.threshold }

func (c *fakeChannel) open() {
	c.mu.Lock()
	f := c.onOpen
	c.mu.Unlock()
	if f != nil {
		f()
	}
}

func (c *fakeChannel) bufferLow() {
	c.mu.Lock()
	f := c.onBufLow
	c.mu.Unlock()
	if f != nil {
		f()
	}
}

func (c *fakeChannel) deliver(msg ChannelMessage) {
	c.mu.Lock()
	f := c.onMessage
	c.mu.Unlock()
	if f != nil {
		f(msg)
	}
}

// messages returns a snapshot of everything sent so far.
func (c *fakeChannel) messages() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sentMessage, len(c.sent))
	copy(out, c.sent)
	return out
}

// fakeProvider hands out fake channels and lets tests fire peer events.
type fakeProvider struct {
	mu             sync.Mutex
	channels       []*fakeChannel
	createErr      error
	onRegistered   func(string)
	onConnected    func()
	onDisconnected func()
}

func (p *fakeProvider) CreateDataChannel(label string) (DataChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	ch := newFakeChannel(label)
	p.channels = append(p.channels, ch)
	return ch, nil
}

func (p *fakeProvider) OnRegistered(f func(id string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRegistered = f
}

func (p *fakeProvider) OnConnected(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onConnected = f
}

func (p *fakeProvider) OnDisconnected(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onDisconnected = f
}

func (p *fakeProvider) fireRegistered(id string) {
	p.mu.Lock()
	f := p.onRegistered
	p.mu.Unlock()
	if f != nil {
		f(id)
	}
}

func (p *fakeProvider) fireConnected() {
	p.mu.Lock()
	f := p.onConnected
	p.mu.Unlock()
	if f != nil {
		f()
	}
}

func (p *fakeProvider) fireDisconnected() {
	p.mu.Lock()
	f := p.onDisconnected
	p.mu.Unlock()
	if f != nil {
		f()
	}
}

// memSource is an in-memory byte source.
type memSource struct {
	data []byte
}

func (m *memSource) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(m.data).ReadAt(p, off)
}

func (m *memSource) Size() int64 { return int64(len(m.data)) }

// blockingSource parks every read until the test releases it, so chunk
// production stays observably in flight.
type blockingSource struct {
	data    []byte
	entered chan struct{}
	release chan struct{}
}

func newBlockingSource(data []byte) *blockingSource {
	return &blockingSource{
		data:    data,
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (b *blockingSource) ReadAt(p []byte, off int64) (int, error) {
	b.entered <- struct{}{}
	<-b.release
	return bytes.NewReader(b.data).ReadAt(p, off)
}

func (b *blockingSource) Size() int64 { return int64(len(b.data)) }

// failingSource rejects every read.
type failingSource struct {
	size int64
}

var errReadFailed = errors.New("disk read failed")

func (f *failingSource) ReadAt(p []byte, off int64) (int, error) {
	return 0, errReadFailed
}

func (f *failingSource) Size() int64 { return f.size }

// memSink collects written bytes and records whether it was closed.
type memSink struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (s *memSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("write after close")
	}
	return s.buf.Write(p)
}

func (s *memSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memSink) contents() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.buf.Bytes())
}

func (s *memSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

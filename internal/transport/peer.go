package transport

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"filedrop/internal/config"
	"filedrop/internal/transfer"
)

// Peer owns one WebRTC peer connection, hands out ordered data channels and
// surfaces the peer lifecycle as registered/connected/disconnected events.
// It implements transfer.ChannelProvider.
type Peer struct {
	config *config.Config
	conn   *webrtc.PeerConnection

	mu             sync.Mutex
	onRegistered   func(id string)
	onConnected    func()
	onDisconnected func()

	log *logrus.Entry
}

// NewPeer creates a peer connection from the configured ICE servers.
func NewPeer(cfg *config.Config) (*Peer, error) {
	conn, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: cfg.WebRTC.ICEServers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	p := &Peer{
		config: cfg,
		conn:   conn,
		log:    logrus.WithField("component", "peer"),
	}
	conn.OnConnectionStateChange(p.handleConnectionStateChange)

	return p, nil
}

// Connection exposes the underlying peer connection to the signaling layer.
func (p *Peer) Connection() *webrtc.PeerConnection {
	return p.conn
}

// CreateDataChannel creates a distinct ordered, message-oriented channel for
// the given label.
func (p *Peer) CreateDataChannel(label string) (transfer.DataChannel, error) {
	ordered := true
	dc, err := p.conn.CreateDataChannel(label, &webrtc.DataChannelInit{
		Ordered: &ordered,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create data channel %q: %w", label, err)
	}
	return newChannel(dc, p.config.WebRTC.BufferedAmountLowThreshold), nil
}

// AcceptDataChannels invokes f for every data channel announced by the
// remote peer.
func (p *Peer) AcceptDataChannels(f func(channel transfer.DataChannel)) {
	p.conn.OnDataChannel(func(dc *webrtc.DataChannel) {
		p.log.WithField("channel", dc.Label()).Debug("incoming data channel")
		f(newChannel(dc, p.config.WebRTC.BufferedAmountLowThreshold))
	})
}

// OnRegistered sets the handler for the registered event.
func (p *Peer) OnRegistered(f func(id string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRegistered = f
}

// OnConnected sets the handler for the connected event.
func (p *Peer) OnConnected(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onConnected = f
}

// OnDisconnected sets the handler for the disconnected event.
func (p *Peer) OnDisconnected(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onDisconnected = f
}

// MarkRegistered records the identifier assigned by the signaling server and
// emits the registered event.
func (p *Peer) MarkRegistered(id string) {
	p.log.WithField("id", id).Info("registered with signaling server")
	p.mu.Lock()
	cb := p.onRegistered
	p.mu.Unlock()
	if cb != nil {
		cb(id)
	}
}

// Close closes the peer connection.
func (p *Peer) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

func (p *Peer) handleConnectionStateChange(state webrtc.PeerConnectionState) {
	p.log.WithField("state", state.String()).Info("peer connection state changed")

	p.mu.Lock()
	connected := p.onConnected
	disconnected := p.onDisconnected
	p.mu.Unlock()

	switch state {
	case webrtc.PeerConnectionStateConnected:
		if connected != nil {
			connected()
		}
	case webrtc.PeerConnectionStateDisconnected,
		webrtc.PeerConnectionStateFailed,
		webrtc.PeerConnectionStateClosed:
		if disconnected != nil {
			disconnected()
		}
	}
}

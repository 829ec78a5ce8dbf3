package signalling

import (
	"context"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"filedrop/internal/config"
	"filedrop/pkg/utils"
)

// SignalingServer defines the storage operations behind session exchange.
type SignalingServer interface {
	CreateSession(ctx context.Context, offer string) (sessionID string, err error)
	GetOffer(ctx context.Context, sessionID string) (offer string, err error)
	UpdateAnswer(ctx context.Context, sessionID, answer string) error
	WaitForAnswer(ctx context.Context, sessionID string) (answer string, err error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// SDPHandler defines the WebRTC SDP operations used during signaling.
type SDPHandler interface {
	CreateOffer(peerConn *webrtc.PeerConnection) (*webrtc.SessionDescription, error)
	CreateAnswer(peerConn *webrtc.PeerConnection) (*webrtc.SessionDescription, error)
	WaitForICEGathering(ctx context.Context, peerConn *webrtc.PeerConnection) error
}

// SignalingService orchestrates the complete signaling flow for both roles.
type SignalingService struct {
	server SignalingServer
	sdp    SDPHandler
}

func NewSignalingService(server SignalingServer, sdp SDPHandler) *SignalingService {
	return &SignalingService{
		server: server,
		sdp:    sdp,
	}
}

// NewDefaultSignalingService wires the Firebase-backed server with the pion
// SDP handler.
func NewDefaultSignalingService(cfg *config.Config) (*SignalingService, error) {
	server, err := NewFirebaseClient(context.Background(), &cfg.Firebase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase client: %w", err)
	}

	return NewSignalingService(server, &WebRTCHandler{}), nil
}

// RegisterSender runs the sender side of signaling: publish the offer, hand
// out the session code and wait for the receiver's answer. The returned
// session ID identifies the drop for its whole lifetime.
func (s *SignalingService) RegisterSender(ctx context.Context, peerConn *webrtc.PeerConnection) (string, error) {
	if _, err := s.sdp.CreateOffer(peerConn); err != nil {
		return "", fmt.Errorf("failed to create offer: %w", err)
	}

	if err := s.sdp.WaitForICEGathering(ctx, peerConn); err != nil {
		return "", fmt.Errorf("failed to wait for ICE gathering: %w", err)
	}

	finalOffer := peerConn.LocalDescription()
	if finalOffer == nil {
		return "", fmt.Errorf("local description is nil after ICE gathering")
	}

	encodedOffer, err := utils.Encode(*finalOffer)
	if err != nil {
		return "", fmt.Errorf("failed to encode offer SDP: %w", err)
	}

	sessionID, err := s.server.CreateSession(ctx, encodedOffer)
	if err != nil {
		return "", fmt.Errorf("failed to create session with offer: %w", err)
	}

	logrus.WithField("code", sessionID).Info("share this code with the receiver")

	answer, err := s.server.WaitForAnswer(ctx, sessionID)
	if err != nil {
		return sessionID, fmt.Errorf("failed to wait for answer: %w", err)
	}

	answerSD, err := utils.Decode[webrtc.SessionDescription](answer)
	if err != nil {
		return sessionID, fmt.Errorf("failed to decode answer SDP: %w", err)
	}

	if err := peerConn.SetRemoteDescription(answerSD); err != nil {
		return sessionID, fmt.Errorf("failed to set remote description: %w", err)
	}

	return sessionID, nil
}

// JoinAsReceiver runs the receiver side of signaling for an existing session.
func (s *SignalingService) JoinAsReceiver(ctx context.Context, peerConn *webrtc.PeerConnection, sessionID string) error {
	encodedOffer, err := s.server.GetOffer(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get offer from session: %w", err)
	}

	offerSD, err := utils.Decode[webrtc.SessionDescription](encodedOffer)
	if err != nil {
		return fmt.Errorf("failed to decode offer SDP: %w", err)
	}

	if err := peerConn.SetRemoteDescription(offerSD); err != nil {
		return fmt.Errorf("failed to set remote description: %w", err)
	}

	if _, err := s.sdp.CreateAnswer(peerConn); err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}

	if err := s.sdp.WaitForICEGathering(ctx, peerConn); err != nil {
		return fmt.Errorf("failed to wait for ICE gathering: %w", err)
	}

	finalAnswer := peerConn.LocalDescription()
	if finalAnswer == nil {
		return fmt.Errorf("local description is nil after ICE gathering")
	}

	encodedAnswer, err := utils.Encode(*finalAnswer)
	if err != nil {
		return fmt.Errorf("failed to encode answer SDP: %w", err)
	}

	if err := s.server.UpdateAnswer(ctx, sessionID, encodedAnswer); err != nil {
		return fmt.Errorf("failed to upload answer: %w", err)
	}

	return nil
}

// ClearSession deletes a session by its ID
func (s *SignalingService) ClearSession(ctx context.Context, sessionID string) error {
	return s.server.DeleteSession(ctx, sessionID)
}

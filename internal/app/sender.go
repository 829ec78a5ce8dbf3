package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"filedrop/internal/config"
	"filedrop/internal/file"
	"filedrop/internal/reporter"
	"filedrop/internal/signalling"
	"filedrop/internal/transfer"
	"filedrop/internal/transport"
)

// SenderOptions configures the sender application behavior
type SenderOptions struct {
	FilePaths []string // Required: paths of the files to send, one channel each
}

// SenderApp implements sender application logic: open the files, establish
// the peer connection, hand the batch to a TransferCoordinator and wait for
// its aggregate outcome.
type SenderApp struct {
	config           *config.Config
	signalingService *signalling.SignalingService
}

// NewSenderApp creates a new sender application
func NewSenderApp(cfg *config.Config, signalingService *signalling.SignalingService) *SenderApp {
	return &SenderApp{
		config:           cfg,
		signalingService: signalingService,
	}
}

// Run starts the sender application with the given options
func (s *SenderApp) Run(ctx context.Context, opts *SenderOptions) error {
	if len(opts.FilePaths) == 0 {
		return fmt.Errorf("at least one file path is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	files := make([]transfer.DropFile, 0, len(opts.FilePaths))
	for _, path := range opts.FilePaths {
		src, err := file.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		files = append(files, transfer.DropFile{
			Descriptor: src.Descriptor(),
			Source:     src,
		})
	}

	peer, err := transport.NewPeer(s.config)
	if err != nil {
		return fmt.Errorf("failed to create peer: %w", err)
	}
	defer func() {
		if err := peer.Close(); err != nil {
			logrus.WithError(err).Warn("error closing peer connection")
		}
	}()

	// Channels must exist before the offer is created so they are part of
	// the negotiated session.
	coordinator, err := transfer.NewTransferCoordinator(peer, files, s.config.WebRTC.MaxMessageSize)
	if err != nil {
		return fmt.Errorf("failed to create transfer coordinator: %w", err)
	}

	coordinator.OnRegistered(func(id string) {
		logrus.WithField("id", id).Info("drop registered")
	})
	coordinator.OnConnected(func() {
		logrus.Info("peer connected")
	})
	coordinator.OnDisconnected(func() {
		logrus.Warn("peer disconnected, abandoning drop")
		cancel()
	})

	code, err := s.signalingService.RegisterSender(ctx, peer.Connection())
	if code != "" {
		defer func() {
			if err := s.signalingService.ClearSession(context.WithoutCancel(ctx), code); err != nil {
				logrus.WithError(err).Warn("failed to clear signaling session")
			}
		}()
	}
	if err != nil {
		return fmt.Errorf("failed during signaling process: %w", err)
	}
	peer.MarkRegistered(code)

	doneCh := make(chan struct{})
	go reporter.NewProgressReporter().Run(ctx, len(files), coordinator.TotalSize(), coordinator.BytesSent, doneCh)

	err = coordinator.Wait(ctx)
	close(doneCh)
	if err != nil {
		return fmt.Errorf("drop failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"files": len(files),
		"bytes": coordinator.BytesSent(),
	}).Info("all files sent")
	return nil
}

package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"filedrop/internal/config"
	"filedrop/internal/file"
	"filedrop/internal/signalling"
	"filedrop/internal/transfer"
	"filedrop/internal/transport"
	"filedrop/pkg/utils"
)

// ReceiverOptions configures the receiver application behavior
type ReceiverOptions struct {
	DestDir string // Required: directory to save received files into
}

// ReceiverApp implements receiver application logic: join a sender's session
// by code and reassemble one file per incoming data channel until the peer
// goes away.
type ReceiverApp struct {
	config           *config.Config
	signalingService *signalling.SignalingService
}

// NewReceiverApp creates a new receiver application
func NewReceiverApp(cfg *config.Config, signalingService *signalling.SignalingService) *ReceiverApp {
	return &ReceiverApp{
		config:           cfg,
		signalingService: signalingService,
	}
}

// Run starts the receiver application with the given options
func (r *ReceiverApp) Run(ctx context.Context, opts *ReceiverOptions) error {
	if opts.DestDir == "" {
		return fmt.Errorf("destination directory is required")
	}
	if info, err := os.Stat(opts.DestDir); err != nil {
		return fmt.Errorf("cannot access destination directory: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("destination %q is not a directory", opts.DestDir)
	}

	peer, err := transport.NewPeer(r.config)
	if err != nil {
		return fmt.Errorf("failed to create peer: %w", err)
	}
	defer func() {
		if err := peer.Close(); err != nil {
			logrus.WithError(err).Warn("error closing peer connection")
		}
	}()

	exitCh := make(chan struct{})
	var exitOnce sync.Once
	peer.OnDisconnected(func() {
		exitOnce.Do(func() { close(exitCh) })
	})

	openSink := file.NewSinkFactory(opts.DestDir)
	var wg sync.WaitGroup
	peer.AcceptDataChannels(func(channel transfer.DataChannel) {
		receiver := transfer.NewChunkedReceiver(channel, openSink)
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case err := <-receiver.Done():
				if err != nil {
					logrus.WithError(err).Error("file reception failed")
				}
			case <-ctx.Done():
			case <-exitCh:
			}
		}()
	})

	code, err := utils.AskForCode(ctx)
	if err != nil {
		return fmt.Errorf("failed to get code from user: %w", err)
	}

	if err := r.signalingService.JoinAsReceiver(ctx, peer.Connection(), code); err != nil {
		return fmt.Errorf("failed during signaling process: %w", err)
	}

	logrus.WithField("dir", opts.DestDir).Info("waiting for files")

	select {
	case <-exitCh:
		logrus.Info("sender disconnected")
	case <-ctx.Done():
		return ctx.Err()
	}

	wg.Wait()
	return nil
}

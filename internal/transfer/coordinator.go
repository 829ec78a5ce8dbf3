package transfer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"filedrop/pkg/types"
)

// DropFile pairs a file descriptor with the byte source it was derived from.
type DropFile struct {
	Descriptor types.FileDescriptor
	Source     Source
}

// TransferCoordinator owns one ChunkedSender per file of a drop and resolves
// one aggregate outcome for the batch. The set of senders is fixed at
// construction; the coordinator never drives them, it only observes their
// completion and sums their progress.
type TransferCoordinator struct {
	senders   []*ChunkedSender
	fileinfo  []types.FileDescriptor
	totalSize int64

	mu             sync.RWMutex
	id             string
	onRegistered   func(id string)
	onConnected    func()
	onDisconnected func()

	log *logrus.Entry
}

// NewTransferCoordinator creates one data channel and one ChunkedSender per
// input file. Channel labels are fresh process-unique tokens, not derived
// from file content. Peer lifecycle events from the provider are re-emitted
// verbatim to the coordinator's own observers.
func NewTransferCoordinator(provider ChannelProvider, files []DropFile, maxMessageSize int64) (*TransferCoordinator, error) {
	c := &TransferCoordinator{
		senders:  make([]*ChunkedSender, 0, len(files)),
		fileinfo: make([]types.FileDescriptor, 0, len(files)),
		log:      logrus.WithField("files", len(files)),
	}

	for _, f := range files {
		label := uuid.NewString()
		channel, err := provider.CreateDataChannel(label)
		if err != nil {
			return nil, fmt.Errorf("failed to create data channel for %q: %w", f.Descriptor.Name, err)
		}
		c.senders = append(c.senders, NewChunkedSender(channel, f.Source, f.Descriptor, maxMessageSize))
		c.fileinfo = append(c.fileinfo, f.Descriptor)
		c.totalSize += f.Descriptor.Size
	}

	provider.OnRegistered(func(id string) {
		c.mu.Lock()
		c.id = id
		cb := c.onRegistered
		c.mu.Unlock()
		if cb != nil {
			cb(id)
		}
	})
	provider.OnConnected(func() {
		c.mu.RLock()
		cb := c.onConnected
		c.mu.RUnlock()
		if cb != nil {
			cb()
		}
	})
	provider.OnDisconnected(func() {
		c.mu.RLock()
		cb := c.onDisconnected
		c.mu.RUnlock()
		if cb != nil {
			cb()
		}
	})

	return c, nil
}

// OnRegistered sets the observer relayed from the provider's registered event.
func (c *TransferCoordinator) OnRegistered(f func(id string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRegistered = f
}

// OnConnected sets the observer relayed from the provider's connected event.
func (c *TransferCoordinator) OnConnected(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnected = f
}

// OnDisconnected sets the observer relayed from the provider's disconnected event.
func (c *TransferCoordinator) OnDisconnected(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnected = f
}

// ID returns the identifier assigned by the signaling collaborator, or the
// empty string before registration.
func (c *TransferCoordinator) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Files returns the descriptors of the drop, mirroring the sender order.
func (c *TransferCoordinator) Files() []types.FileDescriptor {
	files := make([]types.FileDescriptor, len(c.fileinfo))
	copy(files, c.fileinfo)
	return files
}

// TotalSize returns the sum of all file sizes, computed once at construction.
func (c *TransferCoordinator) TotalSize() int64 {
	return c.totalSize
}

// BytesSent sums every sender's offset at call time. Offsets only ever grow,
// so the figure is non-decreasing and needs no caching.
func (c *TransferCoordinator) BytesSent() int64 {
	var n int64
	for _, s := range c.senders {
		n += s.Offset()
	}
	return n
}

// Wait blocks until every sender has completed, any one of them has failed,
// or the context is cancelled. The first failure wins: remaining waits are
// abandoned and the batch outcome is that error, never flipped back to
// success. Call it once per drop.
func (c *TransferCoordinator) Wait(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range c.senders {
		g.Go(func() error {
			select {
			case err := <-s.Done():
				if err != nil {
					return fmt.Errorf("transfer of %q failed: %w", s.Descriptor().Name, err)
				}
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	if err := g.Wait(); err != nil {
		c.log.WithError(err).Error("drop failed")
		return err
	}
	c.log.WithField("bytes", c.totalSize).Info("drop complete")
	return nil
}

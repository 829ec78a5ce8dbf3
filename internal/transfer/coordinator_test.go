package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedrop/pkg/types"
)

func dropFile(name string, src Source) DropFile {
	return DropFile{
		Descriptor: types.FileDescriptor{
			Name:      name,
			Size:      src.Size(),
			MediaType: "application/octet-stream",
		},
		Source: src,
	}
}

func TestTransferCoordinatorTotalSize(t *testing.T) {
	provider := &fakeProvider{}
	files := []DropFile{
		dropFile("a.bin", &memSource{}),
		dropFile("b.bin", &memSource{data: make([]byte, 100)}),
		dropFile("c.bin", &memSource{data: make([]byte, 1000000)}),
	}

	c, err := NewTransferCoordinator(provider, files, 65536)
	require.NoError(t, err)

	assert.Equal(t, int64(1000100), c.TotalSize())
	assert.Equal(t, int64(0), c.BytesSent())
	require.Len(t, provider.channels, 3)

	// One distinct channel per file, labeled with fresh tokens.
	labels := map[string]bool{}
	for _, ch := range provider.channels {
		require.NotEmpty(t, ch.label)
		labels[ch.label] = true
	}
	assert.Len(t, labels, 3)

	descs := c.Files()
	require.Len(t, descs, 3)
	assert.Equal(t, "a.bin", descs[0].Name)
	assert.Equal(t, "c.bin", descs[2].Name)
}

func TestTransferCoordinatorAggregateDone(t *testing.T) {
	provider := &fakeProvider{}
	files := []DropFile{
		dropFile("a.bin", &memSource{}),
		dropFile("b.bin", &memSource{data: make([]byte, 100)}),
		dropFile("c.bin", &memSource{data: make([]byte, 1000000)}),
	}

	c, err := NewTransferCoordinator(provider, files, 65536)
	require.NoError(t, err)

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- c.Wait(context.Background())
	}()

	// Two of three senders finish; the batch must stay unresolved.
	provider.channels[0].open()
	provider.channels[1].open()

	select {
	case err := <-waitCh:
		t.Fatalf("coordinator resolved early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	provider.channels[2].open()

	select {
	case err := <-waitCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for aggregate done")
	}

	assert.Equal(t, int64(1000100), c.BytesSent())
}

func TestTransferCoordinatorBytesSentMonotonic(t *testing.T) {
	provider := &fakeProvider{}
	files := []DropFile{
		dropFile("a.bin", &memSource{data: make([]byte, 300000)}),
		dropFile("b.bin", &memSource{data: make([]byte, 300000)}),
	}

	c, err := NewTransferCoordinator(provider, files, 4096)
	require.NoError(t, err)

	stop := make(chan struct{})
	sampled := make(chan struct{})
	go func() {
		defer close(sampled)
		var last int64
		for {
			select {
			case <-stop:
				return
			default:
			}
			n := c.BytesSent()
			if n < last {
				t.Errorf("BytesSent went backwards: %d -> %d", last, n)
				return
			}
			last = n
		}
	}()

	for _, ch := range provider.channels {
		ch.open()
	}

	require.NoError(t, c.Wait(context.Background()))
	close(stop)
	<-sampled

	assert.Equal(t, int64(600000), c.BytesSent())
}

func TestTransferCoordinatorFailFast(t *testing.T) {
	provider := &fakeProvider{}
	files := []DropFile{
		dropFile("a.bin", &memSource{data: make([]byte, 100)}),
		dropFile("b.bin", &failingSource{size: 500}),
		dropFile("c.bin", &memSource{data: make([]byte, 100)}),
	}

	c, err := NewTransferCoordinator(provider, files, 65536)
	require.NoError(t, err)

	for _, ch := range provider.channels {
		ch.open()
	}

	err = c.Wait(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errReadFailed)
	assert.ErrorContains(t, err, "b.bin")

	// The healthy files still complete on their own channels.
	require.Eventually(t, func() bool {
		return c.senders[0].State() == StateDone && c.senders[2].State() == StateDone
	}, 2*time.Second, 10*time.Millisecond)

	// The failed sender never advanced.
	assert.Equal(t, int64(0), c.senders[1].Offset())
	assert.NotEqual(t, StateDone, c.senders[1].State())
}

func TestTransferCoordinatorWaitCancelled(t *testing.T) {
	provider := &fakeProvider{}
	files := []DropFile{
		dropFile("a.bin", &memSource{data: make([]byte, 100)}),
	}

	c, err := NewTransferCoordinator(provider, files, 65536)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Channel never opens; cancellation is the only way out.
	err = c.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTransferCoordinatorRelaysPeerEvents(t *testing.T) {
	provider := &fakeProvider{}
	c, err := NewTransferCoordinator(provider, []DropFile{dropFile("a.bin", &memSource{})}, 65536)
	require.NoError(t, err)

	var gotID string
	connected := false
	disconnected := false
	c.OnRegistered(func(id string) { gotID = id })
	c.OnConnected(func() { connected = true })
	c.OnDisconnected(func() { disconnected = true })

	assert.Empty(t, c.ID())

	provider.fireRegistered("A1b2C3d4")
	provider.fireConnected()
	provider.fireDisconnected()

	assert.Equal(t, "A1b2C3d4", gotID)
	assert.Equal(t, "A1b2C3d4", c.ID())
	assert.True(t, connected)
	assert.True(t, disconnected)
}

func TestTransferCoordinatorChannelCreationFailure(t *testing.T) {
	provider := &fakeProvider{createErr: assert.AnError}
	_, err := NewTransferCoordinator(provider, []DropFile{dropFile("a.bin", &memSource{})}, 65536)
	require.ErrorIs(t, err, assert.AnError)
	require.ErrorContains(t, err, "a.bin")
}

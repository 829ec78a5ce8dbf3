package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedrop/pkg/types"
)

func TestSinkFactoryWritesFile(t *testing.T) {
	dir := t.TempDir()
	openSink := NewSinkFactory(dir)

	sink, err := openSink(types.FileDescriptor{Name: "out.bin", Size: 4, MediaType: "application/octet-stream"})
	require.NoError(t, err)

	_, err = sink.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	got, err := os.ReadFile(filepath.Join(dir, "out.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestSinkFactoryStripsDirectoryComponents(t *testing.T) {
	dir := t.TempDir()
	openSink := NewSinkFactory(dir)

	sink, err := openSink(types.FileDescriptor{Name: "../../escape.bin", Size: 1, MediaType: "application/octet-stream"})
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	_, err = os.Stat(filepath.Join(dir, "escape.bin"))
	assert.NoError(t, err, "file must land inside the destination directory")
}

func TestSinkFactoryRejectsInvalidNames(t *testing.T) {
	openSink := NewSinkFactory(t.TempDir())

	for _, name := range []string{".", "..", "/"} {
		_, err := openSink(types.FileDescriptor{Name: name})
		assert.Error(t, err, "name %q must be rejected", name)
	}
}

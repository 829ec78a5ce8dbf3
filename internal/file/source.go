package file

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"filedrop/pkg/types"
)

// Source is an os-backed, read-only byte source. The descriptor is derived
// from the file handle when it is opened and never changes afterwards.
type Source struct {
	f    *os.File
	desc types.FileDescriptor
}

// Open opens path for reading and derives its descriptor.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if stat.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%q is a directory", path)
	}

	return &Source{
		f: f,
		desc: types.FileDescriptor{
			Name:      filepath.Base(path),
			Size:      stat.Size(),
			MediaType: mediaType(path),
		},
	}, nil
}

// mediaType guesses the MIME type from the file extension. Parameters such
// as charset are stripped; unknown extensions fall back to a generic type.
func mediaType(path string) string {
	t := mime.TypeByExtension(filepath.Ext(path))
	if t == "" {
		return "application/octet-stream"
	}
	if base, _, found := strings.Cut(t, ";"); found {
		return strings.TrimSpace(base)
	}
	return t
}

// Descriptor returns the descriptor derived at open time.
func (s *Source) Descriptor() types.FileDescriptor {
	return s.desc
}

// ReadAt implements io.ReaderAt.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// Size returns the total size in bytes.
func (s *Source) Size() int64 {
	return s.desc.Size
}

// Close releases the underlying file handle.
func (s *Source) Close() error {
	return s.f.Close()
}

package file

import (
	"fmt"
	"os"
	"path/filepath"

	"filedrop/internal/transfer"
	"filedrop/pkg/types"
)

// NewSinkFactory returns a factory that creates received files inside dir.
// The file name comes from the announced descriptor; any directory component
// the remote peer may have put there is discarded.
func NewSinkFactory(dir string) transfer.SinkFactory {
	return func(desc types.FileDescriptor) (transfer.Sink, error) {
		name := filepath.Base(desc.Name)
		if name == "." || name == string(filepath.Separator) || name == ".." {
			return nil, fmt.Errorf("invalid file name %q", desc.Name)
		}

		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to create %q: %w", name, err)
		}
		return f, nil
	}
}

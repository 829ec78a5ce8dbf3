package types

// FileDescriptor describes one file in a drop. It is derived from the
// underlying file handle at construction time and never mutated; the JSON
// field names are part of the wire format announced on each channel.
type FileDescriptor struct {
	Name      string `json:"name"` // Original filename, no directory component
	Size      int64  `json:"size"` // File size in bytes
	MediaType string `json:"type"` // MIME type of the file
}

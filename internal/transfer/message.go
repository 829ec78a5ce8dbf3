package transfer

import (
	"encoding/json"
	"fmt"

	"filedrop/pkg/types"
)

// Control message types interleaved with binary payload on each channel.
const (
	msgTypeFileInfo = "fileinfo"
	msgTypeDone     = "done"
)

// controlMessage is the text-encoded frame announcing file metadata and
// completion. The field names are fixed by the wire format; the receiving
// peer keys on them.
type controlMessage struct {
	Type     string                `json:"type"`
	FileInfo *types.FileDescriptor `json:"fileinfo,omitempty"`
}

func encodeFileInfo(desc types.FileDescriptor) (string, error) {
	data, err := json.Marshal(controlMessage{Type: msgTypeFileInfo, FileInfo: &desc})
	if err != nil {
		return "", fmt.Errorf("failed to encode fileinfo message: %w", err)
	}
	return string(data), nil
}

func encodeDone() (string, error) {
	data, err := json.Marshal(controlMessage{Type: msgTypeDone})
	if err != nil {
		return "", fmt.Errorf("failed to encode done message: %w", err)
	}
	return string(data), nil
}

func decodeControl(data []byte) (controlMessage, error) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return controlMessage{}, fmt.Errorf("failed to decode control message: %w", err)
	}
	return msg, nil
}

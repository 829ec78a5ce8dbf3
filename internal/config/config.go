package config

import (
	"errors"

	"github.com/pion/webrtc/v4"
)

var (
	ErrInvalidBufferConfig        = errors.New("buffered amount low threshold must be less than max buffered amount")
	ErrInvalidMaxMessageSize      = errors.New("max message size must be greater than 0")
	ErrMaxMessageSizeTooLarge     = errors.New("max message size must not exceed 65536 bytes")
	ErrInvalidFirebaseConfig      = errors.New("Firebase credentials path must be set")
	ErrInvalidFirebaseProjectID   = errors.New("Firebase project ID must be set")
	ErrInvalidFirebaseDatabaseURL = errors.New("Firebase database URL must be set")
)

// maxSCTPMessageSize is the largest payload that can safely be handed to a
// data channel in a single message across implementations.
const maxSCTPMessageSize = 65536

// Config holds all application configuration
type Config struct {
	WebRTC   WebRTCConfig   `json:"webrtc"`
	Firebase FirebaseConfig `json:"firebase"`
}

// WebRTCConfig holds WebRTC-specific configuration
type WebRTCConfig struct {
	ICEServers                 []webrtc.ICEServer `json:"ice_servers"`
	BufferedAmountLowThreshold uint64             `json:"buffered_amount_low_threshold"`
	MaxBufferedAmount          uint64             `json:"max_buffered_amount"`
	MaxMessageSize             int64              `json:"max_message_size"`
}

// FirebaseConfig holds Firebase client configuration
type FirebaseConfig struct {
	ProjectID       string `json:"project_id"`
	DatabaseURL     string `json:"database_url"`
	CredentialsPath string `json:"credentials_path"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		WebRTC: WebRTCConfig{
			ICEServers: []webrtc.ICEServer{
				{
					URLs: []string{"stun:stun.l.google.com:19302"},
				},
			},
			BufferedAmountLowThreshold: 512 * 1024,  // 512 KB
			MaxBufferedAmount:          1024 * 1024, // 1 MB
			MaxMessageSize:             64 * 1024,   // 64 KB messages
		},
		Firebase: FirebaseConfig{
			ProjectID:       "",
			DatabaseURL:     "",
			CredentialsPath: "",
		},
	}
}

// Validate ensures the configuration is valid
func (c *Config) Validate() error {
	if c.WebRTC.BufferedAmountLowThreshold >= c.WebRTC.MaxBufferedAmount {
		return ErrInvalidBufferConfig
	}
	if c.WebRTC.MaxMessageSize <= 0 {
		return ErrInvalidMaxMessageSize
	}
	if c.WebRTC.MaxMessageSize > maxSCTPMessageSize {
		return ErrMaxMessageSizeTooLarge
	}
	if c.Firebase.CredentialsPath == "" {
		return ErrInvalidFirebaseConfig
	}
	if c.Firebase.ProjectID == "" {
		return ErrInvalidFirebaseProjectID
	}
	if c.Firebase.DatabaseURL == "" {
		return ErrInvalidFirebaseDatabaseURL
	}
	return nil
}

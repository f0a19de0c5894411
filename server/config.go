package server

import (
	"time"

	"github.com/malvinraqin/portfolio/pkg/datastream"
)

// Config is the chat server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// APIKey is the provider credential. When empty every chat request is
	// answered with an error before the provider is called.
	APIKey string

	// Model overrides the persona's default model
	Model string

	// MaxDuration bounds a whole chat request, streaming included
	MaxDuration time.Duration

	// StreamProtocol is used when a request does not choose one
	StreamProtocol datastream.Protocol

	// AllowedOrigins enables CORS for these origins. Empty disables CORS.
	AllowedOrigins []string
}

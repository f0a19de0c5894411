// Package server exposes the portfolio chat assistant over HTTP.
package server

import (
	"errors"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/malvinraqin/portfolio/pkg/datastream"
	"github.com/malvinraqin/portfolio/pkg/llm"
)

// HeaderConversationHash carries the fingerprint of the caller's turns.
const HeaderConversationHash = "X-Conversation-Hash"

// DefaultMaxDuration bounds a chat request when Config.MaxDuration is unset.
const DefaultMaxDuration = 30 * time.Second

// Server is a stateless chat endpoint in front of an llm.Provider. Every
// request is answered from its own body alone: the persona's system turn is
// prepended and the provider's stream is relayed back as it arrives.
type Server struct {
	config   Config
	provider llm.Provider
	logger   *zap.Logger
	app      *fiber.App
}

// New creates a new Server.
func New(config Config, provider llm.Provider, logger *zap.Logger) (*Server, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxDuration <= 0 {
		config.MaxDuration = DefaultMaxDuration
	}
	if config.StreamProtocol == "" {
		config.StreamProtocol = datastream.ProtocolData
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		provider: provider,
		logger:   logger,
		app:      app,
	}

	app.Use(recover.New())

	if len(config.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:  strings.Join(config.AllowedOrigins, ","),
			AllowMethods:  "GET,POST,OPTIONS",
			AllowHeaders:  "Content-Type",
			ExposeHeaders: HeaderConversationHash + "," + datastream.HeaderDataStream,
		}))
	}

	app.Post("/api/chat", s.handleChat)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	return s, nil
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting chat server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("provider", s.provider.Name()),
		zap.Duration("max_duration", s.config.MaxDuration),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting chat server",
		zap.String("listen", ln.Addr().String()),
		zap.String("provider", s.provider.Name()),
	)

	return s.app.Listener(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests,
// up to timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/malvinraqin/portfolio/pkg/config"
	"github.com/malvinraqin/portfolio/pkg/datastream"
	"github.com/malvinraqin/portfolio/pkg/llm/gemini"
	"github.com/malvinraqin/portfolio/pkg/logger"
	"github.com/malvinraqin/portfolio/server"
)

const serveLongDesc string = `Run the portfolio chat server.

Serves POST /api/chat, which prepends the assistant persona to the
visitor's conversation and streams the Gemini reply back, and
GET /health.

The Gemini API key is read from GOOGLE_GENERATIVE_AI_API_KEY (or the
variable named by provider.api_key_env). A .env file in the working
directory is loaded first if present.

Examples:
  portfolio serve
  portfolio serve --listen :3000 --debug
  portfolio serve --config portfolio.toml`

const serveShortDesc string = "Run the chat server"

type serveCommander struct {
	configPath string
	listen     string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to a TOML config file")
	cmd.Flags().StringVar(&cmder.listen, "listen", "", "Address to listen on (overrides config)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.Listen = c.listen
	}
	if c.debug {
		cfg.Debug = true
	}

	protocol, err := datastream.ParseProtocol(cfg.Chat.StreamProtocol)
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.Debug)
	defer log.Sync()

	if cfg.Provider.APIKey == "" {
		log.Warn("provider API key not set, chat requests will fail",
			zap.String("env", cfg.Provider.APIKeyEnv),
		)
	}

	provider := gemini.New(gemini.Config{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
	}, log)

	srv, err := server.New(server.Config{
		ListenAddr:     cfg.Listen,
		APIKey:         cfg.Provider.APIKey,
		Model:          cfg.Provider.Model,
		MaxDuration:    cfg.Chat.MaxDuration.Duration,
		StreamProtocol: protocol,
		AllowedOrigins: cfg.Chat.AllowedOrigins,
	}, provider, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down", zap.Duration("grace", cfg.Chat.MaxDuration.Duration))
		return srv.Shutdown(cfg.Chat.MaxDuration.Duration)
	}
}

package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/malvinraqin/portfolio/pkg/datastream"
	"github.com/malvinraqin/portfolio/pkg/llm"
	"github.com/malvinraqin/portfolio/pkg/merkle"
	"github.com/malvinraqin/portfolio/pkg/persona"
)

const (
	missingKeyMessage = "Google API key not configured"
	failedMessage     = "Failed to process request"
)

// handleChat relays one conversation to the provider.
//
// A missing credential is answered in plain text before anything else is
// looked at. Every other failure that happens before the first chunk arrives
// collapses into the same JSON error. Once the first chunk is in hand the
// response is committed with status 200 and chunks are flushed as they come.
func (s *Server) handleChat(c *fiber.Ctx) error {
	startTime := time.Now()

	if s.config.APIKey == "" {
		s.logger.Error("chat request rejected: provider API key not configured")
		c.Set(fiber.HeaderContentType, "text/plain")
		return c.Status(fiber.StatusInternalServerError).SendString(missingKeyMessage)
	}

	protocol := s.config.StreamProtocol
	if q := c.Query("protocol"); q != "" {
		p, err := datastream.ParseProtocol(q)
		if err != nil {
			return s.fail(c, "invalid stream protocol", err)
		}
		protocol = p
	}

	var body chatBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return s.fail(c, "failed to parse request", err)
	}
	turns, err := body.turns()
	if err != nil {
		return s.fail(c, "failed to parse message content", err)
	}

	hash := merkle.HeadHash(turns)
	logger := s.logger.With(zap.String("conversation_hash", truncate(hash, 16)))

	logger.Debug("received chat request",
		zap.Int("message_count", len(turns)),
		zap.String("protocol", string(protocol)),
	)
	if n := len(turns); n > 0 {
		logger.Debug("latest turn",
			zap.String("role", turns[n-1].Role),
			zap.String("content_preview", truncate(turns[n-1].Content, 50)),
		)
	}

	// The stream outlives this handler, so its deadline is rooted in Background
	ctx, cancel := context.WithTimeout(context.Background(), s.config.MaxDuration)

	stream, err := s.provider.ChatStream(ctx, persona.Request(s.config.Model, turns))
	if err != nil {
		cancel()
		return s.fail(c, "provider request failed", err)
	}

	first, err := stream.Recv()
	exhausted := errors.Is(err, io.EOF)
	if err != nil && !exhausted {
		stream.Close()
		cancel()
		return s.fail(c, "provider stream failed before first chunk", err)
	}

	for k, v := range protocol.Headers() {
		c.Set(k, v)
	}
	if hash != "" {
		c.Set(HeaderConversationHash, hash)
	}
	c.Status(fiber.StatusOK)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer stream.Close()

		r := &relay{
			w:      w,
			enc:    datastream.NewEncoder(w, protocol),
			stream: stream,
			logger: logger,
		}
		r.run(first, exhausted, startTime)
	}))

	return nil
}

// fail logs err and answers with the generic JSON error.
func (s *Server) fail(c *fiber.Ctx, msg string, err error) error {
	s.logger.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: failedMessage})
}

// relay copies one provider stream to the client.
type relay struct {
	w      *bufio.Writer
	enc    *datastream.Encoder
	stream llm.Stream
	logger *zap.Logger
}

// flush pushes buffered output to the client. It reports false once the
// client is gone.
func (r *relay) flush(err error) bool {
	if err == nil {
		err = r.w.Flush()
	}
	if err != nil {
		r.logger.Warn("client write failed, abandoning stream", zap.Error(err))
		return false
	}
	return true
}

func (r *relay) run(first llm.StreamChunk, exhausted bool, startTime time.Time) {
	if !r.flush(r.enc.StartStep(datastream.NewMessageID())) {
		return
	}

	var (
		reason     llm.FinishReason
		usage      *llm.Usage
		replyBytes int
		err        error
	)

	chunk := first
	if exhausted {
		err = io.EOF
	}

	for err == nil {
		if chunk.FinishReason != "" {
			reason = chunk.FinishReason
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if chunk.Text != "" {
			replyBytes += len(chunk.Text)
			r.logger.Debug("streaming chunk", zap.String("content", truncate(chunk.Text, 50)))
			if !r.flush(r.enc.Text(chunk.Text)) {
				return
			}
		}

		chunk, err = r.stream.Recv()
	}

	if !errors.Is(err, io.EOF) {
		r.logger.Error("provider stream failed",
			zap.Error(err),
			zap.Int("reply_bytes", replyBytes),
			zap.Duration("duration", time.Since(startTime)),
		)
		r.flush(r.enc.Error(datastream.GenericErrorMessage))
		return
	}

	if !r.flush(r.enc.Finish(reason, usage)) {
		return
	}

	fields := []zap.Field{
		zap.String("finish_reason", string(reason)),
		zap.Int("reply_bytes", replyBytes),
		zap.Duration("duration", time.Since(startTime)),
	}
	if usage != nil {
		fields = append(fields,
			zap.Int("prompt_tokens", usage.PromptTokens),
			zap.Int("completion_tokens", usage.CompletionTokens),
		)
	}
	r.logger.Info("chat reply streamed", fields...)
}

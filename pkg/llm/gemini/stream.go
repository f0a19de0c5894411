package gemini

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/malvinraqin/portfolio/pkg/llm"
)

type stream struct {
	resp   *http.Response
	dec    *sseDecoder
	closed bool
}

func newStream(resp *http.Response) *stream {
	return &stream{
		resp: resp,
		dec:  newSSEDecoder(resp.Body),
	}
}

func (s *stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.resp.Body.Close()
}

// Recv returns the next chunk carrying text, a finish reason or usage.
// Events with none of those are skipped.
func (s *stream) Recv() (llm.StreamChunk, error) {
	for {
		data, err := s.dec.Next()
		if err != nil {
			// io.EOF passes through untouched
			return llm.StreamChunk{}, err
		}

		var event generateContentResponse
		if err := json.Unmarshal(data, &event); err != nil {
			return llm.StreamChunk{}, fmt.Errorf("decode stream event: %w", err)
		}

		if event.Error != nil {
			return llm.StreamChunk{}, &llm.ProviderError{
				Provider: providerName,
				Status:   event.Error.Status,
				Message:  event.Error.Message,
			}
		}

		chunk := eventChunk(&event)
		if chunk.Text == "" && chunk.FinishReason == "" && chunk.Usage == nil {
			continue
		}

		return chunk, nil
	}
}

func eventChunk(event *generateContentResponse) llm.StreamChunk {
	var chunk llm.StreamChunk

	// Only the first candidate is requested
	if len(event.Candidates) > 0 {
		c := event.Candidates[0]
		var text strings.Builder
		for _, p := range c.Content.Parts {
			if p.Thought {
				continue
			}
			text.WriteString(p.Text)
		}
		chunk.Text = text.String()
		chunk.FinishReason = mapFinishReason(c.FinishReason)
	}

	// usageMetadata repeats on every event; it is only final alongside a finish reason
	if event.UsageMetadata != nil && chunk.FinishReason != "" {
		chunk.Usage = &llm.Usage{
			PromptTokens:     event.UsageMetadata.PromptTokenCount,
			CompletionTokens: event.UsageMetadata.CandidatesTokenCount,
		}
	}

	return chunk
}

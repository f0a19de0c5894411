package datastream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/malvinraqin/portfolio/pkg/llm"
)

// Part is one decoded data protocol line.
type Part struct {
	Type  byte
	Value json.RawMessage
}

// Text decodes a text or error part's value.
func (p Part) Text() (string, error) {
	var s string
	if err := json.Unmarshal(p.Value, &s); err != nil {
		return "", fmt.Errorf("decode %c part: %w", p.Type, err)
	}
	return s, nil
}

// Decoder reads data protocol parts incrementally.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next part, or io.EOF at the end of the stream.
func (d *Decoder) Next() (Part, error) {
	for {
		line, err := d.r.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")

		if len(line) > 0 {
			if len(line) < 2 || line[1] != ':' {
				return Part{}, fmt.Errorf("malformed stream part %q", line)
			}
			return Part{Type: line[0], Value: append(json.RawMessage(nil), line[2:]...)}, nil
		}

		if err != nil {
			return Part{}, err
		}
	}
}

// Message is a fully decoded assistant reply.
type Message struct {
	ID           string
	Text         string
	FinishReason llm.FinishReason
	Usage        *llm.Usage
	Errors       []string
}

// Decode reads a whole data protocol reply. Unknown part types are ignored.
func Decode(r io.Reader) (*Message, error) {
	dec := NewDecoder(r)
	msg := &Message{}
	var text strings.Builder

	for {
		part, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch part.Type {
		case PartText:
			s, err := part.Text()
			if err != nil {
				return nil, err
			}
			text.WriteString(s)
		case PartError:
			s, err := part.Text()
			if err != nil {
				return nil, err
			}
			msg.Errors = append(msg.Errors, s)
		case PartStartStep:
			var step startStep
			if err := json.Unmarshal(part.Value, &step); err != nil {
				return nil, fmt.Errorf("decode start step: %w", err)
			}
			msg.ID = step.MessageID
		case PartFinishMessage:
			var f finish
			if err := json.Unmarshal(part.Value, &f); err != nil {
				return nil, fmt.Errorf("decode finish: %w", err)
			}
			msg.FinishReason = f.FinishReason
			if f.Usage.PromptTokens != nil && f.Usage.CompletionTokens != nil {
				msg.Usage = &llm.Usage{
					PromptTokens:     *f.Usage.PromptTokens,
					CompletionTokens: *f.Usage.CompletionTokens,
				}
			}
		}
	}

	msg.Text = text.String()
	return msg, nil
}

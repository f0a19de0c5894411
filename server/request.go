package server

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/malvinraqin/portfolio/pkg/llm"
)

// chatBody is the /api/chat request body sent by the site's chat widget.
type chatBody struct {
	Messages []incomingMessage `json:"messages"`
}

type incomingPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// incomingMessage accepts content either as a string or as an array of
// parts. Chat hooks that send "parts" alongside an empty content string are
// also understood.
type incomingMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Parts   []incomingPart  `json:"parts,omitempty"`
}

func (m incomingMessage) text() (string, error) {
	raw := bytes.TrimSpace(m.Content)

	var text string
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '[':
		var parts []incomingPart
		if err := json.Unmarshal(raw, &parts); err != nil {
			return "", err
		}
		text = joinText(parts)
	default:
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", err
		}
	}

	if text == "" {
		text = joinText(m.Parts)
	}
	return text, nil
}

func joinText(parts []incomingPart) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// turns converts the body into conversation turns, preserving order.
func (b chatBody) turns() ([]llm.Message, error) {
	out := make([]llm.Message, 0, len(b.Messages))
	for _, m := range b.Messages {
		text, err := m.text()
		if err != nil {
			return nil, err
		}
		out = append(out, llm.Message{Role: m.Role, Content: text})
	}
	return out, nil
}

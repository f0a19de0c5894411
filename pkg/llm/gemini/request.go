package gemini

import (
	"fmt"

	"github.com/malvinraqin/portfolio/pkg/llm"
)

type part struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type generateContentRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// newGenerateContentRequest maps a chat request onto the Gemini wire format.
// System turns are lifted into systemInstruction in order; assistant turns
// are sent with the "model" role.
func newGenerateContentRequest(req *llm.ChatRequest) (*generateContentRequest, error) {
	out := &generateContentRequest{
		Contents: make([]content, 0, len(req.Messages)),
	}

	for i, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			if out.SystemInstruction == nil {
				out.SystemInstruction = &content{}
			}
			out.SystemInstruction.Parts = append(out.SystemInstruction.Parts, part{Text: msg.Content})
		case llm.RoleUser:
			out.Contents = append(out.Contents, content{Role: "user", Parts: []part{{Text: msg.Content}}})
		case llm.RoleAssistant:
			out.Contents = append(out.Contents, content{Role: "model", Parts: []part{{Text: msg.Content}}})
		default:
			return nil, fmt.Errorf("%w %q at message %d", ErrUnsupportedRole, msg.Role, i)
		}
	}

	if opts := req.Options; opts != nil {
		out.GenerationConfig = &generationConfig{
			Temperature:     opts.Temperature,
			TopP:            opts.TopP,
			MaxOutputTokens: opts.MaxTokens,
		}
	}

	return out, nil
}

package datastream

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/malvinraqin/portfolio/pkg/llm"
)

// Part type codes of the data protocol.
const (
	PartText          byte = '0'
	PartError         byte = '3'
	PartStartStep     byte = 'f'
	PartFinishStep    byte = 'e'
	PartFinishMessage byte = 'd'
)

// GenericErrorMessage is sent to clients in place of provider error details.
const GenericErrorMessage = "An error occurred."

type startStep struct {
	MessageID string `json:"messageId"`
}

type usage struct {
	PromptTokens     *int `json:"promptTokens"`
	CompletionTokens *int `json:"completionTokens"`
}

type finish struct {
	FinishReason llm.FinishReason `json:"finishReason"`
	Usage        usage            `json:"usage"`
	IsContinued  *bool            `json:"isContinued,omitempty"`
}

// Encoder writes one reply in the chosen protocol. It does not buffer or
// flush; callers flush the underlying writer after each call.
type Encoder struct {
	w        io.Writer
	protocol Protocol
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer, protocol Protocol) *Encoder {
	return &Encoder{w: w, protocol: protocol}
}

// StartStep announces the assistant message id.
func (e *Encoder) StartStep(messageID string) error {
	return e.part(PartStartStep, startStep{MessageID: messageID})
}

// Text writes a text delta. Empty deltas are skipped.
func (e *Encoder) Text(text string) error {
	if text == "" {
		return nil
	}
	if e.protocol == ProtocolText {
		_, err := io.WriteString(e.w, text)
		return err
	}
	return e.part(PartText, text)
}

// Error reports a failure after the stream has started.
func (e *Encoder) Error(message string) error {
	return e.part(PartError, message)
}

// Finish closes the step and the message. An empty reason is sent as unknown;
// nil usage is sent as null counts.
func (e *Encoder) Finish(reason llm.FinishReason, u *llm.Usage) error {
	if reason == "" {
		reason = llm.FinishReasonUnknown
	}

	var payloadUsage usage
	if u != nil {
		payloadUsage = usage{PromptTokens: &u.PromptTokens, CompletionTokens: &u.CompletionTokens}
	}

	continued := false
	if err := e.part(PartFinishStep, finish{FinishReason: reason, Usage: payloadUsage, IsContinued: &continued}); err != nil {
		return err
	}
	return e.part(PartFinishMessage, finish{FinishReason: reason, Usage: payloadUsage})
}

func (e *Encoder) part(code byte, value any) error {
	if e.protocol != ProtocolData {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %c part: %w", code, err)
	}

	line := make([]byte, 0, len(data)+3)
	line = append(line, code, ':')
	line = append(line, data...)
	line = append(line, '\n')

	_, err = e.w.Write(line)
	return err
}

// Package datastream encodes streamed chat replies for HTTP clients.
//
// Two protocols are supported. The data protocol frames every part as a
// "TYPE:JSON\n" line, the format consumed by AI SDK chat hooks:
//
//	f:{"messageId":"msg-..."}
//	0:"React, "
//	0:"TypeScript"
//	e:{"finishReason":"stop","usage":{...},"isContinued":false}
//	d:{"finishReason":"stop","usage":{...}}
//
// The text protocol writes the raw text deltas and nothing else.
package datastream

import (
	"fmt"

	"github.com/google/uuid"
)

// Protocol selects the response framing.
type Protocol string

const (
	ProtocolData Protocol = "data"
	ProtocolText Protocol = "text"
)

// HeaderDataStream marks responses framed with the data protocol.
const HeaderDataStream = "X-Vercel-AI-Data-Stream"

// ContentType is the content type of both protocols.
const ContentType = "text/plain; charset=utf-8"

// ParseProtocol validates a protocol name. The empty string selects ProtocolData.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(s) {
	case "", ProtocolData:
		return ProtocolData, nil
	case ProtocolText:
		return ProtocolText, nil
	default:
		return "", fmt.Errorf("unknown stream protocol %q", s)
	}
}

// Headers returns the response headers a protocol requires.
func (p Protocol) Headers() map[string]string {
	h := map[string]string{"Content-Type": ContentType}
	if p == ProtocolData {
		h[HeaderDataStream] = "v1"
	}
	return h
}

// NewMessageID returns a fresh assistant message id.
func NewMessageID() string {
	return "msg-" + uuid.NewString()
}

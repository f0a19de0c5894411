package gemini

import (
	"encoding/json"
	"net/http"

	"github.com/malvinraqin/portfolio/pkg/llm"
)

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
	Index        int     `json:"index"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type generateContentResponse struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
	Error         *apiError      `json:"error,omitempty"`
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

func newProviderError(statusCode int, raw []byte) *llm.ProviderError {
	pe := &llm.ProviderError{
		Provider:   providerName,
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
	}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		if env.Error.Message != "" {
			pe.Message = env.Error.Message
		}
		pe.Status = env.Error.Status
	}

	return pe
}

func mapFinishReason(reason string) llm.FinishReason {
	switch reason {
	case "":
		return ""
	case "STOP":
		return llm.FinishReasonStop
	case "MAX_TOKENS":
		return llm.FinishReasonLength
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII", "IMAGE_SAFETY":
		return llm.FinishReasonContentFilter
	case "FINISH_REASON_UNSPECIFIED":
		return llm.FinishReasonUnknown
	default:
		return llm.FinishReasonOther
	}
}

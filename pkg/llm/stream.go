package llm

// FinishReason describes why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content-filter"
	FinishReasonOther         FinishReason = "other"
	FinishReasonUnknown       FinishReason = "unknown"
)

// Usage reports token counts for a completed generation.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// StreamChunk represents a single increment of a streamed response.
type StreamChunk struct {
	Text string

	// Final chunk carries the finish reason and usage when the provider reports them
	FinishReason FinishReason
	Usage        *Usage
}

package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/malvinraqin/portfolio/pkg/llm"
	"github.com/malvinraqin/portfolio/pkg/llm/gemini"
	"github.com/malvinraqin/portfolio/pkg/persona"
)

// recorded is what the fake upstream saw.
type recorded struct {
	path   string
	query  string
	apiKey string
	body   map[string]any
}

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		upstream *httptest.Server
		seen     *recorded
		status   int
		payload  string
		client   *gemini.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		seen = &recorded{}
		status = http.StatusOK
		payload = ""

		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen.path = r.URL.Path
			seen.query = r.URL.RawQuery
			seen.apiKey = r.Header.Get("x-goog-api-key")
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &seen.body)

			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(status)
			fmt.Fprint(w, payload)
		}))

		client = gemini.New(gemini.Config{APIKey: "test-key", BaseURL: upstream.URL + "/"}, zap.NewNop())
	})

	AfterEach(func() {
		upstream.Close()
	})

	collect := func(s llm.Stream) ([]llm.StreamChunk, error) {
		defer s.Close()
		var chunks []llm.StreamChunk
		for {
			chunk, err := s.Recv()
			if errors.Is(err, io.EOF) {
				return chunks, nil
			}
			if err != nil {
				return chunks, err
			}
			chunks = append(chunks, chunk)
		}
	}

	It("names itself google", func() {
		Expect(client.Name()).To(Equal("google"))
	})

	It("posts to streamGenerateContent with the api key header", func() {
		s, err := client.ChatStream(ctx, persona.Request("", []llm.Message{{Role: llm.RoleUser, Content: "Halo"}}))
		Expect(err).NotTo(HaveOccurred())
		_, err = collect(s)
		Expect(err).NotTo(HaveOccurred())

		Expect(seen.path).To(Equal("/models/gemini-2.5-flash:streamGenerateContent"))
		Expect(seen.query).To(Equal("alt=sse"))
		Expect(seen.apiKey).To(Equal("test-key"))
	})

	It("maps system turns to systemInstruction and assistant turns to model", func() {
		req := persona.Request("", []llm.Message{
			{Role: llm.RoleUser, Content: "Halo"},
			{Role: llm.RoleAssistant, Content: "Hai!"},
			{Role: llm.RoleUser, Content: "Apa skill Malvin?"},
		})
		s, err := client.ChatStream(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		s.Close()

		system := seen.body["systemInstruction"].(map[string]any)["parts"].([]any)
		Expect(system).To(HaveLen(1))
		Expect(system[0].(map[string]any)["text"]).To(Equal(persona.SystemPrompt))

		contents := seen.body["contents"].([]any)
		Expect(contents).To(HaveLen(3))
		roles := []string{}
		for _, c := range contents {
			roles = append(roles, c.(map[string]any)["role"].(string))
		}
		Expect(roles).To(Equal([]string{"user", "model", "user"}))
		Expect(contents[2].(map[string]any)["parts"].([]any)[0].(map[string]any)["text"]).To(Equal("Apa skill Malvin?"))

		cfg := seen.body["generationConfig"].(map[string]any)
		Expect(cfg["temperature"]).To(Equal(0.7))
		Expect(cfg["topP"]).To(Equal(0.9))
		Expect(cfg["maxOutputTokens"]).To(Equal(float64(1000)))
	})

	It("streams text in generation order and ends with finish reason and usage", func() {
		payload = ": keep-alive\n\n" +
			`data: {"candidates":[{"content":{"role":"model","parts":[{"text":"thinking","thought":true}]}}]}` + "\n\n" +
			`data: {"candidates":[{"content":{"role":"model","parts":[{"text":"React, "}]}}],"usageMetadata":{"promptTokenCount":5}}` + "\r\n\r\n" +
			`data: {"candidates":[{"content":{"role":"model","parts":[{"text":"TypeScript"}]},"finishReason":"STOP"}],` + "\n" +
			`data: "usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":3,"totalTokenCount":15}}` + "\n\n"

		s, err := client.ChatStream(ctx, persona.Request("", []llm.Message{{Role: llm.RoleUser, Content: "Apa skill Malvin?"}}))
		Expect(err).NotTo(HaveOccurred())

		chunks, err := collect(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(HaveLen(2))
		Expect(chunks[0].Text).To(Equal("React, "))
		Expect(chunks[0].Usage).To(BeNil())
		Expect(chunks[1].Text).To(Equal("TypeScript"))
		Expect(chunks[1].FinishReason).To(Equal(llm.FinishReasonStop))
		Expect(chunks[1].Usage).To(Equal(&llm.Usage{PromptTokens: 12, CompletionTokens: 3}))
	})

	It("maps MAX_TOKENS and safety finish reasons", func() {
		payload = `data: {"candidates":[{"content":{"parts":[{"text":"a"}]},"finishReason":"MAX_TOKENS"}]}` + "\n\n"
		s, err := client.ChatStream(ctx, persona.Request("", []llm.Message{{Role: llm.RoleUser, Content: "x"}}))
		Expect(err).NotTo(HaveOccurred())
		chunks, err := collect(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks[0].FinishReason).To(Equal(llm.FinishReasonLength))

		payload = `data: {"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}` + "\n\n"
		s, err = client.ChatStream(ctx, persona.Request("", []llm.Message{{Role: llm.RoleUser, Content: "x"}}))
		Expect(err).NotTo(HaveOccurred())
		chunks, err = collect(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks[0].FinishReason).To(Equal(llm.FinishReasonContentFilter))
	})

	It("returns a ProviderError for non-200 responses", func() {
		status = http.StatusBadRequest
		payload = `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`

		_, err := client.ChatStream(ctx, persona.Request("", []llm.Message{{Role: llm.RoleUser, Content: "x"}}))
		Expect(err).To(HaveOccurred())

		var pe *llm.ProviderError
		Expect(errors.As(err, &pe)).To(BeTrue())
		Expect(pe.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(pe.Status).To(Equal("INVALID_ARGUMENT"))
		Expect(pe.Message).To(Equal("API key not valid."))
	})

	It("falls back to the status text when the error body is not JSON", func() {
		status = http.StatusServiceUnavailable
		payload = "upstream down"

		_, err := client.ChatStream(ctx, persona.Request("", []llm.Message{{Role: llm.RoleUser, Content: "x"}}))

		var pe *llm.ProviderError
		Expect(errors.As(err, &pe)).To(BeTrue())
		Expect(pe.Message).To(Equal("Service Unavailable"))
	})

	It("surfaces errors reported inside the stream", func() {
		payload = `data: {"candidates":[{"content":{"parts":[{"text":"Hal"}]}}]}` + "\n\n" +
			`data: {"error":{"code":500,"message":"internal","status":"INTERNAL"}}` + "\n\n"

		s, err := client.ChatStream(ctx, persona.Request("", []llm.Message{{Role: llm.RoleUser, Content: "x"}}))
		Expect(err).NotTo(HaveOccurred())

		chunks, err := collect(s)
		Expect(chunks).To(HaveLen(1))
		var pe *llm.ProviderError
		Expect(errors.As(err, &pe)).To(BeTrue())
		Expect(pe.Status).To(Equal("INTERNAL"))
	})

	It("rejects unsupported roles before calling upstream", func() {
		_, err := client.ChatStream(ctx, &llm.ChatRequest{
			Model:    "gemini-2.5-flash",
			Messages: []llm.Message{{Role: "tool", Content: "{}"}},
		})

		Expect(err).To(MatchError(gemini.ErrUnsupportedRole))
		Expect(seen.path).To(BeEmpty())
	})

	It("refuses to call upstream without an api key", func() {
		keyless := gemini.New(gemini.Config{BaseURL: upstream.URL}, zap.NewNop())

		_, err := keyless.ChatStream(ctx, persona.Request("", nil))

		Expect(err).To(MatchError(gemini.ErrMissingAPIKey))
		Expect(seen.path).To(BeEmpty())
	})
})

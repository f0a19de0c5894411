package askcmder

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/malvinraqin/portfolio/pkg/llm"
	"github.com/malvinraqin/portfolio/server"
)

// scriptedProvider answers each call with the next scripted reply.
type scriptedProvider struct {
	mu       sync.Mutex
	replies  [][]string
	requests []*llm.ChatRequest
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) ChatStream(_ context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	var reply []string
	if len(p.replies) > 0 {
		reply, p.replies = p.replies[0], p.replies[1:]
	}
	return &scriptedStream{deltas: reply}, nil
}

func (p *scriptedProvider) lastRequest() *llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

type scriptedStream struct {
	deltas []string
}

func (s *scriptedStream) Recv() (llm.StreamChunk, error) {
	if len(s.deltas) == 0 {
		return llm.StreamChunk{}, io.EOF
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return llm.StreamChunk{Text: d}, nil
}

func (s *scriptedStream) Close() error { return nil }

var _ = Describe("Ask Command", func() {
	var (
		provider *scriptedProvider
		addr     string
		srv      *server.Server
	)

	startServer := func(apiKey string) {
		var err error
		srv, err = server.New(server.Config{APIKey: apiKey}, provider, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		go func() {
			_ = srv.RunWithListener(listener)
		}()

		addr = "http://" + listener.Addr().String()
	}

	BeforeEach(func() {
		provider = &scriptedProvider{}
		srv = nil
	})

	AfterEach(func() {
		if srv != nil {
			Expect(srv.Shutdown(time.Second)).To(Succeed())
		}
	})

	execute := func(stdin string, args ...string) (string, error) {
		cmd := NewAskCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetArgs(append([]string{"--server", addr + "/"}, args...))
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	It("streams a one-shot answer to stdout", func() {
		provider.replies = [][]string{{"React, ", "TypeScript"}}
		startServer("test-key")

		out, err := execute("", "Apa", "skill", "Malvin?")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("React, TypeScript\n"))

		req := provider.lastRequest()
		Expect(req.Messages).To(HaveLen(2))
		Expect(req.Messages[1]).To(Equal(llm.Message{Role: llm.RoleUser, Content: "Apa skill Malvin?"}))
	})

	It("resends the growing history in interactive mode", func() {
		provider.replies = [][]string{{"Hai!"}, {"React, TypeScript"}}
		startServer("test-key")

		out, err := execute("Halo\n\nApa skill Malvin?\nexit\nignored\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Malvin AI › Hai!\nMalvin AI › React, TypeScript\n"))

		Expect(provider.lastRequest().Messages[1:]).To(Equal([]llm.Message{
			{Role: llm.RoleUser, Content: "Halo"},
			{Role: llm.RoleAssistant, Content: "Hai!"},
			{Role: llm.RoleUser, Content: "Apa skill Malvin?"},
		}))
	})

	It("reports the server's error message", func() {
		startServer("")

		_, err := execute("", "Halo")
		Expect(err).To(MatchError(ContainSubstring("server returned 500: Google API key not configured")))
		Expect(provider.requests).To(BeEmpty())
	})

	It("keeps going after a failed question in interactive mode", func() {
		startServer("")

		out, err := execute("Halo\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("error: server returned 500"))
	})
})

var _ = Describe("serverMessage", func() {
	It("prefers the JSON error field", func() {
		Expect(serverMessage([]byte(`{"error":"Failed to process request"}`))).To(Equal("Failed to process request"))
	})

	It("falls back to the raw body", func() {
		Expect(serverMessage([]byte("Google API key not configured\n"))).To(Equal("Google API key not configured"))
	})
})

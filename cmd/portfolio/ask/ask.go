package askcmder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/malvinraqin/portfolio/pkg/datastream"
	"github.com/malvinraqin/portfolio/pkg/llm"
)

const askLongDesc string = `Ask the portfolio assistant a question.

With a question argument, sends it to a running server and streams
the reply to stdout. Without one, starts an interactive session that
keeps the conversation on the client side; type "exit" to leave.

Examples:
  portfolio ask "Apa skill Malvin?"
  portfolio ask --server https://malvin.dev`

const askShortDesc string = "Ask the assistant a question"

const assistantName = "Malvin AI"

type askCommander struct {
	serverURL string
	noColor   bool

	httpClient *http.Client
	prefix     lipgloss.Style
	styled     bool
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: askShortDesc,
		Long:  askLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVar(&cmder.serverURL, "server", "http://localhost:8080", "Chat server URL")
	cmd.Flags().BoolVar(&cmder.noColor, "no-color", false, "Disable styled output")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	c.serverURL = strings.TrimRight(c.serverURL, "/")
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	c.styled = !c.noColor && isTerminal(cmd.OutOrStdout())
	c.prefix = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	out := cmd.OutOrStdout()

	if len(args) > 0 {
		question := strings.Join(args, " ")
		_, err := c.ask(ctx, out, []llm.Message{{Role: llm.RoleUser, Content: question}})
		return err
	}

	return c.interactive(ctx, cmd.InOrStdin(), out)
}

// interactive reads one question per line. The server is stateless, so the
// whole history is resent with every question.
func (c *askCommander) interactive(ctx context.Context, in io.Reader, out io.Writer) error {
	prompt := isTerminal(in)
	var history []llm.Message

	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "you › ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		history = append(history, llm.Message{Role: llm.RoleUser, Content: line})
		fmt.Fprint(out, c.label())

		reply, err := c.ask(ctx, out, history)
		if err != nil {
			// drop the unanswered question so the next one starts clean
			history = history[:len(history)-1]
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		history = append(history, llm.Message{Role: llm.RoleAssistant, Content: reply})
	}
}

func (c *askCommander) label() string {
	label := assistantName + " › "
	if c.styled {
		return c.prefix.Render(label)
	}
	return label
}

// ask sends the conversation and copies the reply to out as it streams in.
func (c *askCommander) ask(ctx context.Context, out io.Writer, history []llm.Message) (string, error) {
	body, err := json.Marshal(map[string]any{"messages": history})
	if err != nil {
		return "", fmt.Errorf("could not marshal conversation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/chat?protocol=data", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, serverMessage(respBody))
	}

	var reply strings.Builder
	dec := datastream.NewDecoder(resp.Body)
	for {
		part, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return reply.String(), fmt.Errorf("could not read reply: %w", err)
		}

		switch part.Type {
		case datastream.PartText:
			text, err := part.Text()
			if err != nil {
				return reply.String(), err
			}
			reply.WriteString(text)
			fmt.Fprint(out, text)
		case datastream.PartError:
			msg, _ := part.Text()
			fmt.Fprintln(out)
			return reply.String(), fmt.Errorf("reply interrupted: %s", msg)
		}
	}

	fmt.Fprintln(out)
	return reply.String(), nil
}

// serverMessage extracts the error text from a JSON or plain-text error body.
func serverMessage(body []byte) string {
	var e llm.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

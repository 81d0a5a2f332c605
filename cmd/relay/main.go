// Command relay is a terminal chat client for Gemini with MCP tools.
//
// Usage:
//
//	GEMINI_API_KEY=gk-... relay [flags]
//
// Flags:
//
//	-model string          Model ID (default: gemini-2.5-flash)
//	-mcp-url value         Streamable HTTP MCP server URL (repeatable)
//	-mcp-cmd string        Command line for a stdio MCP server
//	-session string        Path to session file to resume
//	-system-prompt string  Path to system prompt file (default: .relay/prompt.md)
//	-debug                 Enable debug logging
//
// MCP servers can also come from RELAY_MCP_URL (comma separated) and
// RELAY_MCP_COMMAND. A .env file in the working directory or any parent
// is loaded before the environment is read.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/mstolarz/relay"
	"github.com/mstolarz/relay/agent"
	"github.com/mstolarz/relay/config"
	"github.com/mstolarz/relay/gemini"
	"github.com/mstolarz/relay/jsonfile"
	"github.com/mstolarz/relay/markdown"
	"github.com/mstolarz/relay/mcptool"
	"github.com/mstolarz/relay/translog"
)

const (
	defaultPromptPath = ".relay/prompt.md"
	renderWidth       = 100
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

// multiFlag collects repeated string flag values.
type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

func run() error {
	var (
		model       = flag.String("model", "", "Model ID")
		mcpURLs     multiFlag
		mcpCmd      = flag.String("mcp-cmd", "", "Command line for a stdio MCP server")
		sessionPath = flag.String("session", "", "Path to session file to resume")
		promptPath  = flag.String("system-prompt", defaultPromptPath, "Path to system prompt file")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Var(&mcpURLs, "mcp-url", "Streamable HTTP MCP server URL (repeatable)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	log := clog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx = clog.WithLogger(ctx, log)

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *model == "" {
		*model = cfg.Model
	}

	provider, err := gemini.New(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("creating Gemini client: %w", err)
	}

	// Flags override the environment for MCP servers.
	urls := []string(mcpURLs)
	if len(urls) == 0 {
		urls = cfg.MCPURLs
	}
	command := *mcpCmd
	if command == "" {
		command = cfg.MCPCommand
	}

	executor, err := connectServers(ctx, urls, command)
	if err != nil {
		return err
	}
	defer executor.Close()

	session, err := loadOrCreateSession(*sessionPath, *promptPath)
	if err != nil {
		return err
	}

	transcript, err := translog.New(translog.DefaultDir, session.ID)
	if err != nil {
		return err
	}
	defer transcript.Close()

	theme := relay.DefaultTheme()
	tools := executor.Tools()
	fmt.Println(banner(theme, *model, tools))

	if err := chat(ctx, &session, provider, executor, transcript, theme, *model); err != nil {
		return err
	}

	return saveSession(*sessionPath, session)
}

// connectServers connects to all configured MCP servers and wraps them in a
// single executor. No servers configured is fine; the chat just has no tools.
func connectServers(ctx context.Context, urls []string, command string) (*mcptool.Executor, error) {
	var servers []*mcptool.Server
	for _, url := range urls {
		s, err := mcptool.ConnectHTTP(ctx, url)
		if err != nil {
			closeServers(servers)
			return nil, err
		}
		servers = append(servers, s)
	}
	// Fields guards against whitespace-only commands from env or flags.
	if fields := strings.Fields(command); len(fields) > 0 {
		s, err := mcptool.ConnectStdio(ctx, fields[0], fields[1:]...)
		if err != nil {
			closeServers(servers)
			return nil, err
		}
		servers = append(servers, s)
	}
	return mcptool.NewExecutor(servers...), nil
}

func closeServers(servers []*mcptool.Server) {
	for _, s := range servers {
		s.Close()
	}
}

// chat runs the read-eval-print loop until the user types exit or stdin ends.
func chat(ctx context.Context, session *relay.Session, provider relay.Provider, executor *mcptool.Executor, transcript *translog.Log, theme relay.Theme, model string) error {
	loop := agent.New(provider, executor)
	tools := executor.Tools()
	logEvents := transcript.Handler()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptLabel(theme))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" {
			return nil
		}

		if err := transcript.UserInput(input); err != nil {
			clog.FromContext(ctx).Warnf("transcript write failed: %v", err)
		}
		session.Messages = append(session.Messages, relay.UserMessage{
			Content:   []relay.ContentBlock{relay.TextBlock{Text: input}},
			Timestamp: time.Now(),
		})

		before := len(session.Messages)
		onEvent := func(evt relay.Event) {
			logEvents(evt)
			printEvent(theme, evt)
		}
		err := loop.Run(ctx, session, tools, agent.WithEventHandler(onEvent), agent.WithModel(model))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Println(errorLine(theme, err))
			continue
		}

		for _, msg := range session.Messages[before:] {
			am, ok := msg.(relay.AssistantMessage)
			if !ok {
				continue
			}
			if err := transcript.AssistantMessage(am); err != nil {
				clog.FromContext(ctx).Warnf("transcript write failed: %v", err)
			}
			if text := assistantText(am); text != "" {
				fmt.Println()
				fmt.Println(markdown.Render(text, renderWidth, theme))
				fmt.Println()
			}
		}
	}
}

func assistantText(msg relay.AssistantMessage) string {
	var sb strings.Builder
	for _, b := range msg.Content {
		if tb, ok := b.(relay.TextBlock); ok {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(tb.Text)
		}
	}
	return sb.String()
}

func loadOrCreateSession(sessionPath, promptPath string) (relay.Session, error) {
	if sessionPath != "" {
		s, err := jsonfile.Load(sessionPath)
		if err != nil {
			return relay.Session{}, fmt.Errorf("load session: %w", err)
		}
		return s, nil
	}

	// Tolerate a missing default prompt file; fail on all other errors.
	systemPrompt := "You are a helpful assistant with access to documentation tools."
	data, err := os.ReadFile(promptPath)
	switch {
	case err == nil:
		systemPrompt = string(data)
	case errors.Is(err, os.ErrNotExist) && promptPath == defaultPromptPath:
	default:
		return relay.Session{}, fmt.Errorf("read system prompt: %w", err)
	}

	now := time.Now()
	return relay.Session{
		ID:           uuid.NewString(),
		SystemPrompt: systemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func saveSession(sessionPath string, session relay.Session) error {
	if sessionPath != "" {
		if err := jsonfile.Save(sessionPath, session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return nil
	}
	if len(session.Messages) == 0 {
		return nil
	}
	savePath := defaultSessionPath(session.ID)
	if err := jsonfile.Save(savePath, session); err != nil {
		return fmt.Errorf("auto-save session: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Session saved to %s\n", savePath)
	return nil
}

func defaultSessionPath(id string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".relay", "sessions", id+".json")
}

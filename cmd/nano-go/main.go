// ABOUTME: CLI entry point: config, provider selection, toolkit wiring
// ABOUTME: Dispatches to one-shot print mode or the interactive chat

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/mauromedda/nano-agent-go/internal/config"
	"github.com/mauromedda/nano-agent-go/internal/imgutil"
	"github.com/mauromedda/nano-agent-go/internal/log"
	"github.com/mauromedda/nano-agent-go/pkg/agent"
	"github.com/mauromedda/nano-agent-go/pkg/mcp"
	"github.com/mauromedda/nano-agent-go/pkg/model"
	"github.com/mauromedda/nano-agent-go/pkg/model/anthropic"
	"github.com/mauromedda/nano-agent-go/pkg/model/dashscope"
	"github.com/mauromedda/nano-agent-go/pkg/model/openai"
	"github.com/mauromedda/nano-agent-go/pkg/msg"
	"github.com/mauromedda/nano-agent-go/pkg/tool"
	"github.com/mauromedda/nano-agent-go/pkg/tool/builtin"
)

var version = "dev"

func main() {
	args := parseFlags()

	if args.version {
		fmt.Printf("nano-go %s\n", version)
		os.Exit(0)
	}

	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args cliArgs) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	applyFlags(&cfg, args)
	log.SetVerbose(cfg.Verbose)

	def, err := resolveDefinition(args.agentDef)
	if err != nil {
		return err
	}

	tk, cleanup, err := buildToolkit(args, cfg, def)
	if err != nil {
		return err
	}
	defer cleanup()

	chat, formatter, err := buildModel(cfg)
	if err != nil {
		return err
	}

	sysPrompt := cfg.SystemPrompt
	if def.SystemPrompt != "" {
		sysPrompt = def.SystemPrompt
	}
	maxIters := cfg.MaxIters
	if def.MaxIters > 0 && args.maxIters == 0 {
		maxIters = def.MaxIters
	}

	ag, err := agent.New(agent.Options{
		Name:         defName(def),
		SystemPrompt: sysPrompt,
		Formatter:    formatter,
		Model:        chat,
		Toolkit:      tk,
		MaxIters:     maxIters,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompt := args.prompt
	if rest := args.remaining(); prompt == "" && len(rest) > 0 {
		prompt = strings.Join(rest, " ")
	}

	if prompt != "" || !term.IsTerminal(int(os.Stdin.Fd())) {
		return runPrint(ctx, ag, prompt, args.attach)
	}
	return runChat(ctx, ag)
}

// applyFlags lets command-line flags win over file and environment values.
func applyFlags(cfg *config.Config, args cliArgs) {
	if args.provider != "" {
		cfg.Provider = args.provider
	}
	if args.model != "" {
		cfg.Model = args.model
	}
	if args.baseURL != "" {
		cfg.BaseURL = args.baseURL
	}
	if args.maxIters > 0 {
		cfg.MaxIters = args.maxIters
	}
	if args.verbose {
		cfg.Verbose = true
	}
}

func resolveDefinition(name string) (agent.Definition, error) {
	if name == "" {
		return agent.Definition{}, nil
	}
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	defs := agent.LoadDefinitions(cwd, home)
	def, ok := defs[name]
	if !ok {
		known := make([]string, 0, len(defs))
		for n := range defs {
			known = append(known, n)
		}
		return agent.Definition{}, fmt.Errorf("unknown agent %q (have: %s)", name, strings.Join(known, ", "))
	}
	return def, nil
}

func defName(def agent.Definition) string {
	if def.Name != "" {
		return def.Name
	}
	return "assistant"
}

// buildToolkit wires the builtin tools, applies any agent-card allowlist,
// and bridges MCP servers. The returned cleanup closes MCP transports.
func buildToolkit(args cliArgs, cfg config.Config, def agent.Definition) (*tool.Toolkit, func(), error) {
	tk := tool.New()
	tk.SetResultLimit(cfg.ToolResultLimit)

	if err := builtin.RegisterCalculator(tk); err != nil {
		return nil, nil, err
	}
	if err := builtin.RegisterCurrentTime(tk); err != nil {
		return nil, nil, err
	}
	if err := builtin.RegisterWebFetch(tk, nil); err != nil {
		return nil, nil, err
	}

	if args.yes {
		tk.SetApprover(tool.ApproverFunc(func(context.Context, string, json.RawMessage) (bool, error) {
			return true, nil
		}))
	}

	cleanup := func() {}
	if args.mcpURL != "" || args.mcpCmd != "" {
		client, err := connectMCP(args)
		if err != nil {
			return nil, nil, err
		}
		if _, err := mcp.Bridge(context.Background(), tk, client, ""); err != nil {
			client.Close()
			return nil, nil, err
		}
		cleanup = func() { client.Close() }
	}

	// Agent cards restrict the toolkit by allowlist.
	if len(def.Tools) > 0 {
		allowed := make(map[string]bool, len(def.Tools))
		for _, name := range def.Tools {
			allowed[name] = true
		}
		for _, s := range tk.Schemas() {
			if !allowed[s.Name] {
				tk.Remove(s.Name)
			}
		}
	}

	return tk, cleanup, nil
}

func connectMCP(args cliArgs) (*mcp.Client, error) {
	var transport mcp.Transport
	var err error
	if args.mcpCmd != "" {
		parts := strings.Fields(args.mcpCmd)
		transport, err = mcp.NewStdioTransport(parts[0], parts[1:]...)
		if err != nil {
			return nil, err
		}
	} else {
		transport = mcp.NewHTTPTransport(args.mcpURL, nil, nil)
	}

	client := mcp.NewClient("nano-go", transport)
	if err := client.Initialize(context.Background()); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func buildModel(cfg config.Config) (model.ChatModel, model.Formatter, error) {
	key := cfg.APIKey()
	switch cfg.Provider {
	case "anthropic":
		return anthropic.New(key, cfg.BaseURL, cfg.Model), anthropic.Formatter{}, nil
	case "openai":
		m, err := openai.New(key, cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		return m, openai.Formatter{}, nil
	case "dashscope":
		return dashscope.New(key, cfg.BaseURL, cfg.Model), dashscope.Formatter{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q (want anthropic, openai, or dashscope)", cfg.Provider)
	}
}

// runPrint handles one-shot mode: read the prompt (stdin when empty), reply
// once, print, exit.
func runPrint(ctx context.Context, ag *agent.ReActAgent, prompt, attach string) error {
	if prompt == "" {
		data, err := readAllStdin()
		if err != nil {
			return err
		}
		prompt = strings.TrimSpace(data)
	}
	if prompt == "" {
		return fmt.Errorf("no prompt given (use -p or pipe stdin)")
	}

	blocks := []msg.Content{msg.TextBlock(prompt)}
	if attach != "" {
		img, err := imgutil.LoadAttachment(attach)
		if err != nil {
			return err
		}
		blocks = append(blocks, img)
	}
	in, err := msg.New("user", msg.RoleUser, blocks...)
	if err != nil {
		return err
	}

	out, err := ag.Reply(ctx, &in)
	if err != nil {
		return err
	}
	fmt.Println(out.Text())
	return nil
}

func readAllStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// ABOUTME: CLI flag parsing using stdlib flag package
// ABOUTME: Supports --provider, --model, --agent, --prompt, --mcp, --verbose

package main

import "flag"

type cliArgs struct {
	provider string
	model    string
	baseURL  string
	agentDef string
	prompt   string
	attach   string
	mcpURL   string
	mcpCmd   string
	maxIters int
	verbose  bool
	version  bool
	yes      bool
}

func parseFlags() cliArgs {
	var args cliArgs

	flag.StringVar(&args.provider, "provider", "", "Provider: anthropic, openai, or dashscope")
	flag.StringVar(&args.model, "model", "", "Model ID (e.g., qwen-max, claude-sonnet-4-20250514)")
	flag.StringVar(&args.baseURL, "base-url", "", "Custom API base URL")
	flag.StringVar(&args.agentDef, "agent", "", "Agent card to run (builtin or from .nano-go/agents/)")
	flag.StringVar(&args.prompt, "p", "", "One-shot prompt; print the reply and exit")
	flag.StringVar(&args.attach, "attach", "", "Image file to attach to the prompt")
	flag.StringVar(&args.mcpURL, "mcp", "", "MCP server URL to bridge tools from")
	flag.StringVar(&args.mcpCmd, "mcp-cmd", "", "MCP server command to spawn and bridge tools from")
	flag.IntVar(&args.maxIters, "max-iters", 0, "Reasoning iteration budget (0 = config default)")
	flag.BoolVar(&args.verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&args.version, "version", false, "Show version and exit")
	flag.BoolVar(&args.yes, "yes", false, "Auto-approve confirmation-gated tools")

	flag.Parse()
	return args
}

// remaining returns the non-flag command-line arguments.
func (a cliArgs) remaining() []string {
	return flag.Args()
}

// ABOUTME: MCP transports: child process over stdio, and HTTP POST
// ABOUTME: Both match responses to requests by JSON-RPC id

package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"sync"
	"time"

	"github.com/mauromedda/nano-agent-go/internal/log"
)

// StdioTransport runs an MCP server as a child process and frames requests
// as newline-delimited JSON on its stdin/stdout.
type StdioTransport struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
}

const maxFrame = 8 << 20

// NewStdioTransport starts command with args and wires up its pipes. The
// child's stderr passes through to ours for server-side diagnostics.
func NewStdioTransport(command string, args ...string) (*StdioTransport, error) {
	cmd := exec.Command(command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("mcp: starting %s: %w", command, err)
	}

	s := bufio.NewScanner(stdout)
	s.Buffer(make([]byte, 0, 64*1024), maxFrame)

	log.Debug("mcp: started server %s (pid %d)", command, cmd.Process.Pid)
	return &StdioTransport{cmd: cmd, stdin: stdin, stdout: s}, nil
}

// Send writes one frame and reads until the response with the matching id
// arrives. Server-initiated notifications in between are skipped. A request
// without an id (a notification) returns immediately after the write.
func (t *StdioTransport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.stdin.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("writing frame: %w", err)
	}

	var req struct {
		ID int64 `json:"id"`
	}
	if json.Unmarshal(payload, &req) == nil && req.ID == 0 {
		return nil, nil
	}

	for t.stdout.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(t.stdout.Bytes())
		if len(line) == 0 {
			continue
		}
		var resp struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(line, &resp); err != nil {
			log.Debug("mcp: skipping unparseable frame: %s", line)
			continue
		}
		if resp.ID != req.ID {
			// notification or out-of-band message
			continue
		}
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := t.stdout.Err(); err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}
	return nil, io.ErrUnexpectedEOF
}

// Close shuts the child down: stdin closes first to signal EOF, then the
// process gets a short grace period before a kill.
func (t *StdioTransport) Close() error {
	t.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- t.cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.cmd.Process.Kill()
		return <-done
	}
}

// HTTPTransport POSTs each request to a single MCP endpoint.
type HTTPTransport struct {
	client  *http.Client
	url     string
	headers map[string]string
}

// NewHTTPTransport targets url. headers are added to every request; a nil
// client gets a default with a timeout.
func NewHTTPTransport(url string, headers map[string]string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPTransport{client: client, url: url, headers: headers}
}

func (t *HTTPTransport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFrame))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("endpoint returned %s: %s", resp.Status, body)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	return body, nil
}

func (t *HTTPTransport) Close() error { return nil }

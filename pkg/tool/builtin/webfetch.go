// ABOUTME: web_fetch tool: GET a URL and reduce the HTML to readable text
// ABOUTME: Script/style subtrees are skipped; output is capped to keep context small

package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

const (
	fetchTimeout  = 30 * time.Second
	maxBodyBytes  = 2 << 20 // 2 MiB of HTML is plenty
	maxOutputRune = 20000
)

type webFetchArgs struct {
	URL string `json:"url" desc:"HTTP or HTTPS URL to fetch"`
}

// RegisterWebFetch adds the web_fetch tool to tk. A nil client uses a
// default with a sane timeout.
func RegisterWebFetch(tk *tool.Toolkit, client *http.Client) error {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return tool.Register(tk, "web_fetch",
		"Fetch a web page and return its readable text content.",
		func(ctx context.Context, args webFetchArgs) (tool.Response, error) {
			return fetchPage(ctx, client, args.URL)
		})
}

func fetchPage(ctx context.Context, client *http.Client, rawURL string) (tool.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return tool.Response{}, fmt.Errorf("invalid URL %q: must be http or https", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return tool.Response{}, err
	}
	req.Header.Set("User-Agent", "nano-go/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return tool.Response{}, fmt.Errorf("fetching %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tool.Response{}, fmt.Errorf("%s returned %s", u.Host, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return tool.Response{}, fmt.Errorf("reading response: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	var text string
	if strings.Contains(ct, "html") || looksLikeHTML(body) {
		text = extractText(body)
	} else {
		text = string(body)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return tool.Text("(page contained no readable text)"), nil
	}
	runes := []rune(text)
	if len(runes) > maxOutputRune {
		text = string(runes[:maxOutputRune]) + "\n[content truncated]"
	}
	return tool.Text(text), nil
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 256)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

// extractText walks the parsed tree collecting text nodes, skipping subtrees
// that never render.
func extractText(body []byte) string {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return string(body)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template", "head":
				return
			case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				sb.WriteByte('\n')
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// Collapse runs of blank lines left behind by the block-element breaks.
	lines := strings.Split(sb.String(), "\n")
	var out []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// ABOUTME: Interactive chat mode built on Bubble Tea
// ABOUTME: Renders assistant markdown with glamour and shows tool activity

package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/mauromedda/nano-agent-go/pkg/agent"
	"github.com/mauromedda/nano-agent-go/pkg/msg"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	toolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// replyDoneMsg carries the result of one agent reply.
type replyDoneMsg struct {
	out *msg.Msg
	err error
}

// agentEventMsg wraps one event read from the agent's event channel.
type agentEventMsg struct {
	ev agent.Event
	ok bool
}

// chatModel is the Bubble Tea model for the interactive session.
type chatModel struct {
	ctx   context.Context
	ag    *agent.ReActAgent
	md    *markdownRenderer
	width int

	input      string
	transcript []string
	busy       bool
	quitting   bool
}

// runChat starts the interactive chat loop and blocks until the user quits.
func runChat(ctx context.Context, ag *agent.ReActAgent) error {
	m := chatModel{
		ctx:   ctx,
		ag:    ag,
		md:    newMarkdownRenderer(),
		width: 80,
	}
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m chatModel) Init() tea.Cmd {
	return m.listenCmd()
}

// listenCmd blocks on the agent's event channel and delivers one event.
func (m chatModel) listenCmd() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.ag.Events()
		return agentEventMsg{ev: ev, ok: ok}
	}
}

// replyCmd runs one agent reply on a background goroutine.
func (m chatModel) replyCmd(text string) tea.Cmd {
	ctx := m.ctx
	ag := m.ag
	return func() tea.Msg {
		in := msg.MustText("user", msg.RoleUser, text)
		out, err := ag.Reply(ctx, &in)
		return replyDoneMsg{out: out, err: err}
	}
}

func (m chatModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch v := message.(type) {
	case tea.WindowSizeMsg:
		m.width = v.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(v)

	case agentEventMsg:
		if !v.ok {
			return m, nil
		}
		m.appendEvent(v.ev)
		return m, m.listenCmd()

	case replyDoneMsg:
		m.busy = false
		if v.err != nil {
			m.transcript = append(m.transcript, errStyle.Render("error: "+v.err.Error()))
			return m, nil
		}
		if v.out != nil {
			m.transcript = append(m.transcript, m.md.render(v.out.Text(), m.width))
		}
		return m, nil
	}
	return m, nil
}

func (m chatModel) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.Type {
	case tea.KeyCtrlC:
		if m.busy {
			// First Ctrl+C interrupts the running reply, not the program.
			m.ag.Handle().Cancel()
			m.transcript = append(m.transcript, dimStyle.Render("interrupting..."))
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case tea.KeyCtrlD:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEnter:
		text := strings.TrimSpace(m.input)
		if text == "" {
			return m, nil
		}
		m.input = ""
		if m.busy {
			// Mid-reply input becomes steering for the next iteration.
			m.ag.Handle().Inject(msg.MustText("user", msg.RoleUser, text))
			m.transcript = append(m.transcript, dimStyle.Render("steering: ")+text)
			return m, nil
		}
		m.busy = true
		m.transcript = append(m.transcript, userStyle.Render("> "+text))
		return m, m.replyCmd(text)

	case tea.KeyBackspace:
		if len(m.input) > 0 {
			r := []rune(m.input)
			m.input = string(r[:len(r)-1])
		}
		return m, nil

	case tea.KeySpace:
		m.input += " "
		return m, nil

	case tea.KeyRunes:
		m.input += string(k.Runes)
		return m, nil
	}
	return m, nil
}

// appendEvent turns a loop event into a transcript line, if it is worth showing.
func (m *chatModel) appendEvent(ev agent.Event) {
	switch ev.Type {
	case agent.EventToolStart:
		m.transcript = append(m.transcript, toolStyle.Render(fmt.Sprintf("⚙ %s", ev.Tool)))
	case agent.EventToolEnd:
		if ev.Result != nil && ev.Result.IsError {
			m.transcript = append(m.transcript, toolStyle.Render(fmt.Sprintf("⚙ %s failed", ev.Tool)))
		}
	case agent.EventError:
		if ev.Err != nil {
			m.transcript = append(m.transcript, errStyle.Render("error: "+ev.Err.Error()))
		}
	}
}

func (m chatModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	for _, line := range m.transcript {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.busy {
		b.WriteString(dimStyle.Render("thinking... (Enter to steer, Ctrl+C to interrupt)"))
		b.WriteString("\n")
	}
	b.WriteString(promptStyle.Render("❯ "))
	b.WriteString(m.input)
	return b.String()
}

// markdownRenderer wraps glamour with a small cache keyed by width.
type markdownRenderer struct {
	renderers map[int]*glamour.TermRenderer
}

func newMarkdownRenderer() *markdownRenderer {
	return &markdownRenderer{renderers: make(map[int]*glamour.TermRenderer)}
}

// render styles markdown for the terminal, falling back to raw text on error.
func (r *markdownRenderer) render(md string, width int) string {
	if md == "" {
		return ""
	}
	tr, ok := r.renderers[width]
	if !ok {
		var err error
		tr, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		r.renderers[width] = tr
	}
	out, err := tr.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n ")
}

package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/dialoguecore/cli"
	"github.com/nathoo/dialoguecore/engine"
	"github.com/nathoo/dialoguecore/engine/resolve"
	"github.com/nathoo/dialoguecore/engine/save"
)

// rawLine stores an unstyled output line with its classification, so we
// can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the dialogue TUI.
type Model struct {
	session *engine.Session

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated transcript lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	saveDir  string
}

// stepOutputMsg carries resolved output into the Update loop.
type stepOutputMsg struct {
	input    string   // echoed player input (empty for the opening line)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model running a fresh session on the given engine.
func New(eng *engine.Engine) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	home, _ := os.UserHomeDir()
	return Model{
		session: eng.NewSession(),
		input:   ti,
		history: NewHistory(100),
		saveDir: filepath.Join(home, ".dialoguecore", "saves"),
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine) error {
	m := New(eng)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command producing the intro and opening line.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		def := m.session.Graph().Def()

		var lines []string
		header := def.Title
		if def.Version != "" {
			header += " v" + def.Version
		}
		if def.Author != "" {
			header += " by " + def.Author
		}
		lines = append(lines, header, "")

		if def.Intro != "" {
			lines = append(lines, def.Intro, "")
		}

		res, err := m.session.Step("")
		if err != nil {
			lines = append(lines, fmt.Sprintf("Resolution failed: %v", err))
		} else if res.Text != "" {
			lines = append(lines, res.Text)
		}

		return stepOutputMsg{lines: lines}
	}
}

// Update handles messages (key presses, window resize, step output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case stepOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(stepOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// Input signal: advance the dialogue one node.
	res, err := m.session.Step(input)
	var output []string
	if err != nil {
		output = append(output, fmt.Sprintf("Resolution failed: %v", err))
	} else {
		if res.Text != "" {
			output = append(output, res.Text)
		}
		if m.trace {
			output = append(output, formatTrace(res)...)
		}
	}
	m = m.appendOutput(stepOutputMsg{input: input, lines: output})
	return m, nil
}

// appendOutput adds lines to the transcript and refreshes the viewport.
func (m Model) appendOutput(msg stepOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current
// width and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	args := parts[1:]
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/set":
		return m.cmdSet(args), false

	case "/goto":
		return m.cmdGoto(arg), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(m.session)
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	path := filepath.Join(m.saveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	return []string{fmt.Sprintf("Session saved to %s.", name)}
}

func (m *Model) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(m.saveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	sd, err := save.Load(data)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	if err := save.Apply(m.session, sd); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	return []string{fmt.Sprintf("Session loaded from %s (turn %d, node %s).", name, sd.Turns, sd.Current)}
}

func (m *Model) cmdSet(args []string) []string {
	if len(args) != 2 {
		return []string{"Usage: /set <key> <value>"}
	}
	key, val := args[0], cli.ParseValue(args[1])
	m.session.Store.Set(key, val)
	if val.IsAbsent() {
		return []string{fmt.Sprintf("Cleared %s.", key)}
	}
	return []string{fmt.Sprintf("Set %s = %s.", key, val)}
}

func (m *Model) cmdGoto(nodeID string) []string {
	if nodeID == "" {
		return []string{"Usage: /goto <node-id>"}
	}
	if err := m.session.Goto(nodeID); err != nil {
		return []string{fmt.Sprintf("Goto failed: %v", err)}
	}
	return []string{fmt.Sprintf("Moved to node %s.", nodeID)}
}

func (m *Model) cmdHelp() []string {
	return []string{
		"System:",
		"  /save [name]     — Save session (default: quicksave)",
		"  /load [name]     — Load session (default: quicksave)",
		"  /quit            — Exit",
		"  /help            — Show this help",
		"  /state           — Dump current node and facts",
		"  /set <key> <val> — Write a world-state fact",
		"  /goto <node>     — Jump to a dialogue node",
		"  /trace           — Toggle resolution trace output",
		"",
		"Anything else is sent as an input signal and advances the dialogue.",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for input history",
	}
}

func (m *Model) cmdState() []string {
	snap := m.session.Store.Snapshot()
	output := []string{
		fmt.Sprintf("Turn: %d", m.session.Turns),
		fmt.Sprintf("Node: %s", m.session.Current),
	}
	keys := snap.Keys()
	if len(keys) == 0 {
		return append(output, "Facts: (none)")
	}
	for _, k := range keys {
		output = append(output, fmt.Sprintf("  %s = %s", k, snap.Get(k)))
	}
	return output
}

func formatTrace(res resolve.Resolution) []string {
	lines := []string{fmt.Sprintf("[trace] %s → rule %q → %s", res.NodeID, res.RuleID, res.Next)}
	for _, rec := range res.Applied {
		lines = append(lines, fmt.Sprintf("[trace]   %s: %s → %s", rec.Key, rec.Old, rec.New))
	}
	return lines
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled (those
// drive input history instead).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}

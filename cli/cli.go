// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for dialogue sessions.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nathoo/dialoguecore/engine"
	"github.com/nathoo/dialoguecore/engine/resolve"
	"github.com/nathoo/dialoguecore/engine/save"
	"github.com/nathoo/dialoguecore/types"
)

// CLI handles terminal interaction with one dialogue session.
type CLI struct {
	Session   *engine.Session
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI wired to a fresh session on the given engine.
func New(eng *engine.Engine) *CLI {
	home, _ := os.UserHomeDir()
	saveDir := filepath.Join(home, ".dialoguecore", "saves")
	return &CLI{
		Session: eng.NewSession(),
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: saveDir,
	}
}

// Run starts the conversation loop. It shows the intro and the opening
// line, then loops: prompt → input → dispatch → output. Each non-meta
// input line is recorded as a signal and advances the session one node.
func (c *CLI) Run() {
	def := c.Session.Graph().Def()
	if def.Intro != "" {
		c.printLine(def.Intro)
		c.printLine("")
	}

	res, err := c.Session.Step("")
	c.printStep(res, err)

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		res, err := c.Session.Step(input)
		c.printStep(res, err)
	}
}

// handleMeta dispatches meta-commands. Returns true if the session should
// end.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	args := parts[1:]
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/goto":
		c.cmdGoto(arg)

	case "/set":
		c.cmdSet(args)

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(c.Session)
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Session saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	sd, err := save.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	if err := save.Apply(c.Session, sd); err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Session loaded from %s (turn %d, node %s).", name, sd.Turns, sd.Current))
}

func (c *CLI) cmdGoto(nodeID string) {
	if nodeID == "" {
		c.printSystem("Usage: /goto <node-id>")
		return
	}
	if err := c.Session.Goto(nodeID); err != nil {
		c.printSystem(fmt.Sprintf("Goto failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Moved to node %s.", nodeID))
}

// cmdSet writes a fact directly, so conversations can be driven from the
// REPL without a host game. "/set key absent" deletes the fact.
func (c *CLI) cmdSet(args []string) {
	if len(args) != 2 {
		c.printSystem("Usage: /set <key> <value>")
		return
	}
	key, val := args[0], ParseValue(args[1])
	c.Session.Store.Set(key, val)
	if val.IsAbsent() {
		c.printSystem(fmt.Sprintf("Cleared %s.", key))
	} else {
		c.printSystem(fmt.Sprintf("Set %s = %s.", key, val))
	}
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]     — Save session (default: quicksave)",
		"  /load [name]     — Load session (default: quicksave)",
		"  /quit            — Exit",
		"  /help            — Show this help",
		"  /state           — Dump current node and facts",
		"  /set <key> <val> — Write a world-state fact (val: true/false, number, text, absent)",
		"  /goto <node>     — Jump to a dialogue node",
		"  /trace           — Toggle resolution trace output",
		"",
		"Anything else is sent as an input signal and advances the dialogue.",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	snap := c.Session.Store.Snapshot()
	c.printSystem(fmt.Sprintf("Turn: %d", c.Session.Turns))
	c.printSystem(fmt.Sprintf("Node: %s", c.Session.Current))
	keys := snap.Keys()
	if len(keys) == 0 {
		c.printSystem("Facts: (none)")
		return
	}
	for _, k := range keys {
		c.printSystem(fmt.Sprintf("  %s = %s", k, snap.Get(k)))
	}
}

func (c *CLI) printStep(res resolve.Resolution, err error) {
	if err != nil {
		c.printSystem(fmt.Sprintf("Resolution failed: %v", err))
		return
	}
	if res.Text != "" {
		c.printLine(res.Text)
	}
	if c.Trace {
		c.printTrace(res)
	}
}

func (c *CLI) printTrace(res resolve.Resolution) {
	c.printSystem(fmt.Sprintf("[trace] %s → rule %q → %s", res.NodeID, res.RuleID, res.Next))
	for _, m := range res.Applied {
		c.printSystem(fmt.Sprintf("[trace]   %s: %s → %s", m.Key, m.Old, m.New))
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}

// ParseValue interprets a REPL token as a typed fact value: true/false,
// integer, float, the word "absent", or plain text.
func ParseValue(s string) types.Value {
	switch s {
	case "true":
		return types.Bool(true)
	case "false":
		return types.Bool(false)
	case "absent":
		return types.Absent()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return types.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return types.Float(f)
	}
	return types.String(s)
}

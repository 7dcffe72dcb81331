package layout

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/Luismorlan/pow_ledger/commands"
	"github.com/jroimartin/gocui"
	"github.com/pterm/pterm"
)

const (
	InputView   = "input"
	LoggerView  = "logger"
	PastCmdView = "pastcommand"
	ManualView  = "manual"
)

type cmd struct {
	str   string
	ready bool
	m     sync.RWMutex
}

var command cmd = cmd{}

// Record an entered line, and the parse error if any, for the past command view.
func setPastCommand(s string, err error) {
	command.m.Lock()
	defer command.m.Unlock()
	command.str = s
	if err != nil {
		command.str = s + "\n" + err.Error()
	}
	command.ready = true
}

// PastCmd is the ViewManager that logs past command.
type PastCmd struct {
	name string
}

// Input box for command.
type FullNodeInput struct {
	name string
	cmd  chan commands.Command
}

type ClientInput struct {
	name string
	cmd  chan commands.ClientCommand
}

type Logger struct {
	name string
}

type Manual struct {
	name string
	path string
}

func (pc *PastCmd) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Bottom left corner.
	v, err := g.SetView(pc.name, 1, maxY*2/3, maxX/3, maxY-6)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Autoscroll = true
	v.Wrap = true

	command.m.Lock()
	defer command.m.Unlock()
	if command.ready {
		fmt.Fprintln(v, "> "+command.str)
	}
	command.ready = false

	return nil
}

func (i *FullNodeInput) Layout(g *gocui.Gui) error {
	return inputLayout(g, i.name, i)
}

func (c *ClientInput) Layout(g *gocui.Gui) error {
	return inputLayout(g, c.name, c)
}

func inputLayout(g *gocui.Gui, name string, editor gocui.Editor) error {
	maxX, maxY := g.Size()
	// Bottom left.
	v, err := g.SetView(name, 1, maxY-5, maxX-1, maxY-1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Wrap = true
	v.Autoscroll = true
	v.Editor = editor
	v.Editable = true
	return nil
}

func (l *Logger) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Right side.
	v, err := g.SetView(l.name, maxX/3+1, 1, maxX-1, maxY-6)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Autoscroll = true
	v.Wrap = true
	return nil
}

func (m *Manual) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Top left corner.
	v, err := g.SetView(m.name, 1, 1, maxX/3, maxY*2/3-1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Autoscroll = true
	v.Wrap = true
	v.Clear()
	dat, err := os.ReadFile(m.path)
	if err != nil {
		fmt.Fprintln(v, "manual not found at "+m.path)
		return nil
	}
	fmt.Fprintln(v, string(dat))
	return nil
}

// Read the entered line out of the input view and reset it.
func readLine(v *gocui.View) string {
	s := v.Buffer()
	// Remove \n from string.
	s = strings.Replace(s, "\n", "", -1)
	v.Clear()
	v.SetOrigin(0, 0)
	v.SetCursor(0, 0)
	return s
}

func edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	switch {
	case ch != 0 && mod == 0:
		v.EditWrite(ch)
	case key == gocui.KeySpace:
		v.EditWrite(' ')
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		v.EditDelete(true)
	}
}

func (i *FullNodeInput) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	if key != gocui.KeyEnter {
		edit(v, key, ch, mod)
		return
	}
	s := readLine(v)
	op, err := commands.CreateCommand(s)
	setPastCommand(s, err)
	if err == nil {
		// If a valid command, send to fullnode for processing without blocking the GUI.
		go func() { i.cmd <- op }()
	}
}

func (c *ClientInput) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	if key != gocui.KeyEnter {
		edit(v, key, ch, mod)
		return
	}
	s := readLine(v)
	op, err := commands.CreateClientCommand(s)
	setPastCommand(s, err)
	if err == nil {
		go func() { c.cmd <- op }()
	}
}

func SetFocus(name string) func(g *gocui.Gui) error {
	return func(g *gocui.Gui) error {
		_, err := g.SetCurrentView(name)
		return err
	}
}

// ViewWriter writes into a view of a running GUI. Writes are applied on the GUI's
// goroutine, so it is safe to hand to a logger used from anywhere.
type ViewWriter struct {
	g    *gocui.Gui
	name string
}

func NewViewWriter(g *gocui.Gui, name string) *ViewWriter {
	return &ViewWriter{g: g, name: name}
}

func (w *ViewWriter) Write(p []byte) (int, error) {
	s := string(p)
	w.g.Update(func(g *gocui.Gui) error {
		v, err := g.View(w.name)
		if err != nil {
			// The view does not exist before the first layout pass.
			return nil
		}
		fmt.Fprint(v, s)
		return nil
	})
	return len(p), nil
}

// Create a GUI, using the command channel to pass command to fullnode or client.
func CreateGui(cmd interface{}, manualPath string) (*gocui.Gui, error) {
	var input gocui.Manager
	switch c := cmd.(type) {
	case chan commands.Command:
		input = &FullNodeInput{name: InputView, cmd: c}
	case chan commands.ClientCommand:
		input = &ClientInput{name: InputView, cmd: c}
	default:
		return nil, fmt.Errorf("invalid command channel %T", cmd)
	}

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}

	g.Cursor = true

	pc := &PastCmd{name: PastCmdView}
	l := &Logger{name: LoggerView}
	m := &Manual{name: ManualView, path: manualPath}
	focus := gocui.ManagerFunc(SetFocus(InputView))
	g.SetManager(pc, input, l, m, focus)

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		log.Panicln(err)
	}

	return g, err
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

// NewLogger returns a structured logger printing through pterm. With a GUI the lines go
// to its logger view, uncolored since views do not render escape codes.
func NewLogger(g *gocui.Gui, verbose bool) *slog.Logger {
	logger := pterm.DefaultLogger
	if verbose {
		logger = *logger.WithLevel(pterm.LogLevelDebug)
	}
	if g != nil {
		pterm.DisableColor()
		logger = *logger.WithWriter(NewViewWriter(g, LoggerView))
	}
	return slog.New(pterm.NewSlogHandler(&logger))
}

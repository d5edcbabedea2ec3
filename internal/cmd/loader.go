package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/adminctl/internal/api"
)

// loader prints the label of each started call, standing in for a spinner.
type loader struct {
	mu      sync.Mutex
	w       io.Writer
	noColor bool
	style   lipgloss.Style
}

func newLoader(w io.Writer, noColor bool) *loader {
	return &loader{
		w:       w,
		noColor: noColor,
		style:   lipgloss.NewStyle().Faint(true),
	}
}

// OnEvent implements api.Listener.
func (l *loader) OnEvent(e api.Event) {
	if e.Type != api.EventStarted || e.Label == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line := e.Label
	if !l.noColor {
		line = l.style.Render(line)
	}
	fmt.Fprintln(l.w, line)
}

package unit

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/creator/pkg"
)

var (
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleCommand = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// message prints text from unit u to the standard output of the workspace.
func (w *Workspace) message(u *Unit, style lipgloss.Style, text string) {
	id := ""
	if u != nil {
		id = u.id
	}

	fmt.Fprintln(w.cfg.stdout, style.Render(fmt.Sprintf("%s: [%s] %s", pkg.Name, id, text)))
}

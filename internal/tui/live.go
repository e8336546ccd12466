package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/glushko-lab/combeq/internal/equilibrium"
)

const historyCapacity = 200

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(18)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

// IterationMsg carries one outer-loop progress event into the view.
type IterationMsg equilibrium.Iteration

// DoneMsg signals the end of the solve.
type DoneMsg struct {
	Result *equilibrium.Result
	Err    error
}

// Live renders outer-loop progress while a solve runs: the trial
// temperature, the energy residual and its history as a terminal plot.
type Live struct {
	last      equilibrium.Iteration
	residuals []float64
	done      bool
	err       error
	result    *equilibrium.Result
	quit      bool
}

func NewLive() Live {
	return Live{residuals: make([]float64, 0, historyCapacity)}
}

func (m Live) Init() tea.Cmd { return nil }

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}
	case IterationMsg:
		m.last = equilibrium.Iteration(msg)
		m.residuals = append(m.residuals, msg.Residual)
		if len(m.residuals) > historyCapacity {
			m.residuals = m.residuals[1:]
		}
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Live) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("equilibrium solve") + "\n")

	b.WriteString(labelStyle.Render("iteration") + valueStyle.Render(fmt.Sprintf("%d", m.last.Index)) + "\n")
	b.WriteString(labelStyle.Render("trial T") + valueStyle.Render(fmt.Sprintf("%.2f K", m.last.Temperature)) + "\n")
	b.WriteString(labelStyle.Render("residual") + valueStyle.Render(fmt.Sprintf("%.4g J", m.last.Residual)) + "\n")
	b.WriteString(labelStyle.Render("valid species") + valueStyle.Render(fmt.Sprintf("%d", m.last.Species)) + "\n")

	if len(m.residuals) >= 2 {
		plot := make([]float64, len(m.residuals))
		for i, r := range m.residuals {
			// Signed log compresses the early bracket probes, which can be
			// orders of magnitude off, without losing the sign change.
			plot[i] = math.Copysign(math.Log10(1+math.Abs(r)), r)
		}
		graph := asciigraph.Plot(plot,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption("signed log10 energy residual"),
		)
		b.WriteString(graphStyle.Render(graph) + "\n")
	}

	switch {
	case m.done && m.err != nil:
		b.WriteString(errStyle.Render("solve failed: "+m.err.Error()) + "\n")
	case m.done:
		b.WriteString(okStyle.Render(fmt.Sprintf("converged: T = %.2f K", m.result.Temperature)) + "\n")
	default:
		b.WriteString(helpStyle.Render("q: abort") + "\n")
	}
	return b.String()
}

// Aborted reports whether the user quit before the solve finished.
func (m Live) Aborted() bool { return m.quit && !m.done }

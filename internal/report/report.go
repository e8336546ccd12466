package report

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/glushko-lab/combeq/internal/equilibrium"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(28)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	traceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)
)

func row(label, format string, args ...any) string {
	return labelStyle.Render(label) + valueStyle.Render(fmt.Sprintf(format, args...)) + "\n"
}

// Render formats a solved equilibrium state for the console.
func Render(res *equilibrium.Result) string {
	props := res.Properties

	var state strings.Builder
	state.WriteString(headerStyle.Render("equilibrium state") + "\n\n")
	state.WriteString(row("temperature", "%.2f K", res.Temperature))
	state.WriteString(row("pressure", "%.0f Pa", props.Pressure))
	state.WriteString(row("energy residual", "%.4g J", res.Residual))
	state.WriteString(row("outer iterations", "%d", res.Iterations))

	var system strings.Builder
	system.WriteString(headerStyle.Render("system properties") + "\n\n")
	system.WriteString(row("total moles", "%.6f mol", props.TotalMoles))
	system.WriteString(row("gas moles", "%.6f mol", props.GasMoles))
	system.WriteString(row("condensed moles", "%.6f mol", props.CondensedMoles))
	system.WriteString(row("enthalpy", "%.6g J", props.Enthalpy))
	system.WriteString(row("entropy", "%.6g J/K", props.Entropy))
	system.WriteString(row("Gibbs energy", "%.6g J", props.Gibbs))
	system.WriteString(row("heat capacity", "%.6g J/K", props.HeatCapacity))
	system.WriteString(row("condensed mass fraction", "%.6f", props.CondensedMassFraction))
	system.WriteString(row("gas mean molar mass", "%.6f kg/mol", props.GasMeanMolarMass))
	system.WriteString(row("specific gas constant", "%.2f J/(kg·K)", props.SpecificGasConstant))
	system.WriteString(row("specific heat capacity", "%.2f J/(kg·K)", props.SpecificHeatCapacity))
	system.WriteString(row("heat capacity ratio", "%.4f", props.HeatCapacityRatio))
	system.WriteString(row("volumetric heat capacity", "%.2f J/(kg·K)", props.VolumetricHeatCapacity))

	return panelStyle.Render(strings.TrimRight(state.String(), "\n")) + "\n" +
		panelStyle.Render(strings.TrimRight(system.String(), "\n")) + "\n" +
		Composition(res)
}

// Composition renders the per-species mole table. Near-zero entries are
// printed as the solver left them, not dropped.
func Composition(res *equilibrium.Result) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("combustion products") + "\n")

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FORMULA\tPHASE\tMOLES\tMOLE FRACTION")

	total := 0.0
	for _, n := range res.Moles {
		total += n
	}
	for i, sp := range res.Species {
		frac := 0.0
		if total > 0 {
			frac = res.Moles[i] / total
		}
		fmt.Fprintf(w, "%s\t%s\t%.6e\t%.6f\n", sp.Formula, sp.Phase, res.Moles[i], frac)
	}
	w.Flush()
	return b.String()
}

// Iteration formats one outer-loop progress line.
func Iteration(it equilibrium.Iteration) string {
	return traceStyle.Render(fmt.Sprintf("  [%3d] T = %9.2f K  r = %12.4g J  (%d species)",
		it.Index, it.Temperature, it.Residual, it.Species))
}

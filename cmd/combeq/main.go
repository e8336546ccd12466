package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/glushko-lab/combeq/internal/config"
	"github.com/glushko-lab/combeq/internal/equilibrium"
	"github.com/glushko-lab/combeq/internal/report"
	"github.com/glushko-lab/combeq/internal/storage"
	"github.com/glushko-lab/combeq/internal/thermo"
	"github.com/glushko-lab/combeq/internal/tui"
)

var (
	dataDir        string
	propellantFile string
	productsFile   string
	pressure       float64
	configFile     string
	preset         string
	outputJSON     string
	live           bool
	save           bool
	verbose        bool
	scanPoints     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "combeq",
		Short: "adiabatic combustion equilibrium solver",
		Long: "combeq computes the adiabatic flame temperature and equilibrium product\n" +
			"composition of a propellant by Gibbs free energy minimization, using the\n" +
			"Glushko thermodynamic tables.",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".combeq", "data directory")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve the equilibrium state",
		RunE:  runSolve,
	}
	solveCmd.Flags().StringVar(&propellantFile, "propellant", "", "propellant JSON file")
	solveCmd.Flags().StringVar(&productsFile, "products", "", "candidate combustion products JSON file")
	solveCmd.Flags().Float64Var(&pressure, "pressure", 0, "chamber pressure in Pa")
	solveCmd.Flags().StringVar(&configFile, "config", "", "solver config file (yaml)")
	solveCmd.Flags().StringVar(&preset, "preset", "", "solver tolerance preset")
	solveCmd.Flags().StringVar(&outputJSON, "output-json", "", "write the result document to this path")
	solveCmd.Flags().BoolVar(&live, "live", false, "show live solver progress")
	solveCmd.Flags().BoolVar(&save, "save", false, "persist the run under the data directory")
	solveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print each outer iteration")
	solveCmd.MarkFlagRequired("propellant")
	solveCmd.MarkFlagRequired("products")
	solveCmd.MarkFlagRequired("pressure")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "plot the energy residual across the temperature range",
		RunE:  runScan,
	}
	scanCmd.Flags().StringVar(&propellantFile, "propellant", "", "propellant JSON file")
	scanCmd.Flags().StringVar(&productsFile, "products", "", "candidate combustion products JSON file")
	scanCmd.Flags().Float64Var(&pressure, "pressure", 0, "chamber pressure in Pa")
	scanCmd.Flags().StringVar(&configFile, "config", "", "solver config file (yaml)")
	scanCmd.Flags().IntVar(&scanPoints, "points", 40, "number of trial temperatures")
	scanCmd.MarkFlagRequired("propellant")
	scanCmd.MarkFlagRequired("products")
	scanCmd.MarkFlagRequired("pressure")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored result document",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list solver tolerance presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(solveCmd, scanCmd, listCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps the solver's failure kinds to distinct exit statuses so
// scripts can tell a bad input from a non-converging solve.
func exitCode(err error) int {
	switch {
	case errors.Is(err, equilibrium.ErrInvalidInput):
		return 2
	case errors.Is(err, equilibrium.ErrInfeasibleMassBalance):
		return 3
	case errors.Is(err, equilibrium.ErrInnerConvergence):
		return 4
	case errors.Is(err, equilibrium.ErrOuterConvergence):
		return 5
	case errors.Is(err, thermo.ErrTemperatureOutOfRange):
		return 6
	}
	return 1
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	return cfg, nil
}

func loadInputs() (equilibrium.Propellant, []*thermo.Species, error) {
	p, err := storage.LoadPropellant(propellantFile)
	if err != nil {
		return equilibrium.Propellant{}, nil, err
	}
	species, err := storage.LoadSpecies(productsFile)
	if err != nil {
		return equilibrium.Propellant{}, nil, err
	}
	return p, species, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, species, err := loadInputs()
	if err != nil {
		return err
	}
	fmt.Printf("loaded %d candidate species\n", len(species))

	var res *equilibrium.Result
	start := time.Now()
	if live {
		res, err = solveLive(p, species, cfg)
	} else {
		var obs equilibrium.Observer
		if verbose {
			obs = equilibrium.ObserverFunc(func(it equilibrium.Iteration) {
				fmt.Println(report.Iteration(it))
			})
		}
		var solver *equilibrium.Solver
		solver, err = equilibrium.New(p, species, pressure, cfg.SolverOptions(), obs)
		if err != nil {
			return err
		}
		res, err = solver.Solve()
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("solved in %v\n\n", elapsed)
	fmt.Print(report.Render(res))

	doc, err := storage.NewResultDocument(p, res)
	if err != nil {
		return err
	}
	if outputJSON != "" {
		if err := storage.WriteResult(outputJSON, doc); err != nil {
			return err
		}
		fmt.Printf("\nresult written to %s\n", outputJSON)
	}
	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(res, doc)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func solveLive(p equilibrium.Propellant, species []*thermo.Species, cfg *config.Config) (*equilibrium.Result, error) {
	prog := tea.NewProgram(tui.NewLive())

	obs := equilibrium.ObserverFunc(func(it equilibrium.Iteration) {
		prog.Send(tui.IterationMsg(it))
	})
	solver, err := equilibrium.New(p, species, pressure, cfg.SolverOptions(), obs)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		res *equilibrium.Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := solver.Solve()
		ch <- outcome{res, err}
		prog.Send(tui.DoneMsg{Result: res, Err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		return nil, err
	}
	if m, ok := final.(tui.Live); ok && m.Aborted() {
		return nil, fmt.Errorf("solve aborted")
	}
	out := <-ch
	return out.res, out.err
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, species, err := loadInputs()
	if err != nil {
		return err
	}
	if pressure <= 0 {
		return fmt.Errorf("%w: pressure must be positive, got %g Pa", equilibrium.ErrInvalidInput, pressure)
	}

	candidates := equilibrium.FilterByElements(species, p)
	if len(candidates) == 0 {
		return fmt.Errorf("%w: no candidate species is composed of propellant elements", equilibrium.ErrInfeasibleMassBalance)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, sp := range candidates {
		lo = math.Min(lo, sp.Range.Min)
		hi = math.Max(hi, sp.Range.Max)
	}
	lo += cfg.Outer.BracketMargin
	hi -= cfg.Outer.BracketMargin

	if scanPoints < 2 {
		scanPoints = 2
	}
	residuals := make([]float64, scanPoints)
	failures := 0
	var seed []float64
	for i := 0; i < scanPoints; i++ {
		T := lo + (hi-lo)*float64(i)/float64(scanPoints-1)
		r, moles, err := residualAt(p, candidates, T, seed, cfg)
		if err != nil {
			// Plot gaps where the inner solve fails; the curve is still
			// useful for judging whether a root exists.
			residuals[i] = math.NaN()
			failures++
			continue
		}
		seed = moles
		residuals[i] = r
	}

	fmt.Printf("energy residual over [%.1f, %.1f] K, %d points (%d failed)\n\n", lo, hi, scanPoints, failures)
	graph := asciigraph.Plot(residuals,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("H_sys(T, n*(T)) - H_propellant  [J]"),
	)
	fmt.Println(graph)
	return nil
}

// residualAt runs one inner composition solve and returns the energy-balance
// residual at T.
func residualAt(p equilibrium.Propellant, candidates []*thermo.Species, T float64, seed []float64, cfg *config.Config) (float64, []float64, error) {
	valid := equilibrium.FilterByTemperature(candidates, T)
	if len(valid) == 0 {
		return 0, nil, fmt.Errorf("%w: no species valid at %.2f K", thermo.ErrTemperatureOutOfRange, T)
	}
	bal, err := equilibrium.NewBalanceSystem(p, valid)
	if err != nil {
		return 0, nil, err
	}
	mix, err := thermo.NewMixture(valid, pressure)
	if err != nil {
		return 0, nil, err
	}
	if len(seed) != len(valid) {
		seed = nil
	}
	moles, err := equilibrium.SolveComposition(mix, bal, T, seed, cfg.SolverOptions().Inner)
	if err != nil {
		return 0, nil, err
	}
	h, err := mix.Enthalpy(T, moles)
	if err != nil {
		return 0, nil, err
	}
	return h - p.Enthalpy, moles, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tPRESSURE\tTEMPERATURE\tRESIDUAL\tSPECIES\tITER")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.0f Pa\t%.2f K\t%.4g J\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Pressure,
			run.Temperature,
			run.Residual,
			run.Species,
			run.Iterations,
		)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	doc, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	return storage.EncodeResult(os.Stdout, doc)
}

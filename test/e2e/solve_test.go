package e2e

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/glushko-lab/combeq/internal/config"
	"github.com/glushko-lab/combeq/internal/equilibrium"
	"github.com/glushko-lab/combeq/internal/storage"
	"github.com/glushko-lab/combeq/internal/thermo"
)

const pressure = 101325.0

// Candidate products file with a real monatomic-oxygen fit and synthetic
// but plausibly-shaped companions, all valid 1000-5000 K.
const productsJSON = `[
	{
		"formula": "O",
		"coefficients": [45.168916, 58008.607, 5353.7423, -412.44632, 246.19247, -86.140481, 17.415382, -1.8288189, 0.077299666],
		"phase": "gas",
		"temperature_range": {"min": 1000, "max": 5000}
	},
	{
		"formula": "H2O",
		"coefficients": [55, -55000, 7000, 300, -20, 0, 0, 0, 0],
		"phase": "gas",
		"temperature_range": {"min": 1000, "max": 5000}
	},
	{
		"formula": "H2",
		"coefficients": [34, -9000, 6600, 500, -30, 0, 0, 0, 0],
		"phase": "gas",
		"temperature_range": {"min": 1000, "max": 5000}
	},
	{
		"formula": "O2",
		"coefficients": [49, -10000, 7500, 400, -25, 0, 0, 0, 0],
		"phase": "gas",
		"temperature_range": {"min": 1000, "max": 5000}
	}
]`

func writeInput(dir, name, content string) string {
	path := filepath.Join(dir, name)
	ExpectWithOffset(1, os.WriteFile(path, []byte(content), 0644)).To(Succeed())
	return path
}

func solve(p equilibrium.Propellant, species []*thermo.Species) (*equilibrium.Result, error) {
	solver, err := equilibrium.New(p, species, pressure, config.DefaultConfig().SolverOptions(), nil)
	if err != nil {
		return nil, err
	}
	return solver.Solve()
}

var _ = Describe("equilibrium solve", func() {
	var (
		dir     string
		species []*thermo.Species
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		var err error
		species, err = storage.LoadSpecies(writeInput(dir, "products.json", productsJSON))
		Expect(err).NotTo(HaveOccurred())
		Expect(species).To(HaveLen(4))
	})

	It("solves a stoichiometric hydrogen-oxygen propellant end to end", func() {
		// Target enthalpy synthesized at a known temperature so the
		// expected equilibrium state is exact by construction.
		var h2o *thermo.Species
		for _, sp := range species {
			if sp.Formula == "H2O" {
				h2o = sp
			}
		}
		Expect(h2o).NotTo(BeNil())

		const wantT = 2600.0
		props, err := h2o.Eval(wantT)
		Expect(err).NotTo(HaveOccurred())

		propellant := writeInput(dir, "propellant.json", fmt.Sprintf(
			`{"enthalpy": %g, "composition": {"H": 111.0168, "O": 55.5084}}`,
			55.5084*props.Enthalpy,
		))
		p, err := storage.LoadPropellant(propellant)
		Expect(err).NotTo(HaveOccurred())

		// Restrict to the single product so all mass must become water.
		res, err := solve(p, []*thermo.Species{h2o})
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Temperature).To(BeNumerically("~", wantT, 0.1))
		Expect(res.Moles).To(HaveLen(1))
		Expect(res.Moles[0]).To(BeNumerically("~", 55.5084, 1e-3))
		Expect(math.Abs(res.Residual)).To(BeNumerically("<=", config.DefaultEnthalpyTol))
	})

	It("returns a nonnegative convex combination for an O and H2O candidate pair", func() {
		var o, h2o *thermo.Species
		for _, sp := range species {
			switch sp.Formula {
			case "O":
				o = sp
			case "H2O":
				h2o = sp
			}
		}

		pw, err := h2o.Eval(3000.0)
		Expect(err).NotTo(HaveOccurred())
		po, err := o.Eval(3000.0)
		Expect(err).NotTo(HaveOccurred())

		p := equilibrium.Propellant{
			Enthalpy:    10*pw.Enthalpy + 20*po.Enthalpy,
			Composition: map[string]float64{"H": 20, "O": 30},
		}

		res, err := solve(p, []*thermo.Species{o, h2o})
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Temperature).To(BeNumerically("~", 3000.0, 0.1))
		for _, n := range res.Moles {
			Expect(n).To(BeNumerically(">=", 0))
		}

		bal, err := equilibrium.NewBalanceSystem(p, res.Species)
		Expect(err).NotTo(HaveOccurred())
		Expect(bal.Residual(res.Moles, nil)).To(BeNumerically("<=", 1e-6))
	})

	It("rejects a propellant element no candidate can supply", func() {
		p := equilibrium.Propellant{
			Enthalpy:    -1e6,
			Composition: map[string]float64{"H": 10, "O": 5, "Al": 2},
		}
		_, err := equilibrium.New(p, species, pressure, config.DefaultConfig().SolverOptions(), nil)
		Expect(err).To(MatchError(equilibrium.ErrInfeasibleMassBalance))
	})

	It("rejects non-positive pressure before solving", func() {
		p := equilibrium.Propellant{
			Enthalpy:    -1e6,
			Composition: map[string]float64{"H": 10, "O": 5},
		}
		for _, bad := range []float64{0, -1} {
			_, err := equilibrium.New(p, species, bad, config.DefaultConfig().SolverOptions(), nil)
			Expect(err).To(MatchError(equilibrium.ErrInvalidInput))
		}
	})

	It("persists and re-exports the result document", func() {
		var h2o *thermo.Species
		for _, sp := range species {
			if sp.Formula == "H2O" {
				h2o = sp
			}
		}
		props, err := h2o.Eval(2600.0)
		Expect(err).NotTo(HaveOccurred())

		p := equilibrium.Propellant{
			Enthalpy:    55.5084 * props.Enthalpy,
			Composition: map[string]float64{"H": 111.0168, "O": 55.5084},
		}
		res, err := solve(p, []*thermo.Species{h2o})
		Expect(err).NotTo(HaveOccurred())

		doc, err := storage.NewResultDocument(p, res)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Propellant.TotalMassKg).To(BeNumerically("~", 1.0, 1e-3))
		Expect(doc.CombustionProducts).To(HaveLen(1))
		Expect(doc.CombustionProducts[0].Formula).To(Equal("H2O"))

		st := storage.New(filepath.Join(dir, "runs"))
		Expect(st.Init()).To(Succeed())
		runID, err := st.Save(res, doc)
		Expect(err).NotTo(HaveOccurred())

		loaded, err := st.LoadResult(runID)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Temperature).To(BeNumerically("~", res.Temperature, 1e-9))
		Expect(loaded.Pressure).To(Equal(pressure))

		runs, err := st.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].ID).To(Equal(runID))
	})
})

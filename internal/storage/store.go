package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/glushko-lab/combeq/internal/equilibrium"
	"github.com/glushko-lab/combeq/internal/thermo"
)

// propellantRecord mirrors the propellant input file:
//
//	{"enthalpy": -8.23e6, "composition": {"H": 111.0, "O": 55.5}}
//
// Enthalpy is J/kg; composition maps element symbols to moles per kg.
type propellantRecord struct {
	Enthalpy    *float64           `json:"enthalpy"`
	Composition map[string]float64 `json:"composition"`
}

// LoadPropellant reads a propellant record and validates it before any
// solving begins.
func LoadPropellant(path string) (equilibrium.Propellant, error) {
	var p equilibrium.Propellant

	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	var rec propellantRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return p, fmt.Errorf("%w: %s: %v", equilibrium.ErrInvalidInput, path, err)
	}
	if rec.Enthalpy == nil {
		return p, fmt.Errorf("%w: %s: missing required field \"enthalpy\"", equilibrium.ErrInvalidInput, path)
	}
	if len(rec.Composition) == 0 {
		return p, fmt.Errorf("%w: %s: missing required field \"composition\"", equilibrium.ErrInvalidInput, path)
	}

	p = equilibrium.Propellant{Enthalpy: *rec.Enthalpy, Composition: rec.Composition}
	if err := p.Validate(); err != nil {
		return equilibrium.Propellant{}, err
	}
	return p, nil
}

// speciesRecord mirrors one entry of the candidate products file:
//
//	{
//	  "formula": "O",
//	  "coefficients": [45.168916, ...],   // exactly 9
//	  "phase": "gas",
//	  "temperature_range": {"min": 1000, "max": 5000}
//	}
type speciesRecord struct {
	Formula          string    `json:"formula"`
	Coefficients     []float64 `json:"coefficients"`
	Phase            string    `json:"phase"`
	TemperatureRange struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temperature_range"`
}

// LoadSpecies reads a candidate combustion-product list. Record order is
// preserved; it is the canonical column order used by the solver.
func LoadSpecies(path string) ([]*thermo.Species, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []speciesRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", equilibrium.ErrInvalidInput, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: empty species list", equilibrium.ErrInvalidInput, path)
	}

	species := make([]*thermo.Species, 0, len(records))
	for i, rec := range records {
		if rec.Formula == "" {
			return nil, fmt.Errorf("%w: %s: entry %d has no formula", equilibrium.ErrInvalidInput, path, i)
		}
		sp, err := thermo.NewSpecies(rec.Formula, rec.Coefficients, thermo.Phase(rec.Phase), thermo.TemperatureRange{
			Min: rec.TemperatureRange.Min,
			Max: rec.TemperatureRange.Max,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d: %v", equilibrium.ErrInvalidInput, path, i, err)
		}
		species = append(species, sp)
	}
	return species, nil
}

// CombustionProduct is one per-species line of the result document.
type CombustionProduct struct {
	Formula string  `json:"formula"`
	Phase   string  `json:"phase"`
	Moles   float64 `json:"moles"`
}

// PropellantDocument is the pass-through propellant block of the result,
// extended with its computed total mass.
type PropellantDocument struct {
	Enthalpy    float64            `json:"enthalpy"`
	Composition map[string]float64 `json:"composition"`
	TotalMassKg float64            `json:"total_mass_kg"`
}

// ResultDocument is the solve output written to JSON.
type ResultDocument struct {
	Pressure                       float64             `json:"pressure"`
	Temperature                    float64             `json:"temperature"`
	SpecificHeatCapacityVolumetric float64             `json:"specific_heat_capacity_volumetric"`
	GasAverageMolarMass            float64             `json:"gas_average_molar_mass"`
	Propellant                     PropellantDocument  `json:"propellant"`
	CombustionProducts             []CombustionProduct `json:"combustion_products"`
}

// NewResultDocument assembles the output document from a solved state.
func NewResultDocument(p equilibrium.Propellant, res *equilibrium.Result) (*ResultDocument, error) {
	totalMass, err := p.TotalMass()
	if err != nil {
		return nil, err
	}

	products := make([]CombustionProduct, len(res.Species))
	for i, sp := range res.Species {
		products[i] = CombustionProduct{
			Formula: sp.Formula,
			Phase:   string(sp.Phase),
			Moles:   res.Moles[i],
		}
	}

	return &ResultDocument{
		Pressure:                       res.Properties.Pressure,
		Temperature:                    res.Temperature,
		SpecificHeatCapacityVolumetric: res.Properties.VolumetricHeatCapacity,
		GasAverageMolarMass:            res.Properties.GasMeanMolarMass,
		Propellant: PropellantDocument{
			Enthalpy:    p.Enthalpy,
			Composition: p.Composition,
			TotalMassKg: totalMass,
		},
		CombustionProducts: products,
	}, nil
}

// WriteResult writes the document as indented JSON, creating parent
// directories as needed.
func WriteResult(path string, doc *ResultDocument) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeResult(f, doc)
}

// EncodeResult writes the document as indented JSON to w.
func EncodeResult(w io.Writer, doc *ResultDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Store persists solves under a base directory, one subdirectory per run
// holding metadata.json and result.json.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Pressure    float64   `json:"pressure"`
	Temperature float64   `json:"temperature"`
	Residual    float64   `json:"residual"`
	Species     int       `json:"species"`
	Iterations  int       `json:"iterations"`
}

// Save stores one solved run and returns its ID.
func (s *Store) Save(res *equilibrium.Result, doc *ResultDocument) (string, error) {
	runID := fmt.Sprintf("solve_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Timestamp:   time.Now(),
		Pressure:    doc.Pressure,
		Temperature: res.Temperature,
		Residual:    res.Residual,
		Species:     len(res.Species),
		Iterations:  res.Iterations,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := WriteResult(filepath.Join(runDir, "result.json"), doc); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) LoadMetadata(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadResult(runID string) (*ResultDocument, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "result.json"))
	if err != nil {
		return nil, err
	}
	var doc ResultDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

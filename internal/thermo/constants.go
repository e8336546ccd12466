package thermo

// Physical constants used throughout the solver, SI units.
const (
	// GasConstant is the universal gas constant in J/(mol·K).
	GasConstant = 8.31446261815324

	// StandardPressure is the reference pressure for tabulated entropies, Pa.
	StandardPressure = 101325.0

	// CalorieToJoules converts the calorie-based Glushko coefficients to SI.
	CalorieToJoules = 4.184
)

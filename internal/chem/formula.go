package chem

import "fmt"

// ParseFormula breaks a chemical formula written in standard notation into
// element symbols and their atom counts. Multi-letter symbols (Pb, Al, Cl)
// and implicit counts (O == O1) are handled; nested groups are not, the
// Glushko tables do not use them.
func ParseFormula(formula string) (map[string]int, error) {
	if formula == "" {
		return nil, fmt.Errorf("chem: empty formula")
	}

	elements := make(map[string]int)
	i := 0
	for i < len(formula) {
		c := formula[i]
		if c < 'A' || c > 'Z' {
			return nil, fmt.Errorf("chem: invalid character %q at position %d in %q", c, i, formula)
		}

		j := i + 1
		for j < len(formula) && formula[j] >= 'a' && formula[j] <= 'z' {
			j++
		}
		symbol := formula[i:j]

		count := 0
		k := j
		for k < len(formula) && formula[k] >= '0' && formula[k] <= '9' {
			count = count*10 + int(formula[k]-'0')
			k++
		}
		if k == j {
			count = 1
		} else if count == 0 {
			return nil, fmt.Errorf("chem: zero count for element %s in %q", symbol, formula)
		}

		elements[symbol] += count
		i = k
	}

	return elements, nil
}

// MolarMass computes the molar mass in kg/mol of a compound given its
// element counts.
func MolarMass(elements map[string]int) (float64, error) {
	total := 0.0
	for symbol, count := range elements {
		m, ok := ElementMolarMasses[symbol]
		if !ok {
			return 0, fmt.Errorf("chem: unknown element %q", symbol)
		}
		total += m * float64(count)
	}
	return total, nil
}

// FormulaMolarMass parses a formula and returns its molar mass in kg/mol.
func FormulaMolarMass(formula string) (float64, error) {
	elements, err := ParseFormula(formula)
	if err != nil {
		return 0, err
	}
	return MolarMass(elements)
}

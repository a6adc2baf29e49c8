// Package elements provides the periodic-table lookup that supplies isotope
// masses and natural abundances to the isotope calculator.
package elements

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
)

// ErrUnknownElement is returned when a symbol is not in the table.
var ErrUnknownElement = errors.New("unknown element")

// Isotope is one nuclide of an element.
type Isotope struct {
	MassNumber int
	Mass       float64 // Atomic mass in daltons
	Abundance  float64 // Natural relative abundance
}

// Table maps element symbols to their isotopes, ordered by mass number.
type Table struct {
	elements map[string][]Isotope
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{elements: make(map[string][]Isotope)}
}

// Add adds or replaces an element. Isotopes are stored sorted by mass number.
func (t *Table) Add(symbol string, isotopes ...Isotope) {
	iso := append([]Isotope(nil), isotopes...)
	sort.Slice(iso, func(i, j int) bool { return iso[i].MassNumber < iso[j].MassNumber })
	t.elements[symbol] = iso
}

// Symbols returns all element symbols in alphabetical order.
func (t *Table) Symbols() []string {
	syms := make([]string, 0, len(t.elements))
	for sym := range t.elements {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// Isotopes returns the isotopes for a symbol. Plain element symbols return
// the natural isotopes; isotope-specific symbols ("C13", "13C", "[13C]")
// return that single nuclide with abundance 1.
func (t *Table) Isotopes(symbol string) ([]Isotope, error) {
	base, massNumber, err := core.SplitIsotopeSymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownElement, symbol)
	}

	isotopes, ok := t.elements[base]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownElement, base)
	}

	if massNumber == 0 {
		return append([]Isotope(nil), isotopes...), nil
	}

	for _, iso := range isotopes {
		if iso.MassNumber == massNumber {
			iso.Abundance = 1
			return []Isotope{iso}, nil
		}
	}
	return nil, fmt.Errorf("%w: no isotope %d of %s", ErrUnknownElement, massNumber, base)
}

// Monoisotopic returns the most abundant isotope of a symbol.
func (t *Table) Monoisotopic(symbol string) (Isotope, error) {
	isotopes, err := t.Isotopes(symbol)
	if err != nil {
		return Isotope{}, err
	}
	best := isotopes[0]
	for _, iso := range isotopes[1:] {
		if iso.Abundance > best.Abundance {
			best = iso
		}
	}
	return best, nil
}

// MonoisotopicMass computes the mass of a composition using the most
// abundant isotope of every element.
func (t *Table) MonoisotopicMass(comp core.Composition) (float64, error) {
	mass := 0.0
	for _, sym := range comp.Symbols() {
		iso, err := t.Monoisotopic(sym)
		if err != nil {
			return 0, err
		}
		mass += float64(comp[sym]) * iso.Mass
	}
	return mass, nil
}

// LoadFromCSV loads isotopes from a CSV file (format: element,massNumber,mass,abundance).
// Elements present in the file replace any existing entry.
func (t *Table) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	if scanner.Scan() {
		// header line
	}

	loaded := make(map[string][]Isotope)
	var order []string

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 4 {
			return fmt.Errorf("line %d: expected 4 fields (element,massNumber,mass,abundance), got %d", lineNum, len(parts))
		}

		symbol := strings.TrimSpace(parts[0])
		base, massNumber, err := core.SplitIsotopeSymbol(symbol)
		if err != nil || massNumber != 0 {
			return fmt.Errorf("line %d: invalid element symbol '%s'", lineNum, symbol)
		}

		massNumber, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || massNumber <= 0 {
			return fmt.Errorf("line %d: invalid mass number '%s'", lineNum, parts[1])
		}

		mass, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || mass <= 0 {
			return fmt.Errorf("line %d: invalid mass '%s'", lineNum, parts[2])
		}

		abundance, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || abundance < 0 {
			return fmt.Errorf("line %d: invalid abundance '%s'", lineNum, parts[3])
		}

		if _, seen := loaded[base]; !seen {
			order = append(order, base)
		}
		loaded[base] = append(loaded[base], Isotope{MassNumber: massNumber, Mass: mass, Abundance: abundance})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	for _, sym := range order {
		t.Add(sym, loaded[sym]...)
	}
	return nil
}

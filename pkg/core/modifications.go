// Package core provides modification parsing and management
package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Modification represents a peptide modification with position and
// elemental composition delta.
type Modification struct {
	Name     string      // Modification name (e.g., "Carbamidomethyl", "Oxidation")
	Position int         // 0-based position; -1 for N-term
	Delta    Composition // Atoms added (positive) or removed (negative)
}

// ModDatabase stores modification definitions
type ModDatabase struct {
	mods map[string]Composition // name -> composition delta
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]Composition),
	}
}

// LoadFromCSV loads modifications from a CSV file with a header row and
// mod,formula records, e.g. "Label:13C(2),C-2[13C]2". Loaded names replace
// existing entries.
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("error reading CSV: %w", err)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading CSV: %w", err)
		}

		line, _ := cr.FieldPos(0)
		if len(record) < 2 {
			return fmt.Errorf("line %d: expected mod,formula, got %d fields", line, len(record))
		}

		name := strings.TrimSpace(record[0])
		formula := strings.TrimSpace(record[1])
		delta, err := ParseFormula(formula)
		if err != nil {
			return fmt.Errorf("line %d: invalid formula '%s': %w", line, formula, err)
		}
		db.mods[name] = delta
	}
}

// Get returns the composition delta for a modification name
func (db *ModDatabase) Get(name string) (Composition, bool) {
	delta, ok := db.mods[name]
	if !ok {
		return nil, false
	}
	return delta.Clone(), true
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, delta Composition) {
	db.mods[name] = delta.Clone()
}

// Len returns the number of known modifications
func (db *ModDatabase) Len() int {
	return len(db.mods)
}

// ParseModString parses a modification string like "Carbamidomethyl@C2;Oxidation@M8"
// or "HPO3@S4". Names are looked up first, then the part before '@' is
// parsed as a formula. Positions are 1-based and may carry the residue
// letter, which must match the sequence; -1 marks the N-terminus.
func (db *ModDatabase) ParseModString(modStr string, sequence string) ([]Modification, error) {
	var mods []Modification

	for _, part := range strings.Split(modStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, posStr, ok := strings.Cut(part, "@")
		if !ok || strings.Contains(posStr, "@") {
			return nil, fmt.Errorf("invalid modification format '%s', expected 'name@position' or 'formula@position'", part)
		}
		name = strings.TrimSpace(name)

		delta, ok := db.Get(name)
		if !ok {
			var err error
			if delta, err = ParseFormula(name); err != nil {
				return nil, fmt.Errorf("unknown modification '%s'", name)
			}
		}

		position, err := parsePosition(strings.TrimSpace(posStr), sequence)
		if err != nil {
			return nil, fmt.Errorf("invalid position '%s': %w", posStr, err)
		}

		mods = append(mods, Modification{Name: name, Position: position, Delta: delta})
	}

	return mods, nil
}

// parsePosition converts "3", "C3" or "-1" to a 0-based index, or -1 for
// the N-terminus.
func parsePosition(posStr string, sequence string) (int, error) {
	if posStr == "-1" {
		return -1, nil
	}

	digits := strings.TrimLeft(posStr, "ACDEFGHIKLMNPQRSTVWYUO")
	residue := posStr[:len(posStr)-len(digits)]
	if len(residue) > 1 {
		return 0, fmt.Errorf("expected at most one residue letter, got '%s'", residue)
	}

	pos, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("invalid position number: %w", err)
	}
	if pos < 1 {
		return 0, fmt.Errorf("position must be 1-based or -1, got %d", pos)
	}
	if pos > len(sequence) {
		return 0, fmt.Errorf("position %d beyond sequence length %d", pos, len(sequence))
	}
	if residue != "" && !strings.EqualFold(sequence[pos-1:pos], residue) {
		return 0, fmt.Errorf("residue %d is %c, not %s", pos, sequence[pos-1], residue)
	}

	return pos - 1, nil
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()

	// Unimod compositions; labelled reagents carry their heavy isotopes.
	defaults := []struct {
		name    string
		formula string
	}{
		{"Acetyl", "C2H2O"},
		{"Amidated", "HNO-1"},
		{"Biotin", "C10H14N2O2S"},
		{"Carbamidomethyl", "C2H3NO"},
		{"Carbamyl", "CHNO"},
		{"Carboxymethyl", "C2H2O2"},
		{"Deamidated", "H-1N-1O"},
		{"Phospho", "HO3P"},
		{"Dehydrated", "H-2O-1"},
		{"Propionamide", "C3H5NO"},
		{"Glu->pyro-Glu", "H-2O-1"},
		{"Gln->pyro-Glu", "H-3N-1"},
		{"Cation:Na", "H-1Na"},
		{"Methyl", "CH2"},
		{"Oxidation", "O"},
		{"Dimethyl", "C2H4"},
		{"Trimethyl", "C3H6"},
		{"Methylthio", "CH2S"},
		{"Sulfo", "O3S"},
		{"Hex", "C6H10O5"},
		{"HexNAc", "C8H13NO5"},
		{"Propionyl", "C3H4O"},
		{"Guanidinyl", "CH2N2"},
		{"GlyGly", "C4H6N2O2"},
		{"TMT", "C12H20N2O2"},
		{"TMT6plex", "C8[13C]4H20N[15N]O2"},
		{"TMT10plex", "C8[13C]4H20N[15N]O2"},
		{"TMT11plex", "C8[13C]4H20N[15N]O2"},
		{"TMTpro", "C8[13C]7H25N[15N]2O3"},
		{"TMT16plex", "C8[13C]7H25N[15N]2O3"},
		{"iTRAQ4plex", "C4[13C]3H12N[15N]O"},
		{"iTRAQ8plex", "C7[13C]7H24N3[15N]O3"},
		{"Label:13C(6)", "C-6[13C]6"},
		{"Label:13C(6)15N(2)", "C-6[13C]6N-2[15N]2"},
		{"Label:13C(6)15N(4)", "C-6[13C]6N-4[15N]4"},
	}

	for _, d := range defaults {
		delta, err := ParseFormula(d.formula)
		if err != nil {
			panic(fmt.Sprintf("core: bad built-in modification %s: %v", d.name, err))
		}
		db.Add(d.name, delta)
	}

	return db
}

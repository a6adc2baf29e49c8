// Package targets provides a streaming reader for batch target lists.
//
// A target list is a CSV file with a header row. Recognised columns are
// name, formula, sequence, mods and charge, in any order; unknown columns
// are ignored. Each row needs either a formula or a peptide sequence.
// Lines starting with '#' are comments.
//
//	name,formula,sequence,mods,charge
//	caffeine,C8H10N4O2,,,1
//	tmt-peptide,,PEPTIDEK,TMT6plex@-1;TMT6plex@8,2
package targets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
)

// Target is one row of a target list
type Target struct {
	Line     int // 1-based line number in the source
	Name     string
	Formula  string
	Sequence string
	Mods     string // "name@pos;name@pos", 1-based positions, -1 for N-term
	Charge   int    // 0 for neutral masses
}

// Reader provides streaming access to target lists
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
	current *Target
	err     error
}

var knownColumns = []string{"name", "formula", "sequence", "mods", "charge"}

// NewReader creates a new target reader
func NewReader(r io.Reader) *Reader {
	c := csv.NewReader(r)
	c.Comment = '#'
	c.FieldsPerRecord = -1
	c.TrimLeadingSpace = true

	return &Reader{csv: c}
}

// Next advances to the next target. Returns false at end of input or on error.
func (r *Reader) Next() bool {
	r.current = nil
	if r.err != nil {
		return false
	}

	if r.columns == nil {
		if err := r.readHeader(); err != nil {
			if err != io.EOF {
				r.err = err
			}
			return false
		}
	}

	for {
		record, err := r.csv.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			r.err = err
			return false
		}

		line, _ := r.csv.FieldPos(0)
		if isBlank(record) {
			continue
		}

		target, err := r.parseRecord(record, line)
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", line, err)
			return false
		}
		r.current = target
		return true
	}
}

// Target returns the current target
func (r *Reader) Target() *Target {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining target
func (r *Reader) ReadAll() ([]*Target, error) {
	var out []*Target
	for r.Next() {
		out = append(out, r.Target())
	}
	return out, r.Err()
}

func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if err != nil {
		return err
	}

	r.columns = make(map[string]int)
	for i, col := range header {
		r.columns[strings.ToLower(strings.TrimSpace(col))] = i
	}

	_, hasFormula := r.columns["formula"]
	_, hasSequence := r.columns["sequence"]
	if !hasFormula && !hasSequence {
		return fmt.Errorf("header must contain a formula or sequence column, got %v", header)
	}
	return nil
}

func (r *Reader) parseRecord(record []string, line int) (*Target, error) {
	field := func(name string) string {
		i, ok := r.columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	t := &Target{
		Line:     line,
		Name:     field("name"),
		Formula:  field("formula"),
		Sequence: field("sequence"),
		Mods:     field("mods"),
	}

	if s := field("charge"); s != "" {
		charge, err := strconv.Atoi(s)
		if err != nil || charge < 0 {
			return nil, fmt.Errorf("invalid charge '%s'", s)
		}
		t.Charge = charge
	}

	switch {
	case t.Formula == "" && t.Sequence == "":
		return nil, errors.New("row needs a formula or a sequence")
	case t.Formula != "" && t.Sequence != "":
		return nil, errors.New("row has both a formula and a sequence")
	case t.Mods != "" && t.Sequence == "":
		return nil, errors.New("mods require a sequence")
	}

	if t.Name == "" {
		t.Name = t.Formula + t.Sequence
	}
	return t, nil
}

// Composition resolves the target into an elemental composition using
// modDB for modification names.
func (t *Target) Composition(modDB *core.ModDatabase) (core.Composition, []core.Modification, error) {
	if t.Formula != "" {
		comp, err := core.ParseFormula(t.Formula)
		if err != nil {
			return nil, nil, err
		}
		return comp, nil, nil
	}

	mods, err := modDB.ParseModString(t.Mods, t.Sequence)
	if err != nil {
		return nil, nil, err
	}
	comp, err := core.PeptideComposition(t.Sequence, mods)
	if err != nil {
		return nil, nil, err
	}
	return comp, mods, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

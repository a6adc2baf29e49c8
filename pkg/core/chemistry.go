// Package core provides elemental compositions, formula parsing and the
// spectrum types shared by the isotope calculator and its front ends.
package core

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Proton mass for charge calculations
const ProtonMass = 1.00727646688

// ErrInvalidFormula is returned when a chemical formula cannot be parsed.
var ErrInvalidFormula = errors.New("invalid formula")

// Composition maps element symbols to atom counts. Isotope-specific symbols
// use the element followed by the mass number, e.g. "C13" for carbon-13.
type Composition map[string]int

// residueCompositions maps amino acid one-letter codes to residue composition
var residueCompositions = map[rune]Composition{
	'A': {"C": 3, "H": 5, "N": 1, "O": 1},
	'R': {"C": 6, "H": 12, "N": 4, "O": 1},
	'N': {"C": 4, "H": 6, "N": 2, "O": 2},
	'D': {"C": 4, "H": 5, "N": 1, "O": 3},
	'C': {"C": 3, "H": 5, "N": 1, "O": 1, "S": 1},
	'E': {"C": 5, "H": 7, "N": 1, "O": 3},
	'Q': {"C": 5, "H": 8, "N": 2, "O": 2},
	'G': {"C": 2, "H": 3, "N": 1, "O": 1},
	'H': {"C": 6, "H": 7, "N": 3, "O": 1},
	'I': {"C": 6, "H": 11, "N": 1, "O": 1},
	'L': {"C": 6, "H": 11, "N": 1, "O": 1},
	'K': {"C": 6, "H": 12, "N": 2, "O": 1},
	'M': {"C": 5, "H": 9, "N": 1, "O": 1, "S": 1},
	'F': {"C": 9, "H": 9, "N": 1, "O": 1},
	'P': {"C": 5, "H": 7, "N": 1, "O": 1},
	'S': {"C": 3, "H": 5, "N": 1, "O": 2},
	'T': {"C": 4, "H": 7, "N": 1, "O": 2},
	'W': {"C": 11, "H": 10, "N": 2, "O": 1},
	'Y': {"C": 9, "H": 9, "N": 1, "O": 2},
	'V': {"C": 5, "H": 9, "N": 1, "O": 1},
	'U': {"C": 3, "H": 5, "N": 1, "O": 1, "Se": 1},
	'O': {"C": 12, "H": 19, "N": 3, "O": 2},
}

var water = Composition{"H": 2, "O": 1}

// PeptideComposition computes the elemental composition of a peptide
// sequence, including terminal water and modification deltas.
func PeptideComposition(sequence string, modifications []Modification) (Composition, error) {
	if sequence == "" {
		return nil, fmt.Errorf("empty peptide sequence")
	}

	comp := water.Clone()
	for i, aa := range sequence {
		residue, ok := residueCompositions[unicode.ToUpper(aa)]
		if !ok {
			return nil, fmt.Errorf("unknown amino acid '%c' at position %d", aa, i+1)
		}
		comp.Add(residue, 1)
	}

	for _, mod := range modifications {
		comp.Add(mod.Delta, 1)
	}

	return comp, nil
}

// Clone returns an independent copy of the composition.
func (c Composition) Clone() Composition {
	out := make(Composition, len(c))
	for sym, n := range c {
		out[sym] = n
	}
	return out
}

// Add adds factor copies of other to c in place. Symbols whose count drops
// to zero are removed.
func (c Composition) Add(other Composition, factor int) {
	for sym, n := range other {
		c[sym] += n * factor
		if c[sym] == 0 {
			delete(c, sym)
		}
	}
}

// TotalAtoms returns the number of atoms in the composition, ignoring
// negative counts.
func (c Composition) TotalAtoms() int {
	total := 0
	for _, n := range c {
		if n > 0 {
			total += n
		}
	}
	return total
}

// HasNegative reports whether any symbol has a negative count.
func (c Composition) HasNegative() bool {
	for _, n := range c {
		if n < 0 {
			return true
		}
	}
	return false
}

// Symbols returns the symbols of c in Hill order: C, H, then alphabetical,
// with labelled isotopes following their element.
func (c Composition) Symbols() []string {
	syms := make([]string, 0, len(c))
	for sym := range c {
		syms = append(syms, sym)
	}

	rank := func(base string) int {
		switch base {
		case "C":
			return 0
		case "H":
			return 1
		}
		return 2
	}

	sort.Slice(syms, func(i, j int) bool {
		bi, mi, _ := SplitIsotopeSymbol(syms[i])
		bj, mj, _ := SplitIsotopeSymbol(syms[j])
		if ri, rj := rank(bi), rank(bj); ri != rj {
			return ri < rj
		}
		if bi != bj {
			return bi < bj
		}
		return mi < mj
	})
	return syms
}

// String formats the composition in Hill notation, e.g. "C2H3NO" or
// "C8[13C]4H20N[15N]O2".
func (c Composition) String() string {
	var b strings.Builder
	for _, sym := range c.Symbols() {
		n := c[sym]
		if n == 0 {
			continue
		}
		base, massNumber, _ := SplitIsotopeSymbol(sym)
		if massNumber > 0 {
			fmt.Fprintf(&b, "[%d%s]", massNumber, base)
		} else {
			b.WriteString(base)
		}
		if n != 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}

// IsotopeSymbol returns the composition key for a specific isotope.
func IsotopeSymbol(element string, massNumber int) string {
	return element + strconv.Itoa(massNumber)
}

// SplitIsotopeSymbol splits a symbol into its element and mass number.
// Accepted forms are "C", "C13", "13C" and "[13C]"; the mass number is 0
// for plain element symbols.
func SplitIsotopeSymbol(symbol string) (string, int, error) {
	s := strings.TrimSuffix(strings.TrimPrefix(symbol, "["), "]")

	var digits, base string
	if i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }); i > 0 {
		// leading mass number: 13C
		digits, base = s[:i], s[i:]
	} else {
		j := strings.IndexFunc(s, unicode.IsDigit)
		if j < 0 {
			base = s
		} else {
			base, digits = s[:j], s[j:]
		}
	}

	if !isElementSymbol(base) {
		return "", 0, fmt.Errorf("%w: bad element symbol %q", ErrInvalidFormula, symbol)
	}
	if digits == "" {
		return base, 0, nil
	}

	massNumber, err := strconv.Atoi(digits)
	if err != nil || massNumber <= 0 {
		return "", 0, fmt.Errorf("%w: bad mass number in %q", ErrInvalidFormula, symbol)
	}
	return base, massNumber, nil
}

func isElementSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !unicode.IsUpper(r) {
			return false
		}
		if i > 0 && !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// ParseFormula parses a chemical formula such as "C2H3NO", "(CH3)2SO",
// "C8[13C]4H20N[15N]O2" or a delta like "H-2O-1" into a Composition.
func ParseFormula(formula string) (Composition, error) {
	runes := []rune(strings.TrimSpace(formula))
	if len(runes) == 0 {
		return nil, fmt.Errorf("%w: empty formula", ErrInvalidFormula)
	}

	// Stack of open groups; the bottom entry is the result.
	stack := []Composition{{}}
	pos := 0

	for pos < len(runes) {
		r := runes[pos]
		switch {
		case unicode.IsSpace(r):
			pos++

		case r == '(':
			stack = append(stack, Composition{})
			pos++

		case r == ')':
			if len(stack) == 1 {
				return nil, fmt.Errorf("%w: unbalanced ')' at %d", ErrInvalidFormula, pos+1)
			}
			group := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pos++
			n, next, err := parseCount(runes, pos)
			if err != nil {
				return nil, err
			}
			pos = next
			stack[len(stack)-1].Add(group, n)

		case r == '[':
			end := pos + 1
			for end < len(runes) && runes[end] != ']' {
				end++
			}
			if end == len(runes) {
				return nil, fmt.Errorf("%w: unterminated '[' at %d", ErrInvalidFormula, pos+1)
			}
			base, massNumber, err := SplitIsotopeSymbol(string(runes[pos+1 : end]))
			if err != nil {
				return nil, err
			}
			if massNumber == 0 {
				return nil, fmt.Errorf("%w: isotope label without mass number at %d", ErrInvalidFormula, pos+1)
			}
			n, next, err := parseCount(runes, end+1)
			if err != nil {
				return nil, err
			}
			pos = next
			stack[len(stack)-1].Add(Composition{IsotopeSymbol(base, massNumber): n}, 1)

		case unicode.IsUpper(r):
			end := pos + 1
			for end < len(runes) && unicode.IsLower(runes[end]) {
				end++
			}
			sym := string(runes[pos:end])
			n, next, err := parseCount(runes, end)
			if err != nil {
				return nil, err
			}
			pos = next
			stack[len(stack)-1].Add(Composition{sym: n}, 1)

		default:
			return nil, fmt.Errorf("%w: unexpected character '%c' at %d", ErrInvalidFormula, r, pos+1)
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: unbalanced '('", ErrInvalidFormula)
	}
	return stack[0], nil
}

// parseCount reads an optional signed integer starting at pos. A missing
// count means 1.
func parseCount(runes []rune, pos int) (int, int, error) {
	start := pos
	if pos < len(runes) && runes[pos] == '-' {
		pos++
	}
	digitsStart := pos
	for pos < len(runes) && unicode.IsDigit(runes[pos]) {
		pos++
	}
	if pos == digitsStart {
		if pos > start {
			return 0, 0, fmt.Errorf("%w: '-' without count at %d", ErrInvalidFormula, start+1)
		}
		return 1, pos, nil
	}
	n, err := strconv.Atoi(string(runes[start:pos]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad count at %d: %v", ErrInvalidFormula, start+1, err)
	}
	return n, pos, nil
}

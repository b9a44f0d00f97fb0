// Package ucum validates quantity units written in the Unified Code for
// Units of Measure.  It recognizes the common base and derived units, the
// metric prefixes, products, quotients, exponents, and curly-brace
// annotations.  It does not convert between units.
package ucum

import (
	"fmt"
	"strings"
	"unicode"
)

// Validator checks the unit of a quantity literal.
type Validator interface {
	Validate(unit string) error
}

// CalendarUnits are the CQL calendar duration keywords, which are valid
// quantity units though they are not UCUM codes.
var CalendarUnits = map[string]string{
	"year": "a", "years": "a",
	"month": "mo", "months": "mo",
	"week": "wk", "weeks": "wk",
	"day": "d", "days": "d",
	"hour": "h", "hours": "h",
	"minute": "min", "minutes": "min",
	"second": "s", "seconds": "s",
	"millisecond": "ms", "milliseconds": "ms",
}

type UnitError struct {
	Unit   string
	Reason string
}

func (u *UnitError) Error() string {
	return fmt.Sprintf("Invalid UCUM unit %q: %s.", u.Unit, u.Reason)
}

// Table is a Validator backed by a table of unit atoms.
type Table struct {
	atoms    map[string]bool
	prefixes []string
}

var Default = NewTable()

func NewTable() *Table {
	t := &Table{atoms: make(map[string]bool)}
	for _, a := range metricAtoms {
		t.atoms[a] = true
	}
	for _, a := range otherAtoms {
		t.atoms[a] = false
	}
	t.prefixes = prefixes
	return t
}

// Validate accepts the empty unit, the unity "1", calendar keywords, and
// any well-formed UCUM term over the table's atoms.
func (t *Table) Validate(unit string) error {
	if unit == "" || unit == "1" {
		return nil
	}
	if _, ok := CalendarUnits[unit]; ok {
		return nil
	}
	p := &termParser{table: t, unit: unit, s: unit}
	if err := p.term(); err != nil {
		return err
	}
	if p.s != "" {
		return p.fail("unexpected %q", p.s)
	}
	return nil
}

type termParser struct {
	table *Table
	unit  string
	s     string
}

func (p *termParser) fail(format string, args ...any) error {
	return &UnitError{Unit: p.unit, Reason: fmt.Sprintf(format, args...)}
}

func (p *termParser) term() error {
	if strings.HasPrefix(p.s, "/") {
		p.s = p.s[1:]
	}
	for {
		if err := p.component(); err != nil {
			return err
		}
		if p.s == "" || (p.s[0] != '.' && p.s[0] != '/') {
			return nil
		}
		p.s = p.s[1:]
	}
}

func (p *termParser) component() error {
	switch {
	case p.s == "":
		return p.fail("missing unit")
	case p.s[0] == '(':
		p.s = p.s[1:]
		if err := p.term(); err != nil {
			return err
		}
		if !strings.HasPrefix(p.s, ")") {
			return p.fail("unbalanced parenthesis")
		}
		p.s = p.s[1:]
		p.exponent()
		return p.annotation()
	case p.s[0] == '{':
		return p.annotation()
	}
	end := symbolLen(p.s)
	symbol := p.s[:end]
	if symbol == "" {
		if digits := p.exponentLen(); digits > 0 {
			// A bare integer factor such as the "10" in "10*3/uL".
			p.s = p.s[digits:]
			p.power()
			return p.annotation()
		}
		return p.fail("unexpected %q", p.s)
	}
	if !p.table.isUnit(symbol) {
		return p.fail("unknown unit %q", symbol)
	}
	p.s = p.s[end:]
	p.exponent()
	return p.annotation()
}

// symbolLen returns the length of the unit symbol at the start of s.
// Square brackets may enclose digits and operators.
func symbolLen(s string) int {
	depth := 0
	for k, r := range s {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth > 0:
		case r == '.' || r == '/' || r == '(' || r == ')' || r == '{' || r == '+' || r == '-' || unicode.IsDigit(r):
			return k
		}
	}
	return len(s)
}

func (p *termParser) power() {
	if strings.HasPrefix(p.s, "*") || strings.HasPrefix(p.s, "^") {
		p.s = p.s[1:]
		p.exponent()
	}
}

func (p *termParser) exponent() {
	if n := p.exponentLen(); n > 0 {
		p.s = p.s[n:]
	}
}

func (p *termParser) exponentLen() int {
	n := 0
	if n < len(p.s) && (p.s[n] == '+' || p.s[n] == '-') {
		n++
	}
	start := n
	for n < len(p.s) && p.s[n] >= '0' && p.s[n] <= '9' {
		n++
	}
	if n == start {
		return 0
	}
	return n
}

func (p *termParser) annotation() error {
	if !strings.HasPrefix(p.s, "{") {
		return nil
	}
	end := strings.IndexByte(p.s, '}')
	if end < 0 {
		return p.fail("unterminated annotation")
	}
	p.s = p.s[end+1:]
	return nil
}

func (t *Table) isUnit(symbol string) bool {
	if _, ok := t.atoms[symbol]; ok {
		return true
	}
	for _, prefix := range t.prefixes {
		if atom, ok := strings.CutPrefix(symbol, prefix); ok && t.atoms[atom] {
			return true
		}
	}
	return false
}

var prefixes = []string{
	"Y", "Z", "E", "P", "T", "G", "M", "k", "h", "da",
	"d", "c", "m", "u", "n", "p", "f", "a", "z", "y",
}

// Atoms that take metric prefixes.
var metricAtoms = []string{
	"m", "s", "g", "rad", "K", "C", "cd", "mol", "sr", "Hz", "N", "Pa",
	"J", "W", "A", "V", "F", "Ohm", "S", "Wb", "Cel", "T", "H", "lm",
	"lx", "Bq", "Gy", "Sv", "l", "L", "ar", "t", "bar", "u", "eV", "pc",
	"eq", "osm", "g%", "U", "IU", "[iU]", "[IU]", "cal", "b", "Ci", "R",
	"RAD", "REM", "dyn", "erg", "P", "St", "G", "Mx", "Oe", "Gb", "sb",
	"Lmb", "ph", "kat", "mho", "B", "bit", "By", "Bd",
}

var otherAtoms = []string{
	"10*", "10^", "%", "[ppth]", "[ppm]", "[ppb]", "[pptr]",
	"min", "h", "d", "a", "wk", "mo", "a_t", "a_j", "a_g", "mo_j", "mo_g",
	"mo_s", "[in_i]", "[ft_i]", "[yd_i]", "[mi_i]", "[lb_av]", "[oz_av]",
	"[gr]", "[degF]", "[degR]", "[pH]", "[HPF]", "[LPF]", "[drp]",
	"mm[Hg]", "cm[H2O]", "[in_i'Hg]", "[pi]", "[mesh_i]", "[Ch]",
	"[diop]", "[beth'U]", "[APL'U]", "[GPL'U]", "[MPL'U]", "[arb'U]",
	"[CFU]", "[PFU]", "[FFU]", "[ka'U]", "[knk'U]", "[tb'U]", "[todd'U]",
	"[smgy'U]", "[USP'U]", "[hp'C]", "[hp'X]", "[kp'C]", "[kp'X]",
	"[S]", "[HPF]", "deg", "'", "''", "gon", "circ", "sph",
	"[car_m]", "[car_Au]", "[tsp_us]", "[tbs_us]", "[foz_us]", "[cup_us]",
	"[pt_us]", "[qt_us]", "[gal_us]", "[iU]", "[IU]",
}

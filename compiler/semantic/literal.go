package semantic

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/ir"
)

// LiteralError reports a DateTime or Time literal that is not a valid ISO
// 8601 value.  Err names the offending component.
type LiteralError struct {
	Input string
	Time  bool
	Err   error
}

func (l *LiteralError) Error() string {
	if l.Time {
		return fmt.Sprintf("Invalid time input (%s). Use ISO 8601 time representation (hh:mm:ss.fff).", l.Input)
	}
	return fmt.Sprintf("Invalid date-time input (%s). Use ISO 8601 date time representation (yyyy-MM-ddThh:mm:ss.mmmmZhh:mm).", l.Input)
}

func (l *LiteralError) Unwrap() error {
	return l.Err
}

// semLiteral translates a literal.  When negative is set, lit is the
// operand of a unary minus and the result is the negated value.
func (t *translator) semLiteral(lit *ast.Literal, negative bool) ir.Expr {
	switch lit.Type {
	case ast.LitNull:
		return ir.NewNull(cql.TypeAny)
	case ast.LitBoolean:
		return ir.NewBool(lit.Text == "true")
	case ast.LitString:
		return ir.NewLiteral(cql.TypeString, lit.Text)
	case ast.LitInteger:
		text := lit.Text
		if negative {
			text = "-" + text
		}
		if _, err := strconv.ParseInt(text, 10, 32); err != nil {
			return t.errorAs(lit, fmt.Errorf("Integer literal %s is out of range.", text), cql.TypeInteger)
		}
		return ir.NewLiteral(cql.TypeInteger, text)
	case ast.LitDecimal:
		if _, err := strconv.ParseFloat(lit.Text, 64); err != nil {
			return t.errorAs(lit, fmt.Errorf("Could not parse decimal literal %s.", lit.Text), cql.TypeDecimal)
		}
		return ir.NewLiteral(cql.TypeDecimal, lit.Text)
	case ast.LitDateTime:
		precision, err := parseDateTime(lit.Text)
		if err != nil {
			return t.errorAs(lit, &LiteralError{Input: lit.Text, Err: err}, cql.TypeDateTime)
		}
		out := ir.NewLiteral(cql.TypeDateTime, lit.Text)
		out.Precision = precision
		return out
	case ast.LitTime:
		precision, err := parseTime(lit.Text)
		if err != nil {
			return t.errorAs(lit, &LiteralError{Input: lit.Text, Time: true, Err: err}, cql.TypeTime)
		}
		out := ir.NewLiteral(cql.TypeTime, lit.Text)
		out.Precision = precision
		return out
	}
	return t.error(lit, fmt.Errorf("unknown literal type %s", lit.Type))
}

func (t *translator) semQuantity(q *ast.Quantity) ir.Expr {
	if _, err := strconv.ParseFloat(q.Value, 64); err != nil {
		return t.errorAs(q, fmt.Errorf("Could not parse quantity value %s.", q.Value), cql.TypeQuantity)
	}
	if t.env.Units != nil {
		if err := t.env.Units.Validate(q.Unit); err != nil {
			return t.errorAs(q, err, cql.TypeQuantity)
		}
	}
	return &ir.Quantity{
		Kind:  "Quantity",
		Node:  ir.Typed(cql.TypeQuantity),
		Value: q.Value,
		Unit:  q.Unit,
	}
}

var (
	dateTimeRE = regexp.MustCompile(`^(\d{4})(?:-(\d{2})(?:-(\d{2})(?:T(?:(\d{2})(?::(\d{2})(?::(\d{2})(?:\.(\d+))?)?)?)?(Z|[+-]\d{2}:\d{2})?)?)?)?$`)
	timeRE     = regexp.MustCompile(`^(\d{2})(?::(\d{2})(?::(\d{2})(?:\.(\d+))?)?)?$`)
)

// Precisions of DateTime and Time values, coarsest first.
var precisionNames = []string{"Year", "Month", "Day", "Hour", "Minute", "Second", "Millisecond"}

// parseDateTime validates a DateTime literal, without its leading '@', and
// returns its precision.
func parseDateTime(s string) (string, error) {
	m := dateTimeRE.FindStringSubmatch(s)
	if m == nil {
		return "", errors.New("malformed date/time literal")
	}
	year, _ := strconv.Atoi(m[1])
	if year < 1 {
		return "", fmt.Errorf("Invalid year in date/time literal (%s).", s)
	}
	precision := "Year"
	if m[2] != "" {
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return "", fmt.Errorf("Invalid month in date/time literal (%s).", s)
		}
		precision = "Month"
		if m[3] != "" {
			day, _ := strconv.Atoi(m[3])
			if day < 1 || day > daysIn(year, month) {
				return "", fmt.Errorf("Invalid day in date/time literal (%s).", s)
			}
			precision = "Day"
		}
	}
	if m[4] != "" {
		p, err := checkClock(s, "date/time", m[4:8])
		if err != nil {
			return "", err
		}
		precision = p
	}
	if tz := m[8]; tz != "" && tz != "Z" {
		hours, _ := strconv.Atoi(tz[1:3])
		minutes, _ := strconv.Atoi(tz[4:6])
		if hours > 14 || minutes > 59 {
			return "", fmt.Errorf("Invalid timezone offset in date/time literal (%s).", s)
		}
	}
	return precision, nil
}

// parseTime validates a Time literal, without its leading "@T", and
// returns its precision.
func parseTime(s string) (string, error) {
	m := timeRE.FindStringSubmatch(s)
	if m == nil {
		return "", errors.New("malformed time literal")
	}
	return checkClock(s, "time", m[1:5])
}

// checkClock validates the hour, minute, second and fraction components
// of parts, any but the first of which may be empty.
func checkClock(s, what string, parts []string) (string, error) {
	limits := []int{23, 59, 59}
	names := []string{"hour", "minute", "second"}
	precision := ""
	for k, limit := range limits {
		if parts[k] == "" {
			return precision, nil
		}
		if v, _ := strconv.Atoi(parts[k]); v > limit {
			return "", fmt.Errorf("Invalid %s in %s literal (%s).", names[k], what, s)
		}
		precision = precisionNames[3+k]
	}
	if frac := parts[3]; frac != "" {
		if len(frac) > 3 {
			return "", fmt.Errorf("Invalid millisecond in %s literal (%s).", what, s)
		}
		precision = "Millisecond"
	}
	return precision, nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

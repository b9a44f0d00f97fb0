package srcfiles

import (
	"fmt"
	"strings"
)

type Severity int

const (
	Info Severity = iota + 1
	Warning
	Err
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Err:
		return "error"
	}
	return "none"
}

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "info":
		return Info, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Err, nil
	case "", "none":
		return 0, nil
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	sev, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// ErrorList is a list of Errors.
type ErrorList []*Error

// Append appends an Error to e.
func (e *ErrorList) Append(list *List, sev Severity, msg string, pos, end int) *Error {
	err := &Error{Msg: msg, Pos: pos, End: end, Severity: sev, list: list}
	*e = append(*e, err)
	return err
}

// Error concatenates the errors in e with a newline between each.
func (e ErrorList) Error() string {
	var b strings.Builder
	for i, err := range e {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap returns the entries of e so that errors.Is and errors.As search
// every diagnostic.
func (e ErrorList) Unwrap() []error {
	out := make([]error, len(e))
	for k, err := range e {
		out[k] = err
	}
	return out
}

// Errors returns the entries of e at error severity.
func (e ErrorList) Errors() ErrorList {
	var out ErrorList
	for _, err := range e {
		if err.Severity >= Err {
			out = append(out, err)
		}
	}
	return out
}

// Error is a diagnostic attached to a span of source text.  Cause holds
// secondary errors that stem from this one when detailed errors are
// requested.
type Error struct {
	Msg      string
	Pos      int
	End      int
	Severity Severity
	Library  string
	Cause    error
	list     *List
}

func (e *Error) Error() string {
	if e.list == nil || len(e.list.Files) == 0 || e.Pos < 0 {
		return e.Msg
	}
	file := e.list.FileOf(e.Pos)
	start := file.Position(e.Pos)
	end := file.Position(e.End)
	var b strings.Builder
	b.WriteString(e.Msg)
	if file.Name != "" {
		fmt.Fprintf(&b, " in %s", file.Name)
	}
	line := file.LineOfPos(e.list.Text, e.Pos)
	fmt.Fprintf(&b, " at line %d, column %d:\n%s\n", start.Line, start.Column, line)
	if end.IsValid() && end.Pos > start.Pos {
		formatSpanError(&b, line, start, end)
	} else {
		formatPointError(&b, start)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Locator returns the "line:col-line:col" form of the error's span.
func (e *Error) Locator() string {
	if e.list == nil {
		return ""
	}
	return e.list.Locator(e.Pos, e.End)
}

func formatSpanError(b *strings.Builder, line string, start, end Position) {
	b.WriteString(strings.Repeat(" ", start.Column-1))
	n := end.Column - start.Column
	if start.Line != end.Line {
		n = len(line) - start.Column + 1
	}
	b.WriteString(strings.Repeat("~", max(n, 1)))
}

func formatPointError(b *strings.Builder, start Position) {
	col := start.Column - 1
	for k := range col {
		if k >= col-4 && k != col-1 {
			b.WriteByte('=')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteString("^ ===")
}

package srcfiles

import (
	"fmt"
	"os"
	"sort"
)

// List holds the source text of a library along with the diagnostics
// reported against it.
type List struct {
	Text    string
	Files   []File
	Library string
	errors  ErrorList
}

// NewList returns a List for the library source text src read from the
// file name (which may be empty).
func NewList(name, src string) *List {
	return &List{
		Text:  src,
		Files: []File{newFile(name, 0, []byte(src))},
	}
}

// ReadFile returns a List holding the contents of the named file.
func ReadFile(name string) (*List, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return NewList(name, string(b)), nil
}

func (l *List) AddError(msg string, pos, end int) *Error {
	return l.Add(Err, msg, pos, end)
}

// Add records a diagnostic with the given severity.
func (l *List) Add(sev Severity, msg string, pos, end int) *Error {
	err := l.errors.Append(l, sev, msg, pos, end)
	err.Library = l.Library
	return err
}

// Diagnostics returns every diagnostic recorded so far in report order.
func (l *List) Diagnostics() ErrorList {
	return l.errors
}

// Error returns the error-severity diagnostics as an error or nil if there
// are none.
func (l *List) Error() error {
	if errs := l.errors.Errors(); len(errs) != 0 {
		return errs
	}
	return nil
}

func (l *List) FileOf(pos int) File {
	i := sort.Search(len(l.Files), func(i int) bool { return l.Files[i].start > pos }) - 1
	return l.Files[max(i, 0)]
}

// Locator formats the span [pos, end) as "line:col-line:col" where the end
// position is that of the last character in the span.
func (l *List) Locator(pos, end int) string {
	if len(l.Files) == 0 || pos < 0 {
		return ""
	}
	file := l.FileOf(pos)
	start := file.Position(pos)
	last := start
	if end > pos {
		last = file.Position(end - 1)
	}
	return fmt.Sprintf("%d:%d-%d:%d", start.Line, start.Column, last.Line, last.Column)
}

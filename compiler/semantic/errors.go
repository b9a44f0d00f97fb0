package semantic

import (
	"fmt"
	"strings"

	"github.com/brimdata/cql"
)

// CycleError reports a definition that refers to itself, directly or
// through other definitions.  Path starts and ends with the same name.
type CycleError struct {
	Path []string
}

func (c *CycleError) Error() string {
	return "Circular reference: " + strings.Join(c.Path, " -> ")
}

type TypeError struct {
	Expected cql.Type
	Found    cql.Type
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("Expected an expression of type '%s', but found an expression of type '%s'.", e.Expected, e.Found)
}

type IdentifierError struct {
	Name       string
	Library    string
	Suggestion string
}

func (e *IdentifierError) Error() string {
	var msg string
	if e.Library != "" {
		msg = fmt.Sprintf("Could not resolve identifier %s in library %s.", e.Name, e.Library)
	} else {
		msg = fmt.Sprintf("Could not resolve identifier %s in the current library.", e.Name)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" Did you mean %s?", e.Suggestion)
	}
	return msg
}

type DuplicateError struct {
	Name string
}

func (d *DuplicateError) Error() string {
	return fmt.Sprintf("Identifier %s is already in use in this library.", d.Name)
}

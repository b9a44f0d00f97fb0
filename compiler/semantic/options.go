package semantic

import (
	"fmt"
	"strings"

	"github.com/brimdata/cql/compiler/resolve"
	"github.com/brimdata/cql/compiler/srcfiles"
)

// SignatureLevel controls when calls carry the operand types of the
// signature they resolved to.
type SignatureLevel int

const (
	SignatureNone SignatureLevel = iota
	// SignatureDiffering annotates calls whose arguments were converted.
	SignatureDiffering
	// SignatureOverloads annotates calls to overloaded operators.
	SignatureOverloads
	SignatureAll
)

func (s SignatureLevel) String() string {
	switch s {
	case SignatureDiffering:
		return "Differing"
	case SignatureOverloads:
		return "Overloads"
	case SignatureAll:
		return "All"
	}
	return "None"
}

func ParseSignatureLevel(s string) (SignatureLevel, error) {
	for _, level := range []SignatureLevel{SignatureNone, SignatureDiffering, SignatureOverloads, SignatureAll} {
		if strings.EqualFold(s, level.String()) {
			return level, nil
		}
	}
	return SignatureNone, fmt.Errorf("unknown signature level %q", s)
}

func (s SignatureLevel) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SignatureLevel) UnmarshalText(b []byte) error {
	level, err := ParseSignatureLevel(string(b))
	if err != nil {
		return err
	}
	*s = level
	return nil
}

type Options struct {
	ListPromotion         bool              `toml:"list_promotion"`
	ListDemotion          bool              `toml:"list_demotion"`
	ListTraversal         bool              `toml:"list_traversal"`
	IntervalPromotion     bool              `toml:"interval_promotion"`
	IntervalDemotion      bool              `toml:"interval_demotion"`
	MethodInvocation      bool              `toml:"method_invocation"`
	RequireFromKeyword    bool              `toml:"require_from_keyword"`
	DateRangeOptimization bool              `toml:"date_range_optimization"`
	DetailedErrors        bool              `toml:"detailed_errors"`
	Locators              bool              `toml:"locators"`
	SignatureLevel        SignatureLevel    `toml:"signature_level"`
	MinSeverity           srcfiles.Severity `toml:"min_severity"`
	// AbortSeverity stops translation of the remaining statements once a
	// diagnostic of at least this severity is recorded.  The zero value
	// never aborts.
	AbortSeverity srcfiles.Severity `toml:"abort_severity"`
}

func DefaultOptions() Options {
	return Options{
		ListPromotion:    true,
		ListDemotion:     true,
		ListTraversal:    true,
		MethodInvocation: true,
		MinSeverity:      srcfiles.Info,
	}
}

func (o Options) engineOptions() resolve.EngineOptions {
	return resolve.EngineOptions{
		ListPromotion:     o.ListPromotion,
		ListDemotion:      o.ListDemotion,
		IntervalPromotion: o.IntervalPromotion,
		IntervalDemotion:  o.IntervalDemotion,
	}
}

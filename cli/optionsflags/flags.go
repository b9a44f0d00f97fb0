// Package optionsflags binds the translator options to command-line flags
// and to an optional TOML options file.  Flags given on the command line
// take precedence over the file, which takes precedence over the defaults.
package optionsflags

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/brimdata/cql/compiler/semantic"
	"github.com/brimdata/cql/compiler/srcfiles"
	"github.com/spf13/pflag"
)

type boolOption struct {
	name  string
	usage string
	field func(*semantic.Options) *bool
}

var boolOptions = []boolOption{
	{"list-promotion", "implicitly promote a value to a one-element list", func(o *semantic.Options) *bool { return &o.ListPromotion }},
	{"list-demotion", "implicitly demote a list to its single element", func(o *semantic.Options) *bool { return &o.ListDemotion }},
	{"list-traversal", "allow property access across the elements of a list", func(o *semantic.Options) *bool { return &o.ListTraversal }},
	{"interval-promotion", "implicitly promote a point to a unit interval", func(o *semantic.Options) *bool { return &o.IntervalPromotion }},
	{"interval-demotion", "implicitly demote a unit interval to its point", func(o *semantic.Options) *bool { return &o.IntervalDemotion }},
	{"method-invocation", "allow operators and fluent functions to be called as methods", func(o *semantic.Options) *bool { return &o.MethodInvocation }},
	{"require-from", "require the from keyword on queries", func(o *semantic.Options) *bool { return &o.RequireFromKeyword }},
	{"date-range-optimization", "move date filters on retrieves into the retrieve", func(o *semantic.Options) *bool { return &o.DateRangeOptimization }},
	{"detailed-errors", "report errors that follow from earlier errors", func(o *semantic.Options) *bool { return &o.DetailedErrors }},
	{"locators", "annotate expressions with local IDs and source locators", func(o *semantic.Options) *bool { return &o.Locators }},
}

type Flags struct {
	// File is the path of a TOML options file.
	File string

	flags semantic.Options
}

func (f *Flags) SetFlags(fs *pflag.FlagSet) {
	f.flags = semantic.DefaultOptions()
	fs.StringVar(&f.File, "options", "", "TOML file of translator options")
	for _, o := range boolOptions {
		fs.BoolVar(o.field(&f.flags), o.name, *o.field(&f.flags), o.usage)
	}
	fs.Var(&signatureValue{&f.flags.SignatureLevel}, "signatures", "annotate calls with signatures (None, Differing, Overloads, All)")
	fs.Var(&severityValue{&f.flags.MinSeverity}, "min-severity", "lowest severity of reported diagnostics (info, warning, error)")
	fs.Var(&severityValue{&f.flags.AbortSeverity}, "abort-severity", "stop translating at a diagnostic of this severity (none, info, warning, error)")
}

// Options returns the defaults overlaid first by the options file and then
// by every flag set explicitly in fs.
func (f *Flags) Options(fs *pflag.FlagSet) (semantic.Options, error) {
	opts := semantic.DefaultOptions()
	if f.File != "" {
		var err error
		if opts, err = Load(f.File); err != nil {
			return semantic.Options{}, err
		}
	}
	for _, o := range boolOptions {
		if fs.Changed(o.name) {
			*o.field(&opts) = *o.field(&f.flags)
		}
	}
	if fs.Changed("signatures") {
		opts.SignatureLevel = f.flags.SignatureLevel
	}
	if fs.Changed("min-severity") {
		opts.MinSeverity = f.flags.MinSeverity
	}
	if fs.Changed("abort-severity") {
		opts.AbortSeverity = f.flags.AbortSeverity
	}
	return opts, nil
}

// Load decodes the TOML options file at path over the default options.
// Keys that name no option are an error.
func Load(path string) (semantic.Options, error) {
	opts := semantic.DefaultOptions()
	md, err := toml.DecodeFile(path, &opts)
	if err != nil {
		return semantic.Options{}, fmt.Errorf("%s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		var keys []string
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return semantic.Options{}, fmt.Errorf("%s: unknown options: %s", path, strings.Join(keys, ", "))
	}
	return opts, nil
}

type signatureValue struct {
	level *semantic.SignatureLevel
}

func (s *signatureValue) Set(value string) error {
	level, err := semantic.ParseSignatureLevel(value)
	if err != nil {
		return err
	}
	*s.level = level
	return nil
}

func (s *signatureValue) String() string {
	if s.level == nil {
		return ""
	}
	return s.level.String()
}

func (*signatureValue) Type() string {
	return "level"
}

type severityValue struct {
	sev *srcfiles.Severity
}

func (s *severityValue) Set(value string) error {
	sev, err := srcfiles.ParseSeverity(value)
	if err != nil {
		return err
	}
	*s.sev = sev
	return nil
}

func (s *severityValue) String() string {
	if s.sev == nil {
		return ""
	}
	return s.sev.String()
}

func (*severityValue) Type() string {
	return "severity"
}

// Package ztest runs YAML-described translation tests ("ztests").
//
// A ztest is a YAML document naming the text of a CQL library and the
// expected result of translating it.  The expected result is the IR tree
// written by irfmt (or, with format "json", the indented JSON of the IR) and
// the error diagnostics, one per line in the form
//
//	[library ]line:col-line:col: message
//
// For example,
//
//	cql: |
//	  define X: 1 + 2
//	output: |
//	  library (anonymous)
//	  └── [System.Integer]  Public define X in Unfiltered
//	      └── [System.Integer]  Call Add
//	          ├── [System.Integer]  Literal 1
//	          └── [System.Integer]  Literal 2
//
// Libraries included by the test library are given by path under the
// "libraries" key and translator options as command-line flags under the
// "options" key, e.g., "--interval-promotion --signatures=All".
//
// When an error is expected and no output is given, the output is not
// compared.
package ztest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brimdata/cql/cli/optionsflags"
	"github.com/brimdata/cql/compiler"
	"github.com/brimdata/cql/compiler/irfmt"
	"github.com/brimdata/cql/compiler/optimizer"
	"github.com/brimdata/cql/compiler/semantic"
	"github.com/brimdata/cql/compiler/srcfiles"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Bundle struct {
	TestName string
	FileName string
	Test     *ZTest
	Error    error
}

func Load(dirname string) ([]Bundle, error) {
	var bundles []Bundle
	fileinfos, err := os.ReadDir(dirname)
	if err != nil {
		return nil, err
	}
	for _, fi := range fileinfos {
		filename := fi.Name()
		const dotyaml = ".yaml"
		if !strings.HasSuffix(filename, dotyaml) {
			continue
		}
		testname := strings.TrimSuffix(filename, dotyaml)
		filename = filepath.Join(dirname, filename)
		zt, err := FromYAMLFile(filename)
		bundles = append(bundles, Bundle{testname, filename, zt, err})
	}
	return bundles, nil
}

func Run(t *testing.T, dirname string) {
	bundles, err := Load(dirname)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range bundles {
		t.Run(b.TestName, func(t *testing.T) {
			t.Parallel()
			if b.Error != nil {
				t.Fatalf("%s: %s", b.FileName, b.Error)
			}
			b.Test.Run(t, b.FileName)
		})
	}
}

// ZTest defines a ztest.
type ZTest struct {
	Skip string `yaml:"skip,omitempty"`
	Tag  string `yaml:"tag,omitempty"`

	CQL       string            `yaml:"cql"`
	Libraries map[string]string `yaml:"libraries,omitempty"`
	Options   string            `yaml:"options,omitempty"`
	// Optimize applies the date-range optimizer to the translated IR.
	Optimize bool   `yaml:"optimize,omitempty"`
	Format   string `yaml:"format,omitempty"`
	Output   string `yaml:"output,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

func (z *ZTest) check() error {
	if z.CQL == "" {
		return errors.New("cql field missing")
	}
	switch z.Format {
	case "", "tree", "json":
	default:
		return fmt.Errorf("unknown format %q", z.Format)
	}
	return nil
}

// FromYAMLFile loads a ZTest from the YAML file named filename.
func FromYAMLFile(filename string) (*ZTest, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return FromYAML(b)
}

// FromYAML decodes a ZTest.  Unknown fields are an error.
func FromYAML(b []byte) (*ZTest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var z ZTest
	if err := dec.Decode(&z); err != nil {
		return nil, err
	}
	return &z, nil
}

func (z *ZTest) ShouldSkip() string {
	switch {
	case z.Skip != "":
		return z.Skip
	case z.Tag != "" && z.Tag != os.Getenv("ZTEST_TAG"):
		return fmt.Sprintf("tag %q does not match ZTEST_TAG=%q", z.Tag, os.Getenv("ZTEST_TAG"))
	}
	return ""
}

func (z *ZTest) Run(t *testing.T, filename string) {
	if msg := z.ShouldSkip(); msg != "" {
		t.Skip("skipping test:", msg)
	}
	if err := z.RunInternal(t.Context()); err != nil {
		t.Fatalf("%s: %s", filename, err)
	}
}

func (z *ZTest) RunInternal(ctx context.Context) error {
	if err := z.check(); err != nil {
		return fmt.Errorf("bad yaml format: %w", err)
	}
	out, errStr, err := z.translate(ctx)
	if err != nil {
		return err
	}
	var outDiffErr, errDiffErr error
	if (z.Error == "" || z.Output != "") && z.Output != out {
		outDiffErr = diffErr("output", z.Output, out)
	}
	if z.Error != errStr {
		errDiffErr = diffErr("error", z.Error, errStr)
	}
	return errors.Join(outDiffErr, errDiffErr)
}

// translate returns the formatted IR and diagnostics of the test library.
// The error is for failures of the test itself.
func (z *ZTest) translate(ctx context.Context) (string, string, error) {
	var flags optionsflags.Flags
	fs := pflag.NewFlagSet("ztest", pflag.ContinueOnError)
	flags.SetFlags(fs)
	if err := fs.Parse(strings.Fields(z.Options)); err != nil {
		return "", "", err
	}
	opts, err := flags.Options(fs)
	if err != nil {
		return "", "", err
	}
	m := compiler.NewManager(semantic.NewEnvironment(opts), compiler.Map(z.Libraries))
	u, err := m.CompileSource(ctx, "", z.CQL)
	var list srcfiles.ErrorList
	if err != nil && !errors.As(err, &list) {
		return "", strings.TrimSuffix(err.Error(), "\n") + "\n", nil
	}
	var errs strings.Builder
	for _, e := range list {
		if e.Library != "" && (u == nil || e.Library != u.Name) {
			errs.WriteString(e.Library + " ")
		}
		fmt.Fprintf(&errs, "%s: %s\n", e.Locator(), e.Msg)
	}
	if u == nil {
		return "", errs.String(), nil
	}
	if z.Optimize {
		optimizer.New(nil).Library(u.Library)
	}
	if z.Format == "json" {
		b, err := json.MarshalIndent(u.Library, "", "  ")
		if err != nil {
			return "", "", err
		}
		return string(b) + "\n", errs.String(), nil
	}
	return irfmt.Library(u.Library), errs.String(), nil
}

func diffErr(name, expected, actual string) error {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		FromFile: "expected",
		B:        difflib.SplitLines(actual),
		ToFile:   "actual",
		Context:  5,
	})
	if err != nil {
		panic("ztest: " + err.Error())
	}
	return fmt.Errorf("expected and actual %s differ:\n%s", name, diff)
}

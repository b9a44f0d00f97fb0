package optionsflags_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brimdata/cql/cli/optionsflags"
	"github.com/brimdata/cql/compiler/semantic"
	"github.com/brimdata/cql/compiler/srcfiles"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (semantic.Options, error) {
	var f optionsflags.Flags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return f.Options(fs)
}

func writeFile(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), "options.toml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	opts, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, semantic.DefaultOptions(), opts)
}

func TestFlags(t *testing.T) {
	opts, err := parse(t, "--list-promotion=false", "--locators", "--signatures=all", "--abort-severity=error")
	require.NoError(t, err)
	assert.False(t, opts.ListPromotion)
	assert.True(t, opts.ListDemotion)
	assert.True(t, opts.Locators)
	assert.Equal(t, semantic.SignatureAll, opts.SignatureLevel)
	assert.Equal(t, srcfiles.Err, opts.AbortSeverity)
}

func TestBadFlagValue(t *testing.T) {
	var f optionsflags.Flags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(new(nopWriter))
	f.SetFlags(fs)
	assert.Error(t, fs.Parse([]string{"--signatures=some"}))
}

func TestFileWithOverride(t *testing.T) {
	path := writeFile(t, `
date_range_optimization = true
interval_promotion = true
signature_level = "Overloads"
min_severity = "warning"
`)
	opts, err := parse(t, "--options", path, "--interval-promotion=false")
	require.NoError(t, err)
	assert.True(t, opts.DateRangeOptimization)
	assert.False(t, opts.IntervalPromotion)
	assert.True(t, opts.ListTraversal)
	assert.Equal(t, semantic.SignatureOverloads, opts.SignatureLevel)
	assert.Equal(t, srcfiles.Warning, opts.MinSeverity)
}

func TestUnknownOption(t *testing.T) {
	path := writeFile(t, "list_promotion = false\nfast = true\n")
	_, err := optionsflags.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown options: fast")
}

type nopWriter struct{}

func (*nopWriter) Write(b []byte) (int, error) { return len(b), nil }

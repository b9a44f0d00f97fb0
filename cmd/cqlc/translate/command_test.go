package translate_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/brimdata/cql/cmd/cqlc/root"
	"github.com/brimdata/cql/cmd/cqlc/translate"
	"github.com/brimdata/cql/cmd/cqlc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	cqlc := root.New()
	cqlc.AddCommand(translate.New(cqlc), types.New(cqlc))
	var stdout, stderr bytes.Buffer
	cqlc.SetOut(&stdout)
	cqlc.SetErr(&stderr)
	cqlc.SetArgs(args)
	err := cqlc.Execute()
	return stdout.String(), stderr.String(), err
}

func writeLibraries(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func TestTranslateJSON(t *testing.T) {
	dir := writeLibraries(t, map[string]string{
		"Common.cql": "library Common version '1.0'\ndefine Shared: 41\n",
		"Main.cql":   "library Main\ninclude Common version '1.0'\ndefine X: Common.Shared + 1\n",
	})
	stdout, stderr, err := run(t, "translate", filepath.Join(dir, "Main.cql"))
	require.NoError(t, err)
	assert.Empty(t, stderr)
	var lib struct {
		Kind       string `json:"kind"`
		Identifier struct {
			ID string `json:"id"`
		} `json:"identifier"`
		Statements []map[string]any `json:"statements"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &lib))
	assert.Equal(t, "Library", lib.Kind)
	assert.Equal(t, "Main", lib.Identifier.ID)
	require.Len(t, lib.Statements, 1)
	assert.Equal(t, "X", lib.Statements[0]["name"])
	assert.Equal(t, "System.Integer", lib.Statements[0]["resultType"])
}

func TestTranslateTree(t *testing.T) {
	dir := writeLibraries(t, map[string]string{
		"Common.cql": "library Common\ndefine Shared: 41\n",
		"Main.cql":   "library Main\ninclude Common\ndefine X: Common.Shared + 1\n",
	})
	stdout, _, err := run(t, "translate", "-f", "tree", "--all", filepath.Join(dir, "Main.cql"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "library Common\n")
	assert.Contains(t, stdout, "library Main\n")
	assert.Contains(t, stdout, "Call Add")
	assert.Contains(t, stdout, "ExpressionRef Common.Shared")
}

func TestTranslateOptimize(t *testing.T) {
	dir := writeLibraries(t, map[string]string{
		"Obs.cql": "library Obs\nusing Simple version '1.0.0'\ndefine Q: [Observation] O where O.effective included in @2020-01-01\n",
	})
	path := filepath.Join(dir, "Obs.cql")
	stdout, _, err := run(t, "translate", "-f", "tree", path)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "during effective")

	stdout, _, err = run(t, "translate", "-f", "tree", "--optimize", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Retrieve Simple.Observation during effective")
}

func TestTranslateErrors(t *testing.T) {
	dir := writeLibraries(t, map[string]string{"Bad.cql": "library Bad\ndefine X: Missing\n"})
	_, stderr, err := run(t, "translate", filepath.Join(dir, "Bad.cql"))
	require.Error(t, err)
	assert.Equal(t, "1 of 1 libraries failed to translate", err.Error())
	assert.Contains(t, stderr, "error: Could not resolve identifier Missing in the current library.")
}

func TestOptionsFlag(t *testing.T) {
	dir := writeLibraries(t, map[string]string{
		"Q.cql":        "library Q\nusing Simple version '1.0.0'\ndefine X: [Observation] O\n",
		"options.toml": "require_from_keyword = true\n",
	})
	_, stderr, err := run(t, "translate", "--options", filepath.Join(dir, "options.toml"), filepath.Join(dir, "Q.cql"))
	require.Error(t, err)
	assert.Contains(t, stderr, "The from keyword is required for queries.")
}

func TestUnknownFormat(t *testing.T) {
	_, _, err := run(t, "translate", "-f", "yaml", "Main.cql")
	assert.EqualError(t, err, `unknown output format "yaml"`)
}

func TestTypes(t *testing.T) {
	stdout, _, err := run(t, "types", "Simple")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Simple version 1.0.0\n")
	assert.Contains(t, stdout, "[Simple.Resource]  Patient patient retrievable")
	assert.Contains(t, stdout, "[System.DateTime]  birthDate")
	assert.Contains(t, stdout, "meta (prohibited)")
	assert.NotContains(t, stdout, "\u00a0")

	_, _, err = run(t, "types", "Nowhere")
	assert.EqualError(t, err, "Could not load model information for model Nowhere.")
}

func TestMetricsFile(t *testing.T) {
	dir := writeLibraries(t, map[string]string{
		"Common.cql": "library Common\ndefine Shared: 41\n",
		"Main.cql":   "library Main\ninclude Common\ndefine X: Common.Shared + 1\n",
	})
	metrics := filepath.Join(dir, "metrics.prom")
	_, _, err := run(t, "translate", "--metrics", metrics, filepath.Join(dir, "Main.cql"))
	require.NoError(t, err)
	b, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(b), `cql_compiler_libraries_total{result="success"} 2`)
	assert.Contains(t, string(b), "cql_compiler_library_duration_seconds_count 2")
}

package translate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/brimdata/cql/cmd/cqlc/root"
	"github.com/brimdata/cql/compiler"
	"github.com/brimdata/cql/compiler/irfmt"
	"github.com/brimdata/cql/compiler/optimizer"
	"github.com/brimdata/cql/compiler/semantic"
	"github.com/brimdata/cql/compiler/srcfiles"
	"github.com/brimdata/cql/pkg/terminal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type Command struct {
	*root.Command
	format   string
	libDir   string
	optimize bool
	all      bool
}

func New(parent *root.Command) *cobra.Command {
	c := &Command{Command: parent}
	cmd := &cobra.Command{
		Use:   "translate [options] file.cql ...",
		Short: "translate CQL libraries to typed IR",
		Long: `
The translate command translates each library file named on the command
line, together with the libraries it includes, and writes the IR of the
named library to standard output.  Diagnostics of every library translated
are written to standard error.

The IR is written as an indented tree showing the result type of every
expression when standard output is a terminal and as JSON otherwise.  Use
"-f json" or "-f tree" to choose.

The --optimize flag moves date filters on retrieves into the retrieves
after translation, whatever the date-range-optimization option says.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(cmd, args)
		},
	}
	cmd.Flags().StringVarP(&c.format, "format", "f", "", "output format (json, tree)")
	cmd.Flags().StringVar(&c.libDir, "lib", "", "directory of included libraries (default is the directory of each file)")
	cmd.Flags().BoolVar(&c.optimize, "optimize", false, "apply the date-range optimizer to the IR")
	cmd.Flags().BoolVar(&c.all, "all", false, "also write the IR of included libraries")
	return cmd
}

func (c *Command) Run(cmd *cobra.Command, args []string) error {
	switch c.format {
	case "":
		c.format = "json"
		if terminal.IsTerminal(cmd.OutOrStdout()) {
			c.format = "tree"
		}
	case "json", "tree":
	default:
		return fmt.Errorf("unknown output format %q", c.format)
	}
	env, cleanup, err := c.Init(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	var failed int
	for _, path := range args {
		ok, err := c.translate(cmd, env, path)
		if err != nil {
			return err
		}
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d libraries failed to translate", failed, len(args))
	}
	return nil
}

// translate writes the IR of the library in path and reports whether it
// translated without errors.
func (c *Command) translate(cmd *cobra.Command, env *semantic.Environment, path string) (bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	dir := c.libDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	m := compiler.NewManager(env, compiler.Dir(dir))
	m.Metrics = c.Metrics
	u, err := m.CompileSource(cmd.Context(), path, string(src))
	var list srcfiles.ErrorList
	if err != nil && !errors.As(err, &list) {
		return false, err
	}
	units := m.Units()
	for _, unit := range units {
		writeDiagnostics(cmd.ErrOrStderr(), unit)
	}
	if u == nil {
		return false, nil
	}
	if !c.all {
		units = []*semantic.Unit{u}
	}
	if c.optimize {
		o := optimizer.New(env.Logger)
		for _, unit := range units {
			n := o.Library(unit.Library)
			env.Logger.Debug("optimized library", zap.String("library", unit.Name), zap.Int("rewrites", n))
		}
	}
	for _, unit := range units {
		if err := c.write(cmd.OutOrStdout(), unit); err != nil {
			return false, err
		}
	}
	return len(list) == 0, nil
}

func (c *Command) write(w io.Writer, u *semantic.Unit) error {
	if c.format == "tree" {
		_, err := io.WriteString(w, irfmt.Library(u.Library))
		return err
	}
	b, err := json.MarshalIndent(u.Library, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func writeDiagnostics(w io.Writer, u *semantic.Unit) {
	for _, d := range u.Diagnostics {
		fmt.Fprintf(w, "%s: %s\n", d.Severity, d.Error())
	}
}

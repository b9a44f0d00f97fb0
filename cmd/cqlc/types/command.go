package types

import (
	"fmt"
	"io"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/cmd/cqlc/root"
	"github.com/brimdata/cql/compiler/irfmt"
	"github.com/brimdata/cql/model"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"
)

type Command struct {
	*root.Command
	version string
}

func New(parent *root.Command) *cobra.Command {
	c := &Command{Command: parent}
	cmd := &cobra.Command{
		Use:   "types [options] model",
		Short: "list the types of a data model",
		Long: `
The types command loads a data model the way a using statement does and
writes a tree of its types.  Each type shows its base type, whether it can
be retrieved, its primary code path, and its properties.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(cmd, args)
		},
	}
	cmd.Flags().StringVar(&c.version, "version", "", "required model version")
	return cmd
}

func (c *Command) Run(cmd *cobra.Command, args []string) error {
	env, cleanup, err := c.Init(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	m, err := env.Models.Load(args[0], c.version)
	if err != nil {
		return err
	}
	return Write(cmd.OutOrStdout(), m)
}

// Write writes the tree of the types of m to w.
func Write(w io.Writer, m *model.Model) error {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%s version %s", m.Name, m.Version))
	for _, typ := range m.Types() {
		b := tree.AddMetaBranch(typ.Parent().String(), describe(m, typ))
		for _, p := range typ.Properties {
			label := p.Name
			if p.Prohibited {
				label += " (prohibited)"
			}
			b.AddMetaNode(p.Type.String(), label)
		}
	}
	_, err := io.WriteString(w, irfmt.Render(tree))
	return err
}

func describe(m *model.Model, typ *cql.TypeNamed) string {
	s := typ.Name
	if typ == m.PatientClass {
		s += " patient"
	}
	if typ.Retrievable {
		s += " retrievable"
	}
	if typ.PrimaryCodePath != "" {
		s += " code " + typ.PrimaryCodePath
	}
	return s
}

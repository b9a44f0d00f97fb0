package root

import (
	"github.com/brimdata/cql/cli/logflags"
	"github.com/brimdata/cql/cli/optionsflags"
	"github.com/brimdata/cql/compiler"
	"github.com/brimdata/cql/compiler/semantic"
	"github.com/brimdata/cql/model"
	"github.com/brimdata/cql/ucum"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Command holds the flags shared by every cqlc subcommand.
type Command struct {
	*cobra.Command
	ModelDir     string
	UCUM         bool
	MetricsFile  string
	// Metrics is set by Init when a metrics file is named.
	Metrics *compiler.Metrics
	logFlags     logflags.Flags
	optionsFlags optionsflags.Flags
}

func New() *Command {
	c := &Command{}
	c.Command = &cobra.Command{
		Use:   "cqlc",
		Short: "translate Clinical Quality Language libraries to typed IR",
		Long: `
The "cqlc" command parses and type-checks CQL libraries and emits the
resulting typed intermediate representation (IR).

Libraries named in include statements are read from the directory of the
library being translated (or from the directory given with --lib) using
the file name "<name>-<version>.cql" or "<name>.cql".  Data models named
in using statements are read from the --models directory and, failing
that, from the models built into cqlc.

Translator options may be given as flags or collected in a TOML file named
with --options.  Flags override the file.
`,
		SilenceUsage: true,
	}
	fs := c.PersistentFlags()
	fs.StringVar(&c.ModelDir, "models", "", "directory of YAML model-info files")
	fs.BoolVar(&c.UCUM, "ucum", false, "validate the units of quantity literals")
	fs.StringVar(&c.MetricsFile, "metrics", "", "write translation metrics in Prometheus text format to this file on exit")
	c.logFlags.SetFlags(fs)
	c.optionsFlags.SetFlags(fs)
	return c
}

// Init returns a translation environment configured by the flags of cmd.
// The returned cleanup function writes the metrics file and flushes the
// log.
func (c *Command) Init(cmd *cobra.Command) (*semantic.Environment, func(), error) {
	opts, err := c.optionsFlags.Options(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := c.logFlags.Open()
	if err != nil {
		return nil, nil, err
	}
	env := semantic.NewEnvironment(opts)
	env.Logger = logger
	if c.ModelDir != "" {
		env.Models = model.NewRegistry(env.Context, model.Chain(model.Dir(c.ModelDir), model.Builtin))
	}
	if c.UCUM {
		env.Units = ucum.Default
	}
	var registry *prometheus.Registry
	if c.MetricsFile != "" {
		c.Metrics = compiler.NewMetrics()
		registry = prometheus.NewRegistry()
		registry.MustRegister(c.Metrics.PrometheusCollectors()...)
	}
	return env, func() {
		if registry != nil {
			if err := prometheus.WriteToTextfile(c.MetricsFile, registry); err != nil {
				logger.Error("writing metrics", zap.String("file", c.MetricsFile), zap.Error(err))
			}
		}
		closeLog()
	}, nil
}

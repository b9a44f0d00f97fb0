// Package logflags builds the zap logger of a command from its flags.  Logs
// go to standard error unless a file is named, in which case the file is
// rotated by size.
package logflags

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/brimdata/cql/cli/auto"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Flags struct {
	Level      zapcore.Level
	Format     string
	File       string
	MaxSize    auto.Bytes
	MaxBackups int
}

func (f *Flags) SetFlags(fs *pflag.FlagSet) {
	f.Level = zapcore.WarnLevel
	fs.Var(&levelValue{&f.Level}, "log.level", "logging level (debug, info, warn, error)")
	fs.StringVar(&f.Format, "log.format", "console", "logging format (console, json)")
	fs.StringVar(&f.File, "log.file", "", "write logs to this file instead of stderr")
	f.MaxSize = auto.NewBytes(100 * 1024 * 1024)
	fs.Var(&f.MaxSize, "log.maxsize", "size at which the log file is rotated (e.g., 10MB, rounded up to megabytes)")
	fs.IntVar(&f.MaxBackups, "log.maxbackups", 3, "number of rotated log files to keep")
}

// Open returns the logger described by f.  The returned function flushes
// the logger and closes its file.
func (f *Flags) Open() (*zap.Logger, func() error, error) {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format(time.RFC3339))
	}
	config.EncodeDuration = zapcore.StringDurationEncoder
	var encoder zapcore.Encoder
	switch f.Format {
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(config)
	case "json":
		encoder = zapcore.NewJSONEncoder(config)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", f.Format)
	}
	var w io.Writer = os.Stderr
	var closer io.Closer
	if f.File != "" {
		lj := &lumberjack.Logger{
			Filename:   f.File,
			MaxSize:    megabytes(f.MaxSize.Bytes),
			MaxBackups: f.MaxBackups,
		}
		w, closer = lj, lj
	}
	logger := zap.New(zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), f.Level))
	return logger, func() error {
		if closer == nil {
			// Sync of a terminal fails on some platforms.
			logger.Sync()
			return nil
		}
		return multierr.Append(logger.Sync(), closer.Close())
	}, nil
}

func megabytes(n uint64) int {
	const mb = 1024 * 1024
	return int((n + mb - 1) / mb)
}

type levelValue struct {
	level *zapcore.Level
}

func (l *levelValue) Set(s string) error {
	return l.level.Set(s)
}

func (l *levelValue) String() string {
	if l.level == nil {
		return ""
	}
	return l.level.String()
}

func (*levelValue) Type() string {
	return "level"
}

package cli

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the run logger writing to w. Quiet discards everything,
// verbose switches to the development encoder at debug level.
func newLogger(w io.Writer, verbose, quiet bool) *zap.Logger {
	if quiet {
		return zap.NewNop()
	}

	if verbose {
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(zapcore.AddSync(w)),
			zap.DebugLevel,
		)
		return zap.New(core, zap.Development(), zap.AddCaller())
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.InfoLevel,
	)
	return zap.New(core)
}

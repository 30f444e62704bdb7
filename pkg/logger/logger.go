package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger on stdout.
func New(env, level string) (*zap.Logger, error) {
	return build(env, level, zapcore.Lock(os.Stdout)), nil
}

// build wires a single core for env. Production writes JSON lines with
// millisecond durations; every other env gets colored console output.
func build(env, level string, out zapcore.WriteSyncer) *zap.Logger {
	prod := isProduction(env)

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	var encoder zapcore.Encoder
	if prod {
		encoder = zapcore.NewJSONEncoder(enc)
	} else {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeDuration = zapcore.StringDurationEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	}

	core := zapcore.NewCore(encoder, out, zap.NewAtomicLevelAt(parseLevel(level)))
	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	}
	if !prod {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...)
}

func isProduction(env string) bool {
	switch strings.ToLower(env) {
	case "prod", "production":
		return true
	}
	return false
}

// parseLevel falls back to info on anything zap does not recognise.
func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zap.InfoLevel
	}
	return l
}

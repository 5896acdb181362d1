// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// dashgate writes decision, rejection, and lifecycle events to one JSON log
// per day under `<root>/logs/YYYY-MM-DD.log`.  In an interactive TTY the same
// events are teed to stdout in console format.  Lumberjack owns rotation,
// compression, and retention.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Root: root, Tee: isTTY()})
//	if err != nil { … }
//	log.Infow("rewrite", "rule", "order-query")
//
// Notes
// -----
// • ISO-8601 timestamps, lowercase levels.
// • Credentials reach the log only through their redacting marshalers.
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options control where and how much is logged.
type Options struct {
	Root  string        // log files go to <Root>/logs
	Tee   bool          // also write console output to stdout
	Level zapcore.Level // minimum level; zero value is Info
}

// New returns a *zap.SugaredLogger that writes JSON to <root>/logs/YYYY-MM-DD.log
// and installs it as the process-wide default via zap.ReplaceGlobals.
func New(opts Options) (*zap.SugaredLogger, error) {
	logDir := filepath.Join(opts.Root, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, time.Now().Format("2006-01-02")+".log"),
		MaxSize:    50, // MB
		MaxBackups: 7,
		MaxAge:     14, // days
		Compress:   true,
	}

	encCfg := encoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), opts.Level),
	}
	if opts.Tee {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stdout),
			opts.Level,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "tee", opts.Tee, "dir", logDir, "level", opts.Level.String())
	return z, nil
}

// ParseLevel maps "debug", "info", "warn", "error" to a zap level; anything
// else yields Info.
func ParseLevel(s string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
}

// Package logging builds the zap logger and adapts search events to log lines.
package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/elektrokombinacija/taskalloc-research/internal/algo"
	"github.com/elektrokombinacija/taskalloc-research/internal/config"
)

// New builds a logger from cfg. Unknown levels fall back to info; a config
// that cannot be built falls back to zap.NewProduction.
func New(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// Observer writes search events to a logger. Incumbents and rounds are logged
// at debug level, start and finish at info.
type Observer struct {
	logger *zap.Logger
}

// NewObserver creates an Observer. A nil logger discards everything.
func NewObserver(logger *zap.Logger) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Observer{logger: logger}
}

var _ algo.Observer = (*Observer)(nil)

func (o *Observer) OnSearchStarted(solver string, agents, tasks int) {
	o.logger.Info("search started",
		zap.String("solver", solver),
		zap.Int("agents", agents),
		zap.Int("tasks", tasks),
	)
}

func (o *Observer) OnIncumbent(solver string, makespan float64) {
	o.logger.Debug("incumbent improved",
		zap.String("solver", solver),
		zap.Float64("makespan", makespan),
	)
}

func (o *Observer) OnRound(solver string, round, accepted, remaining int) {
	o.logger.Debug("round finished",
		zap.String("solver", solver),
		zap.Int("round", round),
		zap.Int("accepted", accepted),
		zap.Int("remaining", remaining),
	)
}

func (o *Observer) OnSearchFinished(solver string, stats algo.Stats, makespan float64, elapsed time.Duration, err error) {
	fields := []zap.Field{
		zap.String("solver", solver),
		zap.Uint64("nodes", stats.Nodes),
		zap.Uint64("leaves", stats.Leaves),
		zap.Uint64("vetoed", stats.Vetoed),
		zap.Uint64("cut", stats.Cut),
		zap.Int("rounds", stats.Rounds),
		zap.Uint64("pairs", stats.Pairs),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		o.logger.Warn("search failed", append(fields, zap.Error(err))...)
		return
	}
	o.logger.Info("search finished", append(fields, zap.Float64("makespan", makespan))...)
}

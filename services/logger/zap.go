package logsvc

import (
	"sync"

	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/classdrive/core"
)

// NewZapLogger builds the local log output: human readable in debug, JSON otherwise.
func NewZapLogger(conf *core.Config, name string) (*zap.Logger, error) {
	var zc zap.Config
	if conf.Debug {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.OutputPaths = []string{"stdout"}

	zl, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return zl.Named(name), nil
}

// NewNopLogger returns a disabled RollbarLogger that writes nothing.
func NewNopLogger() *RollbarLogger {
	rollbar.SetEnabled(false)
	return &RollbarLogger{zl: zap.NewNop(), mu: new(sync.Mutex)}
}

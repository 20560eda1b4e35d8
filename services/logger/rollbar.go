package logsvc

import (
	"fmt"
	"sync"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/trezcool/classdrive/core"
)

// RollbarLogger reports to Rollbar and writes every entry locally through zap.
// The Rollbar person is process-wide, so reports are serialized.
type RollbarLogger struct {
	zl *zap.Logger
	mu *sync.Mutex
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(zl *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{zl: zl, mu: new(sync.Mutex)}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, core.Person
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []zap.Field) {
	var personSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	fields := make([]zap.Field, 0, len(args))
	for i, arg := range args {
		switch a := arg.(type) {
		case core.Person:
			// only set one Person
			if !personSet {
				rollbar.SetPerson(a.ID, a.Username, a.Email)
				fields = append(fields, zap.String("person", a.ID))
				personSet = true
			}
			continue
		case error:
			fields = append(fields, zap.Error(a))
		case map[string]interface{}:
			for k, v := range a {
				fields = append(fields, zap.Any(k, v))
			}
		default:
			fields = append(fields, zap.Any(fmt.Sprintf("arg%d", i), a))
		}
		newArgs = append(newArgs, arg)
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return newArgs, fields
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.mu.Lock()
	rArgs, fields := l.prepare(msg, args)
	rollbar.Debug(rArgs...)
	l.mu.Unlock()
	l.zl.Debug(msg, fields...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.mu.Lock()
	rArgs, fields := l.prepare(msg, args)
	rollbar.Info(rArgs...)
	l.mu.Unlock()
	l.zl.Info(msg, fields...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.mu.Lock()
	rArgs, fields := l.prepare(msg, args)
	rollbar.Warning(rArgs...)
	l.mu.Unlock()
	l.zl.Warn(msg, fields...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.mu.Lock()
	rArgs, fields := l.prepare(msg, args)
	rollbar.Error(rArgs...)
	l.mu.Unlock()
	l.zl.Error(msg, fields...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.mu.Lock()
	rArgs, fields := l.prepare(msg, args)
	rollbar.Critical(rArgs...)
	l.mu.Unlock()
	rollbar.Wait()
	l.zl.Fatal(msg, fields...)
}

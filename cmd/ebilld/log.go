package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btclog"
	"github.com/hubertusvie/bcr-ebilld/billservice"
	"github.com/hubertusvie/bcr-ebilld/blockchain"
	"github.com/hubertusvie/bcr-ebilld/boltstore"
	"github.com/hubertusvie/bcr-ebilld/btcoracle"
	"github.com/hubertusvie/bcr-ebilld/notify"
)

// subsystemLoggers mirrors lnd's per-subsystem logger registry: every
// package that calls UseLogger gets its own entry here, so -loglevel
// (and, in time, per-subsystem overrides) can reach all of them from one
// place.
var subsystemLoggers = map[string]func(btclog.Logger){
	"BLCK": blockchain.UseLogger,
	"BILL": billservice.UseLogger,
	"BTCO": btcoracle.UseLogger,
	"BOLT": boltstore.UseLogger,
	"NTFY": notify.UseLogger,
	"EBLD": func(l btclog.Logger) { log = l },
}

// log is ebilld's own top-level logger (the "EBLD" subsystem), separate
// from every package it wires together.
var log btclog.Logger = btclog.Disabled

// stdoutLogger is a minimal btclog.Logger writing level-tagged lines to
// stdout. The pinned btclog release this module builds against predates
// that package's later Backend/Logger(subsystem) constructors, so ebilld
// supplies its own small adapter rather than guess at an unverified API.
type stdoutLogger struct {
	tag   string
	level btclog.Level
}

func newStdoutLogger(tag string, level btclog.Level) *stdoutLogger {
	return &stdoutLogger{tag: tag, level: level}
}

func (l *stdoutLogger) logf(level btclog.Level, tag string, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	fmt.Fprintf(os.Stdout, "%s: [%s] %s\n", tag, l.tag, fmt.Sprintf(format, args...))
}

func (l *stdoutLogger) log(level btclog.Level, tag string, args ...interface{}) {
	if level < l.level {
		return
	}
	fmt.Fprintf(os.Stdout, "%s: [%s] %s\n", tag, l.tag, fmt.Sprint(args...))
}

func (l *stdoutLogger) Tracef(format string, args ...interface{})    { l.logf(btclog.LevelTrace, "TRC", format, args...) }
func (l *stdoutLogger) Debugf(format string, args ...interface{})    { l.logf(btclog.LevelDebug, "DBG", format, args...) }
func (l *stdoutLogger) Infof(format string, args ...interface{})     { l.logf(btclog.LevelInfo, "INF", format, args...) }
func (l *stdoutLogger) Warnf(format string, args ...interface{})     { l.logf(btclog.LevelWarn, "WRN", format, args...) }
func (l *stdoutLogger) Errorf(format string, args ...interface{})    { l.logf(btclog.LevelError, "ERR", format, args...) }
func (l *stdoutLogger) Criticalf(format string, args ...interface{}) { l.logf(btclog.LevelCritical, "CRT", format, args...) }

func (l *stdoutLogger) Trace(args ...interface{})    { l.log(btclog.LevelTrace, "TRC", args...) }
func (l *stdoutLogger) Debug(args ...interface{})    { l.log(btclog.LevelDebug, "DBG", args...) }
func (l *stdoutLogger) Info(args ...interface{})     { l.log(btclog.LevelInfo, "INF", args...) }
func (l *stdoutLogger) Warn(args ...interface{})     { l.log(btclog.LevelWarn, "WRN", args...) }
func (l *stdoutLogger) Error(args ...interface{})    { l.log(btclog.LevelError, "ERR", args...) }
func (l *stdoutLogger) Critical(args ...interface{}) { l.log(btclog.LevelCritical, "CRT", args...) }

func (l *stdoutLogger) Level() btclog.Level     { return l.level }
func (l *stdoutLogger) SetLevel(level btclog.Level) { l.level = level }

// levelFromString maps ebilld's -loglevel flag value to a btclog.Level.
func levelFromString(name string) (btclog.Level, bool) {
	switch name {
	case "trace":
		return btclog.LevelTrace, true
	case "debug":
		return btclog.LevelDebug, true
	case "info":
		return btclog.LevelInfo, true
	case "warn":
		return btclog.LevelWarn, true
	case "error":
		return btclog.LevelError, true
	case "critical":
		return btclog.LevelCritical, true
	case "off":
		return btclog.LevelOff, true
	default:
		return 0, false
	}
}

// initLogging parses levelName (trace/debug/info/warn/error/critical/off)
// and wires every registered subsystem logger to a fresh stdout backend at
// that level.
func initLogging(levelName string) error {
	level, ok := levelFromString(levelName)
	if !ok {
		return fmt.Errorf("unknown log level %q", levelName)
	}
	for tag, use := range subsystemLoggers {
		use(newStdoutLogger(tag, level))
	}
	return nil
}

package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//GetZapLogger returns a zap logger writing debug and info entries to stdout and
//warn, error and fatal entries to stderr. Debug entries are only kept when debug is set.
func GetZapLogger(debug bool) *zap.Logger {
	return newLogger(debug, zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
}

func newLogger(debug bool, stdout, stderr zapcore.WriteSyncer) *zap.Logger {
	//debug and info level enabler
	debugInfoLevel := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level == zapcore.DebugLevel || level == zapcore.InfoLevel
	})

	//info level enabler
	infoLevel := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level == zapcore.InfoLevel
	})

	//warn, error and fatal level enabler
	warnErrorFatalLevel := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level == zapcore.WarnLevel || level == zapcore.ErrorLevel || level == zapcore.FatalLevel
	})

	var core zapcore.Core
	if debug {
		core = zapcore.NewTee(
			zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), stdout, debugInfoLevel),
			zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), stderr, warnErrorFatalLevel),
		)
	} else {
		core = zapcore.NewTee(
			zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig()), stdout, infoLevel),
			zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig()), stderr, warnErrorFatalLevel),
		)
	}

	return zap.New(core, zap.AddCaller())
}

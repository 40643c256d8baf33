package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Debug   bool
	Verbose bool
	Quiet   bool
	Output  io.Writer
	// LogFile, when set, receives a copy of every entry and is rotated.
	LogFile    string
	MaxSizeMB  int
	MaxBackups int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Configure sets level and destination of logger. The returned closer
// releases the log file, if any.
func Configure(logger *logrus.Logger, opts Options) io.Closer {
	if logger == nil {
		return nopCloser{}
	}
	target := opts.Output
	if target == nil {
		target = os.Stderr
	}

	switch {
	case opts.Debug:
		logger.SetLevel(logrus.DebugLevel)
	case opts.Verbose:
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	if opts.Quiet && !opts.Debug {
		target = io.Discard
	}

	if opts.LogFile == "" {
		logger.SetOutput(target)
		return nopCloser{}
	}

	_ = os.MkdirAll(filepath.Dir(opts.LogFile), 0o755)
	file := &lumberjack.Logger{
		Filename:   opts.LogFile,
		MaxSize:    orDefault(opts.MaxSizeMB, 50),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		LocalTime:  true,
	}
	if target == io.Discard {
		logger.SetOutput(file)
	} else {
		logger.SetOutput(io.MultiWriter(target, file))
	}
	return file
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Package logging builds the diagnostic loggers handed to each component.
//
// Loggers are plain *log.Logger values with a bracketed component prefix.
// Where they write depends on the log config: a rotating file when log.file
// is set, stderr in verbose mode, or nowhere.
package logging

import (
	"io"
	"log"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mschirtzinger/jobtrack/internal/config"
)

// Logs is the shared sink all component loggers write to.
type Logs struct {
	w    io.Writer
	file *lumberjack.Logger
}

// Setup returns the sink described by cfg. stderr receives output only in
// verbose mode.
func Setup(cfg config.LogConfig, stderr io.Writer) *Logs {
	l := &Logs{w: io.Discard}

	var writers []io.Writer
	if cfg.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		writers = append(writers, l.file)
	}
	if cfg.Verbose && stderr != nil {
		writers = append(writers, stderr)
	}

	switch len(writers) {
	case 0:
	case 1:
		l.w = writers[0]
	default:
		l.w = io.MultiWriter(writers...)
	}
	return l
}

// Discard returns a sink that drops everything.
func Discard() *Logs {
	return &Logs{w: io.Discard}
}

// For returns a logger for component, prefixed "[component] ".
func (l *Logs) For(component string) *log.Logger {
	return log.New(l.w, "["+component+"] ", log.LstdFlags)
}

// Writer is the underlying sink.
func (l *Logs) Writer() io.Writer {
	return l.w
}

// Close flushes and closes the log file, if any.
func (l *Logs) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

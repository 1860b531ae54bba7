// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package log provides the logging handle shared by the tools. A ToolLogger
// is created once in main, handed to every component that logs, and closed
// before the process exits.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Tool Logger verbosity constants
const (
	Always = iota
	Info
	DebugLow
	DebugHigh
)

const (
	ToolTimeFormat = "2006-01-02T15:04:05.000-0700"
)

// VerbosityLevel is the subset of the verbosity options the logger needs.
type VerbosityLevel interface {
	Level() int
	IsQuiet() bool
}

// ToolLogger writes timestamped, verbosity-filtered lines to stderr and,
// optionally, to a log file.
type ToolLogger struct {
	mutex     *sync.Mutex
	writer    io.Writer
	format    string
	verbosity int
	file      *os.File
}

// NewToolLogger returns a logger writing to stderr at the given verbosity.
func NewToolLogger(verbosity VerbosityLevel) *ToolLogger {
	tl := &ToolLogger{
		mutex:  &sync.Mutex{},
		writer: os.Stderr,
		format: ToolTimeFormat,
	}
	tl.SetVerbosity(verbosity)
	return tl
}

// SetVerbosity sets the level above which messages are dropped. A quiet
// verbosity drops everything.
func (tl *ToolLogger) SetVerbosity(verbosity VerbosityLevel) {
	if verbosity == nil {
		tl.verbosity = 0
		return
	}

	if verbosity.IsQuiet() {
		tl.verbosity = -1
	} else {
		tl.verbosity = verbosity.Level()
	}
}

// SetWriter replaces the destination of log lines. Any log file opened with
// AddFile keeps receiving lines.
func (tl *ToolLogger) SetWriter(writer io.Writer) {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	if tl.file != nil {
		tl.writer = io.MultiWriter(writer, tl.file)
		return
	}
	tl.writer = writer
}

// SetDateFormat changes the timestamp layout.
func (tl *ToolLogger) SetDateFormat(dateFormat string) {
	tl.format = dateFormat
}

// AddFile appends every subsequent log line to the file at path.
func (tl *ToolLogger) AddFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening log file %v", path)
	}

	tl.mutex.Lock()
	defer tl.mutex.Unlock()
	if tl.file != nil {
		_ = tl.file.Close()
	}
	tl.file = f
	tl.writer = io.MultiWriter(tl.writer, f)
	return nil
}

// Close flushes and closes the log file, if any. Later lines only go to the
// primary writer.
func (tl *ToolLogger) Close() error {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	if tl.file == nil {
		return nil
	}
	f := tl.file
	tl.file = nil
	tl.writer = os.Stderr

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "flushing log file")
	}
	return f.Close()
}

// Logv logs msg if minVerb is within the configured verbosity.
func (tl *ToolLogger) Logv(minVerb int, msg string) {
	tl.Logvf(minVerb, "%v", msg)
}

// Logvf logs a formatted message if minVerb is within the configured
// verbosity. A multi-line message is written as one log line per line.
func (tl *ToolLogger) Logvf(minVerb int, format string, a ...interface{}) {
	if minVerb < 0 {
		panic("cannot set a minimum log verbosity that is less than 0")
	}

	if minVerb <= tl.verbosity {
		tl.mutex.Lock()
		defer tl.mutex.Unlock()
		tl.log(fmt.Sprintf(format, a...))
	}
}

// Warnf logs a warning regardless of verbosity, unless quiet.
func (tl *ToolLogger) Warnf(format string, a ...interface{}) {
	tl.Logvf(Always, "WARNING: "+format, a...)
}

// Errorf logs an error regardless of verbosity, unless quiet.
func (tl *ToolLogger) Errorf(format string, a ...interface{}) {
	tl.Logvf(Always, "ERROR: "+format, a...)
}

func (tl *ToolLogger) log(msg string) {
	now := time.Now().Format(tl.format)
	for _, line := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
		fmt.Fprintf(tl.writer, "%v\t%v\n", now, line)
	}
}

// Writer returns an io.Writer that logs everything written to it at the
// given verbosity.
func (tl *ToolLogger) Writer(minVerb int) io.Writer {
	return &toolLogWriter{
		logger:       tl,
		minVerbosity: minVerb,
	}
}

type toolLogWriter struct {
	logger       *ToolLogger
	minVerbosity int
}

func (tlw *toolLogWriter) Write(message []byte) (int, error) {
	tlw.logger.Logv(tlw.minVerbosity, string(message))
	return len(message), nil
}

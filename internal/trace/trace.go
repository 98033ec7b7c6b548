/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace is the VM-wide logging façade. Every subsystem logs
// through here rather than holding its own logger, so the trace level
// can be set once by the CLI and observed everywhere.
package trace

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level mirrors the coarse severity buckets the interpreter and
// classloader report against.
type Level int

const (
	FINE Level = iota
	INFO
	WARNING
	SEVERE
)

var (
	mu     sync.Mutex
	log    = logrus.New()
	active = INFO
)

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	// Filtering is done against active; let logrus pass FINE (Debug) through.
	log.SetLevel(logrus.DebugLevel)
}

// SetLevel sets the minimum level that will be emitted.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	active = l
}

func enabled(l Level) bool {
	mu.Lock()
	defer mu.Unlock()
	return l >= active
}

// Trace logs a fine-grained diagnostic message, e.g. per-class-load or
// per-opcode-resolution detail.
func Trace(msg string, fields ...logrus.Fields) {
	emit(FINE, msg, fields...)
}

// Info logs a normal informational message.
func Info(msg string, fields ...logrus.Fields) {
	emit(INFO, msg, fields...)
}

// Warning logs a recoverable anomaly.
func Warning(msg string, fields ...logrus.Fields) {
	emit(WARNING, msg, fields...)
}

// Error logs a failure that aborts the current operation (class load,
// link, parse) but not the VM.
func Error(msg string, fields ...logrus.Fields) {
	emit(SEVERE, msg, fields...)
}

func emit(l Level, msg string, fields ...logrus.Fields) {
	if !enabled(l) {
		return
	}
	entry := logrus.NewEntry(log)
	if len(fields) > 0 {
		entry = entry.WithFields(fields[0])
	}
	switch l {
	case FINE:
		entry.Debug(msg)
	case INFO:
		entry.Info(msg)
	case WARNING:
		entry.Warn(msg)
	case SEVERE:
		entry.Error(msg)
	}
}

// WithField is a convenience constructor for a single-field Fields map,
// used at call sites that want to tag a message with e.g. the class
// name without building a map literal inline.
func WithField(key string, value interface{}) logrus.Fields {
	return logrus.Fields{key: value}
}

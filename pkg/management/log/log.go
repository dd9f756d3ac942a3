/*
Copyright © contributors to CloudNativePG, established as
CloudNativePG a Series of LF Projects, LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

SPDX-License-Identifier: Apache-2.0
*/

// Package log contains the logging subsystem of the rollout controller
package log

import (
	"context"

	"github.com/go-logr/logr"
	crlog "sigs.k8s.io/controller-runtime/pkg/log"
)

// Logger is the logging interface used by every component. It wraps
// a logr.Logger adding the warning, debug and trace levels.
type Logger interface {
	Enabled() bool
	Error(err error, msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warning(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Trace(msg string, keysAndValues ...interface{})

	WithValues(keysAndValues ...interface{}) Logger
	WithName(name string) Logger
	GetLogger() logr.Logger
}

type logger struct {
	logr.Logger
}

type contextKey struct{}

var log Logger = &logger{Logger: logr.Discard()}

// SetLogger sets the backing logr implementation of the global logger
func SetLogger(logr logr.Logger) {
	log = &logger{Logger: logr}
}

// GetLogger returns the global logger
func GetLogger() Logger {
	return log
}

// FromContext returns the logger stored in the context, falling back
// to the one injected by controller-runtime and then to the global one
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return log
	}
	if l, ok := ctx.Value(contextKey{}).(Logger); ok {
		return l
	}
	if l, err := logr.FromContext(ctx); err == nil {
		return &logger{Logger: l}
	}
	return log
}

// IntoContext stores the logger inside the context
func IntoContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// SetupLogger gets the logger prepared by controller-runtime for the
// current reconciliation and stores it in the returned context
func SetupLogger(ctx context.Context) (Logger, context.Context) {
	l := &logger{Logger: crlog.FromContext(ctx)}
	return l, IntoContext(ctx, l)
}

func (l *logger) Enabled() bool {
	return l.Logger.Enabled()
}

func (l *logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Logger.Error(err, msg, keysAndValues...)
}

func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, keysAndValues...)
}

func (l *logger) Warning(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, append([]interface{}{"severity", WarningLevelString}, keysAndValues...)...)
}

func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.V(debugVerbosity).Info(msg, keysAndValues...)
}

func (l *logger) Trace(msg string, keysAndValues ...interface{}) {
	l.Logger.V(traceVerbosity).Info(msg, keysAndValues...)
}

func (l *logger) WithValues(keysAndValues ...interface{}) Logger {
	return &logger{Logger: l.Logger.WithValues(keysAndValues...)}
}

func (l *logger) WithName(name string) Logger {
	return &logger{Logger: l.Logger.WithName(name)}
}

func (l *logger) GetLogger() logr.Logger {
	return l.Logger
}

// Info logs a message through the global logger
func Info(msg string, keysAndValues ...interface{}) {
	log.Info(msg, keysAndValues...)
}

// Error logs an error through the global logger
func Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error(err, msg, keysAndValues...)
}

// Warning logs a warning through the global logger
func Warning(msg string, keysAndValues ...interface{}) {
	log.Warning(msg, keysAndValues...)
}

// Debug logs a message at the debug level through the global logger
func Debug(msg string, keysAndValues ...interface{}) {
	log.Debug(msg, keysAndValues...)
}

// Trace logs a message at the trace level through the global logger
func Trace(msg string, keysAndValues ...interface{}) {
	log.Trace(msg, keysAndValues...)
}

// WithName returns a named child of the global logger
func WithName(name string) Logger {
	return log.WithName(name)
}

// WithValues returns a child of the global logger with the passed values
func WithValues(keysAndValues ...interface{}) Logger {
	return log.WithValues(keysAndValues...)
}

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

package log

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
	controllerruntime "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Flags contains the set of values necessary
// for configuring the logging of the manager and of the plugin
type Flags struct {
	zapOptions zap.Options

	logLevel          string
	logDestination    string
	logFieldLevel     string
	logFieldTimestamp string
}

// AddFlags binds the logging flags to a given flagset
func (l *Flags) AddFlags(flags *pflag.FlagSet) {
	loggingFlagSet := &flag.FlagSet{}
	loggingFlagSet.StringVar(&l.logLevel, "log-level", DefaultLevelString,
		"the desired log level, one of error, warning, info, debug and trace")
	loggingFlagSet.StringVar(&l.logDestination, "log-destination", "",
		"where the log stream will be written")
	loggingFlagSet.StringVar(&l.logFieldLevel, "log-field-level", "level",
		"the name of the field containing the log level")
	loggingFlagSet.StringVar(&l.logFieldTimestamp, "log-field-timestamp", "ts",
		"the name of the field containing the timestamp")
	l.zapOptions.BindFlags(loggingFlagSet)
	flags.AddGoFlagSet(loggingFlagSet)
}

// ConfigureLogging configures the logging honoring the flags
// passed from the user
func (l *Flags) ConfigureLogging() {
	logger := zap.New(
		zap.UseFlagOptions(&l.zapOptions),
		l.customLevel,
		l.customFields,
		l.customDestination,
	)
	if _, ok := ParseLevel(l.logLevel); !ok {
		logger.Info("Invalid log level, defaulting", "level", l.logLevel, "default", DefaultLevelString)
	}

	controllerruntime.SetLogger(logger)
	klog.SetLogger(logger)
	SetLogger(logger)
}

// ParseLevel converts the string representation of a level into
// its priority, returning false if the level is unknown
func ParseLevel(l string) (zapcore.Level, bool) {
	switch l {
	case ErrorLevelString:
		return ErrorLevel, true
	case WarningLevelString:
		return WarningLevel, true
	case InfoLevelString:
		return InfoLevel, true
	case DebugLevelString:
		return DebugLevel, true
	case TraceLevelString:
		return TraceLevel, true
	default:
		return DefaultLevel, false
	}
}

func levelString(l zapcore.Level) string {
	switch l {
	case ErrorLevel:
		return ErrorLevelString
	case WarningLevel:
		return WarningLevelString
	case InfoLevel:
		return InfoLevelString
	case DebugLevel:
		return DebugLevelString
	case TraceLevel:
		return TraceLevelString
	default:
		return DefaultLevelString
	}
}

func (l *Flags) customLevel(in *zap.Options) {
	in.Level, _ = ParseLevel(l.logLevel)
	in.EncoderConfigOptions = append(in.EncoderConfigOptions, func(c *zapcore.EncoderConfig) {
		c.EncodeLevel = func(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(levelString(lvl))
		}
	})
}

func (l *Flags) customFields(in *zap.Options) {
	in.EncoderConfigOptions = append(in.EncoderConfigOptions, func(c *zapcore.EncoderConfig) {
		if l.logFieldLevel != "" {
			c.LevelKey = l.logFieldLevel
		}
		if l.logFieldTimestamp != "" {
			c.TimeKey = l.logFieldTimestamp
		}
	})
}

func (l *Flags) customDestination(in *zap.Options) {
	if l.logDestination == "" {
		return
	}

	logStream, err := os.OpenFile(l.logDestination, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o600) //#nosec
	if err != nil {
		panic(fmt.Sprintf("Cannot open log destination %v: %v", l.logDestination, err))
	}

	in.DestWriter = logStream
}

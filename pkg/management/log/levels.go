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

import "go.uber.org/zap/zapcore"

const (
	// ErrorLevelString is the string representation of the error level
	ErrorLevelString = "error"

	// WarningLevelString is the string representation of the warning level
	WarningLevelString = "warning"

	// InfoLevelString is the string representation of the info level
	InfoLevelString = "info"

	// DebugLevelString is the string representation of the debug level
	DebugLevelString = "debug"

	// TraceLevelString is the string representation of the trace level
	TraceLevelString = "trace"

	// DefaultLevelString is the string representation of the default level
	DefaultLevelString = InfoLevelString
)

const (
	// ErrorLevel is the error level priority
	ErrorLevel = zapcore.ErrorLevel

	// WarningLevel is the warning level priority
	WarningLevel = zapcore.WarnLevel

	// InfoLevel is the info level priority
	InfoLevel = zapcore.InfoLevel

	// DebugLevel is the debug level priority
	DebugLevel = zapcore.DebugLevel

	// TraceLevel is the trace level priority
	TraceLevel = zapcore.Level(-2)

	// DefaultLevel is the default logging level
	DefaultLevel = InfoLevel
)

// logr verbosity of the levels below info
const (
	debugVerbosity = 1
	traceVerbosity = 2
)

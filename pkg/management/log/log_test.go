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
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/pflag"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newRecordingLogger(lines *[]string) logr.Logger {
	return funcr.New(func(prefix, args string) {
		*lines = append(*lines, strings.TrimSpace(fmt.Sprintf("%s %s", prefix, args)))
	}, funcr.Options{Verbosity: traceVerbosity})
}

var _ = Describe("Log levels", func() {
	It("parses every known level", func() {
		for _, name := range []string{
			ErrorLevelString, WarningLevelString, InfoLevelString, DebugLevelString, TraceLevelString,
		} {
			level, ok := ParseLevel(name)
			Expect(ok).To(BeTrue())
			Expect(levelString(level)).To(Equal(name))
		}
	})

	It("defaults unknown levels", func() {
		level, ok := ParseLevel("verbose")
		Expect(ok).To(BeFalse())
		Expect(level).To(Equal(DefaultLevel))
	})

	It("registers the logging flags", func() {
		flags := &Flags{}
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.AddFlags(flagSet)
		Expect(flagSet.Parse([]string{"--log-level", "debug"})).To(Succeed())
		Expect(flags.logLevel).To(Equal(DebugLevelString))
		Expect(flagSet.Lookup("log-destination")).ToNot(BeNil())
	})
})

var _ = Describe("Contextual logging", func() {
	It("stores and retrieves the logger from the context", func() {
		var lines []string
		l := &logger{Logger: newRecordingLogger(&lines)}
		ctx := IntoContext(context.Background(), l.WithValues("rollout", "demo"))

		FromContext(ctx).Info("Reconciling")
		Expect(lines).To(HaveLen(1))
		Expect(lines[0]).To(ContainSubstring(`"rollout"="demo"`))
		Expect(lines[0]).To(ContainSubstring("Reconciling"))
	})

	It("falls back to the global logger", func() {
		Expect(FromContext(context.Background())).ToNot(BeNil())
	})

	It("writes every level", func() {
		var lines []string
		l := &logger{Logger: newRecordingLogger(&lines)}
		l.Info("info")
		l.Warning("warning")
		l.Debug("debug")
		l.Trace("trace")
		l.Error(errors.New("boom"), "error")
		Expect(lines).To(HaveLen(5))
		Expect(lines[1]).To(ContainSubstring(`"severity"="warning"`))
		Expect(lines[4]).To(ContainSubstring("boom"))
	})
})

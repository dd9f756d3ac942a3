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

package plugin

import (
	"github.com/logrusorgru/aurora/v4"
	"github.com/spf13/cobra"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Configure color", func() {
	var cmd *cobra.Command

	BeforeEach(func() {
		cmd = &cobra.Command{Use: "test"}
		AddColorControlFlags(cmd)

		previous := aurora.DefaultColorizer
		DeferCleanup(func() { aurora.DefaultColorizer = previous })
	})

	It("colorizes when a terminal is attached", func() {
		Expect(cmd.ParseFlags(nil)).To(Succeed())
		Expect(configureColor(cmd, true)).To(Succeed())
		Expect(aurora.Red("x").String()).To(ContainSubstring("\x1b["))
	})

	It("does not colorize without a terminal", func() {
		Expect(cmd.ParseFlags(nil)).To(Succeed())
		Expect(configureColor(cmd, false)).To(Succeed())
		Expect(aurora.Red("x").String()).To(Equal("x"))
	})

	It("colorizes without a terminal when forced", func() {
		Expect(cmd.ParseFlags([]string{"--colors"})).To(Succeed())
		Expect(configureColor(cmd, false)).To(Succeed())
		Expect(aurora.Red("x").String()).To(ContainSubstring("\x1b["))
	})

	It("does not colorize on a terminal when disabled", func() {
		Expect(cmd.ParseFlags([]string{"--no-colors"})).To(Succeed())
		Expect(configureColor(cmd, true)).To(Succeed())
		Expect(aurora.Red("x").String()).To(Equal("x"))
	})

	It("colors the phases by severity", func() {
		Expect(cmd.ParseFlags([]string{"--colors"})).To(Succeed())
		Expect(configureColor(cmd, false)).To(Succeed())
		Expect(ColorizePhase(apiv1.RolloutPhaseHealthy).String()).To(Equal(aurora.Green(apiv1.RolloutPhaseHealthy).String()))
		Expect(ColorizePhase(apiv1.RolloutPhaseDegraded).String()).To(Equal(aurora.Red(apiv1.RolloutPhaseDegraded).String()))
		Expect(ColorizePhase(apiv1.RolloutPhasePaused).String()).To(Equal(aurora.Yellow(apiv1.RolloutPhasePaused).String()))
	})
})

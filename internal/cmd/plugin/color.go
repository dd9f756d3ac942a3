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
	"os"

	"github.com/logrusorgru/aurora/v4"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
)

// ConfigureColor renews aurora.DefaultColorizer based on flags and TTY
func ConfigureColor(cmd *cobra.Command) error {
	return configureColor(cmd, isatty.IsTerminal(os.Stdout.Fd()))
}

func configureColor(cmd *cobra.Command, isTTY bool) error {
	colors, err := cmd.Flags().GetBool("colors")
	if err != nil {
		return err
	}
	noColors, err := cmd.Flags().GetBool("no-colors")
	if err != nil {
		return err
	}

	var shouldColorize bool
	switch {
	case colors:
		shouldColorize = true
	case noColors:
		shouldColorize = false
	default:
		shouldColorize = isTTY
	}

	aurora.DefaultColorizer = aurora.New(
		aurora.WithColors(shouldColorize),
		aurora.WithHyperlinks(true),
	)
	return nil
}

// AddColorControlFlags adds color control flags to the command
func AddColorControlFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("colors", false, "Force colorized output even if no terminal is attached")
	cmd.PersistentFlags().Bool("no-colors", false, "Disable colorized output")
	cmd.MarkFlagsMutuallyExclusive("colors", "no-colors")
}

// ColorizePhase colors the phase of a Rollout by its severity
func ColorizePhase(phase apiv1.RolloutPhase) aurora.Value {
	switch phase {
	case apiv1.RolloutPhaseHealthy:
		return aurora.Green(phase)
	case apiv1.RolloutPhaseProgressing, apiv1.RolloutPhasePaused:
		return aurora.Yellow(phase)
	case apiv1.RolloutPhaseDegraded:
		return aurora.Red(phase)
	default:
		return aurora.Faint(phase)
	}
}

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

package promote

import (
	"github.com/spf13/cobra"

	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
)

// NewCmd create the new "promote" subcommand
func NewCmd() *cobra.Command {
	promoteCmd := &cobra.Command{
		Use:   "promote [rollout]",
		Short: "Skip the step in force of a Rollout, or promote it to stable with --full",
		Long: `Skip the step in force of a canary Rollout, moving on with the next one.
A blue-green Rollout waiting for promotion switches its active Service
to the new revision. With --full every remaining step is skipped and the
new revision is promoted as soon as it is available.`,
		Args:              plugin.RequiresArguments(1),
		GroupID:           plugin.GroupIDRollout,
		ValidArgsFunction: plugin.ValidRolloutArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			full, _ := cmd.Flags().GetBool("full")
			return PromoteViaPlugin(cmd.Context(), args[0], full)
		},
	}

	promoteCmd.Flags().Bool("full", false, "Skip every remaining step and promote the new revision")

	return promoteCmd
}

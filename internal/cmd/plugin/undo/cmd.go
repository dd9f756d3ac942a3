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

package undo

import (
	"github.com/spf13/cobra"

	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
)

// NewCmd create the new "undo" subcommand
func NewCmd() *cobra.Command {
	undoCmd := &cobra.Command{
		Use:   "undo [rollout]",
		Short: "Restore the pod template of a previous revision",
		Long: `Restore the pod template of a previous revision into the Rollout
specification. Without --to-revision the revision preceding the current
one is used. Restoring the stable revision is a fast rollback.`,
		Args:              plugin.RequiresArguments(1),
		GroupID:           plugin.GroupIDRollout,
		ValidArgsFunction: plugin.ValidRolloutArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			toRevision, _ := cmd.Flags().GetInt64("to-revision")
			return Undo(cmd.Context(), plugin.Client, plugin.Namespace, args[0], toRevision)
		},
	}

	undoCmd.Flags().Int64("to-revision", 0, "The revision to restore, defaults to the previous one")

	return undoCmd
}

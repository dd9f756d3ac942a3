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

package abort

import (
	"github.com/spf13/cobra"

	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
)

// NewCmd create the new "abort" subcommand
func NewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort [rollout]",
		Short: "Abort the rollout of the new revision, restoring the stable one",
		Long: `Abort the rollout of the new revision. Every request is sent back to
the stable revision and the new ReplicaSet is scaled down. The Rollout
stays Degraded until its template changes or the retry command is used.`,
		Args:              plugin.RequiresArguments(1),
		GroupID:           plugin.GroupIDRollout,
		ValidArgsFunction: plugin.ValidRolloutArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Abort(cmd.Context(), plugin.Client, plugin.Namespace, args[0])
		},
	}
}

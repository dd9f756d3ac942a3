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

package retry

import (
	"github.com/spf13/cobra"

	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
)

// NewCmd create the new "retry" subcommand
func NewCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "retry [rollout]",
		Short:             "Start again the rollout of an aborted revision",
		Args:              plugin.RequiresArguments(1),
		GroupID:           plugin.GroupIDRollout,
		ValidArgsFunction: plugin.ValidRolloutArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Retry(cmd.Context(), plugin.Client, plugin.Namespace, args[0])
		},
	}
}

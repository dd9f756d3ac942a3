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

package status

import (
	"github.com/spf13/cobra"

	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
)

// NewCmd create the new "status" subcommand
func NewCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:               "status [rollout]",
		Short:             "Get the status of a Rollout",
		Args:              plugin.RequiresArguments(1),
		GroupID:           plugin.GroupIDRollout,
		ValidArgsFunction: plugin.ValidRolloutArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := plugin.ConfigureColor(cmd); err != nil {
				return err
			}

			output, err := plugin.GetOutputFormat(cmd)
			if err != nil {
				return err
			}

			return Status(cmd.Context(), plugin.Client, plugin.Namespace, args[0], output, cmd.OutOrStdout())
		},
	}

	plugin.AddOutputFlag(statusCmd)

	return statusCmd
}

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

package list

import (
	"github.com/spf13/cobra"

	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
)

// NewCmd create the new "list" subcommand
func NewCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List the Rollouts and the progress of their revisions",
		Args:    cobra.NoArgs,
		GroupID: plugin.GroupIDMiscellaneous,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := plugin.ConfigureColor(cmd); err != nil {
				return err
			}

			allNamespaces, _ := cmd.Flags().GetBool("all-namespaces")
			selector, _ := cmd.Flags().GetString("selector")
			output, err := plugin.GetOutputFormat(cmd)
			if err != nil {
				return err
			}

			namespace := plugin.Namespace
			if allNamespaces {
				namespace = ""
			}
			return List(cmd.Context(), plugin.Client, namespace, selector, output, cmd.OutOrStdout())
		},
	}

	listCmd.Flags().BoolP("all-namespaces", "A", false, "List the Rollouts across all namespaces")
	listCmd.Flags().StringP("selector", "l", "", "Label selector to filter the Rollouts")
	plugin.AddOutputFlag(listCmd)

	return listCmd
}

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

/*
kubectl-rollouts is a kubectl plugin to inspect and drive the Rollouts
of the progressive delivery controller
*/
package main

import (
	"os"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin/abort"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin/list"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin/pause"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin/promote"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin/retry"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin/status"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin/undo"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/versions"
)

func main() {
	configFlags := genericclioptions.NewConfigFlags(true)

	rootCmd := &cobra.Command{
		Use:          "kubectl-rollouts",
		Short:        "A plugin to manage your progressive delivery Rollouts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return plugin.SetupKubernetesClient(configFlags)
		},
	}

	configFlags.AddFlags(rootCmd.PersistentFlags())
	plugin.AddColorControlFlags(rootCmd)

	rootCmd.AddGroup(
		&cobra.Group{
			ID:    plugin.GroupIDRollout,
			Title: "Rollout commands:",
		},
		&cobra.Group{
			ID:    plugin.GroupIDMiscellaneous,
			Title: "Miscellaneous:",
		},
	)

	versionCmd := versions.NewCmd()
	versionCmd.GroupID = plugin.GroupIDMiscellaneous

	subcommands := []*cobra.Command{
		status.NewCmd(),
		list.NewCmd(),
		promote.NewCmd(),
		abort.NewCmd(),
		retry.NewCmd(),
		undo.NewCmd(),
		pause.NewCmd(),
		pause.NewResumeCmd(),
		versionCmd,
	}
	rootCmd.AddCommand(subcommands...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

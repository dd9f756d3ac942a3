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

// Package plugin contains the common behaviors of the kubectl-rollouts subcommand
package plugin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/internal/scheme"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/replicaset"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
	"github.com/lily4499/gitops-argocd-gke/pkg/versions"
)

var (
	// Namespace to operate in
	Namespace string

	// KubeContext to operate with
	KubeContext string

	// NamespaceExplicitlyPassed indicates if the namespace was passed manually
	NamespaceExplicitlyPassed bool

	// Config is the Kubernetes configuration used
	Config *rest.Config

	// Client is the controller-runtime client
	Client client.Client
)

const (
	// GroupIDRollout represents an ID to group up the commands acting
	// on a single Rollout
	GroupIDRollout = "rollout"

	// GroupIDMiscellaneous represents an ID to group up miscellaneous commands
	GroupIDMiscellaneous = "misc"
)

// SetupKubernetesClient creates a k8s client to be used inside the kubectl-rollouts
// utility
func SetupKubernetesClient(configFlags *genericclioptions.ConfigFlags) error {
	var err error

	kubeconfig := configFlags.ToRawKubeConfigLoader()

	Config, err = kubeconfig.ClientConfig()
	if err != nil {
		return err
	}

	if err = createClient(Config); err != nil {
		return err
	}

	Namespace, NamespaceExplicitlyPassed, err = kubeconfig.Namespace()
	if err != nil {
		return err
	}

	if configFlags.Context != nil {
		KubeContext = *configFlags.Context
	}

	return nil
}

func createClient(cfg *rest.Config) error {
	var err error

	cfg.UserAgent = userAgent()

	Client, err = client.New(cfg, client.Options{Scheme: scheme.BuildWithAllKnownScheme()})
	if err != nil {
		return err
	}
	return nil
}

func userAgent() string {
	return fmt.Sprintf("kubectl-rollouts/v%s (%s)", versions.Version, versions.Info.Commit)
}

// GetRollout gets the Rollout with the passed name in the current namespace
func GetRollout(ctx context.Context, cli client.Client, namespace, name string) (*apiv1.Rollout, error) {
	var rollout apiv1.Rollout
	if err := cli.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, &rollout); err != nil {
		return nil, fmt.Errorf("rollout %s not found in namespace %s: %w", name, namespace, err)
	}
	return &rollout, nil
}

// ListReplicaSets gets the ReplicaSets controlled by a Rollout sorted by
// revision. The owner field index is only available in the controller
// cache, so the ReplicaSets are selected by label.
func ListReplicaSets(ctx context.Context, cli client.Client, rollout *apiv1.Rollout) ([]appsv1.ReplicaSet, error) {
	var replicaSetList appsv1.ReplicaSetList
	if err := cli.List(
		ctx,
		&replicaSetList,
		client.InNamespace(rollout.Namespace),
		client.MatchingLabelsSelector{Selector: labels.SelectorFromSet(labels.Set{
			utils.RolloutLabelName: rollout.Name,
		})},
	); err != nil {
		return nil, err
	}

	result := make([]appsv1.ReplicaSet, 0, len(replicaSetList.Items))
	for idx := range replicaSetList.Items {
		if utils.IsOwnedBy(&replicaSetList.Items[idx], rollout.UID) {
			result = append(result, replicaSetList.Items[idx])
		}
	}
	replicaset.SortByRevision(result)
	return result, nil
}

// completeRollouts is mainly used inside the unit tests
func completeRollouts(
	ctx context.Context,
	cli client.Client,
	namespace string,
	args []string,
	toComplete string,
) []string {
	var rollouts apiv1.RolloutList

	// Every command works on a single Rollout
	if len(args) == 1 {
		return []string{}
	}

	// We can't list the Rollouts, so we cannot provide any completion.
	// There's no way for us to provide an error message notifying
	// the user of what is happening.
	if err := cli.List(ctx, &rollouts, client.InNamespace(namespace)); err != nil {
		return []string{}
	}

	rolloutNames := make([]string, 0, len(rollouts.Items))
	for _, rollout := range rollouts.Items {
		if len(toComplete) == 0 || strings.HasPrefix(rollout.Name, toComplete) {
			rolloutNames = append(rolloutNames, rollout.Name)
		}
	}

	return rolloutNames
}

// CompleteRollouts will complete the Rollout name when necessary getting the
// list from the current namespace
func CompleteRollouts(ctx context.Context, args []string, toComplete string) []string {
	return completeRollouts(ctx, Client, Namespace, args, toComplete)
}

// ValidRolloutArgs is the shell completion function of the commands
// taking a Rollout name as their only argument
func ValidRolloutArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return CompleteRollouts(cmd.Context(), args, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// RequiresArguments will show the help message in case no argument has been provided
func RequiresArguments(nArgs int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < nArgs {
			_ = cmd.Help()
			os.Exit(0)
		}
		return nil
	}
}

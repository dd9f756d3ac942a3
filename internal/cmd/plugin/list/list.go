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

// Package list implements the kubectl-rollouts list command
package list

import (
	"context"
	"errors"
	"fmt"
	"io"

	apiLabels "k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
)

// ErrNoRollouts is raised when the list of Rollouts is empty
var ErrNoRollouts = errors.New("no rollouts were found or no permission to list rollouts")

// List prints the Rollouts of a namespace, or of every namespace when
// the passed one is empty
func List(
	ctx context.Context,
	cli client.Client,
	namespace string,
	labels string,
	output plugin.OutputFormat,
	writer io.Writer,
) error {
	rolloutList, err := getRollouts(ctx, cli, namespace, labels)
	if err != nil {
		return err
	}

	if len(rolloutList.Items) == 0 {
		return ErrNoRollouts
	}

	if output != plugin.OutputFormatText {
		return plugin.Print(rolloutList.Items, output, writer)
	}

	rollouts := plugin.NewTabby(writer)
	rollouts.AddHeader(
		"Namespace",
		"Name",
		"Strategy",
		"Phase",
		"Step",
		"Weight",
		"Available",
		"Message",
	)

	for idx := range rolloutList.Items {
		rollout := &rolloutList.Items[idx]
		rollouts.AddLine(
			rollout.Namespace,
			rollout.Name,
			valueOrDash(rollout.GetStrategyName()),
			plugin.ColorizePhase(rollout.Status.Phase),
			stepProgress(rollout),
			canaryWeight(rollout),
			fmt.Sprintf("%d/%d", rollout.Status.AvailableReplicas, rollout.GetReplicas()),
			rollout.Status.PhaseReason,
		)
	}

	rollouts.Print()
	return nil
}

func getRollouts(ctx context.Context, cli client.Client, namespace, labels string) (apiv1.RolloutList, error) {
	var rolloutList apiv1.RolloutList
	var opts []client.ListOption
	if namespace != "" {
		opts = append(opts, client.InNamespace(namespace))
	}

	if labels != "" {
		selector, err := apiLabels.Parse(labels)
		if err != nil {
			return rolloutList, err
		}
		opts = append(opts, client.MatchingLabelsSelector{Selector: selector})
	}

	err := cli.List(ctx, &rolloutList, opts...)
	return rolloutList, err
}

func stepProgress(rollout *apiv1.Rollout) string {
	if !rollout.IsCanary() {
		return "-"
	}
	steps := len(rollout.GetSteps())
	return fmt.Sprintf("%d/%d", min(int(rollout.GetCurrentStepIndex()), steps), steps)
}

func canaryWeight(rollout *apiv1.Rollout) string {
	weights := rollout.Status.Canary.Weights
	if !rollout.IsCanary() || weights == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", weights.Canary)
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

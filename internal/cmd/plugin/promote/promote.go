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

// Package promote implement the kubectl-rollouts promote command
package promote

import (
	"context"
	"errors"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
	"github.com/lily4499/gitops-argocd-gke/pkg/resources/status"
)

// ErrRolloutAborted is raised when promoting an aborted Rollout
var ErrRolloutAborted = errors.New("the rollout has been aborted, use the retry command to start it again")

// PromoteViaPlugin implements the `promote` plugin command
// nolint:revive
func PromoteViaPlugin(ctx context.Context, rolloutName string, full bool) error {
	return Promote(ctx, plugin.Client, plugin.Namespace, rolloutName, full)
}

// Promote skips the step in force of a Rollout or, when full is set,
// every remaining step
func Promote(ctx context.Context, cli client.Client, namespace, rolloutName string, full bool) error {
	rollout, err := plugin.GetRollout(ctx, cli, namespace, rolloutName)
	if err != nil {
		return err
	}

	if rollout.Status.CurrentPodHash == "" || rollout.Status.CurrentPodHash == rollout.Status.StableRS {
		fmt.Printf("Rollout %s is already running its stable revision\n", rolloutName)
		return nil
	}

	if rollout.IsAborted() {
		return ErrRolloutAborted
	}

	var message string
	if err := status.UpdateAndRefresh(ctx, cli, rollout, func(living *apiv1.Rollout) {
		message = promote(living, full, metav1.Now())
	}); err != nil {
		return err
	}

	fmt.Printf("Rollout %s: %s\n", rolloutName, message)
	if rollout.Spec.Paused {
		fmt.Printf("Rollout %s is paused, use the resume command to let it proceed\n", rolloutName)
	}
	return nil
}

// promote changes the status of a Rollout to skip its step in force,
// returning a description of the change
func promote(rollout *apiv1.Rollout, full bool, now metav1.Time) string {
	rollout.Status.PauseStartTime = nil
	rollout.Status.LastProgressTime = &now

	if full || rollout.IsBlueGreen() {
		rollout.Status.PromoteFull = true
		status.SetPhase(rollout, apiv1.RolloutPhaseProgressing, apiv1.ReasonRolloutResumed,
			"Full promotion requested by the user")
		return "full promotion requested"
	}

	steps := len(rollout.GetSteps())
	index := rollout.GetCurrentStepIndex()
	if int(index) < steps {
		index++
		rollout.Status.CurrentStepIndex = ptr.To(index)
		rollout.Status.StepAnalysis = nil
	}
	status.SetPhase(rollout, apiv1.RolloutPhaseProgressing, apiv1.ReasonRolloutResumed,
		fmt.Sprintf("Step %d/%d skipped by the user", index, steps))
	return fmt.Sprintf("moving to step %d/%d", index, steps)
}

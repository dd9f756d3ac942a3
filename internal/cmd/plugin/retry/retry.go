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

// Package retry implements the kubectl-rollouts retry command
package retry

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
	"github.com/lily4499/gitops-argocd-gke/pkg/resources/status"
)

// Retry clears the abort of the current revision, which is rolled out
// again starting from the first step
func Retry(ctx context.Context, cli client.Client, namespace, rolloutName string) error {
	rollout, err := plugin.GetRollout(ctx, cli, namespace, rolloutName)
	if err != nil {
		return err
	}

	if !rollout.IsAborted() {
		return fmt.Errorf("rollout %s has not been aborted", rolloutName)
	}

	if err := status.UpdateAndRefresh(ctx, cli, rollout, func(living *apiv1.Rollout) {
		retry(living, metav1.Now())
	}); err != nil {
		return err
	}

	fmt.Printf("Rollout %s: revision %s will be rolled out again\n",
		rolloutName, rollout.Status.CurrentPodHash)
	return nil
}

// retry resets the status of a Rollout to the beginning of the rollout
// of its current revision
func retry(rollout *apiv1.Rollout, now metav1.Time) {
	rollout.Status.Abort = false
	rollout.Status.AbortedAt = nil
	rollout.Status.PromoteFull = false
	rollout.Status.PauseStartTime = nil
	rollout.Status.StepAnalysis = nil
	rollout.Status.LastProgressTime = &now
	if rollout.IsCanary() {
		rollout.Status.CurrentStepIndex = ptr.To(int32(0))
	}

	status.SetPhase(rollout, apiv1.RolloutPhaseProgressing, apiv1.ReasonRolloutResumed,
		"Rollout retried by the user")
}

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

package controller

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/metrics"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/replicaset"
	"github.com/lily4499/gitops-argocd-gke/pkg/resources/status"
)

// updateStatus refreshes the replica counters of the Rollout and persists
// its status, if it changed during the reconciliation
func (r *RolloutReconciler) updateStatus(
	ctx context.Context,
	rollout *apiv1.Rollout,
	origRollout *apiv1.Rollout,
	set replicaset.Set,
) error {
	replicas, ready, available := replicaset.Totals(set.All())
	rollout.Status.Replicas = replicas
	rollout.Status.ReadyReplicas = ready
	rollout.Status.AvailableReplicas = available
	rollout.Status.UpdatedReplicas = 0
	if set.New != nil {
		rollout.Status.UpdatedReplicas = set.New.Status.Replicas
	}
	status.SetAvailableCondition(rollout)

	if err := status.PatchWithOptimisticLock(ctx, r.Client, rollout, origRollout); err != nil {
		return fmt.Errorf("while updating the rollout status: %w", err)
	}

	r.recordPhase(ctx, rollout, origRollout.Status.Phase)
	return nil
}

// recordPhase exports the phase and the traffic weights of the Rollout,
// and raises an event when the phase changed
func (r *RolloutReconciler) recordPhase(
	ctx context.Context,
	rollout *apiv1.Rollout,
	origPhase apiv1.RolloutPhase,
) {
	phase := rollout.Status.Phase
	metrics.RecordPhase(rollout.Namespace, rollout.Name, string(phase))
	if weights := rollout.Status.Canary.Weights; weights != nil {
		metrics.RecordCanaryWeight(rollout.Namespace, rollout.Name, weights.Canary)
	}

	if origPhase == phase {
		return
	}

	status.LogPhaseTransition(ctx, origPhase, phase)

	eventType := corev1.EventTypeNormal
	if phase == apiv1.RolloutPhaseDegraded {
		eventType = corev1.EventTypeWarning
	}
	r.Recorder.Eventf(rollout, eventType, "PhaseChanged",
		"Rollout phase changed to %s: %s", phase, rollout.GetStatusMessage())
}

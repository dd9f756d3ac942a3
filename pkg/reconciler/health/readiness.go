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

package health

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/replicaset"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

// ReadinessResult is the outcome of the readiness evaluation of a revision
type ReadinessResult struct {
	// Verdict is Pass when every desired replica is available, Fail
	// when a pod is failing, Running otherwise
	Verdict Verdict

	// Ready is the number of ready pods
	Ready int32

	// Available is the number of available pods
	Available int32

	// Message describes the outcome
	Message string
}

// ListPods gets the pods running a certain revision of a Rollout
func ListPods(
	ctx context.Context,
	cli client.Reader,
	rollout *apiv1.Rollout,
	podHash string,
) ([]corev1.Pod, error) {
	var podList corev1.PodList
	if err := cli.List(
		ctx,
		&podList,
		client.InNamespace(rollout.Namespace),
		client.MatchingLabels{
			utils.RolloutLabelName:         rollout.Name,
			utils.PodTemplateHashLabelName: podHash,
		},
	); err != nil {
		return nil, fmt.Errorf("while listing the pods of revision %s: %w", podHash, err)
	}

	return utils.FilterActivePods(podList.Items), nil
}

// EvaluateReadiness checks if the ReplicaSet of a revision has every
// desired replica available, detecting the pods that will never become ready
func EvaluateReadiness(
	replicaSet *appsv1.ReplicaSet,
	desiredReplicas int32,
	pods []corev1.Pod,
	restartThreshold int32,
) ReadinessResult {
	result := ReadinessResult{
		Ready:     replicaSet.Status.ReadyReplicas,
		Available: replicaSet.Status.AvailableReplicas,
	}

	for idx := range pods {
		if reason := utils.GetPodFailureReason(pods[idx], restartThreshold); reason != "" {
			result.Verdict = VerdictFail
			result.Message = reason
			return result
		}
	}

	if replicaset.IsAvailable(replicaSet, desiredReplicas) {
		result.Verdict = VerdictPass
		result.Message = fmt.Sprintf("%d/%d replicas available", result.Available, desiredReplicas)
		return result
	}

	result.Verdict = VerdictRunning
	result.Message = fmt.Sprintf("waiting for replicas: %d/%d available", result.Available, desiredReplicas)
	return result
}

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

package replicaset

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
)

// CleanupHistory deletes the ReplicaSets of old revisions exceeding the
// revision history limit of the Rollout, starting from the oldest ones.
// The stable and the new ReplicaSets are never deleted, nor the ones
// still running pods. The result is the number of deleted ReplicaSets.
func CleanupHistory(
	ctx context.Context,
	cli client.Client,
	rollout *apiv1.Rollout,
	set Set,
) (int, error) {
	contextLogger := log.FromContext(ctx)

	candidates := make([]*appsv1.ReplicaSet, 0, len(set.Old))
	for _, replicaSet := range set.Old {
		if replicaSet == set.New || replicaSet == set.Stable {
			continue
		}
		if replicaSet.DeletionTimestamp != nil {
			continue
		}
		if GetReplicas(replicaSet) != 0 || replicaSet.Status.Replicas != 0 {
			continue
		}
		candidates = append(candidates, replicaSet)
	}

	excess := len(candidates) - int(rollout.GetRevisionHistoryLimit())
	if excess <= 0 {
		return 0, nil
	}

	deleted := 0
	for _, replicaSet := range candidates[:excess] {
		contextLogger.Info("Deleting old ReplicaSet exceeding the revision history limit",
			"replicaSet", replicaSet.Name, "revision", GetRevision(replicaSet))
		err := cli.Delete(ctx, replicaSet, client.PropagationPolicy(metav1.DeletePropagationBackground))
		if err != nil && !apierrs.IsNotFound(err) {
			return deleted, fmt.Errorf("while deleting ReplicaSet %s: %w", replicaSet.Name, err)
		}
		deleted++
	}

	return deleted, nil
}

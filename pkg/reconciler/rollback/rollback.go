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

// Package rollback restores the stable revision of a Rollout after the
// new revision has been aborted
package rollback

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/replicaset"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/traffic"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

// Result is the outcome of a rollback pass
type Result struct {
	// Completed is true when the stable revision is serving every
	// request with all its replicas available
	Completed bool

	// Message describes what is still pending
	Message string
}

// Execute sends the traffic back to the stable revision, scales it back
// to the desired size and scales the aborted revision down. Every
// action is idempotent, and the stable ReplicaSet is never deleted.
// The traffic is moved before any pod is removed, so the aborted revision
// stops serving requests first.
func Execute(
	ctx context.Context,
	cli client.Client,
	rollout *apiv1.Rollout,
	set replicaset.Set,
	router traffic.Router,
) (Result, error) {
	contextLogger := log.FromContext(ctx).WithValues("router", router.Type())

	if set.Stable == nil {
		// Nothing to go back to: the aborted revision is the only one
		return Result{
			Completed: true,
			Message:   "no stable revision to restore",
		}, nil
	}

	stableHash := utils.GetPodTemplateHash(set.Stable)

	if err := router.Reset(ctx, rollout); err != nil {
		return Result{}, fmt.Errorf("while resetting the traffic routing: %w", err)
	}
	if rollout.IsCanary() {
		rollout.Status.Canary.Weights = traffic.StableOnly().ToStatus()
		if err := traffic.ReconcileCanaryServices(ctx, cli, rollout, stableHash, stableHash); err != nil {
			return Result{}, err
		}
	}
	if rollout.IsBlueGreen() {
		if err := traffic.ReconcileBlueGreenServices(ctx, cli, rollout, stableHash, stableHash); err != nil {
			return Result{}, err
		}
	}

	replicas := rollout.GetReplicas()
	if err := replicaset.RemoveScaleDownDeadline(ctx, cli, set.Stable); err != nil {
		return Result{}, err
	}
	scaled, err := replicaset.Scale(ctx, cli, set.Stable, replicas)
	if err != nil {
		return Result{}, err
	}
	if scaled {
		contextLogger.Info("Restored the stable revision size",
			"replicaSet", set.Stable.Name, "replicas", replicas)
	}

	for _, other := range set.All() {
		if other == set.Stable {
			continue
		}
		if _, err := replicaset.Scale(ctx, cli, other, 0); err != nil {
			return Result{}, err
		}
	}

	if !replicaset.IsAvailable(set.Stable, replicas) {
		return Result{
			Message: fmt.Sprintf("waiting for the stable revision: %d/%d replicas available",
				set.Stable.Status.AvailableReplicas, replicas),
		}, nil
	}

	return Result{Completed: true, Message: "stable revision restored"}, nil
}

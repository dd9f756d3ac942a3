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
	"errors"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

// ErrHashCollision is raised when a ReplicaSet with the name of the new
// revision exists but runs a different pod template. The collision count
// of the Rollout needs to be increased to get a new name.
var ErrHashCollision = errors.New("a ReplicaSet with the same name runs a different pod template")

// EnsureNew ensures the ReplicaSet running the pod template of the Rollout
// exists, creating it when needed. The boolean result is true when the
// ReplicaSet has just been created.
func EnsureNew(
	ctx context.Context,
	cli client.Client,
	rollout *apiv1.Rollout,
	podHash string,
	replicaSets []appsv1.ReplicaSet,
	inheritance utils.InheritanceController,
) (*appsv1.ReplicaSet, bool, error) {
	contextLogger := log.FromContext(ctx).WithValues("podHash", podHash)

	if existing := NewSet(replicaSets, podHash, "").New; existing != nil {
		return existing, false, SyncRevision(ctx, cli, existing, replicaSets)
	}

	desired := Build(rollout, podHash, MaxRevision(replicaSets)+1, inheritance)
	err := cli.Create(ctx, desired)
	if err == nil {
		contextLogger.Info("Created ReplicaSet", "replicaSet", desired.Name,
			"revision", GetRevision(desired))
		return desired, true, nil
	}
	if !apierrs.IsAlreadyExists(err) {
		return nil, false, fmt.Errorf("while creating ReplicaSet %s: %w", desired.Name, err)
	}

	var existing appsv1.ReplicaSet
	if err := cli.Get(ctx, client.ObjectKeyFromObject(desired), &existing); err != nil {
		return nil, false, fmt.Errorf("while getting ReplicaSet %s: %w", desired.Name, err)
	}

	if !equality.Semantic.DeepDerivative(desired.Spec.Template, existing.Spec.Template) {
		contextLogger.Warning("Pod template hash collision detected", "replicaSet", existing.Name)
		return nil, false, ErrHashCollision
	}

	switch {
	case utils.IsOwnedBy(&existing, rollout.UID):
		// The cache was lagging behind
		return &existing, false, nil

	case metav1.GetControllerOf(&existing) == nil:
		if err := adopt(ctx, cli, rollout, &existing); err != nil {
			return nil, false, err
		}
		return &existing, false, SyncRevision(ctx, cli, &existing, replicaSets)

	default:
		contextLogger.Warning("ReplicaSet is controlled by another object", "replicaSet", existing.Name)
		return nil, false, ErrHashCollision
	}
}

// adopt sets the Rollout as the controller of an orphaned ReplicaSet
func adopt(
	ctx context.Context,
	cli client.Client,
	rollout *apiv1.Rollout,
	replicaSet *appsv1.ReplicaSet,
) error {
	origReplicaSet := replicaSet.DeepCopy()
	utils.SetAsOwnedBy(&replicaSet.ObjectMeta, rollout.ObjectMeta, metav1.TypeMeta{
		APIVersion: apiv1.SchemeGroupVersion.String(),
		Kind:       apiv1.RolloutKind,
	})
	utils.LabelRolloutName(&replicaSet.ObjectMeta, rollout.Name)

	if err := cli.Patch(ctx, replicaSet, client.MergeFrom(origReplicaSet)); err != nil {
		return fmt.Errorf("while adopting ReplicaSet %s: %w", replicaSet.Name, err)
	}

	log.FromContext(ctx).Info("Adopted orphaned ReplicaSet", "replicaSet", replicaSet.Name)
	return nil
}

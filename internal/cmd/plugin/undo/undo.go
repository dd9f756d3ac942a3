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

// Package undo implements the kubectl-rollouts undo command
package undo

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/replicaset"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

// Undo restores the pod template of a previous revision. A zero
// toRevision means the revision preceding the current one.
func Undo(ctx context.Context, cli client.Client, namespace, rolloutName string, toRevision int64) error {
	rollout, err := plugin.GetRollout(ctx, cli, namespace, rolloutName)
	if err != nil {
		return err
	}

	replicaSets, err := plugin.ListReplicaSets(ctx, cli, rollout)
	if err != nil {
		return err
	}

	target, err := findTargetRevision(rollout, replicaSets, toRevision)
	if err != nil {
		return err
	}

	template := templateOf(target)
	revision := replicaset.GetRevision(target)
	if equality.Semantic.DeepEqual(rollout.Spec.Template, template) {
		fmt.Printf("Rollout %s is already running the template of revision %d\n", rolloutName, revision)
		return nil
	}

	if err := retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		var living apiv1.Rollout
		if err := cli.Get(ctx, client.ObjectKeyFromObject(rollout), &living); err != nil {
			return err
		}

		living.Spec.Template = template
		return cli.Update(ctx, &living)
	}); err != nil {
		return fmt.Errorf("while restoring revision %d: %w", revision, err)
	}

	fmt.Printf("Rollout %s: restoring the template of revision %d\n", rolloutName, revision)
	return nil
}

// findTargetRevision gets the ReplicaSet holding the revision to be restored
func findTargetRevision(
	rollout *apiv1.Rollout,
	replicaSets []appsv1.ReplicaSet,
	toRevision int64,
) (*appsv1.ReplicaSet, error) {
	if toRevision > 0 {
		target := replicaset.FindByRevision(replicaSets, toRevision)
		if target == nil {
			return nil, fmt.Errorf("revision %d not found in the history of rollout %s", toRevision, rollout.Name)
		}
		return target, nil
	}

	var current int64
	for idx := range replicaSets {
		if utils.GetPodTemplateHash(&replicaSets[idx]) == rollout.Status.CurrentPodHash {
			current = replicaset.GetRevision(&replicaSets[idx])
		}
	}
	if current == 0 {
		return nil, fmt.Errorf("the current revision of rollout %s is unknown", rollout.Name)
	}

	// The ReplicaSets are sorted by ascending revision
	for idx := len(replicaSets) - 1; idx >= 0; idx-- {
		if revision := replicaset.GetRevision(&replicaSets[idx]); revision > 0 && revision < current {
			return &replicaSets[idx], nil
		}
	}

	return nil, fmt.Errorf("rollout %s has no revision preceding revision %d", rollout.Name, current)
}

// templateOf gets the pod template of a ReplicaSet without the labels
// added by the controller
func templateOf(replicaSet *appsv1.ReplicaSet) corev1.PodTemplateSpec {
	template := replicaSet.Spec.Template.DeepCopy()
	delete(template.Labels, utils.PodTemplateHashLabelName)
	delete(template.Labels, utils.RolloutLabelName)
	if len(template.Labels) == 0 {
		template.Labels = nil
	}
	return *template
}

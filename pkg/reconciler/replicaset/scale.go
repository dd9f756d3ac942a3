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
	"time"

	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

// GetReplicas gets the desired number of replicas of a ReplicaSet
func GetReplicas(replicaSet *appsv1.ReplicaSet) int32 {
	return ptr.Deref(replicaSet.Spec.Replicas, 1)
}

// Scale sets the desired number of replicas of a ReplicaSet. The boolean
// result is false when the ReplicaSet was already at the requested size.
func Scale(ctx context.Context, cli client.Client, replicaSet *appsv1.ReplicaSet, replicas int32) (bool, error) {
	current := GetReplicas(replicaSet)
	if replicaSet.Spec.Replicas != nil && current == replicas {
		return false, nil
	}

	origReplicaSet := replicaSet.DeepCopy()
	replicaSet.Spec.Replicas = ptr.To(replicas)
	if err := cli.Patch(ctx, replicaSet, client.MergeFrom(origReplicaSet)); err != nil {
		return false, fmt.Errorf("while scaling ReplicaSet %s: %w", replicaSet.Name, err)
	}

	log.FromContext(ctx).Info("Scaled ReplicaSet",
		"replicaSet", replicaSet.Name, "from", current, "to", replicas)
	return true, nil
}

// IsAvailable checks if a ReplicaSet has the requested number of
// replicas and all of them are available
func IsAvailable(replicaSet *appsv1.ReplicaSet, replicas int32) bool {
	return GetReplicas(replicaSet) == replicas &&
		replicaSet.Status.AvailableReplicas >= replicas
}

// CanaryReplicas computes the replicas of the new and the stable revision
// for a canary weight. Without a traffic router the traffic is split by the
// number of pods, and the stable revision shrinks while the new one grows.
func CanaryReplicas(total, weight int32, trafficRouting bool) (newReplicas, stableReplicas int32) {
	newReplicas = utils.CeilPercentage(total, weight)
	if trafficRouting {
		return newReplicas, total
	}
	return newReplicas, total - newReplicas
}

// GetScaleDownDeadline gets the time after which a ReplicaSet of a previous
// revision can be scaled down, if it has been scheduled
func GetScaleDownDeadline(replicaSet *appsv1.ReplicaSet) (time.Time, bool) {
	value, ok := replicaSet.Annotations[utils.ScaleDownDeadlineAnnotationName]
	if !ok {
		return time.Time{}, false
	}

	deadline, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return deadline, true
}

// SetScaleDownDeadline schedules the scale down of a ReplicaSet, unless
// it has already been scheduled
func SetScaleDownDeadline(
	ctx context.Context,
	cli client.Client,
	replicaSet *appsv1.ReplicaSet,
	deadline time.Time,
) error {
	if _, ok := GetScaleDownDeadline(replicaSet); ok {
		return nil
	}

	origReplicaSet := replicaSet.DeepCopy()
	if replicaSet.Annotations == nil {
		replicaSet.Annotations = make(map[string]string)
	}
	replicaSet.Annotations[utils.ScaleDownDeadlineAnnotationName] = deadline.UTC().Format(time.RFC3339)
	if err := cli.Patch(ctx, replicaSet, client.MergeFrom(origReplicaSet)); err != nil {
		return fmt.Errorf("while scheduling the scale down of ReplicaSet %s: %w", replicaSet.Name, err)
	}

	log.FromContext(ctx).Info("Scheduled ReplicaSet scale down",
		"replicaSet", replicaSet.Name, "deadline", deadline)
	return nil
}

// RemoveScaleDownDeadline removes a scheduled scale down
func RemoveScaleDownDeadline(ctx context.Context, cli client.Client, replicaSet *appsv1.ReplicaSet) error {
	if _, ok := replicaSet.Annotations[utils.ScaleDownDeadlineAnnotationName]; !ok {
		return nil
	}

	origReplicaSet := replicaSet.DeepCopy()
	delete(replicaSet.Annotations, utils.ScaleDownDeadlineAnnotationName)
	if err := cli.Patch(ctx, replicaSet, client.MergeFrom(origReplicaSet)); err != nil {
		return fmt.Errorf("while removing the scale down deadline of ReplicaSet %s: %w", replicaSet.Name, err)
	}
	return nil
}

// ScaleDownOld scales to zero the ReplicaSets of previous revisions. When
// a delay is passed, the scale down is scheduled and happens in a later
// reconciliation, once the deadline has passed. The result is the time to
// wait before the next scheduled scale down, zero if none is pending.
func ScaleDownOld(
	ctx context.Context,
	cli client.Client,
	replicaSets []*appsv1.ReplicaSet,
	delay time.Duration,
	now time.Time,
) (time.Duration, error) {
	var requeueAfter time.Duration
	for _, replicaSet := range replicaSets {
		if GetReplicas(replicaSet) == 0 {
			continue
		}

		if delay > 0 {
			deadline, ok := GetScaleDownDeadline(replicaSet)
			if !ok {
				deadline = now.Add(delay)
				if err := SetScaleDownDeadline(ctx, cli, replicaSet, deadline); err != nil {
					return 0, err
				}
			}

			if remaining := deadline.Sub(now); remaining > 0 {
				if requeueAfter == 0 || remaining < requeueAfter {
					requeueAfter = remaining
				}
				continue
			}
		}

		if _, err := Scale(ctx, cli, replicaSet, 0); err != nil {
			return 0, err
		}
		if err := RemoveScaleDownDeadline(ctx, cli, replicaSet); err != nil {
			return 0, err
		}
	}

	return requeueAfter, nil
}

// Totals sums the replicas of the passed ReplicaSets
func Totals(replicaSets []*appsv1.ReplicaSet) (replicas, ready, available int32) {
	for _, replicaSet := range replicaSets {
		replicas += replicaSet.Status.Replicas
		ready += replicaSet.Status.ReadyReplicas
		available += replicaSet.Status.AvailableReplicas
	}
	return replicas, ready, available
}

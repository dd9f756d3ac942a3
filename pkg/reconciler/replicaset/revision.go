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
	"slices"
	"strconv"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

// GetRevision gets the revision number of a ReplicaSet, zero if
// the annotation is missing or invalid
func GetRevision(object metav1.Object) int64 {
	value, ok := object.GetAnnotations()[utils.RevisionAnnotationName]
	if !ok {
		return 0
	}

	revision, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return revision
}

// MaxRevision gets the highest revision number of the passed ReplicaSets
func MaxRevision(replicaSets []appsv1.ReplicaSet) int64 {
	var result int64
	for idx := range replicaSets {
		result = max(result, GetRevision(&replicaSets[idx]))
	}
	return result
}

// SortByRevision sorts the ReplicaSets by ascending revision, using the
// creation time to break ties
func SortByRevision(replicaSets []appsv1.ReplicaSet) {
	slices.SortStableFunc(replicaSets, func(a, b appsv1.ReplicaSet) int {
		revisionA, revisionB := GetRevision(&a), GetRevision(&b)
		switch {
		case revisionA < revisionB:
			return -1
		case revisionA > revisionB:
			return 1
		case a.CreationTimestamp.Before(&b.CreationTimestamp):
			return -1
		case b.CreationTimestamp.Before(&a.CreationTimestamp):
			return 1
		default:
			return 0
		}
	})
}

// FindByRevision gets the ReplicaSet having the passed revision number
func FindByRevision(replicaSets []appsv1.ReplicaSet, revision int64) *appsv1.ReplicaSet {
	for idx := range replicaSets {
		if GetRevision(&replicaSets[idx]) == revision {
			return &replicaSets[idx]
		}
	}
	return nil
}

// SyncRevision ensures a ReplicaSet being rolled out again carries the
// highest revision number
func SyncRevision(
	ctx context.Context,
	cli client.Client,
	replicaSet *appsv1.ReplicaSet,
	replicaSets []appsv1.ReplicaSet,
) error {
	maxRevision := MaxRevision(replicaSets)
	current := GetRevision(replicaSet)
	if current != 0 && current >= maxRevision {
		return nil
	}

	revision := maxRevision + 1
	origReplicaSet := replicaSet.DeepCopy()
	if replicaSet.Annotations == nil {
		replicaSet.Annotations = make(map[string]string)
	}
	replicaSet.Annotations[utils.RevisionAnnotationName] = strconv.FormatInt(revision, 10)
	if err := cli.Patch(ctx, replicaSet, client.MergeFrom(origReplicaSet)); err != nil {
		return fmt.Errorf("while updating the revision of ReplicaSet %s: %w", replicaSet.Name, err)
	}

	log.FromContext(ctx).Info("Updated ReplicaSet revision",
		"replicaSet", replicaSet.Name, "revision", revision)
	return nil
}

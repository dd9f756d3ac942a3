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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

// OwnerKey is the name of the field index on the ReplicaSets containing
// the name of the controlling Rollout
const OwnerKey = ".metadata.controller"

// IndexByOwner extracts the name of the Rollout controlling a ReplicaSet,
// to be used as a field indexer
func IndexByOwner(rawObj client.Object) []string {
	owner := metav1.GetControllerOf(rawObj)
	if owner == nil {
		return nil
	}

	if owner.Kind != apiv1.RolloutKind || owner.APIVersion != apiv1.SchemeGroupVersion.String() {
		return nil
	}

	return []string{owner.Name}
}

// List gets the ReplicaSets controlled by the Rollout, sorted by revision
func List(ctx context.Context, cli client.Reader, rollout *apiv1.Rollout) ([]appsv1.ReplicaSet, error) {
	var replicaSetList appsv1.ReplicaSetList
	if err := cli.List(
		ctx,
		&replicaSetList,
		client.InNamespace(rollout.Namespace),
		client.MatchingFields{OwnerKey: rollout.Name},
	); err != nil {
		return nil, fmt.Errorf("while listing the ReplicaSets of rollout %s: %w", rollout.Name, err)
	}

	result := make([]appsv1.ReplicaSet, 0, len(replicaSetList.Items))
	for idx := range replicaSetList.Items {
		// A Rollout with the same name could have been deleted and
		// recreated while its ReplicaSets are being collected
		if !utils.IsOwnedBy(&replicaSetList.Items[idx], rollout.UID) {
			continue
		}
		result = append(result, replicaSetList.Items[idx])
	}

	SortByRevision(result)
	return result, nil
}

// Set is the classification of the ReplicaSets of a Rollout
type Set struct {
	// New is the ReplicaSet running the pod template of the Rollout
	New *appsv1.ReplicaSet

	// Stable is the ReplicaSet running the last promoted revision. It is
	// the same object as New when the Rollout is at rest.
	Stable *appsv1.ReplicaSet

	// Old contains every other ReplicaSet, sorted by revision
	Old []*appsv1.ReplicaSet
}

// NewSet classifies the passed ReplicaSets given the hash of the current
// pod template and the hash of the stable revision
func NewSet(replicaSets []appsv1.ReplicaSet, podHash, stableHash string) Set {
	var result Set
	for idx := range replicaSets {
		replicaSet := &replicaSets[idx]
		hash := utils.GetPodTemplateHash(replicaSet)
		isNew := hash == podHash && podHash != ""
		isStable := hash == stableHash && stableHash != ""

		if isNew {
			result.New = replicaSet
		}
		if isStable {
			result.Stable = replicaSet
		}
		if !isNew && !isStable {
			result.Old = append(result.Old, replicaSet)
		}
	}

	return result
}

// All returns every ReplicaSet of the set, without duplicates
func (s Set) All() []*appsv1.ReplicaSet {
	result := make([]*appsv1.ReplicaSet, 0, len(s.Old)+2)
	if s.Stable != nil {
		result = append(result, s.Stable)
	}
	if s.New != nil && s.New != s.Stable {
		result = append(result, s.New)
	}
	return append(result, s.Old...)
}

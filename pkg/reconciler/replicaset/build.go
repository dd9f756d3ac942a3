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
	"strconv"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
	"github.com/lily4499/gitops-argocd-gke/pkg/versions"
)

// GetName gets the name of the ReplicaSet running a certain revision
// of a Rollout
func GetName(rolloutName, podHash string) string {
	return rolloutName + "-" + podHash
}

// Build creates the definition of the ReplicaSet running the pod template
// of the Rollout. The ReplicaSet starts with zero replicas, the caller
// scales it when the strategy allows it.
func Build(
	rollout *apiv1.Rollout,
	podHash string,
	revision int64,
	inheritance utils.InheritanceController,
) *appsv1.ReplicaSet {
	template := rollout.Spec.Template.DeepCopy()
	utils.LabelRolloutName(&template.ObjectMeta, rollout.Name)
	utils.LabelPodTemplateHash(&template.ObjectMeta, podHash)

	selector := &metav1.LabelSelector{}
	if rollout.Spec.Selector != nil {
		selector = rollout.Spec.Selector.DeepCopy()
	}
	if selector.MatchLabels == nil {
		selector.MatchLabels = make(map[string]string)
	}
	selector.MatchLabels[utils.PodTemplateHashLabelName] = podHash

	replicaSet := &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      GetName(rollout.Name, podHash),
			Namespace: rollout.Namespace,
		},
		Spec: appsv1.ReplicaSetSpec{
			Replicas:        ptr.To(int32(0)),
			MinReadySeconds: rollout.Spec.MinReadySeconds,
			Selector:        selector,
			Template:        *template,
		},
	}

	utils.InheritLabels(&replicaSet.ObjectMeta, rollout.Labels, nil, inheritance)
	utils.InheritAnnotations(&replicaSet.ObjectMeta, rollout.Annotations, nil, inheritance)
	utils.LabelRolloutName(&replicaSet.ObjectMeta, rollout.Name)
	utils.LabelPodTemplateHash(&replicaSet.ObjectMeta, podHash)
	utils.SetOperatorVersion(&replicaSet.ObjectMeta, versions.Version)
	replicaSet.Annotations[utils.RevisionAnnotationName] = strconv.FormatInt(revision, 10)

	utils.SetAsOwnedBy(&replicaSet.ObjectMeta, rollout.ObjectMeta, metav1.TypeMeta{
		APIVersion: apiv1.SchemeGroupVersion.String(),
		Kind:       apiv1.RolloutKind,
	})

	return replicaSet
}

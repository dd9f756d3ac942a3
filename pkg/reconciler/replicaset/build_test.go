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
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ReplicaSet definition", func() {
	It("is named, labelled and owned after the rollout", func() {
		rollout := newRollout()
		replicaSet := Build(rollout, "5d8f7c", 3, fakeInheritance{})

		Expect(replicaSet.Name).To(Equal("checkout-5d8f7c"))
		Expect(replicaSet.Namespace).To(Equal("shop"))
		Expect(*replicaSet.Spec.Replicas).To(BeZero())
		Expect(replicaSet.Spec.MinReadySeconds).To(Equal(int32(10)))
		Expect(replicaSet.Labels).To(HaveKeyWithValue(utils.RolloutLabelName, "checkout"))
		Expect(replicaSet.Labels).To(HaveKeyWithValue(utils.PodTemplateHashLabelName, "5d8f7c"))
		Expect(replicaSet.Annotations).To(HaveKeyWithValue(utils.RevisionAnnotationName, "3"))
		Expect(GetRevision(replicaSet)).To(Equal(int64(3)))

		owner := metav1.GetControllerOf(replicaSet)
		Expect(owner).ToNot(BeNil())
		Expect(owner.Kind).To(Equal(apiv1.RolloutKind))
		Expect(owner.UID).To(Equal(rollout.UID))
	})

	It("pins the selector and the pod labels to the pod template hash", func() {
		replicaSet := Build(newRollout(), "5d8f7c", 1, fakeInheritance{})
		Expect(replicaSet.Spec.Selector.MatchLabels).To(HaveKeyWithValue(utils.PodTemplateHashLabelName, "5d8f7c"))
		Expect(replicaSet.Spec.Selector.MatchLabels).To(HaveKeyWithValue("app", "checkout"))
		Expect(replicaSet.Spec.Template.Labels).To(HaveKeyWithValue(utils.PodTemplateHashLabelName, "5d8f7c"))
		Expect(replicaSet.Spec.Template.Labels).To(HaveKeyWithValue("app", "checkout"))
	})

	It("does not change the rollout", func() {
		rollout := newRollout()
		_ = Build(rollout, "5d8f7c", 1, fakeInheritance{})
		Expect(rollout.Spec.Template.Labels).ToNot(HaveKey(utils.PodTemplateHashLabelName))
		Expect(rollout.Spec.Selector.MatchLabels).ToNot(HaveKey(utils.PodTemplateHashLabelName))
	})

	It("inherits only the configured metadata", func() {
		replicaSet := Build(newRollout(), "5d8f7c", 1, fakeInheritance{})
		Expect(replicaSet.Labels).To(HaveKeyWithValue("app.kubernetes.io/part-of", "shop"))
		Expect(replicaSet.Labels).ToNot(HaveKey("internal"))
		Expect(replicaSet.Annotations).To(HaveKeyWithValue("team.example.com/owner", "payments"))
	})
})

var _ = Describe("ReplicaSet classification", func() {
	rollout := newRollout()
	replicaSets := []appsv1.ReplicaSet{
		*newOwnedReplicaSet(rollout, "aaa", 1, 0),
		*newOwnedReplicaSet(rollout, "bbb", 2, 5),
		*newOwnedReplicaSet(rollout, "ccc", 3, 1),
	}

	It("splits new, stable and old revisions", func() {
		set := NewSet(replicaSets, "ccc", "bbb")
		Expect(set.New.Name).To(Equal("checkout-ccc"))
		Expect(set.Stable.Name).To(Equal("checkout-bbb"))
		Expect(set.Old).To(HaveLen(1))
		Expect(set.All()).To(HaveLen(3))
		Expect(set.New).ToNot(BeIdenticalTo(set.Stable))
	})

	It("recognizes a rollout at rest", func() {
		set := NewSet(replicaSets, "bbb", "bbb")
		Expect(set.New).To(BeIdenticalTo(set.Stable))
		Expect(set.Old).To(HaveLen(2))
		Expect(set.All()).To(HaveLen(3))
	})

	It("sorts by revision", func() {
		unsorted := []appsv1.ReplicaSet{replicaSets[2], replicaSets[0], replicaSets[1]}
		SortByRevision(unsorted)
		Expect(GetRevision(&unsorted[0])).To(Equal(int64(1)))
		Expect(GetRevision(&unsorted[2])).To(Equal(int64(3)))
		Expect(MaxRevision(unsorted)).To(Equal(int64(3)))
		Expect(FindByRevision(unsorted, 2).Name).To(Equal("checkout-bbb"))
		Expect(FindByRevision(unsorted, 7)).To(BeNil())
	})

	It("indexes only the ReplicaSets controlled by a rollout", func() {
		Expect(IndexByOwner(&replicaSets[0])).To(ConsistOf("checkout"))
		Expect(IndexByOwner(&appsv1.ReplicaSet{})).To(BeEmpty())
	})
})

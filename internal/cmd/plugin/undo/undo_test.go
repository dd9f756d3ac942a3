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

package undo

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8client "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/internal/scheme"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("undo subcommand tests", func() {
	const namespace = "shop"
	var client k8client.Client

	templateWithImage := func(image string) corev1.PodTemplateSpec {
		return corev1.PodTemplateSpec{
			ObjectMeta: metav1.ObjectMeta{
				Labels: map[string]string{"app": "checkout"},
			},
			Spec: corev1.PodSpec{
				Containers: []corev1.Container{{Name: "checkout", Image: image}},
			},
		}
	}

	rollout := &apiv1.Rollout{}

	newReplicaSet := func(hash, revision, image string) *appsv1.ReplicaSet {
		template := templateWithImage(image)
		template.Labels[utils.RolloutLabelName] = "checkout"
		template.Labels[utils.PodTemplateHashLabelName] = hash

		replicaSet := &appsv1.ReplicaSet{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "checkout-" + hash,
				Namespace: namespace,
				Labels: map[string]string{
					utils.RolloutLabelName:         "checkout",
					utils.PodTemplateHashLabelName: hash,
				},
				Annotations: map[string]string{
					utils.RevisionAnnotationName: revision,
				},
			},
			Spec: appsv1.ReplicaSetSpec{
				Template: template,
			},
		}
		utils.SetAsOwnedBy(&replicaSet.ObjectMeta, rollout.ObjectMeta, metav1.TypeMeta{
			APIVersion: apiv1.SchemeGroupVersion.String(),
			Kind:       apiv1.RolloutKind,
		})
		return replicaSet
	}

	getTemplate := func(ctx SpecContext) corev1.PodTemplateSpec {
		var living apiv1.Rollout
		Expect(client.Get(ctx, k8client.ObjectKey{Namespace: namespace, Name: "checkout"}, &living)).
			To(Succeed())
		return living.Spec.Template
	}

	BeforeEach(func() {
		rollout = &apiv1.Rollout{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "checkout",
				Namespace: namespace,
				UID:       "4d6b0c2a-checkout",
			},
			Spec: apiv1.RolloutSpec{
				Template: templateWithImage("checkout:3.0"),
			},
			Status: apiv1.RolloutStatus{
				StableRS:       "bbbb",
				CurrentPodHash: "cccc",
			},
		}

		client = fake.NewClientBuilder().WithScheme(scheme.BuildWithAllKnownScheme()).
			WithObjects(
				rollout,
				newReplicaSet("aaaa", "1", "checkout:1.0"),
				newReplicaSet("bbbb", "2", "checkout:2.0"),
				newReplicaSet("cccc", "3", "checkout:3.0"),
			).
			WithStatusSubresource(rollout).
			Build()
	})

	It("restores the revision preceding the current one", func(ctx SpecContext) {
		Expect(Undo(ctx, client, namespace, "checkout", 0)).To(Succeed())

		template := getTemplate(ctx)
		Expect(template.Spec.Containers[0].Image).To(Equal("checkout:2.0"))
		Expect(template.Labels).To(Equal(map[string]string{"app": "checkout"}))
	})

	It("restores the requested revision", func(ctx SpecContext) {
		Expect(Undo(ctx, client, namespace, "checkout", 1)).To(Succeed())
		Expect(getTemplate(ctx).Spec.Containers[0].Image).To(Equal("checkout:1.0"))
	})

	It("fails when the requested revision is not in the history", func(ctx SpecContext) {
		Expect(Undo(ctx, client, namespace, "checkout", 9)).ToNot(Succeed())
		Expect(getTemplate(ctx).Spec.Containers[0].Image).To(Equal("checkout:3.0"))
	})

	It("does nothing when the template is already the requested one", func(ctx SpecContext) {
		Expect(Undo(ctx, client, namespace, "checkout", 3)).To(Succeed())
		Expect(getTemplate(ctx).Spec.Containers[0].Image).To(Equal("checkout:3.0"))
	})
})

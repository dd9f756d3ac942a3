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

package status

import (
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	schemeBuilder "github.com/lily4499/gitops-argocd-gke/internal/scheme"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newRollout() *apiv1.Rollout {
	return &apiv1.Rollout{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "checkout",
			Namespace: "default",
		},
		Spec: apiv1.RolloutSpec{
			Replicas: ptr.To(int32(3)),
		},
	}
}

var _ = Describe("Rollout phase", func() {
	It("keeps the conditions coherent with the phase", func() {
		rollout := newRollout()

		SetPhase(rollout, apiv1.RolloutPhasePaused, apiv1.ReasonRolloutPaused, "waiting for promotion")
		Expect(rollout.Status.PhaseReason).To(Equal("waiting for promotion"))
		Expect(meta.IsStatusConditionTrue(rollout.Status.Conditions, string(apiv1.ConditionPaused))).To(BeTrue())
		Expect(meta.IsStatusConditionTrue(rollout.Status.Conditions, string(apiv1.ConditionProgressing))).To(BeTrue())

		SetPhase(rollout, apiv1.RolloutPhaseHealthy, apiv1.ReasonRolloutCompleted, "")
		Expect(meta.IsStatusConditionTrue(rollout.Status.Conditions, string(apiv1.ConditionPaused))).To(BeFalse())
		Expect(meta.IsStatusConditionTrue(rollout.Status.Conditions, string(apiv1.ConditionHealthy))).To(BeTrue())
		Expect(meta.IsStatusConditionTrue(rollout.Status.Conditions, string(apiv1.ConditionProgressing))).To(BeFalse())

		SetPhase(rollout, apiv1.RolloutPhaseDegraded, apiv1.ReasonAnalysisFailed, "analysis failed")
		condition := meta.FindStatusCondition(rollout.Status.Conditions, string(apiv1.ConditionHealthy))
		Expect(condition.Status).To(Equal(metav1.ConditionFalse))
		Expect(condition.Reason).To(Equal(string(apiv1.ReasonAnalysisFailed)))
	})

	It("sets the available condition", func() {
		rollout := newRollout()
		rollout.Status.AvailableReplicas = 2
		SetAvailableCondition(rollout)
		Expect(meta.IsStatusConditionFalse(rollout.Status.Conditions, string(apiv1.ConditionAvailable))).To(BeTrue())

		rollout.Status.AvailableReplicas = 3
		SetAvailableCondition(rollout)
		Expect(meta.IsStatusConditionTrue(rollout.Status.Conditions, string(apiv1.ConditionAvailable))).To(BeTrue())
	})
})

var _ = Describe("Rollout status persistence", func() {
	var cli client.Client

	BeforeEach(func(ctx SpecContext) {
		cli = fake.NewClientBuilder().
			WithScheme(schemeBuilder.BuildWithAllKnownScheme()).
			WithStatusSubresource(&apiv1.Rollout{}).
			Build()
		Expect(cli.Create(ctx, newRollout())).To(Succeed())
	})

	It("registers the phase on the living object", func(ctx SpecContext) {
		rollout := newRollout()
		Expect(RegisterPhase(ctx, cli, rollout,
			apiv1.RolloutPhaseProgressing, apiv1.ReasonNewReplicaSetCreated, "rolling out")).To(Succeed())
		Expect(rollout.Status.Phase).To(Equal(apiv1.RolloutPhaseProgressing))

		var living apiv1.Rollout
		Expect(cli.Get(ctx, client.ObjectKeyFromObject(rollout), &living)).To(Succeed())
		Expect(living.Status.Phase).To(Equal(apiv1.RolloutPhaseProgressing))
		Expect(living.Status.PhaseReason).To(Equal("rolling out"))
	})

	It("applies every transaction", func(ctx SpecContext) {
		rollout := newRollout()
		Expect(UpdateAndRefresh(ctx, cli, rollout,
			func(r *apiv1.Rollout) { r.Status.Abort = true },
			func(r *apiv1.Rollout) { r.Status.CurrentStepIndex = ptr.To(int32(2)) },
		)).To(Succeed())
		Expect(rollout.Status.Abort).To(BeTrue())
		Expect(*rollout.Status.CurrentStepIndex).To(Equal(int32(2)))
	})

	It("does not patch an unchanged status", func(ctx SpecContext) {
		var living apiv1.Rollout
		Expect(cli.Get(ctx, client.ObjectKey{Namespace: "default", Name: "checkout"}, &living)).To(Succeed())
		resourceVersion := living.ResourceVersion

		Expect(PatchWithOptimisticLock(ctx, cli, living.DeepCopy(), &living)).To(Succeed())
		Expect(cli.Get(ctx, client.ObjectKeyFromObject(&living), &living)).To(Succeed())
		Expect(living.ResourceVersion).To(Equal(resourceVersion))
	})

	It("detects concurrent updates", func(ctx SpecContext) {
		var stale apiv1.Rollout
		Expect(cli.Get(ctx, client.ObjectKey{Namespace: "default", Name: "checkout"}, &stale)).To(Succeed())

		Expect(UpdateAndRefresh(ctx, cli, newRollout(), func(r *apiv1.Rollout) {
			r.Status.Abort = true
		})).To(Succeed())

		modified := stale.DeepCopy()
		modified.Status.Phase = apiv1.RolloutPhaseHealthy
		err := PatchWithOptimisticLock(ctx, cli, modified, &stale)
		Expect(err).To(HaveOccurred())
	})
})

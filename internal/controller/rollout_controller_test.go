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

package controller

import (
	"context"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/ptr"
	k8client "sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/replicaset"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func canaryStrategy(steps ...apiv1.CanaryStep) apiv1.RolloutStrategy {
	return apiv1.RolloutStrategy{
		Canary: &apiv1.CanaryStrategy{Steps: steps},
	}
}

func setWeightStep(weight int32) apiv1.CanaryStep {
	return apiv1.CanaryStep{SetWeight: ptr.To(weight)}
}

func pauseStep(duration time.Duration) apiv1.CanaryStep {
	return apiv1.CanaryStep{Pause: &apiv1.RolloutPause{Duration: &metav1.Duration{Duration: duration}}}
}

func analysisStep(templateName string) apiv1.CanaryStep {
	return apiv1.CanaryStep{Analysis: &apiv1.RolloutAnalysis{TemplateName: templateName}}
}

func newErrorRateTemplate() *apiv1.AnalysisTemplate {
	return &apiv1.AnalysisTemplate{
		ObjectMeta: metav1.ObjectMeta{Name: "error-rate", Namespace: rolloutNamespace},
		Spec: apiv1.AnalysisTemplateSpec{
			Metrics: []apiv1.Metric{
				{
					Name: "error-rate",
					SuccessCondition: &apiv1.MetricCondition{
						Operator:  apiv1.OperatorLessThan,
						Threshold: "0.05",
					},
					Provider: apiv1.MetricProvider{
						Prometheus: &apiv1.PrometheusMetric{
							Query: `sum(rate(http_requests_total{code=~"5.."}[1m]))`,
						},
					},
				},
			},
		},
	}
}

// conditionReason gets the reason of the current phase
func conditionReason(rollout *apiv1.Rollout) string {
	condition := meta.FindStatusCondition(rollout.Status.Conditions, string(apiv1.ConditionProgressing))
	if condition == nil {
		return ""
	}
	return condition.Reason
}

// crashingPod is a pod of the passed revision stuck in CrashLoopBackOff
func crashingPod(podHash string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "checkout-crashing",
			Namespace: rolloutNamespace,
			Labels: map[string]string{
				"app":                          rolloutName,
				utils.RolloutLabelName:         rolloutName,
				utils.PodTemplateHashLabelName: podHash,
			},
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{Name: "app", Image: "registry.example.com/checkout:2.0"}},
		},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{
				{
					Name:         "app",
					RestartCount: 1,
					State: corev1.ContainerState{
						Waiting: &corev1.ContainerStateWaiting{Reason: "CrashLoopBackOff"},
					},
				},
			},
		},
	}
}

// newStableIngress is the Ingress exposing the checkout-stable Service
func newStableIngress() *networkingv1.Ingress {
	return &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{
			Name:        rolloutName,
			Namespace:   rolloutNamespace,
			Annotations: map[string]string{"kubernetes.io/ingress.class": "nginx"},
		},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{{
				Host: "checkout.example.com",
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{
						Paths: []networkingv1.HTTPIngressPath{{
							Path:     "/",
							PathType: ptr.To(networkingv1.PathTypePrefix),
							Backend: networkingv1.IngressBackend{
								Service: &networkingv1.IngressServiceBackend{
									Name: "checkout-stable",
									Port: networkingv1.ServiceBackendPort{Number: 80},
								},
							},
						}},
					},
				},
			}},
		},
	}
}

// getCanaryWeight reads the weight annotation of the canary Ingress
func (env *testingEnvironment) getCanaryWeight(ctx context.Context, nginx *apiv1.NginxTrafficRouting) string {
	var ingress networkingv1.Ingress
	Expect(env.client.Get(ctx, types.NamespacedName{
		Namespace: rolloutNamespace,
		Name:      nginx.GetCanaryIngressName(rolloutName),
	}, &ingress)).To(Succeed())
	return ingress.Annotations[nginx.GetAnnotationPrefix()+"/canary-weight"]
}

var _ = Describe("Rollout reconciler", func() {
	var env *testingEnvironment

	BeforeEach(func() {
		env = buildTestEnvironment()
	})

	Context("with the canary strategy", func() {
		It("deploys the first revision without canary steps", func(ctx SpecContext) {
			rollout := newFakeRollout(canaryStrategy(setWeightStep(20), pauseStep(30*time.Second)))
			env.createRollout(ctx, rollout)

			env.reconcile(ctx)
			current := env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseProgressing))
			Expect(current.Status.StableRS).To(BeEmpty())
			Expect(current.Status.CurrentPodHash).ToNot(BeEmpty())
			Expect(current.Status.Selector).To(Equal("app=checkout"))

			replicaSet := env.getReplicaSet(ctx, current.Status.CurrentPodHash)
			Expect(replicaset.GetReplicas(replicaSet)).To(BeEquivalentTo(5))
			Expect(replicaSet.OwnerReferences).To(HaveLen(1))
			Expect(replicaSet.OwnerReferences[0].UID).To(Equal(rollout.UID))

			env.markReplicaSetsAvailable(ctx)
			env.reconcile(ctx)
			current = env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseHealthy))
			Expect(current.Status.StableRS).To(Equal(current.Status.CurrentPodHash))
			Expect(current.Status.CurrentStepIndex).To(HaveValue(BeEquivalentTo(2)))
			Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 100, Canary: 0}))
			Expect(current.Status.AvailableReplicas).To(BeEquivalentTo(5))
			Expect(meta.IsStatusConditionTrue(current.Status.Conditions, string(apiv1.ConditionAvailable))).
				To(BeTrue())
		})

		It("does nothing when reconciling a healthy Rollout again", func(ctx SpecContext) {
			stableHash := env.deployFirstRevision(ctx,
				newFakeRollout(canaryStrategy(setWeightStep(20), pauseStep(30*time.Second))))

			rolloutVersion := env.getRollout(ctx).ResourceVersion
			replicaSetVersion := env.getReplicaSet(ctx, stableHash).ResourceVersion

			result := env.reconcile(ctx)
			Expect(result.RequeueAfter).To(BeZero())
			Expect(env.getRollout(ctx).ResourceVersion).To(Equal(rolloutVersion))
			Expect(env.getReplicaSet(ctx, stableHash).ResourceVersion).To(Equal(replicaSetVersion))
		})

		It("walks every step and promotes the new revision", func(ctx SpecContext) {
			stableHash := env.deployFirstRevision(ctx, newFakeRollout(canaryStrategy(
				setWeightStep(20), pauseStep(30*time.Second), setWeightStep(100))))

			By("starting the new revision with a fifth of the pods", func() {
				env.updateImage(ctx, "registry.example.com/checkout:2.0")
				env.reconcile(ctx)

				current := env.getRollout(ctx)
				Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseProgressing))
				Expect(current.Status.CurrentPodHash).ToNot(Equal(stableHash))
				Expect(current.Status.StableRS).To(Equal(stableHash))
				Expect(current.Status.CurrentStepIndex).To(HaveValue(BeEquivalentTo(0)))

				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, current.Status.CurrentPodHash))).
					To(BeEquivalentTo(1))

				// No pods removed and no traffic before the new pods are available
				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
				Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 100}))
			})

			By("shifting the traffic once the new pods are available", func() {
				env.markReplicaSetsAvailable(ctx)
				env.reconcile(ctx)

				current := env.getRollout(ctx)
				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(4))
				Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 80, Canary: 20}))
				Expect(current.Status.CurrentStepIndex).To(HaveValue(BeEquivalentTo(1)))
			})

			By("pausing for the duration of the pause step", func() {
				result := env.reconcile(ctx)
				Expect(result.RequeueAfter).To(Equal(30 * time.Second))

				current := env.getRollout(ctx)
				Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhasePaused))
				Expect(current.Status.PauseStartTime).ToNot(BeNil())

				env.advanceClock(10 * time.Second)
				result = env.reconcile(ctx)
				Expect(result.RequeueAfter).To(Equal(20 * time.Second))
				Expect(env.getRollout(ctx).Status.CurrentStepIndex).To(HaveValue(BeEquivalentTo(1)))
			})

			By("resuming when the pause expires", func() {
				env.advanceClock(20 * time.Second)
				env.reconcile(ctx)

				current := env.getRollout(ctx)
				Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseProgressing))
				Expect(current.Status.CurrentStepIndex).To(HaveValue(BeEquivalentTo(2)))
				Expect(current.Status.PauseStartTime).To(BeNil())
			})

			By("moving every pod to the new revision", func() {
				env.reconcile(ctx)
				current := env.getRollout(ctx)
				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, current.Status.CurrentPodHash))).
					To(BeEquivalentTo(5))
				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(4))

				env.markReplicaSetsAvailable(ctx)
				env.reconcile(ctx)
				current = env.getRollout(ctx)
				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(0))
				Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 0, Canary: 100}))
				Expect(current.Status.CurrentStepIndex).To(HaveValue(BeEquivalentTo(3)))
			})

			By("promoting the new revision to stable", func() {
				env.reconcile(ctx)
				current := env.getRollout(ctx)
				Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseHealthy))
				Expect(current.Status.StableRS).To(Equal(current.Status.CurrentPodHash))
				Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 100, Canary: 0}))
				Expect(conditionReason(current)).To(Equal(string(apiv1.ReasonRolloutCompleted)))
			})
		})

		It("rolls back when a pod of the new revision is crash looping", func(ctx SpecContext) {
			stableHash := env.deployFirstRevision(ctx, newFakeRollout(canaryStrategy(
				setWeightStep(20), pauseStep(30*time.Second), setWeightStep(100))))

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			newHash := env.getRollout(ctx).Status.CurrentPodHash

			Expect(env.client.Create(ctx, crashingPod(newHash))).To(Succeed())
			env.reconcile(ctx)

			current := env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseDegraded))
			Expect(conditionReason(current)).To(Equal(string(apiv1.ReasonReplicasFailing)))
			Expect(current.Status.Abort).To(BeTrue())
			Expect(current.Status.AbortedAt).ToNot(BeNil())
			Expect(current.Status.StableRS).To(Equal(stableHash))
			Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 100, Canary: 0}))

			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, newHash))).To(BeEquivalentTo(0))

			By("staying degraded until something changes", func() {
				env.markReplicaSetsAvailable(ctx)
				env.reconcile(ctx)
				current := env.getRollout(ctx)
				Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseDegraded))
				Expect(current.Status.CurrentPodHash).To(Equal(newHash))
			})
		})

		It("rolls back when the step analysis fails", func(ctx SpecContext) {
			Expect(env.client.Create(ctx, newErrorRateTemplate())).To(Succeed())
			stableHash := env.deployFirstRevision(ctx, newFakeRollout(canaryStrategy(
				setWeightStep(20), analysisStep("error-rate"), setWeightStep(100))))

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			env.markReplicaSetsAvailable(ctx)
			env.reconcile(ctx)
			Expect(env.getRollout(ctx).Status.CurrentStepIndex).To(HaveValue(BeEquivalentTo(1)))

			env.provider.setValue(0.5)
			env.reconcile(ctx)

			current := env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseDegraded))
			Expect(conditionReason(current)).To(Equal(string(apiv1.ReasonAnalysisFailed)))
			Expect(current.Status.StepAnalysis).ToNot(BeNil())
			Expect(current.Status.StepAnalysis.Phase).To(Equal(apiv1.AnalysisPhaseFailed))
			Expect(current.Status.StepAnalysis.RunID).ToNot(BeEmpty())
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
		})

		It("advances when the step analysis succeeds", func(ctx SpecContext) {
			Expect(env.client.Create(ctx, newErrorRateTemplate())).To(Succeed())
			env.deployFirstRevision(ctx, newFakeRollout(canaryStrategy(
				setWeightStep(20), analysisStep("error-rate"), setWeightStep(100))))

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			env.markReplicaSetsAvailable(ctx)
			env.reconcile(ctx)

			env.provider.setValue(0.01)
			env.reconcile(ctx)

			current := env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseProgressing))
			Expect(current.Status.CurrentStepIndex).To(HaveValue(BeEquivalentTo(2)))
			Expect(current.Status.StepAnalysis).To(BeNil())
			Expect(env.provider.calls).To(Equal(1))
		})

		It("fails the analysis when its template does not exist", func(ctx SpecContext) {
			env.deployFirstRevision(ctx, newFakeRollout(canaryStrategy(
				setWeightStep(20), analysisStep("missing"))))

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			env.markReplicaSetsAvailable(ctx)
			env.reconcile(ctx)
			env.reconcile(ctx)

			current := env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseDegraded))
			Expect(current.Status.PhaseReason).To(ContainSubstring("not found"))
		})

		It("aborts a rollout not progressing within the deadline", func(ctx SpecContext) {
			rollout := newFakeRollout(canaryStrategy(setWeightStep(20), pauseStep(30*time.Second)))
			rollout.Spec.ProgressDeadlineSeconds = ptr.To(int32(60))
			stableHash := env.deployFirstRevision(ctx, rollout)

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			result := env.reconcile(ctx)
			Expect(result.RequeueAfter).To(Equal(60 * time.Second))

			env.advanceClock(61 * time.Second)
			env.reconcile(ctx)

			current := env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseDegraded))
			Expect(conditionReason(current)).To(Equal(string(apiv1.ReasonProgressDeadlineExceeded)))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, current.Status.CurrentPodHash))).
				To(BeEquivalentTo(0))
		})

		It("rolls back when requested by the user", func(ctx SpecContext) {
			stableHash := env.deployFirstRevision(ctx, newFakeRollout(canaryStrategy(
				setWeightStep(20), apiv1.CanaryStep{Pause: &apiv1.RolloutPause{}})))

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			env.markReplicaSetsAvailable(ctx)
			env.reconcile(ctx)
			env.reconcile(ctx)
			Expect(env.getRollout(ctx).Status.Phase).To(Equal(apiv1.RolloutPhasePaused))

			current := env.getRollout(ctx)
			current.Status.Abort = true
			current.Status.AbortedAt = ptr.To(metav1.NewTime(env.clock.Now()))
			Expect(env.client.Status().Update(ctx, current)).To(Succeed())

			env.reconcile(ctx)
			current = env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseDegraded))
			Expect(conditionReason(current)).To(Equal(string(apiv1.ReasonRolloutAborted)))
			Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 100, Canary: 0}))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, current.Status.CurrentPodHash))).
				To(BeEquivalentTo(0))
		})

		It("goes back to the stable revision when the template is reverted", func(ctx SpecContext) {
			stableHash := env.deployFirstRevision(ctx, newFakeRollout(canaryStrategy(
				setWeightStep(20), pauseStep(time.Hour))))

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			newHash := env.getRollout(ctx).Status.CurrentPodHash
			env.markReplicaSetsAvailable(ctx)
			env.reconcile(ctx)

			env.updateImage(ctx, "registry.example.com/checkout:1.0")
			env.reconcile(ctx)

			current := env.getRollout(ctx)
			Expect(current.Status.CurrentPodHash).To(Equal(stableHash))
			Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 100, Canary: 0}))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, newHash))).To(BeEquivalentTo(0))

			env.markReplicaSetsAvailable(ctx)
			env.reconcile(ctx)
			current = env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseHealthy))
		})

		It("holds a rollout paused by the user", func(ctx SpecContext) {
			env.deployFirstRevision(ctx, newFakeRollout(canaryStrategy(setWeightStep(20))))

			rollout := env.getRollout(ctx)
			rollout.Spec.Paused = true
			rollout.Spec.Template.Spec.Containers[0].Image = "registry.example.com/checkout:2.0"
			Expect(env.client.Update(ctx, rollout)).To(Succeed())

			env.reconcile(ctx)
			current := env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhasePaused))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, current.Status.CurrentPodHash))).
				To(BeEquivalentTo(0))
		})

		It("keeps every stable pod until the new revision is available", func(ctx SpecContext) {
			env.createService(ctx, "checkout-stable")
			rollout := newFakeRollout(canaryStrategy(setWeightStep(100)))
			rollout.Spec.Strategy.Canary.StableService = "checkout-stable"
			stableHash := env.deployFirstRevision(ctx, rollout)

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			current := env.getRollout(ctx)
			newHash := current.Status.CurrentPodHash
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, newHash))).To(BeEquivalentTo(5))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
			Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 100}))
			Expect(env.getServiceSelector(ctx, "checkout-stable")).To(Equal(stableHash))

			By("waiting while the new pods are starting", func() {
				env.reconcile(ctx)
				current := env.getRollout(ctx)
				Expect(conditionReason(current)).To(Equal(string(apiv1.ReasonWaitingForReplicas)))
				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
			})

			By("removing the stable pods once the new ones are available", func() {
				env.markReplicaSetsAvailable(ctx)
				env.reconcile(ctx)
				current := env.getRollout(ctx)
				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(0))
				Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 0, Canary: 100}))
				Expect(current.Status.CurrentStepIndex).To(HaveValue(BeEquivalentTo(1)))
			})
		})

		It("routes the traffic with the canary Ingress and resets it on abort", func(ctx SpecContext) {
			env.createService(ctx, "checkout-stable")
			env.createService(ctx, "checkout-canary")
			Expect(env.client.Create(ctx, newStableIngress())).To(Succeed())

			nginx := &apiv1.NginxTrafficRouting{StableIngress: rolloutName}
			rollout := newFakeRollout(canaryStrategy(setWeightStep(20), apiv1.CanaryStep{Pause: &apiv1.RolloutPause{}}))
			rollout.Spec.Strategy.Canary.StableService = "checkout-stable"
			rollout.Spec.Strategy.Canary.CanaryService = "checkout-canary"
			rollout.Spec.Strategy.Canary.TrafficRouting = &apiv1.TrafficRouting{Nginx: nginx}
			stableHash := env.deployFirstRevision(ctx, rollout)

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			newHash := env.getRollout(ctx).Status.CurrentPodHash
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, newHash))).To(BeEquivalentTo(1))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))

			By("sending a fifth of the requests to the new revision", func() {
				env.markReplicaSetsAvailable(ctx)
				env.reconcile(ctx)

				current := env.getRollout(ctx)
				Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 80, Canary: 20}))
				Expect(env.getCanaryWeight(ctx, nginx)).To(Equal("20"))
				Expect(env.getServiceSelector(ctx, "checkout-stable")).To(Equal(stableHash))
				Expect(env.getServiceSelector(ctx, "checkout-canary")).To(Equal(newHash))

				// The router splits the traffic, the stable revision keeps its size
				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
			})

			By("routing every request to the stable revision on abort", func() {
				env.reconcile(ctx)
				current := env.getRollout(ctx)
				Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhasePaused))

				current.Status.Abort = true
				current.Status.AbortedAt = ptr.To(metav1.NewTime(env.clock.Now()))
				Expect(env.client.Status().Update(ctx, current)).To(Succeed())
				env.reconcile(ctx)

				current = env.getRollout(ctx)
				Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseDegraded))
				Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 100, Canary: 0}))
				Expect(env.getCanaryWeight(ctx, nginx)).To(Equal("0"))
				Expect(env.getServiceSelector(ctx, "checkout-canary")).To(Equal(stableHash))
				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, newHash))).To(BeEquivalentTo(0))
			})
		})

		It("waits for the user when the step analysis is inconclusive", func(ctx SpecContext) {
			template := newErrorRateTemplate()
			template.Spec.Metrics[0].FailureCondition = &apiv1.MetricCondition{
				Operator:  apiv1.OperatorGreaterThan,
				Threshold: "0.2",
			}
			Expect(env.client.Create(ctx, template)).To(Succeed())
			stableHash := env.deployFirstRevision(ctx, newFakeRollout(canaryStrategy(
				setWeightStep(20), analysisStep("error-rate"), setWeightStep(100))))

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			env.markReplicaSetsAvailable(ctx)
			env.reconcile(ctx)
			Expect(env.getRollout(ctx).Status.CurrentStepIndex).To(HaveValue(BeEquivalentTo(1)))

			env.provider.setValue(0.1)
			env.reconcile(ctx)

			current := env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhasePaused))
			Expect(conditionReason(current)).To(Equal(string(apiv1.ReasonAnalysisInconclusive)))
			Expect(current.Status.StepAnalysis.Phase).To(Equal(apiv1.AnalysisPhaseInconclusive))
			runID := current.Status.StepAnalysis.RunID
			Expect(runID).ToNot(BeEmpty())
			Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 80, Canary: 20}))

			By("staying paused without measuring again", func() {
				env.advanceClock(time.Hour)
				env.reconcile(ctx)
				current := env.getRollout(ctx)
				Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhasePaused))
				Expect(current.Status.Abort).To(BeFalse())
				Expect(current.Status.StepAnalysis.RunID).To(Equal(runID))
				Expect(env.provider.calls).To(Equal(1))
			})

			By("moving to the next step when the user promotes the rollout", func() {
				current := env.getRollout(ctx)
				current.Status.CurrentStepIndex = ptr.To(int32(2))
				current.Status.StepAnalysis = nil
				current.Status.LastProgressTime = ptr.To(metav1.NewTime(env.clock.Now()))
				current.Status.Phase = apiv1.RolloutPhaseProgressing
				Expect(env.client.Status().Update(ctx, current)).To(Succeed())

				env.reconcile(ctx)
				env.markReplicaSetsAvailable(ctx)
				env.reconcile(ctx)
				Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(0))

				env.reconcile(ctx)
				current = env.getRollout(ctx)
				Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseHealthy))
				Expect(current.Status.StableRS).ToNot(Equal(stableHash))
			})
		})

		It("restarts from the first step when the step index is negative", func(ctx SpecContext) {
			env.deployFirstRevision(ctx, newFakeRollout(canaryStrategy(
				setWeightStep(20), pauseStep(time.Hour))))

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			env.markReplicaSetsAvailable(ctx)

			current := env.getRollout(ctx)
			current.Status.CurrentStepIndex = ptr.To(int32(-1))
			Expect(env.client.Status().Update(ctx, current)).To(Succeed())

			env.reconcile(ctx)
			current = env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseProgressing))
			Expect(current.Status.CurrentStepIndex).To(HaveValue(BeEquivalentTo(1)))
			Expect(current.Status.Canary.Weights).To(Equal(&apiv1.TrafficWeights{Stable: 80, Canary: 20}))
		})

		It("restarts the progress deadline when an invalid spec is fixed", func(ctx SpecContext) {
			stableHash := env.deployFirstRevision(ctx, newFakeRollout(canaryStrategy(
				setWeightStep(20), pauseStep(time.Hour))))

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)

			current := env.getRollout(ctx)
			strategy := current.Spec.Strategy
			current.Spec.Strategy = apiv1.RolloutStrategy{}
			Expect(env.client.Update(ctx, current)).To(Succeed())
			env.reconcile(ctx)
			Expect(conditionReason(env.getRollout(ctx))).To(Equal(string(apiv1.ReasonInvalidSpec)))

			env.advanceClock(15 * time.Minute)
			current = env.getRollout(ctx)
			current.Spec.Strategy = strategy
			Expect(env.client.Update(ctx, current)).To(Succeed())
			env.reconcile(ctx)

			current = env.getRollout(ctx)
			Expect(current.Status.Abort).To(BeFalse())
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseProgressing))
			Expect(conditionReason(current)).To(Equal(string(apiv1.ReasonWaitingForReplicas)))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, current.Status.CurrentPodHash))).
				To(BeEquivalentTo(1))
		})
	})

	Context("with the blue-green strategy", func() {
		var rollout *apiv1.Rollout

		BeforeEach(func(ctx SpecContext) {
			env.createService(ctx, "checkout-active")
			env.createService(ctx, "checkout-preview")
			rollout = newFakeRollout(apiv1.RolloutStrategy{
				BlueGreen: &apiv1.BlueGreenStrategy{
					ActiveService:         "checkout-active",
					PreviewService:        "checkout-preview",
					ScaleDownDelaySeconds: ptr.To(int32(30)),
				},
			})
		})

		It("exposes the new revision through the preview Service before promoting it", func(ctx SpecContext) {
			stableHash := env.deployFirstRevision(ctx, rollout)
			Expect(env.getServiceSelector(ctx, "checkout-active")).To(Equal(stableHash))

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			newHash := env.getRollout(ctx).Status.CurrentPodHash
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, newHash))).To(BeEquivalentTo(5))
			Expect(env.getServiceSelector(ctx, "checkout-active")).To(Equal(stableHash))
			Expect(env.getServiceSelector(ctx, "checkout-preview")).To(Equal(newHash))

			By("promoting it once available", func() {
				env.markReplicaSetsAvailable(ctx)
				result := env.reconcile(ctx)
				Expect(result.RequeueAfter).To(Equal(30 * time.Second))

				current := env.getRollout(ctx)
				Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseHealthy))
				Expect(current.Status.StableRS).To(Equal(newHash))
				Expect(current.Status.BlueGreen.ActiveSelector).To(Equal(newHash))
				Expect(env.getServiceSelector(ctx, "checkout-active")).To(Equal(newHash))
			})

			By("scaling down the previous revision after the delay", func() {
				previous := env.getReplicaSet(ctx, stableHash)
				Expect(replicaset.GetReplicas(previous)).To(BeEquivalentTo(5))
				_, scheduled := replicaset.GetScaleDownDeadline(previous)
				Expect(scheduled).To(BeTrue())

				env.advanceClock(31 * time.Second)
				env.reconcile(ctx)
				previous = env.getReplicaSet(ctx, stableHash)
				Expect(replicaset.GetReplicas(previous)).To(BeEquivalentTo(0))
				Expect(previous.Annotations).ToNot(HaveKey(utils.ScaleDownDeadlineAnnotationName))
			})
		})

		It("waits for the user when the auto promotion is disabled", func(ctx SpecContext) {
			rollout.Spec.Strategy.BlueGreen.AutoPromotionEnabled = ptr.To(false)
			stableHash := env.deployFirstRevision(ctx, rollout)

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			env.markReplicaSetsAvailable(ctx)
			env.reconcile(ctx)

			current := env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhasePaused))
			Expect(conditionReason(current)).To(Equal(string(apiv1.ReasonWaitingForPromotion)))
			Expect(env.getServiceSelector(ctx, "checkout-active")).To(Equal(stableHash))

			current.Status.PromoteFull = true
			Expect(env.client.Status().Update(ctx, current)).To(Succeed())
			env.reconcile(ctx)

			current = env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseHealthy))
			Expect(current.Status.PromoteFull).To(BeFalse())
			Expect(env.getServiceSelector(ctx, "checkout-active")).To(Equal(current.Status.StableRS))
		})

		It("rolls back when the pre-promotion analysis fails", func(ctx SpecContext) {
			Expect(env.client.Create(ctx, newErrorRateTemplate())).To(Succeed())
			rollout.Spec.Strategy.BlueGreen.PrePromotionAnalysis = &apiv1.RolloutAnalysis{TemplateName: "error-rate"}
			stableHash := env.deployFirstRevision(ctx, rollout)

			env.updateImage(ctx, "registry.example.com/checkout:2.0")
			env.reconcile(ctx)
			newHash := env.getRollout(ctx).Status.CurrentPodHash
			Expect(env.getServiceSelector(ctx, "checkout-preview")).To(Equal(newHash))

			env.provider.setValue(0.5)
			env.markReplicaSetsAvailable(ctx)
			env.reconcile(ctx)

			current := env.getRollout(ctx)
			Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseDegraded))
			Expect(conditionReason(current)).To(Equal(string(apiv1.ReasonAnalysisFailed)))
			Expect(current.Status.StepAnalysis).ToNot(BeNil())
			Expect(current.Status.StepAnalysis.StepIndex).To(BeEquivalentTo(apiv1.PrePromotionStepIndex))
			Expect(current.Status.StableRS).To(Equal(stableHash))
			Expect(env.getServiceSelector(ctx, "checkout-active")).To(Equal(stableHash))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, stableHash))).To(BeEquivalentTo(5))
			Expect(replicaset.GetReplicas(env.getReplicaSet(ctx, newHash))).To(BeEquivalentTo(0))
		})
	})

	It("ignores a Rollout which has been deleted", func(ctx SpecContext) {
		Expect(env.reconcile(ctx).RequeueAfter).To(BeZero())
	})

	It("marks as degraded a Rollout without a strategy", func(ctx SpecContext) {
		env.createRollout(ctx, newFakeRollout(apiv1.RolloutStrategy{}))
		env.reconcile(ctx)

		current := env.getRollout(ctx)
		Expect(current.Status.Phase).To(Equal(apiv1.RolloutPhaseDegraded))
		Expect(conditionReason(current)).To(Equal(string(apiv1.ReasonInvalidSpec)))

		var replicaSets appsv1.ReplicaSetList
		Expect(env.client.List(ctx, &replicaSets, k8client.InNamespace(rolloutNamespace))).To(Succeed())
		Expect(replicaSets.Items).To(BeEmpty())
	})
})

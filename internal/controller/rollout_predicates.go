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

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

var (
	isRolloutPod = func(object client.Object) bool {
		_, ok := object.(*corev1.Pod)
		if !ok {
			return false
		}
		_, hasLabel := object.GetLabels()[utils.RolloutLabelName]
		return hasLabel
	}

	// The ReplicaSet status already tracks the readiness of the pods, we
	// need the pod events only to detect the containers that keep failing
	rolloutPodsPredicate = predicate.Funcs{
		CreateFunc: func(_ event.CreateEvent) bool {
			return false
		},
		DeleteFunc: func(_ event.DeleteEvent) bool {
			return false
		},
		GenericFunc: func(_ event.GenericEvent) bool {
			return false
		},
		UpdateFunc: func(e event.UpdateEvent) bool {
			if !isRolloutPod(e.ObjectNew) {
				return false
			}

			oldPod, oldOk := e.ObjectOld.(*corev1.Pod)
			newPod, newOk := e.ObjectNew.(*corev1.Pod)
			if !oldOk || !newOk {
				return false
			}

			return !areContainerStatusesSame(oldPod.Status.ContainerStatuses, newPod.Status.ContainerStatuses)
		},
	}
)

// checks if the restart counts and the waiting reasons of the containers are the same
func areContainerStatusesSame(s1, s2 []corev1.ContainerStatus) bool {
	if len(s1) != len(s2) {
		return false
	}

	for idx := range s1 {
		if s1[idx].RestartCount != s2[idx].RestartCount {
			return false
		}
		if !equality.Semantic.DeepEqual(s1[idx].State.Waiting, s2[idx].State.Waiting) {
			return false
		}
	}

	return true
}

// mapPodToRollout maps a pod to the Rollout running it
func mapPodToRollout(_ context.Context, obj client.Object) []reconcile.Request {
	rolloutName, ok := obj.GetLabels()[utils.RolloutLabelName]
	if !ok {
		return nil
	}

	return []reconcile.Request{
		{
			NamespacedName: types.NamespacedName{
				Namespace: obj.GetNamespace(),
				Name:      rolloutName,
			},
		},
	}
}

// mapAnalysisTemplateToRollouts returns a function mapping the changes of an
// AnalysisTemplate to the Rollouts referring to it
func (r *RolloutReconciler) mapAnalysisTemplateToRollouts() handler.MapFunc {
	return func(ctx context.Context, obj client.Object) []reconcile.Request {
		template, ok := obj.(*apiv1.AnalysisTemplate)
		if !ok {
			return nil
		}

		var rollouts apiv1.RolloutList
		if err := r.List(ctx, &rollouts, client.InNamespace(template.Namespace)); err != nil {
			log.FromContext(ctx).Error(err, "while getting rollout list", "namespace", template.Namespace)
			return nil
		}

		return filterRolloutsUsingTemplate(rollouts, template.Name)
	}
}

// filterRolloutsUsingTemplate returns a list of reconcile.Request for the
// rollouts having an analysis based on the passed template
func filterRolloutsUsingTemplate(rollouts apiv1.RolloutList, templateName string) []reconcile.Request {
	var requests []reconcile.Request
	for idx := range rollouts.Items {
		rollout := &rollouts.Items[idx]
		if !usesAnalysisTemplate(rollout, templateName) {
			continue
		}
		requests = append(requests, reconcile.Request{
			NamespacedName: types.NamespacedName{
				Name:      rollout.Name,
				Namespace: rollout.Namespace,
			},
		})
	}
	return requests
}

func usesAnalysisTemplate(rollout *apiv1.Rollout, templateName string) bool {
	for _, step := range rollout.GetSteps() {
		if step.Analysis != nil && step.Analysis.TemplateName == templateName {
			return true
		}
	}

	if bg := rollout.Spec.Strategy.BlueGreen; bg != nil &&
		bg.PrePromotionAnalysis != nil &&
		bg.PrePromotionAnalysis.TemplateName == templateName {
		return true
	}

	return false
}

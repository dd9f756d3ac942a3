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

package specs

import (
	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

// DefaultMetricsPath is the HTTP path scraped when the Rollout does not
// specify one
const DefaultMetricsPath = "/metrics"

// RolloutPodMonitorManager builds the PodMonitor scraping the pods of
// every revision of a Rollout
type RolloutPodMonitorManager struct {
	rollout *apiv1.Rollout
}

// NewRolloutPodMonitorManager returns a new instance of RolloutPodMonitorManager
func NewRolloutPodMonitorManager(rollout *apiv1.Rollout) *RolloutPodMonitorManager {
	return &RolloutPodMonitorManager{rollout: rollout}
}

// IsPodMonitorEnabled returns a boolean indicating if the PodMonitor should exists or not
func (c RolloutPodMonitorManager) IsPodMonitorEnabled() bool {
	return c.rollout.Spec.Monitoring != nil && c.rollout.Spec.Monitoring.EnablePodMonitor
}

// BuildPodMonitor builds a new PodMonitor object. The pod template hash
// is copied in the scraped samples, so that the analyses can compare the
// stable and the new revision.
func (c RolloutPodMonitorManager) BuildPodMonitor() *monitoringv1.PodMonitor {
	meta := metav1.ObjectMeta{
		Namespace: c.rollout.Namespace,
		Name:      c.rollout.Name,
		Labels: map[string]string{
			utils.RolloutLabelName: c.rollout.Name,
		},
	}

	utils.SetAsOwnedBy(&meta, c.rollout.ObjectMeta, metav1.TypeMeta{
		APIVersion: apiv1.SchemeGroupVersion.String(),
		Kind:       apiv1.RolloutKind,
	})

	endpoint := monitoringv1.PodMetricsEndpoint{
		Path: DefaultMetricsPath,
	}
	if monitoring := c.rollout.Spec.Monitoring; monitoring != nil {
		if monitoring.Path != "" {
			endpoint.Path = monitoring.Path
		}
		if monitoring.Interval != "" {
			endpoint.Interval = monitoringv1.Duration(monitoring.Interval)
		}
	}

	spec := monitoringv1.PodMonitorSpec{
		Selector: metav1.LabelSelector{
			MatchLabels: map[string]string{
				utils.RolloutLabelName: c.rollout.Name,
			},
		},
		PodTargetLabels: []string{
			utils.RolloutLabelName,
			utils.PodTemplateHashLabelName,
		},
		PodMetricsEndpoints: []monitoringv1.PodMetricsEndpoint{endpoint},
	}

	return &monitoringv1.PodMonitor{
		ObjectMeta: meta,
		Spec:       spec,
	}
}

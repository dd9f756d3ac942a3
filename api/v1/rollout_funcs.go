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

package v1

import (
	"time"

	"k8s.io/utils/ptr"

	"github.com/lily4499/gitops-argocd-gke/internal/configuration"
)

const (
	// DefaultReplicas is the number of replicas of a Rollout not specifying it
	DefaultReplicas = 1

	// DefaultRevisionHistoryLimit is the number of old ReplicaSets retained
	DefaultRevisionHistoryLimit = 10

	// DefaultScaleDownDelaySeconds is the delay before scaling down the
	// previous revision of a blue-green Rollout
	DefaultScaleDownDelaySeconds = 30

	// DefaultNginxAnnotationPrefix is the prefix of the canary annotations
	// of the NGINX ingress controller
	DefaultNginxAnnotationPrefix = "nginx.ingress.kubernetes.io"

	// PrePromotionStepIndex is the step index recorded in the status of
	// a blue-green pre-promotion analysis
	PrePromotionStepIndex = -1
)

// SetDefaults apply the defaults to undefined values in a Rollout
func (r *Rollout) SetDefaults() {
	if r.Spec.Replicas == nil {
		r.Spec.Replicas = ptr.To(int32(DefaultReplicas))
	}

	if r.Spec.RevisionHistoryLimit == nil {
		r.Spec.RevisionHistoryLimit = ptr.To(int32(DefaultRevisionHistoryLimit))
	}

	if r.Spec.ProgressDeadlineSeconds == nil {
		r.Spec.ProgressDeadlineSeconds = ptr.To(
			int32(configuration.Current.GetDefaultProgressDeadline() / time.Second)) //nolint:gosec
	}

	if bg := r.Spec.Strategy.BlueGreen; bg != nil {
		if bg.AutoPromotionEnabled == nil {
			bg.AutoPromotionEnabled = ptr.To(true)
		}
		if bg.ScaleDownDelaySeconds == nil {
			bg.ScaleDownDelaySeconds = ptr.To(int32(DefaultScaleDownDelaySeconds))
		}
	}

	if canary := r.Spec.Strategy.Canary; canary != nil &&
		canary.TrafficRouting != nil &&
		canary.TrafficRouting.Nginx != nil &&
		canary.TrafficRouting.Nginx.AnnotationPrefix == "" {
		canary.TrafficRouting.Nginx.AnnotationPrefix = DefaultNginxAnnotationPrefix
	}
}

// GetReplicas gets the number of desired replicas
func (r *Rollout) GetReplicas() int32 {
	if r.Spec.Replicas == nil {
		return DefaultReplicas
	}
	return *r.Spec.Replicas
}

// GetRevisionHistoryLimit gets the number of old ReplicaSets to retain
func (r *Rollout) GetRevisionHistoryLimit() int32 {
	if r.Spec.RevisionHistoryLimit == nil {
		return DefaultRevisionHistoryLimit
	}
	return *r.Spec.RevisionHistoryLimit
}

// GetProgressDeadline gets the maximum time the Rollout can spend
// without making progress
func (r *Rollout) GetProgressDeadline() time.Duration {
	if r.Spec.ProgressDeadlineSeconds == nil {
		return configuration.Current.GetDefaultProgressDeadline()
	}
	return time.Duration(*r.Spec.ProgressDeadlineSeconds) * time.Second
}

// IsCanary checks if the Rollout uses the canary strategy
func (r *Rollout) IsCanary() bool {
	return r.Spec.Strategy.Canary != nil
}

// IsBlueGreen checks if the Rollout uses the blue-green strategy
func (r *Rollout) IsBlueGreen() bool {
	return r.Spec.Strategy.BlueGreen != nil
}

// GetStrategyName gets the name of the strategy of the Rollout, empty
// when none is configured
func (r *Rollout) GetStrategyName() string {
	switch {
	case r.IsCanary():
		return "Canary"
	case r.IsBlueGreen():
		return "BlueGreen"
	default:
		return ""
	}
}

// GetSteps gets the canary steps of the Rollout
func (r *Rollout) GetSteps() []CanaryStep {
	if r.Spec.Strategy.Canary == nil {
		return nil
	}
	return r.Spec.Strategy.Canary.Steps
}

// GetCurrentStepIndex gets the index of the step in force
func (r *Rollout) GetCurrentStepIndex() int32 {
	if r.Status.CurrentStepIndex == nil || *r.Status.CurrentStepIndex < 0 {
		return 0
	}
	return *r.Status.CurrentStepIndex
}

// GetCurrentStep gets the canary step in force, or nil when every
// step has been completed
func (r *Rollout) GetCurrentStep() *CanaryStep {
	steps := r.GetSteps()
	index := r.GetCurrentStepIndex()
	if index < 0 || int(index) >= len(steps) {
		return nil
	}
	return &steps[index]
}

// HasCompletedSteps checks if every canary step has been executed
func (r *Rollout) HasCompletedSteps() bool {
	return int(r.GetCurrentStepIndex()) >= len(r.GetSteps())
}

// GetDesiredCanaryWeight gets the weight of the new revision following the
// steps executed so far. That is the weight set by the last setWeight step
// before the current one, or 100 when every step has been executed.
func (r *Rollout) GetDesiredCanaryWeight() int32 {
	if r.HasCompletedSteps() || r.Status.PromoteFull {
		return 100
	}

	steps := r.GetSteps()
	index := r.GetCurrentStepIndex()
	var weight int32
	for i := int32(0); i <= index && int(i) < len(steps); i++ {
		if steps[i].SetWeight != nil {
			weight = *steps[i].SetWeight
		}
	}
	return weight
}

// HasTrafficRouting checks if the canary traffic is split by a router
// rather than by the number of replicas
func (r *Rollout) HasTrafficRouting() bool {
	canary := r.Spec.Strategy.Canary
	return canary != nil && canary.TrafficRouting != nil && canary.TrafficRouting.Nginx != nil
}

// IsAborted checks if the current revision has been aborted
func (r *Rollout) IsAborted() bool {
	return r.Status.Abort
}

// GetStatusMessage returns the reason of the current phase
func (r *Rollout) GetStatusMessage() string {
	return r.Status.PhaseReason
}

// IsAutoPromotionEnabled checks if the new revision is promoted
// without manual intervention
func (bg *BlueGreenStrategy) IsAutoPromotionEnabled() bool {
	return bg.AutoPromotionEnabled == nil || *bg.AutoPromotionEnabled
}

// GetAutoPromotionDelay gets the delay before an automatic promotion
func (bg *BlueGreenStrategy) GetAutoPromotionDelay() time.Duration {
	return time.Duration(bg.AutoPromotionSeconds) * time.Second
}

// GetScaleDownDelay gets the delay before scaling down the previous revision
func (bg *BlueGreenStrategy) GetScaleDownDelay() time.Duration {
	if bg.ScaleDownDelaySeconds == nil {
		return DefaultScaleDownDelaySeconds * time.Second
	}
	return time.Duration(*bg.ScaleDownDelaySeconds) * time.Second
}

// GetAnnotationPrefix gets the prefix of the canary annotations
func (n *NginxTrafficRouting) GetAnnotationPrefix() string {
	if n.AnnotationPrefix == "" {
		return DefaultNginxAnnotationPrefix
	}
	return n.AnnotationPrefix
}

// GetCanaryIngressName gets the name of the Ingress managed by the
// controller to route the canary traffic
func (n *NginxTrafficRouting) GetCanaryIngressName(rolloutName string) string {
	return rolloutName + "-" + n.StableIngress + "-canary"
}

// Type returns the kind of the step, as used in the logs and in the
// plugin output
func (s CanaryStep) Type() string {
	switch {
	case s.SetWeight != nil:
		return "setWeight"
	case s.Pause != nil:
		return "pause"
	case s.Analysis != nil:
		return "analysis"
	default:
		return ""
	}
}

// IsIndefinite checks if the pause lasts until a manual promotion
func (p *RolloutPause) IsIndefinite() bool {
	return p.Duration == nil
}

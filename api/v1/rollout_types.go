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
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// RolloutPhase is the phase of a Rollout
type RolloutPhase string

const (
	// RolloutPhaseProgressing means the rollout is moving through its steps
	RolloutPhaseProgressing RolloutPhase = "Progressing"

	// RolloutPhasePaused means the rollout is waiting for a timer to expire
	// or for a manual promotion
	RolloutPhasePaused RolloutPhase = "Paused"

	// RolloutPhaseHealthy means the desired revision is fully promoted and available
	RolloutPhaseHealthy RolloutPhase = "Healthy"

	// RolloutPhaseDegraded means the rollout has been aborted and traffic has
	// been restored to the stable revision
	RolloutPhaseDegraded RolloutPhase = "Degraded"
)

// RolloutConditionType is the type of the conditions of a Rollout
type RolloutConditionType string

const (
	// ConditionProgressing is true while a new revision is being rolled out
	ConditionProgressing RolloutConditionType = "Progressing"

	// ConditionAvailable is true when the rollout has at least the desired
	// number of available replicas
	ConditionAvailable RolloutConditionType = "Available"

	// ConditionPaused is true when the rollout is paused
	ConditionPaused RolloutConditionType = "Paused"

	// ConditionHealthy is true when the stable revision equals the desired one
	// and every replica is available
	ConditionHealthy RolloutConditionType = "Healthy"
)

// ConditionReason is the reason of a Rollout condition
type ConditionReason string

const (
	// ReasonNewReplicaSetCreated is used when a new ReplicaSet has been created
	ReasonNewReplicaSetCreated ConditionReason = "NewReplicaSetCreated"

	// ReasonStepCompleted is used when a canary step has been completed
	ReasonStepCompleted ConditionReason = "StepCompleted"

	// ReasonRolloutCompleted is used when the new revision has been promoted
	ReasonRolloutCompleted ConditionReason = "RolloutCompleted"

	// ReasonRolloutPaused is used when the rollout is paused
	ReasonRolloutPaused ConditionReason = "RolloutPaused"

	// ReasonRolloutResumed is used when the rollout resumes after a pause
	ReasonRolloutResumed ConditionReason = "RolloutResumed"

	// ReasonRolloutAborted is used when the rollout has been aborted
	ReasonRolloutAborted ConditionReason = "RolloutAborted"

	// ReasonAnalysisFailed is used when an analysis reported a failure
	ReasonAnalysisFailed ConditionReason = "AnalysisFailed"

	// ReasonAnalysisInconclusive is used when an analysis could not decide
	ReasonAnalysisInconclusive ConditionReason = "AnalysisInconclusive"

	// ReasonReplicasFailing is used when the pods of the new revision are failing
	ReasonReplicasFailing ConditionReason = "ReplicasFailing"

	// ReasonProgressDeadlineExceeded is used when the rollout made no progress
	// within the progress deadline
	ReasonProgressDeadlineExceeded ConditionReason = "ProgressDeadlineExceeded"

	// ReasonFastRollback is used when the template went back to the stable revision
	ReasonFastRollback ConditionReason = "FastRollback"

	// ReasonInvalidSpec is used when the rollout specification cannot be executed
	ReasonInvalidSpec ConditionReason = "InvalidSpec"

	// ReasonWaitingForReplicas is used while the pods of a revision are starting
	ReasonWaitingForReplicas ConditionReason = "WaitingForReplicas"

	// ReasonAnalysisRunning is used while an analysis is taking measurements
	ReasonAnalysisRunning ConditionReason = "AnalysisRunning"

	// ReasonWaitingForPromotion is used when the new revision is ready
	// and waits for a manual or a delayed promotion
	ReasonWaitingForPromotion ConditionReason = "WaitingForPromotion"

	// ReasonRolloutThrottled is used when the start of a new revision is
	// delayed by the operator
	ReasonRolloutThrottled ConditionReason = "RolloutThrottled"

	// ReasonAvailable is used when the desired replicas are available
	ReasonAvailable ConditionReason = "Available"

	// ReasonUnavailable is used when some replicas are not available
	ReasonUnavailable ConditionReason = "Unavailable"
)

// RolloutSpec defines the desired state of a Rollout
type RolloutSpec struct {
	// Number of desired pods. Defaults to 1.
	// +kubebuilder:default:=1
	// +kubebuilder:validation:Minimum=0
	// +optional
	Replicas *int32 `json:"replicas,omitempty"`

	// Label selector for pods. Existing ReplicaSets whose pods are
	// selected by this will be the ones affected by this rollout.
	// It must match the pod template's labels.
	Selector *metav1.LabelSelector `json:"selector"`

	// Template describes the pods that will be created.
	Template corev1.PodTemplateSpec `json:"template"`

	// Minimum number of seconds for which a newly created pod should be ready
	// without any of its container crashing, for it to be considered available.
	// +kubebuilder:validation:Minimum=0
	// +optional
	MinReadySeconds int32 `json:"minReadySeconds,omitempty"`

	// The maximum time in seconds for a rollout to make progress before it
	// is aborted. Intentional pauses do not count.
	// +kubebuilder:validation:Minimum=1
	// +optional
	ProgressDeadlineSeconds *int32 `json:"progressDeadlineSeconds,omitempty"`

	// The number of old ReplicaSets to retain. Defaults to 10.
	// +kubebuilder:validation:Minimum=0
	// +optional
	RevisionHistoryLimit *int32 `json:"revisionHistoryLimit,omitempty"`

	// Paused stops the rollout at the current step
	// +optional
	Paused bool `json:"paused,omitempty"`

	// The delivery strategy used to replace the stable revision
	Strategy RolloutStrategy `json:"strategy"`

	// Monitoring configures the scraping of the pods of the Rollout
	// +optional
	Monitoring *RolloutMonitoring `json:"monitoring,omitempty"`
}

// RolloutMonitoring configures the scraping of the pods of a Rollout, so
// that the analyses can tell the samples of each revision apart
type RolloutMonitoring struct {
	// EnablePodMonitor creates a PodMonitor selecting every revision of
	// the Rollout. The samples are labelled with the pod template hash.
	// +optional
	EnablePodMonitor bool `json:"enablePodMonitor,omitempty"`

	// Path is the HTTP path exposing the metrics. Defaults to "/metrics".
	// +optional
	Path string `json:"path,omitempty"`

	// Interval between two scrapes, if empty the Prometheus default is used
	// +optional
	Interval string `json:"interval,omitempty"`
}

// RolloutStrategy contains exactly one delivery strategy
type RolloutStrategy struct {
	// Canary shifts traffic progressively following a list of steps
	// +optional
	Canary *CanaryStrategy `json:"canary,omitempty"`

	// BlueGreen runs the new revision side by side with the stable one
	// and switches the active Service when promoted
	// +optional
	BlueGreen *BlueGreenStrategy `json:"blueGreen,omitempty"`
}

// CanaryStrategy defines the parameters of a canary rollout
type CanaryStrategy struct {
	// Steps is the ordered list of steps executed for each new revision
	// +optional
	Steps []CanaryStep `json:"steps,omitempty"`

	// StableService is the name of a Service whose selector is pinned to
	// the stable revision
	// +optional
	StableService string `json:"stableService,omitempty"`

	// CanaryService is the name of a Service whose selector is pinned to
	// the new revision
	// +optional
	CanaryService string `json:"canaryService,omitempty"`

	// TrafficRouting configures a weighted router. When not set, the
	// traffic weight is approximated with the replica count of each revision
	// +optional
	TrafficRouting *TrafficRouting `json:"trafficRouting,omitempty"`
}

// TrafficRouting configures the router used to split traffic
type TrafficRouting struct {
	// Nginx uses the canary annotations of the NGINX ingress controller
	// +optional
	Nginx *NginxTrafficRouting `json:"nginx,omitempty"`
}

// NginxTrafficRouting configures the NGINX ingress router
type NginxTrafficRouting struct {
	// StableIngress is the name of the Ingress routing to the stable Service
	StableIngress string `json:"stableIngress"`

	// AnnotationPrefix is the prefix of the canary annotations.
	// Defaults to "nginx.ingress.kubernetes.io"
	// +optional
	AnnotationPrefix string `json:"annotationPrefix,omitempty"`
}

// CanaryStep is a step of a canary rollout. Exactly one field must be set.
type CanaryStep struct {
	// SetWeight sets the percentage of traffic sent to the new revision
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=100
	// +optional
	SetWeight *int32 `json:"setWeight,omitempty"`

	// Pause stops the rollout for a certain amount of time, or until
	// it is promoted when no duration is set
	// +optional
	Pause *RolloutPause `json:"pause,omitempty"`

	// Analysis runs an AnalysisTemplate against the new revision
	// +optional
	Analysis *RolloutAnalysis `json:"analysis,omitempty"`
}

// RolloutPause defines a pause step
type RolloutPause struct {
	// Duration of the pause. An empty duration means an indefinite pause.
	// +optional
	Duration *metav1.Duration `json:"duration,omitempty"`
}

// RolloutAnalysis references an AnalysisTemplate
type RolloutAnalysis struct {
	// TemplateName is the name of the AnalysisTemplate in the Rollout namespace
	TemplateName string `json:"templateName"`

	// Args are the values of the arguments of the template
	// +optional
	Args []AnalysisArgument `json:"args,omitempty"`
}

// AnalysisArgument is a named argument passed to an analysis
type AnalysisArgument struct {
	// Name of the argument
	Name string `json:"name"`

	// Value of the argument
	Value string `json:"value"`
}

// BlueGreenStrategy defines the parameters of a blue-green rollout
type BlueGreenStrategy struct {
	// Name of the Service that the rollout modifies as the active service.
	ActiveService string `json:"activeService"`

	// Name of the Service that the rollout modifies as the preview service.
	// +optional
	PreviewService string `json:"previewService,omitempty"`

	// AutoPromotionEnabled promotes the new revision as soon as it is
	// available. Defaults to true.
	// +optional
	AutoPromotionEnabled *bool `json:"autoPromotionEnabled,omitempty"`

	// AutoPromotionSeconds is the delay before an automatic promotion
	// +kubebuilder:validation:Minimum=0
	// +optional
	AutoPromotionSeconds int32 `json:"autoPromotionSeconds,omitempty"`

	// PrePromotionAnalysis runs before switching the active Service
	// +optional
	PrePromotionAnalysis *RolloutAnalysis `json:"prePromotionAnalysis,omitempty"`

	// ScaleDownDelaySeconds is the delay before scaling down the previous
	// revision after a promotion. Defaults to 30.
	// +kubebuilder:validation:Minimum=0
	// +optional
	ScaleDownDelaySeconds *int32 `json:"scaleDownDelaySeconds,omitempty"`
}

// TrafficWeights is the split of the traffic between the stable
// and the new revision. The two values always add up to 100.
type TrafficWeights struct {
	// Stable is the percentage of traffic sent to the stable revision
	Stable int32 `json:"stable"`

	// Canary is the percentage of traffic sent to the new revision
	Canary int32 `json:"canary"`
}

// CanaryStatus is the status of a canary rollout
type CanaryStatus struct {
	// Weights is the traffic split currently applied
	// +optional
	Weights *TrafficWeights `json:"weights,omitempty"`
}

// BlueGreenStatus is the status of a blue-green rollout
type BlueGreenStatus struct {
	// ActiveSelector is the pod template hash selected by the active Service
	// +optional
	ActiveSelector string `json:"activeSelector,omitempty"`

	// PreviewSelector is the pod template hash selected by the preview Service
	// +optional
	PreviewSelector string `json:"previewSelector,omitempty"`
}

// RolloutStatus defines the observed state of a Rollout
type RolloutStatus struct {
	// Current phase of the rollout
	// +optional
	Phase RolloutPhase `json:"phase,omitempty"`

	// Reason for the current phase
	// +optional
	PhaseReason string `json:"phaseReason,omitempty"`

	// The generation observed by the rollout controller.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// CurrentPodHash is the pod template hash of the desired revision
	// +optional
	CurrentPodHash string `json:"currentPodHash,omitempty"`

	// StableRS is the pod template hash of the stable revision
	// +optional
	StableRS string `json:"stableRS,omitempty"`

	// CurrentStepIndex is the index of the canary step in force
	// +optional
	CurrentStepIndex *int32 `json:"currentStepIndex,omitempty"`

	// Total number of non-terminated pods targeted by this rollout
	// +optional
	Replicas int32 `json:"replicas,omitempty"`

	// Number of pods of the desired revision
	// +optional
	UpdatedReplicas int32 `json:"updatedReplicas,omitempty"`

	// Number of ready pods targeted by this rollout
	// +optional
	ReadyReplicas int32 `json:"readyReplicas,omitempty"`

	// Number of available pods targeted by this rollout
	// +optional
	AvailableReplicas int32 `json:"availableReplicas,omitempty"`

	// Selector is the label selector in string form, used by the
	// scale subresource
	// +optional
	Selector string `json:"selector,omitempty"`

	// Count of hash collisions for the Rollout, used to compute a new
	// name for the newest ReplicaSet
	// +optional
	CollisionCount *int32 `json:"collisionCount,omitempty"`

	// Canary contains the status of a canary rollout
	// +optional
	Canary CanaryStatus `json:"canary,omitempty"`

	// BlueGreen contains the status of a blue-green rollout
	// +optional
	BlueGreen BlueGreenStatus `json:"blueGreen,omitempty"`

	// Abort is set when the current revision has been aborted, either by
	// the controller or by the user
	// +optional
	Abort bool `json:"abort,omitempty"`

	// AbortedAt is when the current revision was aborted
	// +optional
	AbortedAt *metav1.Time `json:"abortedAt,omitempty"`

	// PromoteFull skips every remaining step when set by the user
	// +optional
	PromoteFull bool `json:"promoteFull,omitempty"`

	// PauseStartTime is when the current pause started
	// +optional
	PauseStartTime *metav1.Time `json:"pauseStartTime,omitempty"`

	// LastProgressTime is the last time the rollout made progress,
	// used to enforce the progress deadline
	// +optional
	LastProgressTime *metav1.Time `json:"lastProgressTime,omitempty"`

	// StepAnalysis is the status of the analysis currently running
	// +optional
	StepAnalysis *AnalysisStatus `json:"stepAnalysis,omitempty"`

	// Conditions for the rollout object
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +genclient
// +kubebuilder:object:root=true
// +kubebuilder:storageversion
// +kubebuilder:subresource:status
// +kubebuilder:subresource:scale:specpath=.spec.replicas,statuspath=.status.replicas,selectorpath=.status.selector
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"
// +kubebuilder:printcolumn:name="Desired",type="integer",JSONPath=".spec.replicas"
// +kubebuilder:printcolumn:name="Available",type="integer",JSONPath=".status.availableReplicas"
// +kubebuilder:printcolumn:name="Step",type="integer",JSONPath=".status.currentStepIndex"
// +kubebuilder:printcolumn:name="Status",type="string",JSONPath=".status.phase",description="Rollout current status"

// Rollout is the Schema for the rollouts API
type Rollout struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec RolloutSpec `json:"spec"`
	// +optional
	Status RolloutStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// RolloutList contains a list of Rollout
type RolloutList struct {
	metav1.TypeMeta `json:",inline"`
	// +optional
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Rollout `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Rollout{}, &RolloutList{})
}

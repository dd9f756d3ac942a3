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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ConditionOperator is the comparison operator used by a metric condition
// +kubebuilder:validation:Enum="<";"<=";">";">=";"==";"!="
type ConditionOperator string

const (
	// OperatorLessThan matches values lower than the threshold
	OperatorLessThan ConditionOperator = "<"

	// OperatorLessThanOrEqual matches values lower than or equal to the threshold
	OperatorLessThanOrEqual ConditionOperator = "<="

	// OperatorGreaterThan matches values greater than the threshold
	OperatorGreaterThan ConditionOperator = ">"

	// OperatorGreaterThanOrEqual matches values greater than or equal to the threshold
	OperatorGreaterThanOrEqual ConditionOperator = ">="

	// OperatorEqual matches values equal to the threshold
	OperatorEqual ConditionOperator = "=="

	// OperatorNotEqual matches values different from the threshold
	OperatorNotEqual ConditionOperator = "!="
)

// AnalysisPhase is the verdict of an analysis
type AnalysisPhase string

const (
	// AnalysisPhaseRunning means more measurements are needed
	AnalysisPhaseRunning AnalysisPhase = "Running"

	// AnalysisPhaseSuccessful means every metric reached its count
	AnalysisPhaseSuccessful AnalysisPhase = "Successful"

	// AnalysisPhaseFailed means at least one metric exceeded its failure limit
	AnalysisPhaseFailed AnalysisPhase = "Failed"

	// AnalysisPhaseInconclusive means at least one metric exceeded its
	// inconclusive limit
	AnalysisPhaseInconclusive AnalysisPhase = "Inconclusive"
)

// Completed returns true if the analysis reached a final verdict
func (p AnalysisPhase) Completed() bool {
	return p == AnalysisPhaseSuccessful || p == AnalysisPhaseFailed || p == AnalysisPhaseInconclusive
}

// MeasurementPhase is the outcome of a single measurement
type MeasurementPhase string

const (
	// MeasurementPhaseSuccessful means the measured value met the success condition
	MeasurementPhaseSuccessful MeasurementPhase = "Successful"

	// MeasurementPhaseFailed means the measured value met the failure condition
	MeasurementPhaseFailed MeasurementPhase = "Failed"

	// MeasurementPhaseInconclusive means the measured value met neither condition
	MeasurementPhaseInconclusive MeasurementPhase = "Inconclusive"

	// MeasurementPhaseError means the provider could not take the measurement
	MeasurementPhaseError MeasurementPhase = "Error"
)

// AnalysisTemplateSpec defines the metrics evaluated by an analysis
type AnalysisTemplateSpec struct {
	// Args are the arguments accepted by this template
	// +optional
	Args []ArgumentSpec `json:"args,omitempty"`

	// Metrics is the list of metrics evaluated by the analysis
	// +kubebuilder:validation:MinItems=1
	Metrics []Metric `json:"metrics"`
}

// ArgumentSpec is the declaration of a template argument
type ArgumentSpec struct {
	// Name of the argument
	Name string `json:"name"`

	// Value is the default value of the argument
	// +optional
	Value *string `json:"value,omitempty"`
}

// Metric is a signal sampled by an analysis
type Metric struct {
	// Name of the metric, unique inside the template
	Name string `json:"name"`

	// Interval between two measurements. Defaults to 30s.
	// +optional
	Interval *metav1.Duration `json:"interval,omitempty"`

	// Count is the number of successful measurements needed for the
	// metric to pass. Defaults to 1.
	// +kubebuilder:validation:Minimum=1
	// +optional
	Count *int32 `json:"count,omitempty"`

	// FailureLimit is the number of failed measurements tolerated.
	// Defaults to 0.
	// +kubebuilder:validation:Minimum=0
	// +optional
	FailureLimit *int32 `json:"failureLimit,omitempty"`

	// InconclusiveLimit is the number of inconclusive measurements
	// tolerated. Defaults to 0.
	// +kubebuilder:validation:Minimum=0
	// +optional
	InconclusiveLimit *int32 `json:"inconclusiveLimit,omitempty"`

	// ErrorLimit is the number of measurements the provider can fail to
	// take before the metric fails. Defaults to 4.
	// +kubebuilder:validation:Minimum=0
	// +optional
	ErrorLimit *int32 `json:"errorLimit,omitempty"`

	// SuccessCondition is met by a successful measurement
	// +optional
	SuccessCondition *MetricCondition `json:"successCondition,omitempty"`

	// FailureCondition is met by a failed measurement
	// +optional
	FailureCondition *MetricCondition `json:"failureCondition,omitempty"`

	// Provider is where the measurements are taken from
	Provider MetricProvider `json:"provider"`
}

// MetricCondition compares a measured value with a threshold
type MetricCondition struct {
	// Operator is the comparison operator
	Operator ConditionOperator `json:"operator"`

	// Threshold is the value to compare against, as a decimal number
	Threshold string `json:"threshold"`
}

// MetricProvider contains exactly one measurement source
type MetricProvider struct {
	// Prometheus runs an instant query against a Prometheus server
	// +optional
	Prometheus *PrometheusMetric `json:"prometheus,omitempty"`

	// Web reads a value from a JSON document served over HTTP
	// +optional
	Web *WebMetric `json:"web,omitempty"`
}

// PrometheusMetric defines a Prometheus query
type PrometheusMetric struct {
	// Address of the Prometheus server. Defaults to the operator
	// configuration.
	// +optional
	Address string `json:"address,omitempty"`

	// Query is a PromQL expression returning a scalar or a single sample
	Query string `json:"query"`
}

// WebMetric defines an HTTP GET measurement
type WebMetric struct {
	// URL to query
	URL string `json:"url"`

	// Headers added to the request
	// +optional
	Headers []WebMetricHeader `json:"headers,omitempty"`

	// JSONPath used to extract the value from the response body,
	// for example "{$.data.ok}"
	// +optional
	JSONPath string `json:"jsonPath,omitempty"`

	// TimeoutSeconds is the timeout of a single request
	// +kubebuilder:validation:Minimum=1
	// +optional
	TimeoutSeconds int32 `json:"timeoutSeconds,omitempty"`
}

// WebMetricHeader is an HTTP header
type WebMetricHeader struct {
	// Key of the header
	Key string `json:"key"`

	// Value of the header
	Value string `json:"value"`
}

// Measurement is a single sample of a metric
type Measurement struct {
	// Phase is the outcome of the measurement
	Phase MeasurementPhase `json:"phase"`

	// Value is the measured value
	// +optional
	Value string `json:"value,omitempty"`

	// Message contains the error returned by the provider, if any
	// +optional
	Message string `json:"message,omitempty"`

	// FinishedAt is when the measurement was taken
	FinishedAt metav1.Time `json:"finishedAt"`
}

// MetricResult is the aggregated state of a metric
type MetricResult struct {
	// Name of the metric
	Name string `json:"name"`

	// Phase of the metric
	Phase AnalysisPhase `json:"phase"`

	// Count is the number of measurements taken
	Count int32 `json:"count,omitempty"`

	// Successful is the number of successful measurements
	Successful int32 `json:"successful,omitempty"`

	// Failed is the number of failed measurements
	Failed int32 `json:"failed,omitempty"`

	// Inconclusive is the number of inconclusive measurements
	Inconclusive int32 `json:"inconclusive,omitempty"`

	// Error is the number of measurements that could not be taken
	Error int32 `json:"error,omitempty"`

	// Measurements contains the most recent measurements
	// +optional
	Measurements []Measurement `json:"measurements,omitempty"`
}

// AnalysisStatus is the state of an analysis run by a Rollout
type AnalysisStatus struct {
	// TemplateName is the name of the AnalysisTemplate being run
	TemplateName string `json:"templateName"`

	// RunID identifies this run of the analysis. A new run starts for
	// every revision and step, and when the template changes.
	// +optional
	RunID string `json:"runID,omitempty"`

	// PodHash is the revision being analysed
	PodHash string `json:"podHash"`

	// StepIndex is the canary step running the analysis, or -1 for a
	// blue-green pre-promotion analysis
	StepIndex int32 `json:"stepIndex"`

	// Phase is the verdict of the analysis
	Phase AnalysisPhase `json:"phase"`

	// Message explains the verdict
	// +optional
	Message string `json:"message,omitempty"`

	// StartedAt is when the analysis started
	StartedAt metav1.Time `json:"startedAt"`

	// Metrics contains the aggregated state of each metric
	// +optional
	Metrics []MetricResult `json:"metrics,omitempty"`
}

// +genclient
// +kubebuilder:object:root=true
// +kubebuilder:storageversion
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// AnalysisTemplate is the Schema for the analysistemplates API
type AnalysisTemplate struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec AnalysisTemplateSpec `json:"spec"`
}

// +kubebuilder:object:root=true

// AnalysisTemplateList contains a list of AnalysisTemplate
type AnalysisTemplateList struct {
	metav1.TypeMeta `json:",inline"`
	// +optional
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []AnalysisTemplate `json:"items"`
}

func init() {
	SchemeBuilder.Register(&AnalysisTemplate{}, &AnalysisTemplateList{})
}

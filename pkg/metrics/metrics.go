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

// Package metrics contains the Prometheus collectors exposed by the
// rollout controller through the controller-runtime metrics endpoint
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var knownPhases = []string{"Progressing", "Paused", "Healthy", "Degraded"}

var (
	// RolloutPhase is a gauge set to 1 for the current phase of each rollout
	RolloutPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "delivery_rollout_phase",
			Help: "Current phase of the rollout, set to 1 for the phase in force",
		},
		[]string{"namespace", "name", "phase"},
	)

	// RolloutCanaryWeight is the percentage of traffic sent to the new revision
	RolloutCanaryWeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "delivery_rollout_canary_weight",
			Help: "Percentage of traffic sent to the new revision",
		},
		[]string{"namespace", "name"},
	)

	// RolloutAbortsTotal is a counter for the aborted rollouts
	RolloutAbortsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_rollout_aborts_total",
			Help: "Total number of aborted rollouts",
		},
		[]string{"namespace", "name", "reason"},
	)

	// RolloutStepTransitionsTotal is a counter for the completed canary steps
	RolloutStepTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_rollout_step_transitions_total",
			Help: "Total number of completed canary steps by step type",
		},
		[]string{"namespace", "name", "step_type"},
	)

	// AnalysisMeasurementsTotal is a counter for the measurements taken
	AnalysisMeasurementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_analysis_measurements_total",
			Help: "Total number of analysis measurements by outcome",
		},
		[]string{"namespace", "template", "metric", "phase"},
	)

	// AnalysisMeasurementDuration is a histogram for the time spent by the
	// providers to take a measurement
	AnalysisMeasurementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "delivery_analysis_measurement_duration_seconds",
			Help: "Duration of the analysis measurements in seconds",
			Buckets: []float64{
				0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
			},
		},
		[]string{"provider"},
	)
)

func init() {
	// Register metrics with the controller runtime metrics registry
	metrics.Registry.MustRegister(
		RolloutPhase,
		RolloutCanaryWeight,
		RolloutAbortsTotal,
		RolloutStepTransitionsTotal,
		AnalysisMeasurementsTotal,
		AnalysisMeasurementDuration,
	)
}

// RecordPhase sets the phase gauge of a rollout
func RecordPhase(namespace, name, phase string) {
	for _, knownPhase := range knownPhases {
		value := 0.0
		if knownPhase == phase {
			value = 1
		}
		RolloutPhase.WithLabelValues(namespace, name, knownPhase).Set(value)
	}
}

// RecordCanaryWeight sets the canary weight gauge of a rollout
func RecordCanaryWeight(namespace, name string, weight int32) {
	RolloutCanaryWeight.WithLabelValues(namespace, name).Set(float64(weight))
}

// RecordAbort increments the aborts counter
func RecordAbort(namespace, name, reason string) {
	RolloutAbortsTotal.WithLabelValues(namespace, name, reason).Inc()
}

// RecordStepTransition increments the step transitions counter
func RecordStepTransition(namespace, name, stepType string) {
	RolloutStepTransitionsTotal.WithLabelValues(namespace, name, stepType).Inc()
}

// RecordMeasurement increments the measurements counter
func RecordMeasurement(namespace, template, metric, phase string) {
	AnalysisMeasurementsTotal.WithLabelValues(namespace, template, metric, phase).Inc()
}

// RecordMeasurementDuration records the duration of a measurement
func RecordMeasurementDuration(provider string, durationSeconds float64) {
	AnalysisMeasurementDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// ForgetRollout removes the series of a deleted rollout
func ForgetRollout(namespace, name string) {
	labels := prometheus.Labels{"namespace": namespace, "name": name}
	RolloutPhase.DeletePartialMatch(labels)
	RolloutCanaryWeight.DeletePartialMatch(labels)
	RolloutAbortsTotal.DeletePartialMatch(labels)
	RolloutStepTransitionsTotal.DeletePartialMatch(labels)
}

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

package health

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/clock"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/metrics"
)

// AnalysisResult is the outcome of an analysis run
type AnalysisResult struct {
	// Verdict is the aggregated outcome of every metric
	Verdict Verdict

	// RequeueAfter is the time to wait before the next measurement
	// when the analysis is still running
	RequeueAfter time.Duration

	// Message describes the outcome
	Message string
}

// AnalysisRunner takes the measurements of the metrics of an analysis
// template, recording them in the analysis status
type AnalysisRunner struct {
	clock           clock.PassiveClock
	providerFactory ProviderFactory
}

// NewAnalysisRunner creates a new runner
func NewAnalysisRunner(clk clock.PassiveClock, providerFactory ProviderFactory) *AnalysisRunner {
	if providerFactory == nil {
		providerFactory = NewProvider
	}
	return &AnalysisRunner{
		clock:           clk,
		providerFactory: providerFactory,
	}
}

// NewAnalysisStatus creates the status of an analysis starting now
func NewAnalysisStatus(templateName, podHash string, stepIndex int32, now time.Time) *apiv1.AnalysisStatus {
	return &apiv1.AnalysisStatus{
		TemplateName: templateName,
		RunID:        uuid.NewString(),
		PodHash:      podHash,
		StepIndex:    stepIndex,
		Phase:        apiv1.AnalysisPhaseRunning,
		StartedAt:    metav1.NewTime(now),
	}
}

// Run takes the measurements that are due and evaluates the analysis.
// It never blocks waiting for the next measurement: the caller is told
// when to come back with RequeueAfter.
func (r *AnalysisRunner) Run(
	ctx context.Context,
	template *apiv1.AnalysisTemplate,
	args []apiv1.AnalysisArgument,
	status *apiv1.AnalysisStatus,
) AnalysisResult {
	contextLogger := log.FromContext(ctx).WithValues(
		"analysisTemplate", template.Name,
		"analysisRunID", status.RunID)

	if status.Phase.Completed() {
		return resultFromPhase(status.Phase, status.Message, 0)
	}

	resolvedArgs, err := template.ResolveArgs(args)
	if err != nil {
		return complete(status, apiv1.AnalysisPhaseFailed, err.Error())
	}

	now := r.clock.Now()
	for idx := range template.Spec.Metrics {
		metric := &template.Spec.Metrics[idx]
		metricResult := status.GetMetricResult(metric.Name)
		if metricResult == nil {
			status.Metrics = append(status.Metrics, apiv1.MetricResult{
				Name:  metric.Name,
				Phase: apiv1.AnalysisPhaseRunning,
			})
			metricResult = &status.Metrics[len(status.Metrics)-1]
		}

		if metricResult.Phase.Completed() || !isMeasurementDue(metric, metricResult, now) {
			continue
		}

		measurement := r.measure(ctx, template.Namespace, template.Name, metric, resolvedArgs)
		contextLogger.Debug("Measurement taken",
			"metric", metric.Name,
			"phase", measurement.Phase,
			"value", measurement.Value,
			"message", measurement.Message)
		metricResult.AddMeasurement(measurement)
		metricResult.Phase = evaluateMetric(metric, metricResult)
	}

	phase, message := aggregate(template, status)
	if phase.Completed() {
		contextLogger.Info("Analysis completed", "phase", phase, "message", message)
		return complete(status, phase, message)
	}

	status.Phase = phase
	status.Message = message
	return resultFromPhase(phase, message, nextMeasurementIn(template, status, now))
}

func complete(status *apiv1.AnalysisStatus, phase apiv1.AnalysisPhase, message string) AnalysisResult {
	status.Phase = phase
	status.Message = message
	return resultFromPhase(phase, message, 0)
}

func (r *AnalysisRunner) measure(
	ctx context.Context,
	namespace, templateName string,
	metric *apiv1.Metric,
	args map[string]string,
) apiv1.Measurement {
	measurement := r.takeMeasurement(ctx, metric, args)
	measurement.FinishedAt = metav1.NewTime(r.clock.Now())
	metrics.RecordMeasurement(namespace, templateName, metric.Name, string(measurement.Phase))
	return measurement
}

func (r *AnalysisRunner) takeMeasurement(
	ctx context.Context,
	metric *apiv1.Metric,
	args map[string]string,
) apiv1.Measurement {
	resolved, err := substituteMetricArgs(metric, args)
	if err != nil {
		return apiv1.Measurement{Phase: apiv1.MeasurementPhaseError, Message: err.Error()}
	}

	provider, err := r.providerFactory(resolved)
	if err != nil {
		return apiv1.Measurement{Phase: apiv1.MeasurementPhaseError, Message: err.Error()}
	}

	startTime := time.Now()
	value, err := provider.Measure(ctx, resolved)
	metrics.RecordMeasurementDuration(provider.Type(), time.Since(startTime).Seconds())
	if err != nil {
		return apiv1.Measurement{Phase: apiv1.MeasurementPhaseError, Message: err.Error()}
	}

	phase, err := EvaluateMeasurement(metric, value)
	measurement := apiv1.Measurement{
		Phase: phase,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
	if err != nil {
		measurement.Phase = apiv1.MeasurementPhaseError
		measurement.Message = err.Error()
	}
	return measurement
}

// substituteMetricArgs returns a copy of the metric with the arguments
// replaced in the provider definition
func substituteMetricArgs(metric *apiv1.Metric, args map[string]string) (*apiv1.Metric, error) {
	result := metric.DeepCopy()
	var err error

	if prometheus := result.Provider.Prometheus; prometheus != nil {
		if prometheus.Query, err = SubstituteArgs(prometheus.Query, args); err != nil {
			return nil, err
		}
		if prometheus.Address, err = SubstituteArgs(prometheus.Address, args); err != nil {
			return nil, err
		}
	}

	if web := result.Provider.Web; web != nil {
		if web.URL, err = SubstituteArgs(web.URL, args); err != nil {
			return nil, err
		}
		for idx := range web.Headers {
			if web.Headers[idx].Value, err = SubstituteArgs(web.Headers[idx].Value, args); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// EvaluateMeasurement compares a measured value with the success and
// failure conditions of the metric
func EvaluateMeasurement(metric *apiv1.Metric, value float64) (apiv1.MeasurementPhase, error) {
	if math.IsNaN(value) {
		return apiv1.MeasurementPhaseInconclusive, nil
	}

	var success, failure bool
	var err error
	if metric.SuccessCondition != nil {
		if success, err = metric.SuccessCondition.Matches(value); err != nil {
			return apiv1.MeasurementPhaseError, fmt.Errorf("success condition: %w", err)
		}
	}
	if metric.FailureCondition != nil {
		if failure, err = metric.FailureCondition.Matches(value); err != nil {
			return apiv1.MeasurementPhaseError, fmt.Errorf("failure condition: %w", err)
		}
	}

	switch {
	case metric.SuccessCondition == nil && metric.FailureCondition == nil:
		return apiv1.MeasurementPhaseSuccessful, nil

	case metric.FailureCondition == nil:
		if success {
			return apiv1.MeasurementPhaseSuccessful, nil
		}
		return apiv1.MeasurementPhaseFailed, nil

	case metric.SuccessCondition == nil:
		if failure {
			return apiv1.MeasurementPhaseFailed, nil
		}
		return apiv1.MeasurementPhaseSuccessful, nil

	case failure:
		return apiv1.MeasurementPhaseFailed, nil

	case success:
		return apiv1.MeasurementPhaseSuccessful, nil

	default:
		return apiv1.MeasurementPhaseInconclusive, nil
	}
}

// evaluateMetric computes the phase of a metric from its counters
func evaluateMetric(metric *apiv1.Metric, result *apiv1.MetricResult) apiv1.AnalysisPhase {
	switch {
	case result.Failed > metric.GetFailureLimit():
		return apiv1.AnalysisPhaseFailed
	case result.Error > metric.GetErrorLimit():
		return apiv1.AnalysisPhaseFailed
	case result.Inconclusive > metric.GetInconclusiveLimit():
		return apiv1.AnalysisPhaseInconclusive
	case result.Successful >= metric.GetCount():
		return apiv1.AnalysisPhaseSuccessful
	default:
		return apiv1.AnalysisPhaseRunning
	}
}

// aggregate computes the phase of the analysis from the phases of its
// metrics. A failed metric fails the analysis even if others are running.
func aggregate(template *apiv1.AnalysisTemplate, status *apiv1.AnalysisStatus) (apiv1.AnalysisPhase, string) {
	successful := 0
	var inconclusive *apiv1.MetricResult
	for idx := range template.Spec.Metrics {
		metricResult := status.GetMetricResult(template.Spec.Metrics[idx].Name)
		if metricResult == nil {
			continue
		}

		switch metricResult.Phase {
		case apiv1.AnalysisPhaseFailed:
			return apiv1.AnalysisPhaseFailed, describeMetric(metricResult)
		case apiv1.AnalysisPhaseInconclusive:
			inconclusive = metricResult
		case apiv1.AnalysisPhaseSuccessful:
			successful++
		}
	}

	switch {
	case inconclusive != nil:
		return apiv1.AnalysisPhaseInconclusive, describeMetric(inconclusive)
	case successful == len(template.Spec.Metrics):
		return apiv1.AnalysisPhaseSuccessful, "every metric is successful"
	default:
		return apiv1.AnalysisPhaseRunning, fmt.Sprintf("%d/%d metrics successful",
			successful, len(template.Spec.Metrics))
	}
}

func describeMetric(result *apiv1.MetricResult) string {
	message := fmt.Sprintf("metric %q is %s (successful: %d, failed: %d, inconclusive: %d, error: %d)",
		result.Name, result.Phase, result.Successful, result.Failed, result.Inconclusive, result.Error)
	if last := result.GetLastMeasurement(); last != nil && last.Message != "" {
		message += ": " + last.Message
	}
	return message
}

func isMeasurementDue(metric *apiv1.Metric, result *apiv1.MetricResult, now time.Time) bool {
	last := result.GetLastMeasurement()
	if last == nil {
		return true
	}
	return !now.Before(last.FinishedAt.Add(metric.GetInterval()))
}

// nextMeasurementIn computes the time to wait before the first metric
// is due for a new measurement
func nextMeasurementIn(template *apiv1.AnalysisTemplate, status *apiv1.AnalysisStatus, now time.Time) time.Duration {
	var result time.Duration
	for idx := range template.Spec.Metrics {
		metric := &template.Spec.Metrics[idx]
		metricResult := status.GetMetricResult(metric.Name)
		if metricResult == nil || metricResult.Phase.Completed() {
			continue
		}

		wait := metric.GetInterval()
		if last := metricResult.GetLastMeasurement(); last != nil {
			wait = last.FinishedAt.Add(metric.GetInterval()).Sub(now)
		}
		if wait <= 0 {
			wait = time.Second
		}
		if result == 0 || wait < result {
			result = wait
		}
	}
	return result
}

func resultFromPhase(phase apiv1.AnalysisPhase, message string, requeueAfter time.Duration) AnalysisResult {
	result := AnalysisResult{Message: message, RequeueAfter: requeueAfter}
	switch phase {
	case apiv1.AnalysisPhaseSuccessful:
		result.Verdict = VerdictPass
	case apiv1.AnalysisPhaseFailed:
		result.Verdict = VerdictFail
	case apiv1.AnalysisPhaseInconclusive:
		result.Verdict = VerdictInconclusive
	default:
		result.Verdict = VerdictRunning
	}
	return result
}

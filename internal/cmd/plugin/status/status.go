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

// Package status implements the kubectl-rollouts status command
package status

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/logrusorgru/aurora/v4"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/replicaset"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/traffic"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

// RolloutStatus contains the status of a Rollout and of its ReplicaSets
type RolloutStatus struct {
	// Rollout is the Rollout we are investigating
	Rollout *apiv1.Rollout `json:"rollout"`

	// ReplicaSets are the ReplicaSets controlled by the Rollout,
	// sorted by revision
	ReplicaSets []appsv1.ReplicaSet `json:"replicaSets"`

	// Pods are the pods of every revision of the Rollout
	Pods []corev1.Pod `json:"pods"`

	// RoutedWeights is the traffic split read from the router, which can
	// differ from the status while the controller is catching up
	RoutedWeights *apiv1.TrafficWeights `json:"routedWeights,omitempty"`

	// ServiceSelectors maps the Services managed by the Rollout to the
	// revision they select. Missing Services are not included.
	ServiceSelectors map[string]string `json:"serviceSelectors,omitempty"`
}

// Status implements the "status" subcommand
func Status(
	ctx context.Context,
	cli client.Client,
	namespace, rolloutName string,
	format plugin.OutputFormat,
	writer io.Writer,
) error {
	status, err := ExtractRolloutStatus(ctx, cli, namespace, rolloutName)
	if err != nil {
		return err
	}

	if format != plugin.OutputFormatText {
		return plugin.Print(status, format, writer)
	}

	status.printBasicInfo(writer)
	status.printStrategyStatus(writer)
	status.printAnalysisStatus(writer)
	status.printReplicaSets(writer)
	status.printPods(writer)
	status.printConditions(writer)
	return nil
}

// ExtractRolloutStatus gets the Rollout status using the Kubernetes API
func ExtractRolloutStatus(
	ctx context.Context,
	cli client.Client,
	namespace, rolloutName string,
) (*RolloutStatus, error) {
	rollout, err := plugin.GetRollout(ctx, cli, namespace, rolloutName)
	if err != nil {
		return nil, err
	}

	replicaSets, err := plugin.ListReplicaSets(ctx, cli, rollout)
	if err != nil {
		return nil, err
	}

	var pods corev1.PodList
	if err := cli.List(
		ctx,
		&pods,
		client.InNamespace(rollout.Namespace),
		client.MatchingLabels{utils.RolloutLabelName: rollout.Name},
	); err != nil {
		return nil, fmt.Errorf("while listing the pods of rollout %s: %w", rollout.Name, err)
	}

	selectors, err := extractServiceSelectors(ctx, cli, rollout)
	if err != nil {
		return nil, err
	}

	result := &RolloutStatus{
		Rollout:          rollout,
		ReplicaSets:      replicaSets,
		Pods:             pods.Items,
		ServiceSelectors: selectors,
	}

	if rollout.IsCanary() {
		weights, err := traffic.NewRouter(cli, rollout).GetWeight(ctx, rollout)
		if err != nil {
			return nil, fmt.Errorf("while reading the traffic weights of rollout %s: %w", rollout.Name, err)
		}
		result.RoutedWeights = weights.ToStatus()
	}

	return result, nil
}

// managedServices gets the names of the Services whose selector is
// pinned by the Rollout
func managedServices(rollout *apiv1.Rollout) []string {
	var names []string
	switch {
	case rollout.IsCanary():
		names = append(names,
			rollout.Spec.Strategy.Canary.StableService,
			rollout.Spec.Strategy.Canary.CanaryService)
	case rollout.IsBlueGreen():
		names = append(names,
			rollout.Spec.Strategy.BlueGreen.ActiveService,
			rollout.Spec.Strategy.BlueGreen.PreviewService)
	}

	result := make([]string, 0, len(names))
	for _, name := range names {
		if name != "" {
			result = append(result, name)
		}
	}
	return result
}

func extractServiceSelectors(
	ctx context.Context,
	cli client.Client,
	rollout *apiv1.Rollout,
) (map[string]string, error) {
	services := managedServices(rollout)
	if len(services) == 0 {
		return nil, nil
	}

	selectors := make(map[string]string, len(services))
	for _, name := range services {
		selector, err := traffic.GetServiceSelector(ctx, cli, rollout.Namespace, name)
		if apierrs.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		selectors[name] = selector
	}
	return selectors, nil
}

func (fullStatus *RolloutStatus) printBasicInfo(writer io.Writer) {
	rollout := fullStatus.Rollout

	_, _ = fmt.Fprintln(writer, plugin.ColorizePhase(rollout.Status.Phase), " ", rollout.Status.PhaseReason)

	summary := plugin.NewTabby(writer)
	summary.AddLine("Name:", rollout.Name)
	summary.AddLine("Namespace:", rollout.Namespace)
	summary.AddLine("Strategy:", valueOrDash(rollout.GetStrategyName()))
	summary.AddLine("Images:", strings.Join(images(rollout), ", "))
	summary.AddLine("Current revision:", valueOrDash(rollout.Status.CurrentPodHash))
	summary.AddLine("Stable revision:", valueOrDash(rollout.Status.StableRS))
	if rollout.Spec.Paused {
		summary.AddLine("Paused:", aurora.Yellow("paused by the user"))
	}
	if rollout.IsAborted() {
		abortedAt := "-"
		if rollout.Status.AbortedAt != nil {
			abortedAt = rollout.Status.AbortedAt.Format(time.RFC3339)
		}
		summary.AddLine("Aborted at:", aurora.Red(abortedAt))
	}

	replicas := rollout.GetReplicas()
	summary.AddLine("Desired replicas:", replicas)
	summary.AddLine("Current replicas:", rollout.Status.Replicas)
	summary.AddLine("Updated replicas:", rollout.Status.UpdatedReplicas)
	summary.AddLine("Ready replicas:", colorizeCount(rollout.Status.ReadyReplicas, replicas))
	summary.AddLine("Available replicas:", colorizeCount(rollout.Status.AvailableReplicas, replicas))
	summary.Print()
	_, _ = fmt.Fprintln(writer)
}

func (fullStatus *RolloutStatus) printStrategyStatus(writer io.Writer) {
	rollout := fullStatus.Rollout

	switch {
	case rollout.IsCanary():
		_, _ = fmt.Fprintln(writer, aurora.Green("Canary status"))
		status := plugin.NewTabby(writer)
		steps := rollout.GetSteps()
		status.AddLine("Step:", fmt.Sprintf("%d/%d", min(int(rollout.GetCurrentStepIndex()), len(steps)), len(steps)))
		if step := rollout.GetCurrentStep(); step != nil {
			status.AddLine("Step in force:", describeStep(step))
		}
		status.AddLine("Desired weight:", rollout.GetDesiredCanaryWeight())
		if weights := rollout.Status.Canary.Weights; weights != nil {
			status.AddLine("Actual weight:", fmt.Sprintf("stable %d%%, canary %d%%", weights.Stable, weights.Canary))
		}
		if weights := fullStatus.RoutedWeights; weights != nil {
			routed := fmt.Sprintf("stable %d%%, canary %d%%", weights.Stable, weights.Canary)
			if actual := rollout.Status.Canary.Weights; actual != nil && *actual != *weights {
				status.AddLine("Routed weight:", aurora.Yellow(routed))
			} else {
				status.AddLine("Routed weight:", routed)
			}
		}
		if rollout.HasTrafficRouting() {
			status.AddLine("Traffic routing:", "nginx")
		} else {
			status.AddLine("Traffic routing:", "replica ratio")
		}
		status.Print()

	case rollout.IsBlueGreen():
		_, _ = fmt.Fprintln(writer, aurora.Green("Blue-green status"))
		status := plugin.NewTabby(writer)
		status.AddLine("Active selector:", valueOrDash(rollout.Status.BlueGreen.ActiveSelector))
		status.AddLine("Preview selector:", valueOrDash(rollout.Status.BlueGreen.PreviewSelector))
		status.AddLine("Auto promotion:", rollout.Spec.Strategy.BlueGreen.IsAutoPromotionEnabled())
		status.Print()

	default:
		_, _ = fmt.Fprintln(writer, aurora.Red("No strategy configured"))
	}
	_, _ = fmt.Fprintln(writer)

	fullStatus.printServices(writer)
}

func (fullStatus *RolloutStatus) printServices(writer io.Writer) {
	services := managedServices(fullStatus.Rollout)
	if len(services) == 0 {
		return
	}

	_, _ = fmt.Fprintln(writer, aurora.Green("Services"))
	status := plugin.NewTabby(writer)
	status.AddHeader("Name", "Selected revision")
	for _, name := range services {
		if selector, found := fullStatus.ServiceSelectors[name]; found {
			status.AddLine(name, valueOrDash(selector))
		} else {
			status.AddLine(name, aurora.Red("not found"))
		}
	}
	status.Print()
	_, _ = fmt.Fprintln(writer)
}

func (fullStatus *RolloutStatus) printAnalysisStatus(writer io.Writer) {
	analysis := fullStatus.Rollout.Status.StepAnalysis
	if analysis == nil {
		return
	}

	_, _ = fmt.Fprintln(writer, aurora.Green("Analysis status"))
	summary := plugin.NewTabby(writer)
	summary.AddLine("Template:", analysis.TemplateName)
	summary.AddLine("Run ID:", valueOrDash(analysis.RunID))
	summary.AddLine("Revision:", analysis.PodHash)
	summary.AddLine("Phase:", colorizeAnalysisPhase(analysis.Phase))
	if analysis.Message != "" {
		summary.AddLine("Message:", analysis.Message)
	}
	summary.Print()

	if len(analysis.Metrics) > 0 {
		metrics := plugin.NewTabby(writer)
		metrics.AddHeader("Metric", "Phase", "Count", "Successful", "Failed", "Inconclusive", "Error")
		for _, metric := range analysis.Metrics {
			metrics.AddLine(
				metric.Name,
				colorizeAnalysisPhase(metric.Phase),
				metric.Count,
				metric.Successful,
				metric.Failed,
				metric.Inconclusive,
				metric.Error,
			)
		}
		metrics.Print()
	}
	_, _ = fmt.Fprintln(writer)
}

func (fullStatus *RolloutStatus) printReplicaSets(writer io.Writer) {
	_, _ = fmt.Fprintln(writer, aurora.Green("ReplicaSets"))
	if len(fullStatus.ReplicaSets) == 0 {
		_, _ = fmt.Fprintln(writer, aurora.Yellow("No ReplicaSets found"))
		_, _ = fmt.Fprintln(writer)
		return
	}

	status := plugin.NewTabby(writer)
	status.AddHeader("Name", "Revision", "Hash", "Role", "Desired", "Ready", "Available", "Scale down at")
	for idx := range fullStatus.ReplicaSets {
		replicaSet := &fullStatus.ReplicaSets[idx]
		scaleDownAt := "-"
		if deadline, ok := replicaset.GetScaleDownDeadline(replicaSet); ok {
			scaleDownAt = deadline.Format(time.RFC3339)
		}
		status.AddLine(
			replicaSet.Name,
			strconv.FormatInt(replicaset.GetRevision(replicaSet), 10),
			utils.GetPodTemplateHash(replicaSet),
			fullStatus.role(replicaSet),
			replicaset.GetReplicas(replicaSet),
			replicaSet.Status.ReadyReplicas,
			replicaSet.Status.AvailableReplicas,
			scaleDownAt,
		)
	}
	status.Print()
	_, _ = fmt.Fprintln(writer)
}

func (fullStatus *RolloutStatus) printPods(writer io.Writer) {
	_, _ = fmt.Fprintln(writer, aurora.Green("Pods"))
	if len(fullStatus.Pods) == 0 {
		_, _ = fmt.Fprintln(writer, aurora.Yellow("No Pods found"))
		_, _ = fmt.Fprintln(writer)
		return
	}

	summary := plugin.NewTabby(writer)
	summary.AddLine("Ready pods:", colorizeCount(
		int32(utils.CountReadyPods(fullStatus.Pods)), //nolint:gosec
		int32(len(fullStatus.Pods))))                 //nolint:gosec
	summary.Print()

	podsByStatus := utils.ListStatusPods(fullStatus.Pods)
	status := plugin.NewTabby(writer)
	status.AddHeader("Status", "Count", "Pods")
	for _, podStatus := range []utils.PodStatus{utils.PodHealthy, utils.PodStarting, utils.PodFailed} {
		names := podsByStatus[podStatus]
		if len(names) == 0 {
			continue
		}
		status.AddLine(podStatus, len(names), strings.Join(names, ", "))
	}
	status.Print()
	_, _ = fmt.Fprintln(writer)
}

func (fullStatus *RolloutStatus) printConditions(writer io.Writer) {
	conditions := fullStatus.Rollout.Status.Conditions
	if len(conditions) == 0 {
		return
	}

	_, _ = fmt.Fprintln(writer, aurora.Green("Conditions"))
	status := plugin.NewTabby(writer)
	status.AddHeader("Type", "Status", "Reason", "Last transition")
	for _, condition := range conditions {
		status.AddLine(
			condition.Type,
			condition.Status,
			condition.Reason,
			condition.LastTransitionTime.Format(time.RFC3339),
		)
	}
	status.Print()
}

// role describes the part a ReplicaSet plays in the Rollout
func (fullStatus *RolloutStatus) role(replicaSet *appsv1.ReplicaSet) string {
	rollout := fullStatus.Rollout
	hash := utils.GetPodTemplateHash(replicaSet)
	isStable := hash == rollout.Status.StableRS
	isCurrent := hash == rollout.Status.CurrentPodHash

	switch {
	case isStable && isCurrent:
		return "stable"
	case isStable && rollout.IsBlueGreen():
		return "active"
	case isStable:
		return "stable"
	case isCurrent && rollout.IsBlueGreen():
		return "preview"
	case isCurrent:
		return "canary"
	default:
		return "old"
	}
}

func describeStep(step *apiv1.CanaryStep) string {
	switch {
	case step.SetWeight != nil:
		return fmt.Sprintf("setWeight %d%%", *step.SetWeight)
	case step.Pause != nil && step.Pause.IsIndefinite():
		return "pause (until promoted)"
	case step.Pause != nil:
		return fmt.Sprintf("pause %s", step.Pause.Duration.Duration)
	case step.Analysis != nil:
		return fmt.Sprintf("analysis %s", step.Analysis.TemplateName)
	default:
		return step.Type()
	}
}

func images(rollout *apiv1.Rollout) []string {
	result := make([]string, 0, len(rollout.Spec.Template.Spec.Containers))
	for _, container := range rollout.Spec.Template.Spec.Containers {
		result = append(result, container.Image)
	}
	return result
}

func colorizeCount(actual, desired int32) aurora.Value {
	if actual >= desired {
		return aurora.Green(actual)
	}
	return aurora.Red(actual)
}

func colorizeAnalysisPhase(phase apiv1.AnalysisPhase) aurora.Value {
	switch phase {
	case apiv1.AnalysisPhaseSuccessful:
		return aurora.Green(phase)
	case apiv1.AnalysisPhaseFailed:
		return aurora.Red(phase)
	default:
		return aurora.Yellow(phase)
	}
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

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
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
)

// SetPhase sets the phase of the Rollout, keeping the Progressing,
// Paused and Healthy conditions coherent with it
func SetPhase(
	rollout *apiv1.Rollout,
	phase apiv1.RolloutPhase,
	reason apiv1.ConditionReason,
	message string,
) {
	rollout.Status.Phase = phase
	rollout.Status.PhaseReason = message

	progressing := metav1.ConditionFalse
	paused := metav1.ConditionFalse
	healthy := metav1.ConditionFalse
	switch phase {
	case apiv1.RolloutPhaseProgressing:
		progressing = metav1.ConditionTrue
	case apiv1.RolloutPhasePaused:
		progressing = metav1.ConditionTrue
		paused = metav1.ConditionTrue
	case apiv1.RolloutPhaseHealthy:
		healthy = metav1.ConditionTrue
	}

	setCondition(rollout, apiv1.ConditionProgressing, progressing, reason, message)
	setCondition(rollout, apiv1.ConditionPaused, paused, reason, message)
	setCondition(rollout, apiv1.ConditionHealthy, healthy, reason, message)
}

// SetAvailableCondition sets the Available condition given the number
// of available replicas
func SetAvailableCondition(rollout *apiv1.Rollout) {
	if rollout.Status.AvailableReplicas >= rollout.GetReplicas() {
		setCondition(rollout, apiv1.ConditionAvailable, metav1.ConditionTrue,
			apiv1.ReasonAvailable, "Rollout has the desired number of available replicas")
		return
	}

	setCondition(rollout, apiv1.ConditionAvailable, metav1.ConditionFalse,
		apiv1.ReasonUnavailable, fmt.Sprintf("%d of %d replicas available",
			rollout.Status.AvailableReplicas, rollout.GetReplicas()))
}

func setCondition(
	rollout *apiv1.Rollout,
	conditionType apiv1.RolloutConditionType,
	status metav1.ConditionStatus,
	reason apiv1.ConditionReason,
	message string,
) {
	if rollout.Status.Conditions == nil {
		rollout.Status.Conditions = []metav1.Condition{}
	}

	meta.SetStatusCondition(&rollout.Status.Conditions, metav1.Condition{
		Type:               string(conditionType),
		Status:             status,
		Reason:             string(reason),
		Message:            message,
		ObservedGeneration: rollout.Generation,
	})
}

// RegisterPhase update phase in the status of the rollout with the
// proper reason
func RegisterPhase(
	ctx context.Context,
	cli client.Client,
	rollout *apiv1.Rollout,
	phase apiv1.RolloutPhase,
	reason apiv1.ConditionReason,
	message string,
) error {
	origPhase := rollout.Status.Phase
	if err := UpdateAndRefresh(
		ctx,
		cli,
		rollout,
		func(rollout *apiv1.Rollout) {
			SetPhase(rollout, phase, reason, message)
		},
	); err != nil {
		return fmt.Errorf("while updating phase: %w", err)
	}

	LogPhaseTransition(ctx, origPhase, rollout.Status.Phase)
	return nil
}

// LogPhaseTransition logs the entering and the exit from the
// Healthy and Degraded phases
func LogPhaseTransition(ctx context.Context, origPhase, phase apiv1.RolloutPhase) {
	if origPhase == phase {
		return
	}

	contextLogger := log.FromContext(ctx)
	switch {
	case phase == apiv1.RolloutPhaseHealthy:
		contextLogger.Info("Rollout is healthy")
	case phase == apiv1.RolloutPhaseDegraded:
		contextLogger.Info("Rollout is degraded")
	case origPhase == apiv1.RolloutPhaseHealthy:
		contextLogger.Info("Rollout is not healthy", "phase", phase)
	}
}

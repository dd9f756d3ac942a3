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
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/metrics"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/health"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/replicaset"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/traffic"
	"github.com/lily4499/gitops-argocd-gke/pkg/resources/status"
)

// reconcileCanary executes the canary step in force
func (p *rolloutPass) reconcileCanary(ctx context.Context) (ctrl.Result, error) {
	rollout := p.rollout
	if rollout.Status.PromoteFull || rollout.HasCompletedSteps() {
		return p.completeCanary(ctx)
	}

	weight := rollout.GetDesiredCanaryWeight()
	weights, err := traffic.NewWeights(weight)
	if err != nil {
		p.abort(ctx, apiv1.ReasonInvalidSpec, err.Error())
		return p.reconcileAborted(ctx)
	}

	newReplicas, stableReplicas := replicaset.CanaryReplicas(
		rollout.GetReplicas(), weight, rollout.HasTrafficRouting())
	if _, err := replicaset.Scale(ctx, p.r.Client, p.set.New, newReplicas); err != nil {
		return ctrl.Result{}, err
	}

	readiness, err := p.evaluateReadiness(ctx, p.set.New, newReplicas)
	if err != nil {
		return ctrl.Result{}, err
	}
	switch readiness.Verdict {
	case health.VerdictFail:
		p.abort(ctx, apiv1.ReasonReplicasFailing, readiness.Message)
		return p.reconcileAborted(ctx)
	case health.VerdictRunning:
		p.setProgressing(apiv1.ReasonWaitingForReplicas, readiness.Message)
		return ctrl.Result{}, nil
	}

	// The stable revision is shrunk and the traffic is shifted only when
	// the pods of the new revision are able to serve it
	if p.set.Stable != nil {
		if _, err := replicaset.Scale(ctx, p.r.Client, p.set.Stable, stableReplicas); err != nil {
			return ctrl.Result{}, err
		}
	}
	if err := p.applyWeights(ctx, weights); err != nil {
		return ctrl.Result{}, err
	}

	step := rollout.GetCurrentStep()
	switch {
	case step == nil:
		return p.completeCanary(ctx)
	case step.Pause != nil:
		return p.reconcilePauseStep(ctx, step)
	case step.Analysis != nil:
		return p.reconcileAnalysisStep(ctx, step)
	default:
		return p.advanceStep(ctx, step)
	}
}

// applyWeights sends the passed share of the traffic to the new revision
func (p *rolloutPass) applyWeights(ctx context.Context, weights traffic.Weights) error {
	rollout := p.rollout

	if err := traffic.ReconcileCanaryServices(
		ctx, p.r.Client, rollout, rollout.Status.StableRS, p.podHash); err != nil {
		return err
	}

	if err := p.router.SetWeight(ctx, rollout, weights); err != nil {
		return fmt.Errorf("while setting the traffic weights: %w", err)
	}

	if current := traffic.FromStatus(rollout); current != weights {
		log.FromContext(ctx).Info("Traffic weights updated",
			"from", current.String(), "to", weights.String(), "router", p.router.Type())
	}
	rollout.Status.Canary.Weights = weights.ToStatus()
	return nil
}

// reconcilePauseStep waits for the pause to expire or, for an indefinite
// pause, for the user to promote the rollout
func (p *rolloutPass) reconcilePauseStep(ctx context.Context, step *apiv1.CanaryStep) (ctrl.Result, error) {
	rollout := p.rollout
	index := rollout.GetCurrentStepIndex()

	if rollout.Status.PauseStartTime == nil {
		rollout.Status.PauseStartTime = ptr.To(metav1.NewTime(p.now))
	}

	if step.Pause.IsIndefinite() {
		p.setPaused(apiv1.ReasonWaitingForPromotion,
			fmt.Sprintf("Paused at step %d, waiting for promotion", index))
		return ctrl.Result{}, nil
	}

	duration := step.Pause.Duration.Duration
	remaining := duration - p.now.Sub(rollout.Status.PauseStartTime.Time)
	if remaining <= 0 {
		return p.advanceStep(ctx, step)
	}

	p.setPaused(apiv1.ReasonRolloutPaused, fmt.Sprintf("Pausing for %s at step %d", duration, index))
	return ctrl.Result{RequeueAfter: remaining}, nil
}

// reconcileAnalysisStep runs the analysis of the step in force
func (p *rolloutPass) reconcileAnalysisStep(ctx context.Context, step *apiv1.CanaryStep) (ctrl.Result, error) {
	result, err := p.runAnalysis(ctx, step.Analysis, p.rollout.GetCurrentStepIndex())
	if err != nil {
		return ctrl.Result{}, err
	}

	switch result.Verdict {
	case health.VerdictPass:
		return p.advanceStep(ctx, step)
	case health.VerdictFail:
		p.abort(ctx, apiv1.ReasonAnalysisFailed, result.Message)
		return p.reconcileAborted(ctx)
	case health.VerdictInconclusive:
		p.setPaused(apiv1.ReasonAnalysisInconclusive, result.Message)
		return ctrl.Result{}, nil
	default:
		p.setProgressing(apiv1.ReasonAnalysisRunning, result.Message)
		return ctrl.Result{RequeueAfter: result.RequeueAfter}, nil
	}
}

// advanceStep marks the step in force as completed
func (p *rolloutPass) advanceStep(ctx context.Context, step *apiv1.CanaryStep) (ctrl.Result, error) {
	rollout := p.rollout
	index := rollout.GetCurrentStepIndex()
	total := len(rollout.GetSteps())

	log.FromContext(ctx).Info("Step completed", "step", index, "type", step.Type())
	metrics.RecordStepTransition(rollout.Namespace, rollout.Name, step.Type())
	p.r.Recorder.Eventf(rollout, corev1.EventTypeNormal, string(apiv1.ReasonStepCompleted),
		"Step %d/%d (%s) completed", index+1, total, step.Type())

	rollout.Status.CurrentStepIndex = ptr.To(index + 1)
	rollout.Status.PauseStartTime = nil
	rollout.Status.StepAnalysis = nil
	rollout.Status.LastProgressTime = ptr.To(metav1.NewTime(p.now))
	status.SetPhase(rollout, apiv1.RolloutPhaseProgressing, apiv1.ReasonStepCompleted,
		fmt.Sprintf("Step %d/%d completed", index+1, total))

	// The status change triggers the next step
	return ctrl.Result{}, nil
}

// completeCanary scales the new revision to the desired size and, once it
// is available, promotes it to stable
func (p *rolloutPass) completeCanary(ctx context.Context) (ctrl.Result, error) {
	rollout := p.rollout
	replicas := rollout.GetReplicas()

	if _, err := replicaset.Scale(ctx, p.r.Client, p.set.New, replicas); err != nil {
		return ctrl.Result{}, err
	}

	readiness, err := p.evaluateReadiness(ctx, p.set.New, replicas)
	if err != nil {
		return ctrl.Result{}, err
	}
	switch readiness.Verdict {
	case health.VerdictFail:
		p.abort(ctx, apiv1.ReasonReplicasFailing, readiness.Message)
		return p.reconcileAborted(ctx)
	case health.VerdictRunning:
		p.setProgressing(apiv1.ReasonWaitingForReplicas, readiness.Message)
		return ctrl.Result{}, nil
	}

	full, err := traffic.NewWeights(100)
	if err != nil {
		return ctrl.Result{}, err
	}
	if err := p.applyWeights(ctx, full); err != nil {
		return ctrl.Result{}, err
	}

	if err := p.promote(ctx); err != nil {
		return ctrl.Result{}, err
	}

	requeueAfter, err := replicaset.ScaleDownOld(ctx, p.r.Client, p.set.Old, 0, p.now)
	return ctrl.Result{RequeueAfter: requeueAfter}, err
}

// runAnalysis runs an analysis against the new revision, keeping its
// state in the status of the Rollout
func (p *rolloutPass) runAnalysis(
	ctx context.Context,
	analysis *apiv1.RolloutAnalysis,
	stepIndex int32,
) (health.AnalysisResult, error) {
	rollout := p.rollout

	analysisStatus := rollout.Status.StepAnalysis
	if analysisStatus == nil ||
		analysisStatus.PodHash != p.podHash ||
		analysisStatus.StepIndex != stepIndex ||
		analysisStatus.TemplateName != analysis.TemplateName {
		analysisStatus = health.NewAnalysisStatus(analysis.TemplateName, p.podHash, stepIndex, p.now)
		log.FromContext(ctx).Info("Starting analysis",
			"analysisTemplate", analysis.TemplateName,
			"analysisRunID", analysisStatus.RunID,
			"step", stepIndex)
		rollout.Status.StepAnalysis = analysisStatus
	}

	var template apiv1.AnalysisTemplate
	if err := p.r.Get(
		ctx,
		client.ObjectKey{Namespace: rollout.Namespace, Name: analysis.TemplateName},
		&template,
	); err != nil {
		if !apierrs.IsNotFound(err) {
			return health.AnalysisResult{}, fmt.Errorf("while getting analysis template %s: %w",
				analysis.TemplateName, err)
		}

		message := fmt.Sprintf("analysis template %s not found", analysis.TemplateName)
		analysisStatus.Phase = apiv1.AnalysisPhaseFailed
		analysisStatus.Message = message
		return health.AnalysisResult{Verdict: health.VerdictFail, Message: message}, nil
	}

	return p.r.analysisRunner.Run(ctx, &template, analysis.Args, analysisStatus), nil
}

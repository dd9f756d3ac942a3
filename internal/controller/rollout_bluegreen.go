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

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/health"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/replicaset"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/traffic"
)

// reconcileBlueGreen runs the new revision side by side with the stable
// one, exposed only through the preview Service, and switches the active
// Service once the new revision is promoted
func (p *rolloutPass) reconcileBlueGreen(ctx context.Context) (ctrl.Result, error) {
	rollout := p.rollout
	blueGreen := rollout.Spec.Strategy.BlueGreen
	replicas := rollout.GetReplicas()

	if _, err := replicaset.Scale(ctx, p.r.Client, p.set.New, replicas); err != nil {
		return ctrl.Result{}, err
	}

	if err := traffic.ReconcileBlueGreenServices(
		ctx, p.r.Client, rollout, rollout.Status.StableRS, p.podHash); err != nil {
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

	if rollout.Status.PromoteFull {
		return p.promoteBlueGreen(ctx)
	}

	if analysis := blueGreen.PrePromotionAnalysis; analysis != nil {
		result, err := p.runAnalysis(ctx, analysis, apiv1.PrePromotionStepIndex)
		if err != nil {
			return ctrl.Result{}, err
		}

		switch result.Verdict {
		case health.VerdictFail:
			p.abort(ctx, apiv1.ReasonAnalysisFailed, result.Message)
			return p.reconcileAborted(ctx)
		case health.VerdictInconclusive:
			p.setPaused(apiv1.ReasonAnalysisInconclusive, result.Message)
			return ctrl.Result{}, nil
		case health.VerdictRunning:
			p.setProgressing(apiv1.ReasonAnalysisRunning, result.Message)
			return ctrl.Result{RequeueAfter: result.RequeueAfter}, nil
		}
	}

	if rollout.Status.PauseStartTime == nil {
		rollout.Status.PauseStartTime = ptr.To(metav1.NewTime(p.now))
	}

	if !blueGreen.IsAutoPromotionEnabled() {
		p.setPaused(apiv1.ReasonWaitingForPromotion, "New revision ready, waiting for promotion")
		return ctrl.Result{}, nil
	}

	delay := blueGreen.GetAutoPromotionDelay()
	if remaining := delay - p.now.Sub(rollout.Status.PauseStartTime.Time); remaining > 0 {
		p.setPaused(apiv1.ReasonWaitingForPromotion,
			fmt.Sprintf("New revision ready, promoting it after %s", delay))
		return ctrl.Result{RequeueAfter: remaining}, nil
	}

	return p.promoteBlueGreen(ctx)
}

// promoteBlueGreen switches the active Service to the new revision and
// schedules the scale down of the previous one
func (p *rolloutPass) promoteBlueGreen(ctx context.Context) (ctrl.Result, error) {
	if err := p.promote(ctx); err != nil {
		return ctrl.Result{}, err
	}

	requeueAfter, err := replicaset.ScaleDownOld(
		ctx,
		p.r.Client,
		p.set.Old,
		p.rollout.Spec.Strategy.BlueGreen.GetScaleDownDelay(),
		p.now,
	)
	return ctrl.Result{RequeueAfter: requeueAfter}, err
}

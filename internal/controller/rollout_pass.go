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
	"errors"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/metrics"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/health"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/replicaset"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/rollback"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/traffic"
	"github.com/lily4499/gitops-argocd-gke/pkg/resources/status"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils/hash"
)

// rolloutPass is a single reconciliation of a Rollout. Every decision
// is taken from the state observed at the beginning of the pass, and
// the changes to the status are persisted by the caller.
type rolloutPass struct {
	r       *RolloutReconciler
	rollout *apiv1.Rollout
	router  traffic.Router

	// now is the time at the beginning of the pass
	now time.Time

	// initialPhase is the phase persisted before this pass
	initialPhase apiv1.RolloutPhase

	podHash        string
	replicaSetList []appsv1.ReplicaSet
	set            replicaset.Set
}

func newRolloutPass(r *RolloutReconciler, rollout *apiv1.Rollout) *rolloutPass {
	return &rolloutPass{
		r:            r,
		rollout:      rollout,
		router:       traffic.NewRouter(r.Client, rollout),
		now:          r.clock.Now(),
		initialPhase: rollout.Status.Phase,
	}
}

func (p *rolloutPass) run(ctx context.Context) (ctrl.Result, error) {
	contextLogger := log.FromContext(ctx)
	rollout := p.rollout

	rollout.Status.ObservedGeneration = rollout.Generation

	selector, err := checkExecutable(rollout)
	if err != nil {
		contextLogger.Warning("Rollout cannot be executed", "reason", err.Error())
		status.SetPhase(rollout, apiv1.RolloutPhaseDegraded, apiv1.ReasonInvalidSpec, err.Error())
		return ctrl.Result{}, nil
	}
	rollout.Status.Selector = selector.String()

	if p.podHash, err = hash.ComputePodTemplateHash(&rollout.Spec.Template, rollout.Status.CollisionCount); err != nil {
		return ctrl.Result{}, fmt.Errorf("while computing the pod template hash: %w", err)
	}

	if p.replicaSetList, err = replicaset.List(ctx, p.r.Client, rollout); err != nil {
		return ctrl.Result{}, err
	}
	p.set = replicaset.NewSet(p.replicaSetList, p.podHash, rollout.Status.StableRS)

	ctx = log.IntoContext(ctx, contextLogger.WithValues("podHash", p.podHash))
	if rollout.Status.StableRS != "" && rollout.Status.StableRS == p.podHash {
		return p.reconcileStableRevision(ctx)
	}

	return p.reconcileNewRevision(ctx)
}

// checkExecutable verifies the parts of the Rollout the controller cannot
// work without. The complete validation is done by the admission webhook.
func checkExecutable(rollout *apiv1.Rollout) (labels.Selector, error) {
	if rollout.Spec.Selector == nil {
		return nil, errors.New("missing pod selector")
	}

	selector, err := metav1.LabelSelectorAsSelector(rollout.Spec.Selector)
	if err != nil {
		return nil, fmt.Errorf("invalid pod selector: %w", err)
	}
	if selector.Empty() {
		return nil, errors.New("empty pod selector")
	}
	if !selector.Matches(labels.Set(rollout.Spec.Template.Labels)) {
		return nil, errors.New("the pod selector does not match the template labels")
	}

	if rollout.IsCanary() == rollout.IsBlueGreen() {
		return nil, errors.New("exactly one of the canary and the blueGreen strategies must be set")
	}

	if rollout.IsBlueGreen() && rollout.Spec.Strategy.BlueGreen.ActiveService == "" {
		return nil, errors.New("the blueGreen strategy requires an active service")
	}

	return selector, nil
}

// reconcileStableRevision handles a template matching the stable revision.
// This is the steady state, but it is also reached when the template goes
// back to the stable revision in the middle of a rollout, because of a Git
// revert or an undo: in that case the new revision is dropped at once.
func (p *rolloutPass) reconcileStableRevision(ctx context.Context) (ctrl.Result, error) {
	contextLogger := log.FromContext(ctx)
	rollout := p.rollout

	fastRollback := rollout.Status.CurrentPodHash != p.podHash
	if fastRollback {
		contextLogger.Info("Template matches the stable revision, rolling back",
			"abandonedPodHash", rollout.Status.CurrentPodHash)
		p.r.Recorder.Eventf(rollout, corev1.EventTypeNormal, string(apiv1.ReasonFastRollback),
			"Rolling back to the stable revision %s", p.podHash)
	}
	p.resetCycle()
	rollout.Status.CurrentPodHash = p.podHash
	if rollout.IsCanary() {
		rollout.Status.CurrentStepIndex = ptr.To(int32(len(rollout.GetSteps()))) //nolint:gosec
	}

	if err := p.ensureNewReplicaSet(ctx); err != nil {
		return ctrl.Result{}, err
	}
	stableRS := p.set.Stable
	replicas := rollout.GetReplicas()

	if err := replicaset.RemoveScaleDownDeadline(ctx, p.r.Client, stableRS); err != nil {
		return ctrl.Result{}, err
	}
	if _, err := replicaset.Scale(ctx, p.r.Client, stableRS, replicas); err != nil {
		return ctrl.Result{}, err
	}

	if err := p.routeToStable(ctx); err != nil {
		return ctrl.Result{}, err
	}

	var scaleDownDelay time.Duration
	if bg := rollout.Spec.Strategy.BlueGreen; bg != nil && !fastRollback {
		scaleDownDelay = bg.GetScaleDownDelay()
	}
	requeueAfter, err := replicaset.ScaleDownOld(ctx, p.r.Client, p.set.Old, scaleDownDelay, p.now)
	if err != nil {
		return ctrl.Result{}, err
	}

	if _, err := replicaset.CleanupHistory(ctx, p.r.Client, rollout, p.set); err != nil {
		return ctrl.Result{}, err
	}

	readiness, err := p.evaluateReadiness(ctx, stableRS, replicas)
	if err != nil {
		return ctrl.Result{}, err
	}
	if readiness.Verdict != health.VerdictPass {
		p.setProgressing(apiv1.ReasonWaitingForReplicas, readiness.Message)
		return ctrl.Result{RequeueAfter: requeueAfter}, nil
	}

	reason := apiv1.ReasonRolloutCompleted
	if fastRollback {
		reason = apiv1.ReasonFastRollback
	}
	status.SetPhase(rollout, apiv1.RolloutPhaseHealthy, reason, "Rollout is healthy")
	return ctrl.Result{RequeueAfter: requeueAfter}, nil
}

// reconcileNewRevision drives a template different from the stable revision
func (p *rolloutPass) reconcileNewRevision(ctx context.Context) (ctrl.Result, error) {
	rollout := p.rollout

	if rollout.Status.CurrentPodHash != p.podHash {
		if result, started := p.startRevision(ctx); !started {
			return result, nil
		}
	}

	if rollout.IsAborted() {
		return p.reconcileAborted(ctx)
	}

	if err := p.ensureNewReplicaSet(ctx); err != nil {
		return ctrl.Result{}, err
	}

	if rollout.Spec.Paused {
		p.setPaused(apiv1.ReasonRolloutPaused, "Rollout paused by the user")
		return ctrl.Result{}, nil
	}

	// A Rollout leaving the Degraded phase without being aborted had an
	// invalid spec, and the time spent waiting for a fix is not a lack of
	// progress
	if rollout.Status.LastProgressTime == nil || p.initialPhase == apiv1.RolloutPhaseDegraded {
		rollout.Status.LastProgressTime = ptr.To(metav1.NewTime(p.now))
	}
	exceeded, remaining := p.checkProgressDeadline()
	if exceeded {
		p.abort(ctx, apiv1.ReasonProgressDeadlineExceeded, fmt.Sprintf(
			"Rollout made no progress in %s", rollout.GetProgressDeadline()))
		return p.reconcileAborted(ctx)
	}

	// Revisions abandoned in the middle of their rollout
	if _, err := replicaset.ScaleDownOld(ctx, p.r.Client, p.set.Old, 0, p.now); err != nil {
		return ctrl.Result{}, err
	}

	var result ctrl.Result
	var err error
	switch {
	case rollout.Status.StableRS == "":
		result, err = p.reconcileFirstRevision(ctx)
	case rollout.IsCanary():
		result, err = p.reconcileCanary(ctx)
	default:
		result, err = p.reconcileBlueGreen(ctx)
	}
	if err != nil {
		return result, err
	}

	if rollout.Status.Phase == apiv1.RolloutPhaseProgressing && remaining > 0 {
		result.RequeueAfter = minRequeue(result.RequeueAfter, remaining)
	}
	return result, nil
}

// startRevision starts the rollout of a new pod template, unless it is
// delayed by the rollout throttle
func (p *rolloutPass) startRevision(ctx context.Context) (ctrl.Result, bool) {
	contextLogger := log.FromContext(ctx)
	rollout := p.rollout

	if rollout.Status.StableRS != "" {
		decision := p.r.throttle.CoordinateRevision(client.ObjectKeyFromObject(rollout), p.podHash)
		if !decision.RolloutAllowed {
			contextLogger.Info("Waiting before starting the new revision",
				"timeToWait", decision.TimeToWait)
			status.SetPhase(rollout, apiv1.RolloutPhaseProgressing, apiv1.ReasonRolloutThrottled,
				fmt.Sprintf("Waiting to start the rollout of revision %s", p.podHash))
			return ctrl.Result{RequeueAfter: decision.TimeToWait}, false
		}
	}

	contextLogger.Info("Starting the rollout of a new revision",
		"previousPodHash", rollout.Status.CurrentPodHash,
		"stablePodHash", rollout.Status.StableRS)
	p.r.Recorder.Eventf(rollout, corev1.EventTypeNormal, "RolloutStarted",
		"Starting the rollout of revision %s", p.podHash)

	p.resetCycle()
	rollout.Status.CurrentPodHash = p.podHash
	rollout.Status.LastProgressTime = ptr.To(metav1.NewTime(p.now))
	if rollout.IsCanary() {
		rollout.Status.CurrentStepIndex = ptr.To(int32(0))
		if rollout.Status.Canary.Weights == nil {
			rollout.Status.Canary.Weights = traffic.StableOnly().ToStatus()
		}
	}
	status.SetPhase(rollout, apiv1.RolloutPhaseProgressing, apiv1.ReasonNewReplicaSetCreated,
		fmt.Sprintf("Rolling out revision %s", p.podHash))
	return ctrl.Result{}, true
}

// resetCycle clears the status of the previous rollout cycle
func (p *rolloutPass) resetCycle() {
	rollout := p.rollout
	rollout.Status.Abort = false
	rollout.Status.AbortedAt = nil
	rollout.Status.PromoteFull = false
	rollout.Status.PauseStartTime = nil
	rollout.Status.StepAnalysis = nil
}

// ensureNewReplicaSet makes sure the ReplicaSet of the current pod template
// exists and refreshes the classification of the ReplicaSets
func (p *rolloutPass) ensureNewReplicaSet(ctx context.Context) error {
	contextLogger := log.FromContext(ctx)
	rollout := p.rollout

	newRS, created, err := replicaset.EnsureNew(
		ctx, p.r.Client, rollout, p.podHash, p.replicaSetList, p.r.inheritance)
	if errors.Is(err, replicaset.ErrHashCollision) {
		collisionCount := ptr.Deref(rollout.Status.CollisionCount, 0) + 1
		rollout.Status.CollisionCount = &collisionCount
		contextLogger.Info("Pod template hash collision, computing a new hash",
			"collisionCount", collisionCount)
		return ErrNextLoop
	}
	if err != nil {
		return err
	}

	if created {
		p.r.Recorder.Eventf(rollout, corev1.EventTypeNormal, string(apiv1.ReasonNewReplicaSetCreated),
			"Created ReplicaSet %s", newRS.Name)
	}
	if replicaset.NewSet(p.replicaSetList, p.podHash, "").New == nil {
		p.replicaSetList = append(p.replicaSetList, *newRS)
	}
	p.set = replicaset.NewSet(p.replicaSetList, p.podHash, rollout.Status.StableRS)
	return nil
}

// reconcileFirstRevision deploys the first revision of a Rollout, which has
// nothing to be compared with and becomes stable as soon as it is available
func (p *rolloutPass) reconcileFirstRevision(ctx context.Context) (ctrl.Result, error) {
	rollout := p.rollout
	newRS := p.set.New
	replicas := rollout.GetReplicas()

	if _, err := replicaset.Scale(ctx, p.r.Client, newRS, replicas); err != nil {
		return ctrl.Result{}, err
	}

	readiness, err := p.evaluateReadiness(ctx, newRS, replicas)
	if err != nil {
		return ctrl.Result{}, err
	}

	switch readiness.Verdict {
	case health.VerdictFail:
		p.abort(ctx, apiv1.ReasonReplicasFailing, readiness.Message)
		return p.reconcileAborted(ctx)

	case health.VerdictPass:
		return ctrl.Result{}, p.promote(ctx)

	default:
		p.setProgressing(apiv1.ReasonWaitingForReplicas, readiness.Message)
		return ctrl.Result{}, nil
	}
}

// promote makes the current revision the stable one. The traffic must
// already be sent to the new revision by the caller.
func (p *rolloutPass) promote(ctx context.Context) error {
	rollout := p.rollout

	rollout.Status.StableRS = p.podHash
	p.set = replicaset.NewSet(p.replicaSetList, p.podHash, p.podHash)
	if err := p.routeToStable(ctx); err != nil {
		return err
	}

	p.resetCycle()
	rollout.Status.LastProgressTime = ptr.To(metav1.NewTime(p.now))
	if rollout.IsCanary() {
		rollout.Status.CurrentStepIndex = ptr.To(int32(len(rollout.GetSteps()))) //nolint:gosec
	}

	log.FromContext(ctx).Info("Revision promoted to stable")
	p.r.Recorder.Eventf(rollout, corev1.EventTypeNormal, string(apiv1.ReasonRolloutCompleted),
		"Revision %s promoted to stable", p.podHash)
	status.SetPhase(rollout, apiv1.RolloutPhaseHealthy, apiv1.ReasonRolloutCompleted, "Rollout is healthy")
	return nil
}

// routeToStable sends every request to the stable revision
func (p *rolloutPass) routeToStable(ctx context.Context) error {
	rollout := p.rollout
	stableHash := rollout.Status.StableRS

	if rollout.IsCanary() {
		if err := traffic.ReconcileCanaryServices(ctx, p.r.Client, rollout, stableHash, stableHash); err != nil {
			return err
		}
		if err := p.router.Reset(ctx, rollout); err != nil {
			return fmt.Errorf("while resetting the traffic routing: %w", err)
		}
		rollout.Status.Canary.Weights = traffic.StableOnly().ToStatus()
	}

	if rollout.IsBlueGreen() {
		return traffic.ReconcileBlueGreenServices(ctx, p.r.Client, rollout, stableHash, stableHash)
	}

	return nil
}

// abort marks the current revision as aborted
func (p *rolloutPass) abort(ctx context.Context, reason apiv1.ConditionReason, message string) {
	rollout := p.rollout
	if rollout.IsAborted() {
		return
	}

	log.FromContext(ctx).Info("Aborting the rollout", "reason", reason, "message", message)
	rollout.Status.Abort = true
	rollout.Status.AbortedAt = ptr.To(metav1.NewTime(p.now))
	rollout.Status.PauseStartTime = nil
	status.SetPhase(rollout, apiv1.RolloutPhaseDegraded, reason, message)

	metrics.RecordAbort(rollout.Namespace, rollout.Name, string(reason))
	p.r.Recorder.Event(rollout, corev1.EventTypeWarning, string(reason), message)
}

// reconcileAborted restores the stable revision of an aborted Rollout.
// The Rollout stays Degraded until the template changes or the user
// retries the rollout.
func (p *rolloutPass) reconcileAborted(ctx context.Context) (ctrl.Result, error) {
	contextLogger := log.FromContext(ctx)
	rollout := p.rollout

	if rollout.Status.Phase != apiv1.RolloutPhaseDegraded {
		// The abort has been requested by the user
		metrics.RecordAbort(rollout.Namespace, rollout.Name, string(apiv1.ReasonRolloutAborted))
		p.r.Recorder.Event(rollout, corev1.EventTypeWarning, string(apiv1.ReasonRolloutAborted),
			"Rollout aborted by the user")
		status.SetPhase(rollout, apiv1.RolloutPhaseDegraded, apiv1.ReasonRolloutAborted,
			"Rollout aborted by the user")
	}

	result, err := rollback.Execute(ctx, p.r.Client, rollout, p.set, p.router)
	if err != nil {
		return ctrl.Result{}, fmt.Errorf("while rolling back: %w", err)
	}
	if !result.Completed {
		contextLogger.Info("Rollback in progress", "message", result.Message)
	}

	return ctrl.Result{}, nil
}

// checkProgressDeadline checks if the Rollout made no progress within the
// progress deadline. Pauses and running analyses stop the clock.
func (p *rolloutPass) checkProgressDeadline() (bool, time.Duration) {
	rollout := p.rollout
	if p.initialPhase == apiv1.RolloutPhasePaused || rollout.Status.LastProgressTime == nil {
		return false, 0
	}

	if analysis := rollout.Status.StepAnalysis; analysis != nil &&
		analysis.PodHash == p.podHash && !analysis.Phase.Completed() {
		return false, 0
	}

	elapsed := p.now.Sub(rollout.Status.LastProgressTime.Time)
	deadline := rollout.GetProgressDeadline()
	if elapsed > deadline {
		return true, 0
	}
	return false, deadline - elapsed
}

// evaluateReadiness checks the pods of a revision
func (p *rolloutPass) evaluateReadiness(
	ctx context.Context,
	replicaSet *appsv1.ReplicaSet,
	replicas int32,
) (health.ReadinessResult, error) {
	pods, err := health.ListPods(ctx, p.r.Client, p.rollout, utils.GetPodTemplateHash(replicaSet))
	if err != nil {
		return health.ReadinessResult{}, err
	}

	return health.EvaluateReadiness(replicaSet, replicas, pods, p.r.restartThreshold), nil
}

// setProgressing sets the Progressing phase. Leaving a pause or a failure
// restarts the progress deadline clock.
func (p *rolloutPass) setProgressing(reason apiv1.ConditionReason, message string) {
	rollout := p.rollout
	if rollout.Status.Phase == apiv1.RolloutPhasePaused || rollout.Status.Phase == apiv1.RolloutPhaseDegraded {
		rollout.Status.LastProgressTime = ptr.To(metav1.NewTime(p.now))
	}
	status.SetPhase(rollout, apiv1.RolloutPhaseProgressing, reason, message)
}

// setPaused sets the Paused phase
func (p *rolloutPass) setPaused(reason apiv1.ConditionReason, message string) {
	status.SetPhase(p.rollout, apiv1.RolloutPhasePaused, reason, message)
}

func minRequeue(a, b time.Duration) time.Duration {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

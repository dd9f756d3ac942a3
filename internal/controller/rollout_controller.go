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

// Package controller contains the controller of the Rollout CRD
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/tools/record"
	"k8s.io/utils/clock"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/internal/configuration"
	"github.com/lily4499/gitops-argocd-gke/internal/controller/throttle"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/metrics"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/health"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/replicaset"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

// ErrNextLoop see utils.ErrNextLoop
var ErrNextLoop = utils.ErrNextLoop

// RolloutReconciler reconciles a Rollout object
type RolloutReconciler struct {
	client.Client

	DiscoveryClient discovery.DiscoveryInterface
	Scheme          *runtime.Scheme
	Recorder        record.EventRecorder

	clock            clock.PassiveClock
	analysisRunner   *health.AnalysisRunner
	throttle         *throttle.Throttle
	inheritance      utils.InheritanceController
	restartThreshold int32
}

// NewRolloutReconciler creates a new RolloutReconciler initializing it
func NewRolloutReconciler(
	mgr manager.Manager,
	discoveryClient discovery.DiscoveryInterface,
) *RolloutReconciler {
	realClock := clock.RealClock{}
	return &RolloutReconciler{
		Client:          mgr.GetClient(),
		DiscoveryClient: discoveryClient,
		Scheme:          mgr.GetScheme(),
		Recorder:        mgr.GetEventRecorderFor("rollout-controller"),
		clock:           realClock,
		analysisRunner:  health.NewAnalysisRunner(realClock, health.NewProvider),
		throttle: throttle.New(
			configuration.Current.GetWorkloadsRolloutDelay(),
			configuration.Current.GetRevisionsRolloutDelay(),
		),
		inheritance:      configuration.Current,
		restartThreshold: configuration.Current.GetCrashLoopRestartThreshold(),
	}
}

// Alphabetical order to not repeat or miss permissions
// +kubebuilder:rbac:groups=apps,resources=replicasets,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=coordination.k8s.io,resources=leases,verbs=get;create;update
// +kubebuilder:rbac:groups=delivery.gitops.io,resources=analysistemplates,verbs=get;list;watch
// +kubebuilder:rbac:groups=delivery.gitops.io,resources=rollouts,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=delivery.gitops.io,resources=rollouts/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=monitoring.coreos.com,resources=podmonitors,verbs=get;create;list;watch;delete;patch
// +kubebuilder:rbac:groups=networking.k8s.io,resources=ingresses,verbs=get;list;watch;create;update;patch
// +kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch
// +kubebuilder:rbac:groups="",resources=pods,verbs=get;list;watch
// +kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch
// +kubebuilder:rbac:groups="",resources=services,verbs=get;list;watch;update;patch

// Reconcile is the operator reconcile loop
func (r *RolloutReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	contextLogger, ctx := log.SetupLogger(ctx)

	contextLogger.Debug("Reconciliation loop start")
	defer func() {
		contextLogger.Debug("Reconciliation loop end")
	}()

	rollout, err := r.getRollout(ctx, req)
	if err != nil {
		return ctrl.Result{}, err
	}

	if rollout == nil || rollout.GetDeletionTimestamp() != nil {
		// The owned ReplicaSets are removed by the garbage collector
		metrics.ForgetRollout(req.Namespace, req.Name)
		return ctrl.Result{}, nil
	}

	// Run the inner reconcile loop. Translate any ErrNextLoop to an errorless return
	result, err := r.reconcile(ctx, rollout)
	if errors.Is(err, ErrNextLoop) {
		return result, nil
	}
	if errors.Is(err, utils.ErrTerminateLoop) {
		return ctrl.Result{}, nil
	}
	if apierrs.IsConflict(err) {
		contextLogger.Info("Optimistic locking conflict while reconciling the rollout, requeueing")
		return ctrl.Result{RequeueAfter: time.Second}, nil
	}
	if err != nil {
		return ctrl.Result{}, err
	}
	return result, nil
}

func (r *RolloutReconciler) getRollout(
	ctx context.Context,
	req ctrl.Request,
) (*apiv1.Rollout, error) {
	contextLogger := log.FromContext(ctx)
	rollout := &apiv1.Rollout{}
	if err := r.Get(ctx, req.NamespacedName, rollout); err != nil {
		// This also happens when you delete a Rollout resource in k8s. If
		// that's the case, let's just wait for the Kubernetes garbage collector
		// to remove all the ReplicaSets of the rollout.
		if apierrs.IsNotFound(err) {
			contextLogger.Info("Resource has been deleted")
			return nil, nil
		}

		// This is a real error, maybe the RBAC configuration is wrong?
		return nil, fmt.Errorf("cannot get the managed resource: %w", err)
	}

	return rollout, nil
}

// Inner reconcile loop. Anything inside can require the reconciliation loop to stop by returning ErrNextLoop
func (r *RolloutReconciler) reconcile(ctx context.Context, rollout *apiv1.Rollout) (ctrl.Result, error) {
	contextLogger := log.FromContext(ctx)

	if utils.IsReconciliationDisabled(&rollout.ObjectMeta) {
		contextLogger.Warning("Disable reconciliation loop annotation set, skipping the reconciliation.")
		return ctrl.Result{}, nil
	}

	// Defaults are applied in memory only, the webhooks are in charge
	// of persisting them
	rollout.SetDefaults()
	origRollout := rollout.DeepCopy()

	if err := r.createOrPatchPodMonitor(ctx, rollout); err != nil {
		return ctrl.Result{}, fmt.Errorf("while reconciling the PodMonitor: %w", err)
	}

	pass := newRolloutPass(r, rollout)
	result, err := pass.run(ctx)
	if err != nil && !errors.Is(err, ErrNextLoop) {
		return ctrl.Result{}, err
	}

	if updateErr := r.updateStatus(ctx, rollout, origRollout, pass.set); updateErr != nil {
		return ctrl.Result{}, updateErr
	}

	return result, err
}

// SetupWithManager creates a RolloutReconciler
func (r *RolloutReconciler) SetupWithManager(ctx context.Context, mgr ctrl.Manager, maxConcurrentReconciles int) error {
	if err := r.createFieldIndexes(ctx, mgr); err != nil {
		return err
	}

	return ctrl.NewControllerManagedBy(mgr).
		WithOptions(controller.Options{
			MaxConcurrentReconciles: maxConcurrentReconciles,
		}).
		For(&apiv1.Rollout{}).
		Named("rollout").
		Owns(&appsv1.ReplicaSet{}).
		Watches(
			&corev1.Pod{},
			handler.EnqueueRequestsFromMapFunc(mapPodToRollout),
			builder.WithPredicates(rolloutPodsPredicate),
		).
		Watches(
			&apiv1.AnalysisTemplate{},
			handler.EnqueueRequestsFromMapFunc(r.mapAnalysisTemplateToRollouts()),
		).
		Complete(r)
}

// createFieldIndexes creates the indexes needed by this controller
func (r *RolloutReconciler) createFieldIndexes(ctx context.Context, mgr ctrl.Manager) error {
	return mgr.GetFieldIndexer().IndexField(
		ctx,
		&appsv1.ReplicaSet{},
		replicaset.OwnerKey, replicaset.IndexByOwner)
}

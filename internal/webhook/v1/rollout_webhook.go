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
	"context"
	"fmt"

	"github.com/prometheus/common/model"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/equality"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/validation/field"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
)

// rolloutLog is for logging in this package.
var rolloutLog = log.WithName("rollout-resource").WithValues("version", "v1")

// SetupRolloutWebhookWithManager registers the webhook for Rollout in the manager.
func SetupRolloutWebhookWithManager(mgr ctrl.Manager) error {
	return ctrl.NewWebhookManagedBy(mgr, &apiv1.Rollout{}).
		WithValidator(newBypassableValidator[*apiv1.Rollout](&RolloutCustomValidator{})).
		WithDefaulter(&RolloutCustomDefaulter{}).
		Complete()
}

// NOTE: The 'path' attribute must follow a specific pattern and should not be modified directly here.
// Modifying the path for an invalid path can cause API server errors; failing to locate the webhook.
// +kubebuilder:webhook:webhookVersions={v1},admissionReviewVersions={v1},path=/mutate-delivery-gitops-io-v1-rollout,mutating=true,failurePolicy=fail,groups=delivery.gitops.io,resources=rollouts,verbs=create;update,versions=v1,name=mrollout.gitops.io,sideEffects=None

// RolloutCustomDefaulter struct is responsible for setting default values on the custom resource of the
// Kind Rollout when those are created or updated.
type RolloutCustomDefaulter struct{}

// Default implements webhook.CustomDefaulter so a webhook will be registered for the Kind Rollout.
func (d *RolloutCustomDefaulter) Default(_ context.Context, rollout *apiv1.Rollout) error {
	rolloutLog.Info("Defaulting for Rollout", "name", rollout.GetName(), "namespace", rollout.GetNamespace())

	rollout.SetDefaults()
	return nil
}

// NOTE: The 'path' attribute must follow a specific pattern and should not be modified directly here.
// Modifying the path for an invalid path can cause API server errors; failing to locate the webhook.
// +kubebuilder:webhook:webhookVersions={v1},admissionReviewVersions={v1},verbs=create;update,path=/validate-delivery-gitops-io-v1-rollout,mutating=false,failurePolicy=fail,groups=delivery.gitops.io,resources=rollouts,versions=v1,name=vrollout.gitops.io,sideEffects=None

// RolloutCustomValidator struct is responsible for validating the Rollout resource
// when it is created, updated, or deleted.
type RolloutCustomValidator struct{}

// ValidateCreate implements webhook.CustomValidator so a webhook will be registered for the type Rollout.
func (v *RolloutCustomValidator) ValidateCreate(
	_ context.Context,
	rollout *apiv1.Rollout,
) (admission.Warnings, error) {
	rolloutLog.Info("Validation for Rollout upon creation", "name", rollout.GetName(), "namespace", rollout.GetNamespace())

	allErrs := v.validate(rollout)
	if len(allErrs) == 0 {
		return v.getWarnings(rollout), nil
	}

	return nil, apierrors.NewInvalid(
		schema.GroupKind{Group: apiv1.SchemeGroupVersion.Group, Kind: apiv1.RolloutKind},
		rollout.Name, allErrs)
}

// ValidateUpdate implements webhook.CustomValidator so a webhook will be registered for the type Rollout.
func (v *RolloutCustomValidator) ValidateUpdate(
	_ context.Context,
	oldRollout *apiv1.Rollout, rollout *apiv1.Rollout,
) (admission.Warnings, error) {
	rolloutLog.Info("Validation for Rollout upon update", "name", rollout.GetName(), "namespace", rollout.GetNamespace())

	allErrs := append(
		v.validate(rollout),
		v.validateRolloutChanges(rollout, oldRollout)...,
	)
	if len(allErrs) == 0 {
		return v.getWarnings(rollout), nil
	}

	return nil, apierrors.NewInvalid(
		schema.GroupKind{Group: apiv1.SchemeGroupVersion.Group, Kind: apiv1.RolloutKind},
		rollout.Name, allErrs)
}

// ValidateDelete implements webhook.CustomValidator so a webhook will be registered for the type Rollout.
func (v *RolloutCustomValidator) ValidateDelete(
	_ context.Context,
	rollout *apiv1.Rollout,
) (admission.Warnings, error) {
	rolloutLog.Info("Validation for Rollout upon deletion", "name", rollout.GetName(), "namespace", rollout.GetNamespace())

	return nil, nil
}

// validate groups the validation logic for rollouts returning a list of all encountered errors
func (v *RolloutCustomValidator) validate(r *apiv1.Rollout) (allErrs field.ErrorList) {
	type validationFunc func(*apiv1.Rollout) field.ErrorList
	validations := []validationFunc{
		v.validateReplicas,
		v.validateSelector,
		v.validateStrategy,
		v.validateCanary,
		v.validateBlueGreen,
		v.validateMonitoring,
	}

	for _, validate := range validations {
		allErrs = append(allErrs, validate(r)...)
	}

	return allErrs
}

func (v *RolloutCustomValidator) validateReplicas(r *apiv1.Rollout) field.ErrorList {
	var result field.ErrorList
	specPath := field.NewPath("spec")

	if r.Spec.Replicas != nil && *r.Spec.Replicas < 0 {
		result = append(result, field.Invalid(
			specPath.Child("replicas"), *r.Spec.Replicas, "must be greater than or equal to 0"))
	}

	if r.Spec.MinReadySeconds < 0 {
		result = append(result, field.Invalid(
			specPath.Child("minReadySeconds"), r.Spec.MinReadySeconds, "must be greater than or equal to 0"))
	}

	if r.Spec.ProgressDeadlineSeconds != nil {
		deadline := *r.Spec.ProgressDeadlineSeconds
		switch {
		case deadline <= 0:
			result = append(result, field.Invalid(
				specPath.Child("progressDeadlineSeconds"), deadline, "must be greater than 0"))
		case deadline <= r.Spec.MinReadySeconds:
			result = append(result, field.Invalid(
				specPath.Child("progressDeadlineSeconds"), deadline, "must be greater than minReadySeconds"))
		}
	}

	if r.Spec.RevisionHistoryLimit != nil && *r.Spec.RevisionHistoryLimit < 0 {
		result = append(result, field.Invalid(
			specPath.Child("revisionHistoryLimit"), *r.Spec.RevisionHistoryLimit,
			"must be greater than or equal to 0"))
	}

	return result
}

func (v *RolloutCustomValidator) validateSelector(r *apiv1.Rollout) field.ErrorList {
	selectorPath := field.NewPath("spec", "selector")
	if r.Spec.Selector == nil {
		return field.ErrorList{field.Required(selectorPath, "a pod selector is required")}
	}

	selector, err := metav1.LabelSelectorAsSelector(r.Spec.Selector)
	if err != nil {
		return field.ErrorList{field.Invalid(selectorPath, r.Spec.Selector, err.Error())}
	}
	if selector.Empty() {
		return field.ErrorList{field.Invalid(selectorPath, r.Spec.Selector, "empty selector is not allowed")}
	}
	if !selector.Matches(labels.Set(r.Spec.Template.Labels)) {
		return field.ErrorList{field.Invalid(
			field.NewPath("spec", "template", "metadata", "labels"),
			r.Spec.Template.Labels,
			"the pod selector does not match the template labels")}
	}

	return nil
}

func (v *RolloutCustomValidator) validateStrategy(r *apiv1.Rollout) field.ErrorList {
	strategyPath := field.NewPath("spec", "strategy")
	switch {
	case r.IsCanary() && r.IsBlueGreen():
		return field.ErrorList{field.Forbidden(
			strategyPath, "the canary and the blueGreen strategies are mutually exclusive")}
	case !r.IsCanary() && !r.IsBlueGreen():
		return field.ErrorList{field.Required(
			strategyPath, "one of the canary and the blueGreen strategies is required")}
	}

	return nil
}

func (v *RolloutCustomValidator) validateCanary(r *apiv1.Rollout) field.ErrorList {
	canary := r.Spec.Strategy.Canary
	if canary == nil {
		return nil
	}

	var result field.ErrorList
	canaryPath := field.NewPath("spec", "strategy", "canary")
	stepsPath := canaryPath.Child("steps")

	for idx, step := range canary.Steps {
		stepPath := stepsPath.Index(idx)
		defined := 0
		if step.SetWeight != nil {
			defined++
			if *step.SetWeight < 0 || *step.SetWeight > 100 {
				result = append(result, field.Invalid(
					stepPath.Child("setWeight"), *step.SetWeight, "must be between 0 and 100"))
			}
		}
		if step.Pause != nil {
			defined++
			if step.Pause.Duration != nil && step.Pause.Duration.Duration < 0 {
				result = append(result, field.Invalid(
					stepPath.Child("pause", "duration"), step.Pause.Duration.String(), "cannot be negative"))
			}
		}
		if step.Analysis != nil {
			defined++
			result = append(result, validateRolloutAnalysis(stepPath.Child("analysis"), step.Analysis)...)
		}
		if defined != 1 {
			result = append(result, field.Invalid(
				stepPath, step, "exactly one of setWeight, pause and analysis must be set"))
		}
	}

	if (canary.StableService == "") != (canary.CanaryService == "") {
		result = append(result, field.Invalid(
			canaryPath, fmt.Sprintf("%s/%s", canary.StableService, canary.CanaryService),
			"stableService and canaryService must be set together"))
	}
	if canary.StableService != "" && canary.StableService == canary.CanaryService {
		result = append(result, field.Invalid(
			canaryPath.Child("canaryService"), canary.CanaryService,
			"must be different from stableService"))
	}

	if canary.TrafficRouting != nil {
		routingPath := canaryPath.Child("trafficRouting")
		switch {
		case canary.TrafficRouting.Nginx == nil:
			result = append(result, field.Required(routingPath.Child("nginx"), "a traffic router is required"))
		case canary.TrafficRouting.Nginx.StableIngress == "":
			result = append(result, field.Required(routingPath.Child("nginx", "stableIngress"),
				"the Ingress of the stable revision is required"))
		}
		if canary.CanaryService == "" {
			result = append(result, field.Required(canaryPath.Child("canaryService"),
				"traffic routing requires a canary Service"))
		}
	}

	return result
}

func (v *RolloutCustomValidator) validateBlueGreen(r *apiv1.Rollout) field.ErrorList {
	blueGreen := r.Spec.Strategy.BlueGreen
	if blueGreen == nil {
		return nil
	}

	var result field.ErrorList
	blueGreenPath := field.NewPath("spec", "strategy", "blueGreen")

	if blueGreen.ActiveService == "" {
		result = append(result, field.Required(blueGreenPath.Child("activeService"),
			"the active Service is required"))
	} else if blueGreen.PreviewService == blueGreen.ActiveService {
		result = append(result, field.Invalid(blueGreenPath.Child("previewService"),
			blueGreen.PreviewService, "must be different from activeService"))
	}

	if blueGreen.AutoPromotionSeconds < 0 {
		result = append(result, field.Invalid(blueGreenPath.Child("autoPromotionSeconds"),
			blueGreen.AutoPromotionSeconds, "must be greater than or equal to 0"))
	}

	if blueGreen.ScaleDownDelaySeconds != nil && *blueGreen.ScaleDownDelaySeconds < 0 {
		result = append(result, field.Invalid(blueGreenPath.Child("scaleDownDelaySeconds"),
			*blueGreen.ScaleDownDelaySeconds, "must be greater than or equal to 0"))
	}

	if blueGreen.PrePromotionAnalysis != nil {
		result = append(result, validateRolloutAnalysis(
			blueGreenPath.Child("prePromotionAnalysis"), blueGreen.PrePromotionAnalysis)...)
	}

	return result
}

func (v *RolloutCustomValidator) validateMonitoring(r *apiv1.Rollout) field.ErrorList {
	monitoring := r.Spec.Monitoring
	if monitoring == nil || monitoring.Interval == "" {
		return nil
	}

	if _, err := model.ParseDuration(monitoring.Interval); err != nil {
		return field.ErrorList{field.Invalid(
			field.NewPath("spec", "monitoring", "interval"), monitoring.Interval, err.Error())}
	}
	return nil
}

func validateRolloutAnalysis(path *field.Path, analysis *apiv1.RolloutAnalysis) field.ErrorList {
	var result field.ErrorList
	if analysis.TemplateName == "" {
		result = append(result, field.Required(path.Child("templateName"), "the AnalysisTemplate is required"))
	}

	seen := make(map[string]bool, len(analysis.Args))
	for idx, arg := range analysis.Args {
		if seen[arg.Name] {
			result = append(result, field.Duplicate(path.Child("args").Index(idx).Child("name"), arg.Name))
		}
		seen[arg.Name] = true
	}
	return result
}

// validateRolloutChanges checks the changes that are not allowed on an
// existing Rollout
func (v *RolloutCustomValidator) validateRolloutChanges(r, old *apiv1.Rollout) field.ErrorList {
	var result field.ErrorList

	if old.Spec.Selector != nil && !equality.Semantic.DeepEqual(r.Spec.Selector, old.Spec.Selector) {
		result = append(result, field.Forbidden(
			field.NewPath("spec", "selector"), "the pod selector is immutable"))
	}

	if old.IsCanary() != r.IsCanary() {
		result = append(result, field.Forbidden(
			field.NewPath("spec", "strategy"), "the rollout strategy cannot be changed"))
	}

	return result
}

// getWarnings collects the non blocking issues of a Rollout
func (v *RolloutCustomValidator) getWarnings(r *apiv1.Rollout) admission.Warnings {
	var result admission.Warnings

	steps := r.GetSteps()
	if r.IsCanary() && len(steps) > 0 {
		last := steps[len(steps)-1]
		if last.SetWeight == nil || *last.SetWeight != 100 {
			result = append(result,
				"the last canary step does not send the whole traffic to the new revision, "+
					"the promotion will happen right after it")
		}
	}

	return result
}

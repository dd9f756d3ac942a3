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

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/validation/field"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/reconciler/health"
)

// analysisTemplateLog is for logging in this package.
var analysisTemplateLog = log.WithName("analysistemplate-resource").WithValues("version", "v1")

// SetupAnalysisTemplateWebhookWithManager registers the webhook for AnalysisTemplate in the manager.
func SetupAnalysisTemplateWebhookWithManager(mgr ctrl.Manager) error {
	return ctrl.NewWebhookManagedBy(mgr, &apiv1.AnalysisTemplate{}).
		WithValidator(newBypassableValidator[*apiv1.AnalysisTemplate](&AnalysisTemplateCustomValidator{})).
		Complete()
}

// NOTE: The 'path' attribute must follow a specific pattern and should not be modified directly here.
// Modifying the path for an invalid path can cause API server errors; failing to locate the webhook.
// +kubebuilder:webhook:webhookVersions={v1},admissionReviewVersions={v1},verbs=create;update,path=/validate-delivery-gitops-io-v1-analysistemplate,mutating=false,failurePolicy=fail,groups=delivery.gitops.io,resources=analysistemplates,versions=v1,name=vanalysistemplate.gitops.io,sideEffects=None

// AnalysisTemplateCustomValidator struct is responsible for validating the AnalysisTemplate resource
// when it is created, updated, or deleted.
type AnalysisTemplateCustomValidator struct{}

// ValidateCreate implements webhook.CustomValidator so a webhook will be registered for the type AnalysisTemplate.
func (v *AnalysisTemplateCustomValidator) ValidateCreate(
	_ context.Context,
	template *apiv1.AnalysisTemplate,
) (admission.Warnings, error) {
	analysisTemplateLog.Info("Validation for AnalysisTemplate upon creation",
		"name", template.GetName(), "namespace", template.GetNamespace())

	return nil, v.toError(template, v.validate(template))
}

// ValidateUpdate implements webhook.CustomValidator so a webhook will be registered for the type AnalysisTemplate.
func (v *AnalysisTemplateCustomValidator) ValidateUpdate(
	_ context.Context,
	_ *apiv1.AnalysisTemplate, template *apiv1.AnalysisTemplate,
) (admission.Warnings, error) {
	analysisTemplateLog.Info("Validation for AnalysisTemplate upon update",
		"name", template.GetName(), "namespace", template.GetNamespace())

	return nil, v.toError(template, v.validate(template))
}

// ValidateDelete implements webhook.CustomValidator so a webhook will be registered for the type AnalysisTemplate.
func (v *AnalysisTemplateCustomValidator) ValidateDelete(
	_ context.Context,
	template *apiv1.AnalysisTemplate,
) (admission.Warnings, error) {
	analysisTemplateLog.Info("Validation for AnalysisTemplate upon deletion",
		"name", template.GetName(), "namespace", template.GetNamespace())

	return nil, nil
}

func (v *AnalysisTemplateCustomValidator) toError(template *apiv1.AnalysisTemplate, allErrs field.ErrorList) error {
	if len(allErrs) == 0 {
		return nil
	}

	return apierrors.NewInvalid(
		schema.GroupKind{Group: apiv1.SchemeGroupVersion.Group, Kind: apiv1.AnalysisTemplateKind},
		template.Name, allErrs)
}

func (v *AnalysisTemplateCustomValidator) validate(template *apiv1.AnalysisTemplate) field.ErrorList {
	var result field.ErrorList
	specPath := field.NewPath("spec")

	// Placeholder values, used to check that every placeholder refers
	// to a declared argument
	declaredArgs := make(map[string]string, len(template.Spec.Args))
	for idx, arg := range template.Spec.Args {
		argPath := specPath.Child("args").Index(idx).Child("name")
		if arg.Name == "" {
			result = append(result, field.Required(argPath, "the argument name is required"))
			continue
		}
		if _, found := declaredArgs[arg.Name]; found {
			result = append(result, field.Duplicate(argPath, arg.Name))
		}
		declaredArgs[arg.Name] = "placeholder"
	}

	metricsPath := specPath.Child("metrics")
	if len(template.Spec.Metrics) == 0 {
		result = append(result, field.Required(metricsPath, "at least one metric is required"))
	}

	names := make(map[string]bool, len(template.Spec.Metrics))
	for idx := range template.Spec.Metrics {
		metric := &template.Spec.Metrics[idx]
		metricPath := metricsPath.Index(idx)

		if metric.Name == "" {
			result = append(result, field.Required(metricPath.Child("name"), "the metric name is required"))
		} else if names[metric.Name] {
			result = append(result, field.Duplicate(metricPath.Child("name"), metric.Name))
		}
		names[metric.Name] = true

		result = append(result, validateMetric(metricPath, metric, declaredArgs)...)
	}

	return result
}

func validateMetric(path *field.Path, metric *apiv1.Metric, declaredArgs map[string]string) field.ErrorList {
	var result field.ErrorList

	if metric.Interval != nil && metric.Interval.Duration < 0 {
		result = append(result, field.Invalid(path.Child("interval"), metric.Interval.String(),
			"cannot be negative"))
	}

	for _, limit := range []struct {
		name  string
		value *int32
	}{
		{name: "count", value: metric.Count},
		{name: "failureLimit", value: metric.FailureLimit},
		{name: "inconclusiveLimit", value: metric.InconclusiveLimit},
		{name: "errorLimit", value: metric.ErrorLimit},
	} {
		if limit.value != nil && *limit.value < 0 {
			result = append(result, field.Invalid(path.Child(limit.name), *limit.value,
				"must be greater than or equal to 0"))
		}
	}

	if metric.SuccessCondition == nil && metric.FailureCondition == nil {
		result = append(result, field.Required(path,
			"at least one of successCondition and failureCondition is required"))
	}
	result = append(result, validateCondition(path.Child("successCondition"), metric.SuccessCondition)...)
	result = append(result, validateCondition(path.Child("failureCondition"), metric.FailureCondition)...)

	providerPath := path.Child("provider")
	provider := metric.Provider
	switch {
	case provider.Prometheus != nil && provider.Web != nil:
		result = append(result, field.Forbidden(providerPath, "only one provider can be set"))
	case provider.Prometheus != nil:
		if provider.Prometheus.Query == "" {
			result = append(result, field.Required(providerPath.Child("prometheus", "query"),
				"the query is required"))
		}
		result = append(result, validatePlaceholders(
			providerPath.Child("prometheus", "query"), provider.Prometheus.Query, declaredArgs)...)
	case provider.Web != nil:
		if provider.Web.URL == "" {
			result = append(result, field.Required(providerPath.Child("web", "url"), "the URL is required"))
		}
		if provider.Web.TimeoutSeconds < 0 {
			result = append(result, field.Invalid(providerPath.Child("web", "timeoutSeconds"),
				provider.Web.TimeoutSeconds, "must be greater than or equal to 0"))
		}
		result = append(result, validatePlaceholders(
			providerPath.Child("web", "url"), provider.Web.URL, declaredArgs)...)
	default:
		result = append(result, field.Required(providerPath, "a metric provider is required"))
	}

	return result
}

func validateCondition(path *field.Path, condition *apiv1.MetricCondition) field.ErrorList {
	if condition == nil {
		return nil
	}

	if _, err := condition.Matches(0); err != nil {
		return field.ErrorList{field.Invalid(path, condition, err.Error())}
	}
	return nil
}

func validatePlaceholders(path *field.Path, text string, declaredArgs map[string]string) field.ErrorList {
	if _, err := health.SubstituteArgs(text, declaredArgs); err != nil {
		return field.ErrorList{field.Invalid(path, text, err.Error())}
	}
	return nil
}

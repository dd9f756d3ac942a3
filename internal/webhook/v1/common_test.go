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

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newRolloutWithValidationAnnotation(value string) *apiv1.Rollout {
	return &apiv1.Rollout{
		ObjectMeta: metav1.ObjectMeta{
			Annotations: map[string]string{
				utils.WebhookValidationAnnotationName: value,
			},
		},
	}
}

var _ = Describe("Validation webhook validation parser", func() {
	It("ensures that with no annotations the validation checking is enabled", func() {
		rollout := &apiv1.Rollout{}
		Expect(isValidationEnabled(rollout)).To(BeTrue())
	})

	It("ensures that with validation can be explicitly enabled", func() {
		rollout := newRolloutWithValidationAnnotation(validationEnabledAnnotationValue)
		Expect(isValidationEnabled(rollout)).To(BeTrue())
	})

	It("ensures that with validation can be explicitly disabled", func() {
		rollout := newRolloutWithValidationAnnotation(validationDisabledAnnotationValue)
		Expect(isValidationEnabled(rollout)).To(BeFalse())
	})

	It("ensures that with validation is enabled when the annotation value is unknown", func() {
		rollout := newRolloutWithValidationAnnotation("idontknow")
		status, err := isValidationEnabled(rollout)
		Expect(err).To(HaveOccurred())
		Expect(status).To(BeTrue())
	})
})

type fakeCustomValidator struct {
	calls []string

	createWarnings admission.Warnings
	createError    error

	updateWarnings admission.Warnings
	updateError    error

	deleteWarnings admission.Warnings
	deleteError    error
}

func (f *fakeCustomValidator) ValidateCreate(
	_ context.Context,
	_ *apiv1.Rollout,
) (admission.Warnings, error) {
	f.calls = append(f.calls, "create")
	return f.createWarnings, f.createError
}

func (f *fakeCustomValidator) ValidateUpdate(
	_ context.Context,
	_ *apiv1.Rollout,
	_ *apiv1.Rollout,
) (admission.Warnings, error) {
	f.calls = append(f.calls, "update")
	return f.updateWarnings, f.updateError
}

func (f *fakeCustomValidator) ValidateDelete(
	_ context.Context,
	_ *apiv1.Rollout,
) (admission.Warnings, error) {
	f.calls = append(f.calls, "delete")
	return f.deleteWarnings, f.deleteError
}

var _ = Describe("Bypassable validator", func() {
	fakeCreateError := fmt.Errorf("fake error")
	fakeUpdateError := fmt.Errorf("fake error")
	fakeDeleteError := fmt.Errorf("fake error")

	disabledRollout := newRolloutWithValidationAnnotation(validationDisabledAnnotationValue)
	enabledRollout := newRolloutWithValidationAnnotation(validationEnabledAnnotationValue)
	wrongRollout := newRolloutWithValidationAnnotation("dontknow")

	fakeErrorValidator := &fakeCustomValidator{
		createError: fakeCreateError,
		deleteError: fakeDeleteError,
		updateError: fakeUpdateError,
	}

	DescribeTable(
		"validator callbacks",
		func(ctx SpecContext, r *apiv1.Rollout, expectedError, withWarnings bool) {
			b := newBypassableValidator[*apiv1.Rollout](fakeErrorValidator)

			By("creation entrypoint", func() {
				result, err := b.ValidateCreate(ctx, r)
				if expectedError {
					Expect(err).To(Equal(fakeCreateError))
				} else {
					Expect(err).ToNot(HaveOccurred())
				}

				if withWarnings {
					Expect(result).To(HaveLen(1))
				}
			})

			By("update entrypoint", func() {
				result, err := b.ValidateUpdate(ctx, enabledRollout, r)
				if expectedError {
					Expect(err).To(Equal(fakeUpdateError))
				} else {
					Expect(err).ToNot(HaveOccurred())
				}

				if withWarnings {
					Expect(result).To(HaveLen(1))
				}
			})

			By("delete entrypoint", func() {
				result, err := b.ValidateDelete(ctx, r)
				if expectedError {
					Expect(err).To(Equal(fakeDeleteError))
				} else {
					Expect(err).ToNot(HaveOccurred())
				}

				if withWarnings {
					Expect(result).To(HaveLen(1))
				}
			})
		},
		Entry("validation is disabled", disabledRollout, false, true),
		Entry("validation is enabled", enabledRollout, true, false),
		Entry("validation value is not expected", wrongRollout, true, true),
	)
})

func setValidationAnnotation[T client.Object](obj T, value string) T {
	obj.SetAnnotations(map[string]string{utils.WebhookValidationAnnotationName: value})
	return obj
}

var _ = Describe("Bypassable AnalysisTemplate validator", func() {
	var b *bypassableValidator[*apiv1.AnalysisTemplate]
	var invalid *apiv1.AnalysisTemplate

	BeforeEach(func() {
		b = newBypassableValidator[*apiv1.AnalysisTemplate](&AnalysisTemplateCustomValidator{})
		invalid = newValidAnalysisTemplate()
		invalid.Spec.Metrics = nil
	})

	It("rejects an invalid template when the validation is enabled", func(ctx SpecContext) {
		warnings, err := b.ValidateCreate(ctx, invalid)
		Expect(apierrors.IsInvalid(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("spec.metrics"))
		Expect(warnings).To(BeEmpty())
	})

	It("accepts an invalid template with a warning when the validation is disabled", func(ctx SpecContext) {
		template := setValidationAnnotation(invalid, validationDisabledAnnotationValue)

		warnings, err := b.ValidateCreate(ctx, template)
		Expect(err).ToNot(HaveOccurred())
		Expect(warnings).To(ConsistOf(validationDisabledWarning))

		warnings, err = b.ValidateUpdate(ctx, newValidAnalysisTemplate(), template)
		Expect(err).ToNot(HaveOccurred())
		Expect(warnings).To(ConsistOf(validationDisabledWarning))
	})

	It("keeps validating when the annotation value is unknown", func(ctx SpecContext) {
		warnings, err := b.ValidateCreate(ctx, setValidationAnnotation(invalid, "off"))
		Expect(apierrors.IsInvalid(err)).To(BeTrue())
		Expect(warnings).To(HaveLen(1))
		Expect(warnings[0]).To(ContainSubstring(`"off"`))
	})

	It("never blocks the deletion of a template", func(ctx SpecContext) {
		warnings, err := b.ValidateDelete(ctx, invalid)
		Expect(err).ToNot(HaveOccurred())
		Expect(warnings).To(BeEmpty())
	})
})

var _ = Describe("Bypassable Rollout validator", func() {
	var b *bypassableValidator[*apiv1.Rollout]

	BeforeEach(func() {
		b = newBypassableValidator[*apiv1.Rollout](&RolloutCustomValidator{})
	})

	It("merges the annotation warning with the ones of the Rollout", func(ctx SpecContext) {
		rollout := setValidationAnnotation(newValidRollout(), "maybe")
		steps := rollout.Spec.Strategy.Canary.Steps
		rollout.Spec.Strategy.Canary.Steps = steps[:len(steps)-1]

		warnings, err := b.ValidateCreate(ctx, rollout)
		Expect(err).ToNot(HaveOccurred())
		Expect(warnings).To(HaveLen(2))
		Expect(warnings[0]).To(ContainSubstring(`"maybe"`))
		Expect(warnings[1]).To(ContainSubstring("the last canary step"))
	})

	It("lets a strategy change through only when the validation is disabled", func(ctx SpecContext) {
		oldRollout := newValidRollout()
		rollout := newValidRollout()
		rollout.Spec.Strategy = apiv1.RolloutStrategy{
			BlueGreen: &apiv1.BlueGreenStrategy{ActiveService: "checkout-active"},
		}

		_, err := b.ValidateUpdate(ctx, oldRollout, rollout)
		Expect(apierrors.IsInvalid(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("the rollout strategy cannot be changed"))

		warnings, err := b.ValidateUpdate(ctx, oldRollout,
			setValidationAnnotation(rollout, validationDisabledAnnotationValue))
		Expect(err).ToNot(HaveOccurred())
		Expect(warnings).To(ConsistOf(validationDisabledWarning))
	})
})

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

package utils

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// RolloutLabelName is the name of the label containing the name of the
	// Rollout owning a ReplicaSet
	RolloutLabelName = "delivery.gitops.io/rollout"

	// PodTemplateHashLabelName is the name of the label containing the hash
	// of the pod template, identifying a revision
	PodTemplateHashLabelName = "delivery.gitops.io/pod-template-hash"

	// RevisionAnnotationName is the name of the annotation containing the
	// revision number of a ReplicaSet
	RevisionAnnotationName = "delivery.gitops.io/revision"

	// ScaleDownDeadlineAnnotationName is the name of the annotation containing
	// the time after which a ReplicaSet of a previous revision can be scaled down
	ScaleDownDeadlineAnnotationName = "delivery.gitops.io/scale-down-deadline"

	// ManagedByAnnotationName is the name of the annotation marking the
	// objects generated by the controller on behalf of a Rollout
	ManagedByAnnotationName = "delivery.gitops.io/managed-by"

	// OperatorVersionAnnotationName is the name of the annotation containing
	// the version of the operator that generated a certain object
	OperatorVersionAnnotationName = "delivery.gitops.io/operatorVersion"

	// ReconciliationLoopAnnotationName is the name of the annotation controlling
	// the status of the reconciliation loop for the rollout
	ReconciliationLoopAnnotationName = "delivery.gitops.io/reconciliationLoop"

	// ReconciliationDisabledValue it the value that stops the reconciliation loop
	ReconciliationDisabledValue = "disabled"

	// WebhookValidationAnnotationName is the name of the annotation describing if
	// the validation webhook should be enabled or disabled
	WebhookValidationAnnotationName = "delivery.gitops.io/validation"
)

// InheritanceController decides which labels and annotations of a Rollout
// are copied to the objects it generates
type InheritanceController interface {
	// IsAnnotationInherited checks if a certain annotation should be
	// inherited by the generated objects
	IsAnnotationInherited(name string) bool

	// IsLabelInherited checks if a certain label should be
	// inherited by the generated objects
	IsLabelInherited(name string) bool
}

// LabelRolloutName labels the object with the rollout name
func LabelRolloutName(object *metav1.ObjectMeta, name string) {
	if object.Labels == nil {
		object.Labels = make(map[string]string)
	}

	object.Labels[RolloutLabelName] = name
}

// LabelPodTemplateHash labels the object with the pod template hash
func LabelPodTemplateHash(object *metav1.ObjectMeta, podHash string) {
	if object.Labels == nil {
		object.Labels = make(map[string]string)
	}

	object.Labels[PodTemplateHashLabelName] = podHash
}

// GetPodTemplateHash gets the pod template hash of a certain object
func GetPodTemplateHash(object metav1.Object) string {
	return object.GetLabels()[PodTemplateHashLabelName]
}

// SetOperatorVersion set inside a certain object metadata the annotation
// containing the version of the operator that generated the object
func SetOperatorVersion(object *metav1.ObjectMeta, version string) {
	if object.Annotations == nil {
		object.Annotations = make(map[string]string)
	}

	object.Annotations[OperatorVersionAnnotationName] = version
}

// InheritAnnotations puts into the object metadata the passed annotations if
// the annotations are supposed to be inherited. The passed configuration is
// used to determine whenever a certain annotation is inherited or not
func InheritAnnotations(
	object *metav1.ObjectMeta,
	annotations map[string]string,
	fixedAnnotations map[string]string,
	controller InheritanceController,
) {
	if object.Annotations == nil {
		object.Annotations = make(map[string]string)
	}

	for key, value := range fixedAnnotations {
		object.Annotations[key] = value
	}

	for key, value := range annotations {
		if controller.IsAnnotationInherited(key) {
			object.Annotations[key] = value
		}
	}
}

// InheritLabels puts into the object metadata the passed labels if
// the labels are supposed to be inherited. The passed configuration is
// used to determine whenever a certain label is inherited or not
func InheritLabels(
	object *metav1.ObjectMeta,
	labels map[string]string,
	fixedLabels map[string]string,
	controller InheritanceController,
) {
	if object.Labels == nil {
		object.Labels = make(map[string]string)
	}

	for key, value := range fixedLabels {
		object.Labels[key] = value
	}

	for key, value := range labels {
		if controller.IsLabelInherited(key) {
			object.Labels[key] = value
		}
	}
}

// IsReconciliationDisabled checks if the reconciliation loop is disabled on the given resource
func IsReconciliationDisabled(object *metav1.ObjectMeta) bool {
	return object.Annotations[ReconciliationLoopAnnotationName] == ReconciliationDisabledValue
}

// MergeObjectsMetadata copies the labels and the annotations of the
// source object into the receiver, keeping the ones the receiver
// already has
func MergeObjectsMetadata(receiver metav1.Object, source metav1.Object) {
	receiver.SetLabels(mergeMaps(receiver.GetLabels(), source.GetLabels()))
	receiver.SetAnnotations(mergeMaps(receiver.GetAnnotations(), source.GetAnnotations()))
}

func mergeMaps(receiver, source map[string]string) map[string]string {
	if len(source) == 0 {
		return receiver
	}

	if receiver == nil {
		receiver = make(map[string]string, len(source))
	}
	for key, value := range source {
		receiver[key] = value
	}
	return receiver
}

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

// Package v1 contains API Schema definitions for the delivery v1 API group
// +kubebuilder:object:generate=true
// +groupName=delivery.gitops.io
package v1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

var (
	// SchemeGroupVersion is group version used to register these objects
	SchemeGroupVersion = schema.GroupVersion{Group: "delivery.gitops.io", Version: "v1"}

	// GroupVersion is an alias of SchemeGroupVersion, used by the
	// generated code and by the client helpers
	GroupVersion = SchemeGroupVersion

	// RolloutKind is the kind name of Rollouts
	RolloutKind = "Rollout"

	// AnalysisTemplateKind is the kind name of AnalysisTemplates
	AnalysisTemplateKind = "AnalysisTemplate"

	// SchemeBuilder is used to add go types to the GroupVersionKind scheme
	SchemeBuilder = &scheme.Builder{GroupVersion: SchemeGroupVersion}

	// AddToScheme adds the types in this group-version to the given scheme.
	AddToScheme = SchemeBuilder.AddToScheme
)

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

// Package scheme contains the runtime schemes used by the controller
// and by the kubectl plugin
package scheme

import (
	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
)

// RegisterUsedApisToScheme registers the used API to the passed scheme
func RegisterUsedApisToScheme(scheme *runtime.Scheme) {
	_ = clientgoscheme.AddToScheme(scheme)
	_ = apiv1.AddToScheme(scheme)
	_ = monitoringv1.AddToScheme(scheme)
	_ = apiextensionsv1.AddToScheme(scheme)

	// +kubebuilder:scaffold:scheme
}

// BuildWithAllKnownScheme builds a new scheme where every used API
// has been registered
func BuildWithAllKnownScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	RegisterUsedApisToScheme(scheme)
	return scheme
}

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

package health

import (
	"context"
	"errors"
	"time"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/internal/configuration"
)

// ErrNoProvider is raised when a metric does not declare where to
// take its measurements from
var ErrNoProvider = errors.New("metric has no provider")

// Provider takes the measurements of a metric
type Provider interface {
	// Type is the name of the provider, as used in the logs and in
	// the operator metrics
	Type() string

	// Measure takes a measurement, the arguments being already
	// substituted in the metric definition
	Measure(ctx context.Context, metric *apiv1.Metric) (float64, error)
}

// ProviderFactory gets the provider of a metric
type ProviderFactory func(metric *apiv1.Metric) (Provider, error)

// NewProvider is the default ProviderFactory, using the operator
// configuration to fill the settings the metric does not declare
func NewProvider(metric *apiv1.Metric) (Provider, error) {
	timeout := configuration.Current.GetAnalysisRequestTimeout()

	switch {
	case metric.Provider.Prometheus != nil:
		address := metric.Provider.Prometheus.Address
		if address == "" {
			address = configuration.Current.DefaultPrometheusAddress
		}
		return NewPrometheusProvider(address, timeout)

	case metric.Provider.Web != nil:
		if metric.Provider.Web.TimeoutSeconds > 0 {
			timeout = time.Duration(metric.Provider.Web.TimeoutSeconds) * time.Second
		}
		return NewWebProvider(timeout), nil

	default:
		return nil, ErrNoProvider
	}
}

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
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
)

// ErrMissingPrometheusAddress is raised when neither the metric nor the
// operator configuration tells where Prometheus is
var ErrMissingPrometheusAddress = errors.New("missing prometheus address")

// PrometheusProvider runs instant queries against the Prometheus HTTP API
type PrometheusProvider struct {
	api     promv1.API
	timeout time.Duration
}

// NewPrometheusProvider creates a provider querying the Prometheus
// server listening at the passed address
func NewPrometheusProvider(address string, timeout time.Duration) (*PrometheusProvider, error) {
	if address == "" {
		return nil, ErrMissingPrometheusAddress
	}

	client, err := api.NewClient(api.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("while creating the prometheus client: %w", err)
	}

	return &PrometheusProvider{
		api:     promv1.NewAPI(client),
		timeout: timeout,
	}, nil
}

// Type implements Provider
func (p *PrometheusProvider) Type() string {
	return "prometheus"
}

// Measure implements Provider
func (p *PrometheusProvider) Measure(ctx context.Context, metric *apiv1.Metric) (float64, error) {
	contextLogger := log.FromContext(ctx).WithValues("metric", metric.Name)

	queryCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	result, warnings, err := p.api.Query(queryCtx, metric.Provider.Prometheus.Query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("while querying prometheus: %w", err)
	}
	if len(warnings) > 0 {
		contextLogger.Warning("Prometheus returned warnings", "warnings", warnings)
	}

	return valueFromPrometheusResult(result)
}

// valueFromPrometheusResult extracts a single number from the result
// of an instant query
func valueFromPrometheusResult(result model.Value) (float64, error) {
	switch value := result.(type) {
	case *model.Scalar:
		return float64(value.Value), nil

	case model.Vector:
		if len(value) != 1 {
			return 0, fmt.Errorf("query returned %d series, expected one", len(value))
		}
		return float64(value[0].Value), nil

	default:
		return 0, fmt.Errorf("unsupported prometheus result type %s", result.Type())
	}
}

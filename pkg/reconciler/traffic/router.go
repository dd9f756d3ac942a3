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

package traffic

import (
	"context"

	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
)

// Router splits the traffic of a Rollout between its revisions
type Router interface {
	// Type is the name of the router, as used in the logs
	Type() string

	// SetWeight routes the traffic according to the weights
	SetWeight(ctx context.Context, rollout *apiv1.Rollout, weights Weights) error

	// GetWeight reads the weights currently in force
	GetWeight(ctx context.Context, rollout *apiv1.Rollout) (Weights, error)

	// Reset sends every request to the stable revision
	Reset(ctx context.Context, rollout *apiv1.Rollout) error
}

// NewRouter gets the router in charge of the traffic of a Rollout
func NewRouter(cli client.Client, rollout *apiv1.Rollout) Router {
	if rollout.HasTrafficRouting() {
		return &nginxRouter{cli: cli}
	}
	return replicaRouter{}
}

// replicaRouter splits the traffic by the number of pods of each
// revision, behind the same Service. The ReplicaSet manager does the
// job, so this router only reports the weights of the status.
type replicaRouter struct{}

func (replicaRouter) Type() string {
	return "replicas"
}

func (replicaRouter) SetWeight(context.Context, *apiv1.Rollout, Weights) error {
	return nil
}

func (replicaRouter) GetWeight(_ context.Context, rollout *apiv1.Rollout) (Weights, error) {
	return FromStatus(rollout), nil
}

func (replicaRouter) Reset(context.Context, *apiv1.Rollout) error {
	return nil
}

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
	"fmt"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
)

// Weights is the split of the traffic between the stable and the
// new revision. The two weights always sum to 100.
type Weights struct {
	canary int32
}

// NewWeights creates the split sending the passed percentage of the
// traffic to the new revision
func NewWeights(canary int32) (Weights, error) {
	if canary < 0 || canary > 100 {
		return Weights{}, fmt.Errorf("invalid canary weight %d, must be between 0 and 100", canary)
	}
	return Weights{canary: canary}, nil
}

// StableOnly is the split sending every request to the stable revision
func StableOnly() Weights {
	return Weights{}
}

// FromStatus reads the weights recorded in the status of a Rollout,
// defaulting to the stable revision only
func FromStatus(rollout *apiv1.Rollout) Weights {
	if rollout.Status.Canary.Weights == nil {
		return StableOnly()
	}

	weights, err := NewWeights(rollout.Status.Canary.Weights.Canary)
	if err != nil {
		return StableOnly()
	}
	return weights
}

// Stable gets the percentage of traffic sent to the stable revision
func (w Weights) Stable() int32 {
	return 100 - w.canary
}

// Canary gets the percentage of traffic sent to the new revision
func (w Weights) Canary() int32 {
	return w.canary
}

// ToStatus converts the weights to be stored in the Rollout status
func (w Weights) ToStatus() *apiv1.TrafficWeights {
	return &apiv1.TrafficWeights{
		Stable: w.Stable(),
		Canary: w.Canary(),
	}
}

// String implements fmt.Stringer
func (w Weights) String() string {
	return fmt.Sprintf("stable=%d%% canary=%d%%", w.Stable(), w.Canary())
}

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

// Package abort implements the kubectl-rollouts abort command
package abort

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
	"github.com/lily4499/gitops-argocd-gke/pkg/resources/status"
)

// Abort requests the abort of the revision being rolled out. The
// controller restores the stable revision.
func Abort(ctx context.Context, cli client.Client, namespace, rolloutName string) error {
	rollout, err := plugin.GetRollout(ctx, cli, namespace, rolloutName)
	if err != nil {
		return err
	}

	if rollout.Status.StableRS == "" || rollout.Status.CurrentPodHash == rollout.Status.StableRS {
		return fmt.Errorf("rollout %s has no revision being rolled out", rolloutName)
	}

	if rollout.IsAborted() {
		fmt.Printf("Rollout %s has already been aborted\n", rolloutName)
		return nil
	}

	now := metav1.Now()
	if err := status.UpdateAndRefresh(ctx, cli, rollout, func(living *apiv1.Rollout) {
		living.Status.Abort = true
		living.Status.AbortedAt = &now
		living.Status.PauseStartTime = nil
	}); err != nil {
		return err
	}

	fmt.Printf("Rollout %s aborted, the stable revision %s will be restored\n",
		rolloutName, rollout.Status.StableRS)
	return nil
}

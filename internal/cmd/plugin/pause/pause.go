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

// Package pause implements the kubectl-rollouts pause and resume commands
package pause

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
)

// SetPaused pauses or resumes a Rollout. A paused Rollout keeps the
// traffic split in force and does not start new revisions.
func SetPaused(ctx context.Context, cli client.Client, namespace, rolloutName string, paused bool) error {
	rollout, err := plugin.GetRollout(ctx, cli, namespace, rolloutName)
	if err != nil {
		return err
	}

	action := "resumed"
	if paused {
		action = "paused"
	}

	if rollout.Spec.Paused == paused {
		fmt.Printf("Rollout %s is already %s\n", rolloutName, action)
		return nil
	}

	origRollout := rollout.DeepCopy()
	rollout.Spec.Paused = paused
	if err := cli.Patch(ctx, rollout, client.MergeFrom(origRollout)); err != nil {
		return fmt.Errorf("while patching rollout %s: %w", rolloutName, err)
	}

	fmt.Printf("Rollout %s %s\n", rolloutName, action)
	return nil
}

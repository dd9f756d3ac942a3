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

package status

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
)

// RolloutTransaction is a function that modifies the status of a Rollout
type RolloutTransaction func(*apiv1.Rollout)

// UpdateAndRefresh applies the transactions to the living Rollout and
// patches its status, retrying on conflicts. The status of the passed
// Rollout is refreshed with the persisted one.
func UpdateAndRefresh(
	ctx context.Context,
	cli client.Client,
	rollout *apiv1.Rollout,
	transactions ...RolloutTransaction,
) error {
	contextLogger := log.FromContext(ctx)

	if err := retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		var livingRollout apiv1.Rollout
		if err := cli.Get(ctx, client.ObjectKeyFromObject(rollout), &livingRollout); err != nil {
			return err
		}

		origRollout := livingRollout.DeepCopy()
		for _, transaction := range transactions {
			transaction(&livingRollout)
		}

		if err := PatchWithOptimisticLock(ctx, cli, &livingRollout, origRollout); err != nil {
			return err
		}

		rollout.Status = livingRollout.Status
		rollout.ResourceVersion = livingRollout.ResourceVersion
		return nil
	}); err != nil {
		contextLogger.Error(err, "while updating the rollout status")
		return fmt.Errorf("while updating the rollout status: %w", err)
	}

	return nil
}

// PatchWithOptimisticLock patches the status of a Rollout only if it
// differs from the original one. The patch carries the resource version
// of the original object, so a concurrent update produces a conflict.
func PatchWithOptimisticLock(
	ctx context.Context,
	cli client.Client,
	modified *apiv1.Rollout,
	orig *apiv1.Rollout,
) error {
	if equality.Semantic.DeepEqual(orig.Status, modified.Status) {
		return nil
	}

	return cli.Status().Patch(
		ctx,
		modified,
		client.MergeFromWithOptions(orig, client.MergeFromWithOptimisticLock{}),
	)
}

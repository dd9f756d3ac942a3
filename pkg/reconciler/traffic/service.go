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
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

// GetServiceSelector gets the pod template hash selected by a Service,
// empty if the Service is not pinned to a revision
func GetServiceSelector(ctx context.Context, cli client.Reader, namespace, name string) (string, error) {
	var service corev1.Service
	if err := cli.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, &service); err != nil {
		return "", fmt.Errorf("while getting service %s: %w", name, err)
	}
	return service.Spec.Selector[utils.PodTemplateHashLabelName], nil
}

// PinServiceSelector points a Service to the pods of the revision having
// the passed hash. The boolean result is false when the Service was
// already selecting that revision.
func PinServiceSelector(
	ctx context.Context,
	cli client.Client,
	namespace, name, podHash string,
) (bool, error) {
	var service corev1.Service
	if err := cli.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, &service); err != nil {
		return false, fmt.Errorf("while getting service %s: %w", name, err)
	}

	if service.Spec.Selector[utils.PodTemplateHashLabelName] == podHash {
		return false, nil
	}

	origService := service.DeepCopy()
	if service.Spec.Selector == nil {
		service.Spec.Selector = make(map[string]string)
	}
	service.Spec.Selector[utils.PodTemplateHashLabelName] = podHash
	if err := cli.Patch(ctx, &service, client.MergeFrom(origService)); err != nil {
		return false, fmt.Errorf("while updating the selector of service %s: %w", name, err)
	}

	log.FromContext(ctx).Info("Service selector updated",
		"service", name,
		"from", origService.Spec.Selector[utils.PodTemplateHashLabelName],
		"to", podHash)
	return true, nil
}

// ReconcileCanaryServices pins the stable and the canary Services of a
// Rollout, when declared, to their revisions
func ReconcileCanaryServices(
	ctx context.Context,
	cli client.Client,
	rollout *apiv1.Rollout,
	stableHash, canaryHash string,
) error {
	canary := rollout.Spec.Strategy.Canary
	if canary == nil {
		return nil
	}

	if canary.StableService != "" && stableHash != "" {
		if _, err := PinServiceSelector(ctx, cli, rollout.Namespace, canary.StableService, stableHash); err != nil {
			return err
		}
	}

	if canary.CanaryService != "" && canaryHash != "" {
		if _, err := PinServiceSelector(ctx, cli, rollout.Namespace, canary.CanaryService, canaryHash); err != nil {
			return err
		}
	}

	return nil
}

// ReconcileBlueGreenServices pins the active and the preview Services of a
// Rollout to their revisions, and records the selectors in its status
func ReconcileBlueGreenServices(
	ctx context.Context,
	cli client.Client,
	rollout *apiv1.Rollout,
	activeHash, previewHash string,
) error {
	blueGreen := rollout.Spec.Strategy.BlueGreen
	if blueGreen == nil {
		return nil
	}

	if activeHash != "" {
		if _, err := PinServiceSelector(ctx, cli, rollout.Namespace, blueGreen.ActiveService, activeHash); err != nil {
			return err
		}
		rollout.Status.BlueGreen.ActiveSelector = activeHash
	}

	if blueGreen.PreviewService != "" && previewHash != "" {
		if _, err := PinServiceSelector(ctx, cli, rollout.Namespace, blueGreen.PreviewService, previewHash); err != nil {
			return err
		}
		rollout.Status.BlueGreen.PreviewSelector = previewHash
	}

	return nil
}

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
	"strconv"

	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
	"github.com/lily4499/gitops-argocd-gke/pkg/utils"
)

const (
	canaryAnnotationSuffix       = "/canary"
	canaryWeightAnnotationSuffix = "/canary-weight"

	ingressClassAnnotationName = "kubernetes.io/ingress.class"
)

// nginxRouter splits the traffic with a canary Ingress mirroring the
// stable one, as supported by the NGINX ingress controller
type nginxRouter struct {
	cli client.Client
}

func (r *nginxRouter) Type() string {
	return "nginx"
}

func (r *nginxRouter) SetWeight(ctx context.Context, rollout *apiv1.Rollout, weights Weights) error {
	contextLogger := log.FromContext(ctx).WithValues("router", r.Type())
	nginx := rollout.Spec.Strategy.Canary.TrafficRouting.Nginx

	var stableIngress networkingv1.Ingress
	if err := r.cli.Get(ctx, client.ObjectKey{
		Namespace: rollout.Namespace,
		Name:      nginx.StableIngress,
	}, &stableIngress); err != nil {
		return fmt.Errorf("while getting the stable ingress %s: %w", nginx.StableIngress, err)
	}

	desired, err := BuildCanaryIngress(rollout, &stableIngress, weights)
	if err != nil {
		return err
	}

	var canaryIngress networkingv1.Ingress
	err = r.cli.Get(ctx, client.ObjectKeyFromObject(desired), &canaryIngress)
	if apierrs.IsNotFound(err) {
		contextLogger.Info("Creating canary ingress", "ingress", desired.Name, "weights", weights.String())
		return r.cli.Create(ctx, desired)
	}
	if err != nil {
		return fmt.Errorf("while getting the canary ingress %s: %w", desired.Name, err)
	}

	if !utils.IsOwnedBy(&canaryIngress, rollout.UID) {
		return fmt.Errorf("ingress %s exists and is not managed by rollout %s", desired.Name, rollout.Name)
	}

	if equality.Semantic.DeepEqual(canaryIngress.Spec, desired.Spec) &&
		equality.Semantic.DeepEqual(canaryIngress.Annotations, desired.Annotations) {
		return nil
	}

	origIngress := canaryIngress.DeepCopy()
	canaryIngress.Spec = desired.Spec
	canaryIngress.Annotations = desired.Annotations
	contextLogger.Info("Updating canary ingress", "ingress", desired.Name, "weights", weights.String())
	return r.cli.Patch(ctx, &canaryIngress, client.MergeFrom(origIngress))
}

func (r *nginxRouter) GetWeight(ctx context.Context, rollout *apiv1.Rollout) (Weights, error) {
	nginx := rollout.Spec.Strategy.Canary.TrafficRouting.Nginx

	var canaryIngress networkingv1.Ingress
	err := r.cli.Get(ctx, client.ObjectKey{
		Namespace: rollout.Namespace,
		Name:      nginx.GetCanaryIngressName(rollout.Name),
	}, &canaryIngress)
	if apierrs.IsNotFound(err) {
		return StableOnly(), nil
	}
	if err != nil {
		return Weights{}, err
	}

	value, ok := canaryIngress.Annotations[nginx.GetAnnotationPrefix()+canaryWeightAnnotationSuffix]
	if !ok {
		return StableOnly(), nil
	}

	weight, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return Weights{}, fmt.Errorf("invalid canary weight %q on ingress %s: %w", value, canaryIngress.Name, err)
	}
	return NewWeights(int32(weight))
}

func (r *nginxRouter) Reset(ctx context.Context, rollout *apiv1.Rollout) error {
	nginx := rollout.Spec.Strategy.Canary.TrafficRouting.Nginx

	var canaryIngress networkingv1.Ingress
	err := r.cli.Get(ctx, client.ObjectKey{
		Namespace: rollout.Namespace,
		Name:      nginx.GetCanaryIngressName(rollout.Name),
	}, &canaryIngress)
	if apierrs.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	weightAnnotation := nginx.GetAnnotationPrefix() + canaryWeightAnnotationSuffix
	if canaryIngress.Annotations[weightAnnotation] == "0" {
		return nil
	}

	origIngress := canaryIngress.DeepCopy()
	if canaryIngress.Annotations == nil {
		canaryIngress.Annotations = make(map[string]string)
	}
	canaryIngress.Annotations[weightAnnotation] = "0"
	log.FromContext(ctx).Info("Routing every request to the stable revision",
		"router", r.Type(), "ingress", canaryIngress.Name)
	return r.cli.Patch(ctx, &canaryIngress, client.MergeFrom(origIngress))
}

// BuildCanaryIngress creates the canary Ingress, routing the requests
// matching the stable Ingress to the canary Service according to the weights
func BuildCanaryIngress(
	rollout *apiv1.Rollout,
	stableIngress *networkingv1.Ingress,
	weights Weights,
) (*networkingv1.Ingress, error) {
	canary := rollout.Spec.Strategy.Canary
	nginx := canary.TrafficRouting.Nginx
	prefix := nginx.GetAnnotationPrefix()

	spec := stableIngress.Spec.DeepCopy()
	replaced := false
	replaceBackend := func(backend *networkingv1.IngressBackend) {
		if backend != nil && backend.Service != nil && backend.Service.Name == canary.StableService {
			backend.Service.Name = canary.CanaryService
			replaced = true
		}
	}

	replaceBackend(spec.DefaultBackend)
	for i := range spec.Rules {
		if spec.Rules[i].HTTP == nil {
			continue
		}
		for j := range spec.Rules[i].HTTP.Paths {
			replaceBackend(&spec.Rules[i].HTTP.Paths[j].Backend)
		}
	}

	if !replaced {
		return nil, fmt.Errorf("ingress %s has no backend pointing to service %s",
			stableIngress.Name, canary.StableService)
	}

	annotations := map[string]string{
		prefix + canaryAnnotationSuffix:       "true",
		prefix + canaryWeightAnnotationSuffix: strconv.Itoa(int(weights.Canary())),
		utils.ManagedByAnnotationName:         rollout.Name,
	}
	if class, ok := stableIngress.Annotations[ingressClassAnnotationName]; ok {
		annotations[ingressClassAnnotationName] = class
	}

	ingress := &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{
			Name:        nginx.GetCanaryIngressName(rollout.Name),
			Namespace:   rollout.Namespace,
			Annotations: annotations,
		},
		Spec: *spec,
	}
	utils.LabelRolloutName(&ingress.ObjectMeta, rollout.Name)
	utils.SetAsOwnedBy(&ingress.ObjectMeta, rollout.ObjectMeta, metav1.TypeMeta{
		APIVersion: apiv1.SchemeGroupVersion.String(),
		Kind:       apiv1.RolloutKind,
	})

	return ingress, nil
}

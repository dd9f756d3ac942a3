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

package list

import (
	"bytes"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	k8client "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	apiv1 "github.com/lily4499/gitops-argocd-gke/api/v1"
	"github.com/lily4499/gitops-argocd-gke/internal/cmd/plugin"
	"github.com/lily4499/gitops-argocd-gke/internal/scheme"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("list subcommand", func() {
	var client k8client.Client

	BeforeEach(func() {
		checkout := &apiv1.Rollout{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "checkout",
				Namespace: "shop",
				Labels:    map[string]string{"team": "payments"},
			},
			Spec: apiv1.RolloutSpec{
				Replicas: ptr.To(int32(5)),
				Strategy: apiv1.RolloutStrategy{
					Canary: &apiv1.CanaryStrategy{
						Steps: []apiv1.CanaryStep{{SetWeight: ptr.To(int32(100))}},
					},
				},
			},
			Status: apiv1.RolloutStatus{
				Phase:             apiv1.RolloutPhaseProgressing,
				AvailableReplicas: 3,
				Canary: apiv1.CanaryStatus{
					Weights: &apiv1.TrafficWeights{Stable: 60, Canary: 40},
				},
			},
		}
		catalog := &apiv1.Rollout{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "catalog",
				Namespace: "store",
			},
			Spec: apiv1.RolloutSpec{
				Strategy: apiv1.RolloutStrategy{
					BlueGreen: &apiv1.BlueGreenStrategy{ActiveService: "catalog-active"},
				},
			},
		}

		client = fake.NewClientBuilder().WithScheme(scheme.BuildWithAllKnownScheme()).
			WithObjects(checkout, catalog).Build()
	})

	It("lists the rollouts of a namespace", func(ctx SpecContext) {
		var buffer bytes.Buffer
		Expect(List(ctx, client, "shop", "", plugin.OutputFormatText, &buffer)).To(Succeed())

		output := buffer.String()
		Expect(output).To(ContainSubstring("checkout"))
		Expect(output).To(ContainSubstring("40%"))
		Expect(output).To(ContainSubstring("3/5"))
		Expect(output).ToNot(ContainSubstring("catalog"))
	})

	It("lists the rollouts of every namespace", func(ctx SpecContext) {
		var buffer bytes.Buffer
		Expect(List(ctx, client, "", "", plugin.OutputFormatText, &buffer)).To(Succeed())
		Expect(buffer.String()).To(ContainSubstring("checkout"))
		Expect(buffer.String()).To(ContainSubstring("BlueGreen"))
	})

	It("filters the rollouts by label", func(ctx SpecContext) {
		var buffer bytes.Buffer
		Expect(List(ctx, client, "", "team=payments", plugin.OutputFormatYAML, &buffer)).To(Succeed())
		Expect(buffer.String()).To(ContainSubstring("name: checkout"))
		Expect(buffer.String()).ToNot(ContainSubstring("name: catalog"))
	})

	It("rejects invalid selectors", func(ctx SpecContext) {
		var buffer bytes.Buffer
		Expect(List(ctx, client, "", "team in (", plugin.OutputFormatText, &buffer)).ToNot(Succeed())
	})

	It("complains when no rollout is found", func(ctx SpecContext) {
		var buffer bytes.Buffer
		Expect(List(ctx, client, "empty", "", plugin.OutputFormatText, &buffer)).
			To(MatchError(ErrNoRollouts))
	})
})

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

package replicaset

import (
	"k8s.io/utils/ptr"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Revision history cleanup", func() {
	It("deletes the oldest scaled down revisions beyond the limit", func(ctx SpecContext) {
		rollout := newRollout()
		cli := newFakeClient(
			newOwnedReplicaSet(rollout, "r1", 1, 0),
			newOwnedReplicaSet(rollout, "r2", 2, 0),
			newOwnedReplicaSet(rollout, "r3", 3, 0),
			newOwnedReplicaSet(rollout, "r4", 4, 0),
			newOwnedReplicaSet(rollout, "r5", 5, 5),
			newOwnedReplicaSet(rollout, "r6", 6, 1),
		)

		replicaSets, err := List(ctx, cli, rollout)
		Expect(err).ToNot(HaveOccurred())

		deleted, err := CleanupHistory(ctx, cli, rollout, NewSet(replicaSets, "r6", "r5"))
		Expect(err).ToNot(HaveOccurred())
		Expect(deleted).To(Equal(2))

		replicaSets, err = List(ctx, cli, rollout)
		Expect(err).ToNot(HaveOccurred())
		names := make([]string, 0, len(replicaSets))
		for _, replicaSet := range replicaSets {
			names = append(names, replicaSet.Name)
		}
		Expect(names).To(Equal([]string{"checkout-r3", "checkout-r4", "checkout-r5", "checkout-r6"}))
	})

	It("never deletes the stable and the new revisions", func(ctx SpecContext) {
		rollout := newRollout()
		rollout.Spec.RevisionHistoryLimit = ptr.To(int32(0))
		cli := newFakeClient(
			newOwnedReplicaSet(rollout, "r1", 1, 0),
			newOwnedReplicaSet(rollout, "r2", 2, 0),
		)

		replicaSets, err := List(ctx, cli, rollout)
		Expect(err).ToNot(HaveOccurred())

		deleted, err := CleanupHistory(ctx, cli, rollout, NewSet(replicaSets, "r2", "r1"))
		Expect(err).ToNot(HaveOccurred())
		Expect(deleted).To(BeZero())
	})

	It("keeps the revisions still running pods", func(ctx SpecContext) {
		rollout := newRollout()
		rollout.Spec.RevisionHistoryLimit = ptr.To(int32(0))
		cli := newFakeClient(
			newOwnedReplicaSet(rollout, "r1", 1, 2),
			newOwnedReplicaSet(rollout, "r2", 2, 5),
		)

		replicaSets, err := List(ctx, cli, rollout)
		Expect(err).ToNot(HaveOccurred())

		deleted, err := CleanupHistory(ctx, cli, rollout, NewSet(replicaSets, "r2", "r2"))
		Expect(err).ToNot(HaveOccurred())
		Expect(deleted).To(BeZero())
	})
})

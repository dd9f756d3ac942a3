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

package utils

import (
	"slices"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeInhericanceController struct {
	labels      []string
	annotations []string
}

func (ctrl *fakeInhericanceController) IsLabelInherited(key string) bool {
	return slices.Contains(ctrl.labels, key)
}

func (ctrl *fakeInhericanceController) IsAnnotationInherited(key string) bool {
	return slices.Contains(ctrl.annotations, key)
}

var _ = Describe("Operator version annotation management", func() {
	rs := appsv1.ReplicaSet{}
	rsTwo := appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{
			Annotations: map[string]string{
				"test": "toast",
			},
		},
	}

	It("must annotate empty objects", func() {
		SetOperatorVersion(&rs.ObjectMeta, "1.2.0")
		Expect(rs.ObjectMeta.Annotations[OperatorVersionAnnotationName]).To(Equal("1.2.0"))
	})

	It("must not forget existing annotations", func() {
		SetOperatorVersion(&rsTwo.ObjectMeta, "1.2.1")
		Expect(rsTwo.ObjectMeta.Annotations[OperatorVersionAnnotationName]).To(Equal("1.2.1"))
		Expect(rsTwo.ObjectMeta.Annotations["test"]).To(Equal("toast"))
	})
})

// nolint:dupl
var _ = Describe("Annotation management", func() {
	config := &fakeInhericanceController{
		annotations: []string{
			"one",
			"two",
		},
	}

	toBeMatchedMap := map[string]string{"one": "1", "two": "2", "three": "3"}
	fixedMap := map[string]string{"four": "4", "five": "5"}

	It("must inherit annotations to be inherited", func() {
		rs := &appsv1.ReplicaSet{}
		InheritAnnotations(&rs.ObjectMeta, toBeMatchedMap, nil, config)
		Expect(rs.Annotations).To(Equal(map[string]string{"one": "1", "two": "2"}))
	})

	It("must inherit annotations to be inherited with fixed ones too", func() {
		rs := &appsv1.ReplicaSet{}
		InheritAnnotations(&rs.ObjectMeta, toBeMatchedMap, fixedMap, config)
		Expect(rs.Annotations).To(Equal(map[string]string{"one": "1", "two": "2", "four": "4", "five": "5"}))
	})
})

// nolint:dupl
var _ = Describe("Label management", func() {
	config := &fakeInhericanceController{
		labels: []string{
			"alpha",
			"beta",
		},
	}
	toBeMatchedMap := map[string]string{"alpha": "1", "beta": "2", "gamma": "3"}
	fixedMap := map[string]string{"delta": "4", "epsilon": "5"}

	It("must inherit labels to be inherited", func() {
		rs := &appsv1.ReplicaSet{}
		InheritLabels(&rs.ObjectMeta, toBeMatchedMap, nil, config)
		Expect(rs.Labels).To(Equal(map[string]string{"alpha": "1", "beta": "2"}))
	})
	It("must inherit labels to be inherited with fixed ones passed", func() {
		rs := &appsv1.ReplicaSet{}
		InheritLabels(&rs.ObjectMeta, toBeMatchedMap,
			fixedMap, config)
		Expect(rs.Labels).To(Equal(map[string]string{"alpha": "1", "beta": "2", "delta": "4", "epsilon": "5"}))
	})
})

var _ = Describe("Rollout labels management", func() {
	It("labels the objects with the rollout name and the hash", func() {
		rs := appsv1.ReplicaSet{
			ObjectMeta: metav1.ObjectMeta{
				Labels: map[string]string{"test": "toast"},
			},
		}
		LabelRolloutName(&rs.ObjectMeta, "checkout")
		LabelPodTemplateHash(&rs.ObjectMeta, "5d8f9c")
		Expect(rs.Labels[RolloutLabelName]).To(Equal("checkout"))
		Expect(GetPodTemplateHash(&rs)).To(Equal("5d8f9c"))
		Expect(rs.Labels["test"]).To(Equal("toast"))
	})

	It("works with empty objects", func() {
		rs := appsv1.ReplicaSet{}
		Expect(GetPodTemplateHash(&rs)).To(BeEmpty())
		LabelPodTemplateHash(&rs.ObjectMeta, "abc")
		Expect(GetPodTemplateHash(&rs)).To(Equal("abc"))
	})
})

var _ = Describe("Reconciliation loop annotation", func() {
	It("detects when the reconciliation is disabled", func() {
		meta := metav1.ObjectMeta{
			Annotations: map[string]string{
				ReconciliationLoopAnnotationName: ReconciliationDisabledValue,
			},
		}
		Expect(IsReconciliationDisabled(&meta)).To(BeTrue())
		Expect(IsReconciliationDisabled(&metav1.ObjectMeta{})).To(BeFalse())
	})
})

var _ = Describe("Object metadata merge", func() {
	It("adds the labels and annotations of the source, keeping the existing ones", func() {
		receiver := &appsv1.ReplicaSet{
			ObjectMeta: metav1.ObjectMeta{
				Labels:      map[string]string{"team": "payments"},
				Annotations: map[string]string{"owner": "alice"},
			},
		}
		source := &appsv1.ReplicaSet{
			ObjectMeta: metav1.ObjectMeta{
				Labels: map[string]string{RolloutLabelName: "checkout"},
			},
		}

		MergeObjectsMetadata(receiver, source)
		Expect(receiver.Labels).To(HaveKeyWithValue("team", "payments"))
		Expect(receiver.Labels).To(HaveKeyWithValue(RolloutLabelName, "checkout"))
		Expect(receiver.Annotations).To(HaveKeyWithValue("owner", "alice"))
	})
})

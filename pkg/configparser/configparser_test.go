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

package configparser

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// FakeData is an example of the configuration structure
// that can be used with this configparser
type FakeData struct {
	// WatchNamespace is the list of namespaces watched by the controller
	WatchNamespace string `json:"watchNamespace" env:"WATCH_NAMESPACE"`

	// InheritedAnnotations is a list of annotations that every ReplicaSet could
	// inherit from the owning Rollout
	InheritedAnnotations []string `json:"inheritedAnnotations" env:"INHERITED_ANNOTATIONS"`

	// InheritedLabels is a list of labels that every ReplicaSet could
	// inherit from the owning Rollout
	InheritedLabels []string `json:"inheritedLabels" env:"INHERITED_LABELS"`

	// DefaultProgressDeadlineSeconds is the progress deadline of the rollouts
	DefaultProgressDeadlineSeconds int `json:"defaultProgressDeadlineSeconds" env:"DEFAULT_PROGRESS_DEADLINE_SECONDS"`

	// MaxConcurrentReconciles is the number of parallel reconciliations
	MaxConcurrentReconciles int32 `json:"maxConcurrentReconciles" env:"MAX_CONCURRENT_RECONCILES"`

	// Namespaced restricts the permissions of the controller
	Namespaced bool `json:"namespaced" env:"NAMESPACED"`

	// NotParsed has no env tag and must be left alone
	NotParsed string
}

var defaultInheritedAnnotations = []string{
	"first",
	"second",
	"third",
}

const oneNamespace = "one-namespace"

// readConfigMap reads the configuration from the environment and the passed in data map
func (config *FakeData) readConfigMap(data map[string]string) {
	ReadConfigMap(config, &FakeData{InheritedAnnotations: defaultInheritedAnnotations}, data)
}

var _ = Describe("Data test suite", func() {
	It("correctly splits and trims lists", func() {
		list := splitAndTrim("string, with space , inside\t")
		Expect(list).To(Equal([]string{"string", "with space", "inside"}))
	})

	It("skips empty items while splitting lists", func() {
		Expect(splitAndTrim(",  ,a,,b ")).To(Equal([]string{"a", "b"}))
	})

	It("loads values from a map", func() {
		config := &FakeData{}
		GinkgoT().Setenv("WATCH_NAMESPACE", "")
		GinkgoT().Setenv("INHERITED_ANNOTATIONS", "")
		GinkgoT().Setenv("INHERITED_LABELS", "")
		config.readConfigMap(map[string]string{
			"WATCH_NAMESPACE":       oneNamespace,
			"INHERITED_ANNOTATIONS": "one, two",
			"INHERITED_LABELS":      "alpha, beta",
			"NAMESPACED":            "true",
		})
		Expect(config.WatchNamespace).To(Equal(oneNamespace))
		Expect(config.InheritedAnnotations).To(Equal([]string{"one", "two"}))
		Expect(config.InheritedLabels).To(Equal([]string{"alpha", "beta"}))
		Expect(config.Namespaced).To(BeTrue())
	})

	It("loads values from environment", func() {
		config := &FakeData{}
		GinkgoT().Setenv("WATCH_NAMESPACE", oneNamespace)
		GinkgoT().Setenv("INHERITED_ANNOTATIONS", "one, two")
		GinkgoT().Setenv("INHERITED_LABELS", "alpha, beta")
		GinkgoT().Setenv("DEFAULT_PROGRESS_DEADLINE_SECONDS", "120")
		GinkgoT().Setenv("MAX_CONCURRENT_RECONCILES", "4")
		config.readConfigMap(nil)
		Expect(config.WatchNamespace).To(Equal(oneNamespace))
		Expect(config.InheritedAnnotations).To(Equal([]string{"one", "two"}))
		Expect(config.InheritedLabels).To(Equal([]string{"alpha", "beta"}))
		Expect(config.DefaultProgressDeadlineSeconds).To(Equal(120))
		Expect(config.MaxConcurrentReconciles).To(Equal(int32(4)))
	})

	It("gives precedence to the map over the environment", func() {
		config := &FakeData{}
		ReadConfigMapWithEnvironment(config, &FakeData{}, map[string]string{
			"WATCH_NAMESPACE": "from-map",
		}, MapEnvironment{
			"WATCH_NAMESPACE":           "from-env",
			"MAX_CONCURRENT_RECONCILES": "2",
		})
		Expect(config.WatchNamespace).To(Equal("from-map"))
		Expect(config.MaxConcurrentReconciles).To(Equal(int32(2)))
	})

	It("reset to default value if format is not correct", func() {
		config := &FakeData{
			DefaultProgressDeadlineSeconds: 600,
			Namespaced:                     true,
		}
		defaultData := &FakeData{
			DefaultProgressDeadlineSeconds: 600,
			Namespaced:                     true,
		}
		ReadConfigMapWithEnvironment(config, defaultData, nil, MapEnvironment{
			"DEFAULT_PROGRESS_DEADLINE_SECONDS": "10min",
			"NAMESPACED":                        "maybe",
		})
		Expect(config.DefaultProgressDeadlineSeconds).To(Equal(600))
		Expect(config.Namespaced).To(BeTrue())
	})

	It("handles correctly default values of slices", func() {
		GinkgoT().Setenv("INHERITED_ANNOTATIONS", "")
		GinkgoT().Setenv("INHERITED_LABELS", "")
		config := &FakeData{}
		config.readConfigMap(nil)
		Expect(config.InheritedAnnotations).To(Equal(defaultInheritedAnnotations))
		Expect(config.InheritedLabels).To(BeNil())
	})

	It("leaves untagged fields alone", func() {
		config := &FakeData{NotParsed: "keep"}
		ReadConfigMapWithEnvironment(config, &FakeData{}, nil, MapEnvironment{})
		Expect(config.NotParsed).To(Equal("keep"))
	})

	It("panics when the types are not compatible", func() {
		Expect(func() {
			ReadConfigMap(&FakeData{}, &struct{}{}, nil)
		}).To(Panic())
		Expect(func() {
			ReadConfigMap(FakeData{}, FakeData{}, nil)
		}).To(Panic())
	})
})

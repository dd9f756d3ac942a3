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

package health

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Argument substitution", func() {
	args := map[string]string{"service": "checkout", "namespace": "shop"}

	It("replaces every placeholder", func() {
		Expect(SubstituteArgs(
			`sum(rate(http_requests_total{service="{{args.service}}",namespace="{{ args.namespace }}"}[5m]))`,
			args,
		)).To(Equal(`sum(rate(http_requests_total{service="checkout",namespace="shop"}[5m]))`))
	})

	It("leaves the text without placeholders untouched", func() {
		Expect(SubstituteArgs("http://status.example.com/health", args)).
			To(Equal("http://status.example.com/health"))
	})

	It("reports the missing arguments", func() {
		_, err := SubstituteArgs("{{args.service}}-{{args.version}}", args)
		Expect(err).To(MatchError(ContainSubstring("version")))
	})
})

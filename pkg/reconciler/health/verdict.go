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

// Verdict is the outcome of an evaluation
type Verdict string

const (
	// VerdictPass means the revision is healthy
	VerdictPass Verdict = "Pass"

	// VerdictFail means the revision is unhealthy and must be rolled back
	VerdictFail Verdict = "Fail"

	// VerdictInconclusive means a human needs to decide
	VerdictInconclusive Verdict = "Inconclusive"

	// VerdictRunning means the evaluation needs more time
	VerdictRunning Verdict = "Running"
)

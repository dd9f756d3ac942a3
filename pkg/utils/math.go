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

// CeilPercentage returns the ceiling of percentage% of total, clamped
// to the [0, total] interval
func CeilPercentage(total, percentage int32) int32 {
	switch {
	case total <= 0 || percentage <= 0:
		return 0
	case percentage >= 100:
		return total
	}

	return int32((int64(total)*int64(percentage) + 99) / 100) //nolint:gosec
}


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

import "errors"

var (
	// ErrNextLoop is returned when the reconciliation should stop here and
	// start again, usually after the cache caught up with a change
	ErrNextLoop = errors.New("stop this loop and wait for the next one")

	// ErrTerminateLoop is returned when the reconciliation should stop here
	// without requeueing
	ErrTerminateLoop = errors.New("stop this loop and do not requeue")
)

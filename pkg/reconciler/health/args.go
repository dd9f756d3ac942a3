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
	"fmt"
	"regexp"
	"strings"
)

var argumentPlaceholder = regexp.MustCompile(`\{\{\s*args\.([A-Za-z0-9_.-]+)\s*\}\}`)

// SubstituteArgs replaces the {{args.<name>}} placeholders with the
// argument values. Every placeholder must have a value.
func SubstituteArgs(text string, args map[string]string) (string, error) {
	var missing []string
	result := argumentPlaceholder.ReplaceAllStringFunc(text, func(placeholder string) string {
		name := argumentPlaceholder.FindStringSubmatch(placeholder)[1]
		value, ok := args[name]
		if !ok {
			missing = append(missing, name)
			return placeholder
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved arguments: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

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

// Package configparser contains a reflective parser that fills a
// configuration structure reading the values from the environment
// and from a map, usually the content of a ConfigMap.
//
// Every field that should be read must be tagged with the `env` tag,
// which names the key to be looked up. Supported kinds are strings,
// booleans, integers and slices of strings, the latter being expressed
// as comma separated values.
package configparser

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
)

var configparserLog = log.WithName("configparser")

// ReadConfigMap reads the configuration from the environment and the
// passed in data map. Values from the map take precedence over the ones
// from the environment, and invalid values are replaced by the default.
func ReadConfigMap(target interface{}, defaults interface{}, data map[string]string) {
	ReadConfigMapWithEnvironment(target, defaults, data, OsEnvironment{})
}

// ReadConfigMapWithEnvironment is like ReadConfigMap but reads the
// environment from the passed source
func ReadConfigMapWithEnvironment(
	target interface{},
	defaults interface{},
	data map[string]string,
	env EnvironmentSource,
) {
	ensurePointerToCompatibleStruct("target", target, "default", defaults)

	targetValue := reflect.ValueOf(target).Elem()
	defaultsValue := reflect.ValueOf(defaults).Elem()
	targetType := targetValue.Type()

	for i := 0; i < targetType.NumField(); i++ {
		field := targetType.Field(i)
		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		fieldValue := targetValue.Field(i)
		fieldValue.Set(defaultsValue.Field(i))

		value := env.Getenv(envName)
		if configValue, ok := data[envName]; ok && configValue != "" {
			value = configValue
		}
		if value == "" {
			continue
		}

		switch field.Type.Kind() {
		case reflect.Bool:
			boolValue, err := strconv.ParseBool(value)
			if err != nil {
				configparserLog.Info("Skipping invalid boolean value parsing configuration",
					"field", field.Name, "value", value)
				continue
			}
			fieldValue.SetBool(boolValue)

		case reflect.Int, reflect.Int32, reflect.Int64:
			intValue, err := strconv.ParseInt(value, 10, field.Type.Bits())
			if err != nil {
				configparserLog.Info("Skipping invalid integer value parsing configuration",
					"field", field.Name, "value", value)
				continue
			}
			fieldValue.SetInt(intValue)

		case reflect.String:
			fieldValue.SetString(value)

		case reflect.Slice:
			if field.Type.Elem().Kind() != reflect.String {
				configparserLog.Info("Skipping unsupported slice type parsing configuration",
					"field", field.Name, "type", field.Type.String())
				continue
			}
			fieldValue.Set(reflect.ValueOf(splitAndTrim(value)))

		default:
			configparserLog.Info("Skipping unsupported field type parsing configuration",
				"field", field.Name, "type", field.Type.String())
		}
	}
}

// ensurePointerToCompatibleStruct panics if the two values are not
// pointers to the same struct type
func ensurePointerToCompatibleStruct(
	firstName string, first interface{},
	secondName string, second interface{},
) {
	firstType := reflect.TypeOf(first)
	if firstType == nil || firstType.Kind() != reflect.Ptr || firstType.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("%s is not a pointer to a struct: %v", firstName, firstType))
	}

	secondType := reflect.TypeOf(second)
	if secondType != firstType {
		panic(fmt.Sprintf("%s and %s have incompatible types: %v and %v",
			firstName, secondName, firstType, secondType))
	}
}

// splitAndTrim slices a comma separated list of values into a slice
// of trimmed strings, skipping the empty ones
func splitAndTrim(commaSeparatedList string) []string {
	list := strings.Split(commaSeparatedList, ",")
	result := make([]string, 0, len(list))
	for _, item := range list {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

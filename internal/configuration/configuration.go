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

// Package configuration contains the configuration of the controller, reading
// it from environment variables and from the ConfigMap
package configuration

import (
	"errors"
	"path"
	"strings"
	"time"

	"github.com/lily4499/gitops-argocd-gke/pkg/configparser"
	"github.com/lily4499/gitops-argocd-gke/pkg/management/log"
)

var configurationLog = log.WithName("configuration")

const (
	// DefaultProgressDeadlineSeconds is the default progress deadline of
	// a Rollout not specifying one
	DefaultProgressDeadlineSeconds = 600

	// DefaultMaxConcurrentReconciles is the default number of rollouts
	// reconciled in parallel
	DefaultMaxConcurrentReconciles = 10

	// DefaultAnalysisRequestTimeout is the default timeout, in seconds,
	// of a single analysis measurement
	DefaultAnalysisRequestTimeout = 10

	// DefaultCrashLoopRestartThreshold is the number of container restarts
	// after which a pod of the new revision is considered failing
	DefaultCrashLoopRestartThreshold = 5
)

var (
	// ErrNamespaceEmpty is returned when the operator or the watch namespace
	// is not set while running in namespaced mode
	ErrNamespaceEmpty = errors.New(
		"when NAMESPACED is true, OPERATOR_NAMESPACE and WATCH_NAMESPACE must be set")

	// ErrNamespaceMismatch is returned when the operator namespace differs
	// from the watch namespace while running in namespaced mode
	ErrNamespaceMismatch = errors.New(
		"when NAMESPACED is true, OPERATOR_NAMESPACE and WATCH_NAMESPACE must be the same")
)

// Data is the struct containing the configuration of the controller.
// Usually the controller code will use the "Current" configuration.
type Data struct {
	// WatchNamespace is the comma separated list of namespaces where the
	// controller should watch Rollouts. Empty means every namespace.
	WatchNamespace string `json:"watchNamespace" env:"WATCH_NAMESPACE"`

	// OperatorNamespace is the namespace where the controller is installed
	OperatorNamespace string `json:"operatorNamespace" env:"OPERATOR_NAMESPACE"`

	// Namespaced is true when the controller only has permissions
	// in its own namespace
	Namespaced bool `json:"namespaced" env:"NAMESPACED"`

	// MaxConcurrentReconciles is the maximum number of Rollouts
	// reconciled in parallel
	MaxConcurrentReconciles int `json:"maxConcurrentReconciles" env:"MAX_CONCURRENT_RECONCILES"`

	// DefaultProgressDeadlineSeconds is the progress deadline applied to
	// the Rollouts not specifying one
	DefaultProgressDeadlineSeconds int `json:"defaultProgressDeadlineSeconds" env:"DEFAULT_PROGRESS_DEADLINE_SECONDS"`

	// AnalysisRequestTimeout is the timeout, in seconds, of a single
	// analysis measurement
	AnalysisRequestTimeout int `json:"analysisRequestTimeout" env:"ANALYSIS_REQUEST_TIMEOUT"`

	// WorkloadsRolloutDelay is the amount of seconds to wait between
	// starting the rollouts of two different workloads
	WorkloadsRolloutDelay int `json:"workloadsRolloutDelay" env:"WORKLOADS_ROLLOUT_DELAY"`

	// RevisionsRolloutDelay is the amount of seconds to wait between
	// starting two rollouts of the same workload
	RevisionsRolloutDelay int `json:"revisionsRolloutDelay" env:"REVISIONS_ROLLOUT_DELAY"`

	// CrashLoopRestartThreshold is the number of restarts of a container
	// of the new revision after which the revision is considered failing
	CrashLoopRestartThreshold int `json:"crashLoopRestartThreshold" env:"CRASH_LOOP_RESTART_THRESHOLD"`

	// DefaultPrometheusAddress is the address of the Prometheus server used
	// by the analyses not specifying one
	DefaultPrometheusAddress string `json:"defaultPrometheusAddress" env:"DEFAULT_PROMETHEUS_ADDRESS"`

	// InheritedAnnotations is a list of annotations that every ReplicaSet
	// inherits from the owning Rollout. Glob patterns are supported.
	InheritedAnnotations []string `json:"inheritedAnnotations" env:"INHERITED_ANNOTATIONS"`

	// InheritedLabels is a list of labels that every ReplicaSet inherits
	// from the owning Rollout. Glob patterns are supported.
	InheritedLabels []string `json:"inheritedLabels" env:"INHERITED_LABELS"`
}

// Current is the configuration used by the controller
var Current = NewConfiguration()

// newDefaultConfig creates a configuration holding the defaults
func newDefaultConfig() *Data {
	return &Data{
		MaxConcurrentReconciles:        DefaultMaxConcurrentReconciles,
		DefaultProgressDeadlineSeconds: DefaultProgressDeadlineSeconds,
		AnalysisRequestTimeout:         DefaultAnalysisRequestTimeout,
		CrashLoopRestartThreshold:      DefaultCrashLoopRestartThreshold,
	}
}

// NewConfiguration creates a new configuration, reading the
// defaults from the environment
func NewConfiguration() *Data {
	configuration := newDefaultConfig()
	configuration.ReadConfigMap(nil)
	return configuration
}

// ReadConfigMap reads the configuration from the environment and the passed in data map
func (config *Data) ReadConfigMap(data map[string]string) {
	configparser.ReadConfigMap(config, newDefaultConfig(), data)
}

// IsAnnotationInherited checks if an annotation with a certain name should
// be inherited from the Rollout specification to the generated objects
func (config *Data) IsAnnotationInherited(name string) bool {
	return evaluateGlobPatterns(config.InheritedAnnotations, name)
}

// IsLabelInherited checks if a label with a certain name should
// be inherited from the Rollout specification to the generated objects
func (config *Data) IsLabelInherited(name string) bool {
	return evaluateGlobPatterns(config.InheritedLabels, name)
}

// WatchedNamespaces get the list of additional watched namespaces.
// The result is a list of namespaces specified in the WATCH_NAMESPACE where
// each namespace is separated by comma
func (config *Data) WatchedNamespaces() []string {
	return cleanNamespaceList(config.WatchNamespace)
}

// GetMaxConcurrentReconciles gets the number of parallel reconciliations,
// never lower than one
func (config *Data) GetMaxConcurrentReconciles() int {
	if config.MaxConcurrentReconciles < 1 {
		return 1
	}
	return config.MaxConcurrentReconciles
}

// GetDefaultProgressDeadline gets the progress deadline used by the
// Rollouts not specifying one
func (config *Data) GetDefaultProgressDeadline() time.Duration {
	if config.DefaultProgressDeadlineSeconds <= 0 {
		return DefaultProgressDeadlineSeconds * time.Second
	}
	return time.Duration(config.DefaultProgressDeadlineSeconds) * time.Second
}

// GetAnalysisRequestTimeout gets the timeout of a single analysis measurement
func (config *Data) GetAnalysisRequestTimeout() time.Duration {
	if config.AnalysisRequestTimeout <= 0 {
		return DefaultAnalysisRequestTimeout * time.Second
	}
	return time.Duration(config.AnalysisRequestTimeout) * time.Second
}

// GetWorkloadsRolloutDelay gets the delay between the rollouts of
// two different workloads
func (config *Data) GetWorkloadsRolloutDelay() time.Duration {
	return time.Duration(config.WorkloadsRolloutDelay) * time.Second
}

// GetRevisionsRolloutDelay gets the delay between two rollouts of
// the same workload
func (config *Data) GetRevisionsRolloutDelay() time.Duration {
	return time.Duration(config.RevisionsRolloutDelay) * time.Second
}

// GetCrashLoopRestartThreshold gets the restart count that marks a
// container as failing
func (config *Data) GetCrashLoopRestartThreshold() int32 {
	if config.CrashLoopRestartThreshold <= 0 {
		return DefaultCrashLoopRestartThreshold
	}
	return int32(config.CrashLoopRestartThreshold) //nolint:gosec
}

// Validate checks the consistency of the configuration
func (config *Data) Validate() error {
	if !config.Namespaced {
		return nil
	}

	if config.OperatorNamespace == "" || config.WatchNamespace == "" {
		return ErrNamespaceEmpty
	}

	if config.OperatorNamespace != config.WatchNamespace {
		return ErrNamespaceMismatch
	}

	return nil
}

func cleanNamespaceList(namespaces string) (result []string) {
	unfilteredList := strings.Split(namespaces, ",")
	result = make([]string, 0, len(unfilteredList))

	for _, elem := range unfilteredList {
		elem = strings.TrimSpace(elem)
		if len(elem) != 0 {
			result = append(result, elem)
		}
	}

	return result
}

func evaluateGlobPatterns(patterns []string, value string) (result bool) {
	var err error

	for _, pattern := range patterns {
		if result, err = path.Match(pattern, value); err != nil {
			configurationLog.Info(
				"Skipping invalid glob pattern during labels/annotations inheritance",
				"pattern", pattern)
			continue
		}

		if result {
			return result
		}
	}

	return result
}

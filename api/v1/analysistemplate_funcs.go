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

package v1

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMetricInterval is the interval between two measurements
	// of a metric not specifying it
	DefaultMetricInterval = 30 * time.Second

	// DefaultMetricErrorLimit is the number of measurement errors tolerated
	DefaultMetricErrorLimit = 4

	// MaxMeasurementsHistory is the number of measurements kept in the
	// status of every metric
	MaxMeasurementsHistory = 10
)

// GetInterval gets the interval between two measurements
func (m *Metric) GetInterval() time.Duration {
	if m.Interval == nil || m.Interval.Duration <= 0 {
		return DefaultMetricInterval
	}
	return m.Interval.Duration
}

// GetCount gets the number of successful measurements needed
func (m *Metric) GetCount() int32 {
	if m.Count == nil || *m.Count < 1 {
		return 1
	}
	return *m.Count
}

// GetFailureLimit gets the number of failed measurements tolerated
func (m *Metric) GetFailureLimit() int32 {
	if m.FailureLimit == nil {
		return 0
	}
	return *m.FailureLimit
}

// GetInconclusiveLimit gets the number of inconclusive measurements tolerated
func (m *Metric) GetInconclusiveLimit() int32 {
	if m.InconclusiveLimit == nil {
		return 0
	}
	return *m.InconclusiveLimit
}

// GetErrorLimit gets the number of measurement errors tolerated
func (m *Metric) GetErrorLimit() int32 {
	if m.ErrorLimit == nil {
		return DefaultMetricErrorLimit
	}
	return *m.ErrorLimit
}

// Matches checks if the value satisfies the condition
func (c *MetricCondition) Matches(value float64) (bool, error) {
	threshold, err := strconv.ParseFloat(strings.TrimSpace(c.Threshold), 64)
	if err != nil {
		return false, fmt.Errorf("invalid threshold %q: %w", c.Threshold, err)
	}

	switch c.Operator {
	case OperatorLessThan:
		return value < threshold, nil
	case OperatorLessThanOrEqual:
		return value <= threshold, nil
	case OperatorGreaterThan:
		return value > threshold, nil
	case OperatorGreaterThanOrEqual:
		return value >= threshold, nil
	case OperatorEqual:
		return value == threshold, nil
	case OperatorNotEqual:
		return value != threshold, nil
	default:
		return false, fmt.Errorf("unknown operator %q", c.Operator)
	}
}

// ResolveArgs merges the values passed by a Rollout with the defaults
// declared by the template. Every argument must end up with a value.
func (t *AnalysisTemplate) ResolveArgs(values []AnalysisArgument) (map[string]string, error) {
	result := make(map[string]string, len(t.Spec.Args))
	for _, arg := range t.Spec.Args {
		if arg.Value != nil {
			result[arg.Name] = *arg.Value
		}
	}

	for _, value := range values {
		result[value.Name] = value.Value
	}

	for _, arg := range t.Spec.Args {
		if _, ok := result[arg.Name]; !ok {
			return nil, fmt.Errorf("argument %q of template %q has no value", arg.Name, t.Name)
		}
	}

	return result, nil
}

// GetMetricResult gets the result of the metric with the passed name,
// or nil if no measurement has been taken yet
func (s *AnalysisStatus) GetMetricResult(name string) *MetricResult {
	for i := range s.Metrics {
		if s.Metrics[i].Name == name {
			return &s.Metrics[i]
		}
	}
	return nil
}

// GetLastMeasurement gets the most recent measurement of the metric
func (m *MetricResult) GetLastMeasurement() *Measurement {
	if len(m.Measurements) == 0 {
		return nil
	}
	return &m.Measurements[len(m.Measurements)-1]
}

// AddMeasurement records a measurement updating the counters and
// trimming the history
func (m *MetricResult) AddMeasurement(measurement Measurement) {
	m.Count++
	switch measurement.Phase {
	case MeasurementPhaseSuccessful:
		m.Successful++
	case MeasurementPhaseFailed:
		m.Failed++
	case MeasurementPhaseInconclusive:
		m.Inconclusive++
	case MeasurementPhaseError:
		m.Error++
	}

	m.Measurements = append(m.Measurements, measurement)
	if len(m.Measurements) > MaxMeasurementsHistory {
		m.Measurements = m.Measurements[len(m.Measurements)-MaxMeasurementsHistory:]
	}
}

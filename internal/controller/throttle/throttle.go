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

// Package throttle coordinates the start of new revisions across the
// Rollouts managed by the operator, enforcing a delay between them
package throttle

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Throttle decides when a new revision can start rolling out. It is
// safe to use concurrently
type Throttle struct {
	m sync.Mutex

	// The amount of time we wait between rollouts of
	// different workloads
	workloadsDelay time.Duration

	// The amount of time we wait between revisions of
	// the same workload
	revisionsDelay time.Duration

	// This is used to get the current time. Mainly
	// used by the unit tests to inject a fake time
	clock clock.PassiveClock

	// The following data is relative to the last
	// started revision
	lastRevision string
	lastWorkload client.ObjectKey
	lastUpdate   time.Time
}

// Result is the output of the throttle, telling the
// operator how much time we need to wait to start a revision
type Result struct {
	// This is true when the revision can be started immediately
	RolloutAllowed bool

	// This is set with the amount of time the operator need
	// to wait to start that revision
	TimeToWait time.Duration
}

// New creates a new throttle with the passed configuration
func New(workloadsDelay, revisionsDelay time.Duration) *Throttle {
	return NewWithClock(workloadsDelay, revisionsDelay, clock.RealClock{})
}

// NewWithClock creates a new throttle reading the time from the passed clock
func NewWithClock(workloadsDelay, revisionsDelay time.Duration, clk clock.PassiveClock) *Throttle {
	return &Throttle{
		clock:          clk,
		workloadsDelay: workloadsDelay,
		revisionsDelay: revisionsDelay,
	}
}

// CoordinateRevision is called to check whether a new revision of a
// workload is allowed to start. Asking again for the last allowed
// revision is always permitted, so a reconciliation interrupted after
// the decision does not wait for itself.
func (t *Throttle) CoordinateRevision(
	workload client.ObjectKey,
	podHash string,
) Result {
	t.m.Lock()
	defer t.m.Unlock()

	if t.lastWorkload == workload {
		if t.lastRevision == podHash {
			return Result{RolloutAllowed: true}
		}
		return t.coordinateWithDelay(workload, podHash, t.revisionsDelay)
	}
	return t.coordinateWithDelay(workload, podHash, t.workloadsDelay)
}

func (t *Throttle) coordinateWithDelay(
	workload client.ObjectKey,
	podHash string,
	delay time.Duration,
) Result {
	now := t.clock.Now()
	timeSinceLastRollout := now.Sub(t.lastUpdate)

	if t.lastUpdate.IsZero() || timeSinceLastRollout >= delay {
		t.lastWorkload = workload
		t.lastRevision = podHash
		t.lastUpdate = now
		return Result{
			RolloutAllowed: true,
			TimeToWait:     0,
		}
	}

	return Result{
		RolloutAllowed: false,
		TimeToWait:     delay - timeSinceLastRollout,
	}
}

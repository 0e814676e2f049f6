/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package main

import (
	"time"

	"ts/ts_common/tsutil"
)

// cleanupLoop periodically drops expired history and prunes stale empty
// leaves.  Layout generation performs the same cleanup inline; this loop
// keeps the tree from growing without bound when nobody is watching the
// dashboard.  It shares the coordinator lock with the handlers; each pass
// is microseconds, so contention doesn't matter.
func (s *service) cleanupLoop(interval time.Duration, stop chan struct{}) {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	slow := tsutil.GetThrottledLogger(s.slog, time.Minute, time.Hour)

	for {
		select {
		case <-stop:
			return
		case <-tick.C:
			start := time.Now()
			s.Lock()
			dropped, pruned := s.tree.CleanupExpired(start.UTC())
			s.Unlock()

			metrics.cleanups.Inc()
			metrics.expirations.Add(float64(dropped))
			if dropped > 0 || pruned > 0 {
				s.slog.Debugf("cleanup dropped %d messages, "+
					"pruned %d nodes", dropped, pruned)
			}

			if elapsed := time.Since(start); elapsed > interval {
				slow.Warnf("cleanup pass took %v, longer than "+
					"its %v interval", elapsed, interval)
			}
		}
	}
}

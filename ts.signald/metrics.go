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
	"github.com/prometheus/client_golang/prometheus"
)

var metrics struct {
	ingests     prometheus.Counter
	prunes      prometheus.Counter
	expirations prometheus.Counter
	cleanups    prometheus.Counter
	layoutTimes prometheus.Summary
}

func init() {
	metrics.ingests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ts_messages_ingested_total",
		Help: "Messages accepted by the ingress endpoint",
	})
	metrics.prunes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ts_channels_pruned_total",
		Help: "Subtree prunes requested over the control surface",
	})
	metrics.expirations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ts_messages_expired_total",
		Help: "History messages dropped by background cleanup",
	})
	metrics.cleanups = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ts_cleanup_passes_total",
		Help: "Background cleanup passes completed",
	})
	metrics.layoutTimes = prometheus.NewSummary(prometheus.SummaryOpts{
		Name: "ts_layout_generate_seconds",
		Help: "Layout generation time",
	})

	prometheus.MustRegister(metrics.ingests)
	prometheus.MustRegister(metrics.prunes)
	prometheus.MustRegister(metrics.expirations)
	prometheus.MustRegister(metrics.cleanups)
	prometheus.MustRegister(metrics.layoutTimes)
}

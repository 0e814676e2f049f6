/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

/*
 * These tests manipulate a channel tree through the same operations the
 * HTTP handlers use, and verify the weight accounting, history bounds,
 * and lifecycle behavior against hand-computed expectations.
 */

package chantree

import (
	"fmt"
	"testing"
	"time"
)

var baseTime = time.Date(2020, time.June, 1, 12, 0, 0, 0, time.UTC)

func mkmsg(channel string, received time.Time) *Message {
	path, err := ParsePath(channel)
	if err != nil {
		panic(fmt.Sprintf("bad test channel %q: %v", channel, err))
	}
	return &Message{
		ID:         "0123456789abcdef0123456789abcdef",
		Path:       path,
		Payload:    "payload",
		Severity:   SeverityInfo,
		ReceivedAt: received,
		Lifespan:   DefaultLifespan,
	}
}

// utility function to check a node's weight
func checkWeight(t *testing.T, tree *Tree, channel string, want float64) {
	var path Path
	if channel != "" {
		path, _ = ParsePath(channel)
	}
	node := tree.GetNode(path)
	if node == nil {
		t.Fatalf("missing node %q", channel)
	}
	if node.Weight != want {
		t.Errorf("%q weight is %v.  Expected %v", channel,
			node.Weight, want)
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		err  error
	}{
		{"alpha", "alpha", nil},
		{"alpha.beta.gamma", "alpha.beta.gamma", nil},
		{"", "", ErrEmptyPath},
		{".", "", ErrEmptyPath},
		{"..", "", ErrEmptyPath},
		{".alpha", "", ErrEmptyPath},
		{"alpha.", "", ErrEmptyPath},
		{"alpha..beta", "", ErrEmptyPath},
	}

	for _, test := range tests {
		path, err := ParsePath(test.raw)
		if err != test.err {
			t.Errorf("ParsePath(%q) error is %v.  Expected %v",
				test.raw, err, test.err)
		}
		if err == nil && path.String() != test.want {
			t.Errorf("ParsePath(%q) is %q.  Expected %q",
				test.raw, path.String(), test.want)
		}
	}
}

func TestIngestWeights(t *testing.T) {
	tree := New()

	tree.Ingest(mkmsg("alpha.beta", baseTime), 1.0)
	tree.Ingest(mkmsg("alpha.beta", baseTime.Add(time.Second)), 1.0)

	checkWeight(t, tree, "", 2.0)
	checkWeight(t, tree, "alpha", 2.0)
	checkWeight(t, tree, "alpha.beta", 2.0)
}

func TestIngestNegativeDelta(t *testing.T) {
	tree := New()

	tree.Ingest(mkmsg("alpha", baseTime), -3.0)

	checkWeight(t, tree, "alpha", 0.0)
	node := tree.GetNode(Path{"alpha"})
	if node.LastMessageAt == nil || !node.LastMessageAt.Equal(baseTime) {
		t.Errorf("negative delta should still update timestamps")
	}
}

func TestLastMessageMonotonic(t *testing.T) {
	tree := New()

	tree.Ingest(mkmsg("alpha", baseTime.Add(time.Minute)), 1.0)
	tree.Ingest(mkmsg("alpha", baseTime), 1.0)

	node := tree.GetNode(Path{"alpha"})
	if !node.LastMessageAt.Equal(baseTime.Add(time.Minute)) {
		t.Errorf("last message time regressed to %v", node.LastMessageAt)
	}
}

func TestCreatedAtImmutable(t *testing.T) {
	tree := New()

	tree.Ingest(mkmsg("alpha", baseTime), 1.0)
	tree.Ingest(mkmsg("alpha", baseTime.Add(time.Hour)), 1.0)

	node := tree.GetNode(Path{"alpha"})
	if !node.CreatedAt.Equal(baseTime) {
		t.Errorf("created-at changed to %v", node.CreatedAt)
	}
}

func TestPruneAccounting(t *testing.T) {
	tree := New()

	tree.Ingest(mkmsg("alpha.beta", baseTime), 1.0)
	tree.Ingest(mkmsg("alpha.gamma", baseTime), 1.0)

	if err := tree.Prune(Path{"alpha", "beta"}); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	if tree.GetNode(Path{"alpha", "beta"}) != nil {
		t.Error("pruned node still present")
	}
	checkWeight(t, tree, "alpha", 1.0)
	checkWeight(t, tree, "alpha.gamma", 1.0)
	checkWeight(t, tree, "", 1.0)
}

func TestPruneRoot(t *testing.T) {
	tree := New()

	if err := tree.Prune(Path{}); err != ErrPruneRoot {
		t.Errorf("pruning the root returned %v.  Expected %v",
			err, ErrPruneRoot)
	}
}

func TestPruneMissing(t *testing.T) {
	tree := New()
	tree.Ingest(mkmsg("alpha", baseTime), 1.0)

	if err := tree.Prune(Path{"alpha", "beta"}); err != nil {
		t.Errorf("pruning a missing path returned %v", err)
	}
	if err := tree.Prune(Path{"bravo", "x"}); err != nil {
		t.Errorf("pruning under a missing parent returned %v", err)
	}
	checkWeight(t, tree, "alpha", 1.0)
}

func TestPruneDropsHistory(t *testing.T) {
	tree := New()

	tree.Ingest(mkmsg("alpha.beta", baseTime), 1.0)
	tree.Ingest(mkmsg("alpha.beta.gamma", baseTime), 1.0)
	tree.Ingest(mkmsg("alphabet", baseTime), 1.0)

	tree.Prune(Path{"alpha", "beta"})

	if n := tree.HistoryLen(Path{"alpha", "beta"}); n != 0 {
		t.Errorf("pruned channel still has %d messages", n)
	}
	if n := tree.HistoryLen(Path{"alpha", "beta", "gamma"}); n != 0 {
		t.Errorf("pruned descendant still has %d messages", n)
	}
	// A sibling whose name shares a prefix must survive.
	if n := tree.HistoryLen(Path{"alphabet"}); n != 1 {
		t.Errorf("unrelated channel has %d messages.  Expected 1", n)
	}
}

func TestHistoryBound(t *testing.T) {
	tree := New()
	tree.SetHistoryLimit(5)

	for i := 0; i < 8; i++ {
		tree.Ingest(mkmsg("alpha",
			baseTime.Add(time.Duration(i)*time.Second)), 1.0)
	}

	history := tree.GetHistory(Path{"alpha"})
	if len(history) != 5 {
		t.Fatalf("history holds %d messages.  Expected 5", len(history))
	}
	if !history[0].ReceivedAt.Equal(baseTime.Add(3 * time.Second)) {
		t.Errorf("oldest survivor is %v.  Expected the 4th message",
			history[0].ReceivedAt)
	}
	for i := 1; i < len(history); i++ {
		if history[i].ReceivedAt.Before(history[i-1].ReceivedAt) {
			t.Errorf("history out of order at %d", i)
		}
	}
}

func TestCleanupExpiredMessages(t *testing.T) {
	tree := New()

	tree.Ingest(mkmsg("alpha", baseTime), 1.0)
	tree.Ingest(mkmsg("alpha", baseTime.Add(20*time.Second)), 1.0)

	// The first message expires 30s after baseTime; the second survives.
	now := baseTime.Add(35 * time.Second)
	dropped, pruned := tree.CleanupExpired(now)
	if dropped != 1 || pruned != 0 {
		t.Errorf("cleanup dropped %d/pruned %d.  Expected 1/0",
			dropped, pruned)
	}
	if n := tree.HistoryLen(Path{"alpha"}); n != 1 {
		t.Errorf("history holds %d messages.  Expected 1", n)
	}

	// Running again at the same moment must be a no-op.
	dropped, pruned = tree.CleanupExpired(now)
	if dropped != 0 || pruned != 0 {
		t.Errorf("second cleanup dropped %d/pruned %d.  Expected 0/0",
			dropped, pruned)
	}
}

func TestCleanupPrunesStaleLeaves(t *testing.T) {
	tree := New()

	tree.Ingest(mkmsg("alpha.beta", baseTime), 1.0)

	// Expire the only message; the leaf goes, and alpha, emptied by the
	// leaf's removal, goes in the same pass.
	now := baseTime.Add(time.Minute)
	_, pruned := tree.CleanupExpired(now)
	if pruned != 2 {
		t.Fatalf("cleanup pruned %d nodes.  Expected 2", pruned)
	}
	if tree.GetNode(Path{"alpha", "beta"}) != nil {
		t.Error("stale leaf survived cleanup")
	}
	if tree.GetNode(Path{"alpha"}) != nil {
		t.Error("emptied parent survived cleanup")
	}
	checkWeight(t, tree, "", 0.0)

	// A second pass at the same moment finds nothing left to do.
	_, pruned = tree.CleanupExpired(now)
	if pruned != 0 {
		t.Errorf("second cleanup pruned %d nodes.  Expected 0", pruned)
	}
}

func TestCleanupHonorsGrace(t *testing.T) {
	tree := New()

	msg := mkmsg("alpha", baseTime)
	msg.Lifespan = time.Second
	tree.Ingest(msg, 1.0)

	// The message is long expired, but the node is younger than the
	// empty-node grace interval.
	_, pruned := tree.CleanupExpired(baseTime.Add(5 * time.Second))
	if pruned != 0 {
		t.Errorf("cleanup pruned %d nodes inside the grace interval",
			pruned)
	}
	if tree.GetNode(Path{"alpha"}) == nil {
		t.Error("young empty node was pruned")
	}
}

func TestCleanupSkipsLockedNodes(t *testing.T) {
	tree := New()

	msg := mkmsg("alpha", baseTime)
	msg.Lifespan = time.Second
	tree.Ingest(msg, 1.0)
	tree.GetNode(Path{"alpha"}).SetLocked(true)

	_, pruned := tree.CleanupExpired(baseTime.Add(time.Minute))
	if pruned != 0 {
		t.Errorf("cleanup pruned %d locked nodes", pruned)
	}
}

func TestScheduleDecay(t *testing.T) {
	tree := New()
	tree.ConfigureDecay(10*time.Second, 5*time.Second)

	tree.Ingest(mkmsg("alpha", baseTime), 1.0)

	node := tree.GetNode(Path{"alpha"})
	want := baseTime.Add(15 * time.Second)
	if node.FadeDeadline == nil || !node.FadeDeadline.Equal(want) {
		t.Fatalf("fade deadline is %v.  Expected %v",
			node.FadeDeadline, want)
	}

	// Reconfiguring alone must not move existing deadlines.
	tree.ConfigureDecay(time.Minute, time.Minute)
	if !node.FadeDeadline.Equal(want) {
		t.Error("ConfigureDecay moved an existing deadline")
	}

	// ScheduleDecay picks up the new configuration.
	tree.ScheduleDecay(baseTime)
	want = baseTime.Add(2 * time.Minute)
	if !node.FadeDeadline.Equal(want) {
		t.Errorf("fade deadline is %v.  Expected %v",
			node.FadeDeadline, want)
	}
}

func TestScheduleDecaySkipsLocked(t *testing.T) {
	tree := New()
	tree.ConfigureDecay(10*time.Second, 5*time.Second)
	tree.Ingest(mkmsg("alpha", baseTime), 1.0)

	node := tree.GetNode(Path{"alpha"})
	node.SetLocked(true)
	before := *node.FadeDeadline

	tree.ConfigureDecay(time.Hour, time.Hour)
	tree.ScheduleDecay(baseTime)

	if !node.FadeDeadline.Equal(before) {
		t.Error("ScheduleDecay touched a locked node")
	}
}

func TestWalkOrder(t *testing.T) {
	tree := New()

	tree.Ingest(mkmsg("bravo", baseTime), 1.0)
	tree.Ingest(mkmsg("alpha.two", baseTime), 1.0)
	tree.Ingest(mkmsg("alpha.one", baseTime), 1.0)

	var got []string
	tree.Walk(func(node *Node) {
		got = append(got, node.Path().String())
	})

	want := []string{"", "bravo", "alpha", "alpha.two", "alpha.one"}
	if len(got) != len(want) {
		t.Fatalf("walk yielded %v.  Expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walk yielded %v.  Expected %v", got, want)
		}
	}
}

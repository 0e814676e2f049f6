/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package chantree

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrPruneRoot is returned when a caller attempts to prune the synthetic
// root node.
var ErrPruneRoot = errors.New("cannot prune the root node")

const (
	// DefaultHistoryLimit bounds the per-channel message history
	DefaultHistoryLimit = 100

	// emptyNodeGrace is how long a childless, history-less node survives
	// before cleanup prunes it.
	emptyNodeGrace = 10 * time.Second

	defaultHold  = 30 * time.Second
	defaultDecay = 10 * time.Second
)

// Node represents a single channel in the tree.  Nodes are created on first
// ingest and mutated only through Tree operations; consumers must treat any
// Node they are handed as read-only.
type Node struct {
	Weight        float64
	LastMessageAt *time.Time
	FadeDeadline  *time.Time
	CreatedAt     time.Time

	path     Path
	name     string
	parent   *Node
	children map[string]*Node
	order    []string
	locked   bool
}

// Path returns the channel path of this node.
func (node *Node) Path() Path {
	return node.path
}

// Name returns the final path segment of this node.
func (node *Node) Name() string {
	return node.name
}

// Parent returns this node's parent, or nil for the root.
func (node *Node) Parent() *Node {
	return node.parent
}

// Children returns the child nodes in insertion order.
func (node *Node) Children() []*Node {
	kids := make([]*Node, 0, len(node.order))
	for _, name := range node.order {
		kids = append(kids, node.children[name])
	}
	return kids
}

// Locked indicates whether the node is exempt from decay scheduling and
// automatic cleanup.
func (node *Node) Locked() bool {
	return node.locked
}

// SetLocked marks or unmarks the node as exempt from decay scheduling and
// automatic cleanup.  There is deliberately no wire-level access to this.
func (node *Node) SetLocked(locked bool) {
	node.locked = locked
}

func (node *Node) touch(timestamp time.Time, delta float64) {
	if node.Weight += delta; node.Weight < 0 {
		node.Weight = 0
	}
	if node.LastMessageAt == nil || node.LastMessageAt.Before(timestamp) {
		copy := timestamp
		node.LastMessageAt = &copy
	}
}

func (node *Node) scheduleFade(hold, decay time.Duration) {
	if node.LastMessageAt == nil {
		return
	}
	deadline := node.LastMessageAt.Add(hold + decay)
	node.FadeDeadline = &deadline
}

// Tree holds the channel hierarchy, the per-channel message history, and
// the decay configuration.  The tree performs no locking of its own; the
// owning service serializes all access.
type Tree struct {
	root    *Node
	history map[string][]*Message
	histMax int
	hold    time.Duration
	decay   time.Duration
}

// New returns an empty channel tree with default decay and history
// settings.
func New() *Tree {
	return &Tree{
		root: &Node{
			children: make(map[string]*Node),
		},
		history: make(map[string][]*Message),
		histMax: DefaultHistoryLimit,
		hold:    defaultHold,
		decay:   defaultDecay,
	}
}

// Root returns the synthetic root node.
func (t *Tree) Root() *Node {
	return t.root
}

// SetHistoryLimit adjusts the per-channel history bound.  Existing queues
// are trimmed lazily, on their next append.
func (t *Tree) SetHistoryLimit(n int) {
	if n > 0 {
		t.histMax = n
	}
}

// ConfigureDecay replaces the hold and decay durations used when
// scheduling fades.  Existing deadlines are untouched; they are recomputed
// on the next ingest or ScheduleDecay pass.
func (t *Tree) ConfigureDecay(hold, decay time.Duration) {
	t.hold = hold
	t.decay = decay
}

// Decay returns the current hold and decay durations.
func (t *Tree) Decay() (time.Duration, time.Duration) {
	return t.hold, t.decay
}

func (t *Tree) ensureChild(node *Node, name string, created time.Time) *Node {
	next, ok := node.children[name]
	if !ok {
		next = &Node{
			path:      append(append(Path{}, node.path...), name),
			name:      name,
			parent:    node,
			children:  make(map[string]*Node),
			CreatedAt: created,
		}
		node.children[name] = next
		node.order = append(node.order, name)
	}
	return next
}

// Ingest adds a message to the tree.  The root and every node along the
// message's path gain delta weight (floored at zero) and an updated
// last-message timestamp; every non-root node on the path gets a fresh
// fade deadline; the message lands in the channel's bounded history.
func (t *Tree) Ingest(msg *Message, delta float64) {
	timestamp := msg.ReceivedAt

	node := t.root
	node.touch(timestamp, delta)

	for _, segment := range msg.Path {
		node = t.ensureChild(node, segment, timestamp)
		node.touch(timestamp, delta)
		node.scheduleFade(t.hold, t.decay)
	}

	key := msg.Path.String()
	queue := append(t.history[key], msg)
	if len(queue) > t.histMax {
		queue = queue[len(queue)-t.histMax:]
	}
	t.history[key] = queue
}

// ScheduleDecay refreshes the fade deadline of every unlocked node that
// has seen a message, picking up any change made by ConfigureDecay.
// Weights are not modified.
func (t *Tree) ScheduleDecay(now time.Time) {
	t.Walk(func(node *Node) {
		if node.LastMessageAt == nil || node.locked {
			return
		}
		node.scheduleFade(t.hold, t.decay)
	})
}

// CleanupExpired drops expired messages from the head of every history
// queue, then prunes childless, history-less nodes older than the
// empty-node grace interval.  It returns the number of messages dropped
// and the number of nodes pruned.
func (t *Tree) CleanupExpired(now time.Time) (int, int) {
	dropped := 0
	for key, queue := range t.history {
		i := 0
		for i < len(queue) && !queue[i].ExpiresAt().After(now) {
			i++
		}
		if i > 0 {
			dropped += i
			t.history[key] = queue[i:]
		}
	}

	// Prune stale empty leaves, deepest first, so that a parent emptied
	// by its children's removal goes in the same pass and weight
	// accounting runs through the normal prune path.  One pass reaches
	// the fixpoint: a parent is never younger than its children.
	candidates := make([]*Node, 0)
	t.Walk(func(node *Node) {
		if node.parent == nil || node.locked {
			return
		}
		if now.Sub(node.CreatedAt) > emptyNodeGrace {
			candidates = append(candidates, node)
		}
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].path) > len(candidates[j].path)
	})

	pruned := 0
	for _, node := range candidates {
		if len(node.children) > 0 {
			continue
		}
		if len(t.history[node.path.String()]) > 0 {
			continue
		}
		t.Prune(node.path)
		pruned++
	}

	return dropped, pruned
}

// Prune atomically removes the subtree rooted at the given path,
// subtracting the removed subtree's root weight from every ancestor
// (floored at zero) and dropping the history of every removed channel.
// Pruning a nonexistent path is a silent no-op; pruning the root is an
// error.
func (t *Tree) Prune(path Path) error {
	if len(path) == 0 {
		return ErrPruneRoot
	}

	parent := t.GetNode(path.Parent())
	if parent == nil {
		return nil
	}

	name := path[len(path)-1]
	removed, ok := parent.children[name]
	if !ok {
		return nil
	}

	delete(parent.children, name)
	for i, n := range parent.order {
		if n == name {
			parent.order = append(parent.order[:i], parent.order[i+1:]...)
			break
		}
	}

	for node := parent; node != nil; node = node.parent {
		if node.Weight -= removed.Weight; node.Weight < 0 {
			node.Weight = 0
		}
	}

	key := path.String()
	delete(t.history, key)
	prefix := key + "."
	for k := range t.history {
		if strings.HasPrefix(k, prefix) {
			delete(t.history, k)
		}
	}

	return nil
}

// GetNode returns the node at the requested path, or nil if no such
// channel exists.  The empty path returns the root.
func (t *Tree) GetNode(path Path) *Node {
	node := t.root
	for _, segment := range path {
		if node = node.children[segment]; node == nil {
			return nil
		}
	}
	return node
}

// GetHistory returns the recorded history for a channel, oldest first.
// The returned slice is the caller's to keep.
func (t *Tree) GetHistory(path Path) []*Message {
	queue := t.history[path.String()]
	msgs := make([]*Message, len(queue))
	copy(msgs, queue)
	return msgs
}

// HistoryLen returns the number of messages currently held for a channel.
func (t *Tree) HistoryLen(path Path) int {
	return len(t.history[path.String()])
}

// Walk visits every node depth-first, root first, children in insertion
// order.  The callback must not mutate the tree.
func (t *Tree) Walk(visit func(*Node)) {
	t.walk(t.root, visit)
}

func (t *Tree) walk(node *Node, visit func(*Node)) {
	visit(node)
	for _, name := range node.order {
		t.walk(node.children[name], visit)
	}
}

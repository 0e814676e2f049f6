/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package treemap turns a channel tree into a flat list of renderer-facing
// frames: normalized rectangles tiling the unit square, nested so that a
// parent always shares a colored band with the descendants directly below
// it.
package treemap

import (
	"time"

	"ts/common/chantree"
	"ts/common/colors"
)

// PanelState is the lifecycle state of a rendered panel.
type PanelState string

// Panel states.  Removed never appears in generator output; it exists for
// consumers reasoning about the panel state machine.
const (
	StateActive  PanelState = "active"
	StateFading  PanelState = "fading"
	StateRemoved PanelState = "removed"
)

// Rect is a normalized rectangle in the unit square.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Frame is the computed layout for one channel node.
type Frame struct {
	Path        chantree.Path `json:"path"`
	Rect        Rect          `json:"rect"`
	State       PanelState    `json:"state"`
	Weight      float64       `json:"weight"`
	GeneratedAt time.Time     `json:"generated_at"`
	Colors      colors.Scheme `json:"colors"`
}

const (
	// defaultMinExtent is the smallest fraction of a sibling band any
	// child may occupy.
	defaultMinExtent = 0.02

	// Fraction of a node's rectangle reserved for its own band when it
	// has children.  A parent holding history keeps half; an empty
	// parent shrinks to a label strip and yields the rest.
	bandWithHistory = 0.5
	bandEmpty       = 0.2
)

// Generator computes layout frames from a tree snapshot.  It is stateless
// apart from its color service reference.
type Generator struct {
	colors    *colors.Service
	minExtent float64
}

// NewGenerator returns a generator drawing palettes from the given color
// service.
func NewGenerator(svc *colors.Service) *Generator {
	return &Generator{
		colors:    svc,
		minExtent: defaultMinExtent,
	}
}

// Colors returns the color service the generator is drawing from.
func (g *Generator) Colors() *colors.Service {
	return g.colors
}

// Generate runs expiry cleanup on the tree and then walks it, emitting one
// frame per reachable non-root node.  Output is deterministic for a fixed
// (tree, now, color service state).
func (g *Generator) Generate(t *chantree.Tree, now time.Time) []Frame {
	t.CleanupExpired(now)

	frames := make([]Frame, 0)
	kids := t.Root().Children()
	if len(kids) == 0 {
		return frames
	}

	g.tile(t, kids, Rect{X: 0, Y: 0, Width: 1, Height: 1}, 0, now, &frames)
	return frames
}

// tile lays a set of siblings side-by-side across a band.  At depth 0 the
// siblings share the band equally, keeping top-level channels balanced;
// below that, widths follow node weights.  The last child takes the exact
// remainder so the band tiles without gaps.
func (g *Generator) tile(t *chantree.Tree, kids []*chantree.Node,
	band Rect, depth int, now time.Time, frames *[]Frame) {

	weights := make([]float64, len(kids))
	total := 0.0
	for i, kid := range kids {
		w := 1.0
		if depth > 0 && kid.Weight > 0 {
			w = kid.Weight
		}
		weights[i] = w
		total += w
	}

	x := band.X
	for i, kid := range kids {
		var width float64
		if i == len(kids)-1 {
			if width = band.X + band.Width - x; width < 0 {
				width = 0
			}
		} else {
			frac := weights[i] / total
			if frac < g.minExtent {
				frac = g.minExtent
			}
			width = frac * band.Width
		}

		rect := Rect{X: x, Y: band.Y, Width: width, Height: band.Height}
		g.layout(t, kid, rect, depth, now, frames)
		x += width
	}
}

// layout emits the frame(s) for one node.  A leaf takes its whole
// allocation; an internal node keeps a band across the top and tiles its
// children below it.
func (g *Generator) layout(t *chantree.Tree, node *chantree.Node,
	rect Rect, depth int, now time.Time, frames *[]Frame) {

	kids := node.Children()
	if len(kids) == 0 {
		*frames = append(*frames, g.frame(node, rect, now))
		return
	}

	frac := bandEmpty
	if t.HistoryLen(node.Path()) > 0 {
		frac = bandWithHistory
	}
	bandH := rect.Height * frac

	*frames = append(*frames, g.frame(node,
		Rect{X: rect.X, Y: rect.Y, Width: rect.Width, Height: bandH}, now))

	below := Rect{
		X:      rect.X,
		Y:      rect.Y + bandH,
		Width:  rect.Width,
		Height: rect.Height - bandH,
	}
	g.tile(t, kids, below, depth+1, now, frames)
}

func (g *Generator) frame(node *chantree.Node, rect Rect, now time.Time) Frame {
	state := StateActive
	if d := node.FadeDeadline; d != nil && !now.Before(*d) {
		state = StateFading
	}

	return Frame{
		Path:        node.Path(),
		Rect:        rect,
		State:       state,
		Weight:      node.Weight,
		GeneratedAt: now,
		Colors:      g.colors.SchemeForPath(node.Path()),
	}
}

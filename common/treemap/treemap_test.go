/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package treemap

import (
	"fmt"
	"testing"
	"time"

	"ts/common/chantree"
	"ts/common/colors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2020, time.June, 1, 12, 0, 0, 0, time.UTC)

func mkgen() *Generator {
	return NewGenerator(colors.NewService(colors.AssignIncrement,
		colors.InheritUnique))
}

func ingest(t *chantree.Tree, channel string, received time.Time) {
	path, err := chantree.ParsePath(channel)
	if err != nil {
		panic(fmt.Sprintf("bad test channel %q: %v", channel, err))
	}
	t.Ingest(&chantree.Message{
		ID:         "0123456789abcdef0123456789abcdef",
		Path:       path,
		Payload:    "payload",
		Severity:   chantree.SeverityInfo,
		ReceivedAt: received,
		Lifespan:   chantree.DefaultLifespan,
	}, 1.0)
}

func frameFor(frames []Frame, channel string) *Frame {
	for i := range frames {
		if frames[i].Path.String() == channel {
			return &frames[i]
		}
	}
	return nil
}

func TestEmptyTree(t *testing.T) {
	frames := mkgen().Generate(chantree.New(), baseTime)
	assert.NotNil(t, frames)
	assert.Len(t, frames, 0)
}

func TestSingleChannel(t *testing.T) {
	tree := chantree.New()
	ingest(tree, "alpha", baseTime)

	frames := mkgen().Generate(tree, baseTime)
	require.Len(t, frames, 1)

	f := frames[0]
	assert.Equal(t, "alpha", f.Path.String())
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 1, Height: 1}, f.Rect)
	assert.Equal(t, StateActive, f.State)
	assert.Equal(t, baseTime, f.GeneratedAt)
}

func TestTopLevelEqualSplit(t *testing.T) {
	tree := chantree.New()
	ingest(tree, "alpha", baseTime)
	// Weight imbalance must not matter at the top level.
	ingest(tree, "bravo", baseTime)
	ingest(tree, "bravo", baseTime)
	ingest(tree, "bravo", baseTime)

	frames := mkgen().Generate(tree, baseTime)
	require.Len(t, frames, 2)

	alpha := frameFor(frames, "alpha")
	bravo := frameFor(frames, "bravo")
	require.NotNil(t, alpha)
	require.NotNil(t, bravo)

	assert.InDelta(t, 0.5, alpha.Rect.Width, 1e-9)
	assert.InDelta(t, 0.5, bravo.Rect.Width, 1e-9)
	assert.Equal(t, 0.0, alpha.Rect.Y)
	assert.Equal(t, 0.0, bravo.Rect.Y)
	assert.InDelta(t, 0.5, bravo.Rect.X, 1e-9)
	assert.Equal(t, 1.0, alpha.Rect.Height)
}

func TestParentBandEmpty(t *testing.T) {
	tree := chantree.New()
	ingest(tree, "alpha.beta", baseTime)

	frames := mkgen().Generate(tree, baseTime)
	require.Len(t, frames, 2)

	alpha := frameFor(frames, "alpha")
	beta := frameFor(frames, "alpha.beta")
	require.NotNil(t, alpha)
	require.NotNil(t, beta)

	// alpha itself holds no history, so it keeps only a label band.
	assert.InDelta(t, 0.2, alpha.Rect.Height, 1e-9)
	assert.InDelta(t, 0.2, beta.Rect.Y, 1e-9)
	assert.InDelta(t, 0.8, beta.Rect.Height, 1e-9)
	assert.Equal(t, 1.0, beta.Rect.Width)
}

func TestParentBandWithHistory(t *testing.T) {
	tree := chantree.New()
	ingest(tree, "alpha", baseTime)
	ingest(tree, "alpha.beta", baseTime)

	frames := mkgen().Generate(tree, baseTime)
	require.Len(t, frames, 2)

	alpha := frameFor(frames, "alpha")
	beta := frameFor(frames, "alpha.beta")
	require.NotNil(t, alpha)
	require.NotNil(t, beta)

	assert.InDelta(t, 0.5, alpha.Rect.Height, 1e-9)
	assert.InDelta(t, 0.5, beta.Rect.Y, 1e-9)
	assert.InDelta(t, 0.5, beta.Rect.Height, 1e-9)
}

func TestWeightProportionalSplit(t *testing.T) {
	tree := chantree.New()
	ingest(tree, "alpha.beta", baseTime)
	ingest(tree, "alpha.beta", baseTime)
	ingest(tree, "alpha.beta", baseTime)
	ingest(tree, "alpha.gamma", baseTime)

	frames := mkgen().Generate(tree, baseTime)
	require.Len(t, frames, 3)

	beta := frameFor(frames, "alpha.beta")
	gamma := frameFor(frames, "alpha.gamma")
	require.NotNil(t, beta)
	require.NotNil(t, gamma)

	assert.InDelta(t, 0.75, beta.Rect.Width, 1e-9)
	assert.InDelta(t, 0.25, gamma.Rect.Width, 1e-9)

	// Siblings tile their band exactly.
	assert.InDelta(t, 1.0, beta.Rect.Width+gamma.Rect.Width, 1e-9)
	assert.InDelta(t, beta.Rect.X+beta.Rect.Width, gamma.Rect.X, 1e-9)
}

func TestRectsStayNormalized(t *testing.T) {
	tree := chantree.New()
	channels := []string{
		"alpha", "alpha.one", "alpha.two", "alpha.two.deep",
		"bravo", "bravo.x", "charlie",
	}
	for _, ch := range channels {
		ingest(tree, ch, baseTime)
	}

	frames := mkgen().Generate(tree, baseTime)
	for _, f := range frames {
		assert.True(t, f.Rect.X >= 0, "%s x=%v", f.Path, f.Rect.X)
		assert.True(t, f.Rect.Y >= 0, "%s y=%v", f.Path, f.Rect.Y)
		assert.True(t, f.Rect.X+f.Rect.Width <= 1+1e-9,
			"%s overflows x", f.Path)
		assert.True(t, f.Rect.Y+f.Rect.Height <= 1+1e-9,
			"%s overflows y", f.Path)
	}

	// One frame per reachable non-root node.
	assert.Len(t, frames, len(channels))
}

func TestFadingState(t *testing.T) {
	tree := chantree.New()
	tree.ConfigureDecay(time.Second, time.Second)

	ingest(tree, "alpha", baseTime)
	ingest(tree, "bravo", baseTime.Add(10*time.Second))

	// alpha's deadline (baseTime+2s) has passed; bravo's hasn't.
	frames := mkgen().Generate(tree, baseTime.Add(11*time.Second))
	require.Len(t, frames, 2)

	assert.Equal(t, StateFading, frameFor(frames, "alpha").State)
	assert.Equal(t, StateActive, frameFor(frames, "bravo").State)
}

func TestGenerateRunsCleanup(t *testing.T) {
	tree := chantree.New()
	ingest(tree, "alpha", baseTime)

	// Both the message lifespan and the empty-node grace are long past;
	// the layout must not show stale channels.
	frames := mkgen().Generate(tree, baseTime.Add(time.Hour))
	assert.Len(t, frames, 0)
}

func TestDeterministic(t *testing.T) {
	mk := func() *chantree.Tree {
		tree := chantree.New()
		ingest(tree, "bravo", baseTime)
		ingest(tree, "alpha.two", baseTime)
		ingest(tree, "alpha.one", baseTime)
		return tree
	}

	a := mkgen().Generate(mk(), baseTime)
	b := mkgen().Generate(mk(), baseTime)
	assert.Equal(t, a, b)
}

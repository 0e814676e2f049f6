/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package colors

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Scheme is a monochromatic four-color palette derived from a single hue,
// as consumed by the dashboard renderer.
type Scheme struct {
	Hue        int    `json:"hue"`
	Background string `json:"background"`
	Border     string `json:"border"`
	Normal     string `json:"normal"`
	Highlight  string `json:"highlight"`
}

// Palette generates distinct color schemes by hue rotation.  A prime
// increment coprime to 360 (101, 103, 107, ...) gives maximal separation
// and full coverage of the hue circle.
type Palette struct {
	increment int
	start     int
}

// DefaultIncrement is the hue step applied per assigned index.
const DefaultIncrement = 101

// NewPalette returns a palette rotating by increment degrees from the
// given starting hue.
func NewPalette(increment, start int) *Palette {
	return &Palette{
		increment: increment,
		start:     ((start % 360) + 360) % 360,
	}
}

// Increment returns the hue step of this palette.
func (p *Palette) Increment() int {
	return p.increment
}

// HueForIndex returns the base hue assigned to the given index.
func (p *Palette) HueForIndex(index int) int {
	return (p.start + p.increment*index) % 360
}

// SchemeForIndex returns the scheme for an assigned index.
func (p *Palette) SchemeForIndex(index int) Scheme {
	return p.SchemeForHue(p.HueForIndex(index))
}

// IndexForKey hashes an arbitrary key to a stable palette index.
func IndexForKey(key string) int {
	sum := sha256.Sum256([]byte(key))
	return int(binary.BigEndian.Uint32(sum[:4]) % 1000)
}

// SchemeForKey returns a deterministic scheme for a key, so the same
// channel always renders in the same colors.
func (p *Palette) SchemeForKey(key string) Scheme {
	return p.SchemeForIndex(IndexForKey(key))
}

// SchemeForHue builds the standard dark-mode palette for a hue: a dark
// background, a medium border, readable normal text, and a bright
// highlight.
func (p *Palette) SchemeForHue(hue int) Scheme {
	return Scheme{
		Hue:        hue,
		Background: hslToHex(float64(hue), 35, 15),
		Border:     hslToHex(float64(hue), 40, 30),
		Normal:     hslToHex(float64(hue), 50, 65),
		Highlight:  hslToHex(float64(hue), 60, 85),
	}
}

// hslToHex renders an HSL color (h in degrees, s and l in percent) as a
// lowercase "#rrggbb" string.  Channels are truncated, not rounded, when
// scaled to 255; the dashboard depends on that exact mapping.
func hslToHex(h, s, l float64) string {
	r, g, b := hslToRGB(h/360.0, s/100.0, l/100.0)
	return fmt.Sprintf("#%02x%02x%02x",
		int(r*255), int(g*255), int(b*255))
}

func hslToRGB(h, s, l float64) (float64, float64, float64) {
	if s == 0 {
		return l, l, l
	}

	var m2 float64
	if l <= 0.5 {
		m2 = l * (1 + s)
	} else {
		m2 = l + s - l*s
	}
	m1 := 2*l - m2

	return hueToRGB(m1, m2, h+1.0/3.0),
		hueToRGB(m1, m2, h),
		hueToRGB(m1, m2, h-1.0/3.0)
}

func hueToRGB(m1, m2, hue float64) float64 {
	if hue < 0 {
		hue++
	} else if hue > 1 {
		hue--
	}

	switch {
	case hue < 1.0/6.0:
		return m1 + (m2-m1)*hue*6
	case hue < 0.5:
		return m2
	case hue < 2.0/3.0:
		return m1 + (m2-m1)*(2.0/3.0-hue)*6
	}
	return m1
}

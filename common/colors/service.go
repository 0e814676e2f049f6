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
	"errors"
	"strings"
)

// Possible reasons for a color configuration to be rejected
var (
	ErrBadAssignment  = errors.New("invalid assignment mode")
	ErrBadInheritance = errors.New("invalid inheritance mode")
)

// AssignmentMode selects how a key is turned into a palette index.
type AssignmentMode string

// Assignment modes
const (
	AssignIncrement AssignmentMode = "increment"
	AssignHash      AssignmentMode = "hash"
)

// InheritanceMode selects how a channel's position in the hierarchy
// influences its colors.
type InheritanceMode string

// Inheritance modes
const (
	InheritUnique InheritanceMode = "unique"
	InheritRoot   InheritanceMode = "root"
	InheritFamily InheritanceMode = "family"
)

// ParseAssignmentMode converts the wire form of an assignment mode.
func ParseAssignmentMode(raw string) (AssignmentMode, error) {
	switch m := AssignmentMode(strings.ToLower(raw)); m {
	case AssignIncrement, AssignHash:
		return m, nil
	}
	return "", ErrBadAssignment
}

// ParseInheritanceMode converts the wire form of an inheritance mode.
func ParseInheritanceMode(raw string) (InheritanceMode, error) {
	switch m := InheritanceMode(strings.ToLower(raw)); m {
	case InheritUnique, InheritRoot, InheritFamily:
		return m, nil
	}
	return "", ErrBadInheritance
}

// Service assigns palettes to channel paths.  A service instance answers
// identically for identical keys; replacing the service resets all of the
// index state.  The owning daemon serializes access.
type Service struct {
	mode    AssignmentMode
	inherit InheritanceMode
	palette *Palette

	channelIndex  map[string]int
	rootIndex     map[string]int
	nextIndex     int
	nextRootIndex int
}

// NewService returns a color service with fresh index state.
func NewService(mode AssignmentMode, inherit InheritanceMode) *Service {
	return &Service{
		mode:         mode,
		inherit:      inherit,
		palette:      NewPalette(DefaultIncrement, 0),
		channelIndex: make(map[string]int),
		rootIndex:    make(map[string]int),
	}
}

// Mode returns the assignment mode.
func (s *Service) Mode() AssignmentMode {
	return s.mode
}

// Inheritance returns the inheritance mode.
func (s *Service) Inheritance() InheritanceMode {
	return s.inherit
}

// SchemeForPath returns the palette for a channel path under the
// configured policies.
func (s *Service) SchemeForPath(path []string) Scheme {
	switch s.inherit {
	case InheritRoot:
		return s.rootScheme(path)
	case InheritFamily:
		return s.familyScheme(path)
	}

	key := strings.Join(path, ".")
	if s.mode == AssignIncrement {
		return s.palette.SchemeForIndex(s.channelIdx(key))
	}
	return s.palette.SchemeForKey(key)
}

func (s *Service) channelIdx(key string) int {
	index, ok := s.channelIndex[key]
	if !ok {
		index = s.nextIndex
		s.channelIndex[key] = index
		s.nextIndex++
	}
	return index
}

// rootIdx assigns (or recalls) the palette index for a top-level segment.
func (s *Service) rootIdx(root string) int {
	index, ok := s.rootIndex[root]
	if !ok {
		if s.mode == AssignIncrement {
			index = s.nextRootIndex
			s.nextRootIndex++
		} else {
			index = IndexForKey(root)
		}
		s.rootIndex[root] = index
	}
	return index
}

// rootScheme keeps one hue per top-level channel and rotates descendants
// 5 degrees per level of depth.
func (s *Service) rootScheme(path []string) Scheme {
	if len(path) == 0 {
		return s.palette.SchemeForIndex(0)
	}

	base := s.palette.HueForIndex(s.rootIdx(path[0]))
	hue := (base + 5*(len(path)-1)) % 360
	return s.palette.SchemeForHue(hue)
}

// familyScheme keeps the root hue for the whole subtree and brightens
// descendants 5% per level of depth, capped so text stays readable.
func (s *Service) familyScheme(path []string) Scheme {
	if len(path) == 0 {
		return s.palette.SchemeForIndex(0)
	}

	hue := s.palette.HueForIndex(s.rootIdx(path[0]))
	offset := float64(5 * (len(path) - 1))

	return Scheme{
		Hue:        hue,
		Background: hslToHex(float64(hue), 35, min(15+offset, 25)),
		Border:     hslToHex(float64(hue), 40, min(30+offset, 40)),
		Normal:     hslToHex(float64(hue), 50, min(65+offset, 80)),
		Highlight:  hslToHex(float64(hue), 60, min(85+offset, 95)),
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

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
	"strings"
)

// ErrEmptyPath is returned for any channel path that does not parse to at
// least one non-empty segment, including paths with leading, trailing, or
// consecutive dots.
var ErrEmptyPath = errors.New("channel path must not be empty")

// Path identifies a channel as an ordered sequence of non-empty segments.
// The wire form joins the segments with '.'.  An empty Path denotes the
// synthetic root, which is never rendered.
type Path []string

// ParsePath converts the dotted wire form into a Path.  Leading, trailing,
// and consecutive dots are all rejected.
func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return nil, ErrEmptyPath
	}

	segments := strings.Split(raw, ".")
	for _, s := range segments {
		if s == "" {
			return nil, ErrEmptyPath
		}
	}

	return Path(segments), nil
}

// String returns the dotted wire form of the path.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Parent returns the path with the final segment removed.  The parent of a
// top-level path is the empty (root) path.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

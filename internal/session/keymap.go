package session

import (
	"fmt"
	"math/rand"

	"github.com/perceptlab/facetrial/internal/manifest"
)

// Version 1 maps the left key to western and the right key to chinese;
// version 2 is the inverse. Which half of participants gets which version is
// the counterbalancing control for response bias.
const (
	VersionLeftWestern = 1
	VersionLeftChinese = 2
)

// ResolveVersion turns the requested version into a concrete one. A zero
// request means "assign randomly"; anything else must be 1 or 2.
func ResolveVersion(requested int, rng *rand.Rand) (int, error) {
	switch requested {
	case 0:
		return VersionLeftWestern + rng.Intn(2), nil
	case VersionLeftWestern, VersionLeftChinese:
		return requested, nil
	default:
		return 0, fmt.Errorf("version must be 1 or 2, got %d", requested)
	}
}

// KeyMap is the resolved key-to-label mapping, fixed for the whole session.
type KeyMap struct {
	Version    int
	Left       string
	Right      string
	LeftLabel  manifest.Source
	RightLabel manifest.Source
}

// NewKeyMap builds the mapping for a resolved version.
func NewKeyMap(version int, leftKey, rightKey string) (KeyMap, error) {
	km := KeyMap{Version: version, Left: leftKey, Right: rightKey}
	switch version {
	case VersionLeftWestern:
		km.LeftLabel = manifest.SourceWestern
		km.RightLabel = manifest.SourceChinese
	case VersionLeftChinese:
		km.LeftLabel = manifest.SourceChinese
		km.RightLabel = manifest.SourceWestern
	default:
		return KeyMap{}, fmt.Errorf("version must be 1 or 2, got %d", version)
	}
	return km, nil
}

// Label decodes a raw key press. The second return is false for keys that are
// not part of the mapping; those presses are ignored by the sequencer.
func (k KeyMap) Label(key string) (manifest.Source, bool) {
	switch key {
	case k.Left:
		return k.LeftLabel, true
	case k.Right:
		return k.RightLabel, true
	default:
		return "", false
	}
}

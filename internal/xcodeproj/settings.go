package xcodeproj

import (
	"sort"
	"strings"
)

// InheritedMarker makes a setting extend the value inherited from lower levels.
const InheritedMarker = "$(inherited)"

// IsInherited reports whether a setting value references the inherited value.
func IsInherited(value string) bool {
	return strings.Contains(value, InheritedMarker) || strings.Contains(value, "${inherited}")
}

// BuildSettings is a read-only, key-ordered view of a configuration's settings.
type BuildSettings struct {
	keys   []string
	values map[string]string
}

func newBuildSettings(o object) BuildSettings {
	s := BuildSettings{values: make(map[string]string, len(o))}
	for k, v := range o {
		s.keys = append(s.keys, k)
		s.values[k] = stringValue(v)
	}
	sort.Strings(s.keys)
	return s
}

// Keys returns the setting names in sorted order.
func (s BuildSettings) Keys() []string { return s.keys }

// Len returns the number of settings.
func (s BuildSettings) Len() int { return len(s.keys) }

// Get returns the value for key.
func (s BuildSettings) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Overrides reports whether key is set directly without pulling in the
// inherited value, which hides anything a base configuration file sets.
func (s BuildSettings) Overrides(key string) bool {
	v, ok := s.values[key]
	return ok && !IsInherited(v)
}

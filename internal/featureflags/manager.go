// Package featureflags evaluates the FEATURE_FLAGS switches.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags. Each is on unless configured otherwise.
const (
	VideoUploads     = "video_uploads"
	RealtimeEvents   = "realtime_events"
	AnonymousReports = "anonymous_reports"
)

var defaults = map[string]bool{
	VideoUploads:     true,
	RealtimeEvents:   true,
	AnonymousReports: true,
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "video_uploads=off,realtime_events=on,anonymous_reports=25%"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := normalize(parts[0])
		value := normalize(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// On reports whether a flag is switched on for the whole deployment. Unset
// flags fall back to their default; percentage rollouts count as off here.
func (m *Manager) On(name string) bool {
	name = normalize(name)
	if m != nil {
		if value, ok := m.flags[name]; ok {
			enabled, _ := evaluate(name, value, 0)
			return enabled
		}
	}
	return defaults[name]
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic user rollout, e.g. 25%)
func (m *Manager) Enabled(name string, userID uint) bool {
	name = normalize(name)
	if m != nil {
		if value, ok := m.flags[name]; ok {
			enabled, _ := evaluate(name, value, userID)
			return enabled
		}
	}
	return defaults[name]
}

func evaluate(name, value string, userID uint) (bool, bool) {
	switch value {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	}

	if !strings.HasSuffix(value, "%") {
		return false, false
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil {
		return false, false
	}
	switch {
	case pct <= 0:
		return false, true
	case pct >= 100:
		return true, true
	case userID == 0:
		return false, true
	}
	return rolloutBucket(name, userID) < pct, true
}

// Snapshot returns evaluated flag status for one user, known flags included.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(defaults))
	for name := range defaults {
		out[name] = m.Enabled(name, userID)
	}
	if m != nil {
		for name := range m.flags {
			out[name] = m.Enabled(name, userID)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", name, userID)))
	return int(h.Sum32() % 100)
}

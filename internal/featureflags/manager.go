package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "chat_ws_push=on,new_listing=25%,legacy_sort=off"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
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

// Enabled returns whether a flag is enabled for a given session.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic per-session rollout, e.g. 25%)
// Unconfigured flags fall back to defaultValue.
func (m *Manager) Enabled(name, sessionID string, defaultValue bool) bool {
	if m == nil {
		return defaultValue
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return defaultValue
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	if strings.HasSuffix(value, "%") {
		pctRaw := strings.TrimSuffix(value, "%")
		pct, err := strconv.Atoi(pctRaw)
		if err != nil {
			return defaultValue
		}
		if pct <= 0 {
			return false
		}
		if pct >= 100 {
			return true
		}
		if sessionID == "" {
			return false
		}
		return rolloutBucket(name, sessionID) < pct
	}

	return defaultValue
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated flag status for one session.
func (m *Manager) Snapshot(sessionID string) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, sessionID, false)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name, sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%s", normalize(name), sessionID)))
	return int(h.Sum32() % 100)
}

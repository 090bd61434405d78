// Package featureflags evaluates rollout flags configured in FEATURE_FLAGS.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Flags understood by the server.
const (
	// RealtimeNotifications enables the websocket notification stream.
	RealtimeNotifications = "realtime_notifications"
	// CategoryCatalogCache serves GET /api/categories from Redis.
	CategoryCatalogCache = "category_catalog_cache"
)

// Manager evaluates flags from a comma-separated key=value list, for example
// "realtime_notifications=25%,category_catalog_cache=on".
type Manager struct {
	flags map[string]string
}

// NewManager parses raw. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return &Manager{flags: out}
}

// Enabled reports whether name is on for userID. Values are on/true/1,
// off/false/0, or N% for a deterministic per-user rollout. Percentage
// rollouts never include anonymous callers.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// EnabledOr is Enabled with a fallback for flags that were never configured.
func (m *Manager) EnabledOr(name string, userID uint, fallback bool) bool {
	if m == nil {
		return fallback
	}
	if _, ok := m.flags[normalize(name)]; !ok {
		return fallback
	}
	return m.Enabled(name, userID)
}

// Snapshot evaluates every configured flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}

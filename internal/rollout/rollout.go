// Package rollout implements percentage-based feature rollout using a
// stable, deterministic hash. Go's built-in map hash is randomized per
// process; FNV-1a is used instead so the same identifier always lands in the
// same bucket across restarts and across machines.
package rollout

import "hash/fnv"

// Bucket returns a value in [0,100) for identifier, stable across processes.
func Bucket(identifier string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identifier))
	return int(h.Sum32() % 100)
}

// Enabled reports whether identifier falls within the first percent of
// buckets. percent is clamped to [0,100]; 0 always returns false, 100 always
// returns true.
func Enabled(identifier string, percent int) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return Bucket(identifier) < percent
}

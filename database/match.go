package database

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizeKey folds a device string for comparison: NFKC, case folding,
// and collapsed whitespace.
func normalizeKey(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Match finds the populated entry describing the device reported as info.
// An exact match after normalisation wins; otherwise the longest key
// contained in info is chosen, so "NVIDIA GeForce RTX 3070/PCIe/SSE2"
// resolves to the RTX 3070 entry. GeneratedKey never matches.
func (s *Store) Match(info string) (string, bool) {
	want := normalizeKey(info)
	if want == "" {
		return "", false
	}

	best := ""
	bestLen := 0
	for _, key := range s.keys {
		if key == GeneratedKey || !s.Populated(key) {
			continue
		}
		k := normalizeKey(key)
		if k == want {
			return key, true
		}
		if strings.Contains(want, k) && len(k) > bestLen {
			best, bestLen = key, len(k)
		}
	}
	return best, best != ""
}

package formats

import "gazelleops/internal/release"

// ResolveGaps computes which desired targets are missing for the target
// torrent and permitted by its encoding.
//
// Siblings are the group's torrents whose remaster key equals the target's
// (the target included). A desired spec is missing when no sibling already
// occupies its (format, encoding) slot. The result preserves the caller's
// desired order, so repeated calls on the same inputs are identical. An empty
// result means the release is fully covered; that is a normal outcome.
func ResolveGaps(group []release.Torrent, target release.Torrent, desired []Spec) []Spec {
	key := target.RemasterGroup()
	present := make(map[Pair]struct{})
	for _, sibling := range group {
		if sibling.RemasterGroup() != key {
			continue
		}
		present[Pair{Format: sibling.Format, Encoding: sibling.Encoding}] = struct{}{}
	}

	permitted := make(map[Pair]struct{})
	for _, spec := range Allowed(target) {
		permitted[spec.Slot()] = struct{}{}
	}

	needed := make([]Spec, 0, len(desired))
	for _, spec := range desired {
		if _, ok := present[spec.Slot()]; ok {
			continue
		}
		if _, ok := permitted[spec.Slot()]; !ok {
			continue
		}
		needed = append(needed, spec)
	}
	return needed
}

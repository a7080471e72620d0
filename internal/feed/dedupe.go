// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package feed

// Deduplicate merges candidate sets in priority order into a single
// aggregate, keeping each ID at its first occurrence. An ID seen again
// in a later (or the same) set is skipped, never moved. Runs in O(n)
// over the total candidate count.
func Deduplicate(sets []CandidateSet) CandidateSet {
	total := 0
	for _, set := range sets {
		total += len(set)
	}

	aggregate := make(CandidateSet, 0, total)
	seen := make(map[CandidateID]struct{}, total)

	for _, set := range sets {
		for _, id := range set {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			aggregate = append(aggregate, id)
		}
	}

	return aggregate
}

package scoring

import (
	"sort"

	"github.com/riskibarqy/office-pools/internal/domain/claim"
)

// StripRankings counts claimed strips per owner, most first. Equal counts keep the order in which
// owners first appear by strip position.
func StripRankings(slots []claim.Slot) []StripRanking {
	ordered := make([]claim.Slot, len(slots))
	copy(ordered, slots)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Ref.Position < ordered[j].Ref.Position
	})

	index := make(map[string]int)
	out := make([]StripRanking, 0)
	for _, s := range ordered {
		if !s.Claimed() {
			continue
		}
		i, ok := index[s.OwnerID]
		if !ok {
			i = len(out)
			index[s.OwnerID] = i
			out = append(out, StripRanking{UserID: s.OwnerID})
		}
		out[i].Claimed++
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Claimed > out[j].Claimed
	})
	return out
}

package domain

// Settlement unit values. A unit is one betUnit of the room's stake.
const (
	// PairTwoChopUnits is the transfer for chopping a pair of 2s with
	// four or more linked pairs.
	PairTwoChopUnits int64 = 10

	blackTwoExtraUnits = 2
	redTwoExtraUnits   = 3
	fourOfKindExtra    = 8
	threePairRunExtra  = 10
	fourPairRunExtra   = 12
)

// SingleTwoChopUnits returns the immediate transfer, in units, for
// chopping a lone 2 with a four of a kind: 4 for a black 2, 8 for a
// red one. Zero when the combo is not a lone 2.
func SingleTwoChopUnits(c Combo) int64 {
	if c.Type != ComboSingle || c.RankPower != RankTwo {
		return 0
	}
	if c.SuitPower <= SuitClubs {
		return 4
	}
	return 8
}

// PenaltyExtraUnits prices the dangerous cards still stuck in a hand:
// +2 per black 2, +3 per red 2, +8 for an unplayed four of a kind, +10
// for a run of three linked pairs, +12 for four or more.
func PenaltyExtraUnits(hand []Card) int64 {
	var extra int64
	rankCounts := make(map[int32]int, len(hand))

	for _, c := range hand {
		rankCounts[c.Rank]++
		if c.IsTwo() {
			if c.IsRed() {
				extra += redTwoExtraUnits
			} else {
				extra += blackTwoExtraUnits
			}
		}
	}

	for _, n := range rankCounts {
		if n == 4 {
			extra += fourOfKindExtra
			break
		}
	}

	switch run := ConsecutivePairRun(hand); {
	case run >= 4:
		extra += fourPairRunExtra
	case run >= 3:
		extra += threePairRunExtra
	}

	return extra
}

// RoundLossUnits is what a losing hand owes the round winner: one unit
// per remaining card (a full, never-played hand counts its 13) plus
// the penalty extras.
func RoundLossUnits(hand []Card) int64 {
	return int64(len(hand)) + PenaltyExtraUnits(hand)
}

// LeavePenaltyUnits prices the hand a player abandoned mid-round. Same
// formula as a round loss, frozen at the moment of departure.
func LeavePenaltyUnits(hand []Card) int64 {
	if len(hand) == 0 {
		return 0
	}
	return RoundLossUnits(hand)
}

// ConsecutivePairRun returns the longest run of consecutive ranks below
// 2 for which the hand holds at least a pair each.
func ConsecutivePairRun(hand []Card) int {
	counts := make(map[int32]int, len(hand))
	for _, c := range hand {
		counts[c.Rank]++
	}

	maxRun, run := 0, 0
	for rank := int32(0); rank < RankTwo; rank++ {
		if counts[rank] >= 2 {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 0
		}
	}
	return maxRun
}

// FindThreeConsecutivePairs extracts a three-linked-pairs run from the
// hand if one exists below rank 2, preferring the lowest qualifying
// run. Returns nil when the hand has none. This is the qualifying
// combo for seizing the opening move.
func FindThreeConsecutivePairs(hand []Card) []Card {
	if len(hand) < 6 {
		return nil
	}

	groups := make(map[int32][]Card)
	sorted := make([]Card, len(hand))
	copy(sorted, hand)
	SortCards(sorted)
	for _, c := range sorted {
		groups[c.Rank] = append(groups[c.Rank], c)
	}

	run := 0
	for rank := int32(0); rank < RankTwo; rank++ {
		if len(groups[rank]) >= 2 {
			run++
			if run >= 3 {
				chosen := make([]Card, 0, 6)
				for take := rank - 2; take <= rank; take++ {
					chosen = append(chosen, groups[take][:2]...)
				}
				SortCards(chosen)
				return chosen
			}
		} else {
			run = 0
		}
	}
	return nil
}

package domain

// CanBeat decides whether next may legally take the table from current.
// A nil current means the trick is being opened, which any valid combo
// may do.
//
// The relation is deliberately kept as an explicit predicate: the chop
// exceptions are asymmetric (a four of a kind beats a lone 2, but two
// fours of a kind compare by rank and suit like any same-shape pair),
// so the rules cannot be linearized into a single score.
func CanBeat(current *Combo, next Combo) bool {
	if next.Type == ComboInvalid {
		return false
	}
	if current == nil {
		return true
	}

	if sameShapeBeats(*current, next) {
		return true
	}

	// Chop escalations. Exactly two, applying only in this direction.
	if current.Type == ComboSingle && current.RankPower == RankTwo && next.Type == ComboFourOfKind {
		return true
	}
	if current.Type == ComboPair && current.RankPower == RankTwo &&
		next.Type == ComboConsecutivePairs && next.Length >= 8 {
		return true
	}

	return false
}

// sameShapeBeats applies the symmetric rule: identical type and length,
// strictly higher rank, suit breaking rank ties.
func sameShapeBeats(current, next Combo) bool {
	if next.Type != current.Type || next.Length != current.Length {
		return false
	}
	if next.RankPower != current.RankPower {
		return next.RankPower > current.RankPower
	}
	return next.SuitPower > current.SuitPower
}

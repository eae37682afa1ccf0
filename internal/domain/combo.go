package domain

// ComboType classifies a playable set of cards.
type ComboType int

const (
	ComboInvalid ComboType = iota
	ComboSingle
	ComboPair
	ComboTriple
	ComboFourOfKind
	ComboStraight
	ComboConsecutivePairs
)

func (t ComboType) String() string {
	switch t {
	case ComboSingle:
		return "single"
	case ComboPair:
		return "pair"
	case ComboTriple:
		return "triple"
	case ComboFourOfKind:
		return "fourOfKind"
	case ComboStraight:
		return "straight"
	case ComboConsecutivePairs:
		return "consecutivePairs"
	default:
		return "invalid"
	}
}

// Combo is a classified, comparable unit of cards. RankPower and
// SuitPower come from the highest-ranked card; for groups that share
// the highest rank the suit is the max suit within that rank. A combo
// is immutable once it lands on the table.
type Combo struct {
	Type      ComboType `json:"type"`
	Length    int       `json:"length"`
	RankPower int32     `json:"rankPower"`
	SuitPower int32     `json:"suitPower"`
	Cards     []Card    `json:"cards"`
}

// DetectCombo classifies a set of cards into a playable combo. The
// second return is false when the cards form no legal shape. Ownership
// of the cards is not checked here.
func DetectCombo(selected []Card) (Combo, bool) {
	if len(selected) == 0 {
		return Combo{}, false
	}

	cards := make([]Card, len(selected))
	copy(cards, selected)
	SortCards(cards)

	n := len(cards)
	highest := cards[n-1]

	if n == 1 {
		return Combo{Type: ComboSingle, Length: 1, RankPower: highest.Rank, SuitPower: highest.Suit, Cards: cards}, true
	}

	if allSameRank(cards) {
		var typ ComboType
		switch n {
		case 2:
			typ = ComboPair
		case 3:
			typ = ComboTriple
		case 4:
			typ = ComboFourOfKind
		default:
			return Combo{}, false
		}
		return Combo{Type: typ, Length: n, RankPower: cards[0].Rank, SuitPower: maxSuitForRank(cards, cards[0].Rank), Cards: cards}, true
	}

	if n >= 3 && isStraight(cards) {
		return Combo{Type: ComboStraight, Length: n, RankPower: highest.Rank, SuitPower: highest.Suit, Cards: cards}, true
	}

	if n >= 6 && n%2 == 0 && isConsecutivePairs(cards) {
		return Combo{Type: ComboConsecutivePairs, Length: n, RankPower: highest.Rank, SuitPower: maxSuitForRank(cards, highest.Rank), Cards: cards}, true
	}

	return Combo{}, false
}

func allSameRank(cards []Card) bool {
	for _, c := range cards {
		if c.Rank != cards[0].Rank {
			return false
		}
	}
	return true
}

func maxSuitForRank(cards []Card, rank int32) int32 {
	max := int32(-1)
	for _, c := range cards {
		if c.Rank == rank && c.Suit > max {
			max = c.Suit
		}
	}
	return max
}

// isStraight expects sorted input: all ranks distinct, consecutive, and
// never including a 2.
func isStraight(cards []Card) bool {
	for i, c := range cards {
		if c.IsTwo() {
			return false
		}
		if i > 0 && c.Rank != cards[i-1].Rank+1 {
			return false
		}
	}
	return true
}

// isConsecutivePairs expects sorted input grouped into rank pairs with
// no gaps between pair ranks, never including a 2.
func isConsecutivePairs(cards []Card) bool {
	prevRank := int32(-1)
	for i := 0; i < len(cards); i += 2 {
		a, b := cards[i], cards[i+1]
		if a.IsTwo() || b.IsTwo() {
			return false
		}
		if a.Rank != b.Rank {
			return false
		}
		if prevRank >= 0 && a.Rank != prevRank+1 {
			return false
		}
		prevRank = a.Rank
	}
	return true
}

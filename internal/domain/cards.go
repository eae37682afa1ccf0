package domain

import (
	"math/rand"
	"sort"
)

// Suit tiebreak order, low to high: spades < clubs < diamonds < hearts.
const (
	SuitSpades int32 = iota
	SuitClubs
	SuitDiamonds
	SuitHearts
)

// Ranks climb 3,4,...,Q,K,A,2. Rank 2 is the highest and can never be
// part of a sequenced combination.
const (
	RankThree int32 = 0
	RankTwo   int32 = 12
)

var rankSymbols = [13]string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}
var suitSymbols = [4]string{"S", "C", "D", "H"}

// Card is a single playing card. Rank 0..12 maps 3..2, Suit 0..3 maps
// spades..hearts.
type Card struct {
	Rank int32 `json:"rank"`
	Suit int32 `json:"suit"`
}

// Power collapses (rank, suit) into a single comparable value. Only
// same-shape combinations are ever compared through it.
func (c Card) Power() int32 {
	return c.Rank*4 + c.Suit
}

// IsTwo reports whether the card is a 2 of any suit.
func (c Card) IsTwo() bool {
	return c.Rank == RankTwo
}

// IsRed reports whether the card is diamonds or hearts. Red 2s carry a
// heavier unplayed-card penalty than black ones.
func (c Card) IsRed() bool {
	return c.Suit == SuitDiamonds || c.Suit == SuitHearts
}

// String renders the card the way ledger notes and logs show it, e.g.
// "3S" or "10H".
func (c Card) String() string {
	if c.Rank < 0 || c.Rank > 12 || c.Suit < 0 || c.Suit > 3 {
		return "??"
	}
	return rankSymbols[c.Rank] + suitSymbols[c.Suit]
}

// ThreeOfSpades is the lowest card in the deck and the designated lead
// card for the first move of a fresh table.
var ThreeOfSpades = Card{Rank: RankThree, Suit: SuitSpades}

// NewDeck returns all 52 cards in deterministic order.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for r := int32(0); r <= 12; r++ {
		for s := int32(0); s <= 3; s++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// ShuffleDeck returns a shuffled copy of the given deck.
func ShuffleDeck(rng *rand.Rand, deck []Card) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// SortCards orders cards ascending by power, in place. Hands are kept
// sorted so the lowest card is always at index 0.
func SortCards(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Power() < cards[j].Power()
	})
}

// HandContains checks multiset containment: every selected card must be
// present in the hand, counting duplicates.
func HandContains(hand []Card, selected []Card) bool {
	counts := make(map[Card]int, len(hand))
	for _, c := range hand {
		counts[c]++
	}
	for _, c := range selected {
		if counts[c] == 0 {
			return false
		}
		counts[c]--
	}
	return true
}

// RemoveCards removes the selected cards from a hand and returns the
// updated hand, still sorted.
func RemoveCards(hand []Card, selected []Card) []Card {
	removeCounts := make(map[Card]int, len(selected))
	for _, c := range selected {
		removeCounts[c]++
	}

	updated := make([]Card, 0, len(hand))
	for _, c := range hand {
		if n, ok := removeCounts[c]; ok && n > 0 {
			removeCounts[c] = n - 1
			continue
		}
		updated = append(updated, c)
	}
	return updated
}
